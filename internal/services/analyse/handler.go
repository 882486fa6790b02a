// Package analyse implements the sentiment service. The scraping services
// forward one record per persisted post; this service stores and serves
// them for the reporting side.
package analyse

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/flavien-hugs/yimba-api/internal/apperr"
	"github.com/flavien-hugs/yimba-api/internal/auth"
	"github.com/flavien-hugs/yimba-api/internal/middleware"
	"github.com/flavien-hugs/yimba-api/internal/models"
	"github.com/flavien-hugs/yimba-api/internal/storage"
)

type Handler struct {
	analyses *storage.Collection[models.Analyse]
	mgr      *auth.Manager
	log      *zap.SugaredLogger
}

func NewHandler(store storage.Store, mgr *auth.Manager, log *zap.SugaredLogger) (*Handler, error) {
	analyses, err := storage.NewCollection[models.Analyse](store, "analyse")
	if err != nil {
		return nil, err
	}
	return &Handler{analyses: analyses, mgr: mgr, log: log}, nil
}

func (h *Handler) Register(app *fiber.App) {
	read := middleware.Bearer(h.mgr, "admin", "client")
	admin := middleware.Bearer(h.mgr, "admin")

	group := app.Group("/api/analyse")
	group.Get("/@ping", h.ping)
	group.Get("/", read, h.list)
	group.Post("/", read, h.create)
	group.Get("/:id", read, h.get)
	group.Delete("/:id", admin, h.remove)
}

func (h *Handler) ping(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "pong !"})
}

func (h *Handler) list(c *fiber.Ctx) error {
	filter := bson.M{}
	if query := c.Query("search"); query != "" {
		filter = bson.M{"post_id": query}
	}
	items, err := h.analyses.Find(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(storage.Paginate(items, c.QueryInt("page", 1), c.QueryInt("size", 0)))
}

func (h *Handler) create(c *fiber.Ctx) error {
	var payload models.Analyse
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if payload.PostID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "post_id est obligatoire.")
	}
	id, err := h.analyses.Save(c.Context(), &payload)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"oid":          id,
		"acknowledged": true,
		"inserted_id":  id,
	})
}

func (h *Handler) get(c *fiber.Ctx) error {
	id := c.Params("id")
	item, err := h.analyses.Get(c.Context(), id)
	if err != nil {
		if apperr.Status(err) == fiber.StatusNotFound {
			return fiber.NewError(fiber.StatusNotFound,
				fmt.Sprintf("Analyse with ID '%s' not found.", id))
		}
		return err
	}
	return c.JSON(item)
}

func (h *Handler) remove(c *fiber.Ctx) error {
	id := c.Params("id")
	count, err := h.analyses.DeleteByID(c.Context(), id)
	if err != nil {
		return err
	}
	status := fiber.StatusOK
	if count == 0 {
		status = fiber.StatusNotFound
	}
	return c.Status(status).JSON(fiber.Map{
		"oid":           id,
		"acknowledged":  true,
		"deleted_count": count,
	})
}
