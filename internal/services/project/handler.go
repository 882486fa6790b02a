// Package project implements the project service: named keyword sets a user
// tracks across the network services.
package project

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/flavien-hugs/yimba-api/internal/apperr"
	"github.com/flavien-hugs/yimba-api/internal/auth"
	"github.com/flavien-hugs/yimba-api/internal/middleware"
	"github.com/flavien-hugs/yimba-api/internal/models"
	"github.com/flavien-hugs/yimba-api/internal/storage"
)

type Handler struct {
	projects *storage.Collection[models.Project]
	mgr      *auth.Manager
	log      *zap.SugaredLogger
}

func NewHandler(store storage.Store, mgr *auth.Manager, log *zap.SugaredLogger) (*Handler, error) {
	projects, err := storage.NewCollection[models.Project](store, "project")
	if err != nil {
		return nil, err
	}
	return &Handler{projects: projects, mgr: mgr, log: log}, nil
}

func (h *Handler) Register(app *fiber.App) {
	read := middleware.Bearer(h.mgr, "admin", "client")

	group := app.Group("/api/project")
	group.Get("/@ping", h.ping)
	group.Post("/", read, h.create)
	group.Get("/", read, h.list)
	group.Get("/by-slug/:slug", read, h.bySlug)
	group.Get("/:id", read, h.get)
	group.Patch("/:id", read, h.update)
	group.Delete("/:id", read, h.remove)
}

func (h *Handler) ping(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "pong !"})
}

type projectPayload struct {
	Name string `json:"name"`
}

// create accepts a comma-separated list of names and stores one project per
// entry, all owned by the caller taken from the access token.
func (h *Handler) create(c *fiber.Ctx) error {
	var payload projectPayload
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	claims, err := h.mgr.DecodeToken(middleware.Credential(c))
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}

	var lastID string
	created := 0
	for _, name := range strings.Split(payload.Name, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		project := models.Project{
			Name:   name,
			Slug:   slug.Make(name),
			UserID: claims.Subject,
		}
		id, err := h.projects.Save(c.Context(), &project)
		if err != nil {
			return err
		}
		lastID = id
		created++
	}
	if created == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Le nom du projet est obligatoire.")
	}
	return c.JSON(fiber.Map{
		"oid":          lastID,
		"acknowledged": true,
		"inserted_id":  lastID,
	})
}

func (h *Handler) list(c *fiber.Ctx) error {
	query := c.Query("search")
	filter := bson.M{}
	if query != "" {
		filter = bson.M{"$or": []bson.M{
			{"user_id": bson.M{"$regex": query, "$options": "i"}},
			{"name": bson.M{"$regex": query, "$options": "i"}},
		}}
	}
	items, err := h.projects.Find(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(storage.Paginate(items, c.QueryInt("page", 1), c.QueryInt("size", 0)))
}

// bySlug returns key/value entries, the shape the scraping services consume
// when they validate a project before a run.
func (h *Handler) bySlug(c *fiber.Ctx) error {
	items, err := h.projects.Find(c.Context(), bson.M{"slug": c.Params("slug")})
	if err != nil {
		return err
	}
	out := make([]fiber.Map, 0, len(items))
	for _, item := range items {
		out = append(out, fiber.Map{"key": item.Slug, "value": item.Name})
	}
	return c.JSON(out)
}

func (h *Handler) get(c *fiber.Ctx) error {
	id := c.Params("id")
	project, err := h.projects.Get(c.Context(), id)
	if err != nil {
		if apperr.Status(err) == fiber.StatusNotFound {
			return fiber.NewError(fiber.StatusNotFound,
				fmt.Sprintf("Project %s not found.", id))
		}
		return err
	}
	return c.JSON(project)
}

func (h *Handler) update(c *fiber.Ctx) error {
	id := c.Params("id")
	var payload projectPayload
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if payload.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Le nom du projet est obligatoire.")
	}
	count, err := h.projects.UpdateFields(c.Context(), id, bson.M{
		"name": payload.Name,
		"slug": slug.Make(payload.Name),
	})
	if err != nil {
		return err
	}
	if count == 0 {
		return fiber.NewError(fiber.StatusNotFound,
			fmt.Sprintf("Project %s not found.", id))
	}
	return c.JSON(fiber.Map{"oid": id, "acknowledged": true, "modified_count": count})
}

func (h *Handler) remove(c *fiber.Ctx) error {
	id := c.Params("id")
	count, err := h.projects.DeleteByID(c.Context(), id)
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
