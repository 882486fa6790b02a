// Package params implements the params service, which currently manages the
// role referential consumed by the auth service.
package params

import (
	"fmt"

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
	roles *storage.Collection[models.Role]
	mgr   *auth.Manager
	log   *zap.SugaredLogger
}

func NewHandler(store storage.Store, mgr *auth.Manager, log *zap.SugaredLogger) (*Handler, error) {
	roles, err := storage.NewCollection[models.Role](store, "role")
	if err != nil {
		return nil, err
	}
	return &Handler{roles: roles, mgr: mgr, log: log}, nil
}

// Register mounts the role routes. Lookup by slug stays open: the auth
// service resolves roles during signup, before any token exists.
func (h *Handler) Register(app *fiber.App) {
	read := middleware.Bearer(h.mgr, "admin", "client")
	admin := middleware.Bearer(h.mgr, "admin")

	group := app.Group("/api/params")
	group.Get("/@ping", h.ping)
	group.Get("/roles", read, h.listRoles)
	group.Get("/roles/:slug", h.getRole)
	group.Post("/roles", admin, h.addRole)
	group.Patch("/roles/:id", admin, h.updateRole)
	group.Delete("/roles/:id", admin, h.deleteRole)
}

func (h *Handler) ping(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "pong !"})
}

func rolesOut(items []models.Role) []fiber.Map {
	out := make([]fiber.Map, 0, len(items))
	for _, item := range items {
		out = append(out, fiber.Map{"key": item.Slug, "value": item.Name})
	}
	return out
}

func (h *Handler) listRoles(c *fiber.Ctx) error {
	items, err := h.roles.Find(c.Context(), bson.M{})
	if err != nil {
		return err
	}
	return c.JSON(rolesOut(items))
}

func (h *Handler) getRole(c *fiber.Ctx) error {
	items, err := h.roles.Find(c.Context(), bson.M{"slug": c.Params("slug")})
	if err != nil {
		return err
	}
	return c.JSON(rolesOut(items))
}

type rolePayload struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (h *Handler) addRole(c *fiber.Ctx) error {
	var payload rolePayload
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if payload.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Le nom du rôle est obligatoire.")
	}
	if payload.Slug == "" {
		payload.Slug = slug.Make(payload.Name)
	}

	existing, err := h.roles.FindOne(c.Context(), bson.M{"slug": payload.Slug, "name": payload.Name})
	if err != nil && apperr.Status(err) != fiber.StatusNotFound {
		return err
	}
	if existing != nil {
		return fiber.NewError(fiber.StatusConflict,
			fmt.Sprintf("Role '%s' is already exist !", existing.Slug))
	}

	role := models.Role{Name: payload.Name, Slug: payload.Slug}
	if _, err := h.roles.Save(c.Context(), &role); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(role)
}

func (h *Handler) updateRole(c *fiber.Ctx) error {
	id := c.Params("id")
	var payload rolePayload
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	fields := bson.M{}
	if payload.Name != "" {
		fields["name"] = payload.Name
	}
	if payload.Slug != "" {
		fields["slug"] = payload.Slug
	}
	if len(fields) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid attribute: empty payload")
	}
	count, err := h.roles.UpdateFields(c.Context(), id, fields)
	if err != nil {
		if apperr.Status(err) == fiber.StatusConflict {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return err
	}
	if count == 0 {
		return fiber.NewError(fiber.StatusNotFound,
			fmt.Sprintf("Role with ID '%s' not found.", id))
	}
	return c.JSON(fiber.Map{"oid": id, "acknowledged": true, "modified_count": count})
}

func (h *Handler) deleteRole(c *fiber.Ctx) error {
	id := c.Params("id")
	count, err := h.roles.DeleteByID(c.Context(), id)
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
