// Package auth implements the account service: user CRUD, login and token
// refresh for all the other services.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/flavien-hugs/yimba-api/internal/apperr"
	token "github.com/flavien-hugs/yimba-api/internal/auth"
	"github.com/flavien-hugs/yimba-api/internal/mail"
	"github.com/flavien-hugs/yimba-api/internal/middleware"
	"github.com/flavien-hugs/yimba-api/internal/models"
	"github.com/flavien-hugs/yimba-api/internal/remote"
	"github.com/flavien-hugs/yimba-api/internal/storage"
)

type Handler struct {
	users  *storage.Collection[models.User]
	mgr    *token.Manager
	remote *remote.Client
	mailer *mail.Mailer
	log    *zap.SugaredLogger
}

func NewHandler(store storage.Store, mgr *token.Manager, rc *remote.Client, mailer *mail.Mailer, log *zap.SugaredLogger) (*Handler, error) {
	users, err := storage.NewCollection[models.User](store, "user")
	if err != nil {
		return nil, err
	}
	return &Handler{users: users, mgr: mgr, remote: rc, mailer: mailer, log: log}, nil
}

func (h *Handler) Register(app *fiber.App) {
	staff := middleware.Bearer(h.mgr, "admin", "staff")
	admin := middleware.Bearer(h.mgr, "admin")
	anyRole := middleware.Bearer(h.mgr, "admin", "staff", "company", "client")

	group := app.Group("/api/auth")
	group.Get("/@ping", h.ping)
	group.Post("/users", h.createUser)
	group.Post("/users/clients", h.createUser)
	group.Get("/users", staff, h.listUsers)
	group.Get("/users/:id", anyRole, h.getUser)
	group.Patch("/users/:id", staff, h.updateUser)
	group.Put("/users/:id", admin, h.manageAccount)
	group.Delete("/users/:id", admin, h.deleteUser)
	group.Post("/login", h.login)
	group.Post("/change-password", h.changePassword)
	group.Post("/logout", staff, h.logout)
	group.Post("/refresh-token", staff, h.refreshToken)
}

func (h *Handler) ping(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "pong !"})
}

type signupPayload struct {
	Role     string `json:"role"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Fullname string `json:"fullname"`
}

func (h *Handler) createUser(c *fiber.Ctx) error {
	var payload signupPayload
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if payload.Email == "" || payload.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email et mot de passe sont obligatoires.")
	}

	role, err := h.remote.ValidateRoleExists(c.Context(), payload.Role, middleware.Credential(c))
	if err != nil {
		return err
	}
	hashed, err := token.HashPassword(payload.Password)
	if err != nil {
		return err
	}

	user := models.User{
		Role:     role,
		Email:    strings.ToLower(payload.Email),
		Password: hashed,
		Fullname: payload.Fullname,
		IsActive: true,
	}
	id, err := h.users.Save(c.Context(), &user)
	if err != nil {
		if apperr.Status(err) == fiber.StatusConflict {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("Cette adresse e-mail: '%s' est déjà utilisé !", payload.Email))
		}
		return err
	}

	h.mailer.SendAsync(user.Email, "Bienvenue sur Yimba !",
		fmt.Sprintf("<p>Bonjour %s,</p><p>Votre compte Yimba a été créé avec succès.</p>", user.Fullname))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"oid":          id,
		"acknowledged": true,
		"inserted_id":  id,
	})
}

func (h *Handler) listUsers(c *fiber.Ctx) error {
	query := c.Query("search")
	filter := bson.M{}
	if query != "" {
		filter = bson.M{"$or": []bson.M{
			{"email": bson.M{"$regex": query, "$options": "i"}},
			{"fullname": bson.M{"$regex": query, "$options": "i"}},
		}}
	}
	users, err := h.users.Find(c.Context(), filter)
	if err != nil {
		return err
	}
	out := make([]models.UserOut, 0, len(users))
	for i := range users {
		out = append(out, users[i].Out())
	}
	return c.JSON(storage.Paginate(out, c.QueryInt("page", 1), c.QueryInt("size", 0)))
}

func (h *Handler) getUser(c *fiber.Ctx) error {
	id := c.Params("id")
	user, err := h.users.Get(c.Context(), id)
	if err != nil {
		if apperr.Status(err) == fiber.StatusNotFound {
			return fiber.NewError(fiber.StatusNotFound,
				fmt.Sprintf("User with ID '%s' not found.", id))
		}
		return err
	}
	return c.JSON(user.Out())
}

type updateUserPayload struct {
	Role     *string `json:"role"`
	Fullname *string `json:"fullname"`
}

func (h *Handler) updateUser(c *fiber.Ctx) error {
	id := c.Params("id")
	var payload updateUserPayload
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	fields := bson.M{}
	if payload.Role != nil {
		fields["role"] = *payload.Role
	}
	if payload.Fullname != nil {
		fields["fullname"] = *payload.Fullname
	}
	if len(fields) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Aucun champ à mettre à jour.")
	}
	count, err := h.users.UpdateFields(c.Context(), id, fields)
	if err != nil {
		return err
	}
	if count == 0 {
		return fiber.NewError(fiber.StatusNotFound,
			fmt.Sprintf("User with ID '%s' not found.", id))
	}
	return c.JSON(fiber.Map{"oid": id, "acknowledged": true, "modified_count": count})
}

type manageAccountPayload struct {
	IsActive bool `json:"is_active"`
}

func (h *Handler) manageAccount(c *fiber.Ctx) error {
	id := c.Params("id")
	var payload manageAccountPayload
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	user, err := h.users.Get(c.Context(), id)
	if err != nil {
		if apperr.Status(err) == fiber.StatusNotFound {
			return fiber.NewError(fiber.StatusNotFound,
				fmt.Sprintf("User with ID '%s' not found.", id))
		}
		return err
	}
	if _, err := h.users.UpdateFields(c.Context(), id, bson.M{"is_active": payload.IsActive}); err != nil {
		return err
	}
	action := "désactivé"
	if payload.IsActive {
		action = "activé"
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Le compte Utilisateur '%s' a été %s avec succès.",
			strings.ToLower(user.Email), action),
	})
}

func (h *Handler) deleteUser(c *fiber.Ctx) error {
	id := c.Params("id")
	count, err := h.users.DeleteByID(c.Context(), id)
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

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *fiber.Ctx) error {
	var payload loginPayload
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	user, err := h.users.FindOne(c.Context(), bson.M{"email": strings.ToLower(payload.Email)})
	if err != nil {
		if apperr.Status(err) == fiber.StatusNotFound {
			return fiber.NewError(fiber.StatusBadRequest,
				"Adresse e-mail incorrecte ou n'existe pas.")
		}
		return err
	}
	if !user.IsActive {
		return fiber.NewError(fiber.StatusBadRequest,
			"Votre compte a été désactivé. Contacter l'administrateur principal !")
	}
	if !token.VerifyPassword(payload.Password, user.Password) {
		return fiber.NewError(fiber.StatusBadRequest, "Votre mot de passe est incorrecte")
	}

	access, err := h.mgr.CreateAccessToken(user.ID, user.Role, payload.Email)
	if err != nil {
		return err
	}
	refresh, err := h.mgr.CreateRefreshToken(user.ID, user.Role, payload.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"access_token":  access,
		"refresh_token": refresh,
		"user":          user.Out(),
	})
}

type changePasswordPayload struct {
	Email string `json:"email"`
}

// randomPassword returns a short url-safe secret for password resets.
func randomPassword() (string, error) {
	raw := make([]byte, 6)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func (h *Handler) changePassword(c *fiber.Ctx) error {
	var payload changePasswordPayload
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	user, err := h.users.FindOne(c.Context(), bson.M{"email": strings.ToLower(payload.Email)})
	if err != nil {
		if apperr.Status(err) == fiber.StatusNotFound {
			return fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("L'utilisateur avec l'e-mail '%s' n'a pas été trouvé.", payload.Email))
		}
		return err
	}

	password, err := randomPassword()
	if err != nil {
		return err
	}
	hashed, err := token.HashPassword(password)
	if err != nil {
		return err
	}
	if _, err := h.users.UpdateFields(c.Context(), user.ID, bson.M{"password": hashed}); err != nil {
		return err
	}

	h.mailer.SendAsync(user.Email, "Votre nouveau mot de passe",
		fmt.Sprintf("<p>Votre nouveau mot de passe est : <strong>%s</strong></p>", password))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": fmt.Sprintf("Votre nouveau mot de passe est : %s", password),
	})
}

// Deprecated endpoint kept for clients that still call it: tokens are
// stateless, nothing is revoked server side.
func (h *Handler) logout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Logout successful"})
}

type refreshPayload struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) refreshToken(c *fiber.Ctx) error {
	var payload refreshPayload
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	claims, err := h.mgr.DecodeToken(payload.RefreshToken)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrUnauthorized, err)
	}
	access, err := h.mgr.CreateAccessToken(claims.Subject, claims.RoleOrType, claims.Email)
	if err != nil {
		return err
	}
	refresh, err := h.mgr.CreateRefreshToken(claims.Subject, claims.RoleOrType, claims.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"access_token": access, "refresh_token": refresh})
}
