package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flavien-hugs/yimba-api/internal/apperr"
	token "github.com/flavien-hugs/yimba-api/internal/auth"
	"github.com/flavien-hugs/yimba-api/internal/config"
	"github.com/flavien-hugs/yimba-api/internal/remote"
	"github.com/flavien-hugs/yimba-api/internal/storage"
)

// paramsStub fakes the params service role lookup the signup flow depends on.
func paramsStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimPrefix(r.URL.Path, "/roles/")
		w.Header().Set("Content-Type", "application/json")
		if slug == "client" || slug == "admin" {
			fmt.Fprintf(w, `[{"key": %q, "value": %q}]`, slug, slug)
			return
		}
		fmt.Fprint(w, `[]`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T) (*fiber.App, *token.Manager) {
	t.Helper()
	mgr, err := token.NewManager("secret", "HS256", 30, 1440)
	require.NoError(t, err)

	log := zap.NewNop().Sugar()
	rc := remote.New(config.ServicesCfg{ParamsURL: paramsStub(t).URL}, log)

	h, err := NewHandler(storage.NewMemoryStore(), mgr, rc, nil, log)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
			}
			return c.Status(apperr.Status(err)).JSON(fiber.Map{"message": err.Error()})
		},
	})
	h.Register(app)
	return app, mgr
}

func do(t *testing.T, app *fiber.App, method, target, bearer, payload string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(payload))
	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	}
	if payload != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	var out map[string]any
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func signup(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	resp, body := do(t, app, http.MethodPost, "/api/auth/users", "",
		fmt.Sprintf(`{"role": "client", "email": %q, "password": %q, "fullname": "Test User"}`, email, password))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	id, _ := body["inserted_id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestSignupAndLogin(t *testing.T) {
	app, _ := newTestApp(t)

	signup(t, app, "Marie@Yimba.com", "s3cret")

	resp, body := do(t, app, http.MethodPost, "/api/auth/login", "",
		`{"email": "marie@yimba.com", "password": "s3cret"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])

	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "marie@yimba.com", user["email"])
	assert.Equal(t, "client", user["role"])
	assert.NotContains(t, user, "password")
}

func TestSignupDuplicateEmail(t *testing.T) {
	app, _ := newTestApp(t)

	signup(t, app, "marie@yimba.com", "s3cret")

	resp, body := do(t, app, http.MethodPost, "/api/auth/users", "",
		`{"role": "client", "email": "marie@yimba.com", "password": "other"}`)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Cette adresse e-mail: 'marie@yimba.com' est déjà utilisé !", body["message"])
}

func TestSignupUnknownRole(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := do(t, app, http.MethodPost, "/api/auth/users", "",
		`{"role": "ghost", "email": "x@yimba.com", "password": "pw"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["message"], "Role 'ghost' not found.")
}

func TestLoginWrongPassword(t *testing.T) {
	app, _ := newTestApp(t)

	signup(t, app, "marie@yimba.com", "s3cret")

	resp, body := do(t, app, http.MethodPost, "/api/auth/login", "",
		`{"email": "marie@yimba.com", "password": "wrong"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Votre mot de passe est incorrecte", body["message"])
}

func TestLoginUnknownEmail(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := do(t, app, http.MethodPost, "/api/auth/login", "",
		`{"email": "ghost@yimba.com", "password": "pw"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Adresse e-mail incorrecte ou n'existe pas.", body["message"])
}

func TestLoginDeactivatedAccount(t *testing.T) {
	app, mgr := newTestApp(t)

	id := signup(t, app, "marie@yimba.com", "s3cret")

	admin, err := mgr.CreateAccessToken("root", "admin", "admin@yimba.com")
	require.NoError(t, err)
	resp, body := do(t, app, http.MethodPut, "/api/auth/users/"+id, admin, `{"is_active": false}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Le compte Utilisateur 'marie@yimba.com' a été désactivé avec succès.", body["message"])

	resp, body = do(t, app, http.MethodPost, "/api/auth/login", "",
		`{"email": "marie@yimba.com", "password": "s3cret"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Votre compte a été désactivé. Contacter l'administrateur principal !", body["message"])
}

func TestChangePassword(t *testing.T) {
	app, _ := newTestApp(t)

	signup(t, app, "marie@yimba.com", "s3cret")

	resp, body := do(t, app, http.MethodPost, "/api/auth/change-password", "",
		`{"email": "marie@yimba.com"}`)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	message, _ := body["message"].(string)
	require.True(t, strings.HasPrefix(message, "Votre nouveau mot de passe est : "))
	password := strings.TrimPrefix(message, "Votre nouveau mot de passe est : ")

	// old password no longer works, the generated one does
	resp, _ = do(t, app, http.MethodPost, "/api/auth/login", "",
		`{"email": "marie@yimba.com", "password": "s3cret"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPost, "/api/auth/login", "",
		fmt.Sprintf(`{"email": "marie@yimba.com", "password": %q}`, password))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRefreshToken(t *testing.T) {
	app, mgr := newTestApp(t)

	staff, err := mgr.CreateAccessToken("u1", "staff", "staff@yimba.com")
	require.NoError(t, err)
	refresh, err := mgr.CreateRefreshToken("u1", "staff", "staff@yimba.com")
	require.NoError(t, err)

	resp, body := do(t, app, http.MethodPost, "/api/auth/refresh-token", staff,
		fmt.Sprintf(`{"refresh_token": %q}`, refresh))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])

	claims, err := mgr.DecodeToken(body["access_token"].(string))
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "staff", claims.RoleOrType)
}

func TestRefreshTokenRejectsGarbage(t *testing.T) {
	app, mgr := newTestApp(t)

	staff, err := mgr.CreateAccessToken("u1", "staff", "staff@yimba.com")
	require.NoError(t, err)

	resp, _ := do(t, app, http.MethodPost, "/api/auth/refresh-token", staff,
		`{"refresh_token": "garbage"}`)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestGetUserNotFound(t *testing.T) {
	app, mgr := newTestApp(t)

	admin, err := mgr.CreateAccessToken("root", "admin", "admin@yimba.com")
	require.NoError(t, err)

	resp, body := do(t, app, http.MethodGet, "/api/auth/users/64f000000000000000000000", admin, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User with ID '64f000000000000000000000' not found.", body["message"])
}

func TestListUsersFiltersByEmail(t *testing.T) {
	app, mgr := newTestApp(t)

	signup(t, app, "marie@yimba.com", "pw")
	signup(t, app, "jean@yimba.com", "pw")

	admin, err := mgr.CreateAccessToken("root", "admin", "admin@yimba.com")
	require.NoError(t, err)

	resp, body := do(t, app, http.MethodGet, "/api/auth/users?search=marie", admin, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["total"])
}
