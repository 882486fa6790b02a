package project

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/flavien-hugs/yimba-api/internal/apperr"
	"github.com/flavien-hugs/yimba-api/internal/auth"
	"github.com/flavien-hugs/yimba-api/internal/storage"
)

type testEnv struct {
	app   *fiber.App
	h     *Handler
	token string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mgr, err := auth.NewManager("secret", "HS256", 30, 1440)
	require.NoError(t, err)

	h, err := NewHandler(storage.NewMemoryStore(), mgr, zap.NewNop().Sugar())
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

	token, err := mgr.CreateAccessToken("owner-1", "client", "client@yimba.com")
	require.NoError(t, err)
	return &testEnv{app: app, h: h, token: token}
}

func (e *testEnv) do(t *testing.T, method, target, payload string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(payload))
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+e.token)
	if payload != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	var out map[string]any
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestCreateSplitsCommaSeparatedNames(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/api/project/",
		`{"name": "Côte d'Ivoire, élections , "}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["oid"])

	projects, err := env.h.projects.Find(context.Background(), bson.M{})
	require.NoError(t, err)
	require.Len(t, projects, 2)

	slugs := []string{projects[0].Slug, projects[1].Slug}
	assert.Contains(t, slugs, "cote-d-ivoire")
	assert.Contains(t, slugs, "elections")
	for _, p := range projects {
		assert.Equal(t, "owner-1", p.UserID)
	}
}

func TestCreateEmptyName(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/api/project/", `{"name": " , "}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Le nom du projet est obligatoire.", body["message"])
}

func TestBySlugReturnsKeyValuePairs(t *testing.T) {
	env := newTestEnv(t)

	_, _ = env.do(t, http.MethodPost, "/api/project/", `{"name": "Abidjan"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/project/by-slug/abidjan", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+env.token)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var entries []map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "abidjan", entries[0]["key"])
	assert.Equal(t, "Abidjan", entries[0]["value"])
}

func TestGetUnknownProject(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/api/project/64f000000000000000000000", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Project 64f000000000000000000000 not found.", body["message"])
}

func TestUpdateRenamesAndReslugs(t *testing.T) {
	env := newTestEnv(t)

	_, created := env.do(t, http.MethodPost, "/api/project/", `{"name": "Abidjan"}`)
	id, _ := created["oid"].(string)
	require.NotEmpty(t, id)

	resp, body := env.do(t, http.MethodPatch, "/api/project/"+id, `{"name": "Grand Bassam"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["modified_count"])

	project, err := env.h.projects.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Grand Bassam", project.Name)
	assert.Equal(t, "grand-bassam", project.Slug)
}

func TestDeleteEnvelope(t *testing.T) {
	env := newTestEnv(t)

	_, created := env.do(t, http.MethodPost, "/api/project/", `{"name": "Abidjan"}`)
	id, _ := created["oid"].(string)

	resp, body := env.do(t, http.MethodDelete, "/api/project/"+id, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["deleted_count"])

	resp, _ = env.do(t, http.MethodDelete, "/api/project/"+id, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestListFiltersByOwnerOrName(t *testing.T) {
	env := newTestEnv(t)

	_, _ = env.do(t, http.MethodPost, "/api/project/", `{"name": "Abidjan, Bouaké"}`)

	resp, body := env.do(t, http.MethodGet, "/api/project/?search=abidjan", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["total"])
}
