// Package remote is the client the services use to call each other:
// resource-existence checks before a scrape and fire-and-forget forwarding
// of sentiment records to the analyse service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/flavien-hugs/yimba-api/internal/apperr"
	"github.com/flavien-hugs/yimba-api/internal/config"
	"github.com/flavien-hugs/yimba-api/internal/httpclient"
)

type Client struct {
	http *httpclient.Client
	cfg  config.ServicesCfg
	log  *zap.SugaredLogger
}

func New(cfg config.ServicesCfg, log *zap.SugaredLogger) *Client {
	return &Client{
		http: httpclient.New(httpclient.Config{
			Timeout:         15 * time.Second,
			RetryMaxElapsed: 30 * time.Second,
		}),
		cfg: cfg,
		log: log,
	}
}

func (c *Client) get(ctx context.Context, url, bearer string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(fiberAuthHeader, "Bearer "+bearer)
	return c.http.DoWithRetry(ctx, req)
}

const fiberAuthHeader = "Authorization"

type slugEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (c *Client) validateSlug(ctx context.Context, baseURL, path, slug, bearer, missingMsg string) (string, error) {
	url := fmt.Sprintf("%s/%s/%s", strings.TrimRight(baseURL, "/"), path, slug)
	resp, err := c.get(ctx, url, bearer)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: %s returned %d: %s", apperr.ErrUpstream, url, resp.StatusCode, body)
	}
	var entries []slugEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return "", fmt.Errorf("%w: decoding %s response: %v", apperr.ErrUpstream, url, err)
	}
	if len(entries) == 0 || entries[0].Value == "" {
		return "", fmt.Errorf("%w: %s", apperr.ErrValidation, missingMsg)
	}
	return entries[0].Value, nil
}

// ValidateRoleExists checks the params service for the role slug and returns
// the role name.
func (c *Client) ValidateRoleExists(ctx context.Context, slug, bearer string) (string, error) {
	return c.validateSlug(ctx, c.cfg.ParamsURL, "roles", slug, bearer,
		fmt.Sprintf("Role '%s' not found.", slug))
}

// ValidateProjectExists checks the project service for the project slug and
// returns the project name.
func (c *Client) ValidateProjectExists(ctx context.Context, slug, bearer string) (string, error) {
	return c.validateSlug(ctx, c.cfg.ProjectURL, "by-slug", slug, bearer,
		fmt.Sprintf("Project '%s' not found.", slug))
}

// AnalysePayload is the sentiment record forwarded to the analyse service.
type AnalysePayload struct {
	PostID   string  `json:"post_id"`
	Neutre   float64 `json:"neutre"`
	Negatif  float64 `json:"negatif"`
	Positif  float64 `json:"positif"`
	Compound float64 `json:"compound"`
}

// ForwardAnalyse posts a sentiment record to the analyse service. It runs in
// the scrape loop's background path: failures are logged, never surfaced to
// the client response.
func (c *Client) ForwardAnalyse(ctx context.Context, payload AnalysePayload, bearer string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	url := strings.TrimRight(c.cfg.AnalyseURL, "/") + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(fiberAuthHeader, "Bearer "+bearer)

	resp, err := c.http.DoWithRetry(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("analyse service returned %d: %s", resp.StatusCode, b)
	}
	return nil
}
