// Package scraper wraps the hosted scraping actors (Apify) and NewsAPI. An
// actor is started with a network-specific run input, polled to completion
// and its default dataset fetched as raw JSON records.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/flavien-hugs/yimba-api/internal/apperr"
	"github.com/flavien-hugs/yimba-api/internal/config"
	"github.com/flavien-hugs/yimba-api/internal/httpclient"
)

// Record is one raw dataset item returned by an actor run.
type Record = map[string]any

// Scraper runs one network's actor for a keyword.
type Scraper interface {
	Scrape(ctx context.Context, keyword string) ([]Record, error)
}

const runStatusSucceeded = "SUCCEEDED"

var terminalStatuses = map[string]bool{
	"SUCCEEDED": true,
	"FAILED":    true,
	"ABORTED":   true,
	"TIMED-OUT": true,
	"TIMED_OUT": true,
}

type run struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	DefaultDatasetID string `json:"defaultDatasetId"`
}

type runEnvelope struct {
	Data run `json:"data"`
}

type datasetEnvelope struct {
	Data struct {
		Items []Record `json:"items"`
	} `json:"data"`
}

// Client talks to the Apify actor-run API. Actor calls go through a circuit
// breaker so a misbehaving SaaS stops consuming request handlers quickly.
type Client struct {
	cfg     config.ApifyCfg
	http    *httpclient.Client
	breaker *gobreaker.CircuitBreaker
	log     *zap.SugaredLogger
}

func NewClient(cfg config.ApifyCfg, log *zap.SugaredLogger) *Client {
	return &Client{
		cfg: cfg,
		http: httpclient.New(httpclient.Config{
			Timeout:         60 * time.Second,
			RetryMaxElapsed: 30 * time.Second,
		}),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "apify",
			Timeout: 60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		log: log,
	}
}

func (c *Client) endpoint(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("token", c.cfg.Token)
	return fmt.Sprintf("%s/%s?%s", strings.TrimRight(c.cfg.BaseURL, "/"), strings.TrimLeft(path, "/"), query.Encode())
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.DoWithRetry(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("apify returned %d: %s", resp.StatusCode, b)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) startRun(ctx context.Context, actorID string, input map[string]any) (*run, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	u := c.endpoint(fmt.Sprintf("acts/%s/runs", url.PathEscape(actorID)), nil)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(string(body))), nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.DoWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("apify returned %d: %s", resp.StatusCode, b)
	}
	var env runEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (c *Client) waitForRun(ctx context.Context, runID string) (*run, error) {
	interval := time.Duration(c.cfg.PollIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	timeout := time.Duration(c.cfg.PollTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	poll := backoff.WithContext(backoff.NewConstantBackOff(interval), ctx)
	var current run
	err := backoff.Retry(func() error {
		var env runEnvelope
		if err := c.getJSON(ctx, c.endpoint("actor-runs/"+url.PathEscape(runID), nil), &env); err != nil {
			return backoff.Permanent(err)
		}
		current = env.Data
		if !terminalStatuses[current.Status] {
			return fmt.Errorf("run %s still %s", runID, current.Status)
		}
		return nil
	}, poll)
	if err != nil {
		return nil, err
	}
	return &current, nil
}

func (c *Client) datasetItems(ctx context.Context, datasetID string) ([]Record, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("clean", "true")
	var items []Record
	// the items endpoint returns a bare array, not the data envelope
	if err := c.getJSON(ctx, c.endpoint("datasets/"+url.PathEscape(datasetID)+"/items", q), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CallActor starts an actor run, waits for it to finish and returns its
// dataset. A run ending in any status other than SUCCEEDED is an upstream
// failure and yields no records.
func (c *Client) CallActor(ctx context.Context, network, actorID string, input map[string]any) ([]Record, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		started, err := c.startRun(ctx, actorID, input)
		if err != nil {
			return nil, err
		}
		finished, err := c.waitForRun(ctx, started.ID)
		if err != nil {
			return nil, err
		}
		if finished.Status != runStatusSucceeded {
			return nil, fmt.Errorf("the %s scraper run has failed: status %s", network, finished.Status)
		}
		return c.datasetItems(ctx, finished.DefaultDatasetID)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUpstream, err)
	}
	return result.([]Record), nil
}
