// Package httpclient provides the outbound HTTP client shared by the
// inter-service and SaaS integrations: bounded timeouts, connection reuse
// and exponential-backoff retry on transport errors and 5xx responses.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type Config struct {
	Timeout         time.Duration
	RetryMaxElapsed time.Duration
	MaxIdleConns    int
	IdleConnTimeout time.Duration
}

type Client struct {
	http *http.Client
	conf Config
}

func New(conf Config) *Client {
	if conf.Timeout == 0 {
		conf.Timeout = 30 * time.Second
	}
	if conf.MaxIdleConns == 0 {
		conf.MaxIdleConns = 32
	}
	if conf.IdleConnTimeout == 0 {
		conf.IdleConnTimeout = 90 * time.Second
	}
	tr := &http.Transport{
		DialContext:     (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		MaxIdleConns:    conf.MaxIdleConns,
		IdleConnTimeout: conf.IdleConnTimeout,
	}
	return &Client{
		http: &http.Client{Transport: tr, Timeout: conf.Timeout},
		conf: conf,
	}
}

// Do executes the request once, without retry.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.http.Do(req)
}

// DoWithRetry executes the request with exponential backoff until it gets a
// non-5xx response, the backoff budget runs out or ctx is canceled. Requests
// carrying a body must have GetBody set so retries can rewind it.
func (c *Client) DoWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	var resp *http.Response
	operation := func() error {
		r := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return backoff.Permanent(err)
			}
			r.Body = body
		}
		res, err := c.http.Do(r)
		if err != nil {
			return err
		}
		if res.StatusCode >= http.StatusInternalServerError {
			io.Copy(io.Discard, res.Body)
			res.Body.Close()
			return fmt.Errorf("upstream returned %d", res.StatusCode)
		}
		resp = res
		return nil
	}

	b := backoff.NewExponentialBackOff()
	if c.conf.RetryMaxElapsed > 0 {
		b.MaxElapsedTime = c.conf.RetryMaxElapsed
	}
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return resp, nil
}
