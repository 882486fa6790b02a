package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yimba",
		Name:      "http_requests_total",
		Help:      "HTTP requests processed, by service, method, path and status.",
	}, []string{"service", "method", "path", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "yimba",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency, by service, method and path.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"service", "method", "path"})
)

// Metrics records request counts and latency per route. The path label is
// the matched route pattern, not the raw URL, so parameterized routes do not
// explode label cardinality.
func Metrics(service string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := c.Route().Path
		requestDuration.WithLabelValues(service, c.Method(), path).Observe(time.Since(start).Seconds())

		status := c.Response().StatusCode()
		requestsTotal.WithLabelValues(service, c.Method(), path, strconv.Itoa(status)).Inc()
		return err
	}
}

// MetricsHandler exposes the Prometheus scrape endpoint through Fiber.
func MetricsHandler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}
