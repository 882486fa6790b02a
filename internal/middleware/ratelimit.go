package middleware

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// RateLimit throttles a route with a process-local token bucket. It is meant
// for the scrape-triggering endpoints, which fan out to a metered SaaS.
func RateLimit(rps float64, burst int) fiber.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *fiber.Ctx) error {
		if !limiter.Allow() {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "Trop de requêtes. Veuillez réessayer plus tard.",
			})
		}
		return c.Next()
	}
}
