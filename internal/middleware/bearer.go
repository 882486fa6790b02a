// Package middleware holds the Fiber middlewares shared by the services.
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/flavien-hugs/yimba-api/internal/auth"
)

// CredentialKey is the request-locals key under which the bearer middleware
// stores the raw credential. Handlers needing claims re-decode it; the gate
// deliberately hands back the string, not the payload.
const CredentialKey = "credential"

// Credential returns the raw bearer credential stored by the middleware.
func Credential(c *fiber.Ctx) string {
	s, _ := c.Locals(CredentialKey).(string)
	return s
}

func unauthorized(c *fiber.Ctx, message string) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": message})
}

// Bearer gates a route behind a bearer token whose role_or_type must be in
// the allow-list. Every rejection is a 401 with the historical messages the
// frontends display verbatim.
func Bearer(mgr *auth.Manager, allowedRoles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return unauthorized(c, "Impossible de valider les informations d'identification")
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return unauthorized(c, "Schéma d'authentification non valide.")
		}
		credential := strings.TrimSpace(parts[1])

		payload, err := mgr.DecodeToken(credential)
		if err != nil {
			return unauthorized(c, "Jeton invalide ou expiré.")
		}
		if _, ok := allowed[payload.RoleOrType]; !ok {
			return unauthorized(c, "Vous n'avez pas les autorisations nécessaires pour accéder à cette ressource.")
		}

		c.Locals(CredentialKey, credential)
		return c.Next()
	}
}
