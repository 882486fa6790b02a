// Package apperr defines the error taxonomy shared by every service and its
// mapping to HTTP status codes.
package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
	ErrUpstream     = errors.New("upstream failure")
	ErrInternal     = errors.New("internal error")
)

// Status resolves an error to the HTTP status it should surface as. Unknown
// errors map to 500, matching the propagation policy of the services: nothing
// is retried, everything becomes a status plus a JSON message.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrUpstream):
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}
