package middleware

import (
	"code212/services/apperror"
	"code212/utils/logger"
	"errors"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps service errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperror.ErrIneligible), errors.Is(err, apperror.ErrInvalid):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, apperror.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, apperror.ErrNotEnrolled):
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// ServiceErrorResponse answers with the status matching err. Unexpected errors
// are logged and hidden behind fallback.
func ServiceErrorResponse(c *fiber.Ctx, log *logger.Logger, err error, fallback string) error {
	status := StatusFor(err)
	if status == fiber.StatusInternalServerError {
		log.Error(fallback, "path", c.Path(), "method", c.Method(), "error", err)
		return JsonResponse(c, status, false, fallback, nil)
	}
	return JsonResponse(c, status, false, err.Error(), nil)
}
