package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"katalog/internal/apperrors"
)

// respondError maps domain errors to HTTP status codes. Anything not in
// the taxonomy is an unexpected persistence failure and surfaces as an
// opaque 500 so internals never leak to clients.
func respondError(c *fiber.Ctx, err error) error {
	var (
		validationErr *apperrors.ValidationError
		notFoundErr   *apperrors.NotFoundError
		conflictErr   *apperrors.ConflictError
		stockErr      *apperrors.InsufficientStockError
	)

	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   validationErr.Error(),
		})
	case errors.As(err, &stockErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message":   "Insufficient stock",
			"error":     stockErr.Error(),
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		})
	case errors.As(err, &notFoundErr):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": notFoundErr.Error(),
		})
	case errors.As(err, &conflictErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": conflictErr.Error(),
		})
	default:
		log.Printf("Unexpected error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal server error",
		})
	}
}

// paginatedResponse is the envelope for list endpoints.
func paginatedResponse(data interface{}, total int64, page, limit int) fiber.Map {
	return fiber.Map{
		"data":  data,
		"total": total,
		"page":  page,
		"limit": limit,
	}
}
