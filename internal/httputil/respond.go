package httputil

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/wicaksana/pos-order-service/internal/apperr"
	"go.uber.org/multierr"
)

// RespondError maps the engine's error taxonomy onto HTTP statuses. Internal
// detail is never leaked for unclassified failures.
func RespondError(c *fiber.Ctx, err error) error {
	status := statusOf(err)
	if status == fiber.StatusInternalServerError {
		return c.Status(status).JSON(fiber.Map{"error": "internal error"})
	}

	messages := []string{}
	for _, e := range multierr.Errors(err) {
		messages = append(messages, e.Error())
	}
	return c.Status(status).JSON(fiber.Map{"errors": messages})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, apperr.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidTransition),
		errors.Is(err, apperr.ErrAlreadyInState),
		errors.Is(err, apperr.ErrIdentifierConflict):
		return fiber.StatusConflict
	case errors.Is(err, apperr.ErrPreconditionFailed),
		errors.Is(err, apperr.ErrInsufficientStock):
		return fiber.StatusUnprocessableEntity
	}
	return fiber.StatusInternalServerError
}
