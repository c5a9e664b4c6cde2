package response

import (
	"github.com/gofiber/fiber/v2"
)

// DomainError maps a stable engine error code onto an HTTP error response.
// Codes come from the services error taxonomy.
func DomainError(c *fiber.Ctx, code string, message string) error {
	switch code {
	case "DUPLICATE_ENROLLMENT", "INVALID_TRANSITION":
		return Error(c, fiber.StatusConflict, message, code)
	case "NOT_ENROLLED":
		return Error(c, fiber.StatusForbidden, message, code)
	case "NOT_FOUND":
		return Error(c, fiber.StatusNotFound, message, code)
	case "VALIDATION_ERROR":
		return Error(c, fiber.StatusUnprocessableEntity, message, code)
	default:
		return Error(c, fiber.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR")
	}
}
