package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/postcaldev/postcal/internal/apperrors"
)

func GetClientID(c *fiber.Ctx) int64 {
	clientID, _ := strconv.Atoi(c.Locals("client_id").(string))
	return int64(clientID)
}

// handleError maps the store's error taxonomy onto HTTP statuses. Adapter
// errors never pass through here; they land on delivery tasks.
func handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case apperrors.IsValidation(err):
		status = fiber.StatusBadRequest
	case apperrors.IsNotFound(err):
		status = fiber.StatusNotFound
	case apperrors.IsConflict(err):
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
