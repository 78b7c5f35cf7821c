package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/postcaldev/postcal/internal/service"
	"github.com/postcaldev/postcal/internal/transfer"
)

type AccountHandler struct {
	s service.RegistryService
}

func NewAccountHandler(service service.RegistryService) *AccountHandler {
	return &AccountHandler{s: service}
}

func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	clientID := GetClientID(c)

	accounts, err := h.s.List(c.Context(), clientID)
	if err != nil {
		return handleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(accounts)
}

// ConnectAccount stores credentials the external OAuth layer obtained.
func (h *AccountHandler) ConnectAccount(c *fiber.Ctx) error {
	clientID := GetClientID(c)

	var conn transfer.AccountConnection
	if err := c.BodyParser(&conn); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	accountID, err := h.s.Connect(c.Context(), clientID, &conn)
	if err != nil {
		return handleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message":    "Account connected",
		"account_id": accountID,
	})
}

func (h *AccountHandler) RemoveAccount(c *fiber.Ctx) error {
	clientID := GetClientID(c)
	accountID := c.QueryInt("id", 0)

	if err := h.s.Disconnect(c.Context(), clientID, int64(accountID)); err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}
