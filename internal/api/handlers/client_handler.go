package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	config "github.com/postcaldev/postcal/configs"
	"github.com/postcaldev/postcal/internal/apperrors"
	"github.com/postcaldev/postcal/internal/repository"
	"github.com/postcaldev/postcal/pkg/utils"
)

const (
	sessionDuration = 24 * time.Hour
	apiKeyBytes     = 32
)

// ClientHandler exposes the client record the external CRUD system owns,
// plus the credential surface the core does manage: session cookies and
// API key rotation.
type ClientHandler struct {
	cr  repository.ClientRepository
	cfg config.Config
}

func NewClientHandler(cr repository.ClientRepository, cfg config.Config) *ClientHandler {
	return &ClientHandler{cr: cr, cfg: cfg}
}

func (h *ClientHandler) GetClient(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid client id",
		})
	}

	client, err := h.cr.GetByID(c.Context(), int64(id))
	if err != nil {
		return handleError(c, err)
	}
	if client == nil {
		return handleError(c, apperrors.NotFound("client"))
	}

	return c.Status(fiber.StatusOK).JSON(client)
}

// IssueSession exchanges the caller's API key auth for a session cookie, so
// browser clients do not have to hold the key past the first request.
func (h *ClientHandler) IssueSession(c *fiber.Ctx) error {
	clientID := GetClientID(c)

	token, err := utils.GenerateToken(h.cfg.SecretKey, strconv.FormatInt(clientID, 10), sessionDuration)
	if err != nil {
		return handleError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionDuration.Seconds()),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Session created",
	})
}

// RotateApiKey replaces the client's API key; the old key stops working
// immediately.
func (h *ClientHandler) RotateApiKey(c *fiber.Ctx) error {
	clientID := GetClientID(c)

	apiKey, err := utils.GenerateRandomKey(apiKeyBytes)
	if err != nil {
		return handleError(c, err)
	}

	if err := h.cr.RotateApiKey(c.Context(), clientID, apiKey); err != nil {
		return handleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"api_key": apiKey,
	})
}
