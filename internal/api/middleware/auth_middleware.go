package middleware

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	config "github.com/postcaldev/postcal/configs"
	"github.com/postcaldev/postcal/internal/repository"
	"github.com/postcaldev/postcal/pkg/utils"
)

type AuthMiddleware struct {
	cr  repository.ClientRepository
	cfg config.Config
}

func NewAuthMiddleware(cfg config.Config, cr repository.ClientRepository) *AuthMiddleware {
	return &AuthMiddleware{cr: cr, cfg: cfg}
}

// AuthMiddleware resolves the calling client from an API key or a session
// cookie and stores its id in locals for the handlers.
func (m *AuthMiddleware) AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Cookies(m.cfg.CookieName)
		apiKey := c.Get("X-Api-Key")
		if apiKey == "" {
			apiKey = c.Query("api_key")
		}

		if tokenString == "" && apiKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing API key or session cookie",
			})
		}

		if apiKey != "" {
			client, err := m.cr.GetByApiKey(c.Context(), apiKey)
			if err != nil || client == nil {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid API key",
				})
			}
			c.Locals("client_id", strconv.FormatInt(client.ID, 10))
			return c.Next()
		}

		claims, err := utils.ValidateToken(m.cfg.SecretKey, tokenString)
		if err != nil {
			c.Cookie(&fiber.Cookie{
				Name:   m.cfg.CookieName,
				Value:  "",
				Path:   "/",
				MaxAge: -1, // Delete cookie
			})

			slog.Info(fmt.Sprintf("Token validation failed: %v", err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("client_id", claims.ClientID)
		return c.Next()
	}
}
