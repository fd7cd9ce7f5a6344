package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// SessionRequired rejects requests to sheet routes while no profile is
// logged in. active reports whether a session is open.
func SessionRequired(active func() bool, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !active() {
			logger.Debug("Sheet request without an active session",
				slog.String("path", c.Path()),
				slog.String("method", c.Method()))
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "no profile is logged in",
			})
		}
		return c.Next()
	}
}
