package middleware

import (
	"log/slog"
	"net"

	"github.com/gofiber/fiber/v2"
)

// LoopbackOnly refuses requests that do not originate from this machine.
// The sheet API has no authentication and is meant for the local UI only.
func LoopbackOnly(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := net.ParseIP(c.IP())
		if ip == nil || !ip.IsLoopback() {
			logger.Warn("Rejected non-local request",
				slog.String("ip", c.IP()),
				slog.String("path", c.Path()))
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "forbidden",
			})
		}
		return c.Next()
	}
}
