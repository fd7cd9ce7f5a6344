package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"charsheet/internal/profiles"
)

// ProfileTypeLocal is the c.Locals key holding the parsed profiles.Type.
const ProfileTypeLocal = "profile_type"

// ProfileTypeFilter parses the :type route parameter and stores it in the
// request context. Legacy tags ("jogador", "mestre") are accepted.
func ProfileTypeFilter(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Params("type")
		typ, err := profiles.ParseType(raw)
		if err != nil {
			logger.Warn("Invalid profile type provided",
				slog.String("type", raw),
				slog.Any("error", err))
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		c.Locals(ProfileTypeLocal, typ)
		return c.Next()
	}
}

// ProfileType returns the type stored by ProfileTypeFilter.
func ProfileType(c *fiber.Ctx) profiles.Type {
	typ, _ := c.Locals(ProfileTypeLocal).(profiles.Type)
	return typ
}
