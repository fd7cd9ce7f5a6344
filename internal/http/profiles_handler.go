package http

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"charsheet/internal/profiles"
)

type createProfileRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Info string `json:"info"`
}

// ProfilesIndexAction lists every profile in creation order.
func (h *Handlers) ProfilesIndexAction(c *cartridge.Context) error {
	return c.JSON(h.Profiles.Profiles())
}

// ProfilesCreateAction registers a new profile.
func (h *Handlers) ProfilesCreateAction(c *cartridge.Context) error {
	var req createProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	typ, err := profiles.ParseType(req.Type)
	if err != nil {
		return errorResponse(c, statusFor(err), err.Error())
	}

	profile, err := h.Profiles.CreateProfile(c.UserContext(), req.Name, typ, req.Info)
	if err != nil {
		return errorResponse(c, statusFor(err), err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(profile)
}

// ProfilesDeleteAction removes a profile and its sheet. Deleting the
// logged-in profile also ends the session.
func (h *Handlers) ProfilesDeleteAction(c *cartridge.Context) error {
	id := c.Params("id")

	if session := h.activeSession(); session != nil && session.Profile().ID == id {
		if err := h.Logout(c.UserContext()); err != nil {
			h.Logger.Warn("Failed to flush sheet before deleting profile", slog.Any("error", err))
		}
	}

	if !h.Profiles.DeleteProfile(c.UserContext(), id) {
		h.Logger.Debug("Delete requested for unknown profile", slog.String("id", id))
	}
	return c.SendStatus(fiber.StatusNoContent)
}
