package http

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"charsheet/internal/attributes"
	"charsheet/internal/profiles"
)

type loginRequest struct {
	ID string `json:"id"`
}

type cellRequest struct {
	Value string `json:"value"`
}

type lockRequest struct {
	Locked bool `json:"locked"`
}

// SheetResponse is the logged-in profile with its attribute grid.
type SheetResponse struct {
	Profile profiles.Profile `json:"profile"`
	Cells   attributes.Grid  `json:"cells"`
	Labels  []string         `json:"labels"`
	Locked  bool             `json:"locked"`
}

func (h *Handlers) sheet(c *cartridge.Context, session *profiles.Session) SheetResponse {
	catalog := h.catalogFor(c)
	return SheetResponse{
		Profile: session.Profile(),
		Cells:   session.Grid(),
		Labels:  catalog.Labels(),
		Locked:  session.Locked(),
	}
}

// SessionCreateAction logs a profile in, replacing any open session. The
// previous sheet is closed and written before the next one is read.
func (h *Handlers) SessionCreateAction(c *cartridge.Context) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if _, ok := h.Profiles.Find(req.ID); !ok {
		return errorResponse(c, fiber.StatusNotFound, profiles.ErrProfileNotFound.Error())
	}

	if err := h.Logout(c.UserContext()); err != nil {
		h.Logger.Warn("Failed to flush previous sheet", slog.Any("error", err))
	}

	session, err := h.Profiles.SelectProfile(c.UserContext(), req.ID)
	if err != nil {
		return errorResponse(c, statusFor(err), err.Error())
	}

	if prev := h.replaceSession(session); prev != nil {
		if err := prev.Logout(c.UserContext()); err != nil {
			h.Logger.Warn("Failed to flush previous sheet", slog.Any("error", err))
		}
	}
	return c.JSON(h.sheet(c, session))
}

// SessionDeleteAction logs out and waits for the sheet to be written.
func (h *Handlers) SessionDeleteAction(c *cartridge.Context) error {
	if err := h.Logout(c.UserContext()); err != nil {
		h.Logger.Warn("Failed to flush sheet on logout", slog.Any("error", err))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SheetShowAction returns the active sheet.
func (h *Handlers) SheetShowAction(c *cartridge.Context) error {
	session := h.activeSession()
	if session == nil {
		return errorResponse(c, fiber.StatusConflict, "no profile is logged in")
	}
	return c.JSON(h.sheet(c, session))
}

// SheetUpdateCellAction writes one attribute value.
func (h *Handlers) SheetUpdateCellAction(c *cartridge.Context) error {
	session := h.activeSession()
	if session == nil {
		return errorResponse(c, fiber.StatusConflict, "no profile is logged in")
	}

	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid attribute index")
	}

	var req cellRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if _, err := session.SetCell(index, req.Value); err != nil {
		return errorResponse(c, statusFor(err), err.Error())
	}
	return c.JSON(h.sheet(c, session))
}

// SheetLockAction toggles whether the sheet accepts edits.
func (h *Handlers) SheetLockAction(c *cartridge.Context) error {
	session := h.activeSession()
	if session == nil {
		return errorResponse(c, fiber.StatusConflict, "no profile is logged in")
	}

	var req lockRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	session.SetLocked(req.Locked)
	return c.JSON(h.sheet(c, session))
}
