// Package http exposes the profile store, the active sheet and the
// inventories to the local UI as a JSON API.
package http

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"charsheet/internal/attributes"
	"charsheet/internal/inventory"
	"charsheet/internal/profiles"
)

// Pinger reports whether durable storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds the dependencies of every action plus the one session the
// UI may have open at a time.
type Handlers struct {
	Profiles  *profiles.Store
	Inventory *inventory.Store
	Storage   Pinger
	Catalog   *attributes.Catalog
	Logger    *slog.Logger

	mu      sync.Mutex
	session *profiles.Session
}

// NewHandlers creates the handler set. catalog is the attribute catalog used
// when a request carries no language preference.
func NewHandlers(store *profiles.Store, inv *inventory.Store, pinger Pinger, catalog *attributes.Catalog, logger *slog.Logger) *Handlers {
	return &Handlers{
		Profiles:  store,
		Inventory: inv,
		Storage:   pinger,
		Catalog:   catalog,
		Logger:    logger,
	}
}

// HasSession reports whether a profile is logged in.
func (h *Handlers) HasSession() bool {
	return h.activeSession() != nil
}

// Logout ends the active session, if any, and waits for its grid to be
// written.
func (h *Handlers) Logout(ctx context.Context) error {
	h.mu.Lock()
	session := h.session
	h.session = nil
	h.mu.Unlock()

	if session == nil {
		return nil
	}
	return session.Logout(ctx)
}

func (h *Handlers) activeSession() *profiles.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.session
}

// replaceSession installs next as the active session and returns the one it
// replaced.
func (h *Handlers) replaceSession(next *profiles.Session) *profiles.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.session
	h.session = next
	return prev
}

func errorResponse(c *cartridge.Context, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, profiles.ErrProfileNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, profiles.ErrSheetLocked), errors.Is(err, profiles.ErrSessionClosed):
		return fiber.StatusConflict
	case errors.Is(err, profiles.ErrNameRequired),
		errors.Is(err, profiles.ErrInvalidType),
		errors.Is(err, profiles.ErrIndexOutOfRange),
		errors.Is(err, inventory.ErrItemIncomplete):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
