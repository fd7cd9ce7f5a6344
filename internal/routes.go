package internal

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"

	"charsheet/internal/config"
	"charsheet/internal/http"
	"charsheet/internal/http/middleware"
)

// devCORSConfig lets a UI dev server on another local port call the API.
var devCORSConfig = cors.Config{
	AllowOrigins: "http://localhost:5173, http://127.0.0.1:5173",
	AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Accept-Language",
}

// secFetchSiteAllowed admits the local UI whether it is served by this
// process or by a dev server on another localhost port.
var secFetchSiteAllowed = []string{"same-origin", "same-site", "none"}

// MountAppRoutes mounts every route of the local UI API using cartridge's
// route API. Static item images are served by the server itself.
func MountAppRoutes(srv *cartridge.Server, h *http.Handlers, cfg *config.Config) {
	logger := srv.GetLogger()

	// The server binds every interface; only this machine may talk to it.
	if !cfg.IsTest() {
		srv.App().Use(middleware.LoopbackOnly(logger))
	}
	if cfg.IsDevelopment() {
		srv.App().Use(cors.New(devCORSConfig))
	}

	sessionConfig := &cartridge.RouteConfig{
		CustomMiddleware: []fiber.Handler{middleware.SessionRequired(h.HasSession, logger)},
	}

	inventoryConfig := &cartridge.RouteConfig{
		CustomMiddleware: []fiber.Handler{middleware.ProfileTypeFilter(logger)},
	}

	// Health check endpoint
	srv.Get("/health", h.HealthIndexAction)
	srv.Head("/health", h.HealthIndexAction)

	// === PROFILES ===
	srv.Get("/api/profiles", h.ProfilesIndexAction)
	srv.Post("/api/profiles", h.ProfilesCreateAction)
	srv.Delete("/api/profiles/:id", h.ProfilesDeleteAction)

	// === SESSION ===
	srv.Post("/api/session", h.SessionCreateAction)
	srv.Delete("/api/session", h.SessionDeleteAction)
	srv.Get("/api/session/sheet", h.SheetShowAction, sessionConfig)
	srv.Put("/api/session/sheet/:index", h.SheetUpdateCellAction, sessionConfig)
	srv.Put("/api/session/lock", h.SheetLockAction, sessionConfig)

	// === ATTRIBUTES ===
	srv.Get("/api/attributes", h.AttributesIndexAction)
	srv.Get("/api/attributes/:index", h.AttributesShowAction)

	// === INVENTORY ===
	srv.Get("/api/inventory/:type", h.InventoryIndexAction, inventoryConfig)
	srv.Post("/api/inventory/:type", h.InventoryCreateAction, inventoryConfig)
	srv.Delete("/api/inventory/:type/:id", h.InventoryDeleteAction, inventoryConfig)
}
