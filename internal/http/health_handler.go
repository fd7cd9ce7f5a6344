package http

import (
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"
)

// HealthStatus represents the health check response
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	DBStatus  string    `json:"db_status"`
	Profiles  int       `json:"profiles"`
}

// HealthIndexAction handles the health check endpoint
func (h *Handlers) HealthIndexAction(c *cartridge.Context) error {
	dbStatus := "ok"
	if err := h.Storage.Ping(c.UserContext()); err != nil {
		dbStatus = "error"
		h.Logger.Error("Database ping failed", slog.Any("error", err))
	}

	health := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		DBStatus:  dbStatus,
		Profiles:  len(h.Profiles.Profiles()),
	}

	if dbStatus != "ok" {
		health.Status = "degraded"
	}

	return c.JSON(health)
}
