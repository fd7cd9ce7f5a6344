// Package internal contains core application functionality
package internal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"charsheet/internal/attributes"
	"charsheet/internal/config"
	"charsheet/internal/database"
	"charsheet/internal/http"
	"charsheet/internal/inventory"
	"charsheet/internal/jobs"
	"charsheet/internal/pkg/async"
	"charsheet/internal/profiles"
	"charsheet/internal/storage"
)

// Application wraps cartridge.Application with the profile store, the
// write-behind queue and the stores built on top of them.
type Application struct {
	*cartridge.Application
	Config    *config.Config
	DBManager *database.DBManager // charsheet DB manager with migration methods
	Writer    *async.WriteBehind
	Storage   *storage.Store
	Profiles  *profiles.Store
	Inventory *inventory.Store
	Handlers  *http.Handlers
	Jobs      *jobs.Scheduler
	Cleanup   *jobs.CleanupJob

	assets fs.FS
	logger *slog.Logger
}

// Option configures an Application.
type Option func(*Application)

// WithStaticFS serves item images from fsys instead of the public directory.
func WithStaticFS(fsys fs.FS) Option {
	return func(a *Application) {
		a.assets = fsys
	}
}

// WithLogger overrides the logger built from config.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Application) {
		a.logger = logger
	}
}

// NewApp creates a new application instance with default settings
func NewApp(opts ...Option) (*Application, error) {
	cfg := config.GetConfig()
	return NewAppWithConfig(cfg, opts...)
}

// NewAppWithConfig creates a new application with the provided config.
// The database is opened and migrated, and saved profiles are loaded.
func NewAppWithConfig(cfg *config.Config, opts ...Option) (*Application, error) {
	app := &Application{Config: cfg}
	for _, opt := range opts {
		opt(app)
	}

	// Create logger
	logger := app.logger
	if logger == nil {
		logger = cartridge.NewLogger(cfg, nil)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.GetDatabasePath()), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := dbManager.MigrateDatabase(); err != nil {
		dbManager.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	app.DBManager = dbManager
	app.Storage = storage.New(dbManager.GetConnection(), logger)
	app.Writer = async.NewWriteBehind(cfg.PersistDelay(), logger)
	app.Profiles = profiles.NewStore(app.Storage, app.Writer, logger)
	app.Inventory = inventory.NewStore(app.Storage, app.Writer, logger)

	loaded := app.Profiles.LoadProfiles(context.Background())
	logger.Info("Profiles loaded", slog.Int("count", len(loaded)))

	// Initialize jobs system
	app.Cleanup = jobs.NewCleanupJob(app.Storage, app.Profiles, logger)
	app.Jobs = jobs.NewScheduler(
		app.Cleanup, cfg.CleanupInterval(),
		jobs.NewCheckpointJob(dbManager, logger), cfg.CheckpointInterval(),
		logger,
	)

	app.Handlers = http.NewHandlers(app.Profiles, app.Inventory, app.Storage, attributes.ForLocale(cfg.Locale), logger)

	base, err := cartridge.NewApplication(cartridge.ApplicationOptions{
		Config:       cfg,
		Logger:       logger,
		DBManager:    dbManager,
		ServerConfig: serverConfig(cfg, app.assets, logger),
		RouteMountFunc: func(srv *cartridge.Server) {
			MountAppRoutes(srv, app.Handlers, cfg)
		},
		BackgroundWorkers: []cartridge.BackgroundWorker{app.Jobs},
	})
	if err != nil {
		app.Writer.Close(context.Background())
		dbManager.Close()
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	app.Application = base

	return app, nil
}

// serverConfig adapts cartridge's defaults to a JSON API serving item images.
func serverConfig(cfg *config.Config, assets fs.FS, logger *slog.Logger) *cartridge.ServerConfig {
	serverCfg := cartridge.DefaultServerConfig()
	serverCfg.ErrorHandler = errorHandler(logger)
	serverCfg.EnableTemplates = false
	serverCfg.StaticFS = assets
	serverCfg.StaticPrefix = cfg.GetAssetsPrefix()
	serverCfg.SecFetchSiteAllowedValues = secFetchSiteAllowed
	return serverCfg
}

// Shutdown stops the workers and the server, then releases everything Close
// does.
func (a *Application) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.Application.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if err := a.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Close stops background jobs, writes the open sheet and every pending
// snapshot, and closes the database. It is used directly by tools that never
// start the server.
func (a *Application) Close(ctx context.Context) error {
	var errs []error

	if a.Jobs.IsRunning() {
		a.Jobs.Stop()
	}
	if err := a.Handlers.Logout(ctx); err != nil {
		errs = append(errs, fmt.Errorf("logout: %w", err))
	}
	if err := a.Writer.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("write-behind close: %w", err))
	}
	if err := a.DBManager.Close(); err != nil {
		errs = append(errs, fmt.Errorf("database close: %w", err))
	}

	return errors.Join(errs...)
}

func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			logger.Error("Request failed",
				slog.String("path", c.Path()),
				slog.String("method", c.Method()),
				slog.Any("error", err))
		}
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}
}
