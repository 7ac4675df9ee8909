package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/crewdir/crewdir/internal/directory/http"
	"github.com/crewdir/crewdir/internal/directory/service"
	"github.com/crewdir/crewdir/internal/directory/store"
	"github.com/crewdir/crewdir/internal/directory/store/drivers/sqlite"
	"github.com/crewdir/crewdir/pkg/cryptox"
	"github.com/crewdir/crewdir/pkg/jwtx"
	"github.com/crewdir/crewdir/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the directory server with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db store.Store

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "directory",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if app.cfg.Seed {
		seeder := &service.SeedService{
			Store:         app.db,
			AdminPassword: app.cfg.AdminPassword,
		}
		ctx := slogx.WithContext(context.Background(), app.logger)
		if err := seeder.Seed(ctx); err != nil {
			return nil, fmt.Errorf("seed directory: %w", err)
		}
	}

	app.initHTTP()

	return app, nil
}

func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(app.cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		db.Close()
		return fmt.Errorf("apply migrations: %w", err)
	}

	app.db = db
	return nil
}

func (app *Application) initHTTP() {
	// Without a transport secret the API is open; meant for trusted
	// networks and local development only.
	var verifier *jwtx.Verifier
	if app.cfg.TransportSecret != "" {
		verifier = jwtx.NewVerifier(app.cfg.TransportSecret, app.cfg.Issuer)
	} else {
		app.logger.Warn("no transport secret configured, serving unauthenticated")
	}

	app.router = httpapi.NewRouter(verifier, BuildVersion, app.db, app.logger)
	app.router.ApplyRoutes()

	app.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", app.cfg.Port),
		Handler:      app.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("directory server starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down directory server...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("directory server stopped")
	return nil
}
