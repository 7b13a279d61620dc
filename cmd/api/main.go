package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/melih/lighthouse-builder/internal/adapters/catalog"
	"github.com/melih/lighthouse-builder/internal/adapters/docker"
	"github.com/melih/lighthouse-builder/internal/adapters/http"
	"github.com/melih/lighthouse-builder/internal/adapters/objectstore"
	"github.com/melih/lighthouse-builder/internal/config"
	"github.com/melih/lighthouse-builder/internal/core/ports"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Parse(os.Environ())
	if err != nil {
		return err
	}

	// 1. Initialize Adapters (Infrastructure)
	dockerAdapter, err := docker.NewAdapter(cfg.DockerHost)
	if err != nil {
		return err
	}
	defer dockerAdapter.Close()

	projectTypes := catalog.New()
	if cfg.ProjectTypesFile != "" {
		projectTypes, err = catalog.Load(cfg.ProjectTypesFile)
		if err != nil {
			return err
		}
	}

	var store ports.ArtifactStore
	if cfg.Storage.Enabled() {
		s, err := objectstore.New(cfg.Storage)
		if err != nil {
			return err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return err
		}
		store = s
	}

	// 2. Initialize HTTP Handlers (Interface Adapters)
	// The Docker adapter is both the engine builds run on and the source of
	// the build container listing.
	buildHandler := http.NewBuildHandler(http.BuildHandlerConfig{
		Engine:     dockerAdapter,
		Containers: dockerAdapter,
		Catalog:    projectTypes,
		Build:      cfg.BuildConfig(),
		Workspace:  cfg.WorkspaceDir,
		Store:      store,
	})

	// 3. Setup Framework (Fiber)
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(logger.New())
	// Builds run on the server's context and are interrupted on shutdown.
	app.Use(http.BaseContext(ctx))

	// 4. Define Routes
	api := app.Group("/api")
	v1 := api.Group("/v1")
	http.Routes(v1, buildHandler)

	// 5. Start Server
	go func() {
		<-ctx.Done()
		slog.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
		if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
			slog.Error("shutdown incomplete", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr, "workspace", cfg.WorkspaceDir, "publish", store != nil)
	return app.Listen(cfg.Server.Addr)
}
