package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/sagagrid/internal/ctxlog"
	"github.com/specialistvlad/sagagrid/internal/engine"
	"github.com/specialistvlad/sagagrid/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	engine     *engine.Engine
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App with its own logger and sealed registry. An empty modules
// list means the bundled adaptors.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = coreModules
	}
	eng, err := engine.New(ctx, engine.Config{MaxConcurrentBinds: cfg.MaxBinds}, modules...)
	if err != nil {
		// A module that cannot register is a programmer error.
		panic(fmt.Errorf("failed to initialize engine: %w", err))
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "adaptors", eng.Registry().Len())

	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		engine: eng,
	}
}

// Engine returns the application's engine. This is primarily for testing.
func (a *App) Engine() *engine.Engine {
	return a.engine
}
