package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"StockSignal/pkg/config"
	xhttp "StockSignal/pkg/http"
	applogger "StockSignal/pkg/logger"
)

// Resource is an infrastructure client released on shutdown.
type Resource struct {
	Name   string
	Closer io.Closer
}

// App encapsulates the service lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	httpServer *xhttp.Server
	resources  []Resource
}

// New creates a new App. Resources are closed in reverse order after the
// HTTP server has drained.
func New(cfg *config.Config, l *applogger.Logger, srv *xhttp.Server, resources ...Resource) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{
		cfg:        cfg,
		logger:     l,
		httpServer: srv,
		resources:  resources,
	}
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the application and blocks until ctx is done or the
// listener fails.
func (a *App) RunContext(ctx context.Context) error {
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("stocksignal started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("cache", a.cfg.Cache.Type),
		applogger.Bool("events", a.cfg.Events.Enabled),
	)

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-a.httpServer.Errors():
		runErr = fmt.Errorf("http server: %w", err)
	}

	if err := a.shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	a.logger.Info("shutting down...")

	// The server applies its own shutdown timeout.
	var stopErr error
	if err := a.httpServer.Stop(context.Background()); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
		stopErr = err
	}

	for i := len(a.resources) - 1; i >= 0; i-- {
		r := a.resources[i]
		if r.Closer == nil {
			continue
		}
		if err := r.Closer.Close(); err != nil {
			a.logger.Warn("close error", applogger.String("resource", r.Name), applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return stopErr
}
