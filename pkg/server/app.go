package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"Coinverge/pkg/config"
	xhttp "Coinverge/pkg/http"
	applogger "Coinverge/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	httpServer *xhttp.Server
	logger     *applogger.Logger
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, httpServer *xhttp.Server, l *applogger.Logger) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{cfg: cfg, httpServer: httpServer, logger: l}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext serves until ctx ends, then shuts down gracefully.
func (a *App) RunContext(ctx context.Context) error {
	if a.httpServer == nil {
		return errors.New("http server is not configured")
	}

	a.logger.Info("starting coinverge",
		applogger.String("env", a.cfg.Environment),
		applogger.String("backend", a.cfg.Watchlist.Backend),
		applogger.String("upstream", a.cfg.Upstream.BaseURL),
		applogger.Bool("kafka", a.cfg.Kafka.Enabled),
	)

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services. Infrastructure clients are closed by the injector cleanup.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.httpServer.ShutdownTimeout())
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
		return err
	}

	a.logger.Info("shutdown complete")
	return nil
}
