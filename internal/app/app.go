package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/streamhive/account-service/internal/config"
)

// App owns the HTTP server lifecycle.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	httpServer *http.Server
}

// NewApp creates the application around a fully wired HTTP handler.
func NewApp(cfg *config.Config, logger *zap.Logger, handler http.Handler) *App {
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
	}
}

// Run starts the HTTP server and blocks until a shutdown signal or a
// server error, then drains within the configured timeout.
func (a *App) Run() error {
	errChan := make(chan error, 1)

	go func() {
		a.logger.Info("Starting HTTP server", zap.String("address", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		a.logger.Error("Server error, initiating shutdown", zap.Error(err))
		return err
	case sig := <-quit:
		a.logger.Info("Shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	a.logger.Info("Server stopped gracefully")
	return nil
}
