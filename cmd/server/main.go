package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/synclaro/website-api/internal/app"
	"github.com/synclaro/website-api/internal/config"
	"github.com/synclaro/website-api/internal/logger"
	"github.com/synclaro/website-api/internal/service"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log); err != nil {
		log.Error("Application error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger) error {
	configPath := getEnvOrDefault("CONFIG_PATH", "./data/site_config.toml")
	featureCfg, err := service.LoadFeatureConfig(configPath)
	if err != nil {
		log.Error("Failed to load feature config", logger.Error(err), logger.F("PATH", configPath))
		return err
	}

	envPath := getEnvOrDefault("ENV_FILE", ".env")
	infraCfg, err := config.LoadWithFile(envPath)
	if err != nil {
		log.Error("Failed to load infrastructure config", logger.Error(err), logger.F("PATH", envPath))
		return err
	}

	application := app.New(infraCfg, featureCfg, log)
	if err := application.Initialize(ctx); err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := application.Close(closeCtx); err != nil {
			log.Error("Failed to close application", logger.Error(err))
		}
	}()

	listener, err := net.Listen("tcp", infraCfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", infraCfg.ListenAddr, err)
	}
	return serve(ctx, listener, application.Handler(), log)
}

// serve runs the HTTP server on listener until ctx is cancelled, then shuts
// it down gracefully.
func serve(ctx context.Context, listener net.Listener, h http.Handler, log *logger.Logger) error {
	server := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("API server starting", logger.Action("startup"), logger.F("ADDR", listener.Addr().String()))
		errCh <- server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down API server", logger.Action("shutdown"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("API server stopped", logger.Action("shutdown"), logger.Status("stopped"))
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
