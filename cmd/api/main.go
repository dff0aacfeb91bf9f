package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"singr-service/internal/app"
	"singr-service/internal/config"
	"singr-service/internal/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[MAIN] No .env file found, relying on system env vars")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[MAIN] %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("[MAIN] logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, cfg, zl)
	stop()
	os.Exit(code)
}

// run serves until ctx is cancelled or the server fails and returns the
// process exit code. The logger is flushed before it returns.
func run(ctx context.Context, cfg *config.AppConfig, zl *zap.Logger) int {
	defer func() { _ = zl.Sync() }()

	srv, err := app.NewServer(ctx, cfg, zl)
	if err != nil {
		zl.Error("server failed to start", zap.Error(err))
		return 1
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	code := 0
	select {
	case err := <-errCh:
		if err != nil {
			zl.Error("server stopped unexpectedly", zap.Error(err))
			code = 1
		}
	case <-ctx.Done():
		zl.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
		return 1
	}
	return code
}
