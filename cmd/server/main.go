package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/factstore/internal/api"
	"github.com/Harshitk-cp/factstore/internal/app"
	"github.com/Harshitk-cp/factstore/internal/buildconfig"
	"github.com/Harshitk-cp/factstore/internal/config"
	"go.uber.org/zap"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}

	cfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(config.LogLevel()); err == nil {
		cfg.Level = lvl
	}
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	opts, err := app.OptionsFromEnv()
	if err != nil {
		logger.Fatal("failed to load options", zap.Error(err))
	}

	ctx := context.Background()

	a, err := app.Open(ctx, opts, logger)
	if err != nil {
		logger.Fatal("failed to open fact store", zap.Error(err))
	}
	logger.Info("fact store opened",
		zap.String("dialect", string(opts.Dialect)),
		zap.String("index", opts.IndexPath),
		zap.String("version", buildconfig.Version()),
	)

	s := api.NewServer(a, api.Options{
		APIKey:         config.APIKey(),
		RateLimitRPS:   config.RateLimitRPS(),
		RateLimitBurst: config.RateLimitBurst(),
	}, logger)

	// Start background maintenance
	a.StartWorkers()

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	s.Close()

	if err := a.Close(); err != nil {
		logger.Error("failed to close fact store", zap.Error(err))
	}

	logger.Info("server stopped")
}
