package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"mibolsillo/internal/cache"
	"mibolsillo/internal/cli"
	apphttp "mibolsillo/internal/http"
	applog "mibolsillo/internal/log"
	"mibolsillo/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ds := cli.LoadDataset(context.Background(), logger, cfg)
	engine := cli.NewEngine(logger, cfg, ds)
	logger.Info("Dataset loaded",
		applog.FieldBackend, cfg.DataBackend,
		"users", len(ds.Users()),
		"transactions", len(ds.Transactions()),
		"segments", len(ds.Segments()))

	publisher, closePublisher := cli.InitPublisher(logger, cfg)
	defer closePublisher()

	cacheManager := cache.NewManager(logger)
	sessions := session.NewStore(engine, session.Options{
		TTL:       cfg.SessionTTL,
		MaxSize:   cfg.SessionMax,
		Publisher: publisher,
		Logger:    logger,
		Manager:   cacheManager,
	})
	cacheManager.StartCleanup(time.Minute)

	srv := apphttp.NewServer(":"+cfg.Port, engine, sessions, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
		Backend:            cfg.DataBackend,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cacheManager.Stop()
	})

	logger.Info("Starting mibolsillo server", "port", cfg.Port, applog.FieldBackend, cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		cacheManager.Stop()
		closePublisher()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
