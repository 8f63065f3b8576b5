// Package cli provides common CLI initialization utilities shared by the
// commands under cmd/.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"mibolsillo/internal/amqp"
	"mibolsillo/internal/analytics"
	"mibolsillo/internal/backend"
	"mibolsillo/internal/config"
	"mibolsillo/internal/core"
	"mibolsillo/internal/loader"
	applog "mibolsillo/internal/log"
	"mibolsillo/internal/session"
)

// SetupLogger initializes structured logging at the given LOG_LEVEL value
// and makes it the default logger.
func SetupLogger(level string) *applog.Logger {
	lvl := applog.ParseLevel(level)
	cfg := applog.DefaultConfig()
	cfg.Level = lvl
	cfg.Handler = nil
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg
}

// LoadDataset opens the configured table source and loads the dataset.
// Missing or malformed data is fatal.
func LoadDataset(ctx context.Context, logger *applog.Logger, cfg *config.Config) *core.Dataset {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	ds, err := OpenDataset(ctx, logger, backend.NewFactory(logger), bcfg)
	if err != nil {
		logger.Error("Failed to load dataset", "error", err, applog.FieldBackend, bcfg.Type)
		os.Exit(1)
	}
	return ds
}

// OpenDataset creates the table source, loads the dataset from it and
// releases the source whether or not the load succeeded.
func OpenDataset(ctx context.Context, logger *applog.Logger, factory backend.Factory, bcfg backend.Config) (*core.Dataset, error) {
	res, err := factory.CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open table source: %w", err)
	}
	if res.Cleanup != nil {
		defer func() {
			if cerr := res.Cleanup(); cerr != nil {
				logger.Warn("Table source cleanup failed", "error", cerr, applog.FieldBackend, bcfg.Type)
			}
		}()
	}
	return loader.New(res.Source, logger).Load(ctx)
}

// NewEngine builds the analytics engine over ds.
func NewEngine(logger *applog.Logger, cfg *config.Config, ds *core.Dataset) *analytics.Engine {
	return analytics.New(ds, analytics.Options{LargestCity: cfg.LargestCity, Logger: logger})
}

// InitPublisher connects to AMQP when AMQP_URL is set. Without a broker, or
// when the broker is unreachable at startup, events are dropped. The
// returned cleanup is never nil.
func InitPublisher(logger *applog.Logger, cfg *config.Config) (session.Publisher, func()) {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled - selection events are not published")
		return session.NopPublisher{}, func() {}
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Warn("AMQP unavailable - selection events are not published", "error", err)
		return session.NopPublisher{}, func() {}
	}
	logger.Info("AMQP publisher connected", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client, func() { _ = client.Close() }
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
