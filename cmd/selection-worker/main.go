// Command selection-worker consumes selection-changed events and logs them.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"mibolsillo/internal/amqp"
	"mibolsillo/internal/cli"
	"mibolsillo/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the selection worker")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	w := worker.NewSelectionWorker(logger)
	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)
	go w.RunSummaries(ctx, 5*time.Minute)

	logger.Info("Starting selection worker", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	if err := client.ConsumeWithRetry(ctx, w.HandleSelectionChanged); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Selection worker stopped")
}
