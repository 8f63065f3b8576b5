// Command mibolsillo-import copies the four base tables from a CSV directory
// or a spreadsheet into the SQLite database used by DATA_BACKEND=sqlite.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"mibolsillo/internal/backend"
	"mibolsillo/internal/cli"
	"mibolsillo/internal/config"
	"mibolsillo/internal/loader"
	applog "mibolsillo/internal/log"
	"mibolsillo/internal/storage"
)

func main() {
	from := flag.String("from", string(backend.CSVBackend), "source backend: csv or sheets")
	timeout := flag.Duration("timeout", 5*time.Minute, "import timeout")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	if err := run(logger, cfg, backend.BackendType(*from), *timeout); err != nil {
		logger.Error("Import failed", "error", err, "from", *from)
		os.Exit(1)
	}
}

// run returns instead of exiting so the source and database are always
// closed.
func run(logger *applog.Logger, cfg *config.Config, from backend.BackendType, timeout time.Duration) error {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid backend configuration: %w", err)
	}
	bcfg.Type = from
	if bcfg.Type == backend.SQLiteBackend {
		return errors.New("import source cannot be the sqlite backend itself")
	}
	if err := bcfg.Validate(); err != nil {
		return fmt.Errorf("invalid import source: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	src, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return fmt.Errorf("open import source: %w", err)
	}
	if src.Cleanup != nil {
		defer func() {
			if err := src.Cleanup(); err != nil {
				logger.Warn("Import source cleanup failed", "error", err)
			}
		}()
	}

	// Refuse to import tables the server could not load.
	ds, err := loader.New(src.Source, logger).Load(ctx)
	if err != nil {
		return fmt.Errorf("source tables are invalid: %w", err)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return fmt.Errorf("initialize sqlite repository at %s: %w", cfg.SQLiteDBPath, err)
	}
	defer repo.Close()

	if err := storage.Import(ctx, src.Source, repo, logger); err != nil {
		return err
	}
	logger.Info("Import complete",
		applog.FieldBackend, from,
		"path", cfg.SQLiteDBPath,
		"users", len(ds.Users()),
		"transactions", len(ds.Transactions()))
	return nil
}
