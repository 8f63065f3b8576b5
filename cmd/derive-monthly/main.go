// Command derive-monthly rebuilds the monthly aggregate table from the
// transactions and user summary tables of the CSV directory.
package main

import (
	"context"
	"flag"
	"os"

	"mibolsillo/internal/analytics"
	"mibolsillo/internal/backend"
	"mibolsillo/internal/cli"
	"mibolsillo/internal/loader"
	applog "mibolsillo/internal/log"
	"mibolsillo/internal/tables"
	"mibolsillo/internal/tables/csvfile"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "derive and report without writing the monthly table")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	dir := csvfile.New(cfg.DataDir, csvfile.Files(bcfg.Files))
	ctx := context.Background()

	txRows, err := dir.ReadTable(ctx, tables.Transactions)
	if err != nil {
		logger.Error("Failed to read transactions", "error", err, "path", dir.Path(tables.Transactions))
		os.Exit(1)
	}
	txs, err := loader.ParseTransactions(txRows)
	if err != nil {
		logger.Error("Invalid transactions table", "error", err)
		os.Exit(1)
	}

	userRows, err := dir.ReadTable(ctx, tables.Users)
	if err != nil {
		logger.Error("Failed to read user summary", "error", err, "path", dir.Path(tables.Users))
		os.Exit(1)
	}
	users, err := loader.ParseUsers(userRows)
	if err != nil {
		logger.Error("Invalid user summary table", "error", err)
		os.Exit(1)
	}

	monthly := analytics.DeriveMonthly(txs, users)
	logger.Info("Monthly aggregates derived",
		applog.FieldOperation, applog.OpDerive,
		"transactions", len(txs),
		"users", len(users),
		applog.FieldRows, len(monthly))
	if *dryRun {
		return
	}

	if err := dir.WriteTable(ctx, tables.Monthly, loader.FormatMonthly(monthly)); err != nil {
		logger.Error("Failed to write monthly table", "error", err, "path", dir.Path(tables.Monthly))
		os.Exit(1)
	}
	logger.Info("Monthly table written", "path", dir.Path(tables.Monthly))
}
