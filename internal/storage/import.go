package storage

import (
	"context"
	"fmt"

	applog "mibolsillo/internal/log"
	"mibolsillo/internal/tables"
)

// Import copies every base table from src to dst. Tables are copied one at a
// time; a failure leaves the already copied tables in place.
func Import(ctx context.Context, src tables.Reader, dst tables.Writer, logger *applog.Logger) error {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentStorage)

	for _, name := range tables.All {
		rows, err := src.ReadTable(ctx, name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := dst.WriteTable(ctx, name, rows); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		logger.InfoContext(ctx, "Table imported",
			applog.FieldOperation, applog.OpImport,
			applog.FieldTable, string(name),
			applog.FieldRows, len(rows)-1)
	}
	return nil
}
