// Package csvfile reads and writes the base tables as CSV files in a
// directory, the format produced by the offline clustering step.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"mibolsillo/internal/tables"
)

// Files maps each table to its file name inside the data directory.
type Files map[tables.Name]string

// DefaultFiles are the names written by the clustering notebooks.
func DefaultFiles() Files {
	return Files{
		tables.Transactions: "trans_clustered.csv",
		tables.Payments:     "payments_clustered.csv",
		tables.Users:        "pivot_user_info_clustered.csv",
		tables.Monthly:      "monthly_data.csv",
	}
}

type Dir struct {
	base  string
	files Files
}

var (
	_ tables.Reader = (*Dir)(nil)
	_ tables.Writer = (*Dir)(nil)
)

// New returns a CSV table source rooted at base. Tables missing from files
// fall back to their default file name.
func New(base string, files Files) *Dir {
	merged := DefaultFiles()
	for name, file := range files {
		if strings.TrimSpace(file) != "" {
			merged[name] = file
		}
	}
	return &Dir{base: base, files: merged}
}

// Path returns the file backing the table.
func (d *Dir) Path(name tables.Name) string {
	file := d.files[name]
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(d.base, file)
}

func (d *Dir) ReadTable(ctx context.Context, name tables.Name) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := d.Path(name)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (%s)", tables.ErrTableNotFound, name, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

// WriteTable writes rows to the table's file, replacing it.
func (d *Dir) WriteTable(ctx context.Context, name tables.Name, rows [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := d.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
