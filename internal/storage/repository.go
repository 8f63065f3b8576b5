package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"mibolsillo/internal/tables"

	_ "modernc.org/sqlite"
)

// columns lists the stored columns of each table, in the order of the
// migration. They double as the header row returned by ReadTable.
var columns = map[tables.Name][]string{
	tables.Transactions: {"Internal_ID", "Year-Month", "Fixed_Date", "Value", "Grupo_Estabelecimento", "Expense_Importance", "Limite_Total", "Cluster", "overall_health"},
	tables.Payments:     {"Internal_ID", "Year-Month", "Latency"},
	tables.Users:        {"Internal_ID", "Cluster", "overall_health", "Sexo", "Cidade", "Idade", "Monthly_Spending", "Monthly_Transactions", "NonEssential_Percentage", "Limite_Total"},
	tables.Monthly:      {"Internal_ID", "Year-Month", "Spending", "Transactions", "Essential", "Non-Essential", "NonEssential_Percentage", "Essential_Percentage", "Average_Total_Limit", "Spending to Limit", "Cluster", "overall_health"},
}

type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ tables.Reader = (*SQLiteRepository)(nil)
	_ tables.Writer = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReadTable implements tables.Reader. Rows come back in insertion order.
func (r *SQLiteRepository) ReadTable(ctx context.Context, name tables.Name) ([][]string, error) {
	cols, ok := columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", tables.ErrTableNotFound, name)
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", quoteList(cols), name)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	defer rows.Close()

	out := [][]string{append([]string(nil), cols...)}
	for rows.Next() {
		cells := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", name, err)
		}
		row := make([]string, len(cols))
		for i, c := range cells {
			row[i] = c.String
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", name, err)
	}
	if len(out) == 1 {
		return nil, fmt.Errorf("%w: %s is empty, run the import first", tables.ErrTableNotFound, name)
	}
	return out, nil
}

// WriteTable implements tables.Writer. It replaces the table content in one
// transaction. Input columns are matched to stored columns by header name;
// unknown input columns are dropped and missing ones stored empty.
func (r *SQLiteRepository) WriteTable(ctx context.Context, name tables.Name, rows [][]string) error {
	cols, ok := columns[name]
	if !ok {
		return fmt.Errorf("%w: %s", tables.ErrTableNotFound, name)
	}
	if len(rows) == 0 {
		return fmt.Errorf("write %s: no header row", name)
	}

	pos := make([]int, len(cols))
	for i, c := range cols {
		pos[i] = -1
		for j, h := range rows[0] {
			if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == c {
				pos[i] = j
				break
			}
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+string(name)); err != nil {
		return fmt.Errorf("clear %s: %w", name, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", name, quoteList(cols), placeholders))
	if err != nil {
		return fmt.Errorf("prepare insert %s: %w", name, err)
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for _, row := range rows[1:] {
		for i, p := range pos {
			v := ""
			if p >= 0 && p < len(row) {
				v = strings.TrimSpace(row[p])
			}
			args[i] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", name, err)
	}

	slog.InfoContext(ctx, "Table saved to SQLite", "table", string(name), "rows", len(rows)-1)
	return nil
}

func quoteList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = `"` + strings.ReplaceAll(c, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ", ")
}
