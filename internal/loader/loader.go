// Package loader turns the raw tables of a table source into a typed,
// immutable core.Dataset.
package loader

import (
	"context"
	"fmt"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"mibolsillo/internal/core"
	applog "mibolsillo/internal/log"
	"mibolsillo/internal/tables"
)

type Loader struct {
	src    tables.Reader
	logger *applog.Logger
}

func New(src tables.Reader, logger *applog.Logger) *Loader {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Loader{src: src, logger: logger.WithComponent(applog.ComponentLoader)}
}

// Load reads the four base tables concurrently. Any missing table, missing
// column or unparsable cell aborts the load with core.ErrMissingData.
func (l *Loader) Load(ctx context.Context) (*core.Dataset, error) {
	var (
		txs      []core.Transaction
		payments []core.Payment
		users    []core.UserSummary
		monthly  []core.MonthlyAggregate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		txs, err = readTable(gctx, l, tables.Transactions, parseTransaction)
		return err
	})
	g.Go(func() (err error) {
		payments, err = readTable(gctx, l, tables.Payments, parsePayment)
		return err
	})
	g.Go(func() (err error) {
		users, err = readTable(gctx, l, tables.Users, parseUser)
		return err
	})
	g.Go(func() (err error) {
		monthly, err = readTable(gctx, l, tables.Monthly, parseMonthly)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds, err := core.NewDataset(txs, payments, users, monthly)
	if err != nil {
		return nil, err
	}
	l.logger.InfoContext(ctx, "Dataset loaded",
		"transactions", len(txs),
		"payments", len(payments),
		"users", len(users),
		"monthly", len(monthly),
		"segments", len(ds.Segments()))
	return ds, nil
}

// Load is a shorthand for New(src, nil).Load(ctx).
func Load(ctx context.Context, src tables.Reader) (*core.Dataset, error) {
	return New(src, nil).Load(ctx)
}

// ParseTransactions types a raw transactions table.
func ParseTransactions(rows [][]string) ([]core.Transaction, error) {
	return parseRows(tables.Transactions, rows, parseTransaction)
}

// ParseUsers types a raw user summary table.
func ParseUsers(rows [][]string) ([]core.UserSummary, error) {
	return parseRows(tables.Users, rows, parseUser)
}

func readTable[T any](ctx context.Context, l *Loader, name tables.Name, parse func(*rowReader) T) ([]T, error) {
	rows, err := l.src.ReadTable(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMissingData, err)
	}
	out, err := parseRows(name, rows, parse)
	if err != nil {
		return nil, err
	}
	l.logger.DebugContext(ctx, "Table parsed", applog.FieldTable, string(name), applog.FieldRows, len(out))
	return out, nil
}

func parseRows[T any](name tables.Name, rows [][]string, parse func(*rowReader) T) ([]T, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: table %s has no header", core.ErrMissingData, name)
	}
	h, err := newHeader(name, rows[0])
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		if blank(rows[i]) {
			continue
		}
		r := &rowReader{table: name, line: i + 1, h: h, row: rows[i]}
		v := parse(r)
		if r.err != nil {
			return nil, r.err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseTransaction(r *rowReader) core.Transaction {
	tx := core.Transaction{
		UserID:      r.int(colUserID),
		Bucket:      r.bucket(colBucket),
		Date:        r.date(colDate),
		Category:    r.str(colCategory),
		Importance:  r.importance(colImportance),
		CreditLimit: r.float(colLimit, math.NaN()),
		Segment:     r.str(colSegment),
		Health:      r.health(colHealth),
	}
	v, err := core.ParseAmount(r.str(colValue))
	if err != nil {
		r.fail(colValue, err)
	}
	tx.Value = v
	return tx
}

func parsePayment(r *rowReader) core.Payment {
	return core.Payment{
		UserID:  r.int(colUserID),
		Bucket:  r.bucket(colBucket),
		Latency: r.str(colLatency),
	}
}

func parseUser(r *rowReader) core.UserSummary {
	return core.UserSummary{
		UserID:              r.int(colUserID),
		Segment:             r.str(colSegment),
		Health:              r.health(colHealth),
		Sex:                 r.str(colSex),
		City:                r.str(colCity),
		Age:                 r.float(colAge, 0),
		MonthlySpending:     r.float(colMonthlySpending, 0),
		MonthlyTransactions: r.float(colMonthlyTx, 0),
		NonEssentialPct:     r.float(colNonEssentialPct, 0),
		AvgCreditLimit:      r.float(colLimit, 0),
	}
}

// Ratio columns keep NaN for empty cells so cohort means can skip them.
func parseMonthly(r *rowReader) core.MonthlyAggregate {
	return core.MonthlyAggregate{
		UserID:            r.int(colUserID),
		Bucket:            r.bucket(colBucket),
		Spending:          r.float(colSpending, 0),
		Transactions:      r.int(colTransactions),
		EssentialCount:    r.int(colEssential),
		NonEssentialCount: r.int(colNonEssential),
		NonEssentialPct:   r.float(colNonEssentialPct, math.NaN()),
		EssentialPct:      r.float(colEssentialPct, math.NaN()),
		AvgCreditLimit:    r.float(colAvgLimit, 0),
		SpendingToLimit:   r.float(colSpendingLimit, math.NaN()),
		Segment:           r.str(colSegment),
		Health:            r.health(colHealth),
	}
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
