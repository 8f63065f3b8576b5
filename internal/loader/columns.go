package loader

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"mibolsillo/internal/core"
	"mibolsillo/internal/tables"
)

// Column headers of the base tables.
const (
	colUserID          = "Internal_ID"
	colBucket          = "Year-Month"
	colDate            = "Fixed_Date"
	colValue           = "Value"
	colCategory        = "Grupo_Estabelecimento"
	colImportance      = "Expense_Importance"
	colLimit           = "Limite_Total"
	colSegment         = "Cluster"
	colHealth          = "overall_health"
	colLatency         = "Latency"
	colSex             = "Sexo"
	colCity            = "Cidade"
	colAge             = "Idade"
	colMonthlySpending = "Monthly_Spending"
	colMonthlyTx       = "Monthly_Transactions"
	colNonEssentialPct = "NonEssential_Percentage"
	colSpending        = "Spending"
	colTransactions    = "Transactions"
	colEssential       = "Essential"
	colNonEssential    = "Non-Essential"
	colEssentialPct    = "Essential_Percentage"
	colAvgLimit        = "Average_Total_Limit"
	colSpendingLimit   = "Spending to Limit"
)

// Required columns per table. Anything else in the header is ignored.
var required = map[tables.Name][]string{
	tables.Transactions: {colUserID, colBucket, colDate, colValue, colCategory, colImportance, colLimit, colSegment, colHealth},
	tables.Payments:     {colUserID, colBucket, colLatency},
	tables.Users:        {colUserID, colSegment, colHealth, colSex, colCity, colAge, colMonthlySpending, colMonthlyTx, colNonEssentialPct, colLimit},
	tables.Monthly:      {colUserID, colBucket, colSpending, colTransactions, colEssential, colNonEssential, colNonEssentialPct, colEssentialPct, colAvgLimit, colSpendingLimit, colSegment, colHealth},
}

// Headers returns the required header row of a table, in canonical order.
func Headers(name tables.Name) []string {
	return append([]string(nil), required[name]...)
}

// header maps column names to positions.
type header map[string]int

func newHeader(name tables.Name, row []string) (header, error) {
	h := make(header, len(row))
	for i, v := range row {
		v = strings.TrimSpace(v)
		if _, dup := h[v]; !dup {
			h[v] = i
		}
	}
	var missing []string
	for _, col := range required[name] {
		if _, ok := h[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: table %s: missing columns %s; got headers=%v", core.ErrMissingData, name, strings.Join(missing, ","), row)
	}
	return h, nil
}

// rowReader reads typed cells of a single row and remembers the first error.
type rowReader struct {
	table tables.Name
	line  int
	h     header
	row   []string
	err   error
}

func (r *rowReader) str(col string) string {
	i := r.h[col]
	if i < 0 || i >= len(r.row) {
		return ""
	}
	return strings.TrimSpace(r.row[i])
}

func (r *rowReader) fail(col string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: table %s line %d column %q: %v", core.ErrMissingData, r.table, r.line, col, err)
	}
}

// int parses an integer cell. Values such as "12.0", as written by pandas
// for columns that held NaN, are accepted.
func (r *rowReader) int(col string) int {
	s := r.str(col)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		r.fail(col, fmt.Errorf("not an integer: %q", s))
		return 0
	}
	return int(f)
}

// float parses a float cell; an empty cell yields empty.
func (r *rowReader) float(col string, empty float64) float64 {
	s := r.str(col)
	if s == "" || strings.EqualFold(s, "nan") {
		return empty
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.fail(col, fmt.Errorf("not a number: %q", s))
		return 0
	}
	return f
}

func (r *rowReader) bucket(col string) core.YearMonth {
	ym, err := core.ParseYearMonth(r.str(col))
	if err != nil {
		r.fail(col, err)
	}
	return ym
}

func (r *rowReader) date(col string) core.Date {
	d, err := core.ParseDate(r.str(col))
	if err != nil {
		r.fail(col, err)
	}
	return d
}

func (r *rowReader) health(col string) core.HealthTier {
	h, err := core.ParseHealthTier(r.str(col))
	if err != nil {
		r.fail(col, err)
	}
	return h
}

func (r *rowReader) importance(col string) core.Importance {
	imp, err := core.ParseImportance(r.str(col))
	if err != nil {
		r.fail(col, err)
	}
	return imp
}
