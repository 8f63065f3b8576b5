package loader

import (
	"strconv"

	"mibolsillo/internal/core"
	"mibolsillo/internal/tables"
)

// FormatMonthly renders monthly aggregates as a raw table with the
// monthly_data.csv header, ready for a tables.Writer.
func FormatMonthly(rows []core.MonthlyAggregate) [][]string {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, Headers(tables.Monthly))
	for _, m := range rows {
		out = append(out, []string{
			strconv.Itoa(m.UserID),
			m.Bucket.String(),
			formatFloat(m.Spending),
			strconv.Itoa(m.Transactions),
			strconv.Itoa(m.EssentialCount),
			strconv.Itoa(m.NonEssentialCount),
			formatFloat(m.NonEssentialPct),
			formatFloat(m.EssentialPct),
			formatFloat(m.AvgCreditLimit),
			formatFloat(m.SpendingToLimit),
			m.Segment,
			string(m.Health),
		})
	}
	return out
}

// formatFloat writes NaN as an empty cell, the way pandas does.
func formatFloat(f float64) string {
	if f != f {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
