package analytics

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"mibolsillo/internal/core"
)

// CategoryBreakdown returns each category's share of the cohort's spending
// within the inclusive date range. The largest TopN categories are kept in
// descending order and the remainder is folded into a single OthersLabel row.
func (e *Engine) CategoryBreakdown(dates core.DateRange, cohort core.Cohort) ([]core.CategoryShare, error) {
	if err := dates.Validate(); err != nil {
		return nil, err
	}
	if err := e.checkCohort(cohort); err != nil {
		return nil, err
	}

	sums := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, tx := range e.ds.Transactions() {
		if !dates.Contains(tx.Date) || !cohort.Matches(tx.Segment, tx.Health) {
			continue
		}
		sums[tx.Category] = sums[tx.Category].Add(tx.Value)
		total = total.Add(tx.Value)
	}
	if len(sums) == 0 {
		return nil, fmt.Errorf("%w: no transactions between %s and %s", core.ErrEmptyResult, dates.Start, dates.End)
	}
	if total.IsZero() {
		return nil, fmt.Errorf("%w: transactions between %s and %s sum to zero", core.ErrEmptyResult, dates.Start, dates.End)
	}

	shares := make([]core.CategoryShare, 0, len(sums))
	for cat, sum := range sums {
		shares = append(shares, core.CategoryShare{Category: cat, Share: core.Float(sum.Div(total))})
	}
	return foldTail(shares, e.topN), nil
}

// foldTail sorts shares descending (ties by name) and replaces everything
// after the first n entries with one OthersLabel entry.
func foldTail(shares []core.CategoryShare, n int) []core.CategoryShare {
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Share != shares[j].Share {
			return shares[i].Share > shares[j].Share
		}
		return shares[i].Category < shares[j].Category
	})
	if len(shares) <= n {
		return shares
	}
	others := core.CategoryShare{Category: OthersLabel}
	for _, s := range shares[n:] {
		others.Share += s.Share
	}
	return append(shares[:n:n], others)
}
