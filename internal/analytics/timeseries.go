package analytics

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"mibolsillo/internal/core"
)

// UserTimeSeries builds the spending, essential split and lateness views of
// a single user.
func (e *Engine) UserTimeSeries(userID int) (core.UserTimeSeries, error) {
	if _, ok := e.ds.User(userID); !ok {
		return core.UserTimeSeries{}, fmt.Errorf("%w: %d", core.ErrUnknownUser, userID)
	}

	type split struct{ total, essential, nonEssential decimal.Decimal }
	byBucket := make(map[core.YearMonth]*split)
	for _, tx := range e.ds.UserTransactions(userID) {
		s, ok := byBucket[tx.Bucket]
		if !ok {
			s = &split{}
			byBucket[tx.Bucket] = s
		}
		s.total = s.total.Add(tx.Value)
		switch tx.Importance {
		case core.Essential:
			s.essential = s.essential.Add(tx.Value)
		case core.NonEssential:
			s.nonEssential = s.nonEssential.Add(tx.Value)
		}
	}

	buckets := lo.Keys(byBucket)
	sort.Slice(buckets, func(i, j int) bool { return buckets[i] < buckets[j] })

	out := core.UserTimeSeries{
		UserID:    userID,
		Spending:  make([]core.SeriesPoint, 0, len(buckets)),
		Essential: make([]core.EssentialPoint, 0, len(buckets)),
		Lateness:  []core.LatencyShare{},
	}
	for _, b := range buckets {
		s := byBucket[b]
		out.Spending = append(out.Spending, core.SeriesPoint{Bucket: b, Value: core.Float(s.total)})
		out.Essential = append(out.Essential, core.EssentialPoint{
			Bucket:       b,
			Essential:    core.Float(s.essential),
			NonEssential: core.Float(s.nonEssential),
		})
	}

	payments := e.ds.UserPayments(userID)
	counts := lo.CountValues(lo.Map(payments, func(p core.Payment, _ int) string { return p.Latency }))
	categories := lo.Keys(counts)
	sort.Strings(categories)
	for _, c := range categories {
		out.Lateness = append(out.Lateness, core.LatencyShare{
			Category: c,
			Cycles:   counts[c],
			Share:    float64(counts[c]) / float64(len(payments)),
		})
	}
	out.TotalCycles = len(payments)
	return out, nil
}
