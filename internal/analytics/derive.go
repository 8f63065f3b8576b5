package analytics

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"mibolsillo/internal/core"
)

// DeriveMonthly rebuilds the monthly aggregate table from transactions.
// Rows are produced per (user, year-month) in ascending order. Users absent
// from the user summary are dropped; segment and health come from it. The
// credit limit is averaged over the transactions that carry one.
func DeriveMonthly(txs []core.Transaction, users []core.UserSummary) []core.MonthlyAggregate {
	profile := make(map[int]core.UserSummary, len(users))
	for _, u := range users {
		profile[u.UserID] = u
	}

	type key struct {
		user   int
		bucket core.YearMonth
	}
	type acc struct {
		spending     decimal.Decimal
		count        int
		essential    int
		nonEssential int
		limitSum     float64
		limits       int
	}
	groups := make(map[key]*acc)
	for _, tx := range txs {
		if _, ok := profile[tx.UserID]; !ok {
			continue
		}
		k := key{tx.UserID, tx.Bucket}
		a, ok := groups[k]
		if !ok {
			a = &acc{}
			groups[k] = a
		}
		a.spending = a.spending.Add(tx.Value)
		a.count++
		if !math.IsNaN(tx.CreditLimit) {
			a.limitSum += tx.CreditLimit
			a.limits++
		}
		switch tx.Importance {
		case core.Essential:
			a.essential++
		case core.NonEssential:
			a.nonEssential++
		}
	}

	keys := make([]key, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].user != keys[j].user {
			return keys[i].user < keys[j].user
		}
		return keys[i].bucket < keys[j].bucket
	})

	out := make([]core.MonthlyAggregate, 0, len(keys))
	for _, k := range keys {
		a := groups[k]
		u := profile[k.user]
		spending := core.Float(a.spending)
		avgLimit := math.NaN()
		if a.limits > 0 {
			avgLimit = a.limitSum / float64(a.limits)
		}
		toLimit := math.NaN()
		if a.limits > 0 && avgLimit != 0 {
			toLimit = spending / avgLimit
		}
		out = append(out, core.MonthlyAggregate{
			UserID:            k.user,
			Bucket:            k.bucket,
			Spending:          spending,
			Transactions:      a.count,
			EssentialCount:    a.essential,
			NonEssentialCount: a.nonEssential,
			NonEssentialPct:   float64(a.nonEssential) / float64(a.count),
			EssentialPct:      float64(a.essential) / float64(a.count),
			AvgCreditLimit:    avgLimit,
			SpendingToLimit:   toLimit,
			Segment:           u.Segment,
			Health:            u.Health,
		})
	}
	return out
}
