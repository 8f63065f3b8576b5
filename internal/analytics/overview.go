package analytics

import (
	"sort"

	"mibolsillo/internal/core"
)

// tierOrder is the row order of the segment grid.
var tierOrder = []core.HealthTier{core.HealthHigh, core.HealthMedium, core.HealthLow}

// SegmentOverview returns every user's profile point and the segment by
// health grid of user ids. Empty grid cells are omitted.
func (e *Engine) SegmentOverview() core.SegmentOverview {
	users := e.ds.Users()
	out := core.SegmentOverview{
		Profiles: make([]core.UserProfile, 0, len(users)),
		Grid:     []core.SegmentCell{},
	}

	type key struct {
		segment string
		health  core.HealthTier
	}
	cells := make(map[key][]int)
	for _, u := range users {
		out.Profiles = append(out.Profiles, core.UserProfile{
			UserID:              u.UserID,
			Segment:             u.Segment,
			Health:              u.Health,
			Age:                 u.Age,
			MonthlySpending:     u.MonthlySpending,
			MonthlyTransactions: u.MonthlyTransactions,
			NonEssentialPct:     u.NonEssentialPct,
			AvgCreditLimit:      u.AvgCreditLimit,
		})
		k := key{u.Segment, u.Health}
		cells[k] = append(cells[k], u.UserID)
	}

	for _, segment := range e.ds.Segments() {
		for _, tier := range tierOrder {
			ids, ok := cells[key{segment, tier}]
			if !ok {
				continue
			}
			sort.Ints(ids)
			out.Grid = append(out.Grid, core.SegmentCell{Segment: segment, Health: tier, UserIDs: ids})
		}
	}
	return out
}
