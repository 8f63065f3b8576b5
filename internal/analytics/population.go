package analytics

import (
	"sort"

	"github.com/samber/lo"

	"mibolsillo/internal/core"
)

// PopulationCounts splits the cohort's users by sex and location and lists
// their age and monthly spending. An empty cohort yields zero counts.
func (e *Engine) PopulationCounts(cohort core.Cohort) (core.PopulationCounts, error) {
	if err := e.checkCohort(cohort); err != nil {
		return core.PopulationCounts{}, err
	}

	users := lo.Filter(e.ds.Users(), func(u core.UserSummary, _ int) bool {
		return cohort.Matches(u.Segment, u.Health)
	})

	bySex := lo.CountValues(lo.Map(users, func(u core.UserSummary, _ int) string { return u.Sex }))
	sexes := lo.Keys(bySex)
	sort.Strings(sexes)

	in := lo.CountBy(users, func(u core.UserSummary) bool { return u.City == e.largestCity })

	out := core.PopulationCounts{
		Users: len(users),
		BySex: make([]core.CategoryCount, 0, len(sexes)),
		ByLocation: []core.CategoryCount{
			{Label: "In " + e.largestCity, Count: in},
			{Label: "Outside " + e.largestCity, Count: len(users) - in},
		},
		Points: make([]core.AgeSpendingPoint, 0, len(users)),
	}
	for _, s := range sexes {
		out.BySex = append(out.BySex, core.CategoryCount{Label: s, Count: bySex[s]})
	}
	for _, u := range users {
		out.Points = append(out.Points, core.AgeSpendingPoint{
			UserID:          u.UserID,
			Age:             u.Age,
			MonthlySpending: u.MonthlySpending,
			Sex:             u.Sex,
		})
	}
	return out, nil
}
