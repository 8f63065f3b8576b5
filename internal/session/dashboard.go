package session

import (
	"context"
	"errors"

	"mibolsillo/internal/analytics"
	"mibolsillo/internal/core"
)

// Dashboard is every view derived from one selection.
type Dashboard struct {
	Selection     View                `json:"selection"`
	HealthOptions []core.HealthOption `json:"health_options"`
	// User is nil when no user is selected.
	User       *core.UserTimeSeries                    `json:"user,omitempty"`
	Cohort     map[analytics.Metric][]core.NamedSeries `json:"cohort"`
	Categories []core.CategoryShare                    `json:"categories"`
	// CategoriesEmpty is set when the date range and cohort leave no spending.
	CategoriesEmpty bool                  `json:"categories_empty"`
	Population      core.PopulationCounts `json:"population"`
}

// Dashboard recomputes all views for the session's current selection.
func (st *Store) Dashboard(ctx context.Context, id string) (Dashboard, error) {
	s, err := st.Get(id)
	if err != nil {
		return Dashboard{}, err
	}
	sel := s.Selection()
	d, err := Build(st.engine, sel)
	if err != nil {
		return Dashboard{}, err
	}
	d.Selection = sel.View(id)
	st.logger.DebugContext(ctx, "Dashboard computed", "session_id", id)
	return d, nil
}

// Build derives the dashboard views for sel.
func Build(e *analytics.Engine, sel Selection) (Dashboard, error) {
	var d Dashboard
	cohort := sel.Cohort()

	opts, err := e.HealthOptions(sel.Segment)
	if err != nil {
		return d, err
	}
	d.HealthOptions = opts

	if sel.UserID != nil {
		ts, err := e.UserTimeSeries(*sel.UserID)
		if err != nil {
			return d, err
		}
		d.User = &ts
	}

	d.Cohort = make(map[analytics.Metric][]core.NamedSeries, len(analytics.Metrics))
	for _, m := range analytics.Metrics {
		series, err := e.CohortSeries(m, cohort, sel.Compare)
		if err != nil {
			return d, err
		}
		d.Cohort[m] = series
	}

	shares, err := e.CategoryBreakdown(sel.DateRange, cohort)
	switch {
	case errors.Is(err, core.ErrEmptyResult):
		d.Categories = []core.CategoryShare{}
		d.CategoriesEmpty = true
	case err != nil:
		return d, err
	default:
		d.Categories = shares
	}

	d.Population, err = e.PopulationCounts(cohort)
	if err != nil {
		return d, err
	}
	return d, nil
}
