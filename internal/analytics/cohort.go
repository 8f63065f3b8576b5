package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"mibolsillo/internal/core"
)

// Metric selects the MonthlyAggregate column averaged by CohortSeries.
type Metric string

const (
	MetricSpending        Metric = "spending"
	MetricSpendingToLimit Metric = "spending_to_limit"
	MetricNonEssentialPct Metric = "non_essential_pct"
)

// Series names returned by CohortSeries.
const (
	SeriesPopulation    = "population"
	SeriesSegment       = "segment"
	SeriesSegmentHealth = "segment_health"
	SeriesHealth        = "health"
)

// Metrics lists the supported metrics.
var Metrics = []Metric{MetricSpending, MetricSpendingToLimit, MetricNonEssentialPct}

// ParseMetric accepts a metric name. Empty means spending.
func ParseMetric(s string) (Metric, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return MetricSpending, nil
	}
	for _, m := range Metrics {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: unknown metric %q", core.ErrInvalidFilter, s)
}

// CohortSeries averages a metric per year-month for the population and the
// selected cohort. The population series always comes first. A segment adds
// the segment series; a segment with a concrete tier adds the segment+tier
// series before it, and crossCohort appends the tier across all segments.
func (e *Engine) CohortSeries(metric Metric, cohort core.Cohort, crossCohort bool) ([]core.NamedSeries, error) {
	value, mean, err := metricColumn(metric)
	if err != nil {
		return nil, err
	}
	if err := e.checkCohort(cohort); err != nil {
		return nil, err
	}

	avg := func(c core.Cohort) core.NamedSeries {
		return core.NamedSeries{Points: averageByBucket(e.ds.Monthly(), c, value, mean)}
	}
	named := func(name string, s core.NamedSeries) core.NamedSeries {
		s.Name = name
		return s
	}

	out := []core.NamedSeries{named(SeriesPopulation, avg(core.Cohort{}))}
	if cohort.Segment == "" {
		return out, nil
	}
	segment := named(SeriesSegment, avg(core.Cohort{Segment: cohort.Segment}))
	if cohort.Health.IsAll() {
		return append(out, segment), nil
	}
	out = append(out, named(SeriesSegmentHealth, avg(cohort)), segment)
	if crossCohort {
		// Matches ignores the segment when it is empty, so this is the tier
		// across the whole population.
		out = append(out, named(SeriesHealth, avg(core.Cohort{Health: cohort.Health})))
	}
	return out, nil
}

// metricColumn returns the column accessor and whether rows are averaged
// (ratio columns) rather than summed and divided by the row count.
func metricColumn(m Metric) (func(core.MonthlyAggregate) float64, bool, error) {
	switch m {
	case MetricSpending:
		return func(r core.MonthlyAggregate) float64 { return r.Spending }, false, nil
	case MetricSpendingToLimit:
		return func(r core.MonthlyAggregate) float64 { return r.SpendingToLimit }, true, nil
	case MetricNonEssentialPct:
		return func(r core.MonthlyAggregate) float64 { return r.NonEssentialPct }, true, nil
	}
	return nil, false, fmt.Errorf("%w: unknown metric %q", core.ErrInvalidFilter, m)
}

// averageByBucket aggregates the rows matching c per bucket. For a plain
// sum/count every matching row counts; for a mean, non-finite values are
// skipped and buckets left without values are omitted.
func averageByBucket(rows []core.MonthlyAggregate, c core.Cohort, value func(core.MonthlyAggregate) float64, mean bool) []core.SeriesPoint {
	type acc struct {
		sum float64
		n   int
	}
	byBucket := make(map[core.YearMonth]*acc)
	for _, r := range rows {
		if !c.Matches(r.Segment, r.Health) {
			continue
		}
		v := value(r)
		a, ok := byBucket[r.Bucket]
		if !ok {
			a = &acc{}
			byBucket[r.Bucket] = a
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			if mean {
				continue
			}
			v = 0
		}
		a.sum += v
		a.n++
	}

	points := make([]core.SeriesPoint, 0, len(byBucket))
	for b, a := range byBucket {
		if a.n == 0 {
			continue
		}
		points = append(points, core.SeriesPoint{Bucket: b, Value: a.sum / float64(a.n)})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Bucket < points[j].Bucket })
	return points
}
