package core

// SeriesPoint is one year-month value of a time series.
type SeriesPoint struct {
	Bucket YearMonth `json:"bucket"`
	Value  float64   `json:"value"`
}

// NamedSeries is a labelled time series, one per chart trace.
type NamedSeries struct {
	Name   string        `json:"name"`
	Points []SeriesPoint `json:"points"`
}

// EssentialPoint splits a bucket's spending by expense importance.
type EssentialPoint struct {
	Bucket       YearMonth `json:"bucket"`
	Essential    float64   `json:"essential"`
	NonEssential float64   `json:"non_essential"`
}

// LatencyShare is the number of billing cycles paid with a given lateness
// and its share of all cycles.
type LatencyShare struct {
	Category string  `json:"category"`
	Cycles   int     `json:"cycles"`
	Share    float64 `json:"share"`
}

// UserTimeSeries groups the per-user views.
type UserTimeSeries struct {
	UserID      int              `json:"user_id"`
	Spending    []SeriesPoint    `json:"spending"`
	Essential   []EssentialPoint `json:"essential"`
	Lateness    []LatencyShare   `json:"lateness"`
	TotalCycles int              `json:"total_cycles"`
}

// CategoryShare is the fraction of filtered spending that went to a category.
type CategoryShare struct {
	Category string  `json:"category"`
	Share    float64 `json:"share"`
}

type CategoryCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type AgeSpendingPoint struct {
	UserID          int     `json:"user_id"`
	Age             float64 `json:"age"`
	MonthlySpending float64 `json:"monthly_spending"`
	Sex             string  `json:"sex"`
}

// PopulationCounts is the demographic split of a cohort.
type PopulationCounts struct {
	Users      int                `json:"users"`
	BySex      []CategoryCount    `json:"by_sex"`
	ByLocation []CategoryCount    `json:"by_location"`
	Points     []AgeSpendingPoint `json:"points"`
}

// HealthOption is one entry of the health-tier drop-down.
type HealthOption struct {
	Value HealthTier `json:"value"`
	Label string     `json:"label"`
}

// UserProfile is a user's position in the segment overview scatters.
type UserProfile struct {
	UserID              int        `json:"user_id"`
	Segment             string     `json:"segment"`
	Health              HealthTier `json:"health"`
	Age                 float64    `json:"age"`
	MonthlySpending     float64    `json:"monthly_spending"`
	MonthlyTransactions float64    `json:"monthly_transactions"`
	NonEssentialPct     float64    `json:"non_essential_pct"`
	AvgCreditLimit      float64    `json:"avg_credit_limit"`
}

// SegmentCell lists the users of one segment and health tier.
type SegmentCell struct {
	Segment string     `json:"segment"`
	Health  HealthTier `json:"health"`
	UserIDs []int      `json:"user_ids"`
}

type SegmentOverview struct {
	Profiles []UserProfile `json:"profiles"`
	Grid     []SegmentCell `json:"grid"`
}
