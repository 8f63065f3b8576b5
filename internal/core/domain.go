package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Essential    Importance = "Essential"
	NonEssential Importance = "Non-Essential"
	Untagged     Importance = ""
)

const (
	HealthLow    HealthTier = "low"
	HealthMedium HealthTier = "medium"
	HealthHigh   HealthTier = "high"

	// HealthAll is the filter-level "no tier restriction" value. It is never
	// stored on a row.
	HealthAll HealthTier = "All"
)

const (
	yearMonthLayout = "2006-01"
	dateLayout      = "2006-01-02"
)

type (
	// Importance is the expense-importance tag of a transaction.
	Importance string

	// HealthTier is the coarse financial-health classification of a user.
	HealthTier string

	// YearMonth is a calendar-month bucket formatted as YYYY-MM. Lexical order
	// is chronological order.
	YearMonth string

	Date struct {
		time.Time
	}

	Transaction struct {
		UserID      int
		Bucket      YearMonth
		Date        Date
		Value       decimal.Decimal
		Category    string
		Importance  Importance
		// CreditLimit is NaN when the cell is empty.
		CreditLimit float64
		Segment     string
		Health      HealthTier
	}

	Payment struct {
		UserID  int
		Bucket  YearMonth
		Latency string
	}

	UserSummary struct {
		UserID              int
		Segment             string
		Health              HealthTier
		Sex                 string
		City                string
		Age                 float64
		MonthlySpending     float64
		MonthlyTransactions float64
		NonEssentialPct     float64
		AvgCreditLimit      float64
	}

	MonthlyAggregate struct {
		UserID            int
		Bucket            YearMonth
		Spending          float64
		Transactions      int
		EssentialCount    int
		NonEssentialCount int
		NonEssentialPct   float64
		EssentialPct      float64
		AvgCreditLimit    float64
		SpendingToLimit   float64
		Segment           string
		Health            HealthTier
	}

	// Cohort restricts rows to a segment and, within it, a health tier.
	// An empty Segment means the whole population; an empty or HealthAll
	// Health means no tier restriction.
	Cohort struct {
		Segment string
		Health  HealthTier
	}

	// DateRange is an inclusive calendar range. A zero bound is unbounded.
	DateRange struct {
		Start Date
		End   Date
	}
)

var (
	ErrMissingData   = errors.New("missing data")
	ErrUnknownUser   = errors.New("unknown user")
	ErrInvalidFilter = errors.New("invalid filter")
	ErrEmptyResult   = errors.New("empty result")

	ErrInvalidBucket     = errors.New("invalid year-month bucket")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidHealth     = errors.New("invalid health tier")
	ErrInvalidImportance = errors.New("invalid expense importance")
)

var healthLabels = map[HealthTier]string{
	HealthHigh:   "High Financial Health",
	HealthMedium: "Medium Financial Health",
	HealthLow:    "Low Financial Health",
	HealthAll:    "All Users",
}

// ParseYearMonth validates a YYYY-MM bucket.
func ParseYearMonth(s string) (YearMonth, error) {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(yearMonthLayout, s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidBucket, s)
	}
	return YearMonth(s), nil
}

// BucketOf returns the year-month bucket that contains d.
func BucketOf(d Date) YearMonth {
	return YearMonth(d.Format(yearMonthLayout))
}

func (ym YearMonth) String() string {
	return string(ym)
}

// ParseDate parses a YYYY-MM-DD date. A trailing time component, as written
// by spreadsheet exports, is ignored.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " T"); i > 0 {
		s = s[:i]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// MarshalText renders the date as YYYY-MM-DD, or empty for the zero date.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// MarshalJSON overrides the embedded time.Time encoding so JSON carries the
// same YYYY-MM-DD form as MarshalText.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, b)
	}
	return d.UnmarshalText([]byte(s))
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(strings.TrimSpace(string(b))) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseHealthTier accepts a stored tier (case-insensitive).
func ParseHealthTier(s string) (HealthTier, error) {
	switch HealthTier(strings.ToLower(strings.TrimSpace(s))) {
	case HealthLow:
		return HealthLow, nil
	case HealthMedium:
		return HealthMedium, nil
	case HealthHigh:
		return HealthHigh, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidHealth, s)
}

// ParseHealthFilter accepts a stored tier or the All pseudo-value. Empty
// input means All.
func ParseHealthFilter(s string) (HealthTier, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, string(HealthAll)) {
		return HealthAll, nil
	}
	return ParseHealthTier(s)
}

// Label returns the display label of the tier.
func (h HealthTier) Label() string {
	if l, ok := healthLabels[h]; ok {
		return l
	}
	return string(h)
}

// IsAll reports whether h places no restriction on the tier.
func (h HealthTier) IsAll() bool {
	return h == "" || h == HealthAll
}

func ParseImportance(s string) (Importance, error) {
	switch Importance(strings.TrimSpace(s)) {
	case Essential:
		return Essential, nil
	case NonEssential:
		return NonEssential, nil
	case Untagged:
		return Untagged, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidImportance, s)
}

// Validate checks the cohort shape. Whether the segment exists is up to the
// dataset.
func (c Cohort) Validate() error {
	if !c.Health.IsAll() {
		if _, err := ParseHealthTier(string(c.Health)); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
		}
		if c.Segment == "" {
			return fmt.Errorf("%w: health tier %q requires a segment", ErrInvalidFilter, c.Health)
		}
	}
	return nil
}

// Matches reports whether a row with the given segment and tier belongs to
// the cohort.
func (c Cohort) Matches(segment string, health HealthTier) bool {
	if c.Segment != "" && segment != c.Segment {
		return false
	}
	if !c.Health.IsAll() && health != c.Health {
		return false
	}
	return true
}

func (r DateRange) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && r.Start.After(r.End.Time) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidFilter, r.Start, r.End)
	}
	return nil
}

// Contains reports whether d lies within the inclusive range.
func (r DateRange) Contains(d Date) bool {
	if !r.Start.IsZero() && d.Before(r.Start.Time) {
		return false
	}
	if !r.End.IsZero() && d.After(r.End.Time) {
		return false
	}
	return true
}
