// Package analytics derives the dashboard views from a loaded dataset.
//
// Every operation is a pure function of the dataset and its arguments: the
// dataset is never modified and nothing is cached, so an Engine can be used
// from any number of goroutines.
package analytics

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"mibolsillo/internal/core"
	applog "mibolsillo/internal/log"
)

// DefaultTopN is the number of categories kept before folding the rest into
// OthersLabel.
const DefaultTopN = 5

const OthersLabel = "Others"

type Options struct {
	// LargestCity splits users into In/Outside for the location counts.
	// Empty means the most frequent city of the user summary.
	LargestCity string
	TopN        int
	Logger      *applog.Logger
}

type Engine struct {
	ds          *core.Dataset
	largestCity string
	topN        int
	logger      *applog.Logger
}

func New(ds *core.Dataset, opts Options) *Engine {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.LargestCity == "" {
		opts.LargestCity = mostFrequentCity(ds.Users())
	}
	return &Engine{
		ds:          ds,
		largestCity: opts.LargestCity,
		topN:        opts.TopN,
		logger:      opts.Logger.WithComponent(applog.ComponentEngine),
	}
}

// Dataset returns the dataset the engine reads.
func (e *Engine) Dataset() *core.Dataset { return e.ds }

func (e *Engine) LargestCity() string { return e.largestCity }

// Users returns every user id of the user summary in ascending order.
func (e *Engine) Users() []int {
	ids := lo.Map(e.ds.Users(), func(u core.UserSummary, _ int) int { return u.UserID })
	sort.Ints(ids)
	return ids
}

// Segments returns the segment labels in ascending order.
func (e *Engine) Segments() []string {
	return e.ds.Segments()
}

// DateBounds returns the earliest and latest transaction date.
func (e *Engine) DateBounds() (core.DateRange, error) {
	txs := e.ds.Transactions()
	if len(txs) == 0 {
		return core.DateRange{}, fmt.Errorf("%w: no transactions", core.ErrEmptyResult)
	}
	r := core.DateRange{Start: txs[0].Date, End: txs[0].Date}
	for _, tx := range txs[1:] {
		if tx.Date.Before(r.Start.Time) {
			r.Start = tx.Date
		}
		if tx.Date.After(r.End.Time) {
			r.End = tx.Date
		}
	}
	return r, nil
}

// checkCohort validates the cohort shape and that its segment exists.
func (e *Engine) checkCohort(c core.Cohort) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Segment != "" && !e.ds.HasSegment(c.Segment) {
		return fmt.Errorf("%w: unknown segment %q", core.ErrInvalidFilter, c.Segment)
	}
	return nil
}

func mostFrequentCity(users []core.UserSummary) string {
	counts := lo.CountValues(lo.Map(users, func(u core.UserSummary, _ int) string { return u.City }))
	best, bestN := "", 0
	for city, n := range counts {
		if city == "" {
			continue
		}
		if n > bestN || (n == bestN && city < best) {
			best, bestN = city, n
		}
	}
	return best
}
