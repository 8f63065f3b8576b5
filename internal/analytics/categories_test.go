package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mibolsillo/internal/core"
)

func breakdownEngine(t *testing.T) *Engine {
	t.Helper()
	users := []core.UserSummary{
		{UserID: 1, Segment: "Group 1", Health: core.HealthMedium},
		{UserID: 2, Segment: "Group 2", Health: core.HealthLow},
	}
	amounts := []struct {
		cat   string
		value string
	}{
		{"A", "30"}, {"B", "25"}, {"C", "20"}, {"D", "10"}, {"G", "5"}, {"F", "5"}, {"E", "5"},
	}
	var txs []core.Transaction
	for i, a := range amounts {
		row := tx(1, d(2019, 10, 1+i), a.value, a.cat, core.Essential)
		row.Segment, row.Health = "Group 1", core.HealthMedium
		txs = append(txs, row)
	}
	other := tx(2, d(2019, 12, 24), "1000", "Travel", core.NonEssential)
	other.Segment, other.Health = "Group 2", core.HealthLow
	txs = append(txs, other)

	ds, err := core.NewDataset(txs, nil, users, nil)
	require.NoError(t, err)
	return New(ds, Options{})
}

func TestCategoryBreakdownFoldsTail(t *testing.T) {
	e := breakdownEngine(t)
	shares, err := e.CategoryBreakdown(core.DateRange{Start: d(2019, 10, 1), End: d(2019, 10, 31)}, core.Cohort{})
	require.NoError(t, err)
	require.Len(t, shares, 6)

	want := []core.CategoryShare{
		{Category: "A", Share: 0.3},
		{Category: "B", Share: 0.25},
		{Category: "C", Share: 0.2},
		{Category: "D", Share: 0.1},
		{Category: "E", Share: 0.05},
		{Category: OthersLabel, Share: 0.1},
	}
	var top, total float64
	for i, s := range shares {
		assert.Equal(t, want[i].Category, s.Category)
		assert.InDelta(t, want[i].Share, s.Share, 1e-9)
		if i < 5 {
			top += s.Share
		}
		total += s.Share
	}
	assert.InDelta(t, 0.9, top, 1e-9)
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestCategoryBreakdownNoOthersForFewCategories(t *testing.T) {
	e := breakdownEngine(t)
	shares, err := e.CategoryBreakdown(core.DateRange{Start: d(2019, 10, 1), End: d(2019, 10, 3)}, core.Cohort{Segment: "Group 1"})
	require.NoError(t, err)
	require.Len(t, shares, 3)
	for _, s := range shares {
		assert.NotEqual(t, OthersLabel, s.Category)
	}
	assert.InDelta(t, 30.0/75.0, shares[0].Share, 1e-9)
}

func TestCategoryBreakdownInclusiveBoundsAndCohort(t *testing.T) {
	e := breakdownEngine(t)
	shares, err := e.CategoryBreakdown(core.DateRange{Start: d(2019, 12, 24), End: d(2019, 12, 24)}, core.Cohort{})
	require.NoError(t, err)
	assert.Equal(t, []core.CategoryShare{{Category: "Travel", Share: 1}}, shares)

	// Unbounded range restricted to one cohort.
	shares, err = e.CategoryBreakdown(core.DateRange{}, core.Cohort{Segment: "Group 2", Health: core.HealthLow})
	require.NoError(t, err)
	assert.Len(t, shares, 1)
}

func TestCategoryBreakdownErrors(t *testing.T) {
	e := breakdownEngine(t)

	_, err := e.CategoryBreakdown(core.DateRange{Start: d(2018, 1, 1), End: d(2018, 12, 31)}, core.Cohort{})
	assert.ErrorIs(t, err, core.ErrEmptyResult)

	_, err = e.CategoryBreakdown(core.DateRange{Start: d(2019, 12, 1), End: d(2019, 12, 31)}, core.Cohort{Segment: "Group 1"})
	assert.ErrorIs(t, err, core.ErrEmptyResult)

	_, err = e.CategoryBreakdown(core.DateRange{Start: d(2019, 12, 31), End: d(2019, 1, 1)}, core.Cohort{})
	assert.ErrorIs(t, err, core.ErrInvalidFilter)

	_, err = e.CategoryBreakdown(core.DateRange{}, core.Cohort{Segment: "Group 7"})
	assert.ErrorIs(t, err, core.ErrInvalidFilter)
}

func TestCategoryBreakdownZeroTotal(t *testing.T) {
	users := []core.UserSummary{{UserID: 1, Segment: "S", Health: core.HealthLow}}
	txs := []core.Transaction{
		tx(1, d(2019, 1, 1), "10", "Shop", core.Essential),
		tx(1, d(2019, 1, 2), "-10", "Shop", core.Essential),
	}
	ds, err := core.NewDataset(txs, nil, users, nil)
	require.NoError(t, err)
	_, err = New(ds, Options{}).CategoryBreakdown(core.DateRange{}, core.Cohort{})
	assert.ErrorIs(t, err, core.ErrEmptyResult)
}
