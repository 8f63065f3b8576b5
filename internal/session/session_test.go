package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mibolsillo/internal/amqp"
	"mibolsillo/internal/analytics"
	"mibolsillo/internal/core"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.SelectionChangedMessage
	err  error
}

func (p *recordingPublisher) PublishSelectionChanged(_ context.Context, msg *amqp.SelectionChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func newTestEngine(t *testing.T) *analytics.Engine {
	t.Helper()
	users := []core.UserSummary{
		{UserID: 1, Segment: "Group 2", Health: core.HealthHigh, Sex: "F", City: "SAO PAULO"},
		{UserID: 2, Segment: "Group 2", Health: core.HealthHigh, Sex: "M", City: "SAO PAULO"},
		{UserID: 3, Segment: "Group 2", Health: core.HealthMedium, Sex: "F", City: "CAMPINAS"},
		{UserID: 4, Segment: "Group 3", Health: core.HealthLow, Sex: "M", City: "RIO"},
	}
	tx := func(user int, date core.Date, value, category string, imp core.Importance, seg string, h core.HealthTier) core.Transaction {
		return core.Transaction{UserID: user, Bucket: core.BucketOf(date), Date: date,
			Value: decimal.RequireFromString(value), Category: category, Importance: imp, Segment: seg, Health: h}
	}
	txs := []core.Transaction{
		tx(1, core.NewDate(2019, 10, 3), "100", "Supermarket", core.Essential, "Group 2", core.HealthHigh),
		tx(3, core.NewDate(2019, 11, 9), "70", "Pharmacy", core.Essential, "Group 2", core.HealthMedium),
		tx(4, core.NewDate(2019, 12, 5), "20", "Bar", core.NonEssential, "Group 3", core.HealthLow),
	}
	monthly := []core.MonthlyAggregate{
		{UserID: 1, Bucket: "2019-10", Spending: 100, Segment: "Group 2", Health: core.HealthHigh},
		{UserID: 3, Bucket: "2019-11", Spending: 70, Segment: "Group 2", Health: core.HealthMedium},
		{UserID: 4, Bucket: "2019-12", Spending: 20, Segment: "Group 3", Health: core.HealthLow},
	}
	ds, err := core.NewDataset(txs, nil, users, monthly)
	require.NoError(t, err)
	return analytics.New(ds, analytics.Options{})
}

func ptr[T any](v T) *T { return &v }

func TestDefaultSelection(t *testing.T) {
	sel := DefaultSelection()
	assert.Nil(t, sel.UserID)
	assert.Empty(t, sel.Segment)
	assert.Equal(t, core.HealthAll, sel.Health)
	assert.True(t, sel.DateRange.Start.IsZero())
	assert.True(t, sel.DateRange.End.IsZero())
	assert.False(t, sel.Compare)
}

func TestSelectSegmentResetsHealth(t *testing.T) {
	e := newTestEngine(t)
	sel := DefaultSelection()

	require.NoError(t, sel.SelectSegment(e, "Group 2"))
	require.NoError(t, sel.SelectHealth(e, "high"))
	assert.Equal(t, core.HealthHigh, sel.Health)

	// same segment again still resets
	require.NoError(t, sel.SelectSegment(e, "Group 2"))
	assert.Equal(t, core.HealthAll, sel.Health)

	require.NoError(t, sel.SelectHealth(e, "medium"))
	require.NoError(t, sel.SelectSegment(e, "Group 3"))
	assert.Equal(t, core.HealthAll, sel.Health)
}

func TestSelectHealthValidatesAgainstOptions(t *testing.T) {
	e := newTestEngine(t)
	sel := DefaultSelection()

	err := sel.SelectHealth(e, "high")
	assert.ErrorIs(t, err, core.ErrInvalidFilter, "tier without segment")

	require.NoError(t, sel.SelectSegment(e, "Group 3"))
	assert.ErrorIs(t, sel.SelectHealth(e, "low"), core.ErrInvalidFilter, "single-tier segment only offers All")
	assert.NoError(t, sel.SelectHealth(e, "All"))

	assert.ErrorIs(t, sel.SelectHealth(e, "excellent"), core.ErrInvalidFilter)
}

func TestSelectUnknownSegmentAndUser(t *testing.T) {
	e := newTestEngine(t)
	sel := DefaultSelection()
	assert.ErrorIs(t, sel.SelectSegment(e, "Group 9"), core.ErrInvalidFilter)
	assert.ErrorIs(t, sel.SelectUser(e, ptr(77)), core.ErrUnknownUser)
	require.NoError(t, sel.SelectUser(e, ptr(1)))
	assert.Equal(t, 1, *sel.UserID)
	require.NoError(t, sel.SelectUser(e, nil))
	assert.Nil(t, sel.UserID)
}

func TestApplyIsAtomic(t *testing.T) {
	e := newTestEngine(t)
	sel := DefaultSelection()

	err := sel.Apply(e, Update{Segment: ptr("Group 2"), Health: ptr("low")})
	assert.ErrorIs(t, err, core.ErrInvalidFilter)
	assert.Equal(t, DefaultSelection(), sel)

	require.NoError(t, sel.Apply(e, Update{Segment: ptr("Group 2"), Health: ptr("medium"), Compare: ptr(true)}))
	assert.Equal(t, "Group 2", sel.Segment)
	assert.Equal(t, core.HealthMedium, sel.Health)
	assert.True(t, sel.Compare)
}

func TestApplyDates(t *testing.T) {
	e := newTestEngine(t)
	sel := DefaultSelection()

	require.NoError(t, sel.Apply(e, Update{Start: ptr("2019-10-01"), End: ptr("2019-10-31")}))
	assert.Equal(t, "2019-10-01", sel.DateRange.Start.String())
	assert.Equal(t, "2019-10-31", sel.DateRange.End.String())

	assert.ErrorIs(t, sel.Apply(e, Update{Start: ptr("2019-11-15")}), core.ErrInvalidFilter)
	assert.ErrorIs(t, sel.Apply(e, Update{End: ptr("not-a-date")}), core.ErrInvalidFilter)

	require.NoError(t, sel.Apply(e, Update{End: ptr("")}))
	assert.True(t, sel.DateRange.End.IsZero())
	assert.Equal(t, "2019-10-01", sel.DateRange.Start.String())
}

func TestStoreLifecycle(t *testing.T) {
	pub := &recordingPublisher{}
	st := NewStore(newTestEngine(t), Options{Publisher: pub})
	ctx := context.Background()

	s := st.Create(ctx)
	assert.Equal(t, 1, st.Len())

	got, err := st.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	sel, err := st.Update(ctx, s.ID, Update{UserID: ptr(3), Segment: ptr("Group 2")})
	require.NoError(t, err)
	assert.Equal(t, 3, *sel.UserID)

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, s.ID, pub.msgs[0].SessionID)
	assert.Equal(t, "Group 2", pub.msgs[0].Segment)
	assert.Equal(t, "All", pub.msgs[0].Health)

	_, err = st.Update(ctx, s.ID, Update{Health: ptr("low")})
	assert.ErrorIs(t, err, core.ErrInvalidFilter)
	assert.Len(t, pub.msgs, 1, "rejected changes are not published")

	sel, err = st.ResetDates(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "2019-10-03", sel.DateRange.Start.String())
	assert.Equal(t, "2019-12-05", sel.DateRange.End.String())
	assert.Equal(t, "2019-10-03", pub.msgs[1].Start)

	require.NoError(t, st.Delete(s.ID))
	_, err = st.Get(s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, st.Delete(s.ID), ErrSessionNotFound)
}

func TestStoreUnknownSession(t *testing.T) {
	st := NewStore(newTestEngine(t), Options{})
	_, err := st.Get("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = st.Update(context.Background(), "5f0c4d3e-8b7e-4a3c-9d41-2f1a0e9b6c11", Update{})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStorePublishFailureDoesNotFailUpdate(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	st := NewStore(newTestEngine(t), Options{Publisher: pub})
	s := st.Create(context.Background())

	_, err := st.Update(context.Background(), s.ID, Update{Compare: ptr(true)})
	require.NoError(t, err)
	assert.True(t, s.Selection().Compare)
}

func TestStoreSessionsExpire(t *testing.T) {
	st := NewStore(newTestEngine(t), Options{TTL: 20 * time.Millisecond})
	s := st.Create(context.Background())
	time.Sleep(40 * time.Millisecond)
	_, err := st.Get(s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestConcurrentUpdates(t *testing.T) {
	st := NewStore(newTestEngine(t), Options{})
	s := st.Create(context.Background())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = st.Update(context.Background(), s.ID, Update{Compare: ptr(i%2 == 0), Segment: ptr("Group 2")})
		}(i)
	}
	wg.Wait()
	assert.Equal(t, "Group 2", s.Selection().Segment)
}

func TestDashboard(t *testing.T) {
	st := NewStore(newTestEngine(t), Options{})
	ctx := context.Background()
	s := st.Create(ctx)

	dash, err := st.Dashboard(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, dash.Selection.SessionID)
	assert.Nil(t, dash.User)
	require.Len(t, dash.HealthOptions, 1)
	assert.Len(t, dash.Cohort, len(analytics.Metrics))
	require.Len(t, dash.Cohort[analytics.MetricSpending], 1)
	assert.Equal(t, analytics.SeriesPopulation, dash.Cohort[analytics.MetricSpending][0].Name)
	assert.False(t, dash.CategoriesEmpty)
	assert.Len(t, dash.Categories, 3)
	assert.Equal(t, 4, dash.Population.Users)

	_, err = st.Update(ctx, s.ID, Update{UserID: ptr(1), Segment: ptr("Group 2"), Health: ptr("high"), Compare: ptr(true)})
	require.NoError(t, err)
	dash, err = st.Dashboard(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, dash.User)
	assert.Equal(t, 1, dash.User.UserID)
	assert.Len(t, dash.HealthOptions, 3)
	assert.Len(t, dash.Cohort[analytics.MetricSpending], 4)
	assert.Equal(t, 2, dash.Population.Users)
}

func TestDashboardEmptyCategories(t *testing.T) {
	st := NewStore(newTestEngine(t), Options{})
	ctx := context.Background()
	s := st.Create(ctx)
	_, err := st.Update(ctx, s.ID, Update{Start: ptr("2021-01-01")})
	require.NoError(t, err)

	dash, err := st.Dashboard(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, dash.CategoriesEmpty)
	assert.NotNil(t, dash.Categories)
	assert.Empty(t, dash.Categories)
}
