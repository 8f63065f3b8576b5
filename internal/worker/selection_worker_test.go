package worker

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mibolsillo/internal/amqp"
	applog "mibolsillo/internal/log"
)

func newTestWorker() (*SelectionWorker, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Handler: slog.NewTextHandler(&buf, nil)})
	return NewSelectionWorker(logger), &buf
}

func TestHandleSelectionChanged(t *testing.T) {
	w, buf := newTestWorker()
	uid := 7

	require.NoError(t, w.HandleSelectionChanged(amqp.NewSelectionChangedMessage("s1", &uid, "Group 2", "high", "", "", true)))
	require.NoError(t, w.HandleSelectionChanged(amqp.NewSelectionChangedMessage("s1", nil, "Group 2", "All", "", "", false)))
	require.NoError(t, w.HandleSelectionChanged(amqp.NewSelectionChangedMessage("s2", nil, "", "All", "", "", false)))

	s := w.Summary()
	assert.EqualValues(t, 3, s.Handled)
	assert.Equal(t, 2, s.Sessions)
	assert.EqualValues(t, 1, s.Compare)
	assert.Equal(t, map[string]int64{"Group 2": 2, "population": 1}, s.BySegment)
	assert.EqualValues(t, 1, s.ByCohort["Group 2/high"])

	out := buf.String()
	assert.Contains(t, out, "session_id=s1")
	assert.Contains(t, out, "user_id=7")
	assert.Contains(t, out, "operation=consume")
}

func TestHandleSelectionChangedRejectsMissingSession(t *testing.T) {
	w, _ := newTestWorker()
	assert.ErrorIs(t, w.HandleSelectionChanged(&amqp.SelectionChangedMessage{Segment: "Group 1"}), amqp.ErrPermanent)
	assert.ErrorIs(t, w.HandleSelectionChanged(nil), amqp.ErrPermanent)
	assert.Zero(t, w.Summary().Handled)
}

func TestLogSummaryOrdersBusiestFirst(t *testing.T) {
	w, buf := newTestWorker()
	for _, seg := range []string{"Group 1", "Group 3", "Group 3"} {
		require.NoError(t, w.HandleSelectionChanged(amqp.NewSelectionChangedMessage("s", nil, seg, "All", "", "", false)))
	}
	buf.Reset()

	w.LogSummary(context.Background())
	out := buf.String()
	assert.Contains(t, out, "handled=3")
	assert.Less(t, strings.Index(out, "segment.Group 3"), strings.Index(out, "segment.Group 1"))
}

func TestSummaryIsACopy(t *testing.T) {
	w, _ := newTestWorker()
	require.NoError(t, w.HandleSelectionChanged(amqp.NewSelectionChangedMessage("s", nil, "Group 1", "All", "", "", false)))
	s := w.Summary()
	s.BySegment["Group 1"] = 100
	assert.EqualValues(t, 1, w.Summary().BySegment["Group 1"])
}
