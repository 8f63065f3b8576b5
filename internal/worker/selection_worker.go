// Package worker processes selection events consumed from AMQP.
package worker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"mibolsillo/internal/amqp"
	applog "mibolsillo/internal/log"
)

// SelectionWorker logs every selection change and keeps running tallies of
// the cohorts analysts look at.
type SelectionWorker struct {
	logger *applog.Logger

	mu        sync.Mutex
	handled   int64
	sessions  map[string]struct{}
	bySegment map[string]int64
	byCohort  map[string]int64
	compare   int64
}

// Summary is a snapshot of the tallies.
type Summary struct {
	Handled   int64
	Sessions  int
	Compare   int64
	BySegment map[string]int64
	// ByCohort is keyed "segment/health".
	ByCohort map[string]int64
}

func NewSelectionWorker(logger *applog.Logger) *SelectionWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &SelectionWorker{
		logger:    logger.WithComponent(applog.ComponentWorker),
		sessions:  make(map[string]struct{}),
		bySegment: make(map[string]int64),
		byCohort:  make(map[string]int64),
	}
}

// HandleSelectionChanged records one event. Messages without a session id
// fail permanently so the consumer drops them.
func (w *SelectionWorker) HandleSelectionChanged(msg *amqp.SelectionChangedMessage) error {
	if msg == nil || msg.SessionID == "" {
		return fmt.Errorf("%w: selection message without session id", amqp.ErrPermanent)
	}

	segment := msg.Segment
	if segment == "" {
		segment = "population"
	}

	w.mu.Lock()
	w.handled++
	w.sessions[msg.SessionID] = struct{}{}
	w.bySegment[segment]++
	w.byCohort[segment+"/"+msg.Health]++
	if msg.Compare {
		w.compare++
	}
	w.mu.Unlock()

	fields := applog.NewFields().
		WithSelection(msg.SessionID, msg.UserID, msg.Segment, msg.Health).
		WithOperation(applog.OpConsume)
	w.logger.Info("Selection changed", append(fields.ToSlice(),
		"start", msg.Start,
		"end", msg.End,
		"compare", msg.Compare,
		"lag", time.Since(msg.Timestamp).Round(time.Millisecond).String())...)
	return nil
}

func (w *SelectionWorker) Summary() Summary {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := Summary{
		Handled:   w.handled,
		Sessions:  len(w.sessions),
		Compare:   w.compare,
		BySegment: make(map[string]int64, len(w.bySegment)),
		ByCohort:  make(map[string]int64, len(w.byCohort)),
	}
	for k, v := range w.bySegment {
		s.BySegment[k] = v
	}
	for k, v := range w.byCohort {
		s.ByCohort[k] = v
	}
	return s
}

// LogSummary logs the tallies, busiest segment first.
func (w *SelectionWorker) LogSummary(ctx context.Context) {
	s := w.Summary()
	segments := make([]string, 0, len(s.BySegment))
	for seg := range s.BySegment {
		segments = append(segments, seg)
	}
	sort.Slice(segments, func(i, j int) bool {
		if s.BySegment[segments[i]] != s.BySegment[segments[j]] {
			return s.BySegment[segments[i]] > s.BySegment[segments[j]]
		}
		return segments[i] < segments[j]
	})
	args := []any{"handled", s.Handled, "sessions", s.Sessions, "compare", s.Compare}
	for _, seg := range segments {
		args = append(args, "segment."+seg, s.BySegment[seg])
	}
	w.logger.InfoContext(ctx, "Selection summary", args...)
}

// RunSummaries logs a summary every interval until ctx is done.
func (w *SelectionWorker) RunSummaries(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.LogSummary(context.Background())
			return
		case <-ticker.C:
			w.LogSummary(ctx)
		}
	}
}
