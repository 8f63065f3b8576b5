// Package session keeps the per-client filter selections of the dashboard
// and recomputes the views for them.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"mibolsillo/internal/analytics"
	"mibolsillo/internal/cache"
	applog "mibolsillo/internal/log"
)

var ErrSessionNotFound = errors.New("session not found")

const (
	DefaultTTL     = 30 * time.Minute
	DefaultMaxSize = 1000
)

// Session holds one selection. The mutex serialises changes coming from
// concurrent requests of the same client.
type Session struct {
	ID string

	mu  sync.Mutex
	sel Selection
}

func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

type Options struct {
	// TTL is the idle time after which a session expires. Every access
	// extends it.
	TTL       time.Duration
	MaxSize   int
	Publisher Publisher
	Logger    *applog.Logger
	// Manager, when set, evicts expired sessions periodically.
	Manager *cache.Manager
}

type Store struct {
	engine    *analytics.Engine
	sessions  *cache.LRUCache[*Session]
	publisher Publisher
	logger    *applog.Logger
}

func NewStore(engine *analytics.Engine, opts Options) *Store {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.Publisher == nil {
		opts.Publisher = NopPublisher{}
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	sessions := cache.NewSlidingLRUCache[*Session](opts.MaxSize, opts.TTL)
	if opts.Manager != nil {
		opts.Manager.Register(sessions)
	}
	return &Store{
		engine:    engine,
		sessions:  sessions,
		publisher: opts.Publisher,
		logger:    opts.Logger.WithComponent(applog.ComponentSession),
	}
}

func (st *Store) Engine() *analytics.Engine { return st.engine }

// Len returns the number of live sessions.
func (st *Store) Len() int { return st.sessions.Size() }

// Create starts a session with the default selection.
func (st *Store) Create(ctx context.Context) *Session {
	s := &Session{ID: uuid.NewString(), sel: DefaultSelection()}
	st.sessions.Set(s.ID, s)
	st.logger.DebugContext(ctx, "Session created", applog.FieldSessionID, s.ID)
	return s
}

func (st *Store) Get(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	s, ok := st.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

func (st *Store) Delete(id string) error {
	if _, err := st.Get(id); err != nil {
		return err
	}
	st.sessions.Delete(id)
	return nil
}

// Update applies a partial change to the session's selection and publishes
// the result. A rejected change leaves the selection as it was.
func (st *Store) Update(ctx context.Context, id string, u Update) (Selection, error) {
	return st.mutate(ctx, id, func(sel *Selection) error {
		return sel.Apply(st.engine, u)
	})
}

// ResetDates restores the dataset date bounds on the session.
func (st *Store) ResetDates(ctx context.Context, id string) (Selection, error) {
	return st.mutate(ctx, id, func(sel *Selection) error {
		return sel.ResetDateRange(st.engine)
	})
}

func (st *Store) mutate(ctx context.Context, id string, fn func(*Selection) error) (Selection, error) {
	s, err := st.Get(id)
	if err != nil {
		return Selection{}, err
	}

	s.mu.Lock()
	next := s.sel
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return Selection{}, err
	}
	s.sel = next
	s.mu.Unlock()

	st.publish(ctx, id, next)
	return next, nil
}

// publish never fails the request; the event stream is best effort.
func (st *Store) publish(ctx context.Context, id string, sel Selection) {
	applog.NewStructuredLogger(st.logger).LogSelectionChanged(ctx, id, sel.UserID, sel.Segment, string(sel.Health))
	if err := st.publisher.PublishSelectionChanged(ctx, selectionMessage(id, sel)); err != nil {
		st.logger.WarnContext(ctx, "Failed to publish selection change",
			applog.FieldSessionID, id,
			applog.FieldOperation, applog.OpPublish,
			applog.FieldErrorType, applog.ErrorTypeNetwork,
			applog.FieldError, err)
	}
}
