package session

import (
	"fmt"
	"strings"

	"mibolsillo/internal/analytics"
	"mibolsillo/internal/core"
)

// Selection is the filter state of one dashboard session.
type Selection struct {
	UserID    *int            `json:"user_id"`
	Segment   string          `json:"segment"`
	Health    core.HealthTier `json:"health"`
	DateRange core.DateRange  `json:"-"`
	Compare   bool            `json:"compare"`
}

// DefaultSelection selects no user and no segment over an unbounded range.
func DefaultSelection() Selection {
	return Selection{Health: core.HealthAll}
}

// Cohort returns the segment and tier part of the selection.
func (s Selection) Cohort() core.Cohort {
	return core.Cohort{Segment: s.Segment, Health: s.Health}
}

// SelectUser selects a user, or clears the selection when id is nil.
func (s *Selection) SelectUser(e *analytics.Engine, id *int) error {
	if id == nil {
		s.UserID = nil
		return nil
	}
	if _, ok := e.Dataset().User(*id); !ok {
		return fmt.Errorf("%w: %d", core.ErrUnknownUser, *id)
	}
	v := *id
	s.UserID = &v
	return nil
}

// SelectSegment changes the segment and resets the tier to All, even when
// the segment is unchanged. Empty clears the segment.
func (s *Selection) SelectSegment(e *analytics.Engine, segment string) error {
	segment = strings.TrimSpace(segment)
	if segment != "" && !e.Dataset().HasSegment(segment) {
		return fmt.Errorf("%w: unknown segment %q", core.ErrInvalidFilter, segment)
	}
	s.Segment = segment
	s.Health = core.HealthAll
	return nil
}

// SelectHealth accepts one of the tiers offered for the current segment.
func (s *Selection) SelectHealth(e *analytics.Engine, health string) error {
	h, err := core.ParseHealthFilter(health)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidFilter, err)
	}
	if err := e.ValidateHealth(s.Segment, h); err != nil {
		return err
	}
	s.Health = h
	return nil
}

func (s *Selection) SetDateRange(r core.DateRange) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.DateRange = r
	return nil
}

// ResetDateRange restores the first and last transaction dates.
func (s *Selection) ResetDateRange(e *analytics.Engine) error {
	r, err := e.DateBounds()
	if err != nil {
		return err
	}
	s.DateRange = r
	return nil
}

// Update is a partial selection change. Nil fields are left alone. Fields
// apply in order user, segment, health, dates, compare, so a request that
// sets both segment and health lands on the requested tier.
type Update struct {
	UserID    *int    `json:"user_id"`
	ClearUser bool    `json:"clear_user"`
	Segment   *string `json:"segment"`
	Health    *string `json:"health"`
	Start     *string `json:"start"`
	End       *string `json:"end"`
	Compare   *bool   `json:"compare"`
}

// Apply validates and applies u. On error s is left unchanged.
func (s *Selection) Apply(e *analytics.Engine, u Update) error {
	next := *s
	switch {
	case u.ClearUser:
		next.UserID = nil
	case u.UserID != nil:
		if err := next.SelectUser(e, u.UserID); err != nil {
			return err
		}
	}
	if u.Segment != nil {
		if err := next.SelectSegment(e, *u.Segment); err != nil {
			return err
		}
	}
	if u.Health != nil {
		if err := next.SelectHealth(e, *u.Health); err != nil {
			return err
		}
	}
	if u.Start != nil || u.End != nil {
		r := next.DateRange
		if u.Start != nil {
			d, err := parseBound(*u.Start)
			if err != nil {
				return err
			}
			r.Start = d
		}
		if u.End != nil {
			d, err := parseBound(*u.End)
			if err != nil {
				return err
			}
			r.End = d
		}
		if err := next.SetDateRange(r); err != nil {
			return err
		}
	}
	if u.Compare != nil {
		next.Compare = *u.Compare
	}
	*s = next
	return nil
}

func parseBound(s string) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: %v", core.ErrInvalidFilter, err)
	}
	return d, nil
}

// View is the JSON form of a selection.
type View struct {
	SessionID string          `json:"session_id"`
	UserID    *int            `json:"user_id"`
	Segment   string          `json:"segment"`
	Health    core.HealthTier `json:"health"`
	Start     core.Date       `json:"start"`
	End       core.Date       `json:"end"`
	Compare   bool            `json:"compare"`
}

func (s Selection) View(sessionID string) View {
	return View{
		SessionID: sessionID,
		UserID:    s.UserID,
		Segment:   s.Segment,
		Health:    s.Health,
		Start:     s.DateRange.Start,
		End:       s.DateRange.End,
		Compare:   s.Compare,
	}
}
