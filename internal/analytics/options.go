package analytics

import (
	"fmt"

	"github.com/samber/lo"

	"mibolsillo/internal/core"
)

// HealthOptions lists the health tiers selectable within a segment, in the
// order they first appear in the user summary, followed by All. A segment
// with a single tier only offers All; so does an empty segment.
func (e *Engine) HealthOptions(segment string) ([]core.HealthOption, error) {
	all := core.HealthOption{Value: core.HealthAll, Label: core.HealthAll.Label()}
	if segment == "" {
		return []core.HealthOption{all}, nil
	}
	if !e.ds.HasSegment(segment) {
		return nil, fmt.Errorf("%w: unknown segment %q", core.ErrInvalidFilter, segment)
	}

	inSegment := lo.Filter(e.ds.Users(), func(u core.UserSummary, _ int) bool { return u.Segment == segment })
	tiers := lo.Uniq(lo.Map(inSegment, func(u core.UserSummary, _ int) core.HealthTier { return u.Health }))
	if len(tiers) <= 1 {
		return []core.HealthOption{all}, nil
	}

	out := make([]core.HealthOption, 0, len(tiers)+1)
	for _, t := range tiers {
		out = append(out, core.HealthOption{Value: t, Label: t.Label()})
	}
	return append(out, all), nil
}

// ValidateHealth reports whether health is one of HealthOptions(segment).
func (e *Engine) ValidateHealth(segment string, health core.HealthTier) error {
	opts, err := e.HealthOptions(segment)
	if err != nil {
		return err
	}
	if health == "" {
		health = core.HealthAll
	}
	if !lo.ContainsBy(opts, func(o core.HealthOption) bool { return o.Value == health }) {
		return fmt.Errorf("%w: health %q is not offered for segment %q", core.ErrInvalidFilter, health, segment)
	}
	return nil
}
