package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mibolsillo/internal/core"
)

func values(opts []core.HealthOption) []core.HealthTier {
	out := make([]core.HealthTier, len(opts))
	for i, o := range opts {
		out[i] = o.Value
	}
	return out
}

func TestHealthOptions(t *testing.T) {
	e := newEngine(t, Options{})

	// Group 2 is {high, high, medium}.
	opts, err := e.HealthOptions("Group 2")
	require.NoError(t, err)
	assert.Equal(t, []core.HealthOption{
		{Value: core.HealthHigh, Label: "High Financial Health"},
		{Value: core.HealthMedium, Label: "Medium Financial Health"},
		{Value: core.HealthAll, Label: "All Users"},
	}, opts)

	// Group 3 is all low.
	opts, err = e.HealthOptions("Group 3")
	require.NoError(t, err)
	assert.Equal(t, []core.HealthTier{core.HealthAll}, values(opts))

	opts, err = e.HealthOptions("")
	require.NoError(t, err)
	assert.Equal(t, []core.HealthTier{core.HealthAll}, values(opts))

	_, err = e.HealthOptions("Group 42")
	assert.ErrorIs(t, err, core.ErrInvalidFilter)
}

func TestHealthOptionsNoDuplicates(t *testing.T) {
	e := newEngine(t, Options{})
	for _, segment := range e.Segments() {
		opts, err := e.HealthOptions(segment)
		require.NoError(t, err)
		seen := map[core.HealthTier]bool{}
		for _, o := range opts {
			assert.False(t, seen[o.Value], "duplicate option %s in %s", o.Value, segment)
			seen[o.Value] = true
		}
		assert.Equal(t, core.HealthAll, opts[len(opts)-1].Value)
	}
}

func TestValidateHealth(t *testing.T) {
	e := newEngine(t, Options{})
	assert.NoError(t, e.ValidateHealth("Group 2", core.HealthMedium))
	assert.NoError(t, e.ValidateHealth("Group 3", ""))
	assert.ErrorIs(t, e.ValidateHealth("Group 3", core.HealthLow), core.ErrInvalidFilter)
	assert.ErrorIs(t, e.ValidateHealth("", core.HealthHigh), core.ErrInvalidFilter)
}
