package http

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mibolsillo/internal/core"
)

func TestParseCohort(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    core.Cohort
		wantErr bool
	}{
		{"empty", "", core.Cohort{Health: core.HealthAll}, false},
		{"segment only", "segment=Group+1", core.Cohort{Segment: "Group 1", Health: core.HealthAll}, false},
		{"segment and tier", "segment=Group+1&health=HIGH", core.Cohort{Segment: "Group 1", Health: core.HealthHigh}, false},
		{"explicit all", "health=All", core.Cohort{Health: core.HealthAll}, false},
		{"tier without segment", "health=low", core.Cohort{}, true},
		{"unknown tier", "segment=Group+1&health=great", core.Cohort{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			got, err := ParseCohort(q)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrInvalidFilter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange(url.Values{"start": {"2019-10-01"}})
	require.NoError(t, err)
	assert.Equal(t, "2019-10-01", r.Start.String())
	assert.True(t, r.End.IsZero())

	_, err = ParseDateRange(url.Values{"end": {"31/10/2019"}})
	assert.ErrorIs(t, err, core.ErrInvalidFilter)

	_, err = ParseDateRange(url.Values{"start": {"2019-11-01"}, "end": {"2019-10-01"}})
	assert.ErrorIs(t, err, core.ErrInvalidFilter)
}

func TestParseBool(t *testing.T) {
	b, err := ParseBool(url.Values{}, "cross")
	require.NoError(t, err)
	assert.False(t, b)

	b, err = ParseBool(url.Values{"cross": {"1"}}, "cross")
	require.NoError(t, err)
	assert.True(t, b)

	_, err = ParseBool(url.Values{"cross": {"yes please"}}, "cross")
	assert.ErrorIs(t, err, core.ErrInvalidFilter)
}

func TestParseUserID(t *testing.T) {
	id, err := ParseUserID(" 17 ")
	require.NoError(t, err)
	assert.Equal(t, 17, id)

	_, err = ParseUserID("x")
	assert.ErrorIs(t, err, core.ErrInvalidFilter)
}

func TestDecodeJSON(t *testing.T) {
	var v struct{ Segment *string }

	req := httptest.NewRequest("PATCH", "/", strings.NewReader(""))
	require.NoError(t, DecodeJSON(req, &v))
	assert.Nil(t, v.Segment)

	req = httptest.NewRequest("PATCH", "/", strings.NewReader(`{"Segment":"Group 1"}`))
	require.NoError(t, DecodeJSON(req, &v))
	assert.Equal(t, "Group 1", *v.Segment)

	req = httptest.NewRequest("PATCH", "/", strings.NewReader(`{"Segment":`))
	assert.ErrorIs(t, DecodeJSON(req, &v), core.ErrInvalidFilter)
}
