// Package http provides HTTP server and handler implementations.
//
// This file implements the parsing of query parameters and JSON bodies into
// engine arguments. Every parse failure is an invalid filter.

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"mibolsillo/internal/core"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 16

// ParseCohort reads the segment and health query parameters.
func ParseCohort(q url.Values) (core.Cohort, error) {
	health, err := core.ParseHealthFilter(q.Get("health"))
	if err != nil {
		return core.Cohort{}, fmt.Errorf("%w: %v", core.ErrInvalidFilter, err)
	}
	c := core.Cohort{Segment: strings.TrimSpace(q.Get("segment")), Health: health}
	if err := c.Validate(); err != nil {
		return core.Cohort{}, err
	}
	return c, nil
}

// ParseDateRange reads the start and end query parameters. A missing bound
// is unbounded.
func ParseDateRange(q url.Values) (core.DateRange, error) {
	var r core.DateRange
	for _, p := range []struct {
		key string
		dst *core.Date
	}{{"start", &r.Start}, {"end", &r.End}} {
		v := strings.TrimSpace(q.Get(p.key))
		if v == "" {
			continue
		}
		d, err := core.ParseDate(v)
		if err != nil {
			return core.DateRange{}, fmt.Errorf("%w: %s: %v", core.ErrInvalidFilter, p.key, err)
		}
		*p.dst = d
	}
	if err := r.Validate(); err != nil {
		return core.DateRange{}, err
	}
	return r, nil
}

// ParseBool reads a boolean query parameter. Missing means false.
func ParseBool(q url.Values, key string) (bool, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean, got %q", core.ErrInvalidFilter, key, v)
	}
	return b, nil
}

// ParseUserID parses a user id path segment.
func ParseUserID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: user id must be an integer, got %q", core.ErrInvalidFilter, s)
	}
	return id, nil
}

// DecodeJSON decodes a bounded JSON body into v. Unknown fields are
// rejected. An empty body leaves v unchanged.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("%w: malformed body: %v", core.ErrInvalidFilter, err)
	}
	return nil
}
