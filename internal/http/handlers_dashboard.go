package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"mibolsillo/internal/analytics"
	"mibolsillo/internal/core"
	applog "mibolsillo/internal/log"
)

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"users": s.engine.Users()})
}

func (s *Server) handleSegments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"segments": s.engine.Segments()})
}

func (s *Server) handleSegmentOverview(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.engine.SegmentOverview())
}

func (s *Server) handleDateBounds(w http.ResponseWriter, r *http.Request) {
	bounds, err := s.engine.DateBounds()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, map[string]core.Date{"start": bounds.Start, "end": bounds.End})
}

func (s *Server) handleUserTimeSeries(w http.ResponseWriter, r *http.Request) {
	id, err := ParseUserID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	ts, err := s.engine.UserTimeSeries(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, ts)
}

func (s *Server) handleCohortSeries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	metric, err := analytics.ParseMetric(q.Get("metric"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	cohort, err := ParseCohort(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cross, err := ParseBool(q, "cross")
	if err != nil {
		writeError(w, r, err)
		return
	}

	series, err := s.engine.CohortSeries(metric, cohort, cross)
	if err != nil {
		writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Cohort series computed",
		applog.FieldMetric, metric,
		applog.FieldSegment, cohort.Segment,
		applog.FieldHealth, cohort.Health,
		"series", len(series))
	writeJSON(w, map[string]any{"metric": metric, "series": series})
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dates, err := ParseDateRange(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cohort, err := ParseCohort(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shares, err := s.engine.CategoryBreakdown(dates, cohort)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"categories": shares})
}

func (s *Server) handleHealthOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := s.engine.HealthOptions(r.URL.Query().Get("segment"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"options": opts})
}

func (s *Server) handlePopulation(w http.ResponseWriter, r *http.Request) {
	cohort, err := ParseCohort(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	counts, err := s.engine.PopulationCounts(cohort)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, counts)
}
