package http

import (
	"fmt"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

// handleReady reports whether a dataset is loaded and sessions can be served.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.engine == nil {
		checks["dataset"] = "not_loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		ds := s.engine.Dataset()
		checks["dataset"] = map[string]any{
			"status":       "ok",
			"backend":      s.backend,
			"users":        len(ds.Users()),
			"transactions": len(ds.Transactions()),
			"payments":     len(ds.Payments()),
			"monthly":      len(ds.Monthly()),
		}
	}

	if s.sessions == nil {
		checks["sessions"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["sessions"] = map[string]any{"status": "ok", "active": s.sessions.Len()}
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	NewJSONResponse().Status(httpStatus).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides request and security counters in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	tm := s.tracer.GetMetrics()
	sessions := 0
	if s.sessions != nil {
		sessions = s.sessions.Len()
	}

	fmt.Fprintf(w, "# HELP mibolsillo_requests_total Total HTTP requests\n")
	fmt.Fprintf(w, "# TYPE mibolsillo_requests_total counter\n")
	fmt.Fprintf(w, "mibolsillo_requests_total %d\n", tm.TotalRequests)
	fmt.Fprintf(w, "# HELP mibolsillo_requests_in_flight HTTP requests being served\n")
	fmt.Fprintf(w, "# TYPE mibolsillo_requests_in_flight gauge\n")
	fmt.Fprintf(w, "mibolsillo_requests_in_flight %d\n", tm.InFlight)
	fmt.Fprintf(w, "# HELP mibolsillo_rate_limited_total Requests rejected by the rate limiter\n")
	fmt.Fprintf(w, "# TYPE mibolsillo_rate_limited_total counter\n")
	fmt.Fprintf(w, "mibolsillo_rate_limited_total %d\n", s.rateLimiter.Rejected())
	fmt.Fprintf(w, "# HELP mibolsillo_suspicious_requests_total Requests rejected as suspicious\n")
	fmt.Fprintf(w, "# TYPE mibolsillo_suspicious_requests_total counter\n")
	fmt.Fprintf(w, "mibolsillo_suspicious_requests_total %d\n", s.securityDetector.SuspiciousRequests())
	fmt.Fprintf(w, "# HELP mibolsillo_sessions_active Live dashboard sessions\n")
	fmt.Fprintf(w, "# TYPE mibolsillo_sessions_active gauge\n")
	fmt.Fprintf(w, "mibolsillo_sessions_active %d\n", sessions)
	fmt.Fprintf(w, "# HELP mibolsillo_uptime_seconds Time since the server started\n")
	fmt.Fprintf(w, "# TYPE mibolsillo_uptime_seconds gauge\n")
	fmt.Fprintf(w, "mibolsillo_uptime_seconds %.0f\n", time.Since(s.started).Seconds())
}
