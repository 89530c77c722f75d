package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"easyfinance/internal/session"
)

// appMetrics counts application events reported by /metrics.
type appMetrics struct {
	uptime          time.Time
	logins          atomic.Int64
	loginFailures   atomic.Int64
	registrations   atomic.Int64
	mutations       atomic.Int64
	exports         atomic.Int64
	sessionsExpired atomic.Int64
	backendErrors   atomic.Int64
}

func newAppMetrics() *appMetrics {
	return &appMetrics{uptime: time.Now()}
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)
	fail := func(name string, err error) {
		checks[name] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	if len(s.pages) != len(pageNames) {
		fail("templates", fmt.Errorf("%d of %d pages loaded", len(s.pages), len(pageNames)))
	} else {
		checks["templates"] = "ok"
	}

	if err := s.sessions.Store().Ping(ctx); err != nil {
		fail("session_store", err)
	} else {
		entry := map[string]any{"status": "ok"}
		if m, ok := s.sessions.Store().(*session.Memory); ok {
			entry["entries"] = m.Len()
		}
		checks["session_store"] = entry
	}

	if err := s.backend.Ping(ctx); err != nil {
		fail("backend", err)
	} else {
		checks["backend"] = "ok"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	response := map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(response)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()
	m := s.appMetrics

	w.WriteHeader(http.StatusOK)

	counter := func(name, help string, value int64) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s counter\n", name)
		fmt.Fprintf(w, "%s %d\n\n", name, value)
	}
	gauge := func(name, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s gauge\n", name)
		fmt.Fprintf(w, "%s %v\n\n", name, value)
	}

	counter("http_requests_total", "Total number of HTTP requests", traceMetrics.TotalRequests)
	counter("http_client_errors_total", "Responses with a 4xx status", traceMetrics.ClientErrors)
	counter("http_server_errors_total", "Responses with a 5xx status", traceMetrics.ServerErrors)
	gauge("http_response_time_avg_ms", "Mean response time in milliseconds", traceMetrics.AverageResponseTime().Milliseconds())

	counter("logins_total", "Successful logins", m.logins.Load())
	counter("login_failures_total", "Rejected or failed logins", m.loginFailures.Load())
	counter("registrations_total", "Accounts registered", m.registrations.Load())
	counter("mutations_total", "Categories and transactions created, updated or deleted", m.mutations.Load())
	counter("exports_total", "Report files streamed", m.exports.Load())
	counter("sessions_expired_total", "Sessions ended after the backend rejected the token", m.sessionsExpired.Load())
	counter("backend_errors_total", "Failed backend calls", m.backendErrors.Load())

	counter("rate_limit_hits_total", "Total rate limit hits", rateLimitMetrics.TotalHits)
	gauge("active_rate_limit_clients", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	counter("suspicious_requests_total", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	counter("invalid_ip_attempts_total", "Forwarded headers carrying an invalid IP", securityMetrics.InvalidIPAttempts)

	gauge("uptime_seconds", "Application uptime in seconds", int64(time.Since(m.uptime).Seconds()))
}
