package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	OK(map[string]string{"status": "ok"}).Write(w)
}

// handleReady checks the database with a short timeout.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.repo.Ping(ctx); err != nil {
		s.logger.WarnContext(r.Context(), "Readiness check failed", "error", err)
		NewJSONResponse().
			Status(http.StatusServiceUnavailable).
			Body(map[string]string{"status": "unavailable", "database": err.Error()}).
			Write(w)
		return
	}
	OK(map[string]string{"status": "ready"}).Write(w)
}

// handleMetrics writes counters in the Prometheus text exposition format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder

	tm := s.tracer.GetMetrics()
	writeMetric(&b, "spendwise_http_requests_total", "counter", "HTTP requests served.", tm.TotalRequests)
	writeMetric(&b, "spendwise_http_server_errors_total", "counter", "HTTP responses with status 5xx.", tm.ServerErrors)
	writeMetric(&b, "spendwise_http_response_time_avg_microseconds", "gauge", "Average response time.", tm.AverageResponseTime)

	rm := s.limiter.GetMetrics()
	writeMetric(&b, "spendwise_ratelimit_rejections_total", "counter", "Requests rejected by the rate limiter.", rm.TotalHits)
	writeMetric(&b, "spendwise_ratelimit_clients", "gauge", "Clients tracked by the rate limiter.", rm.ClientCount)

	dm := s.detector.GetMetrics()
	writeMetric(&b, "spendwise_security_suspicious_requests_total", "counter", "Requests flagged as suspicious.", dm.SuspiciousRequests)
	writeMetric(&b, "spendwise_security_invalid_ip_total", "counter", "Requests with an unparsable client IP.", dm.InvalidIPAttempts)

	cs := s.summaries.Stats()
	writeMetric(&b, "spendwise_summary_cache_hits_total", "counter", "Expense summary cache hits.", cs.Hits)
	writeMetric(&b, "spendwise_summary_cache_misses_total", "counter", "Expense summary cache misses.", cs.Misses)
	writeMetric(&b, "spendwise_summary_cache_entries", "gauge", "Expense summaries cached.", int64(cs.Size))

	if sched := s.budgetScheduler(); sched != nil {
		st := sched.Stats()
		writeMetric(&b, "spendwise_scheduler_runs_total", "counter", "Weekly task runs.", st.Runs)
		writeMetric(&b, "spendwise_scheduler_failed_runs_total", "counter", "Weekly task runs with errors.", st.FailedRuns)
		writeMetric(&b, "spendwise_scheduler_alerts_created_total", "counter", "Budget alerts created.", st.AlertsCreated)
		writeMetric(&b, "spendwise_scheduler_digests_created_total", "counter", "Weekly digests created.", st.DigestsCreated)
		var last int64
		if !st.LastRun.IsZero() {
			last = st.LastRun.Unix()
		}
		writeMetric(&b, "spendwise_scheduler_last_run_timestamp_seconds", "gauge", "Start of the last weekly run.", last)
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, b.String())
}

func writeMetric(b *strings.Builder, name, kind, help string, value int64) {
	fmt.Fprintf(b, "# HELP %s %s\n# TYPE %s %s\n%s %d\n", name, help, name, kind, name, value)
}
