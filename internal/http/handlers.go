package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"salesdash/internal/core"
	applog "salesdash/internal/log"
)

// handleTotalItems serves GET /api/total_items.
func (s *Server) handleTotalItems(w http.ResponseWriter, r *http.Request) {
	p := ParseTotalItemsParams(r.URL.Query())
	s.countQuery(applog.OpTotalItems)

	total, err := s.sales.TotalItems(r.Context(), p.StartDate, p.EndDate, p.Department)
	if err != nil {
		s.writeQueryError(w, r, applog.OpTotalItems, err, p.LogFields())
		return
	}
	OK(total).Write(w)
}

// handleNthMostItem serves GET /api/nth_most_total_item.
func (s *Server) handleNthMostItem(w http.ResponseWriter, r *http.Request) {
	p := ParseNthMostItemParams(r.URL.Query())
	s.countQuery(applog.OpNthMostItem)

	item, err := s.sales.NthMostItem(r.Context(), p.ItemBy, p.StartDate, p.EndDate, p.N)
	if err != nil {
		s.writeQueryError(w, r, applog.OpNthMostItem, err, p.LogFields())
		return
	}
	OK(item).Write(w)
}

// handleDepartmentPercentage serves GET /api/percentage_of_department_wise_sold_items.
func (s *Server) handleDepartmentPercentage(w http.ResponseWriter, r *http.Request) {
	p := ParseDateRangeParams(r.URL.Query())
	s.countQuery(applog.OpDeptPercentage)

	pct, err := s.sales.DepartmentPercentages(r.Context(), p.StartDate, p.EndDate)
	if err != nil {
		s.writeQueryError(w, r, applog.OpDeptPercentage, err, p.LogFields())
		return
	}
	OK(pct).Write(w)
}

// handleMonthlySales serves GET /api/monthly_sales.
func (s *Server) handleMonthlySales(w http.ResponseWriter, r *http.Request) {
	p := ParseMonthlySalesParams(r.URL.Query())
	s.countQuery(applog.OpMonthlySales)

	months, err := s.sales.MonthlySales(r.Context(), p.Product, p.Year)
	if err != nil {
		s.writeQueryError(w, r, applog.OpMonthlySales, err, p.LogFields())
		return
	}
	OK(months).Write(w)
}

// writeQueryError logs a failed query and answers 400 with the message for
// client faults, 500 with the generic message for everything else.
func (s *Server) writeQueryError(w http.ResponseWriter, r *http.Request, op string, err error, fields applog.LogFields) {
	kind := core.KindOf(err)
	s.appMetrics.queryFailures[kind].Add(1)

	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogQueryFailed(r.Context(), op, kind.String(), kind.ClientVisible(), err, fields)

	if !kind.ClientVisible() {
		InternalServerError().Write(w)
		return
	}
	message := core.MsgInternal
	if qe, ok := asQueryError(err); ok && qe.Message != "" {
		message = qe.Message
	}
	ErrorResponse(statusForKind(kind), message).Write(w)
}

func (s *Server) countQuery(op string) {
	if c, ok := s.appMetrics.queries[op]; ok {
		c.Add(1)
	}
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	TooManyRequestsError().Write(w)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	NotFoundError().Write(w)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	OK(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.readyTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.ready == nil {
		checks["source"] = "not_checked"
	} else if err := s.ready(ctx); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
		checks["source"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["source"] = "ok"
	}

	if s.datasetInfo != nil {
		if info, err := s.datasetInfo(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Dataset description failed", applog.FieldError, err)
			checks["dataset"] = fmt.Sprintf("failed: %v", err)
		} else {
			checks["dataset"] = info
		}
	}

	if s.cache != nil {
		stats, loads := s.cache.Stats()
		checks["cache"] = map[string]any{
			"entries": stats.Entries,
			"hits":    stats.Hits,
			"misses":  stats.Misses,
			"loads":   loads,
			"status":  "ok",
		}
	} else {
		checks["cache"] = "disabled"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	NewJSONResponse().
		Status(httpStatus).
		Body(map[string]any{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"checks":    checks,
		}).
		Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()
	uptime := time.Since(s.appMetrics.uptime)

	w.WriteHeader(http.StatusOK)

	// Prometheus-like text format
	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_requests_in_flight HTTP requests being served\n")
	fmt.Fprintf(w, "# TYPE http_requests_in_flight gauge\n")
	fmt.Fprintf(w, "http_requests_in_flight %d\n\n", traceMetrics.InFlight)

	fmt.Fprintf(w, "# HELP http_responses_errors_total HTTP responses by error class\n")
	fmt.Fprintf(w, "# TYPE http_responses_errors_total counter\n")
	fmt.Fprintf(w, "http_responses_errors_total{class=\"4xx\"} %d\n", traceMetrics.ClientErrors)
	fmt.Fprintf(w, "http_responses_errors_total{class=\"5xx\"} %d\n\n", traceMetrics.ServerErrors)

	fmt.Fprintf(w, "# HELP http_request_duration_avg_microseconds Average request duration\n")
	fmt.Fprintf(w, "# TYPE http_request_duration_avg_microseconds gauge\n")
	fmt.Fprintf(w, "http_request_duration_avg_microseconds %d\n\n", traceMetrics.AverageResponseTime)

	fmt.Fprintf(w, "# HELP sales_queries_total Sales queries received per endpoint\n")
	fmt.Fprintf(w, "# TYPE sales_queries_total counter\n")
	for _, op := range []string{applog.OpTotalItems, applog.OpNthMostItem, applog.OpDeptPercentage, applog.OpMonthlySales} {
		fmt.Fprintf(w, "sales_queries_total{query=%q} %d\n", op, s.appMetrics.queries[op].Load())
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "# HELP sales_query_failures_total Failed sales queries per error kind\n")
	fmt.Fprintf(w, "# TYPE sales_query_failures_total counter\n")
	for kind := core.KindInternal; kind <= core.KindSource; kind++ {
		fmt.Fprintf(w, "sales_query_failures_total{kind=%q} %d\n", kind.String(), s.appMetrics.queryFailures[kind].Load())
	}
	fmt.Fprintln(w)

	if s.cache != nil {
		stats, loads := s.cache.Stats()
		fmt.Fprintf(w, "# HELP dataset_cache_hits_total Total dataset cache hits\n")
		fmt.Fprintf(w, "# TYPE dataset_cache_hits_total counter\n")
		fmt.Fprintf(w, "dataset_cache_hits_total %d\n\n", stats.Hits)

		fmt.Fprintf(w, "# HELP dataset_cache_misses_total Total dataset cache misses\n")
		fmt.Fprintf(w, "# TYPE dataset_cache_misses_total counter\n")
		fmt.Fprintf(w, "dataset_cache_misses_total %d\n\n", stats.Misses)

		fmt.Fprintf(w, "# HELP dataset_cache_entries Current cached dataset snapshots\n")
		fmt.Fprintf(w, "# TYPE dataset_cache_entries gauge\n")
		fmt.Fprintf(w, "dataset_cache_entries %d\n\n", stats.Entries)

		fmt.Fprintf(w, "# HELP dataset_loads_total Dataset loads performed through the cache\n")
		fmt.Fprintf(w, "# TYPE dataset_loads_total counter\n")
		fmt.Fprintf(w, "dataset_loads_total %d\n\n", loads)
	}

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", uptime.Seconds())
}

// asQueryError is errors.As for *core.QueryError.
func asQueryError(err error) (*core.QueryError, bool) {
	var qe *core.QueryError
	ok := errors.As(err, &qe)
	return qe, ok
}
