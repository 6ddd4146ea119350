package trace

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	applog "salesdash/internal/log"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"

	// RequestIDHeader carries the request id in and out of the service.
	RequestIDHeader = "X-Request-ID"

	maxInboundIDLen = 128
)

// Middleware handles request tracing and access logging
type Middleware struct {
	extractIP func(*http.Request) string
	metrics   *Metrics
}

// Metrics tracks request metrics
type Metrics struct {
	TotalRequests       int64
	InFlight            int64
	ClientErrors        int64
	ServerErrors        int64
	AverageResponseTime int64 // microseconds
	totalDurationMicros int64
}

// NewMiddleware creates a new trace middleware
func NewMiddleware(extractIP func(*http.Request) string) *Middleware {
	return &Middleware{
		extractIP: extractIP,
		metrics:   &Metrics{},
	}
}

// Middleware returns HTTP middleware for request tracing
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := inboundRequestID(r)
		if requestID == "" {
			requestID = GenerateRequestID()
		}
		w.Header().Set(RequestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		r = r.WithContext(ctx)

		fields := applog.NewFields().
			WithRequestID(requestID).
			WithClientIP(clientIP).
			WithComponent(applog.ComponentTrace)
		fields[applog.FieldMethod] = r.Method
		fields[applog.FieldPath] = r.URL.Path
		fields[applog.FieldQuery] = r.URL.RawQuery

		slog.DebugContext(ctx, "HTTP request started",
			append(fields.ToSlice(),
				applog.FieldUserAgent, r.Header.Get("User-Agent"),
				applog.FieldReferer, r.Header.Get("Referer"),
				"protocol", r.Proto)...)

		atomic.AddInt64(&m.metrics.TotalRequests, 1)
		atomic.AddInt64(&m.metrics.InFlight, 1)
		defer atomic.AddInt64(&m.metrics.InFlight, -1)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		atomic.AddInt64(&m.metrics.totalDurationMicros, duration.Microseconds())

		logLevel := slog.LevelInfo
		switch {
		case rw.statusCode >= 500:
			logLevel = slog.LevelError
			atomic.AddInt64(&m.metrics.ServerErrors, 1)
		case rw.statusCode >= 400:
			logLevel = slog.LevelWarn
			atomic.AddInt64(&m.metrics.ClientErrors, 1)
		}

		fields[applog.FieldStatusCode] = rw.statusCode
		fields[applog.FieldDuration] = duration.Milliseconds()
		fields[applog.FieldDurationHuman] = duration.String()
		fields[applog.FieldSuccess] = rw.statusCode < 400
		slog.Log(ctx, logLevel, "HTTP request completed", fields.ToSlice()...)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	return uuid.NewString()
}

// inboundRequestID accepts an upstream id only when it is a UUID.
func inboundRequestID(r *http.Request) string {
	id := r.Header.Get(RequestIDHeader)
	if id == "" || len(id) > maxInboundIDLen {
		return ""
	}
	if _, err := uuid.Parse(id); err != nil {
		return ""
	}
	return id
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// RequestIDFromRequest is GetRequestID for handlers that only hold the request.
func RequestIDFromRequest(r *http.Request) string {
	return GetRequestID(r.Context())
}

// GetMetrics returns current metrics
func (m *Middleware) GetMetrics() Metrics {
	total := atomic.LoadInt64(&m.metrics.TotalRequests)
	var avg int64
	if total > 0 {
		avg = atomic.LoadInt64(&m.metrics.totalDurationMicros) / total
	}
	return Metrics{
		TotalRequests:       total,
		InFlight:            atomic.LoadInt64(&m.metrics.InFlight),
		ClientErrors:        atomic.LoadInt64(&m.metrics.ClientErrors),
		ServerErrors:        atomic.LoadInt64(&m.metrics.ServerErrors),
		AverageResponseTime: avg,
	}
}
