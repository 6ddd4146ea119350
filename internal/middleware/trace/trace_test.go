package trace

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	m := NewMiddleware(func(*http.Request) string { return "10.0.0.1" })

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/total_items", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("request id %q is not a uuid: %v", seen, err)
	}
	if got := rec.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("response header %q, context %q", got, seen)
	}

	metrics := m.GetMetrics()
	if metrics.TotalRequests != 1 || metrics.ClientErrors != 1 || metrics.InFlight != 0 {
		t.Errorf("unexpected metrics: %+v", metrics)
	}
}

func TestMiddlewareInboundRequestID(t *testing.T) {
	valid := uuid.NewString()
	tests := []struct {
		name    string
		inbound string
		keep    bool
	}{
		{"valid uuid kept", valid, true},
		{"garbage replaced", "<script>", false},
		{"empty generated", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMiddleware(nil)
			h := m.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.inbound != "" {
				req.Header.Set(RequestIDHeader, tt.inbound)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get(RequestIDHeader)
			if tt.keep && got != tt.inbound {
				t.Errorf("expected inbound id to be kept, got %q", got)
			}
			if !tt.keep && (got == tt.inbound || got == "") {
				t.Errorf("expected a fresh id, got %q", got)
			}
		})
	}
}

func TestGetMetricsCountsServerErrors(t *testing.T) {
	m := NewMiddleware(nil)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	for i := 0; i < 3; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	if got := m.GetMetrics(); got.ServerErrors != 3 || got.TotalRequests != 3 {
		t.Errorf("unexpected metrics: %+v", got)
	}
}
