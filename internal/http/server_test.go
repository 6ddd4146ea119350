package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"salesdash/internal/core"
	applog "salesdash/internal/log"
	"salesdash/internal/records/memory"
	"salesdash/internal/services"
)

type failingSource struct{}

func (failingSource) Load(context.Context) ([]core.Record, error) {
	return nil, errors.New("open /srv/data.csv: permission denied")
}

func rec(date, dept, software string, seats, cents int64, user string) core.Record {
	return core.Record{Date: date, Department: dept, Software: software, Seats: seats, Amount: core.Cents(cents), User: user}
}

func sampleRecords() []core.Record {
	return []core.Record{
		rec("2022-08-05", "Marketing", "Outplay", 3, 500, "alice"),
		rec("2022-08-20", "Marketing", "Zoom", 2, 700, "bob"),
		rec("2022-01-01", "Marketing", "Slack", 100, 200, "carol"),
		rec("2022-03-12", "Sales", "Outplay", 1, 1050, "dave"),
		rec("2022-11-30", "Support", "Jira", 4, 300, "erin"),
	}
}

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Level: 100, Output: io.Discard, Component: applog.ComponentApp})
}

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	if cfg.Sales == nil {
		cfg.Sales = services.NewSalesService(memory.New(sampleRecords()), services.SalesConfig{}, quietLogger())
	}
	if cfg.Logger == nil {
		cfg.Logger = quietLogger()
	}
	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestTotalItems(t *testing.T) {
	srv := newTestServer(t, Config{})

	rr := get(t, srv, "/api/total_items?start_date=2022-07-01&end_date=2022-09-30&department=Marketing")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if got := decode[int64](t, rr); got != 5 {
		t.Errorf("total = %d, want 5", got)
	}

	// The month part of the dates does not move the window.
	rr = get(t, srv, "/api/total_items?start_date=2022-01-01&end_date=2022-02-28&department=Marketing")
	if got := decode[int64](t, rr); got != 5 {
		t.Errorf("total = %d, want 5", got)
	}

	rr = get(t, srv, "/api/total_items?start_date=2022-07-01&end_date=2022-09-30")
	if got := decode[int64](t, rr); got != 0 {
		t.Errorf("total without department = %d, want 0", got)
	}
}

func TestNthMostTotalItem(t *testing.T) {
	srv := newTestServer(t, Config{})
	base := "/api/nth_most_total_item?start_date=2022-01-01&end_date=2022-12-31"

	tests := []struct {
		name    string
		query   string
		status  int
		want    string
		wantErr string
	}{
		{"top quantity", "&item_by=quantity&n=1", http.StatusOK, "Slack", ""},
		{"second quantity", "&item_by=quantity&n=2", http.StatusOK, "Jira", ""},
		{"top price", "&item_by=price&n=1", http.StatusOK, "dave", ""},
		{"last ranked", "&item_by=price&n=5", http.StatusOK, "carol", ""},
		{"past the end", "&item_by=price&n=6", http.StatusBadRequest, "", core.MsgRankOutOfRange},
		{"bad item_by", "&item_by=volume&n=1", http.StatusBadRequest, "", core.MsgInvalidItemBy},
		{"zero rank", "&item_by=quantity&n=0", http.StatusBadRequest, "", core.MsgInvalidRank},
		{"non numeric rank", "&item_by=quantity&n=two", http.StatusBadRequest, "", core.MsgInvalidRank},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(t, srv, base+tt.query)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d, body = %s", rr.Code, tt.status, rr.Body.String())
			}
			if tt.wantErr != "" {
				if got := decode[ErrorBody](t, rr).Error; got != tt.wantErr {
					t.Errorf("error = %q, want %q", got, tt.wantErr)
				}
				return
			}
			if got := decode[string](t, rr); got != tt.want {
				t.Errorf("item = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDepartmentPercentage(t *testing.T) {
	srv := newTestServer(t, Config{})

	rr := get(t, srv, "/api/percentage_of_department_wise_sold_items?start_date=2022-01-01&end_date=2022-12-31")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	got := decode[map[string]float64](t, rr)
	if len(got) != 3 {
		t.Fatalf("departments = %v", got)
	}
	var sum float64
	for _, v := range got {
		sum += v
	}
	if sum < 99.99 || sum > 100.01 {
		t.Errorf("percentages sum to %v", sum)
	}

	// Nothing sold in the window.
	rr = get(t, srv, "/api/percentage_of_department_wise_sold_items?start_date=2030-01-01&end_date=2030-12-31")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if got := decode[ErrorBody](t, rr).Error; got != core.MsgInternal {
		t.Errorf("error = %q", got)
	}
}

func TestMonthlySales(t *testing.T) {
	srv := newTestServer(t, Config{})

	rr := get(t, srv, "/api/monthly_sales?product=Outplay&year=2022")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	got := decode[[]float64](t, rr)
	if len(got) != 12 {
		t.Fatalf("months = %d, want 12", len(got))
	}
	if got[2] != 10.5 || got[7] != 5 {
		t.Errorf("monthly sales = %v", got)
	}

	rr = get(t, srv, "/api/monthly_sales?product=Outplay&year=twenty")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if got := decode[ErrorBody](t, rr).Error; got != core.MsgInvalidYear {
		t.Errorf("error = %q", got)
	}
}

func TestMalformedDates(t *testing.T) {
	srv := newTestServer(t, Config{})

	for _, target := range []string{
		"/api/total_items?start_date=2022&end_date=2022-09-30&department=Marketing",
		"/api/nth_most_total_item?item_by=price&n=1&start_date=2022-01-01",
		"/api/percentage_of_department_wise_sold_items?start_date=2022-13-01&end_date=2022-12-31",
	} {
		rr := get(t, srv, target)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rr.Code)
			continue
		}
		if got := decode[ErrorBody](t, rr).Error; got != core.MsgMalformedDate {
			t.Errorf("%s: error = %q", target, got)
		}
	}
}

func TestSourceFailureIsOpaque(t *testing.T) {
	sales := services.NewSalesService(failingSource{}, services.SalesConfig{}, quietLogger())
	srv := newTestServer(t, Config{Sales: sales})

	rr := get(t, srv, "/api/monthly_sales?product=Outplay&year=2022")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "permission denied") {
		t.Errorf("fault detail leaked: %s", rr.Body.String())
	}
	if got := decode[ErrorBody](t, rr).Error; got != core.MsgInternal {
		t.Errorf("error = %q", got)
	}
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, Config{})

	rr := get(t, srv, "/healthz")
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rr.Code)
	}
	if got := decode[map[string]any](t, rr)["status"]; got != "ok" {
		t.Errorf("healthz status field = %v", got)
	}

	rr = get(t, srv, "/readyz")
	if rr.Code != http.StatusOK {
		t.Fatalf("readyz status = %d", rr.Code)
	}

	down := newTestServer(t, Config{Ready: func(context.Context) error { return errors.New("no dataset") }})
	rr = get(t, down, "/readyz")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status = %d, want 503", rr.Code)
	}
	if got := decode[map[string]any](t, rr)["status"]; got != "not_ready" {
		t.Errorf("readyz status field = %v", got)
	}
}

func TestReadyReportsDataset(t *testing.T) {
	srv := newTestServer(t, Config{DatasetInfo: func(context.Context) (map[string]any, error) {
		return map[string]any{"import_id": int64(7), "source": "q3.csv"}, nil
	}})

	rr := get(t, srv, "/readyz")
	if rr.Code != http.StatusOK {
		t.Fatalf("readyz status = %d", rr.Code)
	}
	checks := decode[map[string]any](t, rr)["checks"].(map[string]any)
	dataset, ok := checks["dataset"].(map[string]any)
	if !ok || dataset["import_id"] != 7.0 || dataset["source"] != "q3.csv" {
		t.Fatalf("dataset check = %v", checks["dataset"])
	}

	failing := newTestServer(t, Config{DatasetInfo: func(context.Context) (map[string]any, error) {
		return nil, errors.New("locked")
	}})
	rr = get(t, failing, "/readyz")
	if rr.Code != http.StatusOK {
		t.Fatalf("dataset description failure must not fail readiness, got %d", rr.Code)
	}
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t, Config{})

	get(t, srv, "/api/nth_most_total_item?item_by=volume&n=1&start_date=2022-01-01&end_date=2022-12-31")
	get(t, srv, "/api/monthly_sales?product=Outplay&year=2022")

	rr := get(t, srv, "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		`sales_queries_total{query="nth_most_total_item"} 1`,
		`sales_queries_total{query="monthly_sales"} 1`,
		`sales_query_failures_total{kind="validation"} 1`,
		`sales_query_failures_total{kind="source"} 0`,
		"http_requests_total",
		"uptime_seconds",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, Config{RateLimitPerMinute: 1})
	target := "/api/monthly_sales?product=Outplay&year=2022"

	if rr := get(t, srv, target); rr.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rr.Code)
	}
	rr := get(t, srv, target)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}

	// Operational endpoints are not rate limited.
	if rr := get(t, srv, "/healthz"); rr.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rr.Code)
	}
}

func TestMiddlewareHeaders(t *testing.T) {
	srv := newTestServer(t, Config{})

	rr := get(t, srv, "/api/monthly_sales?product=Outplay&year=2022")
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}

	rr = get(t, srv, "/nope")
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want 404", rr.Code)
	}

	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/total_items", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rr.Code)
	}
}
