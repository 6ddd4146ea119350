package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"salesdash/internal/cache"
	"salesdash/internal/core"
	applog "salesdash/internal/log"
	"salesdash/internal/middleware/ratelimit"
	"salesdash/internal/middleware/security"
	"salesdash/internal/middleware/trace"
)

// SalesQuerier answers the four sales questions. Failures are *core.QueryError.
type SalesQuerier interface {
	TotalItems(ctx context.Context, startDate, endDate, department string) (int64, error)
	NthMostItem(ctx context.Context, itemBy, startDate, endDate, n string) (string, error)
	DepartmentPercentages(ctx context.Context, startDate, endDate string) (map[string]float64, error)
	MonthlySales(ctx context.Context, product, year string) ([12]float64, error)
}

// CacheStatser exposes dataset cache counters for /readyz and /metrics.
type CacheStatser interface {
	Stats() (cache.Stats, int64)
}

// ReadyFunc reports whether the dataset source can be read.
type ReadyFunc func(ctx context.Context) error

// DatasetInfoFunc describes the dataset snapshot being served.
type DatasetInfoFunc func(ctx context.Context) (map[string]any, error)

// Config wires a Server.
type Config struct {
	Addr  string
	Sales SalesQuerier
	// Ready backs /readyz; nil reports ready.
	Ready ReadyFunc
	// DatasetInfo adds snapshot details to /readyz; optional.
	DatasetInfo DatasetInfoFunc
	// Cache is optional.
	Cache  CacheStatser
	Logger *applog.Logger

	RateLimitPerMinute int
	TrustedProxies     []string
	ReadyTimeout       time.Duration
}

type Server struct {
	http.Server
	sales        SalesQuerier
	ready        ReadyFunc
	datasetInfo  DatasetInfoFunc
	cache        CacheStatser
	logger       *applog.Logger
	readyTimeout time.Duration

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

// appMetrics holds query counters reported by /metrics.
type appMetrics struct {
	uptime        time.Time
	queries       map[string]*atomic.Int64
	queryFailures [core.KindSource + 1]atomic.Int64
}

func newAppMetrics() *appMetrics {
	m := &appMetrics{
		uptime:  time.Now(),
		queries: make(map[string]*atomic.Int64),
	}
	for _, op := range []string{applog.OpTotalItems, applog.OpNthMostItem, applog.OpDeptPercentage, applog.OpMonthlySales} {
		m.queries[op] = new(atomic.Int64)
	}
	return m
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Sales == nil {
		return nil, fmt.Errorf("sales querier is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	readyTimeout := cfg.ReadyTimeout
	if readyTimeout <= 0 {
		readyTimeout = 10 * time.Second
	}

	detector := security.NewDetector()
	for _, cidr := range cfg.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	s := &Server{
		sales:            cfg.Sales,
		ready:            cfg.Ready,
		datasetInfo:      cfg.DatasetInfo,
		cache:            cfg.Cache,
		logger:           logger,
		readyTimeout:     readyTimeout,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP),
		appMetrics:       newAppMetrics(),
	}

	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited)

	mux := http.NewServeMux()
	mux.Handle("GET /api/total_items", limited(http.HandlerFunc(s.handleTotalItems)))
	mux.Handle("GET /api/nth_most_total_item", limited(http.HandlerFunc(s.handleNthMostItem)))
	mux.Handle("GET /api/percentage_of_department_wise_sold_items", limited(http.HandlerFunc(s.handleDepartmentPercentage)))
	mux.Handle("GET /api/monthly_sales", limited(http.HandlerFunc(s.handleMonthlySales)))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /", s.handleNotFound)

	s.Addr = cfg.Addr
	s.Handler = s.middleware(mux)
	s.ReadHeaderTimeout = 10 * time.Second

	return s, nil
}

// middleware builds the chain applied to every request, outermost first:
// tracing, request scoped logger, security headers, suspicious request logging.
func (s *Server) middleware(next http.Handler) http.Handler {
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	h := s.securityDetector.Middleware(next)
	h = headers.Middleware(h)
	h = applog.ComponentMiddleware(applog.ComponentHTTP)(h)
	h = applog.RequestIDMiddleware(trace.RequestIDFromRequest)(h)
	h = applog.Middleware(s.logger)(h)
	return s.traceMiddleware.Middleware(h)
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
