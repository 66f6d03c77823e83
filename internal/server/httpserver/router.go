package httpserver

import (
	"net/http"
	"net/netip"

	"go.opentelemetry.io/otel/trace"

	"github.com/yndnr/toptube-go/internal/server/httpserver/handler"
	"github.com/yndnr/toptube-go/internal/telemetry/logger"
	"github.com/yndnr/toptube-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Handler serves the API routes.
	Handler *handler.Handler

	// Logger is attached to every request context.
	Logger logger.Logger

	// Metrics enables request metrics and /metrics when set.
	Metrics *metric.Registry

	// Tracer enables the tracing middleware when set.
	Tracer trace.Tracer

	// CORSAllowedOrigins is the list of allowed CORS origins (empty = allow all).
	CORSAllowedOrigins []string

	// RateLimit is the per-IP limit in requests/second (0 = unlimited).
	RateLimit float64
	RateBurst int

	// TrustedProxies are the peers whose forwarding headers name the
	// client. Empty means the peer address is the client.
	TrustedProxies []netip.Prefix

	// EnableAudit enables one log line per request.
	EnableAudit bool
}

// NewRouter creates the HTTP router with all routes and middleware.
//
// Order: Recover -> RequestID -> RealIP -> CORS -> RateLimit -> Metrics -> Tracing -> Audit -> mux
func NewRouter(cfg RouterConfig) http.Handler {
	h := cfg.Handler
	mux := http.NewServeMux()

	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, withRoute(pattern, fn))
	}

	handle("GET /health", h.Health)
	handle("GET /ready", h.Ready)
	handle("GET /api/health", h.APIHealth)

	handle("GET /api/regions", h.Regions)
	handle("GET /api/snapshots/latest", h.LatestSnapshot)
	handle("GET /api/snapshots/{region}/{date}", h.SnapshotByDate)
	handle("GET /api/snapshots", h.History)

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", withRoute("GET /metrics", cfg.Metrics.Handler()))
	}

	// Everything else, including wrong methods on known paths.
	mux.HandleFunc("/", h.NotFound)

	middlewares := []Middleware{
		Recover(),
		RequestID(cfg.Logger),
		RealIP(cfg.TrustedProxies),
		CORS(cfg.CORSAllowedOrigins),
		RateLimit(RateLimitConfig{Rate: cfg.RateLimit, Burst: cfg.RateBurst, Metrics: cfg.Metrics}),
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, Metrics(cfg.Metrics))
	}
	if cfg.Tracer != nil {
		middlewares = append(middlewares, Tracing(cfg.Tracer))
	}
	if cfg.EnableAudit {
		middlewares = append(middlewares, Audit())
	}

	return Chain(mux, middlewares...)
}
