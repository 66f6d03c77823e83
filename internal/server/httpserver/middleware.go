package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/yndnr/toptube-go/internal/core/domain"
	"github.com/yndnr/toptube-go/internal/server/httpserver/handler"
	"github.com/yndnr/toptube-go/internal/telemetry/logger"
	"github.com/yndnr/toptube-go/internal/telemetry/metric"
	"github.com/yndnr/toptube-go/pkg/cmap"
)

// routeUnmatched labels requests no route pattern matched.
const routeUnmatched = "unmatched"

type contextKey string

const requestInfoKey contextKey = "request_info"

// requestInfo is shared by every layer of one request. The router fills
// Route once the mux has matched a pattern.
type requestInfo struct {
	ID       string
	Start    time.Time
	Route    string
	ClientIP string
}

func requestInfoFrom(ctx context.Context) *requestInfo {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		return info
	}
	return nil
}

// routeOf returns the matched route pattern, or routeUnmatched.
func routeOf(r *http.Request) string {
	if info := requestInfoFrom(r.Context()); info != nil && info.Route != "" {
		return info.Route
	}
	return routeUnmatched
}

// withRoute records the path template of pattern ("GET /a/{id}" -> "/a/{id}")
// as the route of every request h serves.
func withRoute(pattern string, h http.Handler) http.Handler {
	route := pattern
	if i := strings.IndexByte(pattern, ' '); i >= 0 {
		route = strings.TrimSpace(pattern[i+1:])
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if info := requestInfoFrom(r.Context()); info != nil {
			info.Route = route
		}
		h.ServeHTTP(w, r)
	})
}

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain chains multiple middlewares together. The first middleware is
// the outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestID assigns each request an ID, taken from X-Request-ID when the
// client sends one and a fresh ULID otherwise. The ID and base logger are
// stored in the request context.
func RequestID(base logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" || len(requestID) > 128 {
				requestID = ulid.Make().String()
			}

			w.Header().Set("X-Request-ID", requestID)

			ctx := r.Context()
			if base != nil {
				ctx = logger.WithLogger(ctx, base)
			}
			ctx = logger.WithRequestID(ctx, requestID)
			ctx = context.WithValue(ctx, requestInfoKey, &requestInfo{
				ID:    requestID,
				Start: time.Now(),
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RealIP resolves the client address once per request. X-Forwarded-For
// and X-Real-IP are honored only when the peer is in trusted; the
// forwarded chain is walked right to left and the first hop outside
// trusted is the client. Must run after RequestID.
func RealIP(trusted []netip.Prefix) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if info := requestInfoFrom(r.Context()); info != nil {
				info.ClientIP = resolveClientIP(r, trusted)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolveClientIP(r *http.Request, trusted []netip.Prefix) string {
	peer := remoteHost(r)
	if !isTrusted(peer, trusted) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if !isTrusted(hop, trusted) || i == 0 {
				return hop
			}
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}

func isTrusted(ip string, trusted []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Recover recovers from panics and returns a TT-SYS-5000 error.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.L(r.Context()).Error("panic recovered",
						"error", err,
						"path", r.URL.Path,
					)
					handler.WriteError(w, r, http.StatusInternalServerError,
						domain.ErrInternalServer.Code, domain.ErrInternalServer.Message,
						map[string]string{"reason": handler.ReasonInternal})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// CORS adds Cross-Origin Resource Sharing headers. An empty list or "*"
// allows every origin.
func CORS(allowedOrigins []string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := len(allowedOrigins) == 0
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					allowed = true
					break
				}
			}

			if origin != "" {
				w.Header().Add("Vary", "Origin")
			}
			if allowed && origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, If-None-Match, X-Request-ID")
				w.Header().Set("Access-Control-Expose-Headers", "ETag, X-Request-ID, X-Error-Code")
				w.Header().Set("Access-Control-Max-Age", "86400")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitConfig configures per-client rate limiting.
type RateLimitConfig struct {
	// Rate is the sustained requests per second per client IP.
	Rate float64
	// Burst is the bucket size. Values below 1 use ceil(Rate).
	Burst int
	// IdleTTL drops limiters of clients idle for longer. Zero means 10m.
	IdleTTL time.Duration
	// Metrics is optional.
	Metrics *metric.Registry
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// ipLimiter holds one token bucket per client IP.
type ipLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	visitors  *cmap.Map[string, *visitor]
	lastSweep atomic.Int64 // unix nanos
}

func newIPLimiter(cfg RateLimitConfig) *ipLimiter {
	burst := cfg.Burst
	if burst < 1 {
		burst = int(cfg.Rate)
		if float64(burst) < cfg.Rate {
			burst++
		}
		if burst < 1 {
			burst = 1
		}
	}
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	l := &ipLimiter{
		limit:    rate.Limit(cfg.Rate),
		burst:    burst,
		idleTTL:  ttl,
		visitors: cmap.New[string, *visitor](),
	}
	l.lastSweep.Store(time.Now().UnixNano())
	return l
}

func (l *ipLimiter) allow(ip string, now time.Time) bool {
	nowNanos := now.UnixNano()
	last := l.lastSweep.Load()
	if nowNanos-last > int64(l.idleTTL) && l.lastSweep.CompareAndSwap(last, nowNanos) {
		l.visitors.DeleteFunc(func(_ string, v *visitor) bool {
			return nowNanos-v.lastSeen.Load() > int64(l.idleTTL)
		})
	}

	v, _ := l.visitors.GetOrCreate(ip, func() *visitor {
		return &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
	})
	v.lastSeen.Store(nowNanos)
	return v.limiter.AllowN(now, 1)
}

func (l *ipLimiter) size() int {
	return l.visitors.Count()
}

// RateLimit applies per-IP token bucket rate limiting. A non-positive
// rate disables it.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Rate <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	limiter := newIPLimiter(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.allow(getClientIP(r), time.Now()) {
				if cfg.Metrics != nil {
					cfg.Metrics.RateLimited.Inc()
				}
				w.Header().Set("Retry-After", "1")
				handler.WriteError(w, r, http.StatusTooManyRequests,
					domain.ErrRateLimited.Code, domain.ErrRateLimited.Message,
					map[string]string{"reason": handler.ReasonRateLimited})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Metrics records request count, latency and in-flight requests by
// route pattern.
func Metrics(reg *metric.Registry) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reg.RequestsInFlight.Inc()
			defer reg.RequestsInFlight.Dec()

			start := time.Now()
			wrapped := wrapResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			reg.ObserveRequest(routeOf(r), r.Method, wrapped.statusCode, time.Since(start))
		})
	}
}

// Tracing opens one server span per request. Incoming trace context is
// honored and the trace id is added to the request logger.
func Tracing(tracer trace.Tracer) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, r.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", r.Method),
					attribute.String("url.path", r.URL.Path),
					attribute.String("client.address", getClientIP(r)),
				),
			)
			defer span.End()

			if sc := span.SpanContext(); sc.HasTraceID() {
				ctx = logger.WithTraceID(ctx, sc.TraceID().String())
			}

			wrapped := wrapResponseWriter(w)
			next.ServeHTTP(wrapped, r.WithContext(ctx))

			route := routeOf(r)
			span.SetName(r.Method + " " + route)
			span.SetAttributes(
				attribute.String("http.route", route),
				attribute.Int("http.response.status_code", wrapped.statusCode),
			)
			if wrapped.statusCode >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", wrapped.statusCode))
			}
		})
	}
}

// Audit logs one line per finished request.
func Audit() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			if info := requestInfoFrom(r.Context()); info != nil {
				start = info.Start
			}

			wrapped := wrapResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"route", routeOf(r),
				"status", wrapped.statusCode,
				"bytes", wrapped.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
				"client_ip", getClientIP(r),
			}

			log := logger.L(r.Context())
			switch {
			case wrapped.statusCode >= 500:
				log.Error("request completed with error", attrs...)
			case wrapped.statusCode >= 400:
				log.Warn("request completed with client error", attrs...)
			default:
				log.Info("request completed", attrs...)
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code and
// body size.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	bytes       int
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// getClientIP returns the address RealIP resolved, or the peer address
// when RealIP did not run.
func getClientIP(r *http.Request) string {
	if info := requestInfoFrom(r.Context()); info != nil && info.ClientIP != "" {
		return info.ClientIP
	}
	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	// net.SplitHostPort handles IPv6 addresses like [::1]:8080.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
