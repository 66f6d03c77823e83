package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/yndnr/toptube-go/internal/core/domain"
	"github.com/yndnr/toptube-go/internal/server/httpserver/handler"
	"github.com/yndnr/toptube-go/internal/telemetry/logger"
	"github.com/yndnr/toptube-go/internal/telemetry/metric"
	"github.com/yndnr/toptube-go/internal/telemetry/tracer"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
}

func bufferLogger(t *testing.T) (logger.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l, err := logger.New(logger.Config{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return l, &buf
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(okHandler(), mark("a"), mark("b"), mark("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got := strings.Join(order, ","); got != "a,b,c" {
		t.Errorf("order = %s, want a,b,c", got)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFromContext(r.Context())
		if info := requestInfoFrom(r.Context()); info == nil || info.ID != seen {
			t.Error("request info should carry the request id")
		}
	}))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		id := rec.Header().Get("X-Request-ID")
		if _, err := ulid.ParseStrict(id); err != nil {
			t.Errorf("X-Request-ID %q is not a ULID: %v", id, err)
		}
		if seen != id {
			t.Errorf("context id = %q, header = %q", seen, id)
		}
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "client-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get("X-Request-ID"); got != "client-123" {
			t.Errorf("X-Request-ID = %q, want client-123", got)
		}
	})

	t.Run("oversized replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", strings.Repeat("x", 200))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get("X-Request-ID"); len(got) != 26 {
			t.Errorf("X-Request-ID = %q, want a fresh ULID", got)
		}
	})
}

func TestRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), Recover(), RequestID(nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/regions", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if got := rec.Header().Get("X-Error-Code"); got != domain.ErrInternalServer.Code {
		t.Errorf("X-Error-Code = %q", got)
	}

	var resp handler.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RequestID == "" || resp.RequestID != rec.Header().Get("X-Request-ID") {
		t.Errorf("request_id = %q, header = %q", resp.RequestID, rec.Header().Get("X-Request-ID"))
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name      string
		allowed   []string
		origin    string
		wantAllow string
	}{
		{"wildcard", []string{"*"}, "https://app.example", "https://app.example"},
		{"empty list allows all", nil, "https://app.example", "https://app.example"},
		{"listed", []string{"https://a.example"}, "https://a.example", "https://a.example"},
		{"not listed", []string{"https://a.example"}, "https://b.example", ""},
		{"no origin", []string{"*"}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/regions", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			CORS(tt.allowed)(okHandler()).ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantAllow)
			}
			if rec.Code != http.StatusOK {
				t.Errorf("status = %d", rec.Code)
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	h := CORS([]string{"*"})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/regions", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if called {
		t.Error("preflight should not reach the handler")
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Headers"), "If-None-Match") {
		t.Error("If-None-Match should be an allowed header")
	}
}

func TestRateLimit(t *testing.T) {
	reg := metric.NewRegistry()
	h := RateLimit(RateLimitConfig{Rate: 1, Burst: 2, Metrics: reg})(okHandler())

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/regions", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := send("10.0.0.1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}

	rec := send("10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After should be set")
	}
	if got := rec.Header().Get("X-Error-Code"); got != domain.ErrRateLimited.Code {
		t.Errorf("X-Error-Code = %q", got)
	}
	if got := testutil.ToFloat64(reg.RateLimited); got != 1 {
		t.Errorf("rate_limited_total = %v, want 1", got)
	}

	if rec := send("10.0.0.2"); rec.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", rec.Code)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	h := RateLimit(RateLimitConfig{})(okHandler())
	for i := 0; i < 100; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
}

func TestIPLimiter_EvictsIdleClients(t *testing.T) {
	l := newIPLimiter(RateLimitConfig{Rate: 5, IdleTTL: time.Minute})
	if l.burst != 5 {
		t.Errorf("burst = %d, want 5", l.burst)
	}

	now := time.Now()
	l.allow("a", now)
	l.allow("b", now)
	if l.size() != 2 {
		t.Fatalf("size = %d, want 2", l.size())
	}

	l.allow("c", now.Add(2*time.Minute))
	if l.size() != 1 {
		t.Errorf("size after sweep = %d, want 1", l.size())
	}
}

func TestMetrics_RecordsRoutePattern(t *testing.T) {
	reg := metric.NewRegistry()
	inner := withRoute("GET /api/snapshots/{region}/{date}", okHandler())
	h := Chain(inner, RequestID(nil), Metrics(reg))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/snapshots/KR/2024-05-01", nil))

	got := testutil.ToFloat64(reg.RequestsTotal.WithLabelValues("/api/snapshots/{region}/{date}", "GET", "200"))
	if got != 1 {
		t.Errorf("requests_total = %v, want 1", got)
	}
	if inFlight := testutil.ToFloat64(reg.RequestsInFlight); inFlight != 0 {
		t.Errorf("in flight = %v, want 0", inFlight)
	}
}

func TestMetrics_UnmatchedRoute(t *testing.T) {
	reg := metric.NewRegistry()
	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := Chain(notFound, RequestID(nil), Metrics(reg))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/1", nil))

	if got := testutil.ToFloat64(reg.RequestsTotal.WithLabelValues(routeUnmatched, "GET", "404")); got != 1 {
		t.Errorf("requests_total{unmatched} = %v, want 1", got)
	}
}

func TestTracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp, err := tracer.NewWithExporter(context.Background(), tracer.Config{ServiceName: "test"}, exporter)
	if err != nil {
		t.Fatalf("NewWithExporter: %v", err)
	}
	t.Cleanup(func() { tp.Shutdown(context.Background()) })

	var traceID string
	inner := withRoute("GET /api/regions", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = logger.TraceIDFromContext(r.Context())
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	h := Chain(inner, RequestID(nil), Tracing(tp.Tracer()))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/regions", nil))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(spans))
	}
	span := spans[0]
	if span.Name != "GET /api/regions" {
		t.Errorf("span name = %q, want %q", span.Name, "GET /api/regions")
	}
	if span.SpanContext.TraceID().String() != traceID {
		t.Errorf("logger trace id = %q, span trace id = %s", traceID, span.SpanContext.TraceID())
	}
	if span.Status.Code != codes.Error {
		t.Errorf("span status = %v, want Error for 503", span.Status.Code)
	}
}

func TestAudit(t *testing.T) {
	base, buf := bufferLogger(t)
	inner := withRoute("GET /api/regions", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("nope"))
	}))
	h := Chain(inner, RequestID(base), Audit())

	req := httptest.NewRequest(http.MethodGet, "/api/regions", nil)
	req.Header.Set("X-Request-ID", "req-audit")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log %q: %v", buf.String(), err)
	}
	if line["level"] != slog.LevelWarn.String() {
		t.Errorf("level = %v, want WARN", line["level"])
	}
	if line["request_id"] != "req-audit" {
		t.Errorf("request_id = %v", line["request_id"])
	}
	if line["route"] != "/api/regions" {
		t.Errorf("route = %v", line["route"])
	}
	if line["status"] != float64(http.StatusNotFound) || line["bytes"] != float64(4) {
		t.Errorf("status/bytes = %v/%v", line["status"], line["bytes"])
	}
}

func TestResolveClientIP(t *testing.T) {
	trusted := []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.0.2.10/32"),
	}

	tests := []struct {
		name       string
		remoteAddr string
		trusted    []netip.Prefix
		header     map[string]string
		want       string
	}{
		{"remote addr", "192.0.2.1:1234", trusted, nil, "192.0.2.1"},
		{"ipv6", "[::1]:8080", trusted, nil, "::1"},
		{"no port", "192.0.2.7", trusted, nil, "192.0.2.7"},
		{"forwarded from untrusted peer", "198.51.100.4:1", trusted, map[string]string{"X-Forwarded-For": "203.0.113.5"}, "198.51.100.4"},
		{"real ip from untrusted peer", "198.51.100.4:1", trusted, map[string]string{"X-Real-IP": "203.0.113.9"}, "198.51.100.4"},
		{"no trusted proxies", "10.0.0.1:1", nil, map[string]string{"X-Forwarded-For": "203.0.113.5"}, "10.0.0.1"},
		{"forwarded via trusted peer", "10.0.0.1:1", trusted, map[string]string{"X-Forwarded-For": "203.0.113.5"}, "203.0.113.5"},
		{"spoofed left hop ignored", "10.0.0.1:1", trusted, map[string]string{"X-Forwarded-For": "1.2.3.4, 203.0.113.5, 192.0.2.10"}, "203.0.113.5"},
		{"all hops trusted", "10.0.0.1:1", trusted, map[string]string{"X-Forwarded-For": "10.1.1.1, 10.2.2.2"}, "10.1.1.1"},
		{"real ip via trusted peer", "10.0.0.1:1", trusted, map[string]string{"X-Real-IP": "203.0.113.9"}, "203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			if got := resolveClientIP(req, tt.trusted); got != tt.want {
				t.Errorf("resolveClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetClientIP_UsesResolvedAddress(t *testing.T) {
	var got string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = getClientIP(r)
	})
	h := Chain(inner, RequestID(nil), RealIP([]netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1"
	req.Header.Set("X-Forwarded-For", "203.0.113.5")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != "203.0.113.5" {
		t.Errorf("getClientIP() = %q, want 203.0.113.5", got)
	}
}

func TestRateLimit_IgnoresForgedForwardedFor(t *testing.T) {
	h := Chain(okHandler(),
		RequestID(nil),
		RealIP(nil),
		RateLimit(RateLimitConfig{Rate: 0.01, Burst: 1}),
	)

	allowed := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/regions", nil)
		req.RemoteAddr = "198.51.100.7:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			allowed++
		}
	}

	if allowed != 1 {
		t.Errorf("%d of 50 requests allowed, want 1", allowed)
	}
}
