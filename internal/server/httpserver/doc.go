// Package httpserver serves the toptube read API over net/http.
//
// Routes:
//
//   - /api/regions, /api/snapshots/latest, /api/snapshots/{region}/{date},
//     /api/snapshots (history)
//   - /api/health, /health, /ready
//   - /metrics
//
// Every request passes the middleware chain
// Recover, RequestID, CORS, RateLimit, Metrics, Tracing, Audit.
package httpserver
