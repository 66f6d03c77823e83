// Package metric provides Prometheus metrics for TopTube.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Registry of request and resolution metrics, /metrics handler
//   - collector.go: Storage collector reading engine statistics at scrape time
//
// All metrics use the "toptube" namespace.
package metric
