// Package handler implements the toptube read API.
//
//   - snapshot.go: latest, by-date and history lookups
//   - regions.go: region listing
//   - health.go: liveness, readiness and the public health probe
//
// Success bodies are bare JSON shapes. Failures use the error envelope
// {code, message, request_id, timestamp, details} and carry X-Error-Code.
package handler
