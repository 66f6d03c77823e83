// Package tracer provides OpenTelemetry tracing for TopTube.
//
// Tracing is opt-in: without an OTLP endpoint New returns a provider
// whose tracer records nothing and no global state is touched. With an
// endpoint, spans are batched to an OTLP/HTTP collector and W3C trace
// context is propagated.
package tracer
