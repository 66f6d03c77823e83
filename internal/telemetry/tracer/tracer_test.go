package tracer

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(context.Background(), Config{ServiceName: "toptube-server"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p.Enabled() {
		t.Error("provider without endpoint should be disabled")
	}

	_, span := p.Tracer().Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Error("disabled tracer produced a valid span context")
	}
	span.End()

	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNewWithExporter(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()

	p, err := NewWithExporter(context.Background(), Config{
		ServiceName:    "toptube-server",
		ServiceVersion: "1.0.0",
		SampleRatio:    1,
	}, exporter)
	if err != nil {
		t.Fatalf("NewWithExporter() error = %v", err)
	}
	if !p.Enabled() {
		t.Fatal("provider should be enabled")
	}

	_, span := p.Tracer().Start(context.Background(), "GET /api/regions")
	span.SetAttributes(attribute.String("region", "KR"))
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("exported %d spans, want 1", len(spans))
	}
	if spans[0].Name != "GET /api/regions" {
		t.Errorf("span name = %q", spans[0].Name)
	}

	var service string
	for _, kv := range spans[0].Resource.Attributes() {
		if kv.Key == "service.name" {
			service = kv.Value.AsString()
		}
	}
	if service != "toptube-server" {
		t.Errorf("service.name = %q", service)
	}

	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}
