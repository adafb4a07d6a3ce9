package telemetry

import (
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetup_Disabled(t *testing.T) {
	t.Parallel()

	shutdown, err := Setup(t.Context(), Options{})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(t.Context()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestNewProvider_Resource(t *testing.T) {
	t.Parallel()

	rec := tracetest.NewSpanRecorder()
	tp := NewProvider(sdktrace.WithSpanProcessor(rec), "1.2.3")
	defer func() { _ = tp.Shutdown(t.Context()) }()

	_, span := tp.Tracer("test").Start(t.Context(), "op")
	span.End()

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	found := map[string]string{}
	for _, kv := range spans[0].Resource().Attributes() {
		found[string(kv.Key)] = kv.Value.AsString()
	}
	if found["service.name"] != ServiceName {
		t.Errorf("service.name = %q", found["service.name"])
	}
	if found["service.version"] != "1.2.3" {
		t.Errorf("service.version = %q", found["service.version"])
	}
}
