package interceptors

import (
	"context"
	"testing"

	"google.golang.org/grpc"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestTracingProvidesServerOption(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	tracing := NewTracing(TracingOptions{
		TracerProvider: tp,
		Skip:           []string{"/grpc.health.v1.Health/Check"},
	})

	if tracing.Handler() == nil {
		t.Fatalf("expected stats handler")
	}
	if got := len(tracing.ServerOption()); got != 1 {
		t.Fatalf("expected one server option, got %d", got)
	}
}

func TestNilTracingIsInert(t *testing.T) {
	var tracing *Tracing
	if tracing.Handler() != nil || tracing.ServerOption() != nil {
		t.Fatalf("nil tracing should contribute nothing")
	}
}

type mockServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (m *mockServerStream) Context() context.Context {
	return m.ctx
}
