package interceptors

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/stats"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracingOptions customises the tracing stats handler.
type TracingOptions struct {
	TracerProvider trace.TracerProvider
	Propagators    propagation.TextMapPropagator
	// Skip lists full method names that produce no spans, such as health probes.
	Skip       []string
	Additional []otelgrpc.Option
}

// Tracing wraps the OpenTelemetry server stats handler for gRPC traffic.
type Tracing struct {
	handler stats.Handler
}

// NewTracing builds the server stats handler with the supplied options.
func NewTracing(opts TracingOptions) *Tracing {
	options := make([]otelgrpc.Option, 0, len(opts.Additional)+3)
	if opts.TracerProvider != nil {
		options = append(options, otelgrpc.WithTracerProvider(opts.TracerProvider))
	}
	if opts.Propagators != nil {
		options = append(options, otelgrpc.WithPropagators(opts.Propagators))
	}
	if len(opts.Skip) > 0 {
		skip := make(map[string]struct{}, len(opts.Skip))
		for _, m := range opts.Skip {
			skip[m] = struct{}{}
		}
		options = append(options, otelgrpc.WithFilter(func(info *stats.RPCTagInfo) bool {
			_, skipped := skip[info.FullMethodName]
			return !skipped
		}))
	}
	options = append(options, opts.Additional...)

	return &Tracing{handler: otelgrpc.NewServerHandler(options...)}
}

// Handler returns the underlying stats handler.
func (t *Tracing) Handler() stats.Handler {
	if t == nil {
		return nil
	}
	return t.handler
}

// ServerOption installs the stats handler on a gRPC server. A nil Tracing yields no option.
func (t *Tracing) ServerOption() []grpc.ServerOption {
	if t == nil || t.handler == nil {
		return nil
	}
	return []grpc.ServerOption{grpc.StatsHandler(t.handler)}
}
