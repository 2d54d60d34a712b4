package transportgrpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcinterceptors "github.com/UsmanFarooq46/e-commerce-backend/internal/transport/grpc/interceptors"
)

// ServiceName is the logical service reported by the health endpoint next to
// the overall ("") status.
const ServiceName = "shop.v1.AccountService"

const (
	defaultProbeInterval = 10 * time.Second
	probeTimeout         = 2 * time.Second
)

// publicMethods never require an auth-token.
var publicMethods = []string{
	"/" + healthpb.Health_ServiceDesc.ServiceName + "/",
	"/grpc.reflection.v1.ServerReflection/",
	"/grpc.reflection.v1alpha.ServerReflection/",
}

// ReadinessCheck probes one dependency.
type ReadinessCheck func(ctx context.Context) error

// ServerDependencies encapsulates collaborators of the gRPC server layer.
type ServerDependencies struct {
	Authenticator grpcinterceptors.Authenticator
	Metrics       *grpcinterceptors.GRPCMetrics
	Tracing       *grpcinterceptors.Tracing
	Logger        *zap.Logger
	// Checks feed the health service. Any failing check reports NOT_SERVING.
	Checks        map[string]ReadinessCheck
	ProbeInterval time.Duration
}

// Server bundles the gRPC server with its health reporter.
type Server struct {
	*grpc.Server
	health   *health.Server
	checks   map[string]ReadinessCheck
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	serving bool
}

// NewServer wires the health and reflection services behind the auth, metrics
// and tracing interceptors.
func NewServer(deps ServerDependencies) (*Server, error) {
	if deps.Authenticator == nil {
		return nil, fmt.Errorf("authenticator is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	authInterceptor := grpcinterceptors.NewAuthInterceptor(deps.Authenticator, grpcinterceptors.AuthOptions{
		Logger:       logger,
		AllowMethods: publicMethods,
	})

	opts := deps.Tracing.ServerOption()
	opts = append(opts,
		grpc.ChainUnaryInterceptor(
			deps.Metrics.UnaryServerInterceptor(),
			authInterceptor.UnaryServerInterceptor(),
		),
		grpc.ChainStreamInterceptor(
			deps.Metrics.StreamServerInterceptor(),
			authInterceptor.StreamServerInterceptor(),
		),
	)

	server := grpc.NewServer(opts...)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)

	// Register reflection service for tools like Postman, grpcurl, etc.
	reflection.Register(server)

	interval := deps.ProbeInterval
	if interval <= 0 {
		interval = defaultProbeInterval
	}

	s := &Server{
		Server:   server,
		health:   healthServer,
		checks:   deps.Checks,
		interval: interval,
		logger:   logger,
	}
	s.setServing(true)

	return s, nil
}

// Probe runs every readiness check once and publishes the result.
func (s *Server) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	ok := true
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			s.logger.Warn("gRPC readiness check failed", zap.String("check", name), zap.Error(err))
			ok = false
		}
	}
	s.setServing(ok)
	return ok
}

// WatchReadiness probes on every interval until ctx is cancelled.
func (s *Server) WatchReadiness(ctx context.Context) {
	s.Probe(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Probe(ctx)
		}
	}
}

// Shutdown flips health to NOT_SERVING and drains in-flight calls.
func (s *Server) Shutdown(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.Stop()
	}
}

func (s *Server) setServing(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := healthpb.HealthCheckResponse_SERVING
	if !ok {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	if s.serving != ok {
		s.logger.Info("gRPC health status changed", zap.String("status", status.String()))
	}
	s.serving = ok
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
