package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/config"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/logger"
	redisinfra "github.com/UsmanFarooq46/e-commerce-backend/internal/infra/redis"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/telemetry"
	redisrepo "github.com/UsmanFarooq46/e-commerce-backend/internal/repository/redis"
	transportgrpc "github.com/UsmanFarooq46/e-commerce-backend/internal/transport/grpc"
	grpcinterceptors "github.com/UsmanFarooq46/e-commerce-backend/internal/transport/grpc/interceptors"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/transport/http/middleware"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/transport/http/routes"
)

const shutdownTimeout = 10 * time.Second

type Application struct {
	cfg        *config.AppConfig
	engine     *gin.Engine
	logger     *zap.Logger
	core       *Core
	redis      *redisinfra.Client
	tracer     *telemetry.TracerProvider
	grpcServer *transportgrpc.Server
	grpcAddr   string
}

func New(ctx context.Context, cfg *config.AppConfig) (_ *Application, err error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &Application{cfg: cfg, logger: log}
	defer func() {
		if err != nil {
			err = multierr.Append(err, a.close(context.Background()))
		}
	}()

	if cfg.Telemetry.Enabled {
		a.tracer, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
		if err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
	}

	metrics, err := telemetry.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	a.core, err = NewCore(ctx, cfg, log, metrics)
	if err != nil {
		return nil, err
	}

	var (
		rateStore port.RateLimitStore
		cache     routes.CacheChecker
	)
	if cfg.Redis.Enabled {
		a.redis, err = redisinfra.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		window := cfg.RateLimit.WindowDuration
		if window <= 0 {
			window = time.Minute
		}
		rateStore = redisrepo.NewRateLimitRepository(a.redis.Client(), redisrepo.SlidingWindowConfig{
			KeyPrefix: cfg.Redis.RateLimitPrefix,
			TTL:       window * 2,
		})
		cache = a.redis
	} else {
		log.Info("redis disabled, rate limits are tracked in process")
	}

	policy := domain.NewDegradationPolicy(domain.ParseDegradationPolicyMode(cfg.RateLimit.DegradationPolicy))
	rateLimiter := middleware.NewRateLimiter(rateStore, log,
		middleware.WithDegradationPolicy(policy),
		middleware.WithRateLimitMetrics(metrics),
	)

	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	a.engine, err = routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		HTTPMetrics: httpMetrics,
		Services:    a.core.Services,
		Database:    a.core.Pool,
		Cache:       cache,
		UploadsDir:  a.core.UploadsDir,
	})
	if err != nil {
		return nil, fmt.Errorf("init routes: %w", err)
	}

	if cfg.GRPC.Enabled {
		grpcMetrics, err := grpcinterceptors.NewGRPCMetrics(grpcinterceptors.GRPCMetricsOptions{})
		if err != nil {
			return nil, fmt.Errorf("init grpc metrics: %w", err)
		}

		checks := map[string]transportgrpc.ReadinessCheck{"database": a.core.Pool.Ping}
		if a.redis != nil {
			checks["redis"] = a.redis.HealthCheck
		}

		a.grpcServer, err = transportgrpc.NewServer(transportgrpc.ServerDependencies{
			Authenticator: a.core.Services.Accounts,
			Metrics:       grpcMetrics,
			Tracing: grpcinterceptors.NewTracing(grpcinterceptors.TracingOptions{
				Skip: []string{"/grpc.health.v1.Health/Check", "/grpc.health.v1.Health/Watch"},
			}),
			Logger: log,
			Checks: checks,
		})
		if err != nil {
			return nil, fmt.Errorf("init grpc server: %w", err)
		}
		a.grpcAddr = net.JoinHostPort(cfg.GRPC.Host, fmt.Sprint(cfg.GRPC.Port))
	}

	return a, nil
}

// Run serves HTTP, gRPC and the standalone metrics listener until ctx is
// cancelled or one of them fails, then shuts everything down.
func (a *Application) Run(ctx context.Context) (err error) {
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = multierr.Append(err, a.close(shutdownCtx))
		_ = a.logger.Sync()
	}()

	var grpcListener net.Listener
	if a.grpcServer != nil {
		grpcListener, err = net.Listen("tcp", a.grpcAddr)
		if err != nil {
			return fmt.Errorf("listen grpc: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:              net.JoinHostPort(a.cfg.App.Host, fmt.Sprint(a.cfg.App.Port)),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	serveHTTP(g, ctx, a.logger, "api", srv)

	if port := a.cfg.Telemetry.MetricsPort; port > 0 && port != a.cfg.App.Port {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		serveHTTP(g, ctx, a.logger, "metrics", &http.Server{
			Addr:              net.JoinHostPort(a.cfg.App.Host, fmt.Sprint(port)),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	if grpcListener != nil {
		a.logger.Info("starting gRPC server", zap.String("address", a.grpcAddr))

		g.Go(func() error {
			if err := a.grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("run grpc server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			a.grpcServer.WatchReadiness(ctx)
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			a.grpcServer.Shutdown(shutdownCtx)
			return nil
		})
	}

	a.logger.Info("starting shop API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	return g.Wait()
}

func serveHTTP(g *errgroup.Group, ctx context.Context, log *zap.Logger, name string, srv *http.Server) {
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run %s server: %w", name, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down http server", zap.String("server", name))
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown %s server: %w", name, err)
		}
		return nil
	})
}

func (a *Application) close(ctx context.Context) error {
	var err error
	if a.redis != nil {
		err = multierr.Append(err, a.redis.Close())
	}
	if a.core != nil {
		err = multierr.Append(err, a.core.Close())
	}
	if a.tracer != nil {
		err = multierr.Append(err, a.tracer.Shutdown(ctx))
	}
	return err
}
