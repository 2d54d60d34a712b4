package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/config"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/storage"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/transport/http/handlers"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/transport/http/middleware"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Accounts       *usecase.AccountService
	Carts          *usecase.CartService
	Addresses      *usecase.AddressService
	PaymentMethods *usecase.PaymentMethodService
	Preferences    *usecase.PreferencesService
	Notifications  *usecase.NotificationService
	Wishlist       *usecase.WishlistService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	HTTPMetrics *middleware.HTTPMetrics
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
	// UploadsDir is served under /uploads when avatars are stored on local disk.
	UploadsDir string
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) (*gin.Engine, error) {
	if deps.Config.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handlers.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.CORS))
	r.Use(deps.HTTPMetrics.Handler())

	if deps.Config.Storage.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = deps.Config.Storage.MaxUploadBytes
	}

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if deps.UploadsDir != "" {
		r.Static(storage.UploadsURLPrefix, deps.UploadsDir)
	}

	if deps.Services.Accounts == nil {
		return r, nil
	}

	authenticated := middleware.RequireAuth(deps.Services.Accounts)
	admin := middleware.RequireRole(domain.RoleAdmin)
	authMW := handlers.AuthRouteMiddlewares{
		Authenticated:  authenticated,
		Admin:          admin,
		Register:       buildRateLimit(deps, "auth_register_ip", deps.Config.RateLimit.RegisterMaxAttempts),
		Login:          buildRateLimit(deps, "auth_login_ip", deps.Config.RateLimit.LoginMaxAttempts),
		ForgotPassword: buildRateLimit(deps, "auth_forgot_password_ip", deps.Config.RateLimit.ForgotPasswordMaxAttempts),
	}

	authHandler := handlers.NewAuthHandler(deps.Services.Accounts,
		handlers.WithMaxUploadBytes(deps.Config.Storage.MaxUploadBytes))
	auctionHandler := handlers.NewAuthHandler(deps.Services.Accounts,
		handlers.WithMaxUploadBytes(deps.Config.Storage.MaxUploadBytes),
		handlers.WithAuctionSurface())

	api := r.Group("/api")
	{
		authHandler.RegisterRoutes(api.Group("/auth"), authMW)
		auctionHandler.RegisterAuctionRoutes(api.Group("/auction"), authMW)

		if deps.Services.Carts != nil {
			handlers.NewCartHandler(deps.Services.Carts).RegisterRoutes(api.Group("/cart", authenticated))
		}
		if deps.Services.Addresses != nil {
			handlers.NewAddressHandler(deps.Services.Addresses).RegisterRoutes(api.Group("/addresses", authenticated))
		}
		if deps.Services.PaymentMethods != nil {
			handlers.NewPaymentMethodHandler(deps.Services.PaymentMethods).RegisterRoutes(api.Group("/payment-methods", authenticated))
		}
		if deps.Services.Preferences != nil {
			handlers.NewPreferencesHandler(deps.Services.Preferences).RegisterRoutes(api.Group("/preferences", authenticated))
		}
		if deps.Services.Notifications != nil {
			handlers.NewNotificationHandler(deps.Services.Notifications).RegisterRoutes(api.Group("/notifications", authenticated), admin)
		}
		if deps.Services.Wishlist != nil {
			handlers.NewWishlistHandler(deps.Services.Wishlist).RegisterRoutes(api.Group("/wishlist", authenticated))
		}
	}

	// Documented unprefixed alias of the admin disable route.
	r.PATCH("/users/:id/disable", authenticated, admin, authHandler.Disable)

	return r, nil
}

func buildRateLimit(deps Dependencies, name string, limit int) []gin.HandlerFunc {
	if deps.RateLimiter == nil || limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = 15 * time.Minute
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
