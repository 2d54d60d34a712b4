package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/config"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/database"
	kafkainfra "github.com/UsmanFarooq46/e-commerce-backend/internal/infra/kafka"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/security"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/storage"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/telemetry"
	postgresrepo "github.com/UsmanFarooq46/e-commerce-backend/internal/repository/postgres"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/transport/http/routes"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/usecase"
)

// Core holds the storage-backed services shared by the API server and the
// operator CLI.
type Core struct {
	Pool     *pgxpool.Pool
	Repos    *postgresrepo.Repositories
	Events   port.EventPublisher
	Services routes.ServiceSet
	// UploadsDir is set when avatars are kept on local disk.
	UploadsDir string

	producer *kafkainfra.Producer
}

// NewCore connects to PostgreSQL, optionally applies migrations and builds
// every usecase service. metrics may be nil.
func NewCore(ctx context.Context, cfg *config.AppConfig, log *zap.Logger, metrics *telemetry.Metrics) (_ *Core, err error) {
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	core := &Core{Pool: pool, Repos: postgresrepo.NewRepositories(pool)}
	defer func() {
		if err != nil {
			err = multierr.Append(err, core.Close())
		}
	}()

	if cfg.App.AutoMigrate {
		if err := database.Migrate(ctx, pool, log); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	core.Events, core.producer = newEventPublisher(cfg, log)

	avatars, uploadsDir, err := newAvatarStore(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("init avatar storage: %w", err)
	}
	core.UploadsDir = uploadsDir

	hasher, err := security.NewHasher(cfg.Password, cfg.Argon2)
	if err != nil {
		return nil, fmt.Errorf("init password hasher: %w", err)
	}

	var keys security.KeyProvider
	if strings.EqualFold(cfg.JWT.Algorithm, "RS256") {
		dirKeys, err := security.NewDirKeyProvider(cfg.JWT.KeyDirectory)
		if err != nil {
			return nil, fmt.Errorf("init key provider: %w", err)
		}
		keys = dirKeys
	}
	tokens, err := security.NewJWTIssuer(cfg.JWT, keys)
	if err != nil {
		return nil, fmt.Errorf("init token issuer: %w", err)
	}

	sanitizer := security.NewTextSanitizer()

	accounts, err := usecase.NewAccountService(usecase.AccountDependencies{
		Accounts:    core.Repos.Accounts,
		Preferences: core.Repos.Preferences,
		Carts:       core.Repos.Carts,
		UnitOfWork:  core.Repos.UnitOfWork,
		Hasher:      hasher,
		Policy:      security.NewPasswordValidatorFromConfig(cfg.Password),
		Tokens:      tokens,
		Sanitizer:   sanitizer,
		Avatars:     avatars,
		Events:      core.Events,
		Metrics:     metrics,
		Logger:      log,
		Lockout:     cfg.Lockout,
		CartExpiry:  cfg.Cart.Expiry,
	})
	if err != nil {
		return nil, fmt.Errorf("init account service: %w", err)
	}

	var cartEvents port.EventPublisher
	if cfg.Cart.PublishEvents {
		cartEvents = core.Events
	}

	defaults := usecase.NewDefaultScopeRegistry(core.Repos.DefaultScopes, metrics)

	core.Services = routes.ServiceSet{
		Accounts:       accounts,
		Carts:          usecase.NewCartService(core.Repos.Carts, cartEvents, sanitizer, metrics, cfg.Cart),
		Addresses:      usecase.NewAddressService(core.Repos.Addresses, defaults, core.Repos.UnitOfWork, sanitizer),
		PaymentMethods: usecase.NewPaymentMethodService(core.Repos.PaymentMethods, defaults, core.Repos.UnitOfWork, sanitizer),
		Preferences:    usecase.NewPreferencesService(core.Repos.Preferences),
		Notifications:  usecase.NewNotificationService(core.Repos.Notifications, sanitizer),
		Wishlist:       usecase.NewWishlistService(core.Repos.Wishlist, sanitizer),
	}

	return core, nil
}

// Close releases the producer and the pool.
func (c *Core) Close() error {
	var err error
	if c.producer != nil {
		err = multierr.Append(err, c.producer.Close())
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
	return err
}

func newEventPublisher(cfg *config.AppConfig, log *zap.Logger) (port.EventPublisher, *kafkainfra.Producer) {
	if !cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) == 0 {
		log.Info("kafka disabled, using stub publisher")
		return kafkainfra.NewStubPublisher(log), nil
	}

	producer, err := kafkainfra.NewProducer(cfg.Kafka, cfg.App.Name, log)
	if err != nil {
		log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
		return kafkainfra.NewStubPublisher(log), nil
	}

	log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	return kafkainfra.NewEventPublisher(producer, cfg.App, log), producer
}

func newAvatarStore(ctx context.Context, cfg config.StorageSettings, log *zap.Logger) (port.AvatarStorage, string, error) {
	switch strings.ToLower(cfg.Driver) {
	case "s3":
		store, err := storage.NewS3AvatarStore(ctx, cfg, log)
		if err != nil {
			return nil, "", err
		}
		return store, "", nil
	case "", "local":
		store, err := storage.NewLocalAvatarStore(cfg.LocalDir, cfg.MaxUploadBytes)
		if err != nil {
			return nil, "", err
		}
		return store, store.Dir(), nil
	default:
		return nil, "", fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
