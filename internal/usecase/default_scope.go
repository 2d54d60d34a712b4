package usecase

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/logger"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/telemetry"
)

// DefaultScopeRegistry keeps at most one active default per (owner, scope).
// Serialization happens in the store; the registry validates and observes.
type DefaultScopeRegistry struct {
	store   port.DefaultScopeStore
	metrics *telemetry.Metrics
	now     func() time.Time
}

func NewDefaultScopeRegistry(store port.DefaultScopeStore, metrics *telemetry.Metrics) *DefaultScopeRegistry {
	return &DefaultScopeRegistry{
		store:   store,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetDefault makes entityID the only default of the scope. Concurrent calls on
// the same scope are applied one after the other, so the last to commit wins.
func (r *DefaultScopeRegistry) SetDefault(ctx context.Context, scope domain.DefaultScope, entityID string) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	entityID = strings.TrimSpace(entityID)
	if entityID == "" {
		return domain.NewValidationError("id", "id is required", nil)
	}

	if err := r.store.SetDefault(ctx, scope, entityID, r.now()); err != nil {
		return err
	}
	r.metrics.ObserveDefaultSwitch(string(scope.Kind))
	logger.WithContext(ctx).Debug("default switched",
		zap.String("scope", scope.LockKey()),
		zap.String("entity_id", entityID),
	)
	return nil
}

// ClearDefault leaves the scope with no default.
func (r *DefaultScopeRegistry) ClearDefault(ctx context.Context, scope domain.DefaultScope) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	return r.store.ClearDefault(ctx, scope, r.now())
}

// bound returns a registry writing through store, typically one joined to an
// open transaction.
func (r *DefaultScopeRegistry) bound(store port.DefaultScopeStore) *DefaultScopeRegistry {
	return &DefaultScopeRegistry{store: store, metrics: r.metrics, now: r.now}
}
