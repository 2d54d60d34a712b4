package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/logger"
)

// StubPublisher logs events instead of sending them. Used when kafka.enabled is false.
type StubPublisher struct {
	logger *zap.Logger
}

func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(ctx context.Context, eventType, accountID string, at time.Time, fields ...zap.Field) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	base := []zap.Field{
		zap.String("event_type", eventType),
		zap.String("account_id", accountID),
		zap.Time("timestamp", at.UTC()),
	}
	if id := logger.RequestIDFromContext(ctx); id != "" {
		base = append(base, zap.String("request_id", id))
	}
	p.logger.Info("event published", append(base, fields...)...)
}

func (p *StubPublisher) PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error {
	p.logEvent(ctx, EventAccountRegistered, event.AccountID, event.RegisteredAt,
		zap.String("email", logger.MaskEmail(event.Email)),
		zap.String("role", string(event.Role)),
	)
	return nil
}

func (p *StubPublisher) PublishAccountLoggedIn(ctx context.Context, event domain.AccountLoggedInEvent) error {
	fields := []zap.Field{zap.String("role", string(event.Role))}
	if event.IPAddress != nil {
		fields = append(fields, zap.String("ip", logger.MaskIP(*event.IPAddress)))
	}
	p.logEvent(ctx, EventAccountLoggedIn, event.AccountID, event.LoggedInAt, fields...)
	return nil
}

func (p *StubPublisher) PublishAccountDisabled(ctx context.Context, event domain.AccountDisabledEvent) error {
	p.logEvent(ctx, EventAccountDisabled, event.AccountID, event.DisabledAt, zap.String("disabled_by", event.DisabledBy))
	return nil
}

func (p *StubPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	p.logEvent(ctx, EventPasswordChanged, event.AccountID, event.ChangedAt, zap.String("method", event.Method))
	return nil
}

func (p *StubPublisher) PublishCartUpdated(ctx context.Context, event domain.CartUpdatedEvent) error {
	p.logEvent(ctx, EventCartUpdated, event.AccountID, event.UpdatedAt,
		zap.String("action", event.Action),
		zap.Int("item_count", event.ItemCount),
		zap.Float64("total_amount", event.TotalAmount),
		zap.Int64("version", event.Version),
	)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
