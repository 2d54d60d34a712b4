package port

import (
	"context"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error
	PublishAccountLoggedIn(ctx context.Context, event domain.AccountLoggedInEvent) error
	PublishAccountDisabled(ctx context.Context, event domain.AccountDisabledEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
	PublishCartUpdated(ctx context.Context, event domain.CartUpdatedEvent) error
}
