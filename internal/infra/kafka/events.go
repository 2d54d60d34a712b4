package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/config"
)

const schemaVersion = "1.0"

// Event types. The producer prefixes them with the topic prefix.
const (
	EventAccountRegistered = "account.registered"
	EventAccountLoggedIn   = "account.logged_in"
	EventAccountDisabled   = "account.disabled"
	EventPasswordChanged   = "account.password.changed"
	EventCartUpdated       = "cart.updated"
)

// EventPublisher implements port.EventPublisher on top of Producer.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		metadata["trace_id"] = sc.TraceID().String()
	}

	bytes, err := json.Marshal(eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	})
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}
	if userID != "" {
		message.Key = sarama.StringEncoder(userID)
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *EventPublisher) PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error {
	payload := struct {
		AccountID    string         `json:"account_id"`
		Email        string         `json:"email"`
		Role         string         `json:"role"`
		ReferralCode *string        `json:"referral_code,omitempty"`
		RegisteredAt time.Time      `json:"registered_at"`
		Metadata     map[string]any `json:"metadata,omitempty"`
	}{
		AccountID:    event.AccountID,
		Email:        event.Email,
		Role:         string(event.Role),
		ReferralCode: event.ReferralCode,
		RegisteredAt: event.RegisteredAt.UTC(),
		Metadata:     event.Metadata,
	}
	return p.publish(ctx, event.EventID, EventAccountRegistered, event.AccountID, event.RegisteredAt, payload)
}

func (p *EventPublisher) PublishAccountLoggedIn(ctx context.Context, event domain.AccountLoggedInEvent) error {
	payload := struct {
		AccountID  string    `json:"account_id"`
		Role       string    `json:"role"`
		LoggedInAt time.Time `json:"logged_in_at"`
		IPAddress  *string   `json:"ip_address,omitempty"`
		UserAgent  *string   `json:"user_agent,omitempty"`
	}{
		AccountID:  event.AccountID,
		Role:       string(event.Role),
		LoggedInAt: event.LoggedInAt.UTC(),
		IPAddress:  event.IPAddress,
		UserAgent:  event.UserAgent,
	}
	return p.publish(ctx, event.EventID, EventAccountLoggedIn, event.AccountID, event.LoggedInAt, payload)
}

func (p *EventPublisher) PublishAccountDisabled(ctx context.Context, event domain.AccountDisabledEvent) error {
	payload := struct {
		AccountID  string    `json:"account_id"`
		DisabledBy string    `json:"disabled_by"`
		DisabledAt time.Time `json:"disabled_at"`
	}{
		AccountID:  event.AccountID,
		DisabledBy: event.DisabledBy,
		DisabledAt: event.DisabledAt.UTC(),
	}
	return p.publish(ctx, event.EventID, EventAccountDisabled, event.AccountID, event.DisabledAt, payload)
}

func (p *EventPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	payload := struct {
		AccountID string    `json:"account_id"`
		ChangedAt time.Time `json:"changed_at"`
		Method    string    `json:"method"`
	}{
		AccountID: event.AccountID,
		ChangedAt: event.ChangedAt.UTC(),
		Method:    event.Method,
	}
	return p.publish(ctx, event.EventID, EventPasswordChanged, event.AccountID, event.ChangedAt, payload)
}

// PublishCartUpdated carries totals only; line items stay in the database.
func (p *EventPublisher) PublishCartUpdated(ctx context.Context, event domain.CartUpdatedEvent) error {
	payload := struct {
		CartID      string    `json:"cart_id"`
		AccountID   string    `json:"account_id"`
		Action      string    `json:"action"`
		ItemCount   int       `json:"item_count"`
		TotalAmount float64   `json:"total_amount"`
		Version     int64     `json:"version"`
		UpdatedAt   time.Time `json:"updated_at"`
	}{
		CartID:      event.CartID,
		AccountID:   event.AccountID,
		Action:      event.Action,
		ItemCount:   event.ItemCount,
		TotalAmount: event.TotalAmount,
		Version:     event.Version,
		UpdatedAt:   event.UpdatedAt.UTC(),
	}
	return p.publish(ctx, event.EventID, EventCartUpdated, event.AccountID, event.UpdatedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
