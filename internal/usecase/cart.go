package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/config"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/logger"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/telemetry"
)

const (
	defaultCartRetries      = 5
	defaultCartRetryBackoff = 20 * time.Millisecond
)

// ErrCartInactive is returned for carts deactivated by an account disable.
var ErrCartInactive = fmt.Errorf("%w: cart is no longer active", domain.ErrNotFound)

// CartService mutates carts. Every write recomputes the totals cache against
// the state being saved and is guarded by the cart version, so concurrent
// writers on the same cart never lose each other's updates.
type CartService struct {
	carts     port.CartRepository
	events    port.EventPublisher
	sanitizer port.TextSanitizer
	metrics   *telemetry.Metrics
	cfg       config.CartSettings
	now       func() time.Time
}

func NewCartService(carts port.CartRepository, events port.EventPublisher, sanitizer port.TextSanitizer, metrics *telemetry.Metrics, cfg config.CartSettings) *CartService {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultCartRetries
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultCartRetryBackoff
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = domain.DefaultCartExpiry
	}
	return &CartService{
		carts:     carts,
		events:    events,
		sanitizer: sanitizer,
		metrics:   metrics,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the cart of the account.
func (s *CartService) Get(ctx context.Context, accountID string) (domain.Cart, error) {
	cart, err := s.carts.GetByAccountID(ctx, accountID)
	if err != nil {
		return domain.Cart{}, err
	}
	return *cart, nil
}

// AddItem merges the item into a matching line or appends it.
func (s *CartService) AddItem(ctx context.Context, accountID string, item domain.NewCartItem) (domain.Cart, error) {
	if s.sanitizer != nil {
		item.Notes = strings.TrimSpace(s.sanitizer.Sanitize(item.Notes))
	}
	return s.mutate(ctx, accountID, "add_item", func(c *domain.Cart, now time.Time) error {
		return c.AddItem(item, now)
	})
}

// RemoveItem drops every line matching product and variant.
func (s *CartService) RemoveItem(ctx context.Context, accountID, productID string, variant domain.Variant) (domain.Cart, error) {
	return s.mutate(ctx, accountID, "remove_item", func(c *domain.Cart, _ time.Time) error {
		if c.RemoveItem(productID, variant) == 0 {
			return fmt.Errorf("%w: item not in cart", domain.ErrNotFound)
		}
		return nil
	})
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, accountID string) (domain.Cart, error) {
	return s.mutate(ctx, accountID, "clear", func(c *domain.Cart, _ time.Time) error {
		c.Clear()
		return nil
	})
}

func (s *CartService) ApplyCoupon(ctx context.Context, accountID, code string, amount float64) (domain.Cart, error) {
	return s.mutate(ctx, accountID, "apply_coupon", func(c *domain.Cart, now time.Time) error {
		return c.ApplyCoupon(code, amount, now)
	})
}

func (s *CartService) RemoveCoupon(ctx context.Context, accountID, code string) (domain.Cart, error) {
	return s.mutate(ctx, accountID, "remove_coupon", func(c *domain.Cart, _ time.Time) error {
		if !c.RemoveCoupon(code) {
			return fmt.Errorf("%w: coupon not applied", domain.ErrNotFound)
		}
		return nil
	})
}

func (s *CartService) SetShipping(ctx context.Context, accountID, methodID string, cost float64) (domain.Cart, error) {
	return s.mutate(ctx, accountID, "set_shipping", func(c *domain.Cart, _ time.Time) error {
		return c.SetShipping(methodID, cost)
	})
}

// mutate runs a read, apply, compare-and-save cycle. A version conflict
// restarts from a fresh read, up to the configured number of retries.
func (s *CartService) mutate(ctx context.Context, accountID, action string, apply func(*domain.Cart, time.Time) error) (domain.Cart, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return domain.Cart{}, domain.NewValidationError("user", "user is required", nil)
	}

	var saved domain.Cart
	backoff := retry.WithMaxRetries(s.cfg.MaxRetries, retry.WithJitterPercent(50, retry.NewConstant(s.cfg.RetryBackoff)))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		current, err := s.carts.GetByAccountID(ctx, accountID)
		if err != nil {
			return err
		}
		if !current.IsActive {
			return ErrCartInactive
		}

		now := s.now()
		next := current.Clone()
		if err := apply(&next, now); err != nil {
			return err
		}
		next.Touch(now, s.cfg.Expiry)

		version, err := s.carts.Save(ctx, next)
		if errors.Is(err, domain.ErrVersionConflict) {
			s.metrics.ObserveCartRetry()
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}
		next.Version = version
		saved = next
		return nil
	})
	s.metrics.ObserveCartMutation(action, outcomeOf(err))
	if err != nil {
		return domain.Cart{}, err
	}

	s.publishUpdate(ctx, saved, action)
	return saved, nil
}

func (s *CartService) publishUpdate(ctx context.Context, cart domain.Cart, action string) {
	if s.events == nil || !s.cfg.PublishEvents {
		return
	}
	err := s.events.PublishCartUpdated(ctx, domain.CartUpdatedEvent{
		EventID:     uuid.NewString(),
		CartID:      cart.ID,
		AccountID:   cart.AccountID,
		Action:      action,
		ItemCount:   cart.ItemCount,
		TotalAmount: cart.TotalAmount,
		Version:     cart.Version,
		UpdatedAt:   cart.UpdatedAt,
	})
	if err != nil {
		logger.WithContext(ctx).Warn("publish cart update failed", zap.String("cart_id", cart.ID), zap.Error(err))
	}
}
