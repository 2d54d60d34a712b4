package usecase

import (
	"context"
	"strings"
	"time"

	uuid "github.com/google/uuid"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
)

// PaymentMethodService manages stored payment methods. Defaults are scoped to
// the whole account.
type PaymentMethodService struct {
	methods   port.PaymentMethodRepository
	defaults  *DefaultScopeRegistry
	uow       port.UnitOfWork
	sanitizer port.TextSanitizer
	now       func() time.Time
}

func NewPaymentMethodService(methods port.PaymentMethodRepository, defaults *DefaultScopeRegistry, uow port.UnitOfWork, sanitizer port.TextSanitizer) *PaymentMethodService {
	return &PaymentMethodService{
		methods:   methods,
		defaults:  defaults,
		uow:       uow,
		sanitizer: sanitizer,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *PaymentMethodService) Create(ctx context.Context, accountID string, pm domain.PaymentMethod, makeDefault bool) (domain.PaymentMethod, error) {
	now := s.now()
	pm.ID = uuid.NewString()
	pm.AccountID = accountID
	pm.IsActive = true
	pm.IsDefault = false
	pm.UsageCount = 0
	pm.LastUsed = nil
	pm.AddedAt = now
	pm.CreatedAt = now
	pm.UpdatedAt = now
	s.clean(&pm)

	if err := pm.Validate(now); err != nil {
		return domain.PaymentMethod{}, err
	}
	err := s.inTx(ctx, func(ctx context.Context, methods port.PaymentMethodRepository, defaults *DefaultScopeRegistry) error {
		if err := methods.Create(ctx, pm); err != nil {
			return err
		}
		if makeDefault {
			return defaults.SetDefault(ctx, domain.PaymentMethodScope(accountID), pm.ID)
		}
		return nil
	})
	if err != nil {
		return domain.PaymentMethod{}, err
	}
	pm.IsDefault = makeDefault
	return pm, nil
}

func (s *PaymentMethodService) List(ctx context.Context, accountID string) ([]domain.PaymentMethod, error) {
	return s.methods.List(ctx, accountID)
}

func (s *PaymentMethodService) Get(ctx context.Context, accountID, id string) (domain.PaymentMethod, error) {
	pm, err := s.methods.GetByID(ctx, accountID, id)
	if err != nil {
		return domain.PaymentMethod{}, err
	}
	return *pm, nil
}

func (s *PaymentMethodService) GetDefault(ctx context.Context, accountID string) (domain.PaymentMethod, error) {
	pm, err := s.methods.GetDefault(ctx, accountID)
	if err != nil {
		return domain.PaymentMethod{}, err
	}
	return *pm, nil
}

// Update replaces the editable fields. The kind cannot change.
func (s *PaymentMethodService) Update(ctx context.Context, accountID, id string, in domain.PaymentMethod, makeDefault bool) (domain.PaymentMethod, error) {
	current, err := s.methods.GetByID(ctx, accountID, id)
	if err != nil {
		return domain.PaymentMethod{}, err
	}

	now := s.now()
	next := in
	next.ID = current.ID
	next.AccountID = current.AccountID
	next.Type = current.Type
	next.IsActive = current.IsActive
	next.IsDefault = current.IsDefault
	next.TokenID = current.TokenID
	next.Fingerprint = current.Fingerprint
	next.AddedAt = current.AddedAt
	next.LastUsed = current.LastUsed
	next.UsageCount = current.UsageCount
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = now
	s.clean(&next)

	if err := next.Validate(now); err != nil {
		return domain.PaymentMethod{}, err
	}
	promote := makeDefault && !next.IsDefault
	err = s.inTx(ctx, func(ctx context.Context, methods port.PaymentMethodRepository, defaults *DefaultScopeRegistry) error {
		if err := methods.Update(ctx, next); err != nil {
			return err
		}
		if promote {
			return defaults.SetDefault(ctx, domain.PaymentMethodScope(accountID), next.ID)
		}
		return nil
	})
	if err != nil {
		return domain.PaymentMethod{}, err
	}
	if promote {
		next.IsDefault = true
	}
	return next, nil
}

func (s *PaymentMethodService) SetDefault(ctx context.Context, accountID, id string) (domain.PaymentMethod, error) {
	if err := s.defaults.SetDefault(ctx, domain.PaymentMethodScope(accountID), id); err != nil {
		return domain.PaymentMethod{}, err
	}
	return s.Get(ctx, accountID, id)
}

func (s *PaymentMethodService) MarkUsed(ctx context.Context, accountID, id string) error {
	return s.methods.MarkUsed(ctx, accountID, id, s.now())
}

// Delete deactivates the method. A deleted default is not replaced.
func (s *PaymentMethodService) Delete(ctx context.Context, accountID, id string) error {
	return s.methods.Deactivate(ctx, accountID, id, s.now())
}

func (s *PaymentMethodService) inTx(ctx context.Context, fn func(context.Context, port.PaymentMethodRepository, *DefaultScopeRegistry) error) error {
	if s.uow == nil {
		return fn(ctx, s.methods, s.defaults)
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, repos port.TxRepositories) error {
		return fn(ctx, repos.PaymentMethods, s.defaults.bound(repos.DefaultScopes))
	})
}

func (s *PaymentMethodService) clean(pm *domain.PaymentMethod) {
	pm.Normalize()
	if s.sanitizer != nil && pm.Nickname != nil {
		v := strings.TrimSpace(s.sanitizer.Sanitize(*pm.Nickname))
		pm.Nickname = &v
	}
}
