package usecase

import (
	"context"
	"strings"
	"time"

	uuid "github.com/google/uuid"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
)

// AddressService manages an account's address book.
type AddressService struct {
	addresses port.AddressRepository
	defaults  *DefaultScopeRegistry
	uow       port.UnitOfWork
	sanitizer port.TextSanitizer
	now       func() time.Time
}

// NewAddressService wires the address book. With a nil uow the row write and
// the default switch are not atomic.
func NewAddressService(addresses port.AddressRepository, defaults *DefaultScopeRegistry, uow port.UnitOfWork, sanitizer port.TextSanitizer) *AddressService {
	return &AddressService{
		addresses: addresses,
		defaults:  defaults,
		uow:       uow,
		sanitizer: sanitizer,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new address. When makeDefault is set the address then takes
// over the default of its type.
func (s *AddressService) Create(ctx context.Context, accountID string, addr domain.Address, makeDefault bool) (domain.Address, error) {
	now := s.now()
	addr.ID = uuid.NewString()
	addr.AccountID = accountID
	addr.IsActive = true
	addr.IsDefault = false
	addr.UsageCount = 0
	addr.LastUsed = nil
	addr.CreatedAt = now
	addr.UpdatedAt = now
	s.clean(&addr)

	if err := addr.Validate(); err != nil {
		return domain.Address{}, err
	}
	err := s.inTx(ctx, func(ctx context.Context, addresses port.AddressRepository, defaults *DefaultScopeRegistry) error {
		if err := addresses.Create(ctx, addr); err != nil {
			return err
		}
		if makeDefault {
			return defaults.SetDefault(ctx, domain.AddressScope(accountID, addr.Type), addr.ID)
		}
		return nil
	})
	if err != nil {
		return domain.Address{}, err
	}
	addr.IsDefault = makeDefault
	return addr, nil
}

func (s *AddressService) List(ctx context.Context, accountID string, addressType *domain.AddressType) ([]domain.Address, error) {
	if addressType != nil && !addressType.Valid() {
		return nil, domain.NewValidationError("type", "type must be billing, shipping or both", *addressType)
	}
	return s.addresses.List(ctx, accountID, addressType)
}

func (s *AddressService) Get(ctx context.Context, accountID, id string) (domain.Address, error) {
	addr, err := s.addresses.GetByID(ctx, accountID, id)
	if err != nil {
		return domain.Address{}, err
	}
	return *addr, nil
}

// GetDefault returns the default address of a type, or ErrNotFound when the
// scope has none.
func (s *AddressService) GetDefault(ctx context.Context, accountID string, addressType domain.AddressType) (domain.Address, error) {
	if !addressType.Valid() {
		return domain.Address{}, domain.NewValidationError("type", "type must be billing, shipping or both", addressType)
	}
	addr, err := s.addresses.GetDefault(ctx, accountID, addressType)
	if err != nil {
		return domain.Address{}, err
	}
	return *addr, nil
}

// Update replaces the editable fields of an address. Moving an address to
// another type drops its default flag.
func (s *AddressService) Update(ctx context.Context, accountID, id string, in domain.Address, makeDefault bool) (domain.Address, error) {
	current, err := s.addresses.GetByID(ctx, accountID, id)
	if err != nil {
		return domain.Address{}, err
	}

	next := in
	next.ID = current.ID
	next.AccountID = current.AccountID
	next.IsActive = current.IsActive
	next.IsDefault = current.IsDefault && current.Type == in.Type
	next.IsVerified = current.IsVerified
	next.VerificationDate = current.VerificationDate
	next.LastUsed = current.LastUsed
	next.UsageCount = current.UsageCount
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = s.now()
	s.clean(&next)

	if err := next.Validate(); err != nil {
		return domain.Address{}, err
	}
	promote := makeDefault && !next.IsDefault
	err = s.inTx(ctx, func(ctx context.Context, addresses port.AddressRepository, defaults *DefaultScopeRegistry) error {
		if err := addresses.Update(ctx, next); err != nil {
			return err
		}
		if promote {
			return defaults.SetDefault(ctx, domain.AddressScope(accountID, next.Type), next.ID)
		}
		return nil
	})
	if err != nil {
		return domain.Address{}, err
	}
	if promote {
		next.IsDefault = true
	}
	return next, nil
}

// SetDefault makes the address the default of its own type.
func (s *AddressService) SetDefault(ctx context.Context, accountID, id string) (domain.Address, error) {
	addr, err := s.addresses.GetByID(ctx, accountID, id)
	if err != nil {
		return domain.Address{}, err
	}
	if err := s.defaults.SetDefault(ctx, domain.AddressScope(accountID, addr.Type), addr.ID); err != nil {
		return domain.Address{}, err
	}
	addr.IsDefault = true
	return *addr, nil
}

// MarkUsed records a checkout use of the address.
func (s *AddressService) MarkUsed(ctx context.Context, accountID, id string) error {
	return s.addresses.MarkUsed(ctx, accountID, id, s.now())
}

// Delete deactivates the address. A deleted default is not replaced.
func (s *AddressService) Delete(ctx context.Context, accountID, id string) error {
	return s.addresses.Deactivate(ctx, accountID, id, s.now())
}

// inTx runs a row write and its default switch in one transaction.
func (s *AddressService) inTx(ctx context.Context, fn func(context.Context, port.AddressRepository, *DefaultScopeRegistry) error) error {
	if s.uow == nil {
		return fn(ctx, s.addresses, s.defaults)
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, repos port.TxRepositories) error {
		return fn(ctx, repos.Addresses, s.defaults.bound(repos.DefaultScopes))
	})
}

func (s *AddressService) clean(addr *domain.Address) {
	addr.Normalize()
	if s.sanitizer == nil {
		return
	}
	for _, field := range []**string{&addr.Instructions, &addr.Company, &addr.Street2} {
		if *field == nil {
			continue
		}
		v := strings.TrimSpace(s.sanitizer.Sanitize(**field))
		*field = &v
	}
}
