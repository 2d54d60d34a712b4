package port

import (
	"context"
	"time"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
)

// AccountRepository is the credential store. Lookups ignore soft-deleted rows.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	FindActiveByIdentifier(ctx context.Context, email string) (*domain.Account, error)
	ExistsByIdentifier(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error)
	UpdateProfile(ctx context.Context, id string, patch domain.ProfilePatch, at time.Time) (*domain.Account, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string, at time.Time) error
	// RecordLogin stamps lastLogin and clears the failed-attempt counter and lock.
	RecordLogin(ctx context.Context, id string, at time.Time) error
	// RecordFailedLogin increments loginAttempts and sets lockUntil once the
	// counter reaches maxAttempts. It returns the new counter value.
	RecordFailedLogin(ctx context.Context, id string, maxAttempts int, lockUntil time.Time, at time.Time) (int, error)
	Disable(ctx context.Context, id string, at time.Time) error
	// Delete hard-deletes a row. Only used to compensate a failed registration.
	Delete(ctx context.Context, id string) error
}

// PreferencesRepository persists the 1:1 preferences companion.
type PreferencesRepository interface {
	Create(ctx context.Context, prefs domain.Preferences) error
	GetByAccountID(ctx context.Context, accountID string) (*domain.Preferences, error)
	Update(ctx context.Context, prefs domain.Preferences) error
	DeleteByAccountID(ctx context.Context, accountID string) error
}

// CartRepository persists the 1:1 cart companion with optimistic versioning.
type CartRepository interface {
	Create(ctx context.Context, cart domain.Cart) error
	GetByAccountID(ctx context.Context, accountID string) (*domain.Cart, error)
	// Save writes the cart when the stored version still equals cart.Version and
	// returns the incremented version, or domain.ErrVersionConflict.
	Save(ctx context.Context, cart domain.Cart) (int64, error)
	Deactivate(ctx context.Context, accountID string, at time.Time) error
	DeleteByAccountID(ctx context.Context, accountID string) error
}

// TxRepositories exposes the repositories bound to a single transaction.
type TxRepositories struct {
	Accounts       AccountRepository
	Preferences    PreferencesRepository
	Carts          CartRepository
	Addresses      AddressRepository
	PaymentMethods PaymentMethodRepository
	// DefaultScopes joins the surrounding transaction, so its scope lock is
	// held until the unit of work commits.
	DefaultScopes  DefaultScopeStore
}

// UnitOfWork runs fn inside one storage transaction. Returning an error rolls back.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}
