package port

import (
	"context"
	"time"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
)

// AddressRepository persists addresses. Reads only return active rows.
type AddressRepository interface {
	Create(ctx context.Context, address domain.Address) error
	GetByID(ctx context.Context, accountID, id string) (*domain.Address, error)
	// List orders by isDefault desc then lastUsed desc.
	List(ctx context.Context, accountID string, addressType *domain.AddressType) ([]domain.Address, error)
	GetDefault(ctx context.Context, accountID string, addressType domain.AddressType) (*domain.Address, error)
	Update(ctx context.Context, address domain.Address) error
	MarkUsed(ctx context.Context, accountID, id string, at time.Time) error
	Deactivate(ctx context.Context, accountID, id string, at time.Time) error
}

// PaymentMethodRepository persists payment methods. Reads only return active rows.
type PaymentMethodRepository interface {
	Create(ctx context.Context, method domain.PaymentMethod) error
	GetByID(ctx context.Context, accountID, id string) (*domain.PaymentMethod, error)
	List(ctx context.Context, accountID string) ([]domain.PaymentMethod, error)
	GetDefault(ctx context.Context, accountID string) (*domain.PaymentMethod, error)
	Update(ctx context.Context, method domain.PaymentMethod) error
	MarkUsed(ctx context.Context, accountID, id string, at time.Time) error
	Deactivate(ctx context.Context, accountID, id string, at time.Time) error
}

// NotificationRepository persists notifications. Listings exclude expired and deleted rows.
type NotificationRepository interface {
	Create(ctx context.Context, notification domain.Notification) error
	List(ctx context.Context, accountID string, filter domain.NotificationFilter, now time.Time) ([]domain.Notification, int, error)
	CountUnread(ctx context.Context, accountID string, now time.Time) (int, error)
	MarkRead(ctx context.Context, accountID, id string, at time.Time) error
	MarkAllRead(ctx context.Context, accountID string, at time.Time) (int64, error)
	MarkDelivered(ctx context.Context, accountID, id string, at time.Time) error
	SoftDelete(ctx context.Context, accountID, id string, at time.Time) error
}

// DefaultScopeStore atomically moves the default flag inside one (owner, scope).
type DefaultScopeStore interface {
	// SetDefault flags entityID and clears every other active row of the scope
	// behind a scope-level lock. It fails with domain.ErrNotFound when the
	// entity is missing, inactive or belongs to another scope.
	SetDefault(ctx context.Context, scope domain.DefaultScope, entityID string, at time.Time) error
	// ClearDefault unflags every row of the scope.
	ClearDefault(ctx context.Context, scope domain.DefaultScope, at time.Time) error
}

// WishlistRepository persists wishlist entries. Reads only return active rows.
type WishlistRepository interface {
	// Add stores the entry, reviving a removed row for the same product. It
	// fails with domain.ErrDuplicateIdentifier while the product is still listed.
	Add(ctx context.Context, item domain.WishlistItem) (*domain.WishlistItem, error)
	GetByID(ctx context.Context, accountID, id string) (*domain.WishlistItem, error)
	// List orders by addedAt desc.
	List(ctx context.Context, accountID string, filter domain.WishlistFilter) ([]domain.WishlistItem, int, error)
	Update(ctx context.Context, item domain.WishlistItem) error
	Remove(ctx context.Context, accountID, id string, at time.Time) error
}
