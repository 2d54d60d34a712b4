package usecase

import (
	"context"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/logger"
)

// WishlistService manages the products an account saved for later.
type WishlistService struct {
	items     port.WishlistRepository
	sanitizer port.TextSanitizer
	now       func() time.Time
}

func NewWishlistService(items port.WishlistRepository, sanitizer port.TextSanitizer) *WishlistService {
	return &WishlistService{
		items:     items,
		sanitizer: sanitizer,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Add saves a product. A product already listed fails with
// ErrDuplicateIdentifier; a removed one comes back with the new notes and
// priority.
func (s *WishlistService) Add(ctx context.Context, accountID string, item domain.WishlistItem) (domain.WishlistItem, error) {
	now := s.now()
	item.ID = uuid.NewString()
	item.AccountID = accountID
	item.IsActive = true
	item.AddedAt = now
	item.CreatedAt = now
	item.UpdatedAt = now
	s.clean(&item)

	if err := item.Validate(); err != nil {
		return domain.WishlistItem{}, err
	}
	stored, err := s.items.Add(ctx, item)
	if err != nil {
		return domain.WishlistItem{}, err
	}
	logger.WithContext(ctx).Debug("wishlist item added",
		zap.String("account_id", accountID),
		zap.String("product_id", stored.ProductID),
	)
	return *stored, nil
}

// WishlistPage is one page of a listing plus its total.
type WishlistPage struct {
	Items []domain.WishlistItem
	Total int
	Limit int
	Skip  int
}

func (s *WishlistService) List(ctx context.Context, accountID string, filter domain.WishlistFilter) (WishlistPage, error) {
	filter.Normalize()
	if filter.Priority != nil {
		p := domain.WishlistPriority(strings.ToLower(strings.TrimSpace(string(*filter.Priority))))
		if !p.Valid() {
			return WishlistPage{}, domain.NewValidationError("priority", "priority must be low, medium or high", *filter.Priority)
		}
		filter.Priority = &p
	}
	items, total, err := s.items.List(ctx, accountID, filter)
	if err != nil {
		return WishlistPage{}, err
	}
	return WishlistPage{Items: items, Total: total, Limit: filter.Limit, Skip: filter.Skip}, nil
}

// WishlistPatch carries the editable fields; nil leaves a field unchanged.
type WishlistPatch struct {
	Notes    *string
	Priority *domain.WishlistPriority
}

func (s *WishlistService) Update(ctx context.Context, accountID, id string, patch WishlistPatch) (domain.WishlistItem, error) {
	current, err := s.items.GetByID(ctx, accountID, id)
	if err != nil {
		return domain.WishlistItem{}, err
	}

	next := *current
	if patch.Notes != nil {
		notes := *patch.Notes
		next.Notes = &notes
	}
	if patch.Priority != nil {
		next.Priority = *patch.Priority
	}
	next.UpdatedAt = s.now()
	s.clean(&next)

	if err := next.Validate(); err != nil {
		return domain.WishlistItem{}, err
	}
	if err := s.items.Update(ctx, next); err != nil {
		return domain.WishlistItem{}, err
	}
	return next, nil
}

// Remove deactivates the entry.
func (s *WishlistService) Remove(ctx context.Context, accountID, id string) error {
	return s.items.Remove(ctx, accountID, id, s.now())
}

func (s *WishlistService) clean(item *domain.WishlistItem) {
	if s.sanitizer != nil && item.Notes != nil {
		notes := s.sanitizer.Sanitize(*item.Notes)
		item.Notes = &notes
	}
	item.Normalize()
}
