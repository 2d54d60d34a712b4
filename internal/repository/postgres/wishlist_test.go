package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
)

func wishlistItem(now time.Time) domain.WishlistItem {
	return domain.WishlistItem{
		ID:        "w-new",
		AccountID: "acc-1",
		ProductID: "p-1",
		Priority:  domain.WishlistHigh,
		IsActive:  true,
		AddedAt:   now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestWishlistRepository_AddRevivesRemovedRow(t *testing.T) {
	mock := newMockPool(t)
	repo := NewWishlistRepository(mock)
	now := time.Now().UTC()
	created := now.Add(-48 * time.Hour)

	mock.ExpectQuery(`(?s)INSERT INTO wishlist_items .* ON CONFLICT \(account_id, product_id\) DO UPDATE SET .* WHERE wishlist_items.is_active = FALSE RETURNING id`).
		WillReturnRows(pgxmock.NewRows(wishlistColumns).AddRow(
			"w-old", "acc-1", "p-1", nil, "high", true, now, created, now,
		))

	stored, err := repo.Add(context.Background(), wishlistItem(now))
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if stored.ID != "w-old" || !stored.CreatedAt.Equal(created) {
		t.Fatalf("expected the revived row, got %+v", stored)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestWishlistRepository_AddRejectsListedProduct(t *testing.T) {
	mock := newMockPool(t)
	repo := NewWishlistRepository(mock)

	mock.ExpectQuery(`INSERT INTO wishlist_items`).WillReturnError(pgx.ErrNoRows)

	if _, err := repo.Add(context.Background(), wishlistItem(time.Now())); !errors.Is(err, domain.ErrDuplicateIdentifier) {
		t.Fatalf("expected ErrDuplicateIdentifier, got %v", err)
	}
}

func TestWishlistRepository_ListFiltersByPriority(t *testing.T) {
	mock := newMockPool(t)
	repo := NewWishlistRepository(mock)
	now := time.Now().UTC()
	high := domain.WishlistHigh

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM wishlist_items WHERE`).
		WithArgs("acc-1", true, "high").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT .* FROM wishlist_items WHERE .* ORDER BY added_at DESC LIMIT 20 OFFSET 0`).
		WillReturnRows(pgxmock.NewRows(wishlistColumns).AddRow(
			"w-1", "acc-1", "p-1", "gift for Ada", "high", true, now, now, now,
		))

	items, total, err := repo.List(context.Background(), "acc-1", domain.WishlistFilter{Priority: &high})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 3 || len(items) != 1 {
		t.Fatalf("unexpected result: total=%d items=%d", total, len(items))
	}
	if items[0].Notes == nil || *items[0].Notes != "gift for Ada" || items[0].Priority != domain.WishlistHigh {
		t.Fatalf("unexpected item: %+v", items[0])
	}
}

func TestWishlistRepository_RemoveMissingIsNotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewWishlistRepository(mock)

	mock.ExpectExec(`UPDATE wishlist_items SET is_active = \$1`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.Remove(context.Background(), "acc-1", "w-1", time.Now()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
