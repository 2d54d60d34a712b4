package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/repository"
)

var wishlistColumns = []string{
	"id",
	"account_id",
	"product_id",
	"notes",
	"priority",
	"is_active",
	"added_at",
	"created_at",
	"updated_at",
}

// reviveWishlistItem only touches a conflicting row that was removed, so an
// active duplicate returns no row.
const reviveWishlistItem = `ON CONFLICT (account_id, product_id) DO UPDATE SET
	notes = EXCLUDED.notes,
	priority = EXCLUDED.priority,
	is_active = TRUE,
	added_at = EXCLUDED.added_at,
	updated_at = EXCLUDED.updated_at
WHERE wishlist_items.is_active = FALSE
RETURNING `

// WishlistRepository implements port.WishlistRepository.
type WishlistRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

func NewWishlistRepository(exec pgExecutor) *WishlistRepository {
	return &WishlistRepository{exec: exec, builder: newBuilder()}
}

func (r *WishlistRepository) Add(ctx context.Context, w domain.WishlistItem) (*domain.WishlistItem, error) {
	stmt, args, err := r.builder.Insert("wishlist_items").
		Columns(wishlistColumns...).
		Values(
			w.ID,
			w.AccountID,
			w.ProductID,
			nullable(w.Notes),
			string(w.Priority),
			true,
			w.AddedAt,
			w.CreatedAt,
			w.UpdatedAt,
		).
		Suffix(reviveWishlistItem + strings.Join(wishlistColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert wishlist item sql: %w", err)
	}

	stored, err := scanWishlistItem(r.exec.QueryRow(ctx, stmt, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDuplicateIdentifier
	}
	if err != nil {
		return nil, repository.Translate("insert wishlist item", err)
	}
	return stored, nil
}

func (r *WishlistRepository) GetByID(ctx context.Context, accountID, id string) (*domain.WishlistItem, error) {
	stmt, args, err := r.builder.Select(wishlistColumns...).
		From("wishlist_items").
		Where(squirrel.Eq{"id": id, "account_id": accountID, "is_active": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get wishlist item sql: %w", err)
	}

	w, err := scanWishlistItem(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, repository.Translate("get wishlist item", err)
	}
	return w, nil
}

// List returns one page and the total number of matching rows.
func (r *WishlistRepository) List(ctx context.Context, accountID string, filter domain.WishlistFilter) ([]domain.WishlistItem, int, error) {
	filter.Normalize()

	where := squirrel.Eq{"account_id": accountID, "is_active": true}
	if filter.Priority != nil {
		where["priority"] = string(*filter.Priority)
	}

	countStmt, countArgs, err := r.builder.Select("COUNT(*)").From("wishlist_items").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count wishlist sql: %w", err)
	}

	var total int
	if err := r.exec.QueryRow(ctx, countStmt, countArgs...).Scan(&total); err != nil {
		return nil, 0, repository.Translate("count wishlist items", err)
	}

	stmt, args, err := r.builder.Select(wishlistColumns...).
		From("wishlist_items").
		Where(where).
		OrderBy("added_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Skip)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list wishlist sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, 0, repository.Translate("list wishlist items", err)
	}
	defer rows.Close()

	items := make([]domain.WishlistItem, 0, filter.Limit)
	for rows.Next() {
		w, err := scanWishlistItem(rows)
		if err != nil {
			return nil, 0, repository.Translate("scan wishlist item", err)
		}
		items = append(items, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, repository.Translate("iterate wishlist items", err)
	}
	return items, total, nil
}

func (r *WishlistRepository) Update(ctx context.Context, w domain.WishlistItem) error {
	stmt, args, err := r.builder.Update("wishlist_items").
		Set("notes", nullable(w.Notes)).
		Set("priority", string(w.Priority)).
		Set("updated_at", w.UpdatedAt).
		Where(squirrel.Eq{"id": w.ID, "account_id": w.AccountID, "is_active": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update wishlist item sql: %w", err)
	}
	return execAffectingOne(ctx, r.exec, "update wishlist item", stmt, args)
}

func (r *WishlistRepository) Remove(ctx context.Context, accountID, id string, at time.Time) error {
	stmt, args, err := r.builder.Update("wishlist_items").
		Set("is_active", false).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id, "account_id": accountID, "is_active": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build remove wishlist item sql: %w", err)
	}
	return execAffectingOne(ctx, r.exec, "remove wishlist item", stmt, args)
}

func scanWishlistItem(row pgx.Row) (*domain.WishlistItem, error) {
	var (
		w        domain.WishlistItem
		notes    sql.NullString
		priority string
	)
	if err := row.Scan(
		&w.ID,
		&w.AccountID,
		&w.ProductID,
		&notes,
		&priority,
		&w.IsActive,
		&w.AddedAt,
		&w.CreatedAt,
		&w.UpdatedAt,
	); err != nil {
		return nil, err
	}
	w.Notes = stringPtr(notes)
	w.Priority = domain.WishlistPriority(priority)
	return &w, nil
}

var _ port.WishlistRepository = (*WishlistRepository)(nil)
