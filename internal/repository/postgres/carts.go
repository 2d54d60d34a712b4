package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/repository"
)

var cartColumns = []string{
	"id",
	"account_id",
	"items",
	"coupons",
	"shipping_method_id",
	"shipping_cost",
	"subtotal",
	"total_discount",
	"total_tax",
	"total_amount",
	"item_count",
	"last_updated",
	"expires_at",
	"is_active",
	"version",
	"created_at",
	"updated_at",
}

// CartRepository implements port.CartRepository. Line items and coupons are
// stored as JSONB; the totals columns are a cache written with every save.
type CartRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

func NewCartRepository(exec pgExecutor) *CartRepository {
	return &CartRepository{exec: exec, builder: newBuilder()}
}

func (r *CartRepository) WithTx(tx pgx.Tx) *CartRepository {
	if tx == nil {
		return r
	}
	return &CartRepository{exec: tx, builder: r.builder}
}

func (r *CartRepository) Create(ctx context.Context, cart domain.Cart) error {
	items, coupons, err := encodeCartLines(cart)
	if err != nil {
		return err
	}

	stmt, args, err := r.builder.Insert("carts").
		Columns(cartColumns...).
		Values(
			cart.ID,
			cart.AccountID,
			items,
			coupons,
			nullable(cart.ShippingMethodID),
			cart.ShippingCost,
			cart.Subtotal,
			cart.TotalDiscount,
			cart.TotalTax,
			cart.TotalAmount,
			cart.ItemCount,
			cart.LastUpdated,
			cart.ExpiresAt,
			cart.IsActive,
			cart.Version,
			cart.CreatedAt,
			cart.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert cart sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return repository.Translate("insert cart", err)
	}
	return nil
}

func (r *CartRepository) GetByAccountID(ctx context.Context, accountID string) (*domain.Cart, error) {
	stmt, args, err := r.builder.Select(cartColumns...).
		From("carts").
		Where(squirrel.Eq{"account_id": accountID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select cart sql: %w", err)
	}

	cart, err := scanCart(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, repository.Translate("select cart", err)
	}
	return cart, nil
}

// Save is a compare-and-swap on the version column.
func (r *CartRepository) Save(ctx context.Context, cart domain.Cart) (int64, error) {
	items, coupons, err := encodeCartLines(cart)
	if err != nil {
		return 0, err
	}

	stmt, args, err := r.builder.Update("carts").
		Set("items", items).
		Set("coupons", coupons).
		Set("shipping_method_id", nullable(cart.ShippingMethodID)).
		Set("shipping_cost", cart.ShippingCost).
		Set("subtotal", cart.Subtotal).
		Set("total_discount", cart.TotalDiscount).
		Set("total_tax", cart.TotalTax).
		Set("total_amount", cart.TotalAmount).
		Set("item_count", cart.ItemCount).
		Set("last_updated", cart.LastUpdated).
		Set("expires_at", cart.ExpiresAt).
		Set("updated_at", cart.UpdatedAt).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": cart.ID, "version": cart.Version, "is_active": true}).
		Suffix("RETURNING version").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build save cart sql: %w", err)
	}

	var version int64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrVersionConflict
		}
		return 0, repository.Translate("save cart", err)
	}
	return version, nil
}

func (r *CartRepository) Deactivate(ctx context.Context, accountID string, at time.Time) error {
	stmt, args, err := r.builder.Update("carts").
		Set("is_active", false).
		Set("updated_at", at).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"account_id": accountID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build deactivate cart sql: %w", err)
	}
	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return repository.Translate("deactivate cart", err)
	}
	return nil
}

func (r *CartRepository) DeleteByAccountID(ctx context.Context, accountID string) error {
	stmt, args, err := r.builder.Delete("carts").Where(squirrel.Eq{"account_id": accountID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete cart sql: %w", err)
	}
	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return repository.Translate("delete cart", err)
	}
	return nil
}

func encodeCartLines(cart domain.Cart) ([]byte, []byte, error) {
	items := cart.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	coupons := cart.Coupons
	if coupons == nil {
		coupons = []domain.AppliedCoupon{}
	}

	rawItems, err := json.Marshal(items)
	if err != nil {
		return nil, nil, fmt.Errorf("encode cart items: %w", err)
	}
	rawCoupons, err := json.Marshal(coupons)
	if err != nil {
		return nil, nil, fmt.Errorf("encode cart coupons: %w", err)
	}
	return rawItems, rawCoupons, nil
}

func scanCart(row pgx.Row) (*domain.Cart, error) {
	var (
		cart           domain.Cart
		rawItems       []byte
		rawCoupons     []byte
		shippingMethod sql.NullString
	)

	if err := row.Scan(
		&cart.ID,
		&cart.AccountID,
		&rawItems,
		&rawCoupons,
		&shippingMethod,
		&cart.ShippingCost,
		&cart.Subtotal,
		&cart.TotalDiscount,
		&cart.TotalTax,
		&cart.TotalAmount,
		&cart.ItemCount,
		&cart.LastUpdated,
		&cart.ExpiresAt,
		&cart.IsActive,
		&cart.Version,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	); err != nil {
		return nil, err
	}

	cart.Items = []domain.CartItem{}
	if len(rawItems) > 0 {
		if err := json.Unmarshal(rawItems, &cart.Items); err != nil {
			return nil, fmt.Errorf("decode cart items: %w", err)
		}
	}
	cart.Coupons = []domain.AppliedCoupon{}
	if len(rawCoupons) > 0 {
		if err := json.Unmarshal(rawCoupons, &cart.Coupons); err != nil {
			return nil, fmt.Errorf("decode cart coupons: %w", err)
		}
	}
	cart.ShippingMethodID = stringPtr(shippingMethod)
	return &cart, nil
}

var _ port.CartRepository = (*CartRepository)(nil)
