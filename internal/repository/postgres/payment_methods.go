package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/repository"
)

var paymentMethodColumns = []string{
	"id",
	"account_id",
	"type",
	"last_four",
	"brand",
	"expiry_month",
	"expiry_year",
	"paypal_email",
	"bank_name",
	"account_type",
	"routing_number",
	"crypto_address",
	"crypto_type",
	"is_default",
	"is_active",
	"nickname",
	"token_id",
	"fingerprint",
	"added_at",
	"last_used",
	"usage_count",
	"created_at",
	"updated_at",
}

// PaymentMethodRepository implements port.PaymentMethodRepository.
type PaymentMethodRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

func NewPaymentMethodRepository(exec pgExecutor) *PaymentMethodRepository {
	return &PaymentMethodRepository{exec: exec, builder: newBuilder()}
}

func (r *PaymentMethodRepository) WithTx(tx pgx.Tx) *PaymentMethodRepository {
	if tx == nil {
		return r
	}
	return &PaymentMethodRepository{exec: tx, builder: r.builder}
}

func (r *PaymentMethodRepository) Create(ctx context.Context, m domain.PaymentMethod) error {
	stmt, args, err := r.builder.Insert("payment_methods").
		Columns(paymentMethodColumns...).
		Values(
			m.ID,
			m.AccountID,
			string(m.Type),
			nullable(m.LastFour),
			nullable(m.Brand),
			nullableInt(m.ExpiryMonth),
			nullableInt(m.ExpiryYear),
			nullable(m.PayPalEmail),
			nullable(m.BankName),
			nullable(m.AccountType),
			nullable(m.RoutingNumber),
			nullable(m.CryptoAddress),
			nullable(m.CryptoType),
			false,
			m.IsActive,
			nullable(m.Nickname),
			nullable(m.TokenID),
			nullable(m.Fingerprint),
			m.AddedAt,
			nullableTime(m.LastUsed),
			m.UsageCount,
			m.CreatedAt,
			m.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert payment method sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return repository.Translate("insert payment method", err)
	}
	return nil
}

func (r *PaymentMethodRepository) GetByID(ctx context.Context, accountID, id string) (*domain.PaymentMethod, error) {
	stmt, args, err := r.builder.Select(paymentMethodColumns...).
		From("payment_methods").
		Where(squirrel.Eq{"id": id, "account_id": accountID, "is_active": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select payment method sql: %w", err)
	}

	method, err := scanPaymentMethod(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, repository.Translate("select payment method", err)
	}
	return method, nil
}

func (r *PaymentMethodRepository) List(ctx context.Context, accountID string) ([]domain.PaymentMethod, error) {
	stmt, args, err := r.builder.Select(paymentMethodColumns...).
		From("payment_methods").
		Where(squirrel.Eq{"account_id": accountID, "is_active": true}).
		OrderBy("is_default DESC", "last_used DESC NULLS LAST", "added_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list payment methods sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, repository.Translate("list payment methods", err)
	}
	defer rows.Close()

	methods := make([]domain.PaymentMethod, 0)
	for rows.Next() {
		method, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, repository.Translate("scan payment method", err)
		}
		methods = append(methods, *method)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.Translate("iterate payment methods", err)
	}
	return methods, nil
}

func (r *PaymentMethodRepository) GetDefault(ctx context.Context, accountID string) (*domain.PaymentMethod, error) {
	stmt, args, err := r.builder.Select(paymentMethodColumns...).
		From("payment_methods").
		Where(squirrel.Eq{"account_id": accountID, "is_default": true, "is_active": true}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select default payment method sql: %w", err)
	}

	method, err := scanPaymentMethod(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, repository.Translate("select default payment method", err)
	}
	return method, nil
}

// Update rewrites the descriptive fields. The kind is fixed at creation.
func (r *PaymentMethodRepository) Update(ctx context.Context, m domain.PaymentMethod) error {
	stmt, args, err := r.builder.Update("payment_methods").
		Set("last_four", nullable(m.LastFour)).
		Set("brand", nullable(m.Brand)).
		Set("expiry_month", nullableInt(m.ExpiryMonth)).
		Set("expiry_year", nullableInt(m.ExpiryYear)).
		Set("paypal_email", nullable(m.PayPalEmail)).
		Set("bank_name", nullable(m.BankName)).
		Set("account_type", nullable(m.AccountType)).
		Set("routing_number", nullable(m.RoutingNumber)).
		Set("crypto_address", nullable(m.CryptoAddress)).
		Set("crypto_type", nullable(m.CryptoType)).
		Set("nickname", nullable(m.Nickname)).
		Set("updated_at", m.UpdatedAt).
		Where(squirrel.Eq{"id": m.ID, "account_id": m.AccountID, "is_active": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update payment method sql: %w", err)
	}
	return execAffectingOne(ctx, r.exec, "update payment method", stmt, args)
}

func (r *PaymentMethodRepository) MarkUsed(ctx context.Context, accountID, id string, at time.Time) error {
	stmt, args, err := r.builder.Update("payment_methods").
		Set("last_used", at).
		Set("usage_count", squirrel.Expr("usage_count + 1")).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id, "account_id": accountID, "is_active": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark payment method used sql: %w", err)
	}
	return execAffectingOne(ctx, r.exec, "mark payment method used", stmt, args)
}

func (r *PaymentMethodRepository) Deactivate(ctx context.Context, accountID, id string, at time.Time) error {
	stmt, args, err := r.builder.Update("payment_methods").
		Set("is_active", false).
		Set("is_default", false).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id, "account_id": accountID, "is_active": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build deactivate payment method sql: %w", err)
	}
	return execAffectingOne(ctx, r.exec, "deactivate payment method", stmt, args)
}

func scanPaymentMethod(row pgx.Row) (*domain.PaymentMethod, error) {
	var (
		m             domain.PaymentMethod
		kind          string
		lastFour      sql.NullString
		brand         sql.NullString
		expiryMonth   sql.NullInt32
		expiryYear    sql.NullInt32
		paypalEmail   sql.NullString
		bankName      sql.NullString
		accountType   sql.NullString
		routingNumber sql.NullString
		cryptoAddress sql.NullString
		cryptoType    sql.NullString
		nickname      sql.NullString
		tokenID       sql.NullString
		fingerprint   sql.NullString
		lastUsed      sql.NullTime
	)

	if err := row.Scan(
		&m.ID,
		&m.AccountID,
		&kind,
		&lastFour,
		&brand,
		&expiryMonth,
		&expiryYear,
		&paypalEmail,
		&bankName,
		&accountType,
		&routingNumber,
		&cryptoAddress,
		&cryptoType,
		&m.IsDefault,
		&m.IsActive,
		&nickname,
		&tokenID,
		&fingerprint,
		&m.AddedAt,
		&lastUsed,
		&m.UsageCount,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}

	m.Type = domain.PaymentKind(kind)
	m.LastFour = stringPtr(lastFour)
	m.Brand = stringPtr(brand)
	m.ExpiryMonth = intPtr(expiryMonth)
	m.ExpiryYear = intPtr(expiryYear)
	m.PayPalEmail = stringPtr(paypalEmail)
	m.BankName = stringPtr(bankName)
	m.AccountType = stringPtr(accountType)
	m.RoutingNumber = stringPtr(routingNumber)
	m.CryptoAddress = stringPtr(cryptoAddress)
	m.CryptoType = stringPtr(cryptoType)
	m.Nickname = stringPtr(nickname)
	m.TokenID = stringPtr(tokenID)
	m.Fingerprint = stringPtr(fingerprint)
	m.LastUsed = timePtr(lastUsed)
	return &m, nil
}

var _ port.PaymentMethodRepository = (*PaymentMethodRepository)(nil)
