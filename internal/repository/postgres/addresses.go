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

var addressColumns = []string{
	"id",
	"account_id",
	"type",
	"first_name",
	"last_name",
	"company",
	"phone",
	"street",
	"street2",
	"city",
	"state",
	"postal_code",
	"country",
	"country_code",
	"is_default",
	"is_active",
	"instructions",
	"latitude",
	"longitude",
	"is_verified",
	"verification_date",
	"last_used",
	"usage_count",
	"tags",
	"created_at",
	"updated_at",
}

// AddressRepository implements port.AddressRepository. The is_default flag
// is only written by DefaultScopeStore and Deactivate.
type AddressRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

func NewAddressRepository(exec pgExecutor) *AddressRepository {
	return &AddressRepository{exec: exec, builder: newBuilder()}
}

func (r *AddressRepository) WithTx(tx pgx.Tx) *AddressRepository {
	if tx == nil {
		return r
	}
	return &AddressRepository{exec: tx, builder: r.builder}
}

func (r *AddressRepository) Create(ctx context.Context, a domain.Address) error {
	lat, lng := coordinateArgs(a.Coordinates)
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}

	stmt, args, err := r.builder.Insert("addresses").
		Columns(addressColumns...).
		Values(
			a.ID,
			a.AccountID,
			string(a.Type),
			a.FirstName,
			a.LastName,
			nullable(a.Company),
			nullable(a.Phone),
			a.Street,
			nullable(a.Street2),
			a.City,
			a.State,
			a.PostalCode,
			a.Country,
			a.CountryCode,
			false,
			a.IsActive,
			nullable(a.Instructions),
			lat,
			lng,
			a.IsVerified,
			nullableTime(a.VerificationDate),
			nullableTime(a.LastUsed),
			a.UsageCount,
			tags,
			a.CreatedAt,
			a.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert address sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return repository.Translate("insert address", err)
	}
	return nil
}

func (r *AddressRepository) GetByID(ctx context.Context, accountID, id string) (*domain.Address, error) {
	stmt, args, err := r.builder.Select(addressColumns...).
		From("addresses").
		Where(squirrel.Eq{"id": id, "account_id": accountID, "is_active": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select address sql: %w", err)
	}

	address, err := scanAddress(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, repository.Translate("select address", err)
	}
	return address, nil
}

func (r *AddressRepository) List(ctx context.Context, accountID string, addressType *domain.AddressType) ([]domain.Address, error) {
	query := r.builder.Select(addressColumns...).
		From("addresses").
		Where(squirrel.Eq{"account_id": accountID, "is_active": true}).
		OrderBy("is_default DESC", "last_used DESC NULLS LAST", "created_at DESC")
	if addressType != nil {
		query = query.Where(squirrel.Eq{"type": string(*addressType)})
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list addresses sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, repository.Translate("list addresses", err)
	}
	defer rows.Close()

	addresses := make([]domain.Address, 0)
	for rows.Next() {
		address, err := scanAddress(rows)
		if err != nil {
			return nil, repository.Translate("scan address", err)
		}
		addresses = append(addresses, *address)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.Translate("iterate addresses", err)
	}
	return addresses, nil
}

func (r *AddressRepository) GetDefault(ctx context.Context, accountID string, addressType domain.AddressType) (*domain.Address, error) {
	stmt, args, err := r.builder.Select(addressColumns...).
		From("addresses").
		Where(squirrel.Eq{
			"account_id": accountID,
			"type":       string(addressType),
			"is_default": true,
			"is_active":  true,
		}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select default address sql: %w", err)
	}

	address, err := scanAddress(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, repository.Translate("select default address", err)
	}
	return address, nil
}

// Update rewrites the editable fields. Changing the type of a default
// address drops its default flag because the flag belongs to the old scope.
func (r *AddressRepository) Update(ctx context.Context, a domain.Address) error {
	lat, lng := coordinateArgs(a.Coordinates)
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}

	stmt, args, err := r.builder.Update("addresses").
		Set("is_default", squirrel.Expr("is_default AND type = ?", string(a.Type))).
		Set("type", string(a.Type)).
		Set("first_name", a.FirstName).
		Set("last_name", a.LastName).
		Set("company", nullable(a.Company)).
		Set("phone", nullable(a.Phone)).
		Set("street", a.Street).
		Set("street2", nullable(a.Street2)).
		Set("city", a.City).
		Set("state", a.State).
		Set("postal_code", a.PostalCode).
		Set("country", a.Country).
		Set("country_code", a.CountryCode).
		Set("instructions", nullable(a.Instructions)).
		Set("latitude", lat).
		Set("longitude", lng).
		Set("tags", tags).
		Set("updated_at", a.UpdatedAt).
		Where(squirrel.Eq{"id": a.ID, "account_id": a.AccountID, "is_active": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update address sql: %w", err)
	}
	return execAffectingOne(ctx, r.exec, "update address", stmt, args)
}

func (r *AddressRepository) MarkUsed(ctx context.Context, accountID, id string, at time.Time) error {
	stmt, args, err := r.builder.Update("addresses").
		Set("last_used", at).
		Set("usage_count", squirrel.Expr("usage_count + 1")).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id, "account_id": accountID, "is_active": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark address used sql: %w", err)
	}
	return execAffectingOne(ctx, r.exec, "mark address used", stmt, args)
}

// Deactivate soft-deletes the row and clears its default flag. No other
// address is promoted.
func (r *AddressRepository) Deactivate(ctx context.Context, accountID, id string, at time.Time) error {
	stmt, args, err := r.builder.Update("addresses").
		Set("is_active", false).
		Set("is_default", false).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id, "account_id": accountID, "is_active": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build deactivate address sql: %w", err)
	}
	return execAffectingOne(ctx, r.exec, "deactivate address", stmt, args)
}

func coordinateArgs(c *domain.Coordinates) (any, any) {
	if c == nil {
		return nil, nil
	}
	return c.Latitude, c.Longitude
}

func scanAddress(row pgx.Row) (*domain.Address, error) {
	var (
		a                domain.Address
		addressType      string
		company          sql.NullString
		phone            sql.NullString
		street2          sql.NullString
		instructions     sql.NullString
		latitude         sql.NullFloat64
		longitude        sql.NullFloat64
		verificationDate sql.NullTime
		lastUsed         sql.NullTime
	)

	if err := row.Scan(
		&a.ID,
		&a.AccountID,
		&addressType,
		&a.FirstName,
		&a.LastName,
		&company,
		&phone,
		&a.Street,
		&street2,
		&a.City,
		&a.State,
		&a.PostalCode,
		&a.Country,
		&a.CountryCode,
		&a.IsDefault,
		&a.IsActive,
		&instructions,
		&latitude,
		&longitude,
		&a.IsVerified,
		&verificationDate,
		&lastUsed,
		&a.UsageCount,
		&a.Tags,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}

	a.Type = domain.AddressType(addressType)
	a.Company = stringPtr(company)
	a.Phone = stringPtr(phone)
	a.Street2 = stringPtr(street2)
	a.Instructions = stringPtr(instructions)
	if latitude.Valid && longitude.Valid {
		a.Coordinates = &domain.Coordinates{Latitude: latitude.Float64, Longitude: longitude.Float64}
	}
	a.VerificationDate = timePtr(verificationDate)
	a.LastUsed = timePtr(lastUsed)
	return &a, nil
}

var _ port.AddressRepository = (*AddressRepository)(nil)
