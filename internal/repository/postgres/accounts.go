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

var accountColumns = []string{
	"id",
	"email",
	"password_hash",
	"first_name",
	"last_name",
	"phone",
	"date_of_birth",
	"gender",
	"role",
	"is_email_verified",
	"is_phone_verified",
	"is_active",
	"is_deleted",
	"total_orders",
	"total_spent",
	"last_order_date",
	"referral_code",
	"referred_by",
	"loyalty_points",
	"last_login",
	"login_attempts",
	"lock_until",
	"profile_image",
	"notes",
	"created_at",
	"updated_at",
}

// AccountRepository implements port.AccountRepository using PostgreSQL.
type AccountRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

func NewAccountRepository(exec pgExecutor) *AccountRepository {
	return &AccountRepository{exec: exec, builder: newBuilder()}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *AccountRepository) WithTx(tx pgx.Tx) *AccountRepository {
	if tx == nil {
		return r
	}
	return &AccountRepository{exec: tx, builder: r.builder}
}

func (r *AccountRepository) Create(ctx context.Context, account domain.Account) error {
	stmt, args, err := r.builder.Insert("accounts").
		Columns(
			"id",
			"email",
			"password_hash",
			"first_name",
			"last_name",
			"phone",
			"date_of_birth",
			"gender",
			"role",
			"is_active",
			"referral_code",
			"referred_by",
			"created_at",
			"updated_at",
		).
		Values(
			account.ID,
			account.Email,
			account.PasswordHash,
			account.FirstName,
			account.LastName,
			nullable(account.Phone),
			nullableTime(account.DateOfBirth),
			string(account.Gender),
			string(account.Role),
			account.IsActive,
			nullable(account.ReferralCode),
			nullable(account.ReferredBy),
			account.CreatedAt,
			account.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert account sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return repository.Translate("insert account", err)
	}
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	stmt, args, err := r.builder.Select(accountColumns...).
		From("accounts").
		Where(squirrel.Eq{"id": id, "is_deleted": false}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account sql: %w", err)
	}

	account, err := scanAccount(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, repository.Translate("select account", err)
	}
	return account, nil
}

// FindActiveByIdentifier matches the email case-insensitively among rows
// that are not soft-deleted. Disabled accounts are returned so the caller
// can tell them apart from unknown ones.
func (r *AccountRepository) FindActiveByIdentifier(ctx context.Context, email string) (*domain.Account, error) {
	stmt, args, err := r.builder.Select(accountColumns...).
		From("accounts").
		Where(squirrel.Expr("LOWER(email) = ?", domain.NormalizeEmail(email))).
		Where(squirrel.Eq{"is_deleted": false}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account by email sql: %w", err)
	}

	account, err := scanAccount(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, repository.Translate("select account by email", err)
	}
	return account, nil
}

func (r *AccountRepository) ExistsByIdentifier(ctx context.Context, email string) (bool, error) {
	const stmt = `SELECT EXISTS (SELECT 1 FROM accounts WHERE LOWER(email) = $1 AND NOT is_deleted)`

	var found bool
	if err := r.exec.QueryRow(ctx, stmt, domain.NormalizeEmail(email)).Scan(&found); err != nil {
		return false, repository.Translate("check account exists", err)
	}
	return found, nil
}

func (r *AccountRepository) List(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error) {
	query := r.builder.Select(accountColumns...).
		From("accounts").
		Where(squirrel.Eq{"is_deleted": false}).
		OrderBy("created_at DESC")
	if filter.ActiveOnly {
		query = query.Where(squirrel.Eq{"is_active": true})
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list accounts sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, repository.Translate("list accounts", err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, repository.Translate("scan account", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.Translate("iterate accounts", err)
	}
	return accounts, nil
}

// UpdateProfile writes only the fields present in patch and returns the
// stored row.
func (r *AccountRepository) UpdateProfile(ctx context.Context, id string, patch domain.ProfilePatch, at time.Time) (*domain.Account, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}

	query := r.builder.Update("accounts").Set("updated_at", at)
	if patch.FirstName != nil {
		query = query.Set("first_name", *patch.FirstName)
	}
	if patch.LastName != nil {
		query = query.Set("last_name", *patch.LastName)
	}
	if patch.Phone != nil {
		query = query.Set("phone", nullable(patch.Phone))
	}
	if patch.DateOfBirth != nil {
		query = query.Set("date_of_birth", *patch.DateOfBirth)
	}
	if patch.Gender != nil {
		query = query.Set("gender", string(*patch.Gender))
	}
	if patch.Notes != nil {
		query = query.Set("notes", nullable(patch.Notes))
	}
	if patch.ProfileImage != nil {
		query = query.Set("profile_image", nullable(patch.ProfileImage))
	}

	stmt, args, err := query.
		Where(squirrel.Eq{"id": id, "is_deleted": false}).
		Suffix("RETURNING " + joinColumns(accountColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update account profile sql: %w", err)
	}

	account, err := scanAccount(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, repository.Translate("update account profile", err)
	}
	return account, nil
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id string, passwordHash string, at time.Time) error {
	stmt, args, err := r.builder.Update("accounts").
		Set("password_hash", passwordHash).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id, "is_deleted": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update password sql: %w", err)
	}
	return execAffectingOne(ctx, r.exec, "update password", stmt, args)
}

func (r *AccountRepository) RecordLogin(ctx context.Context, id string, at time.Time) error {
	stmt, args, err := r.builder.Update("accounts").
		Set("last_login", at).
		Set("login_attempts", 0).
		Set("lock_until", nil).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build record login sql: %w", err)
	}
	return execAffectingOne(ctx, r.exec, "record login", stmt, args)
}

// RecordFailedLogin restarts the counter when a previous lock has expired.
// Every SET expression reads the pre-update row.
func (r *AccountRepository) RecordFailedLogin(ctx context.Context, id string, maxAttempts int, lockUntil time.Time, at time.Time) (int, error) {
	stmt, args, err := r.builder.Update("accounts").
		Set("login_attempts", squirrel.Expr(
			"CASE WHEN lock_until IS NOT NULL AND lock_until < ? THEN 1 ELSE login_attempts + 1 END", at)).
		Set("lock_until", squirrel.Expr(
			"CASE WHEN lock_until IS NOT NULL AND lock_until < ? THEN NULL "+
				"WHEN ?::int > 0 AND login_attempts + 1 >= ?::int THEN ?::timestamptz "+
				"ELSE lock_until END", at, maxAttempts, maxAttempts, lockUntil)).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING login_attempts").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build record failed login sql: %w", err)
	}

	var attempts int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&attempts); err != nil {
		return 0, repository.Translate("record failed login", err)
	}
	return attempts, nil
}

// Disable is terminal: the row becomes inactive and soft-deleted, which also
// releases the email for a new registration. Repeating it is a no-op success.
func (r *AccountRepository) Disable(ctx context.Context, id string, at time.Time) error {
	stmt, args, err := r.builder.Update("accounts").
		Set("is_active", false).
		Set("is_deleted", true).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build disable account sql: %w", err)
	}
	return execAffectingOne(ctx, r.exec, "disable account", stmt, args)
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete("accounts").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete account sql: %w", err)
	}
	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return repository.Translate("delete account", err)
	}
	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account       domain.Account
		phone         sql.NullString
		dateOfBirth   sql.NullTime
		gender        string
		role          string
		lastOrderDate sql.NullTime
		referralCode  sql.NullString
		referredBy    sql.NullString
		lastLogin     sql.NullTime
		lockUntil     sql.NullTime
		profileImage  sql.NullString
		notes         sql.NullString
	)

	if err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.FirstName,
		&account.LastName,
		&phone,
		&dateOfBirth,
		&gender,
		&role,
		&account.IsEmailVerified,
		&account.IsPhoneVerified,
		&account.IsActive,
		&account.IsDeleted,
		&account.TotalOrders,
		&account.TotalSpent,
		&lastOrderDate,
		&referralCode,
		&referredBy,
		&account.LoyaltyPoints,
		&lastLogin,
		&account.LoginAttempts,
		&lockUntil,
		&profileImage,
		&notes,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}

	account.Phone = stringPtr(phone)
	account.DateOfBirth = timePtr(dateOfBirth)
	account.Gender = domain.Gender(gender)
	account.Role = domain.Role(role)
	account.LastOrderDate = timePtr(lastOrderDate)
	account.ReferralCode = stringPtr(referralCode)
	account.ReferredBy = stringPtr(referredBy)
	account.LastLogin = timePtr(lastLogin)
	account.LockUntil = timePtr(lockUntil)
	account.ProfileImage = stringPtr(profileImage)
	account.Notes = stringPtr(notes)
	return &account, nil
}

var _ port.AccountRepository = (*AccountRepository)(nil)
