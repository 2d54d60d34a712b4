package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/repository"
)

var preferenceColumns = []string{
	"id",
	"account_id",
	"currency",
	"language",
	"timezone",
	"date_format",
	"newsletter",
	"sms_notifications",
	"email_notifications",
	"push_notifications",
	"marketing_emails",
	"order_updates",
	"price_alerts",
	"stock_notifications",
	"theme",
	"items_per_page",
	"created_at",
	"updated_at",
}

// PreferencesRepository implements port.PreferencesRepository using PostgreSQL.
type PreferencesRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

func NewPreferencesRepository(exec pgExecutor) *PreferencesRepository {
	return &PreferencesRepository{exec: exec, builder: newBuilder()}
}

func (r *PreferencesRepository) WithTx(tx pgx.Tx) *PreferencesRepository {
	if tx == nil {
		return r
	}
	return &PreferencesRepository{exec: tx, builder: r.builder}
}

func (r *PreferencesRepository) Create(ctx context.Context, p domain.Preferences) error {
	stmt, args, err := r.builder.Insert("preferences").
		Columns(preferenceColumns...).
		Values(
			p.ID,
			p.AccountID,
			p.Currency,
			p.Language,
			p.Timezone,
			p.DateFormat,
			p.Newsletter,
			p.SMSNotifications,
			p.EmailNotifications,
			p.PushNotifications,
			p.MarketingEmails,
			p.OrderUpdates,
			p.PriceAlerts,
			p.StockNotifications,
			p.Theme,
			p.ItemsPerPage,
			p.CreatedAt,
			p.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert preferences sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return repository.Translate("insert preferences", err)
	}
	return nil
}

func (r *PreferencesRepository) GetByAccountID(ctx context.Context, accountID string) (*domain.Preferences, error) {
	stmt, args, err := r.builder.Select(preferenceColumns...).
		From("preferences").
		Where(squirrel.Eq{"account_id": accountID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select preferences sql: %w", err)
	}

	var p domain.Preferences
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&p.ID,
		&p.AccountID,
		&p.Currency,
		&p.Language,
		&p.Timezone,
		&p.DateFormat,
		&p.Newsletter,
		&p.SMSNotifications,
		&p.EmailNotifications,
		&p.PushNotifications,
		&p.MarketingEmails,
		&p.OrderUpdates,
		&p.PriceAlerts,
		&p.StockNotifications,
		&p.Theme,
		&p.ItemsPerPage,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, repository.Translate("select preferences", err)
	}
	return &p, nil
}

func (r *PreferencesRepository) Update(ctx context.Context, p domain.Preferences) error {
	stmt, args, err := r.builder.Update("preferences").
		SetMap(map[string]any{
			"currency":            p.Currency,
			"language":            p.Language,
			"timezone":            p.Timezone,
			"date_format":         p.DateFormat,
			"newsletter":          p.Newsletter,
			"sms_notifications":   p.SMSNotifications,
			"email_notifications": p.EmailNotifications,
			"push_notifications":  p.PushNotifications,
			"marketing_emails":    p.MarketingEmails,
			"order_updates":       p.OrderUpdates,
			"price_alerts":        p.PriceAlerts,
			"stock_notifications": p.StockNotifications,
			"theme":               p.Theme,
			"items_per_page":      p.ItemsPerPage,
			"updated_at":          p.UpdatedAt,
		}).
		Where(squirrel.Eq{"account_id": p.AccountID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update preferences sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return repository.Translate("update preferences", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PreferencesRepository) DeleteByAccountID(ctx context.Context, accountID string) error {
	stmt, args, err := r.builder.Delete("preferences").Where(squirrel.Eq{"account_id": accountID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete preferences sql: %w", err)
	}
	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return repository.Translate("delete preferences", err)
	}
	return nil
}

var _ port.PreferencesRepository = (*PreferencesRepository)(nil)
