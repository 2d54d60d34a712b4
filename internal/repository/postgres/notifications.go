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

var notificationColumns = []string{
	"id",
	"account_id",
	"title",
	"message",
	"type",
	"auction_id",
	"bid_id",
	"is_read",
	"read_at",
	"delivery_method",
	"is_delivered",
	"delivered_at",
	"priority",
	"is_urgent",
	"action_url",
	"action_text",
	"expires_at",
	"is_deleted",
	"created_at",
	"updated_at",
}

// NotificationRepository implements port.NotificationRepository.
type NotificationRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

func NewNotificationRepository(exec pgExecutor) *NotificationRepository {
	return &NotificationRepository{exec: exec, builder: newBuilder()}
}

func (r *NotificationRepository) Create(ctx context.Context, n domain.Notification) error {
	stmt, args, err := r.builder.Insert("notifications").
		Columns(notificationColumns...).
		Values(
			n.ID,
			n.AccountID,
			n.Title,
			n.Message,
			string(n.Type),
			nullable(n.AuctionID),
			nullable(n.BidID),
			n.IsRead,
			nullableTime(n.ReadAt),
			n.DeliveryMethod,
			n.IsDelivered,
			nullableTime(n.DeliveredAt),
			n.Priority,
			n.IsUrgent,
			nullable(n.ActionURL),
			nullable(n.ActionText),
			n.ExpiresAt,
			false,
			n.CreatedAt,
			n.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert notification sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return repository.Translate("insert notification", err)
	}
	return nil
}

func visibleNotifications(accountID string, now time.Time) squirrel.Sqlizer {
	return squirrel.And{
		squirrel.Eq{"account_id": accountID, "is_deleted": false},
		squirrel.Gt{"expires_at": now},
	}
}

// List returns one page and the total number of matching rows.
func (r *NotificationRepository) List(ctx context.Context, accountID string, filter domain.NotificationFilter, now time.Time) ([]domain.Notification, int, error) {
	filter.Normalize()

	where := squirrel.And{visibleNotifications(accountID, now)}
	if filter.Type != nil {
		where = append(where, squirrel.Eq{"type": string(*filter.Type)})
	}
	if filter.IsRead != nil {
		where = append(where, squirrel.Eq{"is_read": *filter.IsRead})
	}
	if filter.Priority != nil {
		where = append(where, squirrel.Eq{"priority": *filter.Priority})
	}

	countStmt, countArgs, err := r.builder.Select("COUNT(*)").From("notifications").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count notifications sql: %w", err)
	}

	var total int
	if err := r.exec.QueryRow(ctx, countStmt, countArgs...).Scan(&total); err != nil {
		return nil, 0, repository.Translate("count notifications", err)
	}

	stmt, args, err := r.builder.Select(notificationColumns...).
		From("notifications").
		Where(where).
		OrderBy("created_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Skip)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list notifications sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, 0, repository.Translate("list notifications", err)
	}
	defer rows.Close()

	notifications := make([]domain.Notification, 0, filter.Limit)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, repository.Translate("scan notification", err)
		}
		notifications = append(notifications, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, repository.Translate("iterate notifications", err)
	}
	return notifications, total, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, accountID string, now time.Time) (int, error) {
	stmt, args, err := r.builder.Select("COUNT(*)").
		From("notifications").
		Where(visibleNotifications(accountID, now)).
		Where(squirrel.Eq{"is_read": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count unread sql: %w", err)
	}

	var count int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, repository.Translate("count unread notifications", err)
	}
	return count, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, accountID, id string, at time.Time) error {
	stmt, args, err := r.builder.Update("notifications").
		Set("is_read", true).
		Set("read_at", squirrel.Expr("COALESCE(read_at, ?)", at)).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id, "account_id": accountID, "is_deleted": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark notification read sql: %w", err)
	}
	return execAffectingOne(ctx, r.exec, "mark notification read", stmt, args)
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, accountID string, at time.Time) (int64, error) {
	stmt, args, err := r.builder.Update("notifications").
		Set("is_read", true).
		Set("read_at", at).
		Set("updated_at", at).
		Where(squirrel.Eq{"account_id": accountID, "is_read": false, "is_deleted": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build mark all read sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, repository.Translate("mark all notifications read", err)
	}
	return ct.RowsAffected(), nil
}

func (r *NotificationRepository) MarkDelivered(ctx context.Context, accountID, id string, at time.Time) error {
	stmt, args, err := r.builder.Update("notifications").
		Set("is_delivered", true).
		Set("delivered_at", squirrel.Expr("COALESCE(delivered_at, ?)", at)).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id, "account_id": accountID, "is_deleted": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark notification delivered sql: %w", err)
	}
	return execAffectingOne(ctx, r.exec, "mark notification delivered", stmt, args)
}

func (r *NotificationRepository) SoftDelete(ctx context.Context, accountID, id string, at time.Time) error {
	stmt, args, err := r.builder.Update("notifications").
		Set("is_deleted", true).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id, "account_id": accountID, "is_deleted": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete notification sql: %w", err)
	}
	return execAffectingOne(ctx, r.exec, "delete notification", stmt, args)
}

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var (
		n           domain.Notification
		kind        string
		auctionID   sql.NullString
		bidID       sql.NullString
		readAt      sql.NullTime
		deliveredAt sql.NullTime
		actionURL   sql.NullString
		actionText  sql.NullString
	)

	if err := row.Scan(
		&n.ID,
		&n.AccountID,
		&n.Title,
		&n.Message,
		&kind,
		&auctionID,
		&bidID,
		&n.IsRead,
		&readAt,
		&n.DeliveryMethod,
		&n.IsDelivered,
		&deliveredAt,
		&n.Priority,
		&n.IsUrgent,
		&actionURL,
		&actionText,
		&n.ExpiresAt,
		&n.IsDeleted,
		&n.CreatedAt,
		&n.UpdatedAt,
	); err != nil {
		return nil, err
	}

	n.Type = domain.NotificationType(kind)
	n.AuctionID = stringPtr(auctionID)
	n.BidID = stringPtr(bidID)
	n.ReadAt = timePtr(readAt)
	n.DeliveredAt = timePtr(deliveredAt)
	n.ActionURL = stringPtr(actionURL)
	n.ActionText = stringPtr(actionText)
	return &n, nil
}

var _ port.NotificationRepository = (*NotificationRepository)(nil)
