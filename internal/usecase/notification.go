package usecase

import (
	"context"
	"strings"
	"time"

	uuid "github.com/google/uuid"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
)

// NotificationService manages per-account notifications.
type NotificationService struct {
	notifications port.NotificationRepository
	sanitizer     port.TextSanitizer
	now           func() time.Time
}

func NewNotificationService(notifications port.NotificationRepository, sanitizer port.TextSanitizer) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		sanitizer:     sanitizer,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Create stamps the expiry from the notification type and stores it.
func (s *NotificationService) Create(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	n.ID = uuid.NewString()
	n.IsRead = false
	n.ReadAt = nil
	n.IsDelivered = false
	n.DeliveredAt = nil
	n.IsDeleted = false
	if s.sanitizer != nil {
		n.Title = s.sanitizer.Sanitize(n.Title)
		n.Message = s.sanitizer.Sanitize(n.Message)
	}
	if n.Priority == "urgent" {
		n.IsUrgent = true
	}
	if err := n.Prepare(s.now()); err != nil {
		return domain.Notification{}, err
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return domain.Notification{}, err
	}
	return n, nil
}

// NotificationPage is one page of a listing plus its unfiltered-by-page total.
type NotificationPage struct {
	Items []domain.Notification
	Total int
	Limit int
	Skip  int
}

func (s *NotificationService) List(ctx context.Context, accountID string, filter domain.NotificationFilter) (NotificationPage, error) {
	filter.Normalize()
	if filter.Type != nil && !filter.Type.Valid() {
		return NotificationPage{}, domain.NewValidationError("type", "unsupported notification type", *filter.Type)
	}
	if filter.Priority != nil {
		p := strings.ToLower(strings.TrimSpace(*filter.Priority))
		filter.Priority = &p
	}
	items, total, err := s.notifications.List(ctx, accountID, filter, s.now())
	if err != nil {
		return NotificationPage{}, err
	}
	return NotificationPage{Items: items, Total: total, Limit: filter.Limit, Skip: filter.Skip}, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, accountID string) (int, error) {
	return s.notifications.CountUnread(ctx, accountID, s.now())
}

func (s *NotificationService) MarkRead(ctx context.Context, accountID, id string) error {
	return s.notifications.MarkRead(ctx, accountID, id, s.now())
}

func (s *NotificationService) MarkAllRead(ctx context.Context, accountID string) (int64, error) {
	return s.notifications.MarkAllRead(ctx, accountID, s.now())
}

func (s *NotificationService) MarkDelivered(ctx context.Context, accountID, id string) error {
	return s.notifications.MarkDelivered(ctx, accountID, id, s.now())
}

func (s *NotificationService) Delete(ctx context.Context, accountID, id string) error {
	return s.notifications.SoftDelete(ctx, accountID, id, s.now())
}
