package domain

import (
	"strings"
	"time"
)

// NotificationType is the closed set of notification kinds.
type NotificationType string

const (
	NotificationBidPlaced          NotificationType = "bid_placed"
	NotificationBidOutbid          NotificationType = "bid_outbid"
	NotificationAuctionEnding      NotificationType = "auction_ending"
	NotificationAuctionEnded       NotificationType = "auction_ended"
	NotificationBidWon             NotificationType = "bid_won"
	NotificationBidLost            NotificationType = "bid_lost"
	NotificationAuctionCancelled   NotificationType = "auction_cancelled"
	NotificationPaymentRequired    NotificationType = "payment_required"
	NotificationPaymentReceived    NotificationType = "payment_received"
	NotificationItemShipped        NotificationType = "item_shipped"
	NotificationItemDelivered      NotificationType = "item_delivered"
	NotificationAccountVerified    NotificationType = "account_verified"
	NotificationPasswordChanged    NotificationType = "password_changed"
	NotificationSystemAnnouncement NotificationType = "system_announcement"
	NotificationPromotion          NotificationType = "promotion"
	NotificationReminder           NotificationType = "reminder"
)

var notificationTypes = map[NotificationType]struct{}{
	NotificationBidPlaced: {}, NotificationBidOutbid: {}, NotificationAuctionEnding: {},
	NotificationAuctionEnded: {}, NotificationBidWon: {}, NotificationBidLost: {},
	NotificationAuctionCancelled: {}, NotificationPaymentRequired: {}, NotificationPaymentReceived: {},
	NotificationItemShipped: {}, NotificationItemDelivered: {}, NotificationAccountVerified: {},
	NotificationPasswordChanged: {}, NotificationSystemAnnouncement: {}, NotificationPromotion: {},
	NotificationReminder: {},
}

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	_, ok := notificationTypes[t]
	return ok
}

// ExpiryFor returns how long a notification of type t stays visible.
func ExpiryFor(t NotificationType) time.Duration {
	const day = 24 * time.Hour
	switch t {
	case NotificationBidPlaced, NotificationBidOutbid:
		return 7 * day
	case NotificationAuctionEnding:
		return day
	case NotificationAuctionEnded, NotificationBidWon, NotificationBidLost:
		return 30 * day
	case NotificationPaymentRequired:
		return 3 * day
	case NotificationSystemAnnouncement:
		return 90 * day
	default:
		return 14 * day
	}
}

var (
	DeliveryMethods = []string{"in_app", "email", "sms", "push"}
	Priorities      = []string{"low", "medium", "high", "urgent"}
)

// Notification is owned N:1 by an Account.
type Notification struct {
	ID             string
	AccountID      string
	Title          string
	Message        string
	Type           NotificationType
	AuctionID      *string
	BidID          *string
	IsRead         bool
	ReadAt         *time.Time
	DeliveryMethod string
	IsDelivered    bool
	DeliveredAt    *time.Time
	Priority       string
	IsUrgent       bool
	ActionURL      *string
	ActionText     *string
	ExpiresAt      time.Time
	IsDeleted      bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsExpired is derived on read.
func (n Notification) IsExpired(now time.Time) bool {
	return !n.ExpiresAt.IsZero() && n.ExpiresAt.Before(now)
}

// Prepare fills defaults, stamps the expiry and validates.
func (n *Notification) Prepare(now time.Time) error {
	n.Title = strings.TrimSpace(n.Title)
	n.Message = strings.TrimSpace(n.Message)
	if n.DeliveryMethod == "" {
		n.DeliveryMethod = "in_app"
	}
	if n.Priority == "" {
		n.Priority = "medium"
	}
	if n.ExpiresAt.IsZero() {
		n.ExpiresAt = now.Add(ExpiryFor(n.Type))
	}
	n.CreatedAt = now
	n.UpdatedAt = now

	verr := &ValidationError{}
	if n.AccountID == "" {
		verr.Add("user", "user is required", nil)
	}
	requireLen(verr, "title", n.Title, 1, 200, "Title cannot exceed 200 characters")
	requireLen(verr, "message", n.Message, 1, 1000, "Message cannot exceed 1000 characters")
	if !n.Type.Valid() {
		verr.Add("type", "unsupported notification type", n.Type)
	}
	if !oneOf(n.DeliveryMethod, DeliveryMethods) {
		verr.Add("deliveryMethod", "unsupported delivery method", n.DeliveryMethod)
	}
	if !oneOf(n.Priority, Priorities) {
		verr.Add("priority", "priority must be low, medium, high or urgent", n.Priority)
	}
	if n.ActionText != nil && len([]rune(*n.ActionText)) > 50 {
		verr.Add("actionText", "Action text cannot exceed 50 characters", *n.ActionText)
	}
	return verr.OrNil()
}

// NotificationFilter narrows notification listings.
type NotificationFilter struct {
	Type     *NotificationType
	IsRead   *bool
	Priority *string
	Limit    int
	Skip     int
}

// Normalize applies listing defaults.
func (f *NotificationFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Skip < 0 {
		f.Skip = 0
	}
}
