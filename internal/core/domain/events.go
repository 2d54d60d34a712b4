package domain

import "time"

// AccountRegisteredEvent represents the payload for account.registered messages.
type AccountRegisteredEvent struct {
	EventID      string
	AccountID    string
	Email        string
	Role         Role
	ReferralCode *string
	RegisteredAt time.Time
	Metadata     map[string]any
}

// AccountLoggedInEvent represents the payload for account.logged_in messages.
type AccountLoggedInEvent struct {
	EventID    string
	AccountID  string
	Role       Role
	LoggedInAt time.Time
	IPAddress  *string
	UserAgent  *string
}

// AccountDisabledEvent represents the payload for account.disabled messages.
type AccountDisabledEvent struct {
	EventID    string
	AccountID  string
	DisabledBy string
	DisabledAt time.Time
}

// PasswordChangedEvent represents the payload for account.password.changed messages.
type PasswordChangedEvent struct {
	EventID   string
	AccountID string
	ChangedAt time.Time
	Method    string
}

// CartUpdatedEvent represents the payload for cart.updated messages.
type CartUpdatedEvent struct {
	EventID     string
	CartID      string
	AccountID   string
	Action      string
	ItemCount   int
	TotalAmount float64
	Version     int64
	UpdatedAt   time.Time
}
