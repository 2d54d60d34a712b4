package domain

import (
	"strings"
	"time"
)

// Role enumerates the account roles accepted at registration.
type Role string

const (
	RoleCustomer  Role = "customer"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleVendor    Role = "vendor"
	RoleGuest     Role = "guest"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAdmin, RoleModerator, RoleVendor, RoleGuest:
		return true
	}
	return false
}

// Gender enumerates the self-declared gender values.
type Gender string

const (
	GenderMale           Gender = "male"
	GenderFemale         Gender = "female"
	GenderOther          Gender = "other"
	GenderPreferNotToSay Gender = "prefer_not_to_say"
)

// Account mirrors the persisted representation in the accounts table.
type Account struct {
	ID              string
	Email           string
	PasswordHash    string
	FirstName       string
	LastName        string
	Phone           *string
	DateOfBirth     *time.Time
	Gender          Gender
	Role            Role
	IsEmailVerified bool
	IsPhoneVerified bool
	IsActive        bool
	IsDeleted       bool
	TotalOrders     int
	TotalSpent      float64
	LastOrderDate   *time.Time
	ReferralCode    *string
	ReferredBy      *string
	LoyaltyPoints   int
	LastLogin       *time.Time
	LoginAttempts   int
	LockUntil       *time.Time
	ProfileImage    *string
	Notes           *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FullName joins first and last name.
func (a Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// IsLocked reports whether a lock is in force at the supplied instant.
func (a Account) IsLocked(now time.Time) bool {
	return a.LockUntil != nil && a.LockUntil.After(now)
}

// Sanitized returns a copy with the credential hash stripped.
func (a Account) Sanitized() Account {
	a.PasswordHash = ""
	return a
}

// NormalizeEmail lowercases and trims an identifier.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ProfilePatch lists the fields a user may change on their own profile.
// Email and role are intentionally absent.
type ProfilePatch struct {
	FirstName    *string
	LastName     *string
	Phone        *string
	DateOfBirth  *time.Time
	Gender       *Gender
	Notes        *string
	ProfileImage *string
}

// Empty reports whether the patch carries no changes.
func (p ProfilePatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Phone == nil &&
		p.DateOfBirth == nil && p.Gender == nil && p.Notes == nil && p.ProfileImage == nil
}

// AccountFilter narrows account listings.
type AccountFilter struct {
	ActiveOnly bool
}
