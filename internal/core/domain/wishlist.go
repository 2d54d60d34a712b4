package domain

import (
	"strings"
	"time"
)

// WishlistPriority ranks a saved product.
type WishlistPriority string

const (
	WishlistLow    WishlistPriority = "low"
	WishlistMedium WishlistPriority = "medium"
	WishlistHigh   WishlistPriority = "high"
)

func (p WishlistPriority) Valid() bool {
	switch p {
	case WishlistLow, WishlistMedium, WishlistHigh:
		return true
	}
	return false
}

// WishlistItem is a product an account saved for later. An account holds a
// product at most once; removing it deactivates the row and adding it again
// revives that row.
type WishlistItem struct {
	ID        string
	AccountID string
	ProductID string
	Notes     *string
	Priority  WishlistPriority
	IsActive  bool
	AddedAt   time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Normalize trims identifiers and applies the medium priority default.
func (w *WishlistItem) Normalize() {
	w.ProductID = strings.TrimSpace(w.ProductID)
	w.Priority = WishlistPriority(strings.ToLower(strings.TrimSpace(string(w.Priority))))
	if w.Priority == "" {
		w.Priority = WishlistMedium
	}
	if w.Notes != nil {
		notes := strings.TrimSpace(*w.Notes)
		if notes == "" {
			w.Notes = nil
		} else {
			w.Notes = &notes
		}
	}
}

func (w WishlistItem) Validate() error {
	verr := &ValidationError{}
	if w.AccountID == "" {
		verr.Add("user", "user is required", nil)
	}
	requireLen(verr, "productId", w.ProductID, 1, 64, "productId cannot exceed 64 characters")
	if !w.Priority.Valid() {
		verr.Add("priority", "priority must be low, medium or high", w.Priority)
	}
	if w.Notes != nil && len([]rune(*w.Notes)) > 200 {
		verr.Add("notes", "Notes cannot exceed 200 characters", *w.Notes)
	}
	return verr.OrNil()
}

// WishlistFilter narrows wishlist listings.
type WishlistFilter struct {
	Priority *WishlistPriority
	Limit    int
	Skip     int
}

// Normalize applies listing defaults.
func (f *WishlistFilter) Normalize() {
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
