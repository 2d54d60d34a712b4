package domain

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	MinItemQuantity   = 1
	MaxItemQuantity   = 100
	MaxItemNotesLen   = 200
	DefaultCartExpiry = 30 * 24 * time.Hour
)

// Variant is the free-form descriptor of a product variant (size, colour, ...).
type Variant map[string]any

// Key returns a canonical encoding used only as a merge key. encoding/json
// writes map keys in sorted order at every depth, so two variants with the
// same content produce the same key regardless of insertion order.
func (v Variant) Key() string {
	if len(v) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(map[string]any(v))
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// CartItem is a single line in a cart.
type CartItem struct {
	ProductID   string    `json:"productId"`
	Quantity    int       `json:"quantity"`
	PriceAtTime float64   `json:"priceAtTime"`
	Discount    float64   `json:"discount"`
	Tax         float64   `json:"tax"`
	Variant     Variant   `json:"variant"`
	Notes       string    `json:"notes,omitempty"`
	AddedAt     time.Time `json:"addedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (i CartItem) matches(productID string, variantKey string) bool {
	return i.ProductID == productID && i.Variant.Key() == variantKey
}

// AppliedCoupon is a coupon discount attached to a cart.
type AppliedCoupon struct {
	Code           string    `json:"couponCode"`
	DiscountAmount float64   `json:"discountAmount"`
	AppliedAt      time.Time `json:"appliedAt"`
}

// Totals is the derived monetary summary persisted as a cache on the cart.
type Totals struct {
	Subtotal      float64
	TotalDiscount float64
	TotalTax      float64
	TotalAmount   float64
	ItemCount     int
}

// Recompute derives totals from items, coupons and shipping cost.
// TotalAmount is not clamped and may go negative when discounts exceed the rest.
func Recompute(items []CartItem, coupons []AppliedCoupon, shippingCost float64) Totals {
	var t Totals
	for _, item := range items {
		t.Subtotal += float64(item.Quantity) * item.PriceAtTime
		t.TotalDiscount += item.Discount
		t.TotalTax += item.Tax
		t.ItemCount += item.Quantity
	}
	for _, coupon := range coupons {
		t.TotalDiscount += coupon.DiscountAmount
	}
	t.TotalAmount = t.Subtotal - t.TotalDiscount + t.TotalTax + shippingCost
	return t
}

// Cart is the 1:1 companion of an Account.
type Cart struct {
	ID               string
	AccountID        string
	Items            []CartItem
	Coupons          []AppliedCoupon
	ShippingMethodID *string
	ShippingCost     float64
	Totals
	LastUpdated time.Time
	ExpiresAt   time.Time
	IsActive    bool
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewCart builds the empty cart created at registration.
func NewCart(id, accountID string, now time.Time, ttl time.Duration) Cart {
	if ttl <= 0 {
		ttl = DefaultCartExpiry
	}
	return Cart{
		ID:          id,
		AccountID:   accountID,
		Items:       []CartItem{},
		Coupons:     []AppliedCoupon{},
		IsActive:    true,
		LastUpdated: now,
		ExpiresAt:   now.Add(ttl),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsExpired reports whether the advisory expiry has passed.
func (c Cart) IsExpired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && c.ExpiresAt.Before(now)
}

// NewCartItem describes an AddItem request.
type NewCartItem struct {
	ProductID   string
	Quantity    int
	Variant     Variant
	PriceAtTime float64
	Discount    float64
	Tax         float64
	Notes       string
}

func (n NewCartItem) validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(n.ProductID) == "" {
		verr.Add("productId", "productId is required", n.ProductID)
	}
	if n.Quantity < MinItemQuantity || n.Quantity > MaxItemQuantity {
		verr.Add("quantity", "quantity must be between 1 and 100", n.Quantity)
	}
	if n.PriceAtTime < 0 {
		verr.Add("priceAtTime", "priceAtTime cannot be negative", n.PriceAtTime)
	}
	if n.Discount < 0 {
		verr.Add("discount", "discount cannot be negative", n.Discount)
	}
	if n.Tax < 0 {
		verr.Add("tax", "tax cannot be negative", n.Tax)
	}
	if len([]rune(n.Notes)) > MaxItemNotesLen {
		verr.Add("notes", "Notes cannot exceed 200 characters", len([]rune(n.Notes)))
	}
	return verr.OrNil()
}

// AddItem merges into the line with the same (productId, variant) or appends
// a new one. The caller must Touch the cart before persisting.
func (c *Cart) AddItem(in NewCartItem, now time.Time) error {
	if err := in.validate(); err != nil {
		return err
	}
	key := in.Variant.Key()
	for i := range c.Items {
		if !c.Items[i].matches(in.ProductID, key) {
			continue
		}
		merged := c.Items[i].Quantity + in.Quantity
		if merged > MaxItemQuantity {
			return NewValidationError("quantity", "quantity must be between 1 and 100", merged)
		}
		c.Items[i].Quantity = merged
		c.Items[i].UpdatedAt = now
		return nil
	}

	variant := in.Variant
	if variant == nil {
		variant = Variant{}
	}
	c.Items = append(c.Items, CartItem{
		ProductID:   in.ProductID,
		Quantity:    in.Quantity,
		PriceAtTime: in.PriceAtTime,
		Discount:    in.Discount,
		Tax:         in.Tax,
		Variant:     variant,
		Notes:       in.Notes,
		AddedAt:     now,
		UpdatedAt:   now,
	})
	return nil
}

// RemoveItem drops every line matching (productId, variant) and returns how many were removed.
func (c *Cart) RemoveItem(productID string, variant Variant) int {
	key := variant.Key()
	kept := c.Items[:0]
	removed := 0
	for _, item := range c.Items {
		if item.matches(productID, key) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	c.Items = kept
	return removed
}

// Clear empties items and coupons and drops the shipping selection.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.Coupons = []AppliedCoupon{}
	c.ShippingMethodID = nil
	c.ShippingCost = 0
}

// ApplyCoupon attaches a coupon, replacing an existing one with the same code.
func (c *Cart) ApplyCoupon(code string, amount float64, now time.Time) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return NewValidationError("couponCode", "couponCode is required", code)
	}
	if amount < 0 {
		return NewValidationError("discountAmount", "discountAmount cannot be negative", amount)
	}
	for i := range c.Coupons {
		if c.Coupons[i].Code == code {
			c.Coupons[i].DiscountAmount = amount
			c.Coupons[i].AppliedAt = now
			return nil
		}
	}
	c.Coupons = append(c.Coupons, AppliedCoupon{Code: code, DiscountAmount: amount, AppliedAt: now})
	return nil
}

// RemoveCoupon detaches a coupon by code.
func (c *Cart) RemoveCoupon(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	for i := range c.Coupons {
		if c.Coupons[i].Code == code {
			c.Coupons = append(c.Coupons[:i], c.Coupons[i+1:]...)
			return true
		}
	}
	return false
}

// SetShipping selects a shipping method and its cost.
func (c *Cart) SetShipping(methodID string, cost float64) error {
	if cost < 0 {
		return NewValidationError("shippingCost", "shippingCost cannot be negative", cost)
	}
	methodID = strings.TrimSpace(methodID)
	if methodID == "" {
		c.ShippingMethodID = nil
	} else {
		c.ShippingMethodID = &methodID
	}
	c.ShippingCost = cost
	return nil
}

// Touch recomputes the totals cache against the current state and bumps the
// update and expiry timestamps. It must run after every mutation.
func (c *Cart) Touch(now time.Time, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultCartExpiry
	}
	c.Totals = Recompute(c.Items, c.Coupons, c.ShippingCost)
	c.LastUpdated = now
	c.UpdatedAt = now
	c.ExpiresAt = now.Add(ttl)
}

// Clone returns a deep copy so retries start from pristine state.
func (c Cart) Clone() Cart {
	out := c
	out.Items = make([]CartItem, len(c.Items))
	copy(out.Items, c.Items)
	out.Coupons = make([]AppliedCoupon, len(c.Coupons))
	copy(out.Coupons, c.Coupons)
	if c.ShippingMethodID != nil {
		id := *c.ShippingMethodID
		out.ShippingMethodID = &id
	}
	return out
}
