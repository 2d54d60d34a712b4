package domain

import "fmt"

// DefaultKind names an entity family that carries an isDefault flag. Applied
// coupons have no kind: they live inside the owner's single cart, where
// Cart.ApplyCoupon keeps one entry per code.
type DefaultKind string

const (
	DefaultKindAddress       DefaultKind = "address"
	DefaultKindPaymentMethod DefaultKind = "payment_method"
)

// DefaultScope identifies the group inside which at most one active row may be default.
// Scope is empty for kinds whose scope is the whole owner.
type DefaultScope struct {
	Kind    DefaultKind
	OwnerID string
	Scope   string
}

// AddressScope scopes address defaults by type.
func AddressScope(ownerID string, t AddressType) DefaultScope {
	return DefaultScope{Kind: DefaultKindAddress, OwnerID: ownerID, Scope: string(t)}
}

// PaymentMethodScope scopes payment method defaults by owner.
func PaymentMethodScope(ownerID string) DefaultScope {
	return DefaultScope{Kind: DefaultKindPaymentMethod, OwnerID: ownerID}
}

// LockKey is the serialization key of the scope.
func (s DefaultScope) LockKey() string {
	return fmt.Sprintf("%s:%s:%s", s.Kind, s.OwnerID, s.Scope)
}

// Validate checks the scope is well-formed.
func (s DefaultScope) Validate() error {
	verr := &ValidationError{}
	if s.OwnerID == "" {
		verr.Add("owner", "owner is required", nil)
	}
	switch s.Kind {
	case DefaultKindAddress:
		if !AddressType(s.Scope).Valid() {
			verr.Add("type", "type must be billing, shipping or both", s.Scope)
		}
	case DefaultKindPaymentMethod:
		if s.Scope != "" {
			verr.Add("scope", "payment methods are scoped by owner only", s.Scope)
		}
	default:
		verr.Add("kind", "unknown default kind", s.Kind)
	}
	return verr.OrNil()
}

// ImageUpload is a raw uploaded image awaiting validation and storage.
type ImageUpload struct {
	Filename string
	Data     []byte
}
