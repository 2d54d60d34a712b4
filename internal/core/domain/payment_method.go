package domain

import (
	"regexp"
	"strings"
	"time"
)

// PaymentKind discriminates payment methods.
type PaymentKind string

const (
	PaymentCreditCard   PaymentKind = "credit_card"
	PaymentDebitCard    PaymentKind = "debit_card"
	PaymentPayPal       PaymentKind = "paypal"
	PaymentBankTransfer PaymentKind = "bank_transfer"
	PaymentApplePay     PaymentKind = "apple_pay"
	PaymentGooglePay    PaymentKind = "google_pay"
	PaymentCrypto       PaymentKind = "crypto"
)

// Valid reports whether k is a known payment kind.
func (k PaymentKind) Valid() bool {
	switch k {
	case PaymentCreditCard, PaymentDebitCard, PaymentPayPal, PaymentBankTransfer,
		PaymentApplePay, PaymentGooglePay, PaymentCrypto:
		return true
	}
	return false
}

// IsCard reports whether k needs card details.
func (k PaymentKind) IsCard() bool {
	return k == PaymentCreditCard || k == PaymentDebitCard
}

var (
	CardBrands   = []string{"visa", "mastercard", "amex", "discover", "diners", "jcb", "unionpay"}
	AccountTypes = []string{"checking", "savings", "business"}
	CryptoTypes  = []string{"bitcoin", "ethereum", "litecoin", "bitcoin_cash"}

	lastFourPattern = regexp.MustCompile(`^\d{4}$`)
	routingPattern  = regexp.MustCompile(`^\d{9}$`)
	emailPattern    = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)
)

// PaymentMethod is owned N:1 by an Account. The default scope is the whole owner.
type PaymentMethod struct {
	ID            string
	AccountID     string
	Type          PaymentKind
	LastFour      *string
	Brand         *string
	ExpiryMonth   *int
	ExpiryYear    *int
	PayPalEmail   *string
	BankName      *string
	AccountType   *string
	RoutingNumber *string
	CryptoAddress *string
	CryptoType    *string
	IsDefault     bool
	IsActive      bool
	Nickname      *string
	TokenID       *string
	Fingerprint   *string
	AddedAt       time.Time
	LastUsed      *time.Time
	UsageCount    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Normalize lowercases the PayPal email.
func (p *PaymentMethod) Normalize() {
	if p.PayPalEmail != nil {
		v := NormalizeEmail(*p.PayPalEmail)
		p.PayPalEmail = &v
	}
}

// Validate applies the kind-specific rules.
func (p PaymentMethod) Validate(now time.Time) error {
	verr := &ValidationError{}
	if !p.Type.Valid() {
		verr.Add("type", "unsupported payment method type", p.Type)
		return verr
	}

	if p.Type.IsCard() {
		if p.LastFour == nil || !lastFourPattern.MatchString(*p.LastFour) {
			verr.Add("lastFour", "Last four digits must be exactly 4 digits", p.LastFour)
		}
		if p.Brand == nil {
			verr.Add("brand", "Brand is required for card payments", nil)
		}
		if p.ExpiryMonth == nil {
			verr.Add("expiryMonth", "Expiry month is required for card payments", nil)
		}
		if p.ExpiryYear == nil {
			verr.Add("expiryYear", "Expiry year is required for card payments", nil)
		}
	}
	if p.Brand != nil && !oneOf(*p.Brand, CardBrands) {
		verr.Add("brand", "unsupported card brand", *p.Brand)
	}
	if p.ExpiryMonth != nil && (*p.ExpiryMonth < 1 || *p.ExpiryMonth > 12) {
		verr.Add("expiryMonth", "expiryMonth must be between 1 and 12", *p.ExpiryMonth)
	}
	if p.ExpiryYear != nil && *p.ExpiryYear < now.Year() {
		verr.Add("expiryYear", "expiryYear cannot be in the past", *p.ExpiryYear)
	}

	if p.Type == PaymentPayPal && (p.PayPalEmail == nil || !emailPattern.MatchString(*p.PayPalEmail)) {
		verr.Add("paypalEmail", "Valid PayPal email is required", p.PayPalEmail)
	}
	if p.Type == PaymentBankTransfer && (p.RoutingNumber == nil || !routingPattern.MatchString(*p.RoutingNumber)) {
		verr.Add("routingNumber", "Routing number must be 9 digits", p.RoutingNumber)
	}
	if p.AccountType != nil && !oneOf(*p.AccountType, AccountTypes) {
		verr.Add("accountType", "accountType must be checking, savings or business", *p.AccountType)
	}
	if p.CryptoType != nil && !oneOf(*p.CryptoType, CryptoTypes) {
		verr.Add("cryptoType", "unsupported crypto type", *p.CryptoType)
	}
	if p.Nickname != nil && len([]rune(strings.TrimSpace(*p.Nickname))) > 50 {
		verr.Add("nickname", "Nickname cannot exceed 50 characters", *p.Nickname)
	}
	return verr.OrNil()
}
