package domain

import "time"

const (
	DefaultCurrency     = "Rs"
	DefaultLanguage     = "en"
	DefaultTimezone     = "Asia/Karachi"
	DefaultDateFormat   = "MM/DD/YYYY"
	DefaultTheme        = "light"
	DefaultItemsPerPage = 20
	MinItemsPerPage     = 10
	MaxItemsPerPage     = 100
)

var (
	Currencies  = []string{"USD", "EUR", "Rs"}
	Languages   = []string{"en", "es", "fr", "de", "it", "pt", "ru", "zh", "ja", "ko", "ar"}
	DateFormats = []string{"MM/DD/YYYY", "DD/MM/YYYY", "YYYY-MM-DD"}
	Themes      = []string{"light", "dark", "auto"}
)

// Preferences is the 1:1 companion of an Account.
type Preferences struct {
	ID                 string
	AccountID          string
	Currency           string
	Language           string
	Timezone           string
	DateFormat         string
	Newsletter         bool
	SMSNotifications   bool
	EmailNotifications bool
	PushNotifications  bool
	MarketingEmails    bool
	OrderUpdates       bool
	PriceAlerts        bool
	StockNotifications bool
	Theme              string
	ItemsPerPage       int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PreferenceOverrides carries the optional registration-time overrides.
type PreferenceOverrides struct {
	Currency string
	Language string
	Timezone string
}

// NewPreferences builds the record created at registration, defaulting unset fields.
func NewPreferences(id, accountID string, overrides PreferenceOverrides, now time.Time) Preferences {
	p := Preferences{
		ID:                 id,
		AccountID:          accountID,
		Currency:           DefaultCurrency,
		Language:           DefaultLanguage,
		Timezone:           DefaultTimezone,
		DateFormat:         DefaultDateFormat,
		Newsletter:         true,
		EmailNotifications: true,
		PushNotifications:  true,
		MarketingEmails:    true,
		OrderUpdates:       true,
		PriceAlerts:        true,
		StockNotifications: true,
		Theme:              DefaultTheme,
		ItemsPerPage:       DefaultItemsPerPage,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if overrides.Currency != "" {
		p.Currency = overrides.Currency
	}
	if overrides.Language != "" {
		p.Language = overrides.Language
	}
	if overrides.Timezone != "" {
		p.Timezone = overrides.Timezone
	}
	return p
}

// PreferencesPatch is a partial update of Preferences.
type PreferencesPatch struct {
	Currency           *string
	Language           *string
	Timezone           *string
	DateFormat         *string
	Newsletter         *bool
	SMSNotifications   *bool
	EmailNotifications *bool
	PushNotifications  *bool
	MarketingEmails    *bool
	OrderUpdates       *bool
	PriceAlerts        *bool
	StockNotifications *bool
	Theme              *string
	ItemsPerPage       *int
}

// Apply merges the patch into p and validates the result.
func (patch PreferencesPatch) Apply(p *Preferences) error {
	setString(&p.Currency, patch.Currency)
	setString(&p.Language, patch.Language)
	setString(&p.Timezone, patch.Timezone)
	setString(&p.DateFormat, patch.DateFormat)
	setString(&p.Theme, patch.Theme)
	setBool(&p.Newsletter, patch.Newsletter)
	setBool(&p.SMSNotifications, patch.SMSNotifications)
	setBool(&p.EmailNotifications, patch.EmailNotifications)
	setBool(&p.PushNotifications, patch.PushNotifications)
	setBool(&p.MarketingEmails, patch.MarketingEmails)
	setBool(&p.OrderUpdates, patch.OrderUpdates)
	setBool(&p.PriceAlerts, patch.PriceAlerts)
	setBool(&p.StockNotifications, patch.StockNotifications)
	if patch.ItemsPerPage != nil {
		p.ItemsPerPage = *patch.ItemsPerPage
	}
	return p.Validate()
}

// Validate checks enum and range constraints.
func (p Preferences) Validate() error {
	verr := &ValidationError{}
	if !oneOf(p.Currency, Currencies) {
		verr.Add("currency", "currency must be one of USD, EUR, Rs", p.Currency)
	}
	if !oneOf(p.Language, Languages) {
		verr.Add("language", "unsupported language", p.Language)
	}
	if !oneOf(p.DateFormat, DateFormats) {
		verr.Add("dateFormat", "unsupported date format", p.DateFormat)
	}
	if !oneOf(p.Theme, Themes) {
		verr.Add("theme", "theme must be light, dark or auto", p.Theme)
	}
	if p.ItemsPerPage < MinItemsPerPage || p.ItemsPerPage > MaxItemsPerPage {
		verr.Add("itemsPerPage", "itemsPerPage must be between 10 and 100", p.ItemsPerPage)
	}
	return verr.OrNil()
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
