package domain

import (
	"regexp"
	"strings"
	"time"
)

// AddressType is the default scope of an address.
type AddressType string

const (
	AddressBilling  AddressType = "billing"
	AddressShipping AddressType = "shipping"
	AddressBoth     AddressType = "both"
)

// Valid reports whether t is a known address type.
func (t AddressType) Valid() bool {
	switch t {
	case AddressBilling, AddressShipping, AddressBoth:
		return true
	}
	return false
}

// PhonePattern matches the phone formats accepted across the service.
var PhonePattern = regexp.MustCompile(`^[\+]?[1-9][\d]{0,15}$`)

// Coordinates is an optional geolocation.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Address is owned N:1 by an Account.
type Address struct {
	ID               string
	AccountID        string
	Type             AddressType
	FirstName        string
	LastName         string
	Company          *string
	Phone            *string
	Street           string
	Street2          *string
	City             string
	State            string
	PostalCode       string
	Country          string
	CountryCode      string
	IsDefault        bool
	IsActive         bool
	Instructions     *string
	Coordinates      *Coordinates
	IsVerified       bool
	VerificationDate *time.Time
	LastUsed         *time.Time
	UsageCount       int
	Tags             []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// FullName joins the contact names.
func (a Address) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// FullAddress renders a single-line postal address.
func (a Address) FullAddress() string {
	var b strings.Builder
	b.WriteString(a.Street)
	if a.Street2 != nil && *a.Street2 != "" {
		b.WriteString(", ")
		b.WriteString(*a.Street2)
	}
	b.WriteString(", ")
	b.WriteString(a.City)
	b.WriteString(", ")
	b.WriteString(a.State)
	b.WriteString(" ")
	b.WriteString(a.PostalCode)
	b.WriteString(", ")
	b.WriteString(a.Country)
	return b.String()
}

// Normalize fills defaults and canonicalises casing.
func (a *Address) Normalize() {
	a.FirstName = strings.TrimSpace(a.FirstName)
	a.LastName = strings.TrimSpace(a.LastName)
	a.Street = strings.TrimSpace(a.Street)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.TrimSpace(a.Country)
	if a.Country == "" {
		a.Country = "United States"
	}
	a.CountryCode = strings.ToUpper(strings.TrimSpace(a.CountryCode))
	if a.CountryCode == "" {
		a.CountryCode = "US"
	}
}

// Validate checks the persisted constraints of an address.
func (a Address) Validate() error {
	verr := &ValidationError{}
	if !a.Type.Valid() {
		verr.Add("type", "type must be billing, shipping or both", a.Type)
	}
	requireLen(verr, "firstName", a.FirstName, 1, 50, "First name cannot exceed 50 characters")
	requireLen(verr, "lastName", a.LastName, 1, 50, "Last name cannot exceed 50 characters")
	requireLen(verr, "street", a.Street, 1, 200, "Street address cannot exceed 200 characters")
	requireLen(verr, "city", a.City, 1, 100, "City name cannot exceed 100 characters")
	requireLen(verr, "state", a.State, 1, 100, "State name cannot exceed 100 characters")
	requireLen(verr, "postalCode", a.PostalCode, 1, 20, "Postal code cannot exceed 20 characters")
	requireLen(verr, "country", a.Country, 1, 100, "Country name cannot exceed 100 characters")
	if len(a.CountryCode) != 2 {
		verr.Add("countryCode", "Country code must be 2 characters", a.CountryCode)
	}
	if a.Company != nil && len([]rune(*a.Company)) > 100 {
		verr.Add("company", "Company name cannot exceed 100 characters", *a.Company)
	}
	if a.Street2 != nil && len([]rune(*a.Street2)) > 200 {
		verr.Add("street2", "Street address line 2 cannot exceed 200 characters", *a.Street2)
	}
	if a.Phone != nil && *a.Phone != "" && !PhonePattern.MatchString(*a.Phone) {
		verr.Add("phone", "Please enter a valid phone number", *a.Phone)
	}
	if a.Instructions != nil && len([]rune(*a.Instructions)) > 500 {
		verr.Add("instructions", "Delivery instructions cannot exceed 500 characters", len([]rune(*a.Instructions)))
	}
	if c := a.Coordinates; c != nil {
		if c.Latitude < -90 || c.Latitude > 90 {
			verr.Add("coordinates.latitude", "latitude must be between -90 and 90", c.Latitude)
		}
		if c.Longitude < -180 || c.Longitude > 180 {
			verr.Add("coordinates.longitude", "longitude must be between -180 and 180", c.Longitude)
		}
	}
	for _, tag := range a.Tags {
		if len([]rune(tag)) > 30 {
			verr.Add("tags", "Tag cannot exceed 30 characters", tag)
		}
	}
	return verr.OrNil()
}

func requireLen(verr *ValidationError, field, value string, minLen, maxLen int, tooLong string) {
	n := len([]rune(value))
	switch {
	case n < minLen:
		verr.Add(field, field+" is required", value)
	case n > maxLen:
		verr.Add(field, tooLong, value)
	}
}
