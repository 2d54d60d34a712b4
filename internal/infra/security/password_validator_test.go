package security

import (
	"errors"
	"strings"
	"testing"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/config"
)

func TestDefaultPolicyOnlyEnforcesLength(t *testing.T) {
	validator := NewPasswordValidatorFromConfig(config.PasswordSettings{})

	if err := validator.Validate("abcdef"); err != nil {
		t.Fatalf("expected six characters to pass, got %v", err)
	}
	err := validator.Validate("abc")
	if !errors.Is(err, domain.ErrValidationFailed) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Fields[0].Field != "password" {
		t.Fatalf("expected password field error, got %v", err)
	}
}

func TestStrictPolicy(t *testing.T) {
	validator := NewPasswordValidatorFromConfig(config.PasswordSettings{MinLength: 10, MinClasses: 3, MinStrength: 3})

	cases := map[string]string{
		"Short1!":           "at least 10",
		"lowercasepassword": "character types",
		"Password123":       "too weak",
	}
	for password, fragment := range cases {
		err := validator.Validate(password)
		if err == nil || !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q for %q, got %v", fragment, password, err)
		}
	}
	if err := validator.Validate("C0mplex!Passphrase#2025"); err != nil {
		t.Fatalf("expected strong password to pass, got %v", err)
	}
}
