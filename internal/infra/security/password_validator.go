package security

import (
	"fmt"
	"unicode"

	zxcvbn "github.com/nbutton23/zxcvbn-go"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/config"
)

// DefaultMinPasswordLength is the shortest credential accepted at registration.
const DefaultMinPasswordLength = 6

// PasswordRule validates a password and returns a message when it fails.
type PasswordRule func(password string, userInputs []string) string

// PasswordValidator applies a sequence of rules and reports the first failure
// as a field error on "password".
type PasswordValidator struct {
	rules []PasswordRule
}

// NewPasswordValidator constructs a validator with the provided rules.
func NewPasswordValidator(rules ...PasswordRule) *PasswordValidator {
	copied := make([]PasswordRule, len(rules))
	copy(copied, rules)
	return &PasswordValidator{rules: copied}
}

// NewPasswordValidatorFromConfig enables the optional class and strength rules
// only when configured above zero.
func NewPasswordValidatorFromConfig(cfg config.PasswordSettings) *PasswordValidator {
	minLen := cfg.MinLength
	if minLen <= 0 {
		minLen = DefaultMinPasswordLength
	}
	return NewPasswordValidator(
		MinLengthRule(minLen),
		RequireCharacterClassesRule(cfg.MinClasses),
		RequirePasswordStrengthRule(cfg.MinStrength),
	)
}

// Validate runs every rule in order. userInputs feed the strength estimator.
func (v *PasswordValidator) Validate(password string, userInputs ...string) error {
	for _, rule := range v.rules {
		if msg := rule(password, userInputs); msg != "" {
			return domain.NewValidationError("password", msg, nil)
		}
	}
	return nil
}

// MinLengthRule ensures the password has at least min characters.
func MinLengthRule(min int) PasswordRule {
	return func(password string, _ []string) string {
		if len([]rune(password)) < min {
			return fmt.Sprintf("Password must be at least %d characters long", min)
		}
		return ""
	}
}

// RequireCharacterClassesRule requires min distinct classes out of upper, lower, digit and symbol.
func RequireCharacterClassesRule(min int) PasswordRule {
	return func(password string, _ []string) string {
		if min <= 0 {
			return ""
		}
		var upper, lower, digit, symbol int
		for _, r := range password {
			switch {
			case unicode.IsUpper(r):
				upper = 1
			case unicode.IsLower(r):
				lower = 1
			case unicode.IsDigit(r):
				digit = 1
			case unicode.IsSymbol(r) || unicode.IsPunct(r):
				symbol = 1
			}
		}
		if upper+lower+digit+symbol >= min {
			return ""
		}
		return fmt.Sprintf("Password must include at least %d character types", min)
	}
}

// RequirePasswordStrengthRule enforces a minimum zxcvbn score.
func RequirePasswordStrengthRule(minScore int) PasswordRule {
	return func(password string, userInputs []string) string {
		if minScore <= 0 {
			return ""
		}
		if minScore > 4 {
			minScore = 4
		}
		if zxcvbn.PasswordStrength(password, userInputs).Score >= minScore {
			return ""
		}
		return "Password is too weak; choose a more complex value"
	}
}
