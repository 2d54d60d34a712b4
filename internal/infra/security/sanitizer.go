package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
)

// TextSanitizer strips every HTML element from user supplied free text.
type TextSanitizer struct {
	policy *bluemonday.Policy
}

func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize removes markup. Entities in the result stay escaped.
func (s *TextSanitizer) Sanitize(input string) string {
	if input == "" {
		return ""
	}
	return strings.TrimSpace(s.policy.Sanitize(input))
}

var _ port.TextSanitizer = (*TextSanitizer)(nil)
