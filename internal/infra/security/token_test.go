package security

import (
	"regexp"
	"testing"
)

func TestGenerateReferralCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z0-9]{6}$`)
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		code, err := GenerateReferralCode()
		if err != nil {
			t.Fatalf("GenerateReferralCode returned error: %v", err)
		}
		if !pattern.MatchString(code) {
			t.Fatalf("unexpected code format: %s", code)
		}
		seen[code] = struct{}{}
	}
	if len(seen) < 45 {
		t.Fatalf("codes are not random enough: %d unique of 50", len(seen))
	}
}

func TestSanitizerStripsMarkup(t *testing.T) {
	s := NewTextSanitizer()
	if got := s.Sanitize(`  leave at <b>door</b><script>alert(1)</script> `); got != "leave at door" {
		t.Fatalf("unexpected sanitized output: %q", got)
	}
	if got := s.Sanitize(""); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}
