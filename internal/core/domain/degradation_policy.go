package domain

import "strings"

// DegradationPolicyMode selects how throttled endpoints behave when the shared
// rate-limit store cannot be reached.
type DegradationPolicyMode string

const (
	// DegradationPolicyModeLenient falls back to a process-local limiter.
	DegradationPolicyModeLenient DegradationPolicyMode = "lenient"
	// DegradationPolicyModeStrict rejects the request with 503.
	DegradationPolicyModeStrict DegradationPolicyMode = "strict"
)

// DegradationReason captures why the shared store was bypassed.
type DegradationReason string

const (
	DegradationReasonStoreUnavailable DegradationReason = "rate_limit_store_unavailable"
	DegradationReasonStoreTimeout     DegradationReason = "rate_limit_store_timeout"
)

// DegradationPolicy is the configured degraded-mode behaviour.
type DegradationPolicy struct {
	mode DegradationPolicyMode
}

// NewDegradationPolicy defaults to lenient when mode is unrecognised.
func NewDegradationPolicy(mode DegradationPolicyMode) DegradationPolicy {
	if mode != DegradationPolicyModeStrict {
		mode = DegradationPolicyModeLenient
	}
	return DegradationPolicy{mode: mode}
}

// ParseDegradationPolicyMode normalises configuration input.
func ParseDegradationPolicyMode(value string) DegradationPolicyMode {
	if strings.EqualFold(strings.TrimSpace(value), string(DegradationPolicyModeStrict)) {
		return DegradationPolicyModeStrict
	}
	return DegradationPolicyModeLenient
}

func (p DegradationPolicy) Mode() DegradationPolicyMode { return p.mode }

func (p DegradationPolicy) IsStrict() bool { return p.mode == DegradationPolicyModeStrict }

// AllowsFallback reports whether the local limiter may stand in for the store.
func (p DegradationPolicy) AllowsFallback(DegradationReason) bool {
	return !p.IsStrict()
}
