package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/telemetry"
)

const (
	rateLimitProblemType    = "https://shop.example.com/errors/rate-limit-exceeded"
	rateLimitProblemTitle   = "Rate Limit Exceeded"
	degradedProblemType     = "https://shop.example.com/errors/rate-limit-unavailable"
	degradedProblemTitle    = "Rate Limiting Unavailable"
	localLimiterPruneAfter  = 1024
	localLimiterIdleTimeout = 10 * time.Minute
)

// IdentifierFunc extracts the identifier used to scope rate limits (e.g., client IP).
type IdentifierFunc func(*gin.Context) (string, bool)

// RateLimitRule configures a sliding-window limit for a particular identifier.
type RateLimitRule struct {
	Name       string
	Limit      int
	Window     time.Duration
	Identifier IdentifierFunc
}

// RateLimiter enforces rules against the shared store and degrades to a
// process-local token bucket, or to 503 under a strict policy, when the store
// cannot be reached.
type RateLimiter struct {
	store   port.RateLimitStore
	policy  domain.DegradationPolicy
	metrics *telemetry.Metrics
	logger  *zap.Logger
	now     func() time.Time
	local   *localLimiter
}

// RateLimiterOption customises a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithDegradationPolicy selects the behaviour used when the store fails.
func WithDegradationPolicy(policy domain.DegradationPolicy) RateLimiterOption {
	return func(rl *RateLimiter) { rl.policy = policy }
}

// WithRateLimitMetrics records degraded decisions.
func WithRateLimitMetrics(metrics *telemetry.Metrics) RateLimiterOption {
	return func(rl *RateLimiter) { rl.metrics = metrics }
}

type ruleResult struct {
	rule       RateLimitRule
	allowed    bool
	limit      int
	remaining  int
	reset      time.Time
	retryAfter time.Duration
	identifier string
	storageKey string
}

// ProblemDetails is an RFC 9457 payload that also carries the response envelope fields.
type ProblemDetails struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message"`
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail"`
	Instance   string         `json:"instance"`
	RetryAfter int            `json:"retry_after,omitempty"`
	TraceID    string         `json:"trace_id,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// NewRateLimiter builds a reusable rate limiter middleware helper. A nil store
// runs every rule on the local limiter.
func NewRateLimiter(store port.RateLimitStore, logger *zap.Logger, opts ...RateLimiterOption) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}

	rl := &RateLimiter{
		store:  store,
		policy: domain.NewDegradationPolicy(domain.DegradationPolicyModeLenient),
		logger: logger,
		now:    time.Now,
		local:  newLocalLimiter(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(rl)
		}
	}
	return rl
}

// WithClock allows injection of a custom clock (primarily for testing).
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	if now != nil {
		rl.now = now
	}
	return rl
}

// ClientIPIdentifier builds an IdentifierFunc using the request's client IP.
func ClientIPIdentifier() IdentifierFunc {
	return func(c *gin.Context) (string, bool) {
		ip := c.ClientIP()
		if ip == "" {
			return "", false
		}
		return ip, true
	}
}

// RateLimit returns a Gin middleware enforcing the provided rules.
func (rl *RateLimiter) RateLimit(rules ...RateLimitRule) gin.HandlerFunc {
	filtered := make([]RateLimitRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Identifier == nil || rule.Limit <= 0 || rule.Window <= 0 {
			continue
		}
		if rule.Name == "" {
			rule.Name = "default"
		}
		filtered = append(filtered, rule)
	}

	return func(c *gin.Context) {
		if len(filtered) == 0 {
			c.Next()
			return
		}

		now := rl.now()
		var best *ruleResult

		for _, rule := range filtered {
			identifier, ok := rule.Identifier(c)
			if !ok || identifier == "" {
				continue
			}

			key := fmt.Sprintf("%s:%s", rule.Name, identifier)

			res, err := rl.evaluate(c.Request.Context(), rule, identifier, key, now)
			if err != nil {
				reason := degradationReason(err)
				rl.logger.Warn("rate limit store unavailable",
					zap.String("rule", rule.Name),
					zap.String("reason", string(reason)),
					zap.String("policy", string(rl.policy.Mode())),
					zap.Error(err),
				)
				rl.metrics.ObserveRateLimitDegraded(string(rl.policy.Mode()))

				if !rl.policy.AllowsFallback(reason) {
					rl.respondDegraded(c, reason)
					return
				}
				res = rl.local.evaluate(rule, identifier, key, now)
			}

			if best == nil || shouldReplaceHeaderResult(*best, res) {
				snapshot := res
				best = &snapshot
			}

			if !res.allowed {
				applyHeaders(c, res)
				rl.respondRateLimited(c, res)
				return
			}
		}

		if best != nil {
			applyHeaders(c, *best)
		}

		c.Next()
	}
}

func (rl *RateLimiter) evaluate(ctx context.Context, rule RateLimitRule, identifier, key string, now time.Time) (ruleResult, error) {
	if rl.store == nil {
		return rl.local.evaluate(rule, identifier, key, now), nil
	}

	if err := rl.store.TrimWindow(ctx, key, rule.Window, now); err != nil {
		return ruleResult{}, err
	}

	count, err := rl.store.CountAttempts(ctx, key, rule.Window, now)
	if err != nil {
		return ruleResult{}, err
	}

	oldest, hasAttempts, err := rl.store.OldestAttempt(ctx, key, rule.Window, now)
	if err != nil {
		return ruleResult{}, err
	}

	result := ruleResult{
		rule:       rule,
		limit:      rule.Limit,
		identifier: identifier,
		storageKey: key,
		reset:      now.Add(rule.Window),
		allowed:    true,
	}
	if hasAttempts {
		result.reset = oldest.Add(rule.Window)
	}

	if count >= rule.Limit {
		result.allowed = false
		result.retryAfter = max(result.reset.Sub(now), 0)
		return result, nil
	}

	if err := rl.store.RecordAttempt(ctx, key, now); err != nil {
		return ruleResult{}, err
	}

	result.remaining = max(rule.Limit-(count+1), 0)
	result.retryAfter = max(result.reset.Sub(now), 0)
	return result, nil
}

func degradationReason(err error) domain.DegradationReason {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.DegradationReasonStoreTimeout
	}
	return domain.DegradationReasonStoreUnavailable
}

func shouldReplaceHeaderResult(current, candidate ruleResult) bool {
	if !candidate.allowed && current.allowed {
		return true
	}

	if candidate.allowed == current.allowed {
		if candidate.remaining < current.remaining {
			return true
		}
		if candidate.remaining == current.remaining && candidate.reset.Before(current.reset) {
			return true
		}
	}

	return false
}

func retrySeconds(d time.Duration) int {
	return max(int(math.Ceil(d.Seconds())), 0)
}

func applyHeaders(c *gin.Context, res ruleResult) {
	headers := c.Writer.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(res.limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(max(res.remaining, 0)))
	headers.Set("X-RateLimit-Reset", strconv.FormatInt(res.reset.Unix(), 10))

	if !res.allowed {
		headers.Set("Retry-After", strconv.Itoa(retrySeconds(res.retryAfter)))
	}
}

func instanceOf(c *gin.Context) string {
	if instance := c.FullPath(); instance != "" {
		return instance
	}
	return c.Request.URL.Path
}

func (rl *RateLimiter) respondRateLimited(c *gin.Context, res ruleResult) {
	seconds := retrySeconds(res.retryAfter)
	detail := fmt.Sprintf("Too many requests. Try again in %d seconds.", seconds)

	c.AbortWithStatusJSON(http.StatusTooManyRequests, ProblemDetails{
		Message:    detail,
		Type:       rateLimitProblemType,
		Title:      rateLimitProblemTitle,
		Status:     http.StatusTooManyRequests,
		Detail:     detail,
		Instance:   instanceOf(c),
		RetryAfter: seconds,
		TraceID:    GetTraceID(c),
	})
}

func (rl *RateLimiter) respondDegraded(c *gin.Context, reason domain.DegradationReason) {
	detail := "Rate limiting is temporarily unavailable. Please retry shortly."
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, ProblemDetails{
		Message:    detail,
		Type:       degradedProblemType,
		Title:      degradedProblemTitle,
		Status:     http.StatusServiceUnavailable,
		Detail:     detail,
		Instance:   instanceOf(c),
		TraceID:    GetTraceID(c),
		Extensions: map[string]any{"reason": string(reason)},
	})
}

// localLimiter approximates each sliding window with a token bucket that
// refills Limit tokens per Window.
type localLimiter struct {
	mu      sync.Mutex
	buckets map[string]*localBucket
}

type localBucket struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func newLocalLimiter() *localLimiter {
	return &localLimiter{buckets: make(map[string]*localBucket)}
}

func (l *localLimiter) evaluate(rule RateLimitRule, identifier, key string, now time.Time) ruleResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.buckets) >= localLimiterPruneAfter {
		for k, b := range l.buckets {
			if now.Sub(b.lastAccess) > localLimiterIdleTimeout {
				delete(l.buckets, k)
			}
		}
	}

	bucket, ok := l.buckets[key]
	if !ok {
		every := rate.Every(rule.Window / time.Duration(rule.Limit))
		bucket = &localBucket{limiter: rate.NewLimiter(every, rule.Limit)}
		l.buckets[key] = bucket
	}
	bucket.lastAccess = now

	result := ruleResult{
		rule:       rule,
		limit:      rule.Limit,
		identifier: identifier,
		storageKey: key,
		reset:      now.Add(rule.Window),
		allowed:    bucket.limiter.AllowN(now, 1),
	}

	tokens := bucket.limiter.TokensAt(now)
	result.remaining = max(int(tokens), 0)
	if !result.allowed {
		perSecond := float64(bucket.limiter.Limit())
		wait := time.Duration((1 - tokens) / perSecond * float64(time.Second))
		result.retryAfter = max(wait, 0)
		result.reset = now.Add(result.retryAfter)
	}
	return result
}
