package telemetry

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the domain counters of the account backend.
type Metrics struct {
	Registrations    *prometheus.CounterVec
	Logins           *prometheus.CounterVec
	DefaultSwitches  *prometheus.CounterVec
	CartMutations    *prometheus.CounterVec
	CartRetries      prometheus.Counter
	RateLimitDegrade *prometheus.CounterVec
}

// NewMetrics registers the domain collectors. A nil registerer uses the
// default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shop",
			Subsystem: "account",
			Name:      "registrations_total",
			Help:      "Account registrations partitioned by outcome.",
		}, []string{"outcome"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shop",
			Subsystem: "account",
			Name:      "logins_total",
			Help:      "Login attempts partitioned by outcome.",
		}, []string{"outcome"}),
		DefaultSwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shop",
			Subsystem: "default_scope",
			Name:      "switches_total",
			Help:      "Default designations applied partitioned by kind.",
		}, []string{"kind"}),
		CartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shop",
			Subsystem: "cart",
			Name:      "mutations_total",
			Help:      "Cart mutations partitioned by action and outcome.",
		}, []string{"action", "outcome"}),
		CartRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shop",
			Subsystem: "cart",
			Name:      "version_conflicts_total",
			Help:      "Cart writes retried after a concurrent update.",
		}),
		RateLimitDegrade: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shop",
			Subsystem: "rate_limit",
			Name:      "degraded_total",
			Help:      "Requests evaluated while the rate limit store was unavailable.",
		}, []string{"policy"}),
	}

	collectors := []prometheus.Collector{
		m.Registrations, m.Logins, m.DefaultSwitches, m.CartMutations, m.CartRetries, m.RateLimitDegrade,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return m, nil
}

// ObserveRegistration is safe on a nil receiver.
func (m *Metrics) ObserveRegistration(outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveDefaultSwitch(kind string) {
	if m == nil {
		return
	}
	m.DefaultSwitches.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveCartMutation(action, outcome string) {
	if m == nil {
		return
	}
	m.CartMutations.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) ObserveCartRetry() {
	if m == nil {
		return
	}
	m.CartRetries.Inc()
}

func (m *Metrics) ObserveRateLimitDegraded(policy string) {
	if m == nil {
		return
	}
	m.RateLimitDegrade.WithLabelValues(policy).Inc()
}

// RegisterOrReuse registers c, or returns the collector already registered
// under the same descriptor so several servers can share one registry.
func RegisterOrReuse[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var already prometheus.AlreadyRegisteredError
	if !errors.As(err, &already) {
		return c, err
	}
	existing, ok := already.ExistingCollector.(T)
	if !ok {
		return c, fmt.Errorf("existing collector has unexpected type %T", already.ExistingCollector)
	}
	return existing, nil
}
