package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/telemetry"
)

// scopedRow is the (owner, scope, isDefault, isActive) shape shared by
// addresses and payment methods.
type scopedRow struct {
	scope     domain.DefaultScope
	isDefault bool
	isActive  bool
}

// memDefaultStore serializes each scope on its own lock, like the advisory
// lock the postgres store takes.
type memDefaultStore struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	rows  map[string]*scopedRow
	// yield widens the window between clearing and setting so racing callers
	// would interleave without the scope lock.
	yield func()
}

func newMemDefaultStore() *memDefaultStore {
	return &memDefaultStore{locks: map[string]*sync.Mutex{}, rows: map[string]*scopedRow{}, yield: func() {}}
}

func (m *memDefaultStore) add(id string, scope domain.DefaultScope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[id] = &scopedRow{scope: scope, isActive: true}
}

func (m *memDefaultStore) scopeLock(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	return l
}

func (m *memDefaultStore) SetDefault(_ context.Context, scope domain.DefaultScope, entityID string, _ time.Time) error {
	l := m.scopeLock(scope.LockKey())
	l.Lock()
	defer l.Unlock()

	m.mu.Lock()
	target, ok := m.rows[entityID]
	m.mu.Unlock()
	if !ok || !target.isActive || target.scope != scope {
		return domain.ErrNotFound
	}

	for id, row := range m.snapshot() {
		if id != entityID && row.scope == scope {
			m.setFlag(id, false)
		}
	}
	m.yield()
	m.setFlag(entityID, true)
	return nil
}

func (m *memDefaultStore) ClearDefault(_ context.Context, scope domain.DefaultScope, _ time.Time) error {
	l := m.scopeLock(scope.LockKey())
	l.Lock()
	defer l.Unlock()
	for id, row := range m.snapshot() {
		if row.scope == scope {
			m.setFlag(id, false)
		}
	}
	return nil
}

func (m *memDefaultStore) snapshot() map[string]scopedRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]scopedRow, len(m.rows))
	for id, row := range m.rows {
		out[id] = *row
	}
	return out
}

func (m *memDefaultStore) setFlag(id string, v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[id].isDefault = v
}

func (m *memDefaultStore) defaults(scope domain.DefaultScope) []string {
	var out []string
	for id, row := range m.snapshot() {
		if row.scope == scope && row.isActive && row.isDefault {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func newRegistry(t *testing.T, store *memDefaultStore) (*DefaultScopeRegistry, *telemetry.Metrics) {
	t.Helper()
	metrics, err := telemetry.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return NewDefaultScopeRegistry(store, metrics), metrics
}

func TestSetDefaultMovesTheFlag(t *testing.T) {
	store := newMemDefaultStore()
	registry, metrics := newRegistry(t, store)
	ctx := context.Background()

	shipping := domain.AddressScope("owner", domain.AddressShipping)
	billing := domain.AddressScope("owner", domain.AddressBilling)
	store.add("a1", shipping)
	store.add("a2", shipping)
	store.add("b1", billing)

	for _, id := range []string{"a1", "a2"} {
		if err := registry.SetDefault(ctx, shipping, id); err != nil {
			t.Fatalf("SetDefault(%s) returned error: %v", id, err)
		}
	}
	if err := registry.SetDefault(ctx, billing, "b1"); err != nil {
		t.Fatalf("SetDefault(b1) returned error: %v", err)
	}

	if got := store.defaults(shipping); fmt.Sprint(got) != "[a2]" {
		t.Fatalf("expected a2 to be the only shipping default, got %v", got)
	}
	if got := store.defaults(billing); fmt.Sprint(got) != "[b1]" {
		t.Fatalf("expected billing scope untouched, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.DefaultSwitches.WithLabelValues("address")); got != 3 {
		t.Fatalf("expected three switches, got %v", got)
	}
}

func TestSetDefaultRejectsInvalidInput(t *testing.T) {
	store := newMemDefaultStore()
	registry, _ := newRegistry(t, store)
	ctx := context.Background()

	bad := domain.DefaultScope{Kind: domain.DefaultKindAddress, OwnerID: "owner", Scope: "warehouse"}
	if err := registry.SetDefault(ctx, bad, "a1"); !errors.Is(err, domain.ErrValidationFailed) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := registry.SetDefault(ctx, domain.PaymentMethodScope("owner"), " "); !errors.Is(err, domain.ErrValidationFailed) {
		t.Fatalf("expected validation error for blank id, got %v", err)
	}

	store.add("pm1", domain.PaymentMethodScope("other-owner"))
	if err := registry.SetDefault(ctx, domain.PaymentMethodScope("owner"), "pm1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a foreign entity, got %v", err)
	}
}

func TestConcurrentSetDefaultConvergesOnOneWinner(t *testing.T) {
	store := newMemDefaultStore()
	store.yield = func() { time.Sleep(time.Millisecond) }
	registry, _ := newRegistry(t, store)

	scope := domain.PaymentMethodScope("owner")
	const candidates = 12
	for i := 0; i < candidates; i++ {
		store.add(fmt.Sprintf("pm%02d", i), scope)
	}

	var wg sync.WaitGroup
	for i := 0; i < candidates; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := registry.SetDefault(context.Background(), scope, id); err != nil {
				t.Errorf("SetDefault(%s) returned error: %v", id, err)
			}
		}(fmt.Sprintf("pm%02d", i))
	}
	wg.Wait()

	if got := store.defaults(scope); len(got) != 1 {
		t.Fatalf("expected exactly one default, got %v", got)
	}
}

func TestDeactivatingDefaultLeavesScopeEmpty(t *testing.T) {
	store := newMemDefaultStore()
	registry, _ := newRegistry(t, store)
	scope := domain.PaymentMethodScope("owner")
	store.add("pm1", scope)
	store.add("pm2", scope)

	if err := registry.SetDefault(context.Background(), scope, "pm1"); err != nil {
		t.Fatalf("SetDefault returned error: %v", err)
	}
	store.mu.Lock()
	store.rows["pm1"].isActive = false
	store.mu.Unlock()

	if got := store.defaults(scope); len(got) != 0 {
		t.Fatalf("expected no automatic promotion, got %v", got)
	}

	if err := registry.ClearDefault(context.Background(), scope); err != nil {
		t.Fatalf("ClearDefault returned error: %v", err)
	}
}
