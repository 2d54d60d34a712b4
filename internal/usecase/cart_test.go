package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/config"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/telemetry"
)

const cartOwner = "acc-1"

func newCartFixture(t *testing.T, cfg config.CartSettings) (*CartService, *memStore, *recordingEvents, *telemetry.Metrics) {
	t.Helper()

	store := newMemStore()
	store.carts[cartOwner] = domain.NewCart("cart-1", cartOwner, fixedNow.Add(-time.Hour), 0)
	events := &recordingEvents{}
	metrics, err := telemetry.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	svc := NewCartService(fakeCarts{store}, events, tagStripper{}, metrics, cfg)
	svc.now = func() time.Time { return fixedNow }
	return svc, store, events, metrics
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCartAddItemRecomputesTotals(t *testing.T) {
	svc, store, _, _ := newCartFixture(t, config.CartSettings{})
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, cartOwner, domain.NewCartItem{ProductID: "p1", Quantity: 2, PriceAtTime: 10, Discount: 1, Tax: 0.8}); err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	cart, err := svc.ApplyCoupon(ctx, cartOwner, "save2", 2)
	if err != nil {
		t.Fatalf("ApplyCoupon returned error: %v", err)
	}
	cart, err = svc.SetShipping(ctx, cartOwner, "standard", 5)
	if err != nil {
		t.Fatalf("SetShipping returned error: %v", err)
	}

	if !almostEqual(cart.Subtotal, 20) || !almostEqual(cart.TotalDiscount, 3) || !almostEqual(cart.TotalTax, 0.8) ||
		!almostEqual(cart.TotalAmount, 22.8) || cart.ItemCount != 2 {
		t.Fatalf("unexpected totals: %+v", cart.Totals)
	}
	if cart.Version != 3 {
		t.Fatalf("expected three committed writes, got version %d", cart.Version)
	}
	if !cart.ExpiresAt.Equal(fixedNow.Add(domain.DefaultCartExpiry)) || !cart.LastUpdated.Equal(fixedNow) {
		t.Fatalf("expected expiry and lastUpdated to be pushed, got %v %v", cart.ExpiresAt, cart.LastUpdated)
	}

	stored := store.carts[cartOwner]
	if stored.Totals != domain.Recompute(stored.Items, stored.Coupons, stored.ShippingCost) {
		t.Fatal("persisted totals drifted from the recomputed value")
	}
}

func TestCartReapplyingCouponReplacesItInPlace(t *testing.T) {
	svc, store, _, _ := newCartFixture(t, config.CartSettings{})
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, cartOwner, domain.NewCartItem{ProductID: "p1", Quantity: 1, PriceAtTime: 50}); err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	if _, err := svc.ApplyCoupon(ctx, cartOwner, "spring", 5); err != nil {
		t.Fatalf("ApplyCoupon returned error: %v", err)
	}
	if _, err := svc.ApplyCoupon(ctx, cartOwner, "other", 1); err != nil {
		t.Fatalf("ApplyCoupon returned error: %v", err)
	}
	cart, err := svc.ApplyCoupon(ctx, cartOwner, "  SPRING ", 8)
	if err != nil {
		t.Fatalf("ApplyCoupon returned error: %v", err)
	}

	if len(cart.Coupons) != 2 {
		t.Fatalf("expected one coupon per code, got %+v", cart.Coupons)
	}
	if cart.Coupons[0].Code != "SPRING" || !almostEqual(cart.Coupons[0].DiscountAmount, 8) {
		t.Fatalf("expected SPRING to be replaced in place, got %+v", cart.Coupons[0])
	}
	if !almostEqual(cart.TotalDiscount, 9) || !almostEqual(cart.TotalAmount, 41) {
		t.Fatalf("unexpected totals after replacement: %+v", cart.Totals)
	}
	if stored := store.carts[cartOwner]; len(stored.Coupons) != 2 {
		t.Fatalf("expected the persisted cart to hold two coupons, got %d", len(stored.Coupons))
	}
}

func TestCartAddItemMergesVariants(t *testing.T) {
	svc, _, _, _ := newCartFixture(t, config.CartSettings{})
	ctx := context.Background()

	first := domain.NewCartItem{ProductID: "shirt", Quantity: 1, PriceAtTime: 15, Variant: domain.Variant{"size": "M", "color": "red"}}
	second := domain.NewCartItem{ProductID: "shirt", Quantity: 2, PriceAtTime: 15, Variant: domain.Variant{"color": "red", "size": "M"}}
	other := domain.NewCartItem{ProductID: "shirt", Quantity: 1, PriceAtTime: 15, Variant: domain.Variant{"size": "L"}}

	for _, item := range []domain.NewCartItem{first, second, other} {
		if _, err := svc.AddItem(ctx, cartOwner, item); err != nil {
			t.Fatalf("AddItem returned error: %v", err)
		}
	}

	cart, err := svc.Get(ctx, cartOwner)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(cart.Items) != 2 || cart.Items[0].Quantity != 3 || cart.ItemCount != 4 {
		t.Fatalf("expected merged line plus one, got %+v", cart.Items)
	}
}

func TestCartRemoveAndClear(t *testing.T) {
	svc, _, _, _ := newCartFixture(t, config.CartSettings{})
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, cartOwner, domain.NewCartItem{ProductID: "p1", Quantity: 1, PriceAtTime: 4}); err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	if _, err := svc.AddItem(ctx, cartOwner, domain.NewCartItem{ProductID: "p2", Quantity: 1, PriceAtTime: 6}); err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}

	cart, err := svc.RemoveItem(ctx, cartOwner, "p1", nil)
	if err != nil {
		t.Fatalf("RemoveItem returned error: %v", err)
	}
	if len(cart.Items) != 1 || !almostEqual(cart.Subtotal, 6) {
		t.Fatalf("unexpected cart after remove: %+v", cart)
	}

	if _, err := svc.RemoveItem(ctx, cartOwner, "p1", nil); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a missing line, got %v", err)
	}

	if _, err := svc.SetShipping(ctx, cartOwner, "express", 9); err != nil {
		t.Fatalf("SetShipping returned error: %v", err)
	}
	cart, err = svc.Clear(ctx, cartOwner)
	if err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if cart.Totals != (domain.Totals{}) || cart.ShippingMethodID != nil || len(cart.Items) != 0 {
		t.Fatalf("expected all-zero totals after clear, got %+v", cart)
	}
}

func TestCartRetriesOnVersionConflict(t *testing.T) {
	svc, store, _, metrics := newCartFixture(t, config.CartSettings{MaxRetries: 3, RetryBackoff: time.Millisecond})
	store.saveConflicts = 2

	cart, err := svc.AddItem(context.Background(), cartOwner, domain.NewCartItem{ProductID: "p1", Quantity: 1, PriceAtTime: 1})
	if err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	if store.saveCalls != 3 {
		t.Fatalf("expected three save attempts, got %d", store.saveCalls)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 1 {
		t.Fatalf("expected the item exactly once, got %+v", cart.Items)
	}
	if got := testutil.ToFloat64(metrics.CartRetries); got != 2 {
		t.Fatalf("expected two retries observed, got %v", got)
	}
}

func TestCartGivesUpAfterMaxRetries(t *testing.T) {
	svc, store, _, _ := newCartFixture(t, config.CartSettings{MaxRetries: 2, RetryBackoff: time.Millisecond})
	store.saveConflicts = 10

	_, err := svc.AddItem(context.Background(), cartOwner, domain.NewCartItem{ProductID: "p1", Quantity: 1, PriceAtTime: 1})
	if !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	if store.saveCalls != 3 {
		t.Fatalf("expected initial attempt plus two retries, got %d", store.saveCalls)
	}
}

func TestCartConcurrentAddsAreNotLost(t *testing.T) {
	svc, store, _, _ := newCartFixture(t, config.CartSettings{MaxRetries: 200, RetryBackoff: time.Millisecond})

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(context.Background(), cartOwner, domain.NewCartItem{ProductID: "p1", Quantity: 1, PriceAtTime: 2.5})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent AddItem returned error: %v", err)
		}
	}

	stored := store.carts[cartOwner]
	if len(stored.Items) != 1 || stored.Items[0].Quantity != writers {
		t.Fatalf("expected one line with quantity %d, got %+v", writers, stored.Items)
	}
	if stored.ItemCount != writers || !almostEqual(stored.Subtotal, 2.5*writers) {
		t.Fatalf("totals drifted under concurrency: %+v", stored.Totals)
	}
	if stored.Version != writers {
		t.Fatalf("expected %d committed versions, got %d", writers, stored.Version)
	}
}

func TestCartRejectsInvalidInputWithoutWriting(t *testing.T) {
	svc, store, _, _ := newCartFixture(t, config.CartSettings{})

	_, err := svc.AddItem(context.Background(), cartOwner, domain.NewCartItem{ProductID: "p1", Quantity: 101, PriceAtTime: 1})
	if !errors.Is(err, domain.ErrValidationFailed) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.saveCalls != 0 {
		t.Fatalf("expected no save, got %d", store.saveCalls)
	}
}

func TestCartInactiveAfterDisable(t *testing.T) {
	svc, store, _, _ := newCartFixture(t, config.CartSettings{})
	if err := (fakeCarts{store}).Deactivate(context.Background(), cartOwner, fixedNow); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	_, err := svc.AddItem(context.Background(), cartOwner, domain.NewCartItem{ProductID: "p1", Quantity: 1, PriceAtTime: 1})
	if !errors.Is(err, ErrCartInactive) || !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected inactive cart error, got %v", err)
	}
}

func TestCartPublishesUpdatesWhenEnabled(t *testing.T) {
	svc, _, events, _ := newCartFixture(t, config.CartSettings{PublishEvents: true})

	cart, err := svc.AddItem(context.Background(), cartOwner, domain.NewCartItem{ProductID: "p1", Quantity: 2, PriceAtTime: 3, Notes: "<b>gift</b>"})
	if err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	if cart.Items[0].Notes != "gift" {
		t.Fatalf("expected sanitized notes, got %q", cart.Items[0].Notes)
	}
	if len(events.cart) != 1 || events.cart[0].Action != "add_item" || events.cart[0].ItemCount != 2 || events.cart[0].Version != 1 {
		t.Fatalf("unexpected cart events: %+v", events.cart)
	}
}
