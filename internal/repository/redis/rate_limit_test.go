package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*red.Client, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := red.NewClient(&red.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return client, server
}

func TestRateLimitRepository_CountsSameInstantAttempts(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{KeyPrefix: "shop:ratelimit", TTL: time.Minute})

	ctx := context.Background()
	at := time.Unix(1_700_000_000, 0)

	for i := 0; i < 3; i++ {
		if err := repo.RecordAttempt(ctx, "login:10.0.0.1", at); err != nil {
			t.Fatalf("RecordAttempt returned error: %v", err)
		}
	}

	count, err := repo.CountAttempts(ctx, "login:10.0.0.1", time.Minute, at)
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 attempts, got %d", count)
	}

	if ttl := server.TTL("shop:ratelimit:login:10.0.0.1"); ttl != time.Minute {
		t.Fatalf("expected ttl of one minute, got %v", ttl)
	}
}

func TestRateLimitRepository_TrimAndOldest(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{KeyPrefix: "rl"})

	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0)
	window := time.Minute

	for _, offset := range []time.Duration{0, 30 * time.Second, 90 * time.Second} {
		if err := repo.RecordAttempt(ctx, "register:ip", base.Add(offset)); err != nil {
			t.Fatalf("RecordAttempt returned error: %v", err)
		}
	}

	reference := base.Add(100 * time.Second)
	if err := repo.TrimWindow(ctx, "register:ip", window, reference); err != nil {
		t.Fatalf("TrimWindow returned error: %v", err)
	}

	count, err := repo.CountAttempts(ctx, "register:ip", window, reference)
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 attempt in window, got %d", count)
	}

	oldest, ok, err := repo.OldestAttempt(ctx, "register:ip", window, reference)
	if err != nil {
		t.Fatalf("OldestAttempt returned error: %v", err)
	}
	if !ok || !oldest.Equal(base.Add(90*time.Second)) {
		t.Fatalf("unexpected oldest attempt: %v (found=%v)", oldest, ok)
	}
}

func TestRateLimitRepository_RejectsNonPositiveWindow(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{})

	if _, err := repo.CountAttempts(context.Background(), "k", 0, time.Now()); err == nil {
		t.Fatal("expected error for zero window")
	}
}

func TestRateLimitRepository_StoreUnavailable(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{})
	server.Close()

	if err := repo.RecordAttempt(context.Background(), "k", time.Now()); err == nil {
		t.Fatal("expected error when redis is down")
	}
}
