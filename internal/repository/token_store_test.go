package repository

import (
	"context"
	"testing"
	"time"
)

func TestMemoryTokenStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTokenStore()

	if _, err := s.Get(ctx, "dev"); err != ErrTokenNotFound {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}

	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Set(ctx, "dev", "sealed", now.Add(time.Hour))
	got, err := s.Get(ctx, "dev")
	if err != nil || got != "sealed" {
		t.Fatalf("got %q, %v", got, err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := s.Get(ctx, "dev"); err != ErrTokenNotFound {
		t.Fatalf("expired entry returned: %v", err)
	}

	s.Set(ctx, "forever", "x", time.Time{})
	s.Delete(ctx, "forever")
	if _, err := s.Get(ctx, "forever"); err != ErrTokenNotFound {
		t.Fatal("delete did not remove entry")
	}
}

func TestMemoryTokenStorePurge(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTokenStore()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Set(ctx, "old", "a", now.Add(-time.Minute))
	s.Set(ctx, "live", "b", now.Add(time.Hour))
	s.Set(ctx, "forever", "c", time.Time{})

	n, err := s.PurgeExpired(ctx)
	if err != nil || n != 1 {
		t.Fatalf("purged %d, %v", n, err)
	}
	if err := PingStore(ctx, s); err != nil {
		t.Fatalf("memory store ping: %v", err)
	}
	if _, err := s.Get(ctx, "live"); err != nil {
		t.Fatal("live entry purged")
	}
}
