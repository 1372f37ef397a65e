package memory

import (
	"context"
	"errors"
	"testing"

	"timed-quiz-service/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	if err := store.Acquire(ctx, "u1", "s1", 0); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, ok := store.Get("u1"); !ok {
		t.Fatalf("expected session present")
	}
	if err := store.Acquire(ctx, "u1", "s2", 0); !errors.Is(err, domain.ErrSessionInProgress) {
		t.Fatalf("expected in-progress error, got %v", err)
	}

	store.Release(ctx, "u1", "s2")
	if _, ok := store.Get("u1"); !ok {
		t.Fatalf("release by a foreign session must not free the slot")
	}

	store.Release(ctx, "u1", "s1")
	if store.Len() != 0 {
		t.Fatalf("expected session removed")
	}
}
