package stripewebhook

import (
	"context"
	"testing"
	"time"
)

type stubIdempotencyStore struct {
	keys map[string]string
}

func newStubIdempotencyStore() *stubIdempotencyStore {
	return &stubIdempotencyStore{keys: make(map[string]string)}
}

func (s *stubIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	return s.keys[key], nil
}

func (s *stubIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, exists := s.keys[key]; exists {
		return false, nil
	}
	s.keys[key] = value.(string)
	return true, nil
}

func (s *stubIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "cb:idempotency:" + scope + ":" + id
}

func (s *stubIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.keys, key)
	}
	return nil
}

func TestIdempotencyGuardMarksAndReleases(t *testing.T) {
	store := newStubIdempotencyStore()
	guard, err := NewIdempotencyGuard(store, time.Hour, "stripe")
	if err != nil {
		t.Fatalf("NewIdempotencyGuard: %v", err)
	}

	seen, err := guard.CheckAndMark(context.Background(), "evt_1")
	if err != nil || seen {
		t.Fatalf("first delivery must not be seen: seen=%v err=%v", seen, err)
	}
	seen, err = guard.CheckAndMark(context.Background(), "evt_1")
	if err != nil || !seen {
		t.Fatalf("replay must be seen: seen=%v err=%v", seen, err)
	}

	if err := guard.Release(context.Background(), "evt_1"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	seen, err = guard.CheckAndMark(context.Background(), "evt_1")
	if err != nil || seen {
		t.Fatalf("released event must be retryable: seen=%v err=%v", seen, err)
	}
}

func TestIdempotencyGuardValidation(t *testing.T) {
	if _, err := NewIdempotencyGuard(nil, time.Hour, "stripe"); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewIdempotencyGuard(newStubIdempotencyStore(), time.Hour, ""); err == nil {
		t.Fatal("expected error for empty scope")
	}

	guard, err := NewIdempotencyGuard(newStubIdempotencyStore(), time.Hour, "stripe")
	if err != nil {
		t.Fatalf("NewIdempotencyGuard: %v", err)
	}
	if _, err := guard.CheckAndMark(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty event id")
	}
}
