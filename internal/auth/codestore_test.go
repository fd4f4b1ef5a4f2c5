package auth

import (
	"context"
	"testing"
	"time"

	"github.com/modmark-app/modmark/internal/apperr"
)

func TestMemoryCodeStoreConsume(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCodeStore(10 * time.Minute).(*memoryCodeStore)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	now := base
	s.now = func() time.Time { return now }

	if err := s.Put(ctx, "tutor@example.com", "123456"); err != nil {
		t.Fatalf("put: %v", err)
	}

	if err := s.Consume(ctx, "tutor@example.com", "000000"); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("wrong code: want validation error, got %v", err)
	}
	if err := s.Consume(ctx, "tutor@example.com", "123456"); err != nil {
		t.Fatalf("consume: %v", err)
	}
	// single use
	if err := s.Consume(ctx, "tutor@example.com", "123456"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("second consume: want not-found, got %v", err)
	}
}

func TestMemoryCodeStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCodeStore(10 * time.Minute).(*memoryCodeStore)

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if err := s.Put(ctx, "tutor@example.com", "654321"); err != nil {
		t.Fatalf("put: %v", err)
	}
	now = now.Add(10*time.Minute + time.Second)
	if err := s.Consume(ctx, "tutor@example.com", "654321"); apperr.KindOf(err) != apperr.KindExpired {
		t.Fatalf("want expired, got %v", err)
	}
}

func TestGenerateCode(t *testing.T) {
	c, err := GenerateCode()
	if err != nil {
		t.Fatal(err)
	}
	if len(c) != 6 {
		t.Fatalf("want 6 digits, got %q", c)
	}
}
