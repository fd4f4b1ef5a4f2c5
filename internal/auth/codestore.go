package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/modmark-app/modmark/internal/apperr"
)

// CodeStore holds short-lived email verification codes. The memory store is
// process-local and lost on restart; codes are re-requestable so that is
// acceptable for a single instance. Use the redis store when running more
// than one.
type CodeStore interface {
	Put(ctx context.Context, email, code string) error
	// Consume verifies and invalidates the code in one step.
	Consume(ctx context.Context, email, code string) error
}

// GenerateCode returns a 6-digit numeric code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// ---- memory ----

type memoryCodeStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	codes map[string]memoryCode
	now   func() time.Time
}

type memoryCode struct {
	code    string
	expires time.Time
}

func NewMemoryCodeStore(ttl time.Duration) CodeStore {
	return &memoryCodeStore{
		ttl:   ttl,
		codes: map[string]memoryCode{},
		now:   time.Now,
	}
}

func (s *memoryCodeStore) Put(_ context.Context, email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// lazy expiry: sweep while we hold the lock
	now := s.now()
	for k, v := range s.codes {
		if now.After(v.expires) {
			delete(s.codes, k)
		}
	}
	s.codes[email] = memoryCode{code: code, expires: now.Add(s.ttl)}
	return nil
}

func (s *memoryCodeStore) Consume(_ context.Context, email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[email]
	if !ok {
		return apperr.NotFound("no code issued for %s", email)
	}
	if s.now().After(c.expires) {
		delete(s.codes, email)
		return apperr.Expired("verification code expired")
	}
	if c.code != code {
		return apperr.Validation("incorrect verification code")
	}
	delete(s.codes, email)
	return nil
}

// ---- redis ----

type redisCodeStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCodeStore(addr string, ttl time.Duration) CodeStore {
	return &redisCodeStore{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
		ttl: ttl,
	}
}

func codeKey(email string) string { return "verify:" + email }

func (s *redisCodeStore) Put(ctx context.Context, email, code string) error {
	if err := s.rdb.Set(ctx, codeKey(email), code, s.ttl).Err(); err != nil {
		return apperr.Upstream(err, "storing verification code")
	}
	return nil
}

func (s *redisCodeStore) Consume(ctx context.Context, email, code string) error {
	stored, err := s.rdb.GetDel(ctx, codeKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return apperr.Expired("verification code expired or not issued")
	}
	if err != nil {
		return apperr.Upstream(err, "reading verification code")
	}
	if stored != code {
		// burn the code on mismatch; the user must request a fresh one
		return apperr.Validation("incorrect verification code")
	}
	return nil
}
