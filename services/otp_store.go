package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/HSouheill/ladli_lakshmi_backend/utils"
)

// ErrOTPNotFound is returned by stores when no live code exists for a key
var ErrOTPNotFound = errors.New("otp not found")

// OTPStore keeps pending one-time codes and verification attempt counters
type OTPStore interface {
	Save(ctx context.Context, key, code string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	CountAttempt(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisOTPStore keeps codes in Redis with native key expiry
type RedisOTPStore struct {
	rdb *redis.Client
}

func NewRedisOTPStore(rdb *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{rdb: rdb}
}

func (s *RedisOTPStore) Save(ctx context.Context, key, code string, ttl time.Duration) error {
	return s.rdb.Set(ctx, "otp:"+key, code, ttl).Err()
}

func (s *RedisOTPStore) Get(ctx context.Context, key string) (string, error) {
	code, err := s.rdb.Get(ctx, "otp:"+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrOTPNotFound
	}
	return code, err
}

func (s *RedisOTPStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, "otp:"+key).Err()
}

func (s *RedisOTPStore) CountAttempt(ctx context.Context, key string, window time.Duration) (int64, error) {
	return utils.CountOTPAttempt(ctx, s.rdb, "otp_attempts:"+key, window)
}

type memoryOTP struct {
	code      string
	expiresAt time.Time
}

type memoryAttempts struct {
	count     int64
	expiresAt time.Time
}

// MemoryOTPStore is the in-process fallback used when Redis is unavailable
type MemoryOTPStore struct {
	mu       sync.Mutex
	codes    map[string]memoryOTP
	attempts map[string]memoryAttempts
	now      func() time.Time
}

func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{
		codes:    make(map[string]memoryOTP),
		attempts: make(map[string]memoryAttempts),
		now:      time.Now,
	}
}

func (s *MemoryOTPStore) Save(_ context.Context, key, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[key] = memoryOTP{code: code, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryOTPStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.codes[key]
	if !ok {
		return "", ErrOTPNotFound
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.codes, key)
		return "", ErrOTPNotFound
	}
	return entry.code, nil
}

func (s *MemoryOTPStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, key)
	return nil
}

func (s *MemoryOTPStore) CountAttempt(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry, ok := s.attempts[key]
	if !ok || !now.Before(entry.expiresAt) {
		entry = memoryAttempts{expiresAt: now.Add(window)}
	}
	entry.count++
	s.attempts[key] = entry
	return entry.count, nil
}
