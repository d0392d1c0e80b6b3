package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/HSouheill/ladli_lakshmi_backend/models"
)

const matrixCachePrefix = "matrix:"

// RedisMatrixCache stores rendered matrices as JSON
type RedisMatrixCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisMatrixCache(rdb *redis.Client, ttl time.Duration) *RedisMatrixCache {
	return &RedisMatrixCache{rdb: rdb, ttl: ttl}
}

func (c *RedisMatrixCache) Get(ctx context.Context, rootID string) (*models.MatrixResponse, bool, error) {
	raw, err := c.rdb.Get(ctx, matrixCachePrefix+rootID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached matrix: %w", err)
	}

	var resp models.MatrixResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached matrix: %w", err)
	}
	return &resp, true, nil
}

func (c *RedisMatrixCache) Set(ctx context.Context, rootID string, resp *models.MatrixResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode matrix: %w", err)
	}
	return c.rdb.Set(ctx, matrixCachePrefix+rootID, raw, c.ttl).Err()
}

func (c *RedisMatrixCache) Invalidate(ctx context.Context, rootID string) error {
	return c.rdb.Del(ctx, matrixCachePrefix+rootID).Err()
}

type cachedMatrix struct {
	raw       []byte
	expiresAt time.Time
}

// MemoryMatrixCache is used when Redis is unavailable
type MemoryMatrixCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cachedMatrix
	now     func() time.Time
}

func NewMemoryMatrixCache(ttl time.Duration) *MemoryMatrixCache {
	return &MemoryMatrixCache{
		ttl:     ttl,
		entries: make(map[string]cachedMatrix),
		now:     time.Now,
	}
}

func (c *MemoryMatrixCache) Get(_ context.Context, rootID string) (*models.MatrixResponse, bool, error) {
	c.mu.Lock()
	entry, ok := c.entries[rootID]
	if ok && !c.now().Before(entry.expiresAt) {
		delete(c.entries, rootID)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return nil, false, nil
	}

	// stored encoded so callers never share the cached tree
	var resp models.MatrixResponse
	if err := json.Unmarshal(entry.raw, &resp); err != nil {
		return nil, false, err
	}
	return &resp, true, nil
}

func (c *MemoryMatrixCache) Set(_ context.Context, rootID string, resp *models.MatrixResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode matrix: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[rootID] = cachedMatrix{raw: raw, expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *MemoryMatrixCache) Invalidate(_ context.Context, rootID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, rootID)
	return nil
}
