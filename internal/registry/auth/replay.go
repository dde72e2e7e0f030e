package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sasha-s/go-deadlock"
)

// ReplayCache remembers proof ids until the proof expires. Remember
// reports false when id was already seen.
type ReplayCache interface {
	Remember(ctx context.Context, id string, expires time.Time) (bool, error)
}

const usedProofKeyPrefix = "folio:proof:jti:"

// RedisReplayCache shares seen proof ids between server instances.
type RedisReplayCache struct {
	client redis.UniversalClient
	clock  func() time.Time
}

func NewRedisReplayCache(client redis.UniversalClient) *RedisReplayCache {
	return &RedisReplayCache{client: client, clock: time.Now}
}

// Remember marks id with SETNX; the key lives as long as the proof.
func (c *RedisReplayCache) Remember(ctx context.Context, id string, expires time.Time) (bool, error) {
	ttl := expires.Sub(c.clock())
	if ttl < time.Second {
		ttl = time.Second
	}
	return c.client.SetNX(ctx, usedProofKeyPrefix+id, "1", ttl).Result()
}

// MemoryReplayCache is the single-process cache. Expired ids are swept on
// insert.
type MemoryReplayCache struct {
	mu    deadlock.Mutex
	seen  map[string]time.Time
	clock func() time.Time
}

func NewMemoryReplayCache(clock func() time.Time) *MemoryReplayCache {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryReplayCache{seen: make(map[string]time.Time), clock: clock}
}

func (c *MemoryReplayCache) Remember(_ context.Context, id string, expires time.Time) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock()
	for k, exp := range c.seen {
		if !exp.After(now) {
			delete(c.seen, k)
		}
	}
	if _, ok := c.seen[id]; ok {
		return false, nil
	}
	c.seen[id] = expires
	return true, nil
}
