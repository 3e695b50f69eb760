package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// NonceStore records signed-request nonces. Consume returns true only for the first use
// of a nonce within ttl.
type NonceStore interface {
	Consume(ctx context.Context, nonce string, ttl time.Duration) (bool, error)
}

type nonceCache struct {
	client *redis.Client
}

func NewNonceCache(client *redis.Client) NonceStore {
	return &nonceCache{client: client}
}

func (c *nonceCache) Consume(ctx context.Context, nonce string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, "nonce:"+nonce, 1, ttl).Result()
}

type memoryNonceCache struct {
	mu        sync.Mutex
	now       func() time.Time
	seen      map[string]time.Time // nonce -> expiry
	lastSweep time.Time
}

func NewMemoryNonceCache() NonceStore {
	return &memoryNonceCache{
		now:  time.Now,
		seen: make(map[string]time.Time),
	}
}

func (c *memoryNonceCache) Consume(_ context.Context, nonce string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastSweep) >= time.Minute {
		for n, exp := range c.seen {
			if !now.Before(exp) {
				delete(c.seen, n)
			}
		}
		c.lastSweep = now
	}

	if exp, ok := c.seen[nonce]; ok && now.Before(exp) {
		return false, nil
	}
	c.seen[nonce] = now.Add(ttl)
	return true, nil
}
