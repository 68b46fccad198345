package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	v    []byte
	exp  time.Time
	used time.Time
}

// TTLCache is an in-process BytesCache. When full, the least recently used
// entry is evicted.
type TTLCache struct {
	mu      sync.Mutex
	m       map[string]*entry
	maxSize int
	now     func() time.Time
}

// NewTTLCache returns a cache holding at most maxSize entries; maxSize <= 0
// means unbounded.
func NewTTLCache(maxSize int) *TTLCache {
	return &TTLCache{m: make(map[string]*entry), maxSize: maxSize, now: time.Now}
}

func (c *TTLCache) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return nil, false, nil
	}
	now := c.now()
	if !e.exp.IsZero() && now.After(e.exp) {
		delete(c.m, key)
		return nil, false, nil
	}
	e.used = now
	return e.v, true, nil
}

func (c *TTLCache) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	now := c.now()
	var exp time.Time
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m[key]; !ok && c.maxSize > 0 && len(c.m) >= c.maxSize {
		c.evict(now)
	}
	c.m[key] = &entry{v: value, exp: exp, used: now}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

func (c *TTLCache) Close() error { return nil }

// evict drops expired entries, or the least recently used one if none expired.
func (c *TTLCache) evict(now time.Time) {
	var (
		oldestKey string
		oldest    time.Time
		dropped   bool
	)
	for k, e := range c.m {
		if !e.exp.IsZero() && now.After(e.exp) {
			delete(c.m, k)
			dropped = true
			continue
		}
		if oldestKey == "" || e.used.Before(oldest) {
			oldestKey, oldest = k, e.used
		}
	}
	if !dropped && oldestKey != "" {
		delete(c.m, oldestKey)
	}
}
