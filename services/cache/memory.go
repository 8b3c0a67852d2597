package cachesvc

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
)

type memEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is an in-process core.Cache, used when no Redis URL is configured.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memEntry
	ttl     time.Duration
	clock   clockwork.Clock
}

var _ core.Cache = (*MemoryCache)(nil) // interface compliance check

func NewMemoryCache(ttl time.Duration, clock clockwork.Clock) *MemoryCache {
	return &MemoryCache{entries: make(map[string]memEntry), ttl: ttl, clock: clock}
}

func (c *MemoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && !c.clock.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(e.data, dest); err != nil {
		return false, errors.Wrapf(err, "decoding %q", key)
	}
	return true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, val interface{}, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return errors.Wrapf(err, "encoding %q", key)
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memEntry{data: data, expiresAt: c.clock.Now().Add(ttl)}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}
