// Package cache memoizes extracted recipes per source URL in two tiers: a
// process-local memory map checked first and a durable store.KV that lets a
// cold process reuse recent extractions.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/recipe-cli/internal/model"
	"github.com/sells-group/recipe-cli/internal/store"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultTTL       = 24 * time.Hour
	DefaultKeyPrefix = "recipe_cache_"
)

// Entry is the stored form of a cached recipe. Timestamp is Unix
// milliseconds.
type Entry struct {
	Data      *model.Recipe `json:"data"`
	Timestamp int64         `json:"timestamp"`
}

// Options configures a Cache.
type Options struct {
	TTL       time.Duration
	KeyPrefix string
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Cache is safe for concurrent use. A nil durable store makes it memory-only.
type Cache struct {
	mu      sync.RWMutex
	mem     map[string]Entry
	durable store.KV
	ttl     time.Duration
	prefix  string
	now     func() time.Time
}

// New creates a Cache over the given durable tier.
func New(durable store.KV, opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		mem:     make(map[string]Entry),
		durable: durable,
		ttl:     opts.TTL,
		prefix:  opts.KeyPrefix,
		now:     opts.Now,
	}
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration { return c.ttl }

func (c *Cache) durableKey(url string) string { return c.prefix + url }

func (c *Cache) expired(e Entry) bool {
	return c.now().UnixMilli()-e.Timestamp > c.ttl.Milliseconds()
}

// Get returns a fresh copy of the cached recipe for url. The memory tier is
// checked first; a durable hit repopulates it. Durable read failures and
// corrupt entries count as misses.
func (c *Cache) Get(ctx context.Context, url string) (*model.Recipe, bool) {
	c.mu.RLock()
	e, ok := c.mem[url]
	c.mu.RUnlock()
	if ok {
		if !c.expired(e) {
			return e.Data.Clone(), true
		}
		c.mu.Lock()
		delete(c.mem, url)
		c.mu.Unlock()
	}

	if c.durable == nil {
		return nil, false
	}

	key := c.durableKey(url)
	raw, err := c.durable.Get(ctx, key)
	if err != nil {
		zap.L().Warn("cache: durable read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if raw == nil {
		return nil, false
	}

	var stored Entry
	if err := decodeEntry(raw, &stored); err != nil {
		zap.L().Warn("cache: dropping corrupt durable entry", zap.String("key", key), zap.Error(err))
		c.removeDurable(ctx, key)
		return nil, false
	}
	if c.expired(stored) {
		c.removeDurable(ctx, key)
		return nil, false
	}

	c.mu.Lock()
	c.mem[url] = stored
	c.mu.Unlock()
	return stored.Data.Clone(), true
}

// decodeEntry unmarshals a durable entry and rejects recipes that no longer
// pass validation.
func decodeEntry(raw []byte, e *Entry) error {
	if err := json.Unmarshal(raw, e); err != nil {
		return eris.Wrap(err, "cache: decode entry")
	}
	if e.Data == nil {
		return eris.New("cache: entry has no recipe")
	}
	if err := e.Data.Validate(); err != nil {
		return eris.Wrap(err, "cache: invalid recipe")
	}
	return nil
}

// Set stores r under url in both tiers with the current timestamp. A durable
// write failure is logged and swallowed.
func (c *Cache) Set(ctx context.Context, url string, r *model.Recipe) {
	if r == nil {
		return
	}
	e := Entry{Data: r.Clone(), Timestamp: c.now().UnixMilli()}

	c.mu.Lock()
	c.mem[url] = e
	c.mu.Unlock()

	if c.durable == nil {
		return
	}
	key := c.durableKey(url)
	raw, err := json.Marshal(e)
	if err != nil {
		zap.L().Warn("cache: marshal entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.durable.Set(ctx, key, raw); err != nil {
		zap.L().Warn("cache: durable write failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes url from both tiers.
func (c *Cache) Delete(ctx context.Context, url string) {
	c.mu.Lock()
	delete(c.mem, url)
	c.mu.Unlock()

	if c.durable != nil {
		c.removeDurable(ctx, c.durableKey(url))
	}
}

// Clear empties the memory tier and removes every prefixed key from the
// durable tier. It returns the number of durable entries removed.
func (c *Cache) Clear(ctx context.Context) (int, error) {
	c.mu.Lock()
	c.mem = make(map[string]Entry)
	c.mu.Unlock()

	if c.durable == nil {
		return 0, nil
	}
	n, err := c.durable.DeletePrefix(ctx, c.prefix)
	if err != nil {
		return n, eris.Wrap(err, "cache: clear durable tier")
	}
	return n, nil
}

func (c *Cache) removeDurable(ctx context.Context, key string) {
	if err := c.durable.Remove(ctx, key); err != nil {
		zap.L().Warn("cache: durable remove failed", zap.String("key", key), zap.Error(err))
	}
}
