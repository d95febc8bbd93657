package querycache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"rentdesk/internal/bus"
)

// Options tune staleness and retry behavior for one cache instance.
type Options struct {
	// StaleAfter is how long a cached result is served without refetching.
	StaleAfter time.Duration
	// MaxAge is the garbage-collection window. Entries older than this are
	// treated as absent entirely, in memory and in Redis.
	MaxAge time.Duration
	// RetryAttempts bounds automatic refetch retries on failure.
	RetryAttempts int
	// RetryDelay is the pause between retries.
	RetryDelay time.Duration
}

func defaultOptions() Options {
	return Options{
		StaleAfter:    30 * time.Second,
		MaxAge:        10 * time.Minute,
		RetryAttempts: 2,
		RetryDelay:    200 * time.Millisecond,
	}
}

// Result is how fetch outcomes reach callers: as state, never as a panic.
// Stale data plus an error means the fetch failed but an older result was
// still usable.
type Result struct {
	Data      json.RawMessage
	FetchedAt time.Time
	Stale     bool
	Err       error
}

// Fetcher loads fresh data for a cache key.
type Fetcher func(ctx context.Context) (any, error)

type entry struct {
	data      json.RawMessage
	fetchedAt time.Time
}

type call struct {
	wg  sync.WaitGroup
	res Result
}

// Cache is a deduplicating, retryable read-through cache keyed by entity
// plus filter parameters. Concurrent reads of the same key share a single
// fetch. Results are mirrored to Redis (when configured) so a restart comes
// back warm; Redis entries carry the MaxAge TTL and may simply be absent.
type Cache struct {
	client *redis.Client // nil means memory-only
	prefix string
	opts   Options

	mu       sync.Mutex
	mem      map[string]entry
	inflight map[string]*call
}

func New(client *redis.Client, prefix string, opts Options) *Cache {
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = defaultOptions().StaleAfter
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = defaultOptions().MaxAge
	}
	if opts.RetryAttempts < 0 {
		opts.RetryAttempts = 0
	}
	return &Cache{
		client:   client,
		prefix:   prefix,
		opts:     opts,
		mem:      make(map[string]entry),
		inflight: make(map[string]*call),
	}
}

// BindBus subscribes the cache to DataChanged messages so writes anywhere in
// the application invalidate the matching entity's cached reads.
func (c *Cache) BindBus(b *bus.Bus) (unsubscribe func()) {
	return b.Subscribe(bus.KindDataChanged, func(m bus.Message) {
		if dc, ok := m.(bus.DataChanged); ok {
			c.InvalidateEntity(context.Background(), dc.Entity)
		}
	})
}

// Key builds the composite cache key from an entity name and its filter
// parameters. Parameters are canonicalized so equal filters always map to
// the same key.
func (c *Cache) Key(entity string, params any) string {
	return fmt.Sprintf("%s:%s:%s", c.prefix, entity, canonicalize(params))
}

// Get returns the cached value for entity+params, fetching through fetch
// when the cache is cold or stale. Fetch failures are returned as Result
// state; when a stale value exists it is served alongside the error.
func (c *Cache) Get(ctx context.Context, entity string, params any, fetch Fetcher) Result {
	key := c.Key(entity, params)
	now := time.Now()

	c.mu.Lock()
	if e, ok := c.mem[key]; ok && now.Sub(e.fetchedAt) < c.opts.StaleAfter {
		c.mu.Unlock()
		return Result{Data: e.data, FetchedAt: e.fetchedAt}
	}

	// Deduplicate: concurrent reads of the same key wait for one fetch.
	if inflight, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		inflight.wg.Wait()
		return inflight.res
	}
	cl := &call{}
	cl.wg.Add(1)
	c.inflight[key] = cl
	c.mu.Unlock()

	res := c.fill(ctx, key, entity, fetch)

	c.mu.Lock()
	cl.res = res
	delete(c.inflight, key)
	c.mu.Unlock()
	cl.wg.Done()

	return res
}

func (c *Cache) fill(ctx context.Context, key, entity string, fetch Fetcher) Result {
	stale, hasStale := c.lookupStale(ctx, key)

	var lastErr error
	for attempt := 0; attempt <= c.opts.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
			case <-time.After(c.opts.RetryDelay):
			}
			if ctx.Err() != nil {
				break
			}
		}

		value, err := fetch(ctx)
		if err != nil {
			lastErr = err
			continue
		}

		data, err := json.Marshal(value)
		if err != nil {
			lastErr = err
			break
		}

		e := entry{data: data, fetchedAt: time.Now()}
		c.store(ctx, key, e)
		return Result{Data: data, FetchedAt: e.fetchedAt}
	}

	log.Printf("querycache: fetch failed for %s: %v", entity, lastErr)
	if hasStale {
		return Result{Data: stale.data, FetchedAt: stale.fetchedAt, Stale: true, Err: lastErr}
	}
	return Result{Err: lastErr}
}

// lookupStale returns any stale-but-present entry within the GC window,
// checking memory first and Redis second.
func (c *Cache) lookupStale(ctx context.Context, key string) (entry, bool) {
	c.mu.Lock()
	e, ok := c.mem[key]
	c.mu.Unlock()
	if ok && time.Since(e.fetchedAt) < c.opts.MaxAge {
		return e, true
	}

	if c.client == nil {
		return entry{}, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return entry{}, false
	}
	var persisted struct {
		Data      json.RawMessage `json:"data"`
		FetchedAt time.Time       `json:"fetched_at"`
	}
	if err := json.Unmarshal(data, &persisted); err != nil {
		return entry{}, false
	}
	if time.Since(persisted.FetchedAt) >= c.opts.MaxAge {
		return entry{}, false
	}
	return entry{data: persisted.Data, fetchedAt: persisted.FetchedAt}, true
}

func (c *Cache) store(ctx context.Context, key string, e entry) {
	c.mu.Lock()
	c.mem[key] = e
	c.mu.Unlock()

	if c.client == nil {
		return
	}
	blob, err := json.Marshal(map[string]any{"data": e.data, "fetched_at": e.fetchedAt})
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, blob, c.opts.MaxAge).Err(); err != nil {
		log.Printf("querycache: failed to persist %s: %v", key, err)
	}
}

// InvalidateEntity drops every cached read for one entity.
func (c *Cache) InvalidateEntity(ctx context.Context, entity string) {
	prefix := fmt.Sprintf("%s:%s:", c.prefix, entity)

	c.mu.Lock()
	for key := range c.mem {
		if strings.HasPrefix(key, prefix) {
			delete(c.mem, key)
		}
	}
	c.mu.Unlock()

	if c.client == nil {
		return
	}
	keys, err := c.client.Keys(ctx, prefix+"*").Result()
	if err != nil {
		return
	}
	if len(keys) > 0 {
		c.client.Del(ctx, keys...)
	}
}

// GC sweeps memory entries past the MaxAge window. Redis entries expire on
// their own TTL; this keeps the in-process mirror from growing unbounded.
func (c *Cache) GC() int {
	now := time.Now()
	removed := 0

	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.mem {
		if now.Sub(e.fetchedAt) >= c.opts.MaxAge {
			delete(c.mem, key)
			removed++
		}
	}
	return removed
}

// Fetch is the typed entry point: it decodes the cached JSON into T. Decode
// failures surface in Result.Err, never as panics.
func Fetch[T any](ctx context.Context, c *Cache, entity string, params any, fetch func(context.Context) (T, error)) (T, Result) {
	res := c.Get(ctx, entity, params, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})

	var out T
	if len(res.Data) > 0 {
		if err := json.Unmarshal(res.Data, &out); err != nil && res.Err == nil {
			res.Err = err
		}
	}
	return out, res
}

// canonicalize renders params as JSON with sorted keys so map ordering can
// never split one logical key into many.
func canonicalize(params any) string {
	if params == nil {
		return "{}"
	}
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%v", params)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		// Not an object (slice, scalar); the encoding is already stable.
		return string(data)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		kv, _ := json.Marshal(m[k])
		fmt.Fprintf(&sb, "%q:%s", k, kv)
	}
	sb.WriteByte('}')
	return sb.String()
}
