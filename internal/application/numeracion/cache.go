package numeracion

import (
	"context"
	"sync"
	"time"
)

type cacheEntry[V any] struct {
	value   V
	expires time.Time
}

// MemoryCache caché en memoria con TTL fijo y reloj inyectado.
type MemoryCache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     Clock
	entries map[string]cacheEntry[V]
}

// NewMemoryCache crea el caché. clock nil = time.Now.
func NewMemoryCache[V any](ttl time.Duration, clock Clock) *MemoryCache[V] {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryCache[V]{ttl: ttl, now: clock, entries: make(map[string]cacheEntry[V])}
}

func (c *MemoryCache[V]) Get(_ context.Context, key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *MemoryCache[V]) Set(_ context.Context, key string, value V) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry[V]{value: value, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *MemoryCache[V]) Delete(_ context.Context, keys ...string) {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	c.mu.Unlock()
}

// Len entradas almacenadas (incluye vencidas aún no purgadas).
func (c *MemoryCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
