package cache

import (
	"fmt"
	"sync"
	"time"
)

// This type holds the named cache instances of a process. It is created once
// at startup and passed to all components that need caching, so tests can
// use a fresh registry per case.
type Registry struct {
	mutex  sync.Mutex
	caches map[string]*Cache
}

// This type represents a single named cache with an optional default ttl.
type Cache struct {
	mutex      sync.Mutex
	defaultTtl time.Duration
	entries    map[string]cacheEntry
}

type cacheEntry struct {
	value any
	// The instant after which the entry is stale. The zero time means that
	// the entry never expires.
	expiresAt time.Time
}

func NewRegistry() *Registry {
	return &Registry{caches: map[string]*Cache{}}
}

// Gets the cache with the given name, creating it on first use. The default
// ttl is only applied on creation, later calls with a different ttl return
// the existing cache unchanged. A default ttl of 0 means no expiry.
func (r *Registry) Namespace(name string, defaultTtl time.Duration) *Cache {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if existing, ok := r.caches[name]; ok {
		return existing
	}
	newCache := &Cache{
		defaultTtl: defaultTtl,
		entries:    map[string]cacheEntry{},
	}
	r.caches[name] = newCache
	return newCache
}

// Stores the value under the key with the cache's default ttl.
func (c *Cache) Set(key string, value any) {
	c.SetWithTtl(key, value, c.defaultTtl)
}

// Stores the value under the key. A ttl of 0 means the entry never expires.
func (c *Cache) SetWithTtl(key string, value any, ttl time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	newEntry := cacheEntry{value: value}
	if ttl > 0 {
		newEntry.expiresAt = time.Now().Add(ttl)
	}
	c.entries[key] = newEntry
}

// Gets the value for the key. An expired entry counts as absent and is
// evicted as a side effect of the read.
func (c *Cache) Get(key string) (any, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

// Removes the entry for the key.
func (c *Cache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.entries, key)
}

// Removes all entries.
func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries = map[string]cacheEntry{}
}

// Gets the value for the key, typed. A stored value of a different type
// counts as absent.
func GetAs[T any](c *Cache, key string) (T, bool) {
	value, ok := c.Get(key)
	if !ok {
		var empty T
		return empty, false
	}
	typed, ok := value.(T)
	if !ok {
		var empty T
		return empty, false
	}
	return typed, true
}

// Builds the cache key for a logical entry of a repository, so that entries
// of different repositories never collide.
func Key(owner string, repo string, logicalKey string) string {
	return fmt.Sprintf("%s/%s:%s", owner, repo, logicalKey)
}

// Checks if the entry for the key is present, without evicting it. Mainly
// useful for tests that verify eviction behavior.
func (c *Cache) Has(key string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	_, ok := c.entries[key]
	return ok
}
