// Package memory provides the in-memory resolve cache used for a single
// process or request scope.
package memory

import (
	"sync"

	"github.com/dpi/media-entity-facebook/internal/oembed"
)

// Cache implements oembed.Cache with a mutex-guarded map. Construct one
// per scope; nothing is persisted or shared across processes.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]oembed.Outcome
}

// NewCache constructs an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]oembed.Outcome)}
}

// Get returns the cached outcome for url, if any.
func (c *Cache) Get(url string) (oembed.Outcome, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	outcome, ok := c.entries[url]
	return outcome, ok
}

// Set stores the outcome for url. The first outcome wins; both terminal
// states are stable for the remainder of the scope.
func (c *Cache) Set(url string, outcome oembed.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[url]; exists {
		return
	}
	c.entries[url] = outcome
}

// Len reports the number of cached URLs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
