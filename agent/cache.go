package agent

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Cache memoizes tool results for the lifetime of the process. Keys combine
// the tool name with a canonical serialization of the argument map, so two
// invocations with the same arguments in any order share one entry. Entries
// are never evicted; this is an at-most-once-per-argument-set optimization,
// not a correctness-critical cache.
type Cache struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]string),
	}
}

// Get returns the cached result for the invocation, if any.
func (c *Cache) Get(tool string, args map[string]any) (string, bool) {
	key, err := cacheKey(tool, args)
	if err != nil {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	result, ok := c.entries[key]
	return result, ok
}

// Put records the result of an invocation.
func (c *Cache) Put(tool string, args map[string]any, result string) {
	key, err := cacheKey(tool, args)
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = result
}

// Len reports the number of cached invocations.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// cacheKey canonicalizes the argument map; JSON object keys marshal in sorted
// order, which makes the key independent of map iteration order.
func cacheKey(tool string, args map[string]any) (string, error) {
	argsBs, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize arguments: %w", err)
	}
	return tool + "\x00" + string(argsBs), nil
}
