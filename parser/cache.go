package parser

import "sync"

// patternCache memoizes compiled selectors, patterns and expressions keyed
// by their source text. It is safe for concurrent use.
type patternCache[T any] struct {
	mu         sync.RWMutex
	store      map[string]T
	maxEntries int
}

func newPatternCache[T any](maxEntries int) *patternCache[T] {
	return &patternCache[T]{
		store:      make(map[string]T),
		maxEntries: maxEntries,
	}
}

// get returns the cached compilation of src, compiling and storing it on a
// miss. Compilation errors are not cached.
func (c *patternCache[T]) get(src string, compile func(string) (T, error)) (T, error) {
	c.mu.RLock()
	v, ok := c.store[src]
	c.mu.RUnlock()
	if ok {
		return v, nil
	}

	v, err := compile(src)
	if err != nil {
		var zero T
		return zero, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Evict one random entry if at capacity (map iteration is random in Go).
	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}
	c.store[src] = v
	return v, nil
}
