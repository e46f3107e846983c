package parser

import "sort"

// Well-known Context keys. The crawler seeds KeyRequestArgs and KeyResponse
// before evaluation; the engine maintains the running result map under
// KeyParseResult so later udf steps can read earlier rules' results.
const (
	KeyRequestArgs = "request_args"
	KeyResponse    = "resp"
	KeyParseResult = "parse_result"
)

// Context is the mutable scratchpad shared by every rule in one top-level
// evaluation. It is created fresh per evaluation, discarded afterwards, and
// not safe for concurrent use; concurrent evaluations each get their own.
type Context struct {
	values map[string]any
}

// NewContext returns an empty Context.
func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// Get returns the value stored under key, or nil.
func (c *Context) Get(key string) any {
	return c.values[key]
}

// Lookup returns the value stored under key and whether it was present.
func (c *Context) Lookup(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Set stores v under key, replacing any previous value.
func (c *Context) Set(key string, v any) {
	c.values[key] = v
}

// Delete removes key.
func (c *Context) Delete(key string) {
	delete(c.values, key)
}

// Len returns the number of stored keys.
func (c *Context) Len() int {
	return len(c.values)
}

// Keys returns all stored keys, sorted.
func (c *Context) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
