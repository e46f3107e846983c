package parser

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// UnknownParserError reports a chain step naming a parser that is not
// registered.
type UnknownParserError struct {
	Name string
}

func (e *UnknownParserError) Error() string {
	return fmt.Sprintf("parser: unknown parser %q", e.Name)
}

// DuplicateNameError reports an attempt to register a capability under a
// name that is already taken.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("parser: parser %q already registered", e.Name)
}

// Registry resolves parser names to capabilities. Resolve is read-only and
// safe for concurrent use from any number of evaluations; Register and
// Replace are the only mutations.
type Registry struct {
	mu   sync.RWMutex
	caps map[string]Capability
}

// NewRegistry returns a registry preloaded with every built-in capability.
func NewRegistry() *Registry {
	r := &Registry{caps: make(map[string]Capability)}
	for _, c := range builtins() {
		r.caps[c.Name()] = c
	}
	return r
}

func builtins() []Capability {
	return []Capability{
		NewCSSCapability(),
		NewXMLCapability(),
		NewRegexCapability(),
		NewJSONPathCapability(),
		NewObjectPathCapability(),
		NewJMESPathCapability(),
		NewUDFCapability(),
		NewPythonCapability(),
		NewLoaderCapability(),
		NewTimeCapability(time.Local),
		NewReadabilityCapability(),
		NewMarkdownCapability(),
	}
}

// Register adds c under its name. It fails with DuplicateNameError when the
// name is taken; use Replace to override on purpose.
func (r *Registry) Register(c Capability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.caps[c.Name()]; ok {
		return &DuplicateNameError{Name: c.Name()}
	}
	r.caps[c.Name()] = c
	return nil
}

// Replace installs c unconditionally, overriding any capability previously
// registered under the same name.
func (r *Registry) Replace(c Capability) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.caps[c.Name()] = c
}

// Resolve returns the capability registered under name, or an
// UnknownParserError.
func (r *Registry) Resolve(name string) (Capability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.caps[name]
	if !ok {
		return nil, &UnknownParserError{Name: name}
	}
	return c, nil
}

// Names returns all registered parser names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.caps))
	for name := range r.caps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the shared registry used when no explicit registry is
// configured. It is built on first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}
