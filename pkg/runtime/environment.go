package runtime

import (
	"sort"
	"sync"
)

// Environment is the flat variable namespace of one program run. There is
// no scoping: every binding lives in the same map.
type Environment struct {
	mu     sync.RWMutex
	values map[string]Value
}

// NewEnvironment creates an empty environment.
func NewEnvironment() *Environment {
	return &Environment{values: make(map[string]Value)}
}

// Define binds name, overwriting any existing binding in place.
func (e *Environment) Define(name string, value Value) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.values[name] = value
}

// Get retrieves a binding.
func (e *Environment) Get(name string) (Value, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.values[name]
	return v, ok
}

// Has reports whether name is bound.
func (e *Environment) Has(name string) bool {
	_, ok := e.Get(name)
	return ok
}

// Len returns the number of bindings.
func (e *Environment) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.values)
}

// Snapshot returns a copy of the current bindings.
func (e *Environment) Snapshot() map[string]Value {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]Value, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	return out
}

// Names returns the bound names in sorted order (useful for determinism in tests).
func (e *Environment) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	keys := make([]string, 0, len(e.values))
	for k := range e.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Reset drops every binding.
func (e *Environment) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.values = make(map[string]Value)
}
