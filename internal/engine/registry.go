package engine

import (
	"fmt"
	"sort"
)

// Registry is an ordered set of functions keyed by ID. Register panics on a
// duplicate ID to catch wiring mistakes at startup.
type Registry struct {
	fns   []Function
	index map[string]Function
}

// NewRegistry returns a registry holding fns, in order.
func NewRegistry(fns ...Function) *Registry {
	r := &Registry{index: make(map[string]Function, len(fns))}
	for _, fn := range fns {
		r.Register(fn)
	}
	return r
}

// Register adds fn. Panics if the same ID is registered twice.
func (r *Registry) Register(fn Function) {
	if _, exists := r.index[fn.ID()]; exists {
		panic(fmt.Sprintf("duplicate function ID: %q", fn.ID()))
	}
	r.fns = append(r.fns, fn)
	r.index[fn.ID()] = fn
}

// Get returns the function registered under id.
func (r *Registry) Get(id string) (Function, bool) {
	fn, ok := r.index[id]
	return fn, ok
}

// Lookup is Get with an error listing the known IDs.
func (r *Registry) Lookup(id string) (Function, error) {
	if fn, ok := r.index[id]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown function %q (available: %v)", id, r.sortedIDs())
}

// All returns every function in registration order.
func (r *Registry) All() []Function {
	return r.fns
}

// IDs returns the registered IDs in registration order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.fns))
	for _, fn := range r.fns {
		ids = append(ids, fn.ID())
	}
	return ids
}

func (r *Registry) sortedIDs() []string {
	ids := r.IDs()
	sort.Strings(ids)
	return ids
}
