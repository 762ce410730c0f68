package methods

import (
	"fmt"
	"sort"
)

// Registry maps method names to constructors.
type Registry struct {
	methods map[string]func() Method
}

func NewRegistry() *Registry {
	r := &Registry{
		methods: make(map[string]func() Method),
	}

	r.methods["non_interacting"] = func() Method { return NewNonInteracting() }
	r.methods["hartree"] = func() Method { return NewHartree() }

	return r
}

// Register adds or replaces a method constructor.
func (r *Registry) Register(name string, fn func() Method) {
	r.methods[name] = fn
}

// Get returns a new instance of the named method.
func (r *Registry) Get(name string) (Method, error) {
	fn, ok := r.methods[name]
	if !ok {
		return nil, fmt.Errorf("unknown method: %s", name)
	}
	return fn(), nil
}

// Names returns the registered method names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetPropagator switches the propagator of the built-in methods. It reports
// whether m supports it.
func SetPropagator(m Method, p Propagator) bool {
	switch mm := m.(type) {
	case *NonInteracting:
		mm.Propagator = p
	case *Hartree:
		mm.Propagator = p
	default:
		return false
	}
	return true
}
