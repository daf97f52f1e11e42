package codegen

import (
	"fmt"
	"sort"
)

// Registry manages the available target generators.
type Registry struct {
	factories map[string]func(opts Options) Generator
	aliases   map[string]string
}

// NewRegistry creates an empty generator registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]func(opts Options) Generator),
		aliases:   make(map[string]string),
	}
}

// Register adds a generator factory under its canonical target name.
func (r *Registry) Register(target string, factory func(opts Options) Generator) {
	r.factories[target] = factory
}

// Alias registers an alternate name for an already registered target.
func (r *Registry) Alias(alias, target string) {
	r.aliases[alias] = target
}

// Get builds a generator for the named target.
func (r *Registry) Get(target string, opts Options) (Generator, error) {
	name := target
	if canonical, ok := r.aliases[name]; ok {
		name = canonical
	}
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unsupported target: %s", target)
	}
	return factory(opts), nil
}

// Targets returns the canonical target names in sorted order.
func (r *Registry) Targets() []string {
	targets := make([]string, 0, len(r.factories))
	for name := range r.factories {
		targets = append(targets, name)
	}
	sort.Strings(targets)
	return targets
}
