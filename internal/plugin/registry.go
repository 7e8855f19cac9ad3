package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/sleep909/multipage/internal/bundle"
)

// Registry holds plugins in registration order. Hooks are dispatched
// sequentially in that order.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	byName  map[string]Plugin
}

// NewRegistry creates a new empty plugin registry.
func NewRegistry(plugins ...Plugin) (*Registry, error) {
	r := &Registry{byName: make(map[string]Plugin)}
	for _, p := range plugins {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a plugin. Names must be unique.
func (r *Registry) Register(p Plugin) error {
	if p == nil {
		return fmt.Errorf("cannot register nil plugin")
	}

	metadata := p.Metadata()
	if err := metadata.Validate(); err != nil {
		return fmt.Errorf("invalid plugin metadata: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[metadata.Name]; exists {
		return fmt.Errorf("plugin %s already registered", metadata.Name)
	}
	r.byName[metadata.Name] = p
	r.plugins = append(r.plugins, p)
	return nil
}

// Get retrieves a plugin by name.
func (r *Registry) Get(name string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("plugin %s not found", name)
	}
	return p, nil
}

// Has checks if a plugin with the given name exists.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byName[name]
	return ok
}

// List returns the registered plugins in registration order.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Plugin, len(r.plugins))
	copy(out, r.plugins)
	return out
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// RunConfig calls every ConfigHook in order and stops at the first failure.
func (r *Registry) RunConfig(ctx context.Context, opts *bundle.Options) error {
	for _, p := range r.List() {
		h, ok := p.(ConfigHook)
		if !ok {
			continue
		}
		if err := h.Config(ctx, opts); err != nil {
			return NewError(p.Metadata().Name, "config", err)
		}
	}
	return nil
}

// ConfigureServer calls every ServerHook in order.
func (r *Registry) ConfigureServer(srv Server) {
	for _, p := range r.List() {
		if h, ok := p.(ServerHook); ok {
			h.ConfigureServer(srv)
		}
	}
}

// RunWriteBundle calls every WriteBundleHook in order and stops at the first failure.
func (r *Registry) RunWriteBundle(ctx context.Context, opts *bundle.Options) error {
	for _, p := range r.List() {
		h, ok := p.(WriteBundleHook)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h.WriteBundle(ctx, opts); err != nil {
			return NewError(p.Metadata().Name, "writeBundle", err)
		}
	}
	return nil
}
