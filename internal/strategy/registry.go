package strategy

import (
	"fmt"
	"sort"

	"github.com/ppiankov/assignparse/internal/model"
)

// Registry maps identifiers to strategies. It is populated once by
// NewRegistry and read-only afterwards.
type Registry struct {
	strategies  map[string]Strategy
	order       []string
	unavailable map[string]string // id -> why it was not registered
}

// NewRegistry registers strategies in order. Duplicate identifiers and
// fallbacks naming an unregistered strategy are configuration errors.
func NewRegistry(strategies ...Strategy) (*Registry, error) {
	r := &Registry{
		strategies:  make(map[string]Strategy, len(strategies)),
		unavailable: make(map[string]string),
	}
	for _, s := range strategies {
		if s == nil {
			continue
		}
		id := s.ID()
		if _, exists := r.strategies[id]; exists {
			return nil, model.ConfigError("registry.register", fmt.Sprintf("duplicate strategy %q", id), nil)
		}
		r.strategies[id] = s
		r.order = append(r.order, id)
	}
	for _, id := range r.order {
		fb := r.strategies[id].Fallback()
		if fb == "" {
			continue
		}
		if fb == id {
			return nil, model.ConfigError("registry.register", fmt.Sprintf("strategy %q falls back to itself", id), nil)
		}
		if _, ok := r.strategies[fb]; !ok {
			return nil, model.ConfigError("registry.register",
				fmt.Sprintf("strategy %q falls back to unregistered %q", id, fb), nil)
		}
	}
	return r, nil
}

// Get returns the strategy registered under id.
func (r *Registry) Get(id string) (Strategy, error) {
	if s, ok := r.strategies[id]; ok {
		return s, nil
	}
	if reason, ok := r.unavailable[id]; ok {
		return nil, model.ConfigError("registry.get", fmt.Sprintf("strategy %q is not configured: %s", id, reason), nil)
	}
	return nil, model.ConfigError("registry.get", fmt.Sprintf("%q (registered: %v)", id, r.IDs()), model.ErrUnknownStrategy)
}

// IDs returns the registered identifiers in registration order.
func (r *Registry) IDs() []string {
	return append([]string{}, r.order...)
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.strategies[id]
	return ok
}

// Sorted returns the registered identifiers alphabetically.
func (r *Registry) Sorted() []string {
	ids := r.IDs()
	sort.Strings(ids)
	return ids
}

// Unavailable returns the known strategies that could not be registered,
// with the reason.
func (r *Registry) Unavailable() map[string]string {
	out := make(map[string]string, len(r.unavailable))
	for k, v := range r.unavailable {
		out[k] = v
	}
	return out
}
