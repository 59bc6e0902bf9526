package userinfo

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrProviderNotFound is returned when no search provider is registered under an id.
var ErrProviderNotFound = errors.New("userinfo: search provider not found")

// ProviderHook lets packages register search providers during init().
type ProviderHook func(reg *Registry) error

var (
	globalHookMu sync.Mutex
	globalHooks  []ProviderHook
)

// RegisterProviderHook registers a hook executed against new registries.
func RegisterProviderHook(h ProviderHook) {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	globalHooks = append(globalHooks, h)
}

// Registry maps search ids (e.g. "user_info_search") to providers. Bootstrap
// code resolves a provider once and injects it into the widget.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]SearchProvider
}

// NewRegistry builds an empty registry and applies global hooks.
func NewRegistry() (*Registry, error) {
	reg := &Registry{providers: map[string]SearchProvider{}}
	if err := reg.ApplyHooks(); err != nil {
		return nil, err
	}
	return reg, nil
}

// ApplyHooks executes registered provider hooks.
func (r *Registry) ApplyHooks() error {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	for _, hook := range globalHooks {
		if err := hook(r); err != nil {
			return err
		}
	}
	return nil
}

// Register associates a provider with a search id.
func (r *Registry) Register(id string, provider SearchProvider) error {
	if id == "" {
		return fmt.Errorf("userinfo: search id is required to register provider")
	}
	if provider == nil {
		return fmt.Errorf("userinfo: provider for %s cannot be nil", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[id] = provider
	return nil
}

// Resolve returns the provider for id or a diagnostic wrapping ErrProviderNotFound.
func (r *Registry) Resolve(id string) (SearchProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrProviderNotFound, id, r.idsLocked())
	}
	return provider, nil
}

// IDs returns the registered search ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.idsLocked()
}

func (r *Registry) idsLocked() []string {
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
