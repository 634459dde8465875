package payment

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gharseva/server/internal/module/payment/domain"
	"github.com/gharseva/server/internal/module/payment/provider"
)

// ProviderRegistry holds the registered payment adapters and routes each
// method family to one of them. Registration happens at startup; lookups
// are safe for concurrent use.
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]provider.Adapter
	byMethod  map[domain.Method]provider.Adapter
	refunders map[string]provider.Refunder
}

// NewProviderRegistry creates an empty registry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]provider.Adapter),
		byMethod:  make(map[domain.Method]provider.Adapter),
		refunders: make(map[string]provider.Refunder),
	}
}

// Register adds an adapter and claims its supported methods. A method
// already claimed by an earlier adapter keeps its first owner, so the
// registration order in the composition root decides routing overlaps.
func (r *ProviderRegistry) Register(a provider.Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[a.Name()] = a
	for _, m := range a.SupportedMethods() {
		if _, claimed := r.byMethod[m]; !claimed {
			r.byMethod[m] = a
		}
	}
	if rf, ok := a.(provider.Refunder); ok {
		r.refunders[a.Name()] = rf
	}
}

// Get returns an adapter by name.
func (r *ProviderRegistry) Get(name string) (provider.Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	return a, nil
}

// GetByMethod returns the adapter routing the given method family.
func (r *ProviderRegistry) GetByMethod(method domain.Method) (provider.Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byMethod[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMethodNotRouted, method)
	}
	return a, nil
}

// GetRefunder returns the refund surface of a provider, when it has one.
func (r *ProviderRegistry) GetRefunder(name string) (provider.Refunder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rf, ok := r.refunders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRefundNotSupported, name)
	}
	return rf, nil
}

// List returns all registered provider names, sorted.
func (r *ProviderRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Methods returns the routing table as method -> provider name.
func (r *ProviderRegistry) Methods() map[domain.Method]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[domain.Method]string, len(r.byMethod))
	for m, a := range r.byMethod {
		out[m] = a.Name()
	}
	return out
}
