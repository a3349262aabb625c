package advisor

import (
	"fmt"
	"sync"

	"confidant/internal/domain"
	"confidant/internal/domain/services"
)

// ProviderRegistry holds the configured chat providers keyed by name.
type ProviderRegistry struct {
	mu          sync.RWMutex
	providers   map[string]services.ChatProvider
	defaultName string
}

// NewProviderRegistry creates an empty registry with a default provider name.
func NewProviderRegistry(defaultName string) *ProviderRegistry {
	return &ProviderRegistry{
		providers:   make(map[string]services.ChatProvider),
		defaultName: defaultName,
	}
}

// Register adds a provider under its own name, replacing any previous one.
func (r *ProviderRegistry) Register(provider services.ChatProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
}

// Get returns the provider registered under name.
func (r *ProviderRegistry) Get(name string) (services.ChatProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %q: %w", name, domain.ErrNoProvider)
	}
	return provider, nil
}

// Default returns the provider configured as the default.
func (r *ProviderRegistry) Default() (services.ChatProvider, error) {
	return r.Get(r.defaultName)
}

// Names lists the registered provider names.
func (r *ProviderRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
