package courier

import (
	"crypto/subtle"
	"fmt"
	"sync"
)

// Registry manages configured carrier accounts and their clients.
type Registry struct {
	entries map[string]*registryEntry
	mu      sync.RWMutex
}

type registryEntry struct {
	config CarrierConfig
	client Courier
}

// NewRegistry creates a new carrier registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*registryEntry),
	}
}

// Register adds a carrier config and its client to the registry.
func (r *Registry) Register(cfg CarrierConfig, c Courier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[cfg.Name] = &registryEntry{config: cfg, client: c}
}

// Get returns a carrier client by name.
func (r *Registry) Get(name string) (Courier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[name]; ok {
		return e.client, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrCarrierNotFound, name)
}

// Config returns a carrier config by name.
func (r *Registry) Config(name string) (CarrierConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[name]; ok {
		return e.config, nil
	}
	return CarrierConfig{}, fmt.Errorf("%w: %s", ErrCarrierNotFound, name)
}

// Names returns the names of all registered carriers.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

// Count returns the number of registered carriers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Authorize matches a webhook caller secret against every registered
// carrier's stored webhook secret and returns the first matching config.
// The secret authorizes the call; it does not identify the shipment.
func (r *Registry) Authorize(secret string) (CarrierConfig, bool) {
	if secret == "" {
		return CarrierConfig{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.config.WebhookSecret == "" {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(e.config.WebhookSecret), []byte(secret)) == 1 {
			return e.config, true
		}
	}
	return CarrierConfig{}, false
}
