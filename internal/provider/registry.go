// provider/registry.go
package provider

import (
	"fmt"

	"github.com/ledgerlink/authgate/internal/token"
)

// Registry holds the configured provider clients, selected by identifier.
type Registry struct {
	providers map[token.ProviderID]Provider
}

// NewRegistry builds a registry from the given provider clients.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[token.ProviderID]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.ID()] = p
	}
	return r
}

// Get returns the client for a provider identifier.
func (r *Registry) Get(id token.ProviderID) (Provider, error) {
	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("provider %q is not configured", id)
	}
	return p, nil
}
