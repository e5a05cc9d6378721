// Package provider defines the poster search providers and their registry.
package provider

import (
	"context"
	"fmt"

	"github.com/mydehq/covermux/internal/types"
)

// Provider resolves a movie query to ranked poster candidates. Providers
// only search; downloading the image bytes is the fetcher's job.
type Provider interface {
	Name() string
	Search(ctx context.Context, q types.Query) ([]types.Candidate, error)
}

// Registry holds the constructed providers, in registration order.
type Registry struct {
	providers []Provider
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) {
	r.providers = append(r.providers, p)
}

// Get finds a provider by its name.
func (r *Registry) Get(name string) (Provider, error) {
	for _, p := range r.providers {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unknown provider %q", name)
}

// Resolve maps an ordered list of enabled provider names to providers.
func (r *Registry) Resolve(names []string) ([]Provider, error) {
	out := make([]Provider, 0, len(names))
	for _, name := range names {
		p, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Names returns all registered provider names.
func (r *Registry) Names() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}
