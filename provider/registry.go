package provider

import (
	"context"
	"fmt"
	"sort"
)

// ProfileResolver resolves an authorization code into a Profile. Client implements it.
type ProfileResolver interface {
	Resolve(ctx context.Context, code string) (Profile, error)
}

// Registry routes codes to the resolver configured for each provider. It is populated
// during initialization and read-only afterwards.
type Registry struct {
	resolvers map[ID]ProfileResolver
}

func NewRegistry() *Registry {
	return &Registry{resolvers: make(map[ID]ProfileResolver)}
}

// Register installs r for id, replacing any previous resolver.
func (r *Registry) Register(id ID, resolver ProfileResolver) error {
	if _, err := ExtractorFor(id); err != nil {
		return err
	}
	if resolver == nil {
		return fmt.Errorf("provider %s: nil resolver", id)
	}
	r.resolvers[id] = resolver
	return nil
}

// Resolve routes code to the resolver for id.
func (r *Registry) Resolve(ctx context.Context, id ID, code string) (Profile, error) {
	resolver, ok := r.resolvers[id]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q is not configured", ErrUnknownProvider, id)
	}
	return resolver.Resolve(ctx, code)
}

// Configured lists the registered provider ids in sorted order.
func (r *Registry) Configured() []ID {
	ids := make([]ID, 0, len(r.resolvers))
	for id := range r.resolvers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type consentURLer interface {
	AuthCodeURL(state string) string
}

// AuthCodeURL returns the consent page URL of the resolver for id when it has one.
func (r *Registry) AuthCodeURL(id ID, state string) (string, error) {
	resolver, ok := r.resolvers[id]
	if !ok {
		return "", fmt.Errorf("%w: %q is not configured", ErrUnknownProvider, id)
	}
	c, ok := resolver.(consentURLer)
	if !ok {
		return "", fmt.Errorf("provider %s: resolver has no consent URL", id)
	}
	return c.AuthCodeURL(state), nil
}
