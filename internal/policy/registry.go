package policy

import (
	"context"
	"fmt"
	"slices"
)

// Policy resolves exactly one capability kind. On success it returns pc refined with
// that capability; on failure it returns an error, normally a *Rejection.
type Policy func(ctx context.Context, pc *Context) (*Context, error)

// Registration binds a policy to the kind it resolves and the kinds it reads.
type Registration struct {
	Kind     Kind
	Requires []Kind
	Resolve  Policy
}

// Registry maps capability kinds to the policies that resolve them.
// It is populated at startup and read-only afterwards.
type Registry struct {
	policies map[Kind]Registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{policies: make(map[Kind]Registration)}
}

// Register adds a policy for kind. Registering a kind twice fails with ErrDuplicateKind.
func (r *Registry) Register(kind Kind, requires []Kind, resolve Policy) error {
	if resolve == nil {
		return fmt.Errorf("policy for %q is nil", kind)
	}
	if _, ok := r.policies[kind]; ok {
		return fmt.Errorf("%w: %s registered twice", ErrDuplicateKind, kind)
	}
	if slices.Contains(requires, kind) {
		return fmt.Errorf("%w: %s requires itself", ErrUnsatisfiedPrerequisite, kind)
	}

	r.policies[kind] = Registration{
		Kind:     kind,
		Requires: slices.Clone(requires),
		Resolve:  resolve,
	}
	return nil
}

// MustRegister is Register for startup wiring; it panics on error.
func (r *Registry) MustRegister(kind Kind, requires []Kind, resolve Policy) {
	if err := r.Register(kind, requires, resolve); err != nil {
		panic(err)
	}
}

// Lookup returns the registration for kind.
func (r *Registry) Lookup(kind Kind) (Registration, bool) {
	reg, ok := r.policies[kind]
	return reg, ok
}

// Kinds returns the registered kinds in lexical order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.policies))
	for k := range r.policies {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
