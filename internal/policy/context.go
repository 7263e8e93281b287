package policy

import (
	"fmt"
	"slices"
)

// Context is the set of capabilities resolved so far for one request. It is never
// mutated: Refine returns a new Context carrying the previous values plus the new ones,
// so a Context can be shared freely by the steps that observed it.
type Context struct {
	values map[Kind]Capability
	order  []Kind
}

// NewContext returns the initial context of a request, holding only Request.
func NewContext(req Request) *Context {
	return &Context{
		values: map[Kind]Capability{KindRequest: req},
		order:  []Kind{KindRequest},
	}
}

// Refine returns a context holding every capability of pc plus caps.
// Refining with a kind that is already present fails with ErrCapabilityPresent.
func (pc *Context) Refine(caps ...Capability) (*Context, error) {
	next := &Context{
		values: make(map[Kind]Capability, len(pc.values)+len(caps)),
		order:  make([]Kind, len(pc.order), len(pc.order)+len(caps)),
	}
	for k, v := range pc.values {
		next.values[k] = v
	}
	copy(next.order, pc.order)

	for _, capability := range caps {
		kind := capability.Kind()
		if _, ok := next.values[kind]; ok {
			return nil, fmt.Errorf("%w: %s", ErrCapabilityPresent, kind)
		}
		next.values[kind] = capability
		next.order = append(next.order, kind)
	}
	return next, nil
}

// HasKind reports whether the capability kind has been resolved.
func (pc *Context) HasKind(kind Kind) bool {
	_, ok := pc.values[kind]
	return ok
}

// Kinds returns the resolved kinds in resolution order.
func (pc *Context) Kinds() []Kind {
	return slices.Clone(pc.order)
}

// Get returns the capability of type T held by pc.
func Get[T Capability](pc *Context) (T, bool) {
	var zero T
	if pc == nil {
		return zero, false
	}
	v, ok := pc.values[zero.Kind()]
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// Has reports whether pc holds a capability of type T.
func Has[T Capability](pc *Context) bool {
	_, ok := Get[T](pc)
	return ok
}

// MustGet is Get for handlers whose route declared T; it panics when T is absent,
// which means the route's chain and the handler disagree.
func MustGet[T Capability](pc *Context) T {
	v, ok := Get[T](pc)
	if !ok {
		var zero T
		panic(fmt.Sprintf("policy: capability %q not resolved for this handler", zero.Kind()))
	}
	return v
}
