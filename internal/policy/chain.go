package policy

import (
	"context"
	"fmt"
	"slices"
)

// Chain is the ordered list of capabilities a handler requires, checked against a
// registry when built. A Chain is immutable and safe for concurrent Execute calls.
type Chain struct {
	required []Kind
	steps    []Registration
}

// NewChain validates that required is realizable by the registry in the given order:
// every kind has a policy, no kind is listed twice, and each policy's prerequisites
// are resolved by the request seed or an earlier entry.
func NewChain(registry *Registry, required ...Kind) (*Chain, error) {
	resolved := map[Kind]bool{KindRequest: true}
	seen := make(map[Kind]bool, len(required))
	steps := make([]Registration, 0, len(required))

	for i, kind := range required {
		if seen[kind] {
			return nil, fmt.Errorf("%w: %s at position %d", ErrDuplicateKind, kind, i)
		}
		seen[kind] = true

		reg, ok := registry.Lookup(kind)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
		}

		for _, prerequisite := range reg.Requires {
			if !resolved[prerequisite] {
				return nil, fmt.Errorf(
					"%w: %s at position %d needs %s first",
					ErrUnsatisfiedPrerequisite,
					kind,
					i,
					prerequisite,
				)
			}
		}

		resolved[kind] = true
		steps = append(steps, reg)
	}

	return &Chain{required: slices.Clone(required), steps: steps}, nil
}

// MustChain is NewChain for route tables built at startup; it panics on error.
func MustChain(registry *Registry, required ...Kind) *Chain {
	chain, err := NewChain(registry, required...)
	if err != nil {
		panic(err)
	}
	return chain
}

// Required returns the declared capability list.
func (ch *Chain) Required() []Kind {
	return slices.Clone(ch.required)
}

// Start returns a new execution in Pending(0) with the context {Request}.
func (ch *Chain) Start(req Request) *Execution {
	return &Execution{
		chain:   ch,
		state:   StatePending,
		context: NewContext(req),
	}
}

// Execute runs every policy in order and returns the finished execution.
func (ch *Chain) Execute(ctx context.Context, req Request) *Execution {
	exec := ch.Start(req)
	exec.Run(ctx)
	return exec
}

// State is the phase of one execution.
type State int

// Execution states.
const (
	StatePending State = iota
	StateSucceeded
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Execution is one run of a chain for one request. It is not safe for concurrent use;
// each request gets its own.
type Execution struct {
	chain     *Chain
	state     State
	position  int
	context   *Context
	rejection *Rejection
	failedAt  Kind
}

// State returns the current state.
func (e *Execution) State() State { return e.state }

// Position returns i while the execution is Pending(i), or the number of policies
// that succeeded once it finished.
func (e *Execution) Position() int { return e.position }

// Context returns the latest refined context.
func (e *Execution) Context() *Context { return e.context }

// Rejection returns the carried response when the execution failed.
func (e *Execution) Rejection() *Rejection { return e.rejection }

// FailedAt returns the kind whose policy failed, or "" when none did.
func (e *Execution) FailedAt() Kind { return e.failedAt }

// Step advances the execution by one transition and returns the new state.
// Calling Step on a finished execution does nothing.
func (e *Execution) Step(ctx context.Context) State {
	if e.state != StatePending {
		return e.state
	}

	if e.position == len(e.chain.steps) {
		e.state = StateSucceeded
		return e.state
	}

	reg := e.chain.steps[e.position]
	next, err := reg.Resolve(ctx, e.context)
	if err == nil {
		err = checkRefinement(reg.Kind, e.context, next)
	}
	if err != nil {
		e.state = StateFailed
		e.failedAt = reg.Kind
		e.rejection = AsRejection(err)
		return e.state
	}

	e.context = next
	e.position++
	return e.state
}

// checkRefinement fails with ErrPolicyContract unless next holds kind and every kind
// already resolved in prev.
func checkRefinement(kind Kind, prev, next *Context) error {
	if next == nil || !next.HasKind(kind) {
		return fmt.Errorf("%w: %s did not resolve its capability", ErrPolicyContract, kind)
	}
	for _, resolved := range prev.Kinds() {
		if !next.HasKind(resolved) {
			return fmt.Errorf("%w: %s dropped %s", ErrPolicyContract, kind, resolved)
		}
	}
	return nil
}

// Run steps the execution until it reaches Succeeded or Failed.
func (e *Execution) Run(ctx context.Context) State {
	for e.state == StatePending {
		e.Step(ctx)
	}
	return e.state
}
