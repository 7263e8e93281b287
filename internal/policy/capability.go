// Package policy implements the request gate: a capability context that accumulates
// facts about one in-flight request, a registry of policies that each resolve one
// capability kind, and a chain executor that runs a route's declared policies in
// order and short-circuits on the first rejection.
package policy

import (
	"net/http"

	"github.com/google/uuid"
)

// Kind names a capability. Every capability value reports its kind.
type Kind string

// Built-in capability kinds.
const (
	KindRequest    Kind = "request"
	KindIdentity   Kind = "identity"
	KindValidation Kind = "validation"
)

// Capability is a typed fact about the current request.
type Capability interface {
	Kind() Kind
}

// Role is the authorization role carried by an Identity.
type Role string

// Known roles. Matching is exact: there is no hierarchy between them.
const (
	RoleAdmin  Role = "admin"
	RoleStaff  Role = "staff"
	RoleMember Role = "member"
)

// Request is the inbound request handle. It is present in every context.
type Request struct {
	HTTP *http.Request
}

// Kind implements Capability.
func (Request) Kind() Kind { return KindRequest }

// Identity is the caller resolved from the session.
type Identity struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Role     Role      `json:"role"`
}

// Kind implements Capability.
func (Identity) Kind() Kind { return KindIdentity }

// RoleClass is implemented by zero-size marker types naming one role.
type RoleClass interface {
	Role() Role
}

// Admin marks the admin role class.
type Admin struct{}

// Role implements RoleClass.
func (Admin) Role() Role { return RoleAdmin }

// Staff marks the staff role class.
type Staff struct{}

// Role implements RoleClass.
func (Staff) Role() Role { return RoleStaff }

// Attestation is a zero-data proof that the current Identity holds role R.
type Attestation[R RoleClass] struct{}

// Kind implements Capability.
func (Attestation[R]) Kind() Kind {
	return AttestationKind[R]()
}

// AttestationKind returns the capability kind of Attestation[R], e.g. "attestation:admin".
func AttestationKind[R RoleClass]() Kind {
	var r R
	return Kind("attestation:" + string(r.Role()))
}

// Validation marks input as sanitized. Sanitized is always true when present.
type Validation struct {
	Sanitized bool
}

// Kind implements Capability.
func (Validation) Kind() Kind { return KindValidation }
