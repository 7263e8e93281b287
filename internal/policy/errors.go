package policy

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/allisson/gatekeeper/internal/errors"
	"github.com/allisson/gatekeeper/internal/httputil"
)

// Chain construction and refinement errors.
var (
	// ErrCapabilityPresent indicates an attempt to resolve a capability kind twice.
	ErrCapabilityPresent = errors.New("capability already present")

	// ErrUnknownKind indicates a required kind with no registered policy.
	ErrUnknownKind = errors.New("no policy registered for capability")

	// ErrUnsatisfiedPrerequisite indicates a required kind listed before its prerequisites.
	ErrUnsatisfiedPrerequisite = errors.New("capability prerequisite not satisfied")

	// ErrDuplicateKind indicates a kind listed twice in one chain or registered twice.
	ErrDuplicateKind = errors.New("capability listed more than once")

	// ErrPolicyContract indicates a policy succeeded without resolving its kind.
	ErrPolicyContract = errors.New("policy did not resolve its capability")
)

// Rejection is the terminal response carried by a failed execution.
// It is delivered to the caller verbatim.
type Rejection struct {
	Status   int
	Response httputil.ErrorResponse
	Err      error
}

// Error implements error.
func (r *Rejection) Error() string {
	if r.Err != nil {
		return fmt.Sprintf("rejected with %d: %v", r.Status, r.Err)
	}
	return fmt.Sprintf("rejected with %d: %s", r.Status, r.Response.Error)
}

// Unwrap returns the underlying cause.
func (r *Rejection) Unwrap() error {
	return r.Err
}

// Reject builds a Rejection whose status and body follow httputil.MapError.
func Reject(err error) *Rejection {
	status, body := httputil.MapError(err)
	return &Rejection{Status: status, Response: body, Err: err}
}

// Unauthenticated is the rejection for a request without a resolved identity.
func Unauthenticated() *Rejection {
	return Reject(apperrors.ErrUnauthorized)
}

// Forbidden is the rejection for an identity lacking the required role.
func Forbidden(required Role) *Rejection {
	return Reject(apperrors.Wrapf(apperrors.ErrForbidden, "role %q required", required))
}

// AsRejection converts any execution error to a Rejection. Errors that are not
// already rejections become 500 responses.
func AsRejection(err error) *Rejection {
	var rejection *Rejection
	if errors.As(err, &rejection) {
		return rejection
	}
	return &Rejection{
		Status: http.StatusInternalServerError,
		Response: httputil.ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		},
		Err: err,
	}
}
