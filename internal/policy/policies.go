package policy

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// IdentitySource looks up the identity stored in the caller's session.
// It returns ok=false when there is no session or the session holds no identity.
type IdentitySource interface {
	Identity(ctx context.Context, r *http.Request) (identity Identity, ok bool, err error)
}

// RequestPolicy checks the request handle seeded into every context.
func RequestPolicy() Policy {
	return func(ctx context.Context, pc *Context) (*Context, error) {
		req, ok := Get[Request](pc)
		if !ok || req.HTTP == nil {
			return nil, fmt.Errorf("%w: request", ErrUnsatisfiedPrerequisite)
		}
		return pc, nil
	}
}

// IdentityResolver refines the context with the Identity cached in the session at
// login. It does not re-verify credentials.
func IdentityResolver(source IdentitySource, logger *slog.Logger) Policy {
	return func(ctx context.Context, pc *Context) (*Context, error) {
		req, ok := Get[Request](pc)
		if !ok || req.HTTP == nil {
			return nil, fmt.Errorf("%w: identity needs request", ErrUnsatisfiedPrerequisite)
		}

		identity, found, err := source.Identity(ctx, req.HTTP)
		if err != nil {
			return nil, fmt.Errorf("failed to load session identity: %w", err)
		}
		if !found {
			logger.Debug("identity resolution failed: no session identity",
				slog.String("path", req.HTTP.URL.Path))
			return nil, Unauthenticated()
		}

		logger.Debug("identity resolved",
			slog.String("user_id", identity.UserID.String()),
			slog.String("username", identity.Username))

		return pc.Refine(identity)
	}
}

// Authorizer refines the context with Attestation[R] when the resolved Identity's
// role equals R's role exactly.
func Authorizer[R RoleClass](logger *slog.Logger) Policy {
	var class R
	required := class.Role()

	return func(ctx context.Context, pc *Context) (*Context, error) {
		identity, ok := Get[Identity](pc)
		if !ok {
			return nil, fmt.Errorf(
				"%w: %s needs identity",
				ErrUnsatisfiedPrerequisite,
				AttestationKind[R](),
			)
		}

		if identity.Role != required {
			logger.Debug("authorization failed",
				slog.String("username", identity.Username),
				slog.String("role", string(identity.Role)),
				slog.String("required_role", string(required)))
			return nil, Forbidden(required)
		}

		return pc.Refine(Attestation[R]{})
	}
}

// Validator marks the input as sanitized. It always succeeds.
func Validator() Policy {
	return func(ctx context.Context, pc *Context) (*Context, error) {
		return pc.Refine(Validation{Sanitized: true})
	}
}

// DefaultRegistry registers the request, identity, validation and attestation policies
// for the admin and staff role classes.
func DefaultRegistry(source IdentitySource, logger *slog.Logger) *Registry {
	r := NewRegistry()
	r.MustRegister(KindRequest, nil, RequestPolicy())
	r.MustRegister(KindIdentity, []Kind{KindRequest}, IdentityResolver(source, logger))
	r.MustRegister(KindValidation, nil, Validator())
	RegisterAttestation[Admin](r, logger)
	RegisterAttestation[Staff](r, logger)
	return r
}

// RegisterAttestation registers the Authorizer for role class R.
func RegisterAttestation[R RoleClass](r *Registry, logger *slog.Logger) {
	r.MustRegister(AttestationKind[R](), []Kind{KindIdentity}, Authorizer[R](logger))
}
