package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/club-management/internal"
	"github.com/frahmantamala/club-management/internal/transport"
)

// Authorizer enforces the capability table on routes.
type Authorizer struct {
	*transport.BaseHandler
	policy *Policy
}

func NewAuthorizer(policy *Policy, logger *slog.Logger) *Authorizer {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Authorizer{
		BaseHandler: transport.NewBaseHandler(logger),
		policy:      policy,
	}
}

func (a *Authorizer) Policy() *Policy {
	return a.policy
}

// RequireCapability lets the request through when the principal holds any of actions.
func (a *Authorizer) RequireCapability(actions ...Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				a.Logger.Warn("authorization check failed: principal not found in context")
				a.WriteAppError(w, internal.ErrInvalidToken)
				return
			}

			if !a.policy.CanAny(p.Role, actions...) {
				a.Logger.WarnContext(r.Context(), "access denied: insufficient role",
					"member_id", p.MemberID,
					"role", p.Role,
					"required", actions)
				a.WriteAppError(w, internal.ErrUnauthorizedAccess)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Authorize is the service boundary check.
func Authorize(policy *Policy, p Principal, action Action) error {
	if !policy.Can(p.Role, action) {
		return internal.ErrUnauthorizedAccess
	}
	return nil
}
