package accesscontrol

import (
	"context"
	"net/http"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/rbac"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/transport"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/user"
	"github.com/go-chi/chi"
)

type PermissionAuthorizer interface {
	Can(ctx context.Context, u *user.User, req rbac.Request) (rbac.Decision, error)
}

type RBACAuthorization struct {
	*transport.BaseHandler
	authorizer PermissionAuthorizer
}

func NewRBACAuthorization(baseHandler *transport.BaseHandler, authorizer PermissionAuthorizer) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: baseHandler,
		authorizer:  authorizer,
	}
}

type requirement struct {
	organization func(r *http.Request) (string, error)
	owner        func(r *http.Request, u *user.User) bool
	record       func(r *http.Request) string
}

type RequireOption func(*requirement)

// WithOrganizationParam takes the organization context from a chi URL param.
func WithOrganizationParam(name string) RequireOption {
	return func(req *requirement) {
		req.organization = func(r *http.Request) (string, error) {
			return chi.URLParam(r, name), nil
		}
	}
}

// WithOrganization derives the organization context from the request.
func WithOrganization(resolve func(r *http.Request) (string, error)) RequireOption {
	return func(req *requirement) {
		req.organization = resolve
	}
}

// WithOwnerParam treats the caller as owner when the URL param equals its id.
func WithOwnerParam(name string) RequireOption {
	return func(req *requirement) {
		req.owner = func(r *http.Request, u *user.User) bool {
			return chi.URLParam(r, name) == u.ID
		}
	}
}

// WithRecordParam names the record the request targets. The decision's scope
// must cover it, so an allow-list grant never reaches other records.
func WithRecordParam(name string) RequireOption {
	return func(req *requirement) {
		req.record = func(r *http.Request) string {
			return chi.URLParam(r, name)
		}
	}
}

type decisionKey struct{}

// DecisionFromContext returns the decision the authorization middleware made
// for the current request.
func DecisionFromContext(ctx context.Context) (rbac.Decision, bool) {
	d, ok := ctx.Value(decisionKey{}).(rbac.Decision)
	return d, ok
}

// Require gates the next handler behind a permission check on the
// authenticated identity. Denials are answered with 401.
func (ra *RBACAuthorization) Require(resource rbac.ResourceType, action rbac.Action, opts ...RequireOption) func(http.Handler) http.Handler {
	var cfg requirement
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := user.FromContext(r.Context())
			if !ok {
				ra.Logger.WarnContext(r.Context(), "authorization check failed: identity not found in context")
				ra.WriteAppError(w, r, internal.ErrMissingToken)
				return
			}

			req := rbac.Request{Resource: resource, Action: action}
			if cfg.organization != nil {
				orgID, err := cfg.organization(r)
				if err != nil {
					ra.WriteAppError(w, r, err)
					return
				}
				req.OrganizationID = orgID
			}
			if cfg.owner != nil {
				req.IsOwner = func() bool { return cfg.owner(r, u) }
			}

			decision, err := ra.authorizer.Can(r.Context(), u, req)
			if err != nil {
				ra.Logger.ErrorContext(r.Context(), "authorization check failed", "error", err, "user_id", u.ID)
				ra.WriteAppError(w, r, err)
				return
			}

			if !decision.Granted {
				ra.Logger.WarnContext(r.Context(), "access denied: insufficient permissions",
					"user_id", u.ID,
					"resource", resource,
					"action", action,
					"organization_id", req.OrganizationID)
				ra.WriteAppError(w, r, internal.ErrInsufficientPermission)
				return
			}

			if cfg.record != nil {
				if id := cfg.record(r); !decision.Scope.Allows(id) {
					ra.Logger.WarnContext(r.Context(), "access denied: record outside granted scope",
						"user_id", u.ID,
						"resource", resource,
						"action", action,
						"record_id", id)
					ra.WriteAppError(w, r, internal.ErrInsufficientPermission)
					return
				}
			}

			ctx := context.WithValue(r.Context(), decisionKey{}, decision)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
