package accesscontrol_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/accesscontrol"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/rbac"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/transport"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/user"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubAuthorizer struct {
	decision rbac.Decision
	err      error
	last     rbac.Request
}

func (s *stubAuthorizer) Can(_ context.Context, _ *user.User, req rbac.Request) (rbac.Decision, error) {
	s.last = req
	return s.decision, s.err
}

// resolvingAuthorizer decides with the real resolver over fixed roles.
type resolvingAuthorizer struct {
	roles []rbac.Role
}

func (a resolvingAuthorizer) Can(_ context.Context, _ *user.User, req rbac.Request) (rbac.Decision, error) {
	return rbac.Resolve(a.roles, req), nil
}

var _ = Describe("RBACAuthorization", func() {
	var (
		authorizer *stubAuthorizer
		router     chi.Router
		caller     *user.User
	)

	BeforeEach(func() {
		authorizer = &stubAuthorizer{}
		caller = user.NewUser("member@example.com", "Member", "hash")

		base := transport.NewBaseHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), nil, "en")
		ra := accesscontrol.NewRBACAuthorization(base, authorizer)

		router = chi.NewRouter()
		router.With(ra.Require(rbac.ResourceOrganization, rbac.ActionUpdate,
			accesscontrol.WithOrganizationParam("organizationId"),
			accesscontrol.WithRecordParam("organizationId"),
		)).Put("/organizations/{organizationId}", func(w http.ResponseWriter, r *http.Request) {
			d, ok := accesscontrol.DecisionFromContext(r.Context())
			Expect(ok).To(BeTrue())
			Expect(d.Granted).To(BeTrue())
			w.WriteHeader(http.StatusNoContent)
		})
		router.With(ra.Require(rbac.ResourceUser, rbac.ActionRead,
			accesscontrol.WithOwnerParam("id"),
		)).Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})

	serve := func(method, target string, u *user.User) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, nil)
		if u != nil {
			req = req.WithContext(user.WithUser(req.Context(), u))
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	errorCode := func(w *httptest.ResponseRecorder) any {
		var body map[string]map[string]any
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		return body["error"]["code"]
	}

	It("rejects a request without an authenticated identity", func() {
		w := serve(http.MethodPut, "/organizations/org-1", nil)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(errorCode(w)).To(Equal(string(internal.ErrCodeMissingToken)))
	})

	It("answers a denial with 401", func() {
		w := serve(http.MethodPut, "/organizations/org-1", caller)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(errorCode(w)).To(Equal(string(internal.ErrCodeInsufficientPermission)))
	})

	It("passes the organization context from the URL", func() {
		authorizer.decision = rbac.Decision{Granted: true, Possession: rbac.PossessionAny, Scope: rbac.Scope{Unrestricted: true}}
		w := serve(http.MethodPut, "/organizations/org-1", caller)
		Expect(w.Code).To(Equal(http.StatusNoContent))
		Expect(authorizer.last.OrganizationID).To(Equal("org-1"))
		Expect(authorizer.last.Resource).To(Equal(rbac.ResourceOrganization))
		Expect(authorizer.last.Action).To(Equal(rbac.ActionUpdate))
	})

	It("derives ownership from the URL param", func() {
		authorizer.decision = rbac.Decision{Granted: true}
		serve(http.MethodGet, "/users/"+caller.ID, caller)
		Expect(authorizer.last.IsOwner()).To(BeTrue())

		serve(http.MethodGet, "/users/someone-else", caller)
		Expect(authorizer.last.IsOwner()).To(BeFalse())
	})

	It("reports a failing permission store as an internal error", func() {
		authorizer.err = errors.New("store down")
		w := serve(http.MethodPut, "/organizations/org-1", caller)
		Expect(w.Code).To(Equal(http.StatusInternalServerError))
	})

	It("rejects a record outside an allow-list scope", func() {
		authorizer.decision = rbac.Decision{Granted: true, Possession: rbac.PossessionAny, Scope: rbac.Scope{IDs: []string{"org-1"}}}

		w := serve(http.MethodPut, "/organizations/org-2", caller)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(errorCode(w)).To(Equal(string(internal.ErrCodeInsufficientPermission)))

		Expect(serve(http.MethodPut, "/organizations/org-1", caller).Code).To(Equal(http.StatusNoContent))
	})

	It("keeps a global allow-list grant on its listed organizations", func() {
		editor := rbac.Role{
			ID:     "r-editor",
			Matrix: rbac.Matrix{}.Grant(rbac.ResourceOrganization, rbac.ActionUpdate, rbac.PossessionAny, "org-1"),
		}
		base := transport.NewBaseHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), nil, "en")
		ra := accesscontrol.NewRBACAuthorization(base, resolvingAuthorizer{roles: []rbac.Role{editor}})

		reached := false
		r := chi.NewRouter()
		r.With(ra.Require(rbac.ResourceOrganization, rbac.ActionUpdate,
			accesscontrol.WithOrganizationParam("organizationId"),
			accesscontrol.WithRecordParam("organizationId"),
		)).Put("/organizations/{organizationId}", func(w http.ResponseWriter, _ *http.Request) {
			reached = true
			w.WriteHeader(http.StatusOK)
		})

		send := func(target string) int {
			req := httptest.NewRequest(http.MethodPut, target, nil)
			req = req.WithContext(user.WithUser(req.Context(), caller))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			return w.Code
		}

		Expect(send("/organizations/org-2")).To(Equal(http.StatusUnauthorized))
		Expect(reached).To(BeFalse())

		Expect(send("/organizations/org-1")).To(Equal(http.StatusOK))
		Expect(reached).To(BeTrue())
	})
})
