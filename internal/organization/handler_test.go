package organization_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal/accesscontrol"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/organization"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/rbac"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/transport"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/user"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Organization Handler", func() {
	var (
		ctx    context.Context
		e      *env
		router chi.Router
	)

	BeforeEach(func() {
		ctx = context.Background()
		e = newEnv(ctx)

		base := transport.NewBaseHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), nil, "en")
		handler := organization.NewHandler(base, e.service)
		authz := accesscontrol.NewRBACAuthorization(base, e.access)

		router = chi.NewRouter()
		router.With(authz.Require(rbac.ResourceOrganization, rbac.ActionCreate)).Post("/createOrg", handler.CreateOrganization)
		router.With(authz.Require(rbac.ResourceOrganization, rbac.ActionUpdate, accesscontrol.WithOrganizationParam("organizationId"))).
			Put("/update/organization/{organizationId}", handler.UpdateOrganization)
		router.Get("/getOrganizations", handler.GetOrganizations)
		router.Get("/getMyOrganizations", handler.GetMyOrganizations)
		router.With(authz.Require(rbac.ResourceOrganization, rbac.ActionDelete, accesscontrol.WithOrganizationParam("organizationId"))).
			Delete("/delete/organization/{organizationId}", handler.DeleteOrganization)
	})

	serve := func(method, target, body string, u *user.User) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if u != nil {
			req = req.WithContext(user.WithUser(req.Context(), u))
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("creates an organization for the root identity with 201", func() {
		w := serve(http.MethodPost, "/createOrg", `{"name":"Acme"}`, e.root)
		Expect(w.Code).To(Equal(http.StatusCreated))

		var body organization.OrganizationResponse
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body.ID).NotTo(BeEmpty())
		Expect(body.Name).To(Equal("Acme"))
	})

	It("denies creation to an identity without a global grant", func() {
		w := serve(http.MethodPost, "/createOrg", `{"name":"Acme"}`, e.member(ctx, "m@example.com"))
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("rejects a request without identity with 401", func() {
		w := serve(http.MethodGet, "/getMyOrganizations", "", nil)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("lets an OrgAdmin update and delete its own organization only", func() {
		creator := e.member(ctx, "creator@example.com")
		mine, err := e.service.Create(ctx, creator, organization.OrganizationDTO{Name: "Acme"})
		Expect(err).NotTo(HaveOccurred())
		other, err := e.service.Create(ctx, e.root, organization.OrganizationDTO{Name: "Globex"})
		Expect(err).NotTo(HaveOccurred())
		creator = e.reload(ctx, creator)

		w := serve(http.MethodPut, "/update/organization/"+mine.ID, `{"name":"Acme Corp"}`, creator)
		Expect(w.Code).To(Equal(http.StatusOK))

		w = serve(http.MethodPut, "/update/organization/"+other.ID, `{"name":"Mine now"}`, creator)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))

		w = serve(http.MethodDelete, "/delete/organization/"+other.ID, "", creator)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))

		w = serve(http.MethodDelete, "/delete/organization/"+mine.ID, "", creator)
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("lists the caller's organizations", func() {
		creator := e.member(ctx, "creator@example.com")
		_, err := e.service.Create(ctx, creator, organization.OrganizationDTO{Name: "Acme"})
		Expect(err).NotTo(HaveOccurred())

		w := serve(http.MethodGet, "/getMyOrganizations", "", e.reload(ctx, creator))
		Expect(w.Code).To(Equal(http.StatusOK))

		var body organization.OrganizationsResponse
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body.Organizations).To(HaveLen(1))
		Expect(body.Organizations[0].Name).To(Equal("Acme"))
	})

	It("answers a malformed body with 400", func() {
		w := serve(http.MethodPost, "/createOrg", `{"name":`, e.root)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})
