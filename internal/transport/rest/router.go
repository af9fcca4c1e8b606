package rest

import (
	"database/sql"
	"net/http"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/accesscontrol"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/auth"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/organization"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/rbac"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/transport"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/transport/middleware"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/transport/swagger"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/user"
	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the handlers and settings the router mounts. Nil handlers
// leave their routes out.
type Dependencies struct {
	DB            *sql.DB
	Base          *transport.BaseHandler
	Locales       middleware.LocaleMatcher
	Auth          *auth.Handler
	Users         *user.Handler
	Roles         *accesscontrol.Handler
	Organizations *organization.Handler
	Authorization *accesscontrol.RBACAuthorization

	AllowedOrigins     []string
	LoginRatePerMinute int
	TrustProxyHeaders  bool
	Metrics            internal.MetricsConfig
	SpecPath           string
}

func RegisterAllRoutes(router *chi.Mux, deps Dependencies) {
	healthHandler := NewHealthHandler(deps.DB)

	router.Use(middleware.RecoveryMiddleware(deps.Base))
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(deps.Base.Logger))
	if deps.Metrics.Enabled {
		router.Use(middleware.Metrics)
	}
	router.Use(middleware.CORS(deps.AllowedOrigins))
	if deps.Locales != nil {
		router.Use(middleware.Locale(deps.Locales))
	}

	if deps.Metrics.Enabled {
		router.Handle(deps.Metrics.Path, promhttp.Handler())
	}

	if deps.SpecPath != "" {
		router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, deps.SpecPath)
		})
		router.Handle("/swagger/*", swagger.Handler())
	}

	if deps.Auth != nil {
		// the verification mail links here directly
		router.Get("/verify", deps.Auth.VerifyEmail)
	}

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if deps.Auth == nil {
			return
		}

		limiter := middleware.NewRateLimiter(deps.Base, deps.LoginRatePerMinute,
			middleware.TrustForwardedFor(deps.TrustProxyHeaders))
		r.Group(func(pub chi.Router) {
			pub.Use(limiter.Middleware)
			pub.Post("/signup", deps.Auth.Signup)
			pub.Post("/login", deps.Auth.Login)
		})
		r.Get("/verify", deps.Auth.VerifyEmail)

		r.Group(func(pr chi.Router) {
			pr.Use(deps.Auth.AuthMiddleware)
			pr.Post("/logout", deps.Auth.Logout)

			authz := deps.Authorization

			if deps.Users != nil {
				pr.Get("/users/me", deps.Users.GetCurrentUser)
				pr.With(authz.Require(rbac.ResourceUser, rbac.ActionRead,
					accesscontrol.WithOwnerParam("id"), accesscontrol.WithRecordParam("id"))).
					Get("/users/{id}", deps.Users.GetUser)
			}

			if deps.Roles != nil {
				pr.Route("/roles", func(rr chi.Router) {
					rr.With(authz.Require(rbac.ResourceRolePermission, rbac.ActionRead)).
						Get("/", deps.Roles.ListRoles)
					rr.With(authz.Require(rbac.ResourceRolePermission, rbac.ActionUpdate,
						accesscontrol.WithOrganization(deps.Roles.RoleOrganizationFromParam),
						accesscontrol.WithRecordParam("roleId"))).
						Post("/{roleId}/members", deps.Roles.AssignRole)
				})
			}

			if deps.Organizations != nil {
				orgs := deps.Organizations
				inOrg := accesscontrol.WithOrganizationParam("organizationId")
				thisOrg := accesscontrol.WithRecordParam("organizationId")

				pr.Route("/organizations", func(or chi.Router) {
					or.With(authz.Require(rbac.ResourceOrganization, rbac.ActionCreate)).
						Post("/createOrg", orgs.CreateOrganization)
					or.With(authz.Require(rbac.ResourceOrganization, rbac.ActionUpdate, inOrg, thisOrg)).
						Put("/update/organization/{organizationId}", orgs.UpdateOrganization)
					or.Get("/getOrganizations", orgs.GetOrganizations)
					or.Get("/getMyOrganizations", orgs.GetMyOrganizations)
					or.With(authz.Require(rbac.ResourceOrganization, rbac.ActionDelete, inOrg, thisOrg)).
						Delete("/delete/organization/{organizationId}", orgs.DeleteOrganization)
				})
			}
		})
	})
}
