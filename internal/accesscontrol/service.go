// Package accesscontrol bootstraps the canonical roles and the root identity
// and answers every permission check in the application.
package accesscontrol

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal"
	roleDatamodel "github.com/Kauel-Chile/MERN-Boilerplate/internal/core/datamodel/role"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/rbac"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/user"
)

// RoleRepository is the role store. Lookups return (nil, nil) when no row
// matches.
type RoleRepository interface {
	GetByID(ctx context.Context, id string) (*roleDatamodel.Role, error)
	GetByIDs(ctx context.Context, ids []string) ([]*roleDatamodel.Role, error)
	GetByName(ctx context.Context, name, organizationID string) (*roleDatamodel.Role, error)
	// Ensure inserts role unless one with the same name and organization
	// exists, and returns the stored row either way.
	Ensure(ctx context.Context, role *roleDatamodel.Role) (stored *roleDatamodel.Role, created bool, err error)
	UpdateResources(ctx context.Context, id string, resources map[string]map[string][]string) error
	List(ctx context.Context) ([]*roleDatamodel.Role, error)
	DeleteByOrganization(ctx context.Context, organizationID string) error
}

type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
}

type Service struct {
	roles     RoleRepository
	users     user.Repository
	hasher    PasswordHasher
	bootstrap internal.BootstrapConfig
	logger    *slog.Logger
}

func NewService(roles RoleRepository, users user.Repository, hasher PasswordHasher, bootstrap internal.BootstrapConfig, logger *slog.Logger) *Service {
	return &Service{
		roles:     roles,
		users:     users,
		hasher:    hasher,
		bootstrap: bootstrap,
		logger:    logger,
	}
}

// Bootstrap runs InitAccessControl then CreateSuperAdmin. It is safe to run
// on every start and from concurrent processes.
func (s *Service) Bootstrap(ctx context.Context) (*user.User, error) {
	if err := s.InitAccessControl(ctx); err != nil {
		return nil, err
	}
	return s.CreateSuperAdmin(ctx)
}

// InitAccessControl ensures the canonical global roles exist and carry their
// canonical matrices.
func (s *Service) InitAccessControl(ctx context.Context) error {
	_, err := s.ensureRole(ctx, RoleSuperAdmin, "", superAdminMatrix(), true)
	return err
}

// CreateSuperAdmin ensures the configured bootstrap identity exists and holds
// the SuperAdmin role. An existing identity is returned with its credentials
// untouched.
func (s *Service) CreateSuperAdmin(ctx context.Context) (*user.User, error) {
	email := strings.ToLower(strings.TrimSpace(s.bootstrap.SuperAdminEmail))
	if email == "" || s.bootstrap.SuperAdminPassword == "" {
		return nil, errors.New("bootstrap: super admin email and password are required")
	}

	role, err := s.ensureRole(ctx, RoleSuperAdmin, "", superAdminMatrix(), false)
	if err != nil {
		return nil, err
	}

	row, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: lookup super admin: %w", err)
	}

	if row == nil {
		hash, err := s.hasher.Hash(ctx, s.bootstrap.SuperAdminPassword)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: hash super admin password: %w", err)
		}

		fullName := s.bootstrap.SuperAdminFullName
		if fullName == "" {
			fullName = RoleSuperAdmin
		}
		root := user.NewUser(email, fullName, hash)
		root.MarkVerified(root.CreatedAt)
		root.AddRole(role.ID)

		err = s.users.Create(ctx, user.ToDataModel(root))
		switch {
		case err == nil:
			s.logger.InfoContext(ctx, "super admin created", "user_id", root.ID, "email", email)
			return root, nil
		case errors.Is(err, user.ErrEmailTaken):
			// another process created it first
			if row, err = s.users.GetByEmail(ctx, email); err != nil {
				return nil, fmt.Errorf("bootstrap: reload super admin: %w", err)
			}
			if row == nil {
				return nil, errors.New("bootstrap: super admin email taken but no identity found")
			}
		default:
			return nil, fmt.Errorf("bootstrap: create super admin: %w", err)
		}
	}

	root := user.FromDataModel(row)
	if !root.AddRole(role.ID) {
		s.logger.DebugContext(ctx, "super admin already present", "user_id", root.ID)
		return root, nil
	}

	updated, err := s.users.Update(ctx, user.ToDataModel(root))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: grant super admin role: %w", err)
	}
	if updated == nil {
		return nil, internal.ErrUnableToUpdateUser
	}
	s.logger.InfoContext(ctx, "super admin role granted", "user_id", root.ID)
	return user.FromDataModel(updated), nil
}

// ensureRole creates the role when missing. With reconcile set, a stored
// matrix that drifted from the canonical one is overwritten.
func (s *Service) ensureRole(ctx context.Context, name, organizationID string, matrix rbac.Matrix, reconcile bool) (*roleDatamodel.Role, error) {
	if err := matrix.Validate(); err != nil {
		return nil, fmt.Errorf("ensure role %s: %w", name, err)
	}

	stored, created, err := s.roles.Ensure(ctx, newRoleRow(name, organizationID, matrix))
	if err != nil {
		return nil, fmt.Errorf("ensure role %s: %w", name, err)
	}
	if created {
		s.logger.InfoContext(ctx, "role created", "role", name, "organization_id", organizationID, "role_id", stored.ID)
		return stored, nil
	}

	if reconcile && !rbac.FromMap(stored.Resources).Equal(matrix) {
		if err := s.roles.UpdateResources(ctx, stored.ID, matrix.ToMap()); err != nil {
			return nil, fmt.Errorf("reconcile role %s: %w", name, err)
		}
		stored.Resources = matrix.ToMap()
		s.logger.InfoContext(ctx, "role matrix reconciled", "role", name, "role_id", stored.ID)
	}
	return stored, nil
}

// RolesFor hydrates the roles referenced by u, in assignment order. Dangling
// references and roles with an invalid stored matrix are skipped.
func (s *Service) RolesFor(ctx context.Context, u *user.User) ([]rbac.Role, error) {
	if u == nil || len(u.RoleIDs) == 0 {
		return nil, nil
	}

	rows, err := s.roles.GetByIDs(ctx, u.RoleIDs)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}

	byID := make(map[string]*roleDatamodel.Role, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	roles := make([]rbac.Role, 0, len(rows))
	for _, id := range u.RoleIDs {
		row, ok := byID[id]
		if !ok {
			continue
		}
		role, err := ToRBAC(row)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping role with invalid matrix", "error", err, "user_id", u.ID)
			continue
		}
		roles = append(roles, role)
	}
	return roles, nil
}

// Can resolves whether u may perform req. Store failures are returned as
// errors and never as a grant.
func (s *Service) Can(ctx context.Context, u *user.User, req rbac.Request) (rbac.Decision, error) {
	roles, err := s.rolesForCheck(ctx, u, req)
	if err != nil {
		return rbac.Decision{}, err
	}
	return s.decide(ctx, u, roles, req), nil
}

// CanInOrganizations runs Can once per organization, setting each as the
// request's organization context. Roles are loaded once.
func (s *Service) CanInOrganizations(ctx context.Context, u *user.User, req rbac.Request, organizationIDs []string) (map[string]rbac.Decision, error) {
	roles, err := s.rolesForCheck(ctx, u, req)
	if err != nil {
		return nil, err
	}

	decisions := make(map[string]rbac.Decision, len(organizationIDs))
	for _, id := range organizationIDs {
		req.OrganizationID = id
		decisions[id] = s.decide(ctx, u, roles, req)
	}
	return decisions, nil
}

func (s *Service) rolesForCheck(ctx context.Context, u *user.User, req rbac.Request) ([]rbac.Role, error) {
	if u == nil {
		return nil, internal.ErrMissingToken
	}

	roles, err := s.RolesFor(ctx, u)
	if err != nil {
		decisionsTotal.WithLabelValues(string(req.Resource), string(req.Action), "error").Inc()
		return nil, internal.NewInternalError(internal.PhraseInternalServerError, err)
	}
	return roles, nil
}

func (s *Service) decide(ctx context.Context, u *user.User, roles []rbac.Role, req rbac.Request) rbac.Decision {
	decision := rbac.Resolve(roles, req)

	result := "denied"
	if decision.Granted {
		result = "granted"
	}
	decisionsTotal.WithLabelValues(string(req.Resource), string(req.Action), result).Inc()

	s.logger.DebugContext(ctx, "permission check",
		"user_id", u.ID,
		"resource", req.Resource,
		"action", req.Action,
		"organization_id", req.OrganizationID,
		"result", result)
	return decision
}

// Authorize is Can with a denial reported as ErrInsufficientPermission.
func (s *Service) Authorize(ctx context.Context, u *user.User, req rbac.Request) (rbac.Decision, error) {
	decision, err := s.Can(ctx, u, req)
	if err != nil {
		return decision, err
	}
	if !decision.Granted {
		return decision, internal.ErrInsufficientPermission
	}
	return decision, nil
}

// ProvisionOrganization creates the OrgAdmin and user roles scoped to
// organizationID and makes creator its OrgAdmin.
func (s *Service) ProvisionOrganization(ctx context.Context, organizationID string, creator *user.User) error {
	admin, err := s.ensureRole(ctx, RoleOrgAdmin, organizationID, orgAdminMatrix(), false)
	if err != nil {
		return err
	}
	if _, err := s.ensureRole(ctx, RoleUser, organizationID, orgUserMatrix(), false); err != nil {
		return err
	}

	if creator == nil {
		return nil
	}
	_, err = s.AssignRole(ctx, admin.ID, creator.ID)
	return err
}

// RemoveOrganization drops the roles scoped to organizationID. Identities
// keep the dangling references, which RolesFor ignores.
func (s *Service) RemoveOrganization(ctx context.Context, organizationID string) error {
	if err := s.roles.DeleteByOrganization(ctx, organizationID); err != nil {
		return fmt.Errorf("delete organization roles: %w", err)
	}
	return nil
}

// AssignRole adds roleID to the identity's role set.
func (s *Service) AssignRole(ctx context.Context, roleID, identityID string) (*user.User, error) {
	if roleID == "" || identityID == "" {
		return nil, internal.ErrIDRequired
	}

	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return nil, internal.NewInternalError(internal.PhraseInternalServerError, err)
	}
	if role == nil {
		return nil, internal.ErrRoleNotFound
	}

	row, err := s.users.GetByID(ctx, identityID)
	if err != nil {
		return nil, internal.NewInternalError(internal.PhraseInternalServerError, err)
	}
	if row == nil {
		return nil, internal.ErrUserNotFound
	}

	u := user.FromDataModel(row)
	if !u.AddRole(role.ID) {
		return u, nil
	}

	updated, err := s.users.Update(ctx, user.ToDataModel(u))
	if err != nil {
		return nil, internal.ErrUnableToUpdateUser.WithCause(err)
	}
	if updated == nil {
		return nil, internal.ErrUnableToUpdateUser
	}

	s.logger.InfoContext(ctx, "role assigned", "role_id", role.ID, "role", role.Name, "user_id", u.ID)
	return user.FromDataModel(updated), nil
}

// RoleOrganization returns the organization a role is scoped to, empty for
// global roles.
func (s *Service) RoleOrganization(ctx context.Context, roleID string) (string, error) {
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return "", internal.NewInternalError(internal.PhraseInternalServerError, err)
	}
	if role == nil {
		return "", internal.ErrRoleNotFound
	}
	return role.OrganizationID, nil
}

// ListRoles returns the roles covered by scope.
func (s *Service) ListRoles(ctx context.Context, scope rbac.Scope) ([]*roleDatamodel.Role, error) {
	rows, err := s.roles.List(ctx)
	if err != nil {
		return nil, internal.NewInternalError(internal.PhraseInternalServerError, err)
	}

	out := make([]*roleDatamodel.Role, 0, len(rows))
	for _, row := range rows {
		if scope.Allows(row.ID) {
			out = append(out, row)
		}
	}
	return out, nil
}

// OrganizationIDsFor lists the organizations u holds a scoped role in.
func (s *Service) OrganizationIDsFor(ctx context.Context, u *user.User) ([]string, error) {
	roles, err := s.RolesFor(ctx, u)
	if err != nil {
		return nil, internal.NewInternalError(internal.PhraseInternalServerError, err)
	}

	seen := map[string]bool{}
	var ids []string
	for _, role := range roles {
		if role.IsGlobal() || seen[role.OrganizationID] {
			continue
		}
		seen[role.OrganizationID] = true
		ids = append(ids, role.OrganizationID)
	}
	return ids, nil
}
