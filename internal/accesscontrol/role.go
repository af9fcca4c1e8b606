package accesscontrol

import (
	"fmt"

	roleDatamodel "github.com/Kauel-Chile/MERN-Boilerplate/internal/core/datamodel/role"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/rbac"
	"github.com/google/uuid"
)

// Canonical role names.
const (
	RoleSuperAdmin = "SuperAdmin"
	RoleOrgAdmin   = "OrgAdmin"
	RoleUser       = "user"
)

// superAdminMatrix grants everything on every known resource type.
func superAdminMatrix() rbac.Matrix {
	return rbac.FullAccess()
}

// orgAdminMatrix is provisioned per organization for its creator.
func orgAdminMatrix() rbac.Matrix {
	return rbac.Matrix{}.
		Grant(rbac.ResourceOrganization, rbac.ActionRead, rbac.PossessionAny).
		Grant(rbac.ResourceOrganization, rbac.ActionUpdate, rbac.PossessionAny).
		Grant(rbac.ResourceOrganization, rbac.ActionDelete, rbac.PossessionAny).
		Grant(rbac.ResourceUser, rbac.ActionRead, rbac.PossessionAny).
		Grant(rbac.ResourceRolePermission, rbac.ActionRead, rbac.PossessionAny).
		Grant(rbac.ResourceRolePermission, rbac.ActionUpdate, rbac.PossessionAny)
}

// orgUserMatrix is provisioned per organization for ordinary members.
func orgUserMatrix() rbac.Matrix {
	return rbac.Matrix{}.
		Grant(rbac.ResourceOrganization, rbac.ActionRead, rbac.PossessionAny).
		Grant(rbac.ResourceUser, rbac.ActionRead, rbac.PossessionOwn).
		Grant(rbac.ResourceUser, rbac.ActionUpdate, rbac.PossessionOwn)
}

func newRoleRow(name, organizationID string, matrix rbac.Matrix) *roleDatamodel.Role {
	return &roleDatamodel.Role{
		ID:             uuid.NewString(),
		Name:           name,
		OrganizationID: organizationID,
		Resources:      matrix.ToMap(),
	}
}

// ToRBAC hydrates a stored role for the resolver. A matrix naming an unknown
// resource type or permission key is rejected.
func ToRBAC(r *roleDatamodel.Role) (rbac.Role, error) {
	matrix := rbac.FromMap(r.Resources)
	if err := matrix.Validate(); err != nil {
		return rbac.Role{}, fmt.Errorf("role %s (%s): %w", r.Name, r.ID, err)
	}
	return rbac.Role{
		ID:             r.ID,
		Name:           r.Name,
		OrganizationID: r.OrganizationID,
		Matrix:         matrix,
	}, nil
}

type RoleResponse struct {
	ID             string                         `json:"id"`
	Name           string                         `json:"name"`
	OrganizationID string                         `json:"organizationId,omitempty"`
	Resources      map[string]map[string][]string `json:"resources"`
}

func ToResponse(r *roleDatamodel.Role) RoleResponse {
	return RoleResponse{
		ID:             r.ID,
		Name:           r.Name,
		OrganizationID: r.OrganizationID,
		Resources:      r.Resources,
	}
}

type RolesResponse struct {
	Roles []RoleResponse `json:"roles"`
}

type AssignRoleDTO struct {
	IdentityID string `json:"identityId" validate:"required"`
}
