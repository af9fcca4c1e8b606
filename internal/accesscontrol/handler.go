package accesscontrol

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/core/common/validation"
	roleDatamodel "github.com/Kauel-Chile/MERN-Boilerplate/internal/core/datamodel/role"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/rbac"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/transport"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/user"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	ListRoles(ctx context.Context, scope rbac.Scope) ([]*roleDatamodel.Role, error)
	AssignRole(ctx context.Context, roleID, identityID string) (*user.User, error)
	RoleOrganization(ctx context.Context, roleID string) (string, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// ListRoles handles GET /roles
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	decision, _ := DecisionFromContext(r.Context())

	rows, err := h.Service.ListRoles(r.Context(), decision.Scope)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	resp := RolesResponse{Roles: make([]RoleResponse, 0, len(rows))}
	for _, row := range rows {
		resp.Roles = append(resp.Roles, ToResponse(row))
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// AssignRole handles POST /roles/{roleId}/members
func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	var dto AssignRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteAppError(w, r, internal.NewValidationError(internal.PhraseInvalidRequestBody, internal.ErrCodeValidationFailed).WithCause(err))
		return
	}
	if verr := validation.Struct(dto); verr != nil {
		h.WriteAppError(w, r, verr)
		return
	}

	u, err := h.Service.AssignRole(r.Context(), chi.URLParam(r, "roleId"), dto.IdentityID)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u.ToResponse())
}

// RoleOrganizationFromParam resolves the organization context of the role
// named by the roleId URL param, for use with WithOrganization.
func (h *Handler) RoleOrganizationFromParam(r *http.Request) (string, error) {
	return h.Service.RoleOrganization(r.Context(), chi.URLParam(r, "roleId"))
}
