package organization

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/transport"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/user"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Create(ctx context.Context, creator *user.User, dto OrganizationDTO) (*Organization, error)
	Update(ctx context.Context, id string, dto OrganizationDTO) (*Organization, error)
	List(ctx context.Context, u *user.User) ([]*Organization, error)
	ListMine(ctx context.Context, u *user.User) ([]*Organization, error)
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (OrganizationDTO, bool) {
	var dto OrganizationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteAppError(w, r, internal.NewValidationError(internal.PhraseInvalidRequestBody, internal.ErrCodeValidationFailed).WithCause(err))
		return dto, false
	}
	return dto, true
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (*user.User, bool) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, internal.ErrMissingToken)
	}
	return u, ok
}

func toResponses(orgs []*Organization) OrganizationsResponse {
	resp := OrganizationsResponse{Organizations: make([]OrganizationResponse, 0, len(orgs))}
	for _, org := range orgs {
		resp.Organizations = append(resp.Organizations, org.ToResponse())
	}
	return resp
}

// CreateOrganization handles POST /createOrg
func (h *Handler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	u, ok := h.caller(w, r)
	if !ok {
		return
	}
	dto, ok := h.decode(w, r)
	if !ok {
		return
	}

	org, err := h.Service.Create(r.Context(), u, dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, org.ToResponse())
}

// UpdateOrganization handles PUT /update/organization/{organizationId}
func (h *Handler) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	dto, ok := h.decode(w, r)
	if !ok {
		return
	}

	org, err := h.Service.Update(r.Context(), chi.URLParam(r, "organizationId"), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, org.ToResponse())
}

// GetOrganizations handles GET /getOrganizations
func (h *Handler) GetOrganizations(w http.ResponseWriter, r *http.Request) {
	u, ok := h.caller(w, r)
	if !ok {
		return
	}

	orgs, err := h.Service.List(r.Context(), u)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, toResponses(orgs))
}

// GetMyOrganizations handles GET /getMyOrganizations
func (h *Handler) GetMyOrganizations(w http.ResponseWriter, r *http.Request) {
	u, ok := h.caller(w, r)
	if !ok {
		return
	}

	orgs, err := h.Service.ListMine(r.Context(), u)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, toResponses(orgs))
}

// DeleteOrganization handles DELETE /delete/organization/{organizationId}
func (h *Handler) DeleteOrganization(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "organizationId")); err != nil {
		h.WriteAppError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, MessageResponse{Message: h.Message(r, internal.PhraseOrganizationDeleted, nil)})
}
