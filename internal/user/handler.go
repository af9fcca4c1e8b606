package user

import (
	"context"
	"net/http"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	GetByID(ctx context.Context, id string) (*User, error)
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

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	u, ok := FromContext(r.Context())
	if !ok {
		h.WriteAppError(w, r, internal.ErrMissingToken)
		return
	}

	h.WriteJSON(w, http.StatusOK, u.ToResponse())
}

// GetUser handles GET /users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u.ToResponse())
}
