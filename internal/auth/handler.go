package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/transport"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/user"
	"github.com/Kauel-Chile/MERN-Boilerplate/pkg/logger"
)

type ServiceAPI interface {
	Signup(ctx context.Context, dto CredentialsDTO) (*SignupResult, error)
	Login(ctx context.Context, dto CredentialsDTO) (*Session, error)
	Logout(ctx context.Context, dto CredentialsDTO) (*user.User, error)
	VerifyEmailToken(ctx context.Context, token string) (*user.User, error)
	Authenticate(ctx context.Context, token string) (*user.User, error)
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

var errInvalidBody = internal.NewValidationError(internal.PhraseInvalidRequestBody, internal.ErrCodeValidationFailed)

func (h *Handler) decode(r *http.Request) (CredentialsDTO, error) {
	var dto CredentialsDTO
	if r.Body == nil {
		return dto, nil
	}
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil && !errors.Is(err, io.EOF) {
		return dto, errInvalidBody.WithCause(err)
	}
	return dto, nil
}

// Signup handles POST /signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	dto, err := h.decode(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	result, err := h.Service.Signup(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	w.Header().Add("Set-Cookie", result.Cookie)
	h.WriteJSON(w, http.StatusCreated, sessionResponse(&result.Session))
}

// Login handles POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	dto, err := h.decode(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	session, err := h.Service.Login(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	w.Header().Add("Set-Cookie", session.Cookie)
	h.WriteJSON(w, http.StatusOK, sessionResponse(session))
}

// Logout handles POST /logout. The caller must be authenticated and must
// re-submit its own credentials.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	dto, err := h.decode(r)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	// only the authenticated identity may end its own session
	if current, ok := user.FromContext(r.Context()); ok && dto.Email != "" && !strings.EqualFold(strings.TrimSpace(dto.Email), current.Email) {
		h.WriteAppError(w, r, internal.ErrInsufficientPermission)
		return
	}

	u, err := h.Service.Logout(r.Context(), dto)
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	w.Header().Add("Set-Cookie", ClearCookie())
	h.WriteJSON(w, http.StatusOK, struct {
		Message string            `json:"message"`
		User    user.UserResponse `json:"user"`
	}{
		Message: h.Message(r, internal.PhraseLogoutSuccessful, nil),
		User:    u.ToResponse(),
	})
}

// VerifyEmail handles GET /verify?token=
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.VerifyEmailToken(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		h.WriteAppError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, struct {
		Message string            `json:"message"`
		User    user.UserResponse `json:"user"`
	}{
		Message: h.Message(r, internal.PhraseEmailVerified, nil),
		User:    u.ToResponse(),
	})
}

// AuthMiddleware resolves the bearer or cookie token into the request's
// identity, rejecting the request with 401 otherwise.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := h.Service.Authenticate(r.Context(), h.ExtractToken(r))
		if err != nil {
			h.WriteAppError(w, r, err)
			return
		}

		ctx := user.WithUser(r.Context(), u)
		ctx = internal.ContextWithIdentityID(ctx, u.ID)
		ctx = logger.With(ctx, "identity_id", u.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionResponse(s *Session) SessionResponse {
	return SessionResponse{
		Token:     s.Token.Value,
		ExpiresIn: int64(s.Token.TTL / time.Second),
		User:      s.User.ToResponse(),
	}
}
