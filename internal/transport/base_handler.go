package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal"
	"github.com/Kauel-Chile/MERN-Boilerplate/pkg/logger"
)

// TokenCookieName is the cookie carrying the session token.
const TokenCookieName = "Authorization"

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger        *slog.Logger
	Messages      internal.MessageResolver
	DefaultLocale string
}

// NewBaseHandler creates a base handler with logger and message resolver
func NewBaseHandler(lg *slog.Logger, messages internal.MessageResolver, defaultLocale string) *BaseHandler {
	if lg == nil {
		lg = logger.L()
	}
	if defaultLocale == "" {
		defaultLocale = internal.DefaultLocale
	}
	return &BaseHandler{Logger: lg, Messages: messages, DefaultLocale: defaultLocale}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteAppError renders err with its message resolved in the request locale.
// Errors that are not AppErrors are reported as internal errors.
func (h *BaseHandler) WriteAppError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		appErr = internal.NewInternalError(internal.PhraseInternalServerError, err)
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		h.Logger.ErrorContext(r.Context(), "http error", "status", appErr.StatusCode, "code", appErr.Code, "error", err)
	} else {
		h.Logger.WarnContext(r.Context(), "http error", "status", appErr.StatusCode, "code", appErr.Code, "error", err)
	}

	rendered := *appErr
	rendered.Phrase = h.Message(r, appErr.Phrase, appErr.Args)

	status, body := rendered.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}

// Message resolves a phrase in the request locale.
func (h *BaseHandler) Message(r *http.Request, phrase string, args map[string]any) string {
	if h.Messages == nil {
		return phrase
	}
	return h.Messages.Resolve(phrase, internal.LocaleFromContext(r.Context(), h.DefaultLocale), args)
}

// ExtractToken returns the session token from the Authorization bearer
// header, falling back to the Authorization cookie.
func (h *BaseHandler) ExtractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}

	if cookie, err := r.Cookie(TokenCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
