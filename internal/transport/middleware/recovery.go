package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/transport"
)

// RecoveryMiddleware turns a handler panic into a 500 response. The panic
// value is logged, never sent to the client.
func RecoveryMiddleware(base *transport.BaseHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					base.Logger.ErrorContext(r.Context(), "panic recovered",
						"error", rec,
						"method", r.Method,
						"url", r.URL.String(),
						"stack", string(debug.Stack()))

					base.WriteAppError(w, r, internal.NewInternalError(internal.PhraseInternalServerError, fmt.Errorf("panic: %v", rec)))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
