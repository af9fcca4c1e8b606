package middleware

import (
	"net/http"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal"
)

const (
	// LanguageParam selects the response language, e.g. ?language=es.
	LanguageParam = "language"
	// LanguageCookie persists the language preference.
	LanguageCookie = "language"
)

type LocaleMatcher interface {
	Match(preferences ...string) string
}

// Locale negotiates the request locale from the language query parameter,
// the language cookie, then Accept-Language.
func Locale(matcher LocaleMatcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var cookie string
			if c, err := r.Cookie(LanguageCookie); err == nil {
				cookie = c.Value
			}

			locale := matcher.Match(
				r.URL.Query().Get(LanguageParam),
				cookie,
				r.Header.Get("Accept-Language"),
			)
			w.Header().Set("Content-Language", locale)

			next.ServeHTTP(w, r.WithContext(internal.ContextWithLocale(r.Context(), locale)))
		})
	}
}
