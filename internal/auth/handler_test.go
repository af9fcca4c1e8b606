package auth_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal/auth"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/transport"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/user"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Auth Handler", func() {
	var (
		handler *auth.Handler
		service *auth.Service
	)

	ginkgo.BeforeEach(func() {
		service = newTestService(newMockUserRepository(), &recordingPublisher{}, auth.NewJWTCodec(testSecret))
		base := transport.NewBaseHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), nil, "en")
		handler = auth.NewHandler(base, service)
	})

	post := func(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h(w, req)
		return w
	}

	ginkgo.It("answers signup with 201 and a session cookie", func() {
		w := post(handler.Signup, `{"email":"a@x.com","password":"p"}`)
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusCreated))
		gomega.Expect(w.Header().Get("Set-Cookie")).To(gomega.MatchRegexp(`^Authorization=.+; HttpOnly; Max-Age=3600;$`))

		var body auth.SessionResponse
		gomega.Expect(json.NewDecoder(w.Body).Decode(&body)).To(gomega.Succeed())
		gomega.Expect(body.Token).NotTo(gomega.BeEmpty())
		gomega.Expect(body.ExpiresIn).To(gomega.BeEquivalentTo(3600))
	})

	ginkgo.It("answers signup with an empty payload with 400", func() {
		w := post(handler.Signup, ``)
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusBadRequest))

		var body map[string]map[string]any
		gomega.Expect(json.NewDecoder(w.Body).Decode(&body)).To(gomega.Succeed())
		gomega.Expect(body["error"]["type"]).To(gomega.Equal("BAD_CREDENTIALS"))
	})

	ginkgo.It("answers a malformed body with 400", func() {
		w := post(handler.Login, `{"email":`)
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusBadRequest))
	})

	ginkgo.It("answers a login with an unknown email with 409 and no cookie", func() {
		w := post(handler.Login, `{"email":"ghost@x.com","password":"p"}`)
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusConflict))
		gomega.Expect(w.Header().Get("Set-Cookie")).To(gomega.BeEmpty())
	})

	ginkgo.It("answers a wrong password with 409", func() {
		post(handler.Signup, `{"email":"a@x.com","password":"p"}`)
		w := post(handler.Login, `{"email":"a@x.com","password":"nope"}`)
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusConflict))
	})

	ginkgo.Describe("AuthMiddleware", func() {
		var protected http.Handler

		ginkgo.BeforeEach(func() {
			protected = handler.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				u, ok := user.FromContext(r.Context())
				gomega.Expect(ok).To(gomega.BeTrue())
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(u.Email))
			}))
		})

		ginkgo.It("rejects requests without a token with 401", func() {
			w := httptest.NewRecorder()
			protected.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("rejects a forged token with 401", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer not.a.token")
			w := httptest.NewRecorder()
			protected.ServeHTTP(w, req)
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("accepts the bearer header and the cookie", func() {
			signup := post(handler.Signup, `{"email":"a@x.com","password":"p"}`)
			var body auth.SessionResponse
			gomega.Expect(json.NewDecoder(signup.Body).Decode(&body)).To(gomega.Succeed())

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+body.Token)
			w := httptest.NewRecorder()
			protected.ServeHTTP(w, req)
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(w.Body.String()).To(gomega.Equal("a@x.com"))

			req = httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: "Authorization", Value: body.Token})
			w = httptest.NewRecorder()
			protected.ServeHTTP(w, req)
			gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
		})
	})

	ginkgo.It("clears the cookie on logout", func() {
		post(handler.Signup, `{"email":"a@x.com","password":"p"}`)
		w := post(handler.Logout, `{"email":"a@x.com","password":"p"}`)
		gomega.Expect(w.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(w.Header().Get("Set-Cookie")).To(gomega.ContainSubstring("Max-Age=0"))
	})

	ginkgo.It("refuses to log out another identity before checking its credentials", func() {
		post(handler.Signup, `{"email":"a@x.com","password":"p"}`)
		post(handler.Signup, `{"email":"b@x.com","password":"p"}`)

		caller := user.NewUser("b@x.com", "B", "hash")
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@x.com","password":"wrong"}`))
		req.Header.Set("Content-Type", "application/json")
		req = req.WithContext(user.WithUser(req.Context(), caller))
		w := httptest.NewRecorder()
		handler.Logout(w, req)

		gomega.Expect(w.Code).To(gomega.Equal(http.StatusUnauthorized))
		gomega.Expect(w.Header().Get("Set-Cookie")).To(gomega.BeEmpty())

		var body map[string]map[string]any
		gomega.Expect(json.NewDecoder(w.Body).Decode(&body)).To(gomega.Succeed())
		gomega.Expect(body["error"]["code"]).To(gomega.Equal("INSUFFICIENT_PERMISSION"))
	})
})
