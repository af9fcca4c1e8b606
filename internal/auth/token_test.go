package auth_test

import (
	"strings"
	"time"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("JWTCodec", func() {
	const secret = "0123456789abcdef0123456789abcdef"

	var (
		now   time.Time
		codec *auth.JWTCodec
	)

	ginkgo.BeforeEach(func() {
		now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		codec = auth.NewJWTCodec(secret, auth.WithClock(func() time.Time { return now }))
	})

	ginkgo.It("round-trips the identity id before expiry", func() {
		token, err := codec.Issue("id-1", time.Hour)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(token.TTL).To(gomega.Equal(time.Hour))
		gomega.Expect(token.ExpiresAt).NotTo(gomega.BeNil())

		now = now.Add(59 * time.Minute)
		data, err := codec.Verify(token.Value, auth.VerifyOptions{})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(data.IdentityID).To(gomega.Equal("id-1"))
		gomega.Expect(data.ExpiresAt).NotTo(gomega.BeNil())
	})

	ginkgo.It("rejects the token once the ttl has elapsed", func() {
		token, err := codec.Issue("id-1", time.Hour)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		now = now.Add(time.Hour + time.Second)
		_, err = codec.Verify(token.Value, auth.VerifyOptions{})
		gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
	})

	ginkgo.It("accepts an expired token when expiry is ignored", func() {
		token, err := codec.Issue("id-1", time.Minute)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		now = now.Add(24 * time.Hour)
		data, err := codec.Verify(token.Value, auth.VerifyOptions{IgnoreExpiry: true})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(data.IdentityID).To(gomega.Equal("id-1"))
	})

	ginkgo.It("issues tokens without expiry for a zero ttl", func() {
		token, err := codec.Issue("id-1", 0)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(token.ExpiresAt).To(gomega.BeNil())

		now = now.Add(365 * 24 * time.Hour)
		data, err := codec.Verify(token.Value, auth.VerifyOptions{})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(data.ExpiresAt).To(gomega.BeNil())
	})

	ginkgo.It("reports forged, malformed and expired tokens with the same error", func() {
		token, err := codec.Issue("id-1", time.Minute)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		forged, err := auth.NewJWTCodec("another-secret-another-secret-!!").Issue("id-1", time.Minute)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		_, forgedErr := codec.Verify(forged.Value, auth.VerifyOptions{})
		_, malformedErr := codec.Verify("not.a.token", auth.VerifyOptions{})
		now = now.Add(time.Hour)
		_, expiredErr := codec.Verify(token.Value, auth.VerifyOptions{})

		for _, err := range []error{forgedErr, malformedErr, expiredErr} {
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeInvalidToken))
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeInvalidToken))
			gomega.Expect(appErr.StatusCode).To(gomega.Equal(401))
		}
	})

	ginkgo.It("rejects tokens signed with another algorithm", func() {
		claims := &auth.Claims{IdentityID: "id-1"}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		_, err = codec.Verify(unsigned, auth.VerifyOptions{IgnoreExpiry: true})
		gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
	})

	ginkgo.It("renders the session cookie", func() {
		token, err := codec.Issue("id-1", time.Hour)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		cookie := auth.Cookie(token)
		gomega.Expect(cookie).To(gomega.HavePrefix("Authorization=" + token.Value + ";"))
		gomega.Expect(cookie).To(gomega.ContainSubstring("HttpOnly"))
		gomega.Expect(cookie).To(gomega.ContainSubstring("Max-Age=3600"))
		gomega.Expect(strings.Count(auth.ClearCookie(), "Max-Age=0")).To(gomega.Equal(1))
	})
})
