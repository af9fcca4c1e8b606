package auth

import (
	"fmt"
	"time"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/transport"
	"github.com/golang-jwt/jwt/v5"
)

type JWTCodec struct {
	secret []byte
	now    func() time.Time
}

type CodecOption func(*JWTCodec)

// WithClock overrides the time source used for iat/exp and for expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(c *JWTCodec) {
		c.now = now
	}
}

func NewJWTCodec(secret string, opts ...CodecOption) *JWTCodec {
	c := &JWTCodec{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue signs a token for identityID. A ttl of zero yields a token without an
// exp claim, used for email verification.
func (c *JWTCodec) Issue(identityID string, ttl time.Duration) (Token, error) {
	if ttl < 0 {
		ttl = internal.DefaultTokenTTL
	}
	now := c.now()

	claims := &Claims{
		IdentityID: identityID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
			Subject:  identityID,
		},
	}

	var expiresAt *time.Time
	if ttl > 0 {
		exp := now.Add(ttl)
		expiresAt = &exp
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}

	return Token{Value: signed, TTL: ttl, ExpiresAt: expiresAt}, nil
}

// Verify checks signature, shape and, unless ignored, expiry. Every failure
// is reported as internal.ErrInvalidToken.
func (c *JWTCodec) Verify(tokenString string, opts VerifyOptions) (*TokenData, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	}
	if opts.IgnoreExpiry {
		parserOpts = append(parserOpts, jwt.WithoutClaimsValidation())
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, parserOpts...)
	if err != nil {
		return nil, internal.ErrInvalidToken.WithCause(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.IdentityID == "" {
		return nil, internal.ErrInvalidToken
	}

	data := &TokenData{IdentityID: claims.IdentityID}
	if claims.IssuedAt != nil {
		data.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		data.ExpiresAt = &exp
	}
	return data, nil
}

// Cookie renders the token for the Set-Cookie header.
func Cookie(t Token) string {
	return fmt.Sprintf("%s=%s; HttpOnly; Max-Age=%d;", transport.TokenCookieName, t.Value, int64(t.TTL/time.Second))
}

// ClearCookie expires the session cookie on the client.
func ClearCookie() string {
	return fmt.Sprintf("%s=; HttpOnly; Max-Age=0;", transport.TokenCookieName)
}
