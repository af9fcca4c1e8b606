// Package auth owns credential hashing, the session token codec and the
// signup/login/logout/verify-email transitions.
package auth

import (
	"context"
	"time"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal/user"
	"github.com/golang-jwt/jwt/v5"
)

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, hash string) (bool, error)
}

// TokenCodec issues and verifies session tokens.
type TokenCodec interface {
	Issue(identityID string, ttl time.Duration) (Token, error)
	Verify(token string, opts VerifyOptions) (*TokenData, error)
}

// Token is a signed session token. A zero TTL marks a token without expiry.
type Token struct {
	Value     string
	TTL       time.Duration
	ExpiresAt *time.Time
}

// TokenData is what a verified token says about its bearer.
type TokenData struct {
	IdentityID string
	IssuedAt   time.Time
	ExpiresAt  *time.Time
}

type VerifyOptions struct {
	IgnoreExpiry bool
}

// Claims represents JWT token claims
type Claims struct {
	IdentityID string `json:"identityId"`
	jwt.RegisteredClaims
}

// Session is the outcome of a successful signup or login.
type Session struct {
	User   *user.User
	Token  Token
	Cookie string
}

// SignupResult adds the non-expiring verification token to the session.
type SignupResult struct {
	Session
	VerificationToken Token
}
