package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/core/common/validation"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/core/events"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/user"
)

// Publisher dispatches domain events without waiting for subscribers.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	users         user.Repository
	hasher        Hasher
	tokens        TokenCodec
	publisher     Publisher
	tokenTTL      time.Duration
	defaultLocale string
	logger        *slog.Logger
	now           func() time.Time
}

type ServiceConfig struct {
	TokenTTL      time.Duration
	DefaultLocale string
}

func NewService(users user.Repository, hasher Hasher, tokens TokenCodec, publisher Publisher, cfg ServiceConfig, logger *slog.Logger) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = internal.DefaultTokenTTL
	}
	if cfg.DefaultLocale == "" {
		cfg.DefaultLocale = internal.DefaultLocale
	}
	return &Service{
		users:         users,
		hasher:        hasher,
		tokens:        tokens,
		publisher:     publisher,
		tokenTTL:      cfg.TokenTTL,
		defaultLocale: cfg.DefaultLocale,
		logger:        logger,
		now:           time.Now,
	}
}

// Signup registers a new identity, opens a session for it and dispatches the
// verification notification in the background.
func (s *Service) Signup(ctx context.Context, dto CredentialsDTO) (result *SignupResult, err error) {
	defer func() { signupsTotal.WithLabelValues(outcome(err)).Inc() }()

	dto.Email = normalizeEmail(dto.Email)
	if dto.IsEmpty() {
		return nil, internal.ErrCredentialsRequired
	}
	if verr := validation.Struct(dto); verr != nil {
		return nil, verr
	}

	existing, err := s.users.GetByEmail(ctx, dto.Email)
	if err != nil {
		return nil, s.internalError(ctx, "signup: lookup by email failed", err)
	}
	if existing != nil {
		return nil, emailExists(dto.Email)
	}

	hash, err := s.hasher.Hash(ctx, dto.Password)
	if err != nil {
		return nil, s.internalError(ctx, "signup: hashing failed", err)
	}

	fullName := strings.TrimSpace(dto.FullName)
	if fullName == "" {
		fullName, _, _ = strings.Cut(dto.Email, "@")
	}

	u := user.NewUser(dto.Email, fullName, hash)
	if err := s.users.Create(ctx, user.ToDataModel(u)); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return nil, emailExists(dto.Email)
		}
		return nil, s.internalError(ctx, "signup: create identity failed", err)
	}

	session, err := s.openSession(u)
	if err != nil {
		return nil, s.internalError(ctx, "signup: issue session token failed", err)
	}

	verification, err := s.tokens.Issue(u.ID, 0)
	if err != nil {
		return nil, s.internalError(ctx, "signup: issue verification token failed", err)
	}

	s.notifySignup(ctx, u, verification)

	s.logger.InfoContext(ctx, "identity signed up", "user_id", u.ID)
	return &SignupResult{Session: *session, VerificationToken: verification}, nil
}

// Login authenticates an email/password pair. An unknown email is NotFound
// and a wrong password is Conflict; both map to the same HTTP status.
func (s *Service) Login(ctx context.Context, dto CredentialsDTO) (session *Session, err error) {
	defer func() { loginsTotal.WithLabelValues(outcome(err)).Inc() }()

	dto.Email = normalizeEmail(dto.Email)
	if dto.IsEmpty() {
		return nil, internal.ErrCredentialsRequired
	}

	u, err := s.findByEmail(ctx, dto.Email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, emailNotFound(dto.Email)
	}

	match, err := s.hasher.Verify(ctx, dto.Password, u.PasswordHash)
	if err != nil {
		return nil, s.internalError(ctx, "login: password verification failed", err)
	}
	if !match {
		return nil, internal.ErrWrongPassword
	}

	session, err = s.openSession(u)
	if err != nil {
		return nil, s.internalError(ctx, "login: issue session token failed", err)
	}

	s.logger.InfoContext(ctx, "identity logged in", "user_id", u.ID)
	return session, nil
}

// Logout re-checks the caller's credentials and returns the identity. The
// transport clears the cookie.
func (s *Service) Logout(ctx context.Context, dto CredentialsDTO) (*user.User, error) {
	dto.Email = normalizeEmail(dto.Email)
	if dto.IsEmpty() {
		return nil, internal.ErrCredentialsRequired
	}

	u, err := s.findByEmail(ctx, dto.Email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, emailNotFound(dto.Email)
	}

	match, err := s.hasher.Verify(ctx, dto.Password, u.PasswordHash)
	if err != nil {
		return nil, s.internalError(ctx, "logout: password verification failed", err)
	}
	if !match {
		return nil, emailNotFound(dto.Email)
	}

	s.logger.InfoContext(ctx, "identity logged out", "user_id", u.ID)
	return u, nil
}

// VerifyEmail stamps the identity's verification time.
func (s *Service) VerifyEmail(ctx context.Context, identityID string) (*user.User, error) {
	if identityID == "" {
		return nil, internal.ErrIDRequired
	}

	row, err := s.users.GetByID(ctx, identityID)
	if err != nil {
		return nil, s.internalError(ctx, "verify email: lookup failed", err)
	}
	if row == nil {
		return nil, internal.ErrUserNotFound
	}

	u := user.FromDataModel(row)
	u.MarkVerified(s.now())

	updated, err := s.users.Update(ctx, user.ToDataModel(u))
	if err != nil {
		s.logger.ErrorContext(ctx, "verify email: update failed", "user_id", identityID, "error", err)
		return nil, internal.ErrUnableToUpdateUser.WithCause(err)
	}
	if updated == nil {
		return nil, internal.ErrUnableToUpdateUser
	}

	s.logger.InfoContext(ctx, "email verified", "user_id", identityID)
	return user.FromDataModel(updated), nil
}

// VerifyEmailToken resolves a verification token, ignoring expiry, and
// verifies the identity it names.
func (s *Service) VerifyEmailToken(ctx context.Context, token string) (*user.User, error) {
	if token == "" {
		return nil, internal.ErrMissingToken
	}
	data, err := s.tokens.Verify(token, VerifyOptions{IgnoreExpiry: true})
	if err != nil {
		return nil, err
	}
	return s.VerifyEmail(ctx, data.IdentityID)
}

// Authenticate resolves a session token to a live identity. Tokens without an
// expiry are verification tokens and never open a session.
func (s *Service) Authenticate(ctx context.Context, token string) (u *user.User, err error) {
	defer func() { tokenVerificationsTotal.WithLabelValues(outcome(err)).Inc() }()

	if token == "" {
		return nil, internal.ErrMissingToken
	}

	data, err := s.tokens.Verify(token, VerifyOptions{})
	if err != nil {
		return nil, err
	}
	if data.ExpiresAt == nil {
		return nil, internal.ErrInvalidToken
	}

	row, err := s.users.GetByID(ctx, data.IdentityID)
	if err != nil {
		return nil, s.internalError(ctx, "authenticate: lookup failed", err)
	}
	if row == nil {
		return nil, internal.ErrInvalidToken
	}
	return user.FromDataModel(row), nil
}

func (s *Service) openSession(u *user.User) (*Session, error) {
	token, err := s.tokens.Issue(u.ID, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token, Cookie: Cookie(token)}, nil
}

func (s *Service) findByEmail(ctx context.Context, email string) (*user.User, error) {
	row, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, s.internalError(ctx, "lookup by email failed", err)
	}
	return user.FromDataModel(row), nil
}

func (s *Service) notifySignup(ctx context.Context, u *user.User, verification Token) {
	if s.publisher == nil {
		return
	}
	event := events.NewIdentitySignedUpEvent(u.ID, u.Email, u.FullName,
		internal.LocaleFromContext(ctx, s.defaultLocale), verification.Value)
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.ErrorContext(ctx, "signup: verification notification not dispatched", "user_id", u.ID, "error", err)
	}
}

func (s *Service) internalError(ctx context.Context, msg string, err error) error {
	s.logger.ErrorContext(ctx, msg, "error", err)
	return internal.NewInternalError(internal.PhraseInternalServerError, err)
}

func emailExists(email string) error {
	return internal.ErrEmailExists.WithArgs(map[string]any{"email": email})
}

func emailNotFound(email string) error {
	return internal.ErrEmailNotFound.WithArgs(map[string]any{"email": email})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
