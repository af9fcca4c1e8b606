// Package notification turns domain events into outbound mail.
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/core/events"
)

type VerificationConfig struct {
	VerifyURL     string
	PlatformName  string
	PlatformURL   string
	DefaultLocale string
}

// VerificationNotifier mails the verification link to freshly signed up
// identities.
type VerificationNotifier struct {
	mailer   Mailer
	messages internal.MessageResolver
	cfg      VerificationConfig
	logger   *slog.Logger
}

func NewVerificationNotifier(mailer Mailer, messages internal.MessageResolver, cfg VerificationConfig, logger *slog.Logger) *VerificationNotifier {
	if cfg.PlatformName == "" {
		cfg.PlatformName = internal.DefaultPlatformName
	}
	if cfg.DefaultLocale == "" {
		cfg.DefaultLocale = internal.DefaultLocale
	}
	return &VerificationNotifier{
		mailer:   mailer,
		messages: messages,
		cfg:      cfg,
		logger:   logger,
	}
}

func (n *VerificationNotifier) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeIdentitySignedUp, n.HandleIdentitySignedUp)
}

func (n *VerificationNotifier) HandleIdentitySignedUp(ctx context.Context, event events.Event) error {
	signedUp, ok := event.(*events.IdentitySignedUpEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", event)
	}

	msg, err := n.Compose(signedUp)
	if err != nil {
		n.logger.ErrorContext(ctx, "verification email not composed", "user_id", signedUp.IdentityID, "error", err)
		return err
	}

	if err := n.mailer.Send(ctx, msg); err != nil {
		n.logger.ErrorContext(ctx, "verification email not sent",
			"user_id", signedUp.IdentityID,
			"email", signedUp.Email,
			"error", err)
		return err
	}

	n.logger.InfoContext(ctx, "verification email sent", "user_id", signedUp.IdentityID)
	return nil
}

// Compose renders the verification mail in the locale captured at signup.
func (n *VerificationNotifier) Compose(event *events.IdentitySignedUpEvent) (Message, error) {
	link, err := VerifyLink(n.cfg.VerifyURL, event.VerificationToken)
	if err != nil {
		return Message{}, err
	}

	locale := event.Locale
	if locale == "" {
		locale = n.cfg.DefaultLocale
	}

	args := map[string]any{
		"fullName":     event.FullName,
		"email":        event.Email,
		"verifyLink":   link,
		"platformName": n.cfg.PlatformName,
		"platformURL":  n.cfg.PlatformURL,
	}

	body := n.resolve(internal.PhraseVerificationEmailBody, locale, args) +
		"\n\n" + n.resolve(internal.PhraseVerificationEmailFoot, locale, args)

	return Message{
		To:      event.Email,
		Subject: n.resolve(internal.PhraseVerifyYourEmail, locale, nil),
		Body:    body,
	}, nil
}

func (n *VerificationNotifier) resolve(phrase, locale string, args map[string]any) string {
	if n.messages == nil {
		return phrase
	}
	return n.messages.Resolve(phrase, locale, args)
}

// VerifyLink appends the token to base as the token query parameter.
func VerifyLink(base, token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("verification token is empty")
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse verify url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
