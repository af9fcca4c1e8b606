package internal

import (
	"context"
	"time"
)

type ctxKey string

const (
	ContextIdentityKey ctxKey = "identityID"
	ContextLocaleKey   ctxKey = "locale"
)

func IdentityIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(ContextIdentityKey).(string); ok {
		return id
	}
	return ""
}

func ContextWithIdentityID(ctx context.Context, identityID string) context.Context {
	return context.WithValue(ctx, ContextIdentityKey, identityID)
}

// LocaleFromContext returns the negotiated request locale, or fallback when
// none was attached.
func LocaleFromContext(ctx context.Context, fallback string) string {
	if ctx == nil {
		return fallback
	}
	if locale, ok := ctx.Value(ContextLocaleKey).(string); ok && locale != "" {
		return locale
	}
	return fallback
}

func ContextWithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, ContextLocaleKey, locale)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
