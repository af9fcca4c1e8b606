package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// BcryptHasher runs bcrypt off the caller's goroutine. A semaphore bounds how
// many hashes run at once and every call is limited by a deadline.
type BcryptHasher struct {
	cost    int
	slots   *semaphore.Weighted
	timeout time.Duration
}

func NewBcryptHasher(cost int, maxConcurrent int64, timeout time.Duration) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = internal.DefaultBCryptCost
	}
	if maxConcurrent <= 0 {
		maxConcurrent = internal.DefaultMaxConcurrent
	}
	if timeout <= 0 {
		timeout = internal.DefaultHashTimeout
	}
	return &BcryptHasher{
		cost:    cost,
		slots:   semaphore.NewWeighted(maxConcurrent),
		timeout: timeout,
	}
}

func (h *BcryptHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	var hash []byte
	err := h.run(ctx, func() error {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash. A mismatch is not an error.
func (h *BcryptHasher) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	var match bool
	err := h.run(ctx, func() error {
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
		switch {
		case err == nil:
			match = true
			return nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return false, fmt.Errorf("verify password: %w", err)
	}
	return match, nil
}

// run holds a slot until fn returns, even when the caller gave up waiting, so
// abandoned hashes still count against the limit.
func (h *BcryptHasher) run(ctx context.Context, fn func() error) error {
	ctx, cancel := internal.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := h.slots.Acquire(ctx, 1); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		defer h.slots.Release(1)
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
