package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeIdentitySignedUp = "identity.signed_up"
)

// IdentitySignedUpEvent carries what the verification notifier needs to reach
// a freshly registered identity.
type IdentitySignedUpEvent struct {
	BaseEvent
	IdentityID        string `json:"identity_id"`
	Email             string `json:"email"`
	FullName          string `json:"full_name"`
	Locale            string `json:"locale"`
	VerificationToken string `json:"-"`
}

func NewIdentitySignedUpEvent(identityID, email, fullName, locale, verificationToken string) *IdentitySignedUpEvent {
	return &IdentitySignedUpEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeIdentitySignedUp,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"identity_id": identityID,
				"email":       email,
				"full_name":   fullName,
				"locale":      locale,
			},
		},
		IdentityID:        identityID,
		Email:             email,
		FullName:          fullName,
		Locale:            locale,
		VerificationToken: verificationToken,
	}
}
