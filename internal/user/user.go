package user

import (
	"context"
	"errors"
	"slices"
	"time"

	userDatamodel "github.com/Kauel-Chile/MERN-Boilerplate/internal/core/datamodel/user"
	"github.com/google/uuid"
)

// ErrEmailTaken is returned by Repository.Create when the email is already
// registered.
var ErrEmailTaken = errors.New("email already registered")

// User is an identity: an authenticated principal and the roles it holds.
type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	FullName        string     `json:"fullName"`
	PasswordHash    string     `json:"-"`
	EmailVerifiedAt *time.Time `json:"emailVerifiedAt,omitempty"`
	RoleIDs         []string   `json:"roles"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func NewUser(email, fullName, passwordHash string) *User {
	now := time.Now()
	return &User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: passwordHash,
		RoleIDs:      []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (u *User) IsVerified() bool {
	return u.EmailVerifiedAt != nil
}

func (u *User) MarkVerified(at time.Time) {
	at = at.UTC()
	u.EmailVerifiedAt = &at
	u.UpdatedAt = at
}

func (u *User) HasRole(roleID string) bool {
	return slices.Contains(u.RoleIDs, roleID)
}

// AddRole appends roleID keeping the set ordered by assignment. It reports
// whether the set changed.
func (u *User) AddRole(roleID string) bool {
	if u.HasRole(roleID) {
		return false
	}
	u.RoleIDs = append(u.RoleIDs, roleID)
	return true
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		FullName:        u.FullName,
		EmailVerifiedAt: u.EmailVerifiedAt,
		Roles:           slices.Clone(u.RoleIDs),
		CreatedAt:       u.CreatedAt,
	}
}

type UserResponse struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	FullName        string     `json:"fullName"`
	EmailVerifiedAt *time.Time `json:"emailVerifiedAt,omitempty"`
	Roles           []string   `json:"roles"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func ToDataModel(u *User) *userDatamodel.User {
	roleIDs := u.RoleIDs
	if roleIDs == nil {
		roleIDs = []string{}
	}
	return &userDatamodel.User{
		ID:              u.ID,
		Email:           u.Email,
		FullName:        u.FullName,
		PasswordHash:    u.PasswordHash,
		EmailVerifiedAt: u.EmailVerifiedAt,
		RoleIDs:         roleIDs,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	if u == nil {
		return nil
	}
	roleIDs := u.RoleIDs
	if roleIDs == nil {
		roleIDs = []string{}
	}
	return &User{
		ID:              u.ID,
		Email:           u.Email,
		FullName:        u.FullName,
		PasswordHash:    u.PasswordHash,
		EmailVerifiedAt: u.EmailVerifiedAt,
		RoleIDs:         roleIDs,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

type ctxKey struct{}

// WithUser stores the authenticated identity in ctx.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func FromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*User)
	return u, ok && u != nil
}
