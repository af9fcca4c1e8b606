package postgres

import (
	"context"
	"errors"

	userDatamodel "github.com/Kauel-Chile/MERN-Boilerplate/internal/core/datamodel/user"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*userDatamodel.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) first(ctx context.Context, query string, args ...any) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts u. With gorm's TranslateError enabled a unique violation is
// reported as user.ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return user.ErrEmailTaken
	}
	return err
}

func (r *UserRepository) Update(ctx context.Context, u *userDatamodel.User) (*userDatamodel.User, error) {
	res := r.db.WithContext(ctx).
		Model(&userDatamodel.User{ID: u.ID}).
		Select("email", "full_name", "password_hash", "email_verified_at", "role_ids", "updated_at").
		Updates(u)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, u.ID)
}
