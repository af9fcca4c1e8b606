package user

import (
	"context"
	"log/slog"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal"
	userDatamodel "github.com/Kauel-Chile/MERN-Boilerplate/internal/core/datamodel/user"
)

// Repository is the identity store. Lookups return (nil, nil) when no row
// matches; Update returns (nil, nil) when the row to update is gone.
type Repository interface {
	GetByID(ctx context.Context, id string) (*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	Create(ctx context.Context, u *userDatamodel.User) error
	Update(ctx context.Context, u *userDatamodel.User) (*userDatamodel.User, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	if id == "" {
		return nil, internal.ErrIDRequired
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to get user by id", "user_id", id, "error", err)
		return nil, internal.NewInternalError(internal.PhraseInternalServerError, err)
	}
	if row == nil {
		return nil, internal.ErrUserNotFound
	}

	return FromDataModel(row), nil
}
