// Package organization is the organization CRUD collaborator. Every
// organization owns an OrgAdmin and a user role scoped to it.
package organization

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/core/common/validation"
	organizationDatamodel "github.com/Kauel-Chile/MERN-Boilerplate/internal/core/datamodel/organization"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/rbac"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/user"
)

// ErrNameTaken is returned by Repository.Create and Update when another
// organization already uses the name.
var ErrNameTaken = errors.New("organization name already taken")

// RepositoryAPI lookups return (nil, nil) when no row matches.
type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*organizationDatamodel.Organization, error)
	GetByID(ctx context.Context, id string) (*organizationDatamodel.Organization, error)
	GetByIDs(ctx context.Context, ids []string) ([]*organizationDatamodel.Organization, error)
	Create(ctx context.Context, o *organizationDatamodel.Organization) error
	Update(ctx context.Context, o *organizationDatamodel.Organization) error
	Delete(ctx context.Context, id string) error
}

type AccessControl interface {
	CanInOrganizations(ctx context.Context, u *user.User, req rbac.Request, organizationIDs []string) (map[string]rbac.Decision, error)
	OrganizationIDsFor(ctx context.Context, u *user.User) ([]string, error)
	ProvisionOrganization(ctx context.Context, organizationID string, creator *user.User) error
	RemoveOrganization(ctx context.Context, organizationID string) error
}

type Service struct {
	repo   RepositoryAPI
	access AccessControl
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, access AccessControl, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		access: access,
		logger: logger,
	}
}

// Create stores a new organization and provisions its roles, making creator
// its OrgAdmin.
func (s *Service) Create(ctx context.Context, creator *user.User, dto OrganizationDTO) (*Organization, error) {
	dto.Normalize()
	if verr := validation.Struct(dto); verr != nil {
		return nil, verr
	}

	org := NewOrganization(dto.Name, dto.Description)
	if err := s.repo.Create(ctx, ToDataModel(org)); err != nil {
		if errors.Is(err, ErrNameTaken) {
			return nil, internal.ErrOrganizationExists.WithArgs(map[string]any{"name": dto.Name})
		}
		s.logger.ErrorContext(ctx, "failed to create organization", "error", err, "name", dto.Name)
		return nil, internal.NewInternalError(internal.PhraseInternalServerError, err)
	}

	if err := s.access.ProvisionOrganization(ctx, org.ID, creator); err != nil {
		s.logger.ErrorContext(ctx, "failed to provision organization roles", "error", err, "organization_id", org.ID)
		s.rollback(ctx, org.ID)
		return nil, internal.NewInternalError(internal.PhraseInternalServerError, err)
	}

	s.logger.InfoContext(ctx, "organization created", "organization_id", org.ID, "name", org.Name)
	return org, nil
}

// rollback undoes a partially provisioned organization: its row and any role
// already created for it.
func (s *Service) rollback(ctx context.Context, id string) {
	if err := s.access.RemoveOrganization(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to roll back organization roles", "error", err, "organization_id", id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to roll back organization", "error", err, "organization_id", id)
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (*Organization, error) {
	if id == "" {
		return nil, internal.ErrIDRequired
	}
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError(internal.PhraseInternalServerError, err)
	}
	if row == nil {
		return nil, internal.ErrOrganizationNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, id string, dto OrganizationDTO) (*Organization, error) {
	dto.Normalize()
	if verr := validation.Struct(dto); verr != nil {
		return nil, verr
	}

	org, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	org.Rename(dto.Name, dto.Description)
	if err := s.repo.Update(ctx, ToDataModel(org)); err != nil {
		if errors.Is(err, ErrNameTaken) {
			return nil, internal.ErrOrganizationExists.WithArgs(map[string]any{"name": dto.Name})
		}
		return nil, internal.NewInternalError(internal.PhraseInternalServerError, err)
	}

	s.logger.InfoContext(ctx, "organization updated", "organization_id", org.ID)
	return org, nil
}

// List returns the organizations u may read. Each organization is checked in
// its own context so scoped roles only reveal their organization.
func (s *Service) List(ctx context.Context, u *user.User) ([]*Organization, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, internal.NewInternalError(internal.PhraseInternalServerError, err)
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	decisions, err := s.access.CanInOrganizations(ctx, u, rbac.Request{
		Resource: rbac.ResourceOrganization,
		Action:   rbac.ActionRead,
	}, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*Organization, 0, len(rows))
	for _, row := range rows {
		if d := decisions[row.ID]; d.Granted && d.Scope.Allows(row.ID) {
			out = append(out, FromDataModel(row))
		}
	}
	return out, nil
}

// ListMine returns the organizations referenced by u's roles.
func (s *Service) ListMine(ctx context.Context, u *user.User) ([]*Organization, error) {
	ids, err := s.access.OrganizationIDsFor(ctx, u)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*Organization{}, nil
	}

	rows, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, internal.NewInternalError(internal.PhraseInternalServerError, err)
	}

	out := make([]*Organization, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

// Delete removes the organization and the roles scoped to it.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return internal.NewInternalError(internal.PhraseInternalServerError, err)
	}
	if err := s.access.RemoveOrganization(ctx, id); err != nil {
		return internal.NewInternalError(internal.PhraseInternalServerError, err)
	}

	s.logger.InfoContext(ctx, "organization deleted", "organization_id", id)
	return nil
}
