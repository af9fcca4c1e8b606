package postgres

import (
	"context"
	"errors"

	organizationDatamodel "github.com/Kauel-Chile/MERN-Boilerplate/internal/core/datamodel/organization"
	"github.com/Kauel-Chile/MERN-Boilerplate/internal/organization"
	"gorm.io/gorm"
)

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) organization.RepositoryAPI {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) GetAll(ctx context.Context) ([]*organizationDatamodel.Organization, error) {
	var orgs []*organizationDatamodel.Organization
	err := r.db.WithContext(ctx).Order("name ASC").Find(&orgs).Error
	return orgs, err
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*organizationDatamodel.Organization, error) {
	var org organizationDatamodel.Organization
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

func (r *OrganizationRepository) GetByIDs(ctx context.Context, ids []string) ([]*organizationDatamodel.Organization, error) {
	var orgs []*organizationDatamodel.Organization
	if len(ids) == 0 {
		return orgs, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name ASC").Find(&orgs).Error
	return orgs, err
}

func (r *OrganizationRepository) Create(ctx context.Context, org *organizationDatamodel.Organization) error {
	return translate(r.db.WithContext(ctx).Create(org).Error)
}

func (r *OrganizationRepository) Update(ctx context.Context, org *organizationDatamodel.Organization) error {
	return translate(r.db.WithContext(ctx).
		Model(&organizationDatamodel.Organization{ID: org.ID}).
		Select("name", "description", "updated_at").
		Updates(org).Error)
}

func (r *OrganizationRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&organizationDatamodel.Organization{}).Error
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return organization.ErrNameTaken
	}
	return err
}
