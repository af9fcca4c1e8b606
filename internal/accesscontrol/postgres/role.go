package postgres

import (
	"context"
	"errors"

	"github.com/Kauel-Chile/MERN-Boilerplate/internal/accesscontrol"
	roleDatamodel "github.com/Kauel-Chile/MERN-Boilerplate/internal/core/datamodel/role"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) accesscontrol.RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) GetByID(ctx context.Context, id string) (*roleDatamodel.Role, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *RoleRepository) GetByName(ctx context.Context, name, organizationID string) (*roleDatamodel.Role, error) {
	return r.first(ctx, "name = ? AND organization_id = ?", name, organizationID)
}

func (r *RoleRepository) first(ctx context.Context, query string, args ...any) (*roleDatamodel.Role, error) {
	var role roleDatamodel.Role
	err := r.db.WithContext(ctx).Where(query, args...).First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepository) GetByIDs(ctx context.Context, ids []string) ([]*roleDatamodel.Role, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var roles []*roleDatamodel.Role
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&roles).Error
	return roles, err
}

// Ensure relies on the (name, organization_id) unique index: the insert is a
// no-op when a concurrent writer got there first.
func (r *RoleRepository) Ensure(ctx context.Context, role *roleDatamodel.Role) (*roleDatamodel.Role, bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(role)
	if res.Error != nil {
		return nil, false, res.Error
	}

	stored, err := r.GetByName(ctx, role.Name, role.OrganizationID)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, gorm.ErrRecordNotFound
	}
	return stored, res.RowsAffected > 0, nil
}

func (r *RoleRepository) UpdateResources(ctx context.Context, id string, resources map[string]map[string][]string) error {
	return r.db.WithContext(ctx).
		Model(&roleDatamodel.Role{ID: id}).
		Select("resources", "updated_at").
		Updates(&roleDatamodel.Role{Resources: resources}).Error
}

func (r *RoleRepository) List(ctx context.Context) ([]*roleDatamodel.Role, error) {
	var roles []*roleDatamodel.Role
	err := r.db.WithContext(ctx).Order("organization_id ASC, name ASC").Find(&roles).Error
	return roles, err
}

func (r *RoleRepository) DeleteByOrganization(ctx context.Context, organizationID string) error {
	if organizationID == "" {
		return errors.New("refusing to delete global roles")
	}
	return r.db.WithContext(ctx).Where("organization_id = ?", organizationID).Delete(&roleDatamodel.Role{}).Error
}
