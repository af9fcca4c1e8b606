package role

import "time"

// Role rows use an empty organization_id for global roles so that
// (name, organization_id) stays unique across both kinds.
type Role struct {
	ID             string                         `gorm:"column:id;primaryKey;type:varchar(36)"`
	Name           string                         `gorm:"column:name;not null;uniqueIndex:idx_roles_name_org"`
	OrganizationID string                         `gorm:"column:organization_id;not null;default:'';uniqueIndex:idx_roles_name_org"`
	Resources      map[string]map[string][]string `gorm:"column:resources;serializer:json;type:jsonb;not null"`
	CreatedAt      time.Time                      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Role) TableName() string {
	return "roles"
}
