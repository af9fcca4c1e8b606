package organization

import "time"

type Organization struct {
	ID          string    `gorm:"column:id;primaryKey;type:varchar(36)"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Organization) TableName() string {
	return "organizations"
}
