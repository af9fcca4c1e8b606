package user

import "time"

type User struct {
	ID              string     `gorm:"column:id;primaryKey;type:varchar(36)"`
	Email           string     `gorm:"column:email;uniqueIndex;not null"`
	FullName        string     `gorm:"column:full_name;not null"`
	PasswordHash    string     `gorm:"column:password_hash;not null"`
	EmailVerifiedAt *time.Time `gorm:"column:email_verified_at"`
	RoleIDs         []string   `gorm:"column:role_ids;serializer:json;type:jsonb;not null"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
