// internal/repository/postgres/models.go
package postgres

import "time"

// Schema models for the identity tables. Reads and writes go through
// AuthRepository; gorm only owns their DDL and seeding.

type userModel struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	Email        string `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string `gorm:"not null"`
	DisplayName  string `gorm:"size:255;not null;default:''"`
	IsActive     bool   `gorm:"not null;default:true"`
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userModel) TableName() string { return "users" }

type roleModel struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	Slug        string `gorm:"size:64;not null;uniqueIndex"`
	Description string `gorm:"size:255;not null;default:''"`
	IsSystem    bool   `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (roleModel) TableName() string { return "roles" }

type permissionModel struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	Slug        string `gorm:"size:64;not null;uniqueIndex"`
	Description string `gorm:"size:255;not null;default:''"`
	CreatedAt   time.Time
}

func (permissionModel) TableName() string { return "permissions" }

type rolePermissionModel struct {
	RoleID       string `gorm:"type:uuid;primaryKey"`
	PermissionID string `gorm:"type:uuid;primaryKey;index"`
}

func (rolePermissionModel) TableName() string { return "role_permissions" }

type userRoleModel struct {
	UserID    string `gorm:"type:uuid;primaryKey"`
	RoleID    string `gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time
}

func (userRoleModel) TableName() string { return "user_roles" }
