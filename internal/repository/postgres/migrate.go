// internal/repository/postgres/migrate.go
package postgres

import (
	"context"
	"fmt"

	"singr-service/internal/domain/constants"
	"singr-service/internal/domain/request"
	"singr-service/internal/domain/venue"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Migrate creates or updates every table, then seeds reference data.
func Migrate(ctx context.Context, gdb *gorm.DB, logger *zap.Logger) error {
	db := gdb.WithContext(ctx)

	models := []struct {
		name  string
		model any
	}{
		{"users", &userModel{}},
		{"roles", &roleModel{}},
		{"permissions", &permissionModel{}},
		{"role_permissions", &rolePermissionModel{}},
		{"user_roles", &userRoleModel{}},
		{"venues", &venue.Venue{}},
		{"requests", &request.Request{}},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m.model); err != nil {
			return fmt.Errorf("migrate %s: %w", m.name, err)
		}
		logger.Debug("table migrated", zap.String("table", m.name))
	}

	if err := Seed(ctx, gdb); err != nil {
		return err
	}
	logger.Info("database migrated",
		zap.Int("roles", len(constants.DefaultRoles)),
		zap.Int("permissions", len(constants.DefaultPermissions)),
	)
	return nil
}

// Seed upserts the system roles, permissions and their default grants.
// Existing grants are never removed.
func Seed(ctx context.Context, gdb *gorm.DB) error {
	return gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range constants.DefaultRoles {
			row := roleModel{ID: uuid.NewString(), Slug: r.Slug, Description: r.Description, IsSystem: true}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "slug"}},
				DoUpdates: clause.AssignmentColumns([]string{"description", "is_system", "updated_at"}),
			}).Create(&row).Error; err != nil {
				return fmt.Errorf("seed role %s: %w", r.Slug, err)
			}
		}

		for _, p := range constants.DefaultPermissions {
			row := permissionModel{ID: uuid.NewString(), Slug: p.Slug, Description: p.Description}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "slug"}},
				DoUpdates: clause.AssignmentColumns([]string{"description"}),
			}).Create(&row).Error; err != nil {
				return fmt.Errorf("seed permission %s: %w", p.Slug, err)
			}
		}

		roleIDs, err := idsBySlug[roleModel](tx)
		if err != nil {
			return err
		}
		permIDs, err := idsBySlug[permissionModel](tx)
		if err != nil {
			return err
		}

		var grants []rolePermissionModel
		for role, perms := range constants.DefaultGrants {
			for _, p := range perms {
				grants = append(grants, rolePermissionModel{RoleID: roleIDs[role], PermissionID: permIDs[p]})
			}
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(grants, 100).Error; err != nil {
			return fmt.Errorf("seed grants: %w", err)
		}
		return nil
	})
}

func idsBySlug[T any](tx *gorm.DB) (map[string]string, error) {
	var rows []struct {
		ID   string
		Slug string
	}
	if err := tx.Model(new(T)).Select("id", "slug").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load slugs: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Slug] = r.ID
	}
	return out, nil
}
