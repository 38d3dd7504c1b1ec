package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/gatehouse-io/gatehouse/internal/models"
)

// Default roles guaranteed to exist after seeding. Admin is intended for the
// administrative UI; Public is the role unauthenticated flows resolve against.
const (
	AdminRoleName  = "Admin"
	PublicRoleName = "Public"
)

// AutoMigrate creates or updates the ab_* schema. Join tables are registered
// first so the association rows carry their own id column and pair-unique
// index instead of gorm's composite-key default.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	joinTables := []struct {
		model any
		field string
		join  any
	}{
		{&models.Role{}, "PermissionViews", &models.PermissionViewRole{}},
		{&models.User{}, "Roles", &models.UserRole{}},
		{&models.User{}, "Groups", &models.UserGroup{}},
		{&models.Group{}, "Users", &models.UserGroup{}},
		{&models.Group{}, "Roles", &models.GroupRole{}},
	}
	for _, jt := range joinTables {
		if err := db.SetupJoinTable(jt.model, jt.field, jt.join); err != nil {
			return fmt.Errorf("setup join table %T.%s: %w", jt.model, jt.field, err)
		}
	}

	return db.AutoMigrate(
		&models.Permission{},
		&models.ViewMenu{},
		&models.PermissionView{},
		&models.Role{},
		&models.User{},
		&models.Group{},
		&models.RegisterUser{},
	)
}

// SeedData ensures the default roles exist. Seeding is idempotent and never
// modifies roles an administrator has already customised.
func SeedData(db *gorm.DB) error {
	for _, name := range []string{AdminRoleName, PublicRoleName} {
		role := models.Role{Name: name}
		if err := db.Where(models.Role{Name: name}).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	return nil
}
