package permissions

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/gatehouse-io/gatehouse/internal/database"
	"github.com/gatehouse-io/gatehouse/internal/models"
	"github.com/gatehouse-io/gatehouse/pkg/metrics"
)

// Sync reconciles the registered declarations against the store: permissions,
// view menus, and their pairings are created when missing and left untouched
// otherwise. Sync never deletes; retiring a pair that is still granted to a
// role is an administrative decision, not a reconciliation side effect.
func Sync(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("permission sync: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tx := db.WithContext(ctx)
	for _, decl := range Declarations() {
		view, created, err := ensureViewMenu(tx, decl.ViewMenu)
		if err != nil {
			return fmt.Errorf("permission sync: view menu %q: %w", decl.ViewMenu, err)
		}
		if created {
			metrics.RegistrySynced.WithLabelValues("view_menu").Inc()
		}

		for _, name := range decl.Permissions {
			perm, created, err := ensurePermission(tx, name)
			if err != nil {
				return fmt.Errorf("permission sync: permission %q: %w", name, err)
			}
			if created {
				metrics.RegistrySynced.WithLabelValues("permission").Inc()
			}

			_, created, err = ensureLink(tx, perm.ID, view.ID)
			if err != nil {
				return fmt.Errorf("permission sync: link %q on %q: %w", name, decl.ViewMenu, err)
			}
			if created {
				metrics.RegistrySynced.WithLabelValues("permission_view").Inc()
			}
		}
	}

	return nil
}

// ensurePermission is the race-safe find-or-create: a concurrent loser
// observes the unique violation and re-fetches the winner's row.
func ensurePermission(tx *gorm.DB, name string) (*models.Permission, bool, error) {
	var perm models.Permission
	err := tx.Where("name = ?", name).First(&perm).Error
	if err == nil {
		return &perm, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	perm = models.Permission{Name: name}
	if err := tx.Create(&perm).Error; err != nil {
		if database.IsUniqueConstraintError(err) {
			var existing models.Permission
			if err := tx.Where("name = ?", name).First(&existing).Error; err != nil {
				return nil, false, err
			}
			return &existing, false, nil
		}
		return nil, false, err
	}
	return &perm, true, nil
}

func ensureViewMenu(tx *gorm.DB, name string) (*models.ViewMenu, bool, error) {
	var view models.ViewMenu
	err := tx.Where("name = ?", name).First(&view).Error
	if err == nil {
		return &view, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	view = models.ViewMenu{Name: name}
	if err := tx.Create(&view).Error; err != nil {
		if database.IsUniqueConstraintError(err) {
			var existing models.ViewMenu
			if err := tx.Where("name = ?", name).First(&existing).Error; err != nil {
				return nil, false, err
			}
			return &existing, false, nil
		}
		return nil, false, err
	}
	return &view, true, nil
}

func ensureLink(tx *gorm.DB, permissionID, viewMenuID uint) (*models.PermissionView, bool, error) {
	var pv models.PermissionView
	err := tx.Where("permission_id = ? AND view_menu_id = ?", permissionID, viewMenuID).First(&pv).Error
	if err == nil {
		return &pv, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	pv = models.PermissionView{PermissionID: permissionID, ViewMenuID: viewMenuID}
	if err := tx.Create(&pv).Error; err != nil {
		if database.IsUniqueConstraintError(err) {
			var existing models.PermissionView
			if err := tx.Where("permission_id = ? AND view_menu_id = ?", permissionID, viewMenuID).First(&existing).Error; err != nil {
				return nil, false, err
			}
			return &existing, false, nil
		}
		return nil, false, err
	}
	return &pv, true, nil
}
