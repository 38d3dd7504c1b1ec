package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/gatehouse-io/gatehouse/internal/models"
	apperrors "github.com/gatehouse-io/gatehouse/pkg/errors"
)

// PermissionService manages the permission/view-menu registry and the
// grantable units pairing them. Creation is driven by the administrative
// sync process; renames come from the admin layer.
type PermissionService struct {
	db *gorm.DB
}

// NewPermissionService constructs a PermissionService using the provided database handle.
func NewPermissionService(db *gorm.DB) (*PermissionService, error) {
	if db == nil {
		return nil, errors.New("permission service: db is required")
	}
	return &PermissionService{db: db}, nil
}

type nameInput struct {
	Name string `json:"name" validate:"required"`
}

// FindOrCreatePermission returns the permission with the given name,
// inserting it when absent. Concurrent callers racing on the same name are
// arbitrated by the unique constraint: the loser re-fetches the winner's row.
func (s *PermissionService) FindOrCreatePermission(ctx context.Context, name string) (*models.Permission, error) {
	ctx = ensureContext(ctx)

	name = trimmed(name)
	if err := validateInput(nameInput{Name: name}); err != nil {
		return nil, err
	}
	if len(name) > 100 {
		return nil, apperrors.NewValidation("permission name exceeds 100 characters")
	}

	var perm models.Permission
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&perm).Error
	if err == nil {
		return &perm, nil
	}
	if !isRecordNotFound(err) {
		return nil, fmt.Errorf("permission service: find permission: %w", err)
	}

	perm = models.Permission{Name: name}
	if err := s.db.WithContext(ctx).Create(&perm).Error; err != nil {
		if refetched, ok := s.refetchPermission(ctx, name, err); ok {
			return refetched, nil
		}
		return nil, fmt.Errorf("permission service: create permission: %w", err)
	}
	return &perm, nil
}

// FindOrCreateViewMenu returns the view menu with the given name, inserting
// it when absent, with the same race behaviour as FindOrCreatePermission.
func (s *PermissionService) FindOrCreateViewMenu(ctx context.Context, name string) (*models.ViewMenu, error) {
	ctx = ensureContext(ctx)

	name = trimmed(name)
	if err := validateInput(nameInput{Name: name}); err != nil {
		return nil, err
	}
	if len(name) > 250 {
		return nil, apperrors.NewValidation("view menu name exceeds 250 characters")
	}

	var view models.ViewMenu
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&view).Error
	if err == nil {
		return &view, nil
	}
	if !isRecordNotFound(err) {
		return nil, fmt.Errorf("permission service: find view menu: %w", err)
	}

	view = models.ViewMenu{Name: name}
	if err := s.db.WithContext(ctx).Create(&view).Error; err != nil {
		if refetched, ok := s.refetchViewMenu(ctx, name, err); ok {
			return refetched, nil
		}
		return nil, fmt.Errorf("permission service: create view menu: %w", err)
	}
	return &view, nil
}

// RenamePermission changes a permission's name. Conflict when the target
// name already belongs to a different row.
func (s *PermissionService) RenamePermission(ctx context.Context, id uint, newName string) (*models.Permission, error) {
	ctx = ensureContext(ctx)

	newName = trimmed(newName)
	if err := validateInput(nameInput{Name: newName}); err != nil {
		return nil, err
	}
	if len(newName) > 100 {
		return nil, apperrors.NewValidation("permission name exceeds 100 characters")
	}

	var perm models.Permission
	if err := s.db.WithContext(ctx).First(&perm, "id = ?", id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, apperrors.NewNotFound("permission not found")
		}
		return nil, fmt.Errorf("permission service: load permission: %w", err)
	}

	if perm.Name == newName {
		return &perm, nil
	}

	if err := s.db.WithContext(ctx).Model(&perm).Update("name", newName).Error; err != nil {
		return nil, translateWriteError(err, "permission name already exists")
	}
	perm.Name = newName
	return &perm, nil
}

// RenameViewMenu changes a view menu's name. Existing permission-view rows
// keep their identity and associations; only new display strings change.
func (s *PermissionService) RenameViewMenu(ctx context.Context, id uint, newName string) (*models.ViewMenu, error) {
	ctx = ensureContext(ctx)

	newName = trimmed(newName)
	if err := validateInput(nameInput{Name: newName}); err != nil {
		return nil, err
	}
	if len(newName) > 250 {
		return nil, apperrors.NewValidation("view menu name exceeds 250 characters")
	}

	var view models.ViewMenu
	if err := s.db.WithContext(ctx).First(&view, "id = ?", id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, apperrors.NewNotFound("view menu not found")
		}
		return nil, fmt.Errorf("permission service: load view menu: %w", err)
	}

	if view.Name == newName {
		return &view, nil
	}

	if err := s.db.WithContext(ctx).Model(&view).Update("name", newName).Error; err != nil {
		return nil, translateWriteError(err, "view menu name already exists")
	}
	view.Name = newName
	return &view, nil
}

// LinkPermissionView pairs a permission with a view menu, returning the
// existing row when the pair is already linked. IntegrityViolation when
// either endpoint does not exist.
func (s *PermissionService) LinkPermissionView(ctx context.Context, permissionID, viewMenuID uint) (*models.PermissionView, error) {
	ctx = ensureContext(ctx)

	var pv models.PermissionView
	err := s.db.WithContext(ctx).
		Where("permission_id = ? AND view_menu_id = ?", permissionID, viewMenuID).
		Preload("Permission").Preload("ViewMenu").
		First(&pv).Error
	if err == nil {
		return &pv, nil
	}
	if !isRecordNotFound(err) {
		return nil, fmt.Errorf("permission service: find permission view: %w", err)
	}

	var endpoints int64
	if err := s.db.WithContext(ctx).Model(&models.Permission{}).Where("id = ?", permissionID).Count(&endpoints).Error; err != nil {
		return nil, fmt.Errorf("permission service: check permission: %w", err)
	}
	if endpoints == 0 {
		return nil, apperrors.ErrIntegrityViolation.WithInternal(fmt.Errorf("permission %d does not exist", permissionID))
	}
	if err := s.db.WithContext(ctx).Model(&models.ViewMenu{}).Where("id = ?", viewMenuID).Count(&endpoints).Error; err != nil {
		return nil, fmt.Errorf("permission service: check view menu: %w", err)
	}
	if endpoints == 0 {
		return nil, apperrors.ErrIntegrityViolation.WithInternal(fmt.Errorf("view menu %d does not exist", viewMenuID))
	}

	pv = models.PermissionView{PermissionID: permissionID, ViewMenuID: viewMenuID}
	if err := s.db.WithContext(ctx).Create(&pv).Error; err != nil {
		translated := translateWriteError(err, "permission view pair already exists")
		if errors.Is(translated, apperrors.ErrConflict) {
			// Lost the race: the pair now exists, return it.
			var existing models.PermissionView
			if err := s.db.WithContext(ctx).
				Where("permission_id = ? AND view_menu_id = ?", permissionID, viewMenuID).
				Preload("Permission").Preload("ViewMenu").
				First(&existing).Error; err == nil {
				return &existing, nil
			}
		}
		return nil, translated
	}

	if err := s.db.WithContext(ctx).Preload("Permission").Preload("ViewMenu").First(&pv, "id = ?", pv.ID).Error; err != nil {
		return nil, fmt.Errorf("permission service: reload permission view: %w", err)
	}
	return &pv, nil
}

// UnlinkPermissionView removes a grantable unit, cascading its role
// associations in the same transaction so no dangling grant survives.
func (s *PermissionService) UnlinkPermissionView(ctx context.Context, id uint) error {
	ctx = ensureContext(ctx)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pv models.PermissionView
		if err := tx.First(&pv, "id = ?", id).Error; err != nil {
			if isRecordNotFound(err) {
				return apperrors.NewNotFound("permission view not found")
			}
			return fmt.Errorf("permission service: load permission view: %w", err)
		}

		if err := tx.Where("permission_view_id = ?", id).Delete(&models.PermissionViewRole{}).Error; err != nil {
			return fmt.Errorf("permission service: cascade role links: %w", err)
		}
		if err := tx.Delete(&pv).Error; err != nil {
			return fmt.Errorf("permission service: delete permission view: %w", err)
		}
		return nil
	})
}

func (s *PermissionService) refetchPermission(ctx context.Context, name string, cause error) (*models.Permission, bool) {
	if !errors.Is(translateWriteError(cause, ""), apperrors.ErrConflict) {
		return nil, false
	}
	var perm models.Permission
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&perm).Error; err != nil {
		return nil, false
	}
	return &perm, true
}

func (s *PermissionService) refetchViewMenu(ctx context.Context, name string, cause error) (*models.ViewMenu, bool) {
	if !errors.Is(translateWriteError(cause, ""), apperrors.ErrConflict) {
		return nil, false
	}
	var view models.ViewMenu
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&view).Error; err != nil {
		return nil, false
	}
	return &view, true
}
