package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/gatehouse-io/gatehouse/internal/models"
	apperrors "github.com/gatehouse-io/gatehouse/pkg/errors"
)

// ErrRoleNotFound indicates the requested role does not exist.
var ErrRoleNotFound = apperrors.NewNotFound("role not found")

// RoleService manages roles and their grantable-unit sets.
type RoleService struct {
	db *gorm.DB
}

// NewRoleService constructs a RoleService using the provided database handle.
func NewRoleService(db *gorm.DB) (*RoleService, error) {
	if db == nil {
		return nil, errors.New("role service: db is required")
	}
	return &RoleService{db: db}, nil
}

type roleNameInput struct {
	Name string `json:"name" validate:"required,max=64"`
}

// Create registers a new role.
func (s *RoleService) Create(ctx context.Context, name string) (*models.Role, error) {
	ctx = ensureContext(ctx)

	name = trimmed(name)
	if err := validateInput(roleNameInput{Name: name}); err != nil {
		return nil, err
	}

	role := &models.Role{Name: name}
	if err := s.db.WithContext(ctx).Create(role).Error; err != nil {
		return nil, translateWriteError(err, "role name already exists")
	}
	return role, nil
}

// Rename changes a role's name, surfacing Conflict on duplicates.
func (s *RoleService) Rename(ctx context.Context, id uint, newName string) (*models.Role, error) {
	ctx = ensureContext(ctx)

	newName = trimmed(newName)
	if err := validateInput(roleNameInput{Name: newName}); err != nil {
		return nil, err
	}

	role, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if role.Name == newName {
		return role, nil
	}

	if err := s.db.WithContext(ctx).Model(role).Update("name", newName).Error; err != nil {
		return nil, translateWriteError(err, "role name already exists")
	}
	role.Name = newName
	return role, nil
}

// Get loads a role by id.
func (s *RoleService) Get(ctx context.Context, id uint) (*models.Role, error) {
	ctx = ensureContext(ctx)

	var role models.Role
	if err := s.db.WithContext(ctx).First(&role, "id = ?", id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("role service: load role: %w", err)
	}
	return &role, nil
}

// GetByName loads a role by its unique name.
func (s *RoleService) GetByName(ctx context.Context, name string) (*models.Role, error) {
	ctx = ensureContext(ctx)

	var role models.Role
	if err := s.db.WithContext(ctx).First(&role, "name = ?", trimmed(name)).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("role service: load role: %w", err)
	}
	return &role, nil
}

// List returns all roles ordered by name.
func (s *RoleService) List(ctx context.Context) ([]models.Role, error) {
	ctx = ensureContext(ctx)

	var roles []models.Role
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("role service: list roles: %w", err)
	}
	return roles, nil
}

// Delete removes a role and all association rows referencing it in one
// transaction, so no reader ever observes a dangling grant or membership.
func (s *RoleService) Delete(ctx context.Context, id uint) error {
	ctx = ensureContext(ctx)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.First(&role, "id = ?", id).Error; err != nil {
			if isRecordNotFound(err) {
				return ErrRoleNotFound
			}
			return fmt.Errorf("role service: load role: %w", err)
		}

		for _, assoc := range []any{
			&models.PermissionViewRole{},
			&models.UserRole{},
			&models.GroupRole{},
		} {
			if err := tx.Where("role_id = ?", id).Delete(assoc).Error; err != nil {
				return fmt.Errorf("role service: cascade associations: %w", err)
			}
		}

		if err := tx.Delete(&role).Error; err != nil {
			return fmt.Errorf("role service: delete role: %w", err)
		}
		return nil
	})
}

// Grant adds a grantable unit to the role. Granting an already-held unit is
// a no-op, including when a concurrent grant wins the race.
func (s *RoleService) Grant(ctx context.Context, roleID, permissionViewID uint) error {
	ctx = ensureContext(ctx)

	if _, err := s.Get(ctx, roleID); err != nil {
		return err
	}
	var pvCount int64
	if err := s.db.WithContext(ctx).Model(&models.PermissionView{}).Where("id = ?", permissionViewID).Count(&pvCount).Error; err != nil {
		return fmt.Errorf("role service: check permission view: %w", err)
	}
	if pvCount == 0 {
		return apperrors.NewNotFound("permission view not found")
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.PermissionViewRole{}).
		Where("role_id = ? AND permission_view_id = ?", roleID, permissionViewID).
		Count(&existing).Error; err != nil {
		return fmt.Errorf("role service: check grant: %w", err)
	}
	if existing > 0 {
		return nil
	}

	link := models.PermissionViewRole{RoleID: roleID, PermissionViewID: permissionViewID}
	if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
		if errors.Is(translateWriteError(err, ""), apperrors.ErrConflict) {
			return nil
		}
		return translateWriteError(err, "grant already exists")
	}
	return nil
}

// Revoke removes a grantable unit from the role; absent grants are a no-op.
func (s *RoleService) Revoke(ctx context.Context, roleID, permissionViewID uint) error {
	ctx = ensureContext(ctx)

	if _, err := s.Get(ctx, roleID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).
		Where("role_id = ? AND permission_view_id = ?", roleID, permissionViewID).
		Delete(&models.PermissionViewRole{}).Error
	if err != nil {
		return fmt.Errorf("role service: revoke: %w", err)
	}
	return nil
}

// PermissionViews returns the role's current grant set with endpoints loaded.
func (s *RoleService) PermissionViews(ctx context.Context, roleID uint) ([]models.PermissionView, error) {
	ctx = ensureContext(ctx)

	var role models.Role
	err := s.db.WithContext(ctx).
		Preload("PermissionViews.Permission").
		Preload("PermissionViews.ViewMenu").
		First(&role, "id = ?", roleID).Error
	if err != nil {
		if isRecordNotFound(err) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("role service: load role: %w", err)
	}
	return role.PermissionViews, nil
}
