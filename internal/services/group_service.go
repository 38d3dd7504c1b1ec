package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/gatehouse-io/gatehouse/internal/models"
	apperrors "github.com/gatehouse-io/gatehouse/pkg/errors"
)

// ErrGroupNotFound indicates the requested group does not exist.
var ErrGroupNotFound = apperrors.NewNotFound("group not found")

// CreateGroupInput captures new group metadata.
type CreateGroupInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Label       string `json:"label" validate:"max=150"`
	Description string `json:"description" validate:"max=512"`
}

// UpdateGroupInput describes mutable group fields; nil fields are untouched.
type UpdateGroupInput struct {
	Name        *string `json:"name"`
	Label       *string `json:"label"`
	Description *string `json:"description"`
}

// GroupService handles group lifecycle and user/role membership.
type GroupService struct {
	db *gorm.DB
}

// NewGroupService constructs a GroupService instance.
func NewGroupService(db *gorm.DB) (*GroupService, error) {
	if db == nil {
		return nil, errors.New("group service: db is required")
	}
	return &GroupService{db: db}, nil
}

// Create registers a new group.
func (s *GroupService) Create(ctx context.Context, input CreateGroupInput) (*models.Group, error) {
	ctx = ensureContext(ctx)

	input.Name = trimmed(input.Name)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:        input.Name,
		Label:       trimmed(input.Label),
		Description: trimmed(input.Description),
	}
	if err := s.db.WithContext(ctx).Create(group).Error; err != nil {
		return nil, translateWriteError(err, "group name already exists")
	}
	return group, nil
}

// Update modifies group metadata.
func (s *GroupService) Update(ctx context.Context, id uint, input UpdateGroupInput) (*models.Group, error) {
	ctx = ensureContext(ctx)

	group, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name, err := requiredName(*input.Name, "group name", 100)
		if err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if input.Label != nil {
		label := trimmed(*input.Label)
		if len(label) > 150 {
			return nil, apperrors.NewValidation("group label exceeds 150 characters")
		}
		updates["label"] = label
	}
	if input.Description != nil {
		description := trimmed(*input.Description)
		if len(description) > 512 {
			return nil, apperrors.NewValidation("group description exceeds 512 characters")
		}
		updates["description"] = description
	}

	if len(updates) == 0 {
		return group, nil
	}

	if err := s.db.WithContext(ctx).Model(group).Updates(updates).Error; err != nil {
		return nil, translateWriteError(err, "group name already exists")
	}

	if err := s.db.WithContext(ctx).First(group, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("group service: reload group: %w", err)
	}
	return group, nil
}

// Get loads a group by id.
func (s *GroupService) Get(ctx context.Context, id uint) (*models.Group, error) {
	ctx = ensureContext(ctx)

	var group models.Group
	if err := s.db.WithContext(ctx).First(&group, "id = ?", id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("group service: load group: %w", err)
	}
	return &group, nil
}

// GetByName loads a group by its unique name.
func (s *GroupService) GetByName(ctx context.Context, name string) (*models.Group, error) {
	ctx = ensureContext(ctx)

	var group models.Group
	if err := s.db.WithContext(ctx).First(&group, "name = ?", trimmed(name)).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("group service: load group: %w", err)
	}
	return &group, nil
}

// List returns all groups ordered by name.
func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	ctx = ensureContext(ctx)

	var groups []models.Group
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("group service: list groups: %w", err)
	}
	return groups, nil
}

// Delete removes a group and both of its association tables transactionally.
func (s *GroupService) Delete(ctx context.Context, id uint) error {
	ctx = ensureContext(ctx)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var group models.Group
		if err := tx.First(&group, "id = ?", id).Error; err != nil {
			if isRecordNotFound(err) {
				return ErrGroupNotFound
			}
			return fmt.Errorf("group service: load group: %w", err)
		}

		if err := tx.Where("group_id = ?", id).Delete(&models.UserGroup{}).Error; err != nil {
			return fmt.Errorf("group service: cascade users: %w", err)
		}
		if err := tx.Where("group_id = ?", id).Delete(&models.GroupRole{}).Error; err != nil {
			return fmt.Errorf("group service: cascade roles: %w", err)
		}

		if err := tx.Delete(&group).Error; err != nil {
			return fmt.Errorf("group service: delete group: %w", err)
		}
		return nil
	})
}

// AddUser adds a member; an existing membership is a no-op.
func (s *GroupService) AddUser(ctx context.Context, groupID, userID uint) error {
	ctx = ensureContext(ctx)

	if _, err := s.Get(ctx, groupID); err != nil {
		return err
	}
	var userCount int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&userCount).Error; err != nil {
		return fmt.Errorf("group service: check user: %w", err)
	}
	if userCount == 0 {
		return ErrUserNotFound
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.UserGroup{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&existing).Error; err != nil {
		return fmt.Errorf("group service: check membership: %w", err)
	}
	if existing > 0 {
		return nil
	}

	link := models.UserGroup{GroupID: groupID, UserID: userID}
	if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
		if errors.Is(translateWriteError(err, ""), apperrors.ErrConflict) {
			return nil
		}
		return translateWriteError(err, "user already in group")
	}
	return nil
}

// RemoveUser drops a membership; an absent membership is a no-op.
func (s *GroupService) RemoveUser(ctx context.Context, groupID, userID uint) error {
	ctx = ensureContext(ctx)

	if _, err := s.Get(ctx, groupID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.UserGroup{}).Error
	if err != nil {
		return fmt.Errorf("group service: remove user: %w", err)
	}
	return nil
}

// AddRole grants a role to every member; an existing grant is a no-op.
func (s *GroupService) AddRole(ctx context.Context, groupID, roleID uint) error {
	ctx = ensureContext(ctx)

	if _, err := s.Get(ctx, groupID); err != nil {
		return err
	}
	var roleCount int64
	if err := s.db.WithContext(ctx).Model(&models.Role{}).Where("id = ?", roleID).Count(&roleCount).Error; err != nil {
		return fmt.Errorf("group service: check role: %w", err)
	}
	if roleCount == 0 {
		return ErrRoleNotFound
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.GroupRole{}).
		Where("group_id = ? AND role_id = ?", groupID, roleID).
		Count(&existing).Error; err != nil {
		return fmt.Errorf("group service: check grant: %w", err)
	}
	if existing > 0 {
		return nil
	}

	link := models.GroupRole{GroupID: groupID, RoleID: roleID}
	if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
		if errors.Is(translateWriteError(err, ""), apperrors.ErrConflict) {
			return nil
		}
		return translateWriteError(err, "role already granted to group")
	}
	return nil
}

// RemoveRole drops a group role grant; an absent grant is a no-op.
func (s *GroupService) RemoveRole(ctx context.Context, groupID, roleID uint) error {
	ctx = ensureContext(ctx)

	if _, err := s.Get(ctx, groupID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).
		Where("group_id = ? AND role_id = ?", groupID, roleID).
		Delete(&models.GroupRole{}).Error
	if err != nil {
		return fmt.Errorf("group service: remove role: %w", err)
	}
	return nil
}
