package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gatehouse-io/gatehouse/internal/actorctx"
	"github.com/gatehouse-io/gatehouse/internal/models"
	"github.com/gatehouse-io/gatehouse/internal/permissions"
	apperrors "github.com/gatehouse-io/gatehouse/pkg/errors"
)

// ErrUserNotFound indicates the requested user does not exist.
var ErrUserNotFound = apperrors.NewNotFound("user not found")

// CreateUserInput describes the fields accepted when creating a user.
// PasswordHash is opaque: hashing happens in the credential collaborator.
type CreateUserInput struct {
	FirstName    string `json:"first_name" validate:"required,max=64"`
	LastName     string `json:"last_name" validate:"required,max=64"`
	Username     string `json:"username" validate:"required,max=64"`
	Email        string `json:"email" validate:"required,email,max=320"`
	PasswordHash string `json:"-" validate:"max=256"`
	Active       *bool  `json:"active"`
}

// UpdateUserInput enumerates mutable user attributes; nil fields are untouched.
type UpdateUserInput struct {
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	Username     *string `json:"username"`
	Email        *string `json:"email"`
	PasswordHash *string `json:"-"`
	Active       *bool   `json:"active"`
}

// UserService manages account lifecycle, role membership, and audit stamping.
type UserService struct {
	db      *gorm.DB
	checker *permissions.Checker
	now     func() time.Time
}

// NewUserService constructs a UserService instance.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	checker, err := permissions.NewChecker(db)
	if err != nil {
		return nil, err
	}
	return &UserService{
		db:      db,
		checker: checker,
		now:     time.Now,
	}, nil
}

// Create provisions a new user. Audit columns are stamped from the ambient
// actor on the context; no actor (or suppressed audit) stamps null.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	input.FirstName = trimmed(input.FirstName)
	input.LastName = trimmed(input.LastName)
	input.Username = trimmed(input.Username)
	input.Email = trimmed(input.Email)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	now := s.now()
	actorID := actorctx.AuditUserID(ctx)
	user := &models.User{
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Username:    input.Username,
		Email:       input.Email,
		Password:    input.PasswordHash,
		Active:      true,
		CreatedOn:   now,
		ChangedOn:   now,
		CreatedByID: actorID,
		ChangedByID: actorID,
	}
	if input.Active != nil {
		user.Active = *input.Active
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, translateWriteError(err, "username or email already exists")
	}
	return user, nil
}

// Update applies the provided fields and restamps changed_on/changed_by.
func (s *UserService) Update(ctx context.Context, id uint, input UpdateUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.FirstName != nil {
		name, err := requiredName(*input.FirstName, "first name", 64)
		if err != nil {
			return nil, err
		}
		updates["first_name"] = name
	}
	if input.LastName != nil {
		name, err := requiredName(*input.LastName, "last name", 64)
		if err != nil {
			return nil, err
		}
		updates["last_name"] = name
	}
	if input.Username != nil {
		name, err := requiredName(*input.Username, "username", 64)
		if err != nil {
			return nil, err
		}
		updates["username"] = name
	}
	if input.Email != nil {
		email := trimmed(*input.Email)
		if err := validateInput(emailInput{Email: email}); err != nil {
			return nil, err
		}
		updates["email"] = email
	}
	if input.PasswordHash != nil {
		if len(*input.PasswordHash) > 256 {
			return nil, apperrors.NewValidation("password hash exceeds 256 characters")
		}
		updates["password"] = *input.PasswordHash
	}
	if input.Active != nil {
		updates["active"] = *input.Active
	}

	if len(updates) == 0 {
		return user, nil
	}

	updates["changed_on"] = s.now()
	updates["changed_by_fk"] = actorctx.AuditUserID(ctx)

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, translateWriteError(err, "username or email already exists")
	}

	if err := s.db.WithContext(ctx).First(user, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("user service: reload user: %w", err)
	}
	return user, nil
}

// Get loads a user by id.
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user service: load user: %w", err)
	}
	return &user, nil
}

// GetByUsername loads a user by its unique username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "username = ?", trimmed(username)).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user service: load user: %w", err)
	}
	return &user, nil
}

// List returns all users ordered by username.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	ctx = ensureContext(ctx)

	var users []models.User
	if err := s.db.WithContext(ctx).Order("username ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("user service: list users: %w", err)
	}
	return users, nil
}

// Delete removes a user and its role/group membership rows transactionally.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	ctx = ensureContext(ctx)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			if isRecordNotFound(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("user service: load user: %w", err)
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.UserRole{}).Error; err != nil {
			return fmt.Errorf("user service: cascade roles: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.UserGroup{}).Error; err != nil {
			return fmt.Errorf("user service: cascade groups: %w", err)
		}

		if err := tx.Delete(&user).Error; err != nil {
			return fmt.Errorf("user service: delete user: %w", err)
		}
		return nil
	})
}

// AddRole assigns a role to the user; an existing assignment is a no-op.
func (s *UserService) AddRole(ctx context.Context, userID, roleID uint) error {
	ctx = ensureContext(ctx)

	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}
	var roleCount int64
	if err := s.db.WithContext(ctx).Model(&models.Role{}).Where("id = ?", roleID).Count(&roleCount).Error; err != nil {
		return fmt.Errorf("user service: check role: %w", err)
	}
	if roleCount == 0 {
		return ErrRoleNotFound
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.UserRole{}).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Count(&existing).Error; err != nil {
		return fmt.Errorf("user service: check membership: %w", err)
	}
	if existing > 0 {
		return nil
	}

	link := models.UserRole{UserID: userID, RoleID: roleID}
	if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
		if errors.Is(translateWriteError(err, ""), apperrors.ErrConflict) {
			return nil
		}
		return translateWriteError(err, "role already assigned")
	}
	return nil
}

// RemoveRole drops a role assignment; an absent assignment is a no-op.
func (s *UserService) RemoveRole(ctx context.Context, userID, roleID uint) error {
	ctx = ensureContext(ctx)

	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&models.UserRole{}).Error
	if err != nil {
		return fmt.Errorf("user service: remove role: %w", err)
	}
	return nil
}

// RecordLogin updates the login bookkeeping columns after a successful
// credential verification by the external collaborator.
func (s *UserService) RecordLogin(ctx context.Context, id uint) error {
	ctx = ensureContext(ctx)

	// SQL-side increment keeps concurrent logins from losing a count.
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_login":       s.now(),
			"login_count":      gorm.Expr("login_count + 1"),
			"fail_login_count": 0,
		})
	if result.Error != nil {
		return fmt.Errorf("user service: record login: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// RecordFailedLogin increments the failed-attempt counter.
func (s *UserService) RecordFailedLogin(ctx context.Context, id uint) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("fail_login_count", gorm.Expr("fail_login_count + 1"))
	if result.Error != nil {
		return fmt.Errorf("user service: record failed login: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// EffectivePermissionViews resolves the user's effective grant set.
func (s *UserService) EffectivePermissionViews(ctx context.Context, userID uint) ([]models.PermissionView, error) {
	return s.checker.EffectivePermissionViews(ensureContext(ctx), userID)
}

// HasPermission answers the authorization decision for the named unit.
func (s *UserService) HasPermission(ctx context.Context, userID uint, permissionName, viewMenuName string) (bool, error) {
	return s.checker.HasPermission(ensureContext(ctx), userID, permissionName, viewMenuName)
}
