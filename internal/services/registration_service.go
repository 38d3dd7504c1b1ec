package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gatehouse-io/gatehouse/internal/models"
	apperrors "github.com/gatehouse-io/gatehouse/pkg/errors"
	"github.com/gatehouse-io/gatehouse/pkg/metrics"
)

// ErrRegistrationNotFound indicates the staging record does not exist.
var ErrRegistrationNotFound = apperrors.NewNotFound("registration not found")

// TokenSource produces opaque confirmation tokens. Token generation is a
// collaborator concern; the bootstrap wires a UUID source.
type TokenSource func() string

// CreateRegistrationInput describes a self-registration submission.
type CreateRegistrationInput struct {
	FirstName    string `json:"first_name" validate:"required,max=64"`
	LastName     string `json:"last_name" validate:"required,max=64"`
	Username     string `json:"username" validate:"required,max=64"`
	Email        string `json:"email" validate:"required,email,max=64"`
	PasswordHash string `json:"-" validate:"max=256"`
}

// RegistrationService manages the pending self-registration staging table.
// Rows live outside the RBAC graph: promotion to a User and expiry are
// driven by external workflows through Delete and PurgeExpired.
type RegistrationService struct {
	db     *gorm.DB
	tokens TokenSource
	now    func() time.Time
}

// NewRegistrationService constructs a RegistrationService instance.
func NewRegistrationService(db *gorm.DB, tokens TokenSource) (*RegistrationService, error) {
	if db == nil {
		return nil, errors.New("registration service: db is required")
	}
	if tokens == nil {
		return nil, errors.New("registration service: token source is required")
	}
	return &RegistrationService{
		db:     db,
		tokens: tokens,
		now:    time.Now,
	}, nil
}

// Create stages a pending registration with a fresh confirmation token and
// the registration date defaulted to the creation instant.
func (s *RegistrationService) Create(ctx context.Context, input CreateRegistrationInput) (*models.RegisterUser, error) {
	ctx = ensureContext(ctx)

	input.FirstName = trimmed(input.FirstName)
	input.LastName = trimmed(input.LastName)
	input.Username = trimmed(input.Username)
	input.Email = trimmed(input.Email)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	record := &models.RegisterUser{
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		Username:         input.Username,
		Email:            input.Email,
		Password:         input.PasswordHash,
		RegistrationDate: s.now(),
		RegistrationHash: s.tokens(),
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, translateWriteError(err, "username already pending registration")
	}
	return record, nil
}

// GetByHash loads a pending registration by its confirmation token.
func (s *RegistrationService) GetByHash(ctx context.Context, hash string) (*models.RegisterUser, error) {
	ctx = ensureContext(ctx)

	var record models.RegisterUser
	if err := s.db.WithContext(ctx).First(&record, "registration_hash = ?", hash).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("registration service: load registration: %w", err)
	}
	return &record, nil
}

// Delete removes a staging row, after promotion or on explicit rejection.
func (s *RegistrationService) Delete(ctx context.Context, id uint) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Delete(&models.RegisterUser{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("registration service: delete registration: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRegistrationNotFound
	}
	return nil
}

// PurgeExpired removes rows older than the retention window, returning the
// number deleted. Used by the maintenance cleaner.
func (s *RegistrationService) PurgeExpired(ctx context.Context, retention time.Duration) (int64, error) {
	ctx = ensureContext(ctx)

	cutoff := s.now().Add(-retention)
	result := s.db.WithContext(ctx).
		Where("registration_date < ?", cutoff).
		Delete(&models.RegisterUser{})
	if result.Error != nil {
		return 0, fmt.Errorf("registration service: purge expired: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		metrics.RegistrationsPurged.Add(float64(result.RowsAffected))
	}
	return result.RowsAffected, nil
}
