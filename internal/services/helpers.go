package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/gatehouse-io/gatehouse/internal/database"
	apperrors "github.com/gatehouse-io/gatehouse/pkg/errors"
	"github.com/gatehouse-io/gatehouse/pkg/validator"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

// translateWriteError maps storage failures onto the error kinds callers are
// expected to handle: uniqueness violations become Conflict, foreign-key
// violations become IntegrityViolation, everything else passes through.
func translateWriteError(err error, conflictMessage string) error {
	switch {
	case err == nil:
		return nil
	case database.IsUniqueConstraintError(err):
		return apperrors.NewConflict(conflictMessage)
	case database.IsForeignKeyError(err):
		return apperrors.ErrIntegrityViolation.WithInternal(err)
	default:
		return err
	}
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// validateInput runs struct validation and wraps failures as ValidationError.
func validateInput(input any) error {
	if err := validator.ValidateStruct(input); err != nil {
		return apperrors.ErrValidation.WithInternal(err)
	}
	return nil
}

func trimmed(value string) string {
	return strings.TrimSpace(value)
}

type emailInput struct {
	Email string `json:"email" validate:"required,email,max=320"`
}

// requiredName trims a partial-update field and enforces presence and the
// column's declared maximum length, so updates obey the same bounds as creates.
func requiredName(value, label string, maxLen int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperrors.NewValidation(label + " is required")
	}
	if len(value) > maxLen {
		return "", apperrors.NewValidation(fmt.Sprintf("%s exceeds %d characters", label, maxLen))
	}
	return value, nil
}
