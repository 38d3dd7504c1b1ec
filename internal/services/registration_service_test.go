package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gatehouse-io/gatehouse/internal/database/testutil"
	"github.com/gatehouse-io/gatehouse/internal/models"
	apperrors "github.com/gatehouse-io/gatehouse/pkg/errors"
)

func setupRegistrationServiceTest(t *testing.T) (*gorm.DB, *RegistrationService) {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	var counter int
	svc, err := NewRegistrationService(db, func() string {
		counter++
		return fmt.Sprintf("token-%d", counter)
	})
	require.NoError(t, err)
	return db, svc
}

func TestRegistrationCreateDefaults(t *testing.T) {
	_, svc := setupRegistrationServiceTest(t)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	record, err := svc.Create(context.Background(), CreateRegistrationInput{
		FirstName:    "New",
		LastName:     "Comer",
		Username:     "newcomer",
		Email:        "new@example.com",
		PasswordHash: "argon2-opaque",
	})
	require.NoError(t, err)
	require.NotZero(t, record.ID)
	require.True(t, record.RegistrationDate.Equal(fixed), "registration date defaults to creation instant")
	require.Equal(t, "token-1", record.RegistrationHash)
}

func TestRegistrationCreateDuplicateUsername(t *testing.T) {
	_, svc := setupRegistrationServiceTest(t)

	input := CreateRegistrationInput{
		FirstName: "New",
		LastName:  "Comer",
		Username:  "newcomer",
		Email:     "new@example.com",
	}
	_, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), input)
	require.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestRegistrationGetByHash(t *testing.T) {
	_, svc := setupRegistrationServiceTest(t)

	record, err := svc.Create(context.Background(), CreateRegistrationInput{
		FirstName: "New",
		LastName:  "Comer",
		Username:  "newcomer",
		Email:     "new@example.com",
	})
	require.NoError(t, err)

	found, err := svc.GetByHash(context.Background(), record.RegistrationHash)
	require.NoError(t, err)
	require.Equal(t, record.ID, found.ID)

	_, err = svc.GetByHash(context.Background(), "bogus")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRegistrationDelete(t *testing.T) {
	_, svc := setupRegistrationServiceTest(t)

	record, err := svc.Create(context.Background(), CreateRegistrationInput{
		FirstName: "New",
		LastName:  "Comer",
		Username:  "newcomer",
		Email:     "new@example.com",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), record.ID))
	require.ErrorIs(t, svc.Delete(context.Background(), record.ID), apperrors.ErrNotFound)
}

func TestRegistrationPurgeExpired(t *testing.T) {
	db, svc := setupRegistrationServiceTest(t)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	stale := models.RegisterUser{
		FirstName: "Old", LastName: "Pending", Username: "oldpending",
		Email: "old@example.com", RegistrationDate: now.Add(-40 * 24 * time.Hour),
	}
	require.NoError(t, db.Create(&stale).Error)

	fresh, err := svc.Create(context.Background(), CreateRegistrationInput{
		FirstName: "New", LastName: "Pending", Username: "newpending",
		Email: "new@example.com",
	})
	require.NoError(t, err)

	purged, err := svc.PurgeExpired(context.Background(), 30*24*time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 1, purged)

	var remaining []models.RegisterUser
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, fresh.ID, remaining[0].ID)
}

func TestRegistrationHasNoLinkToUserGraph(t *testing.T) {
	db, svc := setupRegistrationServiceTest(t)

	record, err := svc.Create(context.Background(), CreateRegistrationInput{
		FirstName: "New", LastName: "Comer", Username: "newcomer",
		Email: "new@example.com",
	})
	require.NoError(t, err)

	// Promotion workflow: insert the user, then drop the staging row.
	user := models.User{
		FirstName: record.FirstName,
		LastName:  record.LastName,
		Username:  record.Username,
		Email:     record.Email,
		Password:  record.Password,
		Active:    true,
	}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, svc.Delete(context.Background(), record.ID))

	var count int64
	require.NoError(t, db.Model(&models.RegisterUser{}).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, db.First(&models.User{}, "username = ?", "newcomer").Error)
}
