package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gatehouse-io/gatehouse/internal/database/testutil"
	"github.com/gatehouse-io/gatehouse/internal/models"
	apperrors "github.com/gatehouse-io/gatehouse/pkg/errors"
)

func setupRoleServiceTest(t *testing.T) (*gorm.DB, *RoleService) {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewRoleService(db)
	require.NoError(t, err)
	return db, svc
}

func createGrantableUnit(t *testing.T, db *gorm.DB, permName, viewName string) models.PermissionView {
	t.Helper()
	perm := models.Permission{Name: permName}
	require.NoError(t, db.Where(models.Permission{Name: permName}).FirstOrCreate(&perm).Error)
	view := models.ViewMenu{Name: viewName}
	require.NoError(t, db.Where(models.ViewMenu{Name: viewName}).FirstOrCreate(&view).Error)
	pv := models.PermissionView{PermissionID: perm.ID, ViewMenuID: view.ID}
	require.NoError(t, db.Create(&pv).Error)
	return pv
}

func TestRoleCreateAndDuplicate(t *testing.T) {
	_, svc := setupRoleServiceTest(t)

	role, err := svc.Create(context.Background(), "Admin")
	require.NoError(t, err)
	require.NotZero(t, role.ID)

	_, err = svc.Create(context.Background(), "Admin")
	require.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestRoleGrantIsIdempotent(t *testing.T) {
	db, svc := setupRoleServiceTest(t)

	role, err := svc.Create(context.Background(), "Admin")
	require.NoError(t, err)
	pv := createGrantableUnit(t, db, "can_edit", "UserView")

	require.NoError(t, svc.Grant(context.Background(), role.ID, pv.ID))
	require.NoError(t, svc.Grant(context.Background(), role.ID, pv.ID))

	views, err := svc.PermissionViews(context.Background(), role.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)

	var rows int64
	require.NoError(t, db.Model(&models.PermissionViewRole{}).Where("role_id = ?", role.ID).Count(&rows).Error)
	require.EqualValues(t, 1, rows, "no duplicate association row")
}

func TestRoleGrantUnknownEndpoints(t *testing.T) {
	db, svc := setupRoleServiceTest(t)

	role, err := svc.Create(context.Background(), "Admin")
	require.NoError(t, err)
	pv := createGrantableUnit(t, db, "can_edit", "UserView")

	require.ErrorIs(t, svc.Grant(context.Background(), 999, pv.ID), apperrors.ErrNotFound)
	require.ErrorIs(t, svc.Grant(context.Background(), role.ID, 999), apperrors.ErrNotFound)
}

func TestRoleRevokeIsIdempotent(t *testing.T) {
	db, svc := setupRoleServiceTest(t)

	role, err := svc.Create(context.Background(), "Admin")
	require.NoError(t, err)
	pv := createGrantableUnit(t, db, "can_edit", "UserView")

	require.NoError(t, svc.Grant(context.Background(), role.ID, pv.ID))
	require.NoError(t, svc.Revoke(context.Background(), role.ID, pv.ID))
	require.NoError(t, svc.Revoke(context.Background(), role.ID, pv.ID), "revoking an absent grant is a no-op")

	views, err := svc.PermissionViews(context.Background(), role.ID)
	require.NoError(t, err)
	require.Empty(t, views)
}

func TestRoleDeleteCascadesAssociations(t *testing.T) {
	db, svc := setupRoleServiceTest(t)

	role, err := svc.Create(context.Background(), "Admin")
	require.NoError(t, err)
	for _, names := range [][2]string{
		{"can_edit", "UserView"},
		{"can_show", "UserView"},
		{"can_list", "RoleView"},
	} {
		pv := createGrantableUnit(t, db, names[0], names[1])
		require.NoError(t, svc.Grant(context.Background(), role.ID, pv.ID))
	}

	user := models.User{FirstName: "A", LastName: "B", Username: "ab", Email: "ab@example.com"}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&models.UserRole{UserID: user.ID, RoleID: role.ID}).Error)

	require.NoError(t, svc.Delete(context.Background(), role.ID))

	_, err = svc.Get(context.Background(), role.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	var grantRows, userRows int64
	require.NoError(t, db.Model(&models.PermissionViewRole{}).Where("role_id = ?", role.ID).Count(&grantRows).Error)
	require.NoError(t, db.Model(&models.UserRole{}).Where("role_id = ?", role.ID).Count(&userRows).Error)
	require.Zero(t, grantRows, "all grant rows removed with the role")
	require.Zero(t, userRows, "all membership rows removed with the role")

	// The grantable units themselves survive.
	var pvCount int64
	require.NoError(t, db.Model(&models.PermissionView{}).Count(&pvCount).Error)
	require.EqualValues(t, 3, pvCount)
}

func TestRoleRenameConflict(t *testing.T) {
	_, svc := setupRoleServiceTest(t)

	admin, err := svc.Create(context.Background(), "Admin")
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "Public")
	require.NoError(t, err)

	_, err = svc.Rename(context.Background(), admin.ID, "Public")
	require.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestRoleListOrdersByName(t *testing.T) {
	_, svc := setupRoleServiceTest(t)

	for _, name := range []string{"Viewer", "Admin", "Editor"} {
		_, err := svc.Create(context.Background(), name)
		require.NoError(t, err)
	}

	roles, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, roles, 3)
	require.Equal(t, "Admin", roles[0].Name)
	require.Equal(t, "Viewer", roles[2].Name)
}
