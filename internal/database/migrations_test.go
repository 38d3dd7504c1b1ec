package database_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gatehouse-io/gatehouse/internal/database"
	"github.com/gatehouse-io/gatehouse/internal/database/testutil"
	"github.com/gatehouse-io/gatehouse/internal/models"
)

func TestAutoMigrateCreatesFrameworkTables(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	tables := []string{
		"ab_permission",
		"ab_view_menu",
		"ab_permission_view",
		"ab_role",
		"ab_permission_view_role",
		"ab_user",
		"ab_user_role",
		"ab_group",
		"ab_user_group",
		"ab_group_role",
		"ab_register_user",
	}
	for _, table := range tables {
		require.Truef(t, db.Migrator().HasTable(table), "expected table %s", table)
	}
}

func TestAutoMigrateIsRepeatable(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	require.NoError(t, database.AutoMigrate(db))
}

func TestSeedDataCreatesDefaultRoles(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	var roles []models.Role
	require.NoError(t, db.Order("name ASC").Find(&roles).Error)
	require.Len(t, roles, 2)
	require.Equal(t, database.AdminRoleName, roles[0].Name)
	require.Equal(t, database.PublicRoleName, roles[1].Name)
}

func TestSeedDataIsIdempotent(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	require.NoError(t, database.SeedData(db))

	var count int64
	require.NoError(t, db.Model(&models.Role{}).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestJoinRowsCarryTheirOwnIdentifier(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	role := models.Role{Name: "Ops"}
	require.NoError(t, db.Create(&role).Error)

	perm := models.Permission{Name: "can_list"}
	require.NoError(t, db.Create(&perm).Error)
	view := models.ViewMenu{Name: "HostView"}
	require.NoError(t, db.Create(&view).Error)
	pv := models.PermissionView{PermissionID: perm.ID, ViewMenuID: view.ID}
	require.NoError(t, db.Create(&pv).Error)

	require.NoError(t, db.Model(&role).Association("PermissionViews").Append(&pv))

	var link models.PermissionViewRole
	require.NoError(t, db.First(&link, "role_id = ?", role.ID).Error)
	require.NotZero(t, link.ID)
	require.Equal(t, pv.ID, link.PermissionViewID)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := database.Open(database.Config{Driver: "oracle"})
	require.Error(t, err)
	require.ErrorContains(t, err, "unsupported database driver")
}
