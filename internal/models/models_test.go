package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestViewMenuEqualityByName(t *testing.T) {
	a := ViewMenu{ID: 1, Name: "UserView"}
	b := ViewMenu{ID: 99, Name: "UserView"}
	c := ViewMenu{ID: 1, Name: "RoleView"}

	require.True(t, a.Equal(b), "same name must compare equal across fetches")
	require.True(t, b.Equal(a))
	require.False(t, a.Equal(c), "same id with different name must not compare equal")
}

func TestPermissionViewDisplayString(t *testing.T) {
	pv := PermissionView{
		Permission: Permission{Name: "can_edit"},
		ViewMenu:   ViewMenu{Name: "UserView"},
	}
	require.Equal(t, "can edit on UserView", pv.String())
}

func TestPermissionViewDisplayStringReplacesAllUnderscores(t *testing.T) {
	pv := PermissionView{
		Permission: Permission{Name: "can_bulk_delete"},
		ViewMenu:   ViewMenu{Name: "LogView"},
	}
	require.Equal(t, "can bulk delete on LogView", pv.String())
}

func TestUserIdentityHelpers(t *testing.T) {
	u := User{ID: 42, FirstName: "Ada", LastName: "Lovelace", Active: true}

	require.Equal(t, "42", u.GetID())
	require.Equal(t, "Ada Lovelace", u.FullName())
	require.Equal(t, "Ada Lovelace", u.String())
	require.True(t, u.IsAuthenticated())
	require.True(t, u.IsActive())
	require.False(t, u.IsAnonymous())

	u.Active = false
	require.False(t, u.IsActive())
	require.True(t, u.IsAuthenticated(), "persisted users stay authenticated even when inactive")
}

func TestTableNamesMatchFrameworkSchema(t *testing.T) {
	cases := map[string]string{
		Permission{}.TableName():         "ab_permission",
		ViewMenu{}.TableName():           "ab_view_menu",
		PermissionView{}.TableName():     "ab_permission_view",
		Role{}.TableName():               "ab_role",
		PermissionViewRole{}.TableName(): "ab_permission_view_role",
		User{}.TableName():               "ab_user",
		UserRole{}.TableName():           "ab_user_role",
		Group{}.TableName():              "ab_group",
		UserGroup{}.TableName():          "ab_user_group",
		GroupRole{}.TableName():          "ab_group_role",
		RegisterUser{}.TableName():       "ab_register_user",
	}
	for got, want := range cases {
		require.Equal(t, want, got)
	}
}
