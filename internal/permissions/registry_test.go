package permissions

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterAndDeclarations(t *testing.T) {
	reset()
	t.Cleanup(reset)

	require.NoError(t, Register("UserView", "can_list", "can_show"))
	require.NoError(t, Register("RoleView", "can_list"))

	decls := Declarations()
	require.Len(t, decls, 2)
	require.Equal(t, "RoleView", decls[0].ViewMenu)
	require.Equal(t, []string{"can_list"}, decls[0].Permissions)
	require.Equal(t, "UserView", decls[1].ViewMenu)
	require.Equal(t, []string{"can_list", "can_show"}, decls[1].Permissions)
}

func TestRegisterMergesRepeatedDeclarations(t *testing.T) {
	reset()
	t.Cleanup(reset)

	require.NoError(t, Register("UserView", "can_list"))
	require.NoError(t, Register("UserView", "can_list", "can_edit"))

	decls := Declarations()
	require.Len(t, decls, 1)
	require.Equal(t, []string{"can_edit", "can_list"}, decls[0].Permissions)
}

func TestRegisterRejectsEmptyNames(t *testing.T) {
	reset()
	t.Cleanup(reset)

	require.Error(t, Register("   "))
	require.Error(t, Register("UserView", ""))
}
