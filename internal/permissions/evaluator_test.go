package permissions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravenhq/raven/internal/models"
	"github.com/ravenhq/raven/internal/permissions"
)

func testHouse() models.House {
	return models.House{
		ID:      "h1",
		OwnerID: "owner",
		Roles: []models.HouseRole{
			{ID: "r1", Name: "Founder", Color: "#b91c1c", Permissions: []string{
				string(permissions.PermDeleteMessages),
				string(permissions.PermManageRoles),
			}},
			{ID: "r2", Name: "Member", Color: "#444444", Permissions: []string{}},
		},
		Members: []models.HouseMember{
			{ID: "owner", RoleID: "r1"},
			{ID: "mod", RoleID: "r1"},
			{ID: "pleb", RoleID: "r2"},
			{ID: "lost", RoleID: "deleted-role"},
		},
	}
}

func TestHasCapability(t *testing.T) {
	house := testHouse()

	t.Run("OwnerHasEveryPermission", func(t *testing.T) {
		// Ownership is a capability override, independent of roles: the
		// owner's role grants could even be empty.
		for _, p := range permissions.Catalog() {
			assert.True(t, permissions.HasCapability(house, "owner", p), string(p))
		}
	})

	t.Run("MemberResolvesThroughRole", func(t *testing.T) {
		assert.True(t, permissions.HasCapability(house, "mod", permissions.PermDeleteMessages))
		assert.False(t, permissions.HasCapability(house, "mod", permissions.PermCreateEvents),
			"no permission implies another")
		assert.False(t, permissions.HasCapability(house, "pleb", permissions.PermDeleteMessages))
	})

	t.Run("NonMemberHasNothing", func(t *testing.T) {
		assert.False(t, permissions.HasCapability(house, "stranger", permissions.PermPinMessages))
	})

	t.Run("DanglingRoleMeansNoCapability", func(t *testing.T) {
		assert.False(t, permissions.HasCapability(house, "lost", permissions.PermDeleteMessages))
	})
}

func TestTogglePermission(t *testing.T) {
	role := models.HouseRole{ID: "r1", Permissions: []string{string(permissions.PermPinMessages)}}

	t.Run("AddsWhenAbsent", func(t *testing.T) {
		out := permissions.TogglePermission(role, permissions.PermCreateEvents)
		assert.True(t, out.HasPermission(string(permissions.PermCreateEvents)))
		assert.True(t, out.HasPermission(string(permissions.PermPinMessages)))
	})

	t.Run("RemovesWhenPresent", func(t *testing.T) {
		out := permissions.TogglePermission(role, permissions.PermPinMessages)
		assert.False(t, out.HasPermission(string(permissions.PermPinMessages)))
	})

	t.Run("SelfInverse", func(t *testing.T) {
		once := permissions.TogglePermission(role, permissions.PermManageMembers)
		twice := permissions.TogglePermission(once, permissions.PermManageMembers)
		assert.ElementsMatch(t, role.Permissions, twice.Permissions)
	})

	t.Run("InputRoleUntouched", func(t *testing.T) {
		permissions.TogglePermission(role, permissions.PermPinMessages)
		assert.Equal(t, []string{string(permissions.PermPinMessages)}, role.Permissions)
	})
}

func TestAddRole(t *testing.T) {
	house := testHouse()
	out := permissions.AddRole(house)

	require.Len(t, out.Roles, 3)
	added := out.Roles[2]
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, "New Operative", added.Name)
	assert.Empty(t, added.Permissions)

	assert.Len(t, house.Roles, 2, "input house untouched")
	assert.Equal(t, house.Members, out.Members, "member assignments untouched")
}

func TestReassignMember(t *testing.T) {
	house := testHouse()

	t.Run("MovesMember", func(t *testing.T) {
		out, err := permissions.ReassignMember(house, "pleb", "r1")
		require.NoError(t, err)

		m, ok := out.Member("pleb")
		require.True(t, ok)
		assert.Equal(t, "r1", m.RoleID)

		orig, _ := house.Member("pleb")
		assert.Equal(t, "r2", orig.RoleID, "input house untouched")
	})

	t.Run("UnknownRoleLeavesHouseUnchanged", func(t *testing.T) {
		out, err := permissions.ReassignMember(house, "pleb", "nope")
		require.ErrorIs(t, err, permissions.ErrUnknownRole)
		assert.Equal(t, house, out)
	})

	t.Run("UnknownMemberFails", func(t *testing.T) {
		_, err := permissions.ReassignMember(house, "stranger", "r1")
		require.Error(t, err)
	})
}

func TestDeleteRole(t *testing.T) {
	house := testHouse()

	t.Run("MigratesMembersToDefaultRole", func(t *testing.T) {
		out, err := permissions.DeleteRole(house, "r2")
		require.NoError(t, err)
		require.Len(t, out.Roles, 1)

		for _, m := range out.Members {
			if m.RoleID != "deleted-role" { // pre-existing dangle is not this op's to fix
				assert.Equal(t, "r1", m.RoleID)
			}
		}
	})

	t.Run("LastRoleCannotBeDeleted", func(t *testing.T) {
		h := models.House{
			ID:    "h2",
			Roles: []models.HouseRole{{ID: "only"}},
		}
		_, err := permissions.DeleteRole(h, "only")
		require.ErrorIs(t, err, permissions.ErrLastRole)
	})

	t.Run("UnknownRoleFails", func(t *testing.T) {
		_, err := permissions.DeleteRole(house, "nope")
		require.ErrorIs(t, err, permissions.ErrUnknownRole)
	})
}
