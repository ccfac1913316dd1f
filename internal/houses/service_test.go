package houses_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravenhq/raven/internal/houses"
	"github.com/ravenhq/raven/internal/models"
	"github.com/ravenhq/raven/internal/permissions"
	"github.com/ravenhq/raven/internal/store"
)

var (
	owner = models.User{ID: "u1", Username: "Night_Raven"}
	ctx   = context.Background()
)

func newService(t *testing.T) (*houses.Service, *store.Store) {
	t.Helper()
	st := store.New(store.NewMemory())
	return houses.NewService(st), st
}

func TestCreate(t *testing.T) {
	svc, _ := newService(t)

	house, err := svc.Create(ctx, owner, "Iron Keep", "the inner circle", "🏰", true)
	require.NoError(t, err)

	assert.Equal(t, owner.ID, house.OwnerID)
	assert.Equal(t, 1, house.MembersCount)
	require.Len(t, house.Roles, 2, "seeded with founder and member roles")
	require.Len(t, house.Members, 1)
	assert.Equal(t, house.Roles[0].ID, house.Members[0].RoleID, "creator holds the founder role")

	for _, p := range permissions.Catalog() {
		assert.True(t, house.Roles[0].HasPermission(string(p)))
	}
	assert.Empty(t, house.Roles[1].Permissions, "member role starts with nothing")

	got, err := svc.Get(ctx, house.ID)
	require.NoError(t, err)
	assert.Equal(t, house.ID, got.ID)

	_, err = svc.Create(ctx, owner, "   ", "", "", false)
	require.Error(t, err, "name is required")
}

func TestJoin(t *testing.T) {
	joiner := models.User{ID: "u2", Username: "Vanguard", Avatar: "a2"}

	t.Run("JoinerLandsOnLowestRole", func(t *testing.T) {
		svc, _ := newService(t)
		house, err := svc.Create(ctx, owner, "Cyber Runners", "", "", false)
		require.NoError(t, err)

		joined, err := svc.Join(ctx, joiner, house.ID)
		require.NoError(t, err)

		assert.Equal(t, 2, joined.MembersCount)
		m, ok := joined.Member(joiner.ID)
		require.True(t, ok)
		assert.Equal(t, joined.Roles[len(joined.Roles)-1].ID, m.RoleID)

		// Membership through an empty role grants nothing; only reassignment
		// or ownership would.
		for _, p := range permissions.Catalog() {
			assert.False(t, permissions.HasCapability(joined, joiner.ID, p), string(p))
		}

		got, err := svc.Get(ctx, house.ID)
		require.NoError(t, err)
		assert.Equal(t, joined, got, "join is persisted")
	})

	t.Run("PrivateHouseRejected", func(t *testing.T) {
		svc, _ := newService(t)
		house, err := svc.Create(ctx, owner, "Iron Keep", "", "", true)
		require.NoError(t, err)

		_, err = svc.Join(ctx, joiner, house.ID)
		require.ErrorIs(t, err, houses.ErrPrivateHouse)

		got, err := svc.Get(ctx, house.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.MembersCount, "rejected join leaves the house unchanged")
	})

	t.Run("DoubleJoinRejected", func(t *testing.T) {
		svc, _ := newService(t)
		house, err := svc.Create(ctx, owner, "Cyber Runners", "", "", false)
		require.NoError(t, err)

		_, err = svc.Join(ctx, joiner, house.ID)
		require.NoError(t, err)
		_, err = svc.Join(ctx, joiner, house.ID)
		require.ErrorIs(t, err, houses.ErrAlreadyMember)
	})

	t.Run("OwnerCannotRejoin", func(t *testing.T) {
		svc, _ := newService(t)
		house, err := svc.Create(ctx, owner, "Cyber Runners", "", "", false)
		require.NoError(t, err)

		_, err = svc.Join(ctx, owner, house.ID)
		require.ErrorIs(t, err, houses.ErrAlreadyMember)
	})

	t.Run("MissingHouse", func(t *testing.T) {
		svc, _ := newService(t)
		_, err := svc.Join(ctx, joiner, "ghost")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestRoleAdministration(t *testing.T) {
	t.Run("TogglePermissionGated", func(t *testing.T) {
		svc, st := newService(t)
		house, err := svc.Create(ctx, owner, "Iron Keep", "", "", false)
		require.NoError(t, err)

		// Owner may toggle.
		updated, err := svc.TogglePermission(ctx, house.ID, owner.ID, house.Roles[0].ID, permissions.PermPinMessages)
		require.NoError(t, err)
		assert.False(t, updated.Roles[0].HasPermission(string(permissions.PermPinMessages)))

		// A member without manage-roles may not.
		house = updated
		house.Members = append(house.Members, models.HouseMember{ID: "u2", RoleID: "nope"})
		require.NoError(t, st.SetHouse(ctx, house))

		_, err = svc.TogglePermission(ctx, house.ID, "u2", house.Roles[0].ID, permissions.PermPinMessages)
		require.ErrorIs(t, err, houses.ErrForbidden)
	})

	t.Run("UnknownPermissionRejected", func(t *testing.T) {
		svc, _ := newService(t)
		house, err := svc.Create(ctx, owner, "Iron Keep", "", "", false)
		require.NoError(t, err)

		_, err = svc.TogglePermission(ctx, house.ID, owner.ID, house.Roles[0].ID, "LAUNCH_MISSILES")
		require.Error(t, err)
	})

	t.Run("AddThenDeleteRoleMigratesMembers", func(t *testing.T) {
		svc, st := newService(t)
		house, err := svc.Create(ctx, owner, "Iron Keep", "", "", false)
		require.NoError(t, err)

		house, err = svc.AddRole(ctx, house.ID, owner.ID)
		require.NoError(t, err)
		require.Len(t, house.Roles, 3)
		newRole := house.Roles[2]

		house, err = svc.ReassignMember(ctx, house.ID, owner.ID, owner.ID, newRole.ID)
		require.NoError(t, err)

		house, err = svc.DeleteRole(ctx, house.ID, owner.ID, newRole.ID)
		require.NoError(t, err)
		require.Len(t, house.Roles, 2)

		m, ok := house.Member(owner.ID)
		require.True(t, ok)
		assert.Equal(t, house.Roles[0].ID, m.RoleID, "members of the deleted role land on the default role")

		stored, err := st.GetHouse(ctx, house.ID)
		require.NoError(t, err)
		assert.Equal(t, house, stored)
	})

	t.Run("ReassignToUnknownRoleLeavesHouseUnchanged", func(t *testing.T) {
		svc, st := newService(t)
		house, err := svc.Create(ctx, owner, "Iron Keep", "", "", false)
		require.NoError(t, err)

		_, err = svc.ReassignMember(ctx, house.ID, owner.ID, owner.ID, "no-such-role")
		require.ErrorIs(t, err, permissions.ErrUnknownRole)

		stored, err := st.GetHouse(ctx, house.ID)
		require.NoError(t, err)
		assert.Equal(t, house, stored)
	})

	t.Run("MissingHouse", func(t *testing.T) {
		svc, _ := newService(t)
		_, err := svc.AddRole(ctx, "ghost", owner.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}
