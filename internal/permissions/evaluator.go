package permissions

import (
	"errors"

	"github.com/google/uuid"

	"github.com/ravenhq/raven/internal/models"
)

// Defaults for roles created through AddRole.
const (
	defaultRoleName  = "New Operative"
	defaultRoleColor = "#444444"
)

var (
	ErrUnknownRole = errors.New("role does not exist in this house")
	ErrLastRole    = errors.New("a house must keep at least one role")
)

// HasCapability resolves whether userID may exercise perm within the house.
//
// The check runs in two independent layers: the owner bypasses roles
// entirely, everyone else resolves member -> role -> permission set. The
// function is total: a non-member or a member with a dangling role id simply
// has no capability.
func HasCapability(house models.House, userID string, perm Permission) bool {
	if userID == house.OwnerID {
		return true
	}

	member, ok := house.Member(userID)
	if !ok {
		return false
	}

	role, ok := house.Role(member.RoleID)
	if !ok {
		return false
	}

	return role.HasPermission(string(perm))
}

// TogglePermission returns a copy of role with perm added if absent or
// removed if present. Toggling twice restores the original set.
func TogglePermission(role models.HouseRole, perm Permission) models.HouseRole {
	out := role
	out.Permissions = make([]string, 0, len(role.Permissions)+1)

	found := false
	for _, p := range role.Permissions {
		if p == string(perm) {
			found = true
			continue
		}
		out.Permissions = append(out.Permissions, p)
	}
	if !found {
		out.Permissions = append(out.Permissions, string(perm))
	}
	return out
}

// AddRole returns a copy of the house with a fresh role appended. The new
// role starts with an empty permission set; existing roles and member
// assignments are untouched.
func AddRole(house models.House) models.House {
	out := house
	out.Roles = append(append([]models.HouseRole(nil), house.Roles...), models.HouseRole{
		ID:          uuid.NewString(),
		Name:        defaultRoleName,
		Color:       defaultRoleColor,
		Permissions: []string{},
	})
	return out
}

// ReassignMember returns a copy of the house with one member moved to
// roleID. The house is returned unchanged if roleID does not reference an
// existing role, or if the member is unknown.
func ReassignMember(house models.House, memberID, roleID string) (models.House, error) {
	if _, ok := house.Role(roleID); !ok {
		return house, ErrUnknownRole
	}

	out := house
	out.Members = append([]models.HouseMember(nil), house.Members...)
	for i, m := range out.Members {
		if m.ID == memberID {
			out.Members[i].RoleID = roleID
			return out, nil
		}
	}
	return house, errors.New("member does not belong to this house")
}

// DeleteRole returns a copy of the house without the named role. Members
// still assigned to it are migrated to the house's first remaining role so
// no member is left with a dangling reference. The last role cannot be
// deleted.
func DeleteRole(house models.House, roleID string) (models.House, error) {
	if _, ok := house.Role(roleID); !ok {
		return house, ErrUnknownRole
	}
	if len(house.Roles) <= 1 {
		return house, ErrLastRole
	}

	out := house
	out.Roles = make([]models.HouseRole, 0, len(house.Roles)-1)
	for _, r := range house.Roles {
		if r.ID != roleID {
			out.Roles = append(out.Roles, r)
		}
	}

	fallback := out.Roles[0].ID
	out.Members = append([]models.HouseMember(nil), house.Members...)
	for i, m := range out.Members {
		if m.RoleID == roleID {
			out.Members[i].RoleID = fallback
		}
	}
	return out, nil
}
