package models

import "time"

// HouseRole is a named bundle of permissions owned by one house. Roles
// within a house may overlap; holding one permission never implies another.
type HouseRole struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Color       string   `json:"color"`
	Permissions []string `json:"permissions"`
}

// HasPermission reports whether the role grants the named permission.
func (r HouseRole) HasPermission(perm string) bool {
	for _, p := range r.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

type HouseMember struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar"`
	RoleID   string    `json:"role_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// House is a community container. The owner always has full capability
// regardless of assigned role, and a house never has fewer than one role.
type House struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Emblem       string        `json:"emblem"`
	OwnerID      string        `json:"owner_id"`
	MembersCount int           `json:"members_count"`
	IsPrivate    bool          `json:"is_private"`
	Roles        []HouseRole   `json:"roles"`
	Members      []HouseMember `json:"members"`
}

// Role returns the role with the given id, or false if the house has none.
func (h House) Role(roleID string) (HouseRole, bool) {
	for _, r := range h.Roles {
		if r.ID == roleID {
			return r, true
		}
	}
	return HouseRole{}, false
}

// Member returns the member record for the given user id, if present.
func (h House) Member(userID string) (HouseMember, bool) {
	for _, m := range h.Members {
		if m.ID == userID {
			return m, true
		}
	}
	return HouseMember{}, false
}
