package permissions

// Permission is an atomic capability grantable through a house role. The
// catalog is flat: no permission implies any other.
type Permission string

const (
	PermManageMembers  Permission = "MANAGE_MEMBERS"
	PermPinMessages    Permission = "PIN_MESSAGES"
	PermCreateEvents   Permission = "CREATE_EVENTS"
	PermDeleteMessages Permission = "DELETE_MESSAGES"
	PermManageRoles    Permission = "MANAGE_ROLES"
)

// Catalog lists every grantable permission in declaration order.
func Catalog() []Permission {
	return []Permission{
		PermManageMembers,
		PermPinMessages,
		PermCreateEvents,
		PermDeleteMessages,
		PermManageRoles,
	}
}

// Known reports whether p is part of the catalog.
func Known(p Permission) bool {
	for _, c := range Catalog() {
		if c == p {
			return true
		}
	}
	return false
}
