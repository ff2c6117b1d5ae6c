package domain

// Role is the fixed actor-role hierarchy. This is a simple ordered ladder,
// not general RBAC: each role includes every capability below it.
type Role string

const (
	// RoleViewer may read memberships.
	RoleViewer Role = "viewer"
	// RoleClerk may create and update memberships.
	RoleClerk Role = "clerk"
	// RoleAdmin may additionally soft-delete memberships.
	RoleAdmin Role = "admin"
)

var roleOrder = map[Role]int{
	RoleViewer: 1,
	RoleClerk:  2,
	RoleAdmin:  3,
}

// Known reports whether the role is one of the defined ladder values.
func (r Role) Known() bool {
	_, ok := roleOrder[r]
	return ok
}

// AtLeast reports whether r sits at or above min in the hierarchy.
// Unknown roles rank below every known role.
func (r Role) AtLeast(min Role) bool {
	ro, ok := roleOrder[r]
	if !ok {
		return false
	}
	mo, ok := roleOrder[min]
	if !ok {
		return false
	}
	return ro >= mo
}
