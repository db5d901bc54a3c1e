package entity

// Role controls which bot features an admin can use.
// Roles are assigned by listing telegram ids in the config file.
type Role string

const (
	RoleSuper Role = "super" // everything, including total statistics and manual sync
	RoleBuyer Role = "buyer" // creates links and reads own statistics
	RoleOther Role = "other" // known, no link management
)

// Roles is a set of roles held by a single user.
type Roles map[Role]bool

// HasAny reports whether at least one of the given roles is present.
func (r Roles) HasAny(roles ...Role) bool {
	for _, role := range roles {
		if r[role] {
			return true
		}
	}
	return false
}
