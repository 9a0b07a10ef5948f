package rbac

// Role names. Keep these stable; they are part of the token contract and are
// seeded into the role store at startup.
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// All lists the roles provisioned at startup.
func All() []string {
	return []string{RoleAdmin, RoleUser}
}
