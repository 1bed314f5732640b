package entity

// Role identifies the kind of principal a token or registration flow is
// scoped to. A token pair minted for one role never authenticates the other.
type Role string

const (
	RoleUser   Role = "user"
	RoleSeller Role = "seller"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleSeller
}

func (r Role) String() string {
	return string(r)
}
