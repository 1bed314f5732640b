package entity

// Principal is the uniform view of an authenticated account used by the
// token and middleware layers, which never care whether they are holding a
// user or a seller beyond the role itself.
type Principal interface {
	PrincipalID() uint
	PrincipalRole() Role
	PrincipalEmail() string
	CheckPassword(password string) bool
}

func (u *User) PrincipalID() uint      { return u.ID }
func (u *User) PrincipalRole() Role    { return RoleUser }
func (u *User) PrincipalEmail() string { return u.Email }

func (s *Seller) PrincipalID() uint      { return s.ID }
func (s *Seller) PrincipalRole() Role    { return RoleSeller }
func (s *Seller) PrincipalEmail() string { return s.Email }
