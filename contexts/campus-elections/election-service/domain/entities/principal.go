package entities

type Role string

const (
	RoleVoter Role = "voter"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleVoter || r == RoleAdmin
}

// Principal is the authenticated actor attached to a request. A zero value
// means anonymous.
type Principal struct {
	ID          string
	Role        Role
	DisplayName string
}

func (p Principal) Authenticated() bool {
	return p.ID != "" && p.Role.Valid()
}
