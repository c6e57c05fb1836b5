package user

type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleMember || r == RoleAdmin
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}
