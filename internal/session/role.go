package session

import "strings"

// Role is the closed set of actor roles within a tenant. The zero value is
// "unset".
type Role string

const (
	RoleUnset  Role = ""
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// AllRoles lists every assignable role.
func AllRoles() []Role {
	return []Role{RoleOwner, RoleAdmin, RoleMember, RoleViewer}
}

// ParseRole normalizes s and reports whether it names a known role or unset.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if r == RoleUnset || r.Valid() {
		return r, true
	}
	return RoleUnset, false
}

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return true
	case RoleUnset:
		return false
	}
	return false
}

// CanManage reports whether the role may create or change tenant resources.
func (r Role) CanManage() bool {
	switch r {
	case RoleOwner, RoleAdmin:
		return true
	case RoleMember, RoleViewer, RoleUnset:
		return false
	}
	return false
}
