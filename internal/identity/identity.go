// Package identity describes who is acting on a request.  The booking core
// treats an Identity as opaque apart from its user id and asks an Authority
// whether it carries administrative privilege.
package identity

import "strings"

// Roles carried in the "role" claim of access tokens.
const (
	RoleGuest = "GUEST"
	RoleAdmin = "ADMIN"
)

// Identity is the authenticated actor behind a request.
type Identity struct {
	UserID uint64
	Role   string
}

// Authority decides whether an identity holds administrative privilege.
type Authority interface {
	IsAdmin(id Identity) bool
}

// RoleAuthority grants administrative privilege to identities whose role is
// listed in AdminRoles.  The zero value recognises RoleAdmin only.
type RoleAuthority struct {
	AdminRoles []string
}

// IsAdmin implements Authority.
func (a RoleAuthority) IsAdmin(id Identity) bool {
	roles := a.AdminRoles
	if len(roles) == 0 {
		roles = []string{RoleAdmin}
	}
	for _, r := range roles {
		if strings.EqualFold(r, id.Role) {
			return true
		}
	}
	return false
}
