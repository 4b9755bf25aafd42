// Package authz holds the role model and the permission/menu tables for
// the admin client. Every table is a closed allow-list: absence means
// denial, never an implicit grant.
package authz

import (
	"errors"
	"fmt"
)

// Role is the closed set of admin roles the server can assign.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleAdminOPD   Role = "admin-opd"
	RoleAdminUPT   Role = "admin-upt"
)

// ErrUnknownRoleLevel is returned when the server reports an access level
// outside the accepted set. This is a hard rejection, never a downgrade.
var ErrUnknownRoleLevel = errors.New("unknown role level")

// IsValid reports whether r is one of the four known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleAdminOPD, RoleAdminUPT:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// RoleFromLevel maps the server's access level to a Role. Level "3" is an
// organizational admin; whether it is an OPD or UPT admin depends on which
// scope record the server attached to the account.
func RoleFromLevel(level string, hasOPDScope, hasUPTScope bool) (Role, error) {
	switch level {
	case "1":
		return RoleSuperAdmin, nil
	case "2":
		return RoleAdmin, nil
	case "3":
		if hasUPTScope && !hasOPDScope {
			return RoleAdminUPT, nil
		}
		return RoleAdminOPD, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRoleLevel, level)
	}
}

// RoleFromTokenLevel derives a role from token claims alone. Claims only
// carry the level, so this path cannot distinguish the OPD/UPT sub-roles;
// everything below super admin comes back as a generic admin. Use the full
// profile fetch when the finer-grained role matters.
func RoleFromTokenLevel(level string) Role {
	if level == "1" {
		return RoleSuperAdmin
	}
	return RoleAdmin
}

// HasRole reports whether role is one of the allowed roles.
func HasRole(role Role, allowed ...Role) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}
