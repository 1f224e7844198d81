package authz

import "strings"

// Role is the closed role enumeration. Roles are flat for tenant isolation
// (admin is tenant-scoped, superadmin is global) and strict for identity
// lifecycle.
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleAuditor    Role = "auditor"
)

// NormalizeRole maps a raw role string from the store to the closed
// enumeration. Unrecognized input degrades to the least-privileged role,
// never to an elevated one.
func NormalizeRole(raw string) Role {
	switch Role(strings.TrimSpace(strings.ToLower(raw))) {
	case RoleSuperadmin:
		return RoleSuperadmin
	case RoleAdmin:
		return RoleAdmin
	case RoleManager:
		return RoleManager
	case RoleAuditor:
		return RoleAuditor
	default:
		return RoleAuditor
	}
}

// Privileged reports whether the role may perform identity and grant
// administration.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}
