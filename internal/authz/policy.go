// Package authz holds the pure authorization policy for privileged
// operations. It performs no I/O; every privileged handler must obtain an
// Allow decision here before constructing an elevated-trust client.
package authz

import "github.com/google/uuid"

// Action identifies a privileged operation subject to policy.
type Action string

const (
	ActionCreateIdentity Action = "create-identity"
	ActionDeleteIdentity Action = "delete-identity"
	ActionListIdentities Action = "list-identities"
	ActionReadGrants     Action = "read-grants"
	ActionWriteGrants    Action = "write-grants"
)

// Caller is the authenticated principal resolved from a bearer credential.
// HotelID is nil only for the global super-role.
type Caller struct {
	ID      uuid.UUID
	HotelID *uuid.UUID
	Role    Role
	Active  bool
}

// Target describes the subject of a privileged action.
type Target struct {
	ID      uuid.UUID
	HotelID uuid.UUID
	// Role is the target profile's role for delete-identity, or the requested
	// role for create-identity.
	Role Role
}

// Decision is the policy outcome. Reason is set only on deny.
type Decision struct {
	Allowed bool
	Reason  string
}

func deny(reason string) Decision { return Decision{Reason: reason} }

// Allow is the single allow decision.
var Allow = Decision{Allowed: true}

// Authorize applies the policy rules in order; the first match wins.
func Authorize(caller Caller, action Action, target Target) Decision {
	if !caller.Active {
		return deny("inactive")
	}
	if !caller.Role.Privileged() {
		return deny("insufficient-role")
	}
	if caller.Role == RoleAdmin {
		if caller.HotelID == nil || *caller.HotelID != target.HotelID {
			return deny("cross-tenant")
		}
	}
	if action == ActionDeleteIdentity && target.ID == caller.ID {
		return deny("self-delete")
	}
	if action == ActionDeleteIdentity && target.Role == RoleSuperadmin && caller.Role != RoleSuperadmin {
		return deny("cannot-delete-superadmin")
	}
	if action == ActionCreateIdentity && target.Role == RoleSuperadmin {
		return deny("cannot-grant-superadmin")
	}
	return Allow
}
