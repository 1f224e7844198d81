package identity

import (
	"github.com/google/uuid"

	"github.com/audithub/audithub/internal/authz"
)

// Profile is the authorization-relevant record bound 1:1 to a provider
// identity. HotelID is null only for the global super-role.
type Profile struct {
	ID       uuid.UUID
	HotelID  *uuid.UUID
	Role     authz.Role
	Active   bool
	FullName string
}
