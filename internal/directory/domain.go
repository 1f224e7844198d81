package directory

import (
	"github.com/google/uuid"

	"github.com/audithub/audithub/internal/authz"
)

// IdentitySummary is one row of the tenant identity listing.
type IdentitySummary struct {
	ID       uuid.UUID  `json:"id"`
	Email    string     `json:"email"`
	FullName string     `json:"full_name"`
	Role     authz.Role `json:"role"`
	Status   string     `json:"status"`
}

// CreateIdentityInput carries the validated fields for identity creation.
type CreateIdentityInput struct {
	Email    string
	Password string
	Role     authz.Role
	HotelID  uuid.UUID
	FullName string
}
