package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/audithub/audithub/internal/authz"
)

// ErrProfileNotFound indicates the identity has no profile row.
var ErrProfileNotFound = errors.New("identity: profile not found")

// Repository provides PostgreSQL backed persistence for profiles.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetProfile loads a profile by identity id. The raw role string is
// normalized here so nothing downstream ever sees an unconstrained role.
func (r *Repository) GetProfile(ctx context.Context, id uuid.UUID) (Profile, error) {
	var (
		p       Profile
		rawRole string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, hotel_id, role, active, full_name FROM profiles WHERE id = $1`, id,
	).Scan(&p.ID, &p.HotelID, &rawRole, &p.Active, &p.FullName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrProfileNotFound
		}
		return Profile{}, fmt.Errorf("identity: get profile: %w", err)
	}
	p.Role = authz.NormalizeRole(rawRole)
	return p, nil
}
