package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/audithub/audithub/internal/authz"
	"github.com/audithub/audithub/internal/identity"
)

// ErrProfileNotFound indicates the target identity has no profile row.
var ErrProfileNotFound = errors.New("directory: profile not found")

// Repository provides PostgreSQL backed persistence for profile lifecycle.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpsertProfile writes the profile keyed by identity id.
func (r *Repository) UpsertProfile(ctx context.Context, p identity.Profile) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO profiles (id, hotel_id, role, active, full_name)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE
		 SET hotel_id = EXCLUDED.hotel_id, role = EXCLUDED.role,
		     active = EXCLUDED.active, full_name = EXCLUDED.full_name`,
		p.ID, p.HotelID, string(p.Role), p.Active, p.FullName,
	)
	if err != nil {
		return fmt.Errorf("directory: upsert profile: %w", err)
	}
	return nil
}

// GetProfile loads a profile by identity id.
func (r *Repository) GetProfile(ctx context.Context, id uuid.UUID) (identity.Profile, error) {
	var (
		p       identity.Profile
		rawRole string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, hotel_id, role, active, full_name FROM profiles WHERE id = $1`, id,
	).Scan(&p.ID, &p.HotelID, &rawRole, &p.Active, &p.FullName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return identity.Profile{}, ErrProfileNotFound
		}
		return identity.Profile{}, fmt.Errorf("directory: get profile: %w", err)
	}
	p.Role = authz.NormalizeRole(rawRole)
	return p, nil
}

// ListProfiles returns every profile scoped to the hotel.
func (r *Repository) ListProfiles(ctx context.Context, hotelID uuid.UUID) ([]identity.Profile, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, hotel_id, role, active, full_name FROM profiles WHERE hotel_id = $1 ORDER BY full_name, id`,
		hotelID,
	)
	if err != nil {
		return nil, fmt.Errorf("directory: list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []identity.Profile
	for rows.Next() {
		var (
			p       identity.Profile
			rawRole string
		)
		if err := rows.Scan(&p.ID, &p.HotelID, &rawRole, &p.Active, &p.FullName); err != nil {
			return nil, fmt.Errorf("directory: scan profile: %w", err)
		}
		p.Role = authz.NormalizeRole(rawRole)
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("directory: list rows: %w", err)
	}
	return profiles, nil
}

// DeleteProfile removes the profile row. Returns ErrProfileNotFound when
// nothing was deleted.
func (r *Repository) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("directory: delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}
