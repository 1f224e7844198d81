package grants

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/audithub/audithub/internal/platform/db"
)

// ErrProfileNotFound indicates the grant target has no profile row.
var ErrProfileNotFound = errors.New("grants: profile not found")

// Repository provides PostgreSQL backed persistence for area grants.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ProfileHotel returns the hotel id the profile belongs to, nil for the
// global super-role.
func (r *Repository) ProfileHotel(ctx context.Context, profileID uuid.UUID) (*uuid.UUID, error) {
	var hotelID *uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT hotel_id FROM profiles WHERE id = $1`, profileID).Scan(&hotelID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("grants: profile hotel: %w", err)
	}
	return hotelID, nil
}

// CountAreasForHotel counts how many of the given areas are owned by the
// hotel. A count below len(areaIDs) means at least one foreign reference.
func (r *Repository) CountAreasForHotel(ctx context.Context, hotelID uuid.UUID, areaIDs []uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM areas WHERE hotel_id = $1 AND id = ANY($2)`, hotelID, areaIDs,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("grants: count areas: %w", err)
	}
	return count, nil
}

// List returns the area ids granted to the profile within the hotel.
func (r *Repository) List(ctx context.Context, profileID, hotelID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT area_id FROM user_areas WHERE user_id = $1 AND hotel_id = $2 ORDER BY area_id`, profileID, hotelID,
	)
	if err != nil {
		return nil, fmt.Errorf("grants: list: %w", err)
	}
	defer rows.Close()

	areaIDs := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("grants: scan grant: %w", err)
		}
		areaIDs = append(areaIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("grants: list rows: %w", err)
	}
	return areaIDs, nil
}

// Replace swaps the full grant set for (profileID, hotelID) in one
// transaction so a failed insert never leaves the profile with zero grants.
func (r *Repository) Replace(ctx context.Context, profileID, hotelID uuid.UUID, areaIDs []uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM user_areas WHERE user_id = $1 AND hotel_id = $2`, profileID, hotelID,
		); err != nil {
			return fmt.Errorf("grants: delete existing: %w", err)
		}
		if len(areaIDs) == 0 {
			return nil
		}
		batch := &pgx.Batch{}
		for _, areaID := range areaIDs {
			batch.Queue(
				`INSERT INTO user_areas (user_id, area_id, hotel_id) VALUES ($1, $2, $3)`,
				profileID, areaID, hotelID,
			)
		}
		results := tx.SendBatch(ctx, batch)
		defer results.Close()
		for range areaIDs {
			if _, err := results.Exec(); err != nil {
				return fmt.Errorf("grants: insert grant: %w", err)
			}
		}
		return nil
	})
}

// DeleteAllForUser removes every grant the profile holds in the hotel and
// returns the number of rows removed. Used by identity deletion.
func (r *Repository) DeleteAllForUser(ctx context.Context, profileID, hotelID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM user_areas WHERE user_id = $1 AND hotel_id = $2`, profileID, hotelID,
	)
	if err != nil {
		return 0, fmt.Errorf("grants: delete all: %w", err)
	}
	return tag.RowsAffected(), nil
}
