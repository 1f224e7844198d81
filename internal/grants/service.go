// Package grants replaces the full set of area grants for a profile within a
// hotel. Validation always precedes mutation; the swap itself runs inside a
// single transaction under a per-key advisory lock.
package grants

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/audithub/audithub/internal/platform/httpx"
	"github.com/audithub/audithub/internal/shared"
)

// RepositoryPort defines data access methods for area grants.
type RepositoryPort interface {
	ProfileHotel(ctx context.Context, profileID uuid.UUID) (*uuid.UUID, error)
	CountAreasForHotel(ctx context.Context, hotelID uuid.UUID, areaIDs []uuid.UUID) (int, error)
	List(ctx context.Context, profileID, hotelID uuid.UUID) ([]uuid.UUID, error)
	Replace(ctx context.Context, profileID, hotelID uuid.UUID, areaIDs []uuid.UUID) error
}

// Locker serializes grant replacement per (profile, hotel) key.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(context.Context) error) error
}

// Service handles grant synchronization business logic.
type Service struct {
	repo   RepositoryPort
	locker Locker
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, locker Locker) *Service {
	return &Service{repo: repo, locker: locker}
}

// List returns the area ids currently granted to the profile in the hotel.
func (s *Service) List(ctx context.Context, profileID, hotelID uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.List(ctx, profileID, hotelID)
}

// Replace swaps the complete grant set. Callers always submit the desired
// end state; an empty set revokes everything. Returns the number of grants
// now in force.
func (s *Service) Replace(ctx context.Context, profileID, hotelID uuid.UUID, areaIDs []uuid.UUID) (int, error) {
	unique := dedupe(areaIDs)

	var count int
	err := s.locker.WithLock(ctx, shared.GrantLockKey(profileID, hotelID), func(ctx context.Context) error {
		profileHotel, err := s.repo.ProfileHotel(ctx, profileID)
		if err != nil {
			if errors.Is(err, ErrProfileNotFound) {
				return fmt.Errorf("%w: profile %s", httpx.ErrNotFound, profileID)
			}
			return err
		}
		if profileHotel != nil && *profileHotel != hotelID {
			return fmt.Errorf("%w: profile belongs to a different hotel", httpx.ErrValidation)
		}

		if len(unique) > 0 {
			owned, err := s.repo.CountAreasForHotel(ctx, hotelID, unique)
			if err != nil {
				return err
			}
			if owned != len(unique) {
				return fmt.Errorf("%w: one or more areas do not belong to hotel %s", httpx.ErrValidation, hotelID)
			}
		}

		if err := s.repo.Replace(ctx, profileID, hotelID, unique); err != nil {
			return err
		}
		count = len(unique)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}
