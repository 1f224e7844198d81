package grants

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/audithub/audithub/internal/platform/httpx"
)

type memoryRepo struct {
	profileHotels map[uuid.UUID]*uuid.UUID
	areaOwners    map[uuid.UUID]uuid.UUID
	grants        map[uuid.UUID][]uuid.UUID
	replaceCalls  int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		profileHotels: make(map[uuid.UUID]*uuid.UUID),
		areaOwners:    make(map[uuid.UUID]uuid.UUID),
		grants:        make(map[uuid.UUID][]uuid.UUID),
	}
}

func (r *memoryRepo) ProfileHotel(ctx context.Context, profileID uuid.UUID) (*uuid.UUID, error) {
	hotel, ok := r.profileHotels[profileID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return hotel, nil
}

func (r *memoryRepo) CountAreasForHotel(ctx context.Context, hotelID uuid.UUID, areaIDs []uuid.UUID) (int, error) {
	count := 0
	for _, id := range areaIDs {
		if owner, ok := r.areaOwners[id]; ok && owner == hotelID {
			count++
		}
	}
	return count, nil
}

func (r *memoryRepo) List(ctx context.Context, profileID, hotelID uuid.UUID) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, len(r.grants[profileID]))
	copy(out, r.grants[profileID])
	return out, nil
}

func (r *memoryRepo) Replace(ctx context.Context, profileID, hotelID uuid.UUID, areaIDs []uuid.UUID) error {
	r.replaceCalls++
	stored := make([]uuid.UUID, len(areaIDs))
	copy(stored, areaIDs)
	r.grants[profileID] = stored
	return nil
}

type noopLocker struct{}

func (noopLocker) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	return fn(ctx)
}

func seed(t *testing.T) (*memoryRepo, *Service, uuid.UUID, uuid.UUID, []uuid.UUID) {
	t.Helper()
	repo := newMemoryRepo()
	hotel := uuid.New()
	profile := uuid.New()
	repo.profileHotels[profile] = &hotel
	areas := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, a := range areas {
		repo.areaOwners[a] = hotel
	}
	return repo, NewService(repo, noopLocker{}), profile, hotel, areas
}

func TestReplaceFullSet(t *testing.T) {
	repo, svc, profile, hotel, areas := seed(t)
	ctx := context.Background()

	count, err := svc.Replace(ctx, profile, hotel, areas)
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.ElementsMatch(t, areas, repo.grants[profile])

	// Idempotent: same desired set, same count, same stored grants.
	count, err = svc.Replace(ctx, profile, hotel, areas)
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.ElementsMatch(t, areas, repo.grants[profile])
}

func TestReplaceDeduplicates(t *testing.T) {
	_, svc, profile, hotel, areas := seed(t)

	count, err := svc.Replace(context.Background(), profile, hotel, []uuid.UUID{areas[0], areas[0], areas[1]})
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestReplaceEmptyRevokesAll(t *testing.T) {
	repo, svc, profile, hotel, areas := seed(t)
	ctx := context.Background()

	_, err := svc.Replace(ctx, profile, hotel, areas)
	require.NoError(t, err)

	count, err := svc.Replace(ctx, profile, hotel, nil)
	require.NoError(t, err)
	require.Equal(t, 0, count)
	require.Empty(t, repo.grants[profile])
}

func TestReplaceForeignAreaFailsWithoutMutation(t *testing.T) {
	repo, svc, profile, hotel, areas := seed(t)
	ctx := context.Background()

	_, err := svc.Replace(ctx, profile, hotel, areas[:1])
	require.NoError(t, err)
	require.Equal(t, 1, repo.replaceCalls)

	foreign := uuid.New()
	repo.areaOwners[foreign] = uuid.New()

	_, err = svc.Replace(ctx, profile, hotel, []uuid.UUID{areas[0], foreign})
	require.ErrorIs(t, err, httpx.ErrValidation)
	require.Equal(t, 1, repo.replaceCalls, "no mutation on invalid reference")
	require.ElementsMatch(t, areas[:1], repo.grants[profile])
}

func TestReplaceUnknownAreaFails(t *testing.T) {
	repo, svc, profile, hotel, _ := seed(t)

	_, err := svc.Replace(context.Background(), profile, hotel, []uuid.UUID{uuid.New()})
	require.ErrorIs(t, err, httpx.ErrValidation)
	require.Zero(t, repo.replaceCalls)
}

func TestReplaceUnknownProfile(t *testing.T) {
	_, svc, _, hotel, areas := seed(t)

	_, err := svc.Replace(context.Background(), uuid.New(), hotel, areas)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestReplaceProfileFromOtherHotel(t *testing.T) {
	repo, svc, _, hotel, areas := seed(t)
	other := uuid.New()
	stranger := uuid.New()
	repo.profileHotels[stranger] = &other

	_, err := svc.Replace(context.Background(), stranger, hotel, areas)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestReplaceSuperadminProfileWithoutHotel(t *testing.T) {
	repo, svc, _, hotel, areas := seed(t)
	super := uuid.New()
	repo.profileHotels[super] = nil

	count, err := svc.Replace(context.Background(), super, hotel, areas)
	require.NoError(t, err)
	require.Equal(t, 3, count)
}
