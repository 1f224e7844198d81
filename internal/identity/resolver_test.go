package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/audithub/audithub/internal/authz"
	"github.com/audithub/audithub/internal/platform/httpx"
	"github.com/audithub/audithub/internal/platform/idp"
)

type stubVerifier struct {
	ident idp.Identity
	err   error
}

func (s *stubVerifier) UserForToken(ctx context.Context, token string) (idp.Identity, error) {
	return s.ident, s.err
}

type stubProfiles struct {
	profiles map[uuid.UUID]Profile
}

func (s *stubProfiles) GetProfile(ctx context.Context, id uuid.UUID) (Profile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return p, nil
}

func TestResolveMissingHeader(t *testing.T) {
	r := NewResolver(&stubVerifier{}, &stubProfiles{})

	for _, header := range []string{"", "Bearer", "Bearer   ", "Basic dXNlcg==", "token abc"} {
		_, err := r.Resolve(context.Background(), header)
		require.ErrorIs(t, err, httpx.ErrUnauthenticated, "header=%q", header)
	}
}

func TestResolveRejectedToken(t *testing.T) {
	r := NewResolver(&stubVerifier{err: idp.ErrInvalidToken}, &stubProfiles{})

	_, err := r.Resolve(context.Background(), "Bearer expired")
	require.ErrorIs(t, err, httpx.ErrUnauthenticated)
}

func TestResolveMissingProfile(t *testing.T) {
	id := uuid.New()
	r := NewResolver(&stubVerifier{ident: idp.Identity{ID: id}}, &stubProfiles{})

	_, err := r.Resolve(context.Background(), "Bearer ok")
	require.ErrorIs(t, err, httpx.ErrUnauthenticated)
}

func TestResolveInactiveProfile(t *testing.T) {
	id := uuid.New()
	profiles := &stubProfiles{profiles: map[uuid.UUID]Profile{
		id: {ID: id, Role: authz.RoleAdmin, Active: false},
	}}
	r := NewResolver(&stubVerifier{ident: idp.Identity{ID: id}}, profiles)

	_, err := r.Resolve(context.Background(), "Bearer ok")
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestResolveActiveProfile(t *testing.T) {
	id := uuid.New()
	hotel := uuid.New()
	profiles := &stubProfiles{profiles: map[uuid.UUID]Profile{
		id: {ID: id, HotelID: &hotel, Role: authz.RoleAdmin, Active: true, FullName: "Front Office"},
	}}
	r := NewResolver(&stubVerifier{ident: idp.Identity{ID: id}}, profiles)

	caller, err := r.Resolve(context.Background(), "bearer token-case-insensitive")
	require.NoError(t, err)
	require.Equal(t, id, caller.ID)
	require.NotNil(t, caller.HotelID)
	require.Equal(t, hotel, *caller.HotelID)
	require.Equal(t, authz.RoleAdmin, caller.Role)
	require.True(t, caller.Active)
}

func TestResolveProviderOutage(t *testing.T) {
	r := NewResolver(&stubVerifier{err: errors.New("connection refused")}, &stubProfiles{})

	_, err := r.Resolve(context.Background(), "Bearer ok")
	require.ErrorIs(t, err, httpx.ErrUnauthenticated)
}
