// Package identity resolves bearer credentials into an authenticated caller
// context for the remainder of request handling.
package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/audithub/audithub/internal/authz"
	"github.com/audithub/audithub/internal/platform/httpx"
	"github.com/audithub/audithub/internal/platform/idp"
)

// TokenVerifier validates a bearer token against the identity provider.
type TokenVerifier interface {
	UserForToken(ctx context.Context, token string) (idp.Identity, error)
}

// ProfileStore loads the caller's profile from the relational store.
type ProfileStore interface {
	GetProfile(ctx context.Context, id uuid.UUID) (Profile, error)
}

// Resolver turns an Authorization header into an authz.Caller.
type Resolver struct {
	verifier TokenVerifier
	profiles ProfileStore
}

// NewResolver constructs a Resolver.
func NewResolver(verifier TokenVerifier, profiles ProfileStore) *Resolver {
	return &Resolver{verifier: verifier, profiles: profiles}
}

// Resolve authenticates the raw Authorization header value. Any provider or
// lookup failure maps to Unauthenticated; an inactive profile maps to
// Forbidden. The returned caller is immutable for the request lifetime.
func (r *Resolver) Resolve(ctx context.Context, authorization string) (authz.Caller, error) {
	token, ok := bearerToken(authorization)
	if !ok {
		return authz.Caller{}, fmt.Errorf("%w: missing bearer credential", httpx.ErrUnauthenticated)
	}

	ident, err := r.verifier.UserForToken(ctx, token)
	if err != nil {
		return authz.Caller{}, fmt.Errorf("%w: credential rejected", httpx.ErrUnauthenticated)
	}

	profile, err := r.profiles.GetProfile(ctx, ident.ID)
	if err != nil {
		return authz.Caller{}, fmt.Errorf("%w: no profile for identity", httpx.ErrUnauthenticated)
	}
	if !profile.Active {
		return authz.Caller{}, fmt.Errorf("%w: profile inactive", httpx.ErrForbidden)
	}

	return authz.Caller{
		ID:      profile.ID,
		HotelID: profile.HotelID,
		Role:    profile.Role,
		Active:  profile.Active,
	}, nil
}

func bearerToken(authorization string) (string, bool) {
	value := strings.TrimSpace(authorization)
	if value == "" {
		return "", false
	}
	const prefix = "Bearer "
	if len(value) <= len(prefix) || !strings.EqualFold(value[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(value[len(prefix):])
	if token == "" {
		return "", false
	}
	return token, true
}
