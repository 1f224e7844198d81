// Package directory performs identity lifecycle on behalf of tenant admins.
// Every operation authorizes the caller before the elevated-trust provider
// client or the profile store is touched.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/audithub/audithub/internal/authz"
	"github.com/audithub/audithub/internal/identity"
	"github.com/audithub/audithub/internal/platform/httpx"
	"github.com/audithub/audithub/internal/platform/idp"
	"github.com/audithub/audithub/internal/shared"
)

// ProviderPort is the elevated-trust identity provider client.
type ProviderPort interface {
	CreateUser(ctx context.Context, email, password string) (uuid.UUID, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListUsers(ctx context.Context, page, perPage int) ([]idp.Identity, error)
}

// RepositoryPort defines data access methods for profiles.
type RepositoryPort interface {
	UpsertProfile(ctx context.Context, p identity.Profile) error
	GetProfile(ctx context.Context, id uuid.UUID) (identity.Profile, error)
	ListProfiles(ctx context.Context, hotelID uuid.UUID) ([]identity.Profile, error)
	DeleteProfile(ctx context.Context, id uuid.UUID) error
}

// GrantRemover revokes every grant a profile holds in a hotel.
type GrantRemover interface {
	DeleteAllForUser(ctx context.Context, profileID, hotelID uuid.UUID) (int64, error)
}

// AuditRecorder persists privileged mutations for operators.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// DenialRecorder counts authorization denials for operators.
type DenialRecorder interface {
	PolicyDenied(reason string)
}

// ServiceConfig tunes provider-side listing.
type ServiceConfig struct {
	// ListPageSize is the provider page size for email resolution.
	ListPageSize int
	// ListMaxPages bounds pagination so a misbehaving provider cannot stall
	// the listing forever.
	ListMaxPages int
}

// Service handles identity lifecycle business logic.
type Service struct {
	provider ProviderPort
	repo     RepositoryPort
	grants   GrantRemover
	audit    AuditRecorder
	denials  DenialRecorder
	logger   *slog.Logger
	cfg      ServiceConfig
}

// NewService builds a Service instance.
func NewService(provider ProviderPort, repo RepositoryPort, grants GrantRemover, audit AuditRecorder, denials DenialRecorder, logger *slog.Logger, cfg ServiceConfig) *Service {
	if cfg.ListPageSize <= 0 {
		cfg.ListPageSize = 200
	}
	if cfg.ListMaxPages <= 0 {
		cfg.ListMaxPages = 10
	}
	return &Service{provider: provider, repo: repo, grants: grants, audit: audit, denials: denials, logger: logger, cfg: cfg}
}

func (s *Service) deny(reason string) {
	if s.denials != nil {
		s.denials.PolicyDenied(reason)
	}
}

// CreateIdentity registers a provider identity and its profile. When the
// profile write fails the just-created identity is deleted again so no
// orphaned credential survives the request.
func (s *Service) CreateIdentity(ctx context.Context, caller authz.Caller, input CreateIdentityInput) (uuid.UUID, error) {
	target := authz.Target{HotelID: input.HotelID, Role: input.Role}
	if decision := authz.Authorize(caller, authz.ActionCreateIdentity, target); !decision.Allowed {
		s.deny(decision.Reason)
		return uuid.Nil, fmt.Errorf("%w: %s", httpx.ErrForbidden, decision.Reason)
	}

	id, err := s.provider.CreateUser(ctx, input.Email, input.Password)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create provider identity: %w", err)
	}

	hotelID := input.HotelID
	profile := identity.Profile{
		ID:       id,
		HotelID:  &hotelID,
		Role:     input.Role,
		Active:   true,
		FullName: input.FullName,
	}
	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		if compErr := s.provider.DeleteUser(ctx, id); compErr != nil {
			s.logger.Error("saga compensation failed, orphaned credential",
				slog.String("identity_id", id.String()),
				slog.Any("error", compErr))
		}
		return uuid.Nil, fmt.Errorf("write profile: %w", err)
	}

	s.recordAudit(ctx, caller, "identity.create", id, map[string]any{
		"hotel_id": input.HotelID.String(),
		"role":     string(input.Role),
	})
	return id, nil
}

// DeleteIdentity removes grants, profile and provider identity in that
// order, so a late failure leaves at worst a credential with no permissions.
func (s *Service) DeleteIdentity(ctx context.Context, caller authz.Caller, targetID, hotelID uuid.UUID) error {
	profile, err := s.repo.GetProfile(ctx, targetID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return fmt.Errorf("%w: identity %s", httpx.ErrNotFound, targetID)
		}
		return err
	}

	// The stored profile is authoritative for the target's tenant; the
	// client-declared hotel_id is only cross-checked.
	targetHotel := hotelID
	if profile.HotelID != nil {
		targetHotel = *profile.HotelID
	}
	if profile.HotelID != nil && *profile.HotelID != hotelID && caller.Role != authz.RoleSuperadmin {
		return fmt.Errorf("%w: identity belongs to a different hotel", httpx.ErrValidation)
	}

	target := authz.Target{ID: profile.ID, HotelID: targetHotel, Role: profile.Role}
	if decision := authz.Authorize(caller, authz.ActionDeleteIdentity, target); !decision.Allowed {
		s.deny(decision.Reason)
		return fmt.Errorf("%w: %s", httpx.ErrForbidden, decision.Reason)
	}

	removed, err := s.grants.DeleteAllForUser(ctx, targetID, targetHotel)
	if err != nil {
		return fmt.Errorf("revoke grants: %w", err)
	}
	if err := s.repo.DeleteProfile(ctx, targetID); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if err := s.provider.DeleteUser(ctx, targetID); err != nil {
		if errors.Is(err, idp.ErrNotFound) {
			s.logger.Warn("provider identity already absent", slog.String("identity_id", targetID.String()))
		} else {
			return fmt.Errorf("delete provider identity: %w", err)
		}
	}

	s.recordAudit(ctx, caller, "identity.delete", targetID, map[string]any{
		"hotel_id":       targetHotel.String(),
		"grants_removed": removed,
	})
	return nil
}

// ListIdentities joins tenant profiles against provider-side emails. Email
// resolution is best-effort: a provider hiccup degrades the listing to
// identity ids instead of failing it.
func (s *Service) ListIdentities(ctx context.Context, caller authz.Caller, hotelID uuid.UUID) ([]IdentitySummary, error) {
	if decision := authz.Authorize(caller, authz.ActionListIdentities, authz.Target{HotelID: hotelID}); !decision.Allowed {
		s.deny(decision.Reason)
		return nil, fmt.Errorf("%w: %s", httpx.ErrForbidden, decision.Reason)
	}

	profiles, err := s.repo.ListProfiles(ctx, hotelID)
	if err != nil {
		return nil, err
	}

	emails := s.resolveEmails(ctx)
	summaries := make([]IdentitySummary, 0, len(profiles))
	for _, p := range profiles {
		email, ok := emails[p.ID]
		if !ok || email == "" {
			email = p.ID.String()
		}
		status := "inactive"
		if p.Active {
			status = "active"
		}
		summaries = append(summaries, IdentitySummary{
			ID:       p.ID,
			Email:    email,
			FullName: p.FullName,
			Role:     p.Role,
			Status:   status,
		})
	}
	return summaries, nil
}

func (s *Service) resolveEmails(ctx context.Context) map[uuid.UUID]string {
	emails := make(map[uuid.UUID]string)
	for page := 1; page <= s.cfg.ListMaxPages; page++ {
		idents, err := s.provider.ListUsers(ctx, page, s.cfg.ListPageSize)
		if err != nil {
			s.logger.Warn("resolve emails", slog.Int("page", page), slog.Any("error", err))
			break
		}
		for _, ident := range idents {
			emails[ident.ID] = ident.Email
		}
		if len(idents) < s.cfg.ListPageSize {
			break
		}
	}
	return emails
}

func (s *Service) recordAudit(ctx context.Context, caller authz.Caller, action string, entityID uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	log := shared.AuditLog{
		ActorID:  caller.ID,
		Action:   action,
		Entity:   "identity",
		EntityID: entityID.String(),
		Meta:     meta,
	}
	if err := s.audit.Record(ctx, log); err != nil {
		s.logger.Warn("record audit", slog.String("action", action), slog.Any("error", err))
	}
}
