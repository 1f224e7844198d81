// Package ordering re-sequences question positions into a dense 1..N per
// section. The algorithm is deterministic and idempotent; it is run as a
// maintenance step after bulk template edits.
package ordering

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// RepositoryPort defines data access methods for question ordering.
type RepositoryPort interface {
	ListTemplateIDs(ctx context.Context) ([]uuid.UUID, error)
	ListQuestionsForTemplate(ctx context.Context, templateID uuid.UUID) ([]Question, error)
	UpdatePositions(ctx context.Context, updates []PositionUpdate) error
}

// Service handles order normalization business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Normalize assigns dense positions 1..N within each section of the
// template, preserving the records' pre-existing relative order. Only rows
// whose stored position differs from the computed one are written. Returns
// the number of rows actually changed.
func (s *Service) Normalize(ctx context.Context, templateID uuid.UUID) (int, error) {
	questions, err := s.repo.ListQuestionsForTemplate(ctx, templateID)
	if err != nil {
		return 0, err
	}

	bySection := make(map[uuid.UUID][]Question)
	for _, q := range questions {
		bySection[q.SectionID] = append(bySection[q.SectionID], q)
	}

	var updates []PositionUpdate
	for _, group := range bySection {
		sort.Slice(group, func(i, j int) bool {
			return less(group[i], group[j])
		})
		for idx, q := range group {
			want := idx + 1
			if q.Position == nil || *q.Position != want {
				updates = append(updates, PositionUpdate{ID: q.ID, Position: want})
			}
		}
	}

	if err := s.repo.UpdatePositions(ctx, updates); err != nil {
		return 0, err
	}
	return len(updates), nil
}

// NormalizeAll sweeps every template. Used by the nightly maintenance job.
func (s *Service) NormalizeAll(ctx context.Context) (int, error) {
	templateIDs, err := s.repo.ListTemplateIDs(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, id := range templateIDs {
		updated, err := s.Normalize(ctx, id)
		if err != nil {
			return total, err
		}
		total += updated
	}
	return total, nil
}

// less orders by explicit position (missing sorts last), then creation time
// (zero sorts first), then id lexicographic as the final deterministic
// tie-break.
func less(a, b Question) bool {
	switch {
	case a.Position != nil && b.Position != nil && *a.Position != *b.Position:
		return *a.Position < *b.Position
	case a.Position == nil && b.Position != nil:
		return false
	case a.Position != nil && b.Position == nil:
		return true
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return strings.Compare(a.ID.String(), b.ID.String()) < 0
}
