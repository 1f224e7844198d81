package ordering

import (
	"time"

	"github.com/google/uuid"
)

// Question is an ordered child record within a section. Position is nil when
// the record was created without an explicit order.
type Question struct {
	ID        uuid.UUID
	SectionID uuid.UUID
	Position  *int
	Active    bool
	CreatedAt time.Time
}

// PositionUpdate is one queued re-sequencing write.
type PositionUpdate struct {
	ID       uuid.UUID
	Position int
}
