package closure

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists periods with their summary rows and ingestion markers.
// LockOpen must hold the open period row until the enclosing transaction ends.
type Repository interface {
	GetOpen(ctx context.Context, registerID int) (*Period, error)
	LockOpen(ctx context.Context, registerID int) (*Period, error)
	Get(ctx context.Context, id uuid.UUID) (*Period, error)
	NextSequenceNumber(ctx context.Context, registerID int, businessDate time.Time) (int, error)
	Create(ctx context.Context, p *Period) error
	SaveProgress(ctx context.Context, p *Period) error
	Seal(ctx context.Context, p *Period) error
	// MarkIngested records that a document was applied to a period. It
	// returns false when the document was already recorded.
	MarkIngested(ctx context.Context, periodID, documentID uuid.UUID) (bool, error)
}
