package document

import (
	"context"

	"github.com/google/uuid"
)

// WorkingRepository stores in-progress documents. Save fails with
// ErrConcurrentModification when the stored version moved on.
type WorkingRepository interface {
	Create(ctx context.Context, doc *WorkingDocument) error
	Get(ctx context.Context, id uuid.UUID) (*WorkingDocument, error)
	Save(ctx context.Context, doc *WorkingDocument) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByStatus(ctx context.Context, registerID int, statuses ...Status) ([]*WorkingDocument, error)
}

// PermanentRepository stores promoted documents with all their lines
type PermanentRepository interface {
	Create(ctx context.Context, doc *PermanentDocument) error
	Get(ctx context.Context, id uuid.UUID) (*PermanentDocument, error)
}
