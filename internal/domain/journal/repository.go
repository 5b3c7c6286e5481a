package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository stores journal entries. Create fails with ErrDuplicateEntry when
// the aggregate was already journaled.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByAggregateID(ctx context.Context, aggregateID uuid.UUID) (*Entry, error)
	ListByRegister(ctx context.Context, registerID int, from, to time.Time, limit, offset int) ([]*Entry, error)
	CountByRegister(ctx context.Context, registerID int) (int64, error)
}

// ErrEntryNotFound indicates missing journal entry
type ErrEntryNotFound struct {
	AggregateID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "journal entry not found: " + e.AggregateID.String()
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	if t.AggregateID == uuid.Nil {
		return true
	}
	return e.AggregateID == t.AggregateID
}

// ErrDuplicateEntry indicates the aggregate already has an entry
type ErrDuplicateEntry struct {
	AggregateID uuid.UUID
}

func (e ErrDuplicateEntry) Error() string {
	return "duplicate journal entry: " + e.AggregateID.String()
}

// Is implements the errors.Is interface for ErrDuplicateEntry
func (e ErrDuplicateEntry) Is(target error) bool {
	t, ok := target.(ErrDuplicateEntry)
	if !ok {
		return false
	}
	if t.AggregateID == uuid.Nil {
		return true
	}
	return e.AggregateID == t.AggregateID
}
