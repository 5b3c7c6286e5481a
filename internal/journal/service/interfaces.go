package service

import (
	"context"
	"encoding/json"

	"github.com/retail-pos-engine/internal/domain/journal"
)

// JournalService records published register events in the electronic journal
type JournalService interface {
	// Record writes one entry per aggregate. Recording the same aggregate
	// twice is a no-op.
	Record(ctx context.Context, event *journal.Event, raw json.RawMessage) error
}
