// Package storage groups the repositories a register writes in one
// transaction.
package storage

import (
	"context"

	"github.com/retail-pos-engine/internal/domain/closure"
	"github.com/retail-pos-engine/internal/domain/document"
	"github.com/retail-pos-engine/internal/domain/outbox"
)

// SequenceRepository hands out per-register receipt numbers
type SequenceRepository interface {
	NextReceiptNumber(ctx context.Context, registerID int) (int64, error)
}

// Repositories is a consistent set of repositories. Inside Execute they are
// bound to the running transaction.
type Repositories struct {
	Working   document.WorkingRepository
	Documents document.PermanentRepository
	Closures  closure.Repository
	Sequences SequenceRepository
	Outbox    outbox.Repository
}

// UnitOfWork runs fn atomically. Any error from fn, or a panic, discards every
// write made through the repositories it was given.
type UnitOfWork interface {
	Repositories() Repositories
	Execute(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
