package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/retail-pos-engine/internal/domain/storage"
	"github.com/retail-pos-engine/internal/platform/persistence"
)

// DB is a connection pool that can also start transactions
type DB interface {
	persistence.Querier
	persistence.TxBeginner
}

// UnitOfWork runs register writes in one Postgres transaction
type UnitOfWork struct {
	db        DB
	logger    *slog.Logger
	working   *WorkingRepository
	documents *DocumentRepository
	closures  *ClosureRepository
	sequences *SequenceRepository
	outbox    *OutboxRepository
}

func NewUnitOfWork(logger *slog.Logger, db DB) *UnitOfWork {
	return &UnitOfWork{
		db:        db,
		logger:    logger,
		working:   NewWorkingRepository(logger, db),
		documents: NewDocumentRepository(logger, db),
		closures:  NewClosureRepository(logger, db),
		sequences: NewSequenceRepository(logger, db),
		outbox:    NewOutboxRepository(logger, db),
	}
}

// Repositories returns pool-bound repositories for reads and single writes
func (u *UnitOfWork) Repositories() storage.Repositories {
	return storage.Repositories{
		Working:   u.working,
		Documents: u.documents,
		Closures:  u.closures,
		Sequences: u.sequences,
		Outbox:    u.outbox,
	}
}

func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, repos storage.Repositories) error) error {
	return persistence.ExecuteTx(ctx, u.db, func(tx pgx.Tx) error {
		return fn(ctx, storage.Repositories{
			Working:   u.working.WithTx(tx),
			Documents: u.documents.WithTx(tx),
			Closures:  u.closures.WithTx(tx),
			Sequences: u.sequences.WithTx(tx),
			Outbox:    u.outbox.WithTx(tx),
		})
	})
}
