package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/retail-pos-engine/internal/config"
	"github.com/retail-pos-engine/internal/domain/closure"
	"github.com/retail-pos-engine/internal/domain/document"
	"github.com/retail-pos-engine/internal/domain/journal"
	"github.com/retail-pos-engine/internal/domain/outbox"
	"github.com/retail-pos-engine/internal/domain/shared"
	"github.com/retail-pos-engine/internal/domain/storage"
	"github.com/retail-pos-engine/internal/logger"
	"github.com/retail-pos-engine/internal/platform/metrics"
)

// pendingIngestLimit bounds the outbox scan a close does before sealing
const pendingIngestLimit = 1000

// ClosureManagerImpl implements the ClosureManager interface
type ClosureManagerImpl struct {
	uow          storage.UnitOfWork
	registerID   int
	storeID      string
	baseCurrency string
	metrics      *metrics.Metrics
	logger       *slog.Logger
	now          Clock
}

var _ ClosureManager = (*ClosureManagerImpl)(nil)

// NewClosureManager creates a closure manager for the configured register
func NewClosureManager(logger *slog.Logger, uow storage.UnitOfWork, cfg config.RegisterConfig, m *metrics.Metrics) *ClosureManagerImpl {
	return &ClosureManagerImpl{
		uow:          uow,
		registerID:   cfg.ID,
		storeID:      cfg.StoreID,
		baseCurrency: cfg.BaseCurrency,
		metrics:      m,
		logger:       logger,
		now:          utcNow,
	}
}

// WithClock replaces the time source
func (s *ClosureManagerImpl) WithClock(now Clock) *ClosureManagerImpl {
	s.now = now
	return s
}

// EnsureOpenPeriod loads the open period or creates the first one of the
// register. Losing a creation race to another writer is answered by reading
// the winner's period.
func (s *ClosureManagerImpl) EnsureOpenPeriod(ctx context.Context) (*closure.Period, error) {
	p, err := s.uow.Repositories().Closures.GetOpen(ctx, s.registerID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, closure.ErrNoOpenPeriod) {
		return nil, fmt.Errorf("failed to load open period: %w", err)
	}

	var created *closure.Period
	err = s.uow.Execute(ctx, func(ctx context.Context, repos storage.Repositories) error {
		var err error
		created, err = s.openWithin(ctx, repos.Closures, "")
		return err
	})
	if errors.Is(err, closure.ErrOpenPeriodExists) {
		s.logger.Info("Open period created concurrently, reloading", "register_id", s.registerID)
		return s.uow.Repositories().Closures.GetOpen(ctx, s.registerID)
	}
	if err != nil {
		s.logger.Error("Failed to open closure period", "register_id", s.registerID, "error", err)
		return nil, fmt.Errorf("failed to open closure period: %w", err)
	}
	return created, nil
}

func (s *ClosureManagerImpl) Current(ctx context.Context) (*closure.Period, error) {
	return s.EnsureOpenPeriod(ctx)
}

// openWithin returns the open period seen by the transaction, creating one
// when there is none
func (s *ClosureManagerImpl) openWithin(ctx context.Context, repo closure.Repository, openedBy string) (*closure.Period, error) {
	p, err := repo.LockOpen(ctx, s.registerID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, closure.ErrNoOpenPeriod) {
		return nil, err
	}
	return s.createPeriod(ctx, repo, openedBy)
}

func (s *ClosureManagerImpl) createPeriod(ctx context.Context, repo closure.Repository, openedBy string) (*closure.Period, error) {
	now := s.now()
	seq, err := repo.NextSequenceNumber(ctx, s.registerID, closure.BusinessDate(now))
	if err != nil {
		return nil, err
	}

	p := closure.NewPeriod(closure.NewPeriodParams{
		RegisterID:     s.registerID,
		StoreID:        s.storeID,
		BaseCurrency:   s.baseCurrency,
		OpenedBy:       openedBy,
		SequenceNumber: seq,
		Now:            now,
	})
	if err := repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("Closure period opened",
		"period_id", p.ID.String(),
		"unique_id", p.UniqueID)
	return p, nil
}

// Ingest applies a promoted document to the open period. The ingestion marker
// and the period update commit together, so a replay is a no-op. A document
// stamped with any other period is rejected with ErrPeriodMismatch.
func (s *ClosureManagerImpl) Ingest(ctx context.Context, doc *document.PermanentDocument) (bool, error) {
	applied := false
	err := s.uow.Execute(ctx, func(ctx context.Context, repos storage.Repositories) error {
		p, err := s.openWithin(ctx, repos.Closures, "")
		if err != nil {
			return err
		}
		if doc.ClosurePeriodID != p.ID {
			return closure.ErrPeriodMismatch{DocumentID: doc.ID, DocumentPeriod: doc.ClosurePeriodID, OpenPeriod: p.ID}
		}

		fresh, err := repos.Closures.MarkIngested(ctx, p.ID, doc.ID)
		if err != nil {
			return err
		}
		if !fresh {
			return nil
		}

		if err := p.Apply(closure.ContributionOf(doc)); err != nil {
			return err
		}
		if err := repos.Closures.SaveProgress(ctx, p); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if errors.Is(err, closure.ErrPeriodMismatch{}) {
		s.logger.Warn("Document does not belong to the open period",
			"document_id", doc.ID.String(),
			"closure_period_id", doc.ClosurePeriodID.String())
		return false, err
	}
	if err != nil {
		s.logger.Error("Failed to ingest document into closure",
			"document_id", doc.ID.String(),
			"error", err)
		return false, fmt.Errorf("failed to ingest document: %w", err)
	}

	s.metrics.ClosureIngested(applied)
	if !applied {
		s.logger.Info("Document already ingested", "document_id", doc.ID.String())
	}
	return applied, nil
}

// Close seals the open period, freezes its summaries, opens the successor and
// enqueues the Z-report in one transaction. It refuses while a working
// document still holds live lines or waits for promotion, and first counts
// promoted documents whose ingestion was deferred to the outbox.
func (s *ClosureManagerImpl) Close(ctx context.Context, operator string, actualCash *decimal.Decimal, note string) (*closure.Period, *closure.Period, error) {
	if operator == "" {
		return nil, nil, closure.ErrClosureNotPossible{Reason: closure.ReasonNoOperator}
	}

	var closed, next *closure.Period
	err := s.uow.Execute(ctx, func(ctx context.Context, repos storage.Repositories) error {
		p, err := repos.Closures.LockOpen(ctx, s.registerID)
		if errors.Is(err, closure.ErrNoOpenPeriod) {
			return closure.ErrClosureNotPossible{Reason: closure.ReasonNoOpenPeriod}
		}
		if err != nil {
			return err
		}

		if err := s.ensureNoOpenDocuments(ctx, repos.Working); err != nil {
			return err
		}
		if err := s.ingestPending(ctx, repos, p); err != nil {
			return err
		}

		if err := p.Seal(operator, actualCash, note, s.now()); err != nil {
			return err
		}
		if err := repos.Closures.Seal(ctx, p); err != nil {
			return err
		}

		successor, err := s.createPeriod(ctx, repos.Closures, operator)
		if err != nil {
			return err
		}

		msg, err := outbox.NewMessage(journal.NewClosureClosed(p, logger.CorrelationID(ctx)))
		if err != nil {
			return fmt.Errorf("failed to build closure event: %w", err)
		}
		if err := repos.Outbox.Create(ctx, msg); err != nil {
			return err
		}

		closed, next = p, successor
		return nil
	})
	if err != nil {
		var notPossible closure.ErrClosureNotPossible
		if errors.As(err, &notPossible) {
			return nil, nil, err
		}
		s.logger.Error("Failed to close period", "operator", operator, "error", err)
		return nil, nil, fmt.Errorf("failed to close period: %w", err)
	}

	s.metrics.ClosureClosed()
	s.logger.Info("Closure period closed",
		"period_id", closed.ID.String(),
		"unique_id", closed.UniqueID,
		"closed_by", operator,
		"next_unique_id", next.UniqueID)
	return closed, next, nil
}

func (s *ClosureManagerImpl) ensureNoOpenDocuments(ctx context.Context, repo document.WorkingRepository) error {
	docs, err := repo.ListByStatus(ctx, s.registerID,
		document.StatusDraft, document.StatusActive, document.StatusSuspended,
		document.StatusCompleted, document.StatusCancelled)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if doc.Status.Terminal() || doc.Lines.LiveLineCount() > 0 {
			s.logger.Warn("Close refused, document still open",
				"document_id", doc.ID.String(),
				"status", string(doc.Status))
			return closure.ErrClosureNotPossible{Reason: closure.ReasonOpenDocuments}
		}
	}
	return nil
}

// ingestPending applies the period's promoted documents that are still
// waiting in the outbox for their ingestion replay
func (s *ClosureManagerImpl) ingestPending(ctx context.Context, repos storage.Repositories, p *closure.Period) error {
	messages, err := repos.Outbox.GetPending(ctx, pendingIngestLimit)
	if err != nil {
		return err
	}
	if len(messages) >= pendingIngestLimit {
		return closure.ErrClosureNotPossible{Reason: closure.ReasonPendingIngestion}
	}

	for _, msg := range messages {
		if msg.EventType != shared.EventTypeDocumentPromoted || msg.RegisterID != s.registerID {
			continue
		}
		doc, err := repos.Documents.Get(ctx, msg.AggregateID)
		if err != nil {
			return err
		}
		if doc.ClosurePeriodID != p.ID {
			continue
		}
		fresh, err := repos.Closures.MarkIngested(ctx, p.ID, doc.ID)
		if err != nil {
			return err
		}
		if !fresh {
			continue
		}
		if err := p.Apply(closure.ContributionOf(doc)); err != nil {
			return err
		}
		s.logger.Info("Ingested deferred document before close",
			"document_id", doc.ID.String(),
			"period_id", p.ID.String())
	}
	return nil
}
