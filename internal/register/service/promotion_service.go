package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/retail-pos-engine/internal/domain/document"
	"github.com/retail-pos-engine/internal/domain/journal"
	"github.com/retail-pos-engine/internal/domain/outbox"
	"github.com/retail-pos-engine/internal/domain/storage"
	"github.com/retail-pos-engine/internal/logger"
	"github.com/retail-pos-engine/internal/platform/metrics"
)

// Promotion stages reported by ErrPromotionIntegrity
const (
	StageLoad    = "load_working"
	StageCopy    = "copy"
	StageInsert  = "insert_permanent"
	StageDelete  = "delete_working"
	StageEnqueue = "enqueue_event"
	StageCommit  = "commit"
)

// PromotionServiceImpl implements the PromotionService interface
type PromotionServiceImpl struct {
	uow     storage.UnitOfWork
	ids     document.IDAllocator
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     Clock
}

var _ PromotionService = (*PromotionServiceImpl)(nil)

// NewPromotionService creates a promotion service. A nil ids allocator uses
// random UUIDs.
func NewPromotionService(logger *slog.Logger, uow storage.UnitOfWork, ids document.IDAllocator, m *metrics.Metrics) *PromotionServiceImpl {
	if ids == nil {
		ids = document.RandomIDs{}
	}
	return &PromotionServiceImpl{
		uow:     uow,
		ids:     ids,
		metrics: m,
		logger:  logger,
		now:     utcNow,
	}
}

// Promote copies the stored version of wd into permanent storage, deletes the
// working copy and enqueues a document.promoted event. All of it commits or
// none of it does.
func (s *PromotionServiceImpl) Promote(ctx context.Context, wd *document.WorkingDocument) (*document.PermanentDocument, error) {
	start := s.now()
	var perm *document.PermanentDocument

	err := s.uow.Execute(ctx, func(ctx context.Context, repos storage.Repositories) error {
		current, err := repos.Working.Get(ctx, wd.ID)
		if err != nil {
			if errors.Is(err, document.ErrDocumentNotFound{}) {
				return err
			}
			return &document.ErrPromotionIntegrity{DocumentID: wd.ID, Stage: StageLoad, Err: err}
		}

		p, dangling, err := document.Promote(current, s.ids, s.now())
		if err != nil {
			if errors.Is(err, document.ErrNotPromotable) {
				return err
			}
			return &document.ErrPromotionIntegrity{DocumentID: wd.ID, Stage: StageCopy, Err: err}
		}
		for _, ref := range dangling {
			s.logger.Warn("Dropped dangling reference during promotion",
				"document_id", wd.ID.String(),
				"line_kind", ref.LineKind,
				"line_id", ref.LineID.String(),
				"field", ref.Field,
				"target", ref.Target.String())
		}

		if err := repos.Documents.Create(ctx, p); err != nil {
			return &document.ErrPromotionIntegrity{DocumentID: wd.ID, Stage: StageInsert, Err: err}
		}
		if err := repos.Working.Delete(ctx, wd.ID); err != nil {
			return &document.ErrPromotionIntegrity{DocumentID: wd.ID, Stage: StageDelete, Err: err}
		}

		msg, err := outbox.NewMessage(journal.NewDocumentPromoted(p, logger.CorrelationID(ctx)))
		if err != nil {
			return &document.ErrPromotionIntegrity{DocumentID: wd.ID, Stage: StageEnqueue, Err: err}
		}
		if err := repos.Outbox.Create(ctx, msg); err != nil {
			return &document.ErrPromotionIntegrity{DocumentID: wd.ID, Stage: StageEnqueue, Err: err}
		}

		perm = p
		return nil
	})
	if err != nil {
		var integrity *document.ErrPromotionIntegrity
		switch {
		case errors.As(err, &integrity):
			s.logger.Error("Failed to promote document",
				"document_id", wd.ID.String(),
				"stage", integrity.Stage,
				"error", err)
			return nil, err
		case errors.Is(err, document.ErrDocumentNotFound{}), errors.Is(err, document.ErrNotPromotable):
			return nil, err
		default:
			s.logger.Error("Failed to commit promotion", "document_id", wd.ID.String(), "error", err)
			return nil, &document.ErrPromotionIntegrity{DocumentID: wd.ID, Stage: StageCommit, Err: err}
		}
	}

	s.metrics.DocumentPromoted(string(perm.Kind), string(perm.Status), s.now().Sub(start))
	s.logger.Info("Document promoted",
		"working_id", wd.ID.String(),
		"document_id", perm.ID.String(),
		"transaction_unique_id", perm.TransactionUniqueID,
		"status", string(perm.Status))
	return perm, nil
}
