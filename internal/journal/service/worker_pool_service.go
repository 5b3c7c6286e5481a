package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/panjf2000/ants/v2"

	"github.com/retail-pos-engine/internal/domain/journal"
)

// WorkerPoolJournalService bounds concurrent journal writes with an ants pool
type WorkerPoolJournalService struct {
	baseService JournalService
	pool        *ants.Pool
	logger      *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolJournalService(
	baseService JournalService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolJournalService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolJournalService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

// Record runs the write on a pooled worker and waits for its result, so the
// consumer only commits the offset once the entry is stored
func (s *WorkerPoolJournalService) Record(ctx context.Context, event *journal.Event, raw json.RawMessage) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	resultChan := make(chan error, 1)
	eventCopy := *event

	err := s.pool.Submit(func() {
		resultChan <- s.baseService.Record(ctx, &eventCopy, raw)
	})
	if err != nil {
		logger.Error("Failed to submit journal entry to worker pool",
			"aggregate_id", event.AggregateID.String(),
			"error", err,
		)
		return err
	}

	select {
	case err := <-resultChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolJournalService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolJournalService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolJournalService) Capacity() int {
	return s.pool.Cap()
}
