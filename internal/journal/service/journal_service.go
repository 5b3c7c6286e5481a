package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/retail-pos-engine/internal/domain/journal"
	"github.com/retail-pos-engine/internal/platform/metrics"
)

// JournalServiceImpl implements JournalService on a journal repository
type JournalServiceImpl struct {
	repo    journal.Repository
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewJournalService(logger *slog.Logger, repo journal.Repository, m *metrics.Metrics) *JournalServiceImpl {
	return &JournalServiceImpl{
		repo:    repo,
		metrics: m,
		logger:  logger,
	}
}

// Record flattens the event and stores it. Kafka delivers at least once, so a
// duplicate entry is counted and treated as success.
func (s *JournalServiceImpl) Record(ctx context.Context, event *journal.Event, raw json.RawMessage) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}
	eventType := string(event.EventType)

	entry, err := journal.NewEntry(*event, raw)
	if err != nil {
		s.metrics.JournalEntry(eventType, metrics.OutcomeFailure)
		return fmt.Errorf("failed to build journal entry for %s: %w", event.AggregateID, err)
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		if errors.Is(err, journal.ErrDuplicateEntry{}) {
			s.metrics.JournalEntry(eventType, metrics.OutcomeDuplicate)
			logger.Info("Journal entry already recorded, skipping",
				"aggregate_id", event.AggregateID.String(),
				"event_type", eventType)
			return nil
		}
		s.metrics.JournalEntry(eventType, metrics.OutcomeFailure)
		logger.Error("Failed to record journal entry",
			"aggregate_id", event.AggregateID.String(),
			"event_type", eventType,
			"error", err)
		return fmt.Errorf("failed to record journal entry for %s: %w", event.AggregateID, err)
	}

	s.metrics.JournalEntry(eventType, metrics.OutcomeSuccess)
	logger.Info("Journal entry recorded",
		"aggregate_id", event.AggregateID.String(),
		"event_type", eventType,
		"reference", entry.Reference,
		"register_id", entry.RegisterID)
	return nil
}

var _ JournalService = (*JournalServiceImpl)(nil)
