package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/retail-pos-engine/internal/domain/closure"
	"github.com/retail-pos-engine/internal/domain/document"
	"github.com/retail-pos-engine/internal/domain/journal"
	"github.com/retail-pos-engine/internal/domain/outbox"
	"github.com/retail-pos-engine/internal/domain/shared"
	"github.com/retail-pos-engine/internal/platform/messaging/producers"
	"github.com/retail-pos-engine/internal/platform/metrics"
)

// ErrUndecodablePayload marks a message that can never be published
var ErrUndecodablePayload = errors.New("outbox payload cannot be decoded")

// EventPublisher publishes one outbox message and marks it processed
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *outbox.Message) error
}

// Ingestor is the part of the closure manager a replay needs
type Ingestor interface {
	Ingest(ctx context.Context, doc *document.PermanentDocument) (bool, error)
}

// EventPublisherImpl implements EventPublisher
type EventPublisherImpl struct {
	outboxRepo outbox.Repository
	documents  document.PermanentRepository
	closures   Ingestor
	producer   producers.EventPublisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewEventPublisher creates a new publisher
func NewEventPublisher(
	outboxRepo outbox.Repository,
	documents document.PermanentRepository,
	closures Ingestor,
	producer producers.EventPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *EventPublisherImpl {
	return &EventPublisherImpl{
		outboxRepo: outboxRepo,
		documents:  documents,
		closures:   closures,
		producer:   producer,
		metrics:    m,
		logger:     logger,
	}
}

// PublishEvent repairs the closure ingestion of a promoted document, sends
// the event to Kafka and marks the message PROCESSED. A payload that cannot
// be decoded is failed at once.
func (p *EventPublisherImpl) PublishEvent(ctx context.Context, message *outbox.Message) error {
	event, err := message.GetEvent()
	if err == nil {
		err = event.Validate()
	}
	if err != nil {
		p.logger.Error("Failed to decode outbox payload",
			"outbox_id", message.ID, "event_type", string(message.EventType), "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after decode error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("%w: outbox %d: %v", ErrUndecodablePayload, message.ID, err)
	}

	logger := p.logger
	if event.CorrelationID != "" {
		logger = p.logger.With("correlation_id", event.CorrelationID)
	}

	if event.EventType == shared.EventTypeDocumentPromoted {
		if err := p.replayIngestion(ctx, logger, event); err != nil {
			return err
		}
	}

	key := strconv.Itoa(message.RegisterID)
	if err := p.producer.Publish(ctx, key, string(event.EventType), message.Payload); err != nil {
		return fmt.Errorf("failed to publish outbox %d: %w", message.ID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "aggregate_id", message.AggregateID.String(), "error", err,
		)
		return fmt.Errorf("event for %s published, but failed to mark outbox %d as PROCESSED: %w", message.AggregateID, message.ID, err)
	}

	logger.Info("Outbox message published and marked as PROCESSED",
		"outbox_id", message.ID, "event_type", string(event.EventType))
	return nil
}

// replayIngestion re-applies the stored document to the open closure period.
// Ingest is idempotent, so this only changes anything when the original
// ingestion was lost. Documents of a sealed period were counted by its close.
func (p *EventPublisherImpl) replayIngestion(ctx context.Context, logger *slog.Logger, event *journal.Event) error {
	doc, err := p.documents.Get(ctx, event.AggregateID)
	if err != nil {
		logger.Error("Failed to reload promoted document", "document_id", event.AggregateID.String(), "error", err)
		return fmt.Errorf("failed to reload document %s: %w", event.AggregateID, err)
	}

	applied, err := p.closures.Ingest(ctx, doc)
	if errors.Is(err, closure.ErrPeriodMismatch{}) {
		// A close counts its own pending documents before sealing
		logger.Warn("Skipping ingestion replay for a document of another period",
			"document_id", doc.ID.String(),
			"closure_period_id", doc.ClosurePeriodID.String())
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to replay ingestion of document %s: %w", doc.ID, err)
	}
	if applied {
		p.metrics.ClosureReplayed()
		logger.Info("Replayed missed closure ingestion", "document_id", doc.ID.String())
	}
	return nil
}
