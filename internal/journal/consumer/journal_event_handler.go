package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/retail-pos-engine/internal/domain/journal"
	"github.com/retail-pos-engine/internal/journal/service"
	"github.com/retail-pos-engine/internal/platform/messaging/producers"
)

// JournalEventHandler handles register events consumed from Kafka
type JournalEventHandler struct {
	journalService service.JournalService
	producer       producers.DeadLetterPublisher
	logger         *slog.Logger
}

// NewJournalEventHandler creates a new handler. producer may be nil, in which
// case undecodable messages are retried by Kafka.
func NewJournalEventHandler(
	logger *slog.Logger,
	journalService service.JournalService,
	producer producers.DeadLetterPublisher,
) *JournalEventHandler {
	return &JournalEventHandler{
		journalService: journalService,
		producer:       producer,
		logger:         logger,
	}
}

// HandleMessage decodes a register event and journals it. A nil return
// commits the offset.
func (h *JournalEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event journal.Event
	err := json.Unmarshal(value, &event)
	if err == nil {
		err = event.Validate()
	}
	if err != nil {
		return h.deadLetter(ctx, key, value, err)
	}

	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Received register event",
		"event_type", string(event.EventType),
		"aggregate_id", event.AggregateID.String(),
		"register_id", event.RegisterID,
	)

	if err := h.journalService.Record(ctx, &event, json.RawMessage(value)); err != nil {
		logger.Error("Failed to journal register event",
			"aggregate_id", event.AggregateID.String(),
			"error", err,
		)
		return fmt.Errorf("journaling %s %s failed: %w", event.EventType, event.AggregateID, err)
	}
	return nil
}

func (h *JournalEventHandler) deadLetter(ctx context.Context, key, value []byte, cause error) error {
	const decodeErrorMsg = "Failed to decode register event from Kafka message"
	h.logger.Error(decodeErrorMsg,
		"error", cause,
		"message_key", string(key),
	)

	if h.producer == nil {
		return fmt.Errorf("failed to decode message value: %w", cause)
	}

	reason := fmt.Sprintf("%s: %s", decodeErrorMsg, cause.Error())
	if err := h.producer.PublishToDLQ(ctx, string(key), value, reason); err != nil {
		h.logger.Error("Failed to publish message to DLQ after decode error",
			"dlq_error", err,
			"original_error", cause,
			"message_key", string(key),
		)
		return fmt.Errorf("failed to decode message value: %w", cause)
	}

	h.logger.Info("Published undecodable message to DLQ", "message_key", string(key), "reason", reason)
	return nil
}
