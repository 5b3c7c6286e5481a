package journal

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/retail-pos-engine/internal/domain/closure"
	"github.com/retail-pos-engine/internal/domain/document"
	"github.com/retail-pos-engine/internal/domain/shared"
)

var ErrEmptyEvent = errors.New("event carries neither a document nor a closure")

// Event is the payload published for every outbox message
type Event struct {
	EventType     shared.EventType            `json:"event_type"`
	RegisterID    int                         `json:"register_id"`
	AggregateID   uuid.UUID                   `json:"aggregate_id"`
	CorrelationID string                      `json:"correlation_id,omitempty"`
	OccurredAt    time.Time                   `json:"occurred_at"`
	Document      *document.PermanentDocument `json:"document,omitempty"`
	Closure       *closure.Period             `json:"closure,omitempty"`
}

func NewDocumentPromoted(doc *document.PermanentDocument, correlationID string) Event {
	return Event{
		EventType:     shared.EventTypeDocumentPromoted,
		RegisterID:    doc.RegisterID,
		AggregateID:   doc.ID,
		CorrelationID: correlationID,
		OccurredAt:    doc.PromotedAt,
		Document:      doc,
	}
}

// NewClosureClosed carries the sealed period as the Z-report
func NewClosureClosed(p *closure.Period, correlationID string) Event {
	occurred := time.Now().UTC()
	if p.EndTime != nil {
		occurred = *p.EndTime
	}
	return Event{
		EventType:     shared.EventTypeClosureClosed,
		RegisterID:    p.RegisterID,
		AggregateID:   p.ID,
		CorrelationID: correlationID,
		OccurredAt:    occurred,
		Closure:       p,
	}
}

// Validate checks the event carries the body its type promises
func (e Event) Validate() error {
	switch e.EventType {
	case shared.EventTypeDocumentPromoted:
		if e.Document == nil {
			return ErrEmptyEvent
		}
	case shared.EventTypeClosureClosed:
		if e.Closure == nil {
			return ErrEmptyEvent
		}
	default:
		return ErrUnknownEventType{EventType: e.EventType}
	}
	return nil
}

type ErrUnknownEventType struct {
	EventType shared.EventType
}

func (e ErrUnknownEventType) Error() string {
	return "unknown event type: " + string(e.EventType)
}
