// Package journal defines the electronic journal: an append-only audit copy of
// every promoted document and every closed period.
package journal

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/retail-pos-engine/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Entry is one journal record. Amounts are document totals for a promoted
// document and net/expected cash for a closed period.
type Entry struct {
	AggregateID   uuid.UUID        `json:"aggregate_id"`
	EventType     shared.EventType `json:"event_type"`
	RegisterID    int              `json:"register_id"`
	StoreID       string           `json:"store_id"`
	Reference     string           `json:"reference"`
	Kind          string           `json:"kind,omitempty"`
	Status        string           `json:"status,omitempty"`
	CashierID     string           `json:"cashier_id,omitempty"`
	Currency      string           `json:"currency"`
	TotalAmount   decimal.Decimal  `json:"total_amount"`
	TaxAmount     decimal.Decimal  `json:"tax_amount"`
	CashAmount    decimal.Decimal  `json:"cash_amount"`
	LineCount     int              `json:"line_count"`
	CorrelationID string           `json:"correlation_id,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
	RecordedAt    time.Time        `json:"recorded_at"`
	Payload       json.RawMessage  `json:"payload"`
}

// NewEntry flattens an event into a journal entry. raw is stored verbatim.
func NewEntry(ev Event, raw json.RawMessage) (*Entry, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}

	e := &Entry{
		AggregateID:   ev.AggregateID,
		EventType:     ev.EventType,
		RegisterID:    ev.RegisterID,
		CorrelationID: ev.CorrelationID,
		OccurredAt:    ev.OccurredAt,
		RecordedAt:    time.Now().UTC(),
		Payload:       raw,
	}

	if doc := ev.Document; doc != nil {
		e.StoreID = doc.StoreID
		e.Reference = doc.TransactionUniqueID
		e.Kind = string(doc.Kind)
		e.Status = string(doc.Status)
		e.CashierID = doc.CashierID
		e.Currency = doc.BaseCurrency
		e.TotalAmount = doc.Totals.Total
		e.TaxAmount = doc.Totals.Tax
		e.CashAmount = doc.Totals.Payment.Sub(doc.Totals.Change)
		e.LineCount = doc.Lines.Count()
		return e, nil
	}

	p := ev.Closure
	e.StoreID = p.StoreID
	e.Reference = p.UniqueID
	e.CashierID = p.ClosedBy
	e.Currency = p.BaseCurrency
	e.TotalAmount = p.Counters.NetAmount
	e.TaxAmount = p.Counters.TaxAmount
	e.CashAmount = p.ExpectedCash
	e.LineCount = int(p.Counters.DocumentCount)
	return e, nil
}
