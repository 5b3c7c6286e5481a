// Package document models a sale from first keystroke to its immutable record.
// A WorkingDocument is the mutable scratch aggregate driven by the state
// machine; Promote turns a finished one into a PermanentDocument.
package document

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retail-pos-engine/internal/domain/reference"
	"github.com/retail-pos-engine/internal/domain/shared"
)

// WalkInCustomer is used when a sale has no named customer
const WalkInCustomer = "WALK_IN"

// Status is the lifecycle state of a document
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusActive    Status = "ACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether no further transition is possible
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IncompleteStatuses are the states a register resumes after a restart
var IncompleteStatuses = []Status{StatusDraft, StatusActive, StatusSuspended}

// Header holds the identity and attributes shared by working and permanent documents
type Header struct {
	ID                  uuid.UUID                  `json:"id"`
	TransactionUniqueID string                     `json:"transaction_unique_id"`
	RegisterID          int                        `json:"register_id"`
	StoreID             string                     `json:"store_id"`
	Kind                shared.DocumentKind        `json:"kind"`
	Category            shared.TransactionCategory `json:"category"`
	RequiresLines       bool                       `json:"requires_lines"`
	ReceiptNumber       int64                      `json:"receipt_number"`
	ClosurePeriodID     uuid.UUID                  `json:"closure_period_id"`
	ClosureNumber       int                        `json:"closure_number"`
	BatchNumber         int                        `json:"batch_number"`
	CashierID           string                     `json:"cashier_id"`
	CustomerID          string                     `json:"customer_id"`
	BaseCurrency        string                     `json:"base_currency"`
	DecimalPlaces       int32                      `json:"decimal_places"`
	Status              Status                     `json:"status"`
	CancelReason        string                     `json:"cancel_reason,omitempty"`
	CreatedAt           time.Time                  `json:"created_at"`
	UpdatedAt           time.Time                  `json:"updated_at"`
	CompletedAt         *time.Time                 `json:"completed_at,omitempty"`
}

// WorkingDocument is the in-progress ("temp") sale aggregate
type WorkingDocument struct {
	Header
	Totals     Totals `json:"totals"`
	Lines      Lines  `json:"lines"`
	NextLineNo int    `json:"next_line_no"`
	Version    int    `json:"version"`
}

// NewDocumentParams carries everything needed to open a document
type NewDocumentParams struct {
	RegisterID      int
	StoreID         string
	Policy          reference.KindPolicy
	ReceiptNumber   int64
	ClosurePeriodID uuid.UUID
	ClosureNumber   int
	CashierID       string
	CustomerID      string
	BaseCurrency    string
	DecimalPlaces   int32
	Now             time.Time
}

// NewWorkingDocument creates an empty Draft document
func NewWorkingDocument(p NewDocumentParams) *WorkingDocument {
	now := p.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	customer := p.CustomerID
	if customer == "" {
		customer = WalkInCustomer
	}

	doc := &WorkingDocument{
		Header: Header{
			ID:                  uuid.New(),
			TransactionUniqueID: TransactionUniqueID(now, p.ReceiptNumber),
			RegisterID:          p.RegisterID,
			StoreID:             p.StoreID,
			Kind:                p.Policy.Kind,
			Category:            p.Policy.Category,
			RequiresLines:       p.Policy.RequiresLines,
			ReceiptNumber:       p.ReceiptNumber,
			ClosurePeriodID:     p.ClosurePeriodID,
			ClosureNumber:       p.ClosureNumber,
			BatchNumber:         p.ClosureNumber,
			CashierID:           p.CashierID,
			CustomerID:          customer,
			BaseCurrency:        p.BaseCurrency,
			DecimalPlaces:       p.DecimalPlaces,
			Status:              StatusDraft,
			CreatedAt:           now,
			UpdatedAt:           now,
		},
		Version: 1,
	}
	doc.Totals = doc.Lines.Totals()
	return doc
}

// TransactionUniqueID formats the register-wide document identifier
func TransactionUniqueID(day time.Time, receiptNumber int64) string {
	return fmt.Sprintf("%s-%06d", day.Format("20060102"), receiptNumber)
}
