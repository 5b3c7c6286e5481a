package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retail-pos-engine/internal/domain/closure"
	"github.com/retail-pos-engine/internal/domain/document"
	"github.com/retail-pos-engine/internal/domain/shared"
)

// ProductSaleInput prices a PLU line. A nil UnitPrice uses the list price.
type ProductSaleInput struct {
	ProductID    uuid.UUID
	Quantity     decimal.Decimal
	UnitPrice    *decimal.Decimal
	CurrencyCode string
}

type DepartmentSaleInput struct {
	DepartmentID uuid.UUID
	Quantity     decimal.Decimal
	Amount       decimal.Decimal
	CurrencyCode string
}

// DocumentService defines the operations a cashier runs on working documents.
// Every successful mutation is saved before it returns.
type DocumentService interface {
	// Begin opens a Draft document stamped with the next receipt number and
	// the open closure period
	Begin(ctx context.Context, kind shared.DocumentKind, cashierID, customerID string) (*document.WorkingDocument, error)

	// Get returns ErrDocumentNotFound if the document doesn't exist
	Get(ctx context.Context, id uuid.UUID) (*document.WorkingDocument, error)

	// ListIncomplete returns drafts, active and suspended documents, used to
	// resume after a restart
	ListIncomplete(ctx context.Context) ([]*document.WorkingDocument, error)
	ListSuspended(ctx context.Context) ([]*document.WorkingDocument, error)

	Start(ctx context.Context, id uuid.UUID) (*document.WorkingDocument, error)
	AddProduct(ctx context.Context, id uuid.UUID, in ProductSaleInput) (*document.WorkingDocument, error)
	AddDepartment(ctx context.Context, id uuid.UUID, in DepartmentSaleInput) (*document.WorkingDocument, error)
	ApplyDiscount(ctx context.Context, id uuid.UUID, target *uuid.UUID, spec document.DiscountSpec) (*document.WorkingDocument, error)
	AddPayment(ctx context.Context, id uuid.UUID, in document.PaymentInput) (*document.WorkingDocument, error)
	AddTip(ctx context.Context, id, paymentLineID uuid.UUID, amount decimal.Decimal) (*document.WorkingDocument, error)
	AddNote(ctx context.Context, id uuid.UUID, text string) (*document.WorkingDocument, error)
	AddSurcharge(ctx context.Context, id uuid.UUID, amount decimal.Decimal, reason string) (*document.WorkingDocument, error)
	AddRefund(ctx context.Context, id uuid.UUID, in document.RefundInput) (*document.WorkingDocument, error)
	AddDelivery(ctx context.Context, id uuid.UUID, in document.DeliveryInput) (*document.WorkingDocument, error)
	AddKitchenOrder(ctx context.Context, id, productLineID uuid.UUID, station, instructions string) (*document.WorkingDocument, error)
	AddLoyalty(ctx context.Context, id uuid.UUID, cardNumber string, earned, redeemed decimal.Decimal) (*document.WorkingDocument, error)
	SetFiscal(ctx context.Context, id uuid.UUID, in document.FiscalInput) (*document.WorkingDocument, error)
	CancelLine(ctx context.Context, id, lineID uuid.UUID) (*document.WorkingDocument, error)

	Suspend(ctx context.Context, id uuid.UUID) (*document.WorkingDocument, error)
	Resume(ctx context.Context, id uuid.UUID) (*document.WorkingDocument, error)

	// Discard deletes a document that was never completed
	Discard(ctx context.Context, id uuid.UUID) error

	// Complete finishes the document, promotes it and adds it to the open
	// closure period. A failed closure update is repaired by the outbox poller.
	Complete(ctx context.Context, id uuid.UUID, cancel bool, reason string) (*document.PermanentDocument, error)
}

// PromotionService moves a finished working document to permanent storage
type PromotionService interface {
	// Promote returns *document.ErrPromotionIntegrity when any write fails;
	// nothing is persisted in that case
	Promote(ctx context.Context, wd *document.WorkingDocument) (*document.PermanentDocument, error)
}

// ClosureManager owns the register period lifecycle
type ClosureManager interface {
	// EnsureOpenPeriod returns the open period, creating it when none exists
	EnsureOpenPeriod(ctx context.Context) (*closure.Period, error)
	Current(ctx context.Context) (*closure.Period, error)

	// Ingest adds a promoted document to the open period. It returns false
	// when the document was already ingested.
	Ingest(ctx context.Context, doc *document.PermanentDocument) (bool, error)

	// Close seals the open period and opens its successor atomically
	Close(ctx context.Context, operator string, actualCash *decimal.Decimal, note string) (closed, next *closure.Period, err error)
}

// Clock returns the current time; tests replace it
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}
