package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/retail-pos-engine/internal/domain/closure"
	"github.com/retail-pos-engine/internal/domain/document"
)

// BeginDocumentRequest opens a new sale. CashierID falls back to the
// X-Cashier-ID header.
type BeginDocumentRequest struct {
	Kind       string `json:"kind" binding:"required"`
	CashierID  string `json:"cashier_id"`
	CustomerID string `json:"customer_id"`
}

// AddProductRequest sells a PLU. Quantity defaults to 1 and UnitPrice to the
// list price.
type AddProductRequest struct {
	ProductID    string           `json:"product_id" binding:"required,uuid"`
	Quantity     *decimal.Decimal `json:"quantity"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	CurrencyCode string           `json:"currency_code" binding:"omitempty,len=3"`
}

type AddDepartmentRequest struct {
	DepartmentID string           `json:"department_id" binding:"required,uuid"`
	Quantity     *decimal.Decimal `json:"quantity"`
	Amount       decimal.Decimal  `json:"amount"`
	CurrencyCode string           `json:"currency_code" binding:"omitempty,len=3"`
}

// ApplyDiscountRequest discounts one line, or the whole document when
// TargetLineID is empty
type ApplyDiscountRequest struct {
	TargetLineID *string         `json:"target_line_id" binding:"omitempty,uuid"`
	Type         string          `json:"type" binding:"required,oneof=PERCENT AMOUNT"`
	Value        decimal.Decimal `json:"value"`
	Code         string          `json:"code"`
	Reason       string          `json:"reason"`
}

// AddPaymentRequest records a tender. Amount is in CurrencyCode; a zero
// ExchangeRate on a foreign currency uses the configured rate.
type AddPaymentRequest struct {
	PaymentType  string          `json:"payment_type" binding:"required"`
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currency_code" binding:"omitempty,len=3"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
}

type AddTipRequest struct {
	PaymentLineID string          `json:"payment_line_id" binding:"required,uuid"`
	Amount        decimal.Decimal `json:"amount"`
}

type AddNoteRequest struct {
	Text string `json:"text" binding:"required"`
}

type AddSurchargeRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

type AddRefundRequest struct {
	ProductLineID      *string         `json:"product_line_id" binding:"omitempty,uuid"`
	OriginalDocumentID *string         `json:"original_document_id" binding:"omitempty,uuid"`
	Quantity           decimal.Decimal `json:"quantity"`
	Amount             decimal.Decimal `json:"amount"`
	Reason             string          `json:"reason"`
}

type AddDeliveryRequest struct {
	Address     string     `json:"address" binding:"required"`
	ContactName string     `json:"contact_name"`
	Phone       string     `json:"phone"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

type AddKitchenOrderRequest struct {
	ProductLineID string `json:"product_line_id" binding:"required,uuid"`
	Station       string `json:"station" binding:"required"`
	Instructions  string `json:"instructions"`
}

type AddLoyaltyRequest struct {
	CardNumber     string          `json:"card_number" binding:"required"`
	PointsEarned   decimal.Decimal `json:"points_earned"`
	PointsRedeemed decimal.Decimal `json:"points_redeemed"`
}

type SetFiscalRequest struct {
	FiscalNumber string     `json:"fiscal_number" binding:"required"`
	DeviceSerial string     `json:"device_serial" binding:"required"`
	ZNumber      int        `json:"z_number" binding:"min=0"`
	SignedAt     *time.Time `json:"signed_at"`
}

// CompleteRequest is optional; an empty body completes the sale
type CompleteRequest struct {
	Cancel bool   `json:"cancel"`
	Reason string `json:"reason"`
}

// CloseClosureRequest carries the counted drawer, when counted
type CloseClosureRequest struct {
	ActualCash *decimal.Decimal `json:"actual_cash"`
	Note       string           `json:"note"`
}

// TotalsResponse renders money at the document's decimal places. Due is
// what the customer still owes, tips included.
type TotalsResponse struct {
	Gross     string `json:"gross"`
	Discount  string `json:"discount"`
	Surcharge string `json:"surcharge"`
	Total     string `json:"total"`
	Tax       string `json:"tax"`
	Payment   string `json:"payment"`
	Tip       string `json:"tip"`
	Change    string `json:"change"`
	Due       string `json:"due"`
}

// DocumentResponse represents a working or permanent document
type DocumentResponse struct {
	ID                  string         `json:"id"`
	SourceDocumentID    string         `json:"source_document_id,omitempty"`
	TransactionUniqueID string         `json:"transaction_unique_id"`
	RegisterID          int            `json:"register_id"`
	Kind                string         `json:"kind"`
	Category            string         `json:"category"`
	Status              string         `json:"status"`
	ReceiptNumber       int64          `json:"receipt_number"`
	ClosurePeriodID     string         `json:"closure_period_id"`
	ClosureNumber       int            `json:"closure_number"`
	CashierID           string         `json:"cashier_id"`
	CustomerID          string         `json:"customer_id,omitempty"`
	BaseCurrency        string         `json:"base_currency"`
	CancelReason        string         `json:"cancel_reason,omitempty"`
	Totals              TotalsResponse `json:"totals"`
	Lines               document.Lines `json:"lines"`
	Version             int            `json:"version,omitempty"`
	CreatedAt           string         `json:"created_at"`
	UpdatedAt           string         `json:"updated_at"`
	CompletedAt         string         `json:"completed_at,omitempty"`
	PromotedAt          string         `json:"promoted_at,omitempty"`
}

type DocumentListResponse struct {
	Documents []DocumentResponse `json:"documents"`
}

// PeriodResponse represents a closure period and its running summaries
type PeriodResponse struct {
	ID             string            `json:"id"`
	UniqueID       string            `json:"unique_id"`
	RegisterID     int               `json:"register_id"`
	StoreID        string            `json:"store_id"`
	BusinessDate   string            `json:"business_date"`
	SequenceNumber int               `json:"sequence_number"`
	BaseCurrency   string            `json:"base_currency"`
	OpenedBy       string            `json:"opened_by"`
	ClosedBy       string            `json:"closed_by,omitempty"`
	StartTime      string            `json:"start_time"`
	EndTime        string            `json:"end_time,omitempty"`
	ExpectedCash   string            `json:"expected_cash"`
	ActualCash     string            `json:"actual_cash,omitempty"`
	CashVariance   string            `json:"cash_variance,omitempty"`
	Note           string            `json:"note,omitempty"`
	Counters       closure.Counters  `json:"counters"`
	Summaries      closure.Summaries `json:"summaries"`
}

// CloseClosureResponse returns the sealed Z-report and its successor
type CloseClosureResponse struct {
	Closed PeriodResponse `json:"closed"`
	Next   PeriodResponse `json:"next"`
}

func mapTotals(t document.Totals, places int32) TotalsResponse {
	due := t.Total.Add(t.Tip).Sub(t.Payment)
	if due.IsNegative() {
		due = decimal.Zero
	}
	return TotalsResponse{
		Gross:     t.Gross.StringFixed(places),
		Discount:  t.Discount.StringFixed(places),
		Surcharge: t.Surcharge.StringFixed(places),
		Total:     t.Total.StringFixed(places),
		Tax:       t.Tax.StringFixed(places),
		Payment:   t.Payment.StringFixed(places),
		Tip:       t.Tip.StringFixed(places),
		Change:    t.Change.StringFixed(places),
		Due:       due.StringFixed(places),
	}
}

func mapHeader(h document.Header) DocumentResponse {
	r := DocumentResponse{
		ID:                  h.ID.String(),
		TransactionUniqueID: h.TransactionUniqueID,
		RegisterID:          h.RegisterID,
		Kind:                string(h.Kind),
		Category:            string(h.Category),
		Status:              string(h.Status),
		ReceiptNumber:       h.ReceiptNumber,
		ClosurePeriodID:     h.ClosurePeriodID.String(),
		ClosureNumber:       h.ClosureNumber,
		CashierID:           h.CashierID,
		CustomerID:          h.CustomerID,
		BaseCurrency:        h.BaseCurrency,
		CancelReason:        h.CancelReason,
		CreatedAt:           h.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           h.UpdatedAt.Format(time.RFC3339),
	}
	if h.CompletedAt != nil {
		r.CompletedAt = h.CompletedAt.Format(time.RFC3339)
	}
	return r
}

func mapWorkingDocument(doc *document.WorkingDocument) DocumentResponse {
	r := mapHeader(doc.Header)
	r.Totals = mapTotals(doc.Totals, doc.DecimalPlaces)
	r.Lines = doc.Lines
	r.Version = doc.Version
	return r
}

func mapPermanentDocument(doc *document.PermanentDocument) DocumentResponse {
	r := mapHeader(doc.Header)
	r.SourceDocumentID = doc.SourceDocumentID.String()
	r.Totals = mapTotals(doc.Totals, doc.DecimalPlaces)
	r.Lines = doc.Lines
	r.PromotedAt = doc.PromotedAt.Format(time.RFC3339)
	return r
}

func mapPeriod(p *closure.Period) PeriodResponse {
	r := PeriodResponse{
		ID:             p.ID.String(),
		UniqueID:       p.UniqueID,
		RegisterID:     p.RegisterID,
		StoreID:        p.StoreID,
		BusinessDate:   p.BusinessDate.Format(time.DateOnly),
		SequenceNumber: p.SequenceNumber,
		BaseCurrency:   p.BaseCurrency,
		OpenedBy:       p.OpenedBy,
		ClosedBy:       p.ClosedBy,
		StartTime:      p.StartTime.Format(time.RFC3339),
		ExpectedCash:   p.ExpectedCash.String(),
		Note:           p.Note,
		Counters:       p.Counters,
		Summaries:      p.Summaries,
	}
	if p.EndTime != nil {
		r.EndTime = p.EndTime.Format(time.RFC3339)
	}
	if p.ActualCash != nil {
		r.ActualCash = p.ActualCash.String()
	}
	if p.CashVariance != nil {
		r.CashVariance = p.CashVariance.String()
	}
	return r
}
