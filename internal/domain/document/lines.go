package document

import (
	"time"

	"github.com/google/uuid"
	"github.com/retail-pos-engine/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductLine is a PLU sale. Department, tax rate and names are captured at
// sale time.
type ProductLine struct {
	ID              uuid.UUID       `json:"id"`
	DocumentID      uuid.UUID       `json:"document_id"`
	LineNo          int             `json:"line_no"`
	ProductID       uuid.UUID       `json:"product_id"`
	ProductCode     string          `json:"product_code"`
	ProductName     string          `json:"product_name"`
	DepartmentID    uuid.UUID       `json:"department_id"`
	DepartmentName  string          `json:"department_name"`
	SubDepartmentID *uuid.UUID      `json:"sub_department_id,omitempty"`
	TaxRateID       *uuid.UUID      `json:"tax_rate_id,omitempty"`
	TaxName         string          `json:"tax_name,omitempty"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	TotalDiscount   decimal.Decimal `json:"total_discount"`
	TotalTax        decimal.Decimal `json:"total_tax"`
	IsCancelled     bool            `json:"is_cancelled"`
	CreatedAt       time.Time       `json:"created_at"`
}

// DepartmentLine is an open-amount sale booked to a department
type DepartmentLine struct {
	ID                uuid.UUID       `json:"id"`
	DocumentID        uuid.UUID       `json:"document_id"`
	LineNo            int             `json:"line_no"`
	DepartmentID      uuid.UUID       `json:"department_id"`
	DepartmentName    string          `json:"department_name"`
	SubDepartmentID   *uuid.UUID      `json:"sub_department_id,omitempty"`
	SubDepartmentName string          `json:"sub_department_name,omitempty"`
	TaxRateID         *uuid.UUID      `json:"tax_rate_id,omitempty"`
	TaxName           string          `json:"tax_name,omitempty"`
	TaxRate           decimal.Decimal `json:"tax_rate"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	TotalDiscount     decimal.Decimal `json:"total_discount"`
	TotalTax          decimal.Decimal `json:"total_tax"`
	IsCancelled       bool            `json:"is_cancelled"`
	CreatedAt         time.Time       `json:"created_at"`
}

// DiscountLine reduces a product line, a department line, or the whole
// document when no target is set.
type DiscountLine struct {
	ID               uuid.UUID           `json:"id"`
	DocumentID       uuid.UUID           `json:"document_id"`
	LineNo           int                 `json:"line_no"`
	ProductLineID    *uuid.UUID          `json:"product_line_id,omitempty"`
	DepartmentLineID *uuid.UUID          `json:"department_line_id,omitempty"`
	PaymentLineID    *uuid.UUID          `json:"payment_line_id,omitempty"`
	DiscountType     shared.DiscountType `json:"discount_type"`
	Percent          decimal.Decimal     `json:"percent"`
	Amount           decimal.Decimal     `json:"amount"`
	BaseAmount       decimal.Decimal     `json:"base_amount"`
	Code             string              `json:"code,omitempty"`
	Reason           string              `json:"reason,omitempty"`
	IsCancelled      bool                `json:"is_cancelled"`
	CreatedAt        time.Time           `json:"created_at"`
}

func (l DiscountLine) target() *uuid.UUID {
	if l.ProductLineID != nil {
		return l.ProductLineID
	}
	return l.DepartmentLineID
}

// PaymentLine is one tender. Amount is in the document's base currency.
type PaymentLine struct {
	ID             uuid.UUID          `json:"id"`
	DocumentID     uuid.UUID          `json:"document_id"`
	LineNo         int                `json:"line_no"`
	PaymentType    shared.PaymentType `json:"payment_type"`
	Amount         decimal.Decimal    `json:"amount"`
	CurrencyCode   string             `json:"currency_code"`
	CurrencyAmount decimal.Decimal    `json:"currency_amount"`
	ExchangeRate   decimal.Decimal    `json:"exchange_rate"`
	IsCancelled    bool               `json:"is_cancelled"`
	CreatedAt      time.Time          `json:"created_at"`
}

// TaxLine carries the tax of one sale line. LineNo mirrors the owner's.
type TaxLine struct {
	ID               uuid.UUID       `json:"id"`
	DocumentID       uuid.UUID       `json:"document_id"`
	LineNo           int             `json:"line_no"`
	ProductLineID    *uuid.UUID      `json:"product_line_id,omitempty"`
	DepartmentLineID *uuid.UUID      `json:"department_line_id,omitempty"`
	TaxRateID        *uuid.UUID      `json:"tax_rate_id,omitempty"`
	TaxName          string          `json:"tax_name,omitempty"`
	RatePercent      decimal.Decimal `json:"rate_percent"`
	TaxableAmount    decimal.Decimal `json:"taxable_amount"`
	TaxAmount        decimal.Decimal `json:"tax_amount"`
	IsCancelled      bool            `json:"is_cancelled"`
}

func (l TaxLine) owner() *uuid.UUID {
	if l.ProductLineID != nil {
		return l.ProductLineID
	}
	return l.DepartmentLineID
}

type TipLine struct {
	ID            uuid.UUID       `json:"id"`
	DocumentID    uuid.UUID       `json:"document_id"`
	LineNo        int             `json:"line_no"`
	PaymentLineID *uuid.UUID      `json:"payment_line_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	IsCancelled   bool            `json:"is_cancelled"`
	CreatedAt     time.Time       `json:"created_at"`
}

type NoteLine struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	LineNo     int       `json:"line_no"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// RefundLine points at the sold line being returned. OriginalDocumentID is a
// permanent id and is never remapped.
type RefundLine struct {
	ID                 uuid.UUID       `json:"id"`
	DocumentID         uuid.UUID       `json:"document_id"`
	LineNo             int             `json:"line_no"`
	ProductLineID      *uuid.UUID      `json:"product_line_id,omitempty"`
	OriginalDocumentID *uuid.UUID      `json:"original_document_id,omitempty"`
	Quantity           decimal.Decimal `json:"quantity"`
	Amount             decimal.Decimal `json:"amount"`
	Reason             string          `json:"reason,omitempty"`
	IsCancelled        bool            `json:"is_cancelled"`
	CreatedAt          time.Time       `json:"created_at"`
}

type SurchargeLine struct {
	ID          uuid.UUID       `json:"id"`
	DocumentID  uuid.UUID       `json:"document_id"`
	LineNo      int             `json:"line_no"`
	Amount      decimal.Decimal `json:"amount"`
	Reason      string          `json:"reason,omitempty"`
	IsCancelled bool            `json:"is_cancelled"`
	CreatedAt   time.Time       `json:"created_at"`
}

type DeliveryLine struct {
	ID          uuid.UUID  `json:"id"`
	DocumentID  uuid.UUID  `json:"document_id"`
	LineNo      int        `json:"line_no"`
	Address     string     `json:"address"`
	ContactName string     `json:"contact_name,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

type KitchenOrderLine struct {
	ID            uuid.UUID  `json:"id"`
	DocumentID    uuid.UUID  `json:"document_id"`
	LineNo        int        `json:"line_no"`
	ProductLineID *uuid.UUID `json:"product_line_id,omitempty"`
	Station       string     `json:"station,omitempty"`
	Instructions  string     `json:"instructions,omitempty"`
}

type LoyaltyLine struct {
	ID             uuid.UUID       `json:"id"`
	DocumentID     uuid.UUID       `json:"document_id"`
	LineNo         int             `json:"line_no"`
	CardNumber     string          `json:"card_number"`
	PointsEarned   decimal.Decimal `json:"points_earned"`
	PointsRedeemed decimal.Decimal `json:"points_redeemed"`
}

// FiscalRecord holds what the fiscal device returned for the document
type FiscalRecord struct {
	ID           uuid.UUID  `json:"id"`
	DocumentID   uuid.UUID  `json:"document_id"`
	FiscalNumber string     `json:"fiscal_number"`
	DeviceSerial string     `json:"device_serial,omitempty"`
	ZNumber      int        `json:"z_number"`
	SignedAt     *time.Time `json:"signed_at,omitempty"`
}

// ChangeLine records change handed back to the customer
type ChangeLine struct {
	ID           uuid.UUID          `json:"id"`
	DocumentID   uuid.UUID          `json:"document_id"`
	LineNo       int                `json:"line_no"`
	PaymentType  shared.PaymentType `json:"payment_type"`
	Amount       decimal.Decimal    `json:"amount"`
	CurrencyCode string             `json:"currency_code"`
}

// Lines is every line a document owns
type Lines struct {
	Products      []ProductLine      `json:"products"`
	Departments   []DepartmentLine   `json:"departments"`
	Discounts     []DiscountLine     `json:"discounts"`
	Payments      []PaymentLine      `json:"payments"`
	Taxes         []TaxLine          `json:"taxes"`
	Tips          []TipLine          `json:"tips"`
	Notes         []NoteLine         `json:"notes"`
	Refunds       []RefundLine       `json:"refunds"`
	Surcharges    []SurchargeLine    `json:"surcharges"`
	Deliveries    []DeliveryLine     `json:"deliveries"`
	KitchenOrders []KitchenOrderLine `json:"kitchen_orders"`
	Loyalty       []LoyaltyLine      `json:"loyalty"`
	Changes       []ChangeLine       `json:"changes"`
	Fiscal        *FiscalRecord      `json:"fiscal,omitempty"`
}

// Totals are the cached document amounts
type Totals struct {
	Gross     decimal.Decimal `json:"gross"`
	Discount  decimal.Decimal `json:"discount"`
	Surcharge decimal.Decimal `json:"surcharge"`
	Total     decimal.Decimal `json:"total"`
	Tax       decimal.Decimal `json:"tax"`
	Payment   decimal.Decimal `json:"payment"`
	Tip       decimal.Decimal `json:"tip"`
	Change    decimal.Decimal `json:"change"`
}

// Diff returns the name of the first field that differs, or "" when equal
func (t Totals) Diff(other Totals) (string, decimal.Decimal, decimal.Decimal) {
	fields := []struct {
		name string
		a, b decimal.Decimal
	}{
		{"gross", t.Gross, other.Gross},
		{"discount", t.Discount, other.Discount},
		{"surcharge", t.Surcharge, other.Surcharge},
		{"total", t.Total, other.Total},
		{"tax", t.Tax, other.Tax},
		{"payment", t.Payment, other.Payment},
		{"tip", t.Tip, other.Tip},
		{"change", t.Change, other.Change},
	}
	for _, f := range fields {
		if !f.a.Equal(f.b) {
			return f.name, f.a, f.b
		}
	}
	return "", decimal.Zero, decimal.Zero
}

// Totals sums every live line
func (l *Lines) Totals() Totals {
	t := Totals{
		Gross:     decimal.Zero,
		Discount:  decimal.Zero,
		Surcharge: decimal.Zero,
		Tax:       decimal.Zero,
		Payment:   decimal.Zero,
		Tip:       decimal.Zero,
		Change:    decimal.Zero,
	}
	for _, p := range l.Products {
		if !p.IsCancelled {
			t.Gross = t.Gross.Add(p.TotalPrice)
		}
	}
	for _, d := range l.Departments {
		if !d.IsCancelled {
			t.Gross = t.Gross.Add(d.TotalPrice)
		}
	}
	for _, d := range l.Discounts {
		if !d.IsCancelled {
			t.Discount = t.Discount.Add(d.Amount)
		}
	}
	for _, s := range l.Surcharges {
		if !s.IsCancelled {
			t.Surcharge = t.Surcharge.Add(s.Amount)
		}
	}
	for _, tx := range l.Taxes {
		if !tx.IsCancelled {
			t.Tax = t.Tax.Add(tx.TaxAmount)
		}
	}
	for _, p := range l.Payments {
		if !p.IsCancelled {
			t.Payment = t.Payment.Add(p.Amount)
		}
	}
	for _, tip := range l.Tips {
		if !tip.IsCancelled {
			t.Tip = t.Tip.Add(tip.Amount)
		}
	}
	for _, c := range l.Changes {
		t.Change = t.Change.Add(c.Amount)
	}
	t.Total = t.Gross.Sub(t.Discount).Add(t.Surcharge)
	return t
}

// LiveLineCount counts lines that carry money and are not cancelled
func (l *Lines) LiveLineCount() int {
	n := 0
	for _, p := range l.Products {
		if !p.IsCancelled {
			n++
		}
	}
	for _, d := range l.Departments {
		if !d.IsCancelled {
			n++
		}
	}
	for _, p := range l.Payments {
		if !p.IsCancelled {
			n++
		}
	}
	for _, s := range l.Surcharges {
		if !s.IsCancelled {
			n++
		}
	}
	return n
}

// Count returns the number of owned lines of every kind, cancelled included
func (l *Lines) Count() int {
	n := len(l.Products) + len(l.Departments) + len(l.Discounts) + len(l.Payments) +
		len(l.Taxes) + len(l.Tips) + len(l.Notes) + len(l.Refunds) + len(l.Surcharges) +
		len(l.Deliveries) + len(l.KitchenOrders) + len(l.Loyalty) + len(l.Changes)
	if l.Fiscal != nil {
		n++
	}
	return n
}
