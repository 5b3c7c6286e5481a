package closure

import (
	"github.com/google/uuid"
	"github.com/retail-pos-engine/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Counters are the period head totals
type Counters struct {
	DocumentCount   int64           `json:"document_count"`
	ValidCount      int64           `json:"valid_count"`
	CanceledCount   int64           `json:"canceled_count"`
	ReturnCount     int64           `json:"return_count"`
	PaidInCount     int64           `json:"paid_in_count"`
	PaidOutCount    int64           `json:"paid_out_count"`
	ExpenseCount    int64           `json:"expense_count"`
	GrossAmount     decimal.Decimal `json:"gross_amount"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	SurchargeAmount decimal.Decimal `json:"surcharge_amount"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	TipAmount       decimal.Decimal `json:"tip_amount"`
	ValidAmount     decimal.Decimal `json:"valid_amount"`
	CanceledAmount  decimal.Decimal `json:"canceled_amount"`
	ReturnAmount    decimal.Decimal `json:"return_amount"`
	PaidInAmount    decimal.Decimal `json:"paid_in_amount"`
	PaidOutAmount   decimal.Decimal `json:"paid_out_amount"`
	ExpenseAmount   decimal.Decimal `json:"expense_amount"`
}

func NewCounters() Counters {
	z := decimal.Zero
	return Counters{
		GrossAmount: z, DiscountAmount: z, SurchargeAmount: z, TaxAmount: z, NetAmount: z,
		TipAmount: z, ValidAmount: z, CanceledAmount: z, ReturnAmount: z,
		PaidInAmount: z, PaidOutAmount: z, ExpenseAmount: z,
	}
}

func (c *Counters) add(o Counters) {
	c.DocumentCount += o.DocumentCount
	c.ValidCount += o.ValidCount
	c.CanceledCount += o.CanceledCount
	c.ReturnCount += o.ReturnCount
	c.PaidInCount += o.PaidInCount
	c.PaidOutCount += o.PaidOutCount
	c.ExpenseCount += o.ExpenseCount
	c.GrossAmount = c.GrossAmount.Add(o.GrossAmount)
	c.DiscountAmount = c.DiscountAmount.Add(o.DiscountAmount)
	c.SurchargeAmount = c.SurchargeAmount.Add(o.SurchargeAmount)
	c.TaxAmount = c.TaxAmount.Add(o.TaxAmount)
	c.NetAmount = c.NetAmount.Add(o.NetAmount)
	c.TipAmount = c.TipAmount.Add(o.TipAmount)
	c.ValidAmount = c.ValidAmount.Add(o.ValidAmount)
	c.CanceledAmount = c.CanceledAmount.Add(o.CanceledAmount)
	c.ReturnAmount = c.ReturnAmount.Add(o.ReturnAmount)
	c.PaidInAmount = c.PaidInAmount.Add(o.PaidInAmount)
	c.PaidOutAmount = c.PaidOutAmount.Add(o.PaidOutAmount)
	c.ExpenseAmount = c.ExpenseAmount.Add(o.ExpenseAmount)
}

type CashierSummary struct {
	CashierID      string          `json:"cashier_id"`
	DocumentCount  int64           `json:"document_count"`
	GrossAmount    decimal.Decimal `json:"gross_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	NetAmount      decimal.Decimal `json:"net_amount"`
	VoidCount      int64           `json:"void_count"`
	VoidAmount     decimal.Decimal `json:"void_amount"`
}

type CurrencySummary struct {
	CurrencyCode   string          `json:"currency_code"`
	PaymentCount   int64           `json:"payment_count"`
	CurrencyAmount decimal.Decimal `json:"currency_amount"`
	BaseAmount     decimal.Decimal `json:"base_amount"`
}

// DepartmentSummary is keyed on the department captured on the line, so a
// department renamed or removed later still aggregates under its old row.
type DepartmentSummary struct {
	DepartmentID   uuid.UUID       `json:"department_id"`
	DepartmentName string          `json:"department_name"`
	LineCount      int64           `json:"line_count"`
	Quantity       decimal.Decimal `json:"quantity"`
	GrossAmount    decimal.Decimal `json:"gross_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	NetAmount      decimal.Decimal `json:"net_amount"`
}

type DiscountSummary struct {
	DiscountType shared.DiscountType `json:"discount_type"`
	Count        int64               `json:"count"`
	Amount       decimal.Decimal     `json:"amount"`
}

// DocumentTypeSummary splits one document kind into valid and canceled
type DocumentTypeSummary struct {
	Kind           shared.DocumentKind `json:"kind"`
	ValidCount     int64               `json:"valid_count"`
	ValidAmount    decimal.Decimal     `json:"valid_amount"`
	CanceledCount  int64               `json:"canceled_count"`
	CanceledAmount decimal.Decimal     `json:"canceled_amount"`
}

type PaymentSummary struct {
	PaymentType  shared.PaymentType `json:"payment_type"`
	Count        int64              `json:"count"`
	Amount       decimal.Decimal    `json:"amount"`
	ChangeAmount decimal.Decimal    `json:"change_amount"`
}

// TaxSummary is keyed on the rate percent carried on the tax line
type TaxSummary struct {
	RatePercent   decimal.Decimal `json:"rate_percent"`
	TaxName       string          `json:"tax_name"`
	LineCount     int64           `json:"line_count"`
	ExemptCount   int64           `json:"exempt_count"`
	TaxableAmount decimal.Decimal `json:"taxable_amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
}

type TipSummary struct {
	PaymentType shared.PaymentType `json:"payment_type"`
	Count       int64              `json:"count"`
	Amount      decimal.Decimal    `json:"amount"`
}

// Summaries holds one row per dimension value, keyed by the value's string form
type Summaries struct {
	Cashiers      map[string]*CashierSummary      `json:"cashiers"`
	Currencies    map[string]*CurrencySummary     `json:"currencies"`
	Departments   map[string]*DepartmentSummary   `json:"departments"`
	Discounts     map[string]*DiscountSummary     `json:"discounts"`
	DocumentTypes map[string]*DocumentTypeSummary `json:"document_types"`
	Payments      map[string]*PaymentSummary      `json:"payments"`
	Taxes         map[string]*TaxSummary          `json:"taxes"`
	Tips          map[string]*TipSummary          `json:"tips"`
}

func NewSummaries() Summaries {
	return Summaries{
		Cashiers:      map[string]*CashierSummary{},
		Currencies:    map[string]*CurrencySummary{},
		Departments:   map[string]*DepartmentSummary{},
		Discounts:     map[string]*DiscountSummary{},
		DocumentTypes: map[string]*DocumentTypeSummary{},
		Payments:      map[string]*PaymentSummary{},
		Taxes:         map[string]*TaxSummary{},
		Tips:          map[string]*TipSummary{},
	}
}

// TaxKey is the summary key of a rate percent
func TaxKey(rate decimal.Decimal) string {
	return rate.String()
}

func (s *Summaries) ensure() {
	if s.Cashiers == nil {
		s.Cashiers = map[string]*CashierSummary{}
	}
	if s.Currencies == nil {
		s.Currencies = map[string]*CurrencySummary{}
	}
	if s.Departments == nil {
		s.Departments = map[string]*DepartmentSummary{}
	}
	if s.Discounts == nil {
		s.Discounts = map[string]*DiscountSummary{}
	}
	if s.DocumentTypes == nil {
		s.DocumentTypes = map[string]*DocumentTypeSummary{}
	}
	if s.Payments == nil {
		s.Payments = map[string]*PaymentSummary{}
	}
	if s.Taxes == nil {
		s.Taxes = map[string]*TaxSummary{}
	}
	if s.Tips == nil {
		s.Tips = map[string]*TipSummary{}
	}
}

func (s *Summaries) cashier(id string) *CashierSummary {
	row, ok := s.Cashiers[id]
	if !ok {
		row = &CashierSummary{CashierID: id, GrossAmount: decimal.Zero, DiscountAmount: decimal.Zero, NetAmount: decimal.Zero, VoidAmount: decimal.Zero}
		s.Cashiers[id] = row
	}
	return row
}

func (s *Summaries) currency(code string) *CurrencySummary {
	row, ok := s.Currencies[code]
	if !ok {
		row = &CurrencySummary{CurrencyCode: code, CurrencyAmount: decimal.Zero, BaseAmount: decimal.Zero}
		s.Currencies[code] = row
	}
	return row
}

func (s *Summaries) department(id uuid.UUID, name string) *DepartmentSummary {
	key := id.String()
	row, ok := s.Departments[key]
	if !ok {
		z := decimal.Zero
		row = &DepartmentSummary{DepartmentID: id, DepartmentName: name, Quantity: z, GrossAmount: z, DiscountAmount: z, TaxAmount: z, NetAmount: z}
		s.Departments[key] = row
	}
	return row
}

func (s *Summaries) discount(t shared.DiscountType) *DiscountSummary {
	key := string(t)
	row, ok := s.Discounts[key]
	if !ok {
		row = &DiscountSummary{DiscountType: t, Amount: decimal.Zero}
		s.Discounts[key] = row
	}
	return row
}

func (s *Summaries) documentType(k shared.DocumentKind) *DocumentTypeSummary {
	key := string(k)
	row, ok := s.DocumentTypes[key]
	if !ok {
		row = &DocumentTypeSummary{Kind: k, ValidAmount: decimal.Zero, CanceledAmount: decimal.Zero}
		s.DocumentTypes[key] = row
	}
	return row
}

func (s *Summaries) payment(t shared.PaymentType) *PaymentSummary {
	key := string(t)
	row, ok := s.Payments[key]
	if !ok {
		row = &PaymentSummary{PaymentType: t, Amount: decimal.Zero, ChangeAmount: decimal.Zero}
		s.Payments[key] = row
	}
	return row
}

func (s *Summaries) tax(rate decimal.Decimal, name string) *TaxSummary {
	key := TaxKey(rate)
	row, ok := s.Taxes[key]
	if !ok {
		row = &TaxSummary{RatePercent: rate, TaxName: name, TaxableAmount: decimal.Zero, TaxAmount: decimal.Zero}
		s.Taxes[key] = row
	}
	return row
}

func (s *Summaries) tip(t shared.PaymentType) *TipSummary {
	key := string(t)
	row, ok := s.Tips[key]
	if !ok {
		row = &TipSummary{PaymentType: t, Amount: decimal.Zero}
		s.Tips[key] = row
	}
	return row
}

// merge adds every row of o into s, creating rows that do not exist yet
func (s *Summaries) merge(o Summaries) {
	s.ensure()
	for id, r := range o.Cashiers {
		row := s.cashier(id)
		row.DocumentCount += r.DocumentCount
		row.GrossAmount = row.GrossAmount.Add(r.GrossAmount)
		row.DiscountAmount = row.DiscountAmount.Add(r.DiscountAmount)
		row.NetAmount = row.NetAmount.Add(r.NetAmount)
		row.VoidCount += r.VoidCount
		row.VoidAmount = row.VoidAmount.Add(r.VoidAmount)
	}
	for code, r := range o.Currencies {
		row := s.currency(code)
		row.PaymentCount += r.PaymentCount
		row.CurrencyAmount = row.CurrencyAmount.Add(r.CurrencyAmount)
		row.BaseAmount = row.BaseAmount.Add(r.BaseAmount)
	}
	for _, r := range o.Departments {
		row := s.department(r.DepartmentID, r.DepartmentName)
		row.LineCount += r.LineCount
		row.Quantity = row.Quantity.Add(r.Quantity)
		row.GrossAmount = row.GrossAmount.Add(r.GrossAmount)
		row.DiscountAmount = row.DiscountAmount.Add(r.DiscountAmount)
		row.TaxAmount = row.TaxAmount.Add(r.TaxAmount)
		row.NetAmount = row.NetAmount.Add(r.NetAmount)
	}
	for _, r := range o.Discounts {
		row := s.discount(r.DiscountType)
		row.Count += r.Count
		row.Amount = row.Amount.Add(r.Amount)
	}
	for _, r := range o.DocumentTypes {
		row := s.documentType(r.Kind)
		row.ValidCount += r.ValidCount
		row.ValidAmount = row.ValidAmount.Add(r.ValidAmount)
		row.CanceledCount += r.CanceledCount
		row.CanceledAmount = row.CanceledAmount.Add(r.CanceledAmount)
	}
	for _, r := range o.Payments {
		row := s.payment(r.PaymentType)
		row.Count += r.Count
		row.Amount = row.Amount.Add(r.Amount)
		row.ChangeAmount = row.ChangeAmount.Add(r.ChangeAmount)
	}
	for _, r := range o.Taxes {
		row := s.tax(r.RatePercent, r.TaxName)
		row.LineCount += r.LineCount
		row.ExemptCount += r.ExemptCount
		row.TaxableAmount = row.TaxableAmount.Add(r.TaxableAmount)
		row.TaxAmount = row.TaxAmount.Add(r.TaxAmount)
	}
	for _, r := range o.Tips {
		row := s.tip(r.PaymentType)
		row.Count += r.Count
		row.Amount = row.Amount.Add(r.Amount)
	}
}
