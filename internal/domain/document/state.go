package document

import (
	"time"

	"github.com/google/uuid"
	"github.com/retail-pos-engine/internal/domain/money"
	"github.com/retail-pos-engine/internal/domain/pricing"
	"github.com/retail-pos-engine/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DiscountSpec describes a discount to apply. Value is a percent for
// DiscountTypePercent and an amount for DiscountTypeAmount.
type DiscountSpec struct {
	Type   shared.DiscountType
	Value  decimal.Decimal
	Code   string
	Reason string
}

// PaymentInput describes a tender. A zero ExchangeRate means base currency.
type PaymentInput struct {
	Type           shared.PaymentType
	CurrencyCode   string
	CurrencyAmount decimal.Decimal
	ExchangeRate   decimal.Decimal
}

type RefundInput struct {
	ProductLineID      *uuid.UUID
	OriginalDocumentID *uuid.UUID
	Quantity           decimal.Decimal
	Amount             decimal.Decimal
	Reason             string
}

type DeliveryInput struct {
	Address     string
	ContactName string
	Phone       string
	ScheduledAt *time.Time
}

type FiscalInput struct {
	FiscalNumber string
	DeviceSerial string
	ZNumber      int
	SignedAt     *time.Time
}

func now() time.Time {
	return time.Now().UTC()
}

func (d *WorkingDocument) ensureMutable() error {
	switch {
	case d.Status.Terminal():
		return ErrDocumentAlreadyClosed{DocumentID: d.ID, Status: d.Status}
	case d.Status == StatusSuspended:
		return ErrDocumentSuspended
	}
	return nil
}

func (d *WorkingDocument) activate() {
	if d.Status == StatusDraft {
		d.Status = StatusActive
	}
}

func (d *WorkingDocument) nextLineNo() int {
	d.NextLineNo++
	return d.NextLineNo
}

func (d *WorkingDocument) touch() {
	d.UpdatedAt = now()
}

// Start moves a Draft document to Active
func (d *WorkingDocument) Start() error {
	switch d.Status {
	case StatusDraft:
		d.Status = StatusActive
		d.touch()
		return nil
	case StatusActive:
		return nil
	case StatusSuspended:
		return ErrInvalidTransition{From: d.Status, To: StatusActive}
	default:
		return ErrDocumentAlreadyClosed{DocumentID: d.ID, Status: d.Status}
	}
}

// Suspend parks an Active document
func (d *WorkingDocument) Suspend() error {
	if d.Status.Terminal() {
		return ErrDocumentAlreadyClosed{DocumentID: d.ID, Status: d.Status}
	}
	if d.Status != StatusActive {
		return ErrInvalidTransition{From: d.Status, To: StatusSuspended}
	}
	d.Status = StatusSuspended
	d.touch()
	return nil
}

// Resume brings a Suspended document back to Active
func (d *WorkingDocument) Resume() error {
	if d.Status.Terminal() {
		return ErrDocumentAlreadyClosed{DocumentID: d.ID, Status: d.Status}
	}
	if d.Status != StatusSuspended {
		return ErrInvalidTransition{From: d.Status, To: StatusActive}
	}
	d.Status = StatusActive
	d.touch()
	return nil
}

// Discard checks that the document may be thrown away without a record
func (d *WorkingDocument) Discard() error {
	if d.Status.Terminal() {
		return ErrDocumentAlreadyClosed{DocumentID: d.ID, Status: d.Status}
	}
	return nil
}

func validateSale(res pricing.LineResult) error {
	if res.Quantity.IsZero() {
		return ErrInvalidAmount{Field: "quantity", Value: res.Quantity}
	}
	if res.AllowNonPositive {
		return nil
	}
	if !res.Quantity.IsPositive() {
		return ErrInvalidAmount{Field: "quantity", Value: res.Quantity}
	}
	if !res.UnitPrice.IsPositive() {
		return ErrInvalidAmount{Field: "unit_price", Value: res.UnitPrice}
	}
	return nil
}

// AddProductLine appends a priced PLU line and its tax line
func (d *WorkingDocument) AddProductLine(res pricing.LineResult) (*ProductLine, error) {
	if err := d.ensureMutable(); err != nil {
		return nil, err
	}
	if res.ProductID == nil {
		return nil, ErrInvalidAmount{Field: "product", Value: decimal.Zero}
	}
	if err := validateSale(res); err != nil {
		return nil, err
	}

	d.activate()
	line := ProductLine{
		ID:              uuid.New(),
		DocumentID:      d.ID,
		LineNo:          d.nextLineNo(),
		ProductID:       *res.ProductID,
		ProductCode:     res.ProductCode,
		ProductName:     res.ProductName,
		DepartmentID:    res.DepartmentID,
		DepartmentName:  res.DepartmentName,
		SubDepartmentID: res.SubDepartmentID,
		TaxRateID:       res.TaxRateID,
		TaxName:         res.TaxName,
		TaxRate:         res.TaxRate,
		Quantity:        res.Quantity,
		UnitPrice:       res.UnitPrice,
		TotalPrice:      res.TotalPrice,
		TotalDiscount:   decimal.Zero,
		TotalTax:        res.TotalTax,
		CreatedAt:       now(),
	}
	d.Lines.Products = append(d.Lines.Products, line)
	lineID := line.ID
	d.Lines.Taxes = append(d.Lines.Taxes, TaxLine{
		ID:            uuid.New(),
		DocumentID:    d.ID,
		LineNo:        line.LineNo,
		ProductLineID: &lineID,
		TaxRateID:     res.TaxRateID,
		TaxName:       res.TaxName,
		RatePercent:   res.TaxRate,
		TaxableAmount: res.TotalPrice,
		TaxAmount:     res.TotalTax,
	})

	if err := d.refresh(); err != nil {
		return nil, err
	}
	return &d.Lines.Products[len(d.Lines.Products)-1], nil
}

// AddDepartmentLine appends an open-amount department line and its tax line
func (d *WorkingDocument) AddDepartmentLine(res pricing.LineResult) (*DepartmentLine, error) {
	if err := d.ensureMutable(); err != nil {
		return nil, err
	}
	if err := validateSale(res); err != nil {
		return nil, err
	}

	d.activate()
	line := DepartmentLine{
		ID:                uuid.New(),
		DocumentID:        d.ID,
		LineNo:            d.nextLineNo(),
		DepartmentID:      res.DepartmentID,
		DepartmentName:    res.DepartmentName,
		SubDepartmentID:   res.SubDepartmentID,
		SubDepartmentName: res.SubDepartmentName,
		TaxRateID:         res.TaxRateID,
		TaxName:           res.TaxName,
		TaxRate:           res.TaxRate,
		Quantity:          res.Quantity,
		UnitPrice:         res.UnitPrice,
		TotalPrice:        res.TotalPrice,
		TotalDiscount:     decimal.Zero,
		TotalTax:          res.TotalTax,
		CreatedAt:         now(),
	}
	d.Lines.Departments = append(d.Lines.Departments, line)
	lineID := line.ID
	d.Lines.Taxes = append(d.Lines.Taxes, TaxLine{
		ID:               uuid.New(),
		DocumentID:       d.ID,
		LineNo:           line.LineNo,
		DepartmentLineID: &lineID,
		TaxRateID:        res.TaxRateID,
		TaxName:          res.TaxName,
		RatePercent:      res.TaxRate,
		TaxableAmount:    res.TotalPrice,
		TaxAmount:        res.TotalTax,
	})

	if err := d.refresh(); err != nil {
		return nil, err
	}
	return &d.Lines.Departments[len(d.Lines.Departments)-1], nil
}

// CancelLine flags a line cancelled in place. Discounts on a cancelled sale
// line and tips on a cancelled payment go with it. Cancelling twice is a no-op.
func (d *WorkingDocument) CancelLine(lineID uuid.UUID) error {
	if err := d.ensureMutable(); err != nil {
		return err
	}
	if !d.cancelLine(lineID) {
		return ErrLineNotFound{LineID: lineID}
	}
	d.touch()
	return d.refresh()
}

func (d *WorkingDocument) cancelLine(id uuid.UUID) bool {
	for i := range d.Lines.Products {
		if d.Lines.Products[i].ID == id {
			d.Lines.Products[i].IsCancelled = true
			d.cancelDiscountsOn(id)
			return true
		}
	}
	for i := range d.Lines.Departments {
		if d.Lines.Departments[i].ID == id {
			d.Lines.Departments[i].IsCancelled = true
			d.cancelDiscountsOn(id)
			return true
		}
	}
	for i := range d.Lines.Payments {
		if d.Lines.Payments[i].ID == id {
			d.Lines.Payments[i].IsCancelled = true
			for j := range d.Lines.Tips {
				if ref := d.Lines.Tips[j].PaymentLineID; ref != nil && *ref == id {
					d.Lines.Tips[j].IsCancelled = true
				}
			}
			return true
		}
	}
	for i := range d.Lines.Discounts {
		if d.Lines.Discounts[i].ID == id {
			d.Lines.Discounts[i].IsCancelled = true
			return true
		}
	}
	for i := range d.Lines.Tips {
		if d.Lines.Tips[i].ID == id {
			d.Lines.Tips[i].IsCancelled = true
			return true
		}
	}
	for i := range d.Lines.Surcharges {
		if d.Lines.Surcharges[i].ID == id {
			d.Lines.Surcharges[i].IsCancelled = true
			return true
		}
	}
	for i := range d.Lines.Refunds {
		if d.Lines.Refunds[i].ID == id {
			d.Lines.Refunds[i].IsCancelled = true
			return true
		}
	}
	return false
}

func (d *WorkingDocument) cancelDiscountsOn(lineID uuid.UUID) {
	for i := range d.Lines.Discounts {
		if t := d.Lines.Discounts[i].target(); t != nil && *t == lineID {
			d.Lines.Discounts[i].IsCancelled = true
		}
	}
}

// ApplyDiscount adds a discount on a live sale line, or on the document when
// target is nil.
func (d *WorkingDocument) ApplyDiscount(target *uuid.UUID, spec DiscountSpec) (*DiscountLine, error) {
	if err := d.ensureMutable(); err != nil {
		return nil, err
	}
	if !spec.Value.IsPositive() {
		return nil, ErrInvalidAmount{Field: "discount", Value: spec.Value}
	}

	line := DiscountLine{
		ID:           uuid.New(),
		DocumentID:   d.ID,
		DiscountType: spec.Type,
		Percent:      decimal.Zero,
		Code:         spec.Code,
		Reason:       spec.Reason,
		CreatedAt:    now(),
	}

	var base decimal.Decimal
	if target == nil {
		base = d.Totals.Gross.Sub(d.Totals.Discount)
	} else {
		var ok bool
		base, ok = d.discountBase(*target, &line)
		if !ok {
			return nil, ErrLineNotFound{LineID: *target}
		}
	}

	switch spec.Type {
	case shared.DiscountTypePercent:
		if spec.Value.GreaterThan(decimal.NewFromInt(100)) {
			return nil, ErrInvalidAmount{Field: "discount_percent", Value: spec.Value}
		}
		line.Percent = spec.Value
		line.Amount = money.Percent(base, spec.Value, d.DecimalPlaces)
	case shared.DiscountTypeAmount:
		line.Amount = money.Round(spec.Value, d.DecimalPlaces)
	default:
		return nil, ErrInvalidAmount{Field: "discount_type", Value: spec.Value}
	}
	if !line.Amount.IsPositive() || line.Amount.GreaterThan(base) {
		return nil, ErrInvalidAmount{Field: "discount", Value: line.Amount}
	}

	line.BaseAmount = base
	line.LineNo = d.nextLineNo()
	d.Lines.Discounts = append(d.Lines.Discounts, line)
	if err := d.refresh(); err != nil {
		return nil, err
	}
	return &d.Lines.Discounts[len(d.Lines.Discounts)-1], nil
}

// discountBase returns what is left to discount on a live sale line and
// points the discount at it.
func (d *WorkingDocument) discountBase(target uuid.UUID, line *DiscountLine) (decimal.Decimal, bool) {
	already := decimal.Zero
	for _, disc := range d.Lines.Discounts {
		if t := disc.target(); !disc.IsCancelled && t != nil && *t == target {
			already = already.Add(disc.Amount)
		}
	}
	for _, p := range d.Lines.Products {
		if p.ID == target && !p.IsCancelled {
			id := p.ID
			line.ProductLineID = &id
			return p.TotalPrice.Sub(already), true
		}
	}
	for _, dep := range d.Lines.Departments {
		if dep.ID == target && !dep.IsCancelled {
			id := dep.ID
			line.DepartmentLineID = &id
			return dep.TotalPrice.Sub(already), true
		}
	}
	return decimal.Zero, false
}

// AddPayment records a tender converted into the base currency
func (d *WorkingDocument) AddPayment(in PaymentInput) (*PaymentLine, error) {
	if err := d.ensureMutable(); err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, shared.ErrInvalidPaymentType
	}
	if !in.CurrencyAmount.IsPositive() {
		return nil, ErrInvalidAmount{Field: "payment", Value: in.CurrencyAmount}
	}
	rate := in.ExchangeRate
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}
	if rate.IsNegative() {
		return nil, ErrInvalidAmount{Field: "exchange_rate", Value: rate}
	}
	currency := in.CurrencyCode
	if currency == "" {
		currency = d.BaseCurrency
	}

	d.activate()
	d.Lines.Payments = append(d.Lines.Payments, PaymentLine{
		ID:             uuid.New(),
		DocumentID:     d.ID,
		LineNo:         d.nextLineNo(),
		PaymentType:    in.Type,
		Amount:         money.Convert(in.CurrencyAmount, rate, d.DecimalPlaces),
		CurrencyCode:   currency,
		CurrencyAmount: in.CurrencyAmount,
		ExchangeRate:   rate,
		CreatedAt:      now(),
	})
	if err := d.refresh(); err != nil {
		return nil, err
	}
	return &d.Lines.Payments[len(d.Lines.Payments)-1], nil
}

// AddTip attaches a tip to a live payment line
func (d *WorkingDocument) AddTip(paymentLineID uuid.UUID, amount decimal.Decimal) (*TipLine, error) {
	if err := d.ensureMutable(); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount{Field: "tip", Value: amount}
	}
	found := false
	for _, p := range d.Lines.Payments {
		if p.ID == paymentLineID && !p.IsCancelled {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrLineNotFound{LineID: paymentLineID}
	}

	ref := paymentLineID
	d.Lines.Tips = append(d.Lines.Tips, TipLine{
		ID:            uuid.New(),
		DocumentID:    d.ID,
		LineNo:        d.nextLineNo(),
		PaymentLineID: &ref,
		Amount:        amount,
		CreatedAt:     now(),
	})
	if err := d.refresh(); err != nil {
		return nil, err
	}
	return &d.Lines.Tips[len(d.Lines.Tips)-1], nil
}

func (d *WorkingDocument) AddNote(text string) (*NoteLine, error) {
	if err := d.ensureMutable(); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, ErrEmptyNote
	}
	d.Lines.Notes = append(d.Lines.Notes, NoteLine{
		ID:         uuid.New(),
		DocumentID: d.ID,
		LineNo:     d.nextLineNo(),
		Text:       text,
		CreatedAt:  now(),
	})
	d.touch()
	return &d.Lines.Notes[len(d.Lines.Notes)-1], nil
}

func (d *WorkingDocument) AddSurcharge(amount decimal.Decimal, reason string) (*SurchargeLine, error) {
	if err := d.ensureMutable(); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount{Field: "surcharge", Value: amount}
	}
	d.activate()
	d.Lines.Surcharges = append(d.Lines.Surcharges, SurchargeLine{
		ID:         uuid.New(),
		DocumentID: d.ID,
		LineNo:     d.nextLineNo(),
		Amount:     amount,
		Reason:     reason,
		CreatedAt:  now(),
	})
	if err := d.refresh(); err != nil {
		return nil, err
	}
	return &d.Lines.Surcharges[len(d.Lines.Surcharges)-1], nil
}

// AddRefund records which sold line is being returned. It does not change totals.
func (d *WorkingDocument) AddRefund(in RefundInput) (*RefundLine, error) {
	if err := d.ensureMutable(); err != nil {
		return nil, err
	}
	if !in.Quantity.IsPositive() {
		return nil, ErrInvalidAmount{Field: "refund_quantity", Value: in.Quantity}
	}
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount{Field: "refund_amount", Value: in.Amount}
	}
	if in.ProductLineID != nil && !d.hasProductLine(*in.ProductLineID) {
		return nil, ErrLineNotFound{LineID: *in.ProductLineID}
	}
	d.Lines.Refunds = append(d.Lines.Refunds, RefundLine{
		ID:                 uuid.New(),
		DocumentID:         d.ID,
		LineNo:             d.nextLineNo(),
		ProductLineID:      in.ProductLineID,
		OriginalDocumentID: in.OriginalDocumentID,
		Quantity:           in.Quantity,
		Amount:             in.Amount,
		Reason:             in.Reason,
		CreatedAt:          now(),
	})
	d.touch()
	return &d.Lines.Refunds[len(d.Lines.Refunds)-1], nil
}

func (d *WorkingDocument) AddDelivery(in DeliveryInput) (*DeliveryLine, error) {
	if err := d.ensureMutable(); err != nil {
		return nil, err
	}
	d.Lines.Deliveries = append(d.Lines.Deliveries, DeliveryLine{
		ID:          uuid.New(),
		DocumentID:  d.ID,
		LineNo:      d.nextLineNo(),
		Address:     in.Address,
		ContactName: in.ContactName,
		Phone:       in.Phone,
		ScheduledAt: in.ScheduledAt,
	})
	d.touch()
	return &d.Lines.Deliveries[len(d.Lines.Deliveries)-1], nil
}

func (d *WorkingDocument) AddKitchenOrder(productLineID uuid.UUID, station, instructions string) (*KitchenOrderLine, error) {
	if err := d.ensureMutable(); err != nil {
		return nil, err
	}
	if !d.hasProductLine(productLineID) {
		return nil, ErrLineNotFound{LineID: productLineID}
	}
	ref := productLineID
	d.Lines.KitchenOrders = append(d.Lines.KitchenOrders, KitchenOrderLine{
		ID:            uuid.New(),
		DocumentID:    d.ID,
		LineNo:        d.nextLineNo(),
		ProductLineID: &ref,
		Station:       station,
		Instructions:  instructions,
	})
	d.touch()
	return &d.Lines.KitchenOrders[len(d.Lines.KitchenOrders)-1], nil
}

func (d *WorkingDocument) AddLoyalty(cardNumber string, earned, redeemed decimal.Decimal) (*LoyaltyLine, error) {
	if err := d.ensureMutable(); err != nil {
		return nil, err
	}
	if earned.IsNegative() {
		return nil, ErrInvalidAmount{Field: "points_earned", Value: earned}
	}
	if redeemed.IsNegative() {
		return nil, ErrInvalidAmount{Field: "points_redeemed", Value: redeemed}
	}
	d.Lines.Loyalty = append(d.Lines.Loyalty, LoyaltyLine{
		ID:             uuid.New(),
		DocumentID:     d.ID,
		LineNo:         d.nextLineNo(),
		CardNumber:     cardNumber,
		PointsEarned:   earned,
		PointsRedeemed: redeemed,
	})
	d.touch()
	return &d.Lines.Loyalty[len(d.Lines.Loyalty)-1], nil
}

// SetFiscal stores the fiscal device answer, replacing any earlier one
func (d *WorkingDocument) SetFiscal(in FiscalInput) (*FiscalRecord, error) {
	if err := d.ensureMutable(); err != nil {
		return nil, err
	}
	id := uuid.New()
	if d.Lines.Fiscal != nil {
		id = d.Lines.Fiscal.ID
	}
	d.Lines.Fiscal = &FiscalRecord{
		ID:           id,
		DocumentID:   d.ID,
		FiscalNumber: in.FiscalNumber,
		DeviceSerial: in.DeviceSerial,
		ZNumber:      in.ZNumber,
		SignedAt:     in.SignedAt,
	}
	d.touch()
	return d.Lines.Fiscal, nil
}

func (d *WorkingDocument) hasProductLine(id uuid.UUID) bool {
	for _, p := range d.Lines.Products {
		if p.ID == id && !p.IsCancelled {
			return true
		}
	}
	return false
}

// MoveToPeriod restamps an unfinished document onto another closure period.
// Documents left empty across a close are carried into the next period this way.
func (d *WorkingDocument) MoveToPeriod(periodID uuid.UUID, closureNumber int) error {
	if d.Status.Terminal() {
		return ErrDocumentAlreadyClosed{DocumentID: d.ID, Status: d.Status}
	}
	d.ClosurePeriodID = periodID
	d.ClosureNumber = closureNumber
	d.BatchNumber = closureNumber
	d.touch()
	return nil
}

// Complete finalizes the document as Completed, or Cancelled when cancel is
// set, and freezes its totals.
func (d *WorkingDocument) Complete(cancel bool, reason string) error {
	if d.Status.Terminal() {
		return ErrDocumentAlreadyClosed{DocumentID: d.ID, Status: d.Status}
	}
	if d.Status == StatusSuspended {
		return ErrDocumentSuspended
	}
	if d.RequiresLines && d.Lines.LiveLineCount() == 0 {
		return ErrNoActiveDocument
	}
	if err := d.refresh(); err != nil {
		return err
	}
	if !cancel {
		if due := d.Totals.Total.Sub(d.Totals.Payment.Sub(d.Totals.Tip)); due.IsPositive() {
			return ErrPaymentIncomplete{DocumentID: d.ID, Due: due}
		}
	}

	if cancel {
		d.Status = StatusCancelled
		d.CancelReason = reason
	} else {
		change := d.Totals.Payment.Sub(d.Totals.Total).Sub(d.Totals.Tip)
		if change.IsPositive() {
			d.Lines.Changes = append(d.Lines.Changes, ChangeLine{
				ID:           uuid.New(),
				DocumentID:   d.ID,
				LineNo:       d.nextLineNo(),
				PaymentType:  shared.PaymentTypeCash,
				Amount:       change,
				CurrencyCode: d.BaseCurrency,
			})
		}
		d.Status = StatusCompleted
	}

	d.Totals = d.Lines.Totals()
	completedAt := now()
	d.CompletedAt = &completedAt
	d.UpdatedAt = completedAt
	return d.Reconcile()
}

// Reconcile verifies the cached totals against the lines
func (d *WorkingDocument) Reconcile() error {
	computed := d.Lines.Totals()
	if field, cached, sum := d.Totals.Diff(computed); field != "" {
		return ErrTotalsMismatch{Field: field, Cached: cached, Computed: sum}
	}
	return nil
}

type saleRef struct {
	id       uuid.UUID
	price    decimal.Decimal
	discount *decimal.Decimal
	tax      *decimal.Decimal
	taxable  decimal.Decimal
}

// refresh spreads discounts over live sale lines, recomputes every tax line
// and rebuilds the cached totals. Document-level discounts are allocated in
// proportion to each line's net amount with money.Allocate.
func (d *WorkingDocument) refresh() error {
	refs := make([]*saleRef, 0, len(d.Lines.Products)+len(d.Lines.Departments))
	for i := range d.Lines.Products {
		p := &d.Lines.Products[i]
		if !p.IsCancelled {
			refs = append(refs, &saleRef{id: p.ID, price: p.TotalPrice, discount: &p.TotalDiscount, tax: &p.TotalTax})
		}
	}
	for i := range d.Lines.Departments {
		dep := &d.Lines.Departments[i]
		if !dep.IsCancelled {
			refs = append(refs, &saleRef{id: dep.ID, price: dep.TotalPrice, discount: &dep.TotalDiscount, tax: &dep.TotalTax})
		}
	}

	lineDiscount := make(map[uuid.UUID]decimal.Decimal, len(refs))
	docDiscount := decimal.Zero
	for i := range d.Lines.Discounts {
		disc := &d.Lines.Discounts[i]
		if disc.IsCancelled {
			continue
		}
		if t := disc.target(); t != nil {
			lineDiscount[*t] = lineDiscount[*t].Add(disc.Amount)
			continue
		}
		if len(refs) == 0 {
			disc.IsCancelled = true
			continue
		}
		docDiscount = docDiscount.Add(disc.Amount)
	}

	nets := make([]decimal.Decimal, len(refs))
	for i, r := range refs {
		r.taxable = r.price.Sub(lineDiscount[r.id])
		nets[i] = r.taxable
	}
	shares := money.Allocate(docDiscount, nets, d.DecimalPlaces)
	for i, r := range refs {
		*r.discount = lineDiscount[r.id].Add(shares[i])
		r.taxable = r.taxable.Sub(shares[i])
	}

	byID := make(map[uuid.UUID]*saleRef, len(refs))
	for _, r := range refs {
		byID[r.id] = r
	}
	for i := range d.Lines.Taxes {
		tl := &d.Lines.Taxes[i]
		owner := tl.owner()
		if owner == nil {
			tl.IsCancelled = true
			continue
		}
		r, ok := byID[*owner]
		if !ok {
			tl.IsCancelled = true
			continue
		}
		amount, err := money.ExtractTax(r.taxable, tl.RatePercent, d.DecimalPlaces)
		if err != nil {
			return err
		}
		tl.TaxableAmount = r.taxable
		tl.TaxAmount = amount
		*r.tax = amount
	}

	d.Totals = d.Lines.Totals()
	d.touch()
	return nil
}
