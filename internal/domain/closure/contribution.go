package closure

import (
	"github.com/google/uuid"
	"github.com/retail-pos-engine/internal/domain/document"
	"github.com/retail-pos-engine/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Contribution is what one promoted document adds to a period
type Contribution struct {
	Counters     Counters
	Summaries    Summaries
	ExpectedCash decimal.Decimal
}

// ContributionOf computes the contribution of doc. Amounts of categories that
// take money out of the till are negated. A cancelled document only counts as
// a void.
func ContributionOf(doc *document.PermanentDocument) Contribution {
	c := Contribution{
		Counters:     NewCounters(),
		Summaries:    NewSummaries(),
		ExpectedCash: decimal.Zero,
	}
	sign := decimal.NewFromInt(doc.Category.Sign())
	signed := func(v decimal.Decimal) decimal.Decimal { return v.Mul(sign) }
	t := doc.Totals

	c.Counters.DocumentCount = 1

	if doc.IsCancelled() {
		c.Counters.CanceledCount = 1
		c.Counters.CanceledAmount = signed(t.Total)

		cashier := c.Summaries.cashier(doc.CashierID)
		cashier.VoidCount = 1
		cashier.VoidAmount = signed(t.Total)

		kind := c.Summaries.documentType(doc.Kind)
		kind.CanceledCount = 1
		kind.CanceledAmount = signed(t.Total)
		return c
	}

	c.Counters.ValidCount = 1
	c.Counters.ValidAmount = signed(t.Total)
	c.Counters.GrossAmount = signed(t.Gross)
	c.Counters.DiscountAmount = signed(t.Discount)
	c.Counters.SurchargeAmount = signed(t.Surcharge)
	c.Counters.TaxAmount = signed(t.Tax)
	c.Counters.NetAmount = signed(t.Total)
	c.Counters.TipAmount = signed(t.Tip)

	switch doc.Category {
	case shared.TransactionCategoryReturn:
		c.Counters.ReturnCount = 1
		c.Counters.ReturnAmount = t.Total
	case shared.TransactionCategoryPaidIn:
		c.Counters.PaidInCount = 1
		c.Counters.PaidInAmount = t.Total
	case shared.TransactionCategoryPaidOut:
		c.Counters.PaidOutCount = 1
		c.Counters.PaidOutAmount = t.Total
	case shared.TransactionCategoryExpense:
		c.Counters.ExpenseCount = 1
		c.Counters.ExpenseAmount = t.Total
	}

	cashier := c.Summaries.cashier(doc.CashierID)
	cashier.DocumentCount = 1
	cashier.GrossAmount = signed(t.Gross)
	cashier.DiscountAmount = signed(t.Discount)
	cashier.NetAmount = signed(t.Total)

	kind := c.Summaries.documentType(doc.Kind)
	kind.ValidCount = 1
	kind.ValidAmount = signed(t.Total)

	for _, p := range doc.Lines.Products {
		if p.IsCancelled {
			continue
		}
		addDepartment(&c.Summaries, p.DepartmentID, p.DepartmentName, p.Quantity, p.TotalPrice, p.TotalDiscount, p.TotalTax, signed)
	}
	for _, d := range doc.Lines.Departments {
		if d.IsCancelled {
			continue
		}
		addDepartment(&c.Summaries, d.DepartmentID, d.DepartmentName, d.Quantity, d.TotalPrice, d.TotalDiscount, d.TotalTax, signed)
	}

	for _, d := range doc.Lines.Discounts {
		if d.IsCancelled {
			continue
		}
		row := c.Summaries.discount(d.DiscountType)
		row.Count++
		row.Amount = row.Amount.Add(signed(d.Amount))
	}

	paymentTypes := make(map[string]shared.PaymentType, len(doc.Lines.Payments))
	cash := decimal.Zero
	for _, p := range doc.Lines.Payments {
		paymentTypes[p.ID.String()] = p.PaymentType
		if p.IsCancelled {
			continue
		}
		row := c.Summaries.payment(p.PaymentType)
		row.Count++
		row.Amount = row.Amount.Add(signed(p.Amount))

		cur := c.Summaries.currency(p.CurrencyCode)
		cur.PaymentCount++
		cur.CurrencyAmount = cur.CurrencyAmount.Add(signed(p.CurrencyAmount))
		cur.BaseAmount = cur.BaseAmount.Add(signed(p.Amount))

		if p.PaymentType == shared.PaymentTypeCash {
			cash = cash.Add(p.Amount)
		}
	}
	for _, ch := range doc.Lines.Changes {
		row := c.Summaries.payment(ch.PaymentType)
		row.ChangeAmount = row.ChangeAmount.Add(signed(ch.Amount))
		if ch.PaymentType == shared.PaymentTypeCash {
			cash = cash.Sub(ch.Amount)
		}
	}
	c.ExpectedCash = signed(cash)

	for _, tx := range doc.Lines.Taxes {
		if tx.IsCancelled {
			continue
		}
		row := c.Summaries.tax(tx.RatePercent, tx.TaxName)
		row.LineCount++
		if !tx.RatePercent.IsPositive() {
			row.ExemptCount++
		}
		row.TaxableAmount = row.TaxableAmount.Add(signed(tx.TaxableAmount))
		row.TaxAmount = row.TaxAmount.Add(signed(tx.TaxAmount))
	}

	for _, tip := range doc.Lines.Tips {
		if tip.IsCancelled {
			continue
		}
		pt := shared.PaymentTypeNone
		if tip.PaymentLineID != nil {
			if t, ok := paymentTypes[tip.PaymentLineID.String()]; ok {
				pt = t
			}
		}
		row := c.Summaries.tip(pt)
		row.Count++
		row.Amount = row.Amount.Add(signed(tip.Amount))
	}

	return c
}

func addDepartment(s *Summaries, id uuid.UUID, name string, qty, gross, discount, tax decimal.Decimal, signed func(decimal.Decimal) decimal.Decimal) {
	row := s.department(id, name)
	row.LineCount++
	row.Quantity = row.Quantity.Add(signed(qty))
	row.GrossAmount = row.GrossAmount.Add(signed(gross))
	row.DiscountAmount = row.DiscountAmount.Add(signed(discount))
	row.TaxAmount = row.TaxAmount.Add(signed(tax))
	row.NetAmount = row.NetAmount.Add(signed(gross.Sub(discount).Sub(tax)))
}
