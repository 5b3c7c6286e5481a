package document

import (
	"time"

	"github.com/google/uuid"
)

// IDAllocator hands out permanent identities
type IDAllocator interface {
	NewID() uuid.UUID
}

// RandomIDs allocates random v4 UUIDs
type RandomIDs struct{}

func (RandomIDs) NewID() uuid.UUID {
	return uuid.New()
}

// IDMap maps working ids to the permanent ids allocated for them
type IDMap map[uuid.UUID]uuid.UUID

// DanglingReference is a foreign key whose target was not part of the
// promoted document. The reference is dropped from the permanent copy.
type DanglingReference struct {
	LineKind string    `json:"line_kind"`
	LineID   uuid.UUID `json:"line_id"`
	Field    string    `json:"field"`
	Target   uuid.UUID `json:"target"`
}

type remapper struct {
	ids      IDMap
	dangling []DanglingReference
}

func (r *remapper) ref(kind string, lineID uuid.UUID, field string, target *uuid.UUID) *uuid.UUID {
	if target == nil {
		return nil
	}
	if id, ok := r.ids[*target]; ok {
		return &id
	}
	r.dangling = append(r.dangling, DanglingReference{LineKind: kind, LineID: lineID, Field: field, Target: *target})
	return nil
}

// Promote copies a terminal working document into a new PermanentDocument.
// The first pass allocates a permanent id for the head and every line; the
// second copies each line and rewrites its references through the map.
func Promote(wd *WorkingDocument, ids IDAllocator, promotedAt time.Time) (*PermanentDocument, []DanglingReference, error) {
	if !wd.Status.Terminal() {
		return nil, nil, ErrNotPromotable
	}
	if err := wd.Reconcile(); err != nil {
		return nil, nil, err
	}

	m := allocateIDs(wd, ids)
	r := &remapper{ids: m}
	headID := m[wd.ID]

	header := wd.Header
	header.ID = headID

	pd := &PermanentDocument{
		Header:           header,
		SourceDocumentID: wd.ID,
		PromotedAt:       promotedAt,
		Totals:           wd.Totals,
	}

	l := &wd.Lines
	for _, x := range l.Products {
		pd.Lines.Products = append(pd.Lines.Products, copyProduct(x, headID, r))
	}
	for _, x := range l.Departments {
		pd.Lines.Departments = append(pd.Lines.Departments, copyDepartment(x, headID, r))
	}
	for _, x := range l.Discounts {
		pd.Lines.Discounts = append(pd.Lines.Discounts, copyDiscount(x, headID, r))
	}
	for _, x := range l.Payments {
		pd.Lines.Payments = append(pd.Lines.Payments, copyPayment(x, headID, r))
	}
	for _, x := range l.Taxes {
		pd.Lines.Taxes = append(pd.Lines.Taxes, copyTax(x, headID, r))
	}
	for _, x := range l.Tips {
		pd.Lines.Tips = append(pd.Lines.Tips, copyTip(x, headID, r))
	}
	for _, x := range l.Notes {
		pd.Lines.Notes = append(pd.Lines.Notes, copyNote(x, headID, r))
	}
	for _, x := range l.Refunds {
		pd.Lines.Refunds = append(pd.Lines.Refunds, copyRefund(x, headID, r))
	}
	for _, x := range l.Surcharges {
		pd.Lines.Surcharges = append(pd.Lines.Surcharges, copySurcharge(x, headID, r))
	}
	for _, x := range l.Deliveries {
		pd.Lines.Deliveries = append(pd.Lines.Deliveries, copyDelivery(x, headID, r))
	}
	for _, x := range l.KitchenOrders {
		pd.Lines.KitchenOrders = append(pd.Lines.KitchenOrders, copyKitchenOrder(x, headID, r))
	}
	for _, x := range l.Loyalty {
		pd.Lines.Loyalty = append(pd.Lines.Loyalty, copyLoyalty(x, headID, r))
	}
	for _, x := range l.Changes {
		pd.Lines.Changes = append(pd.Lines.Changes, copyChange(x, headID, r))
	}
	if l.Fiscal != nil {
		f := copyFiscal(*l.Fiscal, headID, r)
		pd.Lines.Fiscal = &f
	}

	return pd, r.dangling, nil
}

func allocateIDs(wd *WorkingDocument, ids IDAllocator) IDMap {
	m := IDMap{wd.ID: ids.NewID()}
	add := func(id uuid.UUID) { m[id] = ids.NewID() }

	l := &wd.Lines
	for _, x := range l.Products {
		add(x.ID)
	}
	for _, x := range l.Departments {
		add(x.ID)
	}
	for _, x := range l.Payments {
		add(x.ID)
	}
	for _, x := range l.Discounts {
		add(x.ID)
	}
	for _, x := range l.Deliveries {
		add(x.ID)
	}
	for _, x := range l.KitchenOrders {
		add(x.ID)
	}
	for _, x := range l.Loyalty {
		add(x.ID)
	}
	for _, x := range l.Notes {
		add(x.ID)
	}
	if l.Fiscal != nil {
		add(l.Fiscal.ID)
	}
	for _, x := range l.Refunds {
		add(x.ID)
	}
	for _, x := range l.Surcharges {
		add(x.ID)
	}
	for _, x := range l.Taxes {
		add(x.ID)
	}
	for _, x := range l.Tips {
		add(x.ID)
	}
	for _, x := range l.Changes {
		add(x.ID)
	}
	return m
}

func copyProduct(x ProductLine, docID uuid.UUID, r *remapper) ProductLine {
	out := x
	out.ID = r.ids[x.ID]
	out.DocumentID = docID
	return out
}

func copyDepartment(x DepartmentLine, docID uuid.UUID, r *remapper) DepartmentLine {
	out := x
	out.ID = r.ids[x.ID]
	out.DocumentID = docID
	return out
}

func copyDiscount(x DiscountLine, docID uuid.UUID, r *remapper) DiscountLine {
	out := x
	out.ID = r.ids[x.ID]
	out.DocumentID = docID
	out.ProductLineID = r.ref("discount", x.ID, "product_line_id", x.ProductLineID)
	out.DepartmentLineID = r.ref("discount", x.ID, "department_line_id", x.DepartmentLineID)
	out.PaymentLineID = r.ref("discount", x.ID, "payment_line_id", x.PaymentLineID)
	return out
}

func copyPayment(x PaymentLine, docID uuid.UUID, r *remapper) PaymentLine {
	out := x
	out.ID = r.ids[x.ID]
	out.DocumentID = docID
	return out
}

func copyTax(x TaxLine, docID uuid.UUID, r *remapper) TaxLine {
	out := x
	out.ID = r.ids[x.ID]
	out.DocumentID = docID
	out.ProductLineID = r.ref("tax", x.ID, "product_line_id", x.ProductLineID)
	out.DepartmentLineID = r.ref("tax", x.ID, "department_line_id", x.DepartmentLineID)
	return out
}

func copyTip(x TipLine, docID uuid.UUID, r *remapper) TipLine {
	out := x
	out.ID = r.ids[x.ID]
	out.DocumentID = docID
	out.PaymentLineID = r.ref("tip", x.ID, "payment_line_id", x.PaymentLineID)
	return out
}

func copyNote(x NoteLine, docID uuid.UUID, r *remapper) NoteLine {
	out := x
	out.ID = r.ids[x.ID]
	out.DocumentID = docID
	return out
}

// OriginalDocumentID already names a permanent document and is kept as is.
func copyRefund(x RefundLine, docID uuid.UUID, r *remapper) RefundLine {
	out := x
	out.ID = r.ids[x.ID]
	out.DocumentID = docID
	out.ProductLineID = r.ref("refund", x.ID, "product_line_id", x.ProductLineID)
	return out
}

func copySurcharge(x SurchargeLine, docID uuid.UUID, r *remapper) SurchargeLine {
	out := x
	out.ID = r.ids[x.ID]
	out.DocumentID = docID
	return out
}

func copyDelivery(x DeliveryLine, docID uuid.UUID, r *remapper) DeliveryLine {
	out := x
	out.ID = r.ids[x.ID]
	out.DocumentID = docID
	return out
}

func copyKitchenOrder(x KitchenOrderLine, docID uuid.UUID, r *remapper) KitchenOrderLine {
	out := x
	out.ID = r.ids[x.ID]
	out.DocumentID = docID
	out.ProductLineID = r.ref("kitchen_order", x.ID, "product_line_id", x.ProductLineID)
	return out
}

func copyLoyalty(x LoyaltyLine, docID uuid.UUID, r *remapper) LoyaltyLine {
	out := x
	out.ID = r.ids[x.ID]
	out.DocumentID = docID
	return out
}

func copyFiscal(x FiscalRecord, docID uuid.UUID, r *remapper) FiscalRecord {
	out := x
	out.ID = r.ids[x.ID]
	out.DocumentID = docID
	return out
}

func copyChange(x ChangeLine, docID uuid.UUID, r *remapper) ChangeLine {
	out := x
	out.ID = r.ids[x.ID]
	out.DocumentID = docID
	return out
}
