package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/retail-pos-engine/internal/domain/document"
	"github.com/retail-pos-engine/internal/platform/persistence"
)

// Line kinds stored in document_lines.kind
const (
	lineKindProduct      = "product"
	lineKindDepartment   = "department"
	lineKindDiscount     = "discount"
	lineKindPayment      = "payment"
	lineKindTax          = "tax"
	lineKindTip          = "tip"
	lineKindNote         = "note"
	lineKindRefund       = "refund"
	lineKindSurcharge    = "surcharge"
	lineKindDelivery     = "delivery"
	lineKindKitchenOrder = "kitchen_order"
	lineKindLoyalty      = "loyalty"
	lineKindChange       = "change"
	lineKindFiscal       = "fiscal"
)

const documentColumns = `id, source_document_id, transaction_unique_id, register_id, store_id, kind, category,
	receipt_number, closure_period_id, closure_number, batch_number, cashier_id, customer_id,
	base_currency, decimal_places, status, cancel_reason,
	total_gross, total_discount, total_surcharge, total_amount, total_tax, total_payment, total_tip, total_change,
	created_at, completed_at, promoted_at`

// DocumentRepository stores promoted documents: a normalized head row plus
// one document_lines row per line.
type DocumentRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewDocumentRepository(logger *slog.Logger, querier persistence.Querier) *DocumentRepository {
	return &DocumentRepository{querier: querier, logger: logger}
}

func (r *DocumentRepository) WithTx(tx pgx.Tx) *DocumentRepository {
	return &DocumentRepository{querier: tx, logger: r.logger}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *document.PermanentDocument) error {
	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
	`
	t := doc.Totals
	_, err := r.querier.Exec(ctx, query,
		doc.ID, doc.SourceDocumentID, doc.TransactionUniqueID, doc.RegisterID, doc.StoreID, doc.Kind, doc.Category,
		doc.ReceiptNumber, doc.ClosurePeriodID, doc.ClosureNumber, doc.BatchNumber, doc.CashierID, doc.CustomerID,
		doc.BaseCurrency, doc.DecimalPlaces, doc.Status, doc.CancelReason,
		t.Gross, t.Discount, t.Surcharge, t.Total, t.Tax, t.Payment, t.Tip, t.Change,
		doc.CreatedAt, doc.CompletedAt, doc.PromotedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create document", "document_id", doc.ID.String(), "error", err)
		return fmt.Errorf("failed to create document: %w", err)
	}

	rows, err := lineRows(doc)
	if err != nil {
		return err
	}
	for _, row := range rows {
		_, err := r.querier.Exec(ctx,
			`INSERT INTO document_lines (id, document_id, kind, line_no, payload) VALUES ($1, $2, $3, $4, $5)`,
			row.id, doc.ID, row.kind, row.lineNo, row.payload)
		if err != nil {
			r.logger.Error("Failed to create document line",
				"document_id", doc.ID.String(),
				"line_id", row.id.String(),
				"kind", row.kind,
				"error", err,
			)
			return fmt.Errorf("failed to create %s line: %w", row.kind, err)
		}
	}
	return nil
}

func (r *DocumentRepository) Get(ctx context.Context, id uuid.UUID) (*document.PermanentDocument, error) {
	var doc document.PermanentDocument
	t := &doc.Totals
	err := r.querier.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id).Scan(
		&doc.ID, &doc.SourceDocumentID, &doc.TransactionUniqueID, &doc.RegisterID, &doc.StoreID, &doc.Kind, &doc.Category,
		&doc.ReceiptNumber, &doc.ClosurePeriodID, &doc.ClosureNumber, &doc.BatchNumber, &doc.CashierID, &doc.CustomerID,
		&doc.BaseCurrency, &doc.DecimalPlaces, &doc.Status, &doc.CancelReason,
		&t.Gross, &t.Discount, &t.Surcharge, &t.Total, &t.Tax, &t.Payment, &t.Tip, &t.Change,
		&doc.CreatedAt, &doc.CompletedAt, &doc.PromotedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, document.ErrDocumentNotFound{DocumentID: id}
		}
		r.logger.Error("Failed to get document", "document_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	doc.UpdatedAt = doc.PromotedAt

	rows, err := r.querier.Query(ctx,
		`SELECT kind, payload FROM document_lines WHERE document_id = $1 ORDER BY kind, line_no`, id)
	if err != nil {
		r.logger.Error("Failed to get document lines", "document_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get document lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			kind    string
			payload []byte
		)
		if err := rows.Scan(&kind, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan document line: %w", err)
		}
		if err := appendLine(&doc.Lines, kind, payload); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over document lines: %w", err)
	}
	return &doc, nil
}

type lineRow struct {
	id      uuid.UUID
	kind    string
	lineNo  int
	payload []byte
}

func lineRows(doc *document.PermanentDocument) ([]lineRow, error) {
	l := doc.Lines
	rows := make([]lineRow, 0, l.Count())
	add := func(id uuid.UUID, kind string, lineNo int, v any) error {
		payload, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal %s line: %w", kind, err)
		}
		rows = append(rows, lineRow{id: id, kind: kind, lineNo: lineNo, payload: payload})
		return nil
	}

	var err error
	for _, x := range l.Products {
		err = errors.Join(err, add(x.ID, lineKindProduct, x.LineNo, x))
	}
	for _, x := range l.Departments {
		err = errors.Join(err, add(x.ID, lineKindDepartment, x.LineNo, x))
	}
	for _, x := range l.Discounts {
		err = errors.Join(err, add(x.ID, lineKindDiscount, x.LineNo, x))
	}
	for _, x := range l.Payments {
		err = errors.Join(err, add(x.ID, lineKindPayment, x.LineNo, x))
	}
	for _, x := range l.Taxes {
		err = errors.Join(err, add(x.ID, lineKindTax, x.LineNo, x))
	}
	for _, x := range l.Tips {
		err = errors.Join(err, add(x.ID, lineKindTip, x.LineNo, x))
	}
	for _, x := range l.Notes {
		err = errors.Join(err, add(x.ID, lineKindNote, x.LineNo, x))
	}
	for _, x := range l.Refunds {
		err = errors.Join(err, add(x.ID, lineKindRefund, x.LineNo, x))
	}
	for _, x := range l.Surcharges {
		err = errors.Join(err, add(x.ID, lineKindSurcharge, x.LineNo, x))
	}
	for _, x := range l.Deliveries {
		err = errors.Join(err, add(x.ID, lineKindDelivery, x.LineNo, x))
	}
	for _, x := range l.KitchenOrders {
		err = errors.Join(err, add(x.ID, lineKindKitchenOrder, x.LineNo, x))
	}
	for _, x := range l.Loyalty {
		err = errors.Join(err, add(x.ID, lineKindLoyalty, x.LineNo, x))
	}
	for _, x := range l.Changes {
		err = errors.Join(err, add(x.ID, lineKindChange, x.LineNo, x))
	}
	if l.Fiscal != nil {
		err = errors.Join(err, add(l.Fiscal.ID, lineKindFiscal, 0, l.Fiscal))
	}
	return rows, err
}

func appendLine(l *document.Lines, kind string, payload []byte) error {
	var err error
	switch kind {
	case lineKindProduct:
		l.Products, err = appendDecoded(l.Products, payload)
	case lineKindDepartment:
		l.Departments, err = appendDecoded(l.Departments, payload)
	case lineKindDiscount:
		l.Discounts, err = appendDecoded(l.Discounts, payload)
	case lineKindPayment:
		l.Payments, err = appendDecoded(l.Payments, payload)
	case lineKindTax:
		l.Taxes, err = appendDecoded(l.Taxes, payload)
	case lineKindTip:
		l.Tips, err = appendDecoded(l.Tips, payload)
	case lineKindNote:
		l.Notes, err = appendDecoded(l.Notes, payload)
	case lineKindRefund:
		l.Refunds, err = appendDecoded(l.Refunds, payload)
	case lineKindSurcharge:
		l.Surcharges, err = appendDecoded(l.Surcharges, payload)
	case lineKindDelivery:
		l.Deliveries, err = appendDecoded(l.Deliveries, payload)
	case lineKindKitchenOrder:
		l.KitchenOrders, err = appendDecoded(l.KitchenOrders, payload)
	case lineKindLoyalty:
		l.Loyalty, err = appendDecoded(l.Loyalty, payload)
	case lineKindChange:
		l.Changes, err = appendDecoded(l.Changes, payload)
	case lineKindFiscal:
		var f document.FiscalRecord
		err = json.Unmarshal(payload, &f)
		l.Fiscal = &f
	default:
		return fmt.Errorf("unknown document line kind %q", kind)
	}
	if err != nil {
		return fmt.Errorf("failed to unmarshal %s line: %w", kind, err)
	}
	return nil
}

func appendDecoded[T any](dst []T, payload []byte) ([]T, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return dst, err
	}
	return append(dst, v), nil
}
