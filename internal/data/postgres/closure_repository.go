package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/retail-pos-engine/internal/domain/closure"
	"github.com/retail-pos-engine/internal/platform/persistence"
	"github.com/shopspring/decimal"
)

// OpenPeriodConstraint is the partial unique index that allows one open
// period per register
const OpenPeriodConstraint = "closure_periods_one_open"

// Summary dimensions stored in closure_summaries.dimension
const (
	dimensionCashier      = "cashier"
	dimensionCurrency     = "currency"
	dimensionDepartment   = "department"
	dimensionDiscount     = "discount"
	dimensionDocumentType = "document_type"
	dimensionPayment      = "payment"
	dimensionTax          = "tax"
	dimensionTip          = "tip"
)

const periodColumns = `id, unique_id, register_id, store_id, business_date, sequence_number, base_currency,
	opened_by, closed_by, start_time, end_time, expected_cash, actual_cash, cash_variance, note, counters`

type ClosureRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewClosureRepository(logger *slog.Logger, querier persistence.Querier) *ClosureRepository {
	return &ClosureRepository{querier: querier, logger: logger}
}

func (r *ClosureRepository) WithTx(tx pgx.Tx) *ClosureRepository {
	return &ClosureRepository{querier: tx, logger: r.logger}
}

func (r *ClosureRepository) GetOpen(ctx context.Context, registerID int) (*closure.Period, error) {
	return r.open(ctx, registerID, "")
}

// LockOpen loads the open period with FOR UPDATE
func (r *ClosureRepository) LockOpen(ctx context.Context, registerID int) (*closure.Period, error) {
	return r.open(ctx, registerID, " FOR UPDATE")
}

func (r *ClosureRepository) open(ctx context.Context, registerID int, lock string) (*closure.Period, error) {
	query := `SELECT ` + periodColumns + ` FROM closure_periods WHERE register_id = $1 AND end_time IS NULL` + lock
	p, err := scanPeriod(r.querier.QueryRow(ctx, query, registerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, closure.ErrNoOpenPeriod
		}
		r.logger.Error("Failed to get open closure period", "register_id", registerID, "error", err)
		return nil, fmt.Errorf("failed to get open closure period: %w", err)
	}
	if err := r.loadSummaries(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ClosureRepository) Get(ctx context.Context, id uuid.UUID) (*closure.Period, error) {
	p, err := scanPeriod(r.querier.QueryRow(ctx, `SELECT `+periodColumns+` FROM closure_periods WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, closure.ErrPeriodNotFound{PeriodID: id}
		}
		r.logger.Error("Failed to get closure period", "period_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get closure period: %w", err)
	}
	if err := r.loadSummaries(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// NextSequenceNumber returns one more than the highest number used on the day
func (r *ClosureRepository) NextSequenceNumber(ctx context.Context, registerID int, businessDate time.Time) (int, error) {
	query := `
		SELECT COALESCE(MAX(sequence_number), 0) + 1
		FROM closure_periods
		WHERE register_id = $1 AND business_date = $2
	`
	var next int
	if err := r.querier.QueryRow(ctx, query, registerID, businessDate).Scan(&next); err != nil {
		r.logger.Error("Failed to get next closure sequence number", "register_id", registerID, "error", err)
		return 0, fmt.Errorf("failed to get next closure sequence number: %w", err)
	}
	return next, nil
}

// Create inserts a new open period. A second open period for the register
// fails with closure.ErrOpenPeriodExists.
func (r *ClosureRepository) Create(ctx context.Context, p *closure.Period) error {
	counters, err := json.Marshal(p.Counters)
	if err != nil {
		return fmt.Errorf("failed to marshal closure counters: %w", err)
	}

	query := `
		INSERT INTO closure_periods (` + periodColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = r.querier.Exec(ctx, query,
		p.ID, p.UniqueID, p.RegisterID, p.StoreID, p.BusinessDate, p.SequenceNumber, p.BaseCurrency,
		p.OpenedBy, p.ClosedBy, p.StartTime, p.EndTime, p.ExpectedCash,
		nullDecimal(p.ActualCash), nullDecimal(p.CashVariance), p.Note, counters,
	)
	if err != nil {
		if persistence.IsUniqueViolation(err, OpenPeriodConstraint) {
			return closure.ErrOpenPeriodExists
		}
		r.logger.Error("Failed to create closure period", "register_id", p.RegisterID, "error", err)
		return fmt.Errorf("failed to create closure period: %w", err)
	}
	return r.upsertSummaries(ctx, p)
}

// SaveProgress writes the running counters and every summary row of an open period
func (r *ClosureRepository) SaveProgress(ctx context.Context, p *closure.Period) error {
	counters, err := json.Marshal(p.Counters)
	if err != nil {
		return fmt.Errorf("failed to marshal closure counters: %w", err)
	}

	query := `
		UPDATE closure_periods
		SET expected_cash = $1, counters = $2
		WHERE id = $3 AND end_time IS NULL
	`
	result, err := r.querier.Exec(ctx, query, p.ExpectedCash, counters, p.ID)
	if err != nil {
		r.logger.Error("Failed to save closure progress", "period_id", p.ID.String(), "error", err)
		return fmt.Errorf("failed to save closure progress: %w", err)
	}
	if result.RowsAffected() == 0 {
		return closure.ErrPeriodSealed
	}
	return r.upsertSummaries(ctx, p)
}

// Seal persists a sealed period and freezes its summary rows
func (r *ClosureRepository) Seal(ctx context.Context, p *closure.Period) error {
	if p.IsOpen() {
		return fmt.Errorf("failed to seal closure period %s: period has no end time", p.ID)
	}
	counters, err := json.Marshal(p.Counters)
	if err != nil {
		return fmt.Errorf("failed to marshal closure counters: %w", err)
	}

	query := `
		UPDATE closure_periods
		SET end_time = $1, closed_by = $2, expected_cash = $3, actual_cash = $4, cash_variance = $5, note = $6, counters = $7
		WHERE id = $8 AND end_time IS NULL
	`
	result, err := r.querier.Exec(ctx, query,
		p.EndTime, p.ClosedBy, p.ExpectedCash, nullDecimal(p.ActualCash), nullDecimal(p.CashVariance), p.Note, counters, p.ID)
	if err != nil {
		r.logger.Error("Failed to seal closure period", "period_id", p.ID.String(), "error", err)
		return fmt.Errorf("failed to seal closure period: %w", err)
	}
	if result.RowsAffected() == 0 {
		return closure.ErrPeriodSealed
	}

	if err := r.upsertSummaries(ctx, p); err != nil {
		return err
	}
	if _, err := r.querier.Exec(ctx, `UPDATE closure_summaries SET sealed = TRUE WHERE period_id = $1`, p.ID); err != nil {
		r.logger.Error("Failed to seal closure summaries", "period_id", p.ID.String(), "error", err)
		return fmt.Errorf("failed to seal closure summaries: %w", err)
	}
	return nil
}

func (r *ClosureRepository) MarkIngested(ctx context.Context, periodID, documentID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO closure_ingestions (document_id, period_id, ingested_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (document_id) DO NOTHING
	`
	result, err := r.querier.Exec(ctx, query, documentID, periodID, time.Now().UTC())
	if err != nil {
		r.logger.Error("Failed to mark document ingested",
			"period_id", periodID.String(),
			"document_id", documentID.String(),
			"error", err,
		)
		return false, fmt.Errorf("failed to mark document ingested: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

func (r *ClosureRepository) upsertSummaries(ctx context.Context, p *closure.Period) error {
	rows, err := summaryRows(p.Summaries)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO closure_summaries (period_id, dimension, row_key, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (period_id, dimension, row_key)
		DO UPDATE SET data = EXCLUDED.data
		WHERE closure_summaries.sealed = FALSE
	`
	for _, row := range rows {
		if _, err := r.querier.Exec(ctx, query, p.ID, row.dimension, row.key, row.data); err != nil {
			r.logger.Error("Failed to upsert closure summary",
				"period_id", p.ID.String(),
				"dimension", row.dimension,
				"key", row.key,
				"error", err,
			)
			return fmt.Errorf("failed to upsert %s summary: %w", row.dimension, err)
		}
	}
	return nil
}

func (r *ClosureRepository) loadSummaries(ctx context.Context, p *closure.Period) error {
	rows, err := r.querier.Query(ctx,
		`SELECT dimension, row_key, data FROM closure_summaries WHERE period_id = $1`, p.ID)
	if err != nil {
		r.logger.Error("Failed to load closure summaries", "period_id", p.ID.String(), "error", err)
		return fmt.Errorf("failed to load closure summaries: %w", err)
	}
	defer rows.Close()

	p.Summaries = closure.NewSummaries()
	for rows.Next() {
		var (
			dimension, key string
			data           []byte
		)
		if err := rows.Scan(&dimension, &key, &data); err != nil {
			return fmt.Errorf("failed to scan closure summary: %w", err)
		}
		if err := decodeSummary(&p.Summaries, dimension, key, data); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating over closure summaries: %w", err)
	}
	return nil
}

type summaryRow struct {
	dimension string
	key       string
	data      []byte
}

// summaryRows flattens the summaries in dimension then key order
func summaryRows(s closure.Summaries) ([]summaryRow, error) {
	var rows []summaryRow
	var errs error
	collect := func(dimension string, m map[string]any) {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			data, err := json.Marshal(m[k])
			if err != nil {
				errs = errors.Join(errs, fmt.Errorf("failed to marshal %s summary %s: %w", dimension, k, err))
				continue
			}
			rows = append(rows, summaryRow{dimension: dimension, key: k, data: data})
		}
	}
	collect(dimensionCashier, asAny(s.Cashiers))
	collect(dimensionCurrency, asAny(s.Currencies))
	collect(dimensionDepartment, asAny(s.Departments))
	collect(dimensionDiscount, asAny(s.Discounts))
	collect(dimensionDocumentType, asAny(s.DocumentTypes))
	collect(dimensionPayment, asAny(s.Payments))
	collect(dimensionTax, asAny(s.Taxes))
	collect(dimensionTip, asAny(s.Tips))
	return rows, errs
}

func asAny[T any](m map[string]*T) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func decodeSummary(s *closure.Summaries, dimension, key string, data []byte) error {
	var err error
	switch dimension {
	case dimensionCashier:
		err = decodeInto(s.Cashiers, key, data)
	case dimensionCurrency:
		err = decodeInto(s.Currencies, key, data)
	case dimensionDepartment:
		err = decodeInto(s.Departments, key, data)
	case dimensionDiscount:
		err = decodeInto(s.Discounts, key, data)
	case dimensionDocumentType:
		err = decodeInto(s.DocumentTypes, key, data)
	case dimensionPayment:
		err = decodeInto(s.Payments, key, data)
	case dimensionTax:
		err = decodeInto(s.Taxes, key, data)
	case dimensionTip:
		err = decodeInto(s.Tips, key, data)
	default:
		return fmt.Errorf("unknown closure summary dimension %q", dimension)
	}
	if err != nil {
		return fmt.Errorf("failed to unmarshal %s summary %s: %w", dimension, key, err)
	}
	return nil
}

func decodeInto[T any](m map[string]*T, key string, data []byte) error {
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return err
	}
	m[key] = v
	return nil
}

func scanPeriod(row pgx.Row) (*closure.Period, error) {
	var (
		p                closure.Period
		actual, variance decimal.NullDecimal
		counters         []byte
	)
	err := row.Scan(
		&p.ID, &p.UniqueID, &p.RegisterID, &p.StoreID, &p.BusinessDate, &p.SequenceNumber, &p.BaseCurrency,
		&p.OpenedBy, &p.ClosedBy, &p.StartTime, &p.EndTime, &p.ExpectedCash, &actual, &variance, &p.Note, &counters,
	)
	if err != nil {
		return nil, err
	}
	if actual.Valid {
		p.ActualCash = &actual.Decimal
	}
	if variance.Valid {
		p.CashVariance = &variance.Decimal
	}
	p.Counters = closure.NewCounters()
	if err := json.Unmarshal(counters, &p.Counters); err != nil {
		return nil, fmt.Errorf("failed to unmarshal closure counters: %w", err)
	}
	p.Summaries = closure.NewSummaries()
	return &p, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
