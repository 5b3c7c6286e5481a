package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/retail-pos-engine/internal/domain/closure"
	"github.com/retail-pos-engine/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var periodRowColumns = []string{
	"id", "unique_id", "register_id", "store_id", "business_date", "sequence_number", "base_currency",
	"opened_by", "closed_by", "start_time", "end_time", "expected_cash", "actual_cash", "cash_variance", "note", "counters",
}

func newOpenPeriod() *closure.Period {
	return closure.NewPeriod(closure.NewPeriodParams{
		RegisterID:     1,
		StoreID:        "STORE-1",
		BaseCurrency:   "EUR",
		OpenedBy:       "cashier-1",
		SequenceNumber: 3,
		Now:            time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	})
}

func periodRow(p *closure.Period) *pgxmock.Rows {
	counters, _ := json.Marshal(p.Counters)
	return pgxmock.NewRows(periodRowColumns).AddRow(
		p.ID, p.UniqueID, p.RegisterID, p.StoreID, p.BusinessDate, p.SequenceNumber, p.BaseCurrency,
		p.OpenedBy, p.ClosedBy, p.StartTime, p.EndTime, p.ExpectedCash,
		nullDecimal(p.ActualCash), nullDecimal(p.CashVariance), p.Note, counters,
	)
}

func TestClosureRepository_LockOpen(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewClosureRepository(newTestLogger(), mock)
	p := newOpenPeriod()
	p.Counters.DocumentCount = 4
	p.ExpectedCash = decimal.RequireFromString("55.50")

	t.Run("loads head and summaries", func(t *testing.T) {
		payment, _ := json.Marshal(closure.PaymentSummary{PaymentType: shared.PaymentTypeCash, Count: 4, Amount: decimal.RequireFromString("60.00")})
		tax, _ := json.Marshal(closure.TaxSummary{RatePercent: decimal.NewFromInt(20), LineCount: 4})

		mock.ExpectQuery(`end_time IS NULL FOR UPDATE`).
			WithArgs(1).
			WillReturnRows(periodRow(p))
		mock.ExpectQuery(`FROM closure_summaries WHERE period_id = \$1`).
			WithArgs(p.ID).
			WillReturnRows(pgxmock.NewRows([]string{"dimension", "row_key", "data"}).
				AddRow("payment", "CASH", payment).
				AddRow("tax", "20", tax))

		got, err := repo.LockOpen(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
		assert.Equal(t, "20260301-0003", got.UniqueID)
		assert.Equal(t, int64(4), got.Counters.DocumentCount)
		assert.Nil(t, got.ActualCash)
		require.Contains(t, got.Summaries.Payments, "CASH")
		assert.Equal(t, int64(4), got.Summaries.Payments["CASH"].Count)
		require.Contains(t, got.Summaries.Taxes, "20")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("none open", func(t *testing.T) {
		mock.ExpectQuery(`end_time IS NULL FOR UPDATE`).
			WithArgs(1).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.LockOpen(ctx, 1)
		assert.ErrorIs(t, err, closure.ErrNoOpenPeriod)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestClosureRepository_Get_NotFound(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewClosureRepository(newTestLogger(), mock)
	id := uuid.New()
	mock.ExpectQuery(`FROM closure_periods WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.Get(ctx, id)
	assert.ErrorIs(t, err, closure.ErrPeriodNotFound{PeriodID: id})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClosureRepository_NextSequenceNumber(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewClosureRepository(newTestLogger(), mock)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`COALESCE\(MAX\(sequence_number\), 0\) \+ 1`).
		WithArgs(1, day).
		WillReturnRows(pgxmock.NewRows([]string{"next"}).AddRow(4))

	next, err := repo.NextSequenceNumber(ctx, 1, day)
	require.NoError(t, err)
	assert.Equal(t, 4, next)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClosureRepository_Create(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewClosureRepository(newTestLogger(), mock)

	t.Run("success", func(t *testing.T) {
		p := newOpenPeriod()
		mock.ExpectExec(`INSERT INTO closure_periods`).WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.Create(ctx, p))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second open period", func(t *testing.T) {
		p := newOpenPeriod()
		mock.ExpectExec(`INSERT INTO closure_periods`).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: OpenPeriodConstraint})

		assert.ErrorIs(t, repo.Create(ctx, p), closure.ErrOpenPeriodExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other unique violation", func(t *testing.T) {
		p := newOpenPeriod()
		mock.ExpectExec(`INSERT INTO closure_periods`).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "closure_periods_sequence"})

		err := repo.Create(ctx, p)
		require.Error(t, err)
		assert.False(t, errors.Is(err, closure.ErrOpenPeriodExists))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestClosureRepository_SaveProgress(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewClosureRepository(newTestLogger(), mock)
	p := newOpenPeriod()
	p.Summaries.Payments["CASH"] = &closure.PaymentSummary{PaymentType: shared.PaymentTypeCash, Count: 1}
	p.Summaries.Cashiers["cashier-1"] = &closure.CashierSummary{CashierID: "cashier-1", DocumentCount: 1}

	t.Run("updates head and upserts rows in order", func(t *testing.T) {
		mock.ExpectExec(`UPDATE closure_periods\s+SET expected_cash = \$1, counters = \$2`).
			WithArgs(p.ExpectedCash, pgxmock.AnyArg(), p.ID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec(`INSERT INTO closure_summaries`).
			WithArgs(p.ID, "cashier", "cashier-1", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(`INSERT INTO closure_summaries`).
			WithArgs(p.ID, "payment", "CASH", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.SaveProgress(ctx, p))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("sealed period", func(t *testing.T) {
		mock.ExpectExec(`UPDATE closure_periods`).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		assert.ErrorIs(t, repo.SaveProgress(ctx, p), closure.ErrPeriodSealed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestClosureRepository_Seal(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewClosureRepository(newTestLogger(), mock)

	t.Run("open period is rejected", func(t *testing.T) {
		assert.Error(t, repo.Seal(ctx, newOpenPeriod()))
	})

	t.Run("success", func(t *testing.T) {
		p := newOpenPeriod()
		actual := decimal.RequireFromString("10.00")
		require.NoError(t, p.Seal("manager", &actual, "end of day", time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC)))

		mock.ExpectExec(`SET end_time = \$1, closed_by = \$2`).
			WithArgs(p.EndTime, "manager", p.ExpectedCash, pgxmock.AnyArg(), pgxmock.AnyArg(), "end of day", pgxmock.AnyArg(), p.ID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec(`UPDATE closure_summaries SET sealed = TRUE`).
			WithArgs(p.ID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		require.NoError(t, repo.Seal(ctx, p))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestClosureRepository_MarkIngested(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewClosureRepository(newTestLogger(), mock)
	periodID, documentID := uuid.New(), uuid.New()

	mock.ExpectExec(`INSERT INTO closure_ingestions`).
		WithArgs(documentID, periodID, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO closure_ingestions`).
		WithArgs(documentID, periodID, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	first, err := repo.MarkIngested(ctx, periodID, documentID)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := repo.MarkIngested(ctx, periodID, documentID)
	require.NoError(t, err)
	assert.False(t, again)

	assert.NoError(t, mock.ExpectationsWereMet())
}
