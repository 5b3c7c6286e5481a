package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retail-pos-engine/internal/domain/closure"
	"github.com/retail-pos-engine/internal/domain/document"
	"github.com/retail-pos-engine/internal/domain/journal"
	"github.com/retail-pos-engine/internal/domain/outbox"
	"github.com/retail-pos-engine/internal/domain/reference"
	"github.com/retail-pos-engine/internal/domain/shared"
	"github.com/retail-pos-engine/internal/domain/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDocument(receipt int64) *document.WorkingDocument {
	return document.NewWorkingDocument(document.NewDocumentParams{
		RegisterID:    1,
		StoreID:       "STORE-1",
		Policy:        reference.KindPolicy{Kind: shared.DocumentKindFiscalReceipt, Category: shared.TransactionCategorySale, RequiresLines: true},
		ReceiptNumber: receipt,
		CashierID:     "cashier-1",
		BaseCurrency:  "EUR",
		DecimalPlaces: 2,
		Now:           time.Date(2026, 3, 1, 9, 0, int(receipt), 0, time.UTC),
	})
}

func newPeriod(seq int) *closure.Period {
	return closure.NewPeriod(closure.NewPeriodParams{
		RegisterID: 1, StoreID: "STORE-1", BaseCurrency: "EUR", SequenceNumber: seq,
		Now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	})
}

func TestStore_ExecuteCommitsOnlyOnSuccess(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	doc := newDocument(1)

	failure := errors.New("boom")
	err := store.Execute(ctx, func(ctx context.Context, repos storage.Repositories) error {
		require.NoError(t, repos.Working.Create(ctx, doc))
		_, err := repos.Working.Get(ctx, doc.ID)
		require.NoError(t, err, "writes are visible inside the transaction")
		return failure
	})
	assert.ErrorIs(t, err, failure)

	_, err = store.Repositories().Working.Get(ctx, doc.ID)
	assert.ErrorIs(t, err, document.ErrDocumentNotFound{DocumentID: doc.ID})

	err = store.Execute(ctx, func(ctx context.Context, repos storage.Repositories) error {
		return repos.Working.Create(ctx, doc)
	})
	require.NoError(t, err)

	got, err := store.Repositories().Working.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.TransactionUniqueID, got.TransactionUniqueID)
}

func TestStore_ExecuteRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	doc := newDocument(1)

	assert.Panics(t, func() {
		_ = store.Execute(ctx, func(ctx context.Context, repos storage.Repositories) error {
			_ = repos.Working.Create(ctx, doc)
			panic("crash")
		})
	})

	_, err := store.Repositories().Working.Get(ctx, doc.ID)
	assert.Error(t, err)
}

func TestStore_FailOn(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	injected := errors.New("disk full")
	store.FailOn(OpOutboxCreate, injected)

	err := store.Repositories().Outbox.Create(ctx, &outbox.Message{Status: shared.OutboxStatusPending})
	assert.ErrorIs(t, err, injected)

	store.Reset()
	assert.NoError(t, store.Repositories().Outbox.Create(ctx, &outbox.Message{Status: shared.OutboxStatusPending}))
}

func TestWorkingRepository_OptimisticLock(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Repositories().Working
	doc := newDocument(1)
	require.NoError(t, repo.Create(ctx, doc))

	stale, err := repo.Get(ctx, doc.ID)
	require.NoError(t, err)

	require.NoError(t, doc.Start())
	require.NoError(t, repo.Save(ctx, doc))
	assert.Equal(t, 2, doc.Version)

	err = repo.Save(ctx, stale)
	var conflict document.ErrConcurrentModification
	assert.True(t, errors.As(err, &conflict))
}

func TestWorkingRepository_ListByStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Repositories().Working

	first, second, third := newDocument(1), newDocument(2), newDocument(3)
	require.NoError(t, second.Start())
	require.NoError(t, second.Suspend())
	require.NoError(t, third.Start())
	for _, d := range []*document.WorkingDocument{third, first, second} {
		require.NoError(t, repo.Create(ctx, d))
	}

	docs, err := repo.ListByStatus(ctx, 1, document.StatusSuspended)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, second.ID, docs[0].ID)

	docs, err = repo.ListByStatus(ctx, 1, document.IncompleteStatuses...)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{docs[0].ReceiptNumber, docs[1].ReceiptNumber, docs[2].ReceiptNumber})

	docs, err = repo.ListByStatus(ctx, 2, document.IncompleteStatuses...)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestClosureRepository_OneOpenPeriod(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Repositories().Closures

	first := newPeriod(1)
	require.NoError(t, repo.Create(ctx, first))
	assert.ErrorIs(t, repo.Create(ctx, newPeriod(2)), closure.ErrOpenPeriodExists)

	next, err := repo.NextSequenceNumber(ctx, 1, first.BusinessDate)
	require.NoError(t, err)
	assert.Equal(t, 2, next)

	actual := decimal.NewFromInt(0)
	require.NoError(t, first.Seal("manager", &actual, "", time.Now()))
	require.NoError(t, repo.Seal(ctx, first))
	assert.ErrorIs(t, repo.SaveProgress(ctx, first), closure.ErrPeriodSealed)

	_, err = repo.GetOpen(ctx, 1)
	assert.ErrorIs(t, err, closure.ErrNoOpenPeriod)

	require.NoError(t, repo.Create(ctx, newPeriod(2)))
	open, err := repo.LockOpen(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, open.SequenceNumber)

	sealed, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, sealed.IsOpen())
	assert.Equal(t, "manager", sealed.ClosedBy)
}

func TestClosureRepository_MarkIngested(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Repositories().Closures
	periodID, documentID := uuid.New(), uuid.New()

	first, err := repo.MarkIngested(ctx, periodID, documentID)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := repo.MarkIngested(ctx, periodID, documentID)
	require.NoError(t, err)
	assert.False(t, again)
}

func TestSequenceRepository_NextReceiptNumber(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Repositories().Sequences

	for want := int64(1); want <= 3; want++ {
		got, err := repo.NextReceiptNumber(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	other, err := repo.NextReceiptNumber(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), other)
}

func TestOutboxRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Repositories().Outbox
	aggregateID := uuid.New()

	for i := 0; i < 3; i++ {
		m, err := outbox.NewMessage(journal.Event{EventType: shared.EventTypeClosureClosed, AggregateID: aggregateID, RegisterID: 1})
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, m))
		assert.Equal(t, int64(i+1), m.ID)
	}

	pending, err := repo.GetPending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, int64(1), pending[0].ID)

	require.NoError(t, repo.IncrementAttempts(ctx, 1))
	require.NoError(t, repo.UpdateStatus(ctx, 1, shared.OutboxStatusProcessed))
	require.NoError(t, repo.Delete(ctx, 2))
	assert.ErrorIs(t, repo.Delete(ctx, 2), outbox.ErrMessageNotFound{ID: 2})

	pending, err = repo.GetPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(3), pending[0].ID)

	latest, err := repo.GetByAggregateID(ctx, aggregateID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), latest.ID)
}

func TestFileSnapshotLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"tax_rates": [{"id": "7b0c5a1e-0000-4000-8000-000000000001", "code": "VAT20", "name": "VAT", "rate_percent": "20"}],
		"currencies": [{"code": "EUR", "sign": "€", "name": "Euro", "decimal_places": 2, "exchange_rate": "1"}]
	}`), 0o600))

	s, err := NewFileSnapshotLoader(path).LoadSnapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, s.TaxRates, 1)
	assert.True(t, s.TaxRates[0].RatePercent.Equal(decimal.NewFromInt(20)))

	_, err = NewFileSnapshotLoader(filepath.Join(t.TempDir(), "missing.json")).LoadSnapshot(context.Background())
	assert.Error(t, err)
}
