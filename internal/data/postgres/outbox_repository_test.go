package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/retail-pos-engine/internal/domain/outbox"
	"github.com/retail-pos-engine/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var outboxRowColumns = []string{"id", "event_type", "aggregate_id", "register_id", "payload", "status", "attempts", "created_at", "last_attempt_at"}

func TestOutboxRepository_WithTx(t *testing.T) {
	repo := NewOutboxRepository(newTestLogger(), nil)

	mockTx := pgx.Tx(nil)
	txRepo := repo.WithTx(mockTx)

	require.NotNil(t, txRepo)
	assert.Equal(t, mockTx, txRepo.querier)
	assert.Equal(t, repo.logger, txRepo.logger)
}

func TestOutboxRepository_Create(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOutboxRepository(newTestLogger(), mock)
	message := &outbox.Message{
		EventType:   shared.EventTypeDocumentPromoted,
		AggregateID: uuid.New(),
		RegisterID:  1,
		Payload:     []byte(`{"event_type":"document.promoted"}`),
		Status:      shared.OutboxStatusPending,
		CreatedAt:   time.Now(),
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO register_outbox`).
			WithArgs(message.EventType, message.AggregateID, message.RegisterID, []byte(message.Payload), message.Status, 0, message.CreatedAt).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

		require.NoError(t, repo.Create(ctx, message))
		assert.Equal(t, int64(42), message.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		dbErr := errors.New("db error")
		mock.ExpectQuery(`INSERT INTO register_outbox`).WillReturnError(dbErr)

		err := repo.Create(ctx, message)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_GetPending(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOutboxRepository(newTestLogger(), mock)
	created := time.Now().Add(-time.Minute)
	var lastAttempt *time.Time
	aggregateID := uuid.New()

	rows := pgxmock.NewRows(outboxRowColumns).
		AddRow(int64(1), shared.EventTypeDocumentPromoted, aggregateID, 1, []byte(`{}`), shared.OutboxStatusPending, 0, created, lastAttempt).
		AddRow(int64(2), shared.EventTypeClosureClosed, aggregateID, 1, []byte(`{}`), shared.OutboxStatusPending, 2, created, lastAttempt)

	mock.ExpectQuery(`FROM register_outbox\s+WHERE status = \$1`).
		WithArgs(shared.OutboxStatusPending, 10).
		WillReturnRows(rows)

	messages, err := repo.GetPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, shared.EventTypeDocumentPromoted, messages[0].EventType)
	assert.Equal(t, shared.EventTypeClosureClosed, messages[1].EventType)
	assert.Equal(t, 2, messages[1].Attempts)
	assert.Nil(t, messages[0].LastAttemptAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOutboxRepository(newTestLogger(), mock)

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE register_outbox\s+SET status = \$1`).
			WithArgs(shared.OutboxStatusProcessed, pgxmock.AnyArg(), int64(7)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, repo.UpdateStatus(ctx, 7, shared.OutboxStatusProcessed))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(`UPDATE register_outbox\s+SET status = \$1`).
			WithArgs(shared.OutboxStatusProcessed, pgxmock.AnyArg(), int64(8)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdateStatus(ctx, 8, shared.OutboxStatusProcessed)
		assert.ErrorIs(t, err, outbox.ErrMessageNotFound{ID: 8})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_IncrementAttempts(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOutboxRepository(newTestLogger(), mock)

	mock.ExpectExec(`SET attempts = attempts \+ 1`).
		WithArgs(pgxmock.AnyArg(), int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	assert.NoError(t, repo.IncrementAttempts(ctx, 3))

	dbErr := errors.New("connection reset")
	mock.ExpectExec(`SET attempts = attempts \+ 1`).
		WithArgs(pgxmock.AnyArg(), int64(3)).
		WillReturnError(dbErr)
	assert.ErrorIs(t, repo.IncrementAttempts(ctx, 3), dbErr)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_Delete(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOutboxRepository(newTestLogger(), mock)

	mock.ExpectExec(`DELETE FROM register_outbox`).
		WithArgs(int64(5)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, repo.Delete(ctx, 5), outbox.ErrMessageNotFound{})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_GetByAggregateID(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewOutboxRepository(newTestLogger(), mock)
	aggregateID := uuid.New()
	attempted := time.Now()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(`WHERE aggregate_id = \$1`).
			WithArgs(aggregateID).
			WillReturnRows(pgxmock.NewRows(outboxRowColumns).
				AddRow(int64(9), shared.EventTypeClosureClosed, aggregateID, 2, []byte(`{"a":1}`), shared.OutboxStatusProcessed, 1, attempted, &attempted))

		message, err := repo.GetByAggregateID(ctx, aggregateID)
		require.NoError(t, err)
		assert.Equal(t, int64(9), message.ID)
		assert.Equal(t, 2, message.RegisterID)
		assert.JSONEq(t, `{"a":1}`, string(message.Payload))
		require.NotNil(t, message.LastAttemptAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`WHERE aggregate_id = \$1`).
			WithArgs(aggregateID).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetByAggregateID(ctx, aggregateID)
		assert.ErrorIs(t, err, outbox.ErrMessageNotFound{})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
