package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceRepository_NextReceiptNumber(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewSequenceRepository(newTestLogger(), mock)

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO register_sequences`).
			WithArgs(2).
			WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow(int64(17)))

		next, err := repo.NextReceiptNumber(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(17), next)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		dbErr := errors.New("deadlock detected")
		mock.ExpectQuery(`INSERT INTO register_sequences`).
			WithArgs(2).
			WillReturnError(dbErr)

		_, err := repo.NextReceiptNumber(ctx, 2)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
