package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/retail-pos-engine/internal/platform/persistence"
)

// SequenceRepository issues gap-free receipt numbers per register
type SequenceRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewSequenceRepository(logger *slog.Logger, querier persistence.Querier) *SequenceRepository {
	return &SequenceRepository{querier: querier, logger: logger}
}

func (r *SequenceRepository) WithTx(tx pgx.Tx) *SequenceRepository {
	return &SequenceRepository{querier: tx, logger: r.logger}
}

func (r *SequenceRepository) NextReceiptNumber(ctx context.Context, registerID int) (int64, error) {
	query := `
		INSERT INTO register_sequences (register_id, value)
		VALUES ($1, 1)
		ON CONFLICT (register_id) DO UPDATE SET value = register_sequences.value + 1
		RETURNING value
	`
	var next int64
	if err := r.querier.QueryRow(ctx, query, registerID).Scan(&next); err != nil {
		r.logger.Error("Failed to get next receipt number", "register_id", registerID, "error", err)
		return 0, fmt.Errorf("failed to get next receipt number: %w", err)
	}
	return next, nil
}
