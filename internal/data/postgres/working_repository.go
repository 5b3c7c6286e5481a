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

// WorkingRepository keeps each in-progress document as one JSONB snapshot.
// The version column is the optimistic lock.
type WorkingRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewWorkingRepository(logger *slog.Logger, querier persistence.Querier) *WorkingRepository {
	return &WorkingRepository{querier: querier, logger: logger}
}

func (r *WorkingRepository) WithTx(tx pgx.Tx) *WorkingRepository {
	return &WorkingRepository{querier: tx, logger: r.logger}
}

func (r *WorkingRepository) Create(ctx context.Context, doc *document.WorkingDocument) error {
	snapshot, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal working document: %w", err)
	}

	query := `
		INSERT INTO working_documents (id, register_id, status, version, snapshot, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.querier.Exec(ctx, query,
		doc.ID, doc.RegisterID, doc.Status, doc.Version, snapshot, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create working document", "document_id", doc.ID.String(), "error", err)
		return fmt.Errorf("failed to create working document: %w", err)
	}
	return nil
}

func (r *WorkingRepository) Get(ctx context.Context, id uuid.UUID) (*document.WorkingDocument, error) {
	var snapshot []byte
	err := r.querier.QueryRow(ctx, `SELECT snapshot FROM working_documents WHERE id = $1`, id).Scan(&snapshot)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, document.ErrDocumentNotFound{DocumentID: id}
		}
		r.logger.Error("Failed to get working document", "document_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get working document: %w", err)
	}
	return decodeWorking(snapshot)
}

// Save writes doc when the stored version still equals doc.Version and then
// advances doc.Version.
func (r *WorkingRepository) Save(ctx context.Context, doc *document.WorkingDocument) error {
	next := *doc
	next.Version = doc.Version + 1
	snapshot, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("failed to marshal working document: %w", err)
	}

	query := `
		UPDATE working_documents
		SET status = $1, version = $2, snapshot = $3, updated_at = $4
		WHERE id = $5 AND version = $6
	`
	result, err := r.querier.Exec(ctx, query,
		doc.Status, next.Version, snapshot, doc.UpdatedAt, doc.ID, doc.Version)
	if err != nil {
		r.logger.Error("Failed to save working document", "document_id", doc.ID.String(), "error", err)
		return fmt.Errorf("failed to save working document: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		err := r.querier.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM working_documents WHERE id = $1)`, doc.ID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check working document: %w", err)
		}
		if !exists {
			return document.ErrDocumentNotFound{DocumentID: doc.ID}
		}
		r.logger.Warn("Concurrent modification of working document",
			"document_id", doc.ID.String(),
			"version", doc.Version,
		)
		return document.ErrConcurrentModification{DocumentID: doc.ID}
	}

	doc.Version = next.Version
	return nil
}

func (r *WorkingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.querier.Exec(ctx, `DELETE FROM working_documents WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete working document", "document_id", id.String(), "error", err)
		return fmt.Errorf("failed to delete working document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return document.ErrDocumentNotFound{DocumentID: id}
	}
	return nil
}

// ListByStatus returns the register's documents in creation order
func (r *WorkingRepository) ListByStatus(ctx context.Context, registerID int, statuses ...document.Status) ([]*document.WorkingDocument, error) {
	wanted := make([]string, 0, len(statuses))
	for _, s := range statuses {
		wanted = append(wanted, string(s))
	}

	query := `
		SELECT snapshot
		FROM working_documents
		WHERE register_id = $1 AND status = ANY($2)
		ORDER BY created_at ASC
	`
	rows, err := r.querier.Query(ctx, query, registerID, wanted)
	if err != nil {
		r.logger.Error("Failed to list working documents", "register_id", registerID, "error", err)
		return nil, fmt.Errorf("failed to list working documents: %w", err)
	}
	defer rows.Close()

	var docs []*document.WorkingDocument
	for rows.Next() {
		var snapshot []byte
		if err := rows.Scan(&snapshot); err != nil {
			return nil, fmt.Errorf("failed to scan working document: %w", err)
		}
		doc, err := decodeWorking(snapshot)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over working documents: %w", err)
	}
	return docs, nil
}

func decodeWorking(snapshot []byte) (*document.WorkingDocument, error) {
	var doc document.WorkingDocument
	if err := json.Unmarshal(snapshot, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal working document: %w", err)
	}
	return &doc, nil
}
