package document

import (
	"time"

	"github.com/google/uuid"
)

// PermanentDocument is the immutable record of a finished sale. Every id in it
// is distinct from the working ids it was promoted from.
type PermanentDocument struct {
	Header
	SourceDocumentID uuid.UUID `json:"source_document_id"`
	PromotedAt       time.Time `json:"promoted_at"`
	Totals           Totals    `json:"totals"`
	Lines            Lines     `json:"lines"`
}

// IsCancelled reports whether the sale was voided before completion
func (p *PermanentDocument) IsCancelled() bool {
	return p.Status == StatusCancelled
}
