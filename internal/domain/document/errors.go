package document

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNoActiveDocument  = errors.New("no active document")
	ErrDocumentSuspended = errors.New("document is suspended")
	ErrEmptyNote         = errors.New("note text cannot be empty")
	ErrNotPromotable     = errors.New("only completed or cancelled documents can be promoted")
)

// ErrInvalidAmount indicates a malformed or disallowed non-positive value
type ErrInvalidAmount struct {
	Field string
	Value decimal.Decimal
}

func (e ErrInvalidAmount) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Value.String())
}

// Is matches any ErrInvalidAmount when the target has no field
func (e ErrInvalidAmount) Is(target error) bool {
	t, ok := target.(ErrInvalidAmount)
	if !ok {
		return false
	}
	return t.Field == "" || t.Field == e.Field
}

// ErrDocumentAlreadyClosed indicates a mutation on a completed or cancelled document
type ErrDocumentAlreadyClosed struct {
	DocumentID uuid.UUID
	Status     Status
}

func (e ErrDocumentAlreadyClosed) Error() string {
	return fmt.Sprintf("document %s is already %s", e.DocumentID, e.Status)
}

// Is matches any ErrDocumentAlreadyClosed when the target has no document
func (e ErrDocumentAlreadyClosed) Is(target error) bool {
	t, ok := target.(ErrDocumentAlreadyClosed)
	if !ok {
		return false
	}
	return t.DocumentID == uuid.Nil || t.DocumentID == e.DocumentID
}

// ErrPaymentIncomplete indicates a completion attempt before payments cover
// the total. Due is what is still owed.
type ErrPaymentIncomplete struct {
	DocumentID uuid.UUID
	Due        decimal.Decimal
}

func (e ErrPaymentIncomplete) Error() string {
	return fmt.Sprintf("document %s cannot be completed: %s still due", e.DocumentID, e.Due.String())
}

// Is matches any ErrPaymentIncomplete when the target has no document
func (e ErrPaymentIncomplete) Is(target error) bool {
	t, ok := target.(ErrPaymentIncomplete)
	if !ok {
		return false
	}
	return t.DocumentID == uuid.Nil || t.DocumentID == e.DocumentID
}

// ErrCurrencyMismatch indicates a sale line priced in a currency other than
// the document's base currency
type ErrCurrencyMismatch struct {
	DocumentCurrency string
	Currency         string
}

func (e ErrCurrencyMismatch) Error() string {
	return fmt.Sprintf("sale lines must be priced in %s, got %s", e.DocumentCurrency, e.Currency)
}

func (e ErrCurrencyMismatch) Is(target error) bool {
	_, ok := target.(ErrCurrencyMismatch)
	return ok
}

// ErrInvalidTransition indicates a state change the machine does not allow
type ErrInvalidTransition struct {
	From Status
	To   Status
}

func (e ErrInvalidTransition) Error() string {
	return fmt.Sprintf("cannot move document from %s to %s", e.From, e.To)
}

// ErrLineNotFound indicates an unknown or cancelled line reference
type ErrLineNotFound struct {
	LineID uuid.UUID
}

func (e ErrLineNotFound) Error() string {
	return "line not found: " + e.LineID.String()
}

func (e ErrLineNotFound) Is(target error) bool {
	t, ok := target.(ErrLineNotFound)
	if !ok {
		return false
	}
	return t.LineID == uuid.Nil || t.LineID == e.LineID
}

// ErrDocumentNotFound indicates a missing working or permanent document
type ErrDocumentNotFound struct {
	DocumentID uuid.UUID
}

func (e ErrDocumentNotFound) Error() string {
	return "document not found: " + e.DocumentID.String()
}

func (e ErrDocumentNotFound) Is(target error) bool {
	t, ok := target.(ErrDocumentNotFound)
	if !ok {
		return false
	}
	return t.DocumentID == uuid.Nil || t.DocumentID == e.DocumentID
}

// ErrConcurrentModification indicates an optimistic lock failure on save
type ErrConcurrentModification struct {
	DocumentID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for document: " + e.DocumentID.String()
}

// ErrTotalsMismatch indicates cached totals that do not match the lines
type ErrTotalsMismatch struct {
	Field    string
	Cached   decimal.Decimal
	Computed decimal.Decimal
}

func (e ErrTotalsMismatch) Error() string {
	return fmt.Sprintf("document %s total mismatch: cached %s, lines sum to %s", e.Field, e.Cached, e.Computed)
}

// ErrPromotionIntegrity wraps any failure while writing permanent records.
// The enclosing transaction is always rolled back when it is returned.
type ErrPromotionIntegrity struct {
	DocumentID uuid.UUID
	Stage      string
	Err        error
}

func (e *ErrPromotionIntegrity) Error() string {
	return fmt.Sprintf("promotion of document %s failed at %s: %v", e.DocumentID, e.Stage, e.Err)
}

func (e *ErrPromotionIntegrity) Unwrap() error {
	return e.Err
}
