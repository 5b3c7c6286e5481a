package closure

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNoOpenPeriod     = errors.New("no open closure period")
	ErrOpenPeriodExists = errors.New("an open closure period already exists for this register")
	ErrPeriodSealed     = errors.New("closure period is already sealed")
)

const (
	ReasonNoOperator       = "operator reference is required"
	ReasonNoOpenPeriod     = "no open period to close"
	ReasonOpenDocuments    = "unfinished documents exist in the period"
	ReasonPendingIngestion = "too many promoted documents are waiting for ingestion"
)

// ErrClosureNotPossible indicates a close that cannot run
type ErrClosureNotPossible struct {
	Reason string
}

func (e ErrClosureNotPossible) Error() string {
	return "closure not possible: " + e.Reason
}

// Is matches any ErrClosureNotPossible when the target has no reason
func (e ErrClosureNotPossible) Is(target error) bool {
	t, ok := target.(ErrClosureNotPossible)
	if !ok {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

type ErrPeriodNotFound struct {
	PeriodID uuid.UUID
}

func (e ErrPeriodNotFound) Error() string {
	return fmt.Sprintf("closure period not found: %s", e.PeriodID)
}

func (e ErrPeriodNotFound) Is(target error) bool {
	t, ok := target.(ErrPeriodNotFound)
	if !ok {
		return false
	}
	return t.PeriodID == uuid.Nil || t.PeriodID == e.PeriodID
}

// ErrPeriodMismatch indicates a document stamped with a period other than the
// open one
type ErrPeriodMismatch struct {
	DocumentID     uuid.UUID
	DocumentPeriod uuid.UUID
	OpenPeriod     uuid.UUID
}

func (e ErrPeriodMismatch) Error() string {
	return fmt.Sprintf("document %s belongs to closure period %s, open period is %s", e.DocumentID, e.DocumentPeriod, e.OpenPeriod)
}

func (e ErrPeriodMismatch) Is(target error) bool {
	t, ok := target.(ErrPeriodMismatch)
	if !ok {
		return false
	}
	return t.DocumentID == uuid.Nil || t.DocumentID == e.DocumentID
}
