package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/retail-pos-engine/internal/domain/closure"
	"github.com/retail-pos-engine/internal/domain/document"
	"github.com/retail-pos-engine/internal/domain/money"
	"github.com/retail-pos-engine/internal/domain/reference"
)

func TestClassify(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{"invalid amount", document.ErrInvalidAmount{Field: "tip", Value: decimal.Zero}, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"wrapped invalid amount", fmt.Errorf("add: %w", document.ErrInvalidAmount{Field: "payment"}), http.StatusBadRequest, "INVALID_AMOUNT"},
		{"document not found", document.ErrDocumentNotFound{DocumentID: id}, http.StatusNotFound, "DOCUMENT_NOT_FOUND"},
		{"line not found", document.ErrLineNotFound{LineID: id}, http.StatusNotFound, "LINE_NOT_FOUND"},
		{"unknown product", reference.ErrNotFound{Kind: "product", Key: id.String()}, http.StatusUnprocessableEntity, "UNKNOWN_REFERENCE"},
		{"foreign sale currency", document.ErrCurrencyMismatch{DocumentCurrency: "EUR", Currency: "USD"}, http.StatusUnprocessableEntity, "CURRENCY_MISMATCH"},
		{"tax calculation", money.ErrTaxCalculation{RatePercent: decimal.NewFromInt(-100)}, http.StatusUnprocessableEntity, "TAX_CALCULATION"},
		{"closed document", document.ErrDocumentAlreadyClosed{DocumentID: id, Status: document.StatusCancelled}, http.StatusConflict, "DOCUMENT_CLOSED"},
		{"suspended", document.ErrDocumentSuspended, http.StatusConflict, "DOCUMENT_SUSPENDED"},
		{"no active document", document.ErrNoActiveDocument, http.StatusConflict, "NO_ACTIVE_DOCUMENT"},
		{"underpaid", document.ErrPaymentIncomplete{DocumentID: id, Due: decimal.RequireFromString("1.50")}, http.StatusConflict, "PAYMENT_INCOMPLETE"},
		{"invalid transition", document.ErrInvalidTransition{From: document.StatusSuspended, To: document.StatusActive}, http.StatusConflict, "INVALID_TRANSITION"},
		{"stale version", document.ErrConcurrentModification{DocumentID: id}, http.StatusConflict, "CONCURRENT_MODIFICATION"},
		{"no operator", closure.ErrClosureNotPossible{Reason: closure.ReasonNoOperator}, http.StatusUnauthorized, "OPERATOR_REQUIRED"},
		{"no open period", closure.ErrNoOpenPeriod, http.StatusConflict, "CLOSURE_NOT_POSSIBLE"},
		{"open documents", closure.ErrClosureNotPossible{Reason: closure.ReasonOpenDocuments}, http.StatusConflict, "CLOSURE_NOT_POSSIBLE"},
		{"promotion", &document.ErrPromotionIntegrity{DocumentID: id, Stage: "copy", Err: errors.New("x")}, http.StatusInternalServerError, "PROMOTION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := classify(tt.err)
			assert.True(t, ok)
			assert.Equal(t, tt.expectedStatus, got.status)
			assert.Equal(t, tt.expectedCode, got.code)
		})
	}

	_, ok := classify(errors.New("socket closed"))
	assert.False(t, ok)
}
