package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/retail-pos-engine/internal/domain/closure"
	"github.com/retail-pos-engine/internal/domain/document"
	"github.com/retail-pos-engine/internal/domain/money"
	"github.com/retail-pos-engine/internal/domain/reference"
	"github.com/retail-pos-engine/internal/domain/shared"
	"github.com/retail-pos-engine/internal/register/api/middleware"
)

// Response represents a standard API response
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

// ErrorInfo represents error information in a response
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondWithData sends a JSON response with data
func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, &Response{
		Data:          data,
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

// RespondWithError sends a JSON response with an error
func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, &Response{
		Error:         &ErrorInfo{Code: code, Message: message},
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

// RespondOK sends a 200 OK response with data
func RespondOK(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusOK, data)
}

// RespondCreated sends a 201 Created response with data
func RespondCreated(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusCreated, data)
}

// RespondNoContent sends a 204 No Content response
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// RespondBadRequest sends a 400 Bad Request response with an error
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// RespondInternalError sends a 500 Internal Server Error response with an error
func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
}

// apiError is the HTTP rendering of a domain error
type apiError struct {
	status int
	code   string
}

// classify maps the domain error taxonomy onto HTTP. ok is false for errors
// that are not part of it.
func classify(err error) (apiError, bool) {
	var (
		transition  document.ErrInvalidTransition
		concurrent  document.ErrConcurrentModification
		totals      document.ErrTotalsMismatch
		integrity   *document.ErrPromotionIntegrity
		notPossible closure.ErrClosureNotPossible
	)

	switch {
	case errors.Is(err, document.ErrInvalidAmount{}):
		return apiError{http.StatusBadRequest, "INVALID_AMOUNT"}, true
	case errors.Is(err, document.ErrEmptyNote):
		return apiError{http.StatusBadRequest, "EMPTY_NOTE"}, true
	case errors.Is(err, shared.ErrInvalidDocumentKind), errors.Is(err, shared.ErrInvalidPaymentType):
		return apiError{http.StatusBadRequest, "BAD_REQUEST"}, true

	case errors.Is(err, document.ErrDocumentNotFound{}):
		return apiError{http.StatusNotFound, "DOCUMENT_NOT_FOUND"}, true
	case errors.Is(err, document.ErrLineNotFound{}):
		return apiError{http.StatusNotFound, "LINE_NOT_FOUND"}, true
	case errors.Is(err, closure.ErrPeriodNotFound{}):
		return apiError{http.StatusNotFound, "PERIOD_NOT_FOUND"}, true

	case errors.Is(err, reference.ErrNotFound{}):
		return apiError{http.StatusUnprocessableEntity, "UNKNOWN_REFERENCE"}, true
	case errors.Is(err, document.ErrCurrencyMismatch{}):
		return apiError{http.StatusUnprocessableEntity, "CURRENCY_MISMATCH"}, true
	case errors.Is(err, money.ErrTaxCalculation{}):
		return apiError{http.StatusUnprocessableEntity, "TAX_CALCULATION"}, true

	case errors.Is(err, document.ErrDocumentAlreadyClosed{}):
		return apiError{http.StatusConflict, "DOCUMENT_CLOSED"}, true
	case errors.Is(err, document.ErrDocumentSuspended):
		return apiError{http.StatusConflict, "DOCUMENT_SUSPENDED"}, true
	case errors.Is(err, document.ErrNoActiveDocument):
		return apiError{http.StatusConflict, "NO_ACTIVE_DOCUMENT"}, true
	case errors.Is(err, document.ErrNotPromotable):
		return apiError{http.StatusConflict, "NOT_PROMOTABLE"}, true
	case errors.Is(err, document.ErrPaymentIncomplete{}):
		return apiError{http.StatusConflict, "PAYMENT_INCOMPLETE"}, true
	case errors.As(err, &transition):
		return apiError{http.StatusConflict, "INVALID_TRANSITION"}, true
	case errors.As(err, &concurrent):
		return apiError{http.StatusConflict, "CONCURRENT_MODIFICATION"}, true

	case errors.As(err, &notPossible):
		if notPossible.Reason == closure.ReasonNoOperator {
			return apiError{http.StatusUnauthorized, "OPERATOR_REQUIRED"}, true
		}
		return apiError{http.StatusConflict, "CLOSURE_NOT_POSSIBLE"}, true
	case errors.Is(err, closure.ErrNoOpenPeriod), errors.Is(err, closure.ErrPeriodSealed):
		return apiError{http.StatusConflict, "CLOSURE_NOT_POSSIBLE"}, true

	case errors.As(err, &integrity):
		return apiError{http.StatusInternalServerError, "PROMOTION_FAILED"}, true
	case errors.As(err, &totals):
		return apiError{http.StatusInternalServerError, "TOTALS_MISMATCH"}, true
	}
	return apiError{}, false
}

// RespondWithDomainError renders err through the error taxonomy. Anything
// outside it is logged and hidden behind a generic 500.
func RespondWithDomainError(c *gin.Context, logger *slog.Logger, err error) {
	mapped, ok := classify(err)
	if !ok {
		logger.Error("Unhandled error", "path", c.FullPath(), "error", err)
		RespondInternalError(c)
		return
	}
	if mapped.status >= http.StatusInternalServerError {
		logger.Error("Request failed", "path", c.FullPath(), "code", mapped.code, "error", err)
	}
	RespondWithError(c, mapped.status, mapped.code, err.Error())
}
