package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/retail-pos-engine/internal/domain/closure"
	"github.com/retail-pos-engine/internal/register/api/middleware"
)

func newClosureRouter(cm *MockClosureManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewClosureHandler(newTestLogger(), cm)

	router := gin.New()
	router.Use(middleware.CorrelationID())
	router.Use(middleware.Operator())
	router.GET("/closures/current", h.Current)
	router.POST("/closures/current/close", h.Close)
	return router
}

func newTestPeriod(seq int) *closure.Period {
	return closure.NewPeriod(closure.NewPeriodParams{
		RegisterID:     1,
		StoreID:        "S1",
		BaseCurrency:   "EUR",
		OpenedBy:       "system",
		SequenceNumber: seq,
		Now:            time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC),
	})
}

func TestClosureHandler_Current(t *testing.T) {
	t.Run("open period", func(t *testing.T) {
		cm := new(MockClosureManager)
		period := newTestPeriod(1)
		cm.On("Current", mock.Anything).Return(period, nil).Once()

		rr := perform(newClosureRouter(cm), http.MethodGet, "/closures/current", nil, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var got PeriodResponse
		require.NoError(t, json.Unmarshal(decodeResponse(t, rr).Data, &got))
		assert.Equal(t, period.ID.String(), got.ID)
		assert.Equal(t, "2026-03-09", got.BusinessDate)
		assert.Empty(t, got.EndTime)
	})

	t.Run("no open period", func(t *testing.T) {
		cm := new(MockClosureManager)
		cm.On("Current", mock.Anything).Return(nil, closure.ErrNoOpenPeriod).Once()

		rr := perform(newClosureRouter(cm), http.MethodGet, "/closures/current", nil, nil)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestClosureHandler_Close(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		headers        map[string]string
		setupMocks     func(cm *MockClosureManager)
		expectedStatus int
		expectedCode   string
	}{
		{
			name:    "close with counted cash",
			body:    gin.H{"actual_cash": "120.50", "note": "end of day"},
			headers: map[string]string{middleware.CashierIDHeader: "manager-1"},
			setupMocks: func(cm *MockClosureManager) {
				closed := newTestPeriod(1)
				end := time.Date(2026, 3, 9, 22, 0, 0, 0, time.UTC)
				closed.EndTime = &end
				closed.ClosedBy = "manager-1"
				cm.On("Close", mock.Anything, "manager-1",
					mock.MatchedBy(func(cash *decimal.Decimal) bool {
						return cash != nil && cash.Equal(decimal.RequireFromString("120.50"))
					}), "end of day").
					Return(closed, newTestPeriod(2), nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:    "close without a body",
			headers: map[string]string{middleware.CashierIDHeader: "manager-1"},
			setupMocks: func(cm *MockClosureManager) {
				cm.On("Close", mock.Anything, "manager-1", (*decimal.Decimal)(nil), "").
					Return(newTestPeriod(1), newTestPeriod(2), nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "missing operator",
			setupMocks: func(cm *MockClosureManager) {
				cm.On("Close", mock.Anything, "", (*decimal.Decimal)(nil), "").
					Return(nil, nil, closure.ErrClosureNotPossible{Reason: closure.ReasonNoOperator}).Once()
			},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "OPERATOR_REQUIRED",
		},
		{
			name:    "nothing to close",
			headers: map[string]string{middleware.CashierIDHeader: "manager-1"},
			setupMocks: func(cm *MockClosureManager) {
				cm.On("Close", mock.Anything, "manager-1", (*decimal.Decimal)(nil), "").
					Return(nil, nil, closure.ErrClosureNotPossible{Reason: closure.ReasonNoOpenPeriod}).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "CLOSURE_NOT_POSSIBLE",
		},
		{
			name:           "malformed cash",
			body:           gin.H{"actual_cash": "lots"},
			headers:        map[string]string{middleware.CashierIDHeader: "manager-1"},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "BAD_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cm := new(MockClosureManager)
			if tt.setupMocks != nil {
				tt.setupMocks(cm)
			}

			rr := perform(newClosureRouter(cm), http.MethodPost, "/closures/current/close", tt.body, tt.headers)
			assert.Equal(t, tt.expectedStatus, rr.Code)

			resp := decodeResponse(t, rr)
			if tt.expectedCode != "" {
				require.NotNil(t, resp.Error)
				assert.Equal(t, tt.expectedCode, resp.Error.Code)
			} else {
				var got CloseClosureResponse
				require.NoError(t, json.Unmarshal(resp.Data, &got))
				assert.Equal(t, 1, got.Closed.SequenceNumber)
				assert.Equal(t, 2, got.Next.SequenceNumber)
			}
			cm.AssertExpectations(t)
		})
	}
}
