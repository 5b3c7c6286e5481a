package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPanicRouter(log *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(Recovery(log), CorrelationID(), Operator())
	router.POST("/documents/:id/complete", func(c *gin.Context) {
		panic("till drawer jammed")
	})
	router.GET("/documents/:id", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	return router
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		method     string
		path       string
		cashier    string
		wantStatus int
		wantLogs   []string
		noLogs     bool
	}{
		{
			name:       "panic becomes 500 with route and operator",
			method:     http.MethodPost,
			path:       "/documents/abc/complete",
			cashier:    "c-7",
			wantStatus: http.StatusInternalServerError,
			wantLogs: []string{
				`"msg":"Panic recovered"`,
				`"panic":"till drawer jammed"`,
				`"route":"/documents/:id/complete"`,
				`"cashier_id":"c-7"`,
				`"stack":`,
			},
		},
		{
			name:       "panic without operator omits cashier",
			method:     http.MethodPost,
			path:       "/documents/abc/complete",
			wantStatus: http.StatusInternalServerError,
			wantLogs:   []string{`"route":"/documents/:id/complete"`},
		},
		{
			name:       "no panic leaves the response alone",
			method:     http.MethodGet,
			path:       "/documents/abc",
			wantStatus: http.StatusOK,
			noLogs:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logBuffer bytes.Buffer
			log := slog.New(slog.NewJSONHandler(&logBuffer, nil))

			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set(CorrelationIDHeader, "corr-1")
			if tt.cashier != "" {
				req.Header.Set(CashierIDHeader, tt.cashier)
			}
			rr := httptest.NewRecorder()
			newPanicRouter(log).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.noLogs {
				assert.Empty(t, logBuffer.String())
				return
			}

			var body panicBody
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, "INTERNAL_SERVER_ERROR", body.Error.Code)
			assert.Equal(t, "corr-1", body.CorrelationID)

			for _, want := range tt.wantLogs {
				assert.Contains(t, logBuffer.String(), want)
			}
			if tt.cashier == "" {
				assert.NotContains(t, logBuffer.String(), "cashier_id")
			}
		})
	}
}
