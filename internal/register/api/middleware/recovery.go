package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// panicBody mirrors the handler error envelope
type panicBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Recovery turns a panic into a 500 in the usual error envelope. Nothing the
// panicking handler staged is committed, since storage writes only happen on
// a successful unit of work.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			attrs := []any{
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
				"method", c.Request.Method,
				"route", routeOf(c),
			}
			if cashier := GetCashierID(c); cashier != "" {
				attrs = append(attrs, "cashier_id", cashier)
			}
			logger.Error("Panic recovered", attrs...)

			var body panicBody
			body.Error.Code = "INTERNAL_SERVER_ERROR"
			body.Error.Message = "An internal server error occurred"
			body.CorrelationID = GetCorrelationID(c)
			c.AbortWithStatusJSON(http.StatusInternalServerError, body)
		}()

		c.Next()
	}
}
