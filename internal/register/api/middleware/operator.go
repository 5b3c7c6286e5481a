package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// CashierIDHeader names the operator running the request
	CashierIDHeader = "X-Cashier-ID"

	cashierIDKey = "cashier_id"
)

// Operator copies the X-Cashier-ID header into the gin context. It does not
// reject requests; handlers that need an operator check GetCashierID.
func Operator() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := strings.TrimSpace(c.GetHeader(CashierIDHeader)); id != "" {
			c.Set(cashierIDKey, id)
		}
		c.Next()
	}
}

// GetCashierID returns the operator of the request or ""
func GetCashierID(c *gin.Context) string {
	return c.GetString(cashierIDKey)
}
