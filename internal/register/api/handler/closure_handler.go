package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/retail-pos-engine/internal/register/api/middleware"
	"github.com/retail-pos-engine/internal/register/service"
)

// ClosureHandler exposes the open closure period and the end-of-day close
type ClosureHandler struct {
	closureManager service.ClosureManager
	logger         *slog.Logger
}

func NewClosureHandler(logger *slog.Logger, closureManager service.ClosureManager) *ClosureHandler {
	return &ClosureHandler{
		closureManager: closureManager,
		logger:         logger,
	}
}

// Current returns the open period with its running totals
func (h *ClosureHandler) Current(c *gin.Context) {
	period, err := h.closureManager.Current(c.Request.Context())
	if err != nil {
		RespondWithDomainError(c, h.logger, err)
		return
	}
	RespondOK(c, mapPeriod(period))
}

// Close seals the open period as the operator in X-Cashier-ID. A missing
// operator is rejected by the closure manager.
func (h *ClosureHandler) Close(c *gin.Context) {
	var req CloseClosureRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondBadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}

	operator := middleware.GetCashierID(c)
	closed, next, err := h.closureManager.Close(c.Request.Context(), operator, req.ActualCash, req.Note)
	if err != nil {
		RespondWithDomainError(c, h.logger, err)
		return
	}

	h.logger.Info("Closure period closed via API",
		"period_id", closed.ID.String(),
		"unique_id", closed.UniqueID,
		"operator", operator)
	RespondOK(c, CloseClosureResponse{
		Closed: mapPeriod(closed),
		Next:   mapPeriod(next),
	})
}
