package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/retail-pos-engine/internal/config"
	"github.com/retail-pos-engine/internal/platform/metrics"
	"github.com/retail-pos-engine/internal/register/api/handler"
	"github.com/retail-pos-engine/internal/register/api/middleware"
)

type routerDeps struct {
	documents *handler.DocumentHandler
	closures  *handler.ClosureHandler
	metrics   *metrics.Metrics
	gatherer  prometheus.Gatherer
	cfg       *config.Config
}

// setupRouter configures API routes and middleware for the register
func setupRouter(logger *slog.Logger, r *gin.Engine, deps routerDeps) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(deps.metrics))
	r.Use(middleware.Operator())

	v1 := r.Group("/api/v1")
	{
		documents := v1.Group("/documents")
		{
			h := deps.documents
			documents.POST("", h.Begin)
			documents.GET("", h.List)
			documents.GET("/:id", h.Get)
			documents.DELETE("/:id", h.Discard)
			documents.POST("/:id/start", h.Start)

			documents.POST("/:id/products", h.AddProduct)
			documents.POST("/:id/departments", h.AddDepartment)
			documents.POST("/:id/discounts", h.ApplyDiscount)
			documents.POST("/:id/payments", h.AddPayment)
			documents.POST("/:id/tips", h.AddTip)
			documents.POST("/:id/notes", h.AddNote)
			documents.POST("/:id/surcharges", h.AddSurcharge)
			documents.POST("/:id/refunds", h.AddRefund)
			documents.POST("/:id/deliveries", h.AddDelivery)
			documents.POST("/:id/kitchen-orders", h.AddKitchenOrder)
			documents.POST("/:id/loyalty", h.AddLoyalty)
			documents.PUT("/:id/fiscal", h.SetFiscal)
			documents.POST("/:id/lines/:lineId/cancel", h.CancelLine)

			documents.POST("/:id/suspend", h.Suspend)
			documents.POST("/:id/resume", h.Resume)
			documents.POST("/:id/complete", h.Complete)
		}

		closures := v1.Group("/closures")
		{
			closures.GET("/current", deps.closures.Current)
			closures.POST("/current/close", deps.closures.Close)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	if deps.gatherer != nil && deps.cfg.Metrics.Enabled {
		r.GET(deps.cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(deps.gatherer, promhttp.HandlerOpts{})))
	}
}
