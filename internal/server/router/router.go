package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mamadbah2/medshop/internal/metrics"
	"github.com/mamadbah2/medshop/internal/server/handlers"
)

const requestIDHeader = "X-Request-ID"

// Handlers groups the module handlers mounted on the engine. Reports and
// Webhook are optional.
type Handlers struct {
	Inventory *handlers.InventoryHandler
	Sales     *handlers.SalesHandler
	Patients  *handlers.PatientHandler
	Reports   *handlers.ReportHandler
	Webhook   *handlers.WebhookHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(zapLoggerMiddleware(logger, m))

	supply := r.Group("/supply-chain")
	supply.GET("/inventory", h.Inventory.Overview)
	supply.POST("/stock", h.Inventory.AddStock)

	shop := r.Group("/shop")
	shop.GET("/sales", h.Sales.List)
	shop.POST("/sales", h.Sales.ProcessSale)

	r.GET("/patients", h.Patients.List)
	r.POST("/patients", h.Patients.Register)

	billing := r.Group("/billing")
	billing.GET("/sales", h.Sales.List)
	billing.GET("/invoices/:patient", h.Sales.Invoice)
	billing.POST("/invoices/:patient/generate", h.Sales.GenerateInvoice)

	inv := r.Group("/inventory")
	inv.GET("", h.Inventory.List)
	inv.POST("/restock", h.Inventory.Restock)

	if h.Reports != nil {
		r.GET("/reports/inventory", h.Reports.Latest)
		r.POST("/reports/inventory", h.Reports.Archive)
	}

	if h.Webhook != nil {
		r.GET("/webhook", h.Webhook.Verify)
		r.POST("/webhook", h.Webhook.Receive)
		r.POST("/send-message", h.Webhook.SendMessage)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if m != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	logger.Info("router initialized", zap.Bool("webhook", h.Webhook != nil))
	return r
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		if m != nil {
			m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), elapsed)
		}

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", elapsed),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString("request_id")))
	}
}
