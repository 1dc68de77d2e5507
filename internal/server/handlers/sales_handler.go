package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/medshop/internal/domain/models"
)

// SalesService is the sales and billing surface used by the HTTP layer.
type SalesService interface {
	ProcessSale(ctx context.Context, patient, item string, quantity int64) (models.SaleRecord, error)
	GenerateInvoice(ctx context.Context, patient string) (models.Invoice, error)
	ConfirmInvoice(ctx context.Context, patient string) (models.Invoice, string, error)
	List(ctx context.Context) ([]models.SaleRecord, error)
}

// SalesHandler serves the medical shop and billing modules.
type SalesHandler struct {
	svc    SalesService
	logger *zap.Logger
}

// NewSalesHandler constructs the handler.
func NewSalesHandler(svc SalesService, logger *zap.Logger) *SalesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SalesHandler{svc: svc, logger: logger}
}

// List returns every sales record.
func (h *SalesHandler) List(c *gin.Context) {
	records, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales": records})
}

type saleRequest struct {
	Patient  string `json:"patient"`
	Item     string `json:"item"`
	Quantity int64  `json:"quantity"`
}

// ProcessSale records a sale to a patient.
func (h *SalesHandler) ProcessSale(c *gin.Context) {
	var req saleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	sale, err := h.svc.ProcessSale(c.Request.Context(), req.Patient, req.Item, req.Quantity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sale": sale, "message": "Sale processed successfully for patient"})
}

// Invoice returns the invoice of the patient named in the path.
func (h *SalesHandler) Invoice(c *gin.Context) {
	invoice, err := h.svc.GenerateInvoice(c.Request.Context(), c.Param("patient"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// GenerateInvoice confirms the invoice. Nothing is persisted.
func (h *SalesHandler) GenerateInvoice(c *gin.Context) {
	invoice, message, err := h.svc.ConfirmInvoice(c.Request.Context(), c.Param("patient"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": invoice, "message": message})
}
