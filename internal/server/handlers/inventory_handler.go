package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/medshop/internal/domain/models"
	"github.com/mamadbah2/medshop/internal/service/inventory"
)

// InventoryService is the inventory surface used by the HTTP layer.
type InventoryService interface {
	AddStock(ctx context.Context, item string, initialQuantity, extraQuantity int64, price decimal.Decimal) (models.InventoryItem, error)
	Restock(ctx context.Context, item string, amount int64) (models.InventoryItem, error)
	LowStock(ctx context.Context) ([]string, error)
	List(ctx context.Context) ([]models.InventoryItem, error)
}

// InventoryHandler serves the supply chain and inventory management modules.
type InventoryHandler struct {
	svc    InventoryService
	logger *zap.Logger
}

// NewInventoryHandler constructs the handler.
func NewInventoryHandler(svc InventoryService, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{svc: svc, logger: logger}
}

type inventoryView struct {
	Items    []models.InventoryItem `json:"items"`
	LowStock []string               `json:"low_stock"`
	Alert    string                 `json:"alert,omitempty"`
}

// Overview returns the inventory table with the low stock warning.
func (h *InventoryHandler) Overview(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	low, err := h.svc.LowStock(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if low == nil {
		low = []string{}
	}
	c.JSON(http.StatusOK, inventoryView{Items: items, LowStock: low, Alert: inventory.LowStockMessage(low)})
}

// List returns the inventory table.
func (h *InventoryHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type addStockRequest struct {
	Item            string          `json:"item"`
	InitialQuantity int64           `json:"initial_quantity"`
	ExtraQuantity   int64           `json:"extra_quantity"`
	Price           decimal.Decimal `json:"price"`
}

// AddStock registers supplied stock.
func (h *InventoryHandler) AddStock(c *gin.Context) {
	var req addStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	item, err := h.svc.AddStock(c.Request.Context(), req.Item, req.InitialQuantity, req.ExtraQuantity, req.Price)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item, "message": "Stock added successfully"})
}

type restockRequest struct {
	Item     string `json:"item"`
	Quantity int64  `json:"quantity"`
}

// Restock adds units to an existing item.
func (h *InventoryHandler) Restock(c *gin.Context) {
	var req restockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	item, err := h.svc.Restock(c.Request.Context(), req.Item, req.Quantity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item, "message": inventory.RestockMessage(req.Item, req.Quantity)})
}
