package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/medshop/internal/domain/models"
	"github.com/mamadbah2/medshop/internal/service/reporting"
)

// ReportService is the reporting surface used by the HTTP layer.
type ReportService interface {
	LatestInventoryReport(ctx context.Context) (models.InventoryReport, error)
	ArchiveInventoryReport(ctx context.Context) (models.InventoryReport, error)
}

// ReportHandler serves inventory snapshots.
type ReportHandler struct {
	svc    ReportService
	logger *zap.Logger
}

// NewReportHandler constructs the handler.
func NewReportHandler(svc ReportService, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{svc: svc, logger: logger}
}

// Latest returns the last archived snapshot.
func (h *ReportHandler) Latest(c *gin.Context) {
	report, err := h.svc.LatestInventoryReport(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report, "summary": reporting.FormatReport(report)})
}

// Archive takes a snapshot now.
func (h *ReportHandler) Archive(c *gin.Context) {
	report, err := h.svc.ArchiveInventoryReport(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"report": report})
}
