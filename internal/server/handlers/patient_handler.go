package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/medshop/internal/domain/models"
)

// PatientService is the patient surface used by the HTTP layer.
type PatientService interface {
	RegisterPatient(ctx context.Context, name string, age int64, diagnosis, history string) (models.PatientRecord, error)
	List(ctx context.Context) ([]models.PatientRecord, error)
}

// PatientHandler serves the patient management module.
type PatientHandler struct {
	svc    PatientService
	logger *zap.Logger
}

// NewPatientHandler constructs the handler.
func NewPatientHandler(svc PatientService, logger *zap.Logger) *PatientHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PatientHandler{svc: svc, logger: logger}
}

// List returns every registered patient.
func (h *PatientHandler) List(c *gin.Context) {
	patients, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"patients": patients})
}

// Register adds a patient record.
func (h *PatientHandler) Register(c *gin.Context) {
	var req models.PatientRecord
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	patient, err := h.svc.RegisterPatient(c.Request.Context(), req.Name, req.Age, req.Diagnosis, req.MedicalHistory)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"patient": patient, "message": "Patient added successfully"})
}
