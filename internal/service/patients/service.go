// Package patients implements patient registration and listing.
package patients

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/medshop/internal/domain/models"
	"github.com/mamadbah2/medshop/internal/store"
)

// Service exposes patient record operations.
type Service struct {
	store  *store.Store
	logger *zap.Logger
}

// NewService wires a new patient service instance.
func NewService(st *store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, logger: logger}
}

// RegisterPatient appends a patient record. Names are not unique; registering
// the same name twice yields two records.
func (s *Service) RegisterPatient(ctx context.Context, name string, age int64, diagnosis, history string) (models.PatientRecord, error) {
	patient := models.PatientRecord{
		Name:           strings.TrimSpace(name),
		Age:            age,
		Diagnosis:      diagnosis,
		MedicalHistory: history,
	}
	switch {
	case patient.Name == "":
		return models.PatientRecord{}, models.Invalidf("patient name is required")
	case patient.Age < 1:
		return models.PatientRecord{}, models.Invalidf("age must be at least 1")
	}

	err := s.store.Update(ctx, func(tables store.Tables) error {
		tables[models.StorePatients].Append(map[string]string{
			models.FieldName:           patient.Name,
			models.FieldAge:            store.FormatInt(patient.Age),
			models.FieldDiagnosis:      patient.Diagnosis,
			models.FieldMedicalHistory: patient.MedicalHistory,
		})
		return nil
	}, models.StorePatients)
	if err != nil {
		return models.PatientRecord{}, err
	}

	s.logger.Info("patient registered", zap.String("name", patient.Name))
	return patient, nil
}

// List returns every patient in registration order.
func (s *Service) List(ctx context.Context) ([]models.PatientRecord, error) {
	table, err := s.store.Load(ctx, models.StorePatients)
	if err != nil {
		return nil, err
	}
	return store.DecodePatients(table)
}
