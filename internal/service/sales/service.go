// Package sales implements the medical shop and billing operations.
package sales

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/medshop/internal/domain/models"
	"github.com/mamadbah2/medshop/internal/service/inventory"
	"github.com/mamadbah2/medshop/internal/store"
)

// Service exposes sales and invoicing operations.
type Service struct {
	store  *store.Store
	logger *zap.Logger
}

// NewService wires a new sales service instance.
func NewService(st *store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, logger: logger}
}

// ProcessSale sells quantity units of item to patient. The inventory
// decrement and the sales record are committed together; when the stock
// check fails neither table changes.
func (s *Service) ProcessSale(ctx context.Context, patient, item string, quantity int64) (models.SaleRecord, error) {
	patient = strings.TrimSpace(patient)
	item = strings.TrimSpace(item)
	switch {
	case patient == "":
		return models.SaleRecord{}, models.Invalidf("patient name is required")
	case item == "":
		return models.SaleRecord{}, models.Invalidf("item name is required")
	case quantity < 1:
		return models.SaleRecord{}, models.Invalidf("quantity must be at least 1")
	}

	var sale models.SaleRecord
	err := s.store.Update(ctx, func(tables store.Tables) error {
		unit, err := inventory.RecordSale(tables[models.StoreInventory], item, quantity)
		if err != nil {
			return err
		}
		sale = models.SaleRecord{
			Patient:  patient,
			Item:     item,
			Quantity: quantity,
			Total:    unit.Mul(decimal.NewFromInt(quantity)),
		}
		tables[models.StoreSales].Append(map[string]string{
			models.FieldPatient:  sale.Patient,
			models.FieldItem:     sale.Item,
			models.FieldQuantity: store.FormatInt(sale.Quantity),
			models.FieldTotal:    store.FormatDecimal(sale.Total),
		})
		return nil
	}, models.StoreInventory, models.StoreSales)
	if err != nil {
		s.logger.Debug("sale rejected", zap.String("item", item), zap.Int64("quantity", quantity), zap.Error(err))
		return models.SaleRecord{}, err
	}

	s.logger.Info("sale recorded",
		zap.String("patient", sale.Patient),
		zap.String("item", sale.Item),
		zap.Int64("quantity", sale.Quantity),
		zap.String("total", sale.Total.StringFixed(2)),
	)
	return sale, nil
}

// List returns every sales record in insertion order.
func (s *Service) List(ctx context.Context) ([]models.SaleRecord, error) {
	table, err := s.store.Load(ctx, models.StoreSales)
	if err != nil {
		return nil, err
	}
	return store.DecodeSales(table)
}

// GenerateInvoice gathers the sales whose patient matches exactly
// (case-sensitive) and sums their totals. It never writes.
func (s *Service) GenerateInvoice(ctx context.Context, patient string) (models.Invoice, error) {
	table, err := s.store.Load(ctx, models.StoreSales)
	if err != nil {
		return models.Invoice{}, err
	}
	return BuildInvoice(table, patient)
}

// ConfirmInvoice recomputes the invoice and renders the confirmation shown
// to the operator.
func (s *Service) ConfirmInvoice(ctx context.Context, patient string) (models.Invoice, string, error) {
	invoice, err := s.GenerateInvoice(ctx, patient)
	if err != nil {
		return models.Invoice{}, "", err
	}
	return invoice, ConfirmationMessage(invoice), nil
}

// BuildInvoice filters a sales table for patient.
func BuildInvoice(table models.Table, patient string) (models.Invoice, error) {
	invoice := models.Invoice{Patient: patient, Rows: []models.SaleRecord{}, TotalAmount: decimal.Zero}
	for i := range table.Rows {
		if table.Value(i, models.FieldPatient) != patient {
			continue
		}
		sale, err := store.SaleAt(table, i)
		if err != nil {
			return models.Invoice{}, err
		}
		invoice.Rows = append(invoice.Rows, sale)
		invoice.TotalAmount = invoice.TotalAmount.Add(sale.Total)
	}
	if len(invoice.Rows) == 0 {
		return models.Invoice{}, fmt.Errorf("patient %q: %w", patient, models.ErrNoSalesFound)
	}
	return invoice, nil
}

// ConfirmationMessage renders the invoice total with two decimals.
func ConfirmationMessage(invoice models.Invoice) string {
	return fmt.Sprintf("Invoice generated for %s with total amount: $%s", invoice.Patient, invoice.TotalAmount.StringFixed(2))
}
