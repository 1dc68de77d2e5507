package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/medshop/internal/domain/models"
	"github.com/mamadbah2/medshop/internal/repository/mongodb"
	"github.com/mamadbah2/medshop/internal/service/inventory"
	"github.com/mamadbah2/medshop/internal/store"
)

const dateLayout = "2006-01-02"

// Service builds inventory snapshots and operator summaries.
type Service struct {
	store   *store.Store
	archive mongodb.ReportArchive
	logger  *zap.Logger
	now     func() time.Time
}

// NewService wires a new reporting service instance. archive may be nil, in
// which case reports are built but not stored.
func NewService(st *store.Store, archive mongodb.ReportArchive, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, archive: archive, logger: logger, now: time.Now}
}

// BuildInventoryReport snapshots the three stores.
func (s *Service) BuildInventoryReport(ctx context.Context) (models.InventoryReport, error) {
	invTable, err := s.store.Load(ctx, models.StoreInventory)
	if err != nil {
		return models.InventoryReport{}, fmt.Errorf("load inventory: %w", err)
	}
	items, err := store.DecodeInventory(invTable)
	if err != nil {
		return models.InventoryReport{}, err
	}

	salesTable, err := s.store.Load(ctx, models.StoreSales)
	if err != nil {
		return models.InventoryReport{}, fmt.Errorf("load sales: %w", err)
	}
	sales, err := store.DecodeSales(salesTable)
	if err != nil {
		return models.InventoryReport{}, err
	}

	patientsTable, err := s.store.Load(ctx, models.StorePatients)
	if err != nil {
		return models.InventoryReport{}, fmt.Errorf("load patients: %w", err)
	}

	now := s.now()
	report := models.InventoryReport{
		Date:          time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
		Items:         len(items),
		LowStockItems: []string{},
		SalesCount:    len(sales),
		Patients:      patientsTable.Len(),
		CreatedAt:     now,
	}

	stockValue := decimal.Zero
	for _, item := range items {
		report.UnitsInStock += item.Quantity
		stockValue = stockValue.Add(item.Price.Mul(decimal.NewFromInt(item.Quantity)))
	}
	for name := range inventory.LowStockAlert(invTable) {
		report.LowStockItems = append(report.LowStockItems, name)
	}

	revenue := decimal.Zero
	for _, sale := range sales {
		report.UnitsSold += sale.Quantity
		revenue = revenue.Add(sale.Total)
	}

	report.StockValue = stockValue.StringFixed(2)
	report.Revenue = revenue.StringFixed(2)
	return report, nil
}

// ArchiveInventoryReport builds a snapshot and stores it when an archive is configured.
func (s *Service) ArchiveInventoryReport(ctx context.Context) (models.InventoryReport, error) {
	report, err := s.BuildInventoryReport(ctx)
	if err != nil {
		return models.InventoryReport{}, err
	}
	if s.archive == nil {
		s.logger.Debug("no report archive configured; skipping save")
		return report, nil
	}
	if err := s.archive.SaveInventoryReport(ctx, report); err != nil {
		return report, fmt.Errorf("archive inventory report: %w", err)
	}
	s.logger.Info("inventory report archived", zap.Time("date", report.Date))
	return report, nil
}

// LatestInventoryReport returns the most recent archived snapshot. Without
// an archive, or before the first archive run, a fresh snapshot is built.
func (s *Service) LatestInventoryReport(ctx context.Context) (models.InventoryReport, error) {
	if s.archive != nil {
		latest, err := s.archive.LatestInventoryReport(ctx)
		if err != nil {
			return models.InventoryReport{}, fmt.Errorf("load latest inventory report: %w", err)
		}
		if latest != nil {
			return *latest, nil
		}
	}
	return s.BuildInventoryReport(ctx)
}

// FormatReport renders a snapshot as a WhatsApp message.
func FormatReport(report models.InventoryReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Inventory report %s\n", report.Date.Format(dateLayout))
	fmt.Fprintf(&b, "Items: %d (%d units, value $%s)\n", report.Items, report.UnitsInStock, report.StockValue)
	fmt.Fprintf(&b, "Sales: %d (%d units, revenue $%s)\n", report.SalesCount, report.UnitsSold, report.Revenue)
	fmt.Fprintf(&b, "Patients: %d", report.Patients)
	if msg := inventory.LowStockMessage(report.LowStockItems); msg != "" {
		b.WriteString("\n")
		b.WriteString(msg)
	}
	return b.String()
}
