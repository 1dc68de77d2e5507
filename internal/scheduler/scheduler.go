package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/medshop/internal/config"
	"github.com/mamadbah2/medshop/internal/domain/models"
	"github.com/mamadbah2/medshop/internal/service/inventory"
	"github.com/mamadbah2/medshop/internal/service/reporting"
	"github.com/mamadbah2/medshop/internal/service/whatsapp"
)

// LowStockSource yields the current low stock items.
type LowStockSource interface {
	LowStock(ctx context.Context) ([]string, error)
}

// ReportSource builds and archives inventory snapshots.
type ReportSource interface {
	ArchiveInventoryReport(ctx context.Context) (models.InventoryReport, error)
}

// Notifier delivers operator messages. It may be nil when WhatsApp is not configured.
type Notifier interface {
	NotifyOperator(ctx context.Context, message string) error
}

// LowStockGauge records the size of each low stock check.
type LowStockGauge interface {
	SetLowStock(n int)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	cfg      config.ReportingConfig
	lowStock LowStockSource
	reports  ReportSource
	notifier Notifier
	gauge    LowStockGauge
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance running in the configured timezone.
func NewScheduler(cfg config.ReportingConfig, lowStock LowStockSource, reports ReportSource, notifier Notifier, gauge LowStockGauge, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		cfg:      cfg,
		lowStock: lowStock,
		reports:  reports,
		notifier: notifier,
		gauge:    gauge,
		logger:   logger,
	}, nil
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.String("low_stock_schedule", s.cfg.LowStockSchedule),
		zap.String("report_schedule", s.cfg.CronSchedule),
		zap.String("timezone", s.cfg.Timezone))

	if _, err := s.cron.AddFunc(s.cfg.LowStockSchedule, func() { s.run("low stock check", s.CheckLowStock) }); err != nil {
		return fmt.Errorf("schedule low stock check: %w", err)
	}
	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, func() { s.run("inventory report", s.SendInventoryReport) }); err != nil {
		return fmt.Errorf("schedule inventory report: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) run(name string, job func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := job(ctx); err != nil {
		s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
		return
	}
	s.logger.Info("scheduled job completed", zap.String("job", name))
}

// CheckLowStock notifies the operator when items are running low.
func (s *Scheduler) CheckLowStock(ctx context.Context) error {
	items, err := s.lowStock.LowStock(ctx)
	if err != nil {
		return fmt.Errorf("compute low stock: %w", err)
	}
	if s.gauge != nil {
		s.gauge.SetLowStock(len(items))
	}
	if len(items) == 0 {
		return nil
	}
	return s.notify(ctx, inventory.LowStockMessage(items))
}

// SendInventoryReport archives the daily snapshot and sends it to the operator.
func (s *Scheduler) SendInventoryReport(ctx context.Context) error {
	report, err := s.reports.ArchiveInventoryReport(ctx)
	if err != nil {
		return err
	}
	return s.notify(ctx, reporting.FormatReport(report))
}

func (s *Scheduler) notify(ctx context.Context, message string) error {
	if s.notifier == nil {
		s.logger.Info("no notifier configured; message not sent", zap.String("message", message))
		return nil
	}
	err := s.notifier.NotifyOperator(ctx, message)
	if errors.Is(err, whatsapp.ErrNoOperator) {
		s.logger.Warn("WHATSAPP_OPERATOR_ID not set; message not sent")
		return nil
	}
	if err != nil {
		return fmt.Errorf("notify operator: %w", err)
	}
	return nil
}
