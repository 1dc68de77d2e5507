package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/medshop/internal/config"
	"github.com/mamadbah2/medshop/internal/metrics"
	"github.com/mamadbah2/medshop/internal/repository"
	"github.com/mamadbah2/medshop/internal/repository/memory"
	"github.com/mamadbah2/medshop/internal/repository/mongodb"
	"github.com/mamadbah2/medshop/internal/repository/sheets"
	"github.com/mamadbah2/medshop/internal/repository/sqlite"
	"github.com/mamadbah2/medshop/internal/repository/workbook"
	"github.com/mamadbah2/medshop/internal/scheduler"
	"github.com/mamadbah2/medshop/internal/server/handlers"
	"github.com/mamadbah2/medshop/internal/server/router"
	commandsvc "github.com/mamadbah2/medshop/internal/service/commands"
	inventorysvc "github.com/mamadbah2/medshop/internal/service/inventory"
	patientsvc "github.com/mamadbah2/medshop/internal/service/patients"
	reportingsvc "github.com/mamadbah2/medshop/internal/service/reporting"
	salessvc "github.com/mamadbah2/medshop/internal/service/sales"
	whatsappsvc "github.com/mamadbah2/medshop/internal/service/whatsapp"
	"github.com/mamadbah2/medshop/internal/store"
	"github.com/mamadbah2/medshop/pkg/clients/anthropic"
	whatsappclient "github.com/mamadbah2/medshop/pkg/clients/whatsapp"
	"github.com/mamadbah2/medshop/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tableRepo, err := openRepository(ctx, cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init table repository", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	if closer, ok := tableRepo.(repository.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				baseLogger.Error("failed to close table repository", zap.Error(err))
			}
		}()
	}

	m := metrics.New()
	recordStore := store.New(tableRepo, baseLogger.Named("store"), store.WithObserver(m))
	if err := recordStore.EnsureAll(ctx); err != nil {
		baseLogger.Fatal("failed to enforce store schemas", zap.Error(err))
	}

	var archive mongodb.ReportArchive
	if cfg.MongoDB.URI != "" {
		mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		archive = mongoRepo
	} else {
		baseLogger.Warn("MONGODB_URI missing, inventory reports will not be archived")
	}

	inventorySvc := inventorysvc.NewService(recordStore, baseLogger.Named("svc.inventory"))
	salesSvc := salessvc.NewService(recordStore, baseLogger.Named("svc.sales"))
	patientSvc := patientsvc.NewService(recordStore, baseLogger.Named("svc.patients"))
	reportingSvc := reportingsvc.NewService(recordStore, archive, baseLogger.Named("svc.reporting"))

	handlerSet := router.Handlers{
		Inventory: handlers.NewInventoryHandler(inventorySvc, baseLogger.Named("handlers.inventory")),
		Sales:     handlers.NewSalesHandler(salesSvc, baseLogger.Named("handlers.sales")),
		Patients:  handlers.NewPatientHandler(patientSvc, baseLogger.Named("handlers.patients")),
		Reports:   handlers.NewReportHandler(reportingSvc, baseLogger.Named("handlers.reports")),
	}

	var notifier scheduler.Notifier
	if cfg.WhatsApp.Enabled() {
		var aiClient anthropic.Client
		if cfg.AI.AnthropicKey != "" {
			aiClient = anthropic.NewClient(cfg.AI.AnthropicKey)
			baseLogger.Info("anthropic ai client enabled")
		} else {
			baseLogger.Warn("anthropic api key missing, natural language commands disabled")
		}

		commandDispatcher := commandsvc.NewService(inventorySvc, salesSvc, baseLogger.Named("svc.commands"))
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, aiClient, commandDispatcher, baseLogger.Named("svc.whatsapp"))
		handlerSet.Webhook = handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp"))
		notifier = messagingSvc
	} else {
		baseLogger.Warn("whatsapp not configured, command channel and notifications disabled")
	}

	engine := router.New(handlerSet, m, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, inventorySvc, reportingSvc, notifier, m, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openRepository(ctx context.Context, cfg *config.Config, base *zap.Logger) (repository.TableRepository, error) {
	switch cfg.Storage.Driver {
	case config.DriverWorkbook:
		return workbook.NewRepository(cfg.Storage.DataDir, base.Named("repo.workbook"))
	case config.DriverSQLite:
		return sqlite.Connect(cfg.Storage.SQLiteDSN, base.Named("repo.sqlite"))
	case config.DriverSheets:
		return sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, base.Named("repo.sheets"))
	case config.DriverMemory:
		base.Warn("memory storage selected, data is lost on exit")
		return memory.NewRepository(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
