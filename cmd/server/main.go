package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/finflow/backend/internal/application/treasury"
	"github.com/finflow/backend/internal/application/workflow"
	"github.com/finflow/backend/internal/domain/automation"
	"github.com/finflow/backend/internal/domain/billing"
	"github.com/finflow/backend/internal/domain/finance"
	"github.com/finflow/backend/internal/domain/shared"
	"github.com/finflow/backend/internal/infrastructure/ai"
	"github.com/finflow/backend/internal/infrastructure/cache"
	"github.com/finflow/backend/internal/infrastructure/config"
	"github.com/finflow/backend/internal/infrastructure/event"
	"github.com/finflow/backend/internal/infrastructure/invoicing"
	"github.com/finflow/backend/internal/infrastructure/logger"
	"github.com/finflow/backend/internal/infrastructure/notify"
	"github.com/finflow/backend/internal/infrastructure/persistence"
	"github.com/finflow/backend/internal/infrastructure/scheduler"
	"github.com/finflow/backend/internal/infrastructure/webhook"
	"github.com/finflow/backend/internal/interfaces/http/handler"
	"github.com/finflow/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	zapLogger := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	defer zapLogger.Sync() //nolint:errcheck

	zapLogger.Info("starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Error("failed to close database", zap.Error(err))
		}
	}()

	if err := db.Migrate(); err != nil {
		zapLogger.Fatal("failed to run migrations", zap.Error(err))
	}

	// Initialize webhook dedup store. Redis survives restarts; the
	// in-memory store is for development and tests.
	var dedup shared.IdempotencyStore
	if cfg.Redis.Enabled {
		store, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			zapLogger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer store.Close() //nolint:errcheck
		dedup = store
		zapLogger.Info("using redis dedup store", zap.String("addr", cfg.Redis.Addr()))
	} else {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close() //nolint:errcheck
		dedup = store
		zapLogger.Warn("redis disabled, using in-memory dedup store")
	}

	// Initialize repositories
	quoteRepo := persistence.NewGormQuoteRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	creditRepo := persistence.NewGormCreditNoteRepository(db.DB)
	subscriptionRepo := persistence.NewGormSubscriptionRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	supplierRepo := persistence.NewGormSupplierInvoiceRepository(db.DB)
	snapshotRepo := persistence.NewGormBalanceSnapshotRepository(db.DB)
	projectRepo := persistence.NewGormProjectRepository(db.DB)
	deliverableRepo := persistence.NewGormDeliverableRepository(db.DB)
	ticketRepo := persistence.NewGormTicketRepository(db.DB)
	leadRepo := persistence.NewGormLeadRepository(db.DB)
	executionRepo := persistence.NewGormExecutionRepository(db.DB)
	settingRepo := persistence.NewGormSettingRepository(db.DB)

	numbers := billing.NewNumberGenerator(persistence.NewGormNumberSequencer(db.DB))
	ledger := automation.NewLedger(executionRepo, zapLogger)

	// Initialize event bus and notification path
	bus := event.NewInMemoryEventBus(zapLogger)
	mailer := notify.WithTimeout(notify.NewLogMailer(zapLogger), cfg.Mail.Timeout)
	bus.Subscribe(notify.NewMailDispatcher(mailer, cfg.Mail.Inbox, zapLogger))

	// Initialize external adapters
	invoicingClient := invoicing.NewClient(cfg.Invoicing.BaseURL, cfg.Invoicing.APIKey, cfg.Invoicing.Timeout, zapLogger)
	renderer := invoicing.NewRenderer(invoicingClient, zapLogger)
	classifier := ai.NewClassifier(ai.Config{
		BaseURL:    cfg.Classifier.BaseURL,
		APIKey:     cfg.Classifier.APIKey,
		Model:      cfg.Classifier.Model,
		Timeout:    cfg.Classifier.Timeout,
		MaxRetries: cfg.Classifier.MaxRetries,
	}, zapLogger)

	// Initialize application services
	quoteSignedSvc := workflow.NewQuoteSignedService(workflow.QuoteSignedConfig{
		Quotes:         quoteRepo,
		Invoices:       invoiceRepo,
		Numbers:        numbers,
		Ledger:         ledger,
		Bus:            bus,
		Renderer:       renderer,
		Logger:         zapLogger,
		DepositPercent: cfg.Billing.DepositPercent,
		DepositDueDays: cfg.Billing.DepositDueDays,
	})
	paymentReceivedSvc := workflow.NewPaymentReceivedService(workflow.PaymentReceivedConfig{
		Payments: paymentRepo,
		Invoices: invoiceRepo,
		Quotes:   quoteRepo,
		Projects: projectRepo,
		Matcher:  finance.NewPaymentMatcher(invoiceRepo),
		Dedup:    dedup,
		Ledger:   ledger,
		Bus:      bus,
		Logger:   zapLogger,
	})
	recurringBillingSvc := workflow.NewRecurringBillingService(workflow.RecurringBillingConfig{
		Subscriptions: subscriptionRepo,
		Invoices:      invoiceRepo,
		Numbers:       numbers,
		Ledger:        ledger,
		Bus:           bus,
		Renderer:      renderer,
		Logger:        zapLogger,
		DueDays:       cfg.Billing.DefaultDueDays,
	})
	creditNoteSvc := workflow.NewCreditNoteService(workflow.CreditNoteConfig{
		Credits:  creditRepo,
		Invoices: invoiceRepo,
		Numbers:  numbers,
		Ledger:   ledger,
		Bus:      bus,
		Logger:   zapLogger,
	})
	milestoneSvc := workflow.NewMilestoneService(workflow.MilestoneConfig{
		Deliverables: deliverableRepo,
		Projects:     projectRepo,
		Invoices:     invoiceRepo,
		Numbers:      numbers,
		Ledger:       ledger,
		Bus:          bus,
		Renderer:     renderer,
		Logger:       zapLogger,
		DueDays:      cfg.Billing.DefaultDueDays,
	})
	supportTicketSvc := workflow.NewSupportTicketService(workflow.SupportTicketConfig{
		Tickets:       ticketRepo,
		Subscriptions: subscriptionRepo,
		Invoices:      invoiceRepo,
		Numbers:       numbers,
		Ledger:        ledger,
		Bus:           bus,
		Renderer:      renderer,
		Logger:        zapLogger,
		DueDays:       cfg.Billing.DefaultDueDays,
	})
	supplierApprovalSvc := workflow.NewSupplierApprovalService(workflow.SupplierApprovalConfig{
		Invoices:        supplierRepo,
		Ledger:          ledger,
		Logger:          zapLogger,
		DeviationTolPct: cfg.Billing.DeviationTolPct,
	})
	leadQualificationSvc := workflow.NewLeadQualificationService(workflow.LeadQualificationConfig{
		Leads:      leadRepo,
		Classifier: classifier,
		Ledger:     ledger,
		Bus:        bus,
		Logger:     zapLogger,
	})
	forecastSvc := treasury.NewForecastService(treasury.ForecastConfig{
		Snapshots:     snapshotRepo,
		Payments:      paymentRepo,
		Invoices:      invoiceRepo,
		Subscriptions: subscriptionRepo,
		Suppliers:     supplierRepo,
		Logger:        zapLogger,
	})
	reportSvc := treasury.NewReportService(treasury.ReportConfig{
		Forecasts:  forecastSvc,
		Ledger:     ledger,
		Notifier:   notify.NewMailReportNotifier(mailer, cfg.Mail.Inbox),
		Thresholds: settingRepo,
		Logger:     zapLogger,
	})

	// Initialize schedulers
	billingScheduler := scheduler.NewCronScheduler(
		scheduler.DailySchedule{Hour: cfg.Scheduler.BillingHour},
		scheduler.NewFuncJob("recurring-billing", func(ctx context.Context) error {
			_, err := recurringBillingSvc.RunDailyPass(ctx)
			return err
		}),
		zapLogger,
	)
	reportScheduler := scheduler.NewCronScheduler(
		scheduler.MonthlySchedule{Day: 1, Hour: cfg.Scheduler.ReportHour},
		scheduler.NewFuncJob("monthly-report", func(ctx context.Context) error {
			_, err := reportSvc.Run(ctx)
			return err
		}),
		zapLogger,
	)
	if cfg.Scheduler.Enabled {
		billingScheduler.Start()
		reportScheduler.Start()
		defer billingScheduler.Stop()
		defer reportScheduler.Stop()
	} else {
		zapLogger.Warn("scheduler disabled, billing and report runs are manual only")
	}

	// Initialize handlers
	webhookHandler := handler.NewWebhookHandler(
		paymentReceivedSvc,
		quoteSignedSvc,
		webhook.NewVerifier(cfg.Webhook.PaymentSecret),
		webhook.NewVerifier(cfg.Webhook.SignatureSecret),
		zapLogger,
	)
	automationHandler := handler.NewAutomationHandler(recurringBillingSvc, reportSvc, ledger)
	billingHandler := handler.NewBillingHandler(creditNoteSvc, milestoneSvc)
	supplierHandler := handler.NewSupplierHandler(supplierApprovalSvc)
	operationsHandler := handler.NewOperationsHandler(supportTicketSvc, leadQualificationSvc, forecastSvc)

	engine := router.Setup(router.Handlers{
		Webhooks:   webhookHandler,
		Automation: automationHandler,
		Billing:    billingHandler,
		Suppliers:  supplierHandler,
		Operations: operationsHandler,
	}, zapLogger)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		zapLogger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal, then drain in-flight requests
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("forced shutdown", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
