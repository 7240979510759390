package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/GoLearn21/propmaster-sub001/internal/application/usecase"
	"github.com/GoLearn21/propmaster-sub001/internal/application/worker"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/service"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
	"github.com/GoLearn21/propmaster-sub001/internal/infrastructure/bank"
	"github.com/GoLearn21/propmaster-sub001/internal/infrastructure/config"
	infraKafka "github.com/GoLearn21/propmaster-sub001/internal/infrastructure/kafka"
	infraPG "github.com/GoLearn21/propmaster-sub001/internal/infrastructure/postgres"
	"github.com/GoLearn21/propmaster-sub001/internal/presentation/rest"
	"github.com/GoLearn21/propmaster-sub001/pkg/fire"
	kafkapkg "github.com/GoLearn21/propmaster-sub001/pkg/kafka"
	"github.com/GoLearn21/propmaster-sub001/pkg/observability"
	pgpkg "github.com/GoLearn21/propmaster-sub001/pkg/postgres"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg := config.Load()
	cfg.Validate()

	// Initialize logger.
	logger := observability.InitLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	logger.Info("starting trust-ledger", "http_port", cfg.HTTPPort)

	// Initialize metrics.
	provider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{
		ServiceName: "trust-ledger",
	})
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	defer provider.Shutdown(context.Background())

	engineMetrics, err := observability.NewEngineMetrics(provider.Meter("trust-ledger"))
	if err != nil {
		logger.Error("failed to register engine metrics", "error", err)
		os.Exit(1)
	}

	// Initialize database.
	pgCfg := pgpkg.Config{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Name,
		SSLMode:  cfg.DB.SSLMode,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	}
	pool, err := pgpkg.NewPool(ctx, pgCfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Run migrations.
	if err := pgpkg.RunMigrations(pgCfg.DSN(), "migrations"); err != nil {
		logger.Warn("migration warning", "error", err)
	}

	// Initialize Kafka producer.
	producer := kafkapkg.NewProducer(kafkapkg.Config{Brokers: cfg.Kafka.Brokers})
	defer producer.Close()
	publisher := infraKafka.NewPublisher(producer, logger)

	// Repositories.
	journalRepo := infraPG.NewJournalRepo(pool, cfg.Outbox.MaxAttempts)
	balanceRepo := infraPG.NewBalanceRepo(pool)
	outboxRepo := infraPG.NewOutboxRepo(pool)
	sagaRepo := infraPG.NewSagaRepo(pool)
	accountRepo := infraPG.NewAccountRepo(pool)
	periodRepo := infraPG.NewPeriodRepo(pool)
	complianceRepo := infraPG.NewComplianceRepo(pool)
	depositRepo := infraPG.NewDepositRepo(pool)
	distributionRepo := infraPG.NewDistributionRepo(pool)
	ownerRepo := infraPG.NewOwnerRepo(pool)
	nachaRepo := infraPG.NewNachaRepo(pool)
	taxRepo := infraPG.NewTaxRepo(pool)
	checkNumbers := infraPG.NewCheckNumberRepo(pool)

	// Domain services.
	periodManager := service.NewPeriodManager(periodRepo)
	validator := service.NewPostingValidator(accountRepo)
	ledger := service.NewLedgerService(journalRepo, balanceRepo, validator, periodManager, logger)
	diagnostics := service.NewDiagnostics(balanceRepo, balanceRepo, decimal.Zero, decimal.Zero, logger)
	compliance := service.NewComplianceService(complianceRepo)
	migrationValidator := service.NewMigrationValidator(accountRepo)
	taxService := service.NewTax1099Service(taxRepo, ownerRepo, compliance,
		fire.Payer{
			TIN:     cfg.FIRE.PayerTIN,
			Name:    cfg.FIRE.PayerName,
			Address: cfg.FIRE.Address,
			City:    cfg.FIRE.City,
			State:   cfg.FIRE.State,
			ZIP:     cfg.FIRE.ZIP,
		},
		fire.Transmitter{
			TIN:          cfg.FIRE.PayerTIN,
			ControlCode:  cfg.FIRE.ControlCode,
			Name:         cfg.FIRE.PayerName,
			CompanyName:  cfg.FIRE.PayerName,
			Address:      cfg.FIRE.Address,
			City:         cfg.FIRE.City,
			State:        cfg.FIRE.State,
			ZIP:          cfg.FIRE.ZIP,
			ContactName:  cfg.FIRE.ContactName,
			ContactPhone: cfg.FIRE.ContactPhone,
		},
		logger)

	// Saga executors.
	distributionSaga := service.NewDistributionSaga(
		ownerRepo, distributionRepo, nachaRepo, accountRepo, ledger,
		service.ACHOriginator{
			CompanyName:        cfg.ACH.CompanyName,
			CompanyID:          cfg.ACH.CompanyID,
			ODFIRouting:        cfg.ACH.ODFIRouting,
			OriginRoutingID:    cfg.ACH.OriginRoutingID,
			DestinationRouting: cfg.ACH.DestinationRouting,
			OriginName:         cfg.ACH.OriginName,
			DestinationName:    cfg.ACH.DestinationName,
		},
		logger)
	depositSaga := service.NewSecurityDepositSaga(
		depositRepo, accountRepo, checkNumbers, ledger, compliance,
		service.DepositAccounts{
			InterestExpenseCode: valueobject.MustAccountCode(cfg.Accounts.DepositInterestExpense),
			DeductionIncomeCode: valueobject.MustAccountCode(cfg.Accounts.DepositDeductionIncome),
			ReceivableCode:      valueobject.MustAccountCode(cfg.Accounts.DepositReceivable),
		},
		logger)
	nsfSaga := service.NewNSFSaga(accountRepo, ledger,
		service.NSFAccounts{
			ReceivableCode: valueobject.MustAccountCode(cfg.Accounts.NSFReceivable),
			FeeIncomeCode:  valueobject.MustAccountCode(cfg.Accounts.NSFFeeIncome),
		},
		logger)
	periodCloseSaga := service.NewPeriodCloseSaga(diagnostics, periodManager, balanceRepo, logger)

	registry := service.NewExecutorRegistry(
		distributionSaga,
		depositSaga.CollectExecutor(),
		depositSaga.ReturnExecutor(),
		nsfSaga,
		periodCloseSaga,
	)

	// Use cases.
	createEntryUC := usecase.NewCreateEntryUseCase(ledger, logger)
	reverseEntryUC := usecase.NewReverseEntryUseCase(ledger, logger)
	balanceUC := usecase.NewGetBalanceUseCase(ledger, logger)
	activityUC := usecase.NewAccountActivityUseCase(ledger, logger)
	trialBalanceUC := usecase.NewTrialBalanceUseCase(diagnostics, balanceRepo, logger)
	diagnosticsUC := usecase.NewRunDiagnosticsUseCase(diagnostics, logger)
	startSagaUC := usecase.NewStartSagaUseCase(sagaRepo, outboxRepo, cfg.Saga.Timeout, cfg.Outbox.MaxAttempts, logger)
	getSagaUC := usecase.NewGetSagaUseCase(sagaRepo, logger)
	runStepUC := usecase.NewRunSagaStepUseCase(sagaRepo, registry, outboxRepo, cfg.Outbox.MaxAttempts, logger)
	migrationUC := usecase.NewValidateMigrationUseCase(migrationValidator, logger)
	tax1099UC := usecase.NewGenerate1099UseCase(taxService, logger)
	upsertRuleUC := usecase.NewUpsertComplianceRuleUseCase(complianceRepo, logger)

	// Outbox worker and saga reaper.
	hostname, _ := os.Hostname()
	outboxWorker := worker.NewOutboxWorker(outboxRepo,
		worker.NewRelayHandler(publisher, cfg.Kafka.Topic),
		worker.WorkerConfig{
			WorkerID:     fmt.Sprintf("%s-%d", hostname, os.Getpid()),
			BatchSize:    cfg.Outbox.BatchSize,
			LockDuration: cfg.Outbox.LockDuration,
			PollInterval: cfg.Outbox.PollInterval,
		},
		engineMetrics, logger)
	outboxWorker.Register("saga.step.ready", worker.NewSagaStepHandler(runStepUC))
	outboxWorker.Register("bank.nacha.submit", worker.NewBankSubmitHandler(
		nachaRepo, bank.NewDirectorySubmitter(cfg.ACH.OutboundDir, logger)))

	reaper := worker.NewSagaReaper(sagaRepo, outboxRepo,
		cfg.Saga.HeartbeatTTL, cfg.Saga.ReaperInterval,
		cfg.Saga.ReaperBatch, cfg.Outbox.MaxAttempts, logger)

	// HTTP server.
	router := rest.NewRouter(logger, metricsHandler,
		rest.NewHealthHandler(pool, logger),
		rest.NewLedgerHandler(createEntryUC, reverseEntryUC, balanceUC, activityUC, logger),
		rest.NewSagaHandler(startSagaUC, getSagaUC, logger),
		rest.NewReportHandler(diagnosticsUC, trialBalanceUC, logger),
		rest.NewComplianceHandler(upsertRuleUC, logger),
		rest.NewTaxHandler(tax1099UC, logger),
		rest.NewMigrationHandler(migrationUC, logger),
	)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("outbox worker starting", "batch_size", cfg.Outbox.BatchSize)
		return outboxWorker.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("saga reaper starting", "interval", cfg.Saga.ReaperInterval.String())
		return reaper.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("HTTP server starting", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("trust-ledger stopped")
}
