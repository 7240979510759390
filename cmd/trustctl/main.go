package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/GoLearn21/propmaster-sub001/internal/application/dto"
	"github.com/GoLearn21/propmaster-sub001/internal/application/usecase"
	"github.com/GoLearn21/propmaster-sub001/internal/application/worker"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/service"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
	"github.com/GoLearn21/propmaster-sub001/internal/infrastructure/bank"
	"github.com/GoLearn21/propmaster-sub001/internal/infrastructure/config"
	infraKafka "github.com/GoLearn21/propmaster-sub001/internal/infrastructure/kafka"
	infraPG "github.com/GoLearn21/propmaster-sub001/internal/infrastructure/postgres"
	"github.com/GoLearn21/propmaster-sub001/pkg/fire"
	kafkapkg "github.com/GoLearn21/propmaster-sub001/pkg/kafka"
	"github.com/GoLearn21/propmaster-sub001/pkg/observability"
	pgpkg "github.com/GoLearn21/propmaster-sub001/pkg/postgres"
)

const usage = `trustctl <command> [flags]

Commands:
  diagnostics        run the integrity checks
  trial-balance      render the gated trial balance
  process-outbox     claim and deliver one batch of outbox events
  dead-letters       list dead-lettered outbox events
  retry-dead-letter  requeue one dead-lettered event
  close-period       start a period close saga
  validate-import    pre-check a legacy import batch
  generate-1099      build the year's information returns
`

// Exit codes: 0 success, 1 validation failure, 2 diagnostic gate failure.
const (
	exitOK         = 0
	exitValidation = 1
	exitGate       = 2
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	cfg.Validate()
	logger := observability.InitLogger(observability.LogConfig{Level: "warn", Format: "text"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := pgpkg.NewPool(ctx, pgpkg.Config{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Name,
		SSLMode:  cfg.DB.SSLMode,
		MaxConns: 2,
		MinConns: 1,
	})
	if err != nil {
		fatal("connect to database: %v", err)
	}
	defer pool.Close()

	app := &cli{cfg: cfg, pool: pool, logger: logger}

	var run func(context.Context, []string) int
	switch os.Args[1] {
	case "diagnostics":
		run = app.diagnostics
	case "trial-balance":
		run = app.trialBalance
	case "process-outbox":
		run = app.processOutbox
	case "dead-letters":
		run = app.deadLetters
	case "retry-dead-letter":
		run = app.retryDeadLetter
	case "close-period":
		run = app.closePeriod
	case "validate-import":
		run = app.validateImport
	case "generate-1099":
		run = app.generate1099
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	os.Exit(run(ctx, os.Args[2:]))
}

type cli struct {
	cfg    config.Config
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func (c *cli) diagnostics(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("diagnostics", flag.ExitOnError)
	orgFlag := fs.String("org", "", "organization id")
	fs.Parse(args)
	orgID := mustOrg(*orgFlag)

	balances := infraPG.NewBalanceRepo(c.pool)
	diag := service.NewDiagnostics(balances, balances, decimal.Zero, decimal.Zero, c.logger)
	report, err := diag.Full(ctx, orgID)
	if err != nil {
		fatal("diagnostics: %v", err)
	}
	printJSON(report)
	if !report.Passed {
		return exitGate
	}
	return exitOK
}

func (c *cli) trialBalance(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("trial-balance", flag.ExitOnError)
	orgFlag := fs.String("org", "", "organization id")
	fs.Parse(args)
	orgID := mustOrg(*orgFlag)

	balances := infraPG.NewBalanceRepo(c.pool)
	diag := service.NewDiagnostics(balances, balances, decimal.Zero, decimal.Zero, c.logger)
	uc := usecase.NewTrialBalanceUseCase(diag, balances, c.logger)
	resp, err := uc.Execute(ctx, orgID)
	if err != nil {
		fatal("trial balance: %v", err)
	}
	printJSON(resp)
	return exitOK
}

// processOutbox drains one batch with the same handler set the daemon
// carries, for catching up while trustd is down.
func (c *cli) processOutbox(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("process-outbox", flag.ExitOnError)
	n := fs.Int("n", 10, "max events to process")
	fs.Parse(args)

	producer := kafkapkg.NewProducer(kafkapkg.Config{Brokers: c.cfg.Kafka.Brokers})
	defer producer.Close()
	publisher := infraKafka.NewPublisher(producer, c.logger)

	outbox := infraPG.NewOutboxRepo(c.pool)
	hostname, _ := os.Hostname()
	w := worker.NewOutboxWorker(outbox,
		worker.NewRelayHandler(publisher, c.cfg.Kafka.Topic),
		worker.WorkerConfig{
			WorkerID:     fmt.Sprintf("trustctl-%s-%d", hostname, os.Getpid()),
			BatchSize:    *n,
			LockDuration: c.cfg.Outbox.LockDuration,
			PollInterval: c.cfg.Outbox.PollInterval,
		},
		nil, c.logger)
	w.Register("saga.step.ready", worker.NewSagaStepHandler(c.newRunStepUseCase()))
	w.Register("bank.nacha.submit", worker.NewBankSubmitHandler(
		infraPG.NewNachaRepo(c.pool), bank.NewDirectorySubmitter(c.cfg.ACH.OutboundDir, c.logger)))

	if err := w.ProcessBatch(ctx); err != nil {
		fatal("process outbox: %v", err)
	}
	return exitOK
}

// newRunStepUseCase wires the full executor registry so claimed step events
// run the same way they do under the daemon.
func (c *cli) newRunStepUseCase() *usecase.RunSagaStepUseCase {
	journal := infraPG.NewJournalRepo(c.pool, c.cfg.Outbox.MaxAttempts)
	balances := infraPG.NewBalanceRepo(c.pool)
	accounts := infraPG.NewAccountRepo(c.pool)
	deposits := infraPG.NewDepositRepo(c.pool)
	distributions := infraPG.NewDistributionRepo(c.pool)
	owners := infraPG.NewOwnerRepo(c.pool)
	nachaFiles := infraPG.NewNachaRepo(c.pool)
	checkNumbers := infraPG.NewCheckNumberRepo(c.pool)
	compliance := service.NewComplianceService(infraPG.NewComplianceRepo(c.pool))

	periodManager := service.NewPeriodManager(infraPG.NewPeriodRepo(c.pool))
	ledger := service.NewLedgerService(journal, balances,
		service.NewPostingValidator(accounts), periodManager, c.logger)
	diagnostics := service.NewDiagnostics(balances, balances, decimal.Zero, decimal.Zero, c.logger)

	distributionSaga := service.NewDistributionSaga(
		owners, distributions, nachaFiles, accounts, ledger,
		service.ACHOriginator{
			CompanyName:        c.cfg.ACH.CompanyName,
			CompanyID:          c.cfg.ACH.CompanyID,
			ODFIRouting:        c.cfg.ACH.ODFIRouting,
			OriginRoutingID:    c.cfg.ACH.OriginRoutingID,
			DestinationRouting: c.cfg.ACH.DestinationRouting,
			OriginName:         c.cfg.ACH.OriginName,
			DestinationName:    c.cfg.ACH.DestinationName,
		},
		c.logger)
	depositSaga := service.NewSecurityDepositSaga(
		deposits, accounts, checkNumbers, ledger, compliance,
		service.DepositAccounts{
			InterestExpenseCode: valueobject.MustAccountCode(c.cfg.Accounts.DepositInterestExpense),
			DeductionIncomeCode: valueobject.MustAccountCode(c.cfg.Accounts.DepositDeductionIncome),
			ReceivableCode:      valueobject.MustAccountCode(c.cfg.Accounts.DepositReceivable),
		},
		c.logger)
	nsfSaga := service.NewNSFSaga(accounts, ledger,
		service.NSFAccounts{
			ReceivableCode: valueobject.MustAccountCode(c.cfg.Accounts.NSFReceivable),
			FeeIncomeCode:  valueobject.MustAccountCode(c.cfg.Accounts.NSFFeeIncome),
		},
		c.logger)
	periodCloseSaga := service.NewPeriodCloseSaga(diagnostics, periodManager, balances, c.logger)

	registry := service.NewExecutorRegistry(
		distributionSaga,
		depositSaga.CollectExecutor(),
		depositSaga.ReturnExecutor(),
		nsfSaga,
		periodCloseSaga,
	)
	return usecase.NewRunSagaStepUseCase(
		infraPG.NewSagaRepo(c.pool), registry, infraPG.NewOutboxRepo(c.pool),
		c.cfg.Outbox.MaxAttempts, c.logger)
}

func (c *cli) deadLetters(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("dead-letters", flag.ExitOnError)
	orgFlag := fs.String("org", "", "organization id")
	limit := fs.Int("limit", 50, "max events to list")
	fs.Parse(args)
	orgID := mustOrg(*orgFlag)

	outbox := infraPG.NewOutboxRepo(c.pool)
	evts, err := outbox.ListDeadLetter(ctx, orgID, *limit)
	if err != nil {
		fatal("list dead letters: %v", err)
	}
	for _, ev := range evts {
		fmt.Printf("%s  %-30s  attempts=%d  %s\n", ev.ID, ev.EventType, ev.Attempts, ev.LastError)
	}
	fmt.Printf("%d dead-lettered event(s)\n", len(evts))
	return exitOK
}

func (c *cli) retryDeadLetter(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("retry-dead-letter", flag.ExitOnError)
	idFlag := fs.String("id", "", "outbox event id")
	fs.Parse(args)
	id, err := uuid.Parse(*idFlag)
	if err != nil {
		fatal("-id must be a uuid")
	}

	outbox := infraPG.NewOutboxRepo(c.pool)
	newID, err := outbox.RetryDeadLetter(ctx, id)
	if err != nil {
		fatal("retry: %v", err)
	}
	fmt.Printf("requeued as %s\n", newID)
	return exitOK
}

func (c *cli) closePeriod(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("close-period", flag.ExitOnError)
	orgFlag := fs.String("org", "", "organization id")
	yearFlag := fs.Int("year", 0, "period year")
	monthFlag := fs.Int("month", 0, "period month (1-12)")
	fs.Parse(args)
	orgID := mustOrg(*orgFlag)
	if *yearFlag == 0 || *monthFlag < 1 || *monthFlag > 12 {
		fatal("-year and -month are required")
	}

	payload, _ := json.Marshal(service.PeriodClosePayload{
		PeriodDate: time.Date(*yearFlag, time.Month(*monthFlag), 1, 0, 0, 0, 0, time.UTC),
	})
	sagas := infraPG.NewSagaRepo(c.pool)
	outbox := infraPG.NewOutboxRepo(c.pool)
	uc := usecase.NewStartSagaUseCase(sagas, outbox, c.cfg.Saga.Timeout, c.cfg.Outbox.MaxAttempts, c.logger)
	resp, err := uc.Execute(ctx, dto.StartSagaRequest{
		OrgID:       orgID,
		Name:        service.SagaNamePeriodClose,
		Payload:     payload,
		InitiatedBy: "trustctl",
	})
	if err != nil {
		fatal("start period close: %v", err)
	}
	printJSON(resp)
	return exitOK
}

func (c *cli) validateImport(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("validate-import", flag.ExitOnError)
	orgFlag := fs.String("org", "", "organization id")
	fileFlag := fs.String("file", "", "JSON file of import rows")
	fs.Parse(args)
	orgID := mustOrg(*orgFlag)

	data, err := os.ReadFile(*fileFlag)
	if err != nil {
		fatal("read %s: %v", *fileFlag, err)
	}
	var rows []dto.ImportRowRequest
	if err := json.Unmarshal(data, &rows); err != nil {
		fatal("parse %s: %v", *fileFlag, err)
	}

	accounts := infraPG.NewAccountRepo(c.pool)
	uc := usecase.NewValidateMigrationUseCase(service.NewMigrationValidator(accounts), c.logger)
	report, err := uc.Execute(ctx, dto.ValidateMigrationRequest{OrgID: orgID, Rows: rows})
	if err != nil {
		fatal("validate: %v", err)
	}
	printJSON(report)
	if len(report.Errors) > 0 || len(report.Warnings) > 0 {
		return exitValidation
	}
	return exitOK
}

func (c *cli) generate1099(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("generate-1099", flag.ExitOnError)
	orgFlag := fs.String("org", "", "organization id")
	stateFlag := fs.String("state", "", "two-letter state code")
	yearFlag := fs.Int("year", 0, "tax year")
	outFlag := fs.String("out", "", "write the FIRE file here instead of stdout")
	fs.Parse(args)
	orgID := mustOrg(*orgFlag)

	taxRepo := infraPG.NewTaxRepo(c.pool)
	owners := infraPG.NewOwnerRepo(c.pool)
	compliance := service.NewComplianceService(infraPG.NewComplianceRepo(c.pool))
	svc := newTaxService(c.cfg, taxRepo, owners, compliance, c.logger)

	uc := usecase.NewGenerate1099UseCase(svc, c.logger)
	resp, err := uc.Execute(ctx, dto.Generate1099Request{
		OrgID:     orgID,
		StateCode: *stateFlag,
		Year:      *yearFlag,
	})
	if err != nil {
		fatal("generate 1099: %v", err)
	}

	if *outFlag != "" && resp.FIREFile != "" {
		if err := os.WriteFile(*outFlag, []byte(resp.FIREFile), 0o600); err != nil {
			fatal("write %s: %v", *outFlag, err)
		}
		resp.FIREFile = ""
	}
	printJSON(resp)
	return exitOK
}

func newTaxService(cfg config.Config, taxRepo *infraPG.TaxRepo, owners *infraPG.OwnerRepo, compliance *service.ComplianceService, logger *slog.Logger) *service.Tax1099Service {
	return service.NewTax1099Service(taxRepo, owners, compliance,
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
}

func mustOrg(s string) uuid.UUID {
	orgID, err := uuid.Parse(s)
	if err != nil {
		fatal("-org must be a uuid")
	}
	return orgID
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(2)
}
