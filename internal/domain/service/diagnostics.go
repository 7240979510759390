package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
	"github.com/GoLearn21/propmaster-sub001/pkg/money"
)

// Check names reported by the diagnostics service.
const (
	CheckTrustIntegrity     = "trust_integrity"
	CheckTrialBalance       = "trial_balance"
	CheckOrphans            = "orphans"
	CheckBalanceConsistency = "balance_consistency"
)

// CheckResult is the outcome of one integrity check.
type CheckResult struct {
	Name     string          `json:"name"`
	Passed   bool            `json:"passed"`
	Variance decimal.Decimal `json:"variance"`
	Detail   string          `json:"detail,omitempty"`
	Duration time.Duration   `json:"duration_ns"`
}

// DiagnosticsReport aggregates a full run.
type DiagnosticsReport struct {
	OrgID  uuid.UUID     `json:"org_id"`
	Passed bool          `json:"passed"`
	Checks []CheckResult `json:"checks"`
	RanAt  time.Time     `json:"ran_at"`
}

// Diagnostics is the canary: four global integrity checks that every report
// emission and period close is gated behind.
type Diagnostics struct {
	balances  port.BalanceRepository
	integrity port.IntegrityRepository
	trustEps  decimal.Decimal
	balEps    decimal.Decimal
	logger    *slog.Logger
}

func NewDiagnostics(balances port.BalanceRepository, integrity port.IntegrityRepository, trustEpsilon, balanceEpsilon decimal.Decimal, logger *slog.Logger) *Diagnostics {
	if trustEpsilon.IsZero() {
		trustEpsilon = money.TrustEpsilon
	}
	if balanceEpsilon.IsZero() {
		balanceEpsilon = money.BalanceEpsilon
	}
	return &Diagnostics{
		balances:  balances,
		integrity: integrity,
		trustEps:  trustEpsilon,
		balEps:    balanceEpsilon,
		logger:    logger,
	}
}

// TrustIntegrity verifies trust_bank = owner_liabilities + security_deposits
// + outstanding_checks within one cent.
func (d *Diagnostics) TrustIntegrity(ctx context.Context, orgID uuid.UUID) (CheckResult, error) {
	start := time.Now()
	trustBank, err := d.integrity.SumBalanceBySubtype(ctx, orgID, valueobject.SubtypeTrustBank)
	if err != nil {
		return CheckResult{}, err
	}
	ownerLiab, err := d.integrity.SumBalanceBySubtype(ctx, orgID, valueobject.SubtypeOwnerLiability)
	if err != nil {
		return CheckResult{}, err
	}
	deposits, err := d.integrity.SumBalanceBySubtype(ctx, orgID, valueobject.SubtypeSecurityDeposit)
	if err != nil {
		return CheckResult{}, err
	}
	checks, err := d.integrity.SumBalanceBySubtype(ctx, orgID, valueobject.SubtypeOutstandingChecks)
	if err != nil {
		return CheckResult{}, err
	}

	// Liability accounts carry credit-normal (negative) signed balances, so
	// the identity compares the trust asset against their negated sum.
	obligations := ownerLiab.Add(deposits).Add(checks).Neg()
	variance := trustBank.Sub(obligations).Abs()
	res := CheckResult{
		Name:     CheckTrustIntegrity,
		Passed:   variance.LessThan(d.trustEps),
		Variance: variance,
		Duration: time.Since(start),
	}
	if !res.Passed {
		res.Detail = fmt.Sprintf("trust bank %s vs obligations %s", trustBank.StringFixed(2), obligations.StringFixed(2))
	}
	return res, nil
}

// TrialBalance verifies total debits equal total credits over all accounts.
func (d *Diagnostics) TrialBalance(ctx context.Context, orgID uuid.UUID) (CheckResult, error) {
	start := time.Now()
	lines, err := d.balances.TrialBalance(ctx, orgID)
	if err != nil {
		return CheckResult{}, err
	}
	debits, credits := decimal.Zero, decimal.Zero
	for _, l := range lines {
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	variance := debits.Sub(credits).Abs()
	res := CheckResult{
		Name:     CheckTrialBalance,
		Passed:   money.WithinEpsilon(debits.Sub(credits), d.balEps),
		Variance: variance,
		Duration: time.Since(start),
	}
	if !res.Passed {
		res.Detail = fmt.Sprintf("debits %s, credits %s", debits.StringFixed(4), credits.StringFixed(4))
	}
	return res, nil
}

// Orphans verifies that no posting lacks a parent entry and no entry has
// zero postings.
func (d *Diagnostics) Orphans(ctx context.Context, orgID uuid.UUID) (CheckResult, error) {
	start := time.Now()
	orphanPostings, emptyEntries, err := d.integrity.OrphanCounts(ctx, orgID)
	if err != nil {
		return CheckResult{}, err
	}
	res := CheckResult{
		Name:     CheckOrphans,
		Passed:   orphanPostings == 0 && emptyEntries == 0,
		Duration: time.Since(start),
	}
	if !res.Passed {
		res.Detail = fmt.Sprintf("%d orphan postings, %d empty entries", orphanPostings, emptyEntries)
	}
	return res, nil
}

// BalanceConsistency recomputes every account's balance from raw postings
// and compares against the materialized table.
func (d *Diagnostics) BalanceConsistency(ctx context.Context, orgID uuid.UUID) (CheckResult, error) {
	start := time.Now()
	materialized, err := d.balances.ListBalances(ctx, orgID)
	if err != nil {
		return CheckResult{}, err
	}
	recomputed, err := d.balances.SumPostingsByAccount(ctx, orgID)
	if err != nil {
		return CheckResult{}, err
	}

	worst := decimal.Zero
	mismatches := 0
	for _, b := range materialized {
		diff := b.Balance.Sub(recomputed[b.AccountID]).Abs()
		if !diff.LessThan(d.balEps) {
			mismatches++
			if diff.GreaterThan(worst) {
				worst = diff
			}
		}
		delete(recomputed, b.AccountID)
	}
	// Accounts with postings but no materialized row are also mismatches.
	for _, sum := range recomputed {
		if !sum.Abs().LessThan(d.balEps) {
			mismatches++
			if sum.Abs().GreaterThan(worst) {
				worst = sum.Abs()
			}
		}
	}

	res := CheckResult{
		Name:     CheckBalanceConsistency,
		Passed:   mismatches == 0,
		Variance: worst,
		Duration: time.Since(start),
	}
	if !res.Passed {
		res.Detail = fmt.Sprintf("%d accounts diverge from recomputed sums", mismatches)
	}
	return res, nil
}

// Full runs all four checks in parallel and aggregates the report.
func (d *Diagnostics) Full(ctx context.Context, orgID uuid.UUID) (DiagnosticsReport, error) {
	report := DiagnosticsReport{OrgID: orgID, Passed: true, RanAt: time.Now().UTC()}

	checks := []func(context.Context, uuid.UUID) (CheckResult, error){
		d.TrustIntegrity,
		d.TrialBalance,
		d.Orphans,
		d.BalanceConsistency,
	}
	results := make([]CheckResult, len(checks))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, check := range checks {
		i, check := i, check
		g.Go(func() error {
			res, err := check(gctx, orgID)
			if err != nil {
				return err
			}
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return DiagnosticsReport{}, fmt.Errorf("diagnostics run: %w", err)
	}

	for _, res := range results {
		report.Checks = append(report.Checks, res)
		if !res.Passed {
			report.Passed = false
			d.logger.Error("diagnostic check failed",
				slog.String("org_id", orgID.String()),
				slog.String("check", res.Name),
				slog.String("variance", res.Variance.String()),
				slog.String("detail", res.Detail))
		}
	}
	return report, nil
}

// Gate runs the full diagnostics and fails with ErrDiagnosticGateFailed on
// any check failure. Report APIs and the period-close saga call this first.
func (d *Diagnostics) Gate(ctx context.Context, orgID uuid.UUID) (DiagnosticsReport, error) {
	report, err := d.Full(ctx, orgID)
	if err != nil {
		return DiagnosticsReport{}, err
	}
	if !report.Passed {
		for _, c := range report.Checks {
			if !c.Passed {
				return report, fmt.Errorf("%w: %s (%s)", model.ErrDiagnosticGateFailed, c.Name, c.Detail)
			}
		}
	}
	return report, nil
}
