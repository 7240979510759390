package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
	"github.com/GoLearn21/propmaster-sub001/pkg/money"
)

// ComplianceService reads jurisdictional rules as data and composes them
// into derived calculations. Rule values are stored as strings; typed
// accessors parse on read so a bad row surfaces at use, not at import.
type ComplianceService struct {
	rules port.ComplianceRuleRepository
}

func NewComplianceService(rules port.ComplianceRuleRepository) *ComplianceService {
	return &ComplianceService{rules: rules}
}

// Lookup returns the raw rule value active for the tuple on the given date.
func (s *ComplianceService) Lookup(ctx context.Context, orgID uuid.UUID, stateCode, ruleType, ruleKey string, onDate time.Time) (string, error) {
	rule, err := s.rules.FindActive(ctx, orgID, stateCode, ruleType, ruleKey, onDate)
	if err != nil {
		return "", err
	}
	return rule.RuleValue, nil
}

// DecimalRule parses the active rule value as a decimal.
func (s *ComplianceService) DecimalRule(ctx context.Context, orgID uuid.UUID, stateCode, ruleType, ruleKey string, onDate time.Time) (decimal.Decimal, error) {
	raw, err := s.Lookup(ctx, orgID, stateCode, ruleType, ruleKey, onDate)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("rule %s.%s for %s holds non-decimal value %q: %w", ruleType, ruleKey, stateCode, raw, err)
	}
	return d, nil
}

// IntRule parses the active rule value as an integer.
func (s *ComplianceService) IntRule(ctx context.Context, orgID uuid.UUID, stateCode, ruleType, ruleKey string, onDate time.Time) (int, error) {
	raw, err := s.Lookup(ctx, orgID, stateCode, ruleType, ruleKey, onDate)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("rule %s.%s for %s holds non-integer value %q: %w", ruleType, ruleKey, stateCode, raw, err)
	}
	return n, nil
}

// BoolRule parses the active rule value as a boolean. Absence reads as false.
func (s *ComplianceService) BoolRule(ctx context.Context, orgID uuid.UUID, stateCode, ruleType, ruleKey string, onDate time.Time) (bool, error) {
	raw, err := s.Lookup(ctx, orgID, stateCode, ruleType, ruleKey, onDate)
	if errors.Is(err, model.ErrComplianceRuleNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("rule %s.%s for %s holds non-boolean value %q: %w", ruleType, ruleKey, stateCode, raw, err)
	}
	return b, nil
}

// CalculateLateFee applies the state cap logic: min(rent * max_percent,
// max_amount), presented at two decimal places.
func (s *ComplianceService) CalculateLateFee(ctx context.Context, orgID uuid.UUID, stateCode string, monthlyRent decimal.Decimal, onDate time.Time) (decimal.Decimal, error) {
	maxPercent, err := s.DecimalRule(ctx, orgID, stateCode, model.RuleTypeLateFee, model.RuleKeyMaxPercent, onDate)
	if err != nil {
		return decimal.Zero, err
	}
	maxAmount, err := s.DecimalRule(ctx, orgID, stateCode, model.RuleTypeLateFee, model.RuleKeyMaxAmount, onDate)
	if err != nil {
		return decimal.Zero, err
	}
	fee := monthlyRent.Mul(maxPercent)
	if fee.GreaterThan(maxAmount) {
		fee = maxAmount
	}
	return fee.RoundBank(money.PresentationScale), nil
}

// MaxSecurityDeposit returns the state ceiling: max_months_rent * monthly
// rent. A missing rule means the state does not cap deposits.
func (s *ComplianceService) MaxSecurityDeposit(ctx context.Context, orgID uuid.UUID, stateCode string, monthlyRent decimal.Decimal, onDate time.Time) (decimal.Decimal, bool, error) {
	months, err := s.DecimalRule(ctx, orgID, stateCode, model.RuleTypeSecurityDeposit, model.RuleKeyMaxMonthsRent, onDate)
	if errors.Is(err, model.ErrComplianceRuleNotFound) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	return monthlyRent.Mul(months), true, nil
}

// DepositInterest accrues simple daily interest on a held deposit at the
// state rate between collection and move-out. States with no interest rule
// owe nothing.
func (s *ComplianceService) DepositInterest(ctx context.Context, orgID uuid.UUID, stateCode string, principal decimal.Decimal, heldFrom, heldTo time.Time) (decimal.Decimal, error) {
	rate, err := s.DecimalRule(ctx, orgID, stateCode, model.RuleTypeSecurityDeposit, model.RuleKeyInterestRate, heldTo)
	if errors.Is(err, model.ErrComplianceRuleNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	days := int64(heldTo.Sub(heldFrom).Hours() / 24)
	if days <= 0 || rate.IsZero() {
		return decimal.Zero, nil
	}
	daily := rate.Div(decimal.NewFromInt(365))
	interest := principal.Mul(daily).Mul(decimal.NewFromInt(days))
	return interest.RoundBank(money.PresentationScale), nil
}

// ReturnDeadline computes move_out + the state's return_days.
func (s *ComplianceService) ReturnDeadline(ctx context.Context, orgID uuid.UUID, stateCode string, moveOut time.Time) (time.Time, error) {
	days, err := s.IntRule(ctx, orgID, stateCode, model.RuleTypeSecurityDeposit, model.RuleKeyReturnDays, moveOut)
	if err != nil {
		return time.Time{}, err
	}
	return moveOut.AddDate(0, 0, days), nil
}

// RequiresSegregatedAccount reports whether deposits must be swept into a
// separate account in this state.
func (s *ComplianceService) RequiresSegregatedAccount(ctx context.Context, orgID uuid.UUID, stateCode string, onDate time.Time) (bool, error) {
	return s.BoolRule(ctx, orgID, stateCode, model.RuleTypeSecurityDeposit, model.RuleKeySeparateAccount, onDate)
}

// Threshold1099 returns the information-return reporting threshold.
func (s *ComplianceService) Threshold1099(ctx context.Context, orgID uuid.UUID, stateCode string, onDate time.Time) (decimal.Decimal, error) {
	return s.DecimalRule(ctx, orgID, stateCode, model.RuleTypeTax, model.RuleKeyThreshold1099, onDate)
}
