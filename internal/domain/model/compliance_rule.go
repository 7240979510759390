package model

import (
	"time"

	"github.com/google/uuid"
)

// ComplianceRule is one temporally-keyed jurisdictional rule row. Rules are
// data, not code: the active value for (state, type, key) at date D is the
// row with effective_date <= D < end_date (open-ended when end_date is nil).
type ComplianceRule struct {
	ID             uuid.UUID
	OrgID          uuid.UUID
	StateCode      string
	RuleType       string
	RuleKey        string
	RuleValue      string
	EffectiveDate  time.Time
	EndDate        *time.Time
	SourceCitation string
	CreatedAt      time.Time
}

// ActiveAt reports whether the rule is in force on the given calendar date.
func (r ComplianceRule) ActiveAt(d time.Time) bool {
	if d.Before(r.EffectiveDate) {
		return false
	}
	return r.EndDate == nil || d.Before(*r.EndDate)
}

// Rule type and key names used across the engine.
const (
	RuleTypeLateFee         = "late_fee"
	RuleKeyMaxPercent       = "max_percent"
	RuleKeyMaxAmount        = "max_amount"
	RuleTypeSecurityDeposit = "security_deposit"
	RuleKeyMaxMonthsRent    = "max_months_rent"
	RuleKeyInterestRate     = "interest_rate"
	RuleKeySeparateAccount  = "separate_account"
	RuleKeyReturnDays       = "return_days"
	RuleTypeGracePeriod     = "grace_period"
	RuleKeyGracePeriodDays  = "grace_period_days"
	RuleTypeNoticePeriod    = "notice_period"
	RuleKeyDeadlineDays     = "deadline_days"
	RuleTypeTax             = "tax"
	RuleKeyThreshold1099    = "threshold_1099"
)
