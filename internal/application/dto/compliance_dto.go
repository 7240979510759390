package dto

import (
	"time"

	"github.com/google/uuid"
)

// UpsertRuleRequest loads or amends one jurisdictional rule. The prior
// rule for the tuple, if any, is end-dated at the new effective date.
type UpsertRuleRequest struct {
	OrgID          uuid.UUID `json:"org_id"`
	StateCode      string    `json:"state_code"`
	RuleType       string    `json:"rule_type"`
	RuleKey        string    `json:"rule_key"`
	RuleValue      string    `json:"rule_value"`
	EffectiveDate  time.Time `json:"effective_date"`
	SourceCitation string    `json:"source_citation,omitempty"`
}

// RuleResponse is one stored compliance rule.
type RuleResponse struct {
	RuleID         uuid.UUID  `json:"rule_id"`
	StateCode      string     `json:"state_code"`
	RuleType       string     `json:"rule_type"`
	RuleKey        string     `json:"rule_key"`
	RuleValue      string     `json:"rule_value"`
	EffectiveDate  time.Time  `json:"effective_date"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	SourceCitation string     `json:"source_citation,omitempty"`
}
