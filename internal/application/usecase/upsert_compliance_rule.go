package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/GoLearn21/propmaster-sub001/internal/application/dto"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
)

// UpsertComplianceRuleUseCase loads one jurisdictional rule. Legal changes
// never rewrite history: the prior rule is end-dated at the new effective
// date and both rows stay queryable.
type UpsertComplianceRuleUseCase struct {
	rules  port.ComplianceRuleRepository
	logger *slog.Logger
}

func NewUpsertComplianceRuleUseCase(rules port.ComplianceRuleRepository, logger *slog.Logger) *UpsertComplianceRuleUseCase {
	return &UpsertComplianceRuleUseCase{rules: rules, logger: logger}
}

func (uc *UpsertComplianceRuleUseCase) Execute(ctx context.Context, req dto.UpsertRuleRequest) (dto.RuleResponse, error) {
	if req.StateCode == "" || req.RuleType == "" || req.RuleKey == "" || req.RuleValue == "" {
		return dto.RuleResponse{}, fmt.Errorf("state, type, key, and value are all required")
	}
	effective := req.EffectiveDate
	if effective.IsZero() {
		effective = valueobject.DateOf(time.Now().UTC())
	}

	rule := model.ComplianceRule{
		ID:             uuid.New(),
		OrgID:          req.OrgID,
		StateCode:      req.StateCode,
		RuleType:       req.RuleType,
		RuleKey:        req.RuleKey,
		RuleValue:      req.RuleValue,
		EffectiveDate:  valueobject.DateOf(effective),
		SourceCitation: req.SourceCitation,
		CreatedAt:      time.Now().UTC(),
	}
	if err := uc.rules.Upsert(ctx, rule); err != nil {
		return dto.RuleResponse{}, fmt.Errorf("upsert rule %s.%s.%s: %w", req.StateCode, req.RuleType, req.RuleKey, err)
	}

	uc.logger.InfoContext(ctx, "compliance rule upserted",
		slog.String("state", rule.StateCode),
		slog.String("rule", rule.RuleType+"."+rule.RuleKey),
		slog.String("effective", rule.EffectiveDate.Format("2006-01-02")))
	return dto.RuleResponse{
		RuleID:         rule.ID,
		StateCode:      rule.StateCode,
		RuleType:       rule.RuleType,
		RuleKey:        rule.RuleKey,
		RuleValue:      rule.RuleValue,
		EffectiveDate:  rule.EffectiveDate,
		SourceCitation: rule.SourceCitation,
	}, nil
}
