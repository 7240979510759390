package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GoLearn21/propmaster-sub001/internal/domain/model"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/port"
	"github.com/GoLearn21/propmaster-sub001/internal/domain/valueobject"
	"github.com/GoLearn21/propmaster-sub001/pkg/postgres"
)

// Compile-time interface check.
var _ port.ComplianceRuleRepository = (*ComplianceRepo)(nil)

// ComplianceRepo persists temporally-keyed jurisdictional rules.
type ComplianceRepo struct {
	pool *pgxpool.Pool
}

func NewComplianceRepo(pool *pgxpool.Pool) *ComplianceRepo {
	return &ComplianceRepo{pool: pool}
}

// Upsert end-dates the currently open rule for (org, state, type, key) at
// the new rule's effective date, then inserts the new row. Both statements
// run in one transaction so no date is ever covered by two open rules.
func (r *ComplianceRepo) Upsert(ctx context.Context, rule model.ComplianceRule) error {
	return postgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE compliance_rules SET end_date = $5
			WHERE org_id = $1 AND state_code = $2 AND rule_type = $3 AND rule_key = $4
				AND end_date IS NULL AND effective_date < $5
		`, rule.OrgID, rule.StateCode, rule.RuleType, rule.RuleKey, valueobject.DateOf(rule.EffectiveDate))
		if err != nil {
			return fmt.Errorf("end-date prior rule: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO compliance_rules (
				id, org_id, state_code, rule_type, rule_key, rule_value,
				effective_date, end_date, source_citation, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			rule.ID, rule.OrgID, rule.StateCode, rule.RuleType, rule.RuleKey, rule.RuleValue,
			valueobject.DateOf(rule.EffectiveDate), rule.EndDate, rule.SourceCitation, rule.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert compliance rule: %w", err)
		}
		return nil
	})
}

func (r *ComplianceRepo) FindActive(ctx context.Context, orgID uuid.UUID, stateCode, ruleType, ruleKey string, onDate time.Time) (model.ComplianceRule, error) {
	d := valueobject.DateOf(onDate)
	row := r.pool.QueryRow(ctx, `
		SELECT id, org_id, state_code, rule_type, rule_key, rule_value,
			effective_date, end_date, source_citation, created_at
		FROM compliance_rules
		WHERE org_id = $1 AND state_code = $2 AND rule_type = $3 AND rule_key = $4
			AND effective_date <= $5 AND (end_date IS NULL OR end_date > $5)
		ORDER BY effective_date DESC
		LIMIT 1
	`, orgID, stateCode, ruleType, ruleKey, d)

	rule, err := scanComplianceRule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ComplianceRule{}, fmt.Errorf("%w: %s/%s/%s on %s",
				model.ErrComplianceRuleNotFound, stateCode, ruleType, ruleKey, d.Format(time.DateOnly))
		}
		return model.ComplianceRule{}, err
	}
	return rule, nil
}

func (r *ComplianceRepo) ListByState(ctx context.Context, orgID uuid.UUID, stateCode string, onDate time.Time) ([]model.ComplianceRule, error) {
	d := valueobject.DateOf(onDate)
	rows, err := r.pool.Query(ctx, `
		SELECT id, org_id, state_code, rule_type, rule_key, rule_value,
			effective_date, end_date, source_citation, created_at
		FROM compliance_rules
		WHERE org_id = $1 AND state_code = $2
			AND effective_date <= $3 AND (end_date IS NULL OR end_date > $3)
		ORDER BY rule_type, rule_key
	`, orgID, stateCode, d)
	if err != nil {
		return nil, fmt.Errorf("list rules for %s: %w", stateCode, err)
	}
	defer rows.Close()

	var out []model.ComplianceRule
	for rows.Next() {
		rule, err := scanComplianceRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func scanComplianceRule(row pgx.Row) (model.ComplianceRule, error) {
	var rule model.ComplianceRule
	err := row.Scan(
		&rule.ID, &rule.OrgID, &rule.StateCode, &rule.RuleType, &rule.RuleKey, &rule.RuleValue,
		&rule.EffectiveDate, &rule.EndDate, &rule.SourceCitation, &rule.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ComplianceRule{}, err
		}
		return model.ComplianceRule{}, fmt.Errorf("scan compliance rule: %w", err)
	}
	return rule, nil
}
