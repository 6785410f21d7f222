package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/godesk-io/godesk-ce/internal/database"
	"github.com/godesk-io/godesk-ce/internal/escalation"
	"github.com/godesk-io/godesk-ce/internal/models"
)

// EscalationRuleRepository handles database operations for escalation rules.
// Rules are schema-validated on the way out so the evaluator never sees
// malformed parameters; an invalid stored rule is logged and dropped from
// the result rather than poisoning the whole sweep.
type EscalationRuleRepository struct {
	db     *sql.DB
	logger *log.Logger
}

// NewEscalationRuleRepository creates an escalation rule repository.
func NewEscalationRuleRepository(db *sql.DB, logger *log.Logger) *EscalationRuleRepository {
	if logger == nil {
		logger = log.Default()
	}
	return &EscalationRuleRepository{db: db, logger: logger}
}

const ruleColumns = `id, name, condition_type, condition_params, action_type, action_params, is_active, created_at, updated_at`

// GetByID retrieves a rule.
func (r *EscalationRuleRepository) GetByID(ctx context.Context, id int64) (*models.EscalationRule, error) {
	row := r.db.QueryRowContext(ctx, database.ConvertPlaceholders(
		`SELECT `+ruleColumns+` FROM escalation_rule WHERE id = ?`), id)
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("escalation rule %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load escalation rule %d: %w", id, err)
	}
	return rule, nil
}

// ListActive returns every active, well-formed rule.
func (r *EscalationRuleRepository) ListActive(ctx context.Context) ([]*models.EscalationRule, error) {
	rows, err := r.db.QueryContext(ctx, database.ConvertPlaceholders(
		`SELECT `+ruleColumns+` FROM escalation_rule WHERE is_active = ? ORDER BY id`), true)
	if err != nil {
		return nil, fmt.Errorf("failed to list escalation rules: %w", err)
	}
	defer rows.Close()
	var rules []*models.EscalationRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan escalation rule: %w", err)
		}
		if err := escalation.ValidateRule(rule); err != nil {
			r.logger.Printf("skipping invalid escalation rule %d (%s): %v", rule.ID, rule.Name, err)
			continue
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// Create persists a new rule after validating its parameters.
func (r *EscalationRuleRepository) Create(ctx context.Context, rule *models.EscalationRule) error {
	if err := escalation.ValidateRule(rule); err != nil {
		return err
	}
	query := database.ConvertPlaceholders(`
		INSERT INTO escalation_rule (name, condition_type, condition_params, action_type, action_params, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, NOW(), NOW())`)
	args := []any{rule.Name, string(rule.ConditionType), []byte(rule.ConditionParams),
		string(rule.ActionType), []byte(rule.ActionParams), rule.IsActive}

	if database.IsPostgreSQL() {
		return r.db.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&rule.ID)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to create escalation rule: %w", err)
	}
	rule.ID, err = res.LastInsertId()
	return err
}

func scanRule(row rowScanner) (*models.EscalationRule, error) {
	var rule models.EscalationRule
	var condType, actType string
	var condParams, actParams []byte
	if err := row.Scan(&rule.ID, &rule.Name, &condType, &condParams, &actType, &actParams,
		&rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
		return nil, err
	}
	rule.ConditionType = models.EscalationConditionType(condType)
	rule.ActionType = models.EscalationActionType(actType)
	rule.ConditionParams = condParams
	rule.ActionParams = actParams
	return &rule, nil
}
