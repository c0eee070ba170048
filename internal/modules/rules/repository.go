package rules

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Repository handles classification rule persistence.
// Database: classification.db (classification_rules table)
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new rule repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "rules").Logger(),
	}
}

// Create validates and stores a new rule. A missing ID is generated.
func (r *Repository) Create(rule *Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}

	configJSON, err := json.Marshal(rule.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal rule config: %w", err)
	}

	now := time.Now().Unix()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	_, err = r.db.Exec(`
		INSERT INTO classification_rules
			(id, asset_class, rule_type, rule_config, priority, confidence_weight, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rule.ID, rule.AssetClass, string(rule.RuleType), string(configJSON),
		rule.Priority, rule.ConfidenceWeight, boolToInt(rule.Active), rule.CreatedAt, rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert rule: %w", err)
	}

	r.log.Info().
		Str("rule_id", rule.ID).
		Str("asset_class", rule.AssetClass).
		Str("rule_type", string(rule.RuleType)).
		Msg("Rule created")

	return nil
}

// Update replaces an existing rule's fields. The explicit-update path;
// everyday retirement should use Deactivate instead.
func (r *Repository) Update(rule *Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	configJSON, err := json.Marshal(rule.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal rule config: %w", err)
	}

	rule.UpdatedAt = time.Now().Unix()

	result, err := r.db.Exec(`
		UPDATE classification_rules
		SET asset_class = ?, rule_type = ?, rule_config = ?, priority = ?,
			confidence_weight = ?, active = ?, updated_at = ?
		WHERE id = ?
	`, rule.AssetClass, string(rule.RuleType), string(configJSON), rule.Priority,
		rule.ConfidenceWeight, boolToInt(rule.Active), rule.UpdatedAt, rule.ID)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule not found: %s", rule.ID)
	}

	return nil
}

// Deactivate retires a rule without deleting it, preserving audit continuity.
func (r *Repository) Deactivate(id string) error {
	result, err := r.db.Exec(`
		UPDATE classification_rules SET active = 0, updated_at = ? WHERE id = ?
	`, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule not found: %s", id)
	}

	r.log.Info().Str("rule_id", id).Msg("Rule deactivated")
	return nil
}

// GetByID returns a single rule, or nil if not found.
func (r *Repository) GetByID(id string) (*Rule, error) {
	row := r.db.QueryRow(`
		SELECT id, asset_class, rule_type, rule_config, priority, confidence_weight, active, created_at, updated_at
		FROM classification_rules WHERE id = ?
	`, id)

	rule, err := scanRule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule %s: %w", id, err)
	}
	return rule, nil
}

// List returns all rules ordered by ascending priority.
// Inactive rules are included so retirement stays visible to administrators.
func (r *Repository) List() ([]Rule, error) {
	return r.list(false)
}

// ListActive returns active rules ordered by ascending priority.
// This is the rule snapshot the engine evaluates against.
func (r *Repository) ListActive() ([]Rule, error) {
	return r.list(true)
}

func (r *Repository) list(activeOnly bool) ([]Rule, error) {
	query := `
		SELECT id, asset_class, rule_type, rule_config, priority, confidence_weight, active, created_at, updated_at
		FROM classification_rules`
	if activeOnly {
		query += " WHERE active = 1"
	}
	query += " ORDER BY priority ASC, id ASC"

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var result []Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		result = append(result, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}

	return result, nil
}

// scanner abstracts sql.Row and sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRule(s scanner) (*Rule, error) {
	var rule Rule
	var ruleType, configJSON string
	var active int

	err := s.Scan(&rule.ID, &rule.AssetClass, &ruleType, &configJSON,
		&rule.Priority, &rule.ConfidenceWeight, &active, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rule.RuleType = RuleType(ruleType)
	rule.Active = active != 0

	if err := json.Unmarshal([]byte(configJSON), &rule.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rule config for %s: %w", rule.ID, err)
	}

	return &rule, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
