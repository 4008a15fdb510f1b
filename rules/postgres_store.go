package rules

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresRuleStore implements RuleStore backed by PostgreSQL. Conditions
// and actions are stored as JSONB; the position sequence preserves table
// insertion order for stable priority ties.
type PostgresRuleStore struct {
	db *sql.DB
}

// NewPostgresRuleStore creates a PostgreSQL-backed RuleStore.
func NewPostgresRuleStore(db *sql.DB) *PostgresRuleStore {
	return &PostgresRuleStore{db: db}
}

// Add inserts a new rule.
func (s *PostgresRuleStore) Add(r *Rule) error {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM rules WHERE id = $1)`, r.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check rule existence: %w", err)
	}
	if exists {
		return fmt.Errorf("rule with ID %s already exists", r.ID)
	}

	conditions, action, err := marshalRule(r)
	if err != nil {
		return err
	}

	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now

	_, err = s.db.Exec(`
		INSERT INTO rules (id, name, description, conditions, expression, action, priority, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, r.ID, r.Name, r.Description, conditions, r.Expression, action, r.Priority, r.Enabled, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert rule: %w", err)
	}

	return nil
}

// Get retrieves a rule by ID.
func (s *PostgresRuleStore) Get(id string) (*Rule, error) {
	row := s.db.QueryRow(`
		SELECT id, name, description, conditions, expression, action, priority, enabled, created_at, updated_at
		FROM rules
		WHERE id = $1
	`, id)

	r, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rule %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return r, nil
}

// ListEnabled returns enabled rules in insertion order.
func (s *PostgresRuleStore) ListEnabled() ([]*Rule, error) {
	return s.list(`
		SELECT id, name, description, conditions, expression, action, priority, enabled, created_at, updated_at
		FROM rules
		WHERE enabled = true
		ORDER BY position ASC
	`)
}

// List returns every rule in insertion order.
func (s *PostgresRuleStore) List() ([]*Rule, error) {
	return s.list(`
		SELECT id, name, description, conditions, expression, action, priority, enabled, created_at, updated_at
		FROM rules
		ORDER BY position ASC
	`)
}

func (s *PostgresRuleStore) list(query string) ([]*Rule, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var ruleSet []*Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		ruleSet = append(ruleSet, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	return ruleSet, nil
}

// Update modifies an existing rule, preserving its table position.
func (s *PostgresRuleStore) Update(r *Rule) error {
	conditions, action, err := marshalRule(r)
	if err != nil {
		return err
	}

	r.UpdatedAt = time.Now()

	result, err := s.db.Exec(`
		UPDATE rules
		SET name = $1, description = $2, conditions = $3, expression = $4, action = $5, priority = $6, enabled = $7, updated_at = $8
		WHERE id = $9
	`, r.Name, r.Description, conditions, r.Expression, action, r.Priority, r.Enabled, r.UpdatedAt, r.ID)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule %s not found", r.ID)
	}

	return nil
}

// Delete removes a rule.
func (s *PostgresRuleStore) Delete(id string) error {
	result, err := s.db.Exec(`DELETE FROM rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule %s not found", id)
	}

	return nil
}

func marshalRule(r *Rule) (conditions, action []byte, err error) {
	conditions, err = json.Marshal(r.Conditions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal conditions: %w", err)
	}
	action, err = json.Marshal(r.Action)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal action: %w", err)
	}
	return conditions, action, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*Rule, error) {
	var r Rule
	var conditions, action []byte
	err := row.Scan(&r.ID, &r.Name, &r.Description, &conditions, &r.Expression, &action, &r.Priority, &r.Enabled, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(conditions) > 0 {
		if err := json.Unmarshal(conditions, &r.Conditions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal conditions: %w", err)
		}
	}
	if len(action) > 0 {
		if err := json.Unmarshal(action, &r.Action); err != nil {
			return nil, fmt.Errorf("failed to unmarshal action: %w", err)
		}
	}
	return &r, nil
}
