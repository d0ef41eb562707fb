package rule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Sentinel errors for rule lookup. The engine maps these onto its own error
// taxonomy at construction time.
var (
	ErrNotFound  = errors.New("snapshot rule not found")
	ErrAmbiguous = errors.New("snapshot rule id matches more than one record")
)

// Store reads and writes snapshot rule configuration. It shares the backing
// database with the record store but touches only the configuration tables.
type Store struct {
	db *sql.DB
}

// NewStore creates a configuration store over the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Rule fetches exactly one rule by id. Zero matches yields ErrNotFound;
// more than one yields ErrAmbiguous. The store's primary key makes the
// ambiguous case unreachable in practice, but the contract is checked
// rather than assumed.
func (s *Store) Rule(ctx context.Context, id string) (Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_entity, target_entity, entry_criteria, frequency
		FROM snapshot_rules WHERE id = ?
	`, id)
	if err != nil {
		return Rule{}, fmt.Errorf("fetch rule %s: %w", id, err)
	}
	defer rows.Close()

	var matches []Rule
	for rows.Next() {
		var r Rule
		if err := rows.Scan(&r.ID, &r.SourceEntity, &r.TargetEntity, &r.EntryCriteria, &r.Frequency); err != nil {
			return Rule{}, fmt.Errorf("fetch rule %s: %w", id, err)
		}
		matches = append(matches, r)
	}
	if err := rows.Err(); err != nil {
		return Rule{}, fmt.Errorf("fetch rule %s: %w", id, err)
	}

	switch len(matches) {
	case 0:
		return Rule{}, fmt.Errorf("rule %s: %w", id, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return Rule{}, fmt.Errorf("rule %s: %w", id, ErrAmbiguous)
	}
}

// Rules returns all configured rules ordered by id.
func (s *Store) Rules(ctx context.Context) ([]Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_entity, target_entity, entry_criteria, frequency
		FROM snapshot_rules ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		var r Rule
		if err := rows.Scan(&r.ID, &r.SourceEntity, &r.TargetEntity, &r.EntryCriteria, &r.Frequency); err != nil {
			return nil, fmt.Errorf("list rules: %w", err)
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return rules, nil
}

// Mappings returns a rule's field mappings in declaration order. Order
// matters for the last-wins fold in BuildFieldMap.
func (s *Store) Mappings(ctx context.Context, ruleID string) ([]Mapping, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rule_id, source_field, target_field
		FROM field_mappings WHERE rule_id = ? ORDER BY position
	`, ruleID)
	if err != nil {
		return nil, fmt.Errorf("fetch mappings for %s: %w", ruleID, err)
	}
	defer rows.Close()

	var mappings []Mapping
	for rows.Next() {
		var m Mapping
		if err := rows.Scan(&m.RuleID, &m.SourceField, &m.TargetField); err != nil {
			return nil, fmt.Errorf("fetch mappings for %s: %w", ruleID, err)
		}
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch mappings for %s: %w", ruleID, err)
	}
	return mappings, nil
}

// Save upserts a rule and replaces its mapping set in one transaction, so a
// reload never leaves a rule with a half-replaced mapping set.
func (s *Store) Save(ctx context.Context, r Rule, mappings []Mapping) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save rule %s: begin: %w", r.ID, err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshot_rules (id, source_entity, target_entity, entry_criteria, frequency)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_entity = excluded.source_entity,
			target_entity = excluded.target_entity,
			entry_criteria = excluded.entry_criteria,
			frequency = excluded.frequency
	`, r.ID, r.SourceEntity, r.TargetEntity, r.EntryCriteria, r.Frequency)
	if err != nil {
		return fmt.Errorf("save rule %s: %w", r.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM field_mappings WHERE rule_id = ?`, r.ID); err != nil {
		return fmt.Errorf("save rule %s: clear mappings: %w", r.ID, err)
	}
	for i, m := range mappings {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO field_mappings (rule_id, source_field, target_field, position)
			VALUES (?, ?, ?, ?)
		`, r.ID, m.SourceField, m.TargetField, i)
		if err != nil {
			return fmt.Errorf("save rule %s: mapping %s: %w", r.ID, m.SourceField, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save rule %s: commit: %w", r.ID, err)
	}
	return nil
}

// Delete removes a rule; its mappings cascade.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshot_rules WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete rule %s: %w", id, err)
	}
	return nil
}

// Resolve loads a rule and folds its mappings into the executable form.
// This is a pure load step: no validation of entity or field existence
// happens here. It runs once per executor, at construction.
func Resolve(ctx context.Context, s *Store, id string) (Resolved, error) {
	r, err := s.Rule(ctx, id)
	if err != nil {
		return Resolved{}, err
	}
	mappings, err := s.Mappings(ctx, id)
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{Rule: r, Fields: BuildFieldMap(mappings)}, nil
}
