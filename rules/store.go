package rules

import (
	"fmt"
	"sync"
	"time"
)

// RuleStore manages rule persistence and retrieval.
//
// ListEnabled must return rules in their insertion order: suggestion sorting
// is stable, so the rule table's order decides ties between equal
// priorities.
type RuleStore interface {
	// Add a new rule.
	Add(r *Rule) error

	// Get a rule by ID.
	Get(id string) (*Rule, error)

	// ListEnabled returns all enabled rules in insertion order.
	ListEnabled() ([]*Rule, error)

	// List returns every rule, enabled or not, in insertion order.
	List() ([]*Rule, error)

	// Update an existing rule.
	Update(r *Rule) error

	// Delete a rule.
	Delete(id string) error
}

// InMemoryRuleStore implements RuleStore with a map plus an order slice.
// Thread-safe.
type InMemoryRuleStore struct {
	rules map[string]*Rule
	order []string
	mu    sync.RWMutex
}

// NewInMemoryRuleStore creates an empty in-memory rule store.
func NewInMemoryRuleStore() *InMemoryRuleStore {
	return &InMemoryRuleStore{
		rules: make(map[string]*Rule),
	}
}

// NewSeededRuleStore creates an in-memory store preloaded with the given
// rules, preserving their order. Duplicate IDs are an error.
func NewSeededRuleStore(ruleSet []*Rule) (*InMemoryRuleStore, error) {
	s := NewInMemoryRuleStore()
	for _, r := range ruleSet {
		if err := s.Add(r); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add appends a rule, enforcing unique IDs and stamping timestamps.
func (s *InMemoryRuleStore) Add(r *Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[r.ID]; exists {
		return fmt.Errorf("rule with ID %s already exists", r.ID)
	}

	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	s.rules[r.ID] = r
	s.order = append(s.order, r.ID)
	return nil
}

// Get retrieves a rule by ID.
func (s *InMemoryRuleStore) Get(id string) (*Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.rules[id]
	if !exists {
		return nil, fmt.Errorf("rule with ID %s not found", id)
	}
	return r, nil
}

// ListEnabled returns the enabled rules in insertion order.
func (s *InMemoryRuleStore) ListEnabled() ([]*Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var enabled []*Rule
	for _, id := range s.order {
		if r := s.rules[id]; r != nil && r.Enabled {
			enabled = append(enabled, r)
		}
	}
	return enabled, nil
}

// List returns every rule in insertion order.
func (s *InMemoryRuleStore) List() ([]*Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*Rule, 0, len(s.order))
	for _, id := range s.order {
		if r := s.rules[id]; r != nil {
			all = append(all, r)
		}
	}
	return all, nil
}

// Update replaces an existing rule, preserving CreatedAt and its position
// in the table.
func (s *InMemoryRuleStore) Update(r *Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.rules[r.ID]
	if !exists {
		return fmt.Errorf("rule with ID %s not found", r.ID)
	}

	r.CreatedAt = existing.CreatedAt
	r.UpdatedAt = time.Now()
	s.rules[r.ID] = r
	return nil
}

// Delete removes a rule.
func (s *InMemoryRuleStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[id]; !exists {
		return fmt.Errorf("rule with ID %s not found", id)
	}

	delete(s.rules, id)
	for i, ruleID := range s.order {
		if ruleID == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
