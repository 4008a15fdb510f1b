package rules

import (
	"fmt"
	"regexp"
)

var validRuleID = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

var validOperators = map[Operator]bool{
	OpEq:       true,
	OpGt:       true,
	OpLt:       true,
	OpGte:      true,
	OpLte:      true,
	OpContains: true,
	OpIn:       true,
}

var validActionTypes = map[ActionType]bool{
	ActionSuggest: true,
	ActionWarn:    true,
	ActionAuto:    true,
}

// Validate checks a rule definition before it enters the store. Validation
// happens at the table's edge: once a rule is in, evaluation tolerates
// whatever it finds (fail-open), so this is where malformed definitions get
// rejected loudly.
func Validate(r *Rule) error {
	if r == nil {
		return fmt.Errorf("rule cannot be nil")
	}

	if r.ID == "" {
		return fmt.Errorf("rule ID cannot be empty")
	}
	if len(r.ID) > 100 {
		return fmt.Errorf("rule ID length %d exceeds maximum of 100 characters", len(r.ID))
	}
	if !validRuleID.MatchString(r.ID) {
		return fmt.Errorf("rule ID %q must match pattern ^[a-z0-9][a-z0-9_-]*$", r.ID)
	}

	if r.Name == "" {
		return fmt.Errorf("rule %s: name cannot be empty", r.ID)
	}

	if r.Expression != "" && len(r.Conditions) > 0 {
		return fmt.Errorf("rule %s: carries both conditions and an expression; pick one", r.ID)
	}

	for i, cond := range r.Conditions {
		if cond.Field == "" {
			return fmt.Errorf("rule %s: condition %d has empty field path", r.ID, i)
		}
		if !validOperators[cond.Operator] {
			return fmt.Errorf("rule %s: condition %d has unknown operator %q (must be one of: eq, gt, lt, gte, lte, contains, in)", r.ID, i, cond.Operator)
		}
	}

	if r.Action.Type != "" && !validActionTypes[r.Action.Type] {
		return fmt.Errorf("rule %s: unknown action type %q (must be one of: suggest, warn, auto)", r.ID, r.Action.Type)
	}

	if r.Priority < 0 {
		return fmt.Errorf("rule %s: priority must not be negative", r.ID)
	}
	if r.Priority > defaultPriority {
		return fmt.Errorf("rule %s: priority %d exceeds maximum of %d", r.ID, r.Priority, defaultPriority)
	}

	return nil
}
