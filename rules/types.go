package rules

import "time"

// Operator is a comparison applied between a resolved context field and a
// resolved condition value.
type Operator string

const (
	OpEq       Operator = "eq"
	OpGt       Operator = "gt"
	OpLt       Operator = "lt"
	OpGte      Operator = "gte"
	OpLte      Operator = "lte"
	OpContains Operator = "contains"
	OpIn       Operator = "in"
)

// ActionType categorizes a suggestion for the caller. It is purely advisory.
type ActionType string

const (
	ActionSuggest ActionType = "suggest"
	ActionWarn    ActionType = "warn"
	ActionAuto    ActionType = "auto"
)

// Condition is a single predicate over the evaluation context.
//
// Value may be a literal, the token "today" (resolved to the evaluation
// instant), or a cross-reference of the form "$other.field" resolved against
// the same context.
type Condition struct {
	Field    string   `json:"field" yaml:"field"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value    any      `json:"value,omitempty" yaml:"value,omitempty"`
}

// Action describes the suggestion emitted when a rule fires. Message may
// contain {dotted.path} placeholders interpolated against the context.
// Data is passed through to the suggestion verbatim.
type Action struct {
	Type    ActionType     `json:"type" yaml:"type"`
	Message string         `json:"message" yaml:"message"`
	Data    map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}

// Rule is a declarative condition/action unit. All conditions must hold for
// the rule to fire (AND semantics; OR is expressed as separate rules).
//
// Expression is an alternative to Conditions: a CEL expression over a single
// `ctx` variable. A rule carries one or the other, not both.
type Rule struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Conditions  []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Expression  string      `json:"expression,omitempty" yaml:"expression,omitempty"`
	Action      Action      `json:"action" yaml:"action"`
	Priority    int         `json:"priority,omitempty" yaml:"priority,omitempty"`
	Enabled     bool        `json:"enabled" yaml:"enabled"`
	CreatedAt   time.Time   `json:"createdAt,omitempty" yaml:"-"`
	UpdatedAt   time.Time   `json:"updatedAt,omitempty" yaml:"-"`
}

// defaultPriority is assigned to rules without an explicit priority, sorting
// them after everything else. Lower numbers are more urgent.
const defaultPriority = 999

func (r *Rule) effectivePriority() int {
	if r.Priority <= 0 {
		return defaultPriority
	}
	return r.Priority
}

// Suggestion is the engine's output record: an advisory insight for the
// caller to render. Suggestions are rebuilt on every evaluation and never
// persisted.
type Suggestion struct {
	ID       string         `json:"id"`
	Type     ActionType     `json:"type"`
	Message  string         `json:"message"`
	Data     map[string]any `json:"data,omitempty"`
	Priority int            `json:"priority"`
}
