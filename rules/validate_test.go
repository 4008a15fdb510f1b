package rules

import (
	"strings"
	"testing"
)

func TestValidate_AcceptsBuiltinRules(t *testing.T) {
	for _, r := range BuiltinRules() {
		if err := Validate(r); err != nil {
			t.Errorf("Expected builtin rule %s to validate, got: %v", r.ID, err)
		}
	}
}

func TestValidate_NilRule(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Error("Expected error for nil rule, got nil")
	}
}

func TestValidate_RuleID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"empty", "", true},
		{"simple", "low-stock", false},
		{"with underscore", "low_stock_2", false},
		{"uppercase", "LowStock", true},
		{"leading dash", "-stock", true},
		{"spaces", "low stock", true},
		{"too long", strings.Repeat("a", 101), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&Rule{ID: tt.id, Name: "Test"})
			if tt.wantErr && err == nil {
				t.Errorf("Expected error for ID %q, got nil", tt.id)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected ID %q to validate, got: %v", tt.id, err)
			}
		})
	}
}

func TestValidate_NameRequired(t *testing.T) {
	if err := Validate(&Rule{ID: "r1"}); err == nil {
		t.Error("Expected error for empty name, got nil")
	}
}

func TestValidate_ConditionsAndExpressionAreExclusive(t *testing.T) {
	err := Validate(&Rule{
		ID:         "r1",
		Name:       "Test",
		Conditions: []Condition{{Field: "x", Operator: OpEq, Value: 1}},
		Expression: "ctx.x == 1",
	})
	if err == nil {
		t.Error("Expected error for a rule with both conditions and an expression, got nil")
	}
}

func TestValidate_ConditionFields(t *testing.T) {
	err := Validate(&Rule{
		ID:         "r1",
		Name:       "Test",
		Conditions: []Condition{{Field: "", Operator: OpEq, Value: 1}},
	})
	if err == nil {
		t.Error("Expected error for empty condition field, got nil")
	}

	err = Validate(&Rule{
		ID:         "r1",
		Name:       "Test",
		Conditions: []Condition{{Field: "x", Operator: "between", Value: 1}},
	})
	if err == nil {
		t.Error("Expected error for unknown operator, got nil")
	}
}

func TestValidate_ActionType(t *testing.T) {
	if err := Validate(&Rule{ID: "r1", Name: "Test", Action: Action{Type: "shout"}}); err == nil {
		t.Error("Expected error for unknown action type, got nil")
	}
	// Empty type is allowed; evaluation defaults it.
	if err := Validate(&Rule{ID: "r1", Name: "Test"}); err != nil {
		t.Errorf("Expected empty action type to validate, got: %v", err)
	}
}

func TestValidate_PriorityRange(t *testing.T) {
	if err := Validate(&Rule{ID: "r1", Name: "Test", Priority: -1}); err == nil {
		t.Error("Expected error for negative priority, got nil")
	}
	if err := Validate(&Rule{ID: "r1", Name: "Test", Priority: 1000}); err == nil {
		t.Error("Expected error for priority above 999, got nil")
	}
	if err := Validate(&Rule{ID: "r1", Name: "Test", Priority: 999}); err != nil {
		t.Errorf("Expected priority 999 to validate, got: %v", err)
	}
}
