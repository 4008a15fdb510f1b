package rules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/amathziah/bizmitra/internal/logger"
)

// Engine evaluates the rule table against caller-supplied contexts and
// returns prioritized suggestions.
//
// The engine is fail-open by design: a malformed rule, a missing field, an
// unparseable comparison or a bad placeholder all degrade to "that rule does
// not fire" rather than surfacing an error. Suggestions are advisory; a
// wrong or missing suggestion is acceptable, aborting the caller is not.
//
// Thread-safe for concurrent evaluation and rule mutation (RWMutex over the
// compiled-program table, snapshot reads through the cache).
type Engine struct {
	env      *cel.Env
	store    RuleStore
	cache    RulesCache
	programs map[string]cel.Program // ruleID -> compiled CEL program
	now      func() time.Time
	mu       sync.RWMutex
}

// NewEngine creates an engine over the given store. Expression rules are
// compiled up front; declarative condition rules need no compilation.
func NewEngine(store RuleStore) (*Engine, error) {
	// Expression rules see the whole context as a single dynamic variable.
	env, err := cel.NewEnv(cel.Variable("ctx", cel.DynType))
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	en := &Engine{
		env:      env,
		store:    store,
		cache:    NewRulesCache(DefaultCacheConfig()),
		programs: make(map[string]cel.Program),
		now:      time.Now,
	}

	if err := en.Reload(); err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	return en, nil
}

// SetClock overrides the evaluation clock. Conditions using the "today"
// token resolve against it. Intended for tests.
func (en *Engine) SetClock(now func() time.Time) {
	en.mu.Lock()
	en.now = now
	en.mu.Unlock()
}

// Reload re-reads the enabled rule set from the store, recompiles expression
// rules and repopulates the cache. A rule whose expression fails to compile
// is skipped, consistent with per-rule failure isolation at evaluation time.
func (en *Engine) Reload() error {
	ruleSet, err := en.store.ListEnabled()
	if err != nil {
		return err
	}

	for _, r := range ruleSet {
		if r.Expression == "" {
			continue
		}
		if err := en.compile(r.ID, r.Expression); err != nil {
			logger.Warn("skipping rule with invalid expression", "rule", r.ID, "error", err)
		}
	}

	en.cache.Set(ruleSet)
	return nil
}

// compile compiles a CEL expression and caches the program under the rule ID.
func (en *Engine) compile(ruleID, expression string) error {
	ast, issues := en.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("compile error: %w", issues.Err())
	}

	// Cost limit guards against runaway expressions from external rule files.
	prog, err := en.env.Program(ast, cel.CostLimit(1000000))
	if err != nil {
		return fmt.Errorf("program creation error: %w", err)
	}

	en.mu.Lock()
	en.programs[ruleID] = prog
	en.mu.Unlock()

	return nil
}

// Evaluate runs every enabled rule against the context and returns the
// suggestions of the rules that fired, ascending by priority. Ties keep the
// rule table's insertion order. The context is never mutated.
func (en *Engine) Evaluate(ctx Context) []Suggestion {
	ruleSet := en.cache.Get()
	if ruleSet == nil {
		var err error
		ruleSet, err = en.store.ListEnabled()
		if err != nil {
			logger.Error("failed to list enabled rules", "error", err)
			return nil
		}
		en.cache.Set(ruleSet)
	}

	en.mu.RLock()
	now := en.now()
	en.mu.RUnlock()

	suggestions := make([]Suggestion, 0, len(ruleSet))
	for _, r := range ruleSet {
		if !r.Enabled {
			continue
		}
		if !en.ruleMatches(r, ctx, now) {
			continue
		}

		actionType := r.Action.Type
		if actionType == "" {
			actionType = ActionSuggest
		}

		suggestions = append(suggestions, Suggestion{
			ID:       r.ID,
			Type:     actionType,
			Message:  Interpolate(r.Action.Message, ctx),
			Data:     r.Action.Data,
			Priority: r.effectivePriority(),
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Priority < suggestions[j].Priority
	})

	return suggestions
}

// ruleMatches evaluates a single rule in isolation. A panic inside one
// rule's evaluation must not abort the remaining rules, so it is recovered
// here and treated as "did not match".
func (en *Engine) ruleMatches(r *Rule, ctx Context, now time.Time) (matched bool) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Debug("rule evaluation panicked, skipping", "rule", r.ID, "panic", rec)
			matched = false
		}
	}()

	if r.Expression != "" {
		return en.evalExpression(r.ID, ctx)
	}

	// Empty condition list is vacuously true.
	for _, cond := range r.Conditions {
		if !evalCondition(cond, ctx, now) {
			return false
		}
	}
	return true
}

func (en *Engine) evalExpression(ruleID string, ctx Context) bool {
	en.mu.RLock()
	prog, ok := en.programs[ruleID]
	en.mu.RUnlock()

	if !ok {
		return false
	}

	out, _, err := prog.Eval(map[string]any{"ctx": ctx.Interface()})
	if err != nil {
		logger.Debug("expression evaluation failed", "rule", ruleID, "error", err)
		return false
	}

	b, ok := out.Value().(bool)
	return ok && b
}

// evalCondition applies one predicate. Every failure mode (missing field,
// bad operator, type mismatch) resolves to false, never to an error.
func evalCondition(cond Condition, ctx Context, now time.Time) bool {
	left, leftOK := ctx.Resolve(cond.Field)
	right := resolveConditionValue(cond.Value, ctx, now)

	switch cond.Operator {
	case OpEq:
		// Two unresolved sides must not compare equal through their empty
		// text forms.
		if !leftOK || right.IsNull() {
			return false
		}
		return looseEqual(left, right)
	case OpGt:
		return compareNumeric(left, right, func(a, b float64) bool { return a > b })
	case OpLt:
		return compareNumeric(left, right, func(a, b float64) bool { return a < b })
	case OpGte:
		return compareNumeric(left, right, func(a, b float64) bool { return a >= b })
	case OpLte:
		return compareNumeric(left, right, func(a, b float64) bool { return a <= b })
	case OpContains:
		return strings.Contains(left.Text(), right.Text())
	case OpIn:
		if right.Kind() != KindList {
			return false
		}
		for _, member := range right.list {
			if strictEqual(left, member) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func compareNumeric(a, b Value, cmp func(x, y float64) bool) bool {
	na, ok := a.Float()
	if !ok {
		return false
	}
	nb, ok := b.Float()
	if !ok {
		return false
	}
	return cmp(na, nb)
}

// resolveConditionValue resolves a condition's right-hand side: the "today"
// token becomes the evaluation instant, "$path" cross-references resolve
// against the context, numeric strings coerce to numbers, everything else
// passes through unchanged.
func resolveConditionValue(v any, ctx Context, now time.Time) Value {
	s, isString := v.(string)
	if !isString {
		return FromAny(v)
	}

	if s == "today" {
		return Time(now)
	}
	if strings.HasPrefix(s, "$") {
		val, _ := ctx.Resolve(strings.TrimPrefix(s, "$"))
		return val
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Number(f)
	}
	return String(s)
}

// AddRule validates, compiles and stores a new rule, then invalidates the
// evaluation snapshot.
func (en *Engine) AddRule(r *Rule) error {
	if err := Validate(r); err != nil {
		return fmt.Errorf("rule validation failed: %w", err)
	}

	if _, err := en.store.Get(r.ID); err == nil {
		return fmt.Errorf("rule with ID %s already exists", r.ID)
	}

	if r.Expression != "" {
		if err := en.compile(r.ID, r.Expression); err != nil {
			return fmt.Errorf("rule validation failed: %w", err)
		}
	}

	if err := en.store.Add(r); err != nil {
		// Keep the program table consistent with the store.
		en.mu.Lock()
		delete(en.programs, r.ID)
		en.mu.Unlock()
		return err
	}

	en.cache.Invalidate()
	return nil
}

// UpdateRule validates and recompiles a rule, then updates the store.
func (en *Engine) UpdateRule(r *Rule) error {
	if err := Validate(r); err != nil {
		return fmt.Errorf("rule validation failed: %w", err)
	}

	if r.Expression != "" {
		if err := en.compile(r.ID, r.Expression); err != nil {
			return fmt.Errorf("rule validation failed: %w", err)
		}
	}

	if err := en.store.Update(r); err != nil {
		return err
	}

	en.cache.Invalidate()
	return nil
}

// DeleteRule removes a rule from the store and the compiled-program table.
func (en *Engine) DeleteRule(ruleID string) error {
	if err := en.store.Delete(ruleID); err != nil {
		return err
	}

	en.mu.Lock()
	delete(en.programs, ruleID)
	en.mu.Unlock()

	en.cache.Invalidate()
	return nil
}
