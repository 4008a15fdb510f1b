package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind discriminates the closed set of value types a context may carry.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindString
	KindBool
	KindTime
	KindList
	KindMap
)

// Value is a tagged variant over the types that appear in evaluation
// contexts. Lookups over Values return an explicit "not found" result
// instead of panicking, which is what keeps the engine's never-throws
// contract honest.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
	t    time.Time
	list []Value
	obj  map[string]Value
}

func Null() Value                  { return Value{} }
func Number(f float64) Value       { return Value{kind: KindNumber, num: f} }
func String(s string) Value        { return Value{kind: KindString, str: s} }
func Bool(b bool) Value            { return Value{kind: KindBool, b: b} }
func Time(t time.Time) Value       { return Value{kind: KindTime, t: t} }
func List(vs ...Value) Value       { return Value{kind: KindList, list: vs} }
func Map(m map[string]Value) Value { return Value{kind: KindMap, obj: m} }

// FromAny converts arbitrary decoded data (JSON, YAML, hand-built maps) into
// a Value. Unrecognized types fall back to their string form.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case bool:
		return Bool(x)
	case string:
		return String(x)
	case int:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case float32:
		return Number(float64(x))
	case float64:
		return Number(x)
	case time.Time:
		return Time(x)
	case []any:
		list := make([]Value, len(x))
		for i, item := range x {
			list[i] = FromAny(item)
		}
		return Value{kind: KindList, list: list}
	case []Value:
		return Value{kind: KindList, list: x}
	case map[string]any:
		obj := make(map[string]Value, len(x))
		for k, item := range x {
			obj[k] = FromAny(item)
		}
		return Map(obj)
	case map[string]Value:
		return Map(x)
	default:
		return String(fmt.Sprint(x))
	}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float coerces the value to a number. Times coerce to epoch milliseconds so
// date comparisons work through the numeric operators; strings parse if
// numeric. The bool result is false when no coercion exists.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	case KindTime:
		return float64(v.t.UnixMilli()), true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Text returns the normalized string form used by eq and contains. Null
// renders empty, numbers render without trailing zeros, times render as
// RFC 3339. Maps have no string form.
func (v Value) Text() string {
	switch v.kind {
	case KindNumber:
		return formatNumber(v.num)
	case KindString:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.Format(time.RFC3339)
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.Text()
		}
		return strings.Join(parts, ",")
	default:
		return ""
	}
}

// Interface converts the Value back to plain Go data, for handing contexts
// to CEL programs and JSON encoders.
func (v Value) Interface() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindBool:
		return v.b
	case KindTime:
		return v.t
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.obj))
		for k, item := range v.obj {
			out[k] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// looseEqual is string-normalized equality: times compare by instant,
// everything else by Text form. This avoids the coercion surprises of
// numeric equality across mixed types.
func looseEqual(a, b Value) bool {
	if a.kind == KindTime && b.kind == KindTime {
		return a.t.Equal(b.t)
	}
	return a.Text() == b.Text()
}

// strictEqual requires matching kinds; used by the in operator.
func strictEqual(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindNumber:
		return a.num == b.num
	case KindString:
		return a.str == b.str
	case KindBool:
		return a.b == b.b
	case KindTime:
		return a.t.Equal(b.t)
	default:
		return false
	}
}

// Context is the read-only data bag a rule set is evaluated against. Callers
// assemble it from domain records plus derived fields; the engine never
// mutates it.
type Context map[string]Value

// NewContext builds a Context from plain Go data.
func NewContext(m map[string]any) Context {
	ctx := make(Context, len(m))
	for k, v := range m {
		ctx[k] = FromAny(v)
	}
	return ctx
}

// Interface converts the context to plain Go data.
func (c Context) Interface() map[string]any {
	out := make(map[string]any, len(c))
	for k, v := range c {
		out[k] = v.Interface()
	}
	return out
}

var indexedSegment = regexp.MustCompile(`^(\w+)\[(\d+)\]$`)

// Resolve walks a dotted path into the context, e.g. "customer.creditLimit"
// or "items[0].total". A segment may carry one array-index suffix. The walk
// short-circuits to not-found as soon as any intermediate value is missing
// or null; it never panics.
func (c Context) Resolve(path string) (Value, bool) {
	if len(c) == 0 || path == "" {
		return Null(), false
	}
	cur := Map(c)
	for _, seg := range strings.Split(path, ".") {
		name := seg
		idx := -1
		if m := indexedSegment.FindStringSubmatch(seg); m != nil {
			name = m[1]
			idx, _ = strconv.Atoi(m[2])
		}
		if cur.kind != KindMap {
			return Null(), false
		}
		next, ok := cur.obj[name]
		if !ok || next.IsNull() {
			return Null(), false
		}
		if idx >= 0 {
			if next.kind != KindList || idx >= len(next.list) {
				return Null(), false
			}
			next = next.list[idx]
		}
		cur = next
	}
	if cur.IsNull() {
		return Null(), false
	}
	return cur, true
}
