package liquid

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind tags a Value's active variant.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindDecimal
	KindString
	KindArray
	KindMap
	KindRange
	KindEmpty
	KindBlank
	KindDrop
)

// Value is the tagged union every expression evaluates to and every
// Instruction operand of kind "value literal" carries: a small hand-tagged
// union rather than a reflection-backed wrapper, with an accessor-method
// shape (IsString, IsNumber, IsTrue/Len/Iterate-style helpers) kept
// familiar regardless of the underlying representation.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	d    decimal.Decimal
	s    string
	arr  []Value
	mp   *OrderedMap
	rng  [2]int64
	drop Drop
}

// OrderedMap is a string-keyed map preserving insertion order, as §3
// requires for the Map variant.
type OrderedMap struct {
	keys   []string
	values map[string]Value
}

func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: map[string]Value{}}
}

func (m *OrderedMap) Set(key string, v Value) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

func (m *OrderedMap) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *OrderedMap) Keys() []string { return m.keys }
func (m *OrderedMap) Len() int       { return len(m.keys) }

func (m *OrderedMap) SortedKeys() []string {
	ks := append([]string(nil), m.keys...)
	sort.Strings(ks)
	return ks
}

// Constructors.

func Nil() Value             { return Value{kind: KindNil} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }
func Int(i int64) Value      { return Value{kind: KindInt, i: i} }
func Float(f float64) Value  { return Value{kind: KindFloat, f: f} }
func Dec(d decimal.Decimal) Value { return Value{kind: KindDecimal, d: d} }
func Str(s string) Value     { return Value{kind: KindString, s: s} }
func Arr(vs []Value) Value   { return Value{kind: KindArray, arr: vs} }
func Map(m *OrderedMap) Value {
	if m == nil {
		m = NewOrderedMap()
	}
	return Value{kind: KindMap, mp: m}
}
func RangeVal(a, b int64) Value { return Value{kind: KindRange, rng: [2]int64{a, b}} }
func EmptySentinel() Value      { return Value{kind: KindEmpty} }
func BlankSentinel() Value      { return Value{kind: KindBlank} }
func DropVal(d Drop) Value      { return Value{kind: KindDrop, drop: d} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNil() bool    { return v.kind == KindNil }
func (v Value) IsBool() bool   { return v.kind == KindBool }
func (v Value) IsInt() bool    { return v.kind == KindInt }
func (v Value) IsFloat() bool  { return v.kind == KindFloat }
func (v Value) IsDecimal() bool { return v.kind == KindDecimal }
func (v Value) IsString() bool { return v.kind == KindString }
func (v Value) IsArray() bool  { return v.kind == KindArray }
func (v Value) IsMap() bool    { return v.kind == KindMap }
func (v Value) IsRange() bool  { return v.kind == KindRange }
func (v Value) IsDrop() bool   { return v.kind == KindDrop }
func (v Value) IsNumber() bool {
	return v.kind == KindInt || v.kind == KindFloat || v.kind == KindDecimal
}

// Bool returns the boolean payload (false if not a bool).
func (v Value) Bool() bool { return v.kind == KindBool && v.b }

// Int returns the integer payload, coercing floats/decimals/strings best
// effort (0 on failure).
func (v Value) Int() int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return int64(v.f)
	case KindDecimal:
		return v.d.IntPart()
	case KindString:
		i, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64)
		if err != nil {
			return 0
		}
		return i
	}
	return 0
}

func (v Value) Float() float64 {
	switch v.kind {
	case KindInt:
		return float64(v.i)
	case KindFloat:
		return v.f
	case KindDecimal:
		f, _ := v.d.Float64()
		return f
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// Decimal promotes any numeric Value to a decimal.Decimal, used by the
// numeric filters that must avoid double-rounding per §3.
func (v Value) Decimal() decimal.Decimal {
	switch v.kind {
	case KindDecimal:
		return v.d
	case KindInt:
		return decimal.NewFromInt(v.i)
	case KindFloat:
		return decimal.NewFromFloat(v.f)
	case KindString:
		d, err := decimal.NewFromString(strings.TrimSpace(v.s))
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	return decimal.Zero
}

func (v Value) Str() string { return v.s }

func (v Value) Array() []Value {
	if v.kind == KindArray {
		return v.arr
	}
	return nil
}

func (v Value) MapVal() *OrderedMap {
	if v.kind == KindMap {
		return v.mp
	}
	return nil
}

func (v Value) RangeBounds() (int64, int64) { return v.rng[0], v.rng[1] }

func (v Value) DropVal() Drop { return v.drop }

// Len implements the design's `size` semantics for containers and strings.
func (v Value) Len() int {
	switch v.kind {
	case KindString:
		return len([]rune(v.s))
	case KindArray:
		return len(v.arr)
	case KindMap:
		return v.mp.Len()
	case KindRange:
		lo, hi := v.rng[0], v.rng[1]
		if hi < lo {
			return 0
		}
		return int(hi-lo) + 1
	}
	return 0
}

// IsTruthy implements the design's truthiness rule: nil and false are
// falsy, everything else (including empty strings/arrays, 0, "") is
// truthy — this is Liquid's rule, distinct from many languages', and is
// why IS_TRUTHY is a dedicated opcode rather than reusing a generic
// "falsy" predicate.
func (v Value) IsTruthy() bool {
	switch v.kind {
	case KindNil:
		return false
	case KindBool:
		return v.b
	default:
		return true
	}
}

// IsEmpty implements `== empty`: true only for empty strings/arrays/maps,
// and for the Empty sentinel itself.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindEmpty:
		return true
	case KindString:
		return v.s == ""
	case KindArray:
		return len(v.arr) == 0
	case KindMap:
		return v.mp.Len() == 0
	}
	return false
}

// IsBlank implements `== blank`: nil, false, whitespace-only strings, and
// empty containers, plus the Blank sentinel itself.
func (v Value) IsBlank() bool {
	switch v.kind {
	case KindBlank:
		return true
	case KindNil:
		return true
	case KindBool:
		return !v.b
	case KindString:
		return strings.TrimSpace(v.s) == ""
	case KindArray:
		return len(v.arr) == 0
	case KindMap:
		return v.mp.Len() == 0
	}
	return false
}

// ToOutputString implements the §4.7 WRITE_VALUE conversion rule.
func (v Value) ToOutputString() string {
	switch v.kind {
	case KindNil, KindEmpty, KindBlank:
		return ""
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindDecimal:
		return v.d.String()
	case KindString:
		return v.s
	case KindArray:
		var sb strings.Builder
		for _, item := range v.arr {
			sb.WriteString(item.ToOutputString())
		}
		return sb.String()
	case KindMap:
		return fmt.Sprintf("%v", v.mp.keys)
	case KindRange:
		var sb strings.Builder
		for i := v.rng[0]; i <= v.rng[1]; i++ {
			sb.WriteString(strconv.FormatInt(i, 10))
		}
		return sb.String()
	case KindDrop:
		if v.drop != nil {
			if lv := v.drop.ToLiquid(); lv != nil {
				return lv.ToOutputString()
			}
		}
		return ""
	}
	return ""
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	return s
}

// ToIterable materializes v into a slice of Values per FOR_INIT's
// collection-materialization contract (§4.7). ok is false when v is not
// iterable at all (distinct from being iterable-but-empty).
func (v Value) ToIterable() (items []Value, ok bool) {
	switch v.kind {
	case KindNil:
		return nil, true
	case KindBool:
		if !v.b {
			return nil, true
		}
		return nil, false
	case KindString:
		if v.s == "" {
			return nil, true
		}
		return []Value{v}, true
	case KindArray:
		return v.arr, true
	case KindMap:
		out := make([]Value, 0, v.mp.Len())
		for _, k := range v.mp.keys {
			val, _ := v.mp.Get(k)
			out = append(out, Arr([]Value{Str(k), val}))
		}
		return out, true
	case KindRange:
		lo, hi := v.rng[0], v.rng[1]
		if hi < lo {
			return nil, true
		}
		out := make([]Value, 0, hi-lo+1)
		for i := lo; i <= hi; i++ {
			out = append(out, Int(i))
		}
		return out, true
	case KindDrop:
		if v.drop != nil {
			return v.drop.Iterate(), true
		}
		return nil, true
	}
	return nil, false
}

// LookupProperty implements LOOKUP_KEY / LOOKUP_CONST_KEY's dispatch-by-
// container-shape rule (§4.7). Type mismatches return Nil rather than an
// error, matching non-strict-mode semantics; callers in strict mode decide
// whether a Nil result from an ill-typed key should be promoted to an
// error (it is not, per the design: only comparison ordering and a handful
// of filter/runtime operations raise in strict mode).
func (v Value) LookupProperty(key Value) Value {
	switch v.kind {
	case KindMap:
		val, ok := v.mp.Get(key.ToOutputString())
		if !ok {
			return Nil()
		}
		return val
	case KindArray:
		if !key.IsNumber() {
			return Nil()
		}
		idx := int(key.Int())
		n := len(v.arr)
		if idx < 0 {
			idx += n
		}
		if idx < 0 || idx >= n {
			return Nil()
		}
		return v.arr[idx]
	case KindString:
		switch key.ToOutputString() {
		case "size":
			return Int(int64(v.Len()))
		case "first":
			rs := []rune(v.s)
			if len(rs) == 0 {
				return Nil()
			}
			return Str(string(rs[0]))
		case "last":
			rs := []rune(v.s)
			if len(rs) == 0 {
				return Nil()
			}
			return Str(string(rs[len(rs)-1]))
		}
		if key.IsNumber() {
			rs := []rune(v.s)
			idx := int(key.Int())
			if idx < 0 {
				idx += len(rs)
			}
			if idx < 0 || idx >= len(rs) {
				return Nil()
			}
			return Str(string(rs[idx]))
		}
		return Nil()
	case KindDrop:
		if v.drop != nil {
			return v.drop.Index(key)
		}
		return Nil()
	}
	return Nil()
}

// LookupCommand specializes access to size/first/last the way
// LOOKUP_COMMAND does, ahead of a general property lookup.
func (v Value) LookupCommand(name string) (Value, bool) {
	switch name {
	case "size":
		switch v.kind {
		case KindString, KindArray, KindMap, KindRange:
			return Int(int64(v.Len())), true
		}
		return Nil(), false
	case "first":
		if v.kind == KindArray {
			if len(v.arr) == 0 {
				return Nil(), true
			}
			return v.arr[0], true
		}
		if v.kind == KindRange {
			items, _ := v.ToIterable()
			if len(items) == 0 {
				return Nil(), true
			}
			return items[0], true
		}
	case "last":
		if v.kind == KindArray {
			if len(v.arr) == 0 {
				return Nil(), true
			}
			return v.arr[len(v.arr)-1], true
		}
		if v.kind == KindRange {
			items, _ := v.ToIterable()
			if len(items) == 0 {
				return Nil(), true
			}
			return items[len(items)-1], true
		}
	}
	return Nil(), false
}

// resolved applies the host value bridge's ToLiquidValue hook (used by
// lookups, filters, iteration and the truthiness operators so a
// Drop-valued variable behaves like whatever its ToLiquidValue view
// returns).
func (v Value) resolved() Value {
	if v.kind == KindDrop && v.drop != nil {
		if lv := v.drop.ToLiquidValue(); lv != nil {
			return *lv
		}
	}
	return v
}

func (v Value) GoString() string {
	return fmt.Sprintf("Value{%v}", v.ToOutputString())
}
