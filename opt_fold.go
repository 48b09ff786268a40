package liquid

import (
	"strings"

	"github.com/shopspring/decimal"
)

// passFoldConstantOps implements §4.5 pass 2: CONST_* feeding IS_TRUTHY,
// BOOL_NOT, COMPARE, CASE_COMPARE or CONTAINS collapses to a single
// CONST_TRUE/CONST_FALSE. Ordering comparisons whose operand types make
// the result type-dependent (compareValues's ok=false) are left alone, so
// a strict-mode render still raises the same runtime error it would have
// before folding.
func passFoldConstantOps(prog *Program) bool {
	changed := false
	out := make([]Instruction, 0, len(prog.Code))
	for _, ins := range prog.Code {
		switch ins.Op {
		case OpIsTruthy, OpBoolNot:
			if n := len(out); n > 0 {
				if v, ok := constInstrValue(out[n-1]); ok {
					res := v.IsTruthy()
					if ins.Op == OpBoolNot {
						res = !res
					}
					out[n-1] = constInstr(Bool(res), ins.Span)
					changed = true
					continue
				}
			}

		case OpCompare:
			if n := len(out); n >= 2 {
				if av, aok := constInstrValue(out[n-2]); aok {
					if bv, bok := constInstrValue(out[n-1]); bok {
						if res, ok := compareValues(ins.CompareO, av, bv); ok {
							out = append(out[:n-2], constInstr(Bool(res), ins.Span))
							changed = true
							continue
						}
					}
				}
			}

		case OpCaseCompare:
			if n := len(out); n >= 2 {
				if av, aok := constInstrValue(out[n-2]); aok {
					if bv, bok := constInstrValue(out[n-1]); bok {
						out = append(out[:n-2], constInstr(Bool(valuesEqual(av, bv)), ins.Span))
						changed = true
						continue
					}
				}
			}

		case OpContains:
			if n := len(out); n >= 2 {
				if av, aok := constInstrValue(out[n-2]); aok {
					if bv, bok := constInstrValue(out[n-1]); bok {
						out = append(out[:n-2], constInstr(Bool(valueContains(av, bv)), ins.Span))
						changed = true
						continue
					}
				}
			}
		}
		out = append(out, ins)
	}
	prog.Code = out
	return changed
}

// pureConstFilters whitelists the filters pass 3 may fold: only filters
// with no side effects and no dependency on render-time state (unlike
// e.g. `date` with "now", or `money`, which depend on the embedder's
// clock/locale).
var pureConstFilters = map[string]bool{
	"upcase": true, "downcase": true, "capitalize": true,
	"strip": true, "lstrip": true, "rstrip": true, "strip_newlines": true,
	"size": true, "abs": true, "ceil": true, "floor": true, "round": true,
	"plus": true, "minus": true, "times": true, "divided_by": true, "modulo": true,
	"default": true, "slice": true, "truncate": true, "truncatewords": true,
	"json": true, "url_encode": true, "url_decode": true, "escape": true,
	"replace": true, "remove": true, "append": true, "prepend": true,
}

// passFoldConstantFilters implements §4.5 pass 3: CALL_FILTER of a
// whitelisted pure filter with a constant receiver and constant arguments
// collapses to the single constant result.
func passFoldConstantFilters(prog *Program) bool {
	changed := false
	out := make([]Instruction, 0, len(prog.Code))
	for _, ins := range prog.Code {
		if ins.Op == OpCallFilter && pureConstFilters[ins.Str] {
			argc := ins.IntOp
			n := len(out)
			if n >= argc+1 {
				allConst := true
				vals := make([]Value, argc+1)
				for i := 0; i <= argc; i++ {
					v, ok := constInstrValue(out[n-argc-1+i])
					if !ok {
						allConst = false
						break
					}
					vals[i] = v
				}
				if allConst {
					if res, ok := evalConstFilter(ins.Str, vals[0], vals[1:]); ok {
						out = append(out[:n-argc-1], constInstr(res, ins.Span))
						changed = true
						continue
					}
				}
			}
		}
		out = append(out, ins)
	}
	prog.Code = out
	return changed
}

// evalConstFilter evaluates a handful of pureConstFilters entries
// directly against constant Values; any filter this can't compute
// falls through to the runtime filter registry instead (ok=false).
func evalConstFilter(name string, recv Value, args []Value) (Value, bool) {
	switch name {
	case "upcase":
		return Str(strings.ToUpper(recv.Str())), recv.IsString()
	case "downcase":
		return Str(strings.ToLower(recv.Str())), recv.IsString()
	case "capitalize":
		if !recv.IsString() || recv.Str() == "" {
			return Value{}, false
		}
		s := recv.Str()
		return Str(strings.ToUpper(s[:1]) + s[1:]), true
	case "strip":
		return Str(strings.TrimSpace(recv.Str())), recv.IsString()
	case "lstrip":
		return Str(strings.TrimLeft(recv.Str(), " \t\r\n")), recv.IsString()
	case "rstrip":
		return Str(strings.TrimRight(recv.Str(), " \t\r\n")), recv.IsString()
	case "size":
		return Int(int64(recv.Len())), true
	case "abs":
		if !recv.IsNumber() {
			return Value{}, false
		}
		d := recv.Decimal().Abs()
		return decimalResult(recv, d), true
	case "plus":
		if len(args) != 1 || !recv.IsNumber() || !args[0].IsNumber() {
			return Value{}, false
		}
		return decimalResult(recv, recv.Decimal().Add(args[0].Decimal())), true
	case "minus":
		if len(args) != 1 || !recv.IsNumber() || !args[0].IsNumber() {
			return Value{}, false
		}
		return decimalResult(recv, recv.Decimal().Sub(args[0].Decimal())), true
	case "times":
		if len(args) != 1 || !recv.IsNumber() || !args[0].IsNumber() {
			return Value{}, false
		}
		return decimalResult(recv, recv.Decimal().Mul(args[0].Decimal())), true
	case "append":
		if len(args) != 1 {
			return Value{}, false
		}
		return Str(recv.ToOutputString() + args[0].ToOutputString()), true
	case "prepend":
		if len(args) != 1 {
			return Value{}, false
		}
		return Str(args[0].ToOutputString() + recv.ToOutputString()), true
	case "default":
		if len(args) != 1 {
			return Value{}, false
		}
		if recv.IsTruthy() && !recv.IsEmpty() && !recv.IsBlank() {
			return recv, true
		}
		return args[0], true
	}
	return Value{}, false
}

func decimalResult(model Value, d decimal.Decimal) Value {
	if model.Kind() == KindInt && d.IsInteger() {
		return Int(d.IntPart())
	}
	if model.Kind() == KindFloat {
		f, _ := d.Float64()
		return Float(f)
	}
	return Dec(d)
}

// passFoldConstantWrites implements §4.5 pass 4: a constant immediately
// written collapses straight to the literal raw text, skipping
// ToOutputString at every render.
func passFoldConstantWrites(prog *Program) bool {
	changed := false
	out := make([]Instruction, 0, len(prog.Code))
	for _, ins := range prog.Code {
		if ins.Op == OpWriteValue {
			if n := len(out); n > 0 {
				if v, ok := constInstrValue(out[n-1]); ok {
					out[n-1] = Instruction{Op: OpWriteRaw, Str: v.ToOutputString(), Span: ins.Span}
					changed = true
					continue
				}
			}
		}
		out = append(out, ins)
	}
	prog.Code = out
	return changed
}
