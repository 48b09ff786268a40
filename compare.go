package liquid

import "strings"

// compareValues implements COMPARE's ordering and equality rules (§4.7).
// ok is false when the operands' types make the ordering operators
// (<,<=,>,>=) meaningless (anything but two numbers or two strings) — the
// caller (VM or constant folder) decides what to do with that: the VM
// raises in strict mode and falls back to false otherwise, while the
// optimizer's constant folder must leave the comparison as a runtime op
// rather than silently pick an answer a strict-mode render would have
// rejected.
func compareValues(op CompareOp, a, b Value) (result, ok bool) {
	a, b = a.resolved(), b.resolved()
	switch op {
	case CmpEq:
		return valuesEqual(a, b), true
	case CmpNe:
		return !valuesEqual(a, b), true
	}
	if a.IsNumber() && b.IsNumber() {
		ad, bd := a.Decimal(), b.Decimal()
		switch op {
		case CmpLt:
			return ad.LessThan(bd), true
		case CmpLe:
			return ad.LessThanOrEqual(bd), true
		case CmpGt:
			return ad.GreaterThan(bd), true
		case CmpGe:
			return ad.GreaterThanOrEqual(bd), true
		}
	}
	if a.IsString() && b.IsString() {
		switch op {
		case CmpLt:
			return a.Str() < b.Str(), true
		case CmpLe:
			return a.Str() <= b.Str(), true
		case CmpGt:
			return a.Str() > b.Str(), true
		case CmpGe:
			return a.Str() >= b.Str(), true
		}
	}
	return false, false
}

// valuesEqual implements Liquid's == rule, including the `empty` and
// `blank` sentinels' loose equality against any container/string that
// satisfies their respective predicate.
func valuesEqual(a, b Value) bool {
	a, b = a.resolved(), b.resolved()
	if a.Kind() == KindEmpty || b.Kind() == KindEmpty {
		if a.Kind() == KindEmpty && b.Kind() == KindEmpty {
			return true
		}
		if a.Kind() == KindEmpty {
			return b.IsEmpty()
		}
		return a.IsEmpty()
	}
	if a.Kind() == KindBlank || b.Kind() == KindBlank {
		if a.Kind() == KindBlank && b.Kind() == KindBlank {
			return true
		}
		if a.Kind() == KindBlank {
			return b.IsBlank()
		}
		return a.IsBlank()
	}
	if a.IsNumber() && b.IsNumber() {
		return a.Decimal().Equal(b.Decimal())
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case KindNil:
		return true
	case KindBool:
		return a.Bool() == b.Bool()
	case KindString:
		return a.Str() == b.Str()
	case KindRange:
		al, ah := a.RangeBounds()
		bl, bh := b.RangeBounds()
		return al == bl && ah == bh
	case KindArray:
		aa, bb := a.Array(), b.Array()
		if len(aa) != len(bb) {
			return false
		}
		for i := range aa {
			if !valuesEqual(aa[i], bb[i]) {
				return false
			}
		}
		return true
	case KindMap:
		am, bm := a.MapVal(), b.MapVal()
		if am.Len() != bm.Len() {
			return false
		}
		for _, k := range am.Keys() {
			av, _ := am.Get(k)
			bv, ok := bm.Get(k)
			if !ok || !valuesEqual(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}

// valueContains implements CONTAINS: substring search for strings, an
// equality-based membership test for arrays, and key membership for maps.
func valueContains(container, item Value) bool {
	container = container.resolved()
	switch container.Kind() {
	case KindString:
		return strings.Contains(container.Str(), item.ToOutputString())
	case KindArray:
		for _, v := range container.Array() {
			if valuesEqual(v, item) {
				return true
			}
		}
		return false
	case KindMap:
		_, ok := container.MapVal().Get(item.ToOutputString())
		return ok
	}
	return false
}
