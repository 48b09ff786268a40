package liquid

// The standard filter catalog (§2's "string/numeric/collection/date/
// coercion" filter row), one flat name-keyed registration per filter,
// grouped into sections below for readability.
//
// Every filter here that also appears in opt_fold.go's pureConstFilters
// must compute byte-for-bit the same result as evalConstFilter, since the
// optimizer's constant-folding pass and this runtime catalog are required
// to agree (§8 invariant 3).

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

func init() {
	// String filters.
	mustRegisterFilter("upcase", filterUpcase)
	mustRegisterFilter("downcase", filterDowncase)
	mustRegisterFilter("capitalize", filterCapitalize)
	mustRegisterFilter("strip", filterStrip)
	mustRegisterFilter("lstrip", filterLstrip)
	mustRegisterFilter("rstrip", filterRstrip)
	mustRegisterFilter("strip_newlines", filterStripNewlines)
	mustRegisterFilter("truncate", filterTruncate)
	mustRegisterFilter("truncatewords", filterTruncatewords)
	mustRegisterFilter("append", filterAppend)
	mustRegisterFilter("prepend", filterPrepend)
	mustRegisterFilter("remove", filterRemove)
	mustRegisterFilter("remove_first", filterRemoveFirst)
	mustRegisterFilter("replace", filterReplace)
	mustRegisterFilter("replace_first", filterReplaceFirst)
	mustRegisterFilter("split", filterSplit)
	mustRegisterFilter("slice", filterSlice)
	mustRegisterFilter("escape", filterEscape)
	mustRegisterFilter("url_encode", filterURLEncode)
	mustRegisterFilter("url_decode", filterURLDecode)

	// Numeric filters.
	mustRegisterFilter("abs", filterAbs)
	mustRegisterFilter("ceil", filterCeil)
	mustRegisterFilter("floor", filterFloor)
	mustRegisterFilter("round", filterRound)
	mustRegisterFilter("plus", filterPlus)
	mustRegisterFilter("minus", filterMinus)
	mustRegisterFilter("times", filterTimes)
	mustRegisterFilter("divided_by", filterDividedBy)
	mustRegisterFilter("modulo", filterModulo)

	// Collection filters.
	mustRegisterFilter("size", filterSize)
	mustRegisterFilter("first", filterFirst)
	mustRegisterFilter("last", filterLast)
	mustRegisterFilter("join", filterJoin)
	mustRegisterFilter("map", filterMap)
	mustRegisterFilter("where", filterWhere)
	mustRegisterFilter("sort", filterSort)
	mustRegisterFilter("sort_natural", filterSortNatural)
	mustRegisterFilter("uniq", filterUniq)
	mustRegisterFilter("compact", filterCompact)
	mustRegisterFilter("concat", filterConcat)
	mustRegisterFilter("reverse", filterReverse)

	// Date / coercion.
	mustRegisterFilter("date", filterDate)
	mustRegisterFilter("default", filterDefault)
	mustRegisterFilter("json", filterJSON)
}

func filterUpcase(recv Value, args []Value) (Value, error) {
	if err := requireArgc("upcase", args, 0); err != nil {
		return Nil(), err
	}
	return Str(strings.ToUpper(recv.Str())), nil
}

func filterDowncase(recv Value, args []Value) (Value, error) {
	if err := requireArgc("downcase", args, 0); err != nil {
		return Nil(), err
	}
	return Str(strings.ToLower(recv.Str())), nil
}

func filterCapitalize(recv Value, args []Value) (Value, error) {
	if err := requireArgc("capitalize", args, 0); err != nil {
		return Nil(), err
	}
	s := recv.Str()
	if s == "" {
		return Str(s), nil
	}
	return Str(strings.ToUpper(s[:1]) + s[1:]), nil
}

func filterStrip(recv Value, args []Value) (Value, error) {
	if err := requireArgc("strip", args, 0); err != nil {
		return Nil(), err
	}
	return Str(strings.TrimSpace(recv.Str())), nil
}

func filterLstrip(recv Value, args []Value) (Value, error) {
	if err := requireArgc("lstrip", args, 0); err != nil {
		return Nil(), err
	}
	return Str(strings.TrimLeft(recv.Str(), " \t\r\n")), nil
}

func filterRstrip(recv Value, args []Value) (Value, error) {
	if err := requireArgc("rstrip", args, 0); err != nil {
		return Nil(), err
	}
	return Str(strings.TrimRight(recv.Str(), " \t\r\n")), nil
}

func filterStripNewlines(recv Value, args []Value) (Value, error) {
	if err := requireArgc("strip_newlines", args, 0); err != nil {
		return Nil(), err
	}
	s := strings.ReplaceAll(recv.Str(), "\r\n", "")
	s = strings.ReplaceAll(s, "\n", "")
	return Str(s), nil
}

func filterTruncate(recv Value, args []Value) (Value, error) {
	if err := requireArgcRange("truncate", args, 1, 2); err != nil {
		return Nil(), err
	}
	n := int(args[0].Int())
	suffix := "..."
	if len(args) == 2 {
		suffix = args[1].ToOutputString()
	}
	rs := []rune(recv.Str())
	if n < 0 {
		n = 0
	}
	if len(rs) <= n {
		return Str(string(rs)), nil
	}
	cut := n - len([]rune(suffix))
	if cut < 0 {
		cut = 0
	}
	return Str(string(rs[:cut]) + suffix), nil
}

func filterTruncatewords(recv Value, args []Value) (Value, error) {
	if err := requireArgcRange("truncatewords", args, 1, 2); err != nil {
		return Nil(), err
	}
	n := int(args[0].Int())
	suffix := "..."
	if len(args) == 2 {
		suffix = args[1].ToOutputString()
	}
	words := strings.Fields(recv.Str())
	if n < 0 {
		n = 0
	}
	if len(words) <= n {
		return Str(strings.Join(words, " ")), nil
	}
	return Str(strings.Join(words[:n], " ") + suffix), nil
}

func filterAppend(recv Value, args []Value) (Value, error) {
	if err := requireArgc("append", args, 1); err != nil {
		return Nil(), err
	}
	return Str(recv.ToOutputString() + args[0].ToOutputString()), nil
}

func filterPrepend(recv Value, args []Value) (Value, error) {
	if err := requireArgc("prepend", args, 1); err != nil {
		return Nil(), err
	}
	return Str(args[0].ToOutputString() + recv.ToOutputString()), nil
}

func filterRemove(recv Value, args []Value) (Value, error) {
	if err := requireArgc("remove", args, 1); err != nil {
		return Nil(), err
	}
	return Str(strings.ReplaceAll(recv.Str(), args[0].ToOutputString(), "")), nil
}

func filterRemoveFirst(recv Value, args []Value) (Value, error) {
	if err := requireArgc("remove_first", args, 1); err != nil {
		return Nil(), err
	}
	return Str(strings.Replace(recv.Str(), args[0].ToOutputString(), "", 1)), nil
}

func filterReplace(recv Value, args []Value) (Value, error) {
	if err := requireArgc("replace", args, 2); err != nil {
		return Nil(), err
	}
	return Str(strings.ReplaceAll(recv.Str(), args[0].ToOutputString(), args[1].ToOutputString())), nil
}

func filterReplaceFirst(recv Value, args []Value) (Value, error) {
	if err := requireArgc("replace_first", args, 2); err != nil {
		return Nil(), err
	}
	return Str(strings.Replace(recv.Str(), args[0].ToOutputString(), args[1].ToOutputString(), 1)), nil
}

func filterSplit(recv Value, args []Value) (Value, error) {
	if err := requireArgc("split", args, 1); err != nil {
		return Nil(), err
	}
	sep := args[0].ToOutputString()
	var parts []string
	if sep == "" {
		parts = strings.Split(recv.Str(), "")
	} else {
		parts = strings.Split(recv.Str(), sep)
	}
	out := make([]Value, len(parts))
	for i, p := range parts {
		out[i] = Str(p)
	}
	return Arr(out), nil
}

func filterSlice(recv Value, args []Value) (Value, error) {
	if err := requireArgcRange("slice", args, 1, 2); err != nil {
		return Nil(), err
	}
	start := int(args[0].Int())
	length := 1
	if len(args) == 2 {
		length = int(args[1].Int())
	}
	if recv.IsArray() {
		items := recv.Array()
		lo, hi := sliceBounds(len(items), start, length)
		return Arr(items[lo:hi]), nil
	}
	rs := []rune(recv.Str())
	lo, hi := sliceBounds(len(rs), start, length)
	return Str(string(rs[lo:hi])), nil
}

func sliceBounds(n, start, length int) (int, int) {
	if start < 0 {
		start += n
	}
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	if length < 0 {
		length = 0
	}
	end := start + length
	if end > n {
		end = n
	}
	return start, end
}

func filterEscape(recv Value, args []Value) (Value, error) {
	if err := requireArgc("escape", args, 0); err != nil {
		return Nil(), err
	}
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&#39;")
	return Str(r.Replace(recv.Str())), nil
}

func filterURLEncode(recv Value, args []Value) (Value, error) {
	if err := requireArgc("url_encode", args, 0); err != nil {
		return Nil(), err
	}
	return Str(url.QueryEscape(recv.Str())), nil
}

func filterURLDecode(recv Value, args []Value) (Value, error) {
	if err := requireArgc("url_decode", args, 0); err != nil {
		return Nil(), err
	}
	s, err := url.QueryUnescape(recv.Str())
	if err != nil {
		return Nil(), err
	}
	return Str(s), nil
}

func filterAbs(recv Value, args []Value) (Value, error) {
	if err := requireArgc("abs", args, 0); err != nil {
		return Nil(), err
	}
	return decimalResult(recv, recv.Decimal().Abs()), nil
}

func filterCeil(recv Value, args []Value) (Value, error) {
	if err := requireArgc("ceil", args, 0); err != nil {
		return Nil(), err
	}
	return Int(recv.Decimal().Ceil().IntPart()), nil
}

func filterFloor(recv Value, args []Value) (Value, error) {
	if err := requireArgc("floor", args, 0); err != nil {
		return Nil(), err
	}
	return Int(recv.Decimal().Floor().IntPart()), nil
}

func filterRound(recv Value, args []Value) (Value, error) {
	if err := requireArgcRange("round", args, 0, 1); err != nil {
		return Nil(), err
	}
	if len(args) == 0 {
		return Int(recv.Decimal().Round(0).IntPart()), nil
	}
	places := int32(args[0].Int())
	return decimalResult(Float(0), recv.Decimal().Round(places)), nil
}

func filterPlus(recv Value, args []Value) (Value, error) {
	if err := requireArgc("plus", args, 1); err != nil {
		return Nil(), err
	}
	return decimalResult(recv, recv.Decimal().Add(args[0].Decimal())), nil
}

func filterMinus(recv Value, args []Value) (Value, error) {
	if err := requireArgc("minus", args, 1); err != nil {
		return Nil(), err
	}
	return decimalResult(recv, recv.Decimal().Sub(args[0].Decimal())), nil
}

func filterTimes(recv Value, args []Value) (Value, error) {
	if err := requireArgc("times", args, 1); err != nil {
		return Nil(), err
	}
	return decimalResult(recv, recv.Decimal().Mul(args[0].Decimal())), nil
}

func filterDividedBy(recv Value, args []Value) (Value, error) {
	if err := requireArgc("divided_by", args, 1); err != nil {
		return Nil(), err
	}
	if args[0].Decimal().IsZero() {
		return Nil(), fmt.Errorf("divided_by: division by zero")
	}
	if recv.Kind() == KindInt && args[0].Kind() == KindInt {
		return Int(recv.Int() / args[0].Int()), nil
	}
	f, _ := recv.Decimal().Div(args[0].Decimal()).Float64()
	return Float(f), nil
}

func filterModulo(recv Value, args []Value) (Value, error) {
	if err := requireArgc("modulo", args, 1); err != nil {
		return Nil(), err
	}
	if args[0].Decimal().IsZero() {
		return Nil(), fmt.Errorf("modulo: division by zero")
	}
	if recv.Kind() == KindInt && args[0].Kind() == KindInt {
		b := args[0].Int()
		return Int(((recv.Int() % b) + b) % b), nil
	}
	d := recv.Decimal().Mod(args[0].Decimal())
	return decimalResult(recv, d), nil
}

func filterSize(recv Value, args []Value) (Value, error) {
	if err := requireArgc("size", args, 0); err != nil {
		return Nil(), err
	}
	return Int(int64(recv.Len())), nil
}

func filterFirst(recv Value, args []Value) (Value, error) {
	if err := requireArgc("first", args, 0); err != nil {
		return Nil(), err
	}
	items, ok := recv.ToIterable()
	if !ok || len(items) == 0 {
		return Nil(), nil
	}
	return items[0], nil
}

func filterLast(recv Value, args []Value) (Value, error) {
	if err := requireArgc("last", args, 0); err != nil {
		return Nil(), err
	}
	items, ok := recv.ToIterable()
	if !ok || len(items) == 0 {
		return Nil(), nil
	}
	return items[len(items)-1], nil
}

func filterJoin(recv Value, args []Value) (Value, error) {
	if err := requireArgcRange("join", args, 0, 1); err != nil {
		return Nil(), err
	}
	sep := " "
	if len(args) == 1 {
		sep = args[0].ToOutputString()
	}
	items := recv.Array()
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.resolved().ToOutputString()
	}
	return Str(strings.Join(parts, sep)), nil
}

func filterMap(recv Value, args []Value) (Value, error) {
	if err := requireArgc("map", args, 1); err != nil {
		return Nil(), err
	}
	key := Str(args[0].ToOutputString())
	items := recv.Array()
	out := make([]Value, len(items))
	for i, it := range items {
		out[i] = it.resolved().LookupProperty(key)
	}
	return Arr(out), nil
}

func filterWhere(recv Value, args []Value) (Value, error) {
	if err := requireArgcRange("where", args, 1, 2); err != nil {
		return Nil(), err
	}
	key := Str(args[0].ToOutputString())
	items := recv.Array()
	var out []Value
	for _, it := range items {
		v := it.resolved().LookupProperty(key)
		if len(args) == 2 {
			if valuesEqual(v.resolved(), args[1]) {
				out = append(out, it)
			}
			continue
		}
		if v.resolved().IsTruthy() {
			out = append(out, it)
		}
	}
	return Arr(out), nil
}

func filterSort(recv Value, args []Value) (Value, error) {
	if err := requireArgcRange("sort", args, 0, 1); err != nil {
		return Nil(), err
	}
	items := append([]Value(nil), recv.Array()...)
	var key Value
	hasKey := len(args) == 1
	if hasKey {
		key = Str(args[0].ToOutputString())
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].resolved(), items[j].resolved()
		if hasKey {
			a, b = a.LookupProperty(key).resolved(), b.LookupProperty(key).resolved()
		}
		less, ok := compareValues(CmpLt, a, b)
		return ok && less
	})
	return Arr(items), nil
}

func filterSortNatural(recv Value, args []Value) (Value, error) {
	if err := requireArgcRange("sort_natural", args, 0, 1); err != nil {
		return Nil(), err
	}
	items := append([]Value(nil), recv.Array()...)
	var key Value
	hasKey := len(args) == 1
	if hasKey {
		key = Str(args[0].ToOutputString())
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].resolved(), items[j].resolved()
		if hasKey {
			a, b = a.LookupProperty(key).resolved(), b.LookupProperty(key).resolved()
		}
		return strings.ToLower(a.ToOutputString()) < strings.ToLower(b.ToOutputString())
	})
	return Arr(items), nil
}

func filterUniq(recv Value, args []Value) (Value, error) {
	if err := requireArgc("uniq", args, 0); err != nil {
		return Nil(), err
	}
	seen := map[string]bool{}
	var out []Value
	for _, it := range recv.Array() {
		k := it.resolved().ToOutputString()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, it)
	}
	return Arr(out), nil
}

func filterCompact(recv Value, args []Value) (Value, error) {
	if err := requireArgc("compact", args, 0); err != nil {
		return Nil(), err
	}
	var out []Value
	for _, it := range recv.Array() {
		if it.resolved().IsNil() {
			continue
		}
		out = append(out, it)
	}
	return Arr(out), nil
}

func filterConcat(recv Value, args []Value) (Value, error) {
	if err := requireArgc("concat", args, 1); err != nil {
		return Nil(), err
	}
	out := append([]Value(nil), recv.Array()...)
	out = append(out, args[0].Array()...)
	return Arr(out), nil
}

func filterReverse(recv Value, args []Value) (Value, error) {
	if err := requireArgc("reverse", args, 0); err != nil {
		return Nil(), err
	}
	items := recv.Array()
	out := make([]Value, len(items))
	for i, v := range items {
		out[len(items)-1-i] = v
	}
	return Arr(out), nil
}

// dateLayoutTable translates the handful of strftime directives the
// design's "date formatting" filter category needs into Go's reference
// time layout; filterDate replaces each directive throughout the format
// string, one entry at a time in table order.
var dateLayoutTable = []struct{ directive, layout string }{
	{"%Y", "2006"}, {"%y", "06"},
	{"%m", "01"}, {"%d", "02"}, {"%e", "_2"},
	{"%H", "15"}, {"%M", "04"}, {"%S", "05"},
	{"%B", "January"}, {"%b", "Jan"},
	{"%A", "Monday"}, {"%a", "Mon"},
	{"%p", "PM"}, {"%Z", "MST"},
	{"%%", "%"},
}

func filterDate(recv Value, args []Value) (Value, error) {
	if err := requireArgc("date", args, 1); err != nil {
		return Nil(), err
	}
	t, err := parseDateValue(recv)
	if err != nil {
		return Nil(), err
	}
	format := args[0].ToOutputString()
	for _, repl := range dateLayoutTable {
		format = strings.ReplaceAll(format, repl.directive, repl.layout)
	}
	return Str(t.Format(format)), nil
}

var dateInputLayouts = []string{
	time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02",
}

func parseDateValue(v Value) (time.Time, error) {
	switch {
	case v.IsString():
		s := strings.TrimSpace(v.Str())
		if s == "now" || s == "today" {
			return time.Now(), nil
		}
		for _, layout := range dateInputLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("date: cannot parse %q", s)
	case v.IsNumber():
		return time.Unix(v.Int(), 0), nil
	}
	return time.Time{}, fmt.Errorf("date: cannot format %v", v.Kind())
}

func filterDefault(recv Value, args []Value) (Value, error) {
	if err := requireArgc("default", args, 1); err != nil {
		return Nil(), err
	}
	r := recv.resolved()
	if r.IsTruthy() && !r.IsEmpty() && !r.IsBlank() {
		return recv, nil
	}
	return args[0], nil
}

func filterJSON(recv Value, args []Value) (Value, error) {
	if err := requireArgc("json", args, 0); err != nil {
		return Nil(), err
	}
	b, err := json.Marshal(toJSONInterface(recv.resolved()))
	if err != nil {
		return Nil(), err
	}
	return Str(string(b)), nil
}

func toJSONInterface(v Value) interface{} {
	switch v.Kind() {
	case KindNil, KindEmpty, KindBlank:
		return nil
	case KindBool:
		return v.Bool()
	case KindInt:
		return v.Int()
	case KindFloat:
		return v.Float()
	case KindDecimal:
		f, _ := v.Decimal().Float64()
		return f
	case KindString:
		return v.Str()
	case KindArray:
		out := make([]interface{}, len(v.Array()))
		for i, it := range v.Array() {
			out[i] = toJSONInterface(it.resolved())
		}
		return out
	case KindMap:
		m := v.MapVal()
		out := make(map[string]interface{}, m.Len())
		for _, k := range m.Keys() {
			val, _ := m.Get(k)
			out[k] = toJSONInterface(val.resolved())
		}
		return out
	case KindRange:
		items, _ := v.ToIterable()
		out := make([]interface{}, len(items))
		for i, it := range items {
			out[i] = toJSONInterface(it)
		}
		return out
	}
	return v.ToOutputString()
}
