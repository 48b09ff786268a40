package liquid

// Forloop is the per-iteration metadata exposed to templates as `forloop`
// (and, inside a nested loop, as `forloop.parentloop`). parent is a
// read-only back reference modeled as an index into the owning Scope's
// forloop stack rather than an owning pointer, per the design's note that
// ForloopDescriptor.parent_ref must never be a cycle of owning pointers.
type Forloop struct {
	Name    string
	Length  int
	Index0  int
	hasPrnt bool
	parent  int // index into Scope.forloops, valid iff hasPrnt

	// items/cursor/varName back FOR_NEXT's iteration; they are VM-internal
	// bookkeeping, not template-visible (Attribute never reads them).
	items   []Value
	cursor  int
	varName string
}

// next advances the iterator, binding the next item into sc's innermost
// frame under varName. ok is false once the materialized item list is
// exhausted.
func (f *Forloop) next(sc *Scope) (ok bool) {
	if f.cursor >= len(f.items) {
		return false
	}
	sc.assignLocal(f.varName, f.items[f.cursor])
	f.Index0 = f.cursor
	f.cursor++
	return true
}

func (f *Forloop) Index() int      { return f.Index0 + 1 }
func (f *Forloop) RIndex() int     { return f.Length - f.Index0 }
func (f *Forloop) RIndex0() int    { return f.Length - f.Index0 - 1 }
func (f *Forloop) First() bool     { return f.Index0 == 0 }
func (f *Forloop) Last() bool      { return f.Index0 == f.Length-1 }

// Attribute resolves the dotted-path attributes the design exposes on
// `forloop`: index, index0, rindex, rindex0, first, last, length,
// parentloop.
func (f *Forloop) Attribute(name string, sc *Scope) Value {
	switch name {
	case "index":
		return Int(int64(f.Index()))
	case "index0":
		return Int(int64(f.Index0))
	case "rindex":
		return Int(int64(f.RIndex()))
	case "rindex0":
		return Int(int64(f.RIndex0()))
	case "first":
		return Bool(f.First())
	case "last":
		return Bool(f.Last())
	case "length":
		return Int(int64(f.Length))
	case "parentloop":
		if !f.hasPrnt {
			return Nil()
		}
		return sc.forloopValue(f.parent)
	case "col", "col0", "col_first", "col_last":
		return Nil() // tablerow-only attributes, not exposed on a plain forloop
	}
	return Nil()
}

// Tablerow extends Forloop with the `cols` dimension a tablerow body reads
// through `forloop`.
type Tablerow struct {
	Forloop
	Cols int
}

func (t *Tablerow) Col() int      { return t.Index0%t.Cols + 1 }
func (t *Tablerow) Col0() int     { return t.Index0 % t.Cols }
func (t *Tablerow) ColFirst() bool { return t.Col0() == 0 }
func (t *Tablerow) ColLast() bool  { return t.Col() == t.Cols || t.Last() }

func (t *Tablerow) Attribute(name string, sc *Scope) Value {
	switch name {
	case "col":
		return Int(int64(t.Col()))
	case "col0":
		return Int(int64(t.Col0()))
	case "col_first":
		return Bool(t.ColFirst())
	case "col_last":
		return Bool(t.ColLast())
	}
	return t.Forloop.Attribute(name, sc)
}
