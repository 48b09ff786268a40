package liquid

import "fmt"

// loopNext advances the innermost forloop/tablerow entry, binding its
// variable into the current scope. It is the shared body of FOR_NEXT and
// TABLEROW_NEXT (§4.7): both opcodes just loop back to the same top label
// while this returns true.
func (m *vm) loopNext() bool {
	e := m.sc.forloops[len(m.sc.forloops)-1]
	if e.trl != nil {
		return e.trl.Forloop.next(m.sc)
	}
	return e.fl.next(m.sc)
}

// clampSlice applies offset/limit/reversed to a materialized item list per
// §4.2's for-tag semantics: offset clamps into range, limit truncates what
// remains, reversed reverses what's left after both. The slice returned
// never aliases items' backing array when reversed, since items may be
// shared with the Value it was materialized from (an array literal's own
// backing store).
func clampSlice(items []Value, start, limit int, hasLimit, reversed bool) []Value {
	if start < 0 {
		start = 0
	}
	if start > len(items) {
		start = len(items)
	}
	rest := items[start:]
	if hasLimit && limit < len(rest) {
		if limit < 0 {
			limit = 0
		}
		rest = rest[:limit]
	}
	if !reversed {
		return rest
	}
	out := make([]Value, len(rest))
	for i, v := range rest {
		out[len(rest)-1-i] = v
	}
	return out
}

// forInit implements FOR_INIT: pops the operands FOR_INIT's builder pushed
// (iterable, then limit/offset in whichever order tagForParser recorded),
// materializes the iterable, applies offset/limit/reversed, and pushes the
// resulting Forloop.
func (m *vm) forInit(ins Instruction) error {
	args := ins.ForInit

	var limitVal, offsetVal Value
	if args.HasLimit && args.HasOffset && !args.OffsetContinue {
		if args.OffsetBeforeLimit {
			limitVal = m.pop()
			offsetVal = m.pop()
		} else {
			offsetVal = m.pop()
			limitVal = m.pop()
		}
	} else if args.HasLimit {
		limitVal = m.pop()
	} else if args.HasOffset && !args.OffsetContinue {
		offsetVal = m.pop()
	}

	iterable := m.pop()
	items, ok := iterable.resolved().ToIterable()
	if !ok {
		return newRuntimeError("for", ins.Span, m.sc.currentPartial, nil,
			"cannot iterate over %v", iterable.Kind())
	}

	start := 0
	if args.HasOffset {
		if args.OffsetContinue {
			start = m.sc.offsetRegisters[args.LoopName]
		} else {
			start = int(offsetVal.Int())
		}
	}

	limit := -1
	if args.HasLimit {
		limit = int(limitVal.Int())
	}

	sliced := clampSlice(items, start, limit, args.HasLimit, args.Reversed)
	m.sc.offsetRegisters[args.LoopName] = start + len(sliced)

	m.sc.pushForloop(args.LoopName, args.Var, sliced)
	return nil
}

// tablerowInit implements TABLEROW_INIT: pops the iterable and pushes a
// Tablerow over it. tablerow has no limit/offset/reversed clause (§4.2), so
// there is nothing to clamp.
func (m *vm) tablerowInit(ins Instruction) error {
	args := ins.TblInit
	iterable := m.pop()
	items, ok := iterable.resolved().ToIterable()
	if !ok {
		return newRuntimeError("tablerow", ins.Span, m.sc.currentPartial, nil,
			"cannot iterate over %v", iterable.Kind())
	}
	cols := args.Cols
	if cols < 1 {
		cols = 1
	}
	m.sc.pushTablerow(args.LoopName, args.Var, items, cols)
	return nil
}

// callFilter implements CALL_FILTER: pops argc argument values (pushed in
// source order by parseFilterPipeline) plus the receiver beneath them, and
// dispatches through the package-level filter registry (filters.go).
func (m *vm) callFilter(ins Instruction) error {
	args := m.popN(ins.IntOp)
	recv := m.pop()

	fn, ok := lookupFilter(ins.Str)
	if !ok {
		return newRuntimeError("filter", ins.Span, m.sc.currentPartial, nil, "unknown filter %q", ins.Str)
	}
	res, err := fn(recv.resolved(), args)
	if err != nil {
		return newFilterError(ins.Str, ins.Span, m.sc.currentPartial, err)
	}
	m.push(res)
	return nil
}

// popPartialArgs pops a partial instruction's operands in the reverse of
// the order the builder pushed them (ir.go's partialAttrs doc comment):
// keywords last-pushed-first, then for-iterable, then with-value, then a
// dynamic name.
func (m *vm) popPartialArgs(attrs *partialAttrs) (name string, withVal, forVal Value, kwVals map[string]Value) {
	var kwList []Value
	if n := len(attrs.KeywordNames); n > 0 {
		kwList = m.popN(n)
	}
	if attrs.HasFor {
		forVal = m.pop()
	}
	if attrs.HasWith && !attrs.WithAll {
		withVal = m.pop()
	}
	name = attrs.Name
	if attrs.NameDynamic {
		name = m.pop().ToOutputString()
	}
	if len(kwList) > 0 {
		kwVals = make(map[string]Value, len(kwList))
		for i, k := range attrs.KeywordNames {
			kwVals[k] = kwList[i]
		}
	}
	return
}

// loadPartial compiles and links name's source (from sc's FileSystem),
// caching the result on m for the remainder of this Run.
func (m *vm) loadPartial(name string, sp Span) (*Program, error) {
	if prog, ok := m.partials[name]; ok {
		return prog, nil
	}
	src, found := m.sc.fileSystem.Read(name)
	if !found {
		return nil, newRuntimeError("vm", sp, m.sc.currentPartial, nil, "partial %q not found", name)
	}
	prog, err := parseTemplate(name, src)
	if err != nil {
		return nil, err
	}
	optimize(prog, nil)
	allocate(prog)
	if err := link(prog); err != nil {
		return nil, err
	}
	m.partials[name] = prog
	return prog, nil
}

// runPartial executes prog (already loaded) against childSc, appending its
// output to m's own buffer. Per §9's decided break-across-partials
// question, each partial entry gets a fresh interrupt stack: a `break`
// left dangling inside the partial (no enclosing loop there) must not
// leak out and be mistaken for one belonging to a loop in the caller.
func (m *vm) runPartial(name string, prog *Program, childSc *Scope) error {
	if childSc.renderDepth >= options.maxDepth {
		return newRuntimeError("vm", Span{}, childSc.currentPartial, nil,
			"max render depth %d exceeded rendering %q", options.maxDepth, name)
	}

	savedInterrupts := childSc.interrupts
	childSc.interrupts = nil
	childSc.enterPartial(name)

	sub := &vm{prog: prog, sc: childSc, partials: m.partials, instrCount: m.instrCount}
	err := sub.run()
	m.instrCount = sub.instrCount

	childSc.leavePartial()
	childSc.interrupts = savedInterrupts

	if err != nil {
		return err
	}
	m.sc.writeOutput(&m.out, sub.out.String())
	return nil
}

// doPartial is the shared body of RENDER_PARTIAL/INCLUDE_PARTIAL/
// CONST_RENDER/CONST_INCLUDE: pop operands, load the partial program, and
// run it in an isolated scope (render) or the caller's own scope
// (include), per §6's scoping rule.
func (m *vm) doPartial(ins Instruction, isRender bool) error {
	attrs := ins.Attrs
	name, withVal, forVal, kwVals := m.popPartialArgs(attrs)

	prog, err := m.loadPartial(name, ins.Span)
	if err != nil {
		if m.sc.strict {
			return err
		}
		m.sc.writeOutput(&m.out, inlineErrorText(m, err))
		return nil
	}

	runErr := func() error {
		if isRender {
			base := Frame{}
			for k, v := range kwVals {
				base[k] = v
			}
			switch {
			case attrs.HasWith:
				base[attrs.As] = withVal.resolved()
				return m.runPartial(name, prog, m.sc.isolated(base))
			case attrs.HasFor:
				items, ok := forVal.resolved().ToIterable()
				if !ok {
					return newRuntimeError("render", ins.Span, m.sc.currentPartial, nil,
						"cannot iterate over %v", forVal.Kind())
				}
				childSc := m.sc.isolated(base)
				fl := childSc.pushForloop(attrs.As, attrs.As, items)
				for fl.next(childSc) {
					if err := m.runPartial(name, prog, childSc); err != nil {
						return err
					}
				}
				return nil
			default:
				return m.runPartial(name, prog, m.sc.isolated(base))
			}
		}

		// include shares the caller's scope directly.
		m.sc.pushScope()
		for k, v := range kwVals {
			m.sc.assignLocal(k, v)
		}
		switch {
		case attrs.HasWith:
			m.sc.assignLocal(attrs.As, withVal.resolved())
			return m.runPartial(name, prog, m.sc)
		case attrs.HasFor:
			items, ok := forVal.resolved().ToIterable()
			if !ok {
				return newRuntimeError("include", ins.Span, m.sc.currentPartial, nil,
					"cannot iterate over %v", forVal.Kind())
			}
			fl := m.sc.pushForloop(attrs.As, attrs.As, items)
			for fl.next(m.sc) {
				if err := m.runPartial(name, prog, m.sc); err != nil {
					return err
				}
			}
			m.sc.popForloop()
			return nil
		case attrs.WithAll:
			base := partialBaseName(name)
			if v := m.sc.find(base); !v.IsNil() {
				m.sc.assignLocal(base, v)
			}
			return m.runPartial(name, prog, m.sc)
		default:
			return m.runPartial(name, prog, m.sc)
		}
	}()

	if !isRender {
		m.sc.popScope()
	}
	if runErr != nil {
		if m.sc.strict {
			return runErr
		}
		m.sc.writeOutput(&m.out, inlineErrorText(m, runErr))
	}
	return nil
}

func (m *vm) renderPartial(ins Instruction, isRender bool) error { return m.doPartial(ins, isRender) }
func (m *vm) constPartial(ins Instruction, isRender bool) error  { return m.doPartial(ins, isRender) }

// inlineErrorText formats the standard non-strict-mode inline marker
// (§7): "Liquid error (<partial> line <N>): <message>". Falls back to the
// running program's own name when the error has no partial attribution
// (a top-level error, not inside any render/include).
func inlineErrorText(m *vm, err error) string {
	if e, ok := err.(*Error); ok {
		partial := e.Partial
		if partial == "" {
			partial = m.sc.currentPartial
		}
		if partial == "" {
			partial = m.prog.Name
		}
		return fmt.Sprintf("Liquid error (%s line %d): %s", partial, e.Line, e.Message())
	}
	return fmt.Sprintf("Liquid error (%s): %s", m.prog.Name, err.Error())
}
