package liquid

import (
	"strings"
)

// vm is the per-Run execution frame: the compiled Program, the Scope it is
// rendering against, the VM's own value stack (distinct from Scope's
// frames, which hold named bindings rather than intermediate results), the
// output buffer, and the instruction counter the complexity budget (§5)
// is checked against. Run creates one vm for the top-level template; each
// partial it renders or includes runs in a sub-vm that shares the partial
// cache and carries the instruction count forward.
type vm struct {
	prog *Program
	sc   *Scope

	stack []Value
	out   strings.Builder

	instrCount int64

	// partials caches compiled partial Programs by name for the lifetime
	// of this Run, so a render/include inside a loop body doesn't re-lex
	// and re-parse the same source on every iteration.
	partials map[string]*Program

	tempSlots []Value
}

func (m *vm) push(v Value) { m.stack = append(m.stack, v) }

func (m *vm) pop() Value {
	n := len(m.stack)
	v := m.stack[n-1]
	m.stack = m.stack[:n-1]
	return v
}

func (m *vm) popN(n int) []Value {
	vs := make([]Value, n)
	copy(vs, m.stack[len(m.stack)-n:])
	m.stack = m.stack[:len(m.stack)-n]
	return vs
}

// Run executes prog against sc per §4.7: the fetch-decode-dispatch loop
// walks the linked instruction vector, maintaining a value stack alongside
// the Scope's own frame/forloop/interrupt/capture state, and returns the
// rendered output. prog must already be linked (Compile does this).
func (p *Program) Run(sc *Scope) (string, error) {
	if !p.Linked {
		return "", newRuntimeError("vm", Span{}, sc.currentPartial, nil, "program %q is not linked", p.Name)
	}
	m := &vm{prog: p, sc: sc, partials: map[string]*Program{}}
	if err := m.run(); err != nil {
		return m.out.String(), err
	}
	return m.out.String(), nil
}

// run drives the dispatch loop for m.prog starting at instruction 0. The
// same loop body is reentered (via runPartial) for
// RENDER_PARTIAL/INCLUDE_PARTIAL/CONST_RENDER/CONST_INCLUDE, each time in a
// sub-vm over the partial's cached Program that starts from this vm's
// instruction count and hands it back, so the complexity budget (and the
// Scope's render depth) is shared across a whole render tree rather than
// reset per partial.
func (m *vm) run() error {
	code := m.prog.Code
	pc := 0
	for pc < len(code) {
		ins := code[pc]

		if options.maxInstr > 0 {
			m.instrCount++
			if m.instrCount > options.maxInstr {
				return newRuntimeError("vm", ins.Span, m.sc.currentPartial, nil,
					"exceeded maximum instruction budget of %d", options.maxInstr)
			}
		}
		tracef("vm: %04d %s", pc, ins.Op)

		switch ins.Op {
		case OpNoop, OpLabel:
			// no-op once linked

		case OpWriteRaw:
			m.sc.writeOutput(&m.out, ins.Str)

		case OpWriteValue:
			v := m.pop()
			m.sc.writeOutput(&m.out, v.ToOutputString())

		case OpConstNil:
			m.push(Nil())
		case OpConstTrue:
			m.push(Bool(true))
		case OpConstFalse:
			m.push(Bool(false))
		case OpConstInt, OpConstFloat, OpConstRange:
			m.push(ins.Value)
		case OpConstString:
			m.push(Str(ins.Str))
		case OpConstEmpty:
			m.push(EmptySentinel())
		case OpConstBlank:
			m.push(BlankSentinel())

		case OpFindVar:
			m.push(m.sc.find(ins.Str))
		case OpFindVarDynamic:
			name := m.pop()
			m.push(m.sc.find(name.ToOutputString()))
		case OpFindVarPath:
			v := m.sc.find(ins.Str)
			for _, k := range ins.Path {
				v = v.resolved().LookupProperty(pathKeyValue(k))
			}
			m.push(v)

		case OpLookupKey:
			key := m.pop()
			container := m.pop()
			m.push(container.resolved().LookupProperty(key))
		case OpLookupConstKey:
			container := m.pop()
			m.push(container.resolved().LookupProperty(pathKeyValue(ins.Str)))
		case OpLookupConstPath:
			v := m.pop().resolved()
			for _, k := range ins.Path {
				v = v.LookupProperty(pathKeyValue(k)).resolved()
			}
			m.push(v)
		case OpLookupCommand:
			container := m.pop().resolved()
			if v, ok := container.LookupCommand(ins.Str); ok {
				m.push(v)
			} else {
				m.push(container.LookupProperty(Str(ins.Str)))
			}

		case OpJump:
			pc = ins.IntOp
			continue
		case OpJumpIfFalse:
			if !m.pop().resolved().IsTruthy() {
				pc = ins.IntOp
				continue
			}
		case OpJumpIfTrue:
			if m.pop().resolved().IsTruthy() {
				pc = ins.IntOp
				continue
			}
		case OpJumpIfEmpty:
			v := m.pop().resolved()
			items, ok := v.ToIterable()
			if !ok || len(items) == 0 {
				pc = ins.IntOp
				continue
			}
		case OpJumpIfInterrupt:
			// cont == brk identifies a pass-through hop at a capture
			// boundary (ctrlFrame always sets them equal for a capture
			// frame): forward without consuming, since an outer frame's
			// own JUMP_IF_INTERRUPT still needs to see this interrupt. A
			// real loop frame's cont and brk are always distinct labels,
			// so that's where the interrupt is finally consumed.
			kind, pending := m.sc.pendingInterrupt()
			if !pending {
				break
			}
			if ins.IntOp == int(ins.Label2) {
				pc = ins.IntOp
				continue
			}
			m.sc.popInterrupt()
			if kind == InterruptContinue {
				pc = ins.IntOp
			} else {
				pc = int(ins.Label2)
			}
			continue
		case OpHalt:
			return nil

		case OpCompare:
			b := m.pop()
			a := m.pop()
			res, ok := compareValues(ins.CompareO, a, b)
			if !ok {
				if m.sc.strict {
					return newRuntimeError("vm", ins.Span, m.sc.currentPartial, nil,
						"cannot order-compare %v and %v", a.Kind(), b.Kind())
				}
				res = false
			}
			m.push(Bool(res))
		case OpCaseCompare:
			b := m.pop()
			a := m.pop()
			m.push(Bool(valuesEqual(a, b)))
		case OpContains:
			item := m.pop()
			container := m.pop()
			m.push(Bool(valueContains(container, item)))
		case OpBoolNot:
			v := m.pop()
			m.push(Bool(!v.resolved().IsTruthy()))
		case OpIsTruthy:
			v := m.pop()
			m.push(Bool(v.resolved().IsTruthy()))

		case OpPushScope:
			m.sc.pushScope()
		case OpPopScope:
			m.sc.popScope()
		case OpAssign:
			m.sc.assign(ins.Str, m.pop())
		case OpAssignLocal:
			m.sc.assignLocal(ins.Str, m.pop())

		case OpForInit:
			if err := m.forInit(ins); err != nil {
				if m.sc.strict {
					return err
				}
				m.sc.writeOutput(&m.out, inlineErrorText(m, err))
			}
		case OpForNext:
			if !m.loopNext() {
				m.sc.popForloop()
				pc = int(ins.Label2)
				continue
			}
		case OpForEnd:
			m.sc.popForloop()
		case OpPushForloop:
			// Folded into FOR_INIT/TABLEROW_INIT in this implementation
			// (pushForloop/pushTablerow do it atomically with
			// materialization); kept in the opcode set for IR completeness.
		case OpPopInterrupt:
			// Unconditional discard, used by tagCaptureParser to absorb a
			// break/continue raised inside a capture with no enclosing loop
			// or capture (§9 decided open question: absorbed at capture
			// exit rather than left pending for an unrelated loop to see).
			if _, pending := m.sc.pendingInterrupt(); pending {
				m.sc.popInterrupt()
			}
		case OpPopForloop:
			m.sc.popForloop()
		case OpTablerowInit:
			if err := m.tablerowInit(ins); err != nil {
				if m.sc.strict {
					return err
				}
				m.sc.writeOutput(&m.out, inlineErrorText(m, err))
			}
		case OpTablerowNext:
			if !m.loopNext() {
				m.sc.popForloop()
				pc = int(ins.Label2)
				continue
			}
		case OpTablerowEnd:
			m.sc.popForloop()
		case OpPushInterrupt:
			m.sc.pushInterrupt(ins.Interr)

		case OpCallFilter:
			if err := m.callFilter(ins); err != nil {
				if m.sc.strict {
					return err
				}
				m.push(Str(inlineErrorText(m, err)))
			}

		case OpPushCapture:
			m.sc.pushCapture()
		case OpPopCapture:
			m.push(Str(m.sc.popCapture()))

		case OpRenderPartial:
			if err := m.renderPartial(ins, true); err != nil {
				return err
			}
		case OpIncludePartial:
			if err := m.renderPartial(ins, false); err != nil {
				return err
			}
		case OpConstRender:
			if err := m.constPartial(ins, true); err != nil {
				return err
			}
		case OpConstInclude:
			if err := m.constPartial(ins, false); err != nil {
				return err
			}

		case OpIncrement:
			m.push(Int(m.sc.incrementCounter(ins.Str)))
		case OpDecrement:
			m.push(Int(m.sc.decrementCounter(ins.Str)))
		case OpCycleStep:
			args := m.popN(ins.IntOp)
			idx := m.sc.cycleStep(ins.Str, ins.IntOp)
			if idx < 0 {
				m.push(Nil())
			} else {
				m.push(args[idx])
			}
		case OpCycleStepVar:
			// Reserved for a dynamic cycle-identity form; no tag currently
			// emits it (cycle's identity is always a literal, §4.2).
			idx := m.sc.cycleStep(ins.Str, ins.IntOp)
			m.push(Int(int64(idx)))

		case OpDup:
			m.push(m.stack[len(m.stack)-1])
		case OpPop:
			m.pop()
		case OpBuildHash:
			om := NewOrderedMap()
			vals := m.popN(ins.IntOp * 2)
			for i := 0; i < len(vals); i += 2 {
				om.Set(vals[i].ToOutputString(), vals[i+1])
			}
			m.push(Map(om))
		case OpStoreTemp:
			m.storeTemp(ins.IntOp, m.pop())
		case OpLoadTemp:
			m.push(m.loadTemp(ins.IntOp))
		case OpNewRange:
			hi := m.pop()
			lo := m.pop()
			m.push(RangeVal(lo.Int(), hi.Int()))

		case OpIfchangedCheck:
			text := m.stack[len(m.stack)-1].ToOutputString()
			m.push(Bool(m.sc.checkIfchanged(ins.IntOp, text)))
		}

		pc++
	}
	return nil
}

// pathKeyValue turns a LOOKUP_CONST_KEY/LOOKUP_CONST_PATH segment into the
// Value LookupProperty expects: a bare digit string addresses an array by
// index (the `.0`, `.1` dotted-index sugar §4.2's postfix-path production
// allows), anything else is a plain string map/property key.
func pathKeyValue(key string) Value {
	if key == "" {
		return Str(key)
	}
	for _, r := range key {
		if r < '0' || r > '9' {
			return Str(key)
		}
	}
	n := int64(0)
	for _, r := range key {
		n = n*10 + int64(r-'0')
	}
	return Int(n)
}

// tempSlots lazily allocates the vm's register file on first use; most
// programs touch temps rarely enough that allocating NumTemp slots up
// front for every Run would be wasted for simple templates.
func (m *vm) temps() []Value {
	if m.tempSlots == nil {
		m.tempSlots = make([]Value, m.prog.NumTemp)
	}
	return m.tempSlots
}

func (m *vm) storeTemp(slot int, v Value) { m.temps()[slot] = v }
func (m *vm) loadTemp(slot int) Value     { return m.temps()[slot] }
