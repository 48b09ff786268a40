package liquid

// Builder appends opcodes to a Program, allocates fresh symbolic label ids
// and records spans. The parser never builds an AST; every tag/expression
// rule lowers directly through a Builder, per §4.2.
type Builder struct {
	prog      *Program
	nextLabel labelID
}

func newBuilder(name string) *Builder {
	return &Builder{prog: &Program{Name: name}}
}

// NewLabel allocates a fresh symbolic label id. The label is not yet bound
// to any instruction index until Label() emits its LABEL pseudo-instruction.
func (b *Builder) NewLabel() labelID {
	b.nextLabel++
	return b.nextLabel
}

// Here returns the index the next emitted instruction will occupy.
func (b *Builder) Here() int { return len(b.prog.Code) }

func (b *Builder) emit(ins Instruction) int {
	b.prog.Code = append(b.prog.Code, ins)
	return len(b.prog.Code) - 1
}

func (b *Builder) Label(id labelID, sp Span) {
	b.emit(Instruction{Op: OpLabel, Label: id, Span: sp})
}

func (b *Builder) Jump(target labelID, sp Span) {
	b.emit(Instruction{Op: OpJump, Label: target, Span: sp})
}

func (b *Builder) JumpIfFalse(target labelID, sp Span) {
	b.emit(Instruction{Op: OpJumpIfFalse, Label: target, Span: sp})
}

func (b *Builder) JumpIfTrue(target labelID, sp Span) {
	b.emit(Instruction{Op: OpJumpIfTrue, Label: target, Span: sp})
}

func (b *Builder) JumpIfEmpty(target labelID, sp Span) {
	b.emit(Instruction{Op: OpJumpIfEmpty, Label: target, Span: sp})
}

func (b *Builder) JumpIfInterrupt(cont, brk labelID, sp Span) {
	b.emit(Instruction{Op: OpJumpIfInterrupt, Label: cont, Label2: brk, Span: sp})
}

func (b *Builder) Simple(op Opcode, sp Span) { b.emit(Instruction{Op: op, Span: sp}) }

func (b *Builder) WriteRaw(s string, sp Span) {
	if s == "" {
		return
	}
	b.emit(Instruction{Op: OpWriteRaw, Str: s, Span: sp})
}

func (b *Builder) ConstString(s string, sp Span) {
	b.emit(Instruction{Op: OpConstString, Str: s, Span: sp})
}

func (b *Builder) ConstInt(i int64, sp Span) {
	b.emit(Instruction{Op: OpConstInt, Value: Int(i), Span: sp})
}

func (b *Builder) ConstFloat(f float64, sp Span) {
	b.emit(Instruction{Op: OpConstFloat, Value: Float(f), Span: sp})
}

func (b *Builder) ConstRange(lo, hi int64, sp Span) {
	b.emit(Instruction{Op: OpConstRange, Value: RangeVal(lo, hi), Span: sp})
}

func (b *Builder) FindVar(name string, sp Span) {
	b.emit(Instruction{Op: OpFindVar, Str: name, Span: sp})
}

func (b *Builder) LookupConstKey(name string, sp Span) {
	b.emit(Instruction{Op: OpLookupConstKey, Str: name, Span: sp})
}

func (b *Builder) LookupCommand(name string, sp Span) {
	b.emit(Instruction{Op: OpLookupCommand, Str: name, Span: sp})
}

func (b *Builder) Compare(op CompareOp, sp Span) {
	b.emit(Instruction{Op: OpCompare, CompareO: op, Span: sp})
}

func (b *Builder) CaseCompare(sp Span) { b.Simple(OpCaseCompare, sp) }

func (b *Builder) Assign(name string, sp Span) {
	b.emit(Instruction{Op: OpAssign, Str: name, Span: sp})
}

func (b *Builder) AssignLocal(name string, sp Span) {
	b.emit(Instruction{Op: OpAssignLocal, Str: name, Span: sp})
}

func (b *Builder) CallFilter(name string, argc int, sp Span) {
	b.emit(Instruction{Op: OpCallFilter, Str: name, IntOp: argc, Span: sp})
}

func (b *Builder) ForInit(args *forInitArgs, sp Span) {
	b.emit(Instruction{Op: OpForInit, ForInit: args, Span: sp})
}

func (b *Builder) ForNext(cont, brk labelID, sp Span) {
	b.emit(Instruction{Op: OpForNext, Label: cont, Label2: brk, Span: sp})
}

func (b *Builder) TablerowInit(args *tablerowInitArgs, sp Span) {
	b.emit(Instruction{Op: OpTablerowInit, TblInit: args, Span: sp})
}

func (b *Builder) TablerowNext(cont, brk labelID, sp Span) {
	b.emit(Instruction{Op: OpTablerowNext, Label: cont, Label2: brk, Span: sp})
}

func (b *Builder) PushInterrupt(k InterruptKind, sp Span) {
	b.emit(Instruction{Op: OpPushInterrupt, Interr: k, Span: sp})
}

func (b *Builder) Increment(name string, sp Span) {
	b.emit(Instruction{Op: OpIncrement, Str: name, Span: sp})
}

func (b *Builder) Decrement(name string, sp Span) {
	b.emit(Instruction{Op: OpDecrement, Str: name, Span: sp})
}

func (b *Builder) CycleStep(identity string, n int, sp Span) {
	b.emit(Instruction{Op: OpCycleStep, Str: identity, IntOp: n, Span: sp})
}

func (b *Builder) RenderPartial(attrs *partialAttrs, sp Span) {
	b.emit(Instruction{Op: b.partialOp(true, attrs), Attrs: attrs, Span: sp})
}

func (b *Builder) IncludePartial(attrs *partialAttrs, sp Span) {
	b.emit(Instruction{Op: b.partialOp(false, attrs), Attrs: attrs, Span: sp})
}

// partialOp picks the CONST_RENDER/CONST_INCLUDE variant when the partial
// name is a literal known at compile time, else the dynamic-name opcode
// that expects the name already pushed on the stack.
func (b *Builder) partialOp(render bool, attrs *partialAttrs) Opcode {
	if attrs.NameDynamic {
		if render {
			return OpRenderPartial
		}
		return OpIncludePartial
	}
	if render {
		return OpConstRender
	}
	return OpConstInclude
}

func (b *Builder) IfchangedCheck(id int, sp Span) {
	b.emit(Instruction{Op: OpIfchangedCheck, IntOp: id, Span: sp})
}

// Build finalizes the builder into its Program, unlinked.
func (b *Builder) Build() *Program { return b.prog }
