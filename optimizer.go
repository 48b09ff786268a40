package liquid

// optimize runs the fixed-order, twenty-pass pipeline of §4.5 over an
// unlinked Program: every pass is a small, local, semantics-preserving
// rewrite of the instruction vector, run exactly once in pipeline order
// (no pass loops to a fixpoint on its own — later passes exist precisely
// to clean up what earlier ones left behind, e.g. pass 12 re-merges raw
// writes that pass 11's dead-code removal exposed).
//
// The pipeline runs before linking: several passes (9, most notably)
// still need symbolic LABEL pseudo-instructions and Jump/Label operands,
// which the linker collapses to absolute indices.
type optPass struct {
	name string
	fn   func(*Program) bool
}

// optPassList builds the pipeline in the exact order of §4.5. Pass 20
// (register allocation) is handled by regalloc.go's allocate, invoked
// separately by Compile after this pipeline, since it is load-bearing
// (it is not optional the way 1-19 are) and operates on the already
// fully-rewritten vector.
func optPassList() []optPass {
	return []optPass{
		{"inline-simple-partials", passInlineSimplePartials},
		{"fold-constant-ops", passFoldConstantOps},
		{"fold-constant-filters", passFoldConstantFilters},
		{"fold-constant-writes", passFoldConstantWrites},
		{"collapse-const-lookup-paths", passCollapseConstLookupPaths},
		{"fuse-findvar-path", passFuseFindVarPath},
		{"remove-redundant-truthy", passRemoveRedundantTruthy},
		{"remove-noops", passRemoveNoops},
		{"remove-jumps-to-next-label", passRemoveJumpsToNextLabel},
		{"merge-raw-writes", passMergeRawWrites},
		{"remove-unreachable-code", passRemoveUnreachableCode},
		{"remerge-raw-writes", passMergeRawWrites},
		{"fold-constant-captures", passFoldConstantCaptures},
		{"remove-empty-raw-writes", passRemoveEmptyRawWrites},
		{"propagate-constants", passPropagateConstants},
		{"refold-after-propagation", passRefoldAfterPropagation},
		{"hoist-loop-invariants", passHoistLoopInvariants},
		{"cache-repeated-lookups", passCacheRepeatedLookups},
		{"local-value-numbering", passLocalValueNumbering},
	}
}

// optimize mutates prog.Code in place, running every allowed pass once.
// allow is nil to run the whole pipeline (the normal case); the
// WithOptimizerPasses compile option restricts it to a named subset for
// differential testing of individual passes.
func optimize(prog *Program, allow map[string]bool) {
	if options.optDisabled {
		return
	}
	for _, p := range optPassList() {
		if allow != nil && !allow[p.name] {
			continue
		}
		changed := p.fn(prog)
		if changed {
			logf("optimizer: pass %q changed %s", p.name, prog.Name)
		}
	}
}

// isConstOp reports whether op is one of the CONST_* producers pass 2-16
// reason about uniformly.
func isConstOp(op Opcode) bool {
	switch op {
	case OpConstNil, OpConstTrue, OpConstFalse, OpConstInt, OpConstFloat,
		OpConstString, OpConstRange, OpConstEmpty, OpConstBlank:
		return true
	}
	return false
}

// constInstrValue extracts the Value a CONST_* instruction pushes.
func constInstrValue(ins Instruction) (Value, bool) {
	switch ins.Op {
	case OpConstNil:
		return Nil(), true
	case OpConstTrue:
		return Bool(true), true
	case OpConstFalse:
		return Bool(false), true
	case OpConstInt, OpConstFloat, OpConstRange:
		return ins.Value, true
	case OpConstString:
		return Str(ins.Str), true
	case OpConstEmpty:
		return EmptySentinel(), true
	case OpConstBlank:
		return BlankSentinel(), true
	}
	return Value{}, false
}

// constInstr builds the CONST_* instruction that reproduces v.
func constInstr(v Value, sp Span) Instruction {
	switch v.Kind() {
	case KindBool:
		if v.Bool() {
			return Instruction{Op: OpConstTrue, Span: sp}
		}
		return Instruction{Op: OpConstFalse, Span: sp}
	case KindInt:
		return Instruction{Op: OpConstInt, Value: v, Span: sp}
	case KindFloat:
		return Instruction{Op: OpConstFloat, Value: v, Span: sp}
	case KindRange:
		return Instruction{Op: OpConstRange, Value: v, Span: sp}
	case KindString:
		return Instruction{Op: OpConstString, Str: v.Str(), Span: sp}
	case KindEmpty:
		return Instruction{Op: OpConstEmpty, Span: sp}
	case KindBlank:
		return Instruction{Op: OpConstBlank, Span: sp}
	default:
		return Instruction{Op: OpConstNil, Span: sp}
	}
}
