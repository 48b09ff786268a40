package liquid

// passPropagateConstants implements §4.5 pass 15: once ASSIGN(x) binds a
// constant, every FIND_VAR(x) downstream can be replaced by that constant
// directly, until something puts x's value (or the whole scope's set of
// bindings) back in doubt.
//
// This is a single conservative forward sweep over the flat instruction
// list rather than real data-flow over the control-flow graph: any label,
// jump, loop step, scope push/pop, capture, partial call or counter op
// invalidates every binding currently known, since any of those can reach
// this point from a path where x held something else (a loop back-edge,
// an included template assigning the same name, etc). ASSIGN/ASSIGN_LOCAL
// of a non-constant value drops just that one variable's binding.
func passPropagateConstants(prog *Program) bool {
	changed := false
	code := prog.Code
	out := make([]Instruction, 0, len(code))
	known := map[string]Value{}

	invalidatingOps := map[Opcode]bool{
		OpLabel: true, OpJump: true, OpJumpIfFalse: true, OpJumpIfTrue: true,
		OpJumpIfEmpty: true, OpJumpIfInterrupt: true, OpHalt: true,
		OpForInit: true, OpForNext: true, OpTablerowInit: true, OpTablerowNext: true,
		OpPushScope: true, OpPopScope: true, OpPushCapture: true, OpPopCapture: true,
		OpRenderPartial: true, OpIncludePartial: true, OpConstRender: true, OpConstInclude: true,
		OpIncrement: true, OpDecrement: true,
	}

	for _, ins := range code {
		switch {
		case ins.Op == OpFindVar:
			if v, ok := known[ins.Str]; ok {
				out = append(out, constInstr(v, ins.Span))
				changed = true
				continue
			}

		case ins.Op == OpAssign || ins.Op == OpAssignLocal:
			if n := len(out); n > 0 {
				if v, ok := constInstrValue(out[n-1]); ok {
					known[ins.Str] = v
				} else {
					delete(known, ins.Str)
				}
			} else {
				delete(known, ins.Str)
			}

		case invalidatingOps[ins.Op]:
			known = map[string]Value{}
		}
		out = append(out, ins)
	}

	prog.Code = out
	return changed
}
