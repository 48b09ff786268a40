package liquid

// passRemoveRedundantTruthy implements §4.5 pass 7: IS_TRUTHY right after
// any op that already produces a bool (COMPARE, CASE_COMPARE, CONTAINS,
// BOOL_NOT) is redundant.
func passRemoveRedundantTruthy(prog *Program) bool {
	changed := false
	out := make([]Instruction, 0, len(prog.Code))
	for _, ins := range prog.Code {
		if ins.Op == OpIsTruthy && len(out) > 0 {
			switch out[len(out)-1].Op {
			case OpCompare, OpCaseCompare, OpContains, OpBoolNot:
				changed = true
				continue
			}
		}
		out = append(out, ins)
	}
	prog.Code = out
	return changed
}

// passRemoveNoops implements §4.5 pass 8.
func passRemoveNoops(prog *Program) bool {
	changed := false
	out := make([]Instruction, 0, len(prog.Code))
	for _, ins := range prog.Code {
		if ins.Op == OpNoop {
			changed = true
			continue
		}
		out = append(out, ins)
	}
	prog.Code = out
	return changed
}

// passRemoveJumpsToNextLabel implements §4.5 pass 9: an unconditional
// JUMP whose target is the very next instruction is a no-op.
func passRemoveJumpsToNextLabel(prog *Program) bool {
	changed := false
	code := prog.Code
	out := make([]Instruction, 0, len(code))
	for i := 0; i < len(code); i++ {
		if code[i].Op == OpJump && i+1 < len(code) &&
			code[i+1].Op == OpLabel && code[i+1].Label == code[i].Label {
			changed = true
			continue
		}
		out = append(out, code[i])
	}
	prog.Code = out
	return changed
}

// passMergeRawWrites implements §4.5 passes 10 and 12 (the second a
// re-run after dead-code removal exposes newly-adjacent raw writes).
func passMergeRawWrites(prog *Program) bool {
	changed := false
	out := make([]Instruction, 0, len(prog.Code))
	for _, ins := range prog.Code {
		if ins.Op == OpWriteRaw && len(out) > 0 && out[len(out)-1].Op == OpWriteRaw {
			out[len(out)-1].Str += ins.Str
			changed = true
			continue
		}
		out = append(out, ins)
	}
	prog.Code = out
	return changed
}

// passRemoveUnreachableCode implements §4.5 pass 11: everything strictly
// between an unconditional JUMP/HALT and the next LABEL can never run,
// since only a LABEL can be a jump target back into this stretch.
func passRemoveUnreachableCode(prog *Program) bool {
	changed := false
	out := make([]Instruction, 0, len(prog.Code))
	dead := false
	for _, ins := range prog.Code {
		if dead {
			if ins.Op != OpLabel {
				changed = true
				continue
			}
			dead = false
		}
		out = append(out, ins)
		if ins.Op == OpJump || ins.Op == OpHalt {
			dead = true
		}
	}
	prog.Code = out
	return changed
}

// passRemoveEmptyRawWrites implements §4.5 pass 14.
func passRemoveEmptyRawWrites(prog *Program) bool {
	changed := false
	out := make([]Instruction, 0, len(prog.Code))
	for _, ins := range prog.Code {
		if ins.Op == OpWriteRaw && ins.Str == "" {
			changed = true
			continue
		}
		out = append(out, ins)
	}
	prog.Code = out
	return changed
}

// passRefoldAfterPropagation implements §4.5 pass 16: constant
// propagation (pass 15) turns some FIND_VARs into CONST_*s, which can
// feed the same folds passes 2-4 already perform, so re-run them.
func passRefoldAfterPropagation(prog *Program) bool {
	changed := passFoldConstantOps(prog)
	changed = passFoldConstantFilters(prog) || changed
	changed = passFoldConstantWrites(prog) || changed
	changed = passMergeRawWrites(prog) || changed
	return changed
}
