package liquid

// link resolves every symbolic label in prog to an absolute instruction
// index, per §4.4: pass 1 records label_id -> index for every LABEL, pass 2
// rewrites every jump operand and turns each LABEL into a NOOP in place
// (so indices already recorded by pass 1, and any the optimizer baked into
// closures, stay valid — this implementation never compacts the vector,
// trading a few no-ops for never having to renumber).
func link(prog *Program) error {
	index := map[labelID]int{}
	for i, ins := range prog.Code {
		if ins.Op == OpLabel {
			if _, dup := index[ins.Label]; dup {
				return newSyntaxError("linker", ins.Span, "label %d declared more than once", ins.Label)
			}
			index[ins.Label] = i
		}
	}

	resolve := func(id labelID, ins Instruction) (int, error) {
		idx, ok := index[id]
		if !ok {
			return 0, newSyntaxError("linker", ins.Span, "undefined label %d", id)
		}
		return idx, nil
	}

	for i := range prog.Code {
		ins := &prog.Code[i]
		switch ins.Op {
		case OpLabel:
			*ins = Instruction{Op: OpNoop, Span: ins.Span}
		case OpJump, OpJumpIfFalse, OpJumpIfTrue, OpJumpIfEmpty:
			idx, err := resolve(ins.Label, *ins)
			if err != nil {
				return err
			}
			ins.IntOp = idx
			ins.Label = 0
		case OpJumpIfInterrupt:
			contIdx, err := resolve(ins.Label, *ins)
			if err != nil {
				return err
			}
			brkIdx, err := resolve(ins.Label2, *ins)
			if err != nil {
				return err
			}
			ins.IntOp = contIdx
			ins.Label = 0
			ins.Label2 = labelID(brkIdx)
		case OpForNext, OpTablerowNext:
			contIdx, err := resolve(ins.Label, *ins)
			if err != nil {
				return err
			}
			brkIdx, err := resolve(ins.Label2, *ins)
			if err != nil {
				return err
			}
			ins.IntOp = contIdx
			ins.Label = 0
			ins.Label2 = labelID(brkIdx)
		}
	}

	prog.Linked = true
	return nil
}
