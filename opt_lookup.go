package liquid

import "strings"

// passCollapseConstLookupPaths implements §4.5 pass 5: a run of two or
// more consecutive LOOKUP_CONST_KEY instructions collapses to a single
// LOOKUP_CONST_PATH carrying the whole key list, so the VM walks the
// container chain in one dispatch instead of one per segment. A lone
// LOOKUP_CONST_KEY is left as-is; pass 6 only fuses the multi-key form.
func passCollapseConstLookupPaths(prog *Program) bool {
	changed := false
	code := prog.Code
	out := make([]Instruction, 0, len(code))
	for i := 0; i < len(code); {
		if code[i].Op == OpLookupConstKey {
			j := i
			var keys []string
			for j < len(code) && code[j].Op == OpLookupConstKey {
				keys = append(keys, code[j].Str)
				j++
			}
			if len(keys) >= 2 {
				out = append(out, Instruction{Op: OpLookupConstPath, Path: keys, Span: code[i].Span})
				changed = true
				i = j
				continue
			}
		}
		out = append(out, code[i])
		i++
	}
	prog.Code = out
	return changed
}

// passFuseFindVarPath implements §4.5 pass 6: FIND_VAR immediately
// followed by LOOKUP_CONST_PATH fuses into a single FIND_VAR_PATH,
// letting the VM resolve the whole `a.b.c` chain without materializing
// the base variable on the stack first.
func passFuseFindVarPath(prog *Program) bool {
	changed := false
	code := prog.Code
	out := make([]Instruction, 0, len(code))
	for i := 0; i < len(code); i++ {
		if code[i].Op == OpFindVar && i+1 < len(code) && code[i+1].Op == OpLookupConstPath {
			out = append(out, Instruction{Op: OpFindVarPath, Str: code[i].Str, Path: code[i+1].Path, Span: code[i].Span})
			changed = true
			i++
			continue
		}
		out = append(out, code[i])
	}
	prog.Code = out
	return changed
}

// cacheResetOps are opcodes that can change a variable's value, transfer
// control, or otherwise invalidate any lookup cached before them — a
// conservative boundary for both passCacheRepeatedLookups and
// passLocalValueNumbering's "straight-line code"/"basic block" scope.
var cacheResetOps = map[Opcode]bool{
	OpLabel: true, OpJump: true, OpJumpIfFalse: true, OpJumpIfTrue: true,
	OpJumpIfEmpty: true, OpJumpIfInterrupt: true, OpHalt: true,
	OpForNext: true, OpTablerowNext: true, OpForInit: true, OpTablerowInit: true,
	OpAssign: true, OpAssignLocal: true, OpIncrement: true, OpDecrement: true,
	OpPushScope: true, OpPopScope: true, OpPushCapture: true, OpPopCapture: true,
	OpRenderPartial: true, OpIncludePartial: true, OpConstRender: true, OpConstInclude: true,
}

// splitBlocks partitions code at every cacheResetOps boundary: the
// returned blocks are the runs strictly between reset instructions, and
// resets holds those boundary instructions themselves, in order
// (len(resets) == len(blocks)-1).
func splitBlocks(code []Instruction) (blocks [][]Instruction, resets []Instruction) {
	cur := []Instruction{}
	for _, ins := range code {
		if cacheResetOps[ins.Op] {
			blocks = append(blocks, cur)
			resets = append(resets, ins)
			cur = []Instruction{}
			continue
		}
		cur = append(cur, ins)
	}
	blocks = append(blocks, cur)
	return blocks, resets
}

// rewriteBlockCache is the shared engine behind passCacheRepeatedLookups
// and passLocalValueNumbering: within each block, every instruction whose
// keyOf reports a key that recurs at least twice gets its first
// occurrence followed by a STORE_TEMP/LOAD_TEMP pair (storing the value
// without consuming it, since LOAD_TEMP re-pushes a copy) and every later
// occurrence replaced outright by a LOAD_TEMP of that same slot.
func rewriteBlockCache(prog *Program, keyOf func(Instruction) (string, bool)) bool {
	changed := false
	blocks, resets := splitBlocks(prog.Code)
	out := make([]Instruction, 0, len(prog.Code))
	tempCounter := prog.NumTemp
	for bi, block := range blocks {
		counts := map[string]int{}
		for _, ins := range block {
			if k, ok := keyOf(ins); ok {
				counts[k]++
			}
		}
		slots := map[string]int{}
		sources := map[string]Instruction{}
		for _, ins := range block {
			k, ok := keyOf(ins)
			if !ok || counts[k] < 2 {
				out = append(out, ins)
				continue
			}
			if slot, seen := slots[k]; seen {
				src := sources[k]
				out = append(out, Instruction{Op: OpLoadTemp, IntOp: slot, Recompute: &src, Span: ins.Span})
				changed = true
				continue
			}
			slot := tempCounter
			tempCounter++
			slots[k] = slot
			sources[k] = ins
			src := ins
			out = append(out, ins,
				Instruction{Op: OpStoreTemp, IntOp: slot, Span: ins.Span},
				Instruction{Op: OpLoadTemp, IntOp: slot, Recompute: &src, Span: ins.Span})
			changed = true
		}
		if bi < len(resets) {
			out = append(out, resets[bi])
		}
	}
	prog.NumTemp = tempCounter
	prog.Code = out
	return changed
}

// passCacheRepeatedLookups implements §4.5 pass 18.
func passCacheRepeatedLookups(prog *Program) bool {
	return rewriteBlockCache(prog, func(ins Instruction) (string, bool) {
		switch ins.Op {
		case OpFindVar:
			return "v:" + ins.Str, true
		case OpFindVarPath:
			return "p:" + ins.Str + ":" + strings.Join(ins.Path, "\x00"), true
		}
		return "", false
	})
}

// passLocalValueNumbering implements §4.5 pass 19: within a block, a
// repeated literal constant (large strings in particular) is computed
// once and reloaded from a temp slot rather than re-pushed from its
// literal operand every time.
func passLocalValueNumbering(prog *Program) bool {
	return rewriteBlockCache(prog, func(ins Instruction) (string, bool) {
		switch ins.Op {
		case OpConstString:
			return "cs:" + ins.Str, true
		case OpConstInt, OpConstFloat, OpConstRange:
			return "cn:" + ins.Op.String() + ":" + ins.Value.ToOutputString(), true
		}
		return "", false
	})
}
