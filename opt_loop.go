package liquid

import "strings"

type loopInvariantEdit struct {
	initIdx   int // index of the FOR_INIT/TABLEROW_INIT instruction
	bodyStart int
	bodyEnd   int // exclusive; the back-edge JUMP to the loop top
	prefix    []Instruction
	newBody   []Instruction
}

// findLoopBody locates, for a FOR_INIT/TABLEROW_INIT at index i, the
// instruction range of its body: from just after the matching NEXT op's
// top label to the unconditional back-edge JUMP that targets that same
// label, which tagForParser/tagTablerowParser always emit immediately
// above the break trampoline. Returns ok=false if the shape doesn't match
// (should not happen for compiler-generated loops, but the pass stays
// conservative rather than panic on unexpected input).
func findLoopBody(code []Instruction, i int) (nextIdx, bodyStart, bodyEnd int, ok bool) {
	nextOp := OpForNext
	if code[i].Op == OpTablerowInit {
		nextOp = OpTablerowNext
	}
	nextIdx = -1
	for j := i + 1; j < len(code); j++ {
		if code[j].Op == OpLabel {
			continue
		}
		if code[j].Op == nextOp {
			nextIdx = j
		}
		break
	}
	if nextIdx < 0 {
		return 0, 0, 0, false
	}
	contID := code[nextIdx].Label
	bodyStart = nextIdx + 1
	for j := bodyStart; j+2 < len(code); j++ {
		if code[j].Op == OpJump && code[j].Label == contID &&
			code[j+1].Op == OpLabel && code[j+2].Op == OpPopForloop {
			return nextIdx, bodyStart, j, true
		}
	}
	return 0, 0, 0, false
}

// passHoistLoopInvariants implements §4.5 pass 17: a FIND_VAR/FIND_VAR_PATH
// inside a loop body that reads a variable the loop never writes is the
// same value on every iteration, so it is computed once before FOR_INIT/
// TABLEROW_INIT and reloaded from a temp slot inside the body instead of
// being re-resolved against the scope chain every pass.
//
// Only loops whose body contains no nested loop or capture are considered:
// a nested for/tablerow can rebind the same variable name as its own loop
// variable, and a nested capture isn't itself a scoping hazard here but
// keeping the check simple (bail on either) avoids having to reason about
// shadowing at all. The nested construct is still visited and can still be
// hoisted on its own terms, once control flow reaches it as a standalone
// FOR_INIT/TABLEROW_INIT elsewhere in this same scan.
func passHoistLoopInvariants(prog *Program) bool {
	code := prog.Code
	var edits []loopInvariantEdit
	tempCounter := prog.NumTemp

	for i, ins := range code {
		if ins.Op != OpForInit && ins.Op != OpTablerowInit {
			continue
		}
		var varName, loopName string
		if ins.Op == OpForInit {
			varName, loopName = ins.ForInit.Var, ins.ForInit.LoopName
		} else {
			varName, loopName = ins.TblInit.Var, ins.TblInit.LoopName
		}

		_, bodyStart, bodyEnd, ok := findLoopBody(code, i)
		if !ok {
			continue
		}
		body := code[bodyStart:bodyEnd]

		written := map[string]bool{varName: true, loopName: true, "forloop": true, "tablerowloop": true}
		nested := false
		for _, b := range body {
			switch b.Op {
			case OpForInit, OpTablerowInit, OpPushCapture:
				nested = true
			case OpAssign, OpAssignLocal:
				written[b.Str] = true
			}
		}
		if nested {
			continue
		}

		var prefix, newBody []Instruction
		slots := map[string]int{}
		sources := map[string]Instruction{}
		for _, b := range body {
			if (b.Op == OpFindVar || b.Op == OpFindVarPath) && !written[b.Str] {
				key := b.Op.String() + ":" + b.Str + ":" + strings.Join(b.Path, "\x00")
				slot, seen := slots[key]
				if !seen {
					slot = tempCounter
					tempCounter++
					slots[key] = slot
					sources[key] = b
					prefix = append(prefix, b, Instruction{Op: OpStoreTemp, IntOp: slot, Span: b.Span})
				}
				src := sources[key]
				newBody = append(newBody, Instruction{Op: OpLoadTemp, IntOp: slot, Recompute: &src, Span: b.Span})
				continue
			}
			newBody = append(newBody, b)
		}
		if len(prefix) == 0 {
			continue
		}
		edits = append(edits, loopInvariantEdit{initIdx: i, bodyStart: bodyStart, bodyEnd: bodyEnd, prefix: prefix, newBody: newBody})
	}

	if len(edits) == 0 {
		return false
	}
	prog.NumTemp = tempCounter

	out := make([]Instruction, 0, len(code))
	cur := 0
	for _, e := range edits {
		out = append(out, code[cur:e.initIdx]...)
		out = append(out, e.prefix...)
		out = append(out, code[e.initIdx:e.bodyStart]...)
		out = append(out, e.newBody...)
		cur = e.bodyEnd
	}
	out = append(out, code[cur:]...)
	prog.Code = out
	return true
}
