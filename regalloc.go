package liquid

import "sort"

// maxRegisters bounds the physical temp-register file a compiled Program's
// execution frame is sized to, per §4.6.
const maxRegisters = 16

type tempInterval struct {
	slot    int
	def     int
	lastUse int
}

// allocate implements §4.5 pass 20. The caching, value-numbering and
// loop-hoisting passes invent logical temp slots freely (Program.NumTemp
// counts them during optimization); allocate packs those down into a
// bounded physical register file via linear-scan interval allocation over
// each slot's textual [def, last use] range in the (already fully
// optimized, still unlinked) instruction vector. It runs after every §4.5
// pass and before link — it only rewrites STORE_TEMP/LOAD_TEMP operands
// and, for spills, the instructions around them, never labels or jumps.
//
// A slot whose live range can't be packed within maxRegisters is spilled:
// rather than grow the register file without bound, its caching is
// reverted in place, recomputing the value at every load site instead of
// caching it once. This is always safe because every LOAD_TEMP this
// repository's own optimizer passes emit carries a Recompute copy of the
// instruction that first produced the value (see ir.go), kept for exactly
// this fallback.
func allocate(prog *Program) {
	if prog.NumTemp == 0 {
		return
	}
	code := prog.Code

	defIdx := make([]int, prog.NumTemp)
	lastUse := make([]int, prog.NumTemp)
	seenDef := make([]bool, prog.NumTemp)
	for i := range defIdx {
		defIdx[i] = -1
		lastUse[i] = -1
	}
	for i, ins := range code {
		switch ins.Op {
		case OpStoreTemp:
			defIdx[ins.IntOp] = i
			seenDef[ins.IntOp] = true
		case OpLoadTemp:
			if i > lastUse[ins.IntOp] {
				lastUse[ins.IntOp] = i
			}
		}
	}

	var intervals []tempInterval
	for slot := 0; slot < prog.NumTemp; slot++ {
		if !seenDef[slot] {
			continue // allocated but never emitted; nothing to place
		}
		intervals = append(intervals, tempInterval{slot: slot, def: defIdx[slot], lastUse: lastUse[slot]})
	}
	sort.Slice(intervals, func(i, j int) bool { return intervals[i].def < intervals[j].def })

	type active struct {
		reg int
		end int
	}
	var activeList []active
	freeRegs := make([]int, maxRegisters)
	for i := range freeRegs {
		freeRegs[i] = maxRegisters - 1 - i
	}
	assigned := map[int]int{}
	spilled := map[int]bool{}

	for _, iv := range intervals {
		kept := activeList[:0]
		for _, a := range activeList {
			if a.end < iv.def {
				freeRegs = append(freeRegs, a.reg)
			} else {
				kept = append(kept, a)
			}
		}
		activeList = kept

		if len(freeRegs) == 0 {
			spilled[iv.slot] = true
			continue
		}
		reg := freeRegs[len(freeRegs)-1]
		freeRegs = freeRegs[:len(freeRegs)-1]
		assigned[iv.slot] = reg
		activeList = append(activeList, active{reg: reg, end: iv.lastUse})
	}

	if len(spilled) > 0 {
		revertSpilledTemps(prog, spilled)
		code = prog.Code
	}

	out := make([]Instruction, len(code))
	copy(out, code)
	maxReg := -1
	for i, ins := range out {
		if ins.Op != OpStoreTemp && ins.Op != OpLoadTemp {
			continue
		}
		reg, ok := assigned[ins.IntOp]
		if !ok {
			continue // slot was spilled and already rewritten away
		}
		out[i].IntOp = reg
		if reg > maxReg {
			maxReg = reg
		}
	}
	prog.Code = out
	prog.NumTemp = maxReg + 1
}

// revertSpilledTemps undoes the caching/hoisting for every slot in spilled.
// A slot's STORE_TEMP takes one of two shapes: immediately followed by a
// LOAD_TEMP of the same slot (the caching/value-numbering passes' "store
// then immediately reload" idiom, used when the value is still needed
// right there) or not (the loop-hoisting pass, whose only use sites are
// inside the loop body, never adjacent to the STORE_TEMP floated above it).
func revertSpilledTemps(prog *Program, spilled map[int]bool) {
	code := prog.Code
	out := make([]Instruction, 0, len(code))
	for i := 0; i < len(code); i++ {
		ins := code[i]

		if ins.Op == OpStoreTemp && spilled[ins.IntOp] {
			if i+1 < len(code) && code[i+1].Op == OpLoadTemp && code[i+1].IntOp == ins.IntOp {
				// The producer just emitted above already leaves the right
				// value on the stack; drop STORE_TEMP and its paired reload.
				i++
				continue
			}
			// This STORE_TEMP and the producer instruction directly above
			// it in out existed only to feed the hoist; drop both.
			if n := len(out); n > 0 {
				out = out[:n-1]
			}
			continue
		}

		if ins.Op == OpLoadTemp && spilled[ins.IntOp] {
			if ins.Recompute != nil {
				out = append(out, *ins.Recompute)
				continue
			}
			out = append(out, ins)
			continue
		}

		out = append(out, ins)
	}
	prog.Code = out
}
