package liquid

// findMatchingPopCapture returns the index of the POP_CAPTURE that closes
// the PUSH_CAPTURE at code[start], accounting for nested captures.
func findMatchingPopCapture(code []Instruction, start int) int {
	depth := 0
	for i := start; i < len(code); i++ {
		switch code[i].Op {
		case OpPushCapture:
			depth++
		case OpPopCapture:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// capturesOnlyRawWrites reports whether body (the span strictly between a
// PUSH_CAPTURE and its POP_CAPTURE) produces its entire output from literal
// text: every instruction must be WRITE_RAW, with at most one trailing
// LABEL (the capture's own exit label used by break/continue
// interrupt-repropagation, safe to drop since nothing outside the capture
// ever jumps to it once the capture itself is gone).
func capturesOnlyRawWrites(body []Instruction) bool {
	for i, ins := range body {
		switch ins.Op {
		case OpWriteRaw:
			continue
		case OpLabel:
			if i != len(body)-1 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// passFoldConstantCaptures implements §4.5 pass 13: a {% capture %} block
// whose body is pure literal text (no variables, no tags, no partials)
// collapses to a single constant string assignment, so the VM never pushes
// a capture frame for it at render time.
func passFoldConstantCaptures(prog *Program) bool {
	changed := false
	code := prog.Code
	out := make([]Instruction, 0, len(code))
	for i := 0; i < len(code); i++ {
		if code[i].Op != OpPushCapture {
			out = append(out, code[i])
			continue
		}
		end := findMatchingPopCapture(code, i)
		if end < 0 {
			out = append(out, code[i])
			continue
		}
		body := code[i+1 : end]
		if !capturesOnlyRawWrites(body) {
			out = append(out, code[i])
			continue
		}
		text := ""
		for _, ins := range body {
			if ins.Op == OpWriteRaw {
				text += ins.Str
			}
		}
		out = append(out, Instruction{Op: OpConstString, Str: text, Span: code[i].Span})
		changed = true
		i = end
	}
	prog.Code = out
	return changed
}

// passInlineSimplePartials implements §4.5 pass 1. A {% render %}/
// {% include %} of a literal (non-dynamic) partial name that takes no
// with/for/keyword arguments and whose compiled body contains no
// PUSH_SCOPE/ASSIGN/loop/capture/partial of its own could, in principle, be
// spliced directly into the caller's instruction stream.
//
// This implementation intentionally does nothing. Partial resolution in
// this design is a render-time property of the Scope, not a compile-time
// property of the Program: RENDER_PARTIAL/INCLUDE_PARTIAL resolve the
// partial's source through whatever FileSystem the running Scope happens
// to carry (Scope.fileSystem, set via WithFileSystem). The same compiled
// Program is reused across renders that may each supply a different
// FileSystem, so there is no single "the partial's body" a compile-time
// pass could legitimately bake in — doing so would hard-wire one render's
// FileSystem into every future render of that Program.
func passInlineSimplePartials(prog *Program) bool {
	return false
}
