package liquid

import "strings"

// Env is the variable environment an embedder supplies to a render: a
// plain string-keyed map of Values, the outermost Scope frame.
type Env map[string]Value

// Frame is one level of the scope's variable-frame chain (§3).
type Frame map[string]Value

// forloopEntry is the loop-stack element: either a Forloop or a Tablerow,
// distinguished by whether cols is set.
type forloopEntry struct {
	fl  *Forloop
	trl *Tablerow
}

func (e forloopEntry) drop(sc *Scope) Value {
	if e.trl != nil {
		return DropVal(tablerowDrop{t: e.trl, sc: sc})
	}
	return DropVal(forloopDrop{f: e.fl, sc: sc})
}

type forloopDrop struct {
	f  *Forloop
	sc *Scope
}

func (d forloopDrop) ToLiquid() *Value      { return nil }
func (d forloopDrop) ToLiquidValue() *Value { return nil }
func (d forloopDrop) Iterate() []Value      { return nil }
func (d forloopDrop) Index(key Value) Value { return d.f.Attribute(key.ToOutputString(), d.sc) }

type tablerowDrop struct {
	t  *Tablerow
	sc *Scope
}

func (d tablerowDrop) ToLiquid() *Value      { return nil }
func (d tablerowDrop) ToLiquidValue() *Value { return nil }
func (d tablerowDrop) Iterate() []Value      { return nil }
func (d tablerowDrop) Index(key Value) Value { return d.t.Attribute(key.ToOutputString(), d.sc) }

// interrupt is a pending break/continue signal (§3, §4.7).
type interrupt struct {
	kind InterruptKind
}

// cycleState is the shared per-identity state CYCLE_STEP advances.
type cycleState struct {
	index int
}

// FileSystem is the partial loader capability (§6): read returns the
// source text of the named partial, or ok=false if absent. This is the
// interface only, per the design's Non-goals — on-disk loading is not part
// of the core.
type FileSystem interface {
	Read(name string) (string, bool)
}

// MapFileSystem is a trivial in-memory FileSystem, the only concrete
// implementation this repository ships (used by tests and embedders that
// want to supply partials without touching a disk).
type MapFileSystem map[string]string

func (m MapFileSystem) Read(name string) (string, bool) {
	s, ok := m[name]
	return s, ok
}

// Scope is the render-time environment threaded through the VM: a chain of
// variable frames plus the process-wide-within-a-render registers named in
// §3. A Scope is owned by exactly one render; concurrent renders each get
// their own, which is what makes cycles/counters/render_depth safe to keep
// here rather than at module scope.
type Scope struct {
	frames []Frame

	forloops []forloopEntry

	interrupts []interrupt

	captures []*strings.Builder

	counters  map[string]int64
	cycles    map[string]*cycleState
	ifchanged map[int]string

	renderDepth int

	fileSystem FileSystem

	strict     bool
	renderErrs bool

	// offsetRegisters backs `offset: continue`: a per-loop_name cursor
	// that a second `for` over the same loop_name resumes from.
	offsetRegisters map[string]int

	// innermost partial name, for per-partial error attribution (§7).
	currentPartial string
	partialStack   []string

	// complexity budget bookkeeping, shared across partials within one
	// render (root scope's counters are what render_depth/offset share;
	// the instruction counter lives on the VM instead since it is purely
	// an execution-loop concern, not part of the template-visible state).
}

// NewScope creates a root scope seeded with env as the outermost frame,
// using the engine-wide defaults for strict/render-errors mode.
func NewScope(env Env) *Scope {
	root := Frame{}
	for k, v := range env {
		root[k] = v
	}
	return &Scope{
		frames:          []Frame{root},
		counters:        map[string]int64{},
		cycles:          map[string]*cycleState{},
		ifchanged:       map[int]string{},
		fileSystem:      MapFileSystem{},
		strict:          options.strict,
		renderErrs:      options.renderErrs,
		offsetRegisters: map[string]int{},
	}
}

// WithFileSystem attaches a partial loader and returns the scope for
// chaining.
func (s *Scope) WithFileSystem(fs FileSystem) *Scope {
	s.fileSystem = fs
	return s
}

// SetStrict overrides this scope's strict-mode policy (see §7).
func (s *Scope) SetStrict(strict bool) *Scope {
	s.strict = strict
	s.renderErrs = !strict
	return s
}

// isolated creates the scope variant §3 specifies for `render`: fresh
// frames/forloop-stack/interrupts/capture-stack/cycles/counters, inheriting
// only the file system, render depth, mode flags and partial attribution.
func (s *Scope) isolated(initial Frame) *Scope {
	if initial == nil {
		initial = Frame{}
	}
	return &Scope{
		frames:          []Frame{initial},
		counters:        map[string]int64{},
		cycles:          map[string]*cycleState{},
		ifchanged:       map[int]string{},
		fileSystem:      s.fileSystem,
		strict:          s.strict,
		renderErrs:      s.renderErrs,
		renderDepth:     s.renderDepth,
		offsetRegisters: map[string]int{},
		currentPartial:  s.currentPartial,
		partialStack:    append([]string(nil), s.partialStack...),
	}
}

// pushScope/popScope implement PUSH_SCOPE/POP_SCOPE: a fresh innermost
// frame for block-local bindings (e.g. the arguments an include binds).
func (s *Scope) pushScope() { s.frames = append(s.frames, Frame{}) }
func (s *Scope) popScope()  { s.frames = s.frames[:len(s.frames)-1] }

// assign binds in the root frame (ASSIGN).
func (s *Scope) assign(name string, v Value) { s.frames[0][name] = v }

// assignLocal binds in the current (innermost) frame (ASSIGN_LOCAL).
func (s *Scope) assignLocal(name string, v Value) {
	s.frames[len(s.frames)-1][name] = v
}

// find walks frames innermost-first (FIND_VAR); a miss is Nil, not an
// error.
func (s *Scope) find(name string) Value {
	if name == "forloop" {
		if len(s.forloops) > 0 {
			return s.forloops[len(s.forloops)-1].drop(s)
		}
		return Nil()
	}
	for i := len(s.frames) - 1; i >= 0; i-- {
		if v, ok := s.frames[i][name]; ok {
			return v
		}
	}
	return Nil()
}

func (s *Scope) forloopValue(idx int) Value {
	if idx < 0 || idx >= len(s.forloops) {
		return Nil()
	}
	return s.forloops[idx].drop(s)
}

// pushForloop/popForloop maintain the forloop stack; parent is captured by
// index, not by owning pointer, per the design note on cyclic references.
func (s *Scope) pushForloop(loopName, varName string, items []Value) *Forloop {
	fl := &Forloop{Name: loopName, Length: len(items), items: items, varName: varName}
	if len(s.forloops) > 0 {
		fl.hasPrnt = true
		fl.parent = len(s.forloops) - 1
	}
	s.forloops = append(s.forloops, forloopEntry{fl: fl})
	return fl
}

func (s *Scope) pushTablerow(loopName, varName string, items []Value, cols int) *Tablerow {
	tr := &Tablerow{Forloop: Forloop{Name: loopName, Length: len(items), items: items, varName: varName}, Cols: cols}
	if len(s.forloops) > 0 {
		tr.hasPrnt = true
		tr.parent = len(s.forloops) - 1
	}
	s.forloops = append(s.forloops, forloopEntry{trl: tr})
	return tr
}

func (s *Scope) popForloop() { s.forloops = s.forloops[:len(s.forloops)-1] }

// pushInterrupt/popInterrupt/pendingInterrupt implement the break/continue
// signaling mechanism (§4.7, §9): an explicit field, not a coroutine.
func (s *Scope) pushInterrupt(k InterruptKind) { s.interrupts = append(s.interrupts, interrupt{kind: k}) }
func (s *Scope) popInterrupt() {
	if len(s.interrupts) > 0 {
		s.interrupts = s.interrupts[:len(s.interrupts)-1]
	}
}
func (s *Scope) pendingInterrupt() (InterruptKind, bool) {
	if len(s.interrupts) == 0 {
		return 0, false
	}
	return s.interrupts[len(s.interrupts)-1].kind, true
}

// incrementCounter reads-then-increments and decrementCounter
// decrements-then-reads a named counter (INCREMENT/DECREMENT, §4.7).
func (s *Scope) incrementCounter(name string) int64 {
	v := s.counters[name]
	s.counters[name] = v + 1
	return v
}

func (s *Scope) decrementCounter(name string) int64 {
	v := s.counters[name] - 1
	s.counters[name] = v
	return v
}

// cycleStep implements CYCLE_STEP's identity-keyed index advance.
func (s *Scope) cycleStep(identity string, n int) int {
	if n == 0 {
		return -1
	}
	cs, ok := s.cycles[identity]
	if !ok {
		cs = &cycleState{}
		s.cycles[identity] = cs
	}
	idx := cs.index % n
	cs.index++
	return idx
}

// checkIfchanged implements IFCHANGED_CHECK: compares s against the value
// last seen at this tag site (id), records s as the new last value, and
// reports whether it changed (the first call at a given id always counts
// as changed).
func (s *Scope) checkIfchanged(id int, text string) bool {
	old, ok := s.ifchanged[id]
	s.ifchanged[id] = text
	return !ok || old != text
}

// enterPartial/leavePartial track render_depth and per-partial error
// attribution (§7).
func (s *Scope) enterPartial(name string) {
	s.renderDepth++
	s.partialStack = append(s.partialStack, s.currentPartial)
	s.currentPartial = name
}

func (s *Scope) leavePartial() {
	s.renderDepth--
	n := len(s.partialStack)
	s.currentPartial = s.partialStack[n-1]
	s.partialStack = s.partialStack[:n-1]
}

// pushCapture/popCapture implement PUSH_CAPTURE/POP_CAPTURE: while a
// capture buffer is on top, writeOutput appends to it instead of the main
// output (§3, §4.2's capture lowering rule).
func (s *Scope) pushCapture() {
	s.captures = append(s.captures, &strings.Builder{})
}

func (s *Scope) popCapture() string {
	n := len(s.captures)
	buf := s.captures[n-1]
	s.captures = s.captures[:n-1]
	return buf.String()
}

// writeOutput appends to the top capture buffer if any, else to main.
func (s *Scope) writeOutput(main *strings.Builder, text string) {
	if n := len(s.captures); n > 0 {
		s.captures[n-1].WriteString(text)
		return
	}
	main.WriteString(text)
}
