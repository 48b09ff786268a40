package liquid

import "strconv"

// Opcode enumerates every instruction the compiler can emit. This is the
// complete opcode list named by the design; the optimizer, linker and VM
// all operate on this fixed set.
type Opcode int

const (
	OpNoop Opcode = iota

	// Output
	OpWriteRaw
	OpWriteValue

	// Constants
	OpConstNil
	OpConstTrue
	OpConstFalse
	OpConstInt
	OpConstFloat
	OpConstString
	OpConstRange
	OpConstEmpty
	OpConstBlank

	// Variable access
	OpFindVar
	OpFindVarDynamic
	OpFindVarPath
	OpLookupKey
	OpLookupConstKey
	OpLookupConstPath
	OpLookupCommand

	// Control flow
	OpLabel
	OpJump
	OpJumpIfFalse
	OpJumpIfTrue
	OpJumpIfEmpty
	OpJumpIfInterrupt
	OpHalt

	// Comparison / logic
	OpCompare
	OpCaseCompare
	OpContains
	OpBoolNot
	OpIsTruthy

	// Scope / assignment
	OpPushScope
	OpPopScope
	OpAssign
	OpAssignLocal

	// Loops
	OpForInit
	OpForNext
	OpForEnd
	OpPushForloop
	OpPopForloop
	OpTablerowInit
	OpTablerowNext
	OpTablerowEnd
	OpPushInterrupt
	OpPopInterrupt

	// Filters
	OpCallFilter

	// Capture
	OpPushCapture
	OpPopCapture

	// Partials
	OpRenderPartial
	OpIncludePartial
	OpConstRender
	OpConstInclude

	// Counters / cycle
	OpIncrement
	OpDecrement
	OpCycleStep
	OpCycleStepVar

	// Stack
	OpDup
	OpPop
	OpBuildHash
	OpStoreTemp
	OpLoadTemp
	OpNewRange

	// Misc
	OpIfchangedCheck
)

var opcodeNames = map[Opcode]string{
	OpNoop: "NOOP", OpWriteRaw: "WRITE_RAW", OpWriteValue: "WRITE_VALUE",
	OpConstNil: "CONST_NIL", OpConstTrue: "CONST_TRUE", OpConstFalse: "CONST_FALSE",
	OpConstInt: "CONST_INT", OpConstFloat: "CONST_FLOAT", OpConstString: "CONST_STRING",
	OpConstRange: "CONST_RANGE", OpConstEmpty: "CONST_EMPTY", OpConstBlank: "CONST_BLANK",
	OpFindVar: "FIND_VAR", OpFindVarDynamic: "FIND_VAR_DYNAMIC", OpFindVarPath: "FIND_VAR_PATH",
	OpLookupKey: "LOOKUP_KEY", OpLookupConstKey: "LOOKUP_CONST_KEY", OpLookupConstPath: "LOOKUP_CONST_PATH",
	OpLookupCommand: "LOOKUP_COMMAND",
	OpLabel:         "LABEL", OpJump: "JUMP", OpJumpIfFalse: "JUMP_IF_FALSE",
	OpJumpIfTrue: "JUMP_IF_TRUE", OpJumpIfEmpty: "JUMP_IF_EMPTY", OpJumpIfInterrupt: "JUMP_IF_INTERRUPT",
	OpHalt:        "HALT",
	OpCompare:     "COMPARE", OpCaseCompare: "CASE_COMPARE", OpContains: "CONTAINS",
	OpBoolNot:     "BOOL_NOT", OpIsTruthy: "IS_TRUTHY",
	OpPushScope:   "PUSH_SCOPE", OpPopScope: "POP_SCOPE", OpAssign: "ASSIGN", OpAssignLocal: "ASSIGN_LOCAL",
	OpForInit:      "FOR_INIT", OpForNext: "FOR_NEXT", OpForEnd: "FOR_END",
	OpPushForloop:  "PUSH_FORLOOP", OpPopForloop: "POP_FORLOOP",
	OpTablerowInit: "TABLEROW_INIT", OpTablerowNext: "TABLEROW_NEXT", OpTablerowEnd: "TABLEROW_END",
	OpPushInterrupt: "PUSH_INTERRUPT", OpPopInterrupt: "POP_INTERRUPT",
	OpCallFilter:    "CALL_FILTER",
	OpPushCapture:   "PUSH_CAPTURE", OpPopCapture: "POP_CAPTURE",
	OpRenderPartial: "RENDER_PARTIAL", OpIncludePartial: "INCLUDE_PARTIAL",
	OpConstRender:   "CONST_RENDER", OpConstInclude: "CONST_INCLUDE",
	OpIncrement:     "INCREMENT", OpDecrement: "DECREMENT",
	OpCycleStep:     "CYCLE_STEP", OpCycleStepVar: "CYCLE_STEP_VAR",
	OpDup:           "DUP", OpPop: "POP", OpBuildHash: "BUILD_HASH",
	OpStoreTemp:     "STORE_TEMP", OpLoadTemp: "LOAD_TEMP", OpNewRange: "NEW_RANGE",
	OpIfchangedCheck: "IFCHANGED_CHECK",
}

func (op Opcode) String() string {
	if n, ok := opcodeNames[op]; ok {
		return n
	}
	return "UNKNOWN"
}

// CompareOp enumerates the comparison operators COMPARE/CASE_COMPARE carry.
type CompareOp int

const (
	CmpEq CompareOp = iota
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
)

// InterruptKind distinguishes break from continue for PUSH_INTERRUPT /
// JUMP_IF_INTERRUPT.
type InterruptKind int

const (
	InterruptBreak InterruptKind = iota
	InterruptContinue
)

// labelID identifies a symbolic jump target, allocated by the builder and
// resolved to an absolute instruction index by the linker.
type labelID int

// forInitArgs carries FOR_INIT's operand set. limit/offset are optional and
// may appear in either order in the source tag, so the stack push order
// (and therefore the VM's pop order) isn't fixed the way the iterable's is;
// OffsetBeforeLimit records which of the two, when both are present, was
// pushed first.
type forInitArgs struct {
	Var            string
	LoopName       string
	HasLimit       bool
	HasOffset      bool
	OffsetContinue bool
	OffsetBeforeLimit bool
	Reversed       bool
}

// tablerowInitArgs carries TABLEROW_INIT's operand set.
type tablerowInitArgs struct {
	Var      string
	LoopName string
	Cols     int
	HasCols  bool
}

// partialAttrs carries the attributes operand of RENDER_PARTIAL /
// INCLUDE_PARTIAL / CONST_RENDER / CONST_INCLUDE. Every attribute value
// (dynamic name, with-value, for-iterable, each keyword) is evaluated
// in-line right before the instruction and pushed in a fixed order; the
// instruction pops them in reverse, the same push-then-pop-by-flags
// convention FOR_INIT uses for its optional limit/offset.
//
// Push order: [name if NameDynamic], [with-value if HasWith && !WithAll],
// [for-iterable if HasFor], [keyword values in KeywordNames order].
type partialAttrs struct {
	// Name is the literal partial name, or empty if NameDynamic is set
	// (the name is computed at runtime and pushed just before the
	// RENDER_PARTIAL/INCLUDE_PARTIAL instruction executes).
	Name        string
	NameDynamic bool

	HasWith bool
	WithAll bool // include with no with/for/keyword clause: auto-bind caller's var named after the partial
	HasFor  bool
	As      string // bind name for the with/for value; defaults to the partial's base name

	KeywordNames []string
}

// Instruction is one opcode plus its operands, position-keyed by its index
// into Program.Code. Operands are deliberately loosely typed (any) the way
// a linear bytecode stream's operand union is; each opcode's handler in the
// VM knows which field(s) it uses.
type Instruction struct {
	Op Opcode

	// generic operand slots, opcode-dependent
	IntOp    int
	Str      string
	Path     []string // FIND_VAR_PATH's path (after Str's var name) / LOOKUP_CONST_PATH's key list
	Value    Value
	Label    labelID
	Label2   labelID
	CompareO CompareOp
	Interr   InterruptKind

	ForInit   *forInitArgs
	TblInit   *tablerowInitArgs
	Attrs     *partialAttrs

	// Recompute is set on a LOAD_TEMP that replaced a repeated occurrence
	// of some value-producing instruction (by passCacheRepeatedLookups,
	// passLocalValueNumbering or passHoistLoopInvariants): a copy of that
	// original instruction, kept around purely so regalloc.go can revert
	// the caching (re-emit the computation in place of the load) if the
	// temp's live range can't be packed into the physical register cap.
	Recompute *Instruction

	Span Span
}

// Program is the compiled artifact: the instruction vector, each
// instruction carrying its own span, deterministic for a given source and optimizer
// configuration. It is immutable once linked and therefore safe to share
// across concurrently-running renders.
type Program struct {
	Name    string
	Code    []Instruction
	Linked  bool
	NumTemp int // physical temp-slot count after register allocation
}

func (p *Program) String() string {
	s := ""
	for i, ins := range p.Code {
		s += strconv.Itoa(i) + ": " + ins.Op.String()
		if ins.Str != "" {
			s += " " + ins.Str
		}
		s += "\n"
	}
	return s
}
