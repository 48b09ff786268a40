package liquid

import (
	"log"
	"os"
)

// engineOptions holds process-wide policy knobs: a single package-level
// options struct toggled by setter functions rather than threading a
// config object through every call. Per-render policy (strict mode,
// render-errors mode) additionally
// lives on Scope so that concurrent renders can disagree with each other;
// these options are the engine-wide defaults new Scopes are seeded with.
type engineOptions struct {
	debug       bool
	traceVM     bool
	strict      bool
	renderErrs  bool
	maxDepth    int
	maxInstr    int64
	optDisabled bool
}

var (
	options = engineOptions{
		renderErrs: true,
		maxDepth:   100,
		maxInstr:   0, // 0 = unbounded
	}
	logger = log.New(os.Stdout, "[liquid] ", log.LstdFlags)
)

// SetDebug toggles compiler-side debug logging (optimizer pass tracing).
func SetDebug(b bool) { options.debug = b }

// SetTraceVM toggles opcode-dispatch tracing in the VM.
func SetTraceVM(b bool) { options.traceVM = b }

// SetStrict toggles strict-mode as the default for new scopes: in strict
// mode a RuntimeError/FilterError propagates out of the render instead of
// being caught and rendered inline.
func SetStrict(b bool) {
	options.strict = b
	options.renderErrs = !b
}

// SetMaxRenderDepth bounds partial-nesting recursion (render_depth in the
// design). The zero value restores the default of 100.
func SetMaxRenderDepth(n int) {
	if n <= 0 {
		n = 100
	}
	options.maxDepth = n
}

// SetMaxInstructions bounds the per-render complexity budget: the VM raises
// a fatal error once it has dispatched this many instructions. Zero means
// unbounded.
func SetMaxInstructions(n int64) { options.maxInstr = n }

// DisableOptimizer turns off the optimizer pipeline engine-wide, useful for
// differential testing against the unoptimized IR (invariant: VM(link(parse
// (s))) == VM(link(optimize(parse(s)))) for all well-formed s).
func DisableOptimizer(b bool) { options.optDisabled = b }

func logf(format string, items ...interface{}) {
	if options.debug {
		logger.Printf(format, items...)
	}
}

func tracef(format string, items ...interface{}) {
	if options.traceVM {
		logger.Printf(format, items...)
	}
}
