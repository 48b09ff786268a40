package liquid

// Version identifies this engine, for embedders that want to report it.
const Version = "v1"

// Option configures a single Compile call, layered on top of the
// engine-wide defaults options.go's setters control.
type Option func(*compileConfig)

type compileConfig struct {
	disableOptimizer bool
	onlyPasses       map[string]bool
}

// WithOptimizerDisabled skips the optimizer pipeline for this Compile call
// only, independent of the engine-wide DisableOptimizer flag — needed by
// differential tests that want both an optimized and unoptimized Program
// from the same source in the same process (§8 invariant 3).
func WithOptimizerDisabled() Option {
	return func(c *compileConfig) { c.disableOptimizer = true }
}

// WithOptimizerPasses restricts the optimizer to exactly the named passes
// (the names optPassList assigns each), for isolating one pass's effect.
func WithOptimizerPasses(names ...string) Option {
	return func(c *compileConfig) {
		c.onlyPasses = make(map[string]bool, len(names))
		for _, n := range names {
			c.onlyPasses[n] = true
		}
	}
}

// Compile lexes, parses, optimizes, allocates registers for, and links src
// into a Program ready for Run. name identifies the source in error
// messages.
func Compile(name, src string, opts ...Option) (*Program, error) {
	cfg := &compileConfig{}
	for _, o := range opts {
		o(cfg)
	}

	prog, err := parseTemplate(name, src)
	if err != nil {
		return nil, err
	}

	if !cfg.disableOptimizer {
		optimize(prog, cfg.onlyPasses)
	}
	allocate(prog)
	if err := link(prog); err != nil {
		return nil, err
	}
	return prog, nil
}

// MustCompile behaves like Compile but panics on error.
func MustCompile(name, src string, opts ...Option) *Program {
	prog, err := Compile(name, src, opts...)
	if err != nil {
		panic(err)
	}
	return prog
}
