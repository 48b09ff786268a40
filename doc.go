// Package liquid implements a dynamic, sandbox-safe templating language
// compiler and execution engine: tags delimited by {% ... %}, output
// expressions by {{ ... }}, with filter pipelines, control-flow tags,
// partials, captures, cycles and counters.
//
// A template is compiled through a small pipeline:
//
//	source -> lex -> parse (direct IR emission) -> optimize -> link -> run
//
// The parser never builds an AST: it emits a linear, stack-machine
// intermediate representation directly, through a Builder. An optional
// optimizer pass rewrites that IR (constant folding, loop-invariant
// hoisting, lookup caching, register allocation for temporaries...), and a
// linker resolves symbolic jump labels to instruction indices immediately
// before a Program is handed to the VM.
//
// A tiny example:
//
//	prog, err := liquid.Compile("<string>", "Hello {{ name | upcase }}!")
//	if err != nil {
//	    panic(err)
//	}
//	out, err := prog.Run(liquid.NewScope(liquid.Env{"name": liquid.Str("florian")}))
//	if err != nil {
//	    panic(err)
//	}
//	fmt.Println(out) // Output: Hello FLORIAN!
package liquid
