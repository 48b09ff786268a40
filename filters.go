package liquid

import "fmt"

// FilterFunc is a filter's implementation: it receives the pipeline's
// receiver value (already resolved through any Drop) and its argument
// list in source order, the calling convention CALL_FILTER's argc operand
// encodes (§4.2, §4.7). A filter reports failure by returning an error,
// which the VM wraps into a FilterError at the call site.
type FilterFunc func(recv Value, args []Value) (Value, error)

var filterRegistry = make(map[string]FilterFunc)

// FilterExists reports whether name is registered.
func FilterExists(name string) bool {
	_, ok := filterRegistry[name]
	return ok
}

// RegisterFilter adds a filter under name, for embedders extending the
// standard catalog. Re-registering an existing name is an error, guarding
// against silently shadowing a built-in.
func RegisterFilter(name string, fn FilterFunc) error {
	if FilterExists(name) {
		return fmt.Errorf("liquid: filter %q is already registered", name)
	}
	filterRegistry[name] = fn
	return nil
}

// mustRegisterFilter is RegisterFilter for this package's own init-time
// catalog registration, where a name collision is a programming error.
func mustRegisterFilter(name string, fn FilterFunc) {
	if err := RegisterFilter(name, fn); err != nil {
		panic(err)
	}
}

func lookupFilter(name string) (FilterFunc, bool) {
	fn, ok := filterRegistry[name]
	return fn, ok
}

// requireArgc and requireArgcRange are the shared arity checks every
// filter implementation in filters_builtin.go opens with.
func requireArgc(name string, args []Value, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s: expected %d argument(s), got %d", name, n, len(args))
	}
	return nil
}

func requireArgcRange(name string, args []Value, min, max int) error {
	if len(args) < min || len(args) > max {
		return fmt.Errorf("%s: expected %d-%d argument(s), got %d", name, min, max, len(args))
	}
	return nil
}
