package liquid

// Drop is the host value bridge's capability set (§6): an opaque,
// polymorphic user object. Any method may be absent — absence means the
// engine treats the object as opaque for that capability and the
// operation returns Nil/false as appropriate, never an error. This
// mirrors a preference for small capability interfaces over one fat
// interface.
type Drop interface {
	// ToLiquid is invoked before a value is rendered (WRITE_VALUE); it may
	// return another Value, commonly a safe view of the host object. A nil
	// return means "render as empty".
	ToLiquid() *Value

	// ToLiquidValue is invoked for truthiness and comparison checks.
	ToLiquidValue() *Value

	// Index is invoked for LOOKUP_KEY / LOOKUP_CONST_KEY.
	Index(key Value) Value

	// Iterate is invoked for FOR_INIT when the value is a Drop.
	Iterate() []Value
}

// BaseDrop is an embeddable no-op implementation: host types that only
// want to support a subset of the capability set can embed BaseDrop and
// override just the methods they implement, the way the design's "four
// optional function pointers" capability record is meant to be used from
// idiomatic Go (an interface plus a safe embeddable default, rather than a
// struct of nilable funcs).
type BaseDrop struct{}

func (BaseDrop) ToLiquid() *Value      { return nil }
func (BaseDrop) ToLiquidValue() *Value { return nil }
func (BaseDrop) Index(Value) Value     { return Nil() }
func (BaseDrop) Iterate() []Value      { return nil }
