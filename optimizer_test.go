package liquid

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// valueComparer lets cmp.Diff compare Instruction slices that carry Values
// without reaching into Value's unexported payload fields (or, transitively,
// decimal.Decimal's): two Values are equal for test purposes iff they agree
// on Kind and rendered output.
var valueComparer = cmp.Comparer(func(a, b Value) bool {
	return a.Kind() == b.Kind() && a.ToOutputString() == b.ToOutputString()
})

// stripSpans zeroes every instruction's Span so golden vectors don't have to
// track source offsets, which shift with unrelated whitespace changes.
func stripSpans(code []Instruction) []Instruction {
	out := make([]Instruction, len(code))
	for i, ins := range code {
		ins.Span = Span{}
		out[i] = ins
	}
	return out
}

func mustParse(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := parseTemplate("<test>", src)
	if err != nil {
		t.Fatalf("parseTemplate(%q): %v", src, err)
	}
	return prog
}

func TestFoldConstantFilters(t *testing.T) {
	prog := mustParse(t, "{{ 'hello' | upcase }}")
	if !passFoldConstantFilters(prog) {
		t.Fatal("passFoldConstantFilters reported no change, expected the upcase call to fold")
	}
	want := []Instruction{
		{Op: OpConstString, Str: "HELLO"},
		{Op: OpWriteValue},
	}
	if diff := cmp.Diff(want, stripSpans(prog.Code), valueComparer); diff != "" {
		t.Errorf("fold-constant-filters mismatch (-want +got):\n%s", diff)
	}
}

func TestFoldConstantOpsComparison(t *testing.T) {
	prog := mustParse(t, "{% if 1 == 1 %}yes{% endif %}")
	changed := false
	for passFoldConstantOps(prog) {
		changed = true
	}
	if !changed {
		t.Fatal("passFoldConstantOps reported no change for a literal comparison")
	}
	for _, ins := range prog.Code {
		if ins.Op == OpCompare {
			t.Errorf("constant comparison 1 == 1 was not folded away, found %v", ins.Op)
		}
	}
}

func TestLinkedProgramHasNoLabels(t *testing.T) {
	prog := mustParse(t, "{% if x %}a{% else %}b{% endif %}")
	optimize(prog, nil)
	allocate(prog)
	if err := link(prog); err != nil {
		t.Fatalf("link: %v", err)
	}
	for _, ins := range prog.Code {
		if ins.Op == OpLabel {
			t.Errorf("linked program still contains an OpLabel instruction: %+v", ins)
		}
	}
}

// TestOptimizeIdempotent checks that running the full pipeline (every pass
// once, in order) a second time over its own output is a no-op, the
// property §8 invariant 3 (the optimizer never changes render semantics)
// depends on: if a second run could still find work, the first run had
// left an opportunity untaken.
func TestOptimizeIdempotent(t *testing.T) {
	prog := mustParse(t, "{% for x in (1..5) %}{{ x | plus: 1 | times: 2 }}{% endfor %}")
	optimize(prog, nil)
	first := append([]Instruction(nil), prog.Code...)
	optimize(prog, nil)
	if diff := cmp.Diff(stripSpans(first), stripSpans(prog.Code), valueComparer); diff != "" {
		t.Errorf("optimize is not idempotent (-first +second):\n%s", diff)
	}
}

// TestOptimizerPassAllowlist checks WithOptimizerPasses actually restricts
// which passes run: asking for only fold-constant-filters must leave the
// {% if false %} condition's IS_TRUTHY in place, which fold-constant-ops
// would otherwise fold into the constant.
func TestOptimizerPassAllowlist(t *testing.T) {
	prog, err := Compile("<test>", "{{ 'a' | upcase }}{% if false %}x{% endif %}",
		WithOptimizerPasses("fold-constant-filters"))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	found := false
	for _, ins := range prog.Code {
		if ins.Op == OpIsTruthy {
			found = true
		}
	}
	if !found {
		t.Error("expected the {% if false %} IS_TRUTHY to survive when only fold-constant-filters is allowed")
	}
}

func TestOptPassListNames(t *testing.T) {
	want := []string{
		"inline-simple-partials",
		"fold-constant-ops",
		"fold-constant-filters",
		"fold-constant-writes",
		"collapse-const-lookup-paths",
		"fuse-findvar-path",
		"remove-redundant-truthy",
		"remove-noops",
		"remove-jumps-to-next-label",
		"merge-raw-writes",
		"remove-unreachable-code",
		"remerge-raw-writes",
		"fold-constant-captures",
		"remove-empty-raw-writes",
		"propagate-constants",
		"refold-after-propagation",
		"hoist-loop-invariants",
		"cache-repeated-lookups",
		"local-value-numbering",
	}
	got := make([]string, 0, len(want))
	for _, p := range optPassList() {
		got = append(got, p.name)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("optPassList() name/order mismatch (-want +got):\n%s", diff)
	}
}
