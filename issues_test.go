package liquid

import (
	"testing"

	. "github.com/go-check/check"
)

// Hook up gocheck into the "go test" runner.

func TestIssues(t *testing.T) { TestingT(t) }

type IssueTestSuite struct{}

var _ = Suite(&IssueTestSuite{})

// TestBreakAbsorbedInsideUnenclosedCapture regression-tests §8 invariant 7:
// a break used inside a {% capture %} that has no enclosing loop is legal
// and silently absorbed at the capture's exit, rather than a syntax error
// or a signal that leaks into some unrelated loop rendered afterward.
func (s *IssueTestSuite) TestBreakAbsorbedInsideUnenclosedCapture(c *C) {
	prog, err := Compile("<test>", `{% capture x %}before{% break %}after{% endcapture %}`+
		`{{ x }}{% for i in (1..3) %}{{ i }}{% endfor %}`)
	c.Assert(err, IsNil)

	out, err := prog.Run(NewScope(Env{}))
	c.Assert(err, IsNil)
	c.Check(out, Equals, "before123")
}

// TestBreakPropagatesThroughEnclosingCapture regression-tests the other half
// of invariant 7: when the capture IS nested inside a loop, break/continue
// still reaches that loop once the capture unwinds.
func (s *IssueTestSuite) TestBreakPropagatesThroughEnclosingCapture(c *C) {
	prog, err := Compile("<test>", `{% for i in (1..5) %}`+
		`{% capture x %}{% if i == 3 %}{% break %}{% endif %}{% endcapture %}`+
		`{{ i }}{% endfor %}`)
	c.Assert(err, IsNil)

	out, err := prog.Run(NewScope(Env{}))
	c.Assert(err, IsNil)
	c.Check(out, Equals, "12")
}

// TestRenderIsolatesScope regression-tests invariant 6: a {% render %}ed
// partial sees only what `with`/`for`/keyword args hand it, never the
// caller's other variables.
func (s *IssueTestSuite) TestRenderIsolatesScope(c *C) {
	fs := MapFileSystem{"p": "{{ secret }}|{{ shown }}"}
	prog, err := Compile("<test>", `{% assign secret = "hidden" %}{% render 'p', shown: secret %}`)
	c.Assert(err, IsNil)

	out, err := prog.Run(NewScope(Env{}).WithFileSystem(fs))
	c.Assert(err, IsNil)
	c.Check(out, Equals, "|hidden")
}

// TestIncludeSharesScope is render's counterpart: {% include %} runs against
// the caller's own scope, so a variable the caller already assigned is
// visible inside the partial without being passed explicitly.
func (s *IssueTestSuite) TestIncludeSharesScope(c *C) {
	fs := MapFileSystem{"p": "{{ secret }}"}
	prog, err := Compile("<test>", `{% assign secret = "visible" %}{% include 'p' %}`)
	c.Assert(err, IsNil)

	out, err := prog.Run(NewScope(Env{}).WithFileSystem(fs))
	c.Assert(err, IsNil)
	c.Check(out, Equals, "visible")
}

// TestInlineErrorFidelity checks the non-strict-mode inline error marker
// §7 describes matches exactly, including the partial name and line number
// a filter failure is attributed to.
func (s *IssueTestSuite) TestInlineErrorFidelity(c *C) {
	fs := MapFileSystem{"p": "ok\n{{ 1 | divided_by: 0 }}\n"}
	prog, err := Compile("<test>", `{% render 'p' %}`)
	c.Assert(err, IsNil)

	out, err := prog.Run(NewScope(Env{}).WithFileSystem(fs))
	c.Assert(err, IsNil)
	c.Check(out, Equals, "ok\nLiquid error (p line 2): divided_by: division by zero\n")
}

// TestStrictModeSurfacesError checks that the same failure, under strict
// mode, is returned as an error instead of inlined into the output.
func (s *IssueTestSuite) TestStrictModeSurfacesError(c *C) {
	fs := MapFileSystem{"p": "{{ 1 | divided_by: 0 }}"}
	prog, err := Compile("<test>", `{% render 'p' %}`)
	c.Assert(err, IsNil)

	_, err = prog.Run(NewScope(Env{}).WithFileSystem(fs).SetStrict(true))
	c.Assert(err, NotNil)
}

// TestOffsetContinueResumesWhereLastForLeftOff regression-tests the
// `offset: continue` loop register described in scope.go's offsetRegisters.
func (s *IssueTestSuite) TestOffsetContinueResumesWhereLastForLeftOff(c *C) {
	prog, err := Compile("<test>", `{% for i in (1..6) limit: 2 %}{{ i }}{% endfor %}|`+
		`{% for i in (1..6) offset: continue %}{{ i }}{% endfor %}`)
	c.Assert(err, IsNil)

	out, err := prog.Run(NewScope(Env{}))
	c.Assert(err, IsNil)
	c.Check(out, Equals, "12|3456")
}
