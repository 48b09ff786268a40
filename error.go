package liquid

import (
	"fmt"

	juju "github.com/juju/errors"
)

// ErrorKind classifies a compile- or render-time error per the three error
// kinds the design distinguishes: SyntaxError is raised by the lexer or
// parser, RuntimeError by the VM, FilterError by a filter implementation.
type ErrorKind int

const (
	// SyntaxErrorKind covers malformed tokens, mismatched tags or unknown
	// tag names. Always propagates from compile time, regardless of mode.
	SyntaxErrorKind ErrorKind = iota
	// RuntimeErrorKind covers VM-detected faults: non-iterable loop
	// collections, incomparable ordering, missing partials, recursion-depth
	// overflow, complexity-budget overflow.
	RuntimeErrorKind
	// FilterErrorKind covers errors raised from within a filter
	// implementation. Always recoverable per enclosing expression.
	FilterErrorKind
)

func (k ErrorKind) String() string {
	switch k {
	case SyntaxErrorKind:
		return "SyntaxError"
	case RuntimeErrorKind:
		return "RuntimeError"
	case FilterErrorKind:
		return "FilterError"
	default:
		return "Error"
	}
}

// Error is the error type returned by every stage of the pipeline. If you
// want to return an error from your own filter, fill in as much as you
// have; Sender and ErrorMsg (or OrigError) are the only required fields.
type Error struct {
	Kind ErrorKind

	Filename string
	Line     int
	Column   int

	// Partial is the innermost partial name the error is attributed to
	// (empty for the top-level template), per the design's per-partial
	// attribution rule.
	Partial string

	Token *Token

	Sender   string
	ErrorMsg string

	// OrigError is the underlying Go error, when there is one; wrapped via
	// juju/errors so a span/partial annotation can be appended without
	// losing the original error chain.
	OrigError error
}

// Error renders a human-readable error string.
func (e *Error) Error() string {
	s := "[" + e.Kind.String()
	if e.Sender != "" {
		s += " (where: " + e.Sender + ")"
	}
	if e.Filename != "" {
		s += " in " + e.Filename
	}
	if e.Line > 0 {
		s += fmt.Sprintf(" | Line %d Col %d", e.Line, e.Column)
		if e.Token != nil {
			s += fmt.Sprintf(" near '%s'", e.Token.Val)
		}
	}
	s += "] "
	if e.ErrorMsg != "" {
		s += e.ErrorMsg
	} else if e.OrigError != nil {
		s += e.OrigError.Error()
	}
	return s
}

// Message returns just the human-readable error text, without positional
// decoration: what the inline "Liquid error ..." marker embeds.
func (e *Error) Message() string {
	if e.ErrorMsg != "" {
		return e.ErrorMsg
	}
	if e.OrigError != nil {
		return e.OrigError.Error()
	}
	return e.Kind.String()
}

// annotate attaches positional context to an underlying error the way
// juju/errors is meant to: the original error chain survives, readable
// through errors.Cause, while the message gains positional context.
func annotate(err error, format string, args ...interface{}) error {
	return juju.Annotatef(err, format, args...)
}

// newRuntimeError builds a RuntimeError attributed to the given span and
// partial, wrapping origErr (if any) with juju/errors so the original cause
// remains inspectable.
func newRuntimeError(sender string, sp Span, partial string, origErr error, format string, args ...interface{}) *Error {
	msg := fmt.Sprintf(format, args...)
	if origErr != nil {
		origErr = annotate(origErr, "%s", msg)
	}
	return &Error{
		Kind:      RuntimeErrorKind,
		Sender:    sender,
		Line:      sp.Line,
		Partial:   partial,
		ErrorMsg:  msg,
		OrigError: origErr,
	}
}

func newFilterError(name string, sp Span, partial string, origErr error) *Error {
	return &Error{
		Kind:      FilterErrorKind,
		Sender:    "filter:" + name,
		Line:      sp.Line,
		Partial:   partial,
		ErrorMsg:  origErr.Error(),
		OrigError: annotate(origErr, "filter %q", name),
	}
}

func newSyntaxError(sender string, sp Span, format string, args ...interface{}) *Error {
	return &Error{
		Kind:     SyntaxErrorKind,
		Sender:   sender,
		Line:     sp.Line,
		ErrorMsg: fmt.Sprintf(format, args...),
	}
}
