package liquid

// Span is a source-position marker: a byte offset and length into the
// original template text, plus the 1-based line the span starts on. Every
// lexer token and every compiled Instruction carries one, so runtime errors
// and the §7 inline-error marker can always be attributed to a precise
// location.
type Span struct {
	Offset int
	Length int
	Line   int
}

// End returns the offset just past the span.
func (s Span) End() int { return s.Offset + s.Length }

// Join returns the smallest span covering both s and other. Used when a
// compound expression (e.g. a filter pipeline) wants to report a span
// covering all of its sub-expressions.
func (s Span) Join(other Span) Span {
	if s.Length == 0 {
		return other
	}
	if other.Length == 0 {
		return s
	}
	start := s.Offset
	if other.Offset < start {
		start = other.Offset
	}
	end := s.End()
	if other.End() > end {
		end = other.End()
	}
	line := s.Line
	if other.Line < line || line == 0 {
		line = other.Line
	}
	return Span{Offset: start, Length: end - start, Line: line}
}
