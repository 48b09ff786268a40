package liquid

import "strings"

// parser walks the segment stream a templateLexer produced and drives tag
// handlers registered in tags.go. It never builds an AST: every segment
// lowers straight through a Builder, per §4.2.
type parser struct {
	name string
	segs []segment
	pos  int
	b    *Builder

	// ctrlStack tracks every for/tablerow/capture scope currently being
	// parsed, innermost last, so break/continue tags can find their target
	// without threading it through every intermediate tag parser's
	// signature. A capture frame's cont and brk both point at the
	// capture's own exit label: break/continue crossing a capture boundary
	// can't JUMP straight to the loop, since that would skip the
	// capture's POP_CAPTURE and leave the capture stack unbalanced, so
	// instead they PUSH_INTERRUPT and jump to the nearest open capture's
	// exit, which re-raises the interrupt past its own POP_CAPTURE/ASSIGN
	// with JUMP_IF_INTERRUPT once it is safe to do so.
	ctrlStack []ctrlFrame

	// nextIfchangedID hands out a unique site id to every {% ifchanged %}
	// tag parsed, the key IFCHANGED_CHECK uses into the scope's per-site
	// last-seen-content table.
	nextIfchangedID int
}

// parseTemplate compiles one template's source into an unlinked Program.
func parseTemplate(name, src string) (*Program, error) {
	segs, err := lexTemplateShell(name, src)
	if err != nil {
		return nil, err
	}
	p := &parser{name: name, segs: segs, b: newBuilder(name)}
	stop, _, _, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	if stop != "" || !p.atEnd() {
		return nil, newSyntaxError(name, p.here(), "unexpected tag %q with no matching opening tag", stop)
	}
	return p.b.Build(), nil
}

func (p *parser) atEnd() bool { return p.pos >= len(p.segs) }

func (p *parser) here() Span {
	if p.pos < len(p.segs) {
		return p.segs[p.pos].span
	}
	if len(p.segs) > 0 {
		return p.segs[len(p.segs)-1].span
	}
	return Span{}
}

// parseBody consumes segments, emitting IR as it goes, until it either runs
// out of input or hits a tag segment whose name is one of stopNames. It
// returns the stop name found (empty at EOF) together with a cursor
// positioned just after that stop tag's name, so the caller can parse
// whatever arguments the stop tag itself carries (e.g. "elsif cond").
// Block tags call this recursively for their own bodies
// (if/for/case/capture/...).
func (p *parser) parseBody(stopNames ...string) (stop string, stopCur *tokenCursor, stopSpan Span, err error) {
	for !p.atEnd() {
		seg := p.segs[p.pos]
		switch seg.kind {
		case segRaw:
			p.b.WriteRaw(seg.text, seg.span)
			p.pos++

		case segOutput:
			if e := p.parseOutput(seg); e != nil {
				return "", nil, Span{}, e
			}
			p.pos++

		case segTag:
			toks, e := lexExpr(p.name, seg.text, seg.span.Offset, seg.span.Line)
			if e != nil {
				return "", nil, Span{}, e
			}
			c := newTokenCursor(p.name, toks)
			nameTok := c.Current()
			if nameTok == nil {
				return "", nil, Span{}, newSyntaxError(p.name, seg.span, "empty tag")
			}

			for _, s := range stopNames {
				if nameTok.Val == s {
					c.Consume()
					p.pos++
					return s, c, seg.span, nil
				}
			}

			handler, ok := tagRegistry[nameTok.Val]
			if !ok {
				return "", nil, Span{}, newSyntaxError(p.name, nameTok.Span, "unknown tag %q", nameTok.Val)
			}
			c.Consume()
			p.pos++
			if e := handler(p, c, seg.span); e != nil {
				return "", nil, Span{}, e
			}
		}
	}
	if len(stopNames) > 0 {
		return "", nil, Span{}, newSyntaxError(p.name, p.here(), "unexpected end of template, expected one of %v", stopNames)
	}
	return "", nil, Span{}, nil
}

// skipUntilTag scans raw segments, without lexing or evaluating anything,
// until it finds a tag segment named endName (honoring nested
// startName/endName pairs). comment uses this: its body may contain
// malformed tag syntax that must never be parsed.
func (p *parser) skipUntilTag(startName, endName string) error {
	depth := 1
	for {
		if p.atEnd() {
			return newSyntaxError(p.name, p.here(), "unterminated %q, expected %q", startName, endName)
		}
		seg := p.segs[p.pos]
		p.pos++
		if seg.kind != segTag {
			continue
		}
		name := strings.Fields(seg.text)
		if len(name) == 0 {
			continue
		}
		switch name[0] {
		case startName:
			depth++
		case endName:
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
}

// expectImmediateTag requires the very next segment to be a tag whose name
// is one of names, with no raw/output content in between. case/when uses
// this for the gap between {% case %} and its first {% when %}: that gap
// can never execute (case dispatches straight to a matching when), so
// unlike parseBody it must not be allowed to silently emit dead output
// instructions.
func (p *parser) expectImmediateTag(names ...string) (stop string, cur *tokenCursor, sp Span, err error) {
	if p.atEnd() || p.segs[p.pos].kind != segTag {
		return "", nil, Span{}, newSyntaxError(p.name, p.here(), "expected one of %v", names)
	}
	seg := p.segs[p.pos]
	toks, err := lexExpr(p.name, seg.text, seg.span.Offset, seg.span.Line)
	if err != nil {
		return "", nil, Span{}, err
	}
	c := newTokenCursor(p.name, toks)
	nameTok := c.Current()
	if nameTok == nil {
		return "", nil, Span{}, newSyntaxError(p.name, seg.span, "empty tag")
	}
	for _, n := range names {
		if nameTok.Val == n {
			c.Consume()
			p.pos++
			return n, c, seg.span, nil
		}
	}
	return "", nil, Span{}, newSyntaxError(p.name, nameTok.Span, "expected one of %v, got %q", names, nameTok.Val)
}

func (p *parser) parseOutput(seg segment) error {
	toks, err := lexExpr(p.name, seg.text, seg.span.Offset, seg.span.Line)
	if err != nil {
		return err
	}
	c := newTokenCursor(p.name, toks)
	if c.AtEnd() {
		return newSyntaxError(p.name, seg.span, "empty output expression")
	}
	if err := parseOrExpr(c, p.b); err != nil {
		return err
	}
	if !c.AtEnd() {
		return c.Error("unexpected trailing tokens in output expression")
	}
	p.b.Simple(OpWriteValue, seg.span)
	return nil
}
