package liquid

// {% for item in collection %}...{% endfor %} iterates an array, range, or
// map, binding item and exposing `forloop` inside the body. An optional
// {% else %} block renders when the collection is empty.
//
//	{% for product in products limit:3 offset:1 reversed %}
//	  {{ product.title }}
//	{% else %}
//	  No products.
//	{% endfor %}
//
// {% tablerow item in collection cols:3 %}...{% endtablerow %} is the same
// iteration (lowered the same way, with TABLEROW_INIT/TABLEROW_NEXT in
// place of FOR_INIT/FOR_NEXT) plus the column attributes on `forloop`. It
// writes no table markup of its own: the output is the body, once per item.
//
// Loop push order onto the stack before FOR_INIT, matched by the VM's pop
// order (reverse): iterable, then limit and offset (each only if present,
// offset not for `offset:continue`) in the order they appear in the tag,
// which forInitArgs.OffsetBeforeLimit records. TABLEROW_INIT takes only
// the iterable.
//
// ctrlFrame is a loop's or capture's entry on parser.ctrlStack. For a loop
// frame, cont/brk are the real FOR_NEXT-top label and the break trampoline
// (which pops the forloop before falling into the loop's exit label). For
// a capture frame, cont and brk are both the capture's own exit label —
// break/continue reaching a capture frame can't jump past it directly.
type ctrlFrame struct {
	isLoop    bool
	cont, brk labelID
}

func tagForParser(p *parser, c *tokenCursor, tagSpan Span) error {
	varTok := c.MatchType(TokenIdentifier)
	if varTok == nil {
		return c.Error("expected loop variable name")
	}
	if c.MatchKeyword("in") == nil {
		return c.Error("expected 'in'")
	}
	if err := parseFilterPipeline(c, p.b); err != nil {
		return err
	}

	// The emptiness check (for the optional {% else %}) runs against the
	// iterable alone, so it must Dup/JumpIfEmpty right here, before limit/
	// offset/reversed arguments push anything else on top of it.
	lElse := p.b.NewLabel()
	lEnd := p.b.NewLabel()
	lBreak := p.b.NewLabel()
	p.b.Simple(OpDup, tagSpan)
	p.b.JumpIfEmpty(lElse, tagSpan)

	args := &forInitArgs{Var: varTok.Val, LoopName: varTok.Val}
	anySeen := false
	for !c.AtEnd() {
		switch {
		case c.MatchKeyword("limit") != nil:
			if c.MatchSymbol(":") == nil {
				return c.Error("expected ':' after limit")
			}
			if err := parseFilterPipeline(c, p.b); err != nil {
				return err
			}
			args.HasLimit = true
			anySeen = true
		case c.MatchKeyword("offset") != nil:
			if c.MatchSymbol(":") == nil {
				return c.Error("expected ':' after offset")
			}
			if t := c.MatchIdentOrKeywordVal("continue"); t != nil {
				args.HasOffset = true
				args.OffsetContinue = true
			} else {
				if err := parseFilterPipeline(c, p.b); err != nil {
					return err
				}
				args.HasOffset = true
				if !anySeen {
					args.OffsetBeforeLimit = true
				}
			}
			anySeen = true
		case c.MatchKeyword("reversed") != nil:
			args.Reversed = true
		default:
			return c.Error("unexpected token in for-tag arguments")
		}
	}

	p.b.ForInit(args, tagSpan)
	lTop := p.b.NewLabel()
	p.b.Label(lTop, tagSpan)
	p.b.ForNext(lTop, lEnd, tagSpan)

	p.ctrlStack = append(p.ctrlStack, ctrlFrame{isLoop: true, cont: lTop, brk: lBreak})
	stop, stopCur, stopSpan, err := p.parseBody("else", "endfor")
	p.ctrlStack = p.ctrlStack[:len(p.ctrlStack)-1]
	if err != nil {
		return err
	}
	p.b.Jump(lTop, stopSpan)
	p.b.Label(lBreak, stopSpan)
	p.b.Simple(OpPopForloop, stopSpan)
	p.b.Label(lEnd, stopSpan)

	if stop == "else" {
		if !stopCur.AtEnd() {
			return stopCur.Error("else takes no arguments")
		}
		lAfterElse := p.b.NewLabel()
		p.b.Jump(lAfterElse, stopSpan)
		p.b.Label(lElse, stopSpan)
		p.b.Simple(OpPop, stopSpan) // discard the DUPed (empty) iterable
		_, stopCur, stopSpan, err = p.parseBody("endfor")
		if err != nil {
			return err
		}
		if !stopCur.AtEnd() {
			return stopCur.Error("endfor takes no arguments")
		}
		p.b.Label(lAfterElse, stopSpan)
		return nil
	}

	if !stopCur.AtEnd() {
		return stopCur.Error("endfor takes no arguments")
	}
	lAfterElse := p.b.NewLabel()
	p.b.Jump(lAfterElse, stopSpan)
	p.b.Label(lElse, stopSpan)
	p.b.Simple(OpPop, stopSpan) // discard the DUPed (empty) iterable
	p.b.Label(lAfterElse, stopSpan)
	return nil
}

func tagTablerowParser(p *parser, c *tokenCursor, tagSpan Span) error {
	varTok := c.MatchType(TokenIdentifier)
	if varTok == nil {
		return c.Error("expected loop variable name")
	}
	if c.MatchKeyword("in") == nil {
		return c.Error("expected 'in'")
	}
	if err := parseFilterPipeline(c, p.b); err != nil {
		return err
	}

	args := &tablerowInitArgs{Var: varTok.Val, LoopName: varTok.Val, Cols: 1}
	for !c.AtEnd() {
		if c.MatchIdentOrKeywordVal("cols") == nil {
			return c.Error("unexpected token in tablerow-tag arguments")
		}
		if c.MatchSymbol(":") == nil {
			return c.Error("expected ':' after cols")
		}
		numTok := c.MatchType(TokenInt)
		if numTok == nil {
			return c.Error("expected integer cols value")
		}
		n := 0
		for _, r := range numTok.Val {
			n = n*10 + int(r-'0')
		}
		args.Cols = n
		args.HasCols = true
	}

	p.b.TablerowInit(args, tagSpan)
	lTop := p.b.NewLabel()
	lEnd := p.b.NewLabel()
	lBreak := p.b.NewLabel()
	p.b.Label(lTop, tagSpan)
	p.b.TablerowNext(lTop, lEnd, tagSpan)

	p.ctrlStack = append(p.ctrlStack, ctrlFrame{isLoop: true, cont: lTop, brk: lBreak})
	_, stopCur, stopSpan, err := p.parseBody("endtablerow")
	p.ctrlStack = p.ctrlStack[:len(p.ctrlStack)-1]
	if err != nil {
		return err
	}
	if !stopCur.AtEnd() {
		return stopCur.Error("endtablerow takes no arguments")
	}
	p.b.Jump(lTop, stopSpan)
	p.b.Label(lBreak, stopSpan)
	p.b.Simple(OpPopForloop, stopSpan)
	p.b.Label(lEnd, stopSpan)
	return nil
}

// tagBreakParser and tagContinueParser jump straight to the innermost
// loop's target when nothing stands in the way. When a {% capture %}
// block sits between here and that loop, a raw JUMP would skip the
// capture's POP_CAPTURE and leave its capture-buffer stack unbalanced, so
// instead they push an interrupt marker and jump to the capture's exit
// label, which re-raises it once the capture has safely unwound.
func tagBreakParser(p *parser, c *tokenCursor, tagSpan Span) error {
	if len(p.ctrlStack) == 0 {
		return newSyntaxError(p.name, tagSpan, "'break' outside of a loop")
	}
	top := p.ctrlStack[len(p.ctrlStack)-1]
	if top.isLoop {
		p.b.Jump(top.brk, tagSpan)
		return nil
	}
	p.b.PushInterrupt(InterruptBreak, tagSpan)
	p.b.Jump(top.brk, tagSpan)
	return nil
}

func tagContinueParser(p *parser, c *tokenCursor, tagSpan Span) error {
	if len(p.ctrlStack) == 0 {
		return newSyntaxError(p.name, tagSpan, "'continue' outside of a loop")
	}
	top := p.ctrlStack[len(p.ctrlStack)-1]
	if top.isLoop {
		p.b.Jump(top.cont, tagSpan)
		return nil
	}
	p.b.PushInterrupt(InterruptContinue, tagSpan)
	p.b.Jump(top.cont, tagSpan) // == top.brk, the capture's shared exit label
	return nil
}

func init() {
	registerTag("for", tagForParser)
	registerTag("tablerow", tagTablerowParser)
	registerTag("break", tagBreakParser)
	registerTag("continue", tagContinueParser)
}
