package liquid

// {% assign name = expr %} binds a variable in the outermost (root) frame.
//
//	{% assign full_name = user.first_name %}
//	Welcome, {{ full_name }}!
func tagAssignParser(p *parser, c *tokenCursor, tagSpan Span) error {
	nameTok := c.MatchType(TokenIdentifier)
	if nameTok == nil {
		return c.Error("expected a variable name")
	}
	if c.MatchSymbol("=") == nil {
		return c.Error("expected '='")
	}
	if err := parseOrExpr(c, p.b); err != nil {
		return err
	}
	if !c.AtEnd() {
		return c.Error("malformed assign expression")
	}
	p.b.Assign(nameTok.Val, tagSpan)
	return nil
}

// {% capture name %}...{% endcapture %} renders its body to a string and
// binds it, instead of writing it to the output.
//
//	{% capture greeting %}Hello, {{ user.name }}!{% endcapture %}
//	{{ greeting | upcase }}
//
// A break/continue inside the body (reaching out to a loop that encloses
// this capture) can't jump straight past POP_CAPTURE without corrupting
// the capture-buffer stack, so it is raised as an interrupt instead; once
// this capture has safely unwound, it re-raises that interrupt to
// whatever loop or outer capture encloses it. A capture with no enclosing
// loop or capture at all absorbs the interrupt silently instead of
// leaving it pending for some unrelated loop rendered later to pick up.
func tagCaptureParser(p *parser, c *tokenCursor, tagSpan Span) error {
	nameTok := c.MatchType(TokenIdentifier)
	if nameTok == nil {
		return c.Error("expected a variable name")
	}
	if !c.AtEnd() {
		return c.Error("malformed capture tag")
	}

	p.b.Simple(OpPushCapture, tagSpan)
	lExit := p.b.NewLabel()
	p.ctrlStack = append(p.ctrlStack, ctrlFrame{isLoop: false, cont: lExit, brk: lExit})
	_, stopCur, stopSpan, err := p.parseBody("endcapture")
	p.ctrlStack = p.ctrlStack[:len(p.ctrlStack)-1]
	if err != nil {
		return err
	}
	if !stopCur.AtEnd() {
		return stopCur.Error("endcapture takes no arguments")
	}

	p.b.Label(lExit, stopSpan)
	p.b.Simple(OpPopCapture, stopSpan)
	p.b.Assign(nameTok.Val, stopSpan)

	if len(p.ctrlStack) > 0 {
		parent := p.ctrlStack[len(p.ctrlStack)-1]
		p.b.JumpIfInterrupt(parent.cont, parent.brk, stopSpan)
	} else {
		p.b.Simple(OpPopInterrupt, stopSpan)
	}
	return nil
}

// {% increment name %} / {% decrement name %} read-then-step a named
// counter independent of any `assign`ed variable of the same name; each
// outputs the value it read.
//
//	{% increment count %}{% increment count %}{% increment count %}
//	=> 0 1 2
func tagIncrementParser(p *parser, c *tokenCursor, tagSpan Span) error {
	nameTok := c.MatchType(TokenIdentifier)
	if nameTok == nil {
		return c.Error("expected a counter name")
	}
	if !c.AtEnd() {
		return c.Error("malformed increment tag")
	}
	p.b.Increment(nameTok.Val, tagSpan)
	p.b.Simple(OpWriteValue, tagSpan)
	return nil
}

func tagDecrementParser(p *parser, c *tokenCursor, tagSpan Span) error {
	nameTok := c.MatchType(TokenIdentifier)
	if nameTok == nil {
		return c.Error("expected a counter name")
	}
	if !c.AtEnd() {
		return c.Error("malformed decrement tag")
	}
	p.b.Decrement(nameTok.Val, tagSpan)
	p.b.Simple(OpWriteValue, tagSpan)
	return nil
}

// {% echo expr %} is the tag form of {{ expr }}, useful when an expression
// needs to sit inside a construct (e.g. a liquid-tag block) that only
// accepts tags.
func tagEchoParser(p *parser, c *tokenCursor, tagSpan Span) error {
	if c.AtEnd() {
		return c.Error("expected an expression")
	}
	if err := parseOrExpr(c, p.b); err != nil {
		return err
	}
	if !c.AtEnd() {
		return c.Error("malformed echo expression")
	}
	p.b.Simple(OpWriteValue, tagSpan)
	return nil
}

func init() {
	registerTag("assign", tagAssignParser)
	registerTag("capture", tagCaptureParser)
	registerTag("increment", tagIncrementParser)
	registerTag("decrement", tagDecrementParser)
	registerTag("echo", tagEchoParser)
}
