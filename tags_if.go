package liquid

// {% if %} evaluates a chain of conditions and renders the body of the
// first one that is truthy, falling through to {% else %} if none match.
//
//	{% if user.admin %}
//	  Welcome, admin.
//	{% elsif user.active %}
//	  Welcome back.
//	{% else %}
//	  Please sign in.
//	{% endif %}
//
// {% unless cond %}...{% endunless %} is sugar for {% if not cond %}.
func tagIfParser(p *parser, c *tokenCursor, tagSpan Span) error {
	return parseConditionalChain(p, c, tagSpan, false, "endif")
}

func tagUnlessParser(p *parser, c *tokenCursor, tagSpan Span) error {
	return parseConditionalChain(p, c, tagSpan, true, "endunless")
}

// parseConditionalChain lowers if/unless plus their elsif/else clauses to:
//
//	eval(cond0); IS_TRUTHY (BOOL_NOT for unless); JUMP_IF_FALSE L1
//	<body0>
//	JUMP Lend
//	LABEL L1
//	eval(cond1); IS_TRUTHY; JUMP_IF_FALSE L2
//	<body1>
//	JUMP Lend
//	...
//	<else body>
//	LABEL Lend
//
// negate handles `unless`: only its first condition is negated; elsif
// clauses, which the helper also accepts after `unless`, evaluate
// normally.
func parseConditionalChain(p *parser, c *tokenCursor, tagSpan Span, negate bool, endWord string) error {
	lEnd := p.b.NewLabel()

	if err := parseCondition(p, c, tagSpan, negate); err != nil {
		return err
	}
	lNext := p.b.NewLabel()
	p.b.JumpIfFalse(lNext, tagSpan)

	for {
		stop, stopCur, stopSpan, err := p.parseBody("elsif", "else", endWord)
		if err != nil {
			return err
		}
		p.b.Jump(lEnd, tagSpan)
		p.b.Label(lNext, stopSpan)

		if stop == "elsif" {
			if err := parseCondition(p, stopCur, stopSpan, false); err != nil {
				return err
			}
			lNext = p.b.NewLabel()
			p.b.JumpIfFalse(lNext, stopSpan)
			continue
		}

		if stop == "else" {
			if !stopCur.AtEnd() {
				return stopCur.Error("else takes no arguments")
			}
			stop, stopCur, _, err = p.parseBody(endWord)
			if err != nil {
				return err
			}
		}

		if !stopCur.AtEnd() {
			return stopCur.Error(endWord + " takes no arguments")
		}
		break
	}

	p.b.Label(lEnd, tagSpan)
	return nil
}

func parseCondition(p *parser, c *tokenCursor, sp Span, negate bool) error {
	if err := parseOrExpr(c, p.b); err != nil {
		return err
	}
	if !c.AtEnd() {
		return c.Error("malformed condition")
	}
	if negate {
		p.b.Simple(OpBoolNot, sp)
	} else {
		p.b.Simple(OpIsTruthy, sp)
	}
	return nil
}

func init() {
	registerTag("if", tagIfParser)
	registerTag("unless", tagUnlessParser)
}
