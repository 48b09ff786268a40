package liquid

// {% case %} dispatches to the first {% when %} clause whose value(s)
// case-compare equal to the switch expression, falling back to {% else %}.
// A when clause may list several comma-separated values.
//
//	{% case handle %}
//	{% when "cake" %}
//	  This is a cake.
//	{% when "cookie", "biscuit" %}
//	  This is a cookie.
//	{% else %}
//	  This is not a cake nor a cookie.
//	{% endcase %}
func tagCaseParser(p *parser, c *tokenCursor, tagSpan Span) error {
	if err := parseOrExpr(c, p.b); err != nil {
		return err
	}
	if !c.AtEnd() {
		return c.Error("malformed case expression")
	}

	lEnd := p.b.NewLabel()

	stop, stopCur, stopSpan, err := p.expectImmediateTag("when", "else", "endcase")
	if err != nil {
		return err
	}

	for {
		switch stop {
		case "when":
			lBody := p.b.NewLabel()
			lNextCheck := p.b.NewLabel()
			for {
				p.b.Simple(OpDup, stopSpan)
				if err := parseOrExpr(stopCur, p.b); err != nil {
					return err
				}
				p.b.CaseCompare(stopSpan)
				p.b.JumpIfTrue(lBody, stopSpan)
				if stopCur.MatchSymbol(",") == nil {
					break
				}
			}
			if !stopCur.AtEnd() {
				return stopCur.Error("malformed when clause")
			}
			p.b.Jump(lNextCheck, stopSpan)
			p.b.Label(lBody, stopSpan)
			p.b.Simple(OpPop, stopSpan)

			stop, stopCur, stopSpan, err = p.parseBody("when", "else", "endcase")
			if err != nil {
				return err
			}
			p.b.Jump(lEnd, stopSpan)
			p.b.Label(lNextCheck, stopSpan)
			continue

		case "else":
			if !stopCur.AtEnd() {
				return stopCur.Error("else takes no arguments")
			}
			p.b.Simple(OpPop, stopSpan)
			stop, stopCur, stopSpan, err = p.parseBody("endcase")
			if err != nil {
				return err
			}

		case "endcase":
			p.b.Simple(OpPop, stopSpan)
		}

		if !stopCur.AtEnd() {
			return stopCur.Error("endcase takes no arguments")
		}
		break
	}

	p.b.Label(lEnd, tagSpan)
	return nil
}

func init() {
	registerTag("case", tagCaseParser)
}
