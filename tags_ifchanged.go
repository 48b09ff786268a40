package liquid

// {% ifchanged %} renders its body only when the body's rendered text
// differs from the last time this tag site rendered — typically used
// inside a {% for %} to print a section header once per group.
//
//	{% for item in items %}
//	  {% ifchanged %}<h2>{{ item.category }}</h2>{% endifchanged %}
//	  <p>{{ item.name }}</p>
//	{% endfor %}
//
// An optional {% else %} block renders when the content has not changed.
func tagIfchangedParser(p *parser, c *tokenCursor, tagSpan Span) error {
	if !c.AtEnd() {
		return c.Error("ifchanged takes no arguments")
	}
	id := p.nextIfchangedID
	p.nextIfchangedID++

	p.b.Simple(OpPushCapture, tagSpan)
	stop, stopCur, stopSpan, err := p.parseBody("else", "endifchanged")
	if err != nil {
		return err
	}
	p.b.Simple(OpPopCapture, stopSpan)
	p.b.IfchangedCheck(id, stopSpan)

	lElse := p.b.NewLabel()
	lEnd := p.b.NewLabel()
	p.b.JumpIfFalse(lElse, stopSpan)
	p.b.Simple(OpWriteValue, stopSpan)
	p.b.Jump(lEnd, stopSpan)
	p.b.Label(lElse, stopSpan)
	p.b.Simple(OpPop, stopSpan)

	if stop == "else" {
		if !stopCur.AtEnd() {
			return stopCur.Error("else takes no arguments")
		}
		if _, stopCur, stopSpan, err = p.parseBody("endifchanged"); err != nil {
			return err
		}
	}
	if !stopCur.AtEnd() {
		return stopCur.Error("endifchanged takes no arguments")
	}
	p.b.Label(lEnd, stopSpan)
	return nil
}

func init() {
	registerTag("ifchanged", tagIfchangedParser)
}
