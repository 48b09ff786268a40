package liquid

import "fmt"

// {% cycle %} walks through its argument list one value per invocation,
// wrapping back to the first once exhausted — typically used inside a
// {% for %} body to alternate row classes.
//
//	{% for item in items %}
//	  <tr class="{% cycle 'odd', 'even' %}">{{ item }}</tr>
//	{% endfor %}
//
// An optional "name:" prefix gives the cycle group an explicit identity so
// two cycle tags can share state:
//
//	{% cycle "rowcolor": "odd", "even" %}
//
// Without an explicit name, identity is the tag's own source position, so
// repeated calls to the same {% cycle %} site advance the same sequence.
func tagCycleParser(p *parser, c *tokenCursor, tagSpan Span) error {
	identity := ""
	if t0 := c.Current(); t0 != nil && t0.Typ == TokenString {
		if t1 := c.Get(c.idx + 1); t1 != nil && t1.Typ == TokenSymbol && t1.Val == ":" {
			identity = t0.Val
			c.ConsumeN(2)
		}
	}

	argc := 0
	for {
		if err := parseFilterPipeline(c, p.b); err != nil {
			return err
		}
		argc++
		if c.MatchSymbol(",") == nil {
			break
		}
	}
	if !c.AtEnd() {
		return c.Error("malformed cycle arguments")
	}

	if identity == "" {
		identity = fmt.Sprintf("%s:%d", p.name, tagSpan.Offset)
	}
	p.b.CycleStep(identity, argc, tagSpan)
	p.b.Simple(OpWriteValue, tagSpan)
	return nil
}

func init() {
	registerTag("cycle", tagCycleParser)
}
