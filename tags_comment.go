package liquid

// {% comment %}...{% endcomment %} discards everything between its
// delimiters, including malformed tag or output syntax — the body is
// scanned for the matching {% endcomment %}, never parsed.
//
//	{% comment %}
//	  TODO: revisit once the new pricing API ships.
//	  {{ this need not even be valid liquid }}
//	{% endcomment %}
func tagCommentParser(p *parser, c *tokenCursor, tagSpan Span) error {
	if !c.AtEnd() {
		return c.Error("comment takes no arguments")
	}
	return p.skipUntilTag("comment", "endcomment")
}

func init() {
	registerTag("comment", tagCommentParser)
}
