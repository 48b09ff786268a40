package liquid

// tagParseFunc is one tag's lowering rule: given the cursor positioned just
// after the tag name (c) and the tag segment's own span, emit IR through p.b
// and, for block tags, drive p.parseBody to consume nested content up to
// whichever of its own stop words closes it.
type tagParseFunc func(p *parser, c *tokenCursor, tagSpan Span) error

var tagRegistry = map[string]tagParseFunc{}

// registerTag adds a tag to the registry. Tag files call this from their
// own init().
func registerTag(name string, fn tagParseFunc) {
	if _, dup := tagRegistry[name]; dup {
		panic("liquid: tag already registered: " + name)
	}
	tagRegistry[name] = fn
}
