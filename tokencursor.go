package liquid

import "fmt"

// tokenCursor is a small token-stream cursor (Consume/Match/MatchType/Peek):
// tag argument lists and expressions are both parsed by walking one of
// these over the token slice an exprLexer produced for a single
// {% %} / {{ }} segment.
type tokenCursor struct {
	name   string
	tokens []*Token
	idx    int
}

func newTokenCursor(name string, tokens []*Token) *tokenCursor {
	return &tokenCursor{name: name, tokens: tokens}
}

func (c *tokenCursor) Current() *Token { return c.Get(c.idx) }

func (c *tokenCursor) Get(i int) *Token {
	if i < len(c.tokens) {
		return c.tokens[i]
	}
	return nil
}

func (c *tokenCursor) Consume()      { c.idx++ }
func (c *tokenCursor) ConsumeN(n int) { c.idx += n }

func (c *tokenCursor) AtEnd() bool {
	t := c.Current()
	return t == nil || t.Typ == TokenEOE
}

func (c *tokenCursor) PeekType(typ TokenType) *Token {
	t := c.Current()
	if t != nil && t.Typ == typ {
		return t
	}
	return nil
}

func (c *tokenCursor) MatchType(typ TokenType) *Token {
	if t := c.PeekType(typ); t != nil {
		c.Consume()
		return t
	}
	return nil
}

func (c *tokenCursor) Peek(typ TokenType, val string) *Token {
	t := c.Current()
	if t != nil && t.Typ == typ && t.Val == val {
		return t
	}
	return nil
}

func (c *tokenCursor) Match(typ TokenType, val string) *Token {
	if t := c.Peek(typ, val); t != nil {
		c.Consume()
		return t
	}
	return nil
}

func (c *tokenCursor) MatchOne(typ TokenType, vals ...string) *Token {
	for _, v := range vals {
		if t := c.Match(typ, v); t != nil {
			return t
		}
	}
	return nil
}

func (c *tokenCursor) MatchKeyword(val string) *Token { return c.Match(TokenKeyword, val) }
func (c *tokenCursor) MatchSymbol(val string) *Token  { return c.Match(TokenSymbol, val) }

// MatchIdentOrKeywordVal matches a token whose Val equals name regardless
// of whether the lexer classified it Identifier or Keyword (tag names like
// "for"/"with"/"in" collide with expression keywords).
func (c *tokenCursor) MatchIdentOrKeywordVal(name string) *Token {
	t := c.Current()
	if t != nil && (t.Typ == TokenIdentifier || t.Typ == TokenKeyword) && t.Val == name {
		c.Consume()
		return t
	}
	return nil
}

func (c *tokenCursor) Remaining() int {
	n := 0
	for i := c.idx; i < len(c.tokens) && c.tokens[i].Typ != TokenEOE; i++ {
		n++
	}
	return n
}

func (c *tokenCursor) span() Span {
	if t := c.Current(); t != nil {
		return t.Span
	}
	if len(c.tokens) > 0 {
		return c.tokens[len(c.tokens)-1].Span
	}
	return Span{}
}

func (c *tokenCursor) Error(msg string) error {
	t := c.Current()
	pos := ""
	if t != nil {
		pos = fmt.Sprintf(" near %q", t.Val)
	}
	return newSyntaxError(c.name, c.span(), "%s%s", msg, pos)
}
