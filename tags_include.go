package liquid

import "strings"

// {% render %} and {% include %} both inline the output of another
// template. render runs the partial in an isolated scope — it sees only
// the variables passed explicitly via with/for/keyword arguments — while
// include shares the caller's scope directly,
// including a legacy implicit bind: a bare {% include "product" %} with
// no with/for/keyword clause exposes any caller-scope variable named
// "product" to the included template under that same name.
//
//	{% render 'product-card', product: featured, compact: true %}
//	{% render 'product-card' for collection.products as product %}
//	{% include 'legacy-snippet' %}
func tagRenderParser(p *parser, c *tokenCursor, tagSpan Span) error {
	return parsePartialTag(p, c, tagSpan, true)
}

func tagIncludeParser(p *parser, c *tokenCursor, tagSpan Span) error {
	return parsePartialTag(p, c, tagSpan, false)
}

func parsePartialTag(p *parser, c *tokenCursor, tagSpan Span, isRender bool) error {
	attrs := &partialAttrs{}

	if nameTok := c.MatchType(TokenString); nameTok != nil {
		attrs.Name = nameTok.Val
	} else if c.AtEnd() {
		return c.Error("expected a partial name")
	} else {
		if err := parseFilterPipeline(c, p.b); err != nil {
			return err
		}
		attrs.NameDynamic = true
	}

	switch {
	case c.MatchKeyword("with") != nil:
		attrs.HasWith = true
		if err := parseFilterPipeline(c, p.b); err != nil {
			return err
		}
		attrs.As = partialBaseName(attrs.Name)

	case c.MatchKeyword("for") != nil:
		attrs.HasFor = true
		if err := parseFilterPipeline(c, p.b); err != nil {
			return err
		}
		attrs.As = partialBaseName(attrs.Name)
		if c.MatchKeyword("as") != nil {
			aliasTok := c.MatchType(TokenIdentifier)
			if aliasTok == nil {
				return c.Error("expected an alias name after 'as'")
			}
			attrs.As = aliasTok.Val
		}
	}

	for c.MatchSymbol(",") != nil {
		kwTok := c.MatchType(TokenIdentifier)
		if kwTok == nil {
			return c.Error("expected a keyword argument name")
		}
		if c.MatchSymbol(":") == nil {
			return c.Error("expected ':' after keyword argument name")
		}
		if err := parseFilterPipeline(c, p.b); err != nil {
			return err
		}
		attrs.KeywordNames = append(attrs.KeywordNames, kwTok.Val)
	}

	if !c.AtEnd() {
		tagName := "render"
		if !isRender {
			tagName = "include"
		}
		return c.Error("malformed " + tagName + " tag")
	}

	if !isRender && !attrs.HasWith && !attrs.HasFor && len(attrs.KeywordNames) == 0 {
		attrs.WithAll = true
	}

	if isRender {
		p.b.RenderPartial(attrs, tagSpan)
	} else {
		p.b.IncludePartial(attrs, tagSpan)
	}
	return nil
}

// partialBaseName strips any directory prefix and extension from a
// literal partial name, e.g. "snippets/product.liquid" -> "product", the
// default variable name with/for bind their value under.
func partialBaseName(name string) string {
	s := name
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	return s
}

func init() {
	registerTag("render", tagRenderParser)
	registerTag("include", tagIncludeParser)
}
