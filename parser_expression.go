package liquid

import "strconv"

// Expression grammar, highest to lowest precedence (§4.2):
//   primary (literal / variable / parenthesized / range / indexed / dotted
//   path) -> filter pipeline (|) -> comparison -> unary `not` -> `and` ->
//   `or`.
//
// Every parseXxx function leaves exactly one value on the VM stack when
// its emitted code runs, never builds an AST node.

func parseOrExpr(c *tokenCursor, b *Builder) error {
	if err := parseAndExpr(c, b); err != nil {
		return err
	}
	for c.MatchKeyword("or") != nil {
		sp := c.span()
		b.Simple(OpIsTruthy, sp)
		lTrue := b.NewLabel()
		lEnd := b.NewLabel()
		b.JumpIfTrue(lTrue, sp)
		if err := parseAndExpr(c, b); err != nil {
			return err
		}
		b.Simple(OpIsTruthy, sp)
		b.Jump(lEnd, sp)
		b.Label(lTrue, sp)
		b.emitConstBool(true, sp)
		b.Label(lEnd, sp)
	}
	return nil
}

func parseAndExpr(c *tokenCursor, b *Builder) error {
	if err := parseNotExpr(c, b); err != nil {
		return err
	}
	for c.MatchKeyword("and") != nil {
		sp := c.span()
		b.Simple(OpIsTruthy, sp)
		lFalse := b.NewLabel()
		lEnd := b.NewLabel()
		b.JumpIfFalse(lFalse, sp)
		if err := parseNotExpr(c, b); err != nil {
			return err
		}
		b.Simple(OpIsTruthy, sp)
		b.Jump(lEnd, sp)
		b.Label(lFalse, sp)
		b.emitConstBool(false, sp)
		b.Label(lEnd, sp)
	}
	return nil
}

func parseNotExpr(c *tokenCursor, b *Builder) error {
	if t := c.MatchKeyword("not"); t != nil {
		if err := parseNotExpr(c, b); err != nil {
			return err
		}
		b.Simple(OpBoolNot, t.Span)
		return nil
	}
	return parseComparisonExpr(c, b)
}

var compareSymbols = map[string]CompareOp{
	"==": CmpEq, "!=": CmpNe, "<": CmpLt, "<=": CmpLe, ">": CmpGt, ">=": CmpGe,
}

func parseComparisonExpr(c *tokenCursor, b *Builder) error {
	if err := parseFilterPipeline(c, b); err != nil {
		return err
	}
	if t := c.Current(); t != nil && t.Typ == TokenSymbol {
		if op, ok := compareSymbols[t.Val]; ok {
			c.Consume()
			if err := parseFilterPipeline(c, b); err != nil {
				return err
			}
			b.Compare(op, t.Span)
			return nil
		}
	}
	if t := c.MatchKeyword("contains"); t != nil {
		if err := parseFilterPipeline(c, b); err != nil {
			return err
		}
		b.Simple(OpContains, t.Span)
	}
	return nil
}

func parseFilterPipeline(c *tokenCursor, b *Builder) error {
	if err := parsePrimary(c, b); err != nil {
		return err
	}
	for {
		bar := c.MatchSymbol("|")
		if bar == nil {
			return nil
		}
		nameTok := c.MatchType(TokenIdentifier)
		if nameTok == nil {
			return c.Error("expected filter name after '|'")
		}
		argc := 0
		if c.MatchSymbol(":") != nil {
			for {
				if err := parseFilterArg(c, b); err != nil {
					return err
				}
				argc++
				if c.MatchSymbol(",") == nil {
					break
				}
			}
		}
		b.CallFilter(nameTok.Val, argc, nameTok.Span)
	}
}

// parseFilterArg parses one filter argument: a primary expression
// optionally indexed, but not a further pipeline (the next '|' belongs to
// the enclosing pipeline, not to this argument).
func parseFilterArg(c *tokenCursor, b *Builder) error {
	return parsePrimary(c, b)
}

func (b *Builder) emitConstBool(v bool, sp Span) {
	if v {
		b.Simple(OpConstTrue, sp)
	} else {
		b.Simple(OpConstFalse, sp)
	}
}

func parsePrimary(c *tokenCursor, b *Builder) error {
	t := c.Current()
	if t == nil {
		return c.Error("unexpected end of expression")
	}

	switch {
	case t.Typ == TokenInt:
		c.Consume()
		i, _ := strconv.ParseInt(t.Val, 10, 64)
		b.ConstInt(i, t.Span)
		return nil

	case t.Typ == TokenFloat:
		c.Consume()
		f, _ := strconv.ParseFloat(t.Val, 64)
		b.ConstFloat(f, t.Span)
		return nil

	case t.Typ == TokenString:
		c.Consume()
		b.ConstString(t.Val, t.Span)
		return nil

	case t.Typ == TokenKeyword && t.Val == "true":
		c.Consume()
		b.Simple(OpConstTrue, t.Span)
		return nil

	case t.Typ == TokenKeyword && t.Val == "false":
		c.Consume()
		b.Simple(OpConstFalse, t.Span)
		return nil

	case t.Typ == TokenKeyword && t.Val == "nil":
		c.Consume()
		b.Simple(OpConstNil, t.Span)
		return nil

	case t.Typ == TokenKeyword && t.Val == "empty":
		c.Consume()
		b.Simple(OpConstEmpty, t.Span)
		return nil

	case t.Typ == TokenKeyword && t.Val == "blank":
		c.Consume()
		b.Simple(OpConstBlank, t.Span)
		return nil

	case t.Typ == TokenSymbol && t.Val == "(":
		return parseParenOrRange(c, b)

	case t.Typ == TokenIdentifier:
		c.Consume()
		b.FindVar(t.Val, t.Span)
		return parsePostfixPath(c, b)
	}

	return c.Error("unexpected token " + t.Val + " in expression")
}

// parsePostfixPath parses the `.key`, `.0`, `[expr]` chain following a
// variable reference, per the "indexed / dotted-path" primary production.
func parsePostfixPath(c *tokenCursor, b *Builder) error {
	for {
		switch {
		case c.MatchSymbol(".") != nil:
			key := c.Current()
			if key == nil || (key.Typ != TokenIdentifier && key.Typ != TokenInt && key.Typ != TokenKeyword) {
				return c.Error("expected identifier or index after '.'")
			}
			c.Consume()
			switch key.Val {
			case "size", "first", "last":
				b.LookupCommand(key.Val, key.Span)
			default:
				b.LookupConstKey(key.Val, key.Span)
			}
		case c.MatchSymbol("[") != nil:
			if err := parseOrExpr(c, b); err != nil {
				return err
			}
			if c.MatchSymbol("]") == nil {
				return c.Error("expected ']'")
			}
			b.Simple(OpLookupKey, c.span())
		default:
			return nil
		}
	}
}

// parseParenOrRange handles `( expr )` and `( a .. b )`.
func parseParenOrRange(c *tokenCursor, b *Builder) error {
	open := c.Current()
	c.Consume() // '('

	// Try to detect a literal integer range for constant-folding at parse
	// time (CONST_RANGE), falling back to the general dynamic-range form.
	startIdx := c.idx
	if loTok := c.MatchType(TokenInt); loTok != nil {
		if c.MatchSymbol("..") != nil {
			if hiTok := c.MatchType(TokenInt); hiTok != nil {
				if c.MatchSymbol(")") != nil {
					lo, _ := strconv.ParseInt(loTok.Val, 10, 64)
					hi, _ := strconv.ParseInt(hiTok.Val, 10, 64)
					b.ConstRange(lo, hi, open.Span)
					return nil
				}
			}
		}
	}
	c.idx = startIdx

	if err := parseOrExpr(c, b); err != nil {
		return err
	}
	if c.MatchSymbol("..") != nil {
		dotSp := c.span()
		if err := parseOrExpr(c, b); err != nil {
			return err
		}
		b.Simple(OpNewRange, dotSp)
	}
	if c.MatchSymbol(")") == nil {
		return c.Error("expected ')'")
	}
	return nil
}
