package liquid

// TokenType classifies a token produced by the expression lexer (the
// second lexer stage, run over the contents of a {% ... %} or {{ ... }}
// segment found by the template shell lexer in lexer.go).
type TokenType int

const (
	// TokenError signals a lexical error; Val carries the message.
	TokenError TokenType = iota
	TokenIdentifier
	TokenKeyword
	TokenInt
	TokenFloat
	TokenString
	TokenSymbol
	// TokenEOE marks the end of the expression stream for one segment.
	TokenEOE
)

func (t TokenType) String() string {
	switch t {
	case TokenError:
		return "Error"
	case TokenIdentifier:
		return "Identifier"
	case TokenKeyword:
		return "Keyword"
	case TokenInt:
		return "Int"
	case TokenFloat:
		return "Float"
	case TokenString:
		return "String"
	case TokenSymbol:
		return "Symbol"
	case TokenEOE:
		return "EOE"
	default:
		return "Unknown"
	}
}

// Token is a single lexical element, the output of the expression lexer
// and the input to the parser.
type Token struct {
	Typ  TokenType
	Val  string
	Span Span
}

func (t *Token) String() string {
	return t.Typ.String() + "(" + t.Val + ")"
}

// exprKeywords lists every reserved word of the expression grammar. These
// cannot be used as variable, filter or tag argument names.
var exprKeywords = map[string]struct{}{
	"and":      {},
	"or":       {},
	"not":      {},
	"contains": {},
	"in":       {},
	"with":     {},
	"for":      {},
	"as":       {},
	"by":       {},
	"limit":    {},
	"offset":   {},
	"reversed": {},
	"true":     {},
	"false":    {},
	"nil":      {},
	"empty":    {},
	"blank":    {},
}

// exprSymbols lists every recognized operator/punctuation symbol, ordered
// longest-match-first so that e.g. "==" is matched before "=". A byte-
// indexed first-character dispatch (see exprlexer.go) avoids scanning this
// whole table for every punctuation rune.
var exprSymbols = []string{
	"..",
	"==", "!=", "<=", ">=",
	".", "|", ":", ",", "(", ")", "[", "]", "=", "<", ">",
}
