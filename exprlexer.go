package liquid

import (
	"strings"
	"unicode/utf8"
)

const exprEOF rune = -1

// exprSymbolDispatch maps the first byte of a punctuation symbol to the
// candidate symbols starting with that byte, ordered longest-first. This
// is the byte-indexed dispatch table the design calls for, avoiding a
// linear scan of exprSymbols for every punctuation rune.
var exprSymbolDispatch = buildSymbolDispatch()

func buildSymbolDispatch() map[byte][]string {
	m := map[byte][]string{}
	for _, sym := range exprSymbols {
		b := sym[0]
		m[b] = append(m[b], sym)
	}
	for _, syms := range m {
		// stable longest-first within each bucket
		for i := 1; i < len(syms); i++ {
			for j := i; j > 0 && len(syms[j]) > len(syms[j-1]); j-- {
				syms[j], syms[j-1] = syms[j-1], syms[j]
			}
		}
	}
	return m
}

// exprLexer tokenizes the inner text of one {% %} / {{ }} segment.
type exprLexer struct {
	name       string
	input      string
	baseOffset int
	baseLine   int

	start int
	pos   int
	width int

	tokens []*Token
}

func lexExpr(name, text string, baseOffset, baseLine int) ([]*Token, error) {
	l := &exprLexer{name: name, input: text, baseOffset: baseOffset, baseLine: baseLine}
	if err := l.run(); err != nil {
		return nil, err
	}
	return l.tokens, nil
}

func (l *exprLexer) span() Span {
	return Span{Offset: l.baseOffset + l.start, Length: l.pos - l.start, Line: l.lineAt(l.start)}
}

func (l *exprLexer) lineAt(pos int) int {
	return l.baseLine + strings.Count(l.input[:pos], "\n")
}

func (l *exprLexer) emit(t TokenType) {
	l.tokens = append(l.tokens, &Token{Typ: t, Val: l.value(), Span: l.span()})
	l.start = l.pos
}

func (l *exprLexer) value() string { return l.input[l.start:l.pos] }

func (l *exprLexer) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		return exprEOF
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.width = w
	l.pos += w
	return r
}

func (l *exprLexer) backup() { l.pos -= l.width }
func (l *exprLexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

func (l *exprLexer) accept(valid string) bool {
	if strings.ContainsRune(valid, l.next()) {
		return true
	}
	l.backup()
	return false
}

func (l *exprLexer) acceptRun(valid string) {
	for strings.ContainsRune(valid, l.next()) {
	}
	l.backup()
}

const identStart = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_"
const identCont = identStart + "0123456789"
const digits = "0123456789"

func (l *exprLexer) run() error {
	for {
		l.acceptRun(" \t\r\n")
		l.start = l.pos
		if l.pos >= len(l.input) {
			break
		}

		r := l.peek()
		switch {
		case strings.ContainsRune(identStart, r):
			l.lexIdentifier()
			continue
		case strings.ContainsRune(digits, r):
			if err := l.lexNumber(); err != nil {
				return err
			}
			continue
		case r == '"' || r == '\'':
			if err := l.lexString(); err != nil {
				return err
			}
			continue
		}

		if sym := l.matchSymbol(); sym != "" {
			l.pos += len(sym)
			l.emit(TokenSymbol)
			continue
		}

		return newSyntaxError("lexer", l.span(), "unexpected character %q", r)
	}
	l.tokens = append(l.tokens, &Token{Typ: TokenEOE, Span: Span{Offset: l.baseOffset + l.pos, Line: l.lineAt(l.pos)}})
	return nil
}

// matchSymbol uses the byte-indexed dispatch table to find the longest
// punctuation symbol starting at the current position.
func (l *exprLexer) matchSymbol() string {
	if l.pos >= len(l.input) {
		return ""
	}
	candidates := exprSymbolDispatch[l.input[l.pos]]
	for _, sym := range candidates {
		if strings.HasPrefix(l.input[l.pos:], sym) {
			return sym
		}
	}
	return ""
}

func (l *exprLexer) lexIdentifier() {
	l.acceptRun(identCont)
	val := l.value()
	if _, ok := exprKeywords[val]; ok {
		l.emit(TokenKeyword)
		return
	}
	l.emit(TokenIdentifier)
}

func (l *exprLexer) lexNumber() error {
	l.acceptRun(digits)
	isFloat := false
	if l.peek() == '.' {
		save := l.pos
		l.pos++
		if strings.ContainsRune(digits, l.peek()) {
			isFloat = true
			l.acceptRun(digits)
		} else {
			l.pos = save
		}
	}
	if strings.ContainsRune(identStart, l.peek()) {
		return newSyntaxError("lexer", l.span(), "malformed number literal %q", l.value())
	}
	if isFloat {
		l.emit(TokenFloat)
	} else {
		l.emit(TokenInt)
	}
	return nil
}

var stringEscapeReplacer = strings.NewReplacer(
	`\\`, `\`,
	`\"`, `"`,
	`\'`, `'`,
	`\n`, "\n",
	`\r`, "\r",
	`\t`, "\t",
)

func (l *exprLexer) lexString() error {
	quote := l.next()
	l.start = l.pos
	for {
		r := l.next()
		switch r {
		case exprEOF:
			return newSyntaxError("lexer", l.span(), "unterminated string literal")
		case '\\':
			switch l.peek() {
			case '"', '\'', '\\', 'n', 't', 'r':
				l.next()
			default:
				return newSyntaxError("lexer", l.span(), "unknown escape sequence \\%c", l.peek())
			}
		case quote:
			raw := l.input[l.start : l.pos-1]
			l.tokens = append(l.tokens, &Token{
				Typ:  TokenString,
				Val:  stringEscapeReplacer.Replace(raw),
				Span: Span{Offset: l.baseOffset + l.start, Length: l.pos - l.start, Line: l.lineAt(l.start)},
			})
			l.start = l.pos
			return nil
		}
	}
}
