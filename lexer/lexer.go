// Package lexer splits template source into tokens on demand.
//
// A depth counter decides how bytes are read. At depth zero everything is
// literal text until the next '@' or '$' marker; each marker raises the
// depth and switches the scanner into expression mode. Inside expressions,
// ')' and '}' lower the depth, a further '@' or '$' raises it, and the
// region-terminating keywords else, endif, and endfor lower it, so the
// scanner falls back to literal text exactly where a construct ends.
package lexer

import (
	"fmt"
	"strings"

	"github.com/tanglong3bf/sqlgen/internal/errors"
	"github.com/tanglong3bf/sqlgen/syntax"
)

// Lexer tokenizes template source.
type Lexer struct {
	source    string
	pos       int    // current position in source
	start     int    // start position of current token
	line      uint16 // current line (1-indexed)
	col       uint16 // current column (0-indexed at line start)
	startLine uint16
	startCol  uint16

	depth int // region nesting; zero means literal text
	// The '(' of an '@'-introduced construct must not raise the depth a
	// second time; the '@' already did. One-shot, cleared at the next '('.
	suppressParen bool
}

// New creates a Lexer for the given template source.
func New(source string) *Lexer {
	return &Lexer{source: source, line: 1}
}

// Tokenize returns all tokens of the input.
func Tokenize(source string) ([]Token, error) {
	return New(source).All()
}

// All collects the remaining tokens into a slice, without the EOF marker.
func (l *Lexer) All() ([]Token, error) {
	var tokens []Token
	for !l.Done() {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		if tok.Type == TokenEOF {
			break
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

// Done reports whether the entire source has been consumed.
func (l *Lexer) Done() bool {
	return l.pos >= len(l.source)
}

// Reset rewinds the lexer to the start of the source.
func (l *Lexer) Reset() {
	l.pos, l.start = 0, 0
	l.line, l.col = 1, 0
	l.startLine, l.startCol = 0, 0
	l.depth = 0
	l.suppressParen = false
}

// Next returns the next token. At the end of input it returns an EOF token.
func (l *Lexer) Next() (Token, error) {
	if l.Done() {
		l.markStart()
		return l.makeToken(TokenEOF, ""), nil
	}
	if l.depth == 0 {
		return l.nextTemplateData(), nil
	}
	return l.nextExprToken()
}

func (l *Lexer) nextTemplateData() Token {
	l.markStart()

	switch l.source[l.pos] {
	case '@':
		l.advance(1)
		l.depth++
		l.suppressParen = true
		return l.makeToken(TokenAt, "@")
	case '$':
		l.advance(1)
		l.depth++
		return l.makeToken(TokenDollar, "$")
	}

	idx := strings.IndexAny(l.rest(), "@$")
	var text string
	if idx < 0 {
		text = l.advance(len(l.source) - l.pos)
	} else {
		text = l.advance(idx)
	}
	return l.makeToken(TokenTemplateData, text)
}

func (l *Lexer) nextExprToken() (Token, error) {
	l.skipWhitespace()
	l.markStart()

	if l.Done() {
		return l.makeToken(TokenEOF, ""), nil
	}

	rest := l.rest()
	if len(rest) >= 2 {
		switch rest[:2] {
		case "==":
			return l.opToken(TokenEq, 2), nil
		case "!=":
			return l.opToken(TokenNe, 2), nil
		case "&&":
			return l.opToken(TokenAnd, 2), nil
		case "||":
			return l.opToken(TokenOr, 2), nil
		}
	}

	switch ch := rest[0]; ch {
	case '@':
		l.depth++
		l.suppressParen = true
		return l.opToken(TokenAt, 1), nil
	case '$':
		l.depth++
		return l.opToken(TokenDollar, 1), nil
	case '(':
		if l.suppressParen {
			l.suppressParen = false
		} else {
			l.depth++
		}
		return l.opToken(TokenParenOpen, 1), nil
	case ')':
		l.depth--
		return l.opToken(TokenParenClose, 1), nil
	case '{':
		return l.opToken(TokenBraceOpen, 1), nil
	case '}':
		l.depth--
		return l.opToken(TokenBraceClose, 1), nil
	case '[':
		return l.opToken(TokenBracketOpen, 1), nil
	case ']':
		return l.opToken(TokenBracketClose, 1), nil
	case ',':
		return l.opToken(TokenComma, 1), nil
	case '.':
		return l.opToken(TokenDot, 1), nil
	case '=':
		return l.opToken(TokenAssign, 1), nil
	case '!':
		return l.opToken(TokenNot, 1), nil
	case '\'', '"':
		return l.lexString(ch)
	default:
		if isDigit(ch) {
			return l.lexInteger(), nil
		}
		if isIdentStart(ch) {
			return l.lexIdentOrKeyword(), nil
		}
		return Token{}, l.lexicalError(fmt.Sprintf("invalid expression at offset %d: %s", l.pos, clip(rest)))
	}
}

func (l *Lexer) opToken(typ TokenType, width int) Token {
	text := l.advance(width)
	return l.makeToken(typ, text)
}

// lexString scans a string literal. There are no escape sequences; the
// matching quote ends the literal unconditionally.
func (l *Lexer) lexString(quote byte) (Token, error) {
	l.advance(1)
	idx := strings.IndexByte(l.rest(), quote)
	if idx < 0 {
		l.advance(len(l.rest()))
		return Token{}, l.lexicalError("unterminated string literal")
	}
	value := l.advance(idx)
	l.advance(1)
	return l.makeToken(TokenString, value), nil
}

func (l *Lexer) lexInteger() Token {
	rest := l.rest()
	n := 0
	for n < len(rest) && isDigit(rest[n]) {
		n++
	}
	value := l.advance(n)
	// Multi-digit literals shed redundant leading zeros.
	for len(value) > 1 && value[0] == '0' {
		value = value[1:]
	}
	return l.makeToken(TokenInteger, value)
}

func (l *Lexer) lexIdentOrKeyword() Token {
	rest := l.rest()
	n := 0
	for n < len(rest) && isIdentPart(rest[n]) {
		n++
	}
	value := l.advance(n)
	if typ, ok := keywords[value]; ok {
		switch typ {
		case TokenElse, TokenEndif, TokenEndfor:
			l.depth--
		}
		return l.makeToken(typ, value)
	}
	return l.makeToken(TokenIdent, value)
}

// Helper methods

func (l *Lexer) rest() string {
	if l.pos >= len(l.source) {
		return ""
	}
	return l.source[l.pos:]
}

func (l *Lexer) advance(n int) string {
	if n <= 0 {
		return ""
	}
	start := l.pos
	end := l.pos + n
	if end > len(l.source) {
		end = len(l.source)
	}

	skipped := l.source[start:end]
	for _, c := range skipped {
		if c == '\n' {
			l.line++
			l.col = 0
		} else {
			if l.col < 65535 {
				l.col++
			}
		}
	}
	l.pos = end
	return skipped
}

func (l *Lexer) markStart() {
	l.start = l.pos
	l.startLine = l.line
	l.startCol = l.col
}

func (l *Lexer) span() syntax.Span {
	return syntax.Span{
		StartLine:   l.startLine,
		StartCol:    l.startCol,
		StartOffset: uint32(l.start),
		EndLine:     l.line,
		EndCol:      l.col,
		EndOffset:   uint32(l.pos),
	}
}

func (l *Lexer) makeToken(typ TokenType, value string) Token {
	return Token{
		Type:  typ,
		Value: value,
		Span:  l.span(),
	}
}

func (l *Lexer) skipWhitespace() {
	for !l.Done() {
		c := l.source[l.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			l.advance(1)
		} else {
			break
		}
	}
}

func (l *Lexer) lexicalError(msg string) error {
	return errors.New(errors.ErrLexical, msg).WithSpan(l.span())
}

func clip(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// High-bit bytes admit multibyte UTF-8 identifiers bytewise.
func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch >= 0x80
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
