package lexer

import "github.com/tanglong3bf/sqlgen/syntax"

// TokenType identifies the lexical category of a token.
type TokenType int

const (
	TokenTemplateData TokenType = iota // literal text outside expression regions
	TokenAt
	TokenDollar
	TokenParenOpen
	TokenParenClose
	TokenBraceOpen
	TokenBraceClose
	TokenBracketOpen
	TokenBracketClose
	TokenComma
	TokenDot
	TokenAssign
	TokenEq
	TokenNe
	TokenAnd
	TokenOr
	TokenNot
	TokenIf
	TokenElif
	TokenElse
	TokenEndif
	TokenFor
	TokenIn
	TokenEndfor
	TokenSeparator
	TokenNull
	TokenIdent
	TokenInteger
	TokenString
	TokenEOF
)

func (t TokenType) String() string {
	switch t {
	case TokenTemplateData:
		return "TemplateData"
	case TokenAt:
		return "At"
	case TokenDollar:
		return "Dollar"
	case TokenParenOpen:
		return "ParenOpen"
	case TokenParenClose:
		return "ParenClose"
	case TokenBraceOpen:
		return "BraceOpen"
	case TokenBraceClose:
		return "BraceClose"
	case TokenBracketOpen:
		return "BracketOpen"
	case TokenBracketClose:
		return "BracketClose"
	case TokenComma:
		return "Comma"
	case TokenDot:
		return "Dot"
	case TokenAssign:
		return "Assign"
	case TokenEq:
		return "Eq"
	case TokenNe:
		return "Ne"
	case TokenAnd:
		return "And"
	case TokenOr:
		return "Or"
	case TokenNot:
		return "Not"
	case TokenIf:
		return "If"
	case TokenElif:
		return "Elif"
	case TokenElse:
		return "Else"
	case TokenEndif:
		return "Endif"
	case TokenFor:
		return "For"
	case TokenIn:
		return "In"
	case TokenEndfor:
		return "Endfor"
	case TokenSeparator:
		return "Separator"
	case TokenNull:
		return "Null"
	case TokenIdent:
		return "Ident"
	case TokenInteger:
		return "Integer"
	case TokenString:
		return "String"
	case TokenEOF:
		return "EOF"
	default:
		return "Unknown"
	}
}

// Token is a single lexical element with its source span.
type Token struct {
	Type  TokenType
	Value string
	Span  syntax.Span
}

// Keywords take priority over identifiers. The word operators map to the
// same token types as their symbolic forms.
var keywords = map[string]TokenType{
	"and":       TokenAnd,
	"or":        TokenOr,
	"not":       TokenNot,
	"if":        TokenIf,
	"elif":      TokenElif,
	"else":      TokenElse,
	"endif":     TokenEndif,
	"for":       TokenFor,
	"in":        TokenIn,
	"endfor":    TokenEndfor,
	"separator": TokenSeparator,
	"null":      TokenNull,
}
