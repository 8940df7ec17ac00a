// Package parser builds template ASTs. Parsing happens once per template;
// the resulting tree is evaluated many times.
package parser

import (
	"fmt"
	"strconv"

	"github.com/tanglong3bf/sqlgen/internal/errors"
	"github.com/tanglong3bf/sqlgen/lexer"
	"github.com/tanglong3bf/sqlgen/syntax"
)

const maxRecursion = 150

// Parser is a recursive-descent parser over a pull lexer. Two tokens of
// lookahead distinguish the '@'-introduced constructs.
type Parser struct {
	lex      *lexer.Lexer
	ahead    [2]lexer.Token
	name     string
	source   string
	depth    int
	lastSpan syntax.Span
	lexErr   *errors.Error
}

// Parse parses template source and returns the AST or an error.
func Parse(source, name string) (*Template, error) {
	p := newParser(source, name)
	tmpl, err := p.parse()
	if err != nil {
		return nil, err.WithName(name).WithSource(source)
	}
	return tmpl, nil
}

func newParser(source, name string) *Parser {
	p := &Parser{lex: lexer.New(source), name: name, source: source}
	p.ahead[0] = p.fetch()
	p.ahead[1] = p.fetch()
	return p
}

// fetch pulls one token. A lexical error is recorded once and surfaces as
// an end-of-input token, so the buffered tokens before it still parse.
func (p *Parser) fetch() lexer.Token {
	tok, err := p.lex.Next()
	if err != nil {
		if p.lexErr == nil {
			if e, ok := err.(*errors.Error); ok {
				p.lexErr = e
			} else {
				p.lexErr = errors.New(errors.ErrLexical, err.Error())
			}
		}
		return lexer.Token{Type: lexer.TokenEOF}
	}
	return tok
}

func (p *Parser) parse() (*Template, *errors.Error) {
	// The root template always starts at 0:0.
	span := syntax.Span{}
	children, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	if p.lexErr != nil {
		return nil, p.lexErr
	}
	if !p.matches(lexer.TokenEOF) {
		return nil, p.unexpected(tokenDescription(p.current()), "end of input")
	}
	return &Template{
		Children: children,
		span:     p.expandSpan(span),
	}, nil
}

func (p *Parser) current() lexer.Token {
	return p.ahead[0]
}

func (p *Parser) peek() lexer.Token {
	return p.ahead[1]
}

func (p *Parser) advance() lexer.Token {
	tok := p.ahead[0]
	if tok.Type != lexer.TokenEOF {
		p.lastSpan = tok.Span
	}
	p.ahead[0] = p.ahead[1]
	p.ahead[1] = p.fetch()
	return tok
}

func (p *Parser) currentSpan() syntax.Span {
	if p.ahead[0].Type != lexer.TokenEOF {
		return p.ahead[0].Span
	}
	return p.lastSpan
}

func (p *Parser) expandSpan(start syntax.Span) syntax.Span {
	return syntax.Span{
		StartLine:   start.StartLine,
		StartCol:    start.StartCol,
		StartOffset: start.StartOffset,
		EndLine:     p.lastSpan.EndLine,
		EndCol:      p.lastSpan.EndCol,
		EndOffset:   p.lastSpan.EndOffset,
	}
}

func (p *Parser) syntaxError(msg string) *errors.Error {
	return errors.New(errors.ErrSyntax, msg).WithSpan(p.currentSpan())
}

func (p *Parser) unexpected(got string, expected string) *errors.Error {
	return p.syntaxError(fmt.Sprintf("unexpected %s, expected %s", got, expected))
}

func (p *Parser) unexpectedEOF(expected string) *errors.Error {
	if p.lexErr != nil {
		return p.lexErr
	}
	return p.syntaxError(fmt.Sprintf("unexpected end of input, expected %s", expected))
}

func (p *Parser) expect(typ lexer.TokenType, expected string) (lexer.Token, *errors.Error) {
	tok := p.advance()
	if tok.Type == lexer.TokenEOF {
		return tok, p.unexpectedEOF(expected)
	}
	if tok.Type != typ {
		return tok, p.unexpected(tokenDescription(tok), expected)
	}
	return tok, nil
}

func (p *Parser) expectIdent(expected string) (string, syntax.Span, *errors.Error) {
	tok := p.advance()
	if tok.Type == lexer.TokenEOF {
		return "", syntax.Span{}, p.unexpectedEOF(expected)
	}
	if tok.Type != lexer.TokenIdent {
		return "", syntax.Span{}, p.unexpected(tokenDescription(tok), expected)
	}
	return tok.Value, tok.Span, nil
}

func (p *Parser) skip(typ lexer.TokenType) bool {
	if p.matches(typ) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) matches(typ lexer.TokenType) bool {
	return p.ahead[0].Type == typ
}

func (p *Parser) enter() *errors.Error {
	p.depth++
	if p.depth > maxRecursion {
		return p.syntaxError("template exceeds maximum recursion limits")
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

func tokenDescription(tok lexer.Token) string {
	switch tok.Type {
	case lexer.TokenIdent:
		return "identifier"
	case lexer.TokenString:
		return "string"
	case lexer.TokenInteger:
		return "integer"
	case lexer.TokenTemplateData:
		return "template text"
	case lexer.TokenEOF:
		return "end of input"
	default:
		return fmt.Sprintf("`%s`", tok.Value)
	}
}

// parseBody parses a run of literal text and constructs. It returns when
// it reaches a construct that belongs to an enclosing @if or @for, or the
// end of input; the caller consumes the terminator.
func (p *Parser) parseBody() ([]Stmt, *errors.Error) {
	children := []Stmt{}
	for {
		switch p.current().Type {
		case lexer.TokenTemplateData:
			tok := p.advance()
			children = append(children, &RawText{Text: tok.Value, span: tok.Span})
		case lexer.TokenDollar:
			node, err := p.parsePrint()
			if err != nil {
				return nil, err
			}
			children = append(children, node)
		case lexer.TokenAt:
			switch p.peek().Type {
			case lexer.TokenIdent:
				node, err := p.parseInclude()
				if err != nil {
					return nil, err
				}
				children = append(children, node)
			case lexer.TokenIf:
				node, err := p.parseIf()
				if err != nil {
					return nil, err
				}
				children = append(children, node)
			case lexer.TokenFor:
				node, err := p.parseFor()
				if err != nil {
					return nil, err
				}
				children = append(children, node)
			case lexer.TokenElif, lexer.TokenElse, lexer.TokenEndif, lexer.TokenEndfor:
				return children, nil
			default:
				p.advance()
				if p.matches(lexer.TokenEOF) {
					return nil, p.unexpectedEOF("`if`, `for`, or a template name after `@`")
				}
				return nil, p.unexpected(tokenDescription(p.current()), "`if`, `for`, or a template name after `@`")
			}
		default:
			return children, nil
		}
	}
}

func (p *Parser) parsePrint() (Stmt, *errors.Error) {
	span := p.currentSpan()
	p.advance() // `$`
	if _, err := p.expect(lexer.TokenBraceOpen, "`{`"); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenBraceClose, "`}`"); err != nil {
		return nil, err
	}
	return &Print{Expr: expr, span: p.expandSpan(span)}, nil
}

// parseExpr parses a value expression: a literal, or an identifier with
// member and index suffixes.
func (p *Parser) parseExpr() (Expr, *errors.Error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	span := p.currentSpan()
	tok := p.advance()
	switch tok.Type {
	case lexer.TokenNull:
		return &NullLit{span: tok.Span}, nil
	case lexer.TokenInteger:
		n, convErr := strconv.ParseInt(tok.Value, 10, 32)
		if convErr != nil {
			return nil, errors.New(errors.ErrSyntax, "integer literal out of range").WithSpan(tok.Span)
		}
		return &IntLit{Value: int32(n), span: tok.Span}, nil
	case lexer.TokenString:
		return &StrLit{Value: tok.Value, span: tok.Span}, nil
	case lexer.TokenIdent:
		return p.parseSuffixes(&Var{ID: tok.Value, span: tok.Span}, span)
	case lexer.TokenEOF:
		return nil, p.unexpectedEOF("an expression")
	default:
		return nil, p.unexpected(tokenDescription(tok), "an expression")
	}
}

func (p *Parser) parseSuffixes(expr Expr, span syntax.Span) (Expr, *errors.Error) {
	for {
		switch {
		case p.skip(lexer.TokenDot):
			name, _, err := p.expectIdent("member name")
			if err != nil {
				return nil, err
			}
			expr = &GetAttr{Expr: expr, Name: name, span: p.expandSpan(span)}
		case p.skip(lexer.TokenBracketOpen):
			sub, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.TokenBracketClose, "`]`"); err != nil {
				return nil, err
			}
			expr = &GetItem{Expr: expr, SubscriptExpr: sub, span: p.expandSpan(span)}
		default:
			return expr, nil
		}
	}
}

// parseCondition parses a boolean expression: or-terms over and-terms
// over factors.
func (p *Parser) parseCondition() (Expr, *errors.Error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	span := p.currentSpan()
	left, err := p.parseAndTerm()
	if err != nil {
		return nil, err
	}
	for p.skip(lexer.TokenOr) {
		right, err := p.parseAndTerm()
		if err != nil {
			return nil, err
		}
		left = &BinOp{Op: BinOpScOr, Left: left, Right: right, span: p.expandSpan(span)}
	}
	return left, nil
}

func (p *Parser) parseAndTerm() (Expr, *errors.Error) {
	span := p.currentSpan()
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.skip(lexer.TokenAnd) {
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &BinOp{Op: BinOpScAnd, Left: left, Right: right, span: p.expandSpan(span)}
	}
	return left, nil
}

func (p *Parser) parseFactor() (Expr, *errors.Error) {
	span := p.currentSpan()
	negated := p.skip(lexer.TokenNot)

	var expr Expr
	var err *errors.Error
	if p.skip(lexer.TokenParenOpen) {
		expr, err = p.parseCondition()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenParenClose, "`)`"); err != nil {
			return nil, err
		}
	} else {
		expr, err = p.parseComparison()
		if err != nil {
			return nil, err
		}
	}

	if negated {
		expr = &UnaryOp{Op: UnaryNot, Expr: expr, span: p.expandSpan(span)}
	}
	return expr, nil
}

// parseComparison parses expr [== expr | != expr]. Without an operator the
// expression is a presence test.
func (p *Parser) parseComparison() (Expr, *errors.Error) {
	span := p.currentSpan()
	left, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	var op BinOpKind
	switch p.current().Type {
	case lexer.TokenEq:
		op = BinOpEq
	case lexer.TokenNe:
		op = BinOpNe
	default:
		return &Present{Expr: left, span: p.expandSpan(span)}, nil
	}
	p.advance()

	right, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &BinOp{Op: op, Left: left, Right: right, span: p.expandSpan(span)}, nil
}

func (p *Parser) parseInclude() (*Include, *errors.Error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	span := p.currentSpan()
	p.advance() // `@`
	name, _, err := p.expectIdent("template name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenParenOpen, "`(`"); err != nil {
		return nil, err
	}

	var args []Arg
	if !p.matches(lexer.TokenParenClose) {
		for {
			arg, err := p.parseArg()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.skip(lexer.TokenComma) {
				break
			}
		}
	}
	if _, err := p.expect(lexer.TokenParenClose, "`)`"); err != nil {
		return nil, err
	}
	return &Include{Name: name, Args: args, span: p.expandSpan(span)}, nil
}

func (p *Parser) parseArg() (Arg, *errors.Error) {
	name, nameSpan, err := p.expectIdent("parameter name")
	if err != nil {
		return Arg{}, err
	}
	if !p.skip(lexer.TokenAssign) {
		// Shorthand: @sub(id) passes the caller's own id.
		return Arg{Name: name, Value: &Var{ID: name, span: nameSpan}, span: nameSpan}, nil
	}

	if p.matches(lexer.TokenAt) {
		if p.peek().Type != lexer.TokenIdent {
			p.advance()
			return Arg{}, p.unexpected(tokenDescription(p.current()), "a template name after `@`")
		}
		value, err := p.parseInclude()
		if err != nil {
			return Arg{}, err
		}
		return Arg{Name: name, Value: value, span: p.expandSpan(nameSpan)}, nil
	}

	value, err := p.parseExpr()
	if err != nil {
		return Arg{}, err
	}
	return Arg{Name: name, Value: value, span: p.expandSpan(nameSpan)}, nil
}

func (p *Parser) parseIf() (*IfCond, *errors.Error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	span := p.currentSpan()
	p.advance() // `@`
	p.advance() // `if`
	if _, err := p.expect(lexer.TokenParenOpen, "`(`"); err != nil {
		return nil, err
	}
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenParenClose, "`)`"); err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	branches := []Branch{{Cond: cond, Body: body}}

	for p.matches(lexer.TokenAt) && p.peek().Type == lexer.TokenElif {
		p.advance() // `@`
		p.advance() // `elif`
		if _, err := p.expect(lexer.TokenParenOpen, "`(`"); err != nil {
			return nil, err
		}
		cond, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenParenClose, "`)`"); err != nil {
			return nil, err
		}
		body, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		branches = append(branches, Branch{Cond: cond, Body: body})
	}

	var elseBody []Stmt
	if p.matches(lexer.TokenAt) && p.peek().Type == lexer.TokenElse {
		p.advance() // `@`
		p.advance() // `else`
		elseBody, err = p.parseBody()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(lexer.TokenAt, "`@endif`"); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenEndif, "`@endif`"); err != nil {
		return nil, err
	}
	return &IfCond{Branches: branches, ElseBody: elseBody, span: p.expandSpan(span)}, nil
}

func (p *Parser) parseFor() (*ForLoop, *errors.Error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	span := p.currentSpan()
	p.advance() // `@`
	p.advance() // `for`
	if _, err := p.expect(lexer.TokenParenOpen, "`(`"); err != nil {
		return nil, err
	}

	var valueVar, indexVar string
	var err *errors.Error
	if p.skip(lexer.TokenParenOpen) {
		valueVar, _, err = p.expectIdent("loop variable")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenComma, "`,`"); err != nil {
			return nil, err
		}
		indexVar, _, err = p.expectIdent("index variable")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenParenClose, "`)`"); err != nil {
			return nil, err
		}
	} else {
		valueVar, _, err = p.expectIdent("loop variable")
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(lexer.TokenIn, "`in`"); err != nil {
		return nil, err
	}
	coll, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	var sep *StrLit
	if p.skip(lexer.TokenComma) {
		if _, err := p.expect(lexer.TokenSeparator, "`separator`"); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenAssign, "`=`"); err != nil {
			return nil, err
		}
		tok, err := p.expect(lexer.TokenString, "a string literal")
		if err != nil {
			return nil, err
		}
		sep = &StrLit{Value: tok.Value, span: tok.Span}
	}

	if _, err := p.expect(lexer.TokenParenClose, "`)`"); err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenAt, "`@endfor`"); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenEndfor, "`@endfor`"); err != nil {
		return nil, err
	}
	return &ForLoop{
		ValueVar:  valueVar,
		IndexVar:  indexVar,
		CollExpr:  coll,
		Separator: sep,
		Body:      body,
		span:      p.expandSpan(span),
	}, nil
}
