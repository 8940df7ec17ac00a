package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tanglong3bf/sqlgen/syntax"
)

// Node is implemented by every AST node.
type Node interface {
	node()
	Span() syntax.Span
}

// Stmt is a fragment of a template body.
type Stmt interface {
	Node
	stmt()
}

// Expr evaluates to a value.
type Expr interface {
	Node
	expr()
}

// Template is the root of a parsed template.
type Template struct {
	Children []Stmt
	span     syntax.Span
}

// RawText is a run of literal text emitted unchanged.
type RawText struct {
	Text string
	span syntax.Span
}

// Print substitutes the display text of an expression: ${expr}.
type Print struct {
	Expr Expr
	span syntax.Span
}

// IfCond selects the first branch whose condition is true: @if/@elif
// branches in source order, with an optional @else body.
type IfCond struct {
	Branches []Branch
	ElseBody []Stmt
	span     syntax.Span
}

// Branch is one (condition, body) pair of an IfCond.
type Branch struct {
	Cond Expr
	Body []Stmt
}

// ForLoop iterates a structured collection: @for(v in expr) or
// @for((v, i) in expr), with an optional separator between iterations.
type ForLoop struct {
	ValueVar  string
	IndexVar  string // empty when not named
	CollExpr  Expr
	Separator *StrLit // nil when not given
	Body      []Stmt
	span      syntax.Span
}

// Include calls a named sub-template with arguments: @name(args). It is
// both a statement and an expression, since an inclusion may appear as an
// argument value.
type Include struct {
	Name string
	Args []Arg
	span syntax.Span
}

// Arg is one argument binding of an inclusion. The shorthand form
// @name(id) parses as id=id.
type Arg struct {
	Name  string
	Value Expr
	span  syntax.Span
}

// Span returns the source range of the argument.
func (a Arg) Span() syntax.Span { return a.span }

// Var references a parameter by name.
type Var struct {
	ID   string
	span syntax.Span
}

// IntLit is an integer literal.
type IntLit struct {
	Value int32
	span  syntax.Span
}

// StrLit is a string literal.
type StrLit struct {
	Value string
	span  syntax.Span
}

// NullLit is the null literal; it evaluates to the absent value.
type NullLit struct {
	span syntax.Span
}

// GetAttr reads a named member of a structured object: a.b.
type GetAttr struct {
	Expr Expr
	Name string
	span syntax.Span
}

// GetItem reads an element or member by a computed subscript: a[expr].
type GetItem struct {
	Expr          Expr
	SubscriptExpr Expr
	span          syntax.Span
}

// Present tests whether the operand evaluates to a present value. A
// condition without a comparison operator is a presence test.
type Present struct {
	Expr Expr
	span syntax.Span
}

// BinOpKind identifies a binary operator.
type BinOpKind int

const (
	BinOpEq BinOpKind = iota
	BinOpNe
	BinOpScAnd // short-circuit and
	BinOpScOr  // short-circuit or
)

func (k BinOpKind) String() string {
	switch k {
	case BinOpEq:
		return "eq"
	case BinOpNe:
		return "ne"
	case BinOpScAnd:
		return "and"
	case BinOpScOr:
		return "or"
	default:
		return "op"
	}
}

// BinOp combines two operands. Both comparison and logical nodes evaluate
// to integer 0 or 1.
type BinOp struct {
	Op    BinOpKind
	Left  Expr
	Right Expr
	span  syntax.Span
}

// UnaryOpKind identifies a unary operator.
type UnaryOpKind int

// UnaryNot is boolean negation.
const UnaryNot UnaryOpKind = iota

// UnaryOp applies a unary operator.
type UnaryOp struct {
	Op   UnaryOpKind
	Expr Expr
	span syntax.Span
}

func (t *Template) node() {}
func (n *RawText) node()  {}
func (n *Print) node()    {}
func (n *IfCond) node()   {}
func (n *ForLoop) node()  {}
func (n *Include) node()  {}
func (n *Var) node()      {}
func (n *IntLit) node()   {}
func (n *StrLit) node()   {}
func (n *NullLit) node()  {}
func (n *GetAttr) node()  {}
func (n *GetItem) node()  {}
func (n *Present) node()  {}
func (n *BinOp) node()    {}
func (n *UnaryOp) node()  {}

func (n *RawText) stmt() {}
func (n *Print) stmt()   {}
func (n *IfCond) stmt()  {}
func (n *ForLoop) stmt() {}
func (n *Include) stmt() {}

func (n *Include) expr() {}
func (n *Var) expr()     {}
func (n *IntLit) expr()  {}
func (n *StrLit) expr()  {}
func (n *NullLit) expr() {}
func (n *GetAttr) expr() {}
func (n *GetItem) expr() {}
func (n *Present) expr() {}
func (n *BinOp) expr()   {}
func (n *UnaryOp) expr() {}

func (t *Template) Span() syntax.Span { return t.span }
func (n *RawText) Span() syntax.Span  { return n.span }
func (n *Print) Span() syntax.Span    { return n.span }
func (n *IfCond) Span() syntax.Span   { return n.span }
func (n *ForLoop) Span() syntax.Span  { return n.span }
func (n *Include) Span() syntax.Span  { return n.span }
func (n *Var) Span() syntax.Span      { return n.span }
func (n *IntLit) Span() syntax.Span   { return n.span }
func (n *StrLit) Span() syntax.Span   { return n.span }
func (n *NullLit) Span() syntax.Span  { return n.span }
func (n *GetAttr) Span() syntax.Span  { return n.span }
func (n *GetItem) Span() syntax.Span  { return n.span }
func (n *Present) Span() syntax.Span  { return n.span }
func (n *BinOp) Span() syntax.Span    { return n.span }
func (n *UnaryOp) Span() syntax.Span  { return n.span }

// DebugString renders a node as an indented tree for diagnostics.
func DebugString(n Node) string {
	var sb strings.Builder
	appendDebug(&sb, n, 0)
	return strings.TrimRight(sb.String(), "\n")
}

func appendDebug(sb *strings.Builder, n Node, depth int) {
	indent := strings.Repeat("  ", depth)
	switch node := n.(type) {
	case *Template:
		sb.WriteString(indent + "template\n")
		for _, child := range node.Children {
			appendDebug(sb, child, depth+1)
		}
	case *RawText:
		fmt.Fprintf(sb, "%stext %s\n", indent, strconv.Quote(node.Text))
	case *Print:
		sb.WriteString(indent + "print\n")
		appendDebug(sb, node.Expr, depth+1)
	case *IfCond:
		sb.WriteString(indent + "if\n")
		for _, branch := range node.Branches {
			sb.WriteString(indent + "  branch\n")
			appendDebug(sb, branch.Cond, depth+2)
			sb.WriteString(indent + "  then\n")
			for _, child := range branch.Body {
				appendDebug(sb, child, depth+2)
			}
		}
		if node.ElseBody != nil {
			sb.WriteString(indent + "  else\n")
			for _, child := range node.ElseBody {
				appendDebug(sb, child, depth+2)
			}
		}
	case *ForLoop:
		if node.IndexVar != "" {
			fmt.Fprintf(sb, "%sfor (%s, %s) in\n", indent, node.ValueVar, node.IndexVar)
		} else {
			fmt.Fprintf(sb, "%sfor %s in\n", indent, node.ValueVar)
		}
		appendDebug(sb, node.CollExpr, depth+1)
		if node.Separator != nil {
			fmt.Fprintf(sb, "%s  separator %s\n", indent, strconv.Quote(node.Separator.Value))
		}
		sb.WriteString(indent + "  do\n")
		for _, child := range node.Body {
			appendDebug(sb, child, depth+2)
		}
	case *Include:
		fmt.Fprintf(sb, "%sinclude %s\n", indent, node.Name)
		for _, arg := range node.Args {
			fmt.Fprintf(sb, "%s  arg %s\n", indent, arg.Name)
			appendDebug(sb, arg.Value, depth+2)
		}
	case *Var:
		fmt.Fprintf(sb, "%svar %s\n", indent, node.ID)
	case *IntLit:
		fmt.Fprintf(sb, "%sint %d\n", indent, node.Value)
	case *StrLit:
		fmt.Fprintf(sb, "%sstr %s\n", indent, strconv.Quote(node.Value))
	case *NullLit:
		sb.WriteString(indent + "null\n")
	case *GetAttr:
		fmt.Fprintf(sb, "%sgetattr %s\n", indent, node.Name)
		appendDebug(sb, node.Expr, depth+1)
	case *GetItem:
		sb.WriteString(indent + "getitem\n")
		appendDebug(sb, node.Expr, depth+1)
		appendDebug(sb, node.SubscriptExpr, depth+1)
	case *Present:
		sb.WriteString(indent + "present\n")
		appendDebug(sb, node.Expr, depth+1)
	case *BinOp:
		fmt.Fprintf(sb, "%s%s\n", indent, node.Op)
		appendDebug(sb, node.Left, depth+1)
		appendDebug(sb, node.Right, depth+1)
	case *UnaryOp:
		sb.WriteString(indent + "not\n")
		appendDebug(sb, node.Expr, depth+1)
	}
}
