package sqlgen

import (
	"log/slog"
	"strings"

	"github.com/tanglong3bf/sqlgen/internal/errors"
	"github.com/tanglong3bf/sqlgen/parser"
	"github.com/tanglong3bf/sqlgen/syntax"
	"github.com/tanglong3bf/sqlgen/value"
)

// state holds the evaluation state during one template render.
type state struct {
	logger *slog.Logger
	name   string
	source string
	scopes []*value.Env // scopes[0] is the argument environment
	out    strings.Builder

	// include resolves an inclusion into rendered text. A nil include
	// means there is nothing to resolve against; inclusions then render
	// as empty text.
	include func(name string, args *value.Env) (string, *errors.Error)
}

func newState(logger *slog.Logger, name, source string, env *value.Env) *state {
	if logger == nil {
		logger = slog.Default()
	}
	if env == nil {
		env = value.NewEnv()
	}
	return &state{
		logger: logger,
		name:   name,
		source: source,
		scopes: []*value.Env{env},
	}
}

// lookup resolves a name against the scope chain, innermost first.
func (s *state) lookup(name string) value.Value {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if v, ok := s.scopes[i].Get(name); ok {
			return v
		}
	}
	return value.Absent
}

func (s *state) setLocal(name string, v value.Value) {
	s.scopes[len(s.scopes)-1].Set(name, v)
}

// pushScope creates a new scope.
func (s *state) pushScope() {
	s.scopes = append(s.scopes, value.NewEnv())
}

// popScope removes the current scope.
func (s *state) popScope() {
	if len(s.scopes) > 1 {
		s.scopes = s.scopes[:len(s.scopes)-1]
	}
}

// eval renders a template AST.
func (s *state) eval(tmpl *parser.Template) (string, *errors.Error) {
	for _, stmt := range tmpl.Children {
		if err := s.evalStmt(stmt); err != nil {
			return "", s.attachErrorInfo(err, stmt)
		}
	}
	return s.out.String(), nil
}

// attachErrorInfo fills in template context an inner error is missing.
func (s *state) attachErrorInfo(err *errors.Error, node parser.Node) *errors.Error {
	if err == nil {
		return nil
	}
	if err.Name == "" {
		err.WithName(s.name)
	}
	if err.Source == "" {
		err.WithSource(s.source)
	}
	if err.Span == nil && node != nil {
		err.WithSpan(node.Span())
	}
	return err
}

func (s *state) evalStmt(stmt parser.Stmt) *errors.Error {
	switch st := stmt.(type) {
	case *parser.RawText:
		s.out.WriteString(st.Text)
		return nil

	case *parser.Print:
		val, err := s.evalExpr(st.Expr)
		if err != nil {
			return err
		}
		s.writeValue(val, st.Span())
		return nil

	case *parser.IfCond:
		return s.evalIfCond(st)

	case *parser.ForLoop:
		return s.evalForLoop(st)

	case *parser.Include:
		text, err := s.evalInclude(st)
		if err != nil {
			return err
		}
		s.out.WriteString(text)
		return nil

	default:
		return errors.Newf(errors.ErrSyntax, "unsupported statement type: %T", stmt)
	}
}

// writeValue appends a value's display text. Structured values have no
// display form; they are reported and contribute nothing. Absent values
// print as empty text silently.
func (s *state) writeValue(v value.Value, span syntax.Span) {
	text, ok := v.Display()
	if !ok {
		s.logger.Warn("value has no display form, printing empty text",
			"template", s.name,
			"kind", v.Kind().String(),
			"span", span.String())
		return
	}
	s.out.WriteString(text)
}

func (s *state) evalBody(body []parser.Stmt) *errors.Error {
	for _, stmt := range body {
		if err := s.evalStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

// evalIfCond takes the first branch whose condition holds. With no match
// and no else body the conditional contributes nothing.
func (s *state) evalIfCond(cond *parser.IfCond) *errors.Error {
	for _, branch := range cond.Branches {
		v, err := s.evalExpr(branch.Cond)
		if err != nil {
			return err
		}
		if v.IsTrue() {
			return s.evalBody(branch.Body)
		}
	}
	if cond.ElseBody != nil {
		return s.evalBody(cond.ElseBody)
	}
	return nil
}

// evalForLoop iterates a structured array in index order or a structured
// object in insertion order. The separator goes between iterations only.
func (s *state) evalForLoop(loop *parser.ForLoop) *errors.Error {
	coll, err := s.evalExpr(loop.CollExpr)
	if err != nil {
		return err
	}
	separator := ""
	if loop.Separator != nil {
		separator = loop.Separator.Value
	}

	doc := coll.Structured()
	if doc == nil {
		if !coll.IsAbsent() {
			s.logger.Warn("loop collection is not structured, skipping loop",
				"template", s.name,
				"kind", coll.Kind().String(),
				"span", loop.Span().String())
		}
		return nil
	}

	if items, ok := doc.Array(); ok {
		for i, item := range items {
			if i > 0 {
				s.out.WriteString(separator)
			}
			s.pushScope()
			s.setLocal(loop.ValueVar, item.Unwrap())
			if loop.IndexVar != "" {
				s.setLocal(loop.IndexVar, value.FromInt(int32(i)))
			}
			err := s.evalBody(loop.Body)
			s.popScope()
			if err != nil {
				return err
			}
		}
		return nil
	}

	if fields, ok := doc.Object(); ok {
		for i, key := range fields.Keys() {
			if i > 0 {
				s.out.WriteString(separator)
			}
			member, _ := fields.Get(key)
			s.pushScope()
			s.setLocal(loop.ValueVar, member.Unwrap())
			if loop.IndexVar != "" {
				s.setLocal(loop.IndexVar, value.FromText(key))
			}
			err := s.evalBody(loop.Body)
			s.popScope()
			if err != nil {
				return err
			}
		}
		return nil
	}

	s.logger.Warn("loop collection is not an array or object, skipping loop",
		"template", s.name,
		"span", loop.Span().String())
	return nil
}

func (s *state) evalExpr(expr parser.Expr) (value.Value, *errors.Error) {
	switch e := expr.(type) {
	case *parser.Var:
		v := s.lookup(e.ID)
		if v.IsAbsent() {
			s.logger.Debug("parameter is not bound, evaluating as absent",
				"template", s.name,
				"param", e.ID,
				"span", e.Span().String())
		}
		return v, nil

	case *parser.IntLit:
		return value.FromInt(e.Value), nil

	case *parser.StrLit:
		return value.FromText(e.Value), nil

	case *parser.NullLit:
		return value.Absent, nil

	case *parser.GetAttr:
		base, err := s.evalExpr(e.Expr)
		if err != nil {
			return value.Absent, err
		}
		return s.member(base, e.Name, e.Span()), nil

	case *parser.GetItem:
		base, err := s.evalExpr(e.Expr)
		if err != nil {
			return value.Absent, err
		}
		sub, err := s.evalExpr(e.SubscriptExpr)
		if err != nil {
			return value.Absent, err
		}
		return s.element(base, sub, e.Span()), nil

	case *parser.Present:
		v, err := s.evalExpr(e.Expr)
		if err != nil {
			return value.Absent, err
		}
		return value.FromBool(!v.IsAbsent()), nil

	case *parser.UnaryOp:
		v, err := s.evalExpr(e.Expr)
		if err != nil {
			return value.Absent, err
		}
		return value.FromBool(!v.IsTrue()), nil

	case *parser.BinOp:
		return s.evalBinOp(e)

	case *parser.Include:
		text, err := s.evalInclude(e)
		if err != nil {
			return value.Absent, err
		}
		return value.FromText(text), nil

	default:
		return value.Absent, errors.Newf(errors.ErrSyntax, "unsupported expression type: %T", expr)
	}
}

func (s *state) evalBinOp(op *parser.BinOp) (value.Value, *errors.Error) {
	left, err := s.evalExpr(op.Left)
	if err != nil {
		return value.Absent, err
	}

	// and/or short-circuit: the right operand only runs when the left
	// does not decide the result.
	switch op.Op {
	case parser.BinOpScAnd:
		if !left.IsTrue() {
			return value.FromBool(false), nil
		}
		right, err := s.evalExpr(op.Right)
		if err != nil {
			return value.Absent, err
		}
		return value.FromBool(right.IsTrue()), nil

	case parser.BinOpScOr:
		if left.IsTrue() {
			return value.FromBool(true), nil
		}
		right, err := s.evalExpr(op.Right)
		if err != nil {
			return value.Absent, err
		}
		return value.FromBool(right.IsTrue()), nil
	}

	right, err := s.evalExpr(op.Right)
	if err != nil {
		return value.Absent, err
	}
	switch op.Op {
	case parser.BinOpEq:
		return value.FromBool(left.Equal(right)), nil
	case parser.BinOpNe:
		return value.FromBool(!left.Equal(right)), nil
	}
	return value.Absent, errors.Newf(errors.ErrSyntax, "unsupported operator: %s", op.Op)
}

// member resolves base.name. A missing member is absent; a base of the
// wrong shape is reported.
func (s *state) member(base value.Value, name string, span syntax.Span) value.Value {
	if base.IsAbsent() {
		return value.Absent
	}
	doc := base.Structured()
	if doc == nil {
		s.logger.Warn("member access on a non-structured value, evaluating as absent",
			"template", s.name,
			"member", name,
			"kind", base.Kind().String(),
			"span", span.String())
		return value.Absent
	}
	fields, ok := doc.Object()
	if !ok {
		s.logger.Warn("member access on a non-object value, evaluating as absent",
			"template", s.name,
			"member", name,
			"span", span.String())
		return value.Absent
	}
	m, ok := fields.Get(name)
	if !ok {
		s.logger.Debug("member is not present, evaluating as absent",
			"template", s.name,
			"member", name,
			"span", span.String())
		return value.Absent
	}
	return m.Unwrap()
}

// element resolves base[sub]: an integer subscript indexes an array, a
// text subscript selects an object member.
func (s *state) element(base, sub value.Value, span syntax.Span) value.Value {
	if base.IsAbsent() || sub.IsAbsent() {
		return value.Absent
	}
	doc := base.Structured()
	if doc == nil {
		s.logger.Warn("index access on a non-structured value, evaluating as absent",
			"template", s.name,
			"kind", base.Kind().String(),
			"span", span.String())
		return value.Absent
	}

	if items, ok := doc.Array(); ok {
		if sub.Kind() != value.KindInteger {
			s.logger.Warn("array subscript is not an integer, evaluating as absent",
				"template", s.name,
				"kind", sub.Kind().String(),
				"span", span.String())
			return value.Absent
		}
		i := int(sub.Int())
		if i < 0 || i >= len(items) {
			s.logger.Debug("array index out of range, evaluating as absent",
				"template", s.name,
				"index", i,
				"len", len(items),
				"span", span.String())
			return value.Absent
		}
		return items[i].Unwrap()
	}

	if fields, ok := doc.Object(); ok {
		if sub.Kind() != value.KindText {
			s.logger.Warn("object subscript is not text, evaluating as absent",
				"template", s.name,
				"kind", sub.Kind().String(),
				"span", span.String())
			return value.Absent
		}
		m, ok := fields.Get(sub.Text())
		if !ok {
			s.logger.Debug("member is not present, evaluating as absent",
				"template", s.name,
				"member", sub.Text(),
				"span", span.String())
			return value.Absent
		}
		return m.Unwrap()
	}

	s.logger.Warn("index access on a primitive value, evaluating as absent",
		"template", s.name,
		"span", span.String())
	return value.Absent
}

// evalInclude renders an inclusion and returns its text. Arguments are
// evaluated against the calling environment; an argument that evaluates
// to absent is dropped rather than bound.
func (s *state) evalInclude(inc *parser.Include) (string, *errors.Error) {
	args := value.NewEnv()
	for _, arg := range inc.Args {
		v, err := s.evalExpr(arg.Value)
		if err != nil {
			return "", err
		}
		if v.IsAbsent() {
			s.logger.Debug("dropping unresolved inclusion argument",
				"template", s.name,
				"sub", inc.Name,
				"param", arg.Name)
			continue
		}
		args.Set(arg.Name, v)
	}

	if s.include == nil {
		s.logger.Warn("no catalog attached, inclusion renders empty text",
			"template", s.name,
			"sub", inc.Name,
			"span", inc.Span().String())
		return "", nil
	}
	out, err := s.include(inc.Name, args)
	if err != nil {
		return "", s.attachErrorInfo(err, inc)
	}
	return out, nil
}
