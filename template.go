package sqlgen

import (
	"log/slog"

	"github.com/tanglong3bf/sqlgen/internal/errors"
	"github.com/tanglong3bf/sqlgen/parser"
	"github.com/tanglong3bf/sqlgen/value"
)

// IncludeFunc resolves an inclusion: it receives the inclusion's target
// name and its evaluated arguments and returns the rendered text.
type IncludeFunc func(name string, args *value.Env) (string, error)

// Template is a single parsed template, rendered independently of a
// catalog entry.
type Template struct {
	name    string
	source  string
	ast     *parser.Template
	logger  *slog.Logger
	include func(name string, args *value.Env) (string, *errors.Error)
}

// FromString parses an ad-hoc template. Its inclusions render as empty
// text unless an includer is attached with SetIncluder.
func FromString(source string) (*Template, error) {
	ast, err := parser.Parse(source, "<string>")
	if err != nil {
		return nil, err
	}
	return &Template{
		name:   "<string>",
		source: source,
		ast:    ast,
		logger: slog.Default(),
	}, nil
}

// FromString parses an ad-hoc template whose inclusions resolve against
// the generator's catalog by top-level name. A name the catalog does not
// carry renders as empty text, like any other unresolved inclusion.
func (g *Generator) FromString(source string) (*Template, error) {
	t, err := FromString(source)
	if err != nil {
		return nil, err
	}
	t.logger = g.logger
	t.include = func(name string, args *value.Env) (string, *errors.Error) {
		out, rerr := g.resolve(name, "main", args, 1)
		if rerr != nil && rerr.Kind == errors.ErrTemplateNotFound {
			g.logger.Warn("included template is not defined, rendering empty text",
				"template", name)
			return "", nil
		}
		return out, rerr
	}
	return t, nil
}

// Name returns the template name.
func (t *Template) Name() string {
	return t.name
}

// Source returns the template source.
func (t *Template) Source() string {
	return t.source
}

// SetIncluder routes the template's inclusions through fn.
func (t *Template) SetIncluder(fn IncludeFunc) {
	if fn == nil {
		t.include = nil
		return
	}
	t.include = func(name string, args *value.Env) (string, *errors.Error) {
		out, err := fn(name, args)
		if err != nil {
			if e, ok := err.(*errors.Error); ok {
				return "", e
			}
			return "", errors.New(errors.ErrUnknownTemplate, "inclusion failed").
				WithName(name).
				WithCause(err)
		}
		return out, nil
	}
}

// Render evaluates the template with the given arguments.
func (t *Template) Render(args Args) (string, error) {
	st := newState(t.logger, t.name, t.source, argsToEnv(args))
	st.include = t.include
	out, err := st.eval(t.ast)
	if err != nil {
		return "", err
	}
	return out, nil
}
