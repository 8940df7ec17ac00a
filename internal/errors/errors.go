// Package errors defines the error type shared by the lexer, parser, and
// template engine.
package errors

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/tanglong3bf/sqlgen/syntax"
)

// ErrorKind describes the type of error.
type ErrorKind int

const (
	ErrLexical ErrorKind = iota
	ErrSyntax
	ErrUnknownParam
	ErrUnknownTemplate
	ErrTemplateNotFound
	ErrTypeMismatch
	ErrUnsupportedDisplay
	ErrDepthExceeded
	ErrInvalidConfig
)

func (k ErrorKind) String() string {
	switch k {
	case ErrLexical:
		return "lexical error"
	case ErrSyntax:
		return "syntax error"
	case ErrUnknownParam:
		return "unknown parameter"
	case ErrUnknownTemplate:
		return "unknown template"
	case ErrTemplateNotFound:
		return "template not found"
	case ErrTypeMismatch:
		return "type mismatch"
	case ErrUnsupportedDisplay:
		return "unsupported display"
	case ErrDepthExceeded:
		return "inclusion depth exceeded"
	case ErrInvalidConfig:
		return "invalid config"
	default:
		return "error"
	}
}

// Error represents an error that occurred during template processing.
type Error struct {
	Kind    ErrorKind
	Message string
	Span    *syntax.Span
	Name    string // template name
	Source  string // template source (for error display)
	cause   error
}

func (e *Error) Error() string {
	if e.Name != "" && e.Span != nil {
		return fmt.Sprintf("%s: %s (in %s, line %d)", e.Kind, e.Message, e.Name, e.Span.StartLine)
	}
	if e.Name != "" {
		return fmt.Sprintf("%s: %s (in %s)", e.Kind, e.Message, e.Name)
	}
	if e.Span != nil {
		return fmt.Sprintf("%s: %s (at line %d)", e.Kind, e.Message, e.Span.StartLine)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New creates a new error.
func New(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf creates a new error with a formatted message.
func Newf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithSpan adds span information to an error.
func (e *Error) WithSpan(span syntax.Span) *Error {
	e.Span = &span
	return e
}

// WithName adds the template name to an error.
func (e *Error) WithName(name string) *Error {
	e.Name = name
	return e
}

// WithSource adds the template source to an error.
func (e *Error) WithSource(source string) *Error {
	e.Source = source
	return e
}

// WithCause records the underlying error.
func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// LogValue renders the error as a group of structured logging attributes.
func (e *Error) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("kind", e.Kind.String()),
		slog.String("message", e.Message),
	}
	if e.Name != "" {
		attrs = append(attrs, slog.String("template", e.Name))
	}
	if e.Span != nil {
		attrs = append(attrs, slog.String("span", e.Span.String()))
	}
	if e.cause != nil {
		attrs = append(attrs, slog.String("cause", e.cause.Error()))
	}
	return slog.GroupValue(attrs...)
}

// Format implements fmt.Formatter. The %+v verb renders the error with a
// window of the template source around the failing span.
func (e *Error) Format(f fmt.State, verb rune) {
	if verb == 'v' && f.Flag('+') {
		formatWithSource(f, e, true)
		return
	}
	_, _ = io.WriteString(f, e.Error())
}
