package sqlgen

import "github.com/tanglong3bf/sqlgen/internal/errors"

// Error is the error type returned by all template operations. It carries
// an error kind, the template name, and a source span when one is known.
// Formatting an Error with %+v renders the offending source region.
type Error = errors.Error

// ErrorKind describes the type of error.
type ErrorKind = errors.ErrorKind

const (
	ErrLexical            = errors.ErrLexical
	ErrSyntax             = errors.ErrSyntax
	ErrUnknownParam       = errors.ErrUnknownParam
	ErrUnknownTemplate    = errors.ErrUnknownTemplate
	ErrTemplateNotFound   = errors.ErrTemplateNotFound
	ErrTypeMismatch       = errors.ErrTypeMismatch
	ErrUnsupportedDisplay = errors.ErrUnsupportedDisplay
	ErrDepthExceeded      = errors.ErrDepthExceeded
	ErrInvalidConfig      = errors.ErrInvalidConfig
)
