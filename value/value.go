// Package value implements the dynamic value model of the template engine:
// the three value kinds, the absent state, the structured document tree,
// and the coercions every expression node shares.
package value

import "strconv"

// Kind describes the type of a Value.
type Kind int

const (
	// KindAbsent marks a missing value. Absent is not one of the three
	// value kinds; it is the result of failed lookups and the null literal.
	KindAbsent Kind = iota
	KindInteger
	KindText
	KindStructured
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindInteger:
		return "integer"
	case KindText:
		return "text"
	case KindStructured:
		return "structured"
	default:
		return "unknown"
	}
}

// Value is the result of evaluating an expression node: a 32-bit integer,
// a text fragment, a structured document, or absent. Values are immutable
// once produced. The zero Value is absent.
type Value struct {
	data any // nil, int32, string, or *Structured
}

// Absent is the missing value.
var Absent = Value{}

// FromInt creates an integer value.
func FromInt(i int32) Value {
	return Value{data: i}
}

// FromText creates a text value.
func FromText(s string) Value {
	return Value{data: s}
}

// FromStructured creates a structured value. A nil document is absent.
func FromStructured(s *Structured) Value {
	if s == nil {
		return Absent
	}
	return Value{data: s}
}

// FromBool returns integer 1 for true and integer 0 for false. Boolean
// nodes produce integers; the language has no separate boolean kind.
func FromBool(b bool) Value {
	if b {
		return Value{data: int32(1)}
	}
	return Value{data: int32(0)}
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind {
	switch v.data.(type) {
	case nil:
		return KindAbsent
	case int32:
		return KindInteger
	case string:
		return KindText
	case *Structured:
		return KindStructured
	default:
		return KindAbsent
	}
}

// IsAbsent reports whether the value is missing.
func (v Value) IsAbsent() bool {
	return v.data == nil
}

// Int returns the integer payload, or 0 for other kinds.
func (v Value) Int() int32 {
	if i, ok := v.data.(int32); ok {
		return i
	}
	return 0
}

// Text returns the text payload, or "" for other kinds.
func (v Value) Text() string {
	if s, ok := v.data.(string); ok {
		return s
	}
	return ""
}

// Structured returns the structured payload, or nil for other kinds.
func (v Value) Structured() *Structured {
	if s, ok := v.data.(*Structured); ok {
		return s
	}
	return nil
}

// String renders a debugging representation of the value.
func (v Value) String() string {
	switch data := v.data.(type) {
	case nil:
		return "absent"
	case int32:
		return strconv.FormatInt(int64(data), 10)
	case string:
		return strconv.Quote(data)
	case *Structured:
		return data.String()
	default:
		return "absent"
	}
}
