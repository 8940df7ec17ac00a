package value

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Structured is a JSON-like document: null, boolean, integer, string,
// array, or string-keyed object. Objects remember the order their keys
// were inserted in, which is the order loops iterate them in.
type Structured struct {
	data any // nil, bool, int64, string, []*Structured, or *Fields
}

// NewNull creates a structured null.
func NewNull() *Structured {
	return &Structured{}
}

// NewBool creates a structured boolean.
func NewBool(b bool) *Structured {
	return &Structured{data: b}
}

// NewInt creates a structured integer.
func NewInt(i int64) *Structured {
	return &Structured{data: i}
}

// NewString creates a structured string.
func NewString(s string) *Structured {
	return &Structured{data: s}
}

// NewArray creates a structured array of the given elements.
func NewArray(items ...*Structured) *Structured {
	return &Structured{data: items}
}

// NewObject creates a structured object over the given fields. A nil
// fields set is an empty object.
func NewObject(fields *Fields) *Structured {
	if fields == nil {
		fields = NewFields()
	}
	return &Structured{data: fields}
}

// FromAny converts native Go data into a structured document. Maps have no
// reliable order, so their keys are inserted sorted; use Fields directly
// when insertion order matters.
func FromAny(v any) (*Structured, error) {
	switch data := v.(type) {
	case nil:
		return NewNull(), nil
	case bool:
		return NewBool(data), nil
	case int:
		return NewInt(int64(data)), nil
	case int32:
		return NewInt(int64(data)), nil
	case int64:
		return NewInt(data), nil
	case string:
		return NewString(data), nil
	case *Structured:
		return data, nil
	case []any:
		items := make([]*Structured, len(data))
		for i, item := range data {
			conv, err := FromAny(item)
			if err != nil {
				return nil, err
			}
			items[i] = conv
		}
		return NewArray(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := NewFields()
		for _, k := range keys {
			conv, err := FromAny(data[k])
			if err != nil {
				return nil, err
			}
			fields.Set(k, conv)
		}
		return NewObject(fields), nil
	default:
		return nil, fmt.Errorf("cannot represent %T as a structured value", v)
	}
}

// IsNull reports whether the document is the null value.
func (s *Structured) IsNull() bool {
	return s == nil || s.data == nil
}

// Array returns the array payload.
func (s *Structured) Array() ([]*Structured, bool) {
	if s == nil {
		return nil, false
	}
	items, ok := s.data.([]*Structured)
	return items, ok
}

// Object returns the object payload.
func (s *Structured) Object() (*Fields, bool) {
	if s == nil {
		return nil, false
	}
	fields, ok := s.data.(*Fields)
	return fields, ok
}

// Member returns the named member of an object payload.
func (s *Structured) Member(key string) (*Structured, bool) {
	fields, ok := s.Object()
	if !ok {
		return nil, false
	}
	return fields.Get(key)
}

// At returns the element at index i of an array payload.
func (s *Structured) At(i int) (*Structured, bool) {
	items, ok := s.Array()
	if !ok || i < 0 || i >= len(items) {
		return nil, false
	}
	return items[i], true
}

// Unwrap converts primitive payloads into first-class values: integers
// become Integer and strings become Text. Null, booleans, arrays, objects,
// and integers that do not fit 32 bits stay structured. Access sites share
// this coercion.
func (s *Structured) Unwrap() Value {
	if s == nil {
		return Absent
	}
	switch data := s.data.(type) {
	case int64:
		if data < math.MinInt32 || data > math.MaxInt32 {
			return FromStructured(s)
		}
		return FromInt(int32(data))
	case string:
		return FromText(data)
	default:
		return FromStructured(s)
	}
}

// Equal reports deep structural equality. Object key order does not
// matter for equality.
func (s *Structured) Equal(other *Structured) bool {
	if s == nil || other == nil {
		return s == other
	}
	switch a := s.data.(type) {
	case nil:
		return other.data == nil
	case bool:
		b, ok := other.data.(bool)
		return ok && a == b
	case int64:
		b, ok := other.data.(int64)
		return ok && a == b
	case string:
		b, ok := other.data.(string)
		return ok && a == b
	case []*Structured:
		b, ok := other.data.([]*Structured)
		if !ok || len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
		return true
	case *Fields:
		b, ok := other.data.(*Fields)
		if !ok || a.Len() != b.Len() {
			return false
		}
		for _, key := range a.keys {
			av, _ := a.Get(key)
			bv, ok := b.Get(key)
			if !ok || !av.Equal(bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders a compact JSON-like representation for logs and dumps.
func (s *Structured) String() string {
	var sb strings.Builder
	s.appendTo(&sb)
	return sb.String()
}

func (s *Structured) appendTo(sb *strings.Builder) {
	if s == nil {
		sb.WriteString("null")
		return
	}
	switch data := s.data.(type) {
	case nil:
		sb.WriteString("null")
	case bool:
		sb.WriteString(strconv.FormatBool(data))
	case int64:
		sb.WriteString(strconv.FormatInt(data, 10))
	case string:
		sb.WriteString(strconv.Quote(data))
	case []*Structured:
		sb.WriteByte('[')
		for i, item := range data {
			if i > 0 {
				sb.WriteByte(',')
			}
			item.appendTo(sb)
		}
		sb.WriteByte(']')
	case *Fields:
		sb.WriteByte('{')
		for i, key := range data.keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(key))
			sb.WriteByte(':')
			item, _ := data.Get(key)
			item.appendTo(sb)
		}
		sb.WriteByte('}')
	}
}

// Fields is a string-keyed mapping that preserves insertion order.
type Fields struct {
	keys []string
	vals map[string]*Structured
}

// NewFields creates an empty field set.
func NewFields() *Fields {
	return &Fields{vals: make(map[string]*Structured)}
}

// Set stores a field. New keys append to the order; existing keys keep
// their position.
func (f *Fields) Set(key string, v *Structured) {
	if _, ok := f.vals[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.vals[key] = v
}

// Get returns the field for key.
func (f *Fields) Get(key string) (*Structured, bool) {
	v, ok := f.vals[key]
	return v, ok
}

// Keys returns the field names in insertion order. The slice is shared;
// callers must not modify it.
func (f *Fields) Keys() []string {
	return f.keys
}

// Len returns the number of fields.
func (f *Fields) Len() int {
	return len(f.keys)
}
