package value

import "strconv"

// Display returns the text a print site contributes for this value. Absent
// values print as the empty string. Structured documents have no display
// text: ok is false and the caller reports the condition.
func (v Value) Display() (text string, ok bool) {
	switch data := v.data.(type) {
	case nil:
		return "", true
	case int32:
		return strconv.FormatInt(int64(data), 10), true
	case string:
		return data, true
	default:
		return "", false
	}
}

// IsTrue returns the truthiness of the value: absent is false, integers
// are true unless zero, text is true unless empty, and structured
// documents are always true.
func (v Value) IsTrue() bool {
	switch data := v.data.(type) {
	case nil:
		return false
	case int32:
		return data != 0
	case string:
		return data != ""
	case *Structured:
		return true
	default:
		return false
	}
}

// Equal compares two values. Absent equals only absent, integers and text
// compare by payload, structured documents compare by deep structural
// equality, and values of different kinds are never equal.
func (v Value) Equal(other Value) bool {
	if v.Kind() != other.Kind() {
		return false
	}
	switch data := v.data.(type) {
	case nil:
		return true
	case int32:
		return data == other.Int()
	case string:
		return data == other.Text()
	case *Structured:
		return data.Equal(other.Structured())
	default:
		return false
	}
}
