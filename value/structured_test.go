package value

import "testing"

func TestFieldsInsertionOrder(t *testing.T) {
	fields := NewFields()
	fields.Set("b", NewInt(1))
	fields.Set("a", NewInt(2))
	fields.Set("b", NewInt(3))

	keys := fields.Keys()
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Fatalf("keys = %v, want [b a]", keys)
	}
	if v, ok := fields.Get("b"); !ok || !v.Equal(NewInt(3)) {
		t.Errorf("b = %s, want 3", v)
	}
}

func TestMemberAndAt(t *testing.T) {
	obj := NewObject(nil)
	fields, _ := obj.Object()
	fields.Set("name", NewString("zhangsan"))

	arr := NewArray(NewString("hlj"), NewString("sfh"))

	if v, ok := obj.Member("name"); !ok || !v.Equal(NewString("zhangsan")) {
		t.Errorf("member name = %s, %v", v, ok)
	}
	if _, ok := obj.Member("missing"); ok {
		t.Error("missing member should not resolve")
	}
	if v, ok := arr.At(0); !ok || !v.Equal(NewString("hlj")) {
		t.Errorf("at 0 = %s, %v", v, ok)
	}
	if _, ok := arr.At(2); ok {
		t.Error("out of range index should not resolve")
	}
	if _, ok := arr.At(-1); ok {
		t.Error("negative index should not resolve")
	}
	if _, ok := arr.Member("x"); ok {
		t.Error("member access on array should not resolve")
	}
	if _, ok := obj.At(0); ok {
		t.Error("index access on object should not resolve")
	}
}

func TestUnwrap(t *testing.T) {
	if v := NewInt(7).Unwrap(); v.Kind() != KindInteger || v.Int() != 7 {
		t.Errorf("unwrap int = %s", v)
	}
	if v := NewString("x").Unwrap(); v.Kind() != KindText || v.Text() != "x" {
		t.Errorf("unwrap string = %s", v)
	}
	if v := NewNull().Unwrap(); v.Kind() != KindStructured {
		t.Errorf("unwrap null = %s, want structured", v)
	}
	if v := NewBool(true).Unwrap(); v.Kind() != KindStructured {
		t.Errorf("unwrap bool = %s, want structured", v)
	}
	if v := NewArray().Unwrap(); v.Kind() != KindStructured {
		t.Errorf("unwrap array = %s, want structured", v)
	}
	if v := NewInt(1 << 40).Unwrap(); v.Kind() != KindStructured {
		t.Errorf("unwrap wide int = %s, want structured", v)
	}
	var nothing *Structured
	if v := nothing.Unwrap(); !v.IsAbsent() {
		t.Errorf("unwrap nil = %s, want absent", v)
	}
}

func TestFromAny(t *testing.T) {
	doc, err := FromAny(map[string]any{
		"name": "zhangsan",
		"age":  18,
		"tags": []any{"a", "b"},
		"ok":   true,
		"none": nil,
	})
	if err != nil {
		t.Fatalf("FromAny error: %v", err)
	}

	if v, ok := doc.Member("name"); !ok || !v.Equal(NewString("zhangsan")) {
		t.Errorf("name = %s", v)
	}
	if v, ok := doc.Member("age"); !ok || !v.Equal(NewInt(18)) {
		t.Errorf("age = %s", v)
	}
	tags, _ := doc.Member("tags")
	if items, ok := tags.Array(); !ok || len(items) != 2 {
		t.Errorf("tags = %s", tags)
	}
	if v, ok := doc.Member("none"); !ok || !v.IsNull() {
		t.Errorf("none = %s", v)
	}

	// Map keys load sorted.
	fields, _ := doc.Object()
	keys := fields.Keys()
	want := []string{"age", "name", "none", "ok", "tags"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}

	if _, err := FromAny(3.14); err == nil {
		t.Error("floats are outside the document model; expected error")
	}
}

func TestStructuredEqual(t *testing.T) {
	left := NewArray(NewInt(1), NewString("x"), NewNull())
	right := NewArray(NewInt(1), NewString("x"), NewNull())
	if !left.Equal(right) {
		t.Error("identical arrays should be equal")
	}

	a := NewFields()
	a.Set("x", NewInt(1))
	a.Set("y", NewInt(2))
	b := NewFields()
	b.Set("y", NewInt(2))
	b.Set("x", NewInt(1))
	if !NewObject(a).Equal(NewObject(b)) {
		t.Error("object equality must not depend on key order")
	}

	c := NewFields()
	c.Set("x", NewInt(1))
	if NewObject(a).Equal(NewObject(c)) {
		t.Error("objects of different size should differ")
	}
	if NewInt(1).Equal(NewString("1")) {
		t.Error("int and string documents should differ")
	}
	if NewNull().Equal(NewBool(false)) {
		t.Error("null and false should differ")
	}
}

func TestStructuredString(t *testing.T) {
	fields := NewFields()
	fields.Set("b", NewInt(1))
	fields.Set("a", NewArray(NewString("x"), NewNull()))
	doc := NewObject(fields)

	want := `{"b":1,"a":["x",null]}`
	if got := doc.String(); got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
}
