package sqlgen

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/tanglong3bf/sqlgen/value"
)

func renderString(t *testing.T, source string, args Args) string {
	t.Helper()
	tmpl, err := FromString(source)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := tmpl.Render(args)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	return out
}

func userDoc() *value.Structured {
	fields := value.NewFields()
	fields.Set("name", value.NewString("张三"))
	fields.Set("province", value.NewString("黑龙江"))
	fields.Set("address", value.NewArray(
		value.NewString("hlj"),
		value.NewString("sfh"),
	))
	return value.NewObject(fields)
}

func TestRenderLiteralText(t *testing.T) {
	sources := []string{
		"",
		"select * from users",
		"select 1;\n-- plain text, two lines\nselect 2;",
	}
	for _, source := range sources {
		if got := renderString(t, source, nil); got != source {
			t.Errorf("expected %q to render to itself, got %q", source, got)
		}
	}
}

func TestRenderPrint(t *testing.T) {
	tests := []struct {
		source string
		args   Args
		want   string
	}{
		{"${x}", Args{"x": FromInt(5)}, "5"},
		{"${x}", Args{"x": FromText("ab")}, "ab"},
		{"${x}", nil, ""},
		{"${x}", Args{"x": FromInt(-3)}, "-3"},
		{"a${null}b", nil, "ab"},
		{"${42}", nil, "42"},
		{"${007}", nil, "7"},
		{"${0}", nil, "0"},
		{"${'abc'}", nil, "abc"},
		{"id in (${ids})", Args{"ids": FromText("1, 2, 3")}, "id in (1, 2, 3)"},
	}
	for _, tt := range tests {
		if got := renderString(t, tt.source, tt.args); got != tt.want {
			t.Errorf("render %q = %q, want %q", tt.source, got, tt.want)
		}
	}
}

func TestRenderStructuredPrintsEmpty(t *testing.T) {
	got := renderString(t, "a${user}b", Args{"user": FromStructured(userDoc())})
	if got != "ab" {
		t.Errorf("expected structured value to print as empty text, got %q", got)
	}
}

func TestRenderIf(t *testing.T) {
	tests := []struct {
		source string
		args   Args
		want   string
	}{
		{"@if(x)yes@endif", Args{"x": FromInt(1)}, "yes"},
		{"@if(x)yes@endif", Args{"x": FromInt(0)}, "yes"},
		{"@if(x)yes@endif", Args{"x": FromText("a")}, "yes"},
		{"@if(x)yes@endif", Args{"x": FromText("")}, "yes"},
		{"@if(x)yes@endif", Args{"x": FromStructured(userDoc())}, "yes"},
		{"@if(x)yes@endif", nil, ""},
		{"@if(x)yes@else no@endif", nil, " no"},
		{"@if(x)a@elif(y)b@else c@endif", Args{"y": FromInt(2)}, "b"},
		{"@if(x)a@elif(y)b@else c@endif", nil, " c"},
		{"@if(!x)empty@endif", nil, "empty"},
		{"@if(!x)empty@endif", Args{"x": FromInt(0)}, ""},
		{"@if(not x)empty@endif", nil, "empty"},
		{"@if(x == 1)one@endif", Args{"x": FromInt(1)}, "one"},
		{"@if(x != 1)other@endif", Args{"x": FromInt(2)}, "other"},
		{"@if(x && y)both@endif", Args{"x": FromInt(1), "y": FromInt(1)}, "both"},
		{"@if(x && y)both@endif", Args{"x": FromInt(1)}, ""},
		{"@if(x || y)either@endif", Args{"y": FromInt(1)}, "either"},
		{"@if(x or y)either@endif", Args{"y": FromInt(1)}, "either"},
		{"@if((x || y) && z)mix@endif", Args{"y": FromInt(1), "z": FromInt(1)}, "mix"},
		{"@if((x || y) && z)mix@endif", Args{"y": FromInt(1)}, ""},
	}
	for _, tt := range tests {
		if got := renderString(t, tt.source, tt.args); got != tt.want {
			t.Errorf("render %q with %v = %q, want %q", tt.source, tt.args, got, tt.want)
		}
	}
}

func TestEqualityComparisons(t *testing.T) {
	tests := []struct {
		source string
		args   Args
		want   string
	}{
		{"@if(null == null)t@endif", nil, "t"},
		{"@if(x == null)t@endif", Args{"x": FromInt(1)}, ""},
		{"@if(x == null)t@endif", nil, "t"},
		{"@if(x != null)t@endif", Args{"x": FromInt(1)}, "t"},
		{"@if(x == 'x')t@endif", Args{"x": FromText("x")}, "t"},
		{"@if(x == '1')t@endif", Args{"x": FromInt(1)}, ""},
		{"@if(x != '1')t@endif", Args{"x": FromInt(1)}, "t"},
		{"@if(x == y)t@endif", Args{"x": FromInt(3), "y": FromInt(3)}, "t"},
		{"@if(x == y)t@endif", Args{
			"x": FromStructured(userDoc()),
			"y": FromStructured(userDoc()),
		}, "t"},
	}
	for _, tt := range tests {
		if got := renderString(t, tt.source, tt.args); got != tt.want {
			t.Errorf("render %q with %v = %q, want %q", tt.source, tt.args, got, tt.want)
		}
	}
}

// Absent lookups are reported at debug level, so a captured log shows
// which operands a condition actually evaluated.
func TestShortCircuitEvaluation(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	g := New(WithLogger(logger))

	tmpl, err := g.FromString("@if(a or b)yes@endif")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := tmpl.Render(Args{"a": FromInt(1)})
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if out != "yes" {
		t.Fatalf("expected %q, got %q", "yes", out)
	}
	if strings.Contains(buf.String(), "param=b") {
		t.Errorf("right operand of or evaluated despite a true left operand:\n%s", buf.String())
	}

	buf.Reset()
	tmpl, err = g.FromString("@if(a and b)yes@endif")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err = tmpl.Render(nil)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
	if !strings.Contains(buf.String(), "param=a") {
		t.Errorf("left operand of and was not evaluated:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "param=b") {
		t.Errorf("right operand of and evaluated despite a false left operand:\n%s", buf.String())
	}
}

func TestForLoopSeparator(t *testing.T) {
	tests := []struct {
		ids  *value.Structured
		want string
	}{
		{value.NewArray(value.NewInt(1), value.NewInt(2), value.NewInt(3)), "1, 2, 3"},
		{value.NewArray(value.NewInt(7)), "7"},
		{value.NewArray(), ""},
	}
	for _, tt := range tests {
		got := renderString(t, "@for(id in ids, separator=', ')${id}@endfor",
			Args{"ids": FromStructured(tt.ids)})
		if got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestForLoopWithoutSeparator(t *testing.T) {
	ids := value.NewArray(value.NewInt(1), value.NewInt(2))
	got := renderString(t, "@for(id in ids)${id};@endfor", Args{"ids": FromStructured(ids)})
	if got != "1;2;" {
		t.Errorf("expected %q, got %q", "1;2;", got)
	}
}

func TestForLoopPair(t *testing.T) {
	names := value.NewArray(value.NewString("a"), value.NewString("b"))
	got := renderString(t, "@for((n, i) in names, separator='|')${i}:${n}@endfor",
		Args{"names": FromStructured(names)})
	if got != "0:a|1:b" {
		t.Errorf("expected %q, got %q", "0:a|1:b", got)
	}
}

func TestForLoopObjectOrder(t *testing.T) {
	fields := value.NewFields()
	fields.Set("b", value.NewInt(1))
	fields.Set("a", value.NewInt(2))
	got := renderString(t, "@for((v, k) in m, separator=',')${k}=${v}@endfor",
		Args{"m": FromStructured(value.NewObject(fields))})
	if got != "b=1,a=2" {
		t.Errorf("expected object iteration in insertion order, got %q", got)
	}
}

func TestForLoopNonStructured(t *testing.T) {
	got := renderString(t, "a@for(v in n)x@endfor", Args{"n": FromInt(3)})
	if got != "a" {
		t.Errorf("expected loop over an integer to contribute nothing, got %q", got)
	}
	got = renderString(t, "@for(v in n)x@endfor", nil)
	if got != "" {
		t.Errorf("expected loop over an absent collection to contribute nothing, got %q", got)
	}
}

func TestForLoopScope(t *testing.T) {
	args := Args{
		"v":  FromText("outer"),
		"xs": FromStructured(value.NewArray(value.NewInt(1))),
	}
	got := renderString(t, "${v}@for(v in xs)${v}@endfor${v}", args)
	if got != "outer1outer" {
		t.Errorf("expected the loop variable to shadow and unwind, got %q", got)
	}
}

func TestMemberAndIndexAccess(t *testing.T) {
	args := Args{"user": FromStructured(userDoc())}
	tests := []struct {
		source string
		want   string
	}{
		{"${user.name}", "张三"},
		{"${user.address[0]}", "hlj"},
		{"${user.address[1]}", "sfh"},
		{"${user.address[2]}", ""},
		{"${user.missing}", ""},
		{"${user['province']}", "黑龙江"},
		{"${user['missing']}", ""},
		{"${user.address}", ""},
		{"${user.name.x}", ""},
		{"${missing.name}", ""},
	}
	for _, tt := range tests {
		if got := renderString(t, tt.source, args); got != tt.want {
			t.Errorf("render %q = %q, want %q", tt.source, got, tt.want)
		}
	}
}

func TestRenderNestedStatements(t *testing.T) {
	ann := value.NewFields()
	ann.Set("name", value.NewString("ann"))
	ann.Set("admin", value.NewInt(1))
	bob := value.NewFields()
	bob.Set("name", value.NewString("bob"))
	users := value.NewArray(value.NewObject(ann), value.NewObject(bob))

	source := "@for(u in users, separator='; ')${u.name}@if(u.admin) (admin)@endif@endfor"
	got := renderString(t, source, Args{"users": FromStructured(users)})
	if got != "ann (admin); bob" {
		t.Errorf("expected %q, got %q", "ann (admin); bob", got)
	}
}

func TestRenderDynamicWhere(t *testing.T) {
	source := "select * from users where 1 = 1" +
		"@if(name) and name = '${name}'@endif" +
		"@if(age) and age = ${age}@endif"

	got := renderString(t, source, Args{"name": FromText("ann")})
	want := "select * from users where 1 = 1 and name = 'ann'"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	got = renderString(t, source, Args{"age": FromInt(30)})
	want = "select * from users where 1 = 1 and age = 30"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	got = renderString(t, source, nil)
	want = "select * from users where 1 = 1"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
