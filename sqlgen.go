// Package sqlgen generates SQL statements from parameterized templates.
//
// Templates are plain SQL text with embedded constructs: value prints,
// sub-template inclusions, conditionals, and loops. A catalog of named
// templates is loaded from a YAML or JSON(C) document and rendered with
// per-call arguments.
//
// # Quick Start
//
// Basic usage:
//
//	gen := sqlgen.New()
//	gen.AddTemplate("count_user", "select count(*) from user")
//	sql, _ := gen.GetSQL("count_user", nil)
//	fmt.Println(sql) // Output: select count(*) from user
//
// With arguments:
//
//	gen.AddTemplate("get_user", "select * from user where id = ${id}")
//	sql, _ = gen.GetSQL("get_user", sqlgen.Args{"id": sqlgen.FromInt(7)})
//	fmt.Println(sql) // Output: select * from user where id = 7
//
// # Template Syntax
//
// Key syntax elements:
//   - Prints: ${expr} substitutes a value, e.g. ${id}, ${user.name},
//     ${rows[0]}
//   - Inclusions: @sub_template(arg1=expr, arg2) splices another template
//     of the same catalog entry, passing arguments by name
//   - Conditionals: @if(cond) ... @elif(cond) ... @else ... @endif
//   - Loops: @for(v in items, separator=', ') ... @endfor and the pair
//     form @for((v, i) in items) ... @endfor
//
// Conditions combine comparisons (==, !=) with and/&&, or/||, and not/!.
// A bare expression in a condition tests presence: @if(x) holds whenever
// x evaluates to a value, including integer 0 and the empty string.
//
// # Catalog Files
//
// A catalog document carries named entries under the sqls key. An entry is
// either a single statement or a bundle of named sub-templates, where main
// is the one rendered by GetSQL and the others are reachable through
// inclusions. Sub-templates may declare default arguments:
//
//	sqls:
//	  count_user: "select count(*) from user"
//	  get_user:
//	    main:
//	      sql: "select * from user where id = ${user_id}"
//	      params: {user_id: 1}
//	    by_name: "select * from user where name = ${name}"
//
// JSON and JSON-with-comments files load the same way:
//
//	gen := sqlgen.New()
//	if err := gen.LoadFile("sqls.yaml"); err != nil { ... }
//
// # Error Handling
//
// Malformed templates fail hard with *sqlgen.Error values carrying the
// position of the offense:
//
//	sql, err := gen.GetSQL("get_user", args)
//	if err != nil {
//	    var e *sqlgen.Error
//	    if errors.As(err, &e) && e.Span != nil {
//	        fmt.Printf("error in %s line %d: %s\n", e.Name, e.Span.StartLine, e.Message)
//	    }
//	}
//
// Everything else degrades: an unresolved parameter renders as empty text,
// a missing sub-template renders as an empty template, and a structured
// value at a print site contributes nothing. Each case is reported through
// the generator's structured logger.
//
// # Value System
//
// Arguments are integers, text, or structured documents:
//
//	num := sqlgen.FromInt(42)
//	txt := sqlgen.FromText("zhangsan")
//	doc, _ := value.FromAny(map[string]any{"id": 1, "tags": []any{"a"}})
//	arg := sqlgen.FromStructured(doc)
//
// Member and index access (${user.name}, ${tags[0]}) walks structured
// documents; primitive results unwrap into integers and text.
package sqlgen

// Re-export commonly used types from subpackages
import (
	"github.com/tanglong3bf/sqlgen/value"
)

// Version of the sqlgen module.
const Version = "0.5.1"

// Value is a dynamically typed template value.
type Value = value.Value

// ValueKind describes the type of a Value.
type ValueKind = value.Kind

// Common value kinds
const (
	KindAbsent     = value.KindAbsent
	KindInteger    = value.KindInteger
	KindText       = value.KindText
	KindStructured = value.KindStructured
)

// Value constructors
var (
	Absent         = value.Absent
	FromInt        = value.FromInt
	FromText       = value.FromText
	FromStructured = value.FromStructured
)

// Args carries the named arguments of a render call. Use nil when a
// template takes no arguments.
type Args map[string]value.Value
