package sqlgen

import (
	"fmt"
	"strings"

	"github.com/tanglong3bf/sqlgen/lexer"
	"github.com/tanglong3bf/sqlgen/parser"
)

// DumpTokens renders the token listing of a sub-template, one token per
// line in the form [Kind]<text>.
func (g *Generator) DumpTokens(name, sub string) (string, error) {
	ct, err := g.compiled(name, sub)
	if err != nil {
		return "", err
	}
	tokens, lerr := lexer.Tokenize(ct.source)
	if lerr != nil {
		return "", asError(lerr).WithName(name + "." + sub).WithSource(ct.source)
	}

	var sb strings.Builder
	for _, tok := range tokens {
		if tok.Value == "" {
			fmt.Fprintf(&sb, "[%s]\n", tok.Type)
			continue
		}
		fmt.Fprintf(&sb, "[%s]<%s>\n", tok.Type, tok.Value)
	}
	return sb.String(), nil
}

// DumpAST renders the parsed tree of a sub-template as an indented
// listing.
func (g *Generator) DumpAST(name, sub string) (string, error) {
	ct, err := g.compiled(name, sub)
	if err != nil {
		return "", err
	}
	return parser.DebugString(ct.ast) + "\n", nil
}
