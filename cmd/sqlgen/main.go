// Command sqlgen renders SQL statements from a template catalog.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/alecthomas/kong"

	"github.com/tanglong3bf/sqlgen"
)

type cli struct {
	Catalog  string `help:"Catalog file (YAML, JSON, or JSONC)." short:"c" default:"sqls.yaml"`
	LogLevel string `help:"Log level." enum:"debug,info,warn,error" default:"warn"`

	Render renderCmd `cmd:"" default:"withargs" help:"Render a template with arguments."`
	Tokens tokensCmd `cmd:"" help:"Print a template's token listing."`
	AST    astCmd    `cmd:"" help:"Print a template's parse tree."`
	List   listCmd   `cmd:"" help:"List catalog entries with their fingerprints."`
}

type renderCmd struct {
	Name  string            `arg:"" help:"Template name."`
	Param map[string]string `help:"Arguments as name=value pairs; values parse as YAML." short:"p"`
	Color bool              `help:"Highlight the rendered SQL for the terminal."`
}

func (r *renderCmd) Run(gen *sqlgen.Generator) error {
	args := sqlgen.Args{}
	for name, raw := range r.Param {
		v, err := sqlgen.ParseValue(raw)
		if err != nil {
			return fmt.Errorf("parameter %s: %w", name, err)
		}
		args[name] = v
	}

	sql, err := gen.GetSQL(r.Name, args)
	if err != nil {
		return err
	}
	if r.Color {
		if err := quick.Highlight(os.Stdout, sql+"\n", "sql", "terminal256", "monokai"); err == nil {
			return nil
		}
	}
	fmt.Println(sql)
	return nil
}

type tokensCmd struct {
	Name string `arg:"" help:"Template name."`
	Sub  string `help:"Sub-template name." default:"main"`
}

func (t *tokensCmd) Run(gen *sqlgen.Generator) error {
	listing, err := gen.DumpTokens(t.Name, t.Sub)
	if err != nil {
		return err
	}
	fmt.Print(listing)
	return nil
}

type astCmd struct {
	Name string `arg:"" help:"Template name."`
	Sub  string `help:"Sub-template name." default:"main"`
}

func (a *astCmd) Run(gen *sqlgen.Generator) error {
	tree, err := gen.DumpAST(a.Name, a.Sub)
	if err != nil {
		return err
	}
	fmt.Print(tree)
	return nil
}

type listCmd struct{}

func (l *listCmd) Run(gen *sqlgen.Generator) error {
	for _, name := range gen.Names() {
		subs, err := gen.SubNames(name)
		if err != nil {
			return err
		}
		for _, sub := range subs {
			hash, err := gen.SourceHash(name, sub)
			if err != nil {
				return err
			}
			fmt.Printf("%-32s %016x\n", name+"."+sub, hash)
		}
	}
	fmt.Printf("%-32s %016x\n", "(catalog)", gen.Fingerprint())
	return nil
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func main() {
	var c cli
	ktx := kong.Parse(&c,
		kong.Name("sqlgen"),
		kong.Description("Render SQL statements from a template catalog."),
		kong.UsageOnError(),
	)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(c.LogLevel),
	}))
	slog.SetDefault(logger)

	gen := sqlgen.New(sqlgen.WithLogger(logger))
	ktx.FatalIfErrorf(gen.LoadFile(c.Catalog))
	ktx.FatalIfErrorf(ktx.Run(gen))
}
