package sqlgen

import (
	"log/slog"
	"sync"

	"github.com/zeebo/xxh3"

	"github.com/tanglong3bf/sqlgen/internal/errors"
	"github.com/tanglong3bf/sqlgen/parser"
	"github.com/tanglong3bf/sqlgen/value"
)

// DefaultMaxDepth bounds inclusion nesting. Deep nesting is almost always
// a template including itself.
const DefaultMaxDepth = 64

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger that receives engine diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// WithMaxDepth sets how deep inclusions may nest before rendering fails.
func WithMaxDepth(n int) Option {
	return func(g *Generator) { g.maxDepth = n }
}

// Generator holds the template catalog and the parsed-template cache.
// A Generator is safe for concurrent use.
type Generator struct {
	mu      sync.RWMutex
	bundles map[string]*bundle
	order   []string // bundle names in load order
	cache   map[cacheKey]*compiledTemplate
	parses  int // sources parsed so far; at most one per cache entry

	logger   *slog.Logger
	maxDepth int
}

// bundle is one catalog entry: a set of named sub-templates. Loading
// guarantees every bundle has a "main" sub-template.
type bundle struct {
	order []string
	subs  map[string]*subTemplate
}

type subTemplate struct {
	source   string
	defaults *value.Env // nil when the entry declares no params
}

type cacheKey struct {
	name string
	sub  string
}

type compiledTemplate struct {
	ast         *parser.Template
	source      string
	defaults    *value.Env
	fingerprint uint64
}

// New creates an empty Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		bundles:  make(map[string]*bundle),
		cache:    make(map[cacheKey]*compiledTemplate),
		logger:   slog.Default(),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddTemplate registers a single-statement template under the given name,
// replacing any previous entry. The source is parsed immediately, so
// malformed templates fail at registration.
func (g *Generator) AddTemplate(name, source string) error {
	ast, err := parser.Parse(source, name+".main")
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.storeBundle(name, &bundle{
		order: []string{"main"},
		subs:  map[string]*subTemplate{"main": {source: source}},
	})
	g.cache[cacheKey{name, "main"}] = &compiledTemplate{
		ast:         ast,
		source:      source,
		fingerprint: xxh3.HashString(source),
	}
	g.parses++
	g.mu.Unlock()
	return nil
}

// storeBundle replaces a bundle and drops its stale cache entries. The
// caller holds the write lock.
func (g *Generator) storeBundle(name string, b *bundle) {
	if _, ok := g.bundles[name]; !ok {
		g.order = append(g.order, name)
	}
	g.bundles[name] = b
	for key := range g.cache {
		if key.name == name {
			delete(g.cache, key)
		}
	}
}

// GetSQL renders the named template with the given arguments.
func (g *Generator) GetSQL(name string, args Args) (string, error) {
	out, err := g.resolve(name, "main", argsToEnv(args), 0)
	if err != nil {
		return "", err
	}
	return out, nil
}

// argsToEnv normalizes the argument map into an environment. Absent values
// are not bound, matching how inclusion arguments behave.
func argsToEnv(args Args) *value.Env {
	env := value.NewEnv()
	for name, v := range args {
		if v.IsAbsent() {
			continue
		}
		env.Set(name, v)
	}
	return env
}

// resolve renders one sub-template. It fills in declared defaults for
// arguments the caller did not supply and routes nested inclusions back
// through itself, one depth level down.
func (g *Generator) resolve(name, sub string, env *value.Env, depth int) (string, *errors.Error) {
	if depth > g.maxDepth {
		return "", errors.Newf(errors.ErrDepthExceeded, "inclusion depth exceeds %d", g.maxDepth).
			WithName(name + "." + sub)
	}
	ct, err := g.compiled(name, sub)
	if err != nil {
		return "", err
	}

	if ct.defaults != nil {
		for _, dn := range ct.defaults.Names() {
			if !env.Has(dn) {
				dv, _ := ct.defaults.Get(dn)
				env.Set(dn, dv)
			}
		}
	}

	st := newState(g.logger, name+"."+sub, ct.source, env)
	st.include = func(subName string, args *value.Env) (string, *errors.Error) {
		return g.resolve(name, subName, args, depth+1)
	}
	return st.eval(ct.ast)
}

// compiled returns the parsed form of (name, sub), parsing at most once
// per entry. A missing sub-template degrades to an empty one; a missing
// top-level name is an error.
func (g *Generator) compiled(name, sub string) (*compiledTemplate, *errors.Error) {
	key := cacheKey{name, sub}

	g.mu.RLock()
	ct, ok := g.cache[key]
	g.mu.RUnlock()
	if ok {
		return ct, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if ct, ok := g.cache[key]; ok {
		return ct, nil
	}
	b, ok := g.bundles[name]
	if !ok {
		return nil, errors.Newf(errors.ErrTemplateNotFound, "template %q is not defined", name)
	}
	st, ok := b.subs[sub]
	if !ok {
		g.logger.Warn("sub-template is not defined, rendering empty text",
			"template", name, "sub", sub)
		st = &subTemplate{}
	}

	ast, perr := parser.Parse(st.source, name+"."+sub)
	if perr != nil {
		return nil, asError(perr)
	}
	g.parses++
	ct = &compiledTemplate{
		ast:         ast,
		source:      st.source,
		defaults:    st.defaults,
		fingerprint: xxh3.HashString(st.source),
	}
	g.cache[key] = ct
	return ct, nil
}

func asError(err error) *errors.Error {
	if e, ok := err.(*errors.Error); ok {
		return e
	}
	return errors.New(errors.ErrSyntax, err.Error())
}

// Names returns the catalog's template names in load order.
func (g *Generator) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, len(g.order))
	copy(names, g.order)
	return names
}

// SubNames returns the sub-template names of one catalog entry in document
// order.
func (g *Generator) SubNames(name string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	b, ok := g.bundles[name]
	if !ok {
		return nil, errors.Newf(errors.ErrTemplateNotFound, "template %q is not defined", name)
	}
	subs := make([]string, len(b.order))
	copy(subs, b.order)
	return subs, nil
}

// SourceHash returns the fingerprint of one sub-template's source.
func (g *Generator) SourceHash(name, sub string) (uint64, error) {
	ct, err := g.compiled(name, sub)
	if err != nil {
		return 0, err
	}
	return ct.fingerprint, nil
}

// Fingerprint hashes every source in the catalog in document order. Two
// generators loaded from the same documents report the same fingerprint.
func (g *Generator) Fingerprint() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	h := xxh3.New()
	for _, name := range g.order {
		b := g.bundles[name]
		for _, sub := range b.order {
			h.WriteString(name)
			h.Write([]byte{0})
			h.WriteString(sub)
			h.Write([]byte{0})
			h.WriteString(b.subs[sub].source)
			h.Write([]byte{0})
		}
	}
	return h.Sum64()
}
