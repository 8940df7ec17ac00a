package sqlgen

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/tanglong3bf/sqlgen/internal/errors"
	"github.com/tanglong3bf/sqlgen/value"
)

// LoadFile loads a catalog document from disk. Files ending in .json or
// .jsonc may carry comments and trailing commas; everything else is read
// as YAML.
func (g *Generator) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Newf(errors.ErrInvalidConfig, "cannot read catalog file %s", path).
			WithCause(err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}
	return g.Load(data)
}

// Load parses a catalog document and registers its templates under the
// document's "sqls" member. Entries replace same-named entries of earlier
// loads. JSON documents are valid YAML, so both load through here.
//
// The whole document is validated before anything is registered.
func (g *Generator) Load(doc []byte) error {
	var root yaml.Node
	if err := yaml.Unmarshal(doc, &root); err != nil {
		return errors.New(errors.ErrInvalidConfig, "malformed catalog document").
			WithCause(err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil
	}
	top := resolveAlias(root.Content[0])
	if top.Kind != yaml.MappingNode {
		return errors.New(errors.ErrInvalidConfig, "catalog document must be a mapping")
	}

	sqls := mappingValue(top, "sqls")
	if sqls == nil {
		return errors.New(errors.ErrInvalidConfig, `catalog document has no "sqls" member`)
	}
	sqls = resolveAlias(sqls)
	if sqls.Kind != yaml.MappingNode {
		return errors.New(errors.ErrInvalidConfig, `"sqls" must be a mapping of template names`)
	}

	type entry struct {
		name   string
		bundle *bundle
	}
	var pending []entry
	for i := 0; i+1 < len(sqls.Content); i += 2 {
		name := sqls.Content[i].Value
		b, err := g.loadEntry(name, resolveAlias(sqls.Content[i+1]))
		if err != nil {
			return err
		}
		pending = append(pending, entry{name, b})
	}

	g.mu.Lock()
	for _, e := range pending {
		g.storeBundle(e.name, e.bundle)
	}
	g.mu.Unlock()
	return nil
}

// loadEntry builds one catalog bundle. A scalar entry is the main
// sub-template by itself; a mapping entry names its sub-templates and must
// name main among them.
func (g *Generator) loadEntry(name string, node *yaml.Node) (*bundle, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return &bundle{
			order: []string{"main"},
			subs:  map[string]*subTemplate{"main": {source: node.Value}},
		}, nil

	case yaml.MappingNode:
		b := &bundle{subs: make(map[string]*subTemplate)}
		for i := 0; i+1 < len(node.Content); i += 2 {
			subName := node.Content[i].Value
			st, err := g.loadSubTemplate(name, subName, resolveAlias(node.Content[i+1]))
			if err != nil {
				return nil, err
			}
			b.order = append(b.order, subName)
			b.subs[subName] = st
		}
		if _, ok := b.subs["main"]; !ok {
			return nil, errors.Newf(errors.ErrInvalidConfig,
				"template %q has no main sub-template", name)
		}
		return b, nil

	default:
		return nil, errors.Newf(errors.ErrInvalidConfig,
			"template %q must be a string or a mapping", name)
	}
}

// loadSubTemplate builds one sub-template: either the statement text
// itself, or a mapping with the text under sql and default arguments
// under params.
func (g *Generator) loadSubTemplate(name, sub string, node *yaml.Node) (*subTemplate, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return &subTemplate{source: node.Value}, nil

	case yaml.MappingNode:
		st := &subTemplate{}
		hasSQL := false
		for i := 0; i+1 < len(node.Content); i += 2 {
			val := resolveAlias(node.Content[i+1])
			switch node.Content[i].Value {
			case "sql":
				if val.Kind != yaml.ScalarNode {
					return nil, errors.Newf(errors.ErrInvalidConfig,
						"template %q.%s sql must be a string", name, sub)
				}
				st.source = val.Value
				hasSQL = true
			case "params":
				defaults, err := g.loadDefaults(name, sub, val)
				if err != nil {
					return nil, err
				}
				st.defaults = defaults
			}
		}
		if !hasSQL {
			g.logger.Warn("sub-template definition has no sql member, treating as empty",
				"template", name, "sub", sub)
		}
		return st, nil

	default:
		return nil, errors.Newf(errors.ErrInvalidConfig,
			"template %q.%s must be a string or a mapping", name, sub)
	}
}

// loadDefaults builds a sub-template's default-argument table. Values are
// typed the way access sites type them: ints and strings become
// first-class values, everything else stays structured.
func (g *Generator) loadDefaults(name, sub string, node *yaml.Node) (*value.Env, error) {
	if node.Kind != yaml.MappingNode {
		return nil, errors.Newf(errors.ErrInvalidConfig,
			"template %q.%s params must be a mapping", name, sub)
	}
	defaults := value.NewEnv()
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		where := "template " + name + "." + sub + " param " + key
		doc, err := yamlToStructured(node.Content[i+1], where)
		if err != nil {
			return nil, err
		}
		defaults.Set(key, doc.Unwrap())
	}
	return defaults, nil
}

// yamlToStructured converts a YAML value into a structured document.
// Mapping keys keep document order.
func yamlToStructured(node *yaml.Node, where string) (*value.Structured, *errors.Error) {
	node = resolveAlias(node)
	switch node.Kind {
	case yaml.ScalarNode:
		switch node.Tag {
		case "!!null":
			return value.NewNull(), nil
		case "!!bool":
			var b bool
			if err := node.Decode(&b); err != nil {
				return nil, errors.Newf(errors.ErrInvalidConfig, "%s: %v", where, err)
			}
			return value.NewBool(b), nil
		case "!!int":
			var i int64
			if err := node.Decode(&i); err != nil {
				return nil, errors.Newf(errors.ErrInvalidConfig, "%s: %v", where, err)
			}
			return value.NewInt(i), nil
		case "!!float":
			return nil, errors.Newf(errors.ErrInvalidConfig,
				"%s: floating-point values are not supported", where)
		default:
			return value.NewString(node.Value), nil
		}

	case yaml.SequenceNode:
		items := make([]*value.Structured, 0, len(node.Content))
		for _, child := range node.Content {
			item, err := yamlToStructured(child, where)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return value.NewArray(items...), nil

	case yaml.MappingNode:
		fields := value.NewFields()
		for i := 0; i+1 < len(node.Content); i += 2 {
			member, err := yamlToStructured(node.Content[i+1], where)
			if err != nil {
				return nil, err
			}
			fields.Set(node.Content[i].Value, member)
		}
		return value.NewObject(fields), nil

	default:
		return nil, errors.Newf(errors.ErrInvalidConfig, "%s: unsupported document node", where)
	}
}

// ParseValue parses a YAML fragment into a template value: ints and
// strings become first-class values, composite documents stay structured.
// An empty fragment is absent.
func ParseValue(raw string) (value.Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &root); err != nil {
		return value.Absent, errors.New(errors.ErrInvalidConfig, "malformed value").
			WithCause(err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return value.Absent, nil
	}
	doc, cerr := yamlToStructured(root.Content[0], "value")
	if cerr != nil {
		return value.Absent, cerr
	}
	return doc.Unwrap(), nil
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
