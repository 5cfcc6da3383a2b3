package schema

import (
	"regexp"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// FieldKind classifies a node field by how its value is produced.
type FieldKind int

const (
	// KindProperty is stored on the node itself.
	KindProperty FieldKind = iota
	// KindRelationship traverses a relationship to other nodes.
	KindRelationship
	// KindCypher is computed by a user-supplied Cypher statement.
	KindCypher
)

// Relationship describes an @relationship field.
type Relationship struct {
	Type      string
	Direction string // IN or OUT
	Target    *Node
}

// CypherField describes an @cypher field or root field.
type CypherField struct {
	Statement string
	Column    string
	// Node is set when the statement returns nodes of a known type.
	Node *Node
}

// Field is one field of a node type.
type Field struct {
	Name      string
	Kind      FieldKind
	Type      *ast.Type
	Base      string // unwrapped named type
	List      bool
	Enum      bool
	AutoID    bool
	CreatedAt bool
	UpdatedAt bool
	Auth      bool

	Relationship *Relationship
	Cypher       *CypherField
	Def          *ast.FieldDefinition
}

// Settable reports whether clients may write the field directly.
func (f *Field) Settable() bool {
	return f.Kind == KindProperty && !f.AutoID && !f.CreatedAt && !f.UpdatedAt
}

// Node is an object type backed by graph nodes.
type Node struct {
	Name   string
	Labels []string
	Auth   bool
	Fields []*Field
	Def    *ast.Definition

	names     typeNames
	whereKeys map[string]whereKey
}

// Field returns the field with the given name.
func (n *Node) Field(name string) *Field {
	for _, f := range n.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (n *Node) properties() []*Field {
	return n.fieldsOf(KindProperty)
}

func (n *Node) relationships() []*Field {
	return n.fieldsOf(KindRelationship)
}

func (n *Node) fieldsOf(kind FieldKind) []*Field {
	var out []*Field
	for _, f := range n.Fields {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// RootField is a user-declared Query or Mutation field backed by @cypher.
type RootField struct {
	Operation string
	Name      string
	Auth      bool
	Cypher    *CypherField
	Def       *ast.FieldDefinition
}

// Model is the compiler's view of the type definitions.
type Model struct {
	Nodes     []*Node
	Queries   []*RootField
	Mutations []*RootField
	// Passthrough are user enums and input types re-emitted unchanged.
	Passthrough []*ast.Definition

	byName map[string]*Node
}

// Node returns the node type with the given name.
func (m *Model) Node(name string) *Node {
	return m.byName[name]
}

var builtinScalars = map[string]bool{
	"ID":      true,
	"String":  true,
	"Int":     true,
	"Float":   true,
	"Boolean": true,
}

// buildModel extracts nodes and root fields from a validated schema.
func buildModel(s *ast.Schema) (*Model, error) {
	var diag diagnostics
	m := &Model{byName: map[string]*Node{}}

	defs := userDefinitions(s)

	for _, def := range defs {
		switch def.Kind {
		case ast.Interface:
			diag.addf(def.Position, "interface %s: interfaces are not supported", def.Name)
		case ast.Union:
			diag.addf(def.Position, "union %s: unions are not supported", def.Name)
		case ast.Scalar:
			diag.addf(def.Position, "scalar %s: custom scalars are not supported", def.Name)
		case ast.Enum, ast.InputObject:
			m.Passthrough = append(m.Passthrough, def)
		case ast.Object:
			if isRootName(def.Name) {
				continue
			}
			if len(def.Interfaces) > 0 {
				diag.addf(def.Position, "type %s: implementing interfaces is not supported", def.Name)
			}
			node := &Node{Name: def.Name, Labels: []string{def.Name}, Def: def}
			if d := def.Directives.ForName(directiveNode); d != nil {
				if labels := stringList(d.Arguments.ForName("labels")); len(labels) > 0 {
					node.Labels = labels
				}
			}
			node.Auth = def.Directives.ForName(directiveAuthentication) != nil
			m.Nodes = append(m.Nodes, node)
			m.byName[node.Name] = node
		}
	}

	if s.Subscription != nil {
		diag.addf(s.Subscription.Position, "type %s: subscriptions are not supported", s.Subscription.Name)
	}

	for _, node := range m.Nodes {
		for _, fd := range node.Def.Fields {
			if f := buildField(m, node, fd, &diag); f != nil {
				node.Fields = append(node.Fields, f)
			}
		}
		if len(node.properties()) == 0 {
			diag.addf(node.Def.Position, "type %s: at least one property field is required", node.Name)
		}
	}

	m.Queries = buildRootFields(m, s.Query, &diag)
	m.Mutations = buildRootFields(m, s.Mutation, &diag)

	if err := diag.err(); err != nil {
		return nil, err
	}
	return m, nil
}

// userDefinitions returns non-prelude definitions in declaration order.
func userDefinitions(s *ast.Schema) []*ast.Definition {
	defs := make([]*ast.Definition, 0, len(s.Types))
	for _, def := range s.Types {
		if def.BuiltIn {
			continue
		}
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool {
		pi, pj := defs[i].Position, defs[j].Position
		if pi != nil && pj != nil && pi.Line != pj.Line {
			return pi.Line < pj.Line
		}
		return defs[i].Name < defs[j].Name
	})
	return defs
}

func isRootName(name string) bool {
	return name == "Query" || name == "Mutation" || name == "Subscription"
}

func buildField(m *Model, node *Node, fd *ast.FieldDefinition, diag *diagnostics) *Field {
	base := fd.Type.Name()
	f := &Field{
		Name: fd.Name,
		Type: fd.Type,
		Base: base,
		List: fd.Type.Elem != nil,
		Auth: fd.Directives.ForName(directiveAuthentication) != nil,
		Def:  fd,
	}

	rel := fd.Directives.ForName(directiveRelationship)
	cy := fd.Directives.ForName(directiveCypher)

	switch {
	case rel != nil && cy != nil:
		diag.addf(fd.Position, "field %s.%s: @relationship and @cypher are mutually exclusive", node.Name, fd.Name)
		return nil

	case rel != nil:
		target := m.Node(base)
		if target == nil {
			diag.addf(fd.Position, "field %s.%s: @relationship target %s is not a node type", node.Name, fd.Name, base)
			return nil
		}
		if len(fd.Arguments) > 0 {
			diag.addf(fd.Position, "field %s.%s: relationship fields cannot declare arguments", node.Name, fd.Name)
		}
		f.Kind = KindRelationship
		f.Relationship = &Relationship{
			Type:      stringArg(rel, "type"),
			Direction: stringArg(rel, "direction"),
			Target:    target,
		}
		return f

	case cy != nil:
		f.Kind = KindCypher
		f.Cypher = cypherFieldOf(m, cy, fd, node.Name, diag)
		return f
	}

	if len(fd.Arguments) > 0 {
		diag.addf(fd.Position, "field %s.%s: property fields cannot declare arguments", node.Name, fd.Name)
	}

	switch {
	case builtinScalars[base] || base == scalarDateTime:
	case isUserEnum(m, base):
		f.Enum = true
	default:
		diag.addf(fd.Position, "field %s.%s: type %s needs @relationship or @cypher", node.Name, fd.Name, base)
		return nil
	}
	f.Kind = KindProperty

	if fd.Directives.ForName(directiveID) != nil {
		if base != "ID" || f.List {
			diag.addf(fd.Position, "field %s.%s: @id requires type ID", node.Name, fd.Name)
		}
		f.AutoID = true
	}
	if ts := fd.Directives.ForName(directiveTimestamp); ts != nil {
		if base != scalarDateTime || f.List {
			diag.addf(fd.Position, "field %s.%s: @timestamp requires type DateTime", node.Name, fd.Name)
		}
		ops := stringList(ts.Arguments.ForName("operations"))
		if ts.Arguments.ForName("operations") == nil {
			ops = []string{"CREATE", "UPDATE"}
		}
		for _, op := range ops {
			switch op {
			case "CREATE":
				f.CreatedAt = true
			case "UPDATE":
				f.UpdatedAt = true
			}
		}
	}

	return f
}

func buildRootFields(m *Model, def *ast.Definition, diag *diagnostics) []*RootField {
	if def == nil {
		return nil
	}
	var out []*RootField
	for _, fd := range def.Fields {
		if fd.Name == "__schema" || fd.Name == "__type" || fd.Name == "__typename" {
			continue
		}
		cy := fd.Directives.ForName(directiveCypher)
		if cy == nil {
			diag.addf(fd.Position, "field %s.%s: root fields must declare @cypher", def.Name, fd.Name)
			continue
		}
		out = append(out, &RootField{
			Operation: def.Name,
			Name:      fd.Name,
			Auth:      fd.Directives.ForName(directiveAuthentication) != nil,
			Cypher:    cypherFieldOf(m, cy, fd, def.Name, diag),
			Def:       fd,
		})
	}
	return out
}

func cypherFieldOf(m *Model, cy *ast.Directive, fd *ast.FieldDefinition, owner string, diag *diagnostics) *CypherField {
	cf := &CypherField{
		Statement: stringArg(cy, "statement"),
		Column:    stringArg(cy, "columnName"),
		Node:      m.Node(fd.Type.Name()),
	}
	if cf.Column == "" {
		col, ok := returnColumn(cf.Statement)
		if !ok {
			diag.addf(fd.Position, "field %s.%s: @cypher needs columnName unless the statement returns a single named column", owner, fd.Name)
		}
		cf.Column = col
	}
	return cf
}

var (
	returnClause = regexp.MustCompile(`(?is)\bRETURN\b`)
	returnTail   = regexp.MustCompile(`(?is)\s+(ORDER\s+BY|SKIP|LIMIT)\b.*$`)
	returnAlias  = regexp.MustCompile("(?is)\\bAS\\s+(`[^`]+`|[A-Za-z_][A-Za-z0-9_]*)\\s*$")
	identifier   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	distinct     = regexp.MustCompile(`(?i)^DISTINCT\s+`)
)

// returnColumn names the single column produced by the last RETURN clause
// of statement: its alias, or the variable when it returns a bare one.
func returnColumn(statement string) (string, bool) {
	locs := returnClause.FindAllStringIndex(statement, -1)
	if len(locs) == 0 {
		return "", false
	}
	item := strings.TrimSpace(statement[locs[len(locs)-1][1]:])
	item = returnTail.ReplaceAllString(item, "")
	item = strings.TrimSpace(distinct.ReplaceAllString(item, ""))
	if item == "" || topLevelComma(item) {
		return "", false
	}
	if m := returnAlias.FindStringSubmatch(item); m != nil {
		return strings.Trim(m[1], "`"), true
	}
	if identifier.MatchString(item) {
		return item, true
	}
	return "", false
}

func topLevelComma(s string) bool {
	depth := 0
	for _, r := range s {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				return true
			}
		}
	}
	return false
}

func isUserEnum(m *Model, name string) bool {
	for _, def := range m.Passthrough {
		if def.Kind == ast.Enum && def.Name == name {
			return true
		}
	}
	return false
}

func stringArg(d *ast.Directive, name string) string {
	arg := d.Arguments.ForName(name)
	if arg == nil || arg.Value == nil {
		return ""
	}
	return arg.Value.Raw
}

func stringList(arg *ast.Argument) []string {
	if arg == nil || arg.Value == nil {
		return nil
	}
	if arg.Value.Kind != ast.ListValue {
		return []string{arg.Value.Raw}
	}
	out := make([]string, 0, len(arg.Value.Children))
	for _, child := range arg.Value.Children {
		out = append(out, child.Value.Raw)
	}
	return out
}
