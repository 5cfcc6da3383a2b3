package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/neographql/internal/adapter/graphdb"
	"github.com/heartmarshall/neographql/internal/domain"
)

// cypherBuilder collects parameters and fresh variable names while one
// statement is being generated. Values never appear in the Cypher text.
type cypherBuilder struct {
	params map[string]any
	nParam int
	nVar   int

	authenticated bool
}

func (b *cypherBuilder) param(v any) string {
	name := fmt.Sprintf("param%d", b.nParam)
	b.nParam++
	b.params[name] = v
	return "$" + name
}

func (b *cypherBuilder) variable() string {
	name := fmt.Sprintf("this%d", b.nVar)
	b.nVar++
	return name
}

func (b *cypherBuilder) statement(lines []string) graphdb.Statement {
	return graphdb.Statement{Cypher: strings.Join(lines, "\n"), Params: b.params}
}

// guard fails with ErrUnauthorized when an anonymous caller reaches an
// @authentication type or field named by what.
func (b *cypherBuilder) guard(what string, protected bool) error {
	if protected && !b.authenticated {
		return fmt.Errorf("%s: %w", what, domain.ErrUnauthorized)
	}
	return nil
}

// translator turns resolver arguments into parameterised Cypher.
// A translator built by newTranslator treats the caller as anonymous; use
// as to translate for a caller with verified claims.
type translator struct {
	maxLimit      int
	newID         func() string
	authenticated bool
}

func newTranslator(maxLimit int) *translator {
	return &translator{maxLimit: maxLimit, newID: uuid.NewString}
}

// as returns a copy of t for a caller with or without verified claims.
func (t *translator) as(authenticated bool) *translator {
	c := *t
	c.authenticated = authenticated
	return &c
}

func (t *translator) newBuilder() *cypherBuilder {
	return &cypherBuilder{params: map[string]any{}, authenticated: t.authenticated}
}

func quote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func labels(node *Node) string {
	var sb strings.Builder
	for _, l := range node.Labels {
		sb.WriteString(":" + quote(l))
	}
	return sb.String()
}

func projection(v string) string {
	return v + " { .*, __id: elementId(" + v + ") }"
}

// relPattern renders (from)-[relVar:TYPE]->(to:Labels) honouring direction.
// Labels are omitted when to is already bound.
func relPattern(from string, f *Field, to string, toLabels bool, relVar string) string {
	rel := f.Relationship
	target := to
	if toLabels {
		target += labels(rel.Target)
	}
	edge := "[" + relVar + ":" + quote(rel.Type) + "]"
	if rel.Direction == "IN" {
		return "(" + from + ")<-" + edge + "-(" + target + ")"
	}
	return "(" + from + ")-" + edge + "->(" + target + ")"
}

func indent(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = "\t" + l
	}
	return out
}

// subquery wraps body in a correlated CALL importing v. Returning a count
// keeps the outer row alive when the body matches nothing.
func subquery(v, child string, body []string) []string {
	lines := []string{"WITH " + v, "CALL {", "\tWITH " + v}
	lines = append(lines, indent(body)...)
	return append(lines, "\tRETURN count(*) AS "+child+"_count", "}")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// where renders a TWhere value found at the argument path as a predicate
// on v. It returns "" when the filter is empty.
func (b *cypherBuilder) where(node *Node, v string, where map[string]any, path string) (string, error) {
	var preds []string
	for _, k := range sortedKeys(where) {
		wk, ok := node.whereKeys[k]
		if !ok {
			return "", domain.InvalidArgument(fmt.Sprintf("unknown filter %q", k), path, k)
		}
		if wk.field != nil {
			if err := b.guard(node.Name+"."+wk.field.Name, wk.field.Auth); err != nil {
				return "", err
			}
		}
		pred, err := b.predicate(node, v, wk, where[k], domain.ArgPath(path, k))
		if err != nil {
			return "", err
		}
		if pred != "" {
			preds = append(preds, pred)
		}
	}
	return strings.Join(preds, " AND "), nil
}

func (b *cypherBuilder) predicate(node *Node, v string, wk whereKey, value any, path string) (string, error) {
	switch wk.op {
	case opAnd, opOr:
		items, _ := value.([]any)
		var preds []string
		for _, item := range items {
			sub, _ := item.(map[string]any)
			pred, err := b.where(node, v, sub, path)
			if err != nil {
				return "", err
			}
			if pred != "" {
				preds = append(preds, "("+pred+")")
			}
		}
		if len(preds) == 0 {
			return "", nil
		}
		sep := " AND "
		if wk.op == opOr {
			sep = " OR "
		}
		return "(" + strings.Join(preds, sep) + ")", nil

	case opLogicalNot:
		sub, _ := value.(map[string]any)
		pred, err := b.where(node, v, sub, path)
		if err != nil || pred == "" {
			return "", err
		}
		return "NOT (" + pred + ")", nil
	}

	if wk.field.Kind == KindRelationship {
		return b.relationPredicate(v, wk, value, path)
	}

	prop := v + "." + wk.field.Name
	if value == nil {
		switch wk.op {
		case opEq:
			return prop + " IS NULL", nil
		case opNot:
			return prop + " IS NOT NULL", nil
		}
		return "", domain.InvalidArgument("null is only allowed for equality filters", path)
	}

	p := b.param(value)
	switch wk.op {
	case opEq:
		return prop + " = " + p, nil
	case opNot:
		return "NOT " + prop + " = " + p, nil
	case opIn:
		return prop + " IN " + p, nil
	case opNotIn:
		return "NOT " + prop + " IN " + p, nil
	case opContains:
		return prop + " CONTAINS " + p, nil
	case opStartsWith:
		return prop + " STARTS WITH " + p, nil
	case opEndsWith:
		return prop + " ENDS WITH " + p, nil
	case opLT:
		return prop + " < " + p, nil
	case opLTE:
		return prop + " <= " + p, nil
	case opGT:
		return prop + " > " + p, nil
	case opGTE:
		return prop + " >= " + p, nil
	case opIncludes:
		return p + " IN " + prop, nil
	case opNotIncludes:
		return "NOT " + p + " IN " + prop, nil
	}
	return "", fmt.Errorf("unsupported filter operator %s", wk.op)
}

func (b *cypherBuilder) relationPredicate(v string, wk whereKey, value any, path string) (string, error) {
	target := wk.field.Relationship.Target
	if err := b.guard(target.Name, target.Auth); err != nil {
		return "", err
	}
	x := b.variable()
	sub, _ := value.(map[string]any)
	pred, err := b.where(target, x, sub, path)
	if err != nil {
		return "", err
	}

	match := "MATCH " + relPattern(v, wk.field, x, true, "")
	switch wk.op {
	case opAll:
		if pred == "" {
			return "", nil
		}
		return "NOT EXISTS { " + match + " WHERE NOT (" + pred + ") }", nil
	case opNone:
		if pred == "" {
			return "NOT EXISTS { " + match + " }", nil
		}
		return "NOT EXISTS { " + match + " WHERE " + pred + " }", nil
	default:
		if pred == "" {
			return "EXISTS { " + match + " }", nil
		}
		return "EXISTS { " + match + " WHERE " + pred + " }", nil
	}
}

// page renders ORDER BY, SKIP and LIMIT clauses for a TOptions value.
func (t *translator) page(b *cypherBuilder, node *Node, v string, options map[string]any) ([]string, error) {
	var lines []string

	sorts, _ := options["sort"].([]any)
	var order []string
	for _, s := range sorts {
		m, _ := s.(map[string]any)
		for _, k := range sortedKeys(m) {
			f := node.Field(k)
			if f == nil || f.Kind != KindProperty {
				return nil, domain.InvalidArgument(fmt.Sprintf("cannot sort by %q", k), "options", "sort")
			}
			if err := b.guard(node.Name+"."+f.Name, f.Auth); err != nil {
				return nil, err
			}
			dir, _ := m[k].(string)
			if dir != "DESC" {
				dir = "ASC"
			}
			order = append(order, v+"."+f.Name+" "+dir)
		}
	}
	if len(order) > 0 {
		lines = append(lines, "ORDER BY "+strings.Join(order, ", "))
	}

	if off, ok := intArg(options["offset"]); ok {
		if off < 0 {
			return nil, domain.InvalidArgument("must not be negative", "options", "offset")
		}
		lines = append(lines, "SKIP "+b.param(off))
	}
	if lim, ok := intArg(options["limit"]); ok {
		if lim < 0 {
			return nil, domain.InvalidArgument("must not be negative", "options", "limit")
		}
		if t.maxLimit > 0 && lim > t.maxLimit {
			return nil, domain.InvalidArgument(fmt.Sprintf("must not exceed %d", t.maxLimit), "options", "limit")
		}
		lines = append(lines, "LIMIT "+b.param(lim))
	}
	return lines, nil
}

func intArg(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func whereLine(pred string) []string {
	if pred == "" {
		return nil
	}
	return []string{"WHERE " + pred}
}

// read selects nodes matching where, paged by options.
func (t *translator) read(node *Node, where, options map[string]any) (graphdb.Statement, error) {
	b := t.newBuilder()
	if err := b.guard(node.Name, node.Auth); err != nil {
		return graphdb.Statement{}, err
	}
	pred, err := b.where(node, "this", where, "where")
	if err != nil {
		return graphdb.Statement{}, err
	}
	page, err := t.page(b, node, "this", options)
	if err != nil {
		return graphdb.Statement{}, err
	}

	lines := []string{"MATCH (this" + labels(node) + ")"}
	lines = append(lines, whereLine(pred)...)
	if len(page) > 0 {
		lines = append(lines, "WITH this")
		lines = append(lines, page...)
	}
	lines = append(lines, "RETURN "+projection("this")+" AS this")
	return b.statement(lines), nil
}

// aggregate counts nodes matching where.
func (t *translator) aggregate(node *Node, where map[string]any) (graphdb.Statement, error) {
	b := t.newBuilder()
	if err := b.guard(node.Name, node.Auth); err != nil {
		return graphdb.Statement{}, err
	}
	pred, err := b.where(node, "this", where, "where")
	if err != nil {
		return graphdb.Statement{}, err
	}

	lines := []string{"MATCH (this" + labels(node) + ")"}
	lines = append(lines, whereLine(pred)...)
	lines = append(lines, "RETURN count(this) AS count")
	return b.statement(lines), nil
}

// create inserts one node described by input, with nested creates and
// connects, and returns it.
func (t *translator) create(node *Node, input map[string]any) (graphdb.Statement, error) {
	b := t.newBuilder()
	lines, err := t.createNode(b, node, "this", input, "", "input")
	if err != nil {
		return graphdb.Statement{}, err
	}
	lines = append(lines, "RETURN "+projection("this")+" AS this")
	return b.statement(lines), nil
}

func (t *translator) createNode(b *cypherBuilder, node *Node, v string, data map[string]any, link, path string) ([]string, error) {
	if err := b.guard(node.Name, node.Auth); err != nil {
		return nil, err
	}
	lines := []string{"CREATE (" + v + labels(node) + ")"}

	var sets []string
	for _, f := range node.properties() {
		switch {
		case f.AutoID:
			sets = append(sets, v+"."+f.Name+" = "+b.param(t.newID()))
		case f.CreatedAt:
			sets = append(sets, v+"."+f.Name+" = datetime()")
		case f.Settable():
			if val, ok := data[f.Name]; ok && val != nil {
				if err := b.guard(node.Name+"."+f.Name, f.Auth); err != nil {
					return nil, err
				}
				sets = append(sets, v+"."+f.Name+" = "+b.param(val))
			}
		}
	}
	if len(sets) > 0 {
		lines = append(lines, "SET "+strings.Join(sets, ", "))
	}
	if link != "" {
		lines = append(lines, link)
	}

	for _, f := range node.relationships() {
		fieldInput, _ := data[f.Name].(map[string]any)
		if fieldInput == nil {
			continue
		}
		if err := b.guard(node.Name+"."+f.Name, f.Auth); err != nil {
			return nil, err
		}

		creates, _ := fieldInput["create"].([]any)
		for _, c := range creates {
			item, _ := c.(map[string]any)
			childData, _ := item["node"].(map[string]any)
			child := b.variable()
			merge := "MERGE " + relPattern(v, f, child, false, "")
			body, err := t.createNode(b, f.Relationship.Target, child, childData, merge, domain.ArgPath(path, f.Name, "create", "node"))
			if err != nil {
				return nil, err
			}
			lines = append(lines, subquery(v, child, body)...)
		}

		connects, _ := fieldInput["connect"].([]any)
		for _, c := range connects {
			body, child, err := t.connect(b, v, f, c, domain.ArgPath(path, f.Name, "connect"))
			if err != nil {
				return nil, err
			}
			lines = append(lines, subquery(v, child, body)...)
		}
	}
	return lines, nil
}

// connect matches the nodes selected by a connect item's where and merges a
// relationship to each. An empty filter is rejected so a typo cannot link
// every node of the target type.
func (t *translator) connect(b *cypherBuilder, v string, f *Field, item any, path string) ([]string, string, error) {
	if err := b.guard(f.Name, f.Auth || f.Relationship.Target.Auth); err != nil {
		return nil, "", err
	}
	m, _ := item.(map[string]any)
	where, _ := m["where"].(map[string]any)
	child := b.variable()
	pred, err := b.where(f.Relationship.Target, child, where, domain.ArgPath(path, "where"))
	if err != nil {
		return nil, "", err
	}
	if pred == "" {
		return nil, "", domain.InvalidArgument("connect requires a non-empty where", path, "where")
	}

	body := []string{"MATCH (" + child + labels(f.Relationship.Target) + ")"}
	body = append(body, whereLine(pred)...)
	body = append(body, "MERGE "+relPattern(v, f, child, false, ""))
	return body, child, nil
}

func (t *translator) disconnect(b *cypherBuilder, v string, f *Field, item any, path string) ([]string, string, error) {
	if err := b.guard(f.Name, f.Auth || f.Relationship.Target.Auth); err != nil {
		return nil, "", err
	}
	m, _ := item.(map[string]any)
	where, _ := m["where"].(map[string]any)
	child := b.variable()
	pred, err := b.where(f.Relationship.Target, child, where, domain.ArgPath(path, "where"))
	if err != nil {
		return nil, "", err
	}

	rel := child + "_rel"
	body := []string{"MATCH " + relPattern(v, f, child, true, rel)}
	body = append(body, whereLine(pred)...)
	body = append(body, "DELETE "+rel)
	return body, child, nil
}

// update sets properties on matching nodes and applies connect and
// disconnect operations to each of them.
func (t *translator) update(node *Node, where, update, connect, disconnect map[string]any) (graphdb.Statement, error) {
	b := t.newBuilder()
	if err := b.guard(node.Name, node.Auth); err != nil {
		return graphdb.Statement{}, err
	}
	pred, err := b.where(node, "this", where, "where")
	if err != nil {
		return graphdb.Statement{}, err
	}

	lines := []string{"MATCH (this" + labels(node) + ")"}
	lines = append(lines, whereLine(pred)...)

	changed := len(connect) > 0 || len(disconnect) > 0
	var sets []string
	for _, f := range node.properties() {
		if !f.Settable() {
			continue
		}
		if val, ok := update[f.Name]; ok {
			if err := b.guard(node.Name+"."+f.Name, f.Auth); err != nil {
				return graphdb.Statement{}, err
			}
			sets = append(sets, "this."+f.Name+" = "+b.param(val))
			changed = true
		}
	}
	if changed {
		for _, f := range node.properties() {
			if f.UpdatedAt {
				sets = append(sets, "this."+f.Name+" = datetime()")
			}
		}
	}
	if len(sets) > 0 {
		lines = append(lines, "SET "+strings.Join(sets, ", "))
	}

	for _, f := range node.relationships() {
		items, _ := connect[f.Name].([]any)
		for _, item := range items {
			body, child, err := t.connect(b, "this", f, item, domain.ArgPath("connect", f.Name))
			if err != nil {
				return graphdb.Statement{}, err
			}
			lines = append(lines, subquery("this", child, body)...)
		}
	}
	for _, f := range node.relationships() {
		items, _ := disconnect[f.Name].([]any)
		for _, item := range items {
			body, child, err := t.disconnect(b, "this", f, item, domain.ArgPath("disconnect", f.Name))
			if err != nil {
				return graphdb.Statement{}, err
			}
			lines = append(lines, subquery("this", child, body)...)
		}
	}

	lines = append(lines, "RETURN "+projection("this")+" AS this")
	return b.statement(lines), nil
}

// delete removes matching nodes together with their relationships.
func (t *translator) delete(node *Node, where map[string]any) (graphdb.Statement, error) {
	b := t.newBuilder()
	if err := b.guard(node.Name, node.Auth); err != nil {
		return graphdb.Statement{}, err
	}
	pred, err := b.where(node, "this", where, "where")
	if err != nil {
		return graphdb.Statement{}, err
	}

	lines := []string{"MATCH (this" + labels(node) + ")"}
	lines = append(lines, whereLine(pred)...)
	lines = append(lines, "DETACH DELETE this")
	return b.statement(lines), nil
}

// related loads the targets of a relationship field for many parents at
// once. Each result row carries parentId and the collected related nodes.
func (t *translator) related(f *Field, parentIDs []string, where, options map[string]any) (graphdb.Statement, error) {
	target := f.Relationship.Target
	b := t.newBuilder()
	if err := b.guard(target.Name, f.Auth || target.Auth); err != nil {
		return graphdb.Statement{}, err
	}
	ids := b.param(parentIDs)

	pred, err := b.where(target, "this", where, "where")
	if err != nil {
		return graphdb.Statement{}, err
	}
	page, err := t.page(b, target, "this", options)
	if err != nil {
		return graphdb.Statement{}, err
	}

	body := []string{"MATCH " + relPattern("parent", f, "this", true, "")}
	body = append(body, whereLine(pred)...)
	if len(page) > 0 {
		body = append(body, "WITH this")
		body = append(body, page...)
	}
	body = append(body, "RETURN collect("+projection("this")+") AS related")

	lines := []string{
		"UNWIND " + ids + " AS parentId",
		"MATCH (parent)",
		"WHERE elementId(parent) = parentId",
		"CALL {",
		"\tWITH parent",
	}
	lines = append(lines, indent(body)...)
	lines = append(lines, "}", "RETURN parentId, related")
	return b.statement(lines), nil
}

// custom runs a user @cypher statement. parentID is empty for root fields.
// Arguments, $this and $jwt are passed as parameters.
func (t *translator) custom(cf *CypherField, parentID string, args, jwt map[string]any) graphdb.Statement {
	params := make(map[string]any, len(args)+2)
	for k, v := range args {
		params[k] = v
	}
	if jwt == nil {
		jwt = map[string]any{}
	}
	params["jwt"] = jwt

	body := indent(strings.Split(strings.TrimSpace(cf.Statement), "\n"))

	var lines []string
	if parentID != "" {
		params["this"] = parentID
		lines = append(lines, "MATCH (this)", "WHERE elementId(this) = $this", "CALL {", "\tWITH this")
	} else {
		lines = append(lines, "CALL {")
	}
	lines = append(lines, body...)
	lines = append(lines, "}")

	col := quote(cf.Column)
	if cf.Node != nil {
		lines = append(lines, "RETURN "+col+" { .*, __id: elementId("+col+") } AS result")
	} else {
		lines = append(lines, "RETURN "+col+" AS result")
	}
	return graphdb.Statement{Cypher: strings.Join(lines, "\n"), Params: params}
}
