package schema

import "sort"

// Where operators. Property operators are suffixes of the field name;
// relationship operators apply to the related nodes.
const (
	opEq          = "EQ"
	opNot         = "NOT"
	opIn          = "IN"
	opNotIn       = "NOT_IN"
	opContains    = "CONTAINS"
	opStartsWith  = "STARTS_WITH"
	opEndsWith    = "ENDS_WITH"
	opLT          = "LT"
	opLTE         = "LTE"
	opGT          = "GT"
	opGTE         = "GTE"
	opIncludes    = "INCLUDES"
	opNotIncludes = "NOT_INCLUDES"
	opSome        = "SOME"
	opNone        = "NONE"
	opAll         = "ALL"
	opAnd         = "AND"
	opOr          = "OR"
	opLogicalNot  = "LOGICAL_NOT"
)

// whereKey maps one key of a TWhere input to its field and operator.
type whereKey struct {
	field *Field
	op    string
}

const (
	sortDirectionEnum = "SortDirection"
	createInfoType    = "CreateInfo"
	updateInfoType    = "UpdateInfo"
	deleteInfoType    = "DeleteInfo"
	emptyInputField   = "_emptyInput"
)

// augment generates the full SDL of the executable schema: user types with
// relationship arguments added, plus the generated inputs, payloads and
// root fields for every node.
func augment(m *Model) string {
	var w sdlWriter

	for _, node := range m.Nodes {
		node.names = namesFor(node.Name)
		node.whereKeys = whereKeysFor(node)
	}

	for _, def := range m.Passthrough {
		w.passthrough(def)
	}

	w.enum(sortDirectionEnum, "", []string{"ASC", "DESC"})
	w.object(createInfoType, "", "", []sdlField{
		{name: "nodesCreated", typ: "Int!"},
		{name: "relationshipsCreated", typ: "Int!"},
	})
	w.object(updateInfoType, "", "", []sdlField{
		{name: "nodesCreated", typ: "Int!"},
		{name: "nodesDeleted", typ: "Int!"},
		{name: "relationshipsCreated", typ: "Int!"},
		{name: "relationshipsDeleted", typ: "Int!"},
	})
	w.object(deleteInfoType, "", "", []sdlField{
		{name: "nodesDeleted", typ: "Int!"},
		{name: "relationshipsDeleted", typ: "Int!"},
	})

	for _, node := range m.Nodes {
		writeNode(&w, node)
	}

	writeRoot(&w, "Query", queryFields(m))
	writeRoot(&w, "Mutation", mutationFields(m))

	return w.String()
}

func writeRoot(w *sdlWriter, name string, fields []sdlField) {
	if len(fields) == 0 {
		return
	}
	w.object(name, "", "", fields)
}

func writeNode(w *sdlWriter, node *Node) {
	n := node.names

	fields := make([]sdlField, 0, len(node.Fields))
	for _, f := range node.Fields {
		field := sdlField{
			name:       f.Name,
			typ:        f.Type.String(),
			directives: printDirectives(f.Def.Directives),
			desc:       f.Def.Description,
		}
		switch f.Kind {
		case KindRelationship:
			target := f.Relationship.Target.names
			field.args = []sdlArg{{name: "where", typ: target.Where}}
			if f.List {
				field.args = append(field.args, sdlArg{name: "options", typ: target.Options})
			}
		case KindCypher:
			field.args = argsOf(f.Def.Arguments)
		}
		fields = append(fields, field)
	}
	w.object(node.Name, printDirectives(node.Def.Directives), node.Def.Description, fields)

	w.object(n.AggregateResult, "", "", []sdlField{{name: "count", typ: "Int!"}})
	w.object(n.CreateResponse, "", "", []sdlField{
		{name: "info", typ: createInfoType + "!"},
		{name: n.Plural, typ: "[" + node.Name + "!]!"},
	})
	w.object(n.UpdateResponse, "", "", []sdlField{
		{name: "info", typ: updateInfoType + "!"},
		{name: n.Plural, typ: "[" + node.Name + "!]!"},
	})

	w.input(n.Where, whereFields(node))

	var sortFields []sdlField
	for _, f := range node.properties() {
		if !f.List {
			sortFields = append(sortFields, sdlField{name: f.Name, typ: sortDirectionEnum})
		}
	}
	if len(sortFields) > 0 {
		w.input(n.Sort, sortFields)
	}
	options := []sdlField{
		{name: "limit", typ: "Int"},
		{name: "offset", typ: "Int"},
	}
	if len(sortFields) > 0 {
		options = append([]sdlField{{name: "sort", typ: "[" + n.Sort + "!]"}}, options...)
	}
	w.input(n.Options, options)

	var create, update []sdlField
	for _, f := range node.properties() {
		if !f.Settable() {
			continue
		}
		create = append(create, sdlField{name: f.Name, typ: f.Type.String()})
		update = append(update, sdlField{name: f.Name, typ: nullable(f)})
	}
	for _, f := range node.relationships() {
		create = append(create, sdlField{name: f.Name, typ: relationNamesFor(node.Name, f.Name).Field})
	}
	w.input(n.CreateInput, orEmpty(create))
	w.input(n.UpdateInput, orEmpty(update))

	rels := node.relationships()
	if len(rels) == 0 {
		return
	}

	var connect, disconnect []sdlField
	for _, f := range rels {
		target := f.Relationship.Target.names
		rn := relationNamesFor(node.Name, f.Name)
		w.input(rn.Field, []sdlField{
			{name: "create", typ: "[" + rn.Create + "!]"},
			{name: "connect", typ: "[" + rn.Connect + "!]"},
		})
		w.input(rn.Create, []sdlField{{name: "node", typ: target.CreateInput + "!"}})
		w.input(rn.Connect, []sdlField{{name: "where", typ: target.Where + "!"}})
		w.input(rn.Disconnect, []sdlField{{name: "where", typ: target.Where + "!"}})

		connect = append(connect, sdlField{name: f.Name, typ: "[" + rn.Connect + "!]"})
		disconnect = append(disconnect, sdlField{name: f.Name, typ: "[" + rn.Disconnect + "!]"})
	}
	w.input(n.ConnectInput, connect)
	w.input(n.DisconnectInput, disconnect)
}

// nullable drops the outer non-null marker so updates may omit the field.
func nullable(f *Field) string {
	t := *f.Type
	t.NonNull = false
	return t.String()
}

func orEmpty(fields []sdlField) []sdlField {
	if len(fields) > 0 {
		return fields
	}
	return []sdlField{{name: emptyInputField, typ: "Boolean"}}
}

func whereFields(node *Node) []sdlField {
	keys := make([]string, 0, len(node.whereKeys))
	for k := range node.whereKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]sdlField, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, sdlField{name: k, typ: whereKeyType(node, node.whereKeys[k])})
	}
	return fields
}

func whereKeyType(node *Node, wk whereKey) string {
	switch wk.op {
	case opAnd, opOr:
		return "[" + node.names.Where + "!]"
	case opLogicalNot:
		return node.names.Where
	}

	f := wk.field
	if f.Kind == KindRelationship {
		return f.Relationship.Target.names.Where
	}

	switch wk.op {
	case opIn, opNotIn:
		return "[" + f.Base + "!]"
	case opIncludes, opNotIncludes:
		return f.Base
	}
	if f.List {
		return "[" + f.Base + "!]"
	}
	return f.Base
}

// whereKeysFor lists every filter key the node's TWhere accepts.
func whereKeysFor(node *Node) map[string]whereKey {
	keys := map[string]whereKey{
		"AND": {op: opAnd},
		"OR":  {op: opOr},
		"NOT": {op: opLogicalNot},
	}

	add := func(f *Field, suffix, op string) {
		name := f.Name
		if suffix != "" {
			name += "_" + suffix
		}
		keys[name] = whereKey{field: f, op: op}
	}

	for _, f := range node.Fields {
		switch f.Kind {
		case KindProperty:
			add(f, "", opEq)
			add(f, "NOT", opNot)
			if f.List {
				add(f, "INCLUDES", opIncludes)
				add(f, "NOT_INCLUDES", opNotIncludes)
				continue
			}
			if f.Base == "Boolean" {
				continue
			}
			add(f, "IN", opIn)
			add(f, "NOT_IN", opNotIn)
			switch f.Base {
			case "String", "ID":
				add(f, "CONTAINS", opContains)
				add(f, "STARTS_WITH", opStartsWith)
				add(f, "ENDS_WITH", opEndsWith)
			case "Int", "Float", scalarDateTime:
				add(f, "LT", opLT)
				add(f, "LTE", opLTE)
				add(f, "GT", opGT)
				add(f, "GTE", opGTE)
			}
		case KindRelationship:
			add(f, "", opSome)
			add(f, "SOME", opSome)
			add(f, "NONE", opNone)
			add(f, "NOT", opNone)
			add(f, "ALL", opAll)
		}
	}
	return keys
}

func queryFields(m *Model) []sdlField {
	var fields []sdlField
	for _, node := range m.Nodes {
		n := node.names
		fields = append(fields,
			sdlField{
				name: n.Plural,
				args: []sdlArg{{name: "where", typ: n.Where}, {name: "options", typ: n.Options}},
				typ:  "[" + node.Name + "!]!",
			},
			sdlField{
				name: n.Aggregate,
				args: []sdlArg{{name: "where", typ: n.Where}},
				typ:  n.AggregateResult + "!",
			},
		)
	}
	return append(fields, rootSDL(m.Queries)...)
}

func mutationFields(m *Model) []sdlField {
	var fields []sdlField
	for _, node := range m.Nodes {
		n := node.names
		updateArgs := []sdlArg{{name: "where", typ: n.Where}, {name: "update", typ: n.UpdateInput}}
		if len(node.relationships()) > 0 {
			updateArgs = append(updateArgs,
				sdlArg{name: "connect", typ: n.ConnectInput},
				sdlArg{name: "disconnect", typ: n.DisconnectInput},
			)
		}
		fields = append(fields,
			sdlField{
				name: n.Create,
				args: []sdlArg{{name: "input", typ: "[" + n.CreateInput + "!]!"}},
				typ:  n.CreateResponse + "!",
			},
			sdlField{
				name: n.Update,
				args: updateArgs,
				typ:  n.UpdateResponse + "!",
			},
			sdlField{
				name: n.Delete,
				args: []sdlArg{{name: "where", typ: n.Where}},
				typ:  deleteInfoType + "!",
			},
		)
	}
	return append(fields, rootSDL(m.Mutations)...)
}

func rootSDL(roots []*RootField) []sdlField {
	fields := make([]sdlField, 0, len(roots))
	for _, r := range roots {
		fields = append(fields, sdlField{
			name:       r.Name,
			args:       argsOf(r.Def.Arguments),
			typ:        r.Def.Type.String(),
			directives: printDirectives(r.Def.Directives),
			desc:       r.Def.Description,
		})
	}
	return fields
}

// checkCollisions reports user root fields shadowed by generated ones.
func checkCollisions(m *Model) error {
	var diag diagnostics
	generated := map[string]string{}
	for _, node := range m.Nodes {
		n := namesFor(node.Name)
		for _, name := range []string{n.Plural, n.Aggregate} {
			generated["Query."+name] = node.Name
		}
		for _, name := range []string{n.Create, n.Update, n.Delete} {
			generated["Mutation."+name] = node.Name
		}
	}
	for _, r := range append(append([]*RootField{}, m.Queries...), m.Mutations...) {
		if owner, ok := generated[r.Operation+"."+r.Name]; ok {
			diag.addf(r.Def.Position, "field %s.%s: name is generated for type %s", r.Operation, r.Name, owner)
		}
	}
	return diag.err()
}
