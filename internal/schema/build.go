package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/vektah/gqlparser/v2/ast"
)

type resolverLookup func(typeName, field string) graphql.FieldResolveFn

// executableBuilder converts a validated gqlparser schema into a graphql-go
// schema. Object and input fields are thunks so types may reference each
// other in any order.
type executableBuilder struct {
	def     *ast.Schema
	types   map[string]graphql.Type
	resolve resolverLookup
}

func buildExecutable(def *ast.Schema, resolve resolverLookup) (graphql.Schema, error) {
	b := &executableBuilder{
		def:     def,
		types:   map[string]graphql.Type{},
		resolve: resolve,
	}

	if def.Query == nil {
		return graphql.Schema{}, fmt.Errorf("schema has no Query type")
	}
	cfg := graphql.SchemaConfig{Query: b.named(def.Query.Name).(*graphql.Object)}
	if def.Mutation != nil {
		cfg.Mutation = b.named(def.Mutation.Name).(*graphql.Object)
	}

	names := make([]string, 0, len(def.Types))
	for name, d := range def.Types {
		if !d.BuiltIn {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		cfg.Types = append(cfg.Types, b.named(name))
	}

	return graphql.NewSchema(cfg)
}

func (b *executableBuilder) named(name string) graphql.Type {
	if t, ok := b.types[name]; ok {
		return t
	}

	var t graphql.Type
	switch name {
	case "String":
		t = graphql.String
	case "Int":
		t = graphql.Int
	case "Float":
		t = graphql.Float
	case "Boolean":
		t = graphql.Boolean
	case "ID":
		t = graphql.ID
	case scalarDateTime:
		t = newDateTime()
	}
	if t != nil {
		b.types[name] = t
		return t
	}

	d := b.def.Types[name]
	switch d.Kind {
	case ast.Enum:
		values := graphql.EnumValueConfigMap{}
		for _, v := range d.EnumValues {
			values[v.Name] = &graphql.EnumValueConfig{Value: v.Name, Description: v.Description}
		}
		t = graphql.NewEnum(graphql.EnumConfig{Name: d.Name, Description: d.Description, Values: values})

	case ast.Object:
		t = graphql.NewObject(graphql.ObjectConfig{
			Name:        d.Name,
			Description: d.Description,
			Fields:      graphql.FieldsThunk(func() graphql.Fields { return b.fields(d) }),
		})

	case ast.InputObject:
		t = graphql.NewInputObject(graphql.InputObjectConfig{
			Name:        d.Name,
			Description: d.Description,
			Fields:      graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap { return b.inputFields(d) }),
		})

	default:
		panic(fmt.Sprintf("schema: unsupported definition %s of kind %s", d.Name, d.Kind))
	}

	b.types[name] = t
	return t
}

func (b *executableBuilder) ref(t *ast.Type) graphql.Type {
	var out graphql.Type
	if t.Elem != nil {
		out = graphql.NewList(b.ref(t.Elem))
	} else {
		out = b.named(t.NamedType)
	}
	if t.NonNull {
		out = graphql.NewNonNull(out)
	}
	return out
}

func (b *executableBuilder) fields(d *ast.Definition) graphql.Fields {
	fields := graphql.Fields{}
	for _, fd := range d.Fields {
		if strings.HasPrefix(fd.Name, "__") {
			continue
		}
		fields[fd.Name] = &graphql.Field{
			Name:        fd.Name,
			Type:        b.ref(fd.Type),
			Args:        b.args(fd.Arguments),
			Resolve:     b.resolve(d.Name, fd.Name),
			Description: fd.Description,
		}
	}
	return fields
}

func (b *executableBuilder) args(list ast.ArgumentDefinitionList) graphql.FieldConfigArgument {
	if len(list) == 0 {
		return nil
	}
	args := graphql.FieldConfigArgument{}
	for _, a := range list {
		args[a.Name] = &graphql.ArgumentConfig{
			Type:         b.ref(a.Type),
			DefaultValue: defaultValue(a.DefaultValue),
			Description:  a.Description,
		}
	}
	return args
}

func (b *executableBuilder) inputFields(d *ast.Definition) graphql.InputObjectConfigFieldMap {
	fields := graphql.InputObjectConfigFieldMap{}
	for _, fd := range d.Fields {
		fields[fd.Name] = &graphql.InputObjectFieldConfig{
			Type:         b.ref(fd.Type),
			DefaultValue: defaultValue(fd.DefaultValue),
			Description:  fd.Description,
		}
	}
	return fields
}

func defaultValue(v *ast.Value) any {
	if v == nil {
		return nil
	}
	val, err := v.Value(nil)
	if err != nil {
		return nil
	}
	return val
}
