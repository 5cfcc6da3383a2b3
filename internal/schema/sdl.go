package schema

import (
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// sdlField is one field of a generated type or input.
type sdlField struct {
	name       string
	args       []sdlArg
	typ        string
	directives string
	desc       string
}

type sdlArg struct {
	name string
	typ  string
	def  string
}

// sdlWriter accumulates SDL text for the augmented document.
type sdlWriter struct {
	sb strings.Builder
}

func (w *sdlWriter) String() string {
	return w.sb.String()
}

func (w *sdlWriter) description(indent, desc string) {
	if desc == "" {
		return
	}
	w.sb.WriteString(indent + graphqlString(desc) + "\n")
}

// graphqlString quotes s as a GraphQL string literal. Control characters
// are written as \u escapes.
func graphqlString(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&sb, `\u%04x`, r)
				continue
			}
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// printValue renders a literal from the type definitions. Strings go
// through graphqlString; everything else prints as gqlparser wrote it.
func printValue(v *ast.Value) string {
	switch v.Kind {
	case ast.StringValue, ast.BlockValue:
		return graphqlString(v.Raw)
	case ast.ListValue:
		items := make([]string, 0, len(v.Children))
		for _, c := range v.Children {
			items = append(items, printValue(c.Value))
		}
		return "[" + strings.Join(items, ", ") + "]"
	case ast.ObjectValue:
		items := make([]string, 0, len(v.Children))
		for _, c := range v.Children {
			items = append(items, c.Name+": "+printValue(c.Value))
		}
		return "{" + strings.Join(items, ", ") + "}"
	}
	return v.String()
}

func (w *sdlWriter) block(keyword, name, directives, desc string, fields []sdlField) {
	w.description("", desc)
	fmt.Fprintf(&w.sb, "%s %s%s {\n", keyword, name, directives)
	for _, f := range fields {
		w.description("  ", f.desc)
		w.sb.WriteString("  ")
		w.sb.WriteString(f.name)
		if len(f.args) > 0 {
			parts := make([]string, 0, len(f.args))
			for _, a := range f.args {
				p := a.name + ": " + a.typ
				if a.def != "" {
					p += " = " + a.def
				}
				parts = append(parts, p)
			}
			w.sb.WriteString("(" + strings.Join(parts, ", ") + ")")
		}
		fmt.Fprintf(&w.sb, ": %s%s\n", f.typ, f.directives)
	}
	w.sb.WriteString("}\n\n")
}

func (w *sdlWriter) object(name, directives, desc string, fields []sdlField) {
	w.block("type", name, directives, desc, fields)
}

func (w *sdlWriter) input(name string, fields []sdlField) {
	w.block("input", name, "", "", fields)
}

func (w *sdlWriter) enum(name, desc string, values []string) {
	w.description("", desc)
	fmt.Fprintf(&w.sb, "enum %s {\n", name)
	for _, v := range values {
		fmt.Fprintf(&w.sb, "  %s\n", v)
	}
	w.sb.WriteString("}\n\n")
}

// printDirectives renders applied directives the way they were written.
func printDirectives(list ast.DirectiveList) string {
	var sb strings.Builder
	for _, d := range list {
		sb.WriteString(" @" + d.Name)
		if len(d.Arguments) == 0 {
			continue
		}
		args := make([]string, 0, len(d.Arguments))
		for _, a := range d.Arguments {
			args = append(args, a.Name+": "+printValue(a.Value))
		}
		sb.WriteString("(" + strings.Join(args, ", ") + ")")
	}
	return sb.String()
}

// argsOf converts declared field arguments.
func argsOf(list ast.ArgumentDefinitionList) []sdlArg {
	out := make([]sdlArg, 0, len(list))
	for _, a := range list {
		arg := sdlArg{name: a.Name, typ: a.Type.String()}
		if a.DefaultValue != nil {
			arg.def = printValue(a.DefaultValue)
		}
		out = append(out, arg)
	}
	return out
}

// passthrough re-emits a user enum or input type.
func (w *sdlWriter) passthrough(def *ast.Definition) {
	switch def.Kind {
	case ast.Enum:
		values := make([]string, 0, len(def.EnumValues))
		for _, v := range def.EnumValues {
			values = append(values, v.Name+printDirectives(v.Directives))
		}
		w.enum(def.Name, def.Description, values)
	case ast.InputObject:
		fields := make([]sdlField, 0, len(def.Fields))
		for _, f := range def.Fields {
			field := sdlField{name: f.Name, typ: f.Type.String(), desc: f.Description}
			if f.DefaultValue != nil {
				field.typ += " = " + printValue(f.DefaultValue)
			}
			fields = append(fields, field)
		}
		w.input(def.Name, fields)
	}
}
