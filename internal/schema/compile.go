// Package schema compiles GraphQL type definitions into an executable
// schema whose resolvers are generated from the types and run as Cypher.
//
// Compilation validates the definitions with gqlparser, extracts a model of
// node types and relationships, augments it with generated queries,
// mutations and inputs, and builds a graphql-go schema from the result.
package schema

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/graphql-go/graphql"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
)

// Options configures Compile.
type Options struct {
	// Debug logs the augmented schema after compilation.
	Debug bool
	// Logger receives debug output. Defaults to slog.Default().
	Logger *slog.Logger
	// MaxLimit caps options.limit on every list. Zero disables the cap.
	MaxLimit int
	// Observer is notified of every generated root resolver call.
	Observer resolverObserver
}

// Compiled is an executable schema plus its augmented SDL.
type Compiled struct {
	schema graphql.Schema
	sdl    string
	model  *Model
}

// Executable returns the graphql-go schema to serve.
func (c *Compiled) Executable() graphql.Schema {
	return c.schema
}

// SDL returns the augmented schema in canonical form.
func (c *Compiled) SDL() string {
	return c.sdl
}

// Model returns the node model extracted from the type definitions.
func (c *Compiled) Model() *Model {
	return c.model
}

// Compile turns type definitions into an executable schema. runner may be
// nil when the schema is only printed; resolvers then fail on use.
// Any problem with the definitions is reported as a *CompileError.
func Compile(typeDefs string, runner Runner, opts Options) (*Compiled, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	parsed, err := gqlparser.LoadSchema(preludeSource, &ast.Source{Name: "schema.graphql", Input: typeDefs})
	if cerr := asCompileError(err); cerr != nil {
		return nil, cerr
	}

	model, err := buildModel(parsed)
	if err != nil {
		return nil, err
	}
	if len(model.Nodes) == 0 {
		var diag diagnostics
		diag.addf(nil, "type definitions declare no node types")
		return nil, diag.err()
	}
	if err := checkCollisions(model); err != nil {
		return nil, err
	}

	augmented := augment(model)
	final, err := gqlparser.LoadSchema(preludeSource, &ast.Source{Name: "augmented.graphql", Input: augmented})
	if cerr := asCompileError(err); cerr != nil {
		return nil, fmt.Errorf("generated schema is invalid: %w", cerr)
	}

	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatSchema(final)
	sdl := buf.String()

	if opts.Debug {
		log.Debug("schema augmented",
			slog.Int("nodes", len(model.Nodes)),
			slog.Int("custom_queries", len(model.Queries)),
			slog.Int("custom_mutations", len(model.Mutations)),
			slog.String("sdl", sdl),
		)
	}

	res := newResolvers(model, runner, newTranslator(opts.MaxLimit), opts.Observer)
	exec, err := buildExecutable(final, res.lookup)
	if err != nil {
		return nil, fmt.Errorf("build executable schema: %w", err)
	}

	return &Compiled{schema: exec, sdl: sdl, model: model}, nil
}
