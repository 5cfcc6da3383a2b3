package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/heartmarshall/neographql/internal/adapter/graphdb"
	"github.com/heartmarshall/neographql/internal/domain"
	"github.com/heartmarshall/neographql/internal/transport/graphql/dataloader"
	"github.com/heartmarshall/neographql/pkg/ctxutil"
)

// idKey holds the element id in every projected node map.
const idKey = "__id"

var errNoDatabase = errors.New("schema compiled without a database connection")

// Runner executes Cypher. *graphdb.Client satisfies it.
type Runner interface {
	Read(ctx context.Context, stmt graphdb.Statement) ([]graphdb.Record, error)
	Write(ctx context.Context, stmts ...graphdb.Statement) (*graphdb.WriteResult, error)
}

type resolverObserver interface {
	ObserveResolver(field string, err error)
}

type resolvers struct {
	model  *Model
	runner Runner
	tr     *translator
	obs    resolverObserver
	byType map[string]map[string]graphql.FieldResolveFn
}

func newResolvers(m *Model, runner Runner, tr *translator, obs resolverObserver) *resolvers {
	r := &resolvers{
		model:  m,
		runner: runner,
		tr:     tr,
		obs:    obs,
		byType: map[string]map[string]graphql.FieldResolveFn{},
	}

	for _, node := range m.Nodes {
		n := node.names
		r.set("Query", n.Plural, r.list(node))
		r.set("Query", n.Aggregate, r.aggregate(node))
		r.set("Mutation", n.Create, r.create(node))
		r.set("Mutation", n.Update, r.update(node))
		r.set("Mutation", n.Delete, r.delete(node))

		for _, f := range node.Fields {
			switch f.Kind {
			case KindProperty:
				if f.Auth {
					r.set(node.Name, f.Name, guardedProperty(f))
				}
			case KindRelationship:
				r.set(node.Name, f.Name, r.relation(node, f))
			case KindCypher:
				r.set(node.Name, f.Name, r.cypherField(f))
			}
		}
	}
	for _, q := range m.Queries {
		r.set("Query", q.Name, r.root(q, false))
	}
	for _, mu := range m.Mutations {
		r.set("Mutation", mu.Name, r.root(mu, true))
	}
	return r
}

func (r *resolvers) set(typeName, field string, fn graphql.FieldResolveFn) {
	if r.byType[typeName] == nil {
		r.byType[typeName] = map[string]graphql.FieldResolveFn{}
	}
	if typeName == "Query" || typeName == "Mutation" {
		fn = r.observed(field, fn)
	}
	r.byType[typeName][field] = fn
}

// lookup returns the resolver for a field, or nil for the default
// map-key resolver.
func (r *resolvers) lookup(typeName, field string) graphql.FieldResolveFn {
	return r.byType[typeName][field]
}

func (r *resolvers) observed(field string, fn graphql.FieldResolveFn) graphql.FieldResolveFn {
	if r.obs == nil {
		return fn
	}
	return func(p graphql.ResolveParams) (any, error) {
		v, err := fn(p)
		r.obs.ObserveResolver(field, err)
		return v, err
	}
}

func authorize(ctx context.Context, required bool) error {
	if !required {
		return nil
	}
	if _, ok := ctxutil.ClaimsFromCtx(ctx); !ok {
		return domain.ErrUnauthorized
	}
	return nil
}

// translatorFor returns the translator for the caller of ctx, so filters and
// nested writes into @authentication types are rejected for anonymous
// callers.
func (r *resolvers) translatorFor(ctx context.Context) *translator {
	_, ok := ctxutil.ClaimsFromCtx(ctx)
	return r.tr.as(ok)
}

// guardedProperty reads an @authentication property from the parent node.
func guardedProperty(f *Field) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		if err := authorize(p.Context, true); err != nil {
			return nil, err
		}
		parent, _ := p.Source.(map[string]any)
		return parent[f.Name], nil
	}
}

func (r *resolvers) read(ctx context.Context, stmt graphdb.Statement) ([]graphdb.Record, error) {
	if r.runner == nil {
		return nil, errNoDatabase
	}
	return r.runner.Read(ctx, stmt)
}

func (r *resolvers) write(ctx context.Context, stmts ...graphdb.Statement) (*graphdb.WriteResult, error) {
	if r.runner == nil {
		return nil, errNoDatabase
	}
	return r.runner.Write(ctx, stmts...)
}

func mapArg(args map[string]any, name string) map[string]any {
	m, _ := args[name].(map[string]any)
	return m
}

func column(records []graphdb.Record, name string) []any {
	out := make([]any, 0, len(records))
	for _, rec := range records {
		out = append(out, rec[name])
	}
	return out
}

func (r *resolvers) list(node *Node) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		if err := authorize(p.Context, node.Auth); err != nil {
			return nil, err
		}
		stmt, err := r.translatorFor(p.Context).read(node, mapArg(p.Args, "where"), mapArg(p.Args, "options"))
		if err != nil {
			return nil, err
		}
		records, err := r.read(p.Context, stmt)
		if err != nil {
			return nil, err
		}
		return column(records, "this"), nil
	}
}

func (r *resolvers) aggregate(node *Node) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		if err := authorize(p.Context, node.Auth); err != nil {
			return nil, err
		}
		stmt, err := r.translatorFor(p.Context).aggregate(node, mapArg(p.Args, "where"))
		if err != nil {
			return nil, err
		}
		records, err := r.read(p.Context, stmt)
		if err != nil {
			return nil, err
		}
		var count any = 0
		if len(records) > 0 {
			count = records[0]["count"]
		}
		return map[string]any{"count": count}, nil
	}
}

func (r *resolvers) create(node *Node) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		if err := authorize(p.Context, node.Auth); err != nil {
			return nil, err
		}
		tr := r.translatorFor(p.Context)
		inputs, _ := p.Args["input"].([]any)
		stmts := make([]graphdb.Statement, 0, len(inputs))
		for _, in := range inputs {
			data, _ := in.(map[string]any)
			stmt, err := tr.create(node, data)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, stmt)
		}

		res := &graphdb.WriteResult{}
		if len(stmts) > 0 {
			var err error
			if res, err = r.write(p.Context, stmts...); err != nil {
				return nil, err
			}
		}
		return map[string]any{
			"info": map[string]any{
				"nodesCreated":         res.Counters.NodesCreated,
				"relationshipsCreated": res.Counters.RelationshipsCreated,
			},
			node.names.Plural: column(res.Records, "this"),
		}, nil
	}
}

func (r *resolvers) update(node *Node) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		if err := authorize(p.Context, node.Auth); err != nil {
			return nil, err
		}
		stmt, err := r.translatorFor(p.Context).update(node,
			mapArg(p.Args, "where"),
			mapArg(p.Args, "update"),
			mapArg(p.Args, "connect"),
			mapArg(p.Args, "disconnect"),
		)
		if err != nil {
			return nil, err
		}
		res, err := r.write(p.Context, stmt)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"info": map[string]any{
				"nodesCreated":         res.Counters.NodesCreated,
				"nodesDeleted":         res.Counters.NodesDeleted,
				"relationshipsCreated": res.Counters.RelationshipsCreated,
				"relationshipsDeleted": res.Counters.RelationshipsDeleted,
			},
			node.names.Plural: column(res.Records, "this"),
		}, nil
	}
}

func (r *resolvers) delete(node *Node) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		if err := authorize(p.Context, node.Auth); err != nil {
			return nil, err
		}
		stmt, err := r.translatorFor(p.Context).delete(node, mapArg(p.Args, "where"))
		if err != nil {
			return nil, err
		}
		res, err := r.write(p.Context, stmt)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"nodesDeleted":         res.Counters.NodesDeleted,
			"relationshipsDeleted": res.Counters.RelationshipsDeleted,
		}, nil
	}
}

// relation resolves a relationship field through the request's dataloader
// so sibling parents are fetched with one query.
func (r *resolvers) relation(node *Node, f *Field) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		if err := authorize(p.Context, f.Relationship.Target.Auth || f.Auth); err != nil {
			return nil, err
		}
		parent, _ := p.Source.(map[string]any)
		id, _ := parent[idKey].(string)
		if id == "" {
			return nil, fmt.Errorf("%s.%s: parent has no element id", node.Name, f.Name)
		}

		tr := r.translatorFor(p.Context)
		where, options := mapArg(p.Args, "where"), mapArg(p.Args, "options")
		// Validate arguments before scheduling so the error belongs to this field.
		if _, err := tr.related(f, nil, where, options); err != nil {
			return nil, err
		}

		name, err := loaderName(node.Name+"."+f.Name, p.Args)
		if err != nil {
			return nil, err
		}
		batch := func(ctx context.Context, keys []string) (map[string]dataloader.Rows, error) {
			stmt, err := tr.related(f, keys, where, options)
			if err != nil {
				return nil, err
			}
			records, err := r.read(ctx, stmt)
			if err != nil {
				return nil, err
			}
			grouped := make(map[string]dataloader.Rows, len(records))
			for _, rec := range records {
				pid, _ := rec["parentId"].(string)
				grouped[pid] = toRows(rec["related"])
			}
			return grouped, nil
		}

		thunk := dataloader.Load(p.Context, name, id, batch)
		return func() (any, error) {
			rows, err := thunk()
			if err != nil {
				return nil, err
			}
			if f.List {
				return rows, nil
			}
			if len(rows) == 0 {
				return nil, nil
			}
			return rows[0], nil
		}, nil
	}
}

// loaderName identifies a relationship field together with its arguments.
// encoding/json sorts map keys, which makes the name canonical.
func loaderName(field string, args map[string]any) (string, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("encode %s arguments: %w", field, err)
	}
	return field + "|" + string(raw), nil
}

func toRows(v any) dataloader.Rows {
	items, _ := v.([]any)
	rows := make(dataloader.Rows, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			rows = append(rows, m)
		}
	}
	return rows
}

func (r *resolvers) cypherField(f *Field) graphql.FieldResolveFn {
	protected := f.Auth || (f.Cypher.Node != nil && f.Cypher.Node.Auth)
	return func(p graphql.ResolveParams) (any, error) {
		if err := authorize(p.Context, protected); err != nil {
			return nil, err
		}
		parent, _ := p.Source.(map[string]any)
		id, _ := parent[idKey].(string)
		claims, _ := ctxutil.ClaimsFromCtx(p.Context)

		records, err := r.read(p.Context, r.tr.custom(f.Cypher, id, p.Args, claims))
		if err != nil {
			return nil, err
		}
		return results(records, f.List), nil
	}
}

func (r *resolvers) root(rf *RootField, mutation bool) graphql.FieldResolveFn {
	list := rf.Def.Type.Elem != nil
	return func(p graphql.ResolveParams) (any, error) {
		if err := authorize(p.Context, rf.Auth || (rf.Cypher.Node != nil && rf.Cypher.Node.Auth)); err != nil {
			return nil, err
		}
		claims, _ := ctxutil.ClaimsFromCtx(p.Context)
		stmt := r.tr.custom(rf.Cypher, "", p.Args, claims)

		var records []graphdb.Record
		if mutation {
			res, err := r.write(p.Context, stmt)
			if err != nil {
				return nil, err
			}
			records = res.Records
		} else {
			var err error
			if records, err = r.read(p.Context, stmt); err != nil {
				return nil, err
			}
		}
		return results(records, list), nil
	}
}

// results shapes @cypher rows for a list or singular field. A single row
// holding a list is flattened so "RETURN collect(x) AS x" also works.
func results(records []graphdb.Record, list bool) any {
	values := column(records, "result")
	if !list {
		if len(values) == 0 {
			return nil
		}
		return values[0]
	}
	if len(values) == 1 {
		if inner, ok := values[0].([]any); ok {
			return inner
		}
	}
	return values
}
