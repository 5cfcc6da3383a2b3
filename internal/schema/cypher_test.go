package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/neographql/internal/domain"
)

func lines(ls ...string) string {
	return strings.Join(ls, "\n")
}

func TestTranslator_Read(t *testing.T) {
	m := mustModel(t, moviesSDL)
	movie := m.Node("Movie")

	tests := []struct {
		name       string
		where      map[string]any
		options    map[string]any
		wantCypher string
		wantParams map[string]any
	}{
		{
			name: "no arguments",
			wantCypher: lines(
				"MATCH (this:`Movie`)",
				"RETURN this { .*, __id: elementId(this) } AS this",
			),
			wantParams: map[string]any{},
		},
		{
			name:    "filters sort and pagination",
			where:   map[string]any{"title_CONTAINS": "Matrix", "released_GTE": 1999},
			options: map[string]any{"sort": []any{map[string]any{"released": "DESC"}}, "limit": 10, "offset": 5},
			wantCypher: lines(
				"MATCH (this:`Movie`)",
				"WHERE this.released >= $param0 AND this.title CONTAINS $param1",
				"WITH this",
				"ORDER BY this.released DESC",
				"SKIP $param2",
				"LIMIT $param3",
				"RETURN this { .*, __id: elementId(this) } AS this",
			),
			wantParams: map[string]any{"param0": 1999, "param1": "Matrix", "param2": 5, "param3": 10},
		},
		{
			name: "logical operators and null",
			where: map[string]any{
				"OR":  []any{map[string]any{"title": "A"}, map[string]any{"title": "B"}},
				"NOT": map[string]any{"released": nil},
			},
			wantCypher: lines(
				"MATCH (this:`Movie`)",
				"WHERE NOT (this.released IS NULL) AND ((this.title = $param0) OR (this.title = $param1))",
				"RETURN this { .*, __id: elementId(this) } AS this",
			),
			wantParams: map[string]any{"param0": "A", "param1": "B"},
		},
		{
			name:  "list property includes",
			where: map[string]any{"genres_INCLUDES": "ACTION", "title_NOT_IN": []any{"X"}},
			wantCypher: lines(
				"MATCH (this:`Movie`)",
				"WHERE $param0 IN this.genres AND NOT this.title IN $param1",
				"RETURN this { .*, __id: elementId(this) } AS this",
			),
			wantParams: map[string]any{"param0": "ACTION", "param1": []any{"X"}},
		},
		{
			name:  "relationship some",
			where: map[string]any{"actors_SOME": map[string]any{"name": "Keanu"}},
			wantCypher: lines(
				"MATCH (this:`Movie`)",
				"WHERE EXISTS { MATCH (this)<-[:`ACTED_IN`]-(this0:`Person`) WHERE this0.name = $param0 }",
				"RETURN this { .*, __id: elementId(this) } AS this",
			),
			wantParams: map[string]any{"param0": "Keanu"},
		},
		{
			name:  "relationship none without filter",
			where: map[string]any{"director_NONE": map[string]any{}},
			wantCypher: lines(
				"MATCH (this:`Movie`)",
				"WHERE NOT EXISTS { MATCH (this)<-[:`DIRECTED`]-(this0:`Person`) }",
				"RETURN this { .*, __id: elementId(this) } AS this",
			),
			wantParams: map[string]any{},
		},
		{
			name:  "relationship all",
			where: map[string]any{"actors_ALL": map[string]any{"born_GT": 1960}},
			wantCypher: lines(
				"MATCH (this:`Movie`)",
				"WHERE NOT EXISTS { MATCH (this)<-[:`ACTED_IN`]-(this0:`Person`) WHERE NOT (this0.born > $param0) }",
				"RETURN this { .*, __id: elementId(this) } AS this",
			),
			wantParams: map[string]any{"param0": 1960},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := fixedTranslator(0).read(movie, tt.where, tt.options)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCypher, stmt.Cypher)
			assert.Equal(t, tt.wantParams, stmt.Params)
		})
	}
}

func TestTranslator_ReadValidation(t *testing.T) {
	m := mustModel(t, moviesSDL)
	movie := m.Node("Movie")

	tests := []struct {
		name    string
		where   map[string]any
		options map[string]any
		want    string
		path    string
	}{
		{name: "unknown filter", where: map[string]any{"rating": 5}, want: `unknown filter "rating"`, path: "where.rating"},
		{name: "null with range operator", where: map[string]any{"released_GT": nil}, want: "null is only allowed", path: "where.released_GT"},
		{
			name:  "nested relationship filter",
			where: map[string]any{"OR": []any{map[string]any{"actors_SOME": map[string]any{"born_LT": nil}}}},
			want:  "null is only allowed",
			path:  "where.OR.actors_SOME.born_LT",
		},
		{name: "limit above max", options: map[string]any{"limit": 101}, want: "must not exceed 100", path: "options.limit"},
		{name: "negative limit", options: map[string]any{"limit": -1}, want: "must not be negative", path: "options.limit"},
		{name: "negative offset", options: map[string]any{"offset": -3}, want: "must not be negative", path: "options.offset"},
		{name: "sort by relationship", options: map[string]any{"sort": []any{map[string]any{"actors": "ASC"}}}, want: `cannot sort by "actors"`, path: "options.sort"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fixedTranslator(100).read(movie, tt.where, tt.options)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Contains(t, err.Error(), tt.want)

			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, []string{tt.path}, ve.Paths())
		})
	}
}

func TestTranslator_Aggregate(t *testing.T) {
	m := mustModel(t, moviesSDL)

	stmt, err := fixedTranslator(0).aggregate(m.Node("Movie"), map[string]any{"title_STARTS_WITH": "The"})
	require.NoError(t, err)

	assert.Equal(t, lines(
		"MATCH (this:`Movie`)",
		"WHERE this.title STARTS WITH $param0",
		"RETURN count(this) AS count",
	), stmt.Cypher)
	assert.Equal(t, map[string]any{"param0": "The"}, stmt.Params)
}

func TestTranslator_CreateNested(t *testing.T) {
	m := mustModel(t, moviesSDL)

	input := map[string]any{
		"title":    "Heat",
		"released": 1995,
		"actors": map[string]any{
			"create":  []any{map[string]any{"node": map[string]any{"name": "Al Pacino"}}},
			"connect": []any{map[string]any{"where": map[string]any{"name": "Robert De Niro"}}},
		},
	}

	stmt, err := fixedTranslator(0).create(m.Node("Movie"), input)
	require.NoError(t, err)

	assert.Equal(t, lines(
		"CREATE (this:`Movie`)",
		"SET this.id = $param0, this.title = $param1, this.released = $param2, this.createdAt = datetime(), this.updatedAt = datetime()",
		"WITH this",
		"CALL {",
		"\tWITH this",
		"\tCREATE (this0:`Person`)",
		"\tSET this0.name = $param3",
		"\tMERGE (this)<-[:`ACTED_IN`]-(this0)",
		"\tRETURN count(*) AS this0_count",
		"}",
		"WITH this",
		"CALL {",
		"\tWITH this",
		"\tMATCH (this1:`Person`)",
		"\tWHERE this1.name = $param4",
		"\tMERGE (this)<-[:`ACTED_IN`]-(this1)",
		"\tRETURN count(*) AS this1_count",
		"}",
		"RETURN this { .*, __id: elementId(this) } AS this",
	), stmt.Cypher)
	assert.Equal(t, map[string]any{
		"param0": "id-1",
		"param1": "Heat",
		"param2": 1995,
		"param3": "Al Pacino",
		"param4": "Robert De Niro",
	}, stmt.Params)
}

func TestTranslator_CreateRejectsEmptyConnect(t *testing.T) {
	m := mustModel(t, moviesSDL)

	input := map[string]any{
		"title":  "Heat",
		"actors": map[string]any{"connect": []any{map[string]any{"where": map[string]any{}}}},
	}

	_, err := fixedTranslator(0).create(m.Node("Movie"), input)
	assert.ErrorIs(t, err, domain.ErrValidation)

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"input.actors.connect.where"}, ve.Paths())
}

func TestTranslator_Update(t *testing.T) {
	m := mustModel(t, moviesSDL)

	stmt, err := fixedTranslator(0).update(m.Node("Movie"),
		map[string]any{"title": "Heat"},
		map[string]any{"released": 1996},
		map[string]any{"director": []any{map[string]any{"where": map[string]any{"name": "Michael Mann"}}}},
		map[string]any{"actors": []any{map[string]any{"where": map[string]any{"name": "Al Pacino"}}}},
	)
	require.NoError(t, err)

	assert.Equal(t, lines(
		"MATCH (this:`Movie`)",
		"WHERE this.title = $param0",
		"SET this.released = $param1, this.updatedAt = datetime()",
		"WITH this",
		"CALL {",
		"\tWITH this",
		"\tMATCH (this0:`Person`)",
		"\tWHERE this0.name = $param2",
		"\tMERGE (this)<-[:`DIRECTED`]-(this0)",
		"\tRETURN count(*) AS this0_count",
		"}",
		"WITH this",
		"CALL {",
		"\tWITH this",
		"\tMATCH (this)<-[this1_rel:`ACTED_IN`]-(this1:`Person`)",
		"\tWHERE this1.name = $param3",
		"\tDELETE this1_rel",
		"\tRETURN count(*) AS this1_count",
		"}",
		"RETURN this { .*, __id: elementId(this) } AS this",
	), stmt.Cypher)
	assert.Equal(t, map[string]any{
		"param0": "Heat",
		"param1": 1996,
		"param2": "Michael Mann",
		"param3": "Al Pacino",
	}, stmt.Params)
}

func TestTranslator_UpdateWithoutChangesKeepsTimestamps(t *testing.T) {
	m := mustModel(t, moviesSDL)

	stmt, err := fixedTranslator(0).update(m.Node("Movie"), map[string]any{"title": "Heat"}, nil, nil, nil)
	require.NoError(t, err)

	assert.NotContains(t, stmt.Cypher, "SET")
}

func TestTranslator_Delete(t *testing.T) {
	m := mustModel(t, moviesSDL)

	stmt, err := fixedTranslator(0).delete(m.Node("Movie"), map[string]any{"released_LT": 1980})
	require.NoError(t, err)

	assert.Equal(t, lines(
		"MATCH (this:`Movie`)",
		"WHERE this.released < $param0",
		"DETACH DELETE this",
	), stmt.Cypher)
	assert.Equal(t, map[string]any{"param0": 1980}, stmt.Params)
}

func TestTranslator_Related(t *testing.T) {
	m := mustModel(t, moviesSDL)
	actors := m.Node("Movie").Field("actors")

	stmt, err := fixedTranslator(0).related(actors, []string{"4:a:1", "4:a:2"},
		map[string]any{"born_GT": 1950},
		map[string]any{"sort": []any{map[string]any{"name": "ASC"}}, "limit": 5},
	)
	require.NoError(t, err)

	assert.Equal(t, lines(
		"UNWIND $param0 AS parentId",
		"MATCH (parent)",
		"WHERE elementId(parent) = parentId",
		"CALL {",
		"\tWITH parent",
		"\tMATCH (parent)<-[:`ACTED_IN`]-(this:`Person`)",
		"\tWHERE this.born > $param1",
		"\tWITH this",
		"\tORDER BY this.name ASC",
		"\tLIMIT $param2",
		"\tRETURN collect(this { .*, __id: elementId(this) }) AS related",
		"}",
		"RETURN parentId, related",
	), stmt.Cypher)
	assert.Equal(t, map[string]any{
		"param0": []string{"4:a:1", "4:a:2"},
		"param1": 1950,
		"param2": 5,
	}, stmt.Params)
}

func TestTranslator_CustomField(t *testing.T) {
	m := mustModel(t, moviesSDL)
	similar := m.Node("Movie").Field("similar")

	stmt := fixedTranslator(0).custom(similar.Cypher, "4:x:1", map[string]any{"limit": 3}, nil)

	assert.Equal(t, lines(
		"MATCH (this)",
		"WHERE elementId(this) = $this",
		"CALL {",
		"\tWITH this",
		"\tMATCH (this)-[:SIMILAR]->(m:Movie) RETURN m LIMIT $limit",
		"}",
		"RETURN `m` { .*, __id: elementId(`m`) } AS result",
	), stmt.Cypher)
	assert.Equal(t, map[string]any{"limit": 3, "this": "4:x:1", "jwt": map[string]any{}}, stmt.Params)
}

func TestTranslator_CustomRoot(t *testing.T) {
	m := mustModel(t, moviesSDL)

	var count *RootField
	for _, q := range m.Queries {
		if q.Name == "movieCount" {
			count = q
		}
	}
	require.NotNil(t, count)

	claims := map[string]any{"sub": "user-1"}
	stmt := fixedTranslator(0).custom(count.Cypher, "", nil, claims)

	assert.Equal(t, lines(
		"CALL {",
		"\tMATCH (m:Movie) RETURN count(m) AS c",
		"}",
		"RETURN `c` AS result",
	), stmt.Cypher)
	assert.Equal(t, map[string]any{"jwt": claims}, stmt.Params)
}

func TestLabelsAreQuoted(t *testing.T) {
	m := mustModel(t, "type Film @node(labels: [\"Movie\", \"Odd`Label\"]) { title: String }")

	assert.Equal(t, ":`Movie`:`Odd``Label`", labels(m.Node("Film")))
}

func TestTranslator_ProtectedTargetsNeedClaims(t *testing.T) {
	m := mustModel(t, vaultSDL)
	person := m.Node("Person")
	vault := person.Field("vault")

	tests := []struct {
		name string
		run  func(tr *translator) error
	}{
		{
			name: "relationship filter into protected type",
			run: func(tr *translator) error {
				_, err := tr.read(person, map[string]any{"vault_SOME": map[string]any{"code": "x"}}, nil)
				return err
			},
		},
		{
			name: "empty relationship filter still reveals existence",
			run: func(tr *translator) error {
				_, err := tr.aggregate(person, map[string]any{"vault_NONE": map[string]any{}})
				return err
			},
		},
		{
			name: "filter on protected property",
			run: func(tr *translator) error {
				_, err := tr.read(person, map[string]any{"ssn_STARTS_WITH": "123"}, nil)
				return err
			},
		},
		{
			name: "sort on protected property",
			run: func(tr *translator) error {
				_, err := tr.read(person, nil, map[string]any{"sort": []any{map[string]any{"ssn": "ASC"}}})
				return err
			},
		},
		{
			name: "nested create of protected type",
			run: func(tr *translator) error {
				_, err := tr.create(person, map[string]any{
					"name":  "Eve",
					"vault": map[string]any{"create": []any{map[string]any{"node": map[string]any{"code": "planted"}}}},
				})
				return err
			},
		},
		{
			name: "write to protected property",
			run: func(tr *translator) error {
				_, err := tr.create(person, map[string]any{"name": "Eve", "ssn": "000-00-0000"})
				return err
			},
		},
		{
			name: "connect to protected type",
			run: func(tr *translator) error {
				_, err := tr.update(person, nil, nil,
					map[string]any{"vault": []any{map[string]any{"where": map[string]any{"code": "x"}}}}, nil)
				return err
			},
		},
		{
			name: "disconnect from protected type",
			run: func(tr *translator) error {
				_, err := tr.update(person, nil, nil, nil,
					map[string]any{"vault": []any{map[string]any{"where": map[string]any{"code": "x"}}}})
				return err
			},
		},
		{
			name: "update of protected property",
			run: func(tr *translator) error {
				_, err := tr.update(person, nil, map[string]any{"ssn": "1"}, nil, nil)
				return err
			},
		},
		{
			name: "related nodes of protected type",
			run: func(tr *translator) error {
				_, err := tr.related(vault, []string{"4:p:1"}, nil, nil)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := fixedTranslator(0)
			assert.ErrorIs(t, tt.run(tr), domain.ErrUnauthorized, "anonymous")
			assert.NoError(t, tt.run(tr.as(true)), "authenticated")
		})
	}
}

func TestTranslator_UnprotectedFieldsStayOpen(t *testing.T) {
	m := mustModel(t, vaultSDL)

	stmt, err := fixedTranslator(0).create(m.Node("Person"), map[string]any{"name": "Eve"})
	require.NoError(t, err)
	assert.Contains(t, stmt.Cypher, "CREATE (this:`Person`)")
	assert.NotContains(t, stmt.Cypher, "Secret")
}
