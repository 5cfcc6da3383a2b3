package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

const moviesSDL = `
enum Genre {
  ACTION
  DRAMA
}

type Movie {
  id: ID! @id
  title: String!
  released: Int
  genres: [Genre!]
  createdAt: DateTime @timestamp(operations: [CREATE])
  updatedAt: DateTime @timestamp
  actors: [Person!]! @relationship(type: "ACTED_IN", direction: IN)
  director: Person @relationship(type: "DIRECTED", direction: IN)
  similar(limit: Int = 3): [Movie!]! @cypher(statement: "MATCH (this)-[:SIMILAR]->(m:Movie) RETURN m LIMIT $limit", columnName: "m")
}

type Person {
  name: String!
  born: Int
  movies: [Movie!]! @relationship(type: "ACTED_IN", direction: OUT)
}

type Secret @authentication {
  code: String!
}

type Query {
  topMovie: Movie @cypher(statement: "MATCH (m:Movie) RETURN m ORDER BY m.released DESC LIMIT 1", columnName: "m")
  movieCount: Int! @cypher(statement: "MATCH (m:Movie) RETURN count(m) AS c", columnName: "c")
}

type Mutation {
  wipe: Int! @cypher(statement: "MATCH (n) DETACH DELETE n RETURN count(*) AS c", columnName: "c")
}
`

// vaultSDL protects Secret as a whole and Person.ssn as a single field.
const vaultSDL = `
type Person {
  name: String!
  ssn: String @authentication
  vault: [Secret!]! @relationship(type: "KEEPS", direction: OUT)
  secrets: [Secret!]! @cypher(statement: "MATCH (this)-[:KEEPS]->(s:Secret) RETURN s")
}

type Secret @authentication {
  code: String!
}
`

// mustModel loads and augments sdl, returning the model used by the
// translator.
func mustModel(t *testing.T, sdl string) *Model {
	t.Helper()

	parsed, err := gqlparser.LoadSchema(preludeSource, &ast.Source{Name: "test.graphql", Input: sdl})
	require.NoError(t, asCompileError(err))

	m, err := buildModel(parsed)
	require.NoError(t, err)
	augment(m)
	return m
}

func fixedTranslator(maxLimit int) *translator {
	tr := newTranslator(maxLimit)
	tr.newID = func() string { return "id-1" }
	return tr
}
