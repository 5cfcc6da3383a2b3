package schema

import "github.com/vektah/gqlparser/v2/ast"

// Directive names understood by the compiler.
const (
	directiveRelationship   = "relationship"
	directiveID             = "id"
	directiveTimestamp      = "timestamp"
	directiveCypher         = "cypher"
	directiveNode           = "node"
	directiveAuthentication = "authentication"
)

const scalarDateTime = "DateTime"

// preludeSDL declares the directives and scalars that type definitions may
// use. It is loaded in front of every document and is never printed.
const preludeSDL = `
enum RelationshipDirection {
  IN
  OUT
}

enum TimestampOperation {
  CREATE
  UPDATE
}

scalar DateTime

directive @relationship(type: String!, direction: RelationshipDirection!) on FIELD_DEFINITION
directive @id on FIELD_DEFINITION
directive @timestamp(operations: [TimestampOperation!]! = [CREATE, UPDATE]) on FIELD_DEFINITION
directive @cypher(statement: String!, columnName: String) on FIELD_DEFINITION
directive @node(labels: [String!]) on OBJECT
directive @authentication on OBJECT | FIELD_DEFINITION
`

var preludeSource = &ast.Source{Name: "neographql-prelude.graphql", Input: preludeSDL, BuiltIn: true}

