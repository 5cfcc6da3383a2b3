package schema

import (
	"time"

	"github.com/graphql-go/graphql"
	gqlast "github.com/graphql-go/graphql/language/ast"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

const localDateTimeLayout = "2006-01-02T15:04:05.999999999"

// newDateTime builds the DateTime scalar. Values travel as RFC 3339 strings
// and reach Cypher as time.Time, which the driver stores as a DateTime.
func newDateTime() *graphql.Scalar {
	return graphql.NewScalar(graphql.ScalarConfig{
		Name:        scalarDateTime,
		Description: "An RFC 3339 date-time, e.g. 2024-05-01T12:30:00Z.",
		Serialize:   serializeDateTime,
		ParseValue:  parseDateTime,
		ParseLiteral: func(v gqlast.Value) any {
			if s, ok := v.(*gqlast.StringValue); ok {
				return parseDateTime(s.Value)
			}
			return nil
		},
	})
}

func serializeDateTime(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.Format(time.RFC3339Nano)
	case dbtype.LocalDateTime:
		return time.Time(t).Format(localDateTimeLayout)
	case string:
		return t
	}
	return nil
}

func parseDateTime(v any) any {
	switch t := v.(type) {
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return nil
		}
		return parsed
	case time.Time:
		return t
	}
	return nil
}
