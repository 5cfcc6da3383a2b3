package graphdb

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/heartmarshall/neographql/internal/domain"
)

func TestMapError_Nil(t *testing.T) {
	t.Parallel()

	if got := mapError(nil, modeRead); got != nil {
		t.Errorf("mapError(nil) = %v, want nil", got)
	}
}

func TestMapError_ConstraintViolation(t *testing.T) {
	t.Parallel()

	neoErr := &neo4j.Neo4jError{
		Code: "Neo.ClientError.Schema.ConstraintValidationFailed",
		Msg:  "Node(0) already exists with label `Movie` and property `title` = 'Heat'",
	}
	got := mapError(neoErr, modeWrite)

	if !errors.Is(got, domain.ErrAlreadyExists) {
		t.Errorf("mapError(ConstraintValidationFailed) does not wrap domain.ErrAlreadyExists: %v", got)
	}
}

func TestMapError_TransientTransaction(t *testing.T) {
	t.Parallel()

	neoErr := &neo4j.Neo4jError{
		Code: "Neo.TransientError.Transaction.DeadlockDetected",
		Msg:  "deadlock",
	}
	got := mapError(fmt.Errorf("run: %w", neoErr), modeWrite)

	if !errors.Is(got, domain.ErrConflict) {
		t.Errorf("mapError(DeadlockDetected) does not wrap domain.ErrConflict: %v", got)
	}
}

func TestMapError_OtherNeo4jError(t *testing.T) {
	t.Parallel()

	neoErr := &neo4j.Neo4jError{Code: "Neo.ClientError.Statement.SyntaxError", Msg: "bad syntax"}
	got := mapError(neoErr, modeRead)

	if errors.Is(got, domain.ErrAlreadyExists) || errors.Is(got, domain.ErrConflict) {
		t.Errorf("syntax error mapped to a domain sentinel: %v", got)
	}
	var target *neo4j.Neo4jError
	if !errors.As(got, &target) {
		t.Errorf("mapError lost the original Neo4jError: %v", got)
	}
}

func TestMapError_ContextErrorsPassThrough(t *testing.T) {
	t.Parallel()

	for _, ctxErr := range []error{context.Canceled, context.DeadlineExceeded} {
		got := mapError(ctxErr, modeRead)
		if !errors.Is(got, ctxErr) {
			t.Errorf("mapError(%v) = %v, want wrapped context error", ctxErr, got)
		}
	}
}

func TestCounters_Add(t *testing.T) {
	t.Parallel()

	c := Counters{NodesCreated: 1, PropertiesSet: 2}
	c.Add(Counters{NodesCreated: 2, NodesDeleted: 1, RelationshipsCreated: 3, RelationshipsDeleted: 4, PropertiesSet: 5})

	want := Counters{NodesCreated: 3, NodesDeleted: 1, RelationshipsCreated: 3, RelationshipsDeleted: 4, PropertiesSet: 7}
	if c != want {
		t.Errorf("Counters.Add = %+v, want %+v", c, want)
	}
}
