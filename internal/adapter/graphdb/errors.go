package graphdb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/heartmarshall/neographql/internal/domain"
)

// mapError converts driver errors to domain errors.
// context.DeadlineExceeded and context.Canceled are NOT mapped; they pass through.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("graphdb: %s: %w", op, err)
	}

	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		switch {
		case neoErr.Code == "Neo.ClientError.Schema.ConstraintValidationFailed":
			return fmt.Errorf("graphdb: %s: %s: %w", op, neoErr.Msg, domain.ErrAlreadyExists)
		case strings.HasPrefix(neoErr.Code, "Neo.TransientError.Transaction."):
			return fmt.Errorf("graphdb: %s: %s: %w", op, neoErr.Msg, domain.ErrConflict)
		}
	}

	return fmt.Errorf("graphdb: %s: %w", op, err)
}
