package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by the translator, the Neo4j adapter and the
// GraphQL error presenter.
var (
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrConflict      = errors.New("conflict")
)

// ArgumentError is one rejected argument of a generated field. Path is the
// dotted location inside the field's arguments, e.g. "options.limit" or
// "where.actors_SOME.name_IN".
type ArgumentError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError lists the arguments an operation rejected before any
// Cypher was sent.
type ValidationError struct {
	Errors []ArgumentError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("invalid argument %s: %s", e.Errors[0].Path, e.Errors[0].Message)
	}
	return fmt.Sprintf("%d invalid arguments", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Paths returns the rejected argument paths in order.
func (e *ValidationError) Paths() []string {
	out := make([]string, len(e.Errors))
	for i, ae := range e.Errors {
		out[i] = ae.Path
	}
	return out
}

// InvalidArgument rejects the argument at the path built from segments.
// Empty segments are skipped.
func InvalidArgument(message string, segments ...string) *ValidationError {
	return &ValidationError{Errors: []ArgumentError{{Path: ArgPath(segments...), Message: message}}}
}

// ArgPath joins argument path segments with dots, skipping empty ones.
func ArgPath(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ".")
}
