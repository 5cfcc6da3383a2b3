package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// CompileError lists every problem found while compiling type definitions.
// Each entry carries a source position when one is known.
type CompileError struct {
	Errors gqlerror.List
}

func (e *CompileError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("compile schema: %d error(s): %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap exposes the first diagnostic so callers logging the cause get the
// most relevant message.
func (e *CompileError) Unwrap() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[0]
}

// diagnostics accumulates semantic errors while walking the schema.
type diagnostics struct {
	list gqlerror.List
}

func (d *diagnostics) addf(pos *ast.Position, format string, args ...any) {
	if pos == nil || pos.Src == nil {
		d.list = append(d.list, gqlerror.Errorf(format, args...))
		return
	}
	d.list = append(d.list, gqlerror.ErrorPosf(pos, format, args...))
}

func (d *diagnostics) err() error {
	if len(d.list) == 0 {
		return nil
	}
	return &CompileError{Errors: d.list}
}

// asCompileError converts a gqlparser failure into a CompileError.
func asCompileError(err error) error {
	if err == nil {
		return nil
	}

	// A typed nil must not reach errors.As, which would call its Unwrap.
	if single, ok := err.(*gqlerror.Error); ok {
		if single == nil {
			return nil
		}
		return &CompileError{Errors: gqlerror.List{single}}
	}
	var list gqlerror.List
	if errors.As(err, &list) {
		return &CompileError{Errors: list}
	}
	return &CompileError{Errors: gqlerror.List{{Message: err.Error()}}}
}
