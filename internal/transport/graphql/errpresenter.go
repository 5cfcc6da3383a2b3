package graphql

import (
	"context"
	"errors"
	"log/slog"

	"github.com/graphql-go/graphql/gqlerrors"

	"github.com/heartmarshall/neographql/internal/domain"
	"github.com/heartmarshall/neographql/pkg/ctxutil"
)

// Error codes reported in extensions.code.
const (
	CodeValidation       = "VALIDATION"
	CodeUnauthenticated  = "UNAUTHENTICATED"
	CodeAlreadyExists    = "ALREADY_EXISTS"
	CodeConflict         = "CONFLICT"
	CodeInvalidOperation = "GRAPHQL_VALIDATION_FAILED"
	CodeInternal         = "INTERNAL"
)

// ErrorPresenter maps domain errors to GraphQL error codes.
type ErrorPresenter struct {
	log *slog.Logger
}

// NewErrorPresenter creates an ErrorPresenter that logs unexpected errors
// to log.
func NewErrorPresenter(log *slog.Logger) *ErrorPresenter {
	if log == nil {
		log = slog.Default()
	}
	return &ErrorPresenter{log: log}
}

// Present formats err for the response. Errors raised while parsing or
// validating the operation carry no cause and keep their message.
// Unexpected resolver errors are logged and replaced by "internal error".
func (p *ErrorPresenter) Present(ctx context.Context, err error) gqlerrors.FormattedError {
	if err == nil {
		return gqlerrors.FormattedError{Message: "internal error", Extensions: code(CodeInternal)}
	}

	formatted := gqlerrors.FormatError(err)
	cause := causeOf(err)
	if cause == nil {
		formatted.Extensions = code(CodeInvalidOperation)
		return formatted
	}
	formatted.Message = cause.Error()

	switch {
	case errors.Is(cause, domain.ErrValidation):
		formatted.Extensions = code(CodeValidation)
		var ve *domain.ValidationError
		if errors.As(cause, &ve) {
			formatted.Extensions["fields"] = ve.Errors
		}

	case errors.Is(cause, domain.ErrUnauthorized):
		formatted.Extensions = code(CodeUnauthenticated)

	case errors.Is(cause, domain.ErrAlreadyExists):
		formatted.Extensions = code(CodeAlreadyExists)

	case errors.Is(cause, domain.ErrConflict):
		formatted.Extensions = code(CodeConflict)

	default:
		p.log.ErrorContext(ctx, "unexpected GraphQL error",
			slog.String("error", cause.Error()),
			slog.String("request_id", ctxutil.RequestIDFromCtx(ctx)),
		)
		formatted.Message = "internal error"
		formatted.Extensions = code(CodeInternal)
	}
	return formatted
}

// causeOf returns the resolver error behind err, or nil when err was raised
// by the executor itself.
func causeOf(err error) error {
	var located *gqlerrors.Error
	if errors.As(err, &located) {
		return located.OriginalError
	}
	return err
}

func code(c string) map[string]any {
	return map[string]any{"code": c}
}
