// Package graphql serves a compiled schema over HTTP and turns resolver
// errors into GraphQL error responses with stable extension codes.
package graphql

import (
	"context"
	"log/slog"
	"net/http"

	gql "github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/handler"
)

// Handler executes GraphQL requests against one schema. It accepts GET
// and POST in the usual JSON, form and application/graphql encodings.
type Handler struct {
	schema    *gql.Schema
	presenter *ErrorPresenter
}

// NewHandler creates a Handler for schema.
func NewHandler(schema gql.Schema, log *slog.Logger) *Handler {
	return &Handler{schema: &schema, presenter: NewErrorPresenter(log)}
}

// ServeHTTP builds a request-scoped handler so errors are presented with
// the request context (request id, logger).
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	handler.New(&handler.Config{
		Schema:       h.schema,
		Pretty:       true,
		RootObjectFn: rootObject,
		FormatErrorFn: func(err error) gqlerrors.FormattedError {
			return h.presenter.Present(ctx, err)
		},
	}).ContextHandler(ctx, w, r)
}

// rootObject exposes the incoming request to resolvers as {req}.
func rootObject(_ context.Context, r *http.Request) map[string]any {
	return map[string]any{"req": r}
}
