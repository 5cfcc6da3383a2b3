package middleware

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Errors []errorEntry `json:"errors"`
}

type errorEntry struct {
	Message    string            `json:"message"`
	Extensions map[string]string `json:"extensions"`
}

// writeError rejects a request before it reaches the GraphQL executor,
// using the same response shape as resolver errors so clients handle both
// the same way.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{
		Errors: []errorEntry{{Message: message, Extensions: map[string]string{"code": code}}},
	})
}
