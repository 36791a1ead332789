// Package httputil centralizes JSON response writing so every handler returns
// the same envelope.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "healthchain/pkg/domain-errors"
)

// ErrorResponse is the JSON error envelope. Rule names the violated rule so
// callers can present a precise message.
type ErrorResponse struct {
	Error string `json:"error"`
	Rule  string `json:"rule,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, dErrors.ToHTTPStatus(code), ErrorResponse{
		Error: string(code),
		Rule:  dErrors.RuleOf(err),
	})
}
