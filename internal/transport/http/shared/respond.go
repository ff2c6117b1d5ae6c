// Package shared holds the response helpers every handler uses so the wire
// shapes of success and failure stay uniform across endpoints.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "rollbook/pkg/domain-errors"
)

// ErrorResponse is the uniform error envelope. OperationID carries the
// request id so a client report can be matched to server logs.
type ErrorResponse struct {
	Message     string   `json:"message"`
	Errors      []string `json:"errors,omitempty"`
	OperationID string   `json:"operation_id,omitempty"`
}

// WriteJSON writes v with the given status. Encoding failures are swallowed;
// the status line is already on the wire by then.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError translates a domain error into the error envelope. Unknown
// error types collapse to a generic 500 so internals never leak.
func WriteError(w http.ResponseWriter, err error, operationID string) {
	resp := ErrorResponse{
		Message:     "internal error",
		OperationID: operationID,
	}
	status := http.StatusInternalServerError

	var dErr *dErrors.Error
	if errors.As(err, &dErr) {
		status = dErrors.ToHTTPStatus(dErr.Code)
		resp.Message = dErr.Message
		resp.Errors = dErr.Violations
	}
	WriteJSON(w, status, resp)
}
