// Package common holds helpers shared by the ops API handlers.
package common

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSONResponse writes data as JSON with the given status code
func WriteJSONResponse(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "status", statusCode, "error", err)
	}
}

// WriteErrorResponse writes a standardized error response
func WriteErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	WriteJSONResponse(w, ErrorResponse{Error: message}, statusCode)
}
