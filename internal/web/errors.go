package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/carlhabs/data-quality-analyzer/internal/logging"
)

// ErrorResponse is the JSON body of every error answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError logs the technical error server-side and answers the client
// with a JSON error body. The request-scoped logger carries the request_id.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
	)
	respondJSON(w, statusCode, ErrorResponse{Error: err.Error()})
}

// respondJSON writes v as the JSON response body.
func respondJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
