// Package response writes the API's JSON bodies.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorBody is the shape of every error response. Errors holds either a
// single message or a list of messages.
type ErrorBody struct {
	Errors interface{} `json:"errors"`
}

func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Errors: message})
}

func Errors(w http.ResponseWriter, status int, messages []string) {
	JSON(w, status, ErrorBody{Errors: messages})
}
