package middleware

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON envelope of every failed API response.
type ErrorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// WriteError renders an error envelope with the given status.
func WriteError(w http.ResponseWriter, status int, message, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorBody{Error: message, Kind: kind})
}
