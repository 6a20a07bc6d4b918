// Package middleware holds the HTTP middleware chain of the API server.
package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError writes the API's error body {"error": message}.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
