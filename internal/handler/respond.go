package handler

import (
	"encoding/json"
	"net/http"

	"github.com/synclaro/website-api/internal/logger"
)

func writeJSON(w http.ResponseWriter, log *logger.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", logger.Error(err))
	}
}

func writeError(w http.ResponseWriter, log *logger.Logger, status int, message string) {
	writeJSON(w, log, status, map[string]any{"error": message})
}

const maxBodyBytes = 64 << 10

// decodeJSON reads a size-limited JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer func() { _ = r.Body.Close() }()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}
