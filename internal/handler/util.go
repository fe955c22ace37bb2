package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/capitalize-ai/fitness-coach/internal/coach"
	"github.com/capitalize-ai/fitness-coach/internal/middleware"
)

const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// decodeJSON reads a bounded JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// requestContext builds the caller identity from the authenticated request.
func requestContext(r *http.Request) coach.RequestContext {
	ctx := r.Context()
	return coach.RequestContext{
		UserID:    middleware.GetUserID(ctx),
		Email:     middleware.GetEmail(ctx),
		AuthToken: middleware.GetToken(ctx),
	}
}

// queryLimit parses ?limit=, falling back to def outside 1..max.
func queryLimit(r *http.Request, def, max int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= max {
			return parsed
		}
	}
	return def
}
