// Handler helper functions and shared constants.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agrigpt/agrigpt/internal/api/ctxkeys"
)

const (
	headerContentType = "Content-Type"
	mimeJSON          = "application/json"

	errInvalidBody           = "invalid request body"
	errMissingSessionContext = "missing session context"
	errFailedToEncodeJSON    = "failed to encode response"
)

// getSessionID retrieves session_id from context. Lookup goes through
// ctxkeys so injection and retrieval share one code path.
func getSessionID(ctx context.Context) (string, error) {
	sessionID, ok := ctxkeys.SessionIDFrom(ctx)
	if !ok {
		return "", errors.New("session_id not found in context")
	}
	return sessionID, nil
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set(headerContentType, mimeJSON)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		http.Error(w, errFailedToEncodeJSON, http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set(headerContentType, mimeJSON)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, errFailedToEncodeJSON, http.StatusInternalServerError)
	}
}
