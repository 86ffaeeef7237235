// HTTP handler for session creation.
// POST /sessions — creates a conversation session and mints its Bearer token.
package handlers

import (
	"net/http"

	"github.com/agrigpt/agrigpt/internal/domain/session"
	"github.com/agrigpt/agrigpt/pkg/auth"
)

// SessionHandler handles session lifecycle HTTP requests.
type SessionHandler struct {
	sessions *session.Store
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessions *session.Store) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// sessionResponse is the JSON response body for a created session.
type sessionResponse struct {
	SessionID string `json:"sessionId"`
	Token     string `json:"token"`
}

// Create handles POST /sessions. It is the only unauthenticated write
// endpoint: the returned token authorizes every later /api/v1 call.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	sessionID, err := h.sessions.Create(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	token, err := auth.GenerateSessionToken(sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue session token")
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: sessionID, Token: token})
}
