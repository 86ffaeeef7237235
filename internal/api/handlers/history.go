// HTTP handler for conversation history.
// GET /api/v1/history — returns the recent turns for the authenticated session.
package handlers

import (
	"net/http"

	"github.com/agrigpt/agrigpt/internal/domain/session"
)

// HistoryHandler handles history HTTP requests.
type HistoryHandler struct {
	sessions *session.Store
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(sessions *session.Store) *HistoryHandler {
	return &HistoryHandler{sessions: sessions}
}

// turnResponse is one history entry in the JSON response.
type turnResponse struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	ImageRef  string `json:"imageRef,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// historyResponse is the JSON response body for GET /api/v1/history.
type historyResponse struct {
	SessionID string         `json:"sessionId"`
	Turns     []turnResponse `json:"turns"`
}

// Get handles GET /api/v1/history. It returns the most recent turns oldest
// first — the same window the pipeline reads back into its prompts.
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := getSessionID(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, errMissingSessionContext)
		return
	}

	turns, err := h.sessions.History(ctx, sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	resp := historyResponse{SessionID: sessionID, Turns: make([]turnResponse, 0, len(turns))}
	for _, t := range turns {
		resp.Turns = append(resp.Turns, turnResponse{
			Role:      t.Role,
			Content:   t.Content,
			ImageRef:  t.ImageRef,
			CreatedAt: t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
