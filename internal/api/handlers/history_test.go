package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHistoryHandler_EmptySession_ReturnsEmptyTurns(t *testing.T) {
	t.Parallel()

	db := mustOpenDBWithMigrations(t)
	store := newTestSessionStore(t, db)
	sessionID := mustCreateSession(t, store)
	handler := NewHistoryHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	req = req.WithContext(contextWithSessionID(req.Context(), sessionID))

	rr := httptest.NewRecorder()
	handler.Get(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d — body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp historyResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.SessionID != sessionID {
		t.Errorf("sessionId = %q; want %q", resp.SessionID, sessionID)
	}
	if len(resp.Turns) != 0 {
		t.Errorf("turns = %d; want 0", len(resp.Turns))
	}
}

func TestHistoryHandler_ReturnsTurnsOldestFirst(t *testing.T) {
	t.Parallel()

	db := mustOpenDBWithMigrations(t)
	store := newTestSessionStore(t, db)
	sessionID := mustCreateSession(t, store)
	handler := NewHistoryHandler(store)

	ctx := context.Background()
	if err := store.AppendExchange(ctx, sessionID, "first question", "first answer", ""); err != nil {
		t.Fatalf("AppendExchange error = %v", err)
	}
	if err := store.AppendExchange(ctx, sessionID, "second question", "second answer", ""); err != nil {
		t.Fatalf("AppendExchange error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	req = req.WithContext(contextWithSessionID(req.Context(), sessionID))

	rr := httptest.NewRecorder()
	handler.Get(rr, req)

	var resp historyResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Turns) != 4 {
		t.Fatalf("turns = %d; want 4", len(resp.Turns))
	}

	wantRoles := []string{"user", "assistant", "user", "assistant"}
	wantContent := []string{"first question", "first answer", "second question", "second answer"}
	for i, turn := range resp.Turns {
		if turn.Role != wantRoles[i] {
			t.Errorf("turn[%d].role = %q; want %q", i, turn.Role, wantRoles[i])
		}
		if turn.Content != wantContent[i] {
			t.Errorf("turn[%d].content = %q; want %q", i, turn.Content, wantContent[i])
		}
	}
}

func TestHistoryHandler_MissingSessionContext_Returns401(t *testing.T) {
	t.Parallel()

	db := mustOpenDBWithMigrations(t)
	handler := NewHistoryHandler(newTestSessionStore(t, db))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	rr := httptest.NewRecorder()
	handler.Get(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d; want %d", rr.Code, http.StatusUnauthorized)
	}
}
