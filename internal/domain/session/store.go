// Package session provides chat history and image persistence for user
// sessions. Farmers ask follow-up questions; the pipeline reads the recent
// turns back into its prompts so context carries across requests.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrSessionNotFound is returned when the session id has no row.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoSessionImage is returned when no image is stored for the session.
	ErrNoSessionImage = errors.New("no image stored for session")
)

// Turn role constants (session_turn.role CHECK constraint).
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MaxHistoryTurns is how many turns History returns per session.
const MaxHistoryTurns = 10

// Turn is a single message in a session's history.
type Turn struct {
	Role      string
	Content   string
	ImageRef  string
	CreatedAt time.Time
}

// Store persists sessions, turn history, and the per-session image.
// Safe under concurrent access: SQLite serializes writers and the busy
// timeout absorbs bursts of simultaneous requests on one session.
type Store struct {
	db       *sql.DB
	imageDir string
}

// NewStore creates a Store backed by db. imageDir is where uploaded images
// are copied so they survive the request lifecycle; it is created on demand.
func NewStore(db *sql.DB, imageDir string) *Store {
	return &Store{db: db, imageDir: imageDir}
}

// Create inserts a new session and returns its id.
func (s *Store) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx, "INSERT INTO session (id) VALUES (?)", id); err != nil {
		return "", fmt.Errorf("session: create: %w", err)
	}
	return id, nil
}

// Exists reports whether a session row exists for id.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM session WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("session: exists: %w", err)
	}
	return count > 0, nil
}

// History returns the most recent MaxHistoryTurns turns for the session,
// oldest first. An unknown session id yields an empty slice, not an error —
// a fresh session simply has no history yet.
func (s *Store) History(ctx context.Context, sessionID string) ([]Turn, error) {
	if sessionID == "" {
		return nil, nil
	}

	// rowid is the insertion sequence — it breaks ties between the two rows
	// of one exchange, which share a created_at timestamp.
	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content, COALESCE(image_ref, ''), created_at
		FROM (
			SELECT role, content, image_ref, created_at, rowid AS seq
			FROM session_turn
			WHERE session_id = ?
			ORDER BY seq DESC
			LIMIT ?
		)
		ORDER BY seq ASC`,
		sessionID, MaxHistoryTurns)
	if err != nil {
		return nil, fmt.Errorf("session: history: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var createdAt string
		if scanErr := rows.Scan(&t.Role, &t.Content, &t.ImageRef, &createdAt); scanErr != nil {
			return nil, fmt.Errorf("session: history scan: %w", scanErr)
		}
		t.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// AppendExchange records one query/reply pair for the session.
// Called by the pipeline for every completed turn, including the gate's
// direct replies, so follow-ups always see the full conversation.
func (s *Store) AppendExchange(ctx context.Context, sessionID, query, reply, imageRef string) error {
	if sessionID == "" {
		return nil // anonymous request — nothing to record
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("session: append: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck
	}()

	if err := insertTurn(ctx, tx, sessionID, RoleUser, query, imageRef); err != nil {
		return err
	}
	if err := insertTurn(ctx, tx, sessionID, RoleAssistant, reply, ""); err != nil {
		return err
	}
	return tx.Commit()
}

func insertTurn(ctx context.Context, tx *sql.Tx, sessionID, role, content, imageRef string) error {
	var ref any
	if imageRef != "" {
		ref = imageRef
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO session_turn (id, session_id, role, content, image_ref)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), sessionID, role, content, ref)
	if err != nil {
		return fmt.Errorf("session: insert turn: %w", err)
	}
	return nil
}

// FormatHistory turns the message list into a string the LLM can read.
func FormatHistory(turns []Turn) string {
	if len(turns) == 0 {
		return "No previous conversation."
	}

	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strings.ToUpper(t.Role))
		b.WriteString(": ")
		b.WriteString(t.Content)
	}
	return b.String()
}

// ─── Session images ──────────────────────────────────────────────────────────

// SaveImage copies the uploaded image bytes into persistent storage and
// records the path, replacing (and removing) any previous image for the
// session. Returns the stored path.
func (s *Store) SaveImage(ctx context.Context, sessionID string, data []byte, ext string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("session: save image: empty session id")
	}
	if err := os.MkdirAll(s.imageDir, 0o755); err != nil {
		return "", fmt.Errorf("session: save image: mkdir: %w", err)
	}

	if ext == "" {
		ext = ".jpg"
	}
	path := filepath.Join(s.imageDir, fmt.Sprintf("%s_%d%s", sessionID, time.Now().UnixNano(), ext))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("session: save image: write: %w", err)
	}

	// Remove the previous file best-effort; the row replace is what matters.
	if old, err := s.SessionImage(ctx, sessionID); err == nil && old != "" {
		_ = os.Remove(old) //nolint:errcheck
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_image (session_id, image_path, stored_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(session_id) DO UPDATE SET image_path = excluded.image_path, stored_at = excluded.stored_at`,
		sessionID, path)
	if err != nil {
		_ = os.Remove(path) //nolint:errcheck
		return "", fmt.Errorf("session: save image: record: %w", err)
	}
	return path, nil
}

// SessionImage returns the stored image path for the session.
func (s *Store) SessionImage(ctx context.Context, sessionID string) (string, error) {
	var path string
	err := s.db.QueryRowContext(ctx,
		"SELECT image_path FROM session_image WHERE session_id = ?", sessionID).Scan(&path)
	if err == sql.ErrNoRows {
		return "", ErrNoSessionImage
	}
	if err != nil {
		return "", fmt.Errorf("session: image: %w", err)
	}
	return path, nil
}

// ClearSessionImage removes the stored image (row and file) for the session.
func (s *Store) ClearSessionImage(ctx context.Context, sessionID string) error {
	path, err := s.SessionImage(ctx, sessionID)
	if err == ErrNoSessionImage {
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM session_image WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("session: clear image: %w", err)
	}
	_ = os.Remove(path) //nolint:errcheck
	return nil
}

// ExpireImages deletes stored images older than maxAge (row and file).
// Returns the number of images removed. Run on a schedule from main.
func (s *Store) ExpireImages(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-maxAge).Format("2006-01-02 15:04:05")

	rows, err := s.db.QueryContext(ctx,
		"SELECT session_id, image_path FROM session_image WHERE stored_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("session: expire images: query: %w", err)
	}
	defer rows.Close()

	type expired struct{ sessionID, path string }
	var stale []expired
	for rows.Next() {
		var e expired
		if scanErr := rows.Scan(&e.sessionID, &e.path); scanErr != nil {
			return 0, fmt.Errorf("session: expire images: scan: %w", scanErr)
		}
		stale = append(stale, e)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range stale {
		if _, delErr := s.db.ExecContext(ctx,
			"DELETE FROM session_image WHERE session_id = ?", e.sessionID); delErr != nil {
			continue // keep going; next scheduled run retries
		}
		_ = os.Remove(e.path) //nolint:errcheck
		removed++
	}
	return removed, nil
}
