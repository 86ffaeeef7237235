package scheme

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/agrigpt/agrigpt/internal/infra/eventbus"
)

// TopicSchemeIngested is the event bus topic published after a successful ingest.
const TopicSchemeIngested = "scheme.ingested"

// IngestedEventPayload carries identifiers for the downstream embedder.
type IngestedEventPayload struct {
	SchemeIDs []string
}

// Store persists scheme records and their embedding state.
type Store struct {
	db  *sql.DB
	bus eventbus.EventBus
}

// NewStore creates a Store backed by the given DB and event bus.
func NewStore(db *sql.DB, bus eventbus.EventBus) *Store {
	return &Store{db: db, bus: bus}
}

// Ingest upserts scheme records, resets their embedding rows to pending, and
// publishes a scheme.ingested event for the embedder.
//
// Idempotency: a scheme with an existing name is updated in place and
// re-queued for embedding.
func (s *Store) Ingest(ctx context.Context, schemes []Scheme) ([]string, error) {
	if len(schemes) == 0 {
		return nil, nil
	}
	for _, sc := range schemes {
		if err := sc.Validate(); err != nil {
			return nil, fmt.Errorf("scheme: ingest: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("scheme: ingest: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ids := make([]string, 0, len(schemes))
	for _, sc := range schemes {
		id, upsertErr := upsertScheme(ctx, tx, sc)
		if upsertErr != nil {
			return nil, fmt.Errorf("scheme: ingest %q: %w", sc.Name, upsertErr)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("scheme: ingest: commit: %w", err)
	}

	if s.bus != nil {
		s.bus.Publish(TopicSchemeIngested, IngestedEventPayload{SchemeIDs: ids})
	}
	return ids, nil
}

// upsertScheme inserts or updates one scheme row by name and resets its
// embedding row to pending. Returns the scheme id.
func upsertScheme(ctx context.Context, tx *sql.Tx, sc Scheme) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, "SELECT id FROM scheme WHERE name = ?", sc.Name).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		id = uuid.NewString()
		if _, insErr := tx.ExecContext(ctx, `
			INSERT INTO scheme (id, name, level, eligibility, benefits, application_steps, documents, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, sc.Name, string(sc.levelOrDefault()), sc.Eligibility, sc.Benefits,
			sc.ApplicationSteps, sc.Documents, sc.Notes); insErr != nil {
			return "", insErr
		}
	case err != nil:
		return "", err
	default:
		if _, updErr := tx.ExecContext(ctx, `
			UPDATE scheme SET level = ?, eligibility = ?, benefits = ?, application_steps = ?, documents = ?, notes = ?
			WHERE id = ?`,
			string(sc.levelOrDefault()), sc.Eligibility, sc.Benefits,
			sc.ApplicationSteps, sc.Documents, sc.Notes, id); updErr != nil {
			return "", updErr
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO scheme_embedding (scheme_id, status, dims, vector, updated_at)
		VALUES (?, ?, 0, NULL, datetime('now'))
		ON CONFLICT(scheme_id) DO UPDATE SET status = excluded.status, dims = 0, vector = NULL, updated_at = excluded.updated_at`,
		id, string(EmbeddingStatusPending))
	if err != nil {
		return "", err
	}
	return id, nil
}

// Get returns one scheme by id.
func (s *Store) Get(ctx context.Context, id string) (*Scheme, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, level, eligibility, benefits, application_steps, documents, notes
		FROM scheme WHERE id = ?`, id)
	sc, err := scanScheme(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("scheme: get %s: not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("scheme: get %s: %w", id, err)
	}
	return sc, nil
}

// List returns all schemes ordered by name.
func (s *Store) List(ctx context.Context) ([]Scheme, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, level, eligibility, benefits, application_steps, documents, notes
		FROM scheme ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("scheme: list: %w", err)
	}
	defer rows.Close()

	var out []Scheme
	for rows.Next() {
		sc, scanErr := scanScheme(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scheme: list: %w", scanErr)
		}
		out = append(out, *sc)
	}
	return out, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for scanScheme.
type scanner interface {
	Scan(dest ...any) error
}

func scanScheme(sc scanner) (*Scheme, error) {
	var out Scheme
	var level string
	if err := sc.Scan(&out.ID, &out.Name, &level, &out.Eligibility, &out.Benefits,
		&out.ApplicationSteps, &out.Documents, &out.Notes); err != nil {
		return nil, err
	}
	out.Level = Level(level)
	return &out, nil
}
