package scheme

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/agrigpt/agrigpt/internal/infra/eventbus"
	"github.com/agrigpt/agrigpt/internal/infra/llm"
)

const (
	embedMaxRetries = 3
	embedBaseDelay  = 100 * time.Millisecond
)

// Embedder consumes scheme.ingested events, calls the LLM provider's Embed
// endpoint for each scheme, and stores the vector in scheme_embedding.
type Embedder struct {
	db       *sql.DB
	provider llm.Provider
	store    *Store
}

// NewEmbedder creates an Embedder backed by the given DB and LLM provider.
func NewEmbedder(db *sql.DB, provider llm.Provider) *Embedder {
	return &Embedder{db: db, provider: provider, store: NewStore(db, nil)}
}

// Start subscribes to TopicSchemeIngested and embeds each announced scheme.
// Runs in the calling goroutine — launch with: go emb.Start(ctx, bus)
// Stops when ctx is cancelled.
func (e *Embedder) Start(ctx context.Context, bus eventbus.EventBus) {
	ch := bus.Subscribe(TopicSchemeIngested)
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-ch:
			payload, ok := evt.Payload.(IngestedEventPayload)
			if !ok {
				continue
			}
			// Best-effort: a failed scheme stays searchable by keyword.
			for _, id := range payload.SchemeIDs {
				_ = e.EmbedScheme(ctx, id)
			}
		}
	}
}

// EmbedScheme embeds one scheme's canonical text and stores the vector,
// marking the row 'embedded'. After all retries fail the row is marked
// 'failed' and the embed error is returned.
func (e *Embedder) EmbedScheme(ctx context.Context, schemeID string) error {
	sc, err := e.store.Get(ctx, schemeID)
	if err != nil {
		return fmt.Errorf("embedder: %w", err)
	}

	vec, err := e.embedWithRetry(ctx, sc.EmbeddingText())
	if err != nil {
		e.markFailed(ctx, schemeID)
		return fmt.Errorf("embedder: embed %q: %w", sc.Name, err)
	}

	_, err = e.db.ExecContext(ctx, `
		UPDATE scheme_embedding SET status = ?, dims = ?, vector = ?, updated_at = datetime('now')
		WHERE scheme_id = ?`,
		string(EmbeddingStatusEmbedded), len(vec), encodeVector(vec), schemeID)
	if err != nil {
		e.markFailed(ctx, schemeID)
		return fmt.Errorf("embedder: store vector for %q: %w", sc.Name, err)
	}
	return nil
}

// embedWithRetry calls Provider.Embed with exponential backoff.
// Attempts: embedMaxRetries (100ms, 200ms delays between attempts).
// llm.ErrEmbedUnsupported is returned immediately — retrying cannot help.
func (e *Embedder) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	delay := embedBaseDelay
	for attempt := 0; attempt < embedMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
		resp, err := e.provider.Embed(ctx, llm.EmbedRequest{Texts: []string{text}})
		if err == nil && len(resp.Embeddings) == 1 {
			return resp.Embeddings[0], nil
		}
		if err == llm.ErrEmbedUnsupported {
			return nil, err
		}
		if err == nil {
			err = fmt.Errorf("expected 1 embedding, got %d", len(resp.Embeddings))
		}
		lastErr = err
	}
	return nil, fmt.Errorf("all %d retries failed: %w", embedMaxRetries, lastErr)
}

// markFailed sets status='failed'. Errors are ignored to avoid masking the
// original embed error.
func (e *Embedder) markFailed(ctx context.Context, schemeID string) {
	_, _ = e.db.ExecContext(ctx, //nolint:errcheck
		"UPDATE scheme_embedding SET status = ?, updated_at = datetime('now') WHERE scheme_id = ?",
		string(EmbeddingStatusFailed), schemeID)
}

// encodeVector serialises a float32 slice as little-endian bytes for BLOB storage.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector deserialises a little-endian BLOB back to []float32.
func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("decodeVector: %d bytes is not a multiple of 4", len(buf))
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec, nil
}
