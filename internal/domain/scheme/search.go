package scheme

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/agrigpt/agrigpt/internal/infra/llm"
)

const (
	// DefaultTopK is how many schemes the subsidy advisor receives per query.
	DefaultTopK = 2
	maxTopK     = 10
)

// SearchResult is one ranked scheme match.
type SearchResult struct {
	Scheme     Scheme
	Similarity float32 // cosine similarity; 0 for keyword matches
	Method     string  // "vector" or "keyword"
}

// Searcher ranks schemes against a farmer query. Vector search when the
// provider can embed, keyword matching otherwise.
type Searcher struct {
	db       *sql.DB
	provider llm.Provider
	store    *Store
}

// NewSearcher creates a Searcher backed by the given DB and LLM provider.
func NewSearcher(db *sql.DB, provider llm.Provider) *Searcher {
	return &Searcher{db: db, provider: provider, store: NewStore(db, nil)}
}

// Search embeds the query and ranks embedded schemes by cosine similarity.
// Graceful degradation: when embedding fails (or the provider does not
// support it), falls back to keyword matching without error.
func (s *Searcher) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	k = resolveTopK(k)

	queryVec := s.embedQuery(ctx, query)
	if queryVec != nil {
		results, err := s.vectorSearch(ctx, queryVec, k)
		if err == nil && len(results) > 0 {
			return results, nil
		}
	}
	return s.keywordSearch(ctx, query, k)
}

// embedQuery returns nil on any embed failure (caller falls back to keyword).
func (s *Searcher) embedQuery(ctx context.Context, query string) []float32 {
	resp, err := s.provider.Embed(ctx, llm.EmbedRequest{Texts: []string{query}})
	if err != nil || len(resp.Embeddings) == 0 {
		return nil
	}
	return resp.Embeddings[0]
}

// vectorSearch loads all embedded vectors, computes cosine similarity
// in-memory, and returns the top-k schemes. The scheme table is small enough
// (tens of rows) that a full scan beats an index.
func (s *Searcher) vectorSearch(ctx context.Context, queryVec []float32, k int) ([]SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT scheme_id, vector FROM scheme_embedding
		WHERE status = ? AND vector IS NOT NULL`, string(EmbeddingStatusEmbedded))
	if err != nil {
		return nil, fmt.Errorf("scheme: vector search: %w", err)
	}
	defer rows.Close()

	type scored struct {
		id  string
		sim float32
	}
	var all []scored
	for rows.Next() {
		var id string
		var blob []byte
		if scanErr := rows.Scan(&id, &blob); scanErr != nil {
			return nil, fmt.Errorf("scheme: vector search scan: %w", scanErr)
		}
		vec, decErr := decodeVector(blob)
		if decErr != nil {
			continue // skip malformed vectors
		}
		all = append(all, scored{id: id, sim: cosineSimilarity(queryVec, vec)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].sim > all[j].sim })

	results := make([]SearchResult, 0, k)
	for i := 0; i < len(all) && i < k; i++ {
		sc, getErr := s.store.Get(ctx, all[i].id)
		if getErr != nil {
			continue
		}
		results = append(results, SearchResult{Scheme: *sc, Similarity: all[i].sim, Method: "vector"})
	}
	return results, nil
}

// keywordSearch matches query words against name, eligibility and benefits
// with LIKE, ranking by how many words hit.
func (s *Searcher) keywordSearch(ctx context.Context, query string, k int) ([]SearchResult, error) {
	schemes, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("scheme: keyword search: %w", err)
	}

	words := queryWords(query)
	type scored struct {
		sc   Scheme
		hits int
	}
	var matched []scored
	for _, sc := range schemes {
		haystack := strings.ToLower(sc.Name + " " + sc.Eligibility + " " + sc.Benefits + " " + sc.Notes)
		hits := 0
		for _, w := range words {
			if strings.Contains(haystack, w) {
				hits++
			}
		}
		if hits > 0 {
			matched = append(matched, scored{sc: sc, hits: hits})
		}
	}

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].hits > matched[j].hits })

	results := make([]SearchResult, 0, k)
	for i := 0; i < len(matched) && i < k; i++ {
		results = append(results, SearchResult{Scheme: matched[i].sc, Method: "keyword"})
	}
	return results, nil
}

// queryWords lowercases and splits the query, dropping words under 3 chars
// so "is", "a", "to" do not match everything.
func queryWords(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) >= 3 {
			words = append(words, f)
		}
	}
	return words
}

// cosineSimilarity computes cosine similarity between two float32 vectors.
// Returns 0 if either vector has zero magnitude or lengths differ.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return float32(dot / denom)
}

func resolveTopK(k int) int {
	if k <= 0 {
		return DefaultTopK
	}
	if k > maxTopK {
		return maxTopK
	}
	return k
}
