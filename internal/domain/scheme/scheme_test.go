package scheme

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/agrigpt/agrigpt/internal/infra/eventbus"
	"github.com/agrigpt/agrigpt/internal/infra/llm"
	"github.com/agrigpt/agrigpt/internal/infra/sqlite"
)

// embedStub implements llm.Provider with a controllable Embed.
type embedStub struct {
	vectors   map[string][]float32 // keyed by input text; missing key → embedErr
	embedErr  error
	embedCall int
}

func (s *embedStub) ChatCompletion(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	return &llm.ChatResponse{Content: "ok"}, nil
}

func (s *embedStub) VisionCompletion(ctx context.Context, req llm.VisionRequest) (*llm.ChatResponse, error) {
	return nil, llm.ErrVisionUnsupported
}

func (s *embedStub) Embed(ctx context.Context, req llm.EmbedRequest) (*llm.EmbedResponse, error) {
	s.embedCall++
	if s.embedErr != nil {
		return nil, s.embedErr
	}
	out := make([][]float32, 0, len(req.Texts))
	for _, t := range req.Texts {
		vec, ok := s.vectors[t]
		if !ok {
			return nil, errors.New("no vector for input")
		}
		out = append(out, vec)
	}
	return &llm.EmbedResponse{Embeddings: out}, nil
}

func (s *embedStub) ModelInfo() llm.ModelMeta         { return llm.ModelMeta{ID: "stub", Provider: "stub"} }
func (s *embedStub) HealthCheck(context.Context) error { return nil }

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "scheme.sqlite"))
	if err != nil {
		t.Fatalf("sqlite.NewDB error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp error = %v", err)
	}
	return db
}

func sampleSchemes() []Scheme {
	return []Scheme{
		{
			Name:             "PM-KISAN",
			Level:            LevelCentral,
			Eligibility:      "All landholding farmer families",
			Benefits:         "Rs 6000 per year income support in three installments",
			ApplicationSteps: "Register at the PM-KISAN portal or a Common Service Centre",
			Documents:        "Aadhaar, land records, bank passbook",
		},
		{
			Name:        "Drip Irrigation Subsidy",
			Level:       LevelState,
			Eligibility: "Farmers with horticulture crops on up to 5 hectares",
			Benefits:    "Up to 55% subsidy on drip irrigation equipment",
			Notes:       "Micro irrigation priority districts get an extra 10%",
		},
	}
}

func TestStore_Ingest_PublishesEvent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	bus := eventbus.New()
	ch := bus.Subscribe(TopicSchemeIngested)

	store := NewStore(db, bus)
	ids, err := store.Ingest(context.Background(), sampleSchemes())
	if err != nil {
		t.Fatalf("Ingest error = %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("Ingest returned %d ids; want 2", len(ids))
	}

	select {
	case evt := <-ch:
		payload, ok := evt.Payload.(IngestedEventPayload)
		if !ok {
			t.Fatalf("event payload type = %T", evt.Payload)
		}
		if len(payload.SchemeIDs) != 2 {
			t.Errorf("event carried %d ids; want 2", len(payload.SchemeIDs))
		}
	default:
		t.Fatal("no scheme.ingested event published")
	}
}

func TestStore_Ingest_UpsertsByName(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	store := NewStore(db, nil)
	ctx := context.Background()

	first, err := store.Ingest(ctx, sampleSchemes()[:1])
	if err != nil {
		t.Fatalf("Ingest error = %v", err)
	}

	updated := sampleSchemes()[0]
	updated.Benefits = "Rs 8000 per year income support"
	second, err := store.Ingest(ctx, []Scheme{updated})
	if err != nil {
		t.Fatalf("second Ingest error = %v", err)
	}
	if first[0] != second[0] {
		t.Errorf("re-ingest allocated new id %s; want existing %s", second[0], first[0])
	}

	got, err := store.Get(ctx, first[0])
	if err != nil {
		t.Fatalf("Get error = %v", err)
	}
	if got.Benefits != updated.Benefits {
		t.Errorf("Benefits = %q; want updated value", got.Benefits)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List error = %v", err)
	}
	if len(all) != 1 {
		t.Errorf("List returned %d schemes after re-ingest; want 1", len(all))
	}
}

func TestStore_Ingest_RejectsInvalid(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	store := NewStore(db, nil)

	_, err := store.Ingest(context.Background(), []Scheme{{Name: "  "}})
	if err == nil {
		t.Fatal("Ingest accepted a scheme without a name")
	}
}

func TestEmbedder_EmbedScheme_StoresVector(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	store := NewStore(db, nil)
	ctx := context.Background()

	ids, err := store.Ingest(ctx, sampleSchemes()[:1])
	if err != nil {
		t.Fatalf("Ingest error = %v", err)
	}

	sc, _ := store.Get(ctx, ids[0])
	stub := &embedStub{vectors: map[string][]float32{sc.EmbeddingText(): {0.1, 0.2, 0.3}}}
	emb := NewEmbedder(db, stub)

	if err := emb.EmbedScheme(ctx, ids[0]); err != nil {
		t.Fatalf("EmbedScheme error = %v", err)
	}

	var status string
	var dims int
	if err := db.QueryRow(
		"SELECT status, dims FROM scheme_embedding WHERE scheme_id = ?", ids[0]).Scan(&status, &dims); err != nil {
		t.Fatalf("query embedding row: %v", err)
	}
	if status != string(EmbeddingStatusEmbedded) || dims != 3 {
		t.Errorf("embedding row = (%s, %d); want (embedded, 3)", status, dims)
	}
}

func TestEmbedder_EmbedScheme_MarksFailedAfterRetries(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	store := NewStore(db, nil)
	ctx := context.Background()

	ids, err := store.Ingest(ctx, sampleSchemes()[:1])
	if err != nil {
		t.Fatalf("Ingest error = %v", err)
	}

	stub := &embedStub{embedErr: errors.New("backend down")}
	emb := NewEmbedder(db, stub)

	if err := emb.EmbedScheme(ctx, ids[0]); err == nil {
		t.Fatal("EmbedScheme succeeded with a failing provider")
	}
	if stub.embedCall != embedMaxRetries {
		t.Errorf("Embed called %d times; want %d", stub.embedCall, embedMaxRetries)
	}

	var status string
	if err := db.QueryRow(
		"SELECT status FROM scheme_embedding WHERE scheme_id = ?", ids[0]).Scan(&status); err != nil {
		t.Fatalf("query embedding row: %v", err)
	}
	if status != string(EmbeddingStatusFailed) {
		t.Errorf("status = %s; want failed", status)
	}
}

func TestEmbedder_EmbedScheme_NoRetryWhenUnsupported(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	store := NewStore(db, nil)
	ctx := context.Background()

	ids, err := store.Ingest(ctx, sampleSchemes()[:1])
	if err != nil {
		t.Fatalf("Ingest error = %v", err)
	}

	stub := &embedStub{embedErr: llm.ErrEmbedUnsupported}
	emb := NewEmbedder(db, stub)

	if err := emb.EmbedScheme(ctx, ids[0]); !errors.Is(err, llm.ErrEmbedUnsupported) {
		t.Fatalf("EmbedScheme error = %v; want ErrEmbedUnsupported", err)
	}
	if stub.embedCall != 1 {
		t.Errorf("Embed called %d times for unsupported provider; want 1", stub.embedCall)
	}
}

func TestSearcher_VectorSearch_RanksBySimilarity(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	store := NewStore(db, nil)
	ctx := context.Background()

	ids, err := store.Ingest(ctx, sampleSchemes())
	if err != nil {
		t.Fatalf("Ingest error = %v", err)
	}

	pmKisan, _ := store.Get(ctx, ids[0])
	drip, _ := store.Get(ctx, ids[1])

	const query = "subsidy for drip irrigation equipment"
	stub := &embedStub{vectors: map[string][]float32{
		pmKisan.EmbeddingText(): {1, 0, 0},
		drip.EmbeddingText():    {0, 1, 0},
		query:                   {0, 0.9, 0.1},
	}}

	emb := NewEmbedder(db, stub)
	for _, id := range ids {
		if err := emb.EmbedScheme(ctx, id); err != nil {
			t.Fatalf("EmbedScheme error = %v", err)
		}
	}

	results, err := NewSearcher(db, stub).Search(ctx, query, 2)
	if err != nil {
		t.Fatalf("Search error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Search returned %d results; want 2", len(results))
	}
	if results[0].Scheme.Name != "Drip Irrigation Subsidy" {
		t.Errorf("top result = %q; want the drip irrigation scheme", results[0].Scheme.Name)
	}
	if results[0].Method != "vector" {
		t.Errorf("top result method = %q; want vector", results[0].Method)
	}
	if results[0].Similarity <= results[1].Similarity {
		t.Error("results not ordered by similarity")
	}
}

func TestSearcher_FallsBackToKeyword(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	store := NewStore(db, nil)
	ctx := context.Background()

	if _, err := store.Ingest(ctx, sampleSchemes()); err != nil {
		t.Fatalf("Ingest error = %v", err)
	}

	// Provider with no embedding support: search degrades to keyword LIKE.
	stub := &embedStub{embedErr: llm.ErrEmbedUnsupported}

	results, err := NewSearcher(db, stub).Search(ctx, "drip irrigation subsidy", 2)
	if err != nil {
		t.Fatalf("Search error = %v", err)
	}
	if len(results) == 0 {
		t.Fatal("keyword fallback returned no results")
	}
	if results[0].Scheme.Name != "Drip Irrigation Subsidy" {
		t.Errorf("top keyword result = %q; want the drip irrigation scheme", results[0].Scheme.Name)
	}
	if results[0].Method != "keyword" {
		t.Errorf("method = %q; want keyword", results[0].Method)
	}
}

func TestSearcher_KeywordNoMatch_Empty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	store := NewStore(db, nil)
	ctx := context.Background()

	if _, err := store.Ingest(ctx, sampleSchemes()); err != nil {
		t.Fatalf("Ingest error = %v", err)
	}

	stub := &embedStub{embedErr: llm.ErrEmbedUnsupported}
	results, err := NewSearcher(db, stub).Search(ctx, "quantum blockchain", 2)
	if err != nil {
		t.Fatalf("Search error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Search returned %d results for an unrelated query; want 0", len(results))
	}
}

func TestVectorRoundTrip(t *testing.T) {
	t.Parallel()

	in := []float32{0.5, -1.25, 3.75, 0}
	out, err := decodeVector(encodeVector(in))
	if err != nil {
		t.Fatalf("decodeVector error = %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("decoded %d floats; want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("vector[%d] = %v; want %v", i, out[i], in[i])
		}
	}

	if _, err := decodeVector([]byte{1, 2, 3}); err == nil {
		t.Error("decodeVector accepted a malformed blob")
	}
}

func TestParseSeed(t *testing.T) {
	t.Parallel()

	data := []byte(`
schemes:
  - name: PM-KISAN
    level: central
    eligibility: All landholding farmer families
    benefits: Rs 6000 per year income support
    application_steps: Register at the PM-KISAN portal
    documents: Aadhaar, land records
  - name: Soil Health Card
    eligibility: All farmers
    benefits: Free soil testing every two years
`)
	schemes, err := ParseSeed(data)
	if err != nil {
		t.Fatalf("ParseSeed error = %v", err)
	}
	if len(schemes) != 2 {
		t.Fatalf("ParseSeed returned %d schemes; want 2", len(schemes))
	}
	if schemes[0].Name != "PM-KISAN" || schemes[0].Level != LevelCentral {
		t.Errorf("first scheme = %+v", schemes[0])
	}
}

func TestParseSeed_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		data string
	}{
		{"empty", "schemes: []"},
		{"missing eligibility", "schemes:\n  - name: X\n    benefits: Y"},
		{"bad level", "schemes:\n  - name: X\n    level: municipal\n    eligibility: E\n    benefits: B"},
		{"duplicate name", "schemes:\n  - name: X\n    eligibility: E\n    benefits: B\n  - name: X\n    eligibility: E\n    benefits: B"},
		{"not yaml", "{{{"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ParseSeed([]byte(tc.data)); err == nil {
				t.Errorf("ParseSeed accepted %s", tc.name)
			}
		})
	}
}
