// Route registration and go-chi router setup.
// Public routes (/health, POST /sessions) vs session-token routes (/api/v1/*).
package api

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/agrigpt/agrigpt/internal/api/handlers"
	apmiddleware "github.com/agrigpt/agrigpt/internal/api/middleware"
	"github.com/agrigpt/agrigpt/internal/domain/advisor"
	"github.com/agrigpt/agrigpt/internal/domain/pipeline"
	"github.com/agrigpt/agrigpt/internal/domain/scheme"
	"github.com/agrigpt/agrigpt/internal/domain/session"
	"github.com/agrigpt/agrigpt/internal/infra/config"
	"github.com/agrigpt/agrigpt/internal/infra/eventbus"
	"github.com/agrigpt/agrigpt/internal/infra/llm"
)

// NewRouter creates and configures a chi router with all routes.
// The advisory pipeline, scheme knowledge base, and session store are wired
// here; the background embedder starts alongside the router and consumes
// scheme.ingested events for the process lifetime.
func NewRouter(db *sql.DB, cfg config.Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (runs on all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// ===== SHARED SERVICES =====

	bus := eventbus.New()
	sessions := session.NewStore(db, cfg.ImageDir)

	groq := llm.NewGroqProvider(cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.GroqChatModel, cfg.GroqVisionModel)
	ollama := llm.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaChatModel, cfg.OllamaEmbed)
	llmRouter := llm.NewRouter(map[string]llm.Provider{
		"groq":   groq,
		"ollama": ollama,
	}, cfg.LLMProvider)

	provider, err := llmRouter.Route(context.Background())
	if err != nil {
		// Unknown LLM_PROVIDER value; groq is the documented default.
		provider = groq
	}

	schemeStore := scheme.NewStore(db, bus)
	// Embeddings always go through Ollama — Groq exposes no embedding API.
	embedder := scheme.NewEmbedder(db, ollama)
	go embedder.Start(context.Background(), bus)
	searcher := scheme.NewSearcher(db, ollama)

	if cfg.SchemeSeedPath != "" {
		seedSchemes(context.Background(), schemeStore, cfg.SchemeSeedPath)
	}

	registry := advisor.NewDefaultRegistry(provider, searcher)
	advisoryPipeline := pipeline.New(provider, registry, sessions)

	// ===== PUBLIC ROUTES (no token required) =====

	// Health check — unauthenticated, used by load balancers and health probes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	// Session creation — public; the returned token authorizes /api/v1/*.
	sessionHandler := handlers.NewSessionHandler(sessions)
	r.Post("/sessions", sessionHandler.Create)

	// ===== PROTECTED ROUTES (session token required) =====

	askHandler := handlers.NewAskHandler(advisoryPipeline, sessions)
	historyHandler := handlers.NewHistoryHandler(sessions)
	schemeHandler := handlers.NewSchemeHandler(schemeStore, cfg.AdminKeyHash)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apmiddleware.SessionMiddleware)

		r.Post("/ask", askHandler.Ask)           // POST /api/v1/ask
		r.Get("/history", historyHandler.Get)    // GET  /api/v1/history
		r.Post("/schemes", schemeHandler.Ingest) // POST /api/v1/schemes (admin key)
	})

	return r
}

// seedSchemes loads the YAML seed file and ingests it. Best-effort: a broken
// seed must not stop the server, farmers can still ask non-subsidy questions.
func seedSchemes(ctx context.Context, store *scheme.Store, path string) {
	schemes, err := scheme.LoadSeed(path)
	if err != nil {
		return
	}
	_, _ = store.Ingest(ctx, schemes) //nolint:errcheck
}
