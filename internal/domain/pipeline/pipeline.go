package pipeline

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/agrigpt/agrigpt/internal/domain/advisor"
	"github.com/agrigpt/agrigpt/internal/domain/session"
	"github.com/agrigpt/agrigpt/internal/infra/llm"
)

// queryTooLongMessage rejects oversized text before any external call.
const queryTooLongMessage = "Your question is too long. Please shorten it."

// SessionLog is the slice of the session store the pipeline consumes:
// history for prompts, exchange recording for continuity. A nil SessionLog
// disables both.
type SessionLog interface {
	History(ctx context.Context, sessionID string) ([]session.Turn, error)
	AppendExchange(ctx context.Context, sessionID, query, reply, imageRef string) error
}

// Pipeline runs one farmer request through gate, router, invoker,
// aggregator and synthesizer. It is safe for concurrent use.
type Pipeline struct {
	gate     *Gate
	router   *Router
	invoker  *Invoker
	synth    *Synthesizer
	sessions SessionLog
}

// New wires a Pipeline from one LLM provider and a provider registry.
// sessions may be nil for stateless operation.
func New(provider llm.Provider, registry *advisor.Registry, sessions SessionLog) *Pipeline {
	return &Pipeline{
		gate:     NewGate(provider),
		router:   NewRouter(provider, registry),
		invoker:  NewInvoker(registry),
		synth:    NewSynthesizer(provider),
		sessions: sessions,
	}
}

// Answer runs the full pipeline and always returns user-facing text. It
// never returns an error: every stage fails open to a deterministic
// fallback, and session recording failures are swallowed, not surfaced.
func (p *Pipeline) Answer(ctx context.Context, req Request) string {
	req.Text = strings.TrimSpace(req.Text)

	// Character count, not bytes: a Hindi query is ~3 bytes per rune.
	if utf8.RuneCountInString(req.Text) > MaxQueryChars {
		return queryTooLongMessage
	}

	history := p.history(ctx, req.SessionID)

	reply, pass := p.gate.Evaluate(ctx, req, history)
	if !pass {
		p.record(ctx, req, reply)
		return reply
	}

	plan := p.router.Route(ctx, req)
	results := p.invoker.Invoke(ctx, plan, req, history)
	payload := Aggregate(results, req.Text)
	reply = p.synth.Synthesize(ctx, payload)

	p.record(ctx, req, reply)
	return reply
}

// history fetches and formats prior turns; empty on any failure.
func (p *Pipeline) history(ctx context.Context, sessionID string) string {
	if p.sessions == nil || sessionID == "" {
		return ""
	}
	turns, err := p.sessions.History(ctx, sessionID)
	if err != nil || len(turns) == 0 {
		return ""
	}
	return session.FormatHistory(turns)
}

// record appends the exchange for session continuity. Best-effort: a
// storage failure must not cost the farmer their reply.
func (p *Pipeline) record(ctx context.Context, req Request, reply string) {
	if p.sessions == nil || req.SessionID == "" {
		return
	}
	query := req.Text
	if query == "" && req.ImageRef != "" {
		query = "Image-based crop issue"
	}
	_ = p.sessions.AppendExchange(ctx, req.SessionID, query, reply, req.ImageRef) //nolint:errcheck
}
