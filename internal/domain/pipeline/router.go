package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/agrigpt/agrigpt/internal/domain/advisor"
	"github.com/agrigpt/agrigpt/internal/infra/llm"
)

// Scoring thresholds. A specialist becomes primary from 75; a weak match
// still routes from 50; below that the fallback provider takes over.
const (
	primaryScoreThreshold     = 75
	secondaryScoreThreshold   = 50
	weakPrimaryScoreThreshold = 50
)

// nonRoutable IDs are dropped during normalization. The synthesis stage is
// not a provider, and the image provider is reachable only through the image
// override, never through text scoring.
var nonRoutable = map[advisor.ID]bool{
	"FormatterAgent":      true,
	advisor.ImageAnalysis: true,
}

// Router selects and ranks providers for one request by asking the model to
// score every routable provider, then applying deterministic plan rules.
type Router struct {
	llm      llm.Provider
	registry *advisor.Registry
}

// NewRouter creates a Router over the given provider registry.
func NewRouter(provider llm.Provider, registry *advisor.Registry) *Router {
	return &Router{llm: provider, registry: registry}
}

// Route produces the routing plan for req. It never returns an error and the
// plan is never empty: any scoring failure collapses to the fallback
// provider as sole primary.
//
// Image presence is a hard precedence rule: the plan is exactly the
// image-capable provider as primary with score 100, regardless of text.
func (r *Router) Route(ctx context.Context, req Request) []RoutedEntry {
	if req.ImageRef != "" {
		return []RoutedEntry{{Provider: advisor.ImageAnalysis, Role: RolePrimary, Score: 100}}
	}

	candidates := r.score(ctx, req.Text)
	return buildPlan(candidates)
}

// fallbackPlan is the plan of last resort: the generic provider, primary,
// score zero.
func fallbackPlan() []RoutedEntry {
	return []RoutedEntry{{Provider: advisor.Fallback, Role: RolePrimary, Score: 0}}
}

// score asks the model to rate every provider against the query and returns
// normalized candidates sorted by score descending. Any failure yields an
// empty list, never an error.
func (r *Router) score(ctx context.Context, query string) []Candidate {
	resp, err := r.llm.ChatCompletion(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: routerSystemPrompt},
			{Role: "user", Content: routerUserPrompt(r.registry.Descriptions(), query)},
		},
		Temperature: 0,
		MaxTokens:   400,
	})
	if err != nil {
		return nil
	}
	return r.normalize(parseScores(resp.Content))
}

const routerSystemPrompt = "You are an agricultural AI intent router.\n\n" +
	"TASK: score how relevant each available agent is to the farmer's query.\n\n" +
	"STRICT RULES:\n" +
	"- Score EVERY agent from 0 to 100 (100 = perfect match)\n" +
	"- NEVER favor CropAgent when a specialist fits; CropAgent is the generalist of last resort\n" +
	"- Output a VALID JSON ARRAY ONLY, no prose\n\n" +
	"OUTPUT FORMAT:\n" +
	"[\n" +
	"  { \"agent\": \"PestAgent\", \"score\": 92, \"reason\": \"symptom description\" },\n" +
	"  { \"agent\": \"IrrigationAgent\", \"score\": 55, \"reason\": \"watering mentioned\" }\n" +
	"]"

func routerUserPrompt(descriptions, query string) string {
	return fmt.Sprintf("AVAILABLE AGENTS:\n%s\nFARMER QUERY:\n%s", descriptions, query)
}

// rawScore is one element of the model's scoring array. Score is typed any
// so malformed values degrade to 0 instead of failing the whole parse.
type rawScore struct {
	Agent string `json:"agent"`
	Score any    `json:"score"`
}

// parseScores extracts the first bracketed array substring from the raw
// model reply and parses it. Non-JSON, non-array, or missing brackets all
// yield nil: malformed router output means zero candidates, not an error.
func parseScores(raw string) []rawScore {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil
	}

	var parsed []rawScore
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return nil
	}
	return parsed
}

// normalize drops unknown and non-routable providers, deduplicates keeping
// the first occurrence, clamps scores to 0-100, and sorts by score
// descending. The sort is stable so the model's original order breaks ties.
func (r *Router) normalize(raw []rawScore) []Candidate {
	seen := make(map[advisor.ID]bool, len(raw))
	candidates := make([]Candidate, 0, len(raw))
	for _, rs := range raw {
		id := advisor.ID(strings.TrimSpace(rs.Agent))
		if id == "" || nonRoutable[id] || !r.registry.Has(id) || seen[id] {
			continue
		}
		seen[id] = true
		candidates = append(candidates, Candidate{Provider: id, Score: coerceScore(rs.Score)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// coerceScore converts the model's score value to a clamped int. Anything
// unparseable counts as 0.
func coerceScore(v any) int {
	var score int
	switch s := v.(type) {
	case float64:
		score = int(s)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0
		}
		score = n
	default:
		return 0
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// buildPlan applies the primary and secondary selection rules to sorted
// candidates. The result always holds the plan invariants: 1-3 entries,
// unique providers, exactly one primary.
func buildPlan(candidates []Candidate) []RoutedEntry {
	if len(candidates) == 0 {
		return fallbackPlan()
	}

	best := candidates[0]
	primaryOK := best.Score >= primaryScoreThreshold ||
		best.Provider == advisor.Fallback ||
		best.Score >= weakPrimaryScoreThreshold
	if !primaryOK {
		return fallbackPlan()
	}

	plan := []RoutedEntry{{Provider: best.Provider, Role: RolePrimary, Score: best.Score}}
	for _, c := range candidates[1:] {
		if len(plan) >= MaxPlanEntries {
			break
		}
		if c.Score >= secondaryScoreThreshold {
			plan = append(plan, RoutedEntry{Provider: c.Provider, Role: RoleSupporting, Score: c.Score})
		}
	}
	return plan
}
