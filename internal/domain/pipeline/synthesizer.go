package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/agrigpt/agrigpt/internal/infra/llm"
)

// noContentMessage is returned when aggregation left nothing to present.
const noContentMessage = "No content available to format."

// Synthesizer turns the ordered payload into one farmer-facing message. The
// model is used strictly for presentation: the expert content is read-only
// and its primary-supporting-impact order is preserved. When the model call
// fails the ordered blocks are returned verbatim instead.
type Synthesizer struct {
	llm llm.Provider
}

// NewSynthesizer creates a Synthesizer backed by the given LLM provider.
func NewSynthesizer(provider llm.Provider) *Synthesizer {
	return &Synthesizer{llm: provider}
}

// Synthesize formats the payload into the final reply. Never errors.
func (s *Synthesizer) Synthesize(ctx context.Context, p AggregatedPayload) string {
	if len(p.Results) == 0 {
		return noContentMessage
	}

	combined := renderBlocks(p.Results)

	resp, err := s.llm.ChatCompletion(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: synthSystemPrompt},
			{Role: "user", Content: synthUserPrompt(p.UserQuery, combined)},
		},
		Temperature: 0,
		MaxTokens:   1200,
	})
	if err != nil {
		return combined
	}

	formatted := strings.TrimSpace(resp.Content)
	if formatted == "" {
		return combined
	}
	return formatted
}

// renderBlocks joins results as "[ROLE | Provider]" headed blocks in payload
// order. This is both the model input and the verbatim fallback output.
func renderBlocks(results []ProviderResult) string {
	blocks := make([]string, 0, len(results))
	for _, res := range results {
		blocks = append(blocks, fmt.Sprintf("[%s | %s]\n%s",
			strings.ToUpper(string(res.Role)), res.Provider, strings.TrimSpace(res.Content)))
	}
	return strings.Join(blocks, "\n\n")
}

const synthSystemPrompt = "You are AgriGPT's final output layer. " +
	"You are NOT an advisor and you are NOT allowed to make decisions. " +
	"Your ONLY responsibility is presentation.\n\n" +
	"CRITICAL CONTRACT: the content below was written by domain experts and is already correct. " +
	"Treat it as READ-ONLY.\n\n" +
	"You MUST NOT: add new advice, remove guidance, rewrite meaning, summarize expert logic, " +
	"combine steps, correct the content, infer missing information, or modify numbers, dosages, " +
	"timings, or instructions.\n\n" +
	"You MAY ONLY: fix grammar and spelling, improve sentence readability with meaning unchanged, " +
	"split long sentences, remove exact duplicate sentences, and improve visual structure.\n\n" +
	"ORDERING: the content order is already correct (PRIMARY, then SUPPORTING, then IMPACT). " +
	"Preserve it exactly.\n\n" +
	"OUTPUT FORMAT (STRICT):\n" +
	"- One title (3-6 words)\n" +
	"- Bullet points using ONLY the • character, one idea per bullet\n" +
	"- Simple, calm, farmer-friendly language\n" +
	"- One-line summary at the end\n" +
	"No markdown, no emojis, no extra headings, no special characters except •."

func synthUserPrompt(query, combined string) string {
	return fmt.Sprintf(
		"USER QUESTION (context only, do not answer it yourself):\n%s\n\nEXPERT CONTENT (do not change meaning):\n%s",
		query, combined)
}
