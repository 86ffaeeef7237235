package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/agrigpt/agrigpt/internal/domain/scheme"
	"github.com/agrigpt/agrigpt/internal/infra/llm"
)

// SubsidyAdvisor answers government scheme and subsidy questions, grounded on
// the scheme knowledge base when it has relevant entries.
type SubsidyAdvisor struct {
	llm      llm.Provider
	searcher *scheme.Searcher
}

// NewSubsidyAdvisor creates a SubsidyAdvisor. searcher may be nil; the
// advisor then answers from model knowledge alone.
func NewSubsidyAdvisor(provider llm.Provider, searcher *scheme.Searcher) *SubsidyAdvisor {
	return &SubsidyAdvisor{llm: provider, searcher: searcher}
}

func (a *SubsidyAdvisor) Handle(ctx context.Context, q Query) string {
	if strings.TrimSpace(q.Text) == "" {
		return "Please ask about a specific subsidy or government scheme — for example:\n" +
			"- 'Drip irrigation subsidy in Tamil Nadu'\n" +
			"- 'PM-Kisan eligibility'\n" +
			"- 'Kisan Credit Card loan details'\n" +
			"- 'Fertilizer subsidy amount'"
	}

	retrieved := a.retrieve(ctx, q.Text)

	system := "You are AgriGPT SubsidyAgent, an expert assistant on agricultural subsidies and government schemes. " +
		"If Retrieved Official Information is provided and matches the question, use it as your primary source. " +
		"If the retrieved context does not answer the question fully, rely on general knowledge but be careful with numbers. " +
		"Cover: scheme name, central or state government, eligibility, financial benefits, application process, and important notes. " +
		"Style: simple language, bullet points, short sentences."

	user := withHistory(q)
	if retrieved != "" {
		user = fmt.Sprintf("%s\n\nRetrieved Official Information:\n%s", user, retrieved)
	}

	return complete(ctx, a.llm, system, user,
		"Subsidy details could not be retrieved at this time. Please try again shortly.")
}

// retrieve renders the top scheme matches for the prompt context. Empty on
// any failure; the advisor degrades to model knowledge.
func (a *SubsidyAdvisor) retrieve(ctx context.Context, query string) string {
	if a.searcher == nil {
		return ""
	}
	results, err := a.searcher.Search(ctx, query, scheme.DefaultTopK)
	if err != nil || len(results) == 0 {
		return ""
	}

	var b strings.Builder
	for i, r := range results {
		sc := r.Scheme
		fmt.Fprintf(&b, "Scheme %d: %s\n", i+1, sc.Name)
		fmt.Fprintf(&b, "- Level: %s\n", sc.Level)
		fmt.Fprintf(&b, "- Eligibility: %s\n", sc.Eligibility)
		fmt.Fprintf(&b, "- Benefits: %s\n", sc.Benefits)
		if sc.ApplicationSteps != "" {
			fmt.Fprintf(&b, "- Application: %s\n", sc.ApplicationSteps)
		}
		if sc.Documents != "" {
			fmt.Fprintf(&b, "- Documents: %s\n", sc.Documents)
		}
		if sc.Notes != "" {
			fmt.Fprintf(&b, "- Notes: %s\n", sc.Notes)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
