package advisor

import (
	"github.com/agrigpt/agrigpt/internal/domain/scheme"
	"github.com/agrigpt/agrigpt/internal/infra/llm"
)

// NewDefaultRegistry wires the six standard providers against one LLM
// provider. searcher may be nil when no scheme knowledge base is configured.
func NewDefaultRegistry(provider llm.Provider, searcher *scheme.Searcher) *Registry {
	r := NewRegistry()
	r.Register(Crop, NewCropAdvisor(provider),
		"General crop advice, fertilizers, soil prep, growth stages, and friendly best practices.")
	r.Register(Pest, NewPestAdvisor(provider),
		"Pest/disease identification, leaf spots, insect damage, and treatment suggestions.")
	r.Register(Irrigation, NewIrrigationAdvisor(provider),
		"Water scheduling, drip systems, rainfall management, and moisture troubleshooting.")
	r.Register(Subsidy, NewSubsidyAdvisor(provider, searcher),
		"Government schemes, subsidies, loans, grants, and financial assistance programs.")
	r.Register(Yield, NewYieldAdvisor(provider),
		"Yield improvement, harvest timing, productivity tweaks, and high-output strategies.")
	r.Register(ImageAnalysis, NewImageAnalysisAdvisor(llm.NewVisionClient(provider)),
		"Visual observation of uploaded crop photos: visible damage, discoloration, insects.")
	return r
}
