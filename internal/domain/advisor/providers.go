package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/agrigpt/agrigpt/internal/infra/llm"
)

// complete issues one chat completion and returns fallback on any failure.
// Providers never propagate errors; the pipeline needs content either way.
func complete(ctx context.Context, provider llm.Provider, system, user, fallback string) string {
	resp, err := provider.ChatCompletion(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.4,
		MaxTokens:   900,
	})
	if err != nil {
		return fallback
	}
	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return fallback
	}
	return content
}

// withHistory prepends the formatted conversation so follow-up questions
// ("how do I water them?") keep their referent.
func withHistory(q Query) string {
	if q.History == "" {
		return q.Text
	}
	return fmt.Sprintf("Previous conversation:\n%s\n\nCurrent question: %s", q.History, q.Text)
}

// CropAdvisor covers general agronomy: soil prep, fertilizer, growth stages.
// It is also the fallback provider when routing cannot place a query.
type CropAdvisor struct {
	llm llm.Provider
}

func NewCropAdvisor(provider llm.Provider) *CropAdvisor {
	return &CropAdvisor{llm: provider}
}

func (a *CropAdvisor) Handle(ctx context.Context, q Query) string {
	if strings.TrimSpace(q.Text) == "" {
		return "Please tell me which crop you are growing and what you would like help with."
	}
	system := "You are AgriGPT CropAgent, a general crop advisory assistant. " +
		"Give practical guidance on soil preparation, sowing, fertilizer use, growth stages and good practices. " +
		"Use simple language and short sentences. " +
		"Do not prescribe chemical pesticides and do not give definitive disease diagnoses. " +
		"If the question is outside agriculture, say you can only help with farming topics."
	return complete(ctx, a.llm, system, withHistory(q),
		"Crop advice could not be generated at this time. Please try again shortly.")
}

// PestAdvisor analyses farmer-described symptoms conservatively. Image input
// is handled by the image analysis provider, not here.
type PestAdvisor struct {
	llm llm.Provider
}

func NewPestAdvisor(provider llm.Provider) *PestAdvisor {
	return &PestAdvisor{llm: provider}
}

func (a *PestAdvisor) Handle(ctx context.Context, q Query) string {
	if strings.TrimSpace(q.Text) == "" {
		return "Please describe the visible symptoms such as yellowing, spots, holes, insects, wilting, or abnormal leaf color."
	}
	system := "You are AgriGPT PestAgent. " +
		"Analyze the farmer-described crop symptoms conservatively. " +
		"Do not give a definitive diagnosis and do not prescribe chemicals. " +
		"Do not override irrigation, nutrition, or crop management advice. " +
		"First summarize the main symptoms described by the farmer. " +
		"Then list two or three possible causes using conditional language only. " +
		"Suggest safe first-response actions such as monitoring, hygiene, mechanical removal, or low-risk organic practices. " +
		"Clearly state when expert field inspection or laboratory testing is required. " +
		"If symptoms may be caused by water stress or nutrient imbalance, say so explicitly."
	return complete(ctx, a.llm, system, withHistory(q),
		"Pest analysis could not be generated at this time.")
}

// IrrigationAdvisor covers water scheduling, drip systems and moisture issues.
type IrrigationAdvisor struct {
	llm llm.Provider
}

func NewIrrigationAdvisor(provider llm.Provider) *IrrigationAdvisor {
	return &IrrigationAdvisor{llm: provider}
}

func (a *IrrigationAdvisor) Handle(ctx context.Context, q Query) string {
	if strings.TrimSpace(q.Text) == "" {
		return "Please tell me the crop, soil type and your current watering routine so I can advise on irrigation."
	}
	system := "You are AgriGPT IrrigationAgent, a water management assistant. " +
		"Advise on watering schedules, drip and sprinkler systems, rainfall management and moisture troubleshooting. " +
		"Give frequency and quantity guidance as ranges, never absolutes, since soil and climate vary. " +
		"Recommend checking soil moisture before watering. " +
		"Use simple language and short sentences."
	return complete(ctx, a.llm, system, withHistory(q),
		"Irrigation advice could not be generated at this time.")
}

// YieldAdvisor covers productivity: harvest timing, yield improvement.
type YieldAdvisor struct {
	llm llm.Provider
}

func NewYieldAdvisor(provider llm.Provider) *YieldAdvisor {
	return &YieldAdvisor{llm: provider}
}

func (a *YieldAdvisor) Handle(ctx context.Context, q Query) string {
	if strings.TrimSpace(q.Text) == "" {
		return "Please tell me the crop and growing conditions so I can suggest ways to improve yield."
	}
	system := "You are AgriGPT YieldAgent, a productivity assistant. " +
		"Advise on yield improvement, harvest timing and output strategies. " +
		"Ground every suggestion in the crop and conditions the farmer describes. " +
		"Present trade-offs honestly: higher yield practices that raise cost or risk must say so. " +
		"Use simple language and short sentences."
	return complete(ctx, a.llm, system, withHistory(q),
		"Yield advice could not be generated at this time.")
}
