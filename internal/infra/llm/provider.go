// Package llm — Provider interface.
// Adapters (Groq, Ollama, etc.) implement this interface so the application
// is never coupled to a specific inference vendor.
package llm

import (
	"context"
	"errors"
)

// ErrVisionUnsupported is returned by adapters whose backing service has no
// multimodal endpoint.
var ErrVisionUnsupported = errors.New("llm: vision completion not supported by this provider")

// ErrEmbedUnsupported is returned by adapters whose backing service has no
// embedding endpoint.
var ErrEmbedUnsupported = errors.New("llm: embeddings not supported by this provider")

// Provider is the model-agnostic interface for inference operations.
// Chat and vision calls may fail on transport/timeout errors; callers own
// the fallback policy (the pipeline fails open to deterministic text).
type Provider interface {
	// ChatCompletion performs a non-streaming chat completion.
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// VisionCompletion performs an image+text completion.
	// The request must have passed ValidateImage first.
	VisionCompletion(ctx context.Context, req VisionRequest) (*ChatResponse, error)

	// Embed computes dense vector representations for a batch of texts.
	Embed(ctx context.Context, req EmbedRequest) (*EmbedResponse, error)

	// ModelInfo returns static metadata about the provider/model.
	ModelInfo() ModelMeta

	// HealthCheck returns nil if the provider is reachable and operational.
	HealthCheck(ctx context.Context) error
}
