// Package llm defines the model-agnostic inference provider abstraction.
// All types here are shared between the provider interface and adapters.
package llm

// Message represents a single turn in a conversation (role + content).
type Message struct {
	Role    string // "system" | "user" | "assistant"
	Content string
}

// ChatRequest is the input for a non-streaming chat completion.
type ChatRequest struct {
	// Model overrides the provider default when non-empty.
	Model       string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// ChatResponse is the output from a non-streaming chat completion.
type ChatResponse struct {
	Content    string // The assistant message text.
	StopReason string // "stop" | "length" | "error"
	Tokens     int    // Total tokens consumed (prompt + completion).
}

// VisionRequest is the input for an image completion. ImageBytes must be a
// PNG or JPEG payload of at most MaxImageBytes; Validate rejects anything
// else before the request leaves the process.
type VisionRequest struct {
	// Model overrides the provider default vision model when non-empty.
	Model      string
	System     string // system instruction, optional
	Prompt     string // user text accompanying the image
	ImageBytes []byte
	MIMEType   string // "image/png" | "image/jpeg", set by Validate
}

// EmbedRequest is the input for a batch embedding call.
type EmbedRequest struct {
	// Model overrides the provider default when non-empty.
	Model string
	Texts []string
}

// EmbedResponse is the output from a batch embedding call.
// Embeddings[i] corresponds to Texts[i] in the request.
type EmbedResponse struct {
	Embeddings [][]float32
	Tokens     int // Total tokens consumed.
}

// ModelMeta describes the model / provider identity.
type ModelMeta struct {
	ID        string // e.g. "openai/gpt-oss-20b", "llama3.2:3b"
	Provider  string // e.g. "groq", "ollama"
	Version   string // e.g. "v1"
	MaxTokens int    // Maximum context window size.
}
