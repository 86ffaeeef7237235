// Package llm — Groq HTTP adapter.
// GroqProvider calls the Groq OpenAI-compatible REST API using stdlib net/http.
// Endpoints used:
//   - POST /chat/completions — non-streaming chat and vision completions
//   - GET  /models           — health check (lists available models)
//
// Groq exposes no embedding endpoint; Embed returns ErrEmbedUnsupported and
// callers degrade to keyword search.
package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	mimeJSON          = "application/json"
	headerContentType = "Content-Type"
	headerAuthz       = "Authorization"
)

// GroqProvider implements Provider against the Groq cloud API.
type GroqProvider struct {
	baseURL     string
	apiKey      string
	chatModel   string
	visionModel string
	httpClient  *http.Client
}

// NewGroqProvider creates a GroqProvider with a 30s default timeout.
func NewGroqProvider(baseURL, apiKey, chatModel, visionModel string) *GroqProvider {
	return &GroqProvider{
		baseURL:     baseURL,
		apiKey:      apiKey,
		chatModel:   chatModel,
		visionModel: visionModel,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ─── internal OpenAI-compatible JSON types ───────────────────────────────────

type groqMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string, or []groqContentPart for vision
}

type groqContentPart struct {
	Type     string        `json:"type"` // "text" | "image_url"
	Text     string        `json:"text,omitempty"`
	ImageURL *groqImageURL `json:"image_url,omitempty"`
}

type groqImageURL struct {
	URL string `json:"url"`
}

type groqChatRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature float32       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type groqChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// ─── Provider implementation ─────────────────────────────────────────────────

// ChatCompletion performs a non-streaming chat via POST /chat/completions.
func (p *GroqProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.chatModel
	}

	msgs := make([]groqMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = groqMessage{Role: m.Role, Content: m.Content}
	}

	return p.complete(ctx, groqChatRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
}

// VisionCompletion performs an image+text completion via POST /chat/completions.
// The image travels inline as a base64 data URL, the Groq multimodal format.
func (p *GroqProvider) VisionCompletion(ctx context.Context, req VisionRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.visionModel
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s",
		req.MIMEType, base64.StdEncoding.EncodeToString(req.ImageBytes))

	msgs := []groqMessage{}
	if req.System != "" {
		msgs = append(msgs, groqMessage{Role: "system", Content: req.System})
	}
	msgs = append(msgs, groqMessage{
		Role: "user",
		Content: []groqContentPart{
			{Type: "text", Text: req.Prompt},
			{Type: "image_url", ImageURL: &groqImageURL{URL: dataURL}},
		},
	})

	return p.complete(ctx, groqChatRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: 0.3,
		MaxTokens:   900,
	})
}

// Embed is unsupported: Groq has no embedding endpoint.
func (p *GroqProvider) Embed(_ context.Context, _ EmbedRequest) (*EmbedResponse, error) {
	return nil, ErrEmbedUnsupported
}

// ModelInfo returns static metadata for this provider/model.
func (p *GroqProvider) ModelInfo() ModelMeta {
	return ModelMeta{
		ID:        p.chatModel,
		Provider:  "groq",
		Version:   "v1",
		MaxTokens: 8192,
	}
}

// HealthCheck calls GET /models — returns nil if the API is reachable.
func (p *GroqProvider) HealthCheck(ctx context.Context) error {
	url := p.baseURL + "/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("groq healthcheck: build request: %w", err)
	}
	req.Header.Set(headerAuthz, "Bearer "+p.apiKey)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("groq healthcheck: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("groq healthcheck: status %d", resp.StatusCode)
	}
	return nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// complete marshals the request, posts it, and decodes the first choice.
func (p *GroqProvider) complete(ctx context.Context, chatReq groqChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, err
	}

	respBody, postErr := p.doPost(ctx, "/chat/completions", body)
	if postErr != nil {
		return nil, postErr
	}
	defer respBody.Close()

	var groqResp groqChatResponse
	if decodeErr := json.NewDecoder(respBody).Decode(&groqResp); decodeErr != nil {
		return nil, fmt.Errorf("decode chat response: %w", decodeErr)
	}
	if len(groqResp.Choices) == 0 {
		return nil, fmt.Errorf("groq chat: response has no choices")
	}
	return &ChatResponse{
		Content:    groqResp.Choices[0].Message.Content,
		StopReason: groqResp.Choices[0].FinishReason,
		Tokens:     groqResp.Usage.TotalTokens,
	}, nil
}

// doPost sends a POST request to baseURL+path and returns the response body.
// Caller is responsible for closing the returned ReadCloser.
func (p *GroqProvider) doPost(ctx context.Context, path string, body []byte) (io.ReadCloser, error) {
	url := p.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("groq post %s: build request: %w", path, err)
	}
	req.Header.Set(headerContentType, mimeJSON)
	req.Header.Set(headerAuthz, "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("groq post %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close() //nolint:errcheck
		return nil, fmt.Errorf("groq post %s: status %d", path, resp.StatusCode)
	}
	return resp.Body, nil
}
