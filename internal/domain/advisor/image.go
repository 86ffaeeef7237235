package advisor

import (
	"context"
	"os"
	"strings"

	"github.com/agrigpt/agrigpt/internal/infra/llm"
)

// visionSystemPrompt keeps the model to observation only: no diagnoses, no
// chemical recommendations.
const visionSystemPrompt = "You are AgriGPT Vision, an agricultural image observation assistant. " +
	"Describe only what is clearly visible in the image. " +
	"Allowed observations include leaf color changes, spots, holes, chewing damage, visible insects, mold, rot, wilting, or deformation. " +
	"Do not name specific pests or diseases unless unmistakably visible. " +
	"Do not guess causes, do not recommend chemicals, and do not infer crop stage or severity. " +
	"If the image is unclear or insufficient, say so clearly."

// imageFailureMessage is the terminal reply after retries are exhausted or
// the image cannot be read.
const imageFailureMessage = "The image could not be analyzed clearly. Please try again later with a clear, well-lit photo of the affected plant."

// ImageAnalysisAdvisor describes what is visible in an uploaded crop photo.
// It is the only image-capable provider; the router selects it exclusively
// whenever the request carries an image.
type ImageAnalysisAdvisor struct {
	vision *llm.VisionClient
}

func NewImageAnalysisAdvisor(vision *llm.VisionClient) *ImageAnalysisAdvisor {
	return &ImageAnalysisAdvisor{vision: vision}
}

func (a *ImageAnalysisAdvisor) Handle(ctx context.Context, q Query) string {
	if q.ImageRef == "" {
		return "Please upload a crop image so I can describe what is visible."
	}

	data, err := os.ReadFile(q.ImageRef)
	if err != nil {
		return imageFailureMessage
	}

	prompt := strings.TrimSpace(q.Text)
	if prompt == "" {
		prompt = "Describe what is visible in this crop image."
	}

	resp, err := a.vision.Complete(ctx, llm.VisionRequest{
		System:     visionSystemPrompt,
		Prompt:     prompt,
		ImageBytes: data,
	})
	if err != nil {
		return imageFailureMessage
	}

	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return imageFailureMessage
	}
	return content
}

// ImageExt returns a normalized file extension for a detected MIME type,
// used when persisting uploads.
func ImageExt(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	default:
		return ".jpg"
	}
}
