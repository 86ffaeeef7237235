// Image payload validation for vision requests.
// All checks run before any network call so a bad upload never spends an
// inference round trip.
package llm

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"
)

// MaxImageBytes is the hard ceiling for vision payloads (8 MiB).
const MaxImageBytes = 8 * 1024 * 1024

// MaxVisionPromptChars bounds the user text accompanying an image; longer
// prompts are truncated, not rejected.
const MaxVisionPromptChars = 2000

const (
	mimePNG  = "image/png"
	mimeJPEG = "image/jpeg"
)

// Image rejection variants. Each maps to a specific user-facing message at
// the advisor layer.
var (
	ErrImageEmpty       = errors.New("llm: image payload is empty")
	ErrImageTooLarge    = fmt.Errorf("llm: image exceeds %d bytes", MaxImageBytes)
	ErrImageUnsupported = errors.New("llm: unsupported image format (PNG and JPEG only)")
)

var (
	pngMagic  = []byte("\x89PNG")
	jpegMagic = []byte("\xFF\xD8")
)

// DetectMIME sniffs the image format from magic bytes.
// Returns "" for anything that is not PNG or JPEG.
func DetectMIME(data []byte) string {
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return mimePNG
	case bytes.HasPrefix(data, jpegMagic):
		return mimeJPEG
	default:
		return ""
	}
}

// ValidateImage checks size and format of a vision payload and fills in the
// request's MIMEType. The prompt is truncated to MaxVisionPromptChars.
func ValidateImage(req *VisionRequest) error {
	if len(req.ImageBytes) == 0 {
		return ErrImageEmpty
	}
	if len(req.ImageBytes) > MaxImageBytes {
		return ErrImageTooLarge
	}

	mime := DetectMIME(req.ImageBytes)
	if mime == "" {
		return ErrImageUnsupported
	}
	req.MIMEType = mime

	// Truncate on a rune boundary so a multi-byte character is never split.
	if utf8.RuneCountInString(req.Prompt) > MaxVisionPromptChars {
		runes := []rune(req.Prompt)
		req.Prompt = string(runes[:MaxVisionPromptChars]) + " [prompt truncated]"
	}
	return nil
}
