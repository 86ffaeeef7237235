// Unit tests for image validation — all checks must run without any network.
package llm

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func pngPayload(size int) []byte {
	data := make([]byte, size)
	copy(data, "\x89PNG\r\n\x1a\n")
	return data
}

func jpegPayload(size int) []byte {
	data := make([]byte, size)
	copy(data, "\xFF\xD8\xFF\xE0")
	return data
}

func TestDetectMIME_PNG(t *testing.T) {
	t.Parallel()

	if got := DetectMIME(pngPayload(64)); got != "image/png" {
		t.Errorf("DetectMIME(png) = %q; want image/png", got)
	}
}

func TestDetectMIME_JPEG(t *testing.T) {
	t.Parallel()

	if got := DetectMIME(jpegPayload(64)); got != "image/jpeg" {
		t.Errorf("DetectMIME(jpeg) = %q; want image/jpeg", got)
	}
}

func TestDetectMIME_Unknown(t *testing.T) {
	t.Parallel()

	if got := DetectMIME([]byte("GIF89a...")); got != "" {
		t.Errorf("DetectMIME(gif) = %q; want empty (unsupported)", got)
	}
}

func TestValidateImage_Empty(t *testing.T) {
	t.Parallel()

	req := VisionRequest{}
	if err := ValidateImage(&req); !errors.Is(err, ErrImageEmpty) {
		t.Errorf("ValidateImage(empty) error = %v; want ErrImageEmpty", err)
	}
}

func TestValidateImage_TooLarge(t *testing.T) {
	t.Parallel()

	req := VisionRequest{ImageBytes: pngPayload(MaxImageBytes + 1)}
	if err := ValidateImage(&req); !errors.Is(err, ErrImageTooLarge) {
		t.Errorf("ValidateImage(oversized) error = %v; want ErrImageTooLarge", err)
	}
}

func TestValidateImage_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	req := VisionRequest{ImageBytes: []byte("GIF89a not an allowed format")}
	if err := ValidateImage(&req); !errors.Is(err, ErrImageUnsupported) {
		t.Errorf("ValidateImage(gif) error = %v; want ErrImageUnsupported", err)
	}
}

func TestValidateImage_FillsMIMEType(t *testing.T) {
	t.Parallel()

	req := VisionRequest{ImageBytes: jpegPayload(128), Prompt: "what is this"}
	if err := ValidateImage(&req); err != nil {
		t.Fatalf("ValidateImage error = %v; want nil", err)
	}
	if req.MIMEType != "image/jpeg" {
		t.Errorf("MIMEType = %q; want image/jpeg", req.MIMEType)
	}
}

func TestValidateImage_TruncatesLongPrompt(t *testing.T) {
	t.Parallel()

	req := VisionRequest{
		ImageBytes: pngPayload(128),
		Prompt:     strings.Repeat("x", MaxVisionPromptChars+500),
	}
	if err := ValidateImage(&req); err != nil {
		t.Fatalf("ValidateImage error = %v; want nil", err)
	}
	if len(req.Prompt) > MaxVisionPromptChars+len(" [prompt truncated]") {
		t.Errorf("prompt not truncated: len = %d", len(req.Prompt))
	}
	if !strings.HasSuffix(req.Prompt, "[prompt truncated]") {
		t.Error("truncated prompt should carry the truncation marker")
	}
}

func TestValidateImage_TruncatesOnRuneBoundary(t *testing.T) {
	t.Parallel()

	// A multi-byte prompt over the character limit must stay valid UTF-8
	// after truncation.
	req := VisionRequest{
		ImageBytes: pngPayload(128),
		Prompt:     strings.Repeat("क", MaxVisionPromptChars+500),
	}
	if err := ValidateImage(&req); err != nil {
		t.Fatalf("ValidateImage error = %v; want nil", err)
	}
	if !utf8.ValidString(req.Prompt) {
		t.Error("truncated prompt is not valid UTF-8")
	}
	if !strings.HasSuffix(req.Prompt, "[prompt truncated]") {
		t.Error("truncated prompt should carry the truncation marker")
	}
	kept := strings.TrimSuffix(req.Prompt, " [prompt truncated]")
	if got := utf8.RuneCountInString(kept); got != MaxVisionPromptChars {
		t.Errorf("kept %d characters; want %d", got, MaxVisionPromptChars)
	}
}

func TestValidateImage_AtSizeCeiling_OK(t *testing.T) {
	t.Parallel()

	req := VisionRequest{ImageBytes: pngPayload(MaxImageBytes)}
	if err := ValidateImage(&req); err != nil {
		t.Errorf("ValidateImage at exact ceiling error = %v; want nil", err)
	}
}

func TestMagicBytes_ArePrefixChecks(t *testing.T) {
	t.Parallel()

	// A payload containing PNG magic mid-stream is not a PNG.
	data := append(bytes.Repeat([]byte{0x00}, 8), pngMagic...)
	if got := DetectMIME(data); got != "" {
		t.Errorf("DetectMIME(mid-stream magic) = %q; want empty", got)
	}
}
