// Vision client with bounded retry.
// Image analysis is the only call path with multi-attempt retry; chat
// completions fail open to deterministic fallbacks on the first error.
package llm

import (
	"context"
	"fmt"
	"time"
)

const visionMaxAttempts = 3

// visionBackoff holds the sleep before each retry (attempt 2 and 3).
var visionBackoff = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// VisionClient wraps a Provider with image validation and bounded retry.
type VisionClient struct {
	provider Provider

	// sleep is swappable in tests to avoid real backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewVisionClient returns a VisionClient backed by provider.
func NewVisionClient(provider Provider) *VisionClient {
	return &VisionClient{provider: provider, sleep: sleepCtx}
}

// Complete validates the image payload and performs the vision call, retrying
// transient failures up to visionMaxAttempts with increasing backoff.
// Validation errors are returned immediately — retrying a rejected payload
// cannot succeed.
func (c *VisionClient) Complete(ctx context.Context, req VisionRequest) (*ChatResponse, error) {
	if err := ValidateImage(&req); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < visionMaxAttempts; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, visionBackoff[attempt-1]); err != nil {
				return nil, err
			}
		}

		resp, err := c.provider.VisionCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		// Do not retry past a cancelled caller.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("vision: %d attempts failed: %w", visionMaxAttempts, lastErr)
}

// sleepCtx sleeps for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
