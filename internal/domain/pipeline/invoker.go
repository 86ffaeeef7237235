package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/agrigpt/agrigpt/internal/domain/advisor"
)

// Invoker fans a routing plan out to the selected providers.
type Invoker struct {
	registry *advisor.Registry
}

// NewInvoker creates an Invoker over the given provider registry.
func NewInvoker(registry *advisor.Registry) *Invoker {
	return &Invoker{registry: registry}
}

// Invoke calls every provider in the plan concurrently and returns results
// indexed by plan position, so the aggregator sees router order regardless
// of completion order. Providers are independent and never error; a plan
// entry missing from the registry is skipped.
//
// The image reference reaches only the image-capable provider.
func (inv *Invoker) Invoke(ctx context.Context, plan []RoutedEntry, req Request, history string) []ProviderResult {
	results := make([]ProviderResult, len(plan))
	var g errgroup.Group

	for i, entry := range plan {
		handler, ok := inv.registry.Lookup(entry.Provider)
		if !ok {
			continue
		}
		i, entry, handler := i, entry, handler
		g.Go(func() error {
			q := advisor.Query{Text: req.Text, History: history}
			if entry.Provider == advisor.ImageAnalysis {
				q.ImageRef = req.ImageRef
			}
			results[i] = ProviderResult{
				Provider: entry.Provider,
				Role:     entry.Role,
				Score:    entry.Score,
				Content:  handler.Handle(ctx, q),
			}
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck

	// Compact out skipped entries.
	out := results[:0]
	for _, res := range results {
		if res.Provider != "" {
			out = append(out, res)
		}
	}
	return out
}
