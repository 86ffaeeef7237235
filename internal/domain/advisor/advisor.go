// Package advisor holds the specialist query providers: crop, pest,
// irrigation, subsidy, yield and image analysis. Each provider answers one
// slice of a farmer's question; the pipeline router decides which providers a
// query reaches.
package advisor

import (
	"context"
	"sort"
	"strings"
)

// ID names a query provider. IDs appear verbatim in router LLM output, so
// they double as the routing vocabulary.
type ID string

const (
	Crop          ID = "CropAgent"
	Pest          ID = "PestAgent"
	Irrigation    ID = "IrrigationAgent"
	Subsidy       ID = "SubsidyAgent"
	Yield         ID = "YieldAgent"
	ImageAnalysis ID = "ImageAnalysisAgent"
)

// Fallback is the provider of last resort: the router selects it only when
// nothing else fits, and the pipeline falls back to it when routing produces
// nothing usable.
const Fallback = Crop

// Query is the input a provider receives. History is the formatted prior
// conversation; ImageRef is a stored image path, set only for image-capable
// providers.
type Query struct {
	Text     string
	History  string
	ImageRef string
}

// QueryHandler answers one farmer query. Implementations never return an
// error: when the backing model fails they return an apologetic message so
// the pipeline always has content to present.
type QueryHandler interface {
	Handle(ctx context.Context, q Query) string
}

// description is the one-line capability summary fed to the router prompt.
type entry struct {
	handler     QueryHandler
	description string
}

// Registry maps provider IDs to handlers. Built once at startup, read-only
// after that.
type Registry struct {
	entries map[ID]entry
}

// NewRegistry builds an empty registry. Use Register during startup wiring.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[ID]entry)}
}

// Register adds a provider under its ID with a short routing description.
func (r *Registry) Register(id ID, h QueryHandler, description string) {
	r.entries[id] = entry{handler: h, description: description}
}

// Lookup returns the handler for id, or false when none is registered.
func (r *Registry) Lookup(id ID) (QueryHandler, bool) {
	e, ok := r.entries[id]
	return e.handler, ok
}

// Has reports whether id is registered.
func (r *Registry) Has(id ID) bool {
	_, ok := r.entries[id]
	return ok
}

// Descriptions renders the "- Name: description" list the router prompt
// embeds, in a stable order.
func (r *Registry) Descriptions() string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		b.WriteString("- ")
		b.WriteString(id)
		b.WriteString(": ")
		b.WriteString(r.entries[ID(id)].description)
		b.WriteString("\n")
	}
	return b.String()
}
