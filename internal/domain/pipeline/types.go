// Package pipeline implements the request flow from raw farmer input to a
// single synthesized reply: clarification gate, scoring intent router,
// provider fan-out, role-ordered aggregation, and read-only synthesis.
//
// The pipeline never returns an error to its caller. Every stage has a
// deterministic fallback, so Answer always produces user-facing text.
package pipeline

import (
	"github.com/agrigpt/agrigpt/internal/domain/advisor"
)

// MaxQueryChars caps inbound text before any external call.
const MaxQueryChars = 2000

// MaxPlanEntries bounds fan-out cost per request.
const MaxPlanEntries = 3

// Request is one farmer turn entering the pipeline. ImageRef is a stored
// image path; SessionID keys conversation history and may be empty.
type Request struct {
	SessionID string
	Text      string
	ImageRef  string
}

// Role tags a provider's contribution importance within one plan.
type Role string

const (
	RolePrimary    Role = "primary"
	RoleSupporting Role = "supporting"
	RoleImpact     Role = "impact"
)

// Priority orders roles for aggregation: primary first, impact last.
// Unknown roles sort after everything.
func (r Role) Priority() int {
	switch r {
	case RolePrimary:
		return 0
	case RoleSupporting:
		return 1
	case RoleImpact:
		return 2
	default:
		return 99
	}
}

// Candidate is one scored provider from the router's LLM reply, transient
// within a single routing run.
type Candidate struct {
	Provider advisor.ID
	Score    int // 0-100 after clamping
}

// RoutedEntry is one provider selected into the routing plan.
//
// Plan invariants: 1-3 entries, provider IDs unique, exactly one primary.
type RoutedEntry struct {
	Provider advisor.ID
	Role     Role
	Score    int
}

// ProviderResult is one provider's output tagged with its plan role.
type ProviderResult struct {
	Provider advisor.ID
	Role     Role
	Score    int
	Content  string
}

// RoutingMode records whether one or several providers answered.
type RoutingMode string

const (
	RoutingSingle RoutingMode = "single_agent"
	RoutingMulti  RoutingMode = "multi_agent"
)

// RoleEntry is one line of the aggregation role log.
type RoleEntry struct {
	Provider advisor.ID
	Role     Role
}

// Meta summarizes which providers contributed to a reply.
type Meta struct {
	Mode       RoutingMode
	Agents     []RoleEntry
	AgentCount int
}

// AggregatedPayload is the ordered, role-sorted input to the synthesizer.
// Results is empty only when every provider returned blank content.
type AggregatedPayload struct {
	UserQuery string
	Mode      RoutingMode
	Results   []ProviderResult
	Meta      Meta
}
