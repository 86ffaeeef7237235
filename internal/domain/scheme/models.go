// Package scheme holds the subsidy scheme knowledge base: structured scheme
// records ingested from a seed file, embedded asynchronously, and searched by
// the subsidy advisor.
package scheme

import (
	"fmt"
	"strings"
)

// Level classifies who runs a scheme.
type Level string

const (
	LevelCentral Level = "central"
	LevelState   Level = "state"
)

// EmbeddingStatus tracks the lifecycle of a scheme through the embedding pipeline.
type EmbeddingStatus string

const (
	EmbeddingStatusPending  EmbeddingStatus = "pending"
	EmbeddingStatusEmbedded EmbeddingStatus = "embedded"
	EmbeddingStatusFailed   EmbeddingStatus = "failed"
)

// Scheme is one subsidy or support scheme a farmer can apply to.
type Scheme struct {
	ID               string `yaml:"-"`
	Name             string `yaml:"name"`
	Level            Level  `yaml:"level"`
	Eligibility      string `yaml:"eligibility"`
	Benefits         string `yaml:"benefits"`
	ApplicationSteps string `yaml:"application_steps"`
	Documents        string `yaml:"documents"`
	Notes            string `yaml:"notes"`
}

// Validate checks the fields a scheme record must carry before ingest.
func (s Scheme) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("scheme: name is required")
	}
	if s.Level != "" && s.Level != LevelCentral && s.Level != LevelState {
		return fmt.Errorf("scheme %q: invalid level %q", s.Name, s.Level)
	}
	if strings.TrimSpace(s.Eligibility) == "" {
		return fmt.Errorf("scheme %q: eligibility is required", s.Name)
	}
	if strings.TrimSpace(s.Benefits) == "" {
		return fmt.Errorf("scheme %q: benefits is required", s.Name)
	}
	return nil
}

// EmbeddingText is the canonical text representation fed to the embedder and
// matched against farmer queries.
func (s Scheme) EmbeddingText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s scheme)\n", s.Name, s.levelOrDefault())
	fmt.Fprintf(&b, "Eligibility: %s\n", s.Eligibility)
	fmt.Fprintf(&b, "Benefits: %s\n", s.Benefits)
	if s.ApplicationSteps != "" {
		fmt.Fprintf(&b, "How to apply: %s\n", s.ApplicationSteps)
	}
	if s.Documents != "" {
		fmt.Fprintf(&b, "Documents: %s\n", s.Documents)
	}
	if s.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", s.Notes)
	}
	return b.String()
}

func (s Scheme) levelOrDefault() Level {
	if s.Level == "" {
		return LevelCentral
	}
	return s.Level
}
