package pipeline

import (
	"sort"
	"strings"
)

// Aggregate orders provider results by role priority (primary, supporting,
// impact) and drops entries whose content is blank. Equal roles keep their
// router-assigned relative order. The payload's Results is empty only when
// every provider returned blank content; the synthesizer then answers with
// a fixed no-content message.
func Aggregate(results []ProviderResult, query string) AggregatedPayload {
	kept := make([]ProviderResult, 0, len(results))
	for _, res := range results {
		if strings.TrimSpace(res.Content) != "" {
			kept = append(kept, res)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Role.Priority() < kept[j].Role.Priority()
	})

	mode := RoutingSingle
	if len(kept) > 1 {
		mode = RoutingMulti
	}

	agents := make([]RoleEntry, 0, len(kept))
	for _, res := range kept {
		agents = append(agents, RoleEntry{Provider: res.Provider, Role: res.Role})
	}

	return AggregatedPayload{
		UserQuery: query,
		Mode:      mode,
		Results:   kept,
		Meta: Meta{
			Mode:       mode,
			Agents:     agents,
			AgentCount: len(agents),
		},
	}
}
