// Package resolve implements the listing-agent resolution engine: a
// waterfall-with-merge pass across the configured sources, confidence
// scoring from cross-source name agreement, contact enrichment, and a
// second-pass retry over simplified address variants. Grounded on
// pipeline.py's AgentFinderPipeline.
package resolve

import "github.com/dispodojo/agentfinder/internal/normalize"

// sourceAgent pairs a source name with the agent name it returned, used
// only to compute cross-source agreement.
type sourceAgent struct {
	source string
	name   string
}

// computeConfidence scores cross-source agreement exactly as
// pipeline.py's _compute_confidence does: zero sources is (0, false); one
// source is (0.5, false) — unverified; two or more sources where at
// least two names (the first source's own included) fuzzy-match the
// first source's name is (min(0.7+0.1*matches, 1.0), true); otherwise
// disagreement yields (0.4, false).
func computeConfidence(sourceAgents []sourceAgent) (float64, bool) {
	if len(sourceAgents) == 0 {
		return 0.0, false
	}
	if len(sourceAgents) == 1 {
		return 0.5, false
	}

	base := sourceAgents[0].name
	matching := 1
	for _, sa := range sourceAgents[1:] {
		if normalize.NamesMatch(base, sa.name) {
			matching++
		}
	}

	if matching >= 2 {
		confidence := float64(7+matching) / 10
		if confidence > 1.0 {
			confidence = 1.0
		}
		return confidence, true
	}
	return 0.4, false
}
