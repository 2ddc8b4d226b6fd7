// Package complexity implements the cheap textual gate in front of query
// decomposition: queries without compound markers skip the language-model
// attempt and are searched verbatim. The marker set is policy, not
// contract: it is injected, never hardcoded at call sites.
package complexity

import (
	"strings"
	"unicode"

	"github.com/naladwepo/procurement-assistant/internal/config"
)

type Classifier struct {
	markers      []string
	conjunctions map[string]struct{}
}

func NewClassifier(policy config.Policy) *Classifier {
	conjunctions := make(map[string]struct{}, len(policy.Conjunctions))
	for _, word := range policy.Conjunctions {
		conjunctions[strings.ToLower(word)] = struct{}{}
	}
	return &Classifier{
		markers:      policy.CompoundMarkers,
		conjunctions: conjunctions,
	}
}

// IsCompound reports whether the query likely names more than one item.
// A known false-negative rate is accepted: a compound query that slips
// through is still resolved, just as a single line.
func (c *Classifier) IsCompound(query string) bool {
	lower := strings.ToLower(query)

	for _, marker := range c.markers {
		if isWordMarker(marker) {
			continue
		}
		if strings.Contains(lower, marker) {
			return true
		}
	}

	for _, field := range strings.Fields(lower) {
		word := strings.Trim(field, ".,;:!?")
		if _, ok := c.conjunctions[word]; ok {
			return true
		}
		for _, marker := range c.markers {
			if isWordMarker(marker) && word == marker {
				return true
			}
		}
		// A standalone numeric token is a quantity marker ("4 винта М6"),
		// so the decomposer must run to extract it.
		if isInteger(word) {
			return true
		}
	}
	return false
}

func isWordMarker(marker string) bool {
	for _, r := range marker {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return len(marker) > 0
}

func isInteger(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
