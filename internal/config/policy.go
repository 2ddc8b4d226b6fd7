package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy holds the tunable text heuristics of the pipeline: which markers
// make a query "compound", how the fallback splits it, and the score below
// which a best match is treated as no match. The built-in defaults match
// the shipped keyword set; a YAML file overrides them field by field.
type Policy struct {
	Conjunctions        []string `yaml:"conjunctions"`
	CompoundMarkers     []string `yaml:"compound_markers"`
	StopFragments       []string `yaml:"stop_fragments"`
	MatchScoreThreshold float64  `yaml:"match_score_threshold"`
}

func DefaultPolicy() Policy {
	return Policy{
		Conjunctions:        []string{"и", "или", "плюс"},
		CompoundMarkers:     []string{",", "+", ":", "комплект", "набор", "вместе"},
		StopFragments:       []string{"комплект", "набор", "вместе"},
		MatchScoreThreshold: 0,
	}
}

// LoadPolicy reads the policy file at path; an empty path yields defaults.
func LoadPolicy(path string) (Policy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return policy, fmt.Errorf("read policy file: %w", err)
	}

	var override Policy
	if err := yaml.Unmarshal(data, &override); err != nil {
		return policy, fmt.Errorf("parse policy file: %w", err)
	}

	if len(override.Conjunctions) > 0 {
		policy.Conjunctions = override.Conjunctions
	}
	if len(override.CompoundMarkers) > 0 {
		policy.CompoundMarkers = override.CompoundMarkers
	}
	if len(override.StopFragments) > 0 {
		policy.StopFragments = override.StopFragments
	}
	if override.MatchScoreThreshold > 0 {
		policy.MatchScoreThreshold = override.MatchScoreThreshold
	}
	return policy, nil
}
