package catalog

import (
	"fmt"
	"math"
	"sort"
)

// CategoryConfig holds the weighting and scoring rules for one category.
// Weights are not required to sum to 1.
type CategoryConfig struct {
	ID         string                        `json:"id"`
	Weights    map[string]float64            `json:"weightage"`
	ScoringMap map[string]map[string]float64 `json:"scoringMap,omitempty"`
	Specs      []string                      `json:"specs,omitempty"`
}

// Attributes returns the attribute list to score: the explicit Specs list when
// the config has one, otherwise the keys of weights in sorted order.
func (c *CategoryConfig) Attributes(weights map[string]float64) []string {
	if c != nil && len(c.Specs) > 0 {
		out := make([]string, len(c.Specs))
		copy(out, c.Specs)
		return out
	}
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ScoreTable returns the scoring map for attr, if the category defines one.
func (c *CategoryConfig) ScoreTable(attr string) (map[string]float64, bool) {
	if c == nil || c.ScoringMap == nil {
		return nil, false
	}
	m, ok := c.ScoringMap[attr]
	return m, ok
}

// Validate checks that weights are finite and non-negative and that mapped
// scores lie in [0,1].
func (c *CategoryConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("category config: id required")
	}
	if len(c.Weights) == 0 {
		return fmt.Errorf("category %s: weightage is empty", c.ID)
	}
	for attr, w := range c.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return fmt.Errorf("category %s: invalid weight %v for %q", c.ID, w, attr)
		}
	}
	for attr, table := range c.ScoringMap {
		for raw, score := range table {
			if math.IsNaN(score) || score < 0 || score > 1 {
				return fmt.Errorf("category %s: score %v for %q=%q outside [0,1]", c.ID, score, attr, raw)
			}
		}
	}
	return nil
}
