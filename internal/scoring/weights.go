package scoring

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/MikeSquared-Agency/Versus/internal/catalog"
)

// ErrZeroWeightSum is returned when user overrides leave nothing to weigh.
var ErrZeroWeightSum = errors.New("weights must sum to more than zero")

// Weights maps attribute keys to their relative importance.
type Weights map[string]float64

// Sum returns the total of all finite weights.
func (w Weights) Sum() float64 {
	var sum float64
	for _, v := range w {
		sum += weightOf(v)
	}
	return sum
}

// Get returns the weight for attr, treating absent and non-finite values as 0.
func (w Weights) Get(attr string) float64 {
	return weightOf(w[attr])
}

// Clone returns an independent copy.
func (w Weights) Clone() Weights {
	if w == nil {
		return nil
	}
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// ParseWeight converts a user-entered weight. Empty, non-numeric, non-finite
// and negative input all count as 0.
func ParseWeight(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// ResolveWeights returns the effective weights for a comparison. Without
// overrides the stored weights are used as-is, even when they do not sum to 1.
// Overrides are parsed and normalized so they sum to 1.
func ResolveWeights(cfg *catalog.CategoryConfig, overrides map[string]string) (Weights, error) {
	if overrides == nil {
		return Weights(cfg.Weights).Clone(), nil
	}

	parsed := make(Weights, len(overrides))
	for attr, raw := range overrides {
		parsed[attr] = ParseWeight(raw)
	}
	sum := parsed.Sum()
	if sum <= 0 {
		return nil, ErrZeroWeightSum
	}
	for attr, v := range parsed {
		parsed[attr] = v / sum
	}
	return parsed, nil
}

func weightOf(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
