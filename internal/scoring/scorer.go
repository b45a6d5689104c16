package scoring

import (
	"log/slog"
	"math"
	"time"

	"github.com/MikeSquared-Agency/Versus/internal/catalog"
	"github.com/MikeSquared-Agency/Versus/internal/metrics"
)

// Rules that can produce a sub-score, in evaluation order.
const (
	RuleBoolean    = "boolean"
	RuleMissing    = "missing"
	RuleScoringMap = "scoring_map"
	RuleNonNumeric = "non_numeric"
	RuleTied       = "tied"
	RuleMinMax     = "min_max"
	RuleInverted   = "inverted"
)

// AttributeScore captures one attribute's contribution to a product's total.
type AttributeScore struct {
	Name     string  `json:"name"`
	Label    string  `json:"label"`
	Value    string  `json:"value"`
	Score    float64 `json:"score"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
	Rule     string  `json:"rule"`
	Band     string  `json:"band"`
}

// Result is the scoring output for one product.
type Result struct {
	Product    catalog.Product    `json:"product"`
	TotalScore int                `json:"total_score"`
	SubScores  map[string]float64 `json:"sub_scores"`
	Breakdown  []AttributeScore   `json:"breakdown"`
}

// Comparison bundles a ranked result set with the inputs that produced it.
type Comparison struct {
	Category   string              `json:"category"`
	Attributes []string            `json:"attributes"`
	Weights    Weights             `json:"weights"`
	Results    []Result            `json:"results"`
	Best       map[string][]string `json:"best"`
}

// Scorer computes weighted 0-100 scores for a set of same-category products.
type Scorer struct {
	logger *slog.Logger
}

func NewScorer(logger *slog.Logger) *Scorer {
	return &Scorer{logger: logger}
}

type bounds struct {
	min, max float64
}

// Score computes one Result per product, in input order.
func (s *Scorer) Score(products []catalog.Product, cfg *catalog.CategoryConfig, weights Weights) []Result {
	attrs := cfg.Attributes(weights)

	ranges := make(map[string]bounds, len(attrs))
	for _, attr := range attrs {
		ranges[attr] = numericBounds(products, attr)
	}

	results := make([]Result, len(products))
	for i, p := range products {
		res := Result{
			Product:   p,
			SubScores: make(map[string]float64, len(attrs)),
			Breakdown: make([]AttributeScore, 0, len(attrs)),
		}
		var total float64
		for _, attr := range attrs {
			v := p.Lookup(attr)
			score, rule := subScore(v, attr, cfg, ranges[attr])
			w := weights.Get(attr)
			as := AttributeScore{
				Name:     attr,
				Label:    catalog.DisplayName(attr),
				Value:    catalog.FormatValue(attr, v),
				Score:    score,
				Weight:   w,
				Weighted: score * w,
				Rule:     rule,
				Band:     Band(score),
			}
			total += as.Weighted
			res.SubScores[attr] = score
			res.Breakdown = append(res.Breakdown, as)
		}
		res.TotalScore = roundTotal(total)
		results[i] = res
	}
	return results
}

// Compare scores, ranks and highlights products in one pass.
func (s *Scorer) Compare(products []catalog.Product, cfg *catalog.CategoryConfig, weights Weights) *Comparison {
	start := time.Now()
	attrs := cfg.Attributes(weights)
	results := Rank(s.Score(products, cfg, weights))
	metrics.ComparisonDuration.Observe(time.Since(start).Seconds())

	if len(results) > 0 {
		s.logger.Debug("comparison scored",
			"category", cfg.ID,
			"products", len(products),
			"leader", results[0].Product.ID,
			"leader_score", results[0].TotalScore,
		)
	}

	return &Comparison{
		Category:   cfg.ID,
		Attributes: attrs,
		Weights:    weights.Clone(),
		Results:    results,
		Best:       BestValues(products, attrs),
	}
}

// subScore applies the scoring rules in order; the first that matches wins.
func subScore(v catalog.Value, attr string, cfg *catalog.CategoryConfig, r bounds) (float64, string) {
	if b, ok := v.Bool(); ok {
		if b {
			return 1, RuleBoolean
		}
		return 0, RuleBoolean
	}
	if v.IsMissing() {
		return 0, RuleMissing
	}
	if table, ok := cfg.ScoreTable(attr); ok {
		return table[v.Key()], RuleScoringMap
	}
	f, ok := v.Float()
	if !ok {
		return 0, RuleNonNumeric
	}
	if r.max == r.min {
		return 1, RuleTied
	}
	normalized := (f - r.min) / (r.max - r.min)
	if LowerIsBetter(attr) {
		return 1 - normalized, RuleInverted
	}
	return normalized, RuleMinMax
}

// numericBounds returns the min and max numeric value of attr across the set.
// Booleans, missing values and non-numeric text are excluded; with nothing
// left the range defaults to [0,1].
// Explicit null and "" are not coerced to 0, nor booleans to 1/0, so they
// never widen the range the way a loose numeric conversion would.
func numericBounds(products []catalog.Product, attr string) bounds {
	var (
		b     bounds
		found bool
	)
	for _, p := range products {
		v := p.Lookup(attr)
		if v.Kind() == catalog.KindBoolean {
			continue
		}
		f, ok := v.Float()
		if !ok {
			continue
		}
		if !found {
			b = bounds{min: f, max: f}
			found = true
			continue
		}
		b.min = math.Min(b.min, f)
		b.max = math.Max(b.max, f)
	}
	if !found {
		return bounds{min: 0, max: 1}
	}
	return b
}

// LowerIsBetter reports whether smaller raw values of attr are preferable.
func LowerIsBetter(attr string) bool {
	switch catalog.InternalKey(attr) {
	case "weight", "price", "power":
		return true
	}
	return false
}

// roundTotal scales a weighted sum to 0-100, rounding half up.
func roundTotal(total float64) int {
	scaled := math.Floor(total*100 + 0.5)
	if math.IsNaN(scaled) || math.IsInf(scaled, 0) {
		return 0
	}
	return int(scaled)
}
