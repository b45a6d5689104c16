package scoring

import (
	"sort"

	"github.com/MikeSquared-Agency/Versus/internal/catalog"
)

// Display bands for sub-scores.
const (
	BandBest   = "best"
	BandMiddle = "middle"
	BandWorst  = "worst"
)

// Band maps a sub-score to its display band.
func Band(score float64) string {
	switch {
	case score >= 0.7:
		return BandBest
	case score >= 0.4:
		return BandMiddle
	default:
		return BandWorst
	}
}

// Rank orders results by total score, highest first. Equal totals keep their
// input order.
func Rank(results []Result) []Result {
	ranked := make([]Result, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalScore > ranked[j].TotalScore
	})
	return ranked
}

// BestValues returns, per attribute, the IDs of every product holding the best
// raw value. Only numbers, numeric text and booleans (as 1/0) compete; an
// attribute with no comparable values has no entry.
func BestValues(products []catalog.Product, attrs []string) map[string][]string {
	best := make(map[string][]string, len(attrs))
	for _, attr := range attrs {
		lower := LowerIsBetter(attr)
		var (
			top   float64
			found bool
			ids   []string
		)
		for _, p := range products {
			f, ok := rankValue(p.Lookup(attr))
			if !ok {
				continue
			}
			switch {
			case !found || (lower && f < top) || (!lower && f > top):
				top, found = f, true
				ids = []string{p.ID}
			case f == top:
				ids = append(ids, p.ID)
			}
		}
		if found {
			best[attr] = ids
		}
	}
	return best
}

func rankValue(v catalog.Value) (float64, bool) {
	if b, ok := v.Bool(); ok {
		if b {
			return 1, true
		}
		return 0, true
	}
	return v.Float()
}
