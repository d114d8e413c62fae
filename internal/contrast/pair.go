package contrast

import (
	"github.com/jmylchreest/contrastlens/internal/colour"
)

// Pair is an explicit background/text colour combination, such as one read
// from a rendered DOM element.
type Pair struct {
	Background colour.RGB `json:"background" yaml:"background"`
	Text       colour.RGB `json:"text" yaml:"text"`
	X          int        `json:"x" yaml:"x"`
	Y          int        `json:"y" yaml:"y"`
}

// EvaluatePair scores a single background/text pair at (x, y).
// Unlike grid results, the returned Result may be compliant.
func EvaluatePair(background, text colour.RGB, x, y int) Result {
	return newResult(x, y, []colour.RGB{background, text})
}

// EvaluatePairs returns the non-compliant pairs in input order.
func EvaluatePairs(pairs []Pair) []Result {
	results := make([]Result, 0)
	for _, p := range pairs {
		res := EvaluatePair(p.Background, p.Text, p.X, p.Y)
		if !res.Compliant {
			results = append(results, res)
		}
	}
	return results
}
