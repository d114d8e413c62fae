package contrast

// Filter returns the results whose ratio is at least threshold, keeping order.
//
// A higher threshold therefore shows more blocks: 1.0 keeps every result and
// 3.0 keeps none of the non-compliant ones.
func Filter(results []Result, threshold float64) []Result {
	filtered := make([]Result, 0, len(results))
	for _, r := range results {
		if r.Ratio >= threshold {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
