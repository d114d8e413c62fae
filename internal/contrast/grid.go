package contrast

import (
	"github.com/jmylchreest/contrastlens/internal/colour"
)

// Analyze scans src in blockSize steps and returns every block whose two
// dominant colours fail WCAG AA, in row-major order.
//
// blockSize must be positive; use Analyzer for validated, parallel scans.
func Analyze(src colour.PixelSource, blockSize int) []Result {
	clusterer := colour.NewKMeansClusterer()
	_, height := src.Dims()

	results := make([]Result, 0)
	for y := 0; y < height; y += blockSize {
		row, _ := analyzeRow(src, y, blockSize, DefaultClusters, clusterer)
		results = append(results, row...)
	}
	return results
}

// analyzeRow evaluates the blocks whose top edge is y. It returns the failing
// blocks and how many blocks were large enough to evaluate.
func analyzeRow(src colour.PixelSource, y, blockSize, k int, clusterer *colour.KMeansClusterer) ([]Result, int) {
	width, height := src.Dims()
	h := min(blockSize, height-y)
	if h < MinBlockDimension {
		return nil, 0
	}

	var (
		results   []Result
		evaluated int
	)
	for x := 0; x < width; x += blockSize {
		w := min(blockSize, width-x)
		if w < MinBlockDimension {
			continue
		}
		evaluated++

		samples := colour.Sample(src, x, y, w, h)
		res := newResult(x, y, clusterer.Cluster(samples, k))
		if !res.Compliant {
			results = append(results, res)
		}
	}
	return results, evaluated
}

// blockCount returns how many grid rows a dimension splits into.
func blockCount(size, blockSize int) int {
	return (size + blockSize - 1) / blockSize
}
