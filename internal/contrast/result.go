// Package contrast finds grid blocks of a bitmap whose two dominant colours
// fail the WCAG AA contrast ratio.
package contrast

import (
	"errors"
	"fmt"
	"math"

	"github.com/jmylchreest/contrastlens/internal/colour"
)

// DefaultBlockSize is the grid block edge length used by all callers.
const DefaultBlockSize = 16

// DefaultClusters is the number of dominant colours extracted per block.
const DefaultClusters = 2

// MinBlockDimension is the smallest clamped block width or height that is analysed.
const MinBlockDimension = 4

var (
	// ErrInvalidBlockSize is returned for block sizes below 1.
	ErrInvalidBlockSize = errors.New("block size must be positive")

	// ErrInvalidThreshold is returned for thresholds outside [1, 21].
	ErrInvalidThreshold = errors.New("threshold must be between 1 and 21")
)

// Result describes one analysed block.
// Results produced by Analyze and Analyzer are always non-compliant.
type Result struct {
	X         int          `json:"x" yaml:"x"`
	Y         int          `json:"y" yaml:"y"`
	Ratio     float64      `json:"ratio" yaml:"ratio"`
	Score     float64      `json:"score" yaml:"score"`
	Colors    []colour.RGB `json:"colors" yaml:"colors"`
	Compliant bool         `json:"compliant" yaml:"compliant"`
}

// newResult evaluates up to two dominant colours. With fewer than two colours
// there is nothing to contrast, so the block is reported as fully compliant.
func newResult(x, y int, colors []colour.RGB) Result {
	if len(colors) < 2 {
		return Result{
			X:         x,
			Y:         y,
			Ratio:     colour.MaxContrast,
			Score:     0,
			Colors:    colors,
			Compliant: true,
		}
	}

	ratio := colour.ContrastRatio(colors[0], colors[1])
	return Result{
		X:         x,
		Y:         y,
		Ratio:     ratio,
		Score:     colour.SeverityScore(ratio),
		Colors:    colors,
		Compliant: colour.IsCompliant(ratio),
	}
}

// ValidateBlockSize checks a grid block size.
func ValidateBlockSize(blockSize int) error {
	if blockSize < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidBlockSize, blockSize)
	}
	return nil
}

// ValidateThreshold checks a display threshold.
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold < colour.MinContrast || threshold > colour.MaxContrast {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}
	return nil
}
