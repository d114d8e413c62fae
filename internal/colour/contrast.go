package colour

import (
	"math"
)

const (
	// AAThreshold is the WCAG AA minimum contrast ratio for large text and UI components.
	AAThreshold = 3.0

	// MaxContrast is the contrast ratio of black against white.
	MaxContrast = 21.0

	// MinContrast is the contrast ratio of a colour against itself.
	MinContrast = 1.0
)

// Linearize converts an 8-bit sRGB channel to linear light according to WCAG 2.1.
// https://www.w3.org/TR/WCAG21/#dfn-relative-luminance.
func Linearize(channel uint8) float64 {
	c := float64(channel) / 255.0
	if c <= 0.03928 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// RelativeLuminance calculates the relative luminance of an sRGB colour.
// Returns a value between 0 (darkest) and 1 (lightest).
func RelativeLuminance(r, g, b uint8) float64 {
	return 0.2126*Linearize(r) + 0.7152*Linearize(g) + 0.0722*Linearize(b)
}

// Luminance is RelativeLuminance for an RGB value.
func (rgb RGB) Luminance() float64 {
	return RelativeLuminance(rgb.R, rgb.G, rgb.B)
}

// ContrastRatio calculates the WCAG contrast ratio between two colours.
// Returns a value between 1 and 21. Identical colours are reported as 21:
// a block with a single colour has nothing to be illegible against.
func ContrastRatio(a, b RGB) float64 {
	if a == b {
		return MaxContrast
	}

	la := a.Luminance()
	lb := b.Luminance()

	// Ensure la is the lighter colour.
	if la < lb {
		la, lb = lb, la
	}

	return (la + 0.05) / (lb + 0.05)
}

// SeverityScore maps a contrast ratio to a severity in [0, 1].
// Ratios at or above AAThreshold score 0, ratios at or below 1 score 1, and
// values in between follow a cosine ease so mid-range ratios stay visibly
// moderate instead of fading out linearly towards the threshold.
func SeverityScore(ratio float64) float64 {
	if ratio >= AAThreshold {
		return 0
	}
	if ratio <= MinContrast {
		return 1
	}
	t := (ratio - MinContrast) / (AAThreshold - MinContrast)
	return 0.5 * (1 + math.Cos(math.Pi*t))
}

// IsCompliant reports whether ratio passes WCAG AA.
func IsCompliant(ratio float64) bool {
	return ratio >= AAThreshold
}
