// Package overlay draws highlight rectangles over failing contrast blocks.
package overlay

import (
	"fmt"
	stdimage "image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/jmylchreest/contrastlens/internal/colour"
	"github.com/jmylchreest/contrastlens/internal/contrast"
	"github.com/jmylchreest/contrastlens/internal/image"
)

// DefaultColor is the warning hue used when Options.Color is unset.
var DefaultColor = colour.RGB{R: 0xff, G: 0x3b, B: 0x30}

// Options controls overlay rendering.
type Options struct {
	// Color is the warning hue. The zero value selects DefaultColor.
	Color colour.RGB

	// Labels draws each block's contrast ratio in its top-left corner.
	Labels bool
}

// FillAlpha is the fill opacity for a block with the given severity score.
func FillAlpha(score float64) float64 {
	return score*0.6 + 0.1
}

// StrokeAlpha is the outline opacity for a block with the given severity score.
func StrokeAlpha(score float64) float64 {
	return score*0.8 + 0.2
}

// Render returns a copy of bm with every result highlighted.
// Rectangles are blockSize square at the result origin, clipped to the bitmap.
func Render(bm *image.Bitmap, results []contrast.Result, blockSize int, opts Options) *stdimage.RGBA {
	dst := bm.ToRGBA()

	hue := opts.Color
	if hue == (colour.RGB{}) {
		hue = DefaultColor
	}

	for _, res := range results {
		rect := stdimage.Rect(res.X, res.Y, res.X+blockSize, res.Y+blockSize).Intersect(dst.Bounds())
		if rect.Empty() {
			continue
		}

		fill := stdimage.NewUniform(withAlpha(hue, FillAlpha(res.Score)))
		draw.Draw(dst, rect, fill, stdimage.Point{}, draw.Over)

		stroke := stdimage.NewUniform(withAlpha(hue, StrokeAlpha(res.Score)))
		for _, edge := range outline(rect) {
			draw.Draw(dst, edge, stroke, stdimage.Point{}, draw.Over)
		}

		if opts.Labels {
			drawLabel(dst, rect, fmt.Sprintf("%.2f", res.Ratio))
		}
	}

	return dst
}

// outline returns the four 1px edges of r without overlapping corners.
func outline(r stdimage.Rectangle) []stdimage.Rectangle {
	if r.Dx() <= 2 || r.Dy() <= 2 {
		return []stdimage.Rectangle{r}
	}
	return []stdimage.Rectangle{
		stdimage.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1),
		stdimage.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y),
		stdimage.Rect(r.Min.X, r.Min.Y+1, r.Min.X+1, r.Max.Y-1),
		stdimage.Rect(r.Max.X-1, r.Min.Y+1, r.Max.X, r.Max.Y-1),
	}
}

func drawLabel(dst draw.Image, rect stdimage.Rectangle, text string) {
	face := basicfont.Face7x13
	if rect.Dy() < face.Height {
		return
	}

	d := &font.Drawer{
		Dst:  dst,
		Src:  stdimage.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(rect.Min.X+2, rect.Min.Y+face.Ascent),
	}
	d.DrawString(text)
}

func withAlpha(c colour.RGB, alpha float64) color.NRGBA {
	alpha = min(max(alpha, 0), 1)
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(alpha*255 + 0.5)}
}

// EncodePNG writes img to w as PNG.
func EncodePNG(w io.Writer, img stdimage.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode overlay: %w", err)
	}
	return nil
}
