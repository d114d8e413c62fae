package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"image/png"
	mathrand "math/rand/v2"

	"github.com/jmylchreest/contrastlens/internal/image"
	"github.com/jmylchreest/contrastlens/internal/security"
	"github.com/jmylchreest/contrastlens/pkg/capture"
)

const (
	defaultWidth  = 640
	defaultHeight = 480
	defaultPanel  = 64
	minPanel      = 16
	maxDimension  = 8192
)

// PatternSource implements capture.Source.
type PatternSource struct{}

// Capture renders a synthetic page and returns it PNG-encoded.
func (p *PatternSource) Capture(ctx context.Context, opts capture.CaptureOptions) ([]byte, error) {
	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	if width > maxDimension || height > maxDimension {
		return nil, fmt.Errorf("requested size %dx%d exceeds %d", width, height, maxDimension)
	}

	panel := defaultPanel
	if v, ok := opts.PluginArgs["panel"].(float64); ok {
		panel = max(int(v), minPanel)
	}

	bm := Render(width, height, panel, seedFrom(opts.PluginArgs))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, bm.ToRGBA()); err != nil {
		return nil, fmt.Errorf("failed to encode page: %w", err)
	}
	return buf.Bytes(), nil
}

// Info returns plugin metadata.
func (p *PatternSource) Info() capture.SourceInfo {
	return capture.SourceInfo{
		Name:            "pattern",
		Version:         "0.1.0",
		Description:     "Synthetic test page with seeded panel colours",
		ProtocolVersion: capture.ProtocolVersion,
	}
}

func seedFrom(args map[string]any) uint64 {
	if v, ok := args["seed"].(float64); ok {
		return uint64(v)
	}
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b[:])
}

// Render draws panels of panel×panel pixels. Every other panel uses a text
// colour close to its background.
func Render(width, height, panel int, seed uint64) *image.Bitmap {
	var seedArray [32]byte
	binary.LittleEndian.PutUint64(seedArray[:8], seed)
	// #nosec G404 -- deterministic page layout, not cryptography
	rng := mathrand.New(mathrand.NewChaCha8(seedArray))

	bm := image.NewBitmap(width, height)
	i := 0
	for y := 0; y < height; y += panel {
		for x := 0; x < width; x += panel {
			w, h := min(panel, width-x), min(panel, height-y)
			bg := [3]uint8{uint8(rng.IntN(256)), uint8(rng.IntN(256)), uint8(rng.IntN(256))}
			fg := textColour(rng, bg, i%2 == 1)
			bm.Fill(x, y, w, h, bg[0], bg[1], bg[2])

			// Text bars: 4px high with 4px gaps, inset from the panel edge.
			for ty := y + 8; ty+4 <= y+h-4; ty += 8 {
				bm.Fill(x+4, ty, max(w-8, 0), 4, fg[0], fg[1], fg[2])
			}
			i++
		}
	}
	return bm
}

func textColour(rng *mathrand.Rand, bg [3]uint8, low bool) [3]uint8 {
	if !low {
		// Opposite end of the range from the background.
		var fg [3]uint8
		for c := range bg {
			fg[c] = 255 - bg[c]
		}
		return fg
	}
	var fg [3]uint8
	for c := range bg {
		delta := rng.IntN(25) - 12
		fg[c] = security.SafeUint8(int(bg[c]) + delta)
	}
	return fg
}
