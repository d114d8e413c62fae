package colour

// SampleStride is the pixel step used by Sample in both axes.
const SampleStride = 2

// PixelSource is a readable RGBA pixel grid.
type PixelSource interface {
	// Dims returns the width and height in pixels.
	Dims() (width, height int)

	// RGBAt returns the colour channels of the pixel at (x, y). Alpha is not exposed.
	RGBAt(x, y int) (r, g, b uint8)
}

// Sample collects every second pixel of the region (x, y, width, height).
// Pixels outside the source are skipped; callers are expected to clamp the
// region beforehand.
func Sample(src PixelSource, x, y, width, height int) []RGB {
	if width <= 0 || height <= 0 {
		return nil
	}

	srcW, srcH := src.Dims()
	n := ((width + SampleStride - 1) / SampleStride) * ((height + SampleStride - 1) / SampleStride)
	colours := make([]RGB, 0, n)

	for dy := 0; dy < height; dy += SampleStride {
		py := y + dy
		if py < 0 || py >= srcH {
			continue
		}
		for dx := 0; dx < width; dx += SampleStride {
			px := x + dx
			if px < 0 || px >= srcW {
				continue
			}
			r, g, b := src.RGBAt(px, py)
			colours = append(colours, RGB{R: r, G: g, B: b})
		}
	}

	return colours
}
