package image

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// BytesPerPixel is the size of one RGBA pixel in a Bitmap.
const BytesPerPixel = 4

var (
	// ErrInvalidDimensions is returned for zero-area bitmaps or pixel buffers
	// that do not match their declared size.
	ErrInvalidDimensions = errors.New("invalid bitmap dimensions")

	// ErrInvalidRegion is returned when a region does not lie within a bitmap.
	ErrInvalidRegion = errors.New("region outside bitmap bounds")
)

// Bitmap is a row-major RGBA pixel buffer with 4 bytes per pixel.
// It is the buffer handed from loading or capture to analysis and rendering.
type Bitmap struct {
	Width  int
	Height int
	Pix    []byte
}

// NewBitmap allocates a zeroed bitmap.
func NewBitmap(width, height int) *Bitmap {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Bitmap{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*BytesPerPixel),
	}
}

// FromImage converts any decoded image into a Bitmap anchored at (0, 0).
func FromImage(img image.Image) *Bitmap {
	bounds := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == bounds.Dx()*BytesPerPixel && bounds.Min == (image.Point{}) {
		pix := make([]byte, len(rgba.Pix))
		copy(pix, rgba.Pix)
		return &Bitmap{Width: bounds.Dx(), Height: bounds.Dy(), Pix: pix}
	}

	// Straight-alpha sources keep their colour channels untouched, the same
	// as a canvas readback would.
	if nrgba, ok := img.(*image.NRGBA); ok {
		bm := NewBitmap(bounds.Dx(), bounds.Dy())
		rowBytes := bounds.Dx() * BytesPerPixel
		for y := 0; y < bounds.Dy(); y++ {
			src := nrgba.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(bm.Pix[y*rowBytes:(y+1)*rowBytes], nrgba.Pix[src:src+rowBytes])
		}
		return bm
	}

	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return &Bitmap{Width: bounds.Dx(), Height: bounds.Dy(), Pix: dst.Pix}
}

// Validate checks that the bitmap is non-empty and its buffer matches its size.
func (b *Bitmap) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil bitmap", ErrInvalidDimensions)
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, b.Width, b.Height)
	}
	if want := b.Width * b.Height * BytesPerPixel; len(b.Pix) != want {
		return fmt.Errorf("%w: pixel buffer is %d bytes, want %d", ErrInvalidDimensions, len(b.Pix), want)
	}
	return nil
}

// ValidateRegion checks that (x, y, width, height) lies within the bitmap.
func (b *Bitmap) ValidateRegion(x, y, width, height int) error {
	if x < 0 || y < 0 || width < 0 || height < 0 || x+width > b.Width || y+height > b.Height {
		return fmt.Errorf("%w: (%d,%d %dx%d) in %dx%d", ErrInvalidRegion, x, y, width, height, b.Width, b.Height)
	}
	return nil
}

// Dims returns the width and height of the bitmap.
func (b *Bitmap) Dims() (int, int) {
	return b.Width, b.Height
}

// RGBAt returns the red, green and blue channels at (x, y).
// Coordinates must be within bounds.
func (b *Bitmap) RGBAt(x, y int) (r, g, bl uint8) {
	i := (y*b.Width + x) * BytesPerPixel
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2]
}

// SetRGBA writes one pixel.
func (b *Bitmap) SetRGBA(x, y int, r, g, bl, a uint8) {
	i := (y*b.Width + x) * BytesPerPixel
	b.Pix[i] = r
	b.Pix[i+1] = g
	b.Pix[i+2] = bl
	b.Pix[i+3] = a
}

// Fill paints the rectangle (x, y, width, height) with an opaque colour,
// clipped to the bitmap.
func (b *Bitmap) Fill(x, y, width, height int, r, g, bl uint8) {
	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+width, b.Width), min(y+height, b.Height)
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			b.SetRGBA(px, py, r, g, bl, 255)
		}
	}
}

// ToRGBA returns a copy of the bitmap as an *image.RGBA.
func (b *Bitmap) ToRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	copy(img.Pix, b.Pix)
	return img
}
