package image

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestNewBitmap(t *testing.T) {
	bm := NewBitmap(3, 2)
	if bm.Width != 3 || bm.Height != 2 {
		t.Fatalf("NewBitmap() = %dx%d, want 3x2", bm.Width, bm.Height)
	}
	if len(bm.Pix) != 3*2*BytesPerPixel {
		t.Errorf("len(Pix) = %d, want %d", len(bm.Pix), 3*2*BytesPerPixel)
	}
	if err := bm.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestBitmapValidate(t *testing.T) {
	tests := []struct {
		name string
		bm   *Bitmap
	}{
		{name: "nil", bm: nil},
		{name: "zero width", bm: &Bitmap{Width: 0, Height: 4}},
		{name: "negative height", bm: &Bitmap{Width: 4, Height: -1}},
		{name: "short buffer", bm: &Bitmap{Width: 2, Height: 2, Pix: make([]byte, 8)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bm.Validate()
			if !errors.Is(err, ErrInvalidDimensions) {
				t.Errorf("Validate() = %v, want ErrInvalidDimensions", err)
			}
		})
	}
}

func TestBitmapValidateRegion(t *testing.T) {
	bm := NewBitmap(10, 10)

	if err := bm.ValidateRegion(0, 0, 10, 10); err != nil {
		t.Errorf("ValidateRegion(full) unexpected error: %v", err)
	}
	if err := bm.ValidateRegion(8, 8, 4, 4); !errors.Is(err, ErrInvalidRegion) {
		t.Errorf("ValidateRegion(overhang) = %v, want ErrInvalidRegion", err)
	}
	if err := bm.ValidateRegion(-1, 0, 2, 2); !errors.Is(err, ErrInvalidRegion) {
		t.Errorf("ValidateRegion(negative) = %v, want ErrInvalidRegion", err)
	}
}

func TestBitmapPixelAccess(t *testing.T) {
	bm := NewBitmap(4, 4)
	bm.SetRGBA(2, 1, 10, 20, 30, 40)

	r, g, b := bm.RGBAt(2, 1)
	if r != 10 || g != 20 || b != 30 {
		t.Errorf("RGBAt(2,1) = (%d,%d,%d), want (10,20,30)", r, g, b)
	}

	w, h := bm.Dims()
	if w != 4 || h != 4 {
		t.Errorf("Dims() = (%d,%d), want (4,4)", w, h)
	}
}

func TestBitmapFillClips(t *testing.T) {
	bm := NewBitmap(4, 4)
	bm.Fill(2, 2, 10, 10, 255, 0, 0)

	if r, _, _ := bm.RGBAt(3, 3); r != 255 {
		t.Errorf("RGBAt(3,3) red = %d, want 255", r)
	}
	if r, _, _ := bm.RGBAt(1, 1); r != 0 {
		t.Errorf("RGBAt(1,1) red = %d, want 0", r)
	}
}

func TestFromImage(t *testing.T) {
	t.Run("rgba with offset bounds", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(5, 5, 9, 8))
		src.Set(5, 5, color.RGBA{R: 1, G: 2, B: 3, A: 255})
		src.Set(8, 7, color.RGBA{R: 4, G: 5, B: 6, A: 255})

		bm := FromImage(src)
		if bm.Width != 4 || bm.Height != 3 {
			t.Fatalf("FromImage() = %dx%d, want 4x3", bm.Width, bm.Height)
		}
		if r, g, b := bm.RGBAt(0, 0); r != 1 || g != 2 || b != 3 {
			t.Errorf("RGBAt(0,0) = (%d,%d,%d), want (1,2,3)", r, g, b)
		}
		if r, g, b := bm.RGBAt(3, 2); r != 4 || g != 5 || b != 6 {
			t.Errorf("RGBAt(3,2) = (%d,%d,%d), want (4,5,6)", r, g, b)
		}
	})

	t.Run("nrgba keeps straight colour", func(t *testing.T) {
		src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
		src.SetNRGBA(1, 1, color.NRGBA{R: 200, G: 100, B: 50, A: 0})

		bm := FromImage(src)
		if r, g, b := bm.RGBAt(1, 1); r != 200 || g != 100 || b != 50 {
			t.Errorf("RGBAt(1,1) = (%d,%d,%d), want (200,100,50)", r, g, b)
		}
	})

	t.Run("gray", func(t *testing.T) {
		src := image.NewGray(image.Rect(0, 0, 2, 1))
		src.SetGray(1, 0, color.Gray{Y: 77})

		bm := FromImage(src)
		if r, g, b := bm.RGBAt(1, 0); r != 77 || g != 77 || b != 77 {
			t.Errorf("RGBAt(1,0) = (%d,%d,%d), want (77,77,77)", r, g, b)
		}
	})

	t.Run("copy is independent", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 1, 1))
		bm := FromImage(src)
		bm.SetRGBA(0, 0, 9, 9, 9, 255)
		if src.Pix[0] != 0 {
			t.Error("FromImage() shares the source pixel buffer")
		}
	})
}

func TestToRGBA(t *testing.T) {
	bm := NewBitmap(2, 2)
	bm.SetRGBA(1, 0, 11, 22, 33, 255)

	img := bm.ToRGBA()
	got := img.RGBAAt(1, 0)
	if got != (color.RGBA{R: 11, G: 22, B: 33, A: 255}) {
		t.Errorf("RGBAAt(1,0) = %v, want {11 22 33 255}", got)
	}
}
