package pixel

import (
	"errors"
	"image"
	"testing"
)

func TestNew(t *testing.T) {
	buf, err := New(4, 3)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if buf.Width != 4 || buf.Height != 3 {
		t.Errorf("Expected 4x3, got %dx%d", buf.Width, buf.Height)
	}
	if len(buf.Pix) != 4*3*4 {
		t.Errorf("Expected %d bytes, got %d", 4*3*4, len(buf.Pix))
	}
}

func TestNewInvalidDimensions(t *testing.T) {
	cases := [][2]int{{0, 10}, {10, 0}, {-1, 5}, {5, -1}, {0, 0}}
	for _, c := range cases {
		_, err := New(c[0], c[1])
		var invalid *InvalidBufferError
		if !errors.As(err, &invalid) {
			t.Errorf("New(%d, %d): expected InvalidBufferError, got %v", c[0], c[1], err)
		}
	}
}

func TestValidateLengthMismatch(t *testing.T) {
	buf := &Buffer{Width: 2, Height: 2, Pix: make([]uint8, 15)}
	var invalid *InvalidBufferError
	if !errors.As(buf.Validate(), &invalid) {
		t.Error("Expected InvalidBufferError for length mismatch")
	}
	if invalid.PixLen != 15 {
		t.Errorf("Expected PixLen 15, got %d", invalid.PixLen)
	}
}

func TestCloneIsDeep(t *testing.T) {
	buf, _ := New(2, 2)
	buf.SetRGBA(0, 0, 10, 20, 30, 40)

	clone := buf.Clone()
	clone.SetRGBA(0, 0, 1, 2, 3, 4)

	r, _, _, _ := buf.RGBA(0, 0)
	if r != 10 {
		t.Error("Clone mutation leaked into the original buffer")
	}
}

func TestNRGBARoundTrip(t *testing.T) {
	buf, _ := New(3, 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			buf.SetRGBA(x, y, uint8(x*40), uint8(y*80), 100, uint8(200-x))
		}
	}

	back := FromNRGBA(buf.ToNRGBA())
	if back.Width != buf.Width || back.Height != buf.Height {
		t.Fatalf("Dimensions changed: %dx%d", back.Width, back.Height)
	}
	for i := range buf.Pix {
		if back.Pix[i] != buf.Pix[i] {
			t.Fatalf("Pixel data changed at byte %d", i)
		}
	}
}

func TestFromNRGBAWithStride(t *testing.T) {
	// A subimage has a stride wider than its row length.
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for i := range img.Pix {
		img.Pix[i] = uint8(i % 251)
	}
	sub := img.SubImage(image.Rect(2, 2, 6, 5)).(*image.NRGBA)

	buf := FromNRGBA(sub)
	if buf.Width != 4 || buf.Height != 3 {
		t.Fatalf("Expected 4x3, got %dx%d", buf.Width, buf.Height)
	}
	r, g, b, a := buf.RGBA(0, 0)
	c := img.NRGBAAt(2, 2)
	if r != c.R || g != c.G || b != c.B || a != c.A {
		t.Error("Subimage pixel mismatch after conversion")
	}
}

func TestCheckAllocation(t *testing.T) {
	if err := CheckAllocation(100, 100, 1<<30); err != nil {
		t.Errorf("Small buffer should pass: %v", err)
	}

	err := CheckAllocation(20000, 20000, 1<<20)
	var alloc *AllocationError
	if !errors.As(err, &alloc) {
		t.Fatalf("Expected AllocationError, got %v", err)
	}
	if alloc.Limit != 1<<20 {
		t.Errorf("Expected limit %d, got %d", 1<<20, alloc.Limit)
	}

	// Zero limit disables the check.
	if err := CheckAllocation(20000, 20000, 0); err != nil {
		t.Errorf("Zero limit should disable the check: %v", err)
	}
}

func TestEstimatedBytes(t *testing.T) {
	got := EstimatedBytes(100, 100)
	want := int64(100 * 100 * 4 * 1.2)
	if got != want {
		t.Errorf("Expected %d, got %d", want, got)
	}
}
