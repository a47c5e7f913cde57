// Package pixel defines the raw RGBA buffer that every processing stage
// reads and writes, together with the error types shared by the engine.
package pixel

import (
	"image"
)

// BytesPerPixel is the size of one interleaved R,G,B,A sample.
const BytesPerPixel = 4

// Buffer is a width/height-tagged RGBA byte array, 8 bits per channel,
// row-major, top-to-bottom. len(Pix) is always Width*Height*4 for a valid
// buffer. Transforms allocate a fresh output Buffer instead of mutating
// their input, so stages can be composed without aliasing.
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// New allocates a zeroed buffer of the given dimensions.
func New(width, height int) (*Buffer, error) {
	b := &Buffer{
		Width:  width,
		Height: height,
	}
	if width <= 0 || height <= 0 {
		return nil, &InvalidBufferError{Width: width, Height: height}
	}
	b.Pix = make([]uint8, width*height*BytesPerPixel)
	return b, nil
}

// Validate checks the buffer invariants: positive dimensions and a pixel
// slice of exactly Width*Height*4 bytes.
func (b *Buffer) Validate() error {
	if b == nil || b.Width <= 0 || b.Height <= 0 || len(b.Pix) != b.Width*b.Height*BytesPerPixel {
		e := &InvalidBufferError{}
		if b != nil {
			e.Width = b.Width
			e.Height = b.Height
			e.PixLen = len(b.Pix)
		}
		return e
	}
	return nil
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{
		Width:  b.Width,
		Height: b.Height,
		Pix:    make([]uint8, len(b.Pix)),
	}
	copy(out.Pix, b.Pix)
	return out
}

// Offset returns the index of pixel (x, y) in Pix.
func (b *Buffer) Offset(x, y int) int {
	return (y*b.Width + x) * BytesPerPixel
}

// RGBA returns the four channel values at (x, y).
func (b *Buffer) RGBA(x, y int) (r, g, bl, a uint8) {
	i := b.Offset(x, y)
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3]
}

// SetRGBA writes the four channel values at (x, y).
func (b *Buffer) SetRGBA(x, y int, r, g, bl, a uint8) {
	i := b.Offset(x, y)
	b.Pix[i] = r
	b.Pix[i+1] = g
	b.Pix[i+2] = bl
	b.Pix[i+3] = a
}

// FromNRGBA wraps the pixels of an image.NRGBA into a Buffer, compacting
// the stride if needed. The NRGBA layout matches the Buffer layout, so for
// a tight-packed image this is a copy of the pixel slice.
func FromNRGBA(img *image.NRGBA) *Buffer {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	out := &Buffer{
		Width:  w,
		Height: h,
		Pix:    make([]uint8, w*h*BytesPerPixel),
	}
	rowLen := w * BytesPerPixel
	for y := 0; y < h; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+rowLen]
		copy(out.Pix[y*rowLen:(y+1)*rowLen], src)
	}
	return out
}

// ToNRGBA copies the buffer into a freshly allocated image.NRGBA.
func (b *Buffer) ToNRGBA() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	rowLen := b.Width * BytesPerPixel
	for y := 0; y < b.Height; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+rowLen], b.Pix[y*rowLen:(y+1)*rowLen])
	}
	return img
}
