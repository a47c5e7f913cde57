// Package kernel provides the 1-D Gaussian kernel builder and the two-pass
// separable convolution shared by the blur, sharpen and upscale stages.
package kernel

import (
	"math"

	"github.com/sehyun-dev/pixelengine/pkg/pixel"
)

// Gaussian builds a normalized 1-D Gaussian kernel of size ceil(radius*2)+1
// with sigma equal to the radius. A radius of zero or less yields the
// identity kernel.
func Gaussian(radius float64) []float64 {
	if radius <= 0 {
		return []float64{1}
	}
	size := int(math.Ceil(radius*2)) + 1
	if size%2 == 0 {
		size++
	}
	return build(size, radius)
}

// GaussianSigma builds a normalized 1-D Gaussian kernel sized from sigma:
// ceil(sigma*3)*2+1 taps, covering three standard deviations per side.
func GaussianSigma(sigma float64) []float64 {
	if sigma <= 0 {
		return []float64{1}
	}
	size := int(math.Ceil(sigma*3))*2 + 1
	return build(size, sigma)
}

func build(size int, sigma float64) []float64 {
	k := make([]float64, size)
	center := size / 2
	sum := 0.0
	for i := range k {
		x := float64(i - center)
		k[i] = math.Exp(-x * x / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// Separable applies a 1-D kernel in a horizontal pass into a temporary
// buffer and then a vertical pass into the output. Taps that fall outside
// the image are skipped without renormalizing the kernel, so borders come
// out slightly darker than the interior. That matches the behavior the
// rest of the pipeline was tuned against.
func Separable(buf *pixel.Buffer, k []float64) *pixel.Buffer {
	tmp := &pixel.Buffer{
		Width:  buf.Width,
		Height: buf.Height,
		Pix:    make([]uint8, len(buf.Pix)),
	}
	out := &pixel.Buffer{
		Width:  buf.Width,
		Height: buf.Height,
		Pix:    make([]uint8, len(buf.Pix)),
	}
	half := len(k) / 2

	// Horizontal pass.
	for y := 0; y < buf.Height; y++ {
		row := y * buf.Width * pixel.BytesPerPixel
		for x := 0; x < buf.Width; x++ {
			var r, g, b, a float64
			for i, w := range k {
				sx := x + i - half
				if sx < 0 || sx >= buf.Width {
					continue
				}
				o := row + sx*pixel.BytesPerPixel
				r += float64(buf.Pix[o]) * w
				g += float64(buf.Pix[o+1]) * w
				b += float64(buf.Pix[o+2]) * w
				a += float64(buf.Pix[o+3]) * w
			}
			o := row + x*pixel.BytesPerPixel
			tmp.Pix[o] = clamp8(r)
			tmp.Pix[o+1] = clamp8(g)
			tmp.Pix[o+2] = clamp8(b)
			tmp.Pix[o+3] = clamp8(a)
		}
	}

	// Vertical pass.
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			var r, g, b, a float64
			for i, w := range k {
				sy := y + i - half
				if sy < 0 || sy >= buf.Height {
					continue
				}
				o := (sy*buf.Width + x) * pixel.BytesPerPixel
				r += float64(tmp.Pix[o]) * w
				g += float64(tmp.Pix[o+1]) * w
				b += float64(tmp.Pix[o+2]) * w
				a += float64(tmp.Pix[o+3]) * w
			}
			o := (y*buf.Width + x) * pixel.BytesPerPixel
			out.Pix[o] = clamp8(r)
			out.Pix[o+1] = clamp8(g)
			out.Pix[o+2] = clamp8(b)
			out.Pix[o+3] = clamp8(a)
		}
	}

	return out
}

// SobelX and SobelY are the fixed 3x3 gradient masks. They are integer
// kernels and deliberately not normalized.
var (
	SobelX = [3][3]int{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	SobelY = [3][3]int{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}
)

// Smooth3x3 is the fixed pre-blur mask used ahead of gradient detection to
// suppress noise. Weights sum to one.
var Smooth3x3 = [3][3]float64{
	{1.0 / 16, 2.0 / 16, 1.0 / 16},
	{2.0 / 16, 4.0 / 16, 2.0 / 16},
	{1.0 / 16, 2.0 / 16, 1.0 / 16},
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(math.Round(v))
}
