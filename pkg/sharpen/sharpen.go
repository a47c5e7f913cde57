// Package sharpen implements unsharp masking and the mild fixed-kernel
// sharpening used by the enhancement pipeline.
package sharpen

import (
	"math"

	"github.com/sehyun-dev/pixelengine/pkg/kernel"
	"github.com/sehyun-dev/pixelengine/pkg/pixel"
)

// Defaults used by the enhancement pipeline.
const (
	DefaultAmount    = 1.2
	DefaultRadius    = 0.8
	DefaultThreshold = 5.0
)

// UnsharpMask sharpens buf by amplifying its difference from a Gaussian
// blurred copy. For each pixel, if any RGB channel differs from the blurred
// version by more than threshold, the channel values become
// clamp(original + diff*amount); pixels under the threshold are left
// unchanged. The alpha channel is never touched.
func UnsharpMask(buf *pixel.Buffer, amount, radius, threshold float64) (*pixel.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	blurred := kernel.Separable(buf, kernel.Gaussian(radius))
	out := buf.Clone()

	for i := 0; i < len(buf.Pix); i += pixel.BytesPerPixel {
		dr := float64(buf.Pix[i]) - float64(blurred.Pix[i])
		dg := float64(buf.Pix[i+1]) - float64(blurred.Pix[i+1])
		db := float64(buf.Pix[i+2]) - float64(blurred.Pix[i+2])

		if math.Abs(dr) > threshold || math.Abs(dg) > threshold || math.Abs(db) > threshold {
			out.Pix[i] = clamp8(float64(buf.Pix[i]) + dr*amount)
			out.Pix[i+1] = clamp8(float64(buf.Pix[i+1]) + dg*amount)
			out.Pix[i+2] = clamp8(float64(buf.Pix[i+2]) + db*amount)
		}
	}
	return out, nil
}

// crispKernel is the mild 3x3 sharpening mask applied as the last step of
// the enhancement pipeline.
var crispKernel = [3][3]float64{
	{0, -0.5, 0},
	{-0.5, 3, -0.5},
	{0, -0.5, 0},
}

// Crisp applies the fixed 3x3 sharpening convolution. Border pixels are
// handled by replicating edge values. Alpha passes through unchanged.
func Crisp(buf *pixel.Buffer) (*pixel.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	out := buf.Clone()
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			var r, g, b float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					w := crispKernel[ky+1][kx+1]
					if w == 0 {
						continue
					}
					sx := clampInt(x+kx, 0, buf.Width-1)
					sy := clampInt(y+ky, 0, buf.Height-1)
					o := buf.Offset(sx, sy)
					r += float64(buf.Pix[o]) * w
					g += float64(buf.Pix[o+1]) * w
					b += float64(buf.Pix[o+2]) * w
				}
			}
			o := buf.Offset(x, y)
			out.Pix[o] = clamp8(r)
			out.Pix[o+1] = clamp8(g)
			out.Pix[o+2] = clamp8(b)
		}
	}
	return out, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
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
