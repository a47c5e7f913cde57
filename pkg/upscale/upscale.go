// Package upscale magnifies pixel buffers with progressive Lanczos
// resampling, falling back to a cheaper linear resize for very large
// sources.
package upscale

import (
	"math"

	"github.com/disintegration/imaging"

	"github.com/sehyun-dev/pixelengine/pkg/pixel"
)

// lanczosSupport is the support radius of the windowed sinc.
const lanczosSupport = 3

// LanczosPixelLimit is the source pixel count above which a single resize
// pass switches from Lanczos to a linear filter. Full Lanczos on very large
// images costs more latency than the quality difference is worth. The value
// is tunable, not a correctness guarantee.
const LanczosPixelLimit = 500_000

// Scale magnifies buf by the given factor. A scale of 1.0 or less is a
// no-op returning the input buffer unchanged. Large factors are reached by
// doubling the resolution per pass until the next doubling would overshoot
// the target, then doing one exact final resize, which keeps every
// individual jump small enough for the filter to stay sharp.
func Scale(buf *pixel.Buffer, scale float64) (*pixel.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	if scale <= 1.0 {
		return buf, nil
	}

	targetW := int(math.Round(float64(buf.Width) * scale))
	targetH := int(math.Round(float64(buf.Height) * scale))

	cur := buf
	for cur.Width*2 <= targetW && cur.Height*2 <= targetH {
		cur = resize(cur, cur.Width*2, cur.Height*2)
	}
	if cur.Width != targetW || cur.Height != targetH {
		cur = resize(cur, targetW, targetH)
	}
	return cur, nil
}

// resize performs one resampling pass to the exact target dimensions.
func resize(src *pixel.Buffer, width, height int) *pixel.Buffer {
	if src.Width*src.Height > LanczosPixelLimit {
		resized := imaging.Resize(src.ToNRGBA(), width, height, imaging.Linear)
		return pixel.FromNRGBA(resized)
	}
	return lanczos(src, width, height)
}

// lanczos resamples src to width x height with an a=3 windowed sinc. Each
// target pixel accumulates a weighted sum over the source pixels within
// the support radius of its fractional source position; the sum of weights
// actually used normalizes the result, which also handles clipping at the
// borders.
func lanczos(src *pixel.Buffer, width, height int) *pixel.Buffer {
	out := &pixel.Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*pixel.BytesPerPixel),
	}
	scaleX := float64(src.Width) / float64(width)
	scaleY := float64(src.Height) / float64(height)

	for y := 0; y < height; y++ {
		srcY := float64(y) * scaleY
		y0 := int(math.Floor(srcY)) - lanczosSupport + 1
		y1 := int(math.Floor(srcY)) + lanczosSupport
		for x := 0; x < width; x++ {
			srcX := float64(x) * scaleX
			x0 := int(math.Floor(srcX)) - lanczosSupport + 1
			x1 := int(math.Floor(srcX)) + lanczosSupport

			var r, g, b, a, wsum float64
			for sy := y0; sy <= y1; sy++ {
				if sy < 0 || sy >= src.Height {
					continue
				}
				wy := lanczosWeight(srcY - float64(sy))
				if wy == 0 {
					continue
				}
				row := sy * src.Width * pixel.BytesPerPixel
				for sx := x0; sx <= x1; sx++ {
					if sx < 0 || sx >= src.Width {
						continue
					}
					w := wy * lanczosWeight(srcX-float64(sx))
					if w == 0 {
						continue
					}
					o := row + sx*pixel.BytesPerPixel
					r += float64(src.Pix[o]) * w
					g += float64(src.Pix[o+1]) * w
					b += float64(src.Pix[o+2]) * w
					a += float64(src.Pix[o+3]) * w
					wsum += w
				}
			}

			o := (y*width + x) * pixel.BytesPerPixel
			if wsum != 0 {
				out.Pix[o] = clamp8(r / wsum)
				out.Pix[o+1] = clamp8(g / wsum)
				out.Pix[o+2] = clamp8(b / wsum)
				out.Pix[o+3] = clamp8(a / wsum)
			}
		}
	}
	return out
}

// lanczosWeight evaluates the Lanczos window: 1 at zero, 0 beyond the
// support radius, a*sin(pi x)*sin(pi x / a)/(pi^2 x^2) in between.
func lanczosWeight(x float64) float64 {
	x = math.Abs(x)
	if x == 0 {
		return 1
	}
	if x >= lanczosSupport {
		return 0
	}
	px := math.Pi * x
	return lanczosSupport * math.Sin(px) * math.Sin(px/lanczosSupport) / (px * px)
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
