package segment

import (
	"math"

	"github.com/sehyun-dev/pixelengine/pkg/pixel"
)

// Feather smooths the jagged boundary a hard cutout leaves behind. Every
// pixel whose alpha is strictly between 0 and 255 has its alpha (and, while
// still visible, its RGB) recomputed as a Gaussian-weighted average of the
// surrounding radius-sized neighborhood. All reads come from the
// pre-feather copy, so the result does not depend on scan order.
func Feather(buf *pixel.Buffer, radius int) *pixel.Buffer {
	if radius < 1 {
		radius = 1
	}

	sigma := float64(radius)
	size := radius*2 + 1
	weights := make([]float64, size*size)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d2 := float64(dx*dx + dy*dy)
			weights[(dy+radius)*size+dx+radius] = math.Exp(-d2 / (2 * sigma * sigma))
		}
	}

	out := buf.Clone()
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			o := buf.Offset(x, y)
			a := buf.Pix[o+3]
			if a == 0 || a == 255 {
				continue
			}

			var sumR, sumG, sumB, sumA, sumW float64
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= buf.Width || ny < 0 || ny >= buf.Height {
						continue
					}
					w := weights[(dy+radius)*size+dx+radius]
					n := buf.Offset(nx, ny)
					sumR += float64(buf.Pix[n]) * w
					sumG += float64(buf.Pix[n+1]) * w
					sumB += float64(buf.Pix[n+2]) * w
					sumA += float64(buf.Pix[n+3]) * w
					sumW += w
				}
			}

			newA := uint8(math.Round(sumA / sumW))
			out.Pix[o+3] = newA
			if newA > 0 {
				out.Pix[o] = uint8(math.Round(sumR / sumW))
				out.Pix[o+1] = uint8(math.Round(sumG / sumW))
				out.Pix[o+2] = uint8(math.Round(sumB / sumW))
			}
		}
	}
	return out
}
