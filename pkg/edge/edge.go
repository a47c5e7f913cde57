// Package edge implements Sobel gradient computation, the full Canny
// pipeline and contour extraction over binary edge maps.
package edge

import (
	"math"

	"github.com/sehyun-dev/pixelengine/pkg/kernel"
	"github.com/sehyun-dev/pixelengine/pkg/pixel"
)

// Edge map pixel classes used between double thresholding and hysteresis.
const (
	classNone   = 0
	classWeak   = 128
	classStrong = 255
)

// Default Canny thresholds.
const (
	DefaultLowThreshold  = 50.0
	DefaultHighThreshold = 150.0
)

// minContourSize is the smallest connected component kept as a contour.
const minContourSize = 10

// Point is an integer pixel coordinate.
type Point struct {
	X int
	Y int
}

// Contour is a connected set of edge pixels. Points carry no particular
// order; the contour is a spatial set produced by region growing.
type Contour []Point

// Result bundles the binary edge map with the contours traced from it.
type Result struct {
	Edges    *pixel.Buffer
	Contours []Contour
}

// Grayscale reduces buf to a single luminance plane using the Rec. 601
// weights 0.299R + 0.587G + 0.114B.
func Grayscale(buf *pixel.Buffer) []float64 {
	gray := make([]float64, buf.Width*buf.Height)
	for i := range gray {
		o := i * pixel.BytesPerPixel
		gray[i] = 0.299*float64(buf.Pix[o]) + 0.587*float64(buf.Pix[o+1]) + 0.114*float64(buf.Pix[o+2])
	}
	return gray
}

// Smooth applies the fixed 3x3 noise-suppression mask to a luminance
// plane, replicating border values.
func Smooth(gray []float64, width, height int) []float64 {
	out := make([]float64, len(gray))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sum float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					sx := clampInt(x+kx, 0, width-1)
					sy := clampInt(y+ky, 0, height-1)
					sum += gray[sy*width+sx] * kernel.Smooth3x3[ky+1][kx+1]
				}
			}
			out[y*width+x] = sum
		}
	}
	return out
}

// Sobel computes gradient magnitude and direction for a luminance plane
// using the fixed 3x3 masks. The one-pixel border is left at zero.
func Sobel(gray []float64, width, height int) (magnitude, direction []float64) {
	magnitude = make([]float64, len(gray))
	direction = make([]float64, len(gray))

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := gray[(y+ky)*width+x+kx]
					gx += v * float64(kernel.SobelX[ky+1][kx+1])
					gy += v * float64(kernel.SobelY[ky+1][kx+1])
				}
			}
			i := y*width + x
			magnitude[i] = math.Sqrt(gx*gx + gy*gy)
			direction[i] = math.Atan2(gy, gx)
		}
	}
	return magnitude, direction
}

// BinaryMap thresholds the smoothed Sobel magnitude of buf into a 0/255
// plane. It is the cheap edge map used by segmentation.
func BinaryMap(buf *pixel.Buffer, threshold float64) []uint8 {
	gray := Smooth(Grayscale(buf), buf.Width, buf.Height)
	mag, _ := Sobel(gray, buf.Width, buf.Height)
	out := make([]uint8, len(mag))
	for i, m := range mag {
		if m > threshold {
			out[i] = classStrong
		}
	}
	return out
}

// Detect runs the full Canny pipeline on buf and traces contours from the
// resulting map. The returned edge map is a greyscale buffer with the edge
// value replicated across RGB and alpha fixed at 255.
func Detect(buf *pixel.Buffer, lowThreshold, highThreshold float64) (*Result, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	if lowThreshold < 0 || highThreshold < lowThreshold {
		return nil, &pixel.ConfigurationError{
			Option: "thresholds",
			Reason: "low must be non-negative and not exceed high",
		}
	}

	edges := canny(buf, lowThreshold, highThreshold, 1.4)
	contours := TraceContours(edges, buf.Width, buf.Height)

	out := &pixel.Buffer{
		Width:  buf.Width,
		Height: buf.Height,
		Pix:    make([]uint8, len(buf.Pix)),
	}
	for i, v := range edges {
		o := i * pixel.BytesPerPixel
		out.Pix[o] = v
		out.Pix[o+1] = v
		out.Pix[o+2] = v
		out.Pix[o+3] = 255
	}
	return &Result{Edges: out, Contours: contours}, nil
}

// canny produces a 0/255 edge plane: Gaussian blur, Sobel gradients,
// non-maximum suppression, double threshold, hysteresis.
func canny(buf *pixel.Buffer, low, high, sigma float64) []uint8 {
	gray := Grayscale(buf)
	gray = blurPlane(gray, buf.Width, buf.Height, sigma)
	mag, dir := Sobel(gray, buf.Width, buf.Height)
	suppressed := nonMaxSuppression(mag, dir, buf.Width, buf.Height)
	classes := doubleThreshold(suppressed, low, high)
	return hysteresis(classes, buf.Width, buf.Height)
}

// blurPlane is a separable Gaussian blur over a luminance plane. Unlike
// the shared RGBA convolution it renormalizes by the weights actually
// used at the borders; without that, the darkened frame of a perfectly
// flat image would read as a gradient and leak phantom edges into the
// detector.
func blurPlane(gray []float64, width, height int, sigma float64) []float64 {
	k := kernel.GaussianSigma(sigma)
	half := len(k) / 2

	tmp := make([]float64, len(gray))
	for y := 0; y < height; y++ {
		row := y * width
		for x := 0; x < width; x++ {
			var sum, wsum float64
			for i, w := range k {
				sx := x + i - half
				if sx < 0 || sx >= width {
					continue
				}
				sum += gray[row+sx] * w
				wsum += w
			}
			tmp[row+x] = sum / wsum
		}
	}

	out := make([]float64, len(gray))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sum, wsum float64
			for i, w := range k {
				sy := y + i - half
				if sy < 0 || sy >= height {
					continue
				}
				sum += tmp[sy*width+x] * w
				wsum += w
			}
			out[y*width+x] = sum / wsum
		}
	}
	return out
}

// nonMaxSuppression thins gradient ridges to single-pixel width by keeping
// only pixels whose magnitude is a local maximum along the gradient
// direction, quantized into four 45-degree bins.
func nonMaxSuppression(mag, dir []float64, width, height int) []float64 {
	out := make([]float64, len(mag))
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			m := mag[i]
			if m == 0 {
				continue
			}

			angle := dir[i] * 180 / math.Pi
			if angle < 0 {
				angle += 180
			}

			var q, r float64
			switch {
			case angle < 22.5 || angle >= 157.5:
				q = mag[i+1]
				r = mag[i-1]
			case angle < 67.5:
				q = mag[i+width+1]
				r = mag[i-width-1]
			case angle < 112.5:
				q = mag[i+width]
				r = mag[i-width]
			default:
				q = mag[i+width-1]
				r = mag[i-width+1]
			}

			if m >= q && m >= r {
				out[i] = m
			}
		}
	}
	return out
}

// doubleThreshold classifies each pixel as strong (255), weak (128) or
// none (0).
func doubleThreshold(mag []float64, low, high float64) []uint8 {
	out := make([]uint8, len(mag))
	for i, m := range mag {
		switch {
		case m >= high:
			out[i] = classStrong
		case m >= low:
			out[i] = classWeak
		}
	}
	return out
}

// hysteresis promotes weak pixels that are 8-connected to a strong pixel
// and drops the rest. Promotion spreads with an explicit stack so chains of
// weak pixels attached to a strong one survive.
func hysteresis(classes []uint8, width, height int) []uint8 {
	out := make([]uint8, len(classes))
	stack := make([]int, 0, width)

	for i, c := range classes {
		if c == classStrong {
			out[i] = classStrong
			stack = append(stack, i)
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x := i % width
		y := i / width

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				n := ny*width + nx
				if classes[n] == classWeak && out[n] == 0 {
					out[n] = classStrong
					stack = append(stack, n)
				}
			}
		}
	}
	return out
}

// TraceContours flood-fills the 8-connected components of a 0/255 edge
// plane. Components with at least ten pixels become contours; smaller ones
// are discarded as noise.
func TraceContours(edges []uint8, width, height int) []Contour {
	visited := make([]bool, len(edges))
	var contours []Contour
	stack := make([]Point, 0, 64)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			start := y*width + x
			if edges[start] == 0 || visited[start] {
				continue
			}

			var contour Contour
			stack = append(stack[:0], Point{X: x, Y: y})
			visited[start] = true

			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				contour = append(contour, p)

				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := p.X+dx, p.Y+dy
						if nx < 0 || nx >= width || ny < 0 || ny >= height {
							continue
						}
						n := ny*width + nx
						if edges[n] != 0 && !visited[n] {
							visited[n] = true
							stack = append(stack, Point{X: nx, Y: ny})
						}
					}
				}
			}

			if len(contour) >= minContourSize {
				contours = append(contours, contour)
			}
		}
	}
	return contours
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
