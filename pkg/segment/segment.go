// Package segment removes image backgrounds by rewriting the alpha channel.
// Three strategies are provided (statistical border-color modeling, explicit
// chroma key, edge-density object detection) plus an auto mode that blends
// two of them, followed by optional alpha feathering.
package segment

import (
	"math"
	"sort"

	"github.com/sehyun-dev/pixelengine/pkg/edge"
	"github.com/sehyun-dev/pixelengine/pkg/pixel"
)

// Method selects the segmentation strategy.
type Method string

const (
	// MethodAuto runs edge-color first, then edge-detect on the result,
	// and blends the two masks conservatively.
	MethodAuto Method = "auto"
	// MethodEdgeColor models the background color from a border band and
	// keys out pixels close to it.
	MethodEdgeColor Method = "edge-color"
	// MethodColorRange keys out pixels within a tolerance of an explicit
	// target color.
	MethodColorRange Method = "color-range"
	// MethodEdgeDetect grows object regions from edge-dense seeds and
	// fades everything outside them.
	MethodEdgeDetect Method = "edge-detect"
)

// Default parameters.
const (
	DefaultThreshold     = 30.0
	DefaultTolerance     = 30.0
	DefaultFeatherRadius = 2
)

// borderMargin is the frame-edge band, in pixels, that edge-detect mode
// never fades.
const borderMargin = 3

// RGB is an explicit target color for color-range keying.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Options controls a single segmentation request.
type Options struct {
	Method        Method
	Threshold     float64
	TargetColor   *RGB
	Tolerance     float64
	SmoothEdges   bool
	FeatherRadius int
}

// DefaultOptions returns the options used by the editing UI: auto method,
// feathering on.
func DefaultOptions() Options {
	return Options{
		Method:        MethodAuto,
		Threshold:     DefaultThreshold,
		Tolerance:     DefaultTolerance,
		SmoothEdges:   true,
		FeatherRadius: DefaultFeatherRadius,
	}
}

// colorModel is the representative background color derived from border
// sampling. It lives for one invocation and is discarded afterwards.
type colorModel struct {
	r, g, b float64
}

// Remove produces a new buffer whose alpha channel encodes the foreground
// mask. It is a deterministic, pure function of the input and options;
// there are no retries and no partial results.
func Remove(buf *pixel.Buffer, opts Options) (*pixel.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	if opts.Method == "" {
		opts.Method = MethodAuto
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.FeatherRadius <= 0 {
		opts.FeatherRadius = DefaultFeatherRadius
	}

	var out *pixel.Buffer
	switch opts.Method {
	case MethodEdgeColor:
		out = edgeColor(buf, opts.Threshold)
	case MethodColorRange:
		if opts.TargetColor == nil {
			return nil, &pixel.ConfigurationError{
				Option: "targetColor",
				Reason: "color-range segmentation requires a target color",
			}
		}
		tolerance := opts.Tolerance
		if tolerance <= 0 {
			tolerance = DefaultTolerance
		}
		out = colorRange(buf, *opts.TargetColor, tolerance)
	case MethodEdgeDetect:
		out = edgeDetect(buf, opts.Threshold)
	case MethodAuto:
		out = auto(buf, opts.Threshold)
	default:
		return nil, &pixel.ConfigurationError{
			Option: "method",
			Reason: "unknown segmentation method " + string(opts.Method),
		}
	}

	if opts.SmoothEdges {
		out = Feather(out, opts.FeatherRadius)
	}
	return out, nil
}

// edgeColor builds a background color model from the image border and keys
// out pixels whose perceptually weighted distance to it falls under the
// threshold. Distances below 0.6x threshold become fully transparent; the
// band between 0.6x and 1.0x fades with an ease-out curve so the cutout
// boundary stays smooth.
func edgeColor(buf *pixel.Buffer, threshold float64) *pixel.Buffer {
	model := borderModel(buf)
	out := buf.Clone()
	inner := threshold * 0.6

	for i := 0; i < len(buf.Pix); i += pixel.BytesPerPixel {
		d := model.distance(buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2])
		if d > threshold {
			continue
		}
		if d <= inner {
			out.Pix[i+3] = 0
			continue
		}
		t := (d - inner) / (threshold - inner)
		out.Pix[i+3] = uint8(math.Round(255 * easeOut(t)))
	}
	return out
}

// borderModel samples a band of roughly 8% of min(width, height) along all
// four edges. The per-channel median gives a first estimate that is robust
// to foreground pixels touching the border; a distance-weighted mean around
// that median then produces the final reference color.
func borderModel(buf *pixel.Buffer) colorModel {
	band := int(0.08 * float64(minInt(buf.Width, buf.Height)))
	if band < 1 {
		band = 1
	}

	var rs, gs, bs []float64
	sample := func(x, y int) {
		o := buf.Offset(x, y)
		rs = append(rs, float64(buf.Pix[o]))
		gs = append(gs, float64(buf.Pix[o+1]))
		bs = append(bs, float64(buf.Pix[o+2]))
	}

	for y := 0; y < buf.Height; y++ {
		inRow := y < band || y >= buf.Height-band
		for x := 0; x < buf.Width; x++ {
			if inRow || x < band || x >= buf.Width-band {
				sample(x, y)
			}
		}
	}

	med := colorModel{r: median(rs), g: median(gs), b: median(bs)}

	// Weighted mean around the median: samples close to the median
	// dominate, outliers contribute almost nothing.
	var sumR, sumG, sumB, sumW float64
	for i := range rs {
		dr := rs[i] - med.r
		dg := gs[i] - med.g
		db := bs[i] - med.b
		dist := math.Sqrt(dr*dr + dg*dg + db*db)
		w := 1 / (1 + dist/30)
		sumR += rs[i] * w
		sumG += gs[i] * w
		sumB += bs[i] * w
		sumW += w
	}
	return colorModel{r: sumR / sumW, g: sumG / sumW, b: sumB / sumW}
}

// distance is the perceptually weighted Euclidean distance to the model
// color. Green is weighted highest per human luminance sensitivity.
func (m colorModel) distance(r, g, b uint8) float64 {
	dr := float64(r) - m.r
	dg := float64(g) - m.g
	db := float64(b) - m.b
	return math.Sqrt(2*dr*dr+4*dg*dg+3*db*db) / 3
}

// colorRange is the plain chroma key: pixels within tolerance of the target
// color (unweighted Euclidean distance) become fully transparent.
func colorRange(buf *pixel.Buffer, target RGB, tolerance float64) *pixel.Buffer {
	out := buf.Clone()
	for i := 0; i < len(buf.Pix); i += pixel.BytesPerPixel {
		dr := float64(buf.Pix[i]) - float64(target.R)
		dg := float64(buf.Pix[i+1]) - float64(target.G)
		db := float64(buf.Pix[i+2]) - float64(target.B)
		if math.Sqrt(dr*dr+dg*dg+db*db) <= tolerance {
			out.Pix[i+3] = 0
		}
	}
	return out
}

// edgeDetect grows object regions from edge-dense seeds and fades the rest
// of the image toward transparent. Seeds are pixels whose 5x5 neighborhood
// holds at least five edge pixels; growth continues while the density stays
// at three or more. Background pixels fade with distance from the image
// center so that a partially detected subject near the middle is not eaten
// into; a 3px frame margin is always preserved.
func edgeDetect(buf *pixel.Buffer, threshold float64) *pixel.Buffer {
	w, h := buf.Width, buf.Height
	edges := edge.BinaryMap(buf, threshold)

	density := func(x, y int) int {
		count := 0
		for dy := -2; dy <= 2; dy++ {
			for dx := -2; dx <= 2; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				if edges[ny*w+nx] != 0 {
					count++
				}
			}
		}
		return count
	}

	object := make([]bool, w*h)
	stack := make([]edge.Point, 0, 256)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if object[y*w+x] || density(x, y) < 5 {
				continue
			}
			object[y*w+x] = true
			stack = append(stack[:0], edge.Point{X: x, Y: y})
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := p.X+dx, p.Y+dy
						if nx < 0 || nx >= w || ny < 0 || ny >= h {
							continue
						}
						if object[ny*w+nx] || density(nx, ny) < 3 {
							continue
						}
						object[ny*w+nx] = true
						stack = append(stack, edge.Point{X: nx, Y: ny})
					}
				}
			}
		}
	}

	out := buf.Clone()
	cx := float64(w) / 2
	cy := float64(h) / 2
	maxDist := math.Sqrt(cx*cx + cy*cy)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if object[y*w+x] {
				continue
			}
			if x < borderMargin || x >= w-borderMargin || y < borderMargin || y >= h-borderMargin {
				continue
			}
			dx := float64(x) - cx
			dy := float64(y) - cy
			weight := 1 - math.Sqrt(dx*dx+dy*dy)/maxDist
			o := buf.Offset(x, y)
			faded := float64(buf.Pix[o+3]) * weight
			out.Pix[o+3] = uint8(math.Round(faded))
		}
	}
	return out
}

// auto runs edge-color first, then edge-detect at 1.5x threshold on its
// result, and blends the masks with a deliberate bias toward keeping
// foreground: a pixel goes fully transparent only where both strategies
// agree, near-transparent pixels take the minimum, and everything else
// keeps the value closer to opaque.
func auto(buf *pixel.Buffer, threshold float64) *pixel.Buffer {
	colored := edgeColor(buf, threshold)
	edged := edgeDetect(colored, threshold*1.5)

	out := buf.Clone()
	for i := 3; i < len(buf.Pix); i += pixel.BytesPerPixel {
		ae := float64(edged.Pix[i])
		ac := float64(colored.Pix[i])
		switch {
		case ae == 0 && ac == 0:
			out.Pix[i] = 0
		case ae < 50 && ac < 50:
			out.Pix[i] = uint8(math.Min(ae, ac))
		default:
			out.Pix[i] = uint8(math.Max(ae, ac*0.7))
		}
	}
	return out
}

func easeOut(t float64) float64 {
	return t * (2 - t)
}

func median(values []float64) float64 {
	s := make([]float64, len(values))
	copy(s, values)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
