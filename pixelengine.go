// Package pixelengine provides the pixel-processing engine behind the photo
// editing tool: resolution upscaling, sharpening, edge detection and
// background removal operating directly on raw RGBA buffers.
//
// Basic usage:
//
//	package main
//
//	import (
//		"log"
//
//		"github.com/sehyun-dev/pixelengine"
//		"github.com/sehyun-dev/pixelengine/pkg/codec"
//		"github.com/sehyun-dev/pixelengine/pkg/segment"
//	)
//
//	func main() {
//		engine := pixelengine.New()
//
//		// Load an image into a pixel buffer
//		buf, err := codec.Load("photo.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		// Double the resolution
//		big, err := engine.Upscale(buf, 2.0)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		// Sharpen with the default parameters
//		sharp, err := engine.Sharpen(big, 1.2, 0.8, 5)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		// Remove the background and save with transparency
//		cut, err := engine.RemoveBackground(sharp, segment.DefaultOptions())
//		if err != nil {
//			log.Fatal(err)
//		}
//		if err := codec.Save(cut, "photo_cutout.png", "png", 0, false); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The engine consists of five components layered leaves-first:
//
// 1. Pixel (pkg/pixel): the RGBA buffer every algorithm reads and writes
// 2. Kernel (pkg/kernel): 1-D Gaussian generation and separable convolution
// 3. Upscale (pkg/upscale): progressive Lanczos-windowed-sinc magnification
// 4. Edge (pkg/edge): Sobel gradients, the Canny pipeline and contour tracing
// 5. Segment (pkg/segment): three background removal strategies plus blending
//
// Every operation is a synchronous, pure function: it reads an immutable
// input buffer and allocates a fresh output. There is no shared state, no
// locking, and no cancellation inside the engine; hosting applications are
// expected to debounce rapid parameter changes and schedule calls off their
// interactive path themselves.
package pixelengine

import (
	"math"

	"github.com/sehyun-dev/pixelengine/internal/config"
	"github.com/sehyun-dev/pixelengine/pkg/edge"
	"github.com/sehyun-dev/pixelengine/pkg/pixel"
	"github.com/sehyun-dev/pixelengine/pkg/segment"
	"github.com/sehyun-dev/pixelengine/pkg/sharpen"
	"github.com/sehyun-dev/pixelengine/pkg/upscale"
)

// Version of the pixel engine library
const Version = "1.0.0"

// Engine is the high-level entry point for all pixel operations.
type Engine struct {
	cfg *config.Config
}

// New creates an Engine with default configuration.
func New() *Engine {
	return &Engine{cfg: config.Default()}
}

// NewWithConfig creates an Engine with custom configuration.
func NewWithConfig(cfg *config.Config) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Engine{cfg: cfg}
}

// EdgeResult bundles the binary edge map with the traced contours.
type EdgeResult struct {
	Edges    *pixel.Buffer
	Contours []edge.Contour
}

// Upscale magnifies buf by the given factor using progressive Lanczos
// resampling. The scale must be in (1.0, MaxScale]; anything outside that
// range is a configuration error rather than a silent clamp. The estimated
// output size is checked against the configured memory ceiling before any
// work starts.
func (e *Engine) Upscale(buf *pixel.Buffer, scale float64) (*pixel.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	if scale <= 1.0 || scale > e.cfg.Upscale.MaxScale {
		return nil, &pixel.ConfigurationError{
			Option: "scale",
			Reason: "must be greater than 1.0 and at most the configured maximum",
		}
	}

	outW := int(math.Round(float64(buf.Width) * scale))
	outH := int(math.Round(float64(buf.Height) * scale))
	if err := pixel.CheckAllocation(outW, outH, e.cfg.Memory.MaxBufferBytes); err != nil {
		return nil, err
	}

	return upscale.Scale(buf, scale)
}

// Sharpen applies an unsharp mask. Pass zero values to use the configured
// defaults.
func (e *Engine) Sharpen(buf *pixel.Buffer, amount, radius, threshold float64) (*pixel.Buffer, error) {
	if amount <= 0 {
		amount = e.cfg.Sharpen.Amount
	}
	if radius <= 0 {
		radius = e.cfg.Sharpen.Radius
	}
	if threshold <= 0 {
		threshold = e.cfg.Sharpen.Threshold
	}
	return sharpen.UnsharpMask(buf, amount, radius, threshold)
}

// DetectEdges runs the full Canny pipeline and traces contours from the
// resulting map.
func (e *Engine) DetectEdges(buf *pixel.Buffer, lowThreshold, highThreshold float64) (*EdgeResult, error) {
	if lowThreshold <= 0 && highThreshold <= 0 {
		lowThreshold = edge.DefaultLowThreshold
		highThreshold = edge.DefaultHighThreshold
	}
	res, err := edge.Detect(buf, lowThreshold, highThreshold)
	if err != nil {
		return nil, err
	}
	return &EdgeResult{Edges: res.Edges, Contours: res.Contours}, nil
}

// RemoveBackground segments the image and returns a buffer whose alpha
// channel encodes the foreground mask. Callers should encode the result in
// a transparency-preserving format.
func (e *Engine) RemoveBackground(buf *pixel.Buffer, opts segment.Options) (*pixel.Buffer, error) {
	return segment.Remove(buf, opts)
}

// DefaultSegmentOptions returns the configured segmentation defaults.
func (e *Engine) DefaultSegmentOptions() segment.Options {
	return segment.Options{
		Method:        segment.MethodAuto,
		Threshold:     e.cfg.Segment.Threshold,
		Tolerance:     e.cfg.Segment.Tolerance,
		SmoothEdges:   e.cfg.Segment.SmoothEdges,
		FeatherRadius: e.cfg.Segment.FeatherRadius,
	}
}

// GetVersion returns the library version.
func GetVersion() string {
	return Version
}
