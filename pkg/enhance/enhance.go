// Package enhance chains the engine primitives into the local quality
// enhancement pipeline: light denoising, progressive upscaling, unsharp
// masking, a midtone contrast lift and a final mild sharpening pass.
package enhance

import (
	"context"
	"fmt"
	"image"

	"github.com/disintegration/gift"

	"github.com/sehyun-dev/pixelengine/pkg/kernel"
	"github.com/sehyun-dev/pixelengine/pkg/pixel"
	"github.com/sehyun-dev/pixelengine/pkg/sharpen"
	"github.com/sehyun-dev/pixelengine/pkg/upscale"
)

// Pipeline parameters. The unsharp step mirrors the enhancement service's
// post-processing (blend 1.5/-0.5 against a sigma-2 blur); the sigmoid
// stands in for its adaptive contrast equalization.
const (
	denoiseSigma    = 0.5
	unsharpAmount   = 0.5
	unsharpRadius   = 2.0
	sigmoidMidpoint = 0.5
	sigmoidFactor   = 3.0
)

// MaxScale is the largest supported magnification factor.
const MaxScale = 4.0

// Pipeline is the local Enhancer. It is stateless and safe to share.
type Pipeline struct{}

// New creates a local enhancement pipeline.
func New() *Pipeline {
	return &Pipeline{}
}

// Enhance runs the full pipeline. The scale must be in (1.0, 4.0],
// matching the contract of the remote enhancement service it substitutes
// for. The context is accepted for interface parity; the pipeline itself
// always runs to completion.
func (p *Pipeline) Enhance(_ context.Context, buf *pixel.Buffer, scale float64) (*pixel.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	if scale <= 1.0 || scale > MaxScale {
		return nil, &pixel.ConfigurationError{
			Option: "scale",
			Reason: fmt.Sprintf("must be in (1.0, %.1f], got %g", MaxScale, scale),
		}
	}

	// Light Gaussian denoise before resampling keeps the upscaler from
	// magnifying sensor noise.
	denoised := kernel.Separable(buf, kernel.GaussianSigma(denoiseSigma))

	upscaled, err := upscale.Scale(denoised, scale)
	if err != nil {
		return nil, err
	}

	masked, err := sharpen.UnsharpMask(upscaled, unsharpAmount, unsharpRadius, 0)
	if err != nil {
		return nil, err
	}

	contrasted := liftContrast(masked)

	return sharpen.Crisp(contrasted)
}

// liftContrast applies a sigmoidal midtone contrast adjustment.
func liftContrast(buf *pixel.Buffer) *pixel.Buffer {
	g := gift.New(gift.Sigmoid(sigmoidMidpoint, sigmoidFactor))
	src := buf.ToNRGBA()
	dst := image.NewNRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return pixel.FromNRGBA(dst)
}
