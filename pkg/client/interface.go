package client

import (
	"context"

	"github.com/sehyun-dev/pixelengine/pkg/pixel"
)

// Enhancer produces a quality-enhanced, magnified version of a buffer.
// The local pipeline and the remote enhancement service both satisfy it,
// so callers can swap one for the other without behavioral differences
// beyond output quality.
type Enhancer interface {
	Enhance(ctx context.Context, buf *pixel.Buffer, scale float64) (*pixel.Buffer, error)
}
