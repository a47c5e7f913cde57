package segment

import (
	"errors"
	"testing"

	"github.com/sehyun-dev/pixelengine/pkg/pixel"
)

func solidBuffer(w, h int, r, g, b uint8) *pixel.Buffer {
	buf, _ := pixel.New(w, h)
	for i := 0; i < len(buf.Pix); i += 4 {
		buf.Pix[i] = r
		buf.Pix[i+1] = g
		buf.Pix[i+2] = b
		buf.Pix[i+3] = 255
	}
	return buf
}

// borderedBuffer builds a uniform border with a contrasting center square.
func borderedBuffer(size, border int, bg, fg [3]uint8) *pixel.Buffer {
	buf := solidBuffer(size, size, bg[0], bg[1], bg[2])
	for y := border; y < size-border; y++ {
		for x := border; x < size-border; x++ {
			buf.SetRGBA(x, y, fg[0], fg[1], fg[2], 255)
		}
	}
	return buf
}

func TestColorRangeSolidRed(t *testing.T) {
	// 4x4 solid red keyed against red: the whole buffer is background.
	buf := solidBuffer(4, 4, 255, 0, 0)
	out, err := Remove(buf, Options{
		Method:      MethodColorRange,
		TargetColor: &RGB{R: 255, G: 0, B: 0},
		Tolerance:   10,
	})
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	for i := 3; i < len(out.Pix); i += 4 {
		if out.Pix[i] != 0 {
			t.Fatal("Expected every pixel fully transparent")
		}
	}
}

func TestColorRangeKeepsDistantColors(t *testing.T) {
	buf := solidBuffer(4, 4, 0, 0, 255)
	out, err := Remove(buf, Options{
		Method:      MethodColorRange,
		TargetColor: &RGB{R: 255, G: 0, B: 0},
		Tolerance:   10,
	})
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	for i := 3; i < len(out.Pix); i += 4 {
		if out.Pix[i] != 255 {
			t.Fatal("Distant colors must stay opaque")
		}
	}
}

func TestColorRangeMissingTarget(t *testing.T) {
	buf := solidBuffer(4, 4, 255, 0, 0)
	_, err := Remove(buf, Options{Method: MethodColorRange})
	var cfg *pixel.ConfigurationError
	if !errors.As(err, &cfg) {
		t.Fatalf("Expected ConfigurationError, got %v", err)
	}
	if cfg.Option != "targetColor" {
		t.Errorf("Expected targetColor option, got %s", cfg.Option)
	}
}

func TestUnknownMethod(t *testing.T) {
	buf := solidBuffer(4, 4, 0, 0, 0)
	_, err := Remove(buf, Options{Method: "chroma-warp"})
	var cfg *pixel.ConfigurationError
	if !errors.As(err, &cfg) {
		t.Errorf("Expected ConfigurationError, got %v", err)
	}
}

func TestZeroAreaBuffer(t *testing.T) {
	for _, m := range []Method{MethodAuto, MethodEdgeColor, MethodColorRange, MethodEdgeDetect} {
		bad := &pixel.Buffer{Width: 0, Height: 0}
		_, err := Remove(bad, Options{Method: m, TargetColor: &RGB{}})
		var invalid *pixel.InvalidBufferError
		if !errors.As(err, &invalid) {
			t.Errorf("Method %s: expected InvalidBufferError, got %v", m, err)
		}
	}
}

func TestEdgeColorBorderAndCenter(t *testing.T) {
	// Black 20px border, white 60x60 center. The border band model is
	// solid black, so the border keys out and the center stays opaque.
	buf := borderedBuffer(100, 20, [3]uint8{0, 0, 0}, [3]uint8{255, 255, 255})
	out, err := Remove(buf, Options{Method: MethodEdgeColor, Threshold: 35, SmoothEdges: true})
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	if a := out.Pix[out.Offset(50, 50)+3]; a < 250 {
		t.Errorf("Center should stay opaque, alpha=%d", a)
	}
	if a := out.Pix[out.Offset(5, 5)+3]; a > 5 {
		t.Errorf("Border should be transparent, alpha=%d", a)
	}
	if a := out.Pix[out.Offset(95, 50)+3]; a > 5 {
		t.Errorf("Right border should be transparent, alpha=%d", a)
	}
}

func TestEdgeColorThresholdMonotonic(t *testing.T) {
	// A gradient away from the border color: raising the threshold can
	// only classify more pixels as background, never fewer.
	buf, _ := pixel.New(50, 50)
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			v := uint8(min(255, (x+y)*3))
			buf.SetRGBA(x, y, v, v, v, 255)
		}
	}

	count := func(threshold float64) int {
		out, err := Remove(buf, Options{
			Method:      MethodEdgeColor,
			Threshold:   threshold,
			SmoothEdges: false,
		})
		if err != nil {
			t.Fatalf("Remove failed: %v", err)
		}
		n := 0
		for i := 3; i < len(out.Pix); i += 4 {
			if out.Pix[i] < 255 {
				n++
			}
		}
		return n
	}

	prev := -1
	for _, threshold := range []float64{10, 20, 35, 60, 100} {
		n := count(threshold)
		if n < prev {
			t.Fatalf("Threshold %g classified %d pixels, fewer than %d at the previous threshold", threshold, n, prev)
		}
		prev = n
	}
}

func TestEdgeDetectPreservesBorderMargin(t *testing.T) {
	buf := borderedBuffer(60, 15, [3]uint8{30, 30, 30}, [3]uint8{220, 220, 220})
	out, err := Remove(buf, Options{Method: MethodEdgeDetect, Threshold: 30, SmoothEdges: false})
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	// The 3px frame margin is never faded.
	for x := 0; x < 60; x++ {
		if a := out.Pix[out.Offset(x, 0)+3]; a != 255 {
			t.Fatalf("Frame margin faded at (%d,0): alpha=%d", x, a)
		}
	}
}

func TestEdgeDetectCenterWeighting(t *testing.T) {
	// On a flat image nothing is an object; fading must be strongest far
	// from the center.
	buf := solidBuffer(61, 61, 120, 120, 120)
	out, err := Remove(buf, Options{Method: MethodEdgeDetect, Threshold: 30, SmoothEdges: false})
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	center := out.Pix[out.Offset(30, 30)+3]
	offCenter := out.Pix[out.Offset(10, 10)+3]
	if center < offCenter {
		t.Errorf("Center alpha (%d) should be at least off-center alpha (%d)", center, offCenter)
	}
}

func TestAutoBlendTransparentOnlyWhenBothAgree(t *testing.T) {
	buf := borderedBuffer(100, 20, [3]uint8{0, 0, 0}, [3]uint8{255, 255, 255})
	out, err := Remove(buf, Options{Method: MethodAuto, Threshold: 35, SmoothEdges: false})
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	// Center of the subject survives; deep border is removed.
	if a := out.Pix[out.Offset(50, 50)+3]; a < 200 {
		t.Errorf("Auto mode ate into the subject: center alpha=%d", a)
	}
	if a := out.Pix[out.Offset(1, 1)+3]; a != 0 {
		t.Errorf("Deep border should go fully transparent, alpha=%d", a)
	}
}

func TestDefaultsApplied(t *testing.T) {
	buf := solidBuffer(10, 10, 128, 128, 128)
	// Empty method and zero threshold fall back to auto defaults.
	if _, err := Remove(buf, Options{}); err != nil {
		t.Fatalf("Remove with zero options failed: %v", err)
	}

	opts := DefaultOptions()
	if opts.Method != MethodAuto || !opts.SmoothEdges {
		t.Error("DefaultOptions should select auto with feathering on")
	}
	if opts.FeatherRadius != DefaultFeatherRadius {
		t.Errorf("Expected feather radius %d, got %d", DefaultFeatherRadius, opts.FeatherRadius)
	}
}

func TestRemoveDoesNotMutateInput(t *testing.T) {
	buf := borderedBuffer(40, 8, [3]uint8{10, 10, 10}, [3]uint8{240, 240, 240})
	snapshot := buf.Clone()
	if _, err := Remove(buf, DefaultOptions()); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	for i := range buf.Pix {
		if buf.Pix[i] != snapshot.Pix[i] {
			t.Fatal("Remove mutated its input")
		}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
