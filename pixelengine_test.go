package pixelengine

import (
	"errors"
	"testing"

	"github.com/sehyun-dev/pixelengine/internal/config"
	"github.com/sehyun-dev/pixelengine/pkg/pixel"
	"github.com/sehyun-dev/pixelengine/pkg/segment"
)

func createTestBuffer(w, h int) *pixel.Buffer {
	buf, _ := pixel.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf.SetRGBA(x, y, uint8((x*17+y*3)%256), uint8((y*23)%256), 120, 255)
		}
	}
	return buf
}

func TestNew(t *testing.T) {
	engine := New()
	if engine == nil {
		t.Fatal("New returned nil")
	}

	// A nil config falls back to defaults rather than panicking later.
	engine = NewWithConfig(nil)
	if _, err := engine.Upscale(createTestBuffer(10, 10), 2.0); err != nil {
		t.Errorf("Engine with nil config should work: %v", err)
	}
}

func TestUpscaleDimensions(t *testing.T) {
	engine := New()
	buf := createTestBuffer(30, 20)

	out, err := engine.Upscale(buf, 2.0)
	if err != nil {
		t.Fatalf("Upscale failed: %v", err)
	}
	if out.Width != 60 || out.Height != 40 {
		t.Errorf("Expected 60x40, got %dx%d", out.Width, out.Height)
	}
}

func TestUpscaleScaleRange(t *testing.T) {
	engine := New()
	buf := createTestBuffer(10, 10)

	for _, scale := range []float64{-1, 0, 0.5, 1.0, 4.0001, 8} {
		_, err := engine.Upscale(buf, scale)
		if err == nil {
			t.Errorf("Scale %g should be rejected", scale)
			continue
		}
		var cfgErr *pixel.ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Errorf("Scale %g: expected ConfigurationError, got %T", scale, err)
		}
	}
}

func TestUpscaleRespectsConfiguredMaximum(t *testing.T) {
	cfg := config.Default()
	cfg.Upscale.MaxScale = 2.0
	engine := NewWithConfig(cfg)
	buf := createTestBuffer(10, 10)

	if _, err := engine.Upscale(buf, 3.0); err == nil {
		t.Error("Scale above the configured maximum should be rejected")
	}
	if _, err := engine.Upscale(buf, 2.0); err != nil {
		t.Errorf("Scale at the configured maximum should work: %v", err)
	}
}

func TestUpscaleMemoryCeiling(t *testing.T) {
	cfg := config.Default()
	cfg.Memory.MaxBufferBytes = 1 << 10 // 1KB, far below any real output
	engine := NewWithConfig(cfg)

	_, err := engine.Upscale(createTestBuffer(100, 100), 2.0)
	var allocErr *pixel.AllocationError
	if !errors.As(err, &allocErr) {
		t.Errorf("Expected AllocationError, got %v", err)
	}
}

func TestSharpenUsesConfiguredDefaults(t *testing.T) {
	engine := New()
	buf := createTestBuffer(20, 20)

	out, err := engine.Sharpen(buf, 0, 0, 0)
	if err != nil {
		t.Fatalf("Sharpen with zero params failed: %v", err)
	}
	if out.Width != buf.Width || out.Height != buf.Height {
		t.Error("Sharpen changed dimensions")
	}
}

func TestDetectEdges(t *testing.T) {
	engine := New()

	// Black square on white, edges and at least one contour expected.
	buf, _ := pixel.New(60, 60)
	for y := 0; y < 60; y++ {
		for x := 0; x < 60; x++ {
			v := uint8(255)
			if x >= 20 && x < 40 && y >= 20 && y < 40 {
				v = 0
			}
			buf.SetRGBA(x, y, v, v, v, 255)
		}
	}

	res, err := engine.DetectEdges(buf, 0, 0)
	if err != nil {
		t.Fatalf("DetectEdges failed: %v", err)
	}
	if res.Edges == nil || res.Edges.Width != 60 {
		t.Fatal("Edge map missing or wrong size")
	}
	if len(res.Contours) == 0 {
		t.Error("Expected at least one contour around the square")
	}
}

func TestDetectEdgesInvalidThresholds(t *testing.T) {
	engine := New()
	buf := createTestBuffer(10, 10)
	if _, err := engine.DetectEdges(buf, 200, 100); err == nil {
		t.Error("Low threshold above high should be rejected")
	}
}

func TestRemoveBackground(t *testing.T) {
	engine := New()

	// White subject on black background.
	buf, _ := pixel.New(50, 50)
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			v := uint8(0)
			if x >= 15 && x < 35 && y >= 15 && y < 35 {
				v = 255
			}
			buf.SetRGBA(x, y, v, v, v, 255)
		}
	}

	out, err := engine.RemoveBackground(buf, engine.DefaultSegmentOptions())
	if err != nil {
		t.Fatalf("RemoveBackground failed: %v", err)
	}
	if out.Pix[out.Offset(2, 2)+3] != 0 {
		t.Error("Background corner should be fully transparent")
	}
	if out.Pix[out.Offset(25, 25)+3] < 200 {
		t.Error("Subject center should stay essentially opaque")
	}
}

func TestDefaultSegmentOptions(t *testing.T) {
	engine := New()
	opts := engine.DefaultSegmentOptions()
	if opts.Method != segment.MethodAuto {
		t.Errorf("Expected auto method, got %q", opts.Method)
	}
	if opts.Threshold != 30 || opts.FeatherRadius != 2 || !opts.SmoothEdges {
		t.Error("Defaults do not match configuration")
	}
}

func TestGetVersion(t *testing.T) {
	if GetVersion() != Version {
		t.Error("GetVersion should report the package version")
	}
}
