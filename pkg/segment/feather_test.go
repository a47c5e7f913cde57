package segment

import (
	"testing"

	"github.com/sehyun-dev/pixelengine/pkg/pixel"
)

// maskBuffer builds a hard cutout: opaque left half, transparent right
// half, with a column of intermediate alpha at the seam.
func maskBuffer(w, h int) *pixel.Buffer {
	buf, _ := pixel.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := uint8(255)
			switch {
			case x == w/2:
				a = 200
			case x > w/2:
				a = 0
			}
			buf.SetRGBA(x, y, 200, 150, 100, a)
		}
	}
	return buf
}

func TestFeatherBoundedByNeighborhood(t *testing.T) {
	buf := maskBuffer(21, 11)
	radius := 2
	out := Feather(buf, radius)

	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			o := buf.Offset(x, y)
			a := buf.Pix[o+3]
			if a == 0 || a == 255 {
				continue
			}

			lo, hi := uint8(255), uint8(0)
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= buf.Width || ny < 0 || ny >= buf.Height {
						continue
					}
					na := buf.Pix[buf.Offset(nx, ny)+3]
					if na < lo {
						lo = na
					}
					if na > hi {
						hi = na
					}
				}
			}

			got := out.Pix[o+3]
			if got < lo || got > hi {
				t.Fatalf("Feathered alpha %d at (%d,%d) outside neighborhood bounds [%d,%d]", got, x, y, lo, hi)
			}
		}
	}
}

func TestFeatherLeavesExtremesAlone(t *testing.T) {
	buf := maskBuffer(21, 11)
	out := Feather(buf, 2)

	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			o := buf.Offset(x, y)
			a := buf.Pix[o+3]
			if a != 0 && a != 255 {
				continue
			}
			if out.Pix[o+3] != a {
				t.Fatalf("Fully transparent/opaque pixel changed at (%d,%d)", x, y)
			}
			if out.Pix[o] != buf.Pix[o] || out.Pix[o+1] != buf.Pix[o+1] || out.Pix[o+2] != buf.Pix[o+2] {
				t.Fatalf("RGB of untouched pixel changed at (%d,%d)", x, y)
			}
		}
	}
}

func TestFeatherSmoothsSeam(t *testing.T) {
	buf := maskBuffer(21, 11)
	out := Feather(buf, 2)

	// The seam column averages its mixed neighborhood, pulling the 200
	// value down toward the mean of the opaque and transparent sides.
	before := buf.Pix[buf.Offset(10, 5)+3]
	after := out.Pix[out.Offset(10, 5)+3]
	if before != 200 {
		t.Fatalf("Test setup wrong: seam alpha %d", before)
	}
	if after >= 200 {
		t.Errorf("Seam alpha should drop toward the neighborhood average, got %d", after)
	}
}

func TestFeatherMinimumRadius(t *testing.T) {
	buf := maskBuffer(11, 7)
	// Radius below 1 is clamped rather than rejected.
	out := Feather(buf, 0)
	if out == nil || out.Width != buf.Width {
		t.Fatal("Feather with radius 0 should still produce output")
	}
}
