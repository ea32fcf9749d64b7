package render

import (
	"testing"

	"github.com/Hafiznapster/orbiterm/pkg/math3d"
)

func createTestOverlay(width, height int) (*Overlay, *Framebuffer) {
	fb := NewFramebuffer(width, height)
	cam := NewCamera()
	cam.SetPosition(math3d.V3(0, 2, 6))
	cam.LookAt(math3d.V3(0, 0, 0))
	return NewOverlay(cam, fb), fb
}

func countPixels(fb *Framebuffer) int {
	count := 0
	for _, p := range fb.Pixels {
		if p != (Color{}) {
			count++
		}
	}
	return count
}

func TestOverlayDrawLine3D(t *testing.T) {
	o, fb := createTestOverlay(100, 100)

	o.DrawLine3D(math3d.V3(-1, 0, 0), math3d.V3(1, 0, 0), ColorWhite)
	if countPixels(fb) == 0 {
		t.Error("visible line drew no pixels")
	}

	t.Run("both endpoints behind camera", func(t *testing.T) {
		o, fb := createTestOverlay(100, 100)
		o.DrawLine3D(math3d.V3(-1, 0, 20), math3d.V3(1, 0, 20), ColorWhite)
		if countPixels(fb) != 0 {
			t.Error("line behind camera drew pixels")
		}
	})
}

func TestOverlayDrawAxes(t *testing.T) {
	o, fb := createTestOverlay(100, 100)
	o.DrawAxes(1.5)

	if countPixels(fb) == 0 {
		t.Error("axes drew no pixels")
	}

	// All three axis colors should appear.
	seen := map[Color]bool{}
	for _, p := range fb.Pixels {
		if p != (Color{}) {
			seen[p] = true
		}
	}
	for _, c := range []Color{ColorRed, ColorGreen, ColorBlue} {
		if !seen[c] {
			t.Errorf("axis color %v missing", c)
		}
	}
}

func TestOverlayDrawGrid(t *testing.T) {
	o, fb := createTestOverlay(100, 100)
	o.DrawGrid(-1, 4, 0.5, ColorGray)

	if countPixels(fb) == 0 {
		t.Error("grid drew no pixels")
	}
}

func TestOverlayDrawPoint(t *testing.T) {
	o, fb := createTestOverlay(100, 100)
	o.DrawPoint(math3d.V3(0, 0, 0), 0.5, ColorWhite)

	if countPixels(fb) == 0 {
		t.Error("point drew no pixels")
	}
}
