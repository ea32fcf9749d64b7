package render

import (
	"math"
	"testing"

	"github.com/Hafiznapster/orbiterm/pkg/math3d"
)

func TestNewCameraDefaults(t *testing.T) {
	cam := NewCamera()

	if cam.Position.Z != 5 {
		t.Errorf("default position Z = %v, want 5", cam.Position.Z)
	}
	if math.Abs(cam.FOV-math.Pi/3) > 1e-9 {
		t.Errorf("default FOV = %v, want pi/3", cam.FOV)
	}
	if cam.Near <= 0 || cam.Far <= cam.Near {
		t.Errorf("invalid clip planes: near=%v far=%v", cam.Near, cam.Far)
	}
}

func TestCameraLookAt(t *testing.T) {
	tests := []struct {
		name          string
		position      math3d.Vec3
		target        math3d.Vec3
		expectedPitch float64
		expectedYaw   float64
	}{
		{"down -Z", math3d.V3(0, 0, 10), math3d.V3(0, 0, 0), 0, 0},
		{"down +Z", math3d.V3(0, 0, -10), math3d.V3(0, 0, 0), 0, math.Pi},
		{"down -X", math3d.V3(10, 0, 0), math3d.V3(0, 0, 0), 0, math.Pi / 2},
		{"diagonal", math3d.V3(10, 0, 10), math3d.V3(0, 0, 0), 0, math.Pi / 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cam := NewCamera()
			cam.SetPosition(tc.position)
			cam.LookAt(tc.target)

			if math.Abs(cam.Pitch-tc.expectedPitch) > 1e-9 {
				t.Errorf("pitch = %v, want %v", cam.Pitch, tc.expectedPitch)
			}
			// Yaw of pi and -pi are the same heading.
			yawDiff := math.Abs(math.Mod(cam.Yaw-tc.expectedYaw, 2*math.Pi))
			if yawDiff > math.Pi {
				yawDiff = 2*math.Pi - yawDiff
			}
			if yawDiff > 1e-9 {
				t.Errorf("yaw = %v, want %v", cam.Yaw, tc.expectedYaw)
			}
		})
	}
}

func TestCameraForward(t *testing.T) {
	cam := NewCamera()
	cam.SetPosition(math3d.V3(0, 0, 10))
	cam.LookAt(math3d.V3(0, 0, 0))

	fwd := cam.Forward()
	if !vec3Near(fwd, math3d.V3(0, 0, -1), 1e-9) {
		t.Errorf("forward = %v, want (0, 0, -1)", fwd)
	}

	cam.LookAt(math3d.V3(0, 10, 10)) // Straight up from the camera
	fwd = cam.Forward()
	if !vec3Near(fwd, math3d.V3(0, 1, 0), 1e-9) {
		t.Errorf("forward = %v, want (0, 1, 0)", fwd)
	}
}

func TestCameraWorldToScreen(t *testing.T) {
	cam := NewCamera()
	cam.SetPosition(math3d.V3(0, 0, 10))
	cam.LookAt(math3d.V3(0, 0, 0))

	t.Run("target maps to center", func(t *testing.T) {
		x, y, _, visible := cam.WorldToScreen(math3d.V3(0, 0, 0), 200, 100)
		if !visible {
			t.Fatal("target point should be visible")
		}
		if math.Abs(x-100) > 1e-6 || math.Abs(y-50) > 1e-6 {
			t.Errorf("screen pos = (%v, %v), want (100, 50)", x, y)
		}
	})

	t.Run("point above center maps higher", func(t *testing.T) {
		_, y, _, visible := cam.WorldToScreen(math3d.V3(0, 1, 0), 200, 100)
		if !visible {
			t.Fatal("point should be visible")
		}
		if y >= 50 {
			t.Errorf("screen y = %v, want < 50 (screen Y grows downward)", y)
		}
	})

	t.Run("point behind camera is invisible", func(t *testing.T) {
		_, _, _, visible := cam.WorldToScreen(math3d.V3(0, 0, 20), 200, 100)
		if visible {
			t.Error("point behind camera should not be visible")
		}
	})
}

func TestCameraMatrixCaching(t *testing.T) {
	cam := NewCamera()
	cam.SetPosition(math3d.V3(0, 0, 10))
	cam.LookAt(math3d.V3(0, 0, 0))

	// Touching the individual matrices first must not leave the
	// combined matrix stale.
	_ = cam.ViewMatrix()
	_ = cam.ProjectionMatrix()
	vp1 := cam.ViewProjectionMatrix()

	expected := cam.ProjectionMatrix().Mul(cam.ViewMatrix())
	for i := range vp1 {
		if math.Abs(vp1[i]-expected[i]) > 1e-12 {
			t.Fatalf("viewProj[%d] = %v, want %v", i, vp1[i], expected[i])
		}
	}

	// Moving the camera must invalidate the cache.
	cam.SetPosition(math3d.V3(5, 0, 10))
	vp2 := cam.ViewProjectionMatrix()
	same := true
	for i := range vp2 {
		if vp1[i] != vp2[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("view-projection matrix did not change after moving the camera")
	}
}

func TestCameraProjectionUpdatesWithAspect(t *testing.T) {
	cam := NewCamera()
	p1 := cam.ProjectionMatrix()
	cam.SetAspectRatio(1.0)
	p2 := cam.ProjectionMatrix()

	if p1 == p2 {
		t.Error("projection matrix did not change after aspect ratio update")
	}
}

func vec3Near(a, b math3d.Vec3, eps float64) bool {
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps && math.Abs(a.Z-b.Z) < eps
}
