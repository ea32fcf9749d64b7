package render

import (
	"math"
	"testing"

	"github.com/Hafiznapster/orbiterm/pkg/math3d"
)

func TestNewOrbitControlsDefaults(t *testing.T) {
	orbit := NewOrbitControls(60)

	if orbit.Distance != 5 {
		t.Errorf("default distance = %v, want 5", orbit.Distance)
	}
	if orbit.MinDistance <= 0 {
		t.Errorf("min distance = %v, want > 0", orbit.MinDistance)
	}
	if orbit.MaxDistance <= orbit.MinDistance {
		t.Errorf("max distance %v not greater than min %v", orbit.MaxDistance, orbit.MinDistance)
	}
}

func TestOrbitRotateAdvancesYaw(t *testing.T) {
	orbit := NewOrbitControls(60)
	orbit.Rotate(0.1, 0)
	orbit.Update()

	if orbit.Yaw <= 0 {
		t.Errorf("yaw = %v, want > 0 after rotating", orbit.Yaw)
	}
}

func TestOrbitInertiaDecays(t *testing.T) {
	orbit := NewOrbitControls(60)
	orbit.Rotate(0.1, 0.05)

	// The orbit keeps gliding for a while, then settles.
	for range 300 {
		orbit.Update()
	}
	yawBefore := orbit.Yaw
	pitchBefore := orbit.Pitch
	orbit.Update()

	if math.Abs(orbit.Yaw-yawBefore) > 1e-6 {
		t.Errorf("yaw still moving after settling: %v -> %v", yawBefore, orbit.Yaw)
	}
	if math.Abs(orbit.Pitch-pitchBefore) > 1e-6 {
		t.Errorf("pitch still moving after settling: %v -> %v", pitchBefore, orbit.Pitch)
	}
	if orbit.Yaw <= 0.1 {
		t.Errorf("yaw = %v, want the glide to carry past the initial impulse", orbit.Yaw)
	}
}

func TestOrbitPitchClamped(t *testing.T) {
	orbit := NewOrbitControls(60)
	orbit.Rotate(0, 10) // Huge impulse straight up

	for range 120 {
		orbit.Update()
	}

	if orbit.Pitch > maxOrbitPitch+1e-9 {
		t.Errorf("pitch = %v, want <= %v", orbit.Pitch, maxOrbitPitch)
	}

	orbit.Rotate(0, -20)
	for range 120 {
		orbit.Update()
	}
	if orbit.Pitch < -maxOrbitPitch-1e-9 {
		t.Errorf("pitch = %v, want >= %v", orbit.Pitch, -maxOrbitPitch)
	}
}

func TestOrbitZoom(t *testing.T) {
	orbit := NewOrbitControls(60)

	orbit.Zoom(1)
	for range 300 {
		orbit.Update()
	}
	if math.Abs(orbit.Distance-4.5) > 1e-3 {
		t.Errorf("distance = %v, want ~4.5 after one zoom step", orbit.Distance)
	}

	t.Run("clamps to min", func(t *testing.T) {
		orbit := NewOrbitControls(60)
		orbit.Zoom(1000)
		for range 600 {
			orbit.Update()
		}
		if math.Abs(orbit.Distance-orbit.MinDistance) > 1e-3 {
			t.Errorf("distance = %v, want %v", orbit.Distance, orbit.MinDistance)
		}
	})

	t.Run("clamps to max", func(t *testing.T) {
		orbit := NewOrbitControls(60)
		orbit.Zoom(-1000)
		for range 600 {
			orbit.Update()
		}
		if math.Abs(orbit.Distance-orbit.MaxDistance) > 1e-2 {
			t.Errorf("distance = %v, want %v", orbit.Distance, orbit.MaxDistance)
		}
	})
}

func TestOrbitSetDistance(t *testing.T) {
	orbit := NewOrbitControls(60)

	orbit.SetDistance(12)
	if orbit.Distance != 12 {
		t.Errorf("distance = %v, want 12 (snap, no animation)", orbit.Distance)
	}

	orbit.SetDistance(0.01)
	if orbit.Distance != orbit.MinDistance {
		t.Errorf("distance = %v, want clamped to %v", orbit.Distance, orbit.MinDistance)
	}
}

func TestOrbitApply(t *testing.T) {
	orbit := NewOrbitControls(60)
	orbit.Target = math3d.V3(1, 2, 3)
	orbit.SetDistance(10)

	cam := NewCamera()
	orbit.Apply(cam)

	// Yaw and pitch zero puts the camera on the +Z side of the target.
	want := math3d.V3(1, 2, 13)
	if !vec3Near(cam.Position, want, 1e-9) {
		t.Errorf("camera position = %v, want %v", cam.Position, want)
	}

	fwd := cam.Forward()
	if !vec3Near(fwd, math3d.V3(0, 0, -1), 1e-9) {
		t.Errorf("camera forward = %v, want (0, 0, -1)", fwd)
	}

	t.Run("yaw moves camera around target", func(t *testing.T) {
		orbit.SetAngles(math.Pi/2, 0)
		orbit.Apply(cam)
		want := math3d.V3(11, 2, 3)
		if !vec3Near(cam.Position, want, 1e-9) {
			t.Errorf("camera position = %v, want %v", cam.Position, want)
		}
	})

	t.Run("pitch lifts camera above target", func(t *testing.T) {
		orbit.SetAngles(0, math.Pi/4)
		orbit.Apply(cam)
		if cam.Position.Y <= orbit.Target.Y {
			t.Errorf("camera Y = %v, want above target Y %v", cam.Position.Y, orbit.Target.Y)
		}
	})
}

func TestOrbitReset(t *testing.T) {
	orbit := NewOrbitControls(60)
	orbit.SetAngles(0.3, 0.2)
	orbit.SetDistance(8)
	orbit.SetHome()

	orbit.Rotate(1, 1)
	for range 60 {
		orbit.Update()
	}
	orbit.Zoom(5)

	orbit.Reset()
	for range 300 {
		orbit.Update()
	}

	if math.Abs(orbit.Yaw-0.3) > 1e-9 || math.Abs(orbit.Pitch-0.2) > 1e-9 {
		t.Errorf("angles after reset = (%v, %v), want (0.3, 0.2)", orbit.Yaw, orbit.Pitch)
	}
	if math.Abs(orbit.Distance-8) > 1e-3 {
		t.Errorf("distance after reset = %v, want ~8", orbit.Distance)
	}
}

func BenchmarkOrbitUpdate(b *testing.B) {
	orbit := NewOrbitControls(60)
	orbit.Rotate(0.05, 0.02)

	for b.Loop() {
		orbit.Update()
	}
}
