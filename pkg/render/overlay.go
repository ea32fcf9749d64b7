package render

import (
	"github.com/Hafiznapster/orbiterm/pkg/math3d"
)

// Overlay draws unlit line helpers (grid, axes) over the scene.
type Overlay struct {
	camera *Camera
	fb     *Framebuffer
}

// NewOverlay creates an overlay renderer.
func NewOverlay(camera *Camera, fb *Framebuffer) *Overlay {
	return &Overlay{
		camera: camera,
		fb:     fb,
	}
}

// DrawLine3D draws a line in 3D space.
func (o *Overlay) DrawLine3D(p1, p2 math3d.Vec3, color Color) {
	x1, y1, _, vis1 := o.camera.WorldToScreen(p1, o.fb.Width, o.fb.Height)
	x2, y2, _, vis2 := o.camera.WorldToScreen(p2, o.fb.Width, o.fb.Height)

	// Only draw if at least one endpoint is visible
	if !vis1 && !vis2 {
		return
	}

	o.fb.DrawLine(int(x1), int(y1), int(x2), int(y2), color)
}

// DrawAxes draws the coordinate axes at the origin.
func (o *Overlay) DrawAxes(length float64) {
	origin := math3d.Zero3()
	o.DrawLine3D(origin, math3d.V3(length, 0, 0), ColorRed)   // X axis
	o.DrawLine3D(origin, math3d.V3(0, length, 0), ColorGreen) // Y axis
	o.DrawLine3D(origin, math3d.V3(0, 0, length), ColorBlue)  // Z axis
}

// DrawGrid draws a grid on the XZ plane at the given height.
func (o *Overlay) DrawGrid(y, size, step float64, color Color) {
	half := size / 2
	for x := -half; x <= half; x += step {
		o.DrawLine3D(math3d.V3(x, y, -half), math3d.V3(x, y, half), color)
	}
	for z := -half; z <= half; z += step {
		o.DrawLine3D(math3d.V3(-half, y, z), math3d.V3(half, y, z), color)
	}
}

// DrawPoint draws a point as a small cross.
func (o *Overlay) DrawPoint(pos math3d.Vec3, size float64, color Color) {
	half := size / 2
	o.DrawLine3D(math3d.V3(pos.X-half, pos.Y, pos.Z), math3d.V3(pos.X+half, pos.Y, pos.Z), color)
	o.DrawLine3D(math3d.V3(pos.X, pos.Y-half, pos.Z), math3d.V3(pos.X, pos.Y+half, pos.Z), color)
	o.DrawLine3D(math3d.V3(pos.X, pos.Y, pos.Z-half), math3d.V3(pos.X, pos.Y, pos.Z+half), color)
}
