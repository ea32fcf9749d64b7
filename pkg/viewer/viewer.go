// Package viewer ties the loaded model, camera, orbit controls and
// rasterizer together into a per-frame render loop.
package viewer

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/Hafiznapster/orbiterm/pkg/math3d"
	"github.com/Hafiznapster/orbiterm/pkg/models"
	"github.com/Hafiznapster/orbiterm/pkg/render"
)

// RenderMode controls how meshes are drawn.
type RenderMode int

const (
	ModeTextured  RenderMode = iota // Textured with Gouraud shading
	ModeFlat                        // Flat shading (no texture)
	ModeWireframe                   // Wireframe only
)

// Viewer owns everything needed to render a loaded model: the model
// itself, its animation mixer, the camera with orbit controls, and the
// rasterizer with its framebuffer. All of it is created once and read
// every frame.
type Viewer struct {
	Model *models.Model
	Mixer *models.Mixer

	Camera *render.Camera
	Orbit  *render.OrbitControls

	Mode           RenderMode
	TextureEnabled bool
	ShowGrid       bool
	ShowAxes       bool
	Background     render.Color
	LightDir       math3d.Vec3

	fps      int
	fb       *render.Framebuffer
	rast     *render.Rasterizer
	overlay  *render.Overlay
	globals  []math3d.Mat4
	textures []*render.Texture // Decoded per Model.Textures index
	fallback *render.Texture
	override *render.Texture // Explicit texture replacing all material textures

	// normalize centers the model and scales it to a ~2 unit box. It is
	// applied per frame rather than baked into the vertices so node
	// animation keeps working on the original coordinates.
	normalize math3d.Mat4
	gridY     float64
	name      string
}

// New creates a viewer rendering into a framebuffer of the given pixel
// size, with springs tuned for the given frame rate.
func New(fbWidth, fbHeight, fps int) *Viewer {
	v := &Viewer{
		Camera:         render.NewCamera(),
		Orbit:          render.NewOrbitControls(fps),
		Mode:           ModeTextured,
		TextureEnabled: true,
		Background:     render.RGB(30, 30, 40),
		LightDir:       math3d.V3(0.5, 1, 0.3).Normalize(),
		fps:            fps,
		fallback:       render.NewCheckerTexture(64, 64, 8, render.RGB(200, 200, 200), render.RGB(100, 100, 100)),
		normalize:      math3d.Identity(),
	}
	v.Camera.SetClipPlanes(0.1, 100)
	v.Resize(fbWidth, fbHeight)
	return v
}

// Resize replaces the framebuffer and rasterizer for a new pixel size
// and updates the camera's aspect ratio.
func (v *Viewer) Resize(fbWidth, fbHeight int) {
	if fbWidth < 1 {
		fbWidth = 1
	}
	if fbHeight < 1 {
		fbHeight = 1
	}
	v.fb = render.NewFramebuffer(fbWidth, fbHeight)
	v.rast = render.NewRasterizer(v.Camera, v.fb)
	v.overlay = render.NewOverlay(v.Camera, v.fb)
	v.Camera.SetAspectRatio(float64(fbWidth) / float64(fbHeight))
}

// Framebuffer returns the buffer the viewer renders into.
func (v *Viewer) Framebuffer() *render.Framebuffer {
	return v.fb
}

// Name returns the base name of the loaded asset.
func (v *Viewer) Name() string {
	return v.name
}

// SetTextureOverride replaces all material textures with the given one.
func (v *Viewer) SetTextureOverride(tex *render.Texture) {
	v.override = tex
}

// Load reads a GLB asset, decodes its textures, and frames the camera
// around it. A new mixer starts playing the first embedded clip.
func (v *Viewer) Load(path string) error {
	model, err := models.LoadGLB(path)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	v.Model = model
	v.Mixer = models.NewMixer(model)
	v.name = filepath.Base(path)
	v.globals = nil

	v.textures = make([]*render.Texture, len(model.Textures))
	for i, img := range model.Textures {
		if img != nil {
			v.textures[i] = render.TextureFromImage(img)
		}
	}

	v.frame()
	return nil
}

// frame centers and scales the model, then places the orbit camera so
// the whole model fits in view: the orbit target is the bounds center
// (origin after normalization) and the distance is derived from the
// field of view and the model's bounding sphere.
func (v *Viewer) frame() {
	min, max := v.Model.Bounds()
	center := min.Add(max).Scale(0.5)
	size := max.Sub(min)
	maxDim := math.Max(size.X, math.Max(size.Y, size.Z))

	v.normalize = math3d.Identity()
	radius := 1.0
	if maxDim > 0 {
		scale := 2.0 / maxDim
		v.normalize = math3d.ScaleUniform(scale).Mul(math3d.Translate(center.Negate()))
		radius = size.Len() * 0.5 * scale
		v.gridY = (min.Y - center.Y) * scale
	} else {
		v.gridY = 0
	}

	// The limiting field of view is vertical for wide viewports and
	// horizontal for tall ones.
	fov := v.Camera.FOV
	if v.Camera.AspectRatio < 1 {
		fov = 2 * math.Atan(math.Tan(fov*0.5)*v.Camera.AspectRatio)
	}

	distance := radius / math.Tan(fov*0.5)

	v.Orbit.Target = math3d.Zero3()
	v.Orbit.SetAngles(0, 0)
	v.Orbit.SetDistance(distance)
	v.Orbit.SetHome()
	v.Orbit.Apply(v.Camera)
}

// Step advances the scene by dt seconds and renders one frame into the
// framebuffer.
func (v *Viewer) Step(dt float64) {
	if dt < 0 {
		dt = 0
	}
	if dt > 0.1 {
		dt = 0.1
	}

	if v.Mixer != nil {
		v.Mixer.Update(dt)
	}

	v.Orbit.Update()
	v.Orbit.Apply(v.Camera)

	v.fb.Clear(v.Background)
	v.rast.ClearDepth()
	v.rast.InvalidateFrustum()
	v.rast.ResetCullingStats()

	if v.Model != nil {
		v.drawModel()
	}

	if v.ShowGrid {
		v.overlay.DrawGrid(v.gridY, 4, 0.5, render.RGB(70, 70, 85))
	}
	if v.ShowAxes {
		v.overlay.DrawAxes(1.5)
	}
}

func (v *Viewer) drawModel() {
	v.globals = v.Mixer.GlobalTransforms(v.globals)

	for ni, node := range v.Model.Nodes {
		transform := v.normalize.Mul(v.globals[ni])
		for _, mi := range node.Meshes {
			mesh := v.Model.Meshes[mi]
			v.drawMesh(mesh, transform)
		}
	}
}

func (v *Viewer) drawMesh(mesh *models.Mesh, transform math3d.Mat4) {
	base := render.RGB(200, 200, 200)
	var tex *render.Texture

	if mat := v.Model.GetMaterial(mesh.Material); mat != nil {
		base = render.RGB(
			floatTo255(mat.BaseColor[0]),
			floatTo255(mat.BaseColor[1]),
			floatTo255(mat.BaseColor[2]),
		)
		if mat.Texture >= 0 && mat.Texture < len(v.textures) {
			tex = v.textures[mat.Texture]
		}
	}

	switch v.Mode {
	case ModeWireframe:
		v.rast.DrawMeshWireframe(mesh, transform, render.RGB(0, 255, 128))
	case ModeFlat:
		v.rast.DrawMeshFlat(mesh, transform, base, v.LightDir)
	default:
		if !v.TextureEnabled {
			v.rast.DrawMeshGouraud(mesh, transform, base, v.LightDir)
			return
		}
		if v.override != nil {
			tex = v.override
		} else if tex == nil {
			tex = v.fallback
		}
		v.rast.DrawMeshTextured(mesh, transform, tex, base, v.LightDir)
	}
}

// CycleMode switches to the next render mode.
func (v *Viewer) CycleMode() {
	v.Mode = (v.Mode + 1) % 3
}

// ToggleWireframe flips between wireframe and textured rendering.
func (v *Viewer) ToggleWireframe() {
	if v.Mode == ModeWireframe {
		v.Mode = ModeTextured
	} else {
		v.Mode = ModeWireframe
	}
}

// ResetView returns the camera to the framing pose.
func (v *Viewer) ResetView() {
	v.Orbit.Reset()
}

// Screenshot writes the current framebuffer to a PNG file.
func (v *Viewer) Screenshot(path string) error {
	return v.fb.SavePNG(path)
}

// CullingStats returns the rasterizer's per-frame culling counters.
func (v *Viewer) CullingStats() render.CullingStats {
	return v.rast.CullingStats
}

func floatTo255(f float64) uint8 {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return uint8(f*255 + 0.5)
}
