package render

import (
	"math"

	"github.com/Hafiznapster/orbiterm/pkg/math3d"
)

// Vertex represents a vertex with all attributes needed for rasterization.
type Vertex struct {
	Position math3d.Vec3 // World position
	Normal   math3d.Vec3 // Normal vector (for lighting)
	UV       math3d.Vec2 // Texture coordinates
	Color    Color       // Vertex color
}

// Triangle represents a triangle to be rasterized.
type Triangle struct {
	V [3]Vertex
}

// Rasterizer handles software triangle rasterization with a Z-buffer.
type Rasterizer struct {
	camera                 *Camera
	fb                     *Framebuffer
	zbuffer                []float64    // Depth buffer (1D array, row-major)
	frustum                Frustum      // Cached frustum planes
	frustumDirty           bool         // Whether frustum needs recalculation
	CullingStats           CullingStats // Statistics for the HUD and benchmarks
	DisableBackfaceCulling bool         // If true, render both sides of triangles
}

// CullingStats tracks frustum culling per frame.
type CullingStats struct {
	MeshesTested int // Total meshes tested for culling
	MeshesCulled int // Meshes culled (not rendered)
	MeshesDrawn  int // Meshes that passed culling
}

// NewRasterizer creates a new rasterizer.
func NewRasterizer(camera *Camera, fb *Framebuffer) *Rasterizer {
	r := &Rasterizer{
		camera:       camera,
		fb:           fb,
		frustumDirty: true,
	}
	r.Resize()
	return r
}

// Resize resizes the rasterizer's depth buffer to match the framebuffer.
func (r *Rasterizer) Resize() {
	if r.fb == nil {
		r.zbuffer = nil
		return
	}
	r.zbuffer = make([]float64, r.fb.Width*r.fb.Height)
}

// Width returns the framebuffer width.
func (r *Rasterizer) Width() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Width
}

// Height returns the framebuffer height.
func (r *Rasterizer) Height() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Height
}

// ClearDepth clears the Z-buffer (call before each frame).
func (r *Rasterizer) ClearDepth() {
	// Copy-doubling clear
	n := len(r.zbuffer)
	if n == 0 {
		return
	}
	r.zbuffer[0] = math.MaxFloat64
	for i := 1; i < n; i *= 2 {
		copy(r.zbuffer[i:], r.zbuffer[:i])
	}
}

// InvalidateFrustum marks the frustum as needing recalculation.
// Call this when the camera moves or rotates.
func (r *Rasterizer) InvalidateFrustum() {
	r.frustumDirty = true
}

// UpdateFrustum recalculates the frustum planes from the camera.
func (r *Rasterizer) UpdateFrustum() {
	if r.frustumDirty {
		r.frustum = ExtractFrustum(r.camera.ViewProjectionMatrix())
		r.frustumDirty = false
	}
}

// GetFrustum returns the current frustum (updating if needed).
func (r *Rasterizer) GetFrustum() Frustum {
	r.UpdateFrustum()
	return r.frustum
}

// ResetCullingStats resets the culling statistics (call once per frame).
func (r *Rasterizer) ResetCullingStats() {
	r.CullingStats = CullingStats{}
}

// IsVisible tests if a world-space AABB is visible in the frustum.
func (r *Rasterizer) IsVisible(worldBounds AABB) bool {
	r.UpdateFrustum()
	return r.frustum.IntersectAABB(worldBounds)
}

// IsVisibleTransformed tests if a local-space AABB is visible after transformation.
func (r *Rasterizer) IsVisibleTransformed(localBounds AABB, transform math3d.Mat4) bool {
	return r.IsVisible(localBounds.Transform(transform))
}

// screenVertex holds a vertex transformed to screen space.
type screenVertex struct {
	X, Y  float64 // Screen coordinates
	Z     float64 // Depth (for Z-buffer)
	W     float64 // Clip-space W (for perspective-correct interpolation)
	Color Color
	UV    math3d.Vec2
}

// project transforms the triangle's vertices to screen space.
// cross is the screen-space winding value; ok is false when the
// triangle is entirely behind the camera or back-facing. swapped
// reports that vertices 1 and 2 were exchanged to fix the winding of a
// back face rendered with culling disabled.
func (r *Rasterizer) project(tri *Triangle) (sv [3]screenVertex, cross float64, swapped, ok bool) {
	viewProj := r.camera.ViewProjectionMatrix()
	halfW := 0.5 * float64(r.Width())
	halfH := 0.5 * float64(r.Height())
	allBehind := true

	for i := range 3 {
		clipPos := viewProj.MulVec4(math3d.V4FromV3(tri.V[i].Position, 1))

		if clipPos.W > 0 {
			allBehind = false
		}

		if clipPos.W != 0 {
			invW := 1.0 / clipPos.W
			sv[i].X = clipPos.X * invW
			sv[i].Y = clipPos.Y * invW
			sv[i].Z = clipPos.Z * invW
		}
		sv[i].W = clipPos.W

		// NDC to screen coordinates (Y flipped)
		sv[i].X = (sv[i].X + 1) * halfW
		sv[i].Y = (1 - sv[i].Y) * halfH

		sv[i].Color = tri.V[i].Color
		sv[i].UV = tri.V[i].UV
	}

	if allBehind {
		return sv, 0, false, false
	}

	// Backface culling via screen-space winding
	edge1X := sv[1].X - sv[0].X
	edge1Y := sv[1].Y - sv[0].Y
	edge2X := sv[2].X - sv[0].X
	edge2Y := sv[2].Y - sv[0].Y
	cross = edge1X*edge2Y - edge1Y*edge2X
	if cross < 0 {
		if !r.DisableBackfaceCulling {
			return sv, cross, false, false
		}
		// Reorder the vertices so the fill loops see a positive
		// winding; otherwise the inside test rejects every pixel.
		sv[1], sv[2] = sv[2], sv[1]
		swapped = true
		cross = -cross
	}

	return sv, cross, swapped, true
}

// edgeCoeffs returns A, B, C for the edge function edge(x,y) = A*x + B*y + C.
// Positive = left of edge, negative = right, zero = on edge.
func edgeCoeffs(x0, y0, x1, y1 float64) (A, B, C float64) {
	A = y0 - y1 // dy
	B = x1 - x0 // -dx
	C = x0*y1 - x1*y0
	return
}

// lightIntensity computes ambient plus diffuse for a normal.
func lightIntensity(normal, normLight math3d.Vec3) float64 {
	return 0.3 + 0.7*math.Max(0, normal.Dot(normLight))
}

// DrawTriangleGouraud rasterizes a triangle with Gouraud shading:
// lighting is calculated per vertex and interpolated across the face.
// Uses incremental edge functions, so barycentric coordinates cost one
// addition per pixel.
func (r *Rasterizer) DrawTriangleGouraud(tri Triangle, lightDir math3d.Vec3) {
	normLight := lightDir.Normalize()
	for i := range 3 {
		intensity := lightIntensity(tri.V[i].Normal, normLight)
		tri.V[i].Color = MultiplyColor(tri.V[i].Color, intensity)
	}

	sv, cross, _, ok := r.project(&tri)
	if !ok {
		return
	}

	minX := int(math.Max(0, math.Floor(min3(sv[0].X, sv[1].X, sv[2].X))))
	maxX := int(math.Min(float64(r.Width()-1), math.Ceil(max3(sv[0].X, sv[1].X, sv[2].X))))
	minY := int(math.Max(0, math.Floor(min3(sv[0].Y, sv[1].Y, sv[2].Y))))
	maxY := int(math.Min(float64(r.Height()-1), math.Ceil(max3(sv[0].Y, sv[1].Y, sv[2].Y))))

	if minX > maxX || minY > maxY {
		return
	}

	// Edge 0: v1 -> v2, Edge 1: v2 -> v0, Edge 2: v0 -> v1
	A0, B0, C0 := edgeCoeffs(sv[1].X, sv[1].Y, sv[2].X, sv[2].Y)
	A1, B1, C1 := edgeCoeffs(sv[2].X, sv[2].Y, sv[0].X, sv[0].Y)
	A2, B2, C2 := edgeCoeffs(sv[0].X, sv[0].Y, sv[1].X, sv[1].Y)

	area2 := cross // 2 * signed area
	if area2 == 0 {
		return
	}
	invArea := 1.0 / area2

	r0, g0, b0 := float64(sv[0].Color.R), float64(sv[0].Color.G), float64(sv[0].Color.B)
	r1, g1, b1 := float64(sv[1].Color.R), float64(sv[1].Color.G), float64(sv[1].Color.B)
	r2, g2, b2 := float64(sv[2].Color.R), float64(sv[2].Color.G), float64(sv[2].Color.B)

	px := float64(minX) + 0.5
	py := float64(minY) + 0.5

	w0Row := A0*px + B0*py + C0
	w1Row := A1*px + B1*py + C1
	w2Row := A2*px + B2*py + C2

	width := r.Width()
	zbuffer := r.zbuffer
	fb := r.fb

	for y := minY; y <= maxY; y++ {
		w0 := w0Row
		w1 := w1Row
		w2 := w2Row
		rowOffset := y * width

		for x := minX; x <= maxX; x++ {
			if w0 >= 0 && w1 >= 0 && w2 >= 0 {
				bc0 := w0 * invArea
				bc1 := w1 * invArea
				bc2 := w2 * invArea

				z := bc0*sv[0].Z + bc1*sv[1].Z + bc2*sv[2].Z

				idx := rowOffset + x
				if z < zbuffer[idx] {
					cr := uint8(r0*bc0 + r1*bc1 + r2*bc2)
					cg := uint8(g0*bc0 + g1*bc1 + g2*bc2)
					cb := uint8(b0*bc0 + b1*bc1 + b2*bc2)

					zbuffer[idx] = z
					fb.SetPixel(x, y, RGB(cr, cg, cb))
				}
			}

			w0 += A0
			w1 += A1
			w2 += A2
		}

		w0Row += B0
		w1Row += B1
		w2Row += B2
	}
}

// DrawTriangleTextured rasterizes a textured triangle with Gouraud
// shading and perspective-correct UV interpolation. The texture sample
// is modulated by the interpolated vertex color before lighting.
func (r *Rasterizer) DrawTriangleTextured(tri Triangle, tex *Texture, lightDir math3d.Vec3) {
	normLight := lightDir.Normalize()
	var vertexIntensity [3]float64
	for i := range 3 {
		vertexIntensity[i] = lightIntensity(tri.V[i].Normal, normLight)
	}

	sv, cross, swapped, ok := r.project(&tri)
	if !ok {
		return
	}
	if swapped {
		vertexIntensity[1], vertexIntensity[2] = vertexIntensity[2], vertexIntensity[1]
	}

	minX := int(math.Max(0, math.Floor(min3(sv[0].X, sv[1].X, sv[2].X))))
	maxX := int(math.Min(float64(r.Width()-1), math.Ceil(max3(sv[0].X, sv[1].X, sv[2].X))))
	minY := int(math.Max(0, math.Floor(min3(sv[0].Y, sv[1].Y, sv[2].Y))))
	maxY := int(math.Min(float64(r.Height()-1), math.Ceil(max3(sv[0].Y, sv[1].Y, sv[2].Y))))

	if minX > maxX || minY > maxY {
		return
	}

	A0, B0, C0 := edgeCoeffs(sv[1].X, sv[1].Y, sv[2].X, sv[2].Y)
	A1, B1, C1 := edgeCoeffs(sv[2].X, sv[2].Y, sv[0].X, sv[0].Y)
	A2, B2, C2 := edgeCoeffs(sv[0].X, sv[0].Y, sv[1].X, sv[1].Y)

	area2 := cross
	if area2 == 0 {
		return
	}
	invArea := 1.0 / area2

	// 1/W per vertex for perspective-correct interpolation
	var invW [3]float64
	for i := range 3 {
		if sv[i].W != 0 {
			invW[i] = 1.0 / sv[i].W
		}
	}

	px := float64(minX) + 0.5
	py := float64(minY) + 0.5

	w0Row := A0*px + B0*py + C0
	w1Row := A1*px + B1*py + C1
	w2Row := A2*px + B2*py + C2

	width := r.Width()
	zbuffer := r.zbuffer
	fb := r.fb

	for y := minY; y <= maxY; y++ {
		w0 := w0Row
		w1 := w1Row
		w2 := w2Row
		rowOffset := y * width

		for x := minX; x <= maxX; x++ {
			if w0 >= 0 && w1 >= 0 && w2 >= 0 {
				bc0 := w0 * invArea
				bc1 := w1 * invArea
				bc2 := w2 * invArea

				z := bc0*sv[0].Z + bc1*sv[1].Z + bc2*sv[2].Z

				idx := rowOffset + x
				if idx < len(zbuffer) && z < zbuffer[idx] {
					pw0 := bc0 * invW[0]
					pw1 := bc1 * invW[1]
					pw2 := bc2 * invW[2]
					oneOverW := pw0 + pw1 + pw2
					if oneOverW != 0 {
						invOneOverW := 1.0 / oneOverW
						u := (pw0*sv[0].UV.X + pw1*sv[1].UV.X + pw2*sv[2].UV.X) * invOneOverW
						v := (pw0*sv[0].UV.Y + pw1*sv[1].UV.Y + pw2*sv[2].UV.Y) * invOneOverW

						intensity := (pw0*vertexIntensity[0] + pw1*vertexIntensity[1] + pw2*vertexIntensity[2]) * invOneOverW

						base := interpolateColor3(sv[0].Color, sv[1].Color, sv[2].Color, bc0, bc1, bc2)
						texColor := ModulateColor(tex.Sample(u, v), base)
						litColor := MultiplyColor(texColor, intensity)

						zbuffer[idx] = z
						fb.SetPixel(x, y, litColor)
					}
				}
			}

			w0 += A0
			w1 += A1
			w2 += A2
		}

		w0Row += B0
		w1Row += B1
		w2Row += B2
	}
}

// interpolateColor3 interpolates between 3 colors using barycentric coords.
func interpolateColor3(c0, c1, c2 Color, bc0, bc1, bc2 float64) Color {
	return RGB(
		uint8(float64(c0.R)*bc0+float64(c1.R)*bc1+float64(c2.R)*bc2),
		uint8(float64(c0.G)*bc0+float64(c1.G)*bc1+float64(c2.G)*bc2),
		uint8(float64(c0.B)*bc0+float64(c1.B)*bc1+float64(c2.B)*bc2),
	)
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}

// MeshRenderer lets the rasterizer draw meshes without importing the
// models package.
type MeshRenderer interface {
	VertexCount() int
	TriangleCount() int
	GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2)
	GetFace(i int) [3]int
}

// BoundedMeshRenderer extends MeshRenderer with bounding box support
// for frustum culling.
type BoundedMeshRenderer interface {
	MeshRenderer
	GetBounds() (min, max math3d.Vec3)
}

// tryFrustumCull attempts to cull a mesh using its bounds if available.
// Returns true if the mesh should be culled (not visible).
func (r *Rasterizer) tryFrustumCull(mesh MeshRenderer, transform math3d.Mat4) bool {
	bounded, ok := mesh.(BoundedMeshRenderer)
	if !ok {
		return false
	}

	r.CullingStats.MeshesTested++

	minBounds, maxBounds := bounded.GetBounds()
	if !r.IsVisibleTransformed(AABB{Min: minBounds, Max: maxBounds}, transform) {
		r.CullingStats.MeshesCulled++
		return true
	}

	r.CullingStats.MeshesDrawn++
	return false
}

// DrawMeshGouraud renders a mesh with Gouraud shading.
// Automatically performs frustum culling if the mesh provides bounds.
func (r *Rasterizer) DrawMeshGouraud(mesh MeshRenderer, transform math3d.Mat4, color Color, lightDir math3d.Vec3) {
	if r.tryFrustumCull(mesh, transform) {
		return
	}

	for i := 0; i < mesh.TriangleCount(); i++ {
		face := mesh.GetFace(i)

		p0, n0, _ := mesh.GetVertex(face[0])
		p1, n1, _ := mesh.GetVertex(face[1])
		p2, n2, _ := mesh.GetVertex(face[2])

		tri := Triangle{
			V: [3]Vertex{
				{Position: transform.MulVec3(p0), Normal: transform.MulVec3Dir(n0).Normalize(), Color: color},
				{Position: transform.MulVec3(p1), Normal: transform.MulVec3Dir(n1).Normalize(), Color: color},
				{Position: transform.MulVec3(p2), Normal: transform.MulVec3Dir(n2).Normalize(), Color: color},
			},
		}

		r.DrawTriangleGouraud(tri, lightDir)
	}
}

// DrawMeshFlat renders a mesh with flat shading: one lighting value per
// face, computed from the face normal.
// Automatically performs frustum culling if the mesh provides bounds.
func (r *Rasterizer) DrawMeshFlat(mesh MeshRenderer, transform math3d.Mat4, color Color, lightDir math3d.Vec3) {
	if r.tryFrustumCull(mesh, transform) {
		return
	}

	for i := 0; i < mesh.TriangleCount(); i++ {
		face := mesh.GetFace(i)

		p0, _, _ := mesh.GetVertex(face[0])
		p1, _, _ := mesh.GetVertex(face[1])
		p2, _, _ := mesh.GetVertex(face[2])

		v0 := transform.MulVec3(p0)
		v1 := transform.MulVec3(p1)
		v2 := transform.MulVec3(p2)

		// Shared normal gives every fragment of the face the same intensity.
		normal := v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()

		tri := Triangle{
			V: [3]Vertex{
				{Position: v0, Normal: normal, Color: color},
				{Position: v1, Normal: normal, Color: color},
				{Position: v2, Normal: normal, Color: color},
			},
		}

		r.DrawTriangleGouraud(tri, lightDir)
	}
}

// DrawMeshTextured renders a mesh with texture mapping, Gouraud
// shading and a base color modulating the texture.
// Automatically performs frustum culling if the mesh provides bounds.
func (r *Rasterizer) DrawMeshTextured(mesh MeshRenderer, transform math3d.Mat4, tex *Texture, base Color, lightDir math3d.Vec3) {
	if r.tryFrustumCull(mesh, transform) {
		return
	}

	for i := 0; i < mesh.TriangleCount(); i++ {
		face := mesh.GetFace(i)

		p0, n0, uv0 := mesh.GetVertex(face[0])
		p1, n1, uv1 := mesh.GetVertex(face[1])
		p2, n2, uv2 := mesh.GetVertex(face[2])

		tri := Triangle{
			V: [3]Vertex{
				{Position: transform.MulVec3(p0), Normal: transform.MulVec3Dir(n0).Normalize(), UV: uv0, Color: base},
				{Position: transform.MulVec3(p1), Normal: transform.MulVec3Dir(n1).Normalize(), UV: uv1, Color: base},
				{Position: transform.MulVec3(p2), Normal: transform.MulVec3Dir(n2).Normalize(), UV: uv2, Color: base},
			},
		}

		r.DrawTriangleTextured(tri, tex, lightDir)
	}
}

// DrawMeshWireframe renders a mesh as wireframe.
// Automatically performs frustum culling if the mesh provides bounds.
func (r *Rasterizer) DrawMeshWireframe(mesh MeshRenderer, transform math3d.Mat4, color Color) {
	if r.tryFrustumCull(mesh, transform) {
		return
	}

	for i := 0; i < mesh.TriangleCount(); i++ {
		face := mesh.GetFace(i)

		p0, _, _ := mesh.GetVertex(face[0])
		p1, _, _ := mesh.GetVertex(face[1])
		p2, _, _ := mesh.GetVertex(face[2])

		v0 := transform.MulVec3(p0)
		v1 := transform.MulVec3(p1)
		v2 := transform.MulVec3(p2)

		r.drawLine3D(v0, v1, color)
		r.drawLine3D(v1, v2, color)
		r.drawLine3D(v2, v0, color)
	}
}

// drawLine3D draws a 3D line (projected to screen).
func (r *Rasterizer) drawLine3D(a, b math3d.Vec3, color Color) {
	viewProj := r.camera.ViewProjectionMatrix()

	clipA := viewProj.MulVec4(math3d.V4FromV3(a, 1))
	clipB := viewProj.MulVec4(math3d.V4FromV3(b, 1))

	// Both behind camera
	if clipA.W <= 0 && clipB.W <= 0 {
		return
	}

	if clipA.W > 0 {
		clipA.X /= clipA.W
		clipA.Y /= clipA.W
	}
	if clipB.W > 0 {
		clipB.X /= clipB.W
		clipB.Y /= clipB.W
	}

	x0 := int((clipA.X + 1) * 0.5 * float64(r.Width()))
	y0 := int((1 - clipA.Y) * 0.5 * float64(r.Height()))
	x1 := int((clipB.X + 1) * 0.5 * float64(r.Width()))
	y1 := int((1 - clipB.Y) * 0.5 * float64(r.Height()))

	r.fb.DrawLine(x0, y0, x1, y1, color)
}
