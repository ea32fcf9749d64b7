package models

import (
	"image"

	"github.com/Hafiznapster/orbiterm/pkg/math3d"
)

// Model is a complete loaded asset: meshes, the node hierarchy that
// places them, materials with decoded textures, and animation clips.
type Model struct {
	Name      string
	Meshes    []*Mesh
	Nodes     []*Node
	Materials []Material
	Textures  []image.Image
	Clips     []*Clip

	roots []int
}

// Node is one element of the scene hierarchy. Its local transform is
// either the decomposed TRS (which animation channels target) or a
// baked matrix when the asset provides one.
type Node struct {
	Name        string
	Parent      int // -1 for roots
	Children    []int
	Translation math3d.Vec3
	Rotation    math3d.Quat
	Scale       math3d.Vec3
	Matrix      *math3d.Mat4 // non-nil overrides TRS; such nodes are not animatable
	Meshes      []int        // Indices into Model.Meshes
}

// Material holds the subset of glTF PBR material data the renderer uses.
type Material struct {
	Name      string
	BaseColor [4]float64 // RGBA in 0-1 range
	Metallic  float64
	Roughness float64
	Texture   int // Index into Model.Textures (-1 for none)
}

// NodeTRS is a node's local transform as separate components, the form
// animation channels write into.
type NodeTRS struct {
	Translation math3d.Vec3
	Rotation    math3d.Quat
	Scale       math3d.Vec3
}

// LocalMatrix returns the node's local transform.
func (n *Node) LocalMatrix() math3d.Mat4 {
	if n.Matrix != nil {
		return *n.Matrix
	}
	return math3d.TRS(n.Translation, n.Rotation, n.Scale)
}

// Roots returns the indices of nodes without a parent.
func (m *Model) Roots() []int {
	return m.roots
}

// ComputeHierarchy derives parent links and root indices from each
// node's Children list. Call after assembling the node slice.
func (m *Model) ComputeHierarchy() {
	m.roots = m.roots[:0]
	for _, n := range m.Nodes {
		n.Parent = -1
	}
	for ni, node := range m.Nodes {
		for _, child := range node.Children {
			if child >= 0 && child < len(m.Nodes) {
				m.Nodes[child].Parent = ni
			}
		}
	}
	for ni, n := range m.Nodes {
		if n.Parent == -1 {
			m.roots = append(m.roots, ni)
		}
	}
}

// RestPose returns the TRS components of every node as loaded.
func (m *Model) RestPose() []NodeTRS {
	pose := make([]NodeTRS, len(m.Nodes))
	for i, n := range m.Nodes {
		pose[i] = NodeTRS{
			Translation: n.Translation,
			Rotation:    n.Rotation,
			Scale:       n.Scale,
		}
	}
	return pose
}

// GlobalTransforms resolves world transforms for every node using the
// given pose (nil means the rest pose). dst is reused when it has the
// right length, so the per-frame call does not allocate.
func (m *Model) GlobalTransforms(pose []NodeTRS, dst []math3d.Mat4) []math3d.Mat4 {
	if len(dst) != len(m.Nodes) {
		dst = make([]math3d.Mat4, len(m.Nodes))
	}
	for _, root := range m.roots {
		m.resolveNode(root, math3d.Identity(), pose, dst)
	}
	return dst
}

func (m *Model) resolveNode(idx int, parent math3d.Mat4, pose []NodeTRS, dst []math3d.Mat4) {
	n := m.Nodes[idx]

	var local math3d.Mat4
	switch {
	case n.Matrix != nil:
		local = *n.Matrix
	case pose != nil:
		p := pose[idx]
		local = math3d.TRS(p.Translation, p.Rotation, p.Scale)
	default:
		local = math3d.TRS(n.Translation, n.Rotation, n.Scale)
	}

	dst[idx] = parent.Mul(local)
	for _, child := range n.Children {
		m.resolveNode(child, dst[idx], pose, dst)
	}
}

// Bounds computes the world-space axis-aligned bounding box of the
// whole model at the rest pose.
func (m *Model) Bounds() (min, max math3d.Vec3) {
	globals := m.GlobalTransforms(nil, nil)

	first := true
	for ni, n := range m.Nodes {
		for _, mi := range n.Meshes {
			mesh := m.Meshes[mi]
			if len(mesh.Vertices) == 0 {
				continue
			}
			for _, corner := range boxCorners(mesh.BoundsMin, mesh.BoundsMax) {
				p := globals[ni].MulVec3(corner)
				if first {
					min, max = p, p
					first = false
					continue
				}
				min = min.Min(p)
				max = max.Max(p)
			}
		}
	}
	return min, max
}

func boxCorners(min, max math3d.Vec3) [8]math3d.Vec3 {
	return [8]math3d.Vec3{
		{X: min.X, Y: min.Y, Z: min.Z},
		{X: max.X, Y: min.Y, Z: min.Z},
		{X: min.X, Y: max.Y, Z: min.Z},
		{X: max.X, Y: max.Y, Z: min.Z},
		{X: min.X, Y: min.Y, Z: max.Z},
		{X: max.X, Y: min.Y, Z: max.Z},
		{X: min.X, Y: max.Y, Z: max.Z},
		{X: max.X, Y: max.Y, Z: max.Z},
	}
}

// TriangleCount returns the total triangle count across all meshes.
func (m *Model) TriangleCount() int {
	total := 0
	for _, mesh := range m.Meshes {
		total += mesh.TriangleCount()
	}
	return total
}

// VertexCount returns the total vertex count across all meshes.
func (m *Model) VertexCount() int {
	total := 0
	for _, mesh := range m.Meshes {
		total += mesh.VertexCount()
	}
	return total
}

// GetMaterial returns the material at index i, or nil when out of range.
func (m *Model) GetMaterial(i int) *Material {
	if i < 0 || i >= len(m.Materials) {
		return nil
	}
	return &m.Materials[i]
}

// GetTexture returns the decoded texture image at index i, or nil.
func (m *Model) GetTexture(i int) image.Image {
	if i < 0 || i >= len(m.Textures) {
		return nil
	}
	return m.Textures[i]
}
