package models

import (
	"math"
	"testing"

	"github.com/Hafiznapster/orbiterm/pkg/math3d"
)

func quadMesh() *Mesh {
	mesh := NewMesh("quad")
	mesh.Vertices = []MeshVertex{
		{Position: math3d.V3(0, 0, 0)},
		{Position: math3d.V3(2, 0, 0)},
		{Position: math3d.V3(2, 2, 0)},
		{Position: math3d.V3(0, 2, 0)},
	}
	mesh.Faces = []Face{
		{V: [3]int{0, 1, 2}},
		{V: [3]int{0, 2, 3}},
	}
	return mesh
}

func TestMeshBounds(t *testing.T) {
	mesh := quadMesh()
	mesh.CalculateBounds()

	min, max := mesh.GetBounds()
	if !vecNear(min, math3d.V3(0, 0, 0)) {
		t.Errorf("Bounds min = %v, want origin", min)
	}
	if !vecNear(max, math3d.V3(2, 2, 0)) {
		t.Errorf("Bounds max = %v, want (2 2 0)", max)
	}
	if !vecNear(mesh.Center(), math3d.V3(1, 1, 0)) {
		t.Errorf("Center = %v, want (1 1 0)", mesh.Center())
	}
	if !vecNear(mesh.Size(), math3d.V3(2, 2, 0)) {
		t.Errorf("Size = %v, want (2 2 0)", mesh.Size())
	}
}

func TestMeshEmptyBounds(t *testing.T) {
	mesh := NewMesh("empty")
	mesh.CalculateBounds()
	min, max := mesh.GetBounds()
	if !vecNear(min, math3d.Zero3()) || !vecNear(max, math3d.Zero3()) {
		t.Errorf("Empty mesh bounds = %v %v, want zeros", min, max)
	}
}

func TestMeshHasNormals(t *testing.T) {
	mesh := quadMesh()
	if mesh.HasNormals() {
		t.Error("Fresh mesh should report no normals")
	}
	mesh.CalculateFlatNormals()
	if !mesh.HasNormals() {
		t.Error("Mesh should report normals after generation")
	}
}

func TestMeshFlatNormals(t *testing.T) {
	mesh := quadMesh()
	mesh.CalculateFlatNormals()

	for i, v := range mesh.Vertices {
		if math.Abs(v.Normal.Len()-1) > 1e-9 {
			t.Errorf("Vertex %d normal not unit length: %v", i, v.Normal)
		}
		if math.Abs(math.Abs(v.Normal.Z)-1) > 1e-9 {
			t.Errorf("Vertex %d normal = %v, want along Z for a flat quad", i, v.Normal)
		}
	}
}

func TestMeshSmoothNormals(t *testing.T) {
	mesh := quadMesh()
	mesh.CalculateSmoothNormals()

	// A planar mesh yields identical smooth and flat normals.
	first := mesh.Vertices[0].Normal
	for i, v := range mesh.Vertices {
		if !vecNear(v.Normal, first) {
			t.Errorf("Vertex %d normal = %v, expected uniform %v", i, v.Normal, first)
		}
	}
}

func TestMeshCounts(t *testing.T) {
	mesh := quadMesh()
	if mesh.VertexCount() != 4 {
		t.Errorf("VertexCount = %d, want 4", mesh.VertexCount())
	}
	if mesh.TriangleCount() != 2 {
		t.Errorf("TriangleCount = %d, want 2", mesh.TriangleCount())
	}
}

func TestModelBounds(t *testing.T) {
	mesh := quadMesh()
	mesh.CalculateBounds()

	model := &Model{
		Name:   "test",
		Meshes: []*Mesh{mesh},
		Nodes: []*Node{{
			Name:        "offset",
			Parent:      -1,
			Translation: math3d.V3(10, 0, 0),
			Rotation:    math3d.QuatIdentity(),
			Scale:       math3d.V3(1, 1, 1),
			Meshes:      []int{0},
		}},
		roots: []int{0},
	}

	min, max := model.Bounds()
	if !vecNear(min, math3d.V3(10, 0, 0)) {
		t.Errorf("Model bounds min = %v, want (10 0 0)", min)
	}
	if !vecNear(max, math3d.V3(12, 2, 0)) {
		t.Errorf("Model bounds max = %v, want (12 2 0)", max)
	}
}

func TestModelCounts(t *testing.T) {
	model := &Model{Meshes: []*Mesh{quadMesh(), quadMesh()}}
	if model.TriangleCount() != 4 {
		t.Errorf("TriangleCount = %d, want 4", model.TriangleCount())
	}
	if model.VertexCount() != 8 {
		t.Errorf("VertexCount = %d, want 8", model.VertexCount())
	}
}
