package models

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Hafiznapster/orbiterm/pkg/math3d"
)

// writeTriangleGLB writes a minimal GLB containing a single triangle,
// one node referencing it, and a rotation animation turning the node
// 180 degrees around Y over two seconds.
func writeTriangleGLB(t *testing.T) string {
	t.Helper()

	var bin bytes.Buffer
	putF32 := func(vals ...float32) {
		for _, v := range vals {
			binary.Write(&bin, binary.LittleEndian, v)
		}
	}

	// Positions: bufferView 0, offset 0, 36 bytes
	putF32(0, 0, 0)
	putF32(1, 0, 0)
	putF32(0, 1, 0)
	// Indices: bufferView 1, offset 36, 6 bytes + 2 padding
	binary.Write(&bin, binary.LittleEndian, []uint16{0, 1, 2})
	bin.Write([]byte{0, 0})
	// Keyframe times: bufferView 2, offset 44, 8 bytes
	putF32(0, 2)
	// Rotation keyframes: bufferView 3, offset 52, 32 bytes
	putF32(0, 0, 0, 1)
	putF32(0, 1, 0, 0)

	jsonDoc := `{
		"asset": {"version": "2.0"},
		"buffers": [{"byteLength": 84}],
		"bufferViews": [
			{"buffer": 0, "byteOffset": 0, "byteLength": 36},
			{"buffer": 0, "byteOffset": 36, "byteLength": 6},
			{"buffer": 0, "byteOffset": 44, "byteLength": 8},
			{"buffer": 0, "byteOffset": 52, "byteLength": 32}
		],
		"accessors": [
			{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3", "min": [0,0,0], "max": [1,1,0]},
			{"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"},
			{"bufferView": 2, "componentType": 5126, "count": 2, "type": "SCALAR", "min": [0], "max": [2]},
			{"bufferView": 3, "componentType": 5126, "count": 2, "type": "VEC4"}
		],
		"meshes": [{"name": "tri", "primitives": [{"attributes": {"POSITION": 0}, "indices": 1}]}],
		"nodes": [{"name": "spinner", "mesh": 0}],
		"scenes": [{"nodes": [0]}],
		"scene": 0,
		"animations": [{
			"name": "turn",
			"channels": [{"sampler": 0, "target": {"node": 0, "path": "rotation"}}],
			"samplers": [{"input": 2, "output": 3, "interpolation": "LINEAR"}]
		}]
	}`

	pad := func(b []byte, fill byte) []byte {
		for len(b)%4 != 0 {
			b = append(b, fill)
		}
		return b
	}
	jsonChunk := pad([]byte(jsonDoc), ' ')
	binChunk := pad(bin.Bytes(), 0)

	var glb bytes.Buffer
	write := func(v uint32) { binary.Write(&glb, binary.LittleEndian, v) }
	write(0x46546C67) // "glTF"
	write(2)
	write(uint32(12 + 8 + len(jsonChunk) + 8 + len(binChunk)))
	write(uint32(len(jsonChunk)))
	write(0x4E4F534A) // "JSON"
	glb.Write(jsonChunk)
	write(uint32(len(binChunk)))
	write(0x004E4942) // "BIN"
	glb.Write(binChunk)

	path := filepath.Join(t.TempDir(), "triangle.glb")
	if err := os.WriteFile(path, glb.Bytes(), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadGLBInvalidPath(t *testing.T) {
	_, err := LoadGLB("/nonexistent/path.glb")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoaderCreation(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Error("NewLoader returned nil")
		return
	}
	if !loader.CalculateNormals {
		t.Error("CalculateNormals should default to true")
	}
	if !loader.SmoothNormals {
		t.Error("SmoothNormals should default to true")
	}
}

func TestLoadGLBTriangle(t *testing.T) {
	model, err := LoadGLB(writeTriangleGLB(t))
	if err != nil {
		t.Fatalf("LoadGLB failed: %v", err)
	}

	if len(model.Meshes) != 1 {
		t.Fatalf("Expected 1 mesh, got %d", len(model.Meshes))
	}
	mesh := model.Meshes[0]
	if mesh.VertexCount() != 3 {
		t.Errorf("Expected 3 vertices, got %d", mesh.VertexCount())
	}
	if mesh.TriangleCount() != 1 {
		t.Fatalf("Expected 1 triangle, got %d", mesh.TriangleCount())
	}
	// Front-face winding gets reversed on load
	if mesh.Faces[0].V != [3]int{0, 2, 1} {
		t.Errorf("Expected face indices [0 2 1], got %v", mesh.Faces[0].V)
	}
	if !mesh.HasNormals() {
		t.Error("Loader should have generated normals")
	}

	min, max := mesh.GetBounds()
	if min.X != 0 || min.Y != 0 || min.Z != 0 {
		t.Errorf("Unexpected bounds min: %v", min)
	}
	if max.X != 1 || max.Y != 1 || max.Z != 0 {
		t.Errorf("Unexpected bounds max: %v", max)
	}
}

func TestLoadGLBNodes(t *testing.T) {
	model, err := LoadGLB(writeTriangleGLB(t))
	if err != nil {
		t.Fatalf("LoadGLB failed: %v", err)
	}

	if len(model.Nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(model.Nodes))
	}
	node := model.Nodes[0]
	if node.Name != "spinner" {
		t.Errorf("Expected node name 'spinner', got %q", node.Name)
	}
	if node.Parent != -1 {
		t.Errorf("Expected root node, got parent %d", node.Parent)
	}
	if len(node.Meshes) != 1 || node.Meshes[0] != 0 {
		t.Errorf("Expected node to reference mesh 0, got %v", node.Meshes)
	}
	if got := model.Roots(); len(got) != 1 || got[0] != 0 {
		t.Errorf("Expected roots [0], got %v", got)
	}
}

func TestLoadGLBAnimation(t *testing.T) {
	model, err := LoadGLB(writeTriangleGLB(t))
	if err != nil {
		t.Fatalf("LoadGLB failed: %v", err)
	}

	if len(model.Clips) != 1 {
		t.Fatalf("Expected 1 clip, got %d", len(model.Clips))
	}
	clip := model.Clips[0]
	if clip.Name != "turn" {
		t.Errorf("Expected clip name 'turn', got %q", clip.Name)
	}
	if clip.Duration() != 2 {
		t.Errorf("Expected duration 2, got %v", clip.Duration())
	}
	if len(clip.Channels) != 1 {
		t.Fatalf("Expected 1 channel, got %d", len(clip.Channels))
	}
	ch := clip.Channels[0]
	if ch.Path != PathRotation {
		t.Errorf("Expected rotation channel, got %v", ch.Path)
	}
	if ch.Node != 0 {
		t.Errorf("Expected channel targeting node 0, got %d", ch.Node)
	}
}

func TestLoadGLBAnimationPlayback(t *testing.T) {
	model, err := LoadGLB(writeTriangleGLB(t))
	if err != nil {
		t.Fatalf("LoadGLB failed: %v", err)
	}

	mixer := NewMixer(model)
	if !mixer.Playing() {
		t.Fatal("Mixer should auto-play the first clip")
	}

	// Halfway through a 180 degree Y turn the node has rotated 90
	// degrees, sending +X to -Z.
	mixer.Update(1.0)
	tfs := mixer.GlobalTransforms(nil)
	got := tfs[0].MulVec3Dir(math3d.V3(1, 0, 0))
	want := math3d.V3(0, 0, -1)
	if math.Abs(got.X-want.X) > 1e-6 || math.Abs(got.Y-want.Y) > 1e-6 || math.Abs(got.Z-want.Z) > 1e-6 {
		t.Errorf("Expected rotated +X near %v, got %v", want, got)
	}
}
