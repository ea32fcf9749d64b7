package models

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder for embedded textures
	_ "image/png"  // Register PNG decoder for embedded textures
	"math"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"

	"github.com/Hafiznapster/orbiterm/pkg/math3d"
)

// Loader loads glTF/GLB files into the Model format.
type Loader struct {
	CalculateNormals bool
	SmoothNormals    bool
}

// NewLoader creates a loader with default options.
func NewLoader() *Loader {
	return &Loader{
		CalculateNormals: true,
		SmoothNormals:    true,
	}
}

// LoadGLB loads a binary glTF (.glb) or .gltf file with default options.
func LoadGLB(path string) (*Model, error) {
	return NewLoader().Load(path)
}

// Load reads a glTF or GLB file and returns the assembled Model:
// meshes per primitive, the node hierarchy, materials with decoded
// embedded textures, and animation clips.
func (l *Loader) Load(path string) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	model := &Model{Name: filepath.Base(path)}

	l.loadTextures(doc, model, filepath.Dir(path))
	l.loadMaterials(doc, model)

	// meshIndex[i] lists our mesh indices built from glTF mesh i
	meshIndex, err := l.loadMeshes(doc, model)
	if err != nil {
		return nil, err
	}

	l.loadNodes(doc, model, meshIndex)

	if err := l.loadAnimations(doc, model); err != nil {
		return nil, err
	}

	return model, nil
}

// loadMeshes builds one Mesh per triangle primitive and returns the
// glTF-mesh-index to model-mesh-indices mapping.
func (l *Loader) loadMeshes(doc *gltf.Document, model *Model) ([][]int, error) {
	meshIndex := make([][]int, len(doc.Meshes))

	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
				// Lines and points are not rendered
				continue
			}

			mesh, err := l.buildPrimitive(doc, gm, prim, pi)
			if err != nil {
				return nil, fmt.Errorf("mesh %q primitive %d: %w", gm.Name, pi, err)
			}
			if mesh == nil {
				continue
			}

			meshIndex[mi] = append(meshIndex[mi], len(model.Meshes))
			model.Meshes = append(model.Meshes, mesh)
		}
	}

	return meshIndex, nil
}

func (l *Loader) buildPrimitive(doc *gltf.Document, gm *gltf.Mesh, prim *gltf.Primitive, pi int) (*Mesh, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, nil
	}

	positions, err := readVec3(doc, posIdx)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	var normals []math3d.Vec3
	if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = readVec3(doc, normIdx); err != nil {
			return nil, fmt.Errorf("read normals: %w", err)
		}
	}

	var uvs []math3d.Vec2
	if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = readVec2(doc, uvIdx); err != nil {
			return nil, fmt.Errorf("read uvs: %w", err)
		}
	}

	mesh := NewMesh(fmt.Sprintf("%s/%d", gm.Name, pi))
	if prim.Material != nil {
		mesh.Material = *prim.Material
	}

	for i := range positions {
		v := MeshVertex{Position: positions[i]}
		if i < len(normals) {
			v.Normal = normals[i]
		}
		if i < len(uvs) {
			// glTF uses top-left UV origin (V=0 at top); flip V for
			// the renderer's bottom-left origin
			v.UV = math3d.V2(uvs[i].X, 1.0-uvs[i].Y)
		}
		mesh.Vertices = append(mesh.Vertices, v)
	}

	// glTF front faces wind CCW; the rasterizer expects CW because of
	// the Y-flip into screen space, so swap the last two indices.
	if prim.Indices != nil {
		indices, err := readIndices(doc, *prim.Indices)
		if err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
		for i := 0; i+2 < len(indices); i += 3 {
			mesh.Faces = append(mesh.Faces, Face{V: [3]int{
				indices[i],
				indices[i+2],
				indices[i+1],
			}})
		}
	} else {
		for i := 0; i+2 < len(positions); i += 3 {
			mesh.Faces = append(mesh.Faces, Face{V: [3]int{i, i + 2, i + 1}})
		}
	}

	if l.CalculateNormals && !mesh.HasNormals() {
		if l.SmoothNormals {
			mesh.CalculateSmoothNormals()
		} else {
			mesh.CalculateFlatNormals()
		}
	}

	mesh.CalculateBounds()
	return mesh, nil
}

// loadNodes mirrors the glTF node hierarchy into the model.
func (l *Loader) loadNodes(doc *gltf.Document, model *Model, meshIndex [][]int) {
	model.Nodes = make([]*Node, len(doc.Nodes))

	for ni, gn := range doc.Nodes {
		node := &Node{
			Name:        gn.Name,
			Parent:      -1,
			Children:    gn.Children,
			Translation: math3d.V3(gn.Translation[0], gn.Translation[1], gn.Translation[2]),
			Rotation:    quatOrIdentity(gn.Rotation),
			Scale:       scaleOrOne(gn.Scale),
		}
		if m := matrixOrNil(gn.Matrix); m != nil {
			node.Matrix = m
		}
		if gn.Mesh != nil && *gn.Mesh < len(meshIndex) {
			node.Meshes = meshIndex[*gn.Mesh]
		}
		model.Nodes[ni] = node
	}

	model.ComputeHierarchy()

	// Assets with no nodes at all still need the meshes visible:
	// synthesize a root referencing everything.
	if len(model.Nodes) == 0 && len(model.Meshes) > 0 {
		all := make([]int, len(model.Meshes))
		for i := range all {
			all[i] = i
		}
		model.Nodes = []*Node{{
			Name:     "root",
			Parent:   -1,
			Rotation: math3d.QuatIdentity(),
			Scale:    math3d.V3(1, 1, 1),
			Meshes:   all,
		}}
		model.roots = []int{0}
	}
}

func quatOrIdentity(r [4]float64) math3d.Quat {
	if r == ([4]float64{}) {
		return math3d.QuatIdentity()
	}
	return math3d.Q(r[0], r[1], r[2], r[3]).Normalize()
}

func scaleOrOne(s [3]float64) math3d.Vec3 {
	if s == ([3]float64{}) {
		return math3d.V3(1, 1, 1)
	}
	return math3d.V3(s[0], s[1], s[2])
}

// matrixOrNil returns the baked node matrix, or nil when it is the
// identity (or unset) so TRS remains authoritative.
func matrixOrNil(m [16]float64) *math3d.Mat4 {
	identity := [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	if m == ([16]float64{}) || m == identity {
		return nil
	}
	mat := math3d.Mat4(m)
	return &mat
}

// loadMaterials extracts the base-color portion of each PBR material.
func (l *Loader) loadMaterials(doc *gltf.Document, model *Model) {
	model.Materials = make([]Material, len(doc.Materials))

	for i, gm := range doc.Materials {
		mat := Material{
			Name:      gm.Name,
			BaseColor: [4]float64{1, 1, 1, 1},
			Metallic:  1,
			Roughness: 1,
			Texture:   -1,
		}
		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			if pbr.BaseColorFactor != nil {
				mat.BaseColor = *pbr.BaseColorFactor
			}
			if pbr.MetallicFactor != nil {
				mat.Metallic = *pbr.MetallicFactor
			}
			if pbr.RoughnessFactor != nil {
				mat.Roughness = *pbr.RoughnessFactor
			}
			if pbr.BaseColorTexture != nil {
				texIdx := pbr.BaseColorTexture.Index
				if texIdx >= 0 && texIdx < len(doc.Textures) && doc.Textures[texIdx].Source != nil {
					mat.Texture = *doc.Textures[texIdx].Source
				}
			}
		}
		model.Materials[i] = mat
	}
}

// loadTextures decodes every image in the document. Entries that fail
// to decode stay nil; the renderer falls back to a flat color.
func (l *Loader) loadTextures(doc *gltf.Document, model *Model, dir string) {
	model.Textures = make([]image.Image, len(doc.Images))

	for i, img := range doc.Images {
		var data []byte
		switch {
		case img.BufferView != nil:
			bv := doc.BufferViews[*img.BufferView]
			buf := doc.Buffers[bv.Buffer]
			if buf.Data != nil && bv.ByteOffset+bv.ByteLength <= len(buf.Data) {
				data = buf.Data[bv.ByteOffset : bv.ByteOffset+bv.ByteLength]
			}
		case img.URI != "":
			if b, err := os.ReadFile(filepath.Join(dir, img.URI)); err == nil {
				data = b
			}
		}
		if len(data) == 0 {
			continue
		}
		if decoded, _, err := image.Decode(bytes.NewReader(data)); err == nil {
			model.Textures[i] = decoded
		}
	}
}

// loadAnimations converts every glTF animation into a Clip.
func (l *Loader) loadAnimations(doc *gltf.Document, model *Model) error {
	for ai, ga := range doc.Animations {
		clip := &Clip{Name: ga.Name}
		if clip.Name == "" {
			clip.Name = fmt.Sprintf("clip %d", ai)
		}

		for ci, gc := range ga.Channels {
			if gc.Target.Node == nil {
				continue
			}
			if gc.Sampler < 0 || gc.Sampler >= len(ga.Samplers) {
				continue
			}
			sampler := ga.Samplers[gc.Sampler]

			ch, err := l.buildChannel(doc, sampler, *gc.Target.Node, gc.Target.Path)
			if err != nil {
				return fmt.Errorf("animation %q channel %d: %w", clip.Name, ci, err)
			}
			if ch != nil {
				clip.Channels = append(clip.Channels, *ch)
			}
		}

		if len(clip.Channels) > 0 {
			model.Clips = append(model.Clips, clip)
		}
	}
	return nil
}

func (l *Loader) buildChannel(doc *gltf.Document, sampler *gltf.AnimationSampler, node int, path gltf.TRSProperty) (*Channel, error) {
	times, err := readFloats(doc, sampler.Input)
	if err != nil {
		return nil, fmt.Errorf("read keyframe times: %w", err)
	}
	if len(times) == 0 {
		return nil, nil
	}

	ch := &Channel{
		Node:   node,
		Interp: InterpLinear,
		Times:  times,
	}
	if sampler.Interpolation == gltf.InterpolationStep {
		ch.Interp = InterpStep
	}
	// CUBICSPLINE output triples each key with tangents; the value is
	// the middle element and the track degrades to linear.
	cubic := sampler.Interpolation == gltf.InterpolationCubicSpline

	switch path {
	case gltf.TRSTranslation, gltf.TRSScale:
		vecs, err := readVec3(doc, sampler.Output)
		if err != nil {
			return nil, fmt.Errorf("read keyframe values: %w", err)
		}
		if cubic {
			vecs = middleOfTriples(vecs)
		}
		n := min(len(times), len(vecs))
		ch.Times = times[:n]
		ch.Vecs = vecs[:n]
		ch.Path = PathTranslation
		if path == gltf.TRSScale {
			ch.Path = PathScale
		}

	case gltf.TRSRotation:
		raw, err := readVec4(doc, sampler.Output)
		if err != nil {
			return nil, fmt.Errorf("read keyframe values: %w", err)
		}
		rots := make([]math3d.Quat, len(raw))
		for i, v := range raw {
			rots[i] = math3d.Q(v.X, v.Y, v.Z, v.W).Normalize()
		}
		if cubic {
			rots = middleOfTriples(rots)
		}
		n := min(len(times), len(rots))
		ch.Times = times[:n]
		ch.Rots = rots[:n]
		ch.Path = PathRotation

	default:
		// Morph target weights are not supported
		return nil, nil
	}

	if len(ch.Times) == 0 {
		return nil, nil
	}
	return ch, nil
}

func middleOfTriples[T any](vals []T) []T {
	out := make([]T, 0, len(vals)/3)
	for i := 1; i < len(vals); i += 3 {
		out = append(out, vals[i])
	}
	return out
}

// accessorBytes resolves an accessor to its raw buffer bytes, start
// offset and stride. elemSize is the tightly-packed element size used
// when the buffer view declares no stride.
func accessorBytes(doc *gltf.Document, accessor *gltf.Accessor, elemSize int) ([]byte, int, int, error) {
	if accessor.BufferView == nil {
		return nil, 0, 0, fmt.Errorf("accessor has no buffer view")
	}

	bufferView := doc.BufferViews[*accessor.BufferView]
	buffer := doc.Buffers[bufferView.Buffer]

	if buffer.URI != "" && buffer.Data == nil {
		return nil, 0, 0, fmt.Errorf("external buffer %q not loaded", buffer.URI)
	}
	if buffer.Data == nil {
		return nil, 0, 0, fmt.Errorf("buffer has no data")
	}

	start := bufferView.ByteOffset + accessor.ByteOffset
	stride := bufferView.ByteStride
	if stride == 0 {
		stride = elemSize
	}

	end := start + (accessor.Count-1)*stride + elemSize
	if accessor.Count == 0 {
		end = start
	}
	if end > len(buffer.Data) {
		return nil, 0, 0, fmt.Errorf("accessor range [%d:%d] exceeds buffer size %d", start, end, len(buffer.Data))
	}

	return buffer.Data, start, stride, nil
}

func f32(b []byte) float64 {
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
}

// readVec3 reads float VEC3 data from an accessor.
func readVec3(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec3 || accessor.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float VEC3, got %v/%v", accessor.Type, accessor.ComponentType)
	}

	data, start, stride, err := accessorBytes(doc, accessor, 12)
	if err != nil {
		return nil, err
	}

	out := make([]math3d.Vec3, accessor.Count)
	for i := range accessor.Count {
		off := start + i*stride
		out[i] = math3d.V3(f32(data[off:]), f32(data[off+4:]), f32(data[off+8:]))
	}
	return out, nil
}

// readVec2 reads float VEC2 data from an accessor.
func readVec2(doc *gltf.Document, accessorIdx int) ([]math3d.Vec2, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec2 || accessor.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float VEC2, got %v/%v", accessor.Type, accessor.ComponentType)
	}

	data, start, stride, err := accessorBytes(doc, accessor, 8)
	if err != nil {
		return nil, err
	}

	out := make([]math3d.Vec2, accessor.Count)
	for i := range accessor.Count {
		off := start + i*stride
		out[i] = math3d.V2(f32(data[off:]), f32(data[off+4:]))
	}
	return out, nil
}

// readVec4 reads float VEC4 data from an accessor.
func readVec4(doc *gltf.Document, accessorIdx int) ([]math3d.Vec4, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec4 || accessor.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float VEC4, got %v/%v", accessor.Type, accessor.ComponentType)
	}

	data, start, stride, err := accessorBytes(doc, accessor, 16)
	if err != nil {
		return nil, err
	}

	out := make([]math3d.Vec4, accessor.Count)
	for i := range accessor.Count {
		off := start + i*stride
		out[i] = math3d.V4(f32(data[off:]), f32(data[off+4:]), f32(data[off+8:]), f32(data[off+12:]))
	}
	return out, nil
}

// readFloats reads float SCALAR data from an accessor.
func readFloats(doc *gltf.Document, accessorIdx int) ([]float64, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorScalar || accessor.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float SCALAR, got %v/%v", accessor.Type, accessor.ComponentType)
	}

	data, start, stride, err := accessorBytes(doc, accessor, 4)
	if err != nil {
		return nil, err
	}

	out := make([]float64, accessor.Count)
	for i := range accessor.Count {
		out[i] = f32(data[start+i*stride:])
	}
	return out, nil
}

// readIndices reads SCALAR index data of any supported component type.
func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("expected SCALAR indices, got %v", accessor.Type)
	}

	var elemSize int
	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		elemSize = 1
	case gltf.ComponentUshort:
		elemSize = 2
	case gltf.ComponentUint:
		elemSize = 4
	default:
		return nil, fmt.Errorf("unsupported index component type: %v", accessor.ComponentType)
	}

	data, start, stride, err := accessorBytes(doc, accessor, elemSize)
	if err != nil {
		return nil, err
	}

	out := make([]int, accessor.Count)
	for i := range accessor.Count {
		off := start + i*stride
		switch accessor.ComponentType {
		case gltf.ComponentUbyte:
			out[i] = int(data[off])
		case gltf.ComponentUshort:
			out[i] = int(binary.LittleEndian.Uint16(data[off:]))
		case gltf.ComponentUint:
			out[i] = int(binary.LittleEndian.Uint32(data[off:]))
		}
	}
	return out, nil
}
