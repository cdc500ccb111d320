package meshing

import (
	"slices"

	"voxelshade/internal/physics"
)

// UVInset shrinks atlas rectangles so bilinear filtering never reads the
// neighbouring tile.
const UVInset = 0.0005

// Vertex is the interleaved per-vertex layout uploaded to the GPU
// (32 bytes).
type Vertex struct {
	Position  [3]float32
	FaceIndex uint32
	UV        [2]float32
	LocalUV   [2]float32
}

// VertexSize is the byte stride of Vertex.
const VertexSize = 32

// FaceInfo describes one emitted quad. Entry i belongs to the vertices
// whose FaceIndex is i.
type FaceInfo struct {
	// Position is the chunk-local center of the block owning the face.
	Position    [3]float32
	Up          [3]float32
	Right       [3]float32
	AtlasX      uint32
	AtlasY      uint32
	Orientation uint32
}

// Light is a point light emitted by an exposed face of an emissive block.
type Light struct {
	Position [3]float32
	Color    [3]float32
	Radius   float32
}

// Mesh is the complete rebuild output for one chunk.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Faces    []FaceInfo
	Lights   []Light
	// Boxes are world-space unit boxes, one per solid block.
	Boxes []physics.Box
}

func (m *Mesh) FaceCount() int { return len(m.Faces) }

// Empty reports whether the mesh has nothing to draw.
func (m *Mesh) Empty() bool { return m == nil || len(m.Faces) == 0 }

// Equal compares two meshes element by element.
func (m *Mesh) Equal(o *Mesh) bool {
	return slices.Equal(m.Vertices, o.Vertices) &&
		slices.Equal(m.Indices, o.Indices) &&
		slices.Equal(m.Faces, o.Faces) &&
		slices.Equal(m.Lights, o.Lights) &&
		slices.Equal(m.Boxes, o.Boxes)
}
