package render

import (
	"encoding/binary"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"voxelshade/internal/gpu"
	"voxelshade/internal/meshing"
	"voxelshade/internal/physics"
	"voxelshade/internal/voxel"
	"voxelshade/internal/world"
)

// VertexLayout describes meshing.Vertex for the block programs.
var VertexLayout = gpu.VertexLayout{
	Stride: meshing.VertexSize,
	Attribs: []gpu.VertexAttrib{
		{Location: 0, Components: 3, Type: gpu.AttribFloat, Offset: 0},
		{Location: 1, Components: 1, Type: gpu.AttribUint, Offset: 12},
		{Location: 2, Components: 2, Type: gpu.AttribFloat, Offset: 16},
		{Location: 3, Components: 2, Type: gpu.AttribFloat, Offset: 24},
	},
}

var chunkExtent = mgl32.Vec3{voxel.ChunkWidth, voxel.ChunkHeight, voxel.ChunkDepth}

// gpuFace is the std430 layout of FaceInfo in the faces buffer.
type gpuFace struct {
	Position [4]float32
	Up       [4]float32
	Right    [4]float32
	Atlas    [4]uint32
}

// GPUFaceSize is the std430 stride of one face record.
const GPUFaceSize = 64

// ChunkMesh is the device state of one chunk's mesh: vertex and index
// buffers, the face records and the face texture the lighting pass writes.
type ChunkMesh struct {
	Coord   voxel.ChunkCoord
	Version uint64

	Vertices    gpu.Buffer
	Indices     gpu.Buffer
	Faces       gpu.Buffer
	FaceTexture gpu.Texture

	IndexCount int
	FaceCount  int
	// Lights are in world space.
	Lights []meshing.Light
	Bounds physics.Box
}

func vec4(v [3]float32, w float32) [4]float32 {
	return [4]float32{v[0], v[1], v[2], w}
}

func encodeFaces(faces []meshing.FaceInfo) []byte {
	out := make([]gpuFace, len(faces))
	for i, f := range faces {
		out[i] = gpuFace{
			Position: vec4(f.Position, 1),
			Up:       vec4(f.Up, 0),
			Right:    vec4(f.Right, 0),
			Atlas:    [4]uint32{f.AtlasX, f.AtlasY, f.Orientation, 0},
		}
	}
	buf, _ := binary.Append(nil, binary.LittleEndian, out)
	return buf
}

// NewChunkMesh uploads the current mesh of c. The chunk must have at least
// one face. On error nothing is left allocated.
func NewChunkMesh(dev gpu.Device, c *world.Chunk) (_ *ChunkMesh, err error) {
	mesh := c.Mesh()
	if mesh.Empty() {
		panic(fmt.Sprintf("render: upload of empty mesh for chunk %v", c.Coord()))
	}
	origin := c.Origin().Vec3()
	cm := &ChunkMesh{
		Coord:      c.Coord(),
		Version:    c.Version(),
		IndexCount: len(mesh.Indices),
		FaceCount:  mesh.FaceCount(),
		Bounds:     physics.NewBox(origin, origin.Add(chunkExtent)),
	}
	defer func() {
		if err != nil {
			cm.Release()
		}
	}()

	vb, _ := binary.Append(nil, binary.LittleEndian, mesh.Vertices)
	if cm.Vertices, err = dev.CreateBuffer(gpu.VertexBuffer, vb); err != nil {
		return nil, fmt.Errorf("upload chunk %v vertices: %w", c.Coord(), err)
	}
	ib, _ := binary.Append(nil, binary.LittleEndian, mesh.Indices)
	if cm.Indices, err = dev.CreateBuffer(gpu.IndexBuffer, ib); err != nil {
		return nil, fmt.Errorf("upload chunk %v indices: %w", c.Coord(), err)
	}
	if cm.Faces, err = dev.CreateBuffer(gpu.StorageBuffer, encodeFaces(mesh.Faces)); err != nil {
		return nil, fmt.Errorf("upload chunk %v faces: %w", c.Coord(), err)
	}
	w, h := FaceTextureSize(cm.FaceCount)
	cm.FaceTexture, err = dev.CreateTexture(gpu.TextureDesc{
		Width:  w,
		Height: h,
		Format: gpu.FormatRGBA8,
		Usage:  gpu.UsageSampled | gpu.UsageStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("create chunk %v face texture: %w", c.Coord(), err)
	}

	cm.Lights = make([]meshing.Light, len(mesh.Lights))
	for i, l := range mesh.Lights {
		l.Position = origin.Add(l.Position)
		cm.Lights[i] = l
	}
	return cm, nil
}

// Release frees every device resource. It is safe on a partially built
// mesh.
func (cm *ChunkMesh) Release() {
	gpu.ReleaseAll(cm.Vertices, cm.Indices, cm.Faces, cm.FaceTexture)
	cm.Vertices, cm.Indices, cm.Faces, cm.FaceTexture = nil, nil, nil, nil
}
