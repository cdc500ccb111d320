package render

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelshade/internal/gpu"
	"voxelshade/internal/gpu/gputest"
	"voxelshade/internal/meshing"
	"voxelshade/internal/voxel"
	"voxelshade/internal/world"
)

func singleBlockChunk(t *testing.T, cc voxel.ChunkCoord) *world.Chunk {
	m := world.NewManager(world.ManagerConfig{
		Atlas:     testAtlas(t),
		Generator: world.GeneratorFunc(func(c *world.Chunk) { c.Set(1, 2, 3, voxel.BlockData{ID: voxel.Stone}) }),
		Mesh:      meshing.DefaultOptions(),
	})
	return m.AddChunk(cc)
}

func TestNewChunkMesh(t *testing.T) {
	dev := gputest.New()
	c := singleBlockChunk(t, voxel.ChunkCoord{X: 1, Y: -1})

	cm, err := NewChunkMesh(dev, c)
	require.NoError(t, err)
	assert.Equal(t, 6, cm.FaceCount)
	assert.Equal(t, 36, cm.IndexCount)
	assert.Equal(t, c.Version(), cm.Version)
	assert.Equal(t, float32(16), cm.Bounds.Min.X())
	assert.Equal(t, float32(0), cm.Bounds.Max.Y())

	assert.Equal(t, 6*GPUFaceSize, cm.Faces.Size())
	assert.Equal(t, 24*meshing.VertexSize, cm.Vertices.Size())
	assert.Equal(t, 16*6, cm.FaceTexture.Width())
	assert.Equal(t, 16, cm.FaceTexture.Height())

	// First record is the top face of the block at local (1,2,3).
	data := cm.Faces.(*gputest.Buffer).Data
	x := math.Float32frombits(binary.LittleEndian.Uint32(data[0:]))
	w := math.Float32frombits(binary.LittleEndian.Uint32(data[12:]))
	orient := binary.LittleEndian.Uint32(data[56:])
	assert.Equal(t, float32(1.5), x)
	assert.Equal(t, float32(1), w)
	assert.Equal(t, uint32(voxel.Top), orient)

	cm.Release()
	assert.Equal(t, 0, dev.Live())
}

func TestNewChunkMeshFailureLeavesNothing(t *testing.T) {
	dev := gputest.New()
	c := singleBlockChunk(t, voxel.ChunkCoord{})
	dev.FailOn("CreateTexture", gpu.ErrResource)

	cm, err := NewChunkMesh(dev, c)
	assert.Nil(t, cm)
	assert.ErrorIs(t, err, gpu.ErrResource)
	assert.Equal(t, 0, dev.Live())
}

func TestNewChunkMeshPanicsOnEmpty(t *testing.T) {
	c := world.NewChunk(voxel.ChunkCoord{})
	assert.Panics(t, func() { _, _ = NewChunkMesh(gputest.New(), c) })
}
