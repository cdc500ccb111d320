package world

import (
	"voxelshade/internal/atlas"
	"voxelshade/internal/meshing"
	"voxelshade/internal/physics"
	"voxelshade/internal/voxel"
)

// Chunk is a 16x16x16 block grid plus the mesh and collider derived from
// it. Mesh and collider are replaced wholesale on every rebuild.
type Chunk struct {
	coord  voxel.ChunkCoord
	blocks [voxel.ChunkVolume]voxel.BlockData

	mesh     *meshing.Mesh
	collider *physics.ChunkCollider
	version  uint64
	rebuilds int
}

// NewChunk returns an empty chunk at coord.
func NewChunk(coord voxel.ChunkCoord) *Chunk {
	return &Chunk{coord: coord}
}

func (c *Chunk) Coord() voxel.ChunkCoord { return c.coord }

// Origin returns the chunk's minimum corner in block space.
func (c *Chunk) Origin() voxel.BlockCoord { return c.coord.ToBlockCoord() }

// At returns the block at local coordinates.
func (c *Chunk) At(x, y, z int) voxel.BlockData {
	return c.blocks[voxel.LocalIndex(x, y, z)]
}

// Set writes the block at local coordinates. It does not rebuild; edits
// that must be visible go through Manager.TrySetBlock.
func (c *Chunk) Set(x, y, z int, b voxel.BlockData) {
	c.blocks[voxel.LocalIndex(x, y, z)] = b
}

// Ptr gives mutable access to one cell. The pointer is valid for the
// chunk's lifetime.
func (c *Chunk) Ptr(x, y, z int) *voxel.BlockData {
	return &c.blocks[voxel.LocalIndex(x, y, z)]
}

// Blocks exposes the dense grid in voxel.LocalIndex order.
func (c *Chunk) Blocks() *[voxel.ChunkVolume]voxel.BlockData {
	return &c.blocks
}

// Solid implements physics.Grid. Cells outside the chunk are empty.
func (c *Chunk) Solid(x, y, z int) bool {
	if !voxel.InChunk(x, y, z) {
		return false
	}
	return c.blocks[voxel.LocalIndex(x, y, z)].Solid()
}

// Mesh returns the current mesh, nil before the first rebuild.
func (c *Chunk) Mesh() *meshing.Mesh { return c.mesh }

func (c *Chunk) Collider() *physics.ChunkCollider { return c.collider }

// Version increments on every rebuild.
func (c *Chunk) Version() uint64 { return c.version }

// Rebuilds counts how many times the chunk was remeshed.
func (c *Chunk) Rebuilds() int { return c.rebuilds }

func (c *Chunk) rebuild(lookup meshing.BlockLookup, a *atlas.Atlas, mats meshing.Materials, opts meshing.Options) {
	mesh := meshing.Build(c.coord, c, lookup, a, mats, opts)
	collider := physics.NewChunkCollider(c.Origin(), c, mesh.Boxes)
	c.mesh, c.collider = mesh, collider
	c.version++
	c.rebuilds++
}

// detach drops the derived state of a removed chunk.
func (c *Chunk) detach() {
	c.mesh = nil
	c.collider = nil
}
