package voxel

// BlockID identifies a block type. Air is the only transparent block.
type BlockID uint16

const (
	Air BlockID = iota
	Grass
	Dirt
	Cobblestone
	Stone
	Bedrock
	Glowstone
)

// BlockData is the value stored per cell of a chunk grid.
type BlockData struct {
	ID BlockID
}

// Transparent reports whether light and sight pass through the block.
func (b BlockData) Transparent() bool { return b.ID == Air }

// Solid is the negation of Transparent.
func (b BlockData) Solid() bool { return b.ID != Air }

// Chunk dimensions in blocks.
const (
	ChunkWidth  = 16
	ChunkHeight = 16
	ChunkDepth  = 16
	ChunkVolume = ChunkWidth * ChunkHeight * ChunkDepth
)

// LocalIndex converts chunk-local coordinates into the flat grid index.
// Layout is [y][x][z]: z varies fastest, then x, then y.
func LocalIndex(x, y, z int) int {
	return y*ChunkWidth*ChunkDepth + x*ChunkDepth + z
}

// LocalFromIndex is the inverse of LocalIndex.
func LocalFromIndex(i int) (x, y, z int) {
	y = i / (ChunkWidth * ChunkDepth)
	r := i % (ChunkWidth * ChunkDepth)
	return r / ChunkDepth, y, r % ChunkDepth
}

// InChunk reports whether local coordinates address a cell inside a chunk.
func InChunk(x, y, z int) bool {
	return x >= 0 && x < ChunkWidth && y >= 0 && y < ChunkHeight && z >= 0 && z < ChunkDepth
}
