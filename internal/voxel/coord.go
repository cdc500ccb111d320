package voxel

import "github.com/go-gl/mathgl/mgl32"

// BlockCoord is an integer position in world block space.
type BlockCoord struct {
	X, Y, Z int
}

func (b BlockCoord) Add(o BlockCoord) BlockCoord {
	return BlockCoord{b.X + o.X, b.Y + o.Y, b.Z + o.Z}
}

func (b BlockCoord) Sub(o BlockCoord) BlockCoord {
	return BlockCoord{b.X - o.X, b.Y - o.Y, b.Z - o.Z}
}

// Vec3 returns the block's minimum corner as a float vector.
func (b BlockCoord) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{float32(b.X), float32(b.Y), float32(b.Z)}
}

// ToChunkCoord returns the chunk owning b. Negative coordinates round
// toward negative infinity, so (-1,0,0) belongs to chunk (-1,0,0).
func (b BlockCoord) ToChunkCoord() ChunkCoord {
	return ChunkCoord{
		X: FloorDiv(b.X, ChunkWidth),
		Y: FloorDiv(b.Y, ChunkHeight),
		Z: FloorDiv(b.Z, ChunkDepth),
	}
}

// Local returns b relative to its owning chunk's minimum corner.
func (b BlockCoord) Local() (x, y, z int) {
	return FloorMod(b.X, ChunkWidth), FloorMod(b.Y, ChunkHeight), FloorMod(b.Z, ChunkDepth)
}

// BlockAt returns the block containing the world-space point p.
func BlockAt(p mgl32.Vec3) BlockCoord {
	return BlockCoord{floor32(p.X()), floor32(p.Y()), floor32(p.Z())}
}

// ChunkCoord is an integer position in chunk space. It is comparable and
// used directly as a map key.
type ChunkCoord struct {
	X, Y, Z int
}

func (c ChunkCoord) Add(o ChunkCoord) ChunkCoord {
	return ChunkCoord{c.X + o.X, c.Y + o.Y, c.Z + o.Z}
}

// ToBlockCoord returns the chunk's minimum corner in block space.
func (c ChunkCoord) ToBlockCoord() BlockCoord {
	return BlockCoord{c.X * ChunkWidth, c.Y * ChunkHeight, c.Z * ChunkDepth}
}

// Contains reports whether block b lies inside this chunk.
func (c ChunkCoord) Contains(b BlockCoord) bool {
	return b.ToChunkCoord() == c
}

// Neighbor returns the chunk adjacent across the given face.
func (c ChunkCoord) Neighbor(o Orientation) ChunkCoord {
	n := o.Normal()
	return ChunkCoord{c.X + n.X, c.Y + n.Y, c.Z + n.Z}
}

// Less orders chunk coordinates by Y, then X, then Z.
func (c ChunkCoord) Less(o ChunkCoord) bool {
	if c.Y != o.Y {
		return c.Y < o.Y
	}
	if c.X != o.X {
		return c.X < o.X
	}
	return c.Z < o.Z
}

// FloorDiv divides rounding toward negative infinity.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FloorMod is the remainder matching FloorDiv; the result has b's sign.
func FloorMod(a, b int) int {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}

func floor32(v float32) int {
	i := int(v)
	if v < float32(i) {
		i--
	}
	return i
}
