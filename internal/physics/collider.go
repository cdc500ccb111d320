package physics

import (
	"voxelshade/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
)

// ChunkCollider is the collision view of one chunk: its occupancy grid for
// traversals and its unit boxes for overlap tests.
type ChunkCollider struct {
	origin      voxel.BlockCoord
	offset      mgl32.Vec3
	grid        Grid
	boxes       []Box
	bounds      Box
	localBounds Box
}

var _ Collidable = (*ChunkCollider)(nil)

// NewChunkCollider wraps a chunk-local grid whose minimum corner sits at
// origin. Boxes are expected in world space.
func NewChunkCollider(origin voxel.BlockCoord, grid Grid, boxes []Box) *ChunkCollider {
	size := mgl32.Vec3{voxel.ChunkWidth, voxel.ChunkHeight, voxel.ChunkDepth}
	offset := origin.Vec3()
	return &ChunkCollider{
		origin:      origin,
		offset:      offset,
		grid:        grid,
		boxes:       boxes,
		bounds:      Box{Min: offset, Max: offset.Add(size)},
		localBounds: Box{Max: size},
	}
}

// Bounds returns the chunk's world-space extent.
func (c *ChunkCollider) Bounds() Box { return c.bounds }

// Boxes returns the world-space unit boxes of the chunk's solid blocks.
func (c *ChunkCollider) Boxes() []Box { return c.boxes }

// Raycast traverses the chunk grid. The hit is reported in world space.
func (c *ChunkCollider) Raycast(ray Ray) (RaycastHit, bool) {
	hit, ok := Traverse(ray.Translate(c.offset), c.localBounds, c.grid, MaxTraversalSteps)
	if !ok {
		return RaycastHit{}, false
	}
	hit.Box = hit.Box.Translate(c.offset)
	hit.Voxel = hit.Voxel.Add(c.origin)
	return hit, true
}

// Intersect returns the bounding box of every overlap between box and the
// chunk's solid blocks.
func (c *ChunkCollider) Intersect(box Box) (Box, bool) {
	if _, ok := c.bounds.Intersect(box); !ok {
		return Box{}, false
	}
	var out Box
	found := false
	for _, b := range c.boxes {
		o, ok := b.Intersect(box)
		if !ok {
			continue
		}
		if !found {
			out, found = o, true
			continue
		}
		out = out.Union(o)
	}
	return out, found
}
