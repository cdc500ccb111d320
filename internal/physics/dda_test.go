package physics

import (
	"math/rand"
	"testing"

	"voxelshade/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var voxelOrigin = voxel.BlockCoord{}

type testGrid struct {
	solid map[voxel.BlockCoord]bool
	reads int
}

func newTestGrid(blocks ...voxel.BlockCoord) *testGrid {
	g := &testGrid{solid: make(map[voxel.BlockCoord]bool)}
	for _, b := range blocks {
		g.solid[b] = true
	}
	return g
}

func (g *testGrid) Solid(x, y, z int) bool {
	g.reads++
	return g.solid[voxel.BlockCoord{X: x, Y: y, Z: z}]
}

func (g *testGrid) boxes() []Box {
	out := make([]Box, 0, len(g.solid))
	for b := range g.solid {
		out = append(out, UnitBox(b))
	}
	return out
}

var chunkBounds = NewBox(mgl32.Vec3{}, mgl32.Vec3{16, 16, 16})

func TestTraverseSingleBlock(t *testing.T) {
	grid := newTestGrid(voxel.BlockCoord{X: 3, Y: 3, Z: 3})
	ray := NewRay(mgl32.Vec3{0, 3.5, 3.5}, mgl32.Vec3{1, 0, 0}, 100)

	hit, ok := Traverse(ray, chunkBounds, grid, 0)
	require.True(t, ok)
	assert.Equal(t, voxel.BlockCoord{X: 3, Y: 3, Z: 3}, hit.Voxel)
	assert.Equal(t, mgl32.Vec3{-1, 0, 0}, hit.Normal)
	assert.InDelta(t, 3, hit.Distance, 1e-5)
	assert.Equal(t, UnitBox(hit.Voxel), hit.Box)
}

func TestTraverseFromOutsideBounds(t *testing.T) {
	grid := newTestGrid(voxel.BlockCoord{X: 15, Y: 2, Z: 7})
	ray := NewRay(mgl32.Vec3{20, 2.5, 7.5}, mgl32.Vec3{-2, 0, 0}, Unbounded)

	hit, ok := Traverse(ray, chunkBounds, grid, 0)
	require.True(t, ok)
	assert.Equal(t, voxel.BlockCoord{X: 15, Y: 2, Z: 7}, hit.Voxel)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, hit.Normal, "entry voxel takes the bounds face normal")
	assert.InDelta(t, 2, hit.T, 1e-5)
	assert.InDelta(t, 4, hit.Distance, 1e-5)
}

func TestTraverseMisses(t *testing.T) {
	grid := newTestGrid(voxel.BlockCoord{X: 3, Y: 3, Z: 3})
	cases := []struct {
		name string
		ray  Ray
		cap  int
	}{
		{"empty line", NewRay(mgl32.Vec3{0, 5.5, 3.5}, mgl32.Vec3{1, 0, 0}, Unbounded), 0},
		{"too short", NewRay(mgl32.Vec3{0, 3.5, 3.5}, mgl32.Vec3{1, 0, 0}, 2.5), 0},
		{"step cap", NewRay(mgl32.Vec3{0, 3.5, 3.5}, mgl32.Vec3{1, 0, 0}, Unbounded), 2},
		{"outside bounds", NewRay(mgl32.Vec3{-4, 20, 3.5}, mgl32.Vec3{1, 0, 0}, Unbounded), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := Traverse(tc.ray, chunkBounds, grid, tc.cap)
			assert.False(t, ok)
		})
	}
}

func TestTraverseTieBreakPrefersX(t *testing.T) {
	// A perfect diagonal crosses the X and Y boundaries at the same t.
	grid := newTestGrid(voxel.BlockCoord{X: 1, Y: 0, Z: 0}, voxel.BlockCoord{X: 0, Y: 1, Z: 0})
	ray := NewRay(mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{1, 1, 0}, Unbounded)

	hit, ok := Traverse(ray, chunkBounds, grid, 0)
	require.True(t, ok)
	assert.Equal(t, voxel.BlockCoord{X: 1, Y: 0, Z: 0}, hit.Voxel)
	assert.Equal(t, mgl32.Vec3{-1, 0, 0}, hit.Normal)
}

func TestTraverseNegativeDirection(t *testing.T) {
	grid := newTestGrid(voxel.BlockCoord{X: 2, Y: 0, Z: 9})
	ray := NewRay(mgl32.Vec3{2.5, 12.25, 9.5}, mgl32.Vec3{0, -1, 0}, Unbounded)

	hit, ok := Traverse(ray, chunkBounds, grid, 0)
	require.True(t, ok)
	assert.Equal(t, voxel.BlockCoord{X: 2, Y: 0, Z: 9}, hit.Voxel)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, hit.Normal)
	assert.InDelta(t, 11.25, hit.T, 1e-5)
}

// Every traversal hit must agree with a brute-force raycast against the
// solid blocks' unit boxes.
func TestTraverseMatchesBoxList(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	grid := newTestGrid()
	for i := 0; i < 120; i++ {
		grid.solid[voxel.BlockCoord{X: rng.Intn(16), Y: rng.Intn(16), Z: rng.Intn(16)}] = true
	}
	boxes := grid.boxes()

	for i := 0; i < 500; i++ {
		origin := mgl32.Vec3{
			rng.Float32()*40 - 12,
			rng.Float32()*40 - 12,
			rng.Float32()*40 - 12,
		}
		// origins inside the chunk could start inside a solid block
		if _, inside := chunkBounds.Intersect(NewBox(origin, origin.Add(mgl32.Vec3{1e-3, 1e-3, 1e-3}))); inside {
			continue
		}
		target := mgl32.Vec3{rng.Float32() * 16, rng.Float32() * 16, rng.Float32() * 16}
		dir := target.Sub(origin)
		ray := NewRay(origin, dir, Unbounded)

		best := float32(-1)
		for _, b := range boxes {
			if h, ok := b.Raycast(ray); ok && (best < 0 || h.T < best) {
				best = h.T
			}
		}
		hit, ok := Traverse(ray, chunkBounds, grid, 0)
		if best < 0 {
			assert.False(t, ok, "ray %d: traversal hit %v, boxes missed", i, hit.Voxel)
			continue
		}
		require.True(t, ok, "ray %d: boxes hit at %f, traversal missed", i, best)
		assert.InDelta(t, best, hit.T, 1e-3, "ray %d", i)
	}
}

func TestChunkColliderWorldSpace(t *testing.T) {
	origin := voxel.BlockCoord{X: -16, Y: 0, Z: 32}
	grid := newTestGrid(voxel.BlockCoord{X: 5, Y: 1, Z: 2})
	boxes := []Box{UnitBox(origin.Add(voxel.BlockCoord{X: 5, Y: 1, Z: 2}))}
	c := NewChunkCollider(origin, grid, boxes)

	ray := NewRay(mgl32.Vec3{-20, 1.5, 34.5}, mgl32.Vec3{1, 0, 0}, Unbounded)
	hit, ok := c.Raycast(ray)
	require.True(t, ok)
	assert.Equal(t, voxel.BlockCoord{X: -11, Y: 1, Z: 34}, hit.Voxel)
	assert.Equal(t, boxes[0], hit.Box)
	assert.InDelta(t, 9, hit.T, 1e-5)

	o, ok := c.Intersect(NewBox(mgl32.Vec3{-10.5, 1.5, 34.5}, mgl32.Vec3{-9, 3, 36}))
	require.True(t, ok)
	assert.Equal(t, NewBox(mgl32.Vec3{-10.5, 1.5, 34.5}, mgl32.Vec3{-10, 2, 35}), o)

	_, ok = c.Intersect(NewBox(mgl32.Vec3{100, 0, 0}, mgl32.Vec3{101, 1, 1}))
	assert.False(t, ok)
}

func BenchmarkTraverse(b *testing.B) {
	grid := newTestGrid()
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			grid.solid[voxel.BlockCoord{X: x, Y: y, Z: 15}] = true
		}
	}
	ray := NewRay(mgl32.Vec3{3.3, 8.1, 0}, mgl32.Vec3{0.2, 0.1, 1}, Unbounded)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Traverse(ray, chunkBounds, grid, 0)
	}
}
