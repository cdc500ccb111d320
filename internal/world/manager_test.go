package world

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
	"testing/fstest"

	"voxelshade/internal/atlas"
	"voxelshade/internal/meshing"
	"voxelshade/internal/physics"
	"voxelshade/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAtlas(t testing.TB) *atlas.Atlas {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 16, 16))))
	b := atlas.NewBuilder(fstest.MapFS{"x.png": {Data: buf.Bytes()}}, nil)
	for id := voxel.Grass; id <= voxel.Glowstone; id++ {
		b.Add(id, atlas.AllFaces("x.png"))
	}
	a, err := b.Finish(context.Background())
	require.NoError(t, err)
	return a
}

func newTestManager(t testing.TB, gen Generator) *Manager {
	return NewManager(ManagerConfig{
		Atlas:     testAtlas(t),
		Generator: gen,
		Mesh:      meshing.DefaultOptions(),
	})
}

// recorder counts listener events per chunk.
type recorder struct {
	added, removed, rebuilt map[voxel.ChunkCoord]int
	onAdded                 func(c *Chunk)
}

func newRecorder() *recorder {
	return &recorder{
		added:   make(map[voxel.ChunkCoord]int),
		removed: make(map[voxel.ChunkCoord]int),
		rebuilt: make(map[voxel.ChunkCoord]int),
	}
}

func (r *recorder) ChunkAdded(c *Chunk) {
	r.added[c.Coord()]++
	if r.onAdded != nil {
		r.onAdded(c)
	}
}
func (r *recorder) ChunkRemoved(c *Chunk) { r.removed[c.Coord()]++ }
func (r *recorder) ChunkRebuilt(c *Chunk) { r.rebuilt[c.Coord()]++ }

func loadCube(m *Manager, radius int) {
	for x := -radius; x <= radius; x++ {
		for y := -radius; y <= radius; y++ {
			for z := -radius; z <= radius; z++ {
				m.AddChunk(voxel.ChunkCoord{X: x, Y: y, Z: z})
			}
		}
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	m := newTestManager(t, Empty)
	m.AddChunk(voxel.ChunkCoord{X: -1, Y: 0, Z: 0})

	b := voxel.BlockCoord{X: -1, Y: 3, Z: 7}
	require.True(t, m.TrySetBlock(b, voxel.BlockData{ID: voxel.Cobblestone}))
	got, ok := m.TryGetBlock(b)
	require.True(t, ok)
	assert.Equal(t, voxel.Cobblestone, got.ID)

	c, ok := m.GetChunk(voxel.ChunkCoord{X: -1})
	require.True(t, ok)
	assert.Equal(t, voxel.Cobblestone, c.At(15, 3, 7).ID)
}

func TestSetOutsideLoadedChunksFails(t *testing.T) {
	m := newTestManager(t, Empty)
	m.AddChunk(voxel.ChunkCoord{})

	assert.False(t, m.TrySetBlock(voxel.BlockCoord{X: 16}, voxel.BlockData{ID: voxel.Stone}))
	_, ok := m.TryGetBlock(voxel.BlockCoord{X: -1})
	assert.False(t, ok)
}

func TestLastChunkCache(t *testing.T) {
	m := newTestManager(t, Empty)
	m.AddChunk(voxel.ChunkCoord{})
	m.AddChunk(voxel.ChunkCoord{X: 1})

	m.last, m.misses = nil, 0
	for x := 0; x < 16; x++ {
		_, ok := m.TryGetBlock(voxel.BlockCoord{X: x, Y: 2, Z: 2})
		require.True(t, ok)
	}
	assert.Equal(t, 1, m.misses)

	_, _ = m.TryGetBlock(voxel.BlockCoord{X: 16})
	_, _ = m.TryGetBlock(voxel.BlockCoord{X: 17})
	assert.Equal(t, 2, m.misses)

	m.RemoveChunk(voxel.ChunkCoord{X: 1})
	_, ok := m.TryGetBlock(voxel.BlockCoord{X: 17})
	assert.False(t, ok, "cache must not outlive the chunk")
}

func TestAddChunkKeepsOnePerCoordinate(t *testing.T) {
	m := newTestManager(t, LayeredGenerator{})
	a := m.AddChunk(voxel.ChunkCoord{X: 2})
	b := m.AddChunk(voxel.ChunkCoord{X: 2})
	assert.Same(t, a, b)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 1, a.Rebuilds())
}

func TestBoundaryEditRebuildsOnlySharingNeighbours(t *testing.T) {
	cases := []struct {
		name  string
		local voxel.BlockCoord
		want  []voxel.ChunkCoord
	}{
		{"interior", voxel.BlockCoord{X: 5, Y: 6, Z: 7}, nil},
		{"min x", voxel.BlockCoord{X: 0, Y: 6, Z: 7}, []voxel.ChunkCoord{{X: -1}}},
		{"max y", voxel.BlockCoord{X: 5, Y: 15, Z: 7}, []voxel.ChunkCoord{{Y: 1}}},
		{"min corner", voxel.BlockCoord{X: 0, Y: 0, Z: 0}, []voxel.ChunkCoord{{X: -1}, {Y: -1}, {Z: -1}}},
		{"max x max z", voxel.BlockCoord{X: 15, Y: 3, Z: 15}, []voxel.ChunkCoord{{X: 1}, {Z: 1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := newTestManager(t, LayeredGenerator{})
			loadCube(m, 1)
			rec := newRecorder()
			m.AddListener(rec)

			before := make(map[voxel.ChunkCoord]int)
			for _, c := range m.Chunks() {
				before[c.Coord()] = c.Rebuilds()
			}

			require.True(t, m.TrySetBlock(tc.local, voxel.BlockData{ID: voxel.Glowstone}))

			want := map[voxel.ChunkCoord]int{{}: 1}
			for _, cc := range tc.want {
				want[cc] = 1
			}
			for _, c := range m.Chunks() {
				assert.Equal(t, want[c.Coord()], c.Rebuilds()-before[c.Coord()], "chunk %v", c.Coord())
				assert.Equal(t, want[c.Coord()], rec.rebuilt[c.Coord()], "listener, chunk %v", c.Coord())
			}
		})
	}
}

func TestNeighbourArrivalCullsBoundary(t *testing.T) {
	m := newTestManager(t, LayeredGenerator{})
	// y in [-16,-1] is solid stone
	a := m.AddChunk(voxel.ChunkCoord{Y: -1})
	face := voxel.ChunkWidth * voxel.ChunkHeight
	assert.Equal(t, 6*face, a.Mesh().FaceCount())

	m.AddChunk(voxel.ChunkCoord{X: 1, Y: -1})
	assert.Equal(t, 5*face, a.Mesh().FaceCount())
	assert.Equal(t, 2, a.Rebuilds())

	m.RemoveChunk(voxel.ChunkCoord{X: 1, Y: -1})
	assert.Equal(t, 6*face, a.Mesh().FaceCount())
}

func TestRemoveChunkNotifiesAndDetaches(t *testing.T) {
	m := newTestManager(t, LayeredGenerator{})
	rec := newRecorder()
	m.AddListener(rec)
	c := m.AddChunk(voxel.ChunkCoord{})
	require.NotNil(t, c.Mesh())

	assert.True(t, m.RemoveChunk(voxel.ChunkCoord{}))
	assert.False(t, m.RemoveChunk(voxel.ChunkCoord{}))
	assert.Equal(t, 1, rec.added[voxel.ChunkCoord{}])
	assert.Equal(t, 1, rec.removed[voxel.ChunkCoord{}])
	assert.Nil(t, c.Mesh())
	assert.Nil(t, c.Collider())
	_, ok := m.GetChunk(voxel.ChunkCoord{})
	assert.False(t, ok)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.metrics.ChunksLoaded))
}

func TestListenerAddedDuringNotificationIsDeferred(t *testing.T) {
	m := newTestManager(t, Empty)
	late := newRecorder()
	early := newRecorder()
	early.onAdded = func(*Chunk) {
		if m.listeners.len() == 1 {
			m.AddListener(late)
		}
	}
	m.AddListener(early)

	m.AddChunk(voxel.ChunkCoord{})
	assert.Equal(t, 0, late.added[voxel.ChunkCoord{}])
	assert.Equal(t, 0, late.rebuilt[voxel.ChunkCoord{}])

	m.AddChunk(voxel.ChunkCoord{X: 1})
	assert.Equal(t, 1, late.added[voxel.ChunkCoord{X: 1}])
	assert.Equal(t, 1, late.rebuilt[voxel.ChunkCoord{X: 1}])
	assert.Equal(t, 1, late.rebuilt[voxel.ChunkCoord{}], "neighbour remesh")
}

func TestChunkAddedFollowsRebuilds(t *testing.T) {
	m := newTestManager(t, LayeredGenerator{})
	m.AddChunk(voxel.ChunkCoord{Y: -1})

	rec := newRecorder()
	var meshed bool
	var neighbourRebuilds int
	rec.onAdded = func(c *Chunk) {
		meshed = c.Mesh() != nil
		neighbourRebuilds = rec.rebuilt[voxel.ChunkCoord{Y: -1}]
	}
	m.AddListener(rec)

	m.AddChunk(voxel.ChunkCoord{X: 1, Y: -1})
	assert.Equal(t, 1, rec.added[voxel.ChunkCoord{X: 1, Y: -1}])
	assert.True(t, meshed, "the new chunk is meshed before ChunkAdded")
	assert.Equal(t, 1, rec.rebuilt[voxel.ChunkCoord{X: 1, Y: -1}])
	assert.Equal(t, 1, neighbourRebuilds, "neighbours are remeshed before ChunkAdded")
}

func TestRebuildIsIdempotent(t *testing.T) {
	m := newTestManager(t, LayeredGenerator{})
	loadCube(m, 1)
	c, _ := m.GetChunk(voxel.ChunkCoord{})
	first := c.Mesh()
	m.Rebuild(c.Coord())
	m.Rebuild(c.Coord())
	assert.NotSame(t, first, c.Mesh())
	assert.True(t, first.Equal(c.Mesh()))
}

func TestNearbyColliders(t *testing.T) {
	m := newTestManager(t, LayeredGenerator{})
	loadCube(m, 1)
	var scratch [NearbyCount]*physics.ChunkCollider

	assert.Len(t, m.NearbyColliders(voxel.ChunkCoord{}, &scratch), 27)
	assert.Len(t, m.NearbyColliders(voxel.ChunkCoord{X: 1, Y: 1, Z: 1}, &scratch), 8)
	assert.Empty(t, m.NearbyColliders(voxel.ChunkCoord{X: 9}, &scratch))
}

func TestManagerRaycastAcrossChunks(t *testing.T) {
	m := newTestManager(t, LayeredGenerator{})
	loadCube(m, 1)

	ray := physics.NewRay(mgl32.Vec3{0.5, 20, 0.5}, mgl32.Vec3{0, -1, 0}, 100)
	hit, ok := m.Raycast(ray)
	require.True(t, ok)
	assert.Equal(t, voxel.BlockCoord{X: 0, Y: 3, Z: 0}, hit.Voxel)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, hit.Normal)
	assert.InDelta(t, 16, hit.Distance, 1e-4)

	short := physics.NewRay(mgl32.Vec3{0.5, 20, 0.5}, mgl32.Vec3{0, -1, 0}, 10)
	_, ok = m.Raycast(short)
	assert.False(t, ok)

	// negative chunk, looking sideways into a pillar
	require.True(t, m.TrySetBlock(voxel.BlockCoord{X: -3, Y: 6, Z: -3}, voxel.BlockData{ID: voxel.Stone}))
	side := physics.NewRay(mgl32.Vec3{-0.5, 6.5, -2.5}, mgl32.Vec3{-1, 0, 0}, physics.MaxReachDistance)
	hit, ok = m.Raycast(side)
	require.True(t, ok)
	assert.Equal(t, voxel.BlockCoord{X: -3, Y: 6, Z: -3}, hit.Voxel)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, hit.Normal)
	assert.InDelta(t, 1.5, hit.Distance, 1e-4)
}

func TestManagerIntersect(t *testing.T) {
	m := newTestManager(t, LayeredGenerator{})
	loadCube(m, 1)

	// player-sized box sinking into the grass layer
	box := physics.NewBox(mgl32.Vec3{0.2, 3.5, 0.2}, mgl32.Vec3{0.8, 5.3, 0.8})
	o, ok := m.Intersect(box)
	require.True(t, ok)
	assert.Equal(t, physics.NewBox(mgl32.Vec3{0.2, 3.5, 0.2}, mgl32.Vec3{0.8, 4, 0.8}), o)

	_, ok = m.Intersect(physics.NewBox(mgl32.Vec3{0.2, 4, 0.2}, mgl32.Vec3{0.8, 5.8, 0.8}))
	assert.False(t, ok)
}

func BenchmarkTrySetBlockBoundary(b *testing.B) {
	m := newTestManager(b, LayeredGenerator{})
	loadCube(m, 1)
	coord := voxel.BlockCoord{X: 0, Y: 2, Z: 0}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.TrySetBlock(coord, voxel.BlockData{ID: voxel.BlockID(1 + i%2)})
	}
}
