package world

import (
	"slices"

	"voxelshade/internal/atlas"
	"voxelshade/internal/meshing"
	"voxelshade/internal/metrics"
	"voxelshade/internal/physics"
	"voxelshade/internal/profiling"
	"voxelshade/internal/voxel"

	"go.uber.org/zap"
)

// NearbyCount is the size of the 3x3x3 chunk neighbourhood used by
// collision queries.
const NearbyCount = 27

// ManagerConfig carries the manager's collaborators.
type ManagerConfig struct {
	Atlas     *atlas.Atlas
	Materials meshing.Materials
	Generator Generator
	Mesh      meshing.Options
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
}

// Manager owns every loaded chunk and resolves world-space block access.
// It is not safe for concurrent use; the frame loop is its only caller.
type Manager struct {
	chunks map[voxel.ChunkCoord]*Chunk

	// one-entry cache of the last resolved chunk
	lastCoord voxel.ChunkCoord
	last      *Chunk
	misses    int

	atlas     *atlas.Atlas
	materials meshing.Materials
	gen       Generator
	opts      meshing.Options
	listeners listeners
	log       *zap.Logger
	metrics   *metrics.Metrics

	scratch [NearbyCount]*physics.ChunkCollider
}

var _ physics.Collidable = (*Manager)(nil)

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Atlas == nil {
		panic("world: manager requires an atlas")
	}
	if cfg.Generator == nil {
		cfg.Generator = LayeredGenerator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New(nil)
	}
	return &Manager{
		chunks:    make(map[voxel.ChunkCoord]*Chunk),
		atlas:     cfg.Atlas,
		materials: cfg.Materials,
		gen:       cfg.Generator,
		opts:      cfg.Mesh,
		log:       cfg.Logger,
		metrics:   cfg.Metrics,
	}
}

// Atlas returns the shared block-face atlas.
func (m *Manager) Atlas() *atlas.Atlas { return m.atlas }

// AddListener registers l for chunk events. Registration during a
// notification takes effect after it.
func (m *Manager) AddListener(l Listener) { m.listeners.add(l) }

func (m *Manager) RemoveListener(l Listener) { m.listeners.remove(l) }

func (m *Manager) chunk(cc voxel.ChunkCoord) (*Chunk, bool) {
	if m.last != nil && m.lastCoord == cc {
		return m.last, true
	}
	m.misses++
	c, ok := m.chunks[cc]
	if ok {
		m.last, m.lastCoord = c, cc
	}
	return c, ok
}

// GetChunk returns the chunk at cc if it is loaded.
func (m *Manager) GetChunk(cc voxel.ChunkCoord) (*Chunk, bool) {
	return m.chunk(cc)
}

// Len returns the number of loaded chunks.
func (m *Manager) Len() int { return len(m.chunks) }

// Chunks returns the loaded chunks ordered by coordinate.
func (m *Manager) Chunks() []*Chunk {
	out := make([]*Chunk, 0, len(m.chunks))
	for _, c := range m.chunks {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *Chunk) int {
		switch {
		case a.coord.Less(b.coord):
			return -1
		case b.coord.Less(a.coord):
			return 1
		}
		return 0
	})
	return out
}

// TryGetBlock reads the block at world coordinate b.
func (m *Manager) TryGetBlock(b voxel.BlockCoord) (voxel.BlockData, bool) {
	c, ok := m.chunk(b.ToChunkCoord())
	if !ok {
		return voxel.BlockData{}, false
	}
	x, y, z := b.Local()
	return c.At(x, y, z), true
}

// TrySetBlock writes the block at world coordinate b and rebuilds the
// owning chunk plus every loaded neighbour sharing the boundary b sits on.
// It returns false when no chunk is loaded at b.
func (m *Manager) TrySetBlock(b voxel.BlockCoord, v voxel.BlockData) bool {
	c, ok := m.chunk(b.ToChunkCoord())
	if !ok {
		return false
	}
	x, y, z := b.Local()
	*c.Ptr(x, y, z) = v
	m.rebuild(c)

	for _, o := range boundaryFaces(x, y, z) {
		if nb, ok := m.chunk(c.coord.Neighbor(o)); ok {
			m.rebuild(nb)
		}
	}
	return true
}

// boundaryFaces lists the chunk faces a local cell touches.
func boundaryFaces(x, y, z int) []voxel.Orientation {
	var out []voxel.Orientation
	if x == 0 {
		out = append(out, voxel.Left)
	} else if x == voxel.ChunkWidth-1 {
		out = append(out, voxel.Right)
	}
	if y == 0 {
		out = append(out, voxel.Bottom)
	} else if y == voxel.ChunkHeight-1 {
		out = append(out, voxel.Top)
	}
	if z == 0 {
		out = append(out, voxel.Backward)
	} else if z == voxel.ChunkDepth-1 {
		out = append(out, voxel.Forward)
	}
	return out
}

// AddChunk loads and meshes the chunk at cc and remeshes its loaded face
// neighbours so their shared boundary is culled. Listeners see ChunkAdded
// once the chunk has a mesh. Adding a loaded coordinate returns the
// existing chunk.
func (m *Manager) AddChunk(cc voxel.ChunkCoord) *Chunk {
	if c, ok := m.chunks[cc]; ok {
		return c
	}
	c := NewChunk(cc)
	m.gen.Populate(c)
	m.chunks[cc] = c
	m.metrics.ChunksLoaded.Set(float64(len(m.chunks)))
	m.log.Debug("chunk added", zap.Int("x", cc.X), zap.Int("y", cc.Y), zap.Int("z", cc.Z))

	m.rebuild(c)
	m.rebuildNeighbors(cc)
	m.listeners.each(func(l Listener) { l.ChunkAdded(c) })
	return c
}

// RemoveChunk unloads the chunk at cc, lets listeners release its GPU
// state and remeshes the neighbours that now border unloaded space.
func (m *Manager) RemoveChunk(cc voxel.ChunkCoord) bool {
	c, ok := m.chunks[cc]
	if !ok {
		return false
	}
	delete(m.chunks, cc)
	if m.last == c {
		m.last = nil
	}
	m.metrics.ChunksLoaded.Set(float64(len(m.chunks)))
	m.log.Debug("chunk removed", zap.Int("x", cc.X), zap.Int("y", cc.Y), zap.Int("z", cc.Z))

	m.listeners.each(func(l Listener) { l.ChunkRemoved(c) })
	c.detach()
	m.rebuildNeighbors(cc)
	return true
}

// Rebuild remeshes the chunk at cc if it is loaded.
func (m *Manager) Rebuild(cc voxel.ChunkCoord) bool {
	c, ok := m.chunk(cc)
	if ok {
		m.rebuild(c)
	}
	return ok
}

func (m *Manager) rebuildNeighbors(cc voxel.ChunkCoord) {
	for _, o := range voxel.Orientations {
		if nb, ok := m.chunk(cc.Neighbor(o)); ok {
			m.rebuild(nb)
		}
	}
}

func (m *Manager) rebuild(c *Chunk) {
	defer profiling.Track("world.Rebuild")()
	c.rebuild(m, m.atlas, m.materials, m.opts)
	m.metrics.ChunkRebuilds.Inc()
	m.listeners.each(func(l Listener) { l.ChunkRebuilt(c) })
}

// NearbyColliders fills scratch with the colliders of the loaded chunks in
// the 3x3x3 block around center and returns the filled prefix.
func (m *Manager) NearbyColliders(center voxel.ChunkCoord, scratch *[NearbyCount]*physics.ChunkCollider) []*physics.ChunkCollider {
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			for dz := -1; dz <= 1; dz++ {
				c, ok := m.chunk(center.Add(voxel.ChunkCoord{X: dx, Y: dy, Z: dz}))
				if !ok || c.collider == nil {
					continue
				}
				scratch[n] = c.collider
				n++
			}
		}
	}
	return scratch[:n]
}

// Raycast returns the nearest solid block hit by ray among the chunks
// around its origin.
func (m *Manager) Raycast(ray physics.Ray) (physics.RaycastHit, bool) {
	defer profiling.Track("world.Raycast")()
	center := voxel.BlockAt(ray.Origin).ToChunkCoord()
	var best physics.RaycastHit
	found := false
	for _, col := range m.NearbyColliders(center, &m.scratch) {
		hit, ok := col.Raycast(ray)
		if ok && (!found || hit.T < best.T) {
			best, found = hit, true
		}
	}
	return best, found
}

// Intersect returns the bounding box of every overlap between box and the
// solid blocks around it.
func (m *Manager) Intersect(box physics.Box) (physics.Box, bool) {
	center := voxel.BlockAt(box.Center()).ToChunkCoord()
	var out physics.Box
	found := false
	for _, col := range m.NearbyColliders(center, &m.scratch) {
		o, ok := col.Intersect(box)
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
