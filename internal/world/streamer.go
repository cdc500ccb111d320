package world

import (
	"voxelshade/internal/profiling"
	"voxelshade/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
)

// Streamer keeps the chunks around a point loaded. It runs synchronously
// inside the frame loop and bounds the number of chunks added per call so
// a long jump does not stall a single frame.
type Streamer struct {
	m          *Manager
	radius     int
	vertical   int
	maxPerCall int
}

func NewStreamer(m *Manager, radius, vertical, maxPerCall int) *Streamer {
	return &Streamer{
		m:          m,
		radius:     max(radius, 0),
		vertical:   max(vertical, 0),
		maxPerCall: max(maxPerCall, 1),
	}
}

// SetRadius changes the horizontal streaming radius in chunks.
func (s *Streamer) SetRadius(r int) { s.radius = max(r, 0) }

// Update loads missing chunks nearest-first, up to the per-call budget,
// and unloads chunks more than one ring outside the radius.
func (s *Streamer) Update(pos mgl32.Vec3) (added, removed int) {
	defer profiling.Track("world.Stream")()
	center := voxel.BlockAt(pos).ToChunkCoord()

	for _, c := range s.m.Chunks() {
		d := c.coord
		if abs(d.X-center.X) > s.radius+1 || abs(d.Z-center.Z) > s.radius+1 || abs(d.Y-center.Y) > s.vertical+1 {
			s.m.RemoveChunk(d)
			removed++
		}
	}

	for r := 0; r <= s.radius; r++ {
		for _, cc := range ring(center, r, s.vertical) {
			if added >= s.maxPerCall {
				return added, removed
			}
			if _, ok := s.m.chunks[cc]; ok {
				continue
			}
			s.m.AddChunk(cc)
			added++
		}
	}
	return added, removed
}

// ring lists the columns at Chebyshev distance r from center, each
// expanded over the vertical range, lowest first.
func ring(center voxel.ChunkCoord, r, vertical int) []voxel.ChunkCoord {
	var cols [][2]int
	if r == 0 {
		cols = append(cols, [2]int{center.X, center.Z})
	} else {
		for x := center.X - r; x <= center.X+r; x++ {
			cols = append(cols, [2]int{x, center.Z - r}, [2]int{x, center.Z + r})
		}
		for z := center.Z - r + 1; z <= center.Z+r-1; z++ {
			cols = append(cols, [2]int{center.X - r, z}, [2]int{center.X + r, z})
		}
	}
	out := make([]voxel.ChunkCoord, 0, len(cols)*(2*vertical+1))
	for _, col := range cols {
		for y := center.Y - vertical; y <= center.Y+vertical; y++ {
			out = append(out, voxel.ChunkCoord{X: col[0], Y: y, Z: col[1]})
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
