package meshing

import (
	"voxelshade/internal/atlas"
	"voxelshade/internal/physics"
	"voxelshade/internal/profiling"
	"voxelshade/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
)

// BlockSource reads a chunk's own cells by local coordinate.
type BlockSource interface {
	At(x, y, z int) voxel.BlockData
}

// BlockLookup resolves blocks anywhere in the loaded world.
type BlockLookup interface {
	TryGetBlock(b voxel.BlockCoord) (voxel.BlockData, bool)
}

// Materials reports which block types emit light.
type Materials interface {
	Emission(id voxel.BlockID) (mgl32.Vec3, bool)
}

// Options controls face emission.
type Options struct {
	// EmitAtUnloaded treats a neighbour in an unloaded chunk as air, so
	// boundary faces are emitted until that chunk streams in.
	EmitAtUnloaded bool
	// LightRadius is the reach of emissive block lights.
	LightRadius float32
}

// DefaultOptions matches the renderer's defaults.
func DefaultOptions() Options {
	return Options{EmitAtUnloaded: true, LightRadius: 8}
}

// Build emits one quad per solid block face whose neighbour is transparent.
// Neighbours outside the chunk are resolved through lookup. Blocks are
// visited in index order and faces in voxel.Orientations order, so the
// output is a pure function of the block data.
func Build(coord voxel.ChunkCoord, src BlockSource, lookup BlockLookup, a *atlas.Atlas, mats Materials, opts Options) *Mesh {
	defer profiling.Track("meshing.Build")()

	origin := coord.ToBlockCoord()
	b := NewBuilder[Vertex](1024)
	var faces []FaceInfo
	var lights []Light

	for i := 0; i < voxel.ChunkVolume; i++ {
		x, y, z := voxel.LocalFromIndex(i)
		block := src.At(x, y, z)
		if block.Transparent() {
			continue
		}
		for _, o := range voxel.Orientations {
			if !exposed(src, lookup, origin, x, y, z, o, opts) {
				continue
			}
			faceIndex := uint32(len(faces))
			center := mgl32.Vec3{float32(x) + 0.5, float32(y) + 0.5, float32(z) + 0.5}
			info := emitFace(b, a, block.ID, o, center, faceIndex)
			faces = append(faces, info)

			if mats == nil {
				continue
			}
			if c, ok := mats.Emission(block.ID); ok {
				p := center.Add(o.NormalVec())
				lights = append(lights, Light{Position: p, Color: c, Radius: opts.LightRadius})
			}
		}
	}

	vertices, indices := b.Finish()
	return &Mesh{
		Vertices: vertices,
		Indices:  indices,
		Faces:    faces,
		Lights:   lights,
		Boxes:    BuildBoxes(origin, src),
	}
}

func exposed(src BlockSource, lookup BlockLookup, origin voxel.BlockCoord, x, y, z int, o voxel.Orientation, opts Options) bool {
	n := o.Normal()
	nx, ny, nz := x+n.X, y+n.Y, z+n.Z
	if voxel.InChunk(nx, ny, nz) {
		return src.At(nx, ny, nz).Transparent()
	}
	if lookup == nil {
		return opts.EmitAtUnloaded
	}
	nb, ok := lookup.TryGetBlock(origin.Add(voxel.BlockCoord{X: nx, Y: ny, Z: nz}))
	if !ok {
		return opts.EmitAtUnloaded
	}
	return nb.Transparent()
}

func emitFace(b *Builder[Vertex], a *atlas.Atlas, id voxel.BlockID, o voxel.Orientation, center mgl32.Vec3, faceIndex uint32) FaceInfo {
	n := o.NormalVec()
	up, right := o.Basis()
	tile := a.Tile(id, o)
	r := a.Bounds(tile)

	const e = UVInset
	u0, v0 := r.X+e, r.Y+e
	u1, v1 := r.X+r.W-e, r.Y+r.H-e

	corner := func(su, sr float32) [3]float32 {
		return center.Add(n.Add(up.Mul(su)).Add(right.Mul(sr)).Mul(0.5))
	}
	b.AddQuad(
		Vertex{Position: corner(1, 1), FaceIndex: faceIndex, UV: [2]float32{u0, v0}, LocalUV: [2]float32{e, e}},
		Vertex{Position: corner(-1, 1), FaceIndex: faceIndex, UV: [2]float32{u0, v1}, LocalUV: [2]float32{e, 1 - e}},
		Vertex{Position: corner(1, -1), FaceIndex: faceIndex, UV: [2]float32{u1, v0}, LocalUV: [2]float32{1 - e, e}},
		Vertex{Position: corner(-1, -1), FaceIndex: faceIndex, UV: [2]float32{u1, v1}, LocalUV: [2]float32{1 - e, 1 - e}},
	)
	return FaceInfo{
		Position:    center,
		Up:          up,
		Right:       right,
		AtlasX:      uint32(tile.Column),
		AtlasY:      uint32(tile.Row),
		Orientation: uint32(o),
	}
}

// BuildBoxes returns one world-space unit box per solid block, in index
// order.
func BuildBoxes(origin voxel.BlockCoord, src BlockSource) []physics.Box {
	var boxes []physics.Box
	for i := 0; i < voxel.ChunkVolume; i++ {
		x, y, z := voxel.LocalFromIndex(i)
		if src.At(x, y, z).Solid() {
			boxes = append(boxes, physics.UnitBox(origin.Add(voxel.BlockCoord{X: x, Y: y, Z: z})))
		}
	}
	return boxes
}
