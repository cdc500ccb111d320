package physics

import (
	"math"

	"voxelshade/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxTraversalSteps caps gameplay traversals. A ray crossing a whole chunk
// diagonally advances at most 3*16 times.
const MaxTraversalSteps = 64

// Grid answers occupancy queries in grid-local integer coordinates.
type Grid interface {
	Solid(x, y, z int) bool
}

// Traverse walks the voxels of grid pierced by ray inside bounds, in order,
// and reports the first solid one (Amanatides & Woo). Bounds must have
// integer corners. Ties between axes advance X before Y before Z; the GLSL
// kernel in render/shaders uses the same rule. A maxSteps of zero means no
// step cap.
func Traverse(ray Ray, bounds Box, grid Grid, maxSteps int) (RaycastHit, bool) {
	var step [3]int
	for i := 0; i < 3; i++ {
		switch {
		case ray.Direction[i] > 0:
			step[i] = 1
		case ray.Direction[i] < 0:
			step[i] = -1
		}
	}
	if step == [3]int{} {
		return RaycastHit{}, false
	}

	tNear, tFar := bounds.PartialRaycast(ray)
	if tNear > tFar || tFar <= 0 || tNear >= ray.Length {
		return RaycastHit{}, false
	}
	tEntry := max(tNear, 0)
	start := ray.At(tEntry)

	var lo, hi, cell [3]int
	var tMax, tDelta [3]float32
	inf := float32(math.Inf(1))
	for i := 0; i < 3; i++ {
		lo[i] = int(math.Floor(float64(bounds.Min[i])))
		hi[i] = int(math.Floor(float64(bounds.Max[i])))
		v := int(math.Floor(float64(start[i])))
		// The entry point may sit exactly on the far face of the bounds.
		v = min(max(v, lo[i]), hi[i]-1)
		cell[i] = v

		switch step[i] {
		case 1:
			tDelta[i] = 1 / ray.Direction[i]
			tMax[i] = tEntry + (float32(v+1)-start[i])*tDelta[i]
		case -1:
			tDelta[i] = -1 / ray.Direction[i]
			tMax[i] = tEntry + (start[i]-float32(v))*tDelta[i]
		default:
			tDelta[i] = inf
			tMax[i] = inf
		}
	}

	var entryNormal mgl32.Vec3
	if tNear >= 0 {
		entryNormal = bounds.faceNormal(ray, tNear)
	}

	axis := -1
	t := tEntry
	for steps := 0; ; steps++ {
		if grid.Solid(cell[0], cell[1], cell[2]) {
			normal := entryNormal
			if axis >= 0 {
				normal = mgl32.Vec3{}
				normal[axis] = float32(-step[axis])
			}
			v := voxel.BlockCoord{X: cell[0], Y: cell[1], Z: cell[2]}
			return RaycastHit{
				T:        t,
				Distance: t * ray.Direction.Len(),
				Normal:   normal,
				Box:      UnitBox(v),
				Voxel:    v,
			}, true
		}
		if maxSteps > 0 && steps >= maxSteps {
			return RaycastHit{}, false
		}

		axis = nextAxis(tMax)
		t = tMax[axis]
		if t >= ray.Length {
			return RaycastHit{}, false
		}
		cell[axis] += step[axis]
		if cell[axis] < lo[axis] || cell[axis] >= hi[axis] {
			return RaycastHit{}, false
		}
		tMax[axis] += tDelta[axis]
	}
}

func nextAxis(tMax [3]float32) int {
	if tMax[0] <= tMax[1] && tMax[0] <= tMax[2] {
		return 0
	}
	if tMax[1] <= tMax[2] {
		return 1
	}
	return 2
}
