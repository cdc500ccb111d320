package physics

import (
	"voxelshade/internal/voxel"

	"github.com/go-gl/mathgl/mgl32"
)

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max mgl32.Vec3
}

// RaycastHit describes the first surface a ray met.
type RaycastHit struct {
	// T is the ray parameter of the hit; Distance is T scaled by the
	// direction length.
	T        float32
	Distance float32
	Normal   mgl32.Vec3
	Box      Box
	// Voxel is only meaningful for grid hits.
	Voxel voxel.BlockCoord
}

// Collidable is anything that can be raycast and overlap-tested.
type Collidable interface {
	Raycast(ray Ray) (RaycastHit, bool)
	Intersect(box Box) (Box, bool)
}

var _ Collidable = Box{}

func NewBox(lo, hi mgl32.Vec3) Box {
	return Box{Min: lo, Max: hi}
}

// UnitBox returns the box occupied by block b.
func UnitBox(b voxel.BlockCoord) Box {
	lo := b.Vec3()
	return Box{Min: lo, Max: lo.Add(mgl32.Vec3{1, 1, 1})}
}

func (b Box) Translate(offset mgl32.Vec3) Box {
	return Box{Min: b.Min.Add(offset), Max: b.Max.Add(offset)}
}

func (b Box) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Union returns the smallest box enclosing both.
func (b Box) Union(o Box) Box {
	return Box{
		Min: mgl32.Vec3{min(b.Min.X(), o.Min.X()), min(b.Min.Y(), o.Min.Y()), min(b.Min.Z(), o.Min.Z())},
		Max: mgl32.Vec3{max(b.Max.X(), o.Max.X()), max(b.Max.Y(), o.Max.Y()), max(b.Max.Z(), o.Max.Z())},
	}
}

// slabs returns the six plane parameters t1..t6 (X min/max, Y min/max, Z min/max).
func (b Box) slabs(r Ray) [6]float32 {
	return [6]float32{
		(b.Min.X() - r.Origin.X()) * r.InvDirection.X(),
		(b.Max.X() - r.Origin.X()) * r.InvDirection.X(),
		(b.Min.Y() - r.Origin.Y()) * r.InvDirection.Y(),
		(b.Max.Y() - r.Origin.Y()) * r.InvDirection.Y(),
		(b.Min.Z() - r.Origin.Z()) * r.InvDirection.Z(),
		(b.Max.Z() - r.Origin.Z()) * r.InvDirection.Z(),
	}
}

// PartialRaycast runs the slab test and returns the entry and exit
// parameters without deciding whether they form a hit.
func (b Box) PartialRaycast(r Ray) (tNear, tFar float32) {
	t := b.slabs(r)
	tNear = max(min(t[0], t[1]), min(t[2], t[3]), min(t[4], t[5]))
	tFar = min(max(t[0], t[1]), max(t[2], t[3]), max(t[4], t[5]))
	return tNear, tFar
}

var slabNormals = [6]mgl32.Vec3{
	{-1, 0, 0}, {1, 0, 0},
	{0, -1, 0}, {0, 1, 0},
	{0, 0, -1}, {0, 0, 1},
}

// faceNormal returns the outward normal of the box face whose plane the ray
// crosses at parameter t, checking X, then Y, then Z.
func (b Box) faceNormal(r Ray, t float32) mgl32.Vec3 {
	s := b.slabs(r)
	for i, v := range s {
		if v == t {
			return slabNormals[i]
		}
	}
	return mgl32.Vec3{}
}

// Raycast hits iff tNear <= tFar, tFar > 0 and tNear < ray.Length. A ray
// starting inside the box reports its exit point.
func (b Box) Raycast(r Ray) (RaycastHit, bool) {
	tNear, tFar := b.PartialRaycast(r)
	if tNear > tFar || tFar <= 0 || tNear >= r.Length {
		return RaycastHit{}, false
	}
	t := tNear
	if tNear < 0 {
		t = tFar
	}
	return RaycastHit{
		T:        t,
		Distance: t * r.Direction.Len(),
		Normal:   b.faceNormal(r, t),
		Box:      b,
		Voxel:    voxel.BlockAt(b.Min),
	}, true
}

// Intersect returns the overlap of two boxes. Boxes that only touch do not
// overlap.
func (b Box) Intersect(o Box) (Box, bool) {
	out := Box{
		Min: mgl32.Vec3{max(b.Min.X(), o.Min.X()), max(b.Min.Y(), o.Min.Y()), max(b.Min.Z(), o.Min.Z())},
		Max: mgl32.Vec3{min(b.Max.X(), o.Max.X()), min(b.Max.Y(), o.Max.Y()), min(b.Max.Z(), o.Max.Z())},
	}
	if out.Min.X() >= out.Max.X() || out.Min.Y() >= out.Max.Y() || out.Min.Z() >= out.Max.Z() {
		return Box{}, false
	}
	return out, true
}
