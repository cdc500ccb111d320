package game

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelshade/internal/physics"
	"voxelshade/internal/voxel"
	"voxelshade/internal/world"
)

// PlaceBlock is what the place action puts down.
var PlaceBlock = voxel.BlockData{ID: voxel.Cobblestone}

// Pick casts the view ray from eye along dir (unit length) and returns the
// first solid block within reach.
func Pick(m *world.Manager, eye, dir mgl32.Vec3) (physics.Ray, physics.RaycastHit, bool) {
	ray := physics.NewRay(eye, dir, physics.MaxReachDistance)
	hit, ok := m.Raycast(ray)
	if !ok || hit.Distance < physics.MinReachDistance {
		return ray, physics.RaycastHit{}, false
	}
	return ray, hit, true
}

// BreakBlock clears the block under the crosshair.
func BreakBlock(m *world.Manager, eye, dir mgl32.Vec3) (voxel.BlockCoord, bool) {
	_, hit, ok := Pick(m, eye, dir)
	if !ok {
		return voxel.BlockCoord{}, false
	}
	return hit.Voxel, m.TrySetBlock(hit.Voxel, voxel.BlockData{})
}

// PlaceAgainst puts b on the face under the crosshair. It refuses cells
// that are occupied, unloaded or contain the eye.
func PlaceAgainst(m *world.Manager, eye, dir mgl32.Vec3, b voxel.BlockData) (voxel.BlockCoord, bool) {
	_, hit, ok := Pick(m, eye, dir)
	if !ok {
		return voxel.BlockCoord{}, false
	}
	n := hit.Normal
	target := hit.Voxel.Add(voxel.BlockCoord{X: int(n.X()), Y: int(n.Y()), Z: int(n.Z())})
	if target == voxel.BlockAt(eye) {
		return target, false
	}
	cur, ok := m.TryGetBlock(target)
	if !ok || cur.Solid() {
		return target, false
	}
	return target, m.TrySetBlock(target, b)
}
