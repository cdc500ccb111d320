package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelshade/internal/meshing"
	"voxelshade/internal/physics"
	"voxelshade/internal/voxel"
)

// SunColor is the irradiance of direct sunlight on a surface facing it.
var SunColor = mgl32.Vec3{1.0, 0.96, 0.88}

const (
	// shadowBias lifts shadow ray origins off the surface.
	shadowBias = 0.001
	// sunDistance bounds sun shadow rays, in blocks.
	sunDistance = 256
	sunTilt     = 0.35
)

// VolumeBounds is the world-space box the tiled volume can address.
var VolumeBounds = physics.NewBox(
	mgl32.Vec3{-float32(VolumeOrigin.X * TileSize), -float32(VolumeOrigin.Y * TileSize), -float32(VolumeOrigin.Z * TileSize)},
	mgl32.Vec3{float32((PageTableSize - VolumeOrigin.X) * TileSize), float32((PageTableSize - VolumeOrigin.Y) * TileSize), float32((PageTableSize - VolumeOrigin.Z) * TileSize)},
)

// SunDirection returns the unit direction toward the sun at angle radians
// along its arc. The sun rises in +X, peaks overhead at pi/2 and sets in
// -X, tilted slightly toward +Z.
func SunDirection(angle float32) mgl32.Vec3 {
	s, c := math.Sincos(float64(angle))
	return mgl32.Vec3{float32(c), float32(s), sunTilt}.Normalize()
}

// LightingParams are the frame inputs of the lighting kernel.
type LightingParams struct {
	Sun      mgl32.Vec3
	Ambient  float32
	MaxSteps int
	// Lights are in world space.
	Lights []meshing.Light
}

// TexelPosition reconstructs the world position of local uv on a face of
// the chunk at origin.
func TexelPosition(origin voxel.BlockCoord, f meshing.FaceInfo, u, v float32) mgl32.Vec3 {
	n := voxel.Orientation(f.Orientation).NormalVec()
	up, right := mgl32.Vec3(f.Up), mgl32.Vec3(f.Right)
	return origin.Vec3().
		Add(mgl32.Vec3(f.Position)).
		Add(n.Mul(0.5)).
		Add(right.Mul(0.5 - u)).
		Add(up.Mul(0.5 - v))
}

// occluded reports whether a solid voxel lies within dist of p along dir.
func occluded(grid physics.Grid, p, dir mgl32.Vec3, dist float32, maxSteps int) bool {
	_, hit := physics.Traverse(physics.NewRay(p, dir, dist), VolumeBounds, grid, maxSteps)
	return hit
}

// ShadeTexel computes the light arriving at one face texel. It is the CPU
// counterpart of raytrace.comp and uses the same traversal, so results
// agree up to 8-bit quantization.
func ShadeTexel(grid physics.Grid, origin voxel.BlockCoord, f meshing.FaceInfo, u, v float32, p LightingParams) mgl32.Vec3 {
	n := voxel.Orientation(f.Orientation).NormalVec()
	pos := TexelPosition(origin, f, u, v).Add(n.Mul(shadowBias))

	light := mgl32.Vec3{p.Ambient, p.Ambient, p.Ambient}

	if ndl := n.Dot(p.Sun); ndl > 0 && !occluded(grid, pos, p.Sun, sunDistance, p.MaxSteps) {
		light = light.Add(SunColor.Mul(ndl))
	}

	for _, l := range p.Lights {
		d := mgl32.Vec3(l.Position).Sub(pos)
		dist := d.Len()
		if dist == 0 || dist >= l.Radius {
			continue
		}
		dir := d.Mul(1 / dist)
		ndl := n.Dot(dir)
		if ndl <= 0 || occluded(grid, pos, dir, dist, p.MaxSteps) {
			continue
		}
		att := 1 - dist/l.Radius
		light = light.Add(mgl32.Vec3(l.Color).Mul(att * att * ndl))
	}

	return mgl32.Vec3{
		min(light.X(), 1),
		min(light.Y(), 1),
		min(light.Z(), 1),
	}
}
