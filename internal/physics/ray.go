package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Gameplay reach distances for block picking.
const (
	MinReachDistance = 0.1
	MaxReachDistance = 6.0
)

// minDirection replaces exact-zero direction components before inversion.
// It is the smallest normal float32, so the inverse stays finite and
// 0*inv never produces NaN in the slab test.
const minDirection = 1.17549435e-38

// Unbounded is a ray length that never limits a hit.
const Unbounded = math.MaxFloat32

// Ray is a parametric ray: points are Origin + t*Direction for t in [0, Length).
type Ray struct {
	Origin       mgl32.Vec3
	Direction    mgl32.Vec3
	InvDirection mgl32.Vec3
	Length       float32
}

// NewRay builds a ray with a precomputed inverse direction. The direction
// need not be normalized; t and Length are measured in units of it.
// A zero direction is a programming error and panics.
func NewRay(origin, direction mgl32.Vec3, length float32) Ray {
	if direction.X() == 0 && direction.Y() == 0 && direction.Z() == 0 {
		panic("physics: ray direction must be non-zero")
	}
	var inv mgl32.Vec3
	for i := 0; i < 3; i++ {
		d := direction[i]
		if d == 0 {
			d = minDirection
		}
		inv[i] = 1 / d
	}
	return Ray{Origin: origin, Direction: direction, InvDirection: inv, Length: length}
}

// At returns the point at parameter t.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Translate returns the same ray with its origin moved by -offset, i.e.
// expressed in a space whose origin is offset.
func (r Ray) Translate(offset mgl32.Vec3) Ray {
	r.Origin = r.Origin.Sub(offset)
	return r
}
