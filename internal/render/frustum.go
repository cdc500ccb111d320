package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelshade/internal/physics"
)

// frustumMargin inflates chunk bounds before testing, in blocks.
const frustumMargin float32 = 1.0

type plane struct {
	a, b, c, d float32
}

// Frustum holds six planes in order: left, right, bottom, top, near, far.
type Frustum [6]plane

// NewFrustum builds the planes from the combined projection*view matrix.
func NewFrustum(clip mgl32.Mat4) Frustum {
	// Matrix is in column-major order in mgl32
	m00, m01, m02, m03 := clip[0], clip[4], clip[8], clip[12]
	m10, m11, m12, m13 := clip[1], clip[5], clip[9], clip[13]
	m20, m21, m22, m23 := clip[2], clip[6], clip[10], clip[14]
	m30, m31, m32, m33 := clip[3], clip[7], clip[11], clip[15]

	return Frustum{
		normalizePlane(plane{m30 + m00, m31 + m01, m32 + m02, m33 + m03}),
		normalizePlane(plane{m30 - m00, m31 - m01, m32 - m02, m33 - m03}),
		normalizePlane(plane{m30 + m10, m31 + m11, m32 + m12, m33 + m13}),
		normalizePlane(plane{m30 - m10, m31 - m11, m32 - m12, m33 - m13}),
		normalizePlane(plane{m30 + m20, m31 + m21, m32 + m22, m33 + m23}),
		normalizePlane(plane{m30 - m20, m31 - m21, m32 - m22, m33 - m23}),
	}
}

func normalizePlane(p plane) plane {
	l := float32(math.Sqrt(float64(p.a*p.a + p.b*p.b + p.c*p.c)))
	if l == 0 {
		return p
	}
	return plane{p.a / l, p.b / l, p.c / l, p.d / l}
}

// Contains reports whether box, inflated by frustumMargin, intersects the
// frustum. It may return true for boxes just outside a corner.
func (f *Frustum) Contains(box physics.Box) bool {
	lo := box.Min.Sub(mgl32.Vec3{frustumMargin, frustumMargin, frustumMargin})
	hi := box.Max.Add(mgl32.Vec3{frustumMargin, frustumMargin, frustumMargin})
	for _, p := range f {
		// Select the positive vertex for this plane normal
		px := hi.X()
		if p.a < 0 {
			px = lo.X()
		}
		py := hi.Y()
		if p.b < 0 {
			py = lo.Y()
		}
		pz := hi.Z()
		if p.c < 0 {
			pz = lo.Z()
		}
		if p.a*px+p.b*py+p.c*pz+p.d < 0 {
			return false
		}
	}
	return true
}
