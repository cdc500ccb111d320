package voxel

import "github.com/go-gl/mathgl/mgl32"

// Orientation names one of the six faces of a block.
type Orientation uint8

// Iteration order is fixed; meshing output and atlas columns depend on it.
const (
	Top Orientation = iota
	Bottom
	Forward
	Right
	Backward
	Left

	OrientationCount = 6
)

// Orientations lists every face in iteration order.
var Orientations = [OrientationCount]Orientation{Top, Bottom, Forward, Right, Backward, Left}

var orientationNormals = [OrientationCount]BlockCoord{
	Top:      {0, 1, 0},
	Bottom:   {0, -1, 0},
	Forward:  {0, 0, 1},
	Right:    {1, 0, 0},
	Backward: {0, 0, -1},
	Left:     {-1, 0, 0},
}

var orientationNames = [OrientationCount]string{"top", "bottom", "forward", "right", "backward", "left"}

// Normal returns the outward integer normal of the face.
func (o Orientation) Normal() BlockCoord { return orientationNormals[o] }

// NormalVec returns the outward normal as a float vector.
func (o Orientation) NormalVec() mgl32.Vec3 { return orientationNormals[o].Vec3() }

// Basis returns the (up, right) vectors spanning the face. Up is +Z for
// horizontal faces and +Y otherwise; right = normal x up.
func (o Orientation) Basis() (up, right mgl32.Vec3) {
	n := o.NormalVec()
	up = mgl32.Vec3{0, 1, 0}
	if n.Y() != 0 {
		up = mgl32.Vec3{0, 0, 1}
	}
	return up, n.Cross(up)
}

func (o Orientation) String() string {
	if int(o) < len(orientationNames) {
		return orientationNames[o]
	}
	return "invalid"
}

// OrientationFromNormal maps an axis-aligned unit normal back to a face.
func OrientationFromNormal(n BlockCoord) (Orientation, bool) {
	for _, o := range Orientations {
		if orientationNormals[o] == n {
			return o, true
		}
	}
	return 0, false
}
