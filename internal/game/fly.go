package game

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelshade/internal/input"
	"voxelshade/internal/render"
)

const sprintMultiplier = 3

// Controls is the part of input.Manager the camera reads.
type Controls interface {
	IsActive(a input.Action) bool
	MouseDelta() (dx, dy float64)
}

// FlyCamera moves a render.Camera freely, without collision.
type FlyCamera struct {
	Speed       float32
	Sensitivity float64
}

// Update applies one frame of mouse look and movement to cam.
func (f FlyCamera) Update(cam *render.Camera, in Controls, dt float64) {
	dx, dy := in.MouseDelta()
	cam.Look(dx*f.Sensitivity, dy*f.Sensitivity)

	front := cam.Front()
	flat := mgl32.Vec3{front.X(), 0, front.Z()}
	if flat.Len() > 0 {
		flat = flat.Normalize()
	}
	right := cam.Right()

	var move mgl32.Vec3
	axis := func(a input.Action, v mgl32.Vec3) {
		if in.IsActive(a) {
			move = move.Add(v)
		}
	}
	axis(input.ActionMoveForward, flat)
	axis(input.ActionMoveBackward, flat.Mul(-1))
	axis(input.ActionMoveRight, right)
	axis(input.ActionMoveLeft, right.Mul(-1))
	axis(input.ActionMoveUp, mgl32.Vec3{0, 1, 0})
	axis(input.ActionMoveDown, mgl32.Vec3{0, -1, 0})
	if move.Len() == 0 {
		return
	}

	speed := f.Speed
	if in.IsActive(input.ActionSprint) {
		speed *= sprintMultiplier
	}
	cam.Position = cam.Position.Add(move.Normalize().Mul(speed * float32(dt)))
}
