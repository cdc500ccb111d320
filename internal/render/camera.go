package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera handles the view and projection matrices. Yaw and pitch are in
// degrees; yaw 0 looks down +X.
type Camera struct {
	AspectRatio float32
	FOV         float32
	NearPlane   float32
	FarPlane    float32

	Position mgl32.Vec3
	Yaw      float64
	Pitch    float64
}

func NewCamera(width, height int) *Camera {
	c := &Camera{
		FOV:       70.0,
		NearPlane: 0.1,
		FarPlane:  1000.0,
	}
	c.SetViewport(width, height)
	return c
}

func (c *Camera) SetViewport(width, height int) {
	if height == 0 {
		height = 1
	}
	c.AspectRatio = float32(width) / float32(height)
}

// Look applies a mouse delta, constraining pitch to avoid flipping over the
// pole.
func (c *Camera) Look(dYaw, dPitch float64) {
	c.Yaw += dYaw
	c.Pitch += dPitch
	if c.Pitch > 89.0 {
		c.Pitch = 89.0
	}
	if c.Pitch < -89.0 {
		c.Pitch = -89.0
	}
}

func (c *Camera) Front() mgl32.Vec3 {
	y := mgl32.DegToRad(float32(c.Yaw))
	pt := mgl32.DegToRad(float32(c.Pitch))
	fx := float32(math.Cos(float64(y)) * math.Cos(float64(pt)))
	fy := float32(math.Sin(float64(pt)))
	fz := float32(math.Sin(float64(y)) * math.Cos(float64(pt)))
	return mgl32.Vec3{fx, fy, fz}.Normalize()
}

// Right is the horizontal right vector.
func (c *Camera) Right() mgl32.Vec3 {
	return c.Front().Cross(mgl32.Vec3{0, 1, 0}).Normalize()
}

func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.AspectRatio, c.NearPlane, c.FarPlane)
}

func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Front()), mgl32.Vec3{0, 1, 0})
}

// ViewProjection is Projection * View.
func (c *Camera) ViewProjection() mgl32.Mat4 {
	return c.Projection().Mul4(c.View())
}
