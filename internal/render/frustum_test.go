package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"voxelshade/internal/physics"
)

func TestFrustumContains(t *testing.T) {
	cam := NewCamera(800, 600)
	cam.Position = mgl32.Vec3{0, 0, 0}
	cam.Yaw = 0 // looking down +X
	f := NewFrustum(cam.ViewProjection())

	unit := func(x, y, z float32) physics.Box {
		return physics.NewBox(mgl32.Vec3{x, y, z}, mgl32.Vec3{x + 1, y + 1, z + 1})
	}
	assert.True(t, f.Contains(unit(10, 0, 0)))
	assert.False(t, f.Contains(unit(-10, 0, 0)), "behind")
	assert.False(t, f.Contains(unit(10, 0, 100)), "far to the side")
	assert.False(t, f.Contains(unit(2000, 0, 0)), "beyond far plane")
}

func TestCameraLookClampsPitch(t *testing.T) {
	cam := NewCamera(1, 1)
	cam.Look(30, 120)
	assert.Equal(t, 89.0, cam.Pitch)
	assert.Equal(t, 30.0, cam.Yaw)
	cam.Look(0, -500)
	assert.Equal(t, -89.0, cam.Pitch)
	assert.InDelta(t, 1, cam.Front().Len(), 1e-5)
}
