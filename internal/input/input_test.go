package input

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stretchr/testify/assert"
)

func TestEdgesLastOneFrame(t *testing.T) {
	m := NewManager()

	m.HandleKeyEvent(glfw.KeyW, glfw.Press)
	assert.True(t, m.IsActive(ActionMoveForward))
	assert.True(t, m.JustPressed(ActionMoveForward))

	m.PostUpdate()
	assert.True(t, m.IsActive(ActionMoveForward))
	assert.False(t, m.JustPressed(ActionMoveForward))

	m.HandleKeyEvent(glfw.KeyW, glfw.Repeat)
	assert.False(t, m.JustPressed(ActionMoveForward), "repeat is not a new press")

	m.HandleKeyEvent(glfw.KeyW, glfw.Release)
	assert.False(t, m.IsActive(ActionMoveForward))
	assert.True(t, m.JustReleased(ActionMoveForward))
}

func TestTapWithinOneFrame(t *testing.T) {
	m := NewManager()
	m.HandleMouseButtonEvent(glfw.MouseButtonLeft, glfw.Press)
	m.HandleMouseButtonEvent(glfw.MouseButtonLeft, glfw.Release)
	assert.True(t, m.JustPressed(ActionBreak))
	assert.False(t, m.IsActive(ActionBreak))
}

func TestSharedActionBindings(t *testing.T) {
	m := NewManager()
	m.HandleKeyEvent(glfw.KeyKPAdd, glfw.Press)
	assert.True(t, m.JustPressed(ActionRenderDistanceUp))

	m.UnbindKey(glfw.KeyP)
	m.HandleKeyEvent(glfw.KeyP, glfw.Press)
	assert.False(t, m.IsActive(ActionProbe))

	assert.False(t, m.IsActive(ActionCount))
	assert.Equal(t, "pause", ActionPause.String())
}

func TestMouseDelta(t *testing.T) {
	m := NewManager()
	m.HandleCursorEvent(100, 100)
	dx, dy := m.MouseDelta()
	assert.Zero(t, dx)
	assert.Zero(t, dy)

	m.HandleCursorEvent(110, 95)
	m.HandleCursorEvent(120, 90)
	dx, dy = m.MouseDelta()
	assert.Equal(t, 20.0, dx)
	assert.Equal(t, 10.0, dy, "y grows upward")

	m.PostUpdate()
	dx, _ = m.MouseDelta()
	assert.Zero(t, dx)

	m.ResetCursor()
	m.HandleCursorEvent(500, 500)
	dx, _ = m.MouseDelta()
	assert.Zero(t, dx)
}
