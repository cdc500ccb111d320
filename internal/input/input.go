// Package input maps glfw keys and mouse buttons to logical actions and
// tracks per-frame edges and cursor movement.
package input

import (
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Action is a logical control, not a physical key.
type Action int

const (
	ActionMoveForward Action = iota
	ActionMoveBackward
	ActionMoveLeft
	ActionMoveRight
	ActionMoveUp
	ActionMoveDown
	ActionSprint
	ActionBreak
	ActionPlace
	ActionProbe
	ActionToggleSun
	ActionSunForward
	ActionSunBackward
	ActionRenderDistanceUp
	ActionRenderDistanceDown
	ActionPause
	ActionCount // sentinel for array sizing
)

var actionNames = [ActionCount]string{
	"move_forward", "move_backward", "move_left", "move_right", "move_up",
	"move_down", "sprint", "break", "place", "probe", "toggle_sun",
	"sun_forward", "sun_backward", "render_distance_up",
	"render_distance_down", "pause",
}

func (a Action) String() string {
	if a < 0 || a >= ActionCount {
		return "unknown"
	}
	return actionNames[a]
}

// Manager holds the current state of every action. Event handlers may run
// on the glfw callback path while the frame loop reads.
type Manager struct {
	mu sync.RWMutex

	keyToActions         map[glfw.Key][]Action
	mouseButtonToActions map[glfw.MouseButton][]Action

	current      [ActionCount]bool
	justPressed  [ActionCount]bool
	justReleased [ActionCount]bool

	// cursor tracking; the first event after a capture only sets the origin
	firstMouse     bool
	lastX, lastY   float64
	deltaX, deltaY float64
}

// NewManager returns a manager with the default bindings.
func NewManager() *Manager {
	m := &Manager{
		keyToActions:         make(map[glfw.Key][]Action),
		mouseButtonToActions: make(map[glfw.MouseButton][]Action),
		firstMouse:           true,
	}

	m.BindKey(glfw.KeyW, ActionMoveForward)
	m.BindKey(glfw.KeyS, ActionMoveBackward)
	m.BindKey(glfw.KeyA, ActionMoveLeft)
	m.BindKey(glfw.KeyD, ActionMoveRight)
	m.BindKey(glfw.KeySpace, ActionMoveUp)
	m.BindKey(glfw.KeyLeftShift, ActionMoveDown)
	m.BindKey(glfw.KeyLeftControl, ActionSprint)
	m.BindKey(glfw.KeyP, ActionProbe)
	m.BindKey(glfw.KeyT, ActionToggleSun)
	m.BindKey(glfw.KeyRightBracket, ActionSunForward)
	m.BindKey(glfw.KeyLeftBracket, ActionSunBackward)
	m.BindKey(glfw.KeyEqual, ActionRenderDistanceUp)
	m.BindKey(glfw.KeyKPAdd, ActionRenderDistanceUp)
	m.BindKey(glfw.KeyMinus, ActionRenderDistanceDown)
	m.BindKey(glfw.KeyKPSubtract, ActionRenderDistanceDown)
	m.BindKey(glfw.KeyEscape, ActionPause)

	m.BindMouseButton(glfw.MouseButtonLeft, ActionBreak)
	m.BindMouseButton(glfw.MouseButtonRight, ActionPlace)
	m.BindMouseButton(glfw.MouseButtonMiddle, ActionProbe)
	return m
}

// BindKey adds action to key. A key may drive several actions.
func (m *Manager) BindKey(key glfw.Key, action Action) {
	if action < 0 || action >= ActionCount {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keyToActions[key] = append(m.keyToActions[key], action)
}

func (m *Manager) UnbindKey(key glfw.Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keyToActions, key)
}

func (m *Manager) BindMouseButton(button glfw.MouseButton, action Action) {
	if action < 0 || action >= ActionCount {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mouseButtonToActions[button] = append(m.mouseButtonToActions[button], action)
}

func (m *Manager) HandleKeyEvent(key glfw.Key, action glfw.Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apply(m.keyToActions[key], action == glfw.Press || action == glfw.Repeat)
}

func (m *Manager) HandleMouseButtonEvent(button glfw.MouseButton, action glfw.Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apply(m.mouseButtonToActions[button], action == glfw.Press)
}

// apply records edges as the event arrives so a press and release within
// one frame still reads as JustPressed.
func (m *Manager) apply(actions []Action, pressed bool) {
	for _, a := range actions {
		if pressed && !m.current[a] {
			m.justPressed[a] = true
		}
		if !pressed && m.current[a] {
			m.justReleased[a] = true
		}
		m.current[a] = pressed
	}
}

// HandleCursorEvent accumulates cursor movement since the last frame.
func (m *Manager) HandleCursorEvent(x, y float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.firstMouse {
		m.lastX, m.lastY = x, y
		m.firstMouse = false
		return
	}
	m.deltaX += x - m.lastX
	m.deltaY += m.lastY - y
	m.lastX, m.lastY = x, y
}

// ResetCursor forgets the last cursor position, e.g. after the cursor was
// captured or released.
func (m *Manager) ResetCursor() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.firstMouse = true
	m.deltaX, m.deltaY = 0, 0
}

// MouseDelta returns the movement accumulated this frame; y grows upward.
func (m *Manager) MouseDelta() (dx, dy float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.deltaX, m.deltaY
}

// Attach installs the manager's callbacks on window.
func (m *Manager) Attach(window *glfw.Window) {
	window.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		m.HandleKeyEvent(key, action)
	})
	window.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		m.HandleMouseButtonEvent(button, action)
	})
	window.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		m.HandleCursorEvent(x, y)
	})
}

// PostUpdate must run at the end of every frame. It clears the edge flags
// and the cursor delta.
func (m *Manager) PostUpdate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range ActionCount {
		m.justPressed[i] = false
		m.justReleased[i] = false
	}
	m.deltaX, m.deltaY = 0, 0
}

// IsActive reports whether action is held.
func (m *Manager) IsActive(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current[action]
}

// JustPressed reports whether action went down this frame.
func (m *Manager) JustPressed(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.justPressed[action]
}

func (m *Manager) JustReleased(action Action) bool {
	if action < 0 || action >= ActionCount {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.justReleased[action]
}
