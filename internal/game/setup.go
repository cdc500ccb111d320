package game

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"

	"voxelshade/internal/config"
)

// SetupWindow creates a window with a current OpenGL 4.6 core context.
// glfw must already be initialized.
func SetupWindow(cfg config.Window) (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	if cfg.GLDebug {
		glfw.WindowHint(glfw.OpenGLDebugContext, glfw.True)
	}

	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create window: %w", err)
	}
	window.MakeContextCurrent()

	if cfg.VSync {
		glfw.SwapInterval(1)
	} else {
		// the FPS limiter paces frames instead
		glfw.SwapInterval(0)
	}
	window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	return window, nil
}
