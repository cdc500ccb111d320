// Package glgpu implements gpu.Device on an OpenGL 4.6 core context.
package glgpu

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"
	"go.uber.org/zap"

	"voxelshade/internal/gpu"
)

type Options struct {
	// Debug installs a KHR_debug callback that forwards driver messages to
	// the logger.
	Debug bool
}

type Device struct {
	log *zap.Logger

	presentFBO uint32
}

var _ gpu.Device = (*Device)(nil)

// New loads the GL entry points. The context must be current on the calling
// thread and stay current for the lifetime of the device.
func New(log *zap.Logger, opts Options) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("init gl: %w", err)
	}
	d := &Device{log: log}
	log.Info("opengl ready",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	if opts.Debug {
		gl.Enable(gl.DEBUG_OUTPUT)
		gl.Enable(gl.DEBUG_OUTPUT_SYNCHRONOUS)
		gl.DebugMessageCallback(d.debugMessage, nil)
	}

	// Meshes emit CCW front faces.
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)

	gl.GenFramebuffers(1, &d.presentFBO)
	return d, d.check("init")
}

func (d *Device) debugMessage(source, gltype, id, severity uint32, length int32, message string, userParam unsafe.Pointer) {
	switch severity {
	case gl.DEBUG_SEVERITY_HIGH:
		d.log.Error("gl", zap.Uint32("id", id), zap.String("message", message))
	case gl.DEBUG_SEVERITY_MEDIUM:
		d.log.Warn("gl", zap.Uint32("id", id), zap.String("message", message))
	default:
		d.log.Debug("gl", zap.Uint32("id", id), zap.String("message", message))
	}
}

// Close releases device-owned objects. Resources handed out keep their own
// Release.
func (d *Device) Close() {
	if d.presentFBO != 0 {
		gl.DeleteFramebuffers(1, &d.presentFBO)
		d.presentFBO = 0
	}
}

// check drains the GL error queue and reports the first error.
func (d *Device) check(op string) error {
	first := uint32(gl.NO_ERROR)
	for e := gl.GetError(); e != gl.NO_ERROR; e = gl.GetError() {
		if first == gl.NO_ERROR {
			first = e
		}
	}
	if first != gl.NO_ERROR {
		d.log.Error("gl error", zap.String("op", op), zap.Uint32("code", first))
		return fmt.Errorf("%s: %w (gl error 0x%04x)", op, gpu.ErrDeviceLost, first)
	}
	return nil
}

func ptr(data []byte) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return gl.Ptr(data)
}
