package glgpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"

	"voxelshade/internal/gpu"
)

func compareFunc(c gpu.Compare) uint32 {
	switch c {
	case gpu.CompareLessEqual:
		return gl.LEQUAL
	case gpu.CompareAlways:
		return gl.ALWAYS
	default:
		return gl.LESS
	}
}

func (d *Device) bind(b gpu.Bindings) {
	for unit, t := range b.Textures {
		gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
		gl.BindTexture(gl.TEXTURE_2D, t.(*texture).id)
	}
	for unit, t := range b.Tiled {
		tt := t.(*tiledTexture)
		gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
		gl.BindTexture(gl.TEXTURE_3D, tt.pageTable)
		gl.ActiveTexture(gl.TEXTURE0 + uint32(unit) + 1)
		gl.BindTexture(gl.TEXTURE_3D, tt.pool)
	}
	gl.ActiveTexture(gl.TEXTURE0)
	for unit, t := range b.Images {
		tex := t.(*texture)
		gl.BindImageTexture(uint32(unit), tex.id, 0, false, 0, gl.READ_WRITE, uint32(tex.format.internal))
	}
	for unit, s := range b.Storage {
		gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, uint32(unit), s.(*buffer).id)
	}
}

func (d *Device) Draw(call gpu.DrawCall) error {
	p := call.Program.(*program)
	rt := call.Target.(*renderTarget)

	gl.BindFramebuffer(gl.FRAMEBUFFER, rt.fbo)
	gl.Viewport(0, 0, int32(rt.width), int32(rt.height))
	if call.Depth.Test {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(compareFunc(call.Depth.Compare))
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	gl.DepthMask(call.Depth.Write)
	gl.ColorMask(call.ColorWrite, call.ColorWrite, call.ColorWrite, call.ColorWrite)

	gl.UseProgram(p.id)
	if err := p.setUniforms(call.Uniforms); err != nil {
		return fmt.Errorf("draw: %w: %v", gpu.ErrDeviceLost, err)
	}
	d.bind(call.Bindings)

	var indices *buffer
	if call.Indices != nil {
		indices = call.Indices.(*buffer)
	}
	gl.BindVertexArray(call.Vertices.(*buffer).vertexArray(indices, call.Layout))
	gl.DrawElements(gl.TRIANGLES, int32(call.IndexCount), gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)

	if len(call.Bindings.Images) > 0 {
		gl.MemoryBarrier(gl.SHADER_IMAGE_ACCESS_BARRIER_BIT)
	}
	gl.ColorMask(true, true, true, true)
	gl.DepthMask(true)
	return d.check("draw " + p.name)
}

func (d *Device) Dispatch(call gpu.DispatchCall) error {
	p := call.Program.(*program)
	if !p.compute {
		return fmt.Errorf("dispatch %s: %w: not a compute program", p.name, gpu.ErrDeviceLost)
	}
	gl.UseProgram(p.id)
	if err := p.setUniforms(call.Uniforms); err != nil {
		return fmt.Errorf("dispatch: %w: %v", gpu.ErrDeviceLost, err)
	}
	d.bind(call.Bindings)
	gl.DispatchCompute(uint32(call.Groups[0]), uint32(call.Groups[1]), uint32(call.Groups[2]))
	gl.MemoryBarrier(gl.SHADER_IMAGE_ACCESS_BARRIER_BIT | gl.TEXTURE_FETCH_BARRIER_BIT | gl.FRAMEBUFFER_BARRIER_BIT)
	return d.check("dispatch " + p.name)
}
