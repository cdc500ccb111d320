package glgpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"

	"voxelshade/internal/gpu"
)

type glFormat struct {
	internal int32
	format   uint32
	xtype    uint32
}

func formatOf(f gpu.Format) glFormat {
	switch f {
	case gpu.FormatR32UI:
		return glFormat{gl.R32UI, gl.RED_INTEGER, gl.UNSIGNED_INT}
	case gpu.FormatDepth32F:
		return glFormat{gl.DEPTH_COMPONENT32F, gl.DEPTH_COMPONENT, gl.FLOAT}
	default:
		return glFormat{gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE}
	}
}

type texture struct {
	id     uint32
	desc   gpu.TextureDesc
	format glFormat
}

func (t *texture) Width() int         { return t.desc.Width }
func (t *texture) Height() int        { return t.desc.Height }
func (t *texture) Format() gpu.Format { return t.desc.Format }

func (t *texture) Release() {
	if t.id != 0 {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
}

func (d *Device) CreateTexture(desc gpu.TextureDesc) (gpu.Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("%w: texture %dx%d", gpu.ErrResource, desc.Width, desc.Height)
	}
	t := &texture{desc: desc, format: formatOf(desc.Format)}
	t.desc.Data = nil

	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexImage2D(
		gl.TEXTURE_2D,
		0,
		t.format.internal,
		int32(desc.Width),
		int32(desc.Height),
		0,
		t.format.format,
		t.format.xtype,
		ptr(desc.Data),
	)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if err := d.check("create texture"); err != nil {
		t.Release()
		return nil, err
	}
	return t, nil
}

func (d *Device) ClearTexture(t gpu.Texture) error {
	tex := t.(*texture)
	gl.ClearTexImage(tex.id, 0, tex.format.format, tex.format.xtype, nil)
	return d.check("clear texture")
}

type renderTarget struct {
	fbo           uint32
	color         []*texture
	depth         *texture
	width, height int
}

func (rt *renderTarget) Width() int  { return rt.width }
func (rt *renderTarget) Height() int { return rt.height }

func (rt *renderTarget) Release() {
	if rt.fbo != 0 {
		gl.DeleteFramebuffers(1, &rt.fbo)
		rt.fbo = 0
	}
}

// CreateRenderTarget wraps textures in a framebuffer. The textures stay
// owned by the caller and may be shared between targets.
func (d *Device) CreateRenderTarget(color []gpu.Texture, depth gpu.Texture) (gpu.RenderTarget, error) {
	rt := &renderTarget{}
	switch {
	case len(color) > 0:
		rt.width, rt.height = color[0].Width(), color[0].Height()
	case depth != nil:
		rt.width, rt.height = depth.Width(), depth.Height()
	default:
		return nil, fmt.Errorf("%w: render target without attachments", gpu.ErrResource)
	}

	gl.GenFramebuffers(1, &rt.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, rt.fbo)
	bufs := make([]uint32, len(color))
	for i, c := range color {
		tex := c.(*texture)
		rt.color = append(rt.color, tex)
		bufs[i] = gl.COLOR_ATTACHMENT0 + uint32(i)
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, bufs[i], gl.TEXTURE_2D, tex.id, 0)
	}
	if depth != nil {
		rt.depth = depth.(*texture)
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, rt.depth.id, 0)
	}
	if len(bufs) > 0 {
		gl.DrawBuffers(int32(len(bufs)), &bufs[0])
	} else {
		gl.DrawBuffer(gl.NONE)
		gl.ReadBuffer(gl.NONE)
	}

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		rt.Release()
		return nil, fmt.Errorf("%w: framebuffer incomplete (0x%04x)", gpu.ErrResource, status)
	}
	return rt, d.check("create render target")
}

func (d *Device) ClearTarget(t gpu.RenderTarget, color [4]float32, depth float32) error {
	rt := t.(*renderTarget)
	gl.BindFramebuffer(gl.FRAMEBUFFER, rt.fbo)
	gl.ColorMask(true, true, true, true)
	gl.DepthMask(true)
	for i, c := range rt.color {
		if c.desc.Format == gpu.FormatR32UI {
			zero := [4]uint32{}
			gl.ClearBufferuiv(gl.COLOR, int32(i), &zero[0])
			continue
		}
		gl.ClearBufferfv(gl.COLOR, int32(i), &color[0])
	}
	if rt.depth != nil {
		gl.ClearBufferfv(gl.DEPTH, 0, &depth)
	}
	return d.check("clear target")
}

// Present blits the texture to the default framebuffer, scaling to the
// window size.
func (d *Device) Present(color gpu.Texture, width, height int) error {
	tex := color.(*texture)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, d.presentFBO)
	gl.FramebufferTexture2D(gl.READ_FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, tex.id, 0)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
	gl.BlitFramebuffer(
		0, 0, int32(tex.desc.Width), int32(tex.desc.Height),
		0, 0, int32(width), int32(height),
		gl.COLOR_BUFFER_BIT, gl.NEAREST,
	)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return d.check("present")
}
