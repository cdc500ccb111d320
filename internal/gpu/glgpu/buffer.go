package glgpu

import (
	"github.com/go-gl/gl/v4.6-core/gl"

	"voxelshade/internal/gpu"
)

type buffer struct {
	id   uint32
	kind gpu.BufferKind
	size int

	// vao is built on first draw with this buffer as vertex source.
	vao      uint32
	vaoIndex *buffer
}

func (b *buffer) Kind() gpu.BufferKind { return b.kind }
func (b *buffer) Size() int            { return b.size }

func (b *buffer) Release() {
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
		b.vao = 0
	}
	if b.id != 0 {
		gl.DeleteBuffers(1, &b.id)
		b.id = 0
	}
}

func target(kind gpu.BufferKind) uint32 {
	switch kind {
	case gpu.IndexBuffer:
		return gl.ELEMENT_ARRAY_BUFFER
	case gpu.StorageBuffer:
		return gl.SHADER_STORAGE_BUFFER
	default:
		return gl.ARRAY_BUFFER
	}
}

func (d *Device) CreateBuffer(kind gpu.BufferKind, data []byte) (gpu.Buffer, error) {
	b := &buffer{kind: kind, size: len(data)}
	t := target(kind)
	// Element buffers bind into the current VAO.
	gl.BindVertexArray(0)
	gl.GenBuffers(1, &b.id)
	gl.BindBuffer(t, b.id)
	gl.BufferData(t, len(data), ptr(data), gl.STATIC_DRAW)
	gl.BindBuffer(t, 0)
	if err := d.check("create buffer"); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

// vertexArray returns the VAO describing vertices and indices with layout.
func (b *buffer) vertexArray(indices *buffer, layout gpu.VertexLayout) uint32 {
	if b.vao != 0 && b.vaoIndex == indices {
		return b.vao
	}
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
	}
	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.id)
	for _, a := range layout.Attribs {
		loc := uint32(a.Location)
		gl.EnableVertexAttribArray(loc)
		switch a.Type {
		case gpu.AttribUint:
			gl.VertexAttribIPointerWithOffset(loc, int32(a.Components), gl.UNSIGNED_INT, int32(layout.Stride), uintptr(a.Offset))
		default:
			gl.VertexAttribPointerWithOffset(loc, int32(a.Components), gl.FLOAT, false, int32(layout.Stride), uintptr(a.Offset))
		}
	}
	if indices != nil {
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, indices.id)
	}
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	b.vaoIndex = indices
	return b.vao
}
