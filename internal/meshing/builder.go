package meshing

// QuadIndices is the triangle order for the four corners of a face:
// (v0, v1, v2) and (v2, v1, v3). With the corners emitFace produces, both
// triangles are counter-clockwise seen from outside the block.
var QuadIndices = [6]uint32{0, 1, 2, 2, 1, 3}

// Builder accumulates an indexed triangle list. Once Finish is called the
// builder is sealed and further additions panic.
type Builder[V any] struct {
	vertices []V
	indices  []uint32
	finished bool
}

func NewBuilder[V any](vertexCapacity int) *Builder[V] {
	return &Builder[V]{
		vertices: make([]V, 0, vertexCapacity),
		indices:  make([]uint32, 0, vertexCapacity/4*6),
	}
}

func (b *Builder[V]) checkOpen() {
	if b.finished {
		panic("meshing: builder modified after Finish")
	}
}

// AddVertex appends v and returns its index.
func (b *Builder[V]) AddVertex(v V) uint32 {
	b.checkOpen()
	b.vertices = append(b.vertices, v)
	return uint32(len(b.vertices) - 1)
}

func (b *Builder[V]) AddIndex(i uint32) {
	b.checkOpen()
	b.indices = append(b.indices, i)
}

// AddQuad appends four corners and the two triangles of QuadIndices.
func (b *Builder[V]) AddQuad(v0, v1, v2, v3 V) {
	b.checkOpen()
	base := uint32(len(b.vertices))
	b.vertices = append(b.vertices, v0, v1, v2, v3)
	for _, i := range QuadIndices {
		b.indices = append(b.indices, base+i)
	}
}

func (b *Builder[V]) VertexCount() int { return len(b.vertices) }

// Finish seals the builder and returns its contents.
func (b *Builder[V]) Finish() ([]V, []uint32) {
	b.checkOpen()
	b.finished = true
	return b.vertices, b.indices
}
