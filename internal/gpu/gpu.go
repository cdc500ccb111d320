// Package gpu is the renderer's view of a graphics device: opaque resource
// handles with explicit Release, and two command kinds, Draw and Dispatch.
package gpu

import "errors"

var (
	// ErrResource reports a failed resource creation.
	ErrResource = errors.New("gpu: resource creation failed")
	// ErrDeviceLost reports a command the device could not execute. The
	// context is unusable afterwards.
	ErrDeviceLost = errors.New("gpu: device lost")
)

// Format is a texel format.
type Format int

const (
	FormatRGBA8 Format = iota
	FormatR32UI
	FormatDepth32F
)

// BytesPerTexel returns the packed size of one texel.
func (f Format) BytesPerTexel() int {
	return 4
}

func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "rgba8"
	case FormatR32UI:
		return "r32ui"
	case FormatDepth32F:
		return "depth32f"
	}
	return "unknown"
}

// Usage flags say how a texture will be bound.
type Usage uint8

const (
	UsageSampled Usage = 1 << iota
	UsageStorage
	UsageRenderTarget
)

// BufferKind selects the binding target of a buffer.
type BufferKind int

const (
	VertexBuffer BufferKind = iota
	IndexBuffer
	StorageBuffer
)

// Resource is anything owned on the device. Release is idempotent.
type Resource interface {
	Release()
}

type Buffer interface {
	Resource
	Kind() BufferKind
	Size() int
}

type Texture interface {
	Resource
	Width() int
	Height() int
	Format() Format
}

// RenderTarget groups color attachments (in location order) and an
// optional depth attachment.
type RenderTarget interface {
	Resource
	Width() int
	Height() int
}

type Program interface {
	Resource
}

// TiledTexture is a sparse 3D R32UI texture addressed in pages of
// TileSize^3 texels. Pages are backed on demand by tiles from a growable
// pool.
type TiledTexture interface {
	Resource
	PageTableSize() int
	TileSize() int
	Tiles() int
}

type TextureDesc struct {
	Width, Height int
	Format        Format
	Usage         Usage
	// Data is optional initial content, tightly packed rows.
	Data []byte
}

type TiledTextureDesc struct {
	// PageTableSize is the number of pages per axis.
	PageTableSize int
	TileSize      int
	Tiles         int
}

// ProgramSource holds GLSL stages. Compute programs set only Compute.
type ProgramSource struct {
	Name     string
	Vertex   string
	Fragment string
	Compute  string
}

// AttribType is the component type of a vertex attribute.
type AttribType int

const (
	AttribFloat AttribType = iota
	AttribUint
)

type VertexAttrib struct {
	Location   int
	Components int
	Type       AttribType
	Offset     int
}

type VertexLayout struct {
	Stride  int
	Attribs []VertexAttrib
}

type Compare int

const (
	CompareLess Compare = iota
	CompareLessEqual
	CompareAlways
)

type DepthState struct {
	Test    bool
	Write   bool
	Compare Compare
}

// Uniforms maps uniform names to values. Supported value types are
// float32, int32, uint32, mgl32.Vec2/3/4 and mgl32.Mat4.
type Uniforms map[string]any

// Bindings attaches resources to numbered slots. A tiled texture bound at unit
// n occupies texture units n (page table) and n+1 (tile pool).
type Bindings struct {
	Textures map[int]Texture
	Images   map[int]Texture
	Storage  map[int]Buffer
	Tiled    map[int]TiledTexture
}

type DrawCall struct {
	Program    Program
	Target     RenderTarget
	Depth      DepthState
	ColorWrite bool
	Layout     VertexLayout
	Vertices   Buffer
	Indices    Buffer
	IndexCount int
	Uniforms   Uniforms
	Bindings   Bindings
}

type DispatchCall struct {
	Program  Program
	Groups   [3]int
	Uniforms Uniforms
	Bindings Bindings
}

// Device creates resources and executes commands. All methods must be
// called from the thread owning the device context.
type Device interface {
	CreateBuffer(kind BufferKind, data []byte) (Buffer, error)
	CreateTexture(desc TextureDesc) (Texture, error)
	ClearTexture(t Texture) error
	CreateRenderTarget(color []Texture, depth Texture) (RenderTarget, error)
	ClearTarget(rt RenderTarget, color [4]float32, depth float32) error
	CreateProgram(src ProgramSource) (Program, error)

	CreateTiledTexture(desc TiledTextureDesc) (TiledTexture, error)
	// ResizeTilePool grows the tile pool, preserving existing tiles.
	ResizeTilePool(t TiledTexture, tiles int) error
	MapTile(t TiledTexture, page [3]int, tile int) error
	UnmapTile(t TiledTexture, page [3]int) error
	// UpdateTile uploads TileSize^3 texels, x fastest, then y, then z.
	UpdateTile(t TiledTexture, tile int, texels []uint32) error

	Draw(call DrawCall) error
	Dispatch(call DispatchCall) error
	// Present copies a color texture to the default framebuffer.
	Present(color Texture, width, height int) error
}

// ReleaseAll releases every non-nil resource in order.
func ReleaseAll(rs ...Resource) {
	for _, r := range rs {
		if r != nil {
			r.Release()
		}
	}
}
