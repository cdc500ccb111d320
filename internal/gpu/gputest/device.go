// Package gputest provides an in-memory gpu.Device that records every
// command, tracks live resources and can be told to fail.
package gputest

import (
	"fmt"
	"slices"

	"voxelshade/internal/gpu"
)

// Call is one recorded device operation. ID is the resource the operation
// created or acted on, or 0.
type Call struct {
	Op string
	ID int
}

type Device struct {
	Calls      []Call
	Draws      []gpu.DrawCall
	Dispatches []gpu.DispatchCall
	Presents   int

	nextID int
	live   map[int]string
	fail   map[string]error
}

var _ gpu.Device = (*Device)(nil)

func New() *Device {
	return &Device{
		live: make(map[int]string),
		fail: make(map[string]error),
	}
}

// FailOn makes the next call of op return err.
func (d *Device) FailOn(op string, err error) {
	d.fail[op] = err
}

// Live returns the number of resources created and not yet released.
func (d *Device) Live() int {
	return len(d.live)
}

// LiveOf counts live resources of one kind ("buffer", "texture", "target",
// "program", "tiled").
func (d *Device) LiveOf(kind string) int {
	n := 0
	for _, k := range d.live {
		if k == kind {
			n++
		}
	}
	return n
}

// Ops returns the recorded operation names in order.
func (d *Device) Ops() []string {
	ops := make([]string, len(d.Calls))
	for i, c := range d.Calls {
		ops[i] = c.Op
	}
	return ops
}

// Count returns how many times op was recorded.
func (d *Device) Count(op string) int {
	n := 0
	for _, c := range d.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Index returns the position of the first call matching op and id, or -1.
func (d *Device) Index(op string, id int) int {
	return slices.IndexFunc(d.Calls, func(c Call) bool {
		return c.Op == op && c.ID == id
	})
}

// ResetCalls forgets the recorded history but keeps resources.
func (d *Device) ResetCalls() {
	d.Calls = nil
	d.Draws = nil
	d.Dispatches = nil
	d.Presents = 0
}

func (d *Device) record(op string, id int) error {
	if err, ok := d.fail[op]; ok {
		delete(d.fail, op)
		return err
	}
	d.Calls = append(d.Calls, Call{Op: op, ID: id})
	return nil
}

func (d *Device) create(op, kind string) (resource, error) {
	if err := d.record(op, d.nextID+1); err != nil {
		return resource{}, err
	}
	d.nextID++
	d.live[d.nextID] = kind
	return resource{dev: d, id: d.nextID}, nil
}

type resource struct {
	dev      *Device
	id       int
	released bool
}

// ID identifies the resource in recorded calls.
func (r *resource) ID() int { return r.id }

func (r *resource) Released() bool { return r.released }

func (r *resource) Release() {
	if r.released {
		return
	}
	r.released = true
	delete(r.dev.live, r.id)
	r.dev.Calls = append(r.dev.Calls, Call{Op: "Release", ID: r.id})
}

func (r *resource) check() error {
	if r.released {
		return fmt.Errorf("%w: resource %d used after release", gpu.ErrDeviceLost, r.id)
	}
	return nil
}

type Buffer struct {
	resource
	kind gpu.BufferKind
	Data []byte
}

func (b *Buffer) Kind() gpu.BufferKind { return b.kind }
func (b *Buffer) Size() int            { return len(b.Data) }

type Texture struct {
	resource
	Desc gpu.TextureDesc
	Data []byte
}

func (t *Texture) Width() int         { return t.Desc.Width }
func (t *Texture) Height() int        { return t.Desc.Height }
func (t *Texture) Format() gpu.Format { return t.Desc.Format }

type RenderTarget struct {
	resource
	Color         []gpu.Texture
	Depth         gpu.Texture
	width, height int
}

func (rt *RenderTarget) Width() int  { return rt.width }
func (rt *RenderTarget) Height() int { return rt.height }

type Program struct {
	resource
	Source gpu.ProgramSource
}

type TiledTexture struct {
	resource
	Desc  gpu.TiledTextureDesc
	Pages map[[3]int]int
	Data  map[int][]uint32
}

func (t *TiledTexture) PageTableSize() int { return t.Desc.PageTableSize }
func (t *TiledTexture) TileSize() int      { return t.Desc.TileSize }
func (t *TiledTexture) Tiles() int         { return t.Desc.Tiles }

func (d *Device) CreateBuffer(kind gpu.BufferKind, data []byte) (gpu.Buffer, error) {
	r, err := d.create("CreateBuffer", "buffer")
	if err != nil {
		return nil, err
	}
	return &Buffer{resource: r, kind: kind, Data: slices.Clone(data)}, nil
}

func (d *Device) CreateTexture(desc gpu.TextureDesc) (gpu.Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("%w: texture %dx%d", gpu.ErrResource, desc.Width, desc.Height)
	}
	r, err := d.create("CreateTexture", "texture")
	if err != nil {
		return nil, err
	}
	size := desc.Width * desc.Height * desc.Format.BytesPerTexel()
	data := make([]byte, size)
	copy(data, desc.Data)
	desc.Data = nil
	return &Texture{resource: r, Desc: desc, Data: data}, nil
}

func (d *Device) ClearTexture(t gpu.Texture) error {
	tex := t.(*Texture)
	if err := tex.check(); err != nil {
		return err
	}
	if err := d.record("ClearTexture", tex.id); err != nil {
		return err
	}
	clear(tex.Data)
	return nil
}

func (d *Device) CreateRenderTarget(color []gpu.Texture, depth gpu.Texture) (gpu.RenderTarget, error) {
	var w, h int
	switch {
	case len(color) > 0:
		w, h = color[0].Width(), color[0].Height()
	case depth != nil:
		w, h = depth.Width(), depth.Height()
	default:
		return nil, fmt.Errorf("%w: render target without attachments", gpu.ErrResource)
	}
	r, err := d.create("CreateRenderTarget", "target")
	if err != nil {
		return nil, err
	}
	return &RenderTarget{resource: r, Color: slices.Clone(color), Depth: depth, width: w, height: h}, nil
}

func (d *Device) ClearTarget(rt gpu.RenderTarget, color [4]float32, depth float32) error {
	t := rt.(*RenderTarget)
	if err := t.check(); err != nil {
		return err
	}
	return d.record("ClearTarget", t.id)
}

func (d *Device) CreateProgram(src gpu.ProgramSource) (gpu.Program, error) {
	if src.Compute == "" && (src.Vertex == "" || src.Fragment == "") {
		return nil, fmt.Errorf("%w: program %q has no stages", gpu.ErrResource, src.Name)
	}
	r, err := d.create("CreateProgram", "program")
	if err != nil {
		return nil, err
	}
	return &Program{resource: r, Source: src}, nil
}

func (d *Device) CreateTiledTexture(desc gpu.TiledTextureDesc) (gpu.TiledTexture, error) {
	r, err := d.create("CreateTiledTexture", "tiled")
	if err != nil {
		return nil, err
	}
	return &TiledTexture{
		resource: r,
		Desc:     desc,
		Pages:    make(map[[3]int]int),
		Data:     make(map[int][]uint32),
	}, nil
}

func (d *Device) ResizeTilePool(t gpu.TiledTexture, tiles int) error {
	tt := t.(*TiledTexture)
	if err := tt.check(); err != nil {
		return err
	}
	if tiles < tt.Desc.Tiles {
		return fmt.Errorf("%w: shrinking pool from %d to %d", gpu.ErrDeviceLost, tt.Desc.Tiles, tiles)
	}
	if err := d.record("ResizeTilePool", tt.id); err != nil {
		return err
	}
	tt.Desc.Tiles = tiles
	return nil
}

func (d *Device) checkPage(tt *TiledTexture, page [3]int) error {
	for _, p := range page {
		if p < 0 || p >= tt.Desc.PageTableSize {
			return fmt.Errorf("%w: page %v outside table", gpu.ErrDeviceLost, page)
		}
	}
	return nil
}

func (d *Device) MapTile(t gpu.TiledTexture, page [3]int, tile int) error {
	tt := t.(*TiledTexture)
	if err := tt.check(); err != nil {
		return err
	}
	if err := d.checkPage(tt, page); err != nil {
		return err
	}
	if tile < 0 || tile >= tt.Desc.Tiles {
		return fmt.Errorf("%w: tile %d outside pool of %d", gpu.ErrDeviceLost, tile, tt.Desc.Tiles)
	}
	if err := d.record("MapTile", tt.id); err != nil {
		return err
	}
	tt.Pages[page] = tile
	return nil
}

func (d *Device) UnmapTile(t gpu.TiledTexture, page [3]int) error {
	tt := t.(*TiledTexture)
	if err := tt.check(); err != nil {
		return err
	}
	if err := d.checkPage(tt, page); err != nil {
		return err
	}
	if err := d.record("UnmapTile", tt.id); err != nil {
		return err
	}
	delete(tt.Pages, page)
	return nil
}

func (d *Device) UpdateTile(t gpu.TiledTexture, tile int, texels []uint32) error {
	tt := t.(*TiledTexture)
	if err := tt.check(); err != nil {
		return err
	}
	size := tt.Desc.TileSize
	if len(texels) != size*size*size {
		return fmt.Errorf("%w: tile update of %d texels", gpu.ErrDeviceLost, len(texels))
	}
	if tile < 0 || tile >= tt.Desc.Tiles {
		return fmt.Errorf("%w: tile %d outside pool of %d", gpu.ErrDeviceLost, tile, tt.Desc.Tiles)
	}
	if err := d.record("UpdateTile", tt.id); err != nil {
		return err
	}
	tt.Data[tile] = slices.Clone(texels)
	return nil
}

// Texel reads the texel a shader would see at a global texel coordinate.
func (t *TiledTexture) Texel(x, y, z int) uint32 {
	s := t.Desc.TileSize
	page := [3]int{floorDiv(x, s), floorDiv(y, s), floorDiv(z, s)}
	tile, ok := t.Pages[page]
	if !ok {
		return 0
	}
	data := t.Data[tile]
	if data == nil {
		return 0
	}
	lx, ly, lz := x-page[0]*s, y-page[1]*s, z-page[2]*s
	return data[lx+ly*s+lz*s*s]
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func (d *Device) Draw(call gpu.DrawCall) error {
	if call.Program == nil || call.Target == nil {
		return fmt.Errorf("%w: draw without program or target", gpu.ErrDeviceLost)
	}
	if err := call.Program.(*Program).check(); err != nil {
		return err
	}
	if call.Vertices != nil {
		if err := call.Vertices.(*Buffer).check(); err != nil {
			return err
		}
	}
	if err := d.record("Draw", call.Program.(*Program).id); err != nil {
		return err
	}
	d.Draws = append(d.Draws, call)
	return nil
}

func (d *Device) Dispatch(call gpu.DispatchCall) error {
	if call.Program == nil {
		return fmt.Errorf("%w: dispatch without program", gpu.ErrDeviceLost)
	}
	p := call.Program.(*Program)
	if err := p.check(); err != nil {
		return err
	}
	if p.Source.Compute == "" {
		return fmt.Errorf("%w: dispatch of non-compute program %q", gpu.ErrDeviceLost, p.Source.Name)
	}
	if err := d.record("Dispatch", p.id); err != nil {
		return err
	}
	d.Dispatches = append(d.Dispatches, call)
	return nil
}

func (d *Device) Present(color gpu.Texture, width, height int) error {
	tex := color.(*Texture)
	if err := tex.check(); err != nil {
		return err
	}
	if err := d.record("Present", tex.id); err != nil {
		return err
	}
	d.Presents++
	return nil
}
