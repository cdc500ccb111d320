// Package render draws the chunks of a world.Manager with per-texel ray
// traced lighting. Every frame runs four passes over the visible chunks:
//
//  1. depth pre-pass
//  2. face visibility: marks the face texels that survive the depth test
//  3. lighting: a compute kernel shades the marked texels, casting shadow
//     rays through a sparse volume of block ids
//  4. color: combines albedo with the shaded texels
//
// The result is blitted to the window.
package render

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"voxelshade/internal/atlas"
	"voxelshade/internal/config"
	"voxelshade/internal/gpu"
	"voxelshade/internal/meshing"
	"voxelshade/internal/metrics"
	"voxelshade/internal/physics"
	"voxelshade/internal/profiling"
	"voxelshade/internal/voxel"
	"voxelshade/internal/world"
)

// SkyColor fills pixels no chunk covers.
var SkyColor = [4]float32{0.53, 0.81, 0.92, 1.0}

// LightingGroupSize is the compute work group edge; one group per face.
const LightingGroupSize = FaceTexels

// gpuLight is the std430 layout of one point light.
type gpuLight struct {
	Position [4]float32 // w = radius
	Color    [4]float32
}

// FrameParams are the per-frame inputs of Render.
type FrameParams struct {
	Camera *Camera
	// Width and Height are the framebuffer size in pixels.
	Width, Height int
	// Sun is the unit direction toward the sun.
	Sun mgl32.Vec3
}

// Stats describe the last rendered frame.
type Stats struct {
	Loaded  int
	Visible int
	Faces   int
}

type frameTargets struct {
	width, height int

	depth     gpu.Texture
	faceIndex gpu.Texture
	color     gpu.Texture

	depthPass gpu.RenderTarget
	facePass  gpu.RenderTarget
	colorPass gpu.RenderTarget
}

func (t *frameTargets) release() {
	gpu.ReleaseAll(t.depthPass, t.facePass, t.colorPass, t.depth, t.faceIndex, t.color)
	*t = frameTargets{}
}

// Renderer keeps device state in step with a world.Manager and draws it.
// Chunk events only record what changed; device work happens at the start
// of the next Render.
type Renderer struct {
	dev     gpu.Device
	manager *world.Manager
	atlas   *atlas.Atlas
	cfg     config.Lighting
	log     *zap.Logger
	metrics *metrics.Metrics

	volume   *TiledVolume
	atlasTex gpu.Texture

	depthProg    gpu.Program
	faceProg     gpu.Program
	lightingProg gpu.Program
	colorProg    gpu.Program

	meshes  map[voxel.ChunkCoord]*ChunkMesh
	dirty   map[voxel.ChunkCoord]*world.Chunk
	removed []voxel.ChunkCoord

	lights      []meshing.Light
	lightBuf    gpu.Buffer
	lightsDirty bool

	targets frameTargets
	visible []*ChunkMesh
	stats   Stats
	warned  map[voxel.ChunkCoord]bool
}

var _ world.Listener = (*Renderer)(nil)

// NewRenderer creates the device state and subscribes to manager. Chunks
// already loaded are uploaded on the first Render.
func NewRenderer(dev gpu.Device, manager *world.Manager, a *atlas.Atlas, cfg config.Lighting, log *zap.Logger, m *metrics.Metrics) (_ *Renderer, err error) {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New(nil)
	}
	r := &Renderer{
		dev:     dev,
		manager: manager,
		atlas:   a,
		cfg:     cfg,
		log:     log,
		metrics: m,
		meshes:  make(map[voxel.ChunkCoord]*ChunkMesh),
		dirty:   make(map[voxel.ChunkCoord]*world.Chunk),
		warned:  make(map[voxel.ChunkCoord]bool),
	}
	defer func() {
		if err != nil {
			r.release()
		}
	}()

	for _, p := range []struct {
		dst *gpu.Program
		src gpu.ProgramSource
	}{
		{&r.depthProg, DepthProgram},
		{&r.faceProg, FaceVisibilityProgram},
		{&r.lightingProg, LightingProgram},
		{&r.colorProg, ColorProgram},
	} {
		if *p.dst, err = dev.CreateProgram(p.src); err != nil {
			return nil, fmt.Errorf("new renderer: %w", err)
		}
	}

	img := a.Image()
	r.atlasTex, err = dev.CreateTexture(gpu.TextureDesc{
		Width:  img.Rect.Dx(),
		Height: img.Rect.Dy(),
		Format: gpu.FormatRGBA8,
		Usage:  gpu.UsageSampled,
		Data:   img.Pix,
	})
	if err != nil {
		return nil, fmt.Errorf("new renderer: upload atlas: %w", err)
	}

	if r.volume, err = NewTiledVolume(dev, m); err != nil {
		return nil, fmt.Errorf("new renderer: %w", err)
	}
	if err = r.uploadLights(); err != nil {
		return nil, fmt.Errorf("new renderer: %w", err)
	}

	for _, c := range manager.Chunks() {
		r.dirty[c.Coord()] = c
	}
	manager.AddListener(r)
	return r, nil
}

func (r *Renderer) ChunkAdded(c *world.Chunk) {
	r.dirty[c.Coord()] = c
}

func (r *Renderer) ChunkRebuilt(c *world.Chunk) {
	r.dirty[c.Coord()] = c
}

func (r *Renderer) ChunkRemoved(c *world.Chunk) {
	delete(r.dirty, c.Coord())
	r.removed = append(r.removed, c.Coord())
}

// Volume exposes the block volume for CPU lighting queries.
func (r *Renderer) Volume() *TiledVolume { return r.volume }

// Mesh returns the uploaded state of cc.
func (r *Renderer) Mesh(cc voxel.ChunkCoord) (*ChunkMesh, bool) {
	cm, ok := r.meshes[cc]
	return cm, ok
}

// Lights returns every emissive light in world space.
func (r *Renderer) Lights() []meshing.Light { return r.lights }

// Stats returns counters of the last frame.
func (r *Renderer) Stats() Stats { return r.stats }

func sortedCoords[V any](m map[voxel.ChunkCoord]V) []voxel.ChunkCoord {
	out := make([]voxel.ChunkCoord, 0, len(m))
	for cc := range m {
		out = append(out, cc)
	}
	slices.SortFunc(out, compareCoords)
	return out
}

func compareCoords(a, b voxel.ChunkCoord) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	}
	return 0
}

// sync applies the chunk events recorded since the last frame.
func (r *Renderer) sync() error {
	defer profiling.Track("render.sync")()

	for _, cc := range r.removed {
		if cm, ok := r.meshes[cc]; ok {
			cm.Release()
			delete(r.meshes, cc)
			r.lightsDirty = true
		}
		if err := r.volume.UnmapChunk(cc); err != nil {
			return err
		}
		r.log.Debug("chunk released", zap.Any("coord", cc))
	}
	r.removed = r.removed[:0]

	for _, cc := range sortedCoords(r.dirty) {
		c := r.dirty[cc]
		delete(r.dirty, cc)
		if err := r.syncVolume(c); err != nil {
			return err
		}
		if err := r.syncMesh(c); err != nil {
			return err
		}
	}

	if r.lightsDirty {
		return r.uploadLights()
	}
	return nil
}

func (r *Renderer) syncVolume(c *world.Chunk) error {
	cc := c.Coord()
	if err := r.volume.MapChunk(cc); err != nil {
		if errors.Is(err, ErrOutOfRange) {
			if !r.warned[cc] {
				r.warned[cc] = true
				r.log.Warn("chunk outside lighting volume, it will not cast shadows", zap.Any("coord", cc))
			}
			return nil
		}
		return err
	}
	return r.volume.UpdateChunk(cc, c.Blocks())
}

// syncMesh uploads the current mesh of c. The replacement is complete
// before the previous state is released, so a failed upload keeps the old
// mesh drawing.
func (r *Renderer) syncMesh(c *world.Chunk) error {
	cc := c.Coord()
	old := r.meshes[cc]
	if old != nil && old.Version == c.Version() {
		return nil
	}
	if c.Mesh().Empty() {
		if old != nil {
			old.Release()
			delete(r.meshes, cc)
			r.lightsDirty = true
		}
		return nil
	}
	cm, err := NewChunkMesh(r.dev, c)
	if err != nil {
		return err
	}
	r.meshes[cc] = cm
	if old != nil {
		old.Release()
	}
	r.lightsDirty = true
	return nil
}

func (r *Renderer) uploadLights() error {
	r.lights = r.lights[:0]
	for _, cc := range sortedCoords(r.meshes) {
		r.lights = append(r.lights, r.meshes[cc].Lights...)
	}
	// Storage buffers are never bound empty.
	records := make([]gpuLight, max(1, len(r.lights)))
	for i, l := range r.lights {
		records[i] = gpuLight{
			Position: vec4(l.Position, l.Radius),
			Color:    vec4(l.Color, 1),
		}
	}
	data, _ := binary.Append(nil, binary.LittleEndian, records)
	buf, err := r.dev.CreateBuffer(gpu.StorageBuffer, data)
	if err != nil {
		return fmt.Errorf("upload lights: %w", err)
	}
	gpu.ReleaseAll(r.lightBuf)
	r.lightBuf = buf
	r.lightsDirty = false
	return nil
}

func (r *Renderer) ensureTargets(w, h int) (err error) {
	if w == r.targets.width && h == r.targets.height {
		return nil
	}
	t := frameTargets{width: w, height: h}
	defer func() {
		if err != nil {
			t.release()
		}
	}()
	if t.depth, err = r.dev.CreateTexture(gpu.TextureDesc{Width: w, Height: h, Format: gpu.FormatDepth32F, Usage: gpu.UsageRenderTarget}); err != nil {
		return fmt.Errorf("create depth target: %w", err)
	}
	if t.faceIndex, err = r.dev.CreateTexture(gpu.TextureDesc{Width: w, Height: h, Format: gpu.FormatR32UI, Usage: gpu.UsageRenderTarget}); err != nil {
		return fmt.Errorf("create face index target: %w", err)
	}
	if t.color, err = r.dev.CreateTexture(gpu.TextureDesc{Width: w, Height: h, Format: gpu.FormatRGBA8, Usage: gpu.UsageRenderTarget}); err != nil {
		return fmt.Errorf("create color target: %w", err)
	}
	if t.depthPass, err = r.dev.CreateRenderTarget(nil, t.depth); err != nil {
		return fmt.Errorf("create depth pass target: %w", err)
	}
	if t.facePass, err = r.dev.CreateRenderTarget([]gpu.Texture{t.faceIndex}, t.depth); err != nil {
		return fmt.Errorf("create face pass target: %w", err)
	}
	if t.colorPass, err = r.dev.CreateRenderTarget([]gpu.Texture{t.color}, t.depth); err != nil {
		return fmt.Errorf("create color pass target: %w", err)
	}
	r.targets.release()
	r.targets = t
	r.log.Debug("frame targets resized", zap.Int("width", w), zap.Int("height", h))
	return nil
}

// cull collects the uploaded meshes inside the view frustum, nearest
// first.
func (r *Renderer) cull(cam *Camera) {
	defer profiling.Track("render.cull")()
	f := NewFrustum(cam.ViewProjection())
	r.visible = r.visible[:0]
	for _, cm := range r.meshes {
		if f.Contains(cm.Bounds) {
			r.visible = append(r.visible, cm)
		}
	}
	slices.SortFunc(r.visible, func(a, b *ChunkMesh) int {
		da := a.Bounds.Center().Sub(cam.Position).LenSqr()
		db := b.Bounds.Center().Sub(cam.Position).LenSqr()
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		}
		return compareCoords(a.Coord, b.Coord)
	})
}

func originVec(cc voxel.ChunkCoord) mgl32.Vec3 {
	return cc.ToBlockCoord().Vec3()
}

func originInts(cc voxel.ChunkCoord) [3]int32 {
	b := cc.ToBlockCoord()
	return [3]int32{int32(b.X), int32(b.Y), int32(b.Z)}
}

func (r *Renderer) draw(prog gpu.Program, rt gpu.RenderTarget, depth gpu.DepthState, color bool, cm *ChunkMesh, u gpu.Uniforms, b gpu.Bindings) error {
	return r.dev.Draw(gpu.DrawCall{
		Program:    prog,
		Target:     rt,
		Depth:      depth,
		ColorWrite: color,
		Layout:     VertexLayout,
		Vertices:   cm.Vertices,
		Indices:    cm.Indices,
		IndexCount: cm.IndexCount,
		Uniforms:   u,
		Bindings:   b,
	})
}

// Render draws one frame and presents it.
func (r *Renderer) Render(frame FrameParams) error {
	defer profiling.Track("render.Render")()
	start := time.Now()

	if err := r.sync(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := r.ensureTargets(frame.Width, frame.Height); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	r.cull(frame.Camera)

	t := &r.targets
	viewProj := frame.Camera.ViewProjection()
	if err := r.dev.ClearTarget(t.colorPass, SkyColor, 1); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := r.dev.ClearTarget(t.facePass, [4]float32{}, 1); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	faces := 0
	for _, cm := range r.visible {
		if err := r.dev.ClearTexture(cm.FaceTexture); err != nil {
			return fmt.Errorf("render: %w", err)
		}
		faces += cm.FaceCount
	}

	blockUniforms := func(cm *ChunkMesh) gpu.Uniforms {
		return gpu.Uniforms{
			"viewProj":    viewProj,
			"chunkOrigin": originVec(cm.Coord),
		}
	}

	stop := profiling.Track("render.depthPass")
	for _, cm := range r.visible {
		err := r.draw(r.depthProg, t.depthPass,
			gpu.DepthState{Test: true, Write: true, Compare: gpu.CompareLess}, false,
			cm, blockUniforms(cm), gpu.Bindings{})
		if err != nil {
			stop()
			return fmt.Errorf("render: depth pass: %w", err)
		}
	}
	stop()

	stop = profiling.Track("render.faceVisibilityPass")
	for _, cm := range r.visible {
		err := r.draw(r.faceProg, t.facePass,
			gpu.DepthState{Test: true, Write: false, Compare: gpu.CompareLessEqual}, true,
			cm, blockUniforms(cm), gpu.Bindings{Images: map[int]gpu.Texture{0: cm.FaceTexture}})
		if err != nil {
			stop()
			return fmt.Errorf("render: face visibility pass: %w", err)
		}
	}
	stop()

	stop = profiling.Track("render.lightingPass")
	vo := VolumeOrigin
	for _, cm := range r.visible {
		ft := cm.FaceTexture
		err := r.dev.Dispatch(gpu.DispatchCall{
			Program: r.lightingProg,
			Groups:  [3]int{ft.Width() / LightingGroupSize, ft.Height() / LightingGroupSize, 1},
			Uniforms: gpu.Uniforms{
				"chunkOrigin":  originInts(cm.Coord),
				"volumeOrigin": [3]int32{int32(vo.X), int32(vo.Y), int32(vo.Z)},
				"volumeMin":    VolumeBounds.Min,
				"volumeMax":    VolumeBounds.Max,
				"sunDir":       frame.Sun,
				"sunColor":     SunColor,
				"ambient":      r.cfg.Ambient,
				"faceCount":    uint32(cm.FaceCount),
				"lightCount":   uint32(len(r.lights)),
				"maxSteps":     int32(r.cfg.MaxSteps),
			},
			Bindings: gpu.Bindings{
				Images:  map[int]gpu.Texture{0: ft},
				Storage: map[int]gpu.Buffer{0: cm.Faces, 1: r.lightBuf},
				Tiled:   map[int]gpu.TiledTexture{1: r.volume.Texture()},
			},
		})
		if err != nil {
			stop()
			return fmt.Errorf("render: lighting pass: %w", err)
		}
	}
	stop()

	stop = profiling.Track("render.colorPass")
	for _, cm := range r.visible {
		u := blockUniforms(cm)
		u["ambient"] = r.cfg.Ambient
		err := r.draw(r.colorProg, t.colorPass,
			gpu.DepthState{Test: true, Write: false, Compare: gpu.CompareLessEqual}, true,
			cm, u, gpu.Bindings{Textures: map[int]gpu.Texture{0: r.atlasTex, 3: cm.FaceTexture}})
		if err != nil {
			stop()
			return fmt.Errorf("render: color pass: %w", err)
		}
	}
	stop()

	if err := r.dev.Present(t.color, frame.Width, frame.Height); err != nil {
		return fmt.Errorf("render: present: %w", err)
	}

	r.stats = Stats{Loaded: len(r.meshes), Visible: len(r.visible), Faces: faces}
	r.metrics.FacesEmitted.Set(float64(faces))
	r.metrics.FrameSeconds.Observe(time.Since(start).Seconds())
	return nil
}

// ShadeHit runs the CPU lighting kernel at the point where ray hit a block
// face, as the lighting pass would for the texel under it.
func (r *Renderer) ShadeHit(ray physics.Ray, hit physics.RaycastHit, sun mgl32.Vec3) (mgl32.Vec3, bool) {
	c, ok := r.manager.GetChunk(hit.Voxel.ToChunkCoord())
	if !ok || c.Mesh() == nil {
		return mgl32.Vec3{}, false
	}
	n := hit.Normal
	o, ok := voxel.OrientationFromNormal(voxel.BlockCoord{X: int(n.X()), Y: int(n.Y()), Z: int(n.Z())})
	if !ok {
		return mgl32.Vec3{}, false
	}
	lx, ly, lz := hit.Voxel.Local()
	center := [3]float32{float32(lx) + 0.5, float32(ly) + 0.5, float32(lz) + 0.5}
	for _, f := range c.Mesh().Faces {
		if f.Position != center || voxel.Orientation(f.Orientation) != o {
			continue
		}
		p := ray.At(hit.T).Sub(c.Origin().Vec3()).Sub(mgl32.Vec3(f.Position))
		u := 0.5 - p.Dot(mgl32.Vec3(f.Right))
		v := 0.5 - p.Dot(mgl32.Vec3(f.Up))
		return ShadeTexel(r.volume, c.Origin(), f, u, v, LightingParams{
			Sun:      sun,
			Ambient:  r.cfg.Ambient,
			MaxSteps: r.cfg.MaxSteps,
			Lights:   r.lights,
		}), true
	}
	return mgl32.Vec3{}, false
}

func (r *Renderer) release() {
	for _, cm := range r.meshes {
		cm.Release()
	}
	r.meshes = nil
	r.targets.release()
	if r.volume != nil {
		r.volume.Release()
	}
	gpu.ReleaseAll(r.lightBuf, r.atlasTex, r.depthProg, r.faceProg, r.lightingProg, r.colorProg)
}

// Release unsubscribes from the manager and frees all device state.
func (r *Renderer) Release() {
	r.manager.RemoveListener(r)
	r.release()
}
