package render

import (
	"errors"
	"fmt"

	"voxelshade/internal/gpu"
	"voxelshade/internal/metrics"
	"voxelshade/internal/voxel"
)

const (
	// PageTableSize is the addressable extent of the volume in chunks per
	// axis.
	PageTableSize = 128
	// TileSize is the edge of one tile in texels; one tile holds one chunk.
	TileSize = voxel.ChunkWidth
)

// VolumeOrigin is the page holding chunk (0,0,0). Chunks within
// [-64, 64) on every axis are addressable.
var VolumeOrigin = voxel.ChunkCoord{X: PageTableSize / 2, Y: PageTableSize / 2, Z: PageTableSize / 2}

// ErrOutOfRange is returned for chunks the page table cannot address.
var ErrOutOfRange = errors.New("render: chunk outside volume")

// TiledVolume stores block ids of every loaded chunk in a sparse 3D
// texture that shaders sample for shadow rays. It keeps a CPU copy of each
// tile so the same lookups can run on the CPU.
type TiledVolume struct {
	dev     gpu.Device
	tex     gpu.TiledTexture
	pool    *TilePool
	tiles   map[voxel.ChunkCoord]int
	mirror  map[int]*[voxel.ChunkVolume]uint32
	metrics *metrics.Metrics
}

func NewTiledVolume(dev gpu.Device, m *metrics.Metrics) (*TiledVolume, error) {
	if m == nil {
		m = metrics.New(nil)
	}
	tex, err := dev.CreateTiledTexture(gpu.TiledTextureDesc{
		PageTableSize: PageTableSize,
		TileSize:      TileSize,
		Tiles:         InitialTiles,
	})
	if err != nil {
		return nil, fmt.Errorf("create block volume: %w", err)
	}
	v := &TiledVolume{
		dev:     dev,
		tex:     tex,
		tiles:   make(map[voxel.ChunkCoord]int),
		mirror:  make(map[int]*[voxel.ChunkVolume]uint32),
		metrics: m,
	}
	v.pool = NewTilePool(func(capacity int) {
		m.TilePoolGrows.Inc()
		m.TilePoolCapacity.Set(float64(capacity))
	})
	m.TilePoolCapacity.Set(float64(v.pool.Capacity()))
	return v, nil
}

// Texture is the device texture for binding.
func (v *TiledVolume) Texture() gpu.TiledTexture { return v.tex }

func (v *TiledVolume) Pool() *TilePool { return v.pool }

// Page returns the page table cell of cc.
func Page(cc voxel.ChunkCoord) ([3]int, bool) {
	p := cc.Add(VolumeOrigin)
	page := [3]int{p.X, p.Y, p.Z}
	for _, c := range page {
		if c < 0 || c >= PageTableSize {
			return page, false
		}
	}
	return page, true
}

func (v *TiledVolume) IsMapped(cc voxel.ChunkCoord) bool {
	_, ok := v.tiles[cc]
	return ok
}

// MapChunk backs cc with a tile. Mapping an already mapped chunk is a
// no-op.
func (v *TiledVolume) MapChunk(cc voxel.ChunkCoord) error {
	if v.IsMapped(cc) {
		return nil
	}
	page, ok := Page(cc)
	if !ok {
		return fmt.Errorf("map chunk %v: %w", cc, ErrOutOfRange)
	}
	tile, _ := v.pool.Acquire()
	if v.pool.Capacity() > v.tex.Tiles() {
		if err := v.dev.ResizeTilePool(v.tex, v.pool.Capacity()); err != nil {
			v.pool.Release(tile)
			return fmt.Errorf("map chunk %v: %w", cc, err)
		}
	}
	if err := v.dev.MapTile(v.tex, page, tile); err != nil {
		v.pool.Release(tile)
		return fmt.Errorf("map chunk %v: %w", cc, err)
	}
	v.tiles[cc] = tile
	v.mirror[tile] = new([voxel.ChunkVolume]uint32)
	v.metrics.TilePoolInUse.Set(float64(v.pool.InUse()))
	return nil
}

// UnmapChunk releases the tile of cc. Unmapped chunks are ignored.
func (v *TiledVolume) UnmapChunk(cc voxel.ChunkCoord) error {
	tile, ok := v.tiles[cc]
	if !ok {
		return nil
	}
	page, _ := Page(cc)
	delete(v.tiles, cc)
	delete(v.mirror, tile)
	v.pool.Release(tile)
	v.metrics.TilePoolInUse.Set(float64(v.pool.InUse()))
	if err := v.dev.UnmapTile(v.tex, page); err != nil {
		return fmt.Errorf("unmap chunk %v: %w", cc, err)
	}
	return nil
}

// UpdateChunk uploads the block ids of cc. The chunk must be mapped.
func (v *TiledVolume) UpdateChunk(cc voxel.ChunkCoord, blocks *[voxel.ChunkVolume]voxel.BlockData) error {
	tile, ok := v.tiles[cc]
	if !ok {
		panic(fmt.Sprintf("render: update of unmapped chunk %v", cc))
	}
	texels := v.mirror[tile]
	for i := range blocks {
		x, y, z := voxel.LocalFromIndex(i)
		texels[texelIndex(x, y, z)] = uint32(blocks[i].ID)
	}
	if err := v.dev.UpdateTile(v.tex, tile, texels[:]); err != nil {
		return fmt.Errorf("update chunk %v: %w", cc, err)
	}
	return nil
}

// texelIndex is the tile layout: x fastest, then y, then z.
func texelIndex(x, y, z int) int {
	return x + y*TileSize + z*TileSize*TileSize
}

// Sample returns the block id at a world block coordinate, 0 for air or
// unmapped space. It mirrors sampleVolume in the shaders.
func (v *TiledVolume) Sample(b voxel.BlockCoord) voxel.BlockID {
	tile, ok := v.tiles[b.ToChunkCoord()]
	if !ok {
		return voxel.Air
	}
	x, y, z := b.Local()
	return voxel.BlockID(v.mirror[tile][texelIndex(x, y, z)])
}

// Solid adapts Sample to physics.Grid in world block coordinates.
func (v *TiledVolume) Solid(x, y, z int) bool {
	return v.Sample(voxel.BlockCoord{X: x, Y: y, Z: z}) != voxel.Air
}

func (v *TiledVolume) Release() {
	v.tex.Release()
	v.tiles = nil
	v.mirror = nil
}
