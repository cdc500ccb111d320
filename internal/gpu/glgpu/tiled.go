package glgpu

import (
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"

	"voxelshade/internal/gpu"
)

// PoolTilesPerAxis is how many tiles the pool packs along x and y. Tile i
// sits at ((i%8), (i/8)%8, i/64) in tile units.
const PoolTilesPerAxis = 8

// tiledTexture emulates a sparse texture with a page table texture whose
// texels hold tile+1 (0 = unmapped) and a pool texture holding the tiles.
type tiledTexture struct {
	desc      gpu.TiledTextureDesc
	pageTable uint32
	pool      uint32
	layers    int
}

func (t *tiledTexture) PageTableSize() int { return t.desc.PageTableSize }
func (t *tiledTexture) TileSize() int      { return t.desc.TileSize }
func (t *tiledTexture) Tiles() int         { return t.desc.Tiles }

func (t *tiledTexture) Release() {
	if t.pageTable != 0 {
		gl.DeleteTextures(1, &t.pageTable)
		t.pageTable = 0
	}
	if t.pool != 0 {
		gl.DeleteTextures(1, &t.pool)
		t.pool = 0
	}
}

func poolLayers(tiles int) int {
	per := PoolTilesPerAxis * PoolTilesPerAxis
	return max(1, (tiles+per-1)/per)
}

func tileBase(tile, size int) (x, y, z int32) {
	return int32(tile % PoolTilesPerAxis * size),
		int32(tile / PoolTilesPerAxis % PoolTilesPerAxis * size),
		int32(tile / (PoolTilesPerAxis * PoolTilesPerAxis) * size)
}

func newTexture3D(w, h, depth int) uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_3D, id)
	gl.TexParameteri(gl.TEXTURE_3D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_3D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_3D, gl.TEXTURE_MAX_LEVEL, 0)
	gl.TexImage3D(gl.TEXTURE_3D, 0, gl.R32UI, int32(w), int32(h), int32(depth), 0, gl.RED_INTEGER, gl.UNSIGNED_INT, nil)
	gl.ClearTexImage(id, 0, gl.RED_INTEGER, gl.UNSIGNED_INT, nil)
	gl.BindTexture(gl.TEXTURE_3D, 0)
	return id
}

func (d *Device) CreateTiledTexture(desc gpu.TiledTextureDesc) (gpu.TiledTexture, error) {
	if desc.PageTableSize <= 0 || desc.TileSize <= 0 {
		return nil, fmt.Errorf("%w: tiled texture %+v", gpu.ErrResource, desc)
	}
	p := desc.PageTableSize
	t := &tiledTexture{
		desc:      desc,
		pageTable: newTexture3D(p, p, p),
		layers:    poolLayers(desc.Tiles),
	}
	side := PoolTilesPerAxis * desc.TileSize
	t.pool = newTexture3D(side, side, t.layers*desc.TileSize)
	if err := d.check("create tiled texture"); err != nil {
		t.Release()
		return nil, err
	}
	return t, nil
}

// ResizeTilePool grows the pool. A new pool texture is only allocated when
// the tiles no longer fit the current layers; the old tiles are copied over.
func (d *Device) ResizeTilePool(tt gpu.TiledTexture, tiles int) error {
	t := tt.(*tiledTexture)
	if tiles < t.desc.Tiles {
		return fmt.Errorf("resize tile pool: shrinking from %d to %d: %w", t.desc.Tiles, tiles, gpu.ErrResource)
	}
	layers := poolLayers(tiles)
	if layers > t.layers {
		size := t.desc.TileSize
		side := PoolTilesPerAxis * size
		pool := newTexture3D(side, side, layers*size)
		gl.CopyImageSubData(
			t.pool, gl.TEXTURE_3D, 0, 0, 0, 0,
			pool, gl.TEXTURE_3D, 0, 0, 0, 0,
			int32(side), int32(side), int32(t.layers*size),
		)
		gl.DeleteTextures(1, &t.pool)
		t.pool = pool
		t.layers = layers
	}
	t.desc.Tiles = tiles
	return d.check("resize tile pool")
}

func (d *Device) writePage(t *tiledTexture, page [3]int, value uint32) {
	gl.BindTexture(gl.TEXTURE_3D, t.pageTable)
	gl.TexSubImage3D(gl.TEXTURE_3D, 0,
		int32(page[0]), int32(page[1]), int32(page[2]), 1, 1, 1,
		gl.RED_INTEGER, gl.UNSIGNED_INT, gl.Ptr(&value))
	gl.BindTexture(gl.TEXTURE_3D, 0)
}

func (t *tiledTexture) checkPage(page [3]int) error {
	for _, p := range page {
		if p < 0 || p >= t.desc.PageTableSize {
			return fmt.Errorf("%w: page %v outside table of %d", gpu.ErrDeviceLost, page, t.desc.PageTableSize)
		}
	}
	return nil
}

func (d *Device) MapTile(tt gpu.TiledTexture, page [3]int, tile int) error {
	t := tt.(*tiledTexture)
	if err := t.checkPage(page); err != nil {
		return err
	}
	if tile < 0 || tile >= t.desc.Tiles {
		return fmt.Errorf("%w: tile %d outside pool of %d", gpu.ErrDeviceLost, tile, t.desc.Tiles)
	}
	d.writePage(t, page, uint32(tile+1))
	return d.check("map tile")
}

func (d *Device) UnmapTile(tt gpu.TiledTexture, page [3]int) error {
	t := tt.(*tiledTexture)
	if err := t.checkPage(page); err != nil {
		return err
	}
	d.writePage(t, page, 0)
	return d.check("unmap tile")
}

func (d *Device) UpdateTile(tt gpu.TiledTexture, tile int, texels []uint32) error {
	t := tt.(*tiledTexture)
	size := t.desc.TileSize
	if len(texels) != size*size*size {
		return fmt.Errorf("%w: tile update of %d texels", gpu.ErrDeviceLost, len(texels))
	}
	if tile < 0 || tile >= t.desc.Tiles {
		return fmt.Errorf("%w: tile %d outside pool of %d", gpu.ErrDeviceLost, tile, t.desc.Tiles)
	}
	x, y, z := tileBase(tile, size)
	gl.BindTexture(gl.TEXTURE_3D, t.pool)
	gl.TexSubImage3D(gl.TEXTURE_3D, 0, x, y, z, int32(size), int32(size), int32(size),
		gl.RED_INTEGER, gl.UNSIGNED_INT, gl.Ptr(texels))
	gl.BindTexture(gl.TEXTURE_3D, 0)
	return d.check("update tile")
}
