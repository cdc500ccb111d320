// Package atlas packs per-block face images into one texture with a fixed
// tile per (block, orientation).
package atlas

import (
	"image"
	"image/color"

	"voxelshade/internal/voxel"
)

const (
	// TileSize is the edge length of one face image in pixels.
	TileSize = 16
	// Columns holds one column per orientation, in iteration order.
	Columns = voxel.OrientationCount
)

// Tile addresses one tile of the atlas grid.
type Tile struct {
	Column, Row int
}

// Rect is a rectangle in normalized texture space.
type Rect struct {
	X, Y, W, H float32
}

// Atlas is immutable once built.
type Atlas struct {
	img  *image.RGBA
	rows int
	row  map[voxel.BlockID]int
}

// Image returns the packed RGBA pixels, row 0 at the top.
func (a *Atlas) Image() *image.RGBA { return a.img }

func (a *Atlas) Rows() int { return a.rows }

// MissingRow is the row used for block IDs that were never registered.
func (a *Atlas) MissingRow() int { return a.rows - 1 }

// Has reports whether id was registered.
func (a *Atlas) Has(id voxel.BlockID) bool {
	_, ok := a.row[id]
	return ok
}

// Tile returns the grid cell holding id's face o.
func (a *Atlas) Tile(id voxel.BlockID, o voxel.Orientation) Tile {
	r, ok := a.row[id]
	if !ok {
		r = a.MissingRow()
	}
	return Tile{Column: int(o), Row: r}
}

// TileBounds returns the normalized rectangle of id's face o.
func (a *Atlas) TileBounds(id voxel.BlockID, o voxel.Orientation) Rect {
	return a.Bounds(a.Tile(id, o))
}

// Bounds converts a tile to its normalized rectangle.
func (a *Atlas) Bounds(t Tile) Rect {
	return Rect{
		X: float32(t.Column) / Columns,
		Y: float32(t.Row) / float32(a.rows),
		W: 1.0 / Columns,
		H: 1.0 / float32(a.rows),
	}
}

// Texel samples tile t at local coordinates u, v in [0,1) with nearest
// filtering.
func (a *Atlas) Texel(t Tile, u, v float32) color.RGBA {
	px := int(u * TileSize)
	py := int(v * TileSize)
	px = min(max(px, 0), TileSize-1)
	py = min(max(py, 0), TileSize-1)
	return a.img.RGBAAt(t.Column*TileSize+px, t.Row*TileSize+py)
}
