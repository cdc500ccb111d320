package atlas

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"testing/fstest"

	"voxelshade/internal/voxel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidPNG(t *testing.T, size int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

var (
	red   = color.RGBA{255, 0, 0, 255}
	green = color.RGBA{0, 255, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
)

func testFS(t *testing.T) fstest.MapFS {
	return fstest.MapFS{
		"grass_top.png":  {Data: solidPNG(t, 16, green)},
		"grass_side.png": {Data: solidPNG(t, 16, red)},
		"dirt.png":       {Data: solidPNG(t, 32, blue)},
	}
}

func TestFinishPacksRowsInRegistrationOrder(t *testing.T) {
	b := NewBuilder(testFS(t), nil)
	b.Add(voxel.Grass, SideFaces("grass_top.png", "grass_side.png", "dirt.png"))
	b.Add(voxel.Dirt, AllFaces("dirt.png"))

	a, err := b.Finish(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, a.Rows(), "two blocks plus the missing row")
	assert.Equal(t, image.Rect(0, 0, Columns*TileSize, 3*TileSize), a.Image().Bounds())

	assert.Equal(t, Tile{Column: int(voxel.Top), Row: 0}, a.Tile(voxel.Grass, voxel.Top))
	assert.Equal(t, Tile{Column: int(voxel.Left), Row: 1}, a.Tile(voxel.Dirt, voxel.Left))

	assert.Equal(t, green, a.Texel(a.Tile(voxel.Grass, voxel.Top), 0.5, 0.5))
	assert.Equal(t, blue, a.Texel(a.Tile(voxel.Grass, voxel.Bottom), 0.1, 0.9))
	assert.Equal(t, red, a.Texel(a.Tile(voxel.Grass, voxel.Right), 0.99, 0))
	// 32x32 source is scaled into the 16x16 tile
	assert.Equal(t, blue, a.Texel(a.Tile(voxel.Dirt, voxel.Forward), 0.99, 0.99))
}

func TestTileBounds(t *testing.T) {
	b := NewBuilder(testFS(t), nil)
	b.Add(voxel.Grass, SideFaces("grass_top.png", "grass_side.png", "dirt.png"))
	b.Add(voxel.Dirt, AllFaces("dirt.png"))
	a, err := b.Finish(context.Background())
	require.NoError(t, err)

	r := a.TileBounds(voxel.Dirt, voxel.Right)
	assert.InDelta(t, 3.0/6, r.X, 1e-6)
	assert.InDelta(t, 1.0/3, r.Y, 1e-6)
	assert.InDelta(t, 1.0/6, r.W, 1e-6)
	assert.InDelta(t, 1.0/3, r.H, 1e-6)
}

func TestUnregisteredBlockUsesMissingRow(t *testing.T) {
	b := NewBuilder(testFS(t), nil)
	b.Add(voxel.Dirt, AllFaces("dirt.png"))
	a, err := b.Finish(context.Background())
	require.NoError(t, err)

	assert.False(t, a.Has(voxel.Glowstone))
	assert.Equal(t, a.MissingRow(), a.Tile(voxel.Glowstone, voxel.Top).Row)
	assert.Equal(t, missingA, a.Texel(a.Tile(voxel.Glowstone, voxel.Top), 0, 0))
}

func TestFinishReportsMissingFile(t *testing.T) {
	b := NewBuilder(testFS(t), nil)
	b.Add(voxel.Stone, AllFaces("stone.png"))
	_, err := b.Finish(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stone.png")
}

func TestBuilderMisuse(t *testing.T) {
	b := NewBuilder(testFS(t), nil)
	b.Add(voxel.Dirt, AllFaces("dirt.png"))
	assert.Panics(t, func() { b.Add(voxel.Dirt, AllFaces("dirt.png")) })

	_, err := b.Finish(context.Background())
	require.NoError(t, err)
	assert.Panics(t, func() { b.Add(voxel.Stone, AllFaces("dirt.png")) })
	assert.Panics(t, func() { _, _ = b.Finish(context.Background()) })
}
