package gputest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelshade/internal/gpu"
)

func TestLiveTracking(t *testing.T) {
	d := New()
	b, err := d.CreateBuffer(gpu.VertexBuffer, []byte{1, 2, 3})
	require.NoError(t, err)
	tex, err := d.CreateTexture(gpu.TextureDesc{Width: 2, Height: 2, Format: gpu.FormatRGBA8})
	require.NoError(t, err)
	assert.Equal(t, 2, d.Live())
	assert.Equal(t, 3, b.Size())

	b.Release()
	b.Release()
	assert.Equal(t, 1, d.Live())
	assert.Equal(t, 1, d.Count("Release"))
	assert.Equal(t, 1, d.LiveOf("texture"))
	tex.Release()
	assert.Zero(t, d.Live())
}

func TestFailOnce(t *testing.T) {
	d := New()
	d.FailOn("CreateBuffer", gpu.ErrResource)
	_, err := d.CreateBuffer(gpu.IndexBuffer, nil)
	require.ErrorIs(t, err, gpu.ErrResource)
	assert.Zero(t, d.Live())

	_, err = d.CreateBuffer(gpu.IndexBuffer, nil)
	require.NoError(t, err)
}

func TestTiledTexture(t *testing.T) {
	d := New()
	v, err := d.CreateTiledTexture(gpu.TiledTextureDesc{PageTableSize: 4, TileSize: 2, Tiles: 1})
	require.NoError(t, err)

	require.Error(t, d.MapTile(v, [3]int{0, 0, 0}, 1))
	require.NoError(t, d.ResizeTilePool(v, 2))
	require.NoError(t, d.MapTile(v, [3]int{1, 0, 0}, 1))
	require.NoError(t, d.UpdateTile(v, 1, []uint32{1, 2, 3, 4, 5, 6, 7, 8}))

	tt := v.(*TiledTexture)
	assert.Equal(t, uint32(1), tt.Texel(2, 0, 0))
	assert.Equal(t, uint32(2), tt.Texel(3, 0, 0))
	assert.Equal(t, uint32(3), tt.Texel(2, 1, 0))
	assert.Equal(t, uint32(5), tt.Texel(2, 0, 1))
	assert.Zero(t, tt.Texel(0, 0, 0))
	assert.Zero(t, tt.Texel(-1, 0, 0))

	require.NoError(t, d.UnmapTile(v, [3]int{1, 0, 0}))
	assert.Zero(t, tt.Texel(2, 0, 0))
	require.Error(t, d.UpdateTile(v, 0, []uint32{1}))
	require.Error(t, d.MapTile(v, [3]int{4, 0, 0}, 0))
}

func TestUseAfterRelease(t *testing.T) {
	d := New()
	p, err := d.CreateProgram(gpu.ProgramSource{Name: "k", Compute: "void main(){}"})
	require.NoError(t, err)
	p.Release()
	err = d.Dispatch(gpu.DispatchCall{Program: p, Groups: [3]int{1, 1, 1}})
	require.ErrorIs(t, err, gpu.ErrDeviceLost)
}
