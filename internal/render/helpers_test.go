package render

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"voxelshade/internal/atlas"
	"voxelshade/internal/voxel"
)

func testAtlas(t testing.TB) *atlas.Atlas {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 16, 16))))
	b := atlas.NewBuilder(fstest.MapFS{"x.png": {Data: buf.Bytes()}}, nil)
	for id := voxel.Grass; id <= voxel.Glowstone; id++ {
		b.Add(id, atlas.AllFaces("x.png"))
	}
	a, err := b.Finish(context.Background())
	require.NoError(t, err)
	return a
}

// cells is a sparse physics.Grid.
type cells map[voxel.BlockCoord]bool

func (c cells) Solid(x, y, z int) bool {
	return c[voxel.BlockCoord{X: x, Y: y, Z: z}]
}
