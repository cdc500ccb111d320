package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ChunkRebuilds.Inc()
	m.TilePoolCapacity.Set(32)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["voxelshade_chunk_rebuilds_total"])
	assert.True(t, names["voxelshade_tile_pool_capacity"])
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ChunkRebuilds))
}

func TestNewWithoutRegistry(t *testing.T) {
	m := New(nil)
	m.ChunksLoaded.Set(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(m.ChunksLoaded))
}
